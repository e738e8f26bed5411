package clinicservice

import (
	"time"

	"github.com/google/uuid"
)

// Service maps to the clinic_service table: bookable services with a
// price and a default appointment length.
type Service struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Code            string    `db:"code" json:"code"`
	Name            string    `db:"name" json:"name"`
	Category        string    `db:"category" json:"category"`
	Price           float64   `db:"price" json:"price"`
	DurationMinutes int       `db:"duration_minutes" json:"duration_minutes"`
	Description     *string   `db:"description" json:"description,omitempty"`
	Active          bool      `db:"active" json:"active"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}
