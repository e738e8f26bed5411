package patient

import (
	"time"

	"github.com/google/uuid"
)

// Patient maps to the patient table. Code is the human-facing identifier
// printed on cards and used at the front desk.
type Patient struct {
	ID                uuid.UUID  `db:"id" json:"id"`
	Code              string     `db:"code" json:"code"`
	FullName          string     `db:"full_name" json:"full_name"`
	DateOfBirth       *time.Time `db:"date_of_birth" json:"date_of_birth,omitempty"`
	Gender            *string    `db:"gender" json:"gender,omitempty"`
	Phone             *string    `db:"phone" json:"phone,omitempty"`
	Email             *string    `db:"email" json:"email,omitempty"`
	Address           *string    `db:"address" json:"address,omitempty"`
	BloodType         *string    `db:"blood_type" json:"blood_type,omitempty"`
	Allergies         []string   `db:"allergies" json:"allergies,omitempty"`
	ChronicConditions []string   `db:"chronic_conditions" json:"chronic_conditions,omitempty"`
	Active            bool       `db:"active" json:"active"`
	CreatedAt         time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updated_at"`
}
