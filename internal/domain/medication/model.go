package medication

import (
	"time"

	"github.com/google/uuid"
)

// Medication maps to the medication table: the clinic's dispensing
// catalog, not a prescription.
type Medication struct {
	ID            uuid.UUID `db:"id" json:"id"`
	Code          string    `db:"code" json:"code"`
	Name          string    `db:"name" json:"name"`
	Unit          string    `db:"unit" json:"unit"`
	Route         *string   `db:"route" json:"route,omitempty"`
	Strength      *string   `db:"strength" json:"strength,omitempty"`
	Manufacturer  *string   `db:"manufacturer" json:"manufacturer,omitempty"`
	Price         float64   `db:"price" json:"price"`
	StockQuantity int       `db:"stock_quantity" json:"stock_quantity"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}
