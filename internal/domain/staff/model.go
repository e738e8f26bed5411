package staff

import (
	"time"

	"github.com/google/uuid"
)

// Role is the clinic role a staff member acts under. It doubles as the
// RBAC role carried in auth tokens.
type Role string

const (
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleReceptionist Role = "receptionist"
	RoleAdmin        Role = "admin"
)

// Staff maps to the staff table.
type Staff struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Code      string    `db:"code" json:"code"`
	FullName  string    `db:"full_name" json:"full_name"`
	Role      Role      `db:"role" json:"role"`
	Specialty *string   `db:"specialty" json:"specialty,omitempty"`
	Phone     *string   `db:"phone" json:"phone,omitempty"`
	Email     *string   `db:"email" json:"email,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
