package appointment

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Repository persists appointments.
type Repository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error)
	ListByDay(ctx context.Context, day time.Time) ([]*Appointment, error)
	// CountOverlapping counts live appointments for the doctor whose window
	// intersects [start, end). Cancelled and no_show bookings do not block.
	CountOverlapping(ctx context.Context, doctorID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (int, error)
}
