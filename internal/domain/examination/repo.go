package examination

import (
	"context"

	"github.com/google/uuid"
)

// Repository persists exam records.
type Repository interface {
	Create(ctx context.Context, r *ExamRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*ExamRecord, error)
	Update(ctx context.Context, r *ExamRecord) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ExamRecord, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*ExamRecord, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*ExamRecord, error)
}
