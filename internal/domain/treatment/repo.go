package treatment

import (
	"context"

	"github.com/google/uuid"
)

type PlanRepository interface {
	Create(ctx context.Context, p *TreatmentPlan) error
	GetByID(ctx context.Context, id uuid.UUID) (*TreatmentPlan, error)
	Update(ctx context.Context, p *TreatmentPlan) error
	ListByRecord(ctx context.Context, recordID uuid.UUID) ([]*TreatmentPlan, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*TreatmentPlan, error)
}

type MedicationRepository interface {
	ReplaceForPlan(ctx context.Context, planID uuid.UUID, meds []*PlanMedication) error
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]*PlanMedication, error)
}

type ReminderRepository interface {
	ReplaceForPlan(ctx context.Context, planID uuid.UUID, rems []*TreatmentReminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*TreatmentReminder, error)
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]*TreatmentReminder, error)
}

// ResponseRepository is append-only: responses are never updated or deleted.
type ResponseRepository interface {
	Append(ctx context.Context, r *ReminderResponse) error
	ListByReminder(ctx context.Context, reminderID uuid.UUID) ([]*ReminderResponse, error)
}

type ProgressRepository interface {
	Upsert(ctx context.Context, e *ProgressEntry) error
	ListByPlan(ctx context.Context, planID uuid.UUID) ([]*ProgressEntry, error)
}

// TxRunner runs fn atomically. Repositories participating in the same run
// see and join the transaction through the context.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}
