package medication

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, m *Medication) error
	GetByID(ctx context.Context, id uuid.UUID) (*Medication, error)
	Update(ctx context.Context, m *Medication) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Medication, int, error)
	SearchByName(ctx context.Context, name string, limit, offset int) ([]*Medication, int, error)
}
