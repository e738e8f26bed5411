package staff

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Staff) error
	GetByID(ctx context.Context, id uuid.UUID) (*Staff, error)
	Update(ctx context.Context, s *Staff) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Staff, int, error)
	ListByRole(ctx context.Context, role Role, limit, offset int) ([]*Staff, int, error)
}
