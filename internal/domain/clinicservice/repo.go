package clinicservice

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, s *Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*Service, error)
	Update(ctx context.Context, s *Service) error
	List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Service, int, error)
	ListByCategory(ctx context.Context, category string, limit, offset int) ([]*Service, int, error)
	Categories(ctx context.Context) ([]string, error)
}
