package medication

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, m *Medication) error {
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(m.Unit) == "" {
		return fmt.Errorf("unit is required")
	}
	if m.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if m.StockQuantity < 0 {
		return fmt.Errorf("stock_quantity must not be negative")
	}
	if m.Code == "" {
		m.Code = "MED-" + strings.ToUpper(uuid.New().String()[:8])
	}
	m.Active = true
	now := s.now()
	m.CreatedAt = now
	m.UpdatedAt = now
	return s.repo.Create(ctx, m)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Medication, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return m, nil
}

func (s *Service) Update(ctx context.Context, m *Medication) error {
	existing, err := s.repo.GetByID(ctx, m.ID)
	if err != nil {
		return ErrNotFound
	}
	if strings.TrimSpace(m.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if m.Price < 0 || m.StockQuantity < 0 {
		return fmt.Errorf("price and stock_quantity must not be negative")
	}
	m.Code = existing.Code
	m.CreatedAt = existing.CreatedAt
	m.UpdatedAt = s.now()
	return s.repo.Update(ctx, m)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	m.Active = false
	m.UpdatedAt = s.now()
	return s.repo.Update(ctx, m)
}

func (s *Service) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Medication, int, error) {
	return s.repo.List(ctx, activeOnly, limit, offset)
}

func (s *Service) SearchByName(ctx context.Context, name string, limit, offset int) ([]*Medication, int, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return s.repo.List(ctx, true, limit, offset)
	}
	return s.repo.SearchByName(ctx, name, limit, offset)
}
