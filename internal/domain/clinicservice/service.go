package clinicservice

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// Catalog is the service layer over the clinic's bookable services.
type Catalog struct {
	repo Repository
	now  func() time.Time
}

func NewCatalog(repo Repository) *Catalog {
	return &Catalog{repo: repo, now: time.Now}
}

func (c *Catalog) Create(ctx context.Context, s *Service) error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if strings.TrimSpace(s.Category) == "" {
		return fmt.Errorf("category is required")
	}
	if s.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if s.DurationMinutes <= 0 {
		s.DurationMinutes = 30
	}
	if s.Code == "" {
		s.Code = "SV-" + strings.ToUpper(uuid.New().String()[:8])
	}
	s.Active = true
	now := c.now()
	s.CreatedAt = now
	s.UpdatedAt = now
	return c.repo.Create(ctx, s)
}

func (c *Catalog) Get(ctx context.Context, id uuid.UUID) (*Service, error) {
	s, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s, nil
}

func (c *Catalog) Update(ctx context.Context, s *Service) error {
	existing, err := c.repo.GetByID(ctx, s.ID)
	if err != nil {
		return ErrNotFound
	}
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("name is required")
	}
	if s.Price < 0 {
		return fmt.Errorf("price must not be negative")
	}
	if s.DurationMinutes <= 0 {
		s.DurationMinutes = existing.DurationMinutes
	}
	s.Code = existing.Code
	s.CreatedAt = existing.CreatedAt
	s.UpdatedAt = c.now()
	return c.repo.Update(ctx, s)
}

func (c *Catalog) Deactivate(ctx context.Context, id uuid.UUID) error {
	s, err := c.repo.GetByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	s.Active = false
	s.UpdatedAt = c.now()
	return c.repo.Update(ctx, s)
}

func (c *Catalog) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Service, int, error) {
	return c.repo.List(ctx, activeOnly, limit, offset)
}

func (c *Catalog) ListByCategory(ctx context.Context, category string, limit, offset int) ([]*Service, int, error) {
	return c.repo.ListByCategory(ctx, category, limit, offset)
}

func (c *Catalog) Categories(ctx context.Context) ([]string, error) {
	return c.repo.Categories(ctx)
}
