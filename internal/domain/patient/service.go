package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

var validGenders = map[string]bool{
	"male": true, "female": true, "other": true,
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if strings.TrimSpace(p.FullName) == "" {
		return fmt.Errorf("full_name is required")
	}
	if p.Gender != nil && !validGenders[*p.Gender] {
		return fmt.Errorf("invalid gender: %s", *p.Gender)
	}
	if p.Code == "" {
		p.Code = generateCode()
	}
	p.Active = true
	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.repo.Create(ctx, p)
}

// generateCode derives a short front-desk code from a fresh uuid.
func generateCode() string {
	return "PT-" + strings.ToUpper(uuid.New().String()[:8])
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (*Patient, error) {
	p, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, ErrNotFound
	}
	return p, nil
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	existing, err := s.repo.GetByID(ctx, p.ID)
	if err != nil {
		return ErrNotFound
	}
	if strings.TrimSpace(p.FullName) == "" {
		return fmt.Errorf("full_name is required")
	}
	if p.Gender != nil && !validGenders[*p.Gender] {
		return fmt.Errorf("invalid gender: %s", *p.Gender)
	}
	p.Code = existing.Code
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = s.now()
	return s.repo.Update(ctx, p)
}

// Deactivate hides the patient from active lists without destroying the
// medical trail behind their id.
func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	p.Active = false
	p.UpdatedAt = s.now()
	return s.repo.Update(ctx, p)
}

func (s *Service) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, activeOnly, limit, offset)
}

// Search matches name, phone or code.
func (s *Service) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return s.repo.List(ctx, true, limit, offset)
	}
	return s.repo.Search(ctx, query, limit, offset)
}
