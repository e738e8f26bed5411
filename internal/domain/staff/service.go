package staff

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

var validRoles = map[Role]bool{
	RoleDoctor: true, RoleNurse: true, RoleReceptionist: true, RoleAdmin: true,
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) Create(ctx context.Context, st *Staff) error {
	if strings.TrimSpace(st.FullName) == "" {
		return fmt.Errorf("full_name is required")
	}
	if !validRoles[st.Role] {
		return fmt.Errorf("invalid role: %s", st.Role)
	}
	if st.Code == "" {
		st.Code = "ST-" + strings.ToUpper(uuid.New().String()[:8])
	}
	st.Active = true
	now := s.now()
	st.CreatedAt = now
	st.UpdatedAt = now
	return s.repo.Create(ctx, st)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Staff, error) {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return st, nil
}

func (s *Service) Update(ctx context.Context, st *Staff) error {
	existing, err := s.repo.GetByID(ctx, st.ID)
	if err != nil {
		return ErrNotFound
	}
	if strings.TrimSpace(st.FullName) == "" {
		return fmt.Errorf("full_name is required")
	}
	if !validRoles[st.Role] {
		return fmt.Errorf("invalid role: %s", st.Role)
	}
	st.Code = existing.Code
	st.CreatedAt = existing.CreatedAt
	st.UpdatedAt = s.now()
	return s.repo.Update(ctx, st)
}

func (s *Service) Deactivate(ctx context.Context, id uuid.UUID) error {
	st, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}
	st.Active = false
	st.UpdatedAt = s.now()
	return s.repo.Update(ctx, st)
}

func (s *Service) List(ctx context.Context, activeOnly bool, limit, offset int) ([]*Staff, int, error) {
	return s.repo.List(ctx, activeOnly, limit, offset)
}

func (s *Service) ListByRole(ctx context.Context, role Role, limit, offset int) ([]*Staff, int, error) {
	if !validRoles[role] {
		return nil, 0, fmt.Errorf("invalid role: %s", role)
	}
	return s.repo.ListByRole(ctx, role, limit, offset)
}
