package patient

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	store map[uuid.UUID]*Patient
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Patient)}
}

func (m *mockRepo) Create(_ context.Context, p *Patient) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	p, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetByCode(_ context.Context, code string) (*Patient, error) {
	for _, p := range m.store {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockRepo) Update(_ context.Context, p *Patient) error {
	if _, ok := m.store[p.ID]; !ok {
		return fmt.Errorf("not found")
	}
	cp := *p
	m.store[p.ID] = &cp
	return nil
}

func (m *mockRepo) List(_ context.Context, activeOnly bool, limit, offset int) ([]*Patient, int, error) {
	var r []*Patient
	for _, p := range m.store {
		if activeOnly && !p.Active {
			continue
		}
		r = append(r, p)
	}
	return r, len(r), nil
}

func (m *mockRepo) Search(_ context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	var r []*Patient
	q := strings.ToLower(query)
	for _, p := range m.store {
		if !p.Active {
			continue
		}
		phone := ""
		if p.Phone != nil {
			phone = *p.Phone
		}
		if strings.Contains(strings.ToLower(p.FullName), q) ||
			strings.Contains(strings.ToLower(p.Code), q) ||
			strings.Contains(phone, q) {
			r = append(r, p)
		}
	}
	return r, len(r), nil
}

func newTestService() *Service {
	return NewService(newMockRepo())
}

func TestCreate_GeneratesCodeAndActivates(t *testing.T) {
	svc := newTestService()
	p := &Patient{FullName: "Minh Tran"}
	if err := svc.Create(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(p.Code, "PT-") {
		t.Errorf("expected generated code, got %q", p.Code)
	}
	if !p.Active {
		t.Error("expected new patient to be active")
	}
}

func TestCreate_MissingName(t *testing.T) {
	svc := newTestService()
	if err := svc.Create(context.Background(), &Patient{}); err == nil {
		t.Fatal("expected error for missing full_name")
	}
}

func TestCreate_InvalidGender(t *testing.T) {
	svc := newTestService()
	g := "unknown"
	if err := svc.Create(context.Background(), &Patient{FullName: "X", Gender: &g}); err == nil {
		t.Fatal("expected error for invalid gender")
	}
}

func TestUpdate_PreservesCode(t *testing.T) {
	svc := newTestService()
	p := &Patient{FullName: "Minh Tran"}
	svc.Create(context.Background(), p)
	code := p.Code

	upd := &Patient{ID: p.ID, FullName: "Minh T. Tran", Code: "PT-HACKED", Active: true}
	if err := svc.Update(context.Background(), upd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upd.Code != code {
		t.Errorf("code must not change on update, got %q", upd.Code)
	}
}

func TestDeactivate(t *testing.T) {
	svc := newTestService()
	p := &Patient{FullName: "Minh Tran"}
	svc.Create(context.Background(), p)

	if err := svc.Deactivate(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := svc.Get(context.Background(), p.ID)
	if got.Active {
		t.Error("expected patient to be inactive")
	}

	items, _, _ := svc.List(context.Background(), true, 10, 0)
	if len(items) != 0 {
		t.Errorf("deactivated patient must leave active lists, got %d", len(items))
	}
}

func TestSearch_MatchesNamePhoneCode(t *testing.T) {
	svc := newTestService()
	phone := "0912345678"
	a := &Patient{FullName: "Minh Tran", Phone: &phone}
	svc.Create(context.Background(), a)
	b := &Patient{FullName: "Lan Pham"}
	svc.Create(context.Background(), b)

	items, _, _ := svc.Search(context.Background(), "minh", 10, 0)
	if len(items) != 1 || items[0].ID != a.ID {
		t.Errorf("expected name match, got %d items", len(items))
	}
	items, _, _ = svc.Search(context.Background(), "0912", 10, 0)
	if len(items) != 1 {
		t.Errorf("expected phone match, got %d items", len(items))
	}
	items, _, _ = svc.Search(context.Background(), "", 10, 0)
	if len(items) != 2 {
		t.Errorf("blank query lists active patients, got %d", len(items))
	}
}
