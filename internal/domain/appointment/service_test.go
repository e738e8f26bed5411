package appointment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	store map[uuid.UUID]*Appointment
}

func newMockRepo() *mockRepo {
	return &mockRepo{store: make(map[uuid.UUID]*Appointment)}
}

func (m *mockRepo) Create(_ context.Context, a *Appointment) error {
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := m.store[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, a *Appointment) error {
	if _, ok := m.store[a.ID]; !ok {
		return errors.New("missing row")
	}
	cp := *a
	m.store[a.ID] = &cp
	return nil
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.store {
		if a.PatientID == patientID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByDoctor(_ context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	var out []*Appointment
	for _, a := range m.store {
		if a.DoctorID == doctorID {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) ListByDay(_ context.Context, day time.Time) ([]*Appointment, error) {
	start := day.Truncate(24 * time.Hour)
	end := start.Add(24 * time.Hour)
	var out []*Appointment
	for _, a := range m.store {
		if !a.ScheduledStart.Before(start) && a.ScheduledStart.Before(end) {
			cp := *a
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *mockRepo) CountOverlapping(_ context.Context, doctorID uuid.UUID, start, end time.Time, excludeID uuid.UUID) (int, error) {
	n := 0
	for _, a := range m.store {
		if a.ID == excludeID || a.DoctorID != doctorID {
			continue
		}
		if a.Status == StatusCancelled || a.Status == StatusNoShow {
			continue
		}
		if a.ScheduledStart.Before(end) && a.ScheduledEnd.After(start) {
			n++
		}
	}
	return n, nil
}

func newTestService() (*Service, *mockRepo) {
	repo := newMockRepo()
	svc := NewService(repo)
	svc.SetClock(func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) })
	return svc, repo
}

func slot(h int) (time.Time, time.Time) {
	start := time.Date(2026, 3, 12, h, 0, 0, 0, time.UTC)
	return start, start.Add(30 * time.Minute)
}

func book(t *testing.T, svc *Service, doctor, patient uuid.UUID, h int) *Appointment {
	t.Helper()
	start, end := slot(h)
	a := &Appointment{PatientID: patient, DoctorID: doctor, ScheduledStart: start, ScheduledEnd: end}
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("book: %v", err)
	}
	return a
}

func TestBook(t *testing.T) {
	svc, repo := newTestService()
	a := book(t, svc, uuid.New(), uuid.New(), 10)

	if a.Status != StatusBooked {
		t.Errorf("status = %s, want booked", a.Status)
	}
	if a.ID == uuid.Nil {
		t.Error("id not assigned")
	}
	if !a.CreatedAt.Equal(a.UpdatedAt) {
		t.Error("created_at and updated_at should match on insert")
	}
	if len(repo.store) != 1 {
		t.Errorf("stored %d appointments, want 1", len(repo.store))
	}
}

func TestBook_Validation(t *testing.T) {
	svc, _ := newTestService()
	start, end := slot(10)

	cases := []struct {
		name string
		a    *Appointment
	}{
		{"missing patient", &Appointment{DoctorID: uuid.New(), ScheduledStart: start, ScheduledEnd: end}},
		{"missing doctor", &Appointment{PatientID: uuid.New(), ScheduledStart: start, ScheduledEnd: end}},
		{"missing window", &Appointment{PatientID: uuid.New(), DoctorID: uuid.New()}},
		{"end before start", &Appointment{PatientID: uuid.New(), DoctorID: uuid.New(), ScheduledStart: end, ScheduledEnd: start}},
		{"zero length", &Appointment{PatientID: uuid.New(), DoctorID: uuid.New(), ScheduledStart: start, ScheduledEnd: start}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := svc.Book(context.Background(), tc.a); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestBook_DoctorConflict(t *testing.T) {
	svc, _ := newTestService()
	doctor := uuid.New()
	book(t, svc, doctor, uuid.New(), 10)

	// overlapping window for the same doctor
	start, _ := slot(10)
	a := &Appointment{
		PatientID:      uuid.New(),
		DoctorID:       doctor,
		ScheduledStart: start.Add(15 * time.Minute),
		ScheduledEnd:   start.Add(45 * time.Minute),
	}
	if err := svc.Book(context.Background(), a); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	// same window, different doctor is fine
	a.DoctorID = uuid.New()
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("other doctor should book: %v", err)
	}
}

func TestBook_BackToBackDoesNotConflict(t *testing.T) {
	svc, _ := newTestService()
	doctor := uuid.New()
	first := book(t, svc, doctor, uuid.New(), 10)

	a := &Appointment{
		PatientID:      uuid.New(),
		DoctorID:       doctor,
		ScheduledStart: first.ScheduledEnd,
		ScheduledEnd:   first.ScheduledEnd.Add(30 * time.Minute),
	}
	if err := svc.Book(context.Background(), a); err != nil {
		t.Fatalf("adjacent slot should book: %v", err)
	}
}

func TestBook_CancelledSlotDoesNotBlock(t *testing.T) {
	svc, _ := newTestService()
	doctor := uuid.New()
	first := book(t, svc, doctor, uuid.New(), 10)
	if _, err := svc.UpdateStatus(context.Background(), first.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	second := book(t, svc, doctor, uuid.New(), 10)
	if second.Status != StatusBooked {
		t.Errorf("status = %s, want booked", second.Status)
	}
}

func TestUpdateStatus_Flow(t *testing.T) {
	svc, _ := newTestService()
	a := book(t, svc, uuid.New(), uuid.New(), 10)

	for _, next := range []Status{StatusConfirmed, StatusCheckedIn, StatusCompleted} {
		got, err := svc.UpdateStatus(context.Background(), a.ID, next)
		if err != nil {
			t.Fatalf("move to %s: %v", next, err)
		}
		if got.Status != next {
			t.Fatalf("status = %s, want %s", got.Status, next)
		}
	}
}

func TestUpdateStatus_SkippingCheckInFails(t *testing.T) {
	svc, _ := newTestService()
	a := book(t, svc, uuid.New(), uuid.New(), 10)

	if _, err := svc.UpdateStatus(context.Background(), a.ID, StatusCompleted); err == nil {
		t.Error("booked appointment should not complete directly")
	}
}

func TestUpdateStatus_TerminalIsImmutable(t *testing.T) {
	svc, _ := newTestService()

	for _, terminal := range []Status{StatusCancelled, StatusNoShow} {
		a := book(t, svc, uuid.New(), uuid.New(), 10)
		if _, err := svc.UpdateStatus(context.Background(), a.ID, terminal); err != nil {
			t.Fatalf("move to %s: %v", terminal, err)
		}
		if _, err := svc.UpdateStatus(context.Background(), a.ID, StatusConfirmed); err == nil {
			t.Errorf("%s appointment should be immutable", terminal)
		}
	}
}

func TestUpdateStatus_NotFound(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.UpdateStatus(context.Background(), uuid.New(), StatusConfirmed); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestReschedule(t *testing.T) {
	svc, _ := newTestService()
	doctor := uuid.New()
	a := book(t, svc, doctor, uuid.New(), 10)
	blocker := book(t, svc, doctor, uuid.New(), 14)

	// moving onto the blocker conflicts
	if _, err := svc.Reschedule(context.Background(), a.ID, blocker.ScheduledStart, blocker.ScheduledEnd); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}

	// moving within its own original window does not conflict with itself
	newStart := a.ScheduledStart.Add(10 * time.Minute)
	got, err := svc.Reschedule(context.Background(), a.ID, newStart, newStart.Add(30*time.Minute))
	if err != nil {
		t.Fatalf("reschedule: %v", err)
	}
	if !got.ScheduledStart.Equal(newStart) {
		t.Errorf("start = %v, want %v", got.ScheduledStart, newStart)
	}
}

func TestReschedule_TerminalFails(t *testing.T) {
	svc, _ := newTestService()
	a := book(t, svc, uuid.New(), uuid.New(), 10)
	if _, err := svc.UpdateStatus(context.Background(), a.ID, StatusCancelled); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	start, end := slot(15)
	if _, err := svc.Reschedule(context.Background(), a.ID, start, end); err == nil {
		t.Error("cancelled appointment should not reschedule")
	}
}

func TestSchedules(t *testing.T) {
	svc, _ := newTestService()
	doctor := uuid.New()
	patient := uuid.New()
	book(t, svc, doctor, patient, 9)
	book(t, svc, doctor, uuid.New(), 11)
	book(t, svc, uuid.New(), patient, 13)

	byPatient, err := svc.PatientSchedule(context.Background(), patient)
	if err != nil {
		t.Fatalf("patient schedule: %v", err)
	}
	if len(byPatient) != 2 {
		t.Errorf("patient has %d appointments, want 2", len(byPatient))
	}

	byDoctor, err := svc.DoctorSchedule(context.Background(), doctor)
	if err != nil {
		t.Fatalf("doctor schedule: %v", err)
	}
	if len(byDoctor) != 2 {
		t.Errorf("doctor has %d appointments, want 2", len(byDoctor))
	}

	byDay, err := svc.DaySchedule(context.Background(), time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("day schedule: %v", err)
	}
	if len(byDay) != 3 {
		t.Errorf("day has %d appointments, want 3", len(byDay))
	}
}
