package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the referenced appointment does not exist.
var ErrNotFound = errors.New("appointment not found")

// ErrConflict is returned when the requested slot overlaps an existing
// booking for the same doctor.
var ErrConflict = errors.New("appointment slot conflicts with an existing booking")

// transitions lists the states reachable from each non-terminal state.
var transitions = map[Status][]Status{
	StatusBooked:    {StatusConfirmed, StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusConfirmed: {StatusCheckedIn, StatusCancelled, StatusNoShow},
	StatusCheckedIn: {StatusCompleted, StatusCancelled, StatusNoShow},
}

// Service implements scheduling rules on top of the repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Book validates and stores a new appointment. The slot must not overlap
// another live booking for the same doctor.
func (s *Service) Book(ctx context.Context, a *Appointment) error {
	if a.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if a.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	if a.ScheduledStart.IsZero() || a.ScheduledEnd.IsZero() {
		return fmt.Errorf("scheduled_start and scheduled_end are required")
	}
	if !a.ScheduledEnd.After(a.ScheduledStart) {
		return fmt.Errorf("scheduled_end must be after scheduled_start")
	}

	n, err := s.repo.CountOverlapping(ctx, a.DoctorID, a.ScheduledStart, a.ScheduledEnd, uuid.Nil)
	if err != nil {
		return fmt.Errorf("checking slot availability: %w", err)
	}
	if n > 0 {
		return ErrConflict
	}

	a.ID = uuid.New()
	a.Status = StatusBooked
	a.CreatedAt = s.now()
	a.UpdatedAt = a.CreatedAt
	return s.repo.Create(ctx, a)
}

// Get returns a single appointment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, ErrNotFound
	}
	return a, nil
}

// Reschedule moves an appointment to a new slot. Terminal appointments
// cannot be moved, and the new slot is checked for conflicts excluding the
// appointment itself.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, start, end time.Time) (*Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsTerminal() {
		return nil, fmt.Errorf("appointment is %s and cannot be rescheduled", a.Status)
	}
	if !end.After(start) {
		return nil, fmt.Errorf("scheduled_end must be after scheduled_start")
	}
	n, err := s.repo.CountOverlapping(ctx, a.DoctorID, start, end, a.ID)
	if err != nil {
		return nil, fmt.Errorf("checking slot availability: %w", err)
	}
	if n > 0 {
		return nil, ErrConflict
	}
	a.ScheduledStart = start
	a.ScheduledEnd = end
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// UpdateStatus moves an appointment along the state machine. Terminal
// states never change again.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.IsTerminal() {
		return nil, fmt.Errorf("appointment is already %s", a.Status)
	}
	allowed := false
	for _, t := range transitions[a.Status] {
		if t == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("cannot move appointment from %s to %s", a.Status, next)
	}
	a.Status = next
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// SetNotes replaces the free-form notes on a non-terminal appointment.
func (s *Service) SetNotes(ctx context.Context, id uuid.UUID, notes string) (*Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	a.Notes = &notes
	a.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// PatientSchedule lists all appointments for a patient.
func (s *Service) PatientSchedule(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// DoctorSchedule lists all appointments for a doctor.
func (s *Service) DoctorSchedule(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

// DaySchedule lists all appointments on a calendar day.
func (s *Service) DaySchedule(ctx context.Context, day time.Time) ([]*Appointment, error) {
	return s.repo.ListByDay(ctx, day)
}
