package examination

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when the referenced exam record does not exist.
var ErrNotFound = errors.New("exam record not found")

// forward maps each state to its one-way successors.
var forward = map[Status][]Status{
	StatusWaiting:    {StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

// Service implements intake rules on top of the repository.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// SetClock overrides the time source, for tests.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// Create opens a new exam record in waiting state.
func (s *Service) Create(ctx context.Context, r *ExamRecord) error {
	if r.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if r.DoctorID == uuid.Nil {
		return fmt.Errorf("doctor_id is required")
	}
	r.ID = uuid.New()
	r.Status = StatusWaiting
	if r.VisitDate.IsZero() {
		r.VisitDate = s.now()
	}
	r.CreatedAt = s.now()
	r.UpdatedAt = r.CreatedAt
	return s.repo.Create(ctx, r)
}

// Get returns a single exam record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*ExamRecord, error) {
	r, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}

// Update replaces the clinical fields of a non-terminal record. Identity
// fields and status are preserved; status moves only through UpdateStatus.
func (s *Service) Update(ctx context.Context, in *ExamRecord) error {
	cur, err := s.Get(ctx, in.ID)
	if err != nil {
		return err
	}
	if cur.IsTerminal() {
		return fmt.Errorf("exam record is %s and can no longer change", cur.Status)
	}
	in.AppointmentID = cur.AppointmentID
	in.PatientID = cur.PatientID
	in.DoctorID = cur.DoctorID
	in.Status = cur.Status
	in.CreatedAt = cur.CreatedAt
	in.UpdatedAt = s.now()
	return s.repo.Update(ctx, in)
}

// UpdateStatus advances the record along the one-way flow.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, next Status) (*ExamRecord, error) {
	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := false
	for _, t := range forward[r.Status] {
		if t == next {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, fmt.Errorf("cannot move exam record from %s to %s", r.Status, next)
	}
	r.Status = next
	r.UpdatedAt = s.now()
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// PatientHistory lists all exam records for a patient.
func (s *Service) PatientHistory(ctx context.Context, patientID uuid.UUID) ([]*ExamRecord, error) {
	return s.repo.ListByPatient(ctx, patientID)
}

// DoctorWorklist lists all exam records for a doctor.
func (s *Service) DoctorWorklist(ctx context.Context, doctorID uuid.UUID) ([]*ExamRecord, error) {
	return s.repo.ListByDoctor(ctx, doctorID)
}

// ForAppointment returns the record opened for an appointment, if any.
func (s *Service) ForAppointment(ctx context.Context, appointmentID uuid.UUID) (*ExamRecord, error) {
	r, err := s.repo.GetByAppointment(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, ErrNotFound
	}
	return r, nil
}
