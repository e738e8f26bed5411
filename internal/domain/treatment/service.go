package treatment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("not found")

// ValidationError collects every problem found in a plan save so the caller
// can surface them all at once. A failed validation mutates nothing.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid treatment plan: " + strings.Join(e.Problems, "; ")
}

var validPlanStatuses = map[PlanStatus]bool{
	PlanActive:    true,
	PlanCompleted: true,
	PlanCancelled: true,
}

var validReminderTypes = map[ReminderType]bool{
	ReminderVitalSign:  true,
	ReminderActivity:   true,
	ReminderMedication: true,
	ReminderDiet:       true,
	ReminderExercise:   true,
	ReminderOther:      true,
}

var validFrequencies = map[ReminderFrequency]bool{
	FrequencyDaily:  true,
	FrequencyWeekly: true,
	FrequencyCustom: true,
}

type Service struct {
	plans     PlanRepository
	meds      MedicationRepository
	reminders ReminderRepository
	responses ResponseRepository
	progress  ProgressRepository
	tx        TxRunner
	now       func() time.Time
}

func NewService(plans PlanRepository, meds MedicationRepository, reminders ReminderRepository, responses ResponseRepository, progress ProgressRepository, tx TxRunner) *Service {
	return &Service{
		plans:     plans,
		meds:      meds,
		reminders: reminders,
		responses: responses,
		progress:  progress,
		tx:        tx,
		now:       time.Now,
	}
}

// SetClock overrides the service clock. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func validatePlan(p *TreatmentPlan) error {
	var problems []string
	if p.RecordID == uuid.Nil {
		problems = append(problems, "record_id is required")
	}
	for i, m := range p.Medications {
		if strings.TrimSpace(m.Name) == "" ||
			strings.TrimSpace(m.Dosage) == "" ||
			strings.TrimSpace(m.Frequency) == "" ||
			strings.TrimSpace(m.Duration) == "" {
			problems = append(problems, fmt.Sprintf("medication %d needs name, dosage, frequency and duration", i+1))
		}
	}
	for i, r := range p.Reminders {
		if strings.TrimSpace(r.Title) == "" {
			problems = append(problems, fmt.Sprintf("reminder %d needs a title", i+1))
		}
		if r.Type != "" && !validReminderTypes[r.Type] {
			problems = append(problems, fmt.Sprintf("reminder %d has unknown type %q", i+1, r.Type))
		}
		if r.Type == ReminderVitalSign && (r.Field == nil || strings.TrimSpace(*r.Field) == "") {
			problems = append(problems, fmt.Sprintf("vital sign reminder %d needs a field", i+1))
		}
		if r.Frequency != "" && !validFrequencies[r.Frequency] {
			problems = append(problems, fmt.Sprintf("reminder %d has unknown frequency %q", i+1, r.Frequency))
		}
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func normalizeReminders(rems []*TreatmentReminder) {
	for _, r := range rems {
		if r.Type == "" {
			r.Type = ReminderOther
		}
		if r.Frequency == "" {
			r.Frequency = FrequencyDaily
		}
		if r.Priority == "" {
			r.Priority = "medium"
		}
	}
}

// CreatePlan validates and persists a plan with its medications and
// reminders in one transaction.
func (s *Service) CreatePlan(ctx context.Context, p *TreatmentPlan) error {
	if err := validatePlan(p); err != nil {
		return err
	}
	if p.Status == "" {
		p.Status = PlanActive
	}
	if !validPlanStatuses[p.Status] {
		return fmt.Errorf("invalid status: %s", p.Status)
	}
	normalizeReminders(p.Reminders)

	now := s.now()
	p.CreatedAt = now
	p.UpdatedAt = now

	return s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.plans.Create(ctx, p); err != nil {
			return err
		}
		if err := s.meds.ReplaceForPlan(ctx, p.ID, p.Medications); err != nil {
			return err
		}
		return s.reminders.ReplaceForPlan(ctx, p.ID, p.Reminders)
	})
}

// UpdatePlan replaces a plan's fields, medications and reminders under the
// same validation rules as create. Nothing is written when validation fails.
func (s *Service) UpdatePlan(ctx context.Context, id uuid.UUID, p *TreatmentPlan) (*TreatmentPlan, error) {
	existing, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	p.ID = existing.ID
	p.RecordID = existing.RecordID
	p.CreatedBy = existing.CreatedBy
	p.CreatedAt = existing.CreatedAt
	if p.Status == "" {
		p.Status = existing.Status
	}
	if !validPlanStatuses[p.Status] {
		return nil, fmt.Errorf("invalid status: %s", p.Status)
	}
	if err := validatePlan(p); err != nil {
		return nil, err
	}
	normalizeReminders(p.Reminders)
	p.UpdatedAt = s.now()

	err = s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.plans.Update(ctx, p); err != nil {
			return err
		}
		if err := s.meds.ReplaceForPlan(ctx, p.ID, p.Medications); err != nil {
			return err
		}
		return s.reminders.ReplaceForPlan(ctx, p.ID, p.Reminders)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

// UpdatePlanStatus moves a plan between active, completed and cancelled.
func (s *Service) UpdatePlanStatus(ctx context.Context, id uuid.UUID, status PlanStatus) (*TreatmentPlan, error) {
	if !validPlanStatuses[status] {
		return nil, fmt.Errorf("invalid status: %s", status)
	}
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = s.now()
	if err := s.plans.Update(ctx, p); err != nil {
		return nil, err
	}
	return s.load(ctx, p)
}

// GetPlan returns a plan with its medications and reminders loaded.
func (s *Service) GetPlan(ctx context.Context, id uuid.UUID) (*TreatmentPlan, error) {
	p, err := s.plans.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return s.load(ctx, p)
}

func (s *Service) load(ctx context.Context, p *TreatmentPlan) (*TreatmentPlan, error) {
	meds, err := s.meds.ListByPlan(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	rems, err := s.reminders.ListByPlan(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	p.Medications = meds
	p.Reminders = rems
	return p, nil
}

// PlansByRecord lists plans attached to one examination record.
func (s *Service) PlansByRecord(ctx context.Context, recordID uuid.UUID) ([]*TreatmentPlan, error) {
	plans, err := s.plans.ListByRecord(ctx, recordID)
	if err != nil {
		return nil, err
	}
	return s.loadAll(ctx, plans)
}

// PlansByPatient lists a patient's plans across all their examinations.
func (s *Service) PlansByPatient(ctx context.Context, patientID uuid.UUID) ([]*TreatmentPlan, error) {
	plans, err := s.plans.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}
	return s.loadAll(ctx, plans)
}

func (s *Service) loadAll(ctx context.Context, plans []*TreatmentPlan) ([]*TreatmentPlan, error) {
	for _, p := range plans {
		if _, err := s.load(ctx, p); err != nil {
			return nil, err
		}
	}
	return plans, nil
}

// RecordResponse appends a patient check-in against a reminder. The status
// is derived from what was supplied, never from the caller.
func (s *Service) RecordResponse(ctx context.Context, reminderID uuid.UUID, value, response *string) (*ReminderResponse, error) {
	rem, err := s.reminders.GetByID(ctx, reminderID)
	if err != nil {
		return nil, ErrNotFound
	}
	r := &ReminderResponse{
		ReminderID: rem.ID,
		Value:      value,
		Response:   response,
		Status:     deriveStatus(rem.Type, value, response),
		RecordedAt: s.now(),
	}
	if err := s.responses.Append(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// PlanReminders returns a plan's reminders, each with its full response
// history.
func (s *Service) PlanReminders(ctx context.Context, planID uuid.UUID) ([]*ReminderDetail, error) {
	if _, err := s.plans.GetByID(ctx, planID); err != nil {
		return nil, ErrNotFound
	}
	rems, err := s.reminders.ListByPlan(ctx, planID)
	if err != nil {
		return nil, err
	}
	details := make([]*ReminderDetail, 0, len(rems))
	for _, rem := range rems {
		resps, err := s.responses.ListByReminder(ctx, rem.ID)
		if err != nil {
			return nil, err
		}
		details = append(details, &ReminderDetail{TreatmentReminder: rem, Responses: resps})
	}
	return details, nil
}

// RecordProgress upserts a progress entry for its (plan, medication, date)
// partition: a second write for the same date replaces the first.
func (s *Service) RecordProgress(ctx context.Context, e *ProgressEntry) error {
	if e.PlanID == uuid.Nil {
		return fmt.Errorf("plan_id is required")
	}
	if e.Date.IsZero() {
		return fmt.Errorf("date is required")
	}
	if _, err := s.plans.GetByID(ctx, e.PlanID); err != nil {
		return ErrNotFound
	}
	// Truncate(24h) would shift the calendar day for non-UTC zones; keep the
	// date the caller named.
	y, m, d := e.Date.Date()
	e.Date = time.Date(y, m, d, 0, 0, 0, 0, e.Date.Location())
	e.CreatedAt = s.now()
	return s.progress.Upsert(ctx, e)
}

// PlanProgress lists a plan's progress entries.
func (s *Service) PlanProgress(ctx context.Context, planID uuid.UUID) ([]*ProgressEntry, error) {
	if _, err := s.plans.GetByID(ctx, planID); err != nil {
		return nil, ErrNotFound
	}
	return s.progress.ListByPlan(ctx, planID)
}
