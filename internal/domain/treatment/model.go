package treatment

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlanStatus is the lifecycle state of a treatment plan.
type PlanStatus string

const (
	PlanActive    PlanStatus = "active"
	PlanCompleted PlanStatus = "completed"
	PlanCancelled PlanStatus = "cancelled"
)

// TreatmentPlan maps to the treatment_plan table. A plan is anchored to the
// completed examination record it was prescribed from.
type TreatmentPlan struct {
	ID                   uuid.UUID  `db:"id" json:"id"`
	RecordID             uuid.UUID  `db:"record_id" json:"record_id"`
	CreatedBy            uuid.UUID  `db:"created_by" json:"created_by"`
	Instructions         *string    `db:"instructions" json:"instructions,omitempty"`
	FollowUpDate         *time.Time `db:"follow_up_date" json:"follow_up_date,omitempty"`
	FollowUpInstructions *string    `db:"follow_up_instructions" json:"follow_up_instructions,omitempty"`
	Notes                *string    `db:"notes" json:"notes,omitempty"`
	Status               PlanStatus `db:"status" json:"status"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`

	Medications []*PlanMedication    `db:"-" json:"medications"`
	Reminders   []*TreatmentReminder `db:"-" json:"reminders"`
}

// PlanMedication maps to the treatment_medication table.
type PlanMedication struct {
	ID           uuid.UUID `db:"id" json:"id"`
	PlanID       uuid.UUID `db:"plan_id" json:"plan_id"`
	Name         string    `db:"name" json:"name"`
	Dosage       string    `db:"dosage" json:"dosage"`
	Frequency    string    `db:"frequency" json:"frequency"`
	Duration     string    `db:"duration" json:"duration"`
	Instructions *string   `db:"instructions" json:"instructions,omitempty"`
}

// ReminderType classifies what a treatment reminder asks the patient to do.
type ReminderType string

const (
	ReminderVitalSign  ReminderType = "vital_sign"
	ReminderActivity   ReminderType = "activity"
	ReminderMedication ReminderType = "medication"
	ReminderDiet       ReminderType = "diet"
	ReminderExercise   ReminderType = "exercise"
	ReminderOther      ReminderType = "other"
)

// ReminderFrequency is how often a treatment reminder recurs.
type ReminderFrequency string

const (
	FrequencyDaily  ReminderFrequency = "daily"
	FrequencyWeekly ReminderFrequency = "weekly"
	FrequencyCustom ReminderFrequency = "custom"
)

// TreatmentReminder maps to the treatment_reminder table. A vital_sign
// reminder names the measurement field the patient reports against.
type TreatmentReminder struct {
	ID          uuid.UUID         `db:"id" json:"id"`
	PlanID      uuid.UUID         `db:"plan_id" json:"plan_id"`
	Type        ReminderType      `db:"type" json:"type"`
	Title       string            `db:"title" json:"title"`
	Description *string           `db:"description" json:"description,omitempty"`
	Field       *string           `db:"field" json:"field,omitempty"`
	Frequency   ReminderFrequency `db:"frequency" json:"frequency"`
	Enabled     bool              `db:"enabled" json:"enabled"`
	Priority    string            `db:"priority" json:"priority"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
}

// ResponseStatus marks whether a patient actually answered a reminder.
type ResponseStatus string

const (
	ResponseCompleted ResponseStatus = "completed"
	ResponsePending   ResponseStatus = "pending"
)

// ReminderResponse maps to the treatment_response table. Responses are
// append-only; a reminder accumulates one per check-in.
type ReminderResponse struct {
	ID         uuid.UUID      `db:"id" json:"id"`
	ReminderID uuid.UUID      `db:"reminder_id" json:"reminder_id"`
	Value      *string        `db:"value" json:"value,omitempty"`
	Response   *string        `db:"response" json:"response,omitempty"`
	Status     ResponseStatus `db:"status" json:"status"`
	RecordedAt time.Time      `db:"recorded_at" json:"recorded_at"`
}

// deriveStatus is completed when the patient actually supplied something:
// a value for vital_sign reminders, response text for everything else.
func deriveStatus(typ ReminderType, value, response *string) ResponseStatus {
	filled := func(s *string) bool { return s != nil && strings.TrimSpace(*s) != "" }
	if typ == ReminderVitalSign {
		if filled(value) {
			return ResponseCompleted
		}
		return ResponsePending
	}
	if filled(response) {
		return ResponseCompleted
	}
	return ResponsePending
}

// ProgressEntry maps to the treatment_progress table. Entries are
// partitioned per medication, or plan-wide when MedicationID is nil, and
// keyed by date within a partition: writing the same date again replaces
// the earlier entry.
type ProgressEntry struct {
	ID           uuid.UUID              `db:"id" json:"id"`
	PlanID       uuid.UUID              `db:"plan_id" json:"plan_id"`
	MedicationID *uuid.UUID             `db:"medication_id" json:"medication_id,omitempty"`
	Date         time.Time              `db:"date" json:"date"`
	Status       string                 `db:"status" json:"status"`
	Notes        *string                `db:"notes" json:"notes,omitempty"`
	VitalSigns   map[string]interface{} `db:"vital_signs" json:"vital_signs,omitempty"`
	CreatedAt    time.Time              `db:"created_at" json:"created_at"`
}

// ReminderDetail pairs a reminder with its accumulated responses for
// patient-facing reads.
type ReminderDetail struct {
	*TreatmentReminder
	Responses []*ReminderResponse `json:"responses"`
}
