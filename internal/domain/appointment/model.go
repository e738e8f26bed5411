package appointment

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an appointment. booked moves forward
// through confirmed and checked_in to completed; any non-terminal state can
// fall out to cancelled or no_show.
type Status string

const (
	StatusBooked    Status = "booked"
	StatusConfirmed Status = "confirmed"
	StatusCheckedIn Status = "checked_in"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusNoShow    Status = "no_show"
)

// Appointment maps to the appointment table.
type Appointment struct {
	ID             uuid.UUID  `db:"id" json:"id"`
	PatientID      uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID       uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	ServiceID      *uuid.UUID `db:"service_id" json:"service_id,omitempty"`
	ScheduledStart time.Time  `db:"scheduled_start" json:"scheduled_start"`
	ScheduledEnd   time.Time  `db:"scheduled_end" json:"scheduled_end"`
	Status         Status     `db:"status" json:"status"`
	Reason         *string    `db:"reason" json:"reason,omitempty"`
	Notes          *string    `db:"notes" json:"notes,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// IsTerminal reports whether the appointment can still change state.
func (a *Appointment) IsTerminal() bool {
	return a.Status == StatusCompleted || a.Status == StatusCancelled || a.Status == StatusNoShow
}
