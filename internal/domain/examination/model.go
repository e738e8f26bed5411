package examination

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of an exam record. The flow is one-way:
// waiting moves to in_progress, in_progress to completed; cancelled can be
// entered from any non-terminal state.
type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// VitalSigns are the measurements captured during intake.
type VitalSigns struct {
	Temperature      *float64 `db:"temperature" json:"temperature,omitempty"`
	Pulse            *int     `db:"pulse" json:"pulse,omitempty"`
	BloodPressureSys *int     `db:"bp_systolic" json:"blood_pressure_sys,omitempty"`
	BloodPressureDia *int     `db:"bp_diastolic" json:"blood_pressure_dia,omitempty"`
	Weight           *float64 `db:"weight" json:"weight,omitempty"`
	Height           *float64 `db:"height" json:"height,omitempty"`
}

// ExamRecord maps to the exam_record table. A completed record is the
// anchor treatment plans attach to.
type ExamRecord struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	AppointmentID *uuid.UUID `db:"appointment_id" json:"appointment_id,omitempty"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID      uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	VisitDate     time.Time  `db:"visit_date" json:"visit_date"`
	Symptoms      string     `db:"symptoms" json:"symptoms"`
	Vitals        VitalSigns `json:"vitals"`
	Diagnosis     string     `db:"diagnosis" json:"diagnosis"`
	Conclusion    string     `db:"conclusion" json:"conclusion"`
	Status        Status     `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updated_at"`
}

func (r *ExamRecord) IsTerminal() bool {
	return r.Status == StatusCompleted || r.Status == StatusCancelled
}
