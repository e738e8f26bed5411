package task

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a task.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	StatusRejected   Status = "rejected"
)

// Priority orders tasks for display and triage.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Kind distinguishes self-created tasks from tasks assigned by someone else.
type Kind string

const (
	KindPersonal Kind = "personal"
	KindAssigned Kind = "assigned"
)

// priorityRank maps priorities to sort weight, highest first.
var priorityRank = map[Priority]int{
	PriorityUrgent: 4,
	PriorityHigh:   3,
	PriorityMedium: 2,
	PriorityLow:    1,
}

// Task maps to the task table.
type Task struct {
	ID              uuid.UUID  `db:"id" json:"id"`
	Title           string     `db:"title" json:"title"`
	Description     *string    `db:"description" json:"description,omitempty"`
	Status          Status     `db:"status" json:"status"`
	Priority        Priority   `db:"priority" json:"priority"`
	Type            Kind       `db:"type" json:"type"`
	AssigneeID      uuid.UUID  `db:"assignee_id" json:"assignee_id"`
	AssigneeName    string     `db:"assignee_name" json:"assignee_name"`
	AssignerID      *uuid.UUID `db:"assigner_id" json:"assigner_id,omitempty"`
	AssignerName    *string    `db:"assigner_name" json:"assigner_name,omitempty"`
	DueDate         *time.Time `db:"due_date" json:"due_date,omitempty"`
	DueTime         *string    `db:"due_time" json:"due_time,omitempty"` // "HH:MM"
	Tags            []string   `db:"tags" json:"tags,omitempty"`
	Category        *string    `db:"category" json:"category,omitempty"`
	ReminderEnabled bool       `db:"reminder_enabled" json:"reminder_enabled"`
	ReminderDate    *time.Time `db:"reminder_date" json:"reminder_date,omitempty"`
	ReminderTime    *string    `db:"reminder_time" json:"reminder_time,omitempty"` // "HH:MM"
	RejectionReason *string    `db:"rejection_reason" json:"rejection_reason,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updated_at"`
	CompletedAt     *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	RejectedAt      *time.Time `db:"rejected_at" json:"rejected_at,omitempty"`
}

// IsTerminal reports whether the task is in a state that accept, reject, and
// complete must not move it out of.
func (t *Task) IsTerminal() bool {
	switch t.Status {
	case StatusCompleted, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// DueAt combines DueDate and DueTime into a single instant. Tasks without a
// due time are due at the end of their due day. Returns nil when no due date
// is set.
func (t *Task) DueAt() *time.Time {
	if t.DueDate == nil {
		return nil
	}
	y, m, d := t.DueDate.Date()
	loc := t.DueDate.Location()
	at := time.Date(y, m, d, 23, 59, 59, 0, loc)
	if t.DueTime != nil {
		if parsed, err := time.Parse("15:04", *t.DueTime); err == nil {
			at = time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, loc)
		}
	}
	return &at
}

// IsOverdue reports whether the task's due instant has passed and the task is
// still open.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Status == StatusCompleted || t.Status == StatusCancelled {
		return false
	}
	due := t.DueAt()
	return due != nil && due.Before(now)
}

// HistoryAction tags an audit entry with the kind of mutation that produced it.
type HistoryAction string

const (
	ActionCreated       HistoryAction = "created"
	ActionUpdated       HistoryAction = "updated"
	ActionStatusChanged HistoryAction = "status_changed"
	ActionAccepted      HistoryAction = "accepted"
	ActionRejected      HistoryAction = "rejected"
	ActionCompleted     HistoryAction = "completed"
)

// FieldChange records one field's before/after values in a history entry.
type FieldChange struct {
	Old string `json:"old"`
	New string `json:"new"`
}

// ChangeSet maps field names to their changes.
type ChangeSet map[string]FieldChange

// History maps to the task_history table. Entries are append-only.
type History struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	TaskID    uuid.UUID     `db:"task_id" json:"task_id"`
	Action    HistoryAction `db:"action" json:"action"`
	UserID    uuid.UUID     `db:"user_id" json:"user_id"`
	UserName  string        `db:"user_name" json:"user_name"`
	Changes   ChangeSet     `db:"changes" json:"changes,omitempty"`
	Note      *string       `db:"note" json:"note,omitempty"`
	Timestamp time.Time     `db:"timestamp" json:"timestamp"`
}

// Reminder maps to the task_reminder table. One reminder fires once, on its
// date at its wall-clock time.
type Reminder struct {
	ID        uuid.UUID  `db:"id" json:"id"`
	TaskID    uuid.UUID  `db:"task_id" json:"task_id"`
	Date      time.Time  `db:"reminder_date" json:"reminder_date"`
	Time      string     `db:"reminder_time" json:"reminder_time"` // "HH:MM"
	Message   string     `db:"message" json:"message"`
	Sent      bool       `db:"sent" json:"sent"`
	SentAt    *time.Time `db:"sent_at" json:"sent_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// FiresAt returns the instant the reminder becomes due.
func (r *Reminder) FiresAt() time.Time {
	y, m, d := r.Date.Date()
	loc := r.Date.Location()
	if parsed, err := time.Parse("15:04", r.Time); err == nil {
		return time.Date(y, m, d, parsed.Hour(), parsed.Minute(), 0, 0, loc)
	}
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// DueReminder pairs a due reminder with its owning task.
type DueReminder struct {
	Reminder *Reminder `json:"reminder"`
	Task     *Task     `json:"task"`
}

// Stats aggregates one user's task counts.
type Stats struct {
	Total        int `json:"total"`
	Pending      int `json:"pending"`
	InProgress   int `json:"in_progress"`
	Completed    int `json:"completed"`
	Overdue      int `json:"overdue"`
	HighPriority int `json:"high_priority"`
	Assigned     int `json:"assigned"`
	Personal     int `json:"personal"`
}
