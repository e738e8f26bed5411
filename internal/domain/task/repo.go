package task

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type TaskRepository interface {
	Create(ctx context.Context, t *Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	Update(ctx context.Context, t *Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByAssignee(ctx context.Context, assigneeID uuid.UUID) ([]*Task, error)
}

type HistoryRepository interface {
	Append(ctx context.Context, h *History) error
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*History, error)
}

type ReminderRepository interface {
	Create(ctx context.Context, r *Reminder) error
	GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error)
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Reminder, error)
	ListUnsentByDate(ctx context.Context, date time.Time) ([]*Reminder, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	DeleteByTask(ctx context.Context, taskID uuid.UUID) error
}
