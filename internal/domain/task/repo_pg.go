package task

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinichq/frontdesk/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type taskRepoPG struct{ pool *pgxpool.Pool }

func NewTaskRepoPG(pool *pgxpool.Pool) TaskRepository {
	return &taskRepoPG{pool: pool}
}

func (r *taskRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const taskCols = `id, title, description, status, priority, type,
	assignee_id, assignee_name, assigner_id, assigner_name,
	due_date, due_time, tags, category,
	reminder_enabled, reminder_date, reminder_time, rejection_reason,
	created_at, updated_at, completed_at, rejected_at`

func (r *taskRepoPG) scanTask(row pgx.Row) (*Task, error) {
	var t Task
	err := row.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Type,
		&t.AssigneeID, &t.AssigneeName, &t.AssignerID, &t.AssignerName,
		&t.DueDate, &t.DueTime, &t.Tags, &t.Category,
		&t.ReminderEnabled, &t.ReminderDate, &t.ReminderTime, &t.RejectionReason,
		&t.CreatedAt, &t.UpdatedAt, &t.CompletedAt, &t.RejectedAt)
	return &t, err
}

func (r *taskRepoPG) Create(ctx context.Context, t *Task) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO task (id, title, description, status, priority, type,
			assignee_id, assignee_name, assigner_id, assigner_name,
			due_date, due_time, tags, category,
			reminder_enabled, reminder_date, reminder_time, rejection_reason,
			created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.Type,
		t.AssigneeID, t.AssigneeName, t.AssignerID, t.AssignerName,
		t.DueDate, t.DueTime, t.Tags, t.Category,
		t.ReminderEnabled, t.ReminderDate, t.ReminderTime, t.RejectionReason,
		t.CreatedAt, t.UpdatedAt)
	return err
}

func (r *taskRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Task, error) {
	return r.scanTask(r.conn(ctx).QueryRow(ctx, `SELECT `+taskCols+` FROM task WHERE id = $1`, id))
}

func (r *taskRepoPG) Update(ctx context.Context, t *Task) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE task SET title=$2, description=$3, status=$4, priority=$5, type=$6,
			due_date=$7, due_time=$8, tags=$9, category=$10,
			reminder_enabled=$11, reminder_date=$12, reminder_time=$13,
			rejection_reason=$14, updated_at=$15, completed_at=$16, rejected_at=$17
		WHERE id = $1`,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.Type,
		t.DueDate, t.DueTime, t.Tags, t.Category,
		t.ReminderEnabled, t.ReminderDate, t.ReminderTime,
		t.RejectionReason, t.UpdatedAt, t.CompletedAt, t.RejectedAt)
	return err
}

func (r *taskRepoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM task WHERE id = $1`, id)
	return err
}

func (r *taskRepoPG) ListByAssignee(ctx context.Context, assigneeID uuid.UUID) ([]*Task, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+taskCols+` FROM task WHERE assignee_id = $1 ORDER BY created_at DESC`, assigneeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Task
	for rows.Next() {
		t, err := r.scanTask(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

type historyRepoPG struct{ pool *pgxpool.Pool }

func NewHistoryRepoPG(pool *pgxpool.Pool) HistoryRepository {
	return &historyRepoPG{pool: pool}
}

func (r *historyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

// task_id carries no foreign key so history outlives deleted tasks.
func (r *historyRepoPG) Append(ctx context.Context, h *History) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO task_history (id, task_id, action, user_id, user_name, changes, note, timestamp)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		h.ID, h.TaskID, h.Action, h.UserID, h.UserName, h.Changes, h.Note, h.Timestamp)
	return err
}

func (r *historyRepoPG) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*History, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, task_id, action, user_id, user_name, changes, note, timestamp
		FROM task_history WHERE task_id = $1 ORDER BY timestamp DESC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*History
	for rows.Next() {
		var h History
		if err := rows.Scan(&h.ID, &h.TaskID, &h.Action, &h.UserID, &h.UserName, &h.Changes, &h.Note, &h.Timestamp); err != nil {
			return nil, err
		}
		items = append(items, &h)
	}
	return items, rows.Err()
}

type reminderRepoPG struct{ pool *pgxpool.Pool }

func NewReminderRepoPG(pool *pgxpool.Pool) ReminderRepository {
	return &reminderRepoPG{pool: pool}
}

func (r *reminderRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reminderCols = `id, task_id, reminder_date, reminder_time, message, sent, sent_at, created_at`

func (r *reminderRepoPG) scanReminder(row pgx.Row) (*Reminder, error) {
	var rem Reminder
	err := row.Scan(&rem.ID, &rem.TaskID, &rem.Date, &rem.Time, &rem.Message, &rem.Sent, &rem.SentAt, &rem.CreatedAt)
	return &rem, err
}

func (r *reminderRepoPG) Create(ctx context.Context, rem *Reminder) error {
	if rem.ID == uuid.Nil {
		rem.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO task_reminder (id, task_id, reminder_date, reminder_time, message, sent, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		rem.ID, rem.TaskID, rem.Date, rem.Time, rem.Message, rem.Sent, rem.CreatedAt)
	return err
}

func (r *reminderRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Reminder, error) {
	return r.scanReminder(r.conn(ctx).QueryRow(ctx, `SELECT `+reminderCols+` FROM task_reminder WHERE id = $1`, id))
}

func (r *reminderRepoPG) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*Reminder, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reminderCols+` FROM task_reminder WHERE task_id = $1 ORDER BY created_at`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Reminder
	for rows.Next() {
		rem, err := r.scanReminder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rem)
	}
	return items, rows.Err()
}

func (r *reminderRepoPG) ListUnsentByDate(ctx context.Context, date time.Time) ([]*Reminder, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+reminderCols+` FROM task_reminder WHERE sent = FALSE AND reminder_date = $1 ORDER BY reminder_time`, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Reminder
	for rows.Next() {
		rem, err := r.scanReminder(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, rem)
	}
	return items, rows.Err()
}

func (r *reminderRepoPG) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE task_reminder SET sent = TRUE, sent_at = $2 WHERE id = $1`, id, at)
	return err
}

func (r *reminderRepoPG) DeleteByTask(ctx context.Context, taskID uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM task_reminder WHERE task_id = $1`, taskID)
	return err
}
