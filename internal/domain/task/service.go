package task

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an operation references an unknown task or
// reminder.
var ErrNotFound = errors.New("not found")

// Actor identifies the user performing a mutation, for the history log.
type Actor struct {
	ID   uuid.UUID
	Name string
}

// Filter narrows a user's task list.
type Filter struct {
	Statuses []Status
	Type     *Kind
	Priority *Priority
	Overdue  bool
}

type Service struct {
	tasks     TaskRepository
	history   HistoryRepository
	reminders ReminderRepository
	now       func() time.Time
}

func NewService(tasks TaskRepository, history HistoryRepository, reminders ReminderRepository) *Service {
	return &Service{
		tasks:     tasks,
		history:   history,
		reminders: reminders,
		now:       time.Now,
	}
}

// SetClock overrides the service clock. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

var validStatuses = map[Status]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusCompleted:  true,
	StatusCancelled:  true,
	StatusRejected:   true,
}

var validPriorities = map[Priority]bool{
	PriorityLow:    true,
	PriorityMedium: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

var validKinds = map[Kind]bool{
	KindPersonal: true,
	KindAssigned: true,
}

// Create inserts a new task, writes its "created" history entry, and
// synthesizes a reminder when reminder fields are fully populated.
func (s *Service) Create(ctx context.Context, t *Task, actor Actor) error {
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("title is required")
	}
	if t.AssigneeID == uuid.Nil {
		return fmt.Errorf("assignee_id is required")
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if !validStatuses[t.Status] {
		return fmt.Errorf("invalid status: %s", t.Status)
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !validPriorities[t.Priority] {
		return fmt.Errorf("invalid priority: %s", t.Priority)
	}
	if t.Type == "" {
		t.Type = KindPersonal
	}
	if !validKinds[t.Type] {
		return fmt.Errorf("invalid type: %s", t.Type)
	}

	now := s.now()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := s.tasks.Create(ctx, t); err != nil {
		return err
	}

	if err := s.history.Append(ctx, &History{
		TaskID:    t.ID,
		Action:    ActionCreated,
		UserID:    actor.ID,
		UserName:  actor.Name,
		Timestamp: now,
	}); err != nil {
		return err
	}

	if t.ReminderEnabled && t.ReminderDate != nil && t.ReminderTime != nil {
		r := &Reminder{
			TaskID:    t.ID,
			Date:      *t.ReminderDate,
			Time:      *t.ReminderTime,
			Message:   fmt.Sprintf("Reminder: %s", t.Title),
			CreatedAt: now,
		}
		if err := s.reminders.Create(ctx, r); err != nil {
			return err
		}
	}

	return nil
}

// Get returns one task by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	return t, nil
}

// Patch carries partial task updates. Nil fields are left unchanged.
type Patch struct {
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Status          *Status    `json:"status,omitempty"`
	Priority        *Priority  `json:"priority,omitempty"`
	Type            *Kind      `json:"type,omitempty"`
	DueDate         *time.Time `json:"due_date,omitempty"`
	DueTime         *string    `json:"due_time,omitempty"`
	Tags            []string   `json:"tags,omitempty"`
	Category        *string    `json:"category,omitempty"`
	ReminderEnabled *bool      `json:"reminder_enabled,omitempty"`
	ReminderDate    *time.Time `json:"reminder_date,omitempty"`
	ReminderTime    *string    `json:"reminder_time,omitempty"`
	RejectionReason *string    `json:"rejection_reason,omitempty"`
}

func fmtVal(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case *string:
		if x == nil {
			return ""
		}
		return *x
	case *time.Time:
		if x == nil {
			return ""
		}
		return x.Format(time.RFC3339)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Update applies a partial update, stamps terminal timestamps, and records a
// field-level diff in the history log. The entry is tagged status_changed
// when the status was among the changed fields, updated otherwise.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p Patch, actor Actor) (*Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}

	changes := ChangeSet{}

	if p.Title != nil && *p.Title != t.Title {
		changes["title"] = FieldChange{Old: t.Title, New: *p.Title}
		t.Title = *p.Title
	}
	if p.Description != nil && fmtVal(p.Description) != fmtVal(t.Description) {
		changes["description"] = FieldChange{Old: fmtVal(t.Description), New: *p.Description}
		t.Description = p.Description
	}
	if p.Status != nil && *p.Status != t.Status {
		if !validStatuses[*p.Status] {
			return nil, fmt.Errorf("invalid status: %s", *p.Status)
		}
		changes["status"] = FieldChange{Old: string(t.Status), New: string(*p.Status)}
		t.Status = *p.Status
	}
	if p.Priority != nil && *p.Priority != t.Priority {
		if !validPriorities[*p.Priority] {
			return nil, fmt.Errorf("invalid priority: %s", *p.Priority)
		}
		changes["priority"] = FieldChange{Old: string(t.Priority), New: string(*p.Priority)}
		t.Priority = *p.Priority
	}
	if p.Type != nil && *p.Type != t.Type {
		if !validKinds[*p.Type] {
			return nil, fmt.Errorf("invalid type: %s", *p.Type)
		}
		changes["type"] = FieldChange{Old: string(t.Type), New: string(*p.Type)}
		t.Type = *p.Type
	}
	if p.DueDate != nil && fmtVal(p.DueDate) != fmtVal(t.DueDate) {
		changes["due_date"] = FieldChange{Old: fmtVal(t.DueDate), New: fmtVal(p.DueDate)}
		t.DueDate = p.DueDate
	}
	if p.DueTime != nil && fmtVal(p.DueTime) != fmtVal(t.DueTime) {
		changes["due_time"] = FieldChange{Old: fmtVal(t.DueTime), New: *p.DueTime}
		t.DueTime = p.DueTime
	}
	if p.Tags != nil {
		before := strings.Join(t.Tags, ",")
		if after := strings.Join(p.Tags, ","); after != before {
			changes["tags"] = FieldChange{Old: before, New: after}
			t.Tags = p.Tags
		}
	}
	if p.Category != nil && fmtVal(p.Category) != fmtVal(t.Category) {
		changes["category"] = FieldChange{Old: fmtVal(t.Category), New: *p.Category}
		t.Category = p.Category
	}
	if p.ReminderEnabled != nil && *p.ReminderEnabled != t.ReminderEnabled {
		changes["reminder_enabled"] = FieldChange{
			Old: fmt.Sprintf("%t", t.ReminderEnabled),
			New: fmt.Sprintf("%t", *p.ReminderEnabled),
		}
		t.ReminderEnabled = *p.ReminderEnabled
	}
	if p.ReminderDate != nil && fmtVal(p.ReminderDate) != fmtVal(t.ReminderDate) {
		changes["reminder_date"] = FieldChange{Old: fmtVal(t.ReminderDate), New: fmtVal(p.ReminderDate)}
		t.ReminderDate = p.ReminderDate
	}
	if p.ReminderTime != nil && fmtVal(p.ReminderTime) != fmtVal(t.ReminderTime) {
		changes["reminder_time"] = FieldChange{Old: fmtVal(t.ReminderTime), New: *p.ReminderTime}
		t.ReminderTime = p.ReminderTime
	}
	if p.RejectionReason != nil && fmtVal(p.RejectionReason) != fmtVal(t.RejectionReason) {
		changes["rejection_reason"] = FieldChange{Old: fmtVal(t.RejectionReason), New: *p.RejectionReason}
		t.RejectionReason = p.RejectionReason
	}

	if len(changes) == 0 {
		return t, nil
	}

	now := s.now()
	t.UpdatedAt = now
	if _, ok := changes["status"]; ok {
		switch t.Status {
		case StatusCompleted:
			t.CompletedAt = &now
		case StatusRejected:
			t.RejectedAt = &now
		}
	}

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}

	action := ActionUpdated
	if _, ok := changes["status"]; ok {
		action = ActionStatusChanged
	}
	if err := s.history.Append(ctx, &History{
		TaskID:    t.ID,
		Action:    action,
		UserID:    actor.ID,
		UserName:  actor.Name,
		Changes:   changes,
		Timestamp: now,
	}); err != nil {
		return nil, err
	}

	return t, nil
}

// Delete removes a task and every reminder that references it. The history
// entry keeps the "updated" action tag for compatibility with existing
// history consumers.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor Actor) error {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return ErrNotFound
	}

	if err := s.reminders.DeleteByTask(ctx, t.ID); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, t.ID); err != nil {
		return err
	}

	note := fmt.Sprintf("task %q deleted", t.Title)
	return s.history.Append(ctx, &History{
		TaskID:    t.ID,
		Action:    ActionUpdated,
		UserID:    actor.ID,
		UserName:  actor.Name,
		Note:      &note,
		Timestamp: s.now(),
	})
}

// transition moves a non-terminal task into the given status and records a
// dedicated history action.
func (s *Service) transition(ctx context.Context, id uuid.UUID, to Status, action HistoryAction, note *string, actor Actor) (*Task, error) {
	t, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, ErrNotFound
	}
	if t.IsTerminal() {
		return nil, fmt.Errorf("task is %s and can no longer be %s", t.Status, action)
	}

	now := s.now()
	changes := ChangeSet{"status": {Old: string(t.Status), New: string(to)}}
	t.Status = to
	t.UpdatedAt = now
	switch to {
	case StatusCompleted:
		t.CompletedAt = &now
	case StatusRejected:
		t.RejectedAt = &now
	}
	if note != nil && action == ActionRejected {
		t.RejectionReason = note
	}

	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, err
	}
	if err := s.history.Append(ctx, &History{
		TaskID:    t.ID,
		Action:    action,
		UserID:    actor.ID,
		UserName:  actor.Name,
		Changes:   changes,
		Note:      note,
		Timestamp: now,
	}); err != nil {
		return nil, err
	}
	return t, nil
}

// Accept acknowledges an assigned task, moving it back to pending for the
// assignee to work on.
func (s *Service) Accept(ctx context.Context, id uuid.UUID, actor Actor) (*Task, error) {
	return s.transition(ctx, id, StatusPending, ActionAccepted, nil, actor)
}

// Reject declines an assigned task with an optional reason.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, reason string, actor Actor) (*Task, error) {
	var note *string
	if reason != "" {
		note = &reason
	}
	return s.transition(ctx, id, StatusRejected, ActionRejected, note, actor)
}

// Complete marks a task done.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, actor Actor) (*Task, error) {
	return s.transition(ctx, id, StatusCompleted, ActionCompleted, nil, actor)
}

// ListUserTasks returns one user's tasks, filtered and sorted by priority
// (urgent first), then due instant (tasks without a due date last), then
// most recent creation.
func (s *Service) ListUserTasks(ctx context.Context, assigneeID uuid.UUID, f Filter) ([]*Task, error) {
	tasks, err := s.tasks.ListByAssignee(ctx, assigneeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	statusSet := make(map[Status]bool, len(f.Statuses))
	for _, st := range f.Statuses {
		statusSet[st] = true
	}

	filtered := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if len(statusSet) > 0 && !statusSet[t.Status] {
			continue
		}
		if f.Type != nil && t.Type != *f.Type {
			continue
		}
		if f.Priority != nil && t.Priority != *f.Priority {
			continue
		}
		if f.Overdue && !t.IsOverdue(now) {
			continue
		}
		filtered = append(filtered, t)
	}

	sortTasks(filtered)
	return filtered, nil
}

func sortTasks(tasks []*Task) {
	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i], tasks[j]
		if ra, rb := priorityRank[a.Priority], priorityRank[b.Priority]; ra != rb {
			return ra > rb
		}
		da, db := a.DueAt(), b.DueAt()
		switch {
		case da != nil && db == nil:
			return true
		case da == nil && db != nil:
			return false
		case da != nil && db != nil && !da.Equal(*db):
			return da.Before(*db)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
}

// UserStats aggregates task counts for one user.
func (s *Service) UserStats(ctx context.Context, assigneeID uuid.UUID) (*Stats, error) {
	tasks, err := s.tasks.ListByAssignee(ctx, assigneeID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	stats := &Stats{Total: len(tasks)}
	for _, t := range tasks {
		switch t.Status {
		case StatusPending:
			stats.Pending++
		case StatusInProgress:
			stats.InProgress++
		case StatusCompleted:
			stats.Completed++
		}
		if t.IsOverdue(now) {
			stats.Overdue++
		}
		if t.Priority == PriorityHigh || t.Priority == PriorityUrgent {
			stats.HighPriority++
		}
		switch t.Type {
		case KindAssigned:
			stats.Assigned++
		case KindPersonal:
			stats.Personal++
		}
	}
	return stats, nil
}

// DueReminders returns unsent reminders that have come due: reminder date is
// today, reminder time has passed, and the owning task is still open.
// Reminders whose task no longer exists are skipped.
func (s *Service) DueReminders(ctx context.Context) ([]*DueReminder, error) {
	now := s.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	reminders, err := s.reminders.ListUnsentByDate(ctx, today)
	if err != nil {
		return nil, err
	}

	var due []*DueReminder
	for _, r := range reminders {
		if r.FiresAt().After(now) {
			continue
		}
		t, err := s.tasks.GetByID(ctx, r.TaskID)
		if err != nil {
			continue
		}
		if t.Status == StatusCompleted || t.Status == StatusCancelled {
			continue
		}
		due = append(due, &DueReminder{Reminder: r, Task: t})
	}
	return due, nil
}

// MarkReminderSent flags a reminder as delivered.
func (s *Service) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	if _, err := s.reminders.GetByID(ctx, id); err != nil {
		return ErrNotFound
	}
	return s.reminders.MarkSent(ctx, id, s.now())
}

// TaskHistory returns the audit trail for one task, newest first.
func (s *Service) TaskHistory(ctx context.Context, taskID uuid.UUID) ([]*History, error) {
	return s.history.ListByTask(ctx, taskID)
}

// TaskReminders returns the reminders attached to one task.
func (s *Service) TaskReminders(ctx context.Context, taskID uuid.UUID) ([]*Reminder, error) {
	return s.reminders.ListByTask(ctx, taskID)
}
