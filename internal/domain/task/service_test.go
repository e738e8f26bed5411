package task

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

// -- Mock Repositories --

type mockTaskRepo struct {
	store map[uuid.UUID]*Task
}

func newMockTaskRepo() *mockTaskRepo {
	return &mockTaskRepo{store: make(map[uuid.UUID]*Task)}
}

func (m *mockTaskRepo) Create(_ context.Context, t *Task) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *mockTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*Task, error) {
	t, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	cp := *t
	return &cp, nil
}

func (m *mockTaskRepo) Update(_ context.Context, t *Task) error {
	if _, ok := m.store[t.ID]; !ok {
		return fmt.Errorf("not found")
	}
	cp := *t
	m.store[t.ID] = &cp
	return nil
}

func (m *mockTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.store, id)
	return nil
}

func (m *mockTaskRepo) ListByAssignee(_ context.Context, assigneeID uuid.UUID) ([]*Task, error) {
	var r []*Task
	for _, t := range m.store {
		if t.AssigneeID == assigneeID {
			cp := *t
			r = append(r, &cp)
		}
	}
	return r, nil
}

type mockHistoryRepo struct {
	entries []*History
}

func (m *mockHistoryRepo) Append(_ context.Context, h *History) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	m.entries = append(m.entries, h)
	return nil
}

func (m *mockHistoryRepo) ListByTask(_ context.Context, taskID uuid.UUID) ([]*History, error) {
	var r []*History
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].TaskID == taskID {
			r = append(r, m.entries[i])
		}
	}
	return r, nil
}

func (m *mockHistoryRepo) lastForTask(taskID uuid.UUID) *History {
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].TaskID == taskID {
			return m.entries[i]
		}
	}
	return nil
}

type mockReminderRepo struct {
	store map[uuid.UUID]*Reminder
}

func newMockReminderRepo() *mockReminderRepo {
	return &mockReminderRepo{store: make(map[uuid.UUID]*Reminder)}
}

func (m *mockReminderRepo) Create(_ context.Context, r *Reminder) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	m.store[r.ID] = r
	return nil
}

func (m *mockReminderRepo) GetByID(_ context.Context, id uuid.UUID) (*Reminder, error) {
	r, ok := m.store[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return r, nil
}

func (m *mockReminderRepo) ListByTask(_ context.Context, taskID uuid.UUID) ([]*Reminder, error) {
	var r []*Reminder
	for _, rem := range m.store {
		if rem.TaskID == taskID {
			r = append(r, rem)
		}
	}
	return r, nil
}

func (m *mockReminderRepo) ListUnsentByDate(_ context.Context, date time.Time) ([]*Reminder, error) {
	var r []*Reminder
	for _, rem := range m.store {
		if !rem.Sent && rem.Date.Equal(date) {
			r = append(r, rem)
		}
	}
	return r, nil
}

func (m *mockReminderRepo) MarkSent(_ context.Context, id uuid.UUID, at time.Time) error {
	rem, ok := m.store[id]
	if !ok {
		return fmt.Errorf("not found")
	}
	rem.Sent = true
	rem.SentAt = &at
	return nil
}

func (m *mockReminderRepo) DeleteByTask(_ context.Context, taskID uuid.UUID) error {
	for id, rem := range m.store {
		if rem.TaskID == taskID {
			delete(m.store, id)
		}
	}
	return nil
}

type testEnv struct {
	svc       *Service
	tasks     *mockTaskRepo
	history   *mockHistoryRepo
	reminders *mockReminderRepo
}

func newTestEnv() *testEnv {
	tasks := newMockTaskRepo()
	history := &mockHistoryRepo{}
	reminders := newMockReminderRepo()
	return &testEnv{
		svc:       NewService(tasks, history, reminders),
		tasks:     tasks,
		history:   history,
		reminders: reminders,
	}
}

var testActor = Actor{ID: uuid.New(), Name: "Dana Reyes"}

func newTask(assignee uuid.UUID) *Task {
	return &Task{Title: "Call patient back", AssigneeID: assignee, AssigneeName: "Dana Reyes"}
}

// -- Create --

func TestCreate_Defaults(t *testing.T) {
	env := newTestEnv()
	tk := newTask(uuid.New())
	if err := env.svc.Create(context.Background(), tk, testActor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tk.ID == uuid.Nil {
		t.Error("expected ID to be set")
	}
	if tk.Status != StatusPending {
		t.Errorf("expected default status pending, got %q", tk.Status)
	}
	if tk.Priority != PriorityMedium {
		t.Errorf("expected default priority medium, got %q", tk.Priority)
	}
	if tk.Type != KindPersonal {
		t.Errorf("expected default type personal, got %q", tk.Type)
	}
	if !tk.CreatedAt.Equal(tk.UpdatedAt) {
		t.Error("expected CreatedAt to equal UpdatedAt on create")
	}
}

func TestCreate_WritesHistory(t *testing.T) {
	env := newTestEnv()
	tk := newTask(uuid.New())
	if err := env.svc.Create(context.Background(), tk, testActor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := env.history.lastForTask(tk.ID)
	if h == nil {
		t.Fatal("expected a history entry")
	}
	if h.Action != ActionCreated {
		t.Errorf("expected action created, got %q", h.Action)
	}
	if h.UserName != testActor.Name {
		t.Errorf("expected actor name recorded, got %q", h.UserName)
	}
}

func TestCreate_MissingTitle(t *testing.T) {
	env := newTestEnv()
	tk := &Task{AssigneeID: uuid.New()}
	if err := env.svc.Create(context.Background(), tk, testActor); err == nil {
		t.Fatal("expected error for missing title")
	}
}

func TestCreate_MissingAssignee(t *testing.T) {
	env := newTestEnv()
	tk := &Task{Title: "Orphan"}
	if err := env.svc.Create(context.Background(), tk, testActor); err == nil {
		t.Fatal("expected error for missing assignee")
	}
}

func TestCreate_InvalidPriority(t *testing.T) {
	env := newTestEnv()
	tk := newTask(uuid.New())
	tk.Priority = "critical"
	if err := env.svc.Create(context.Background(), tk, testActor); err == nil {
		t.Fatal("expected error for invalid priority")
	}
}

func TestCreate_SynthesizesReminder(t *testing.T) {
	env := newTestEnv()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	at := "09:30"
	tk := newTask(uuid.New())
	tk.ReminderEnabled = true
	tk.ReminderDate = &date
	tk.ReminderTime = &at
	if err := env.svc.Create(context.Background(), tk, testActor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rems, _ := env.reminders.ListByTask(context.Background(), tk.ID)
	if len(rems) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(rems))
	}
	if rems[0].Time != at {
		t.Errorf("expected reminder time %q, got %q", at, rems[0].Time)
	}
}

func TestCreate_NoReminderWhenFieldsMissing(t *testing.T) {
	env := newTestEnv()
	tk := newTask(uuid.New())
	tk.ReminderEnabled = true
	if err := env.svc.Create(context.Background(), tk, testActor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rems, _ := env.reminders.ListByTask(context.Background(), tk.ID)
	if len(rems) != 0 {
		t.Fatalf("expected no reminder, got %d", len(rems))
	}
}

// -- Update --

func TestUpdate_RecordsDiff(t *testing.T) {
	env := newTestEnv()
	tk := newTask(uuid.New())
	env.svc.Create(context.Background(), tk, testActor)

	title := "Call patient back today"
	pr := PriorityHigh
	updated, err := env.svc.Update(context.Background(), tk.ID, Patch{Title: &title, Priority: &pr}, testActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Title != title || updated.Priority != PriorityHigh {
		t.Error("patch was not applied")
	}

	h := env.history.lastForTask(tk.ID)
	if h.Action != ActionUpdated {
		t.Errorf("expected action updated, got %q", h.Action)
	}
	if c, ok := h.Changes["title"]; !ok || c.Old != "Call patient back" || c.New != title {
		t.Errorf("title change not recorded: %+v", h.Changes)
	}
	if _, ok := h.Changes["priority"]; !ok {
		t.Error("priority change not recorded")
	}
}

func TestUpdate_StatusChangeAction(t *testing.T) {
	env := newTestEnv()
	tk := newTask(uuid.New())
	env.svc.Create(context.Background(), tk, testActor)

	st := StatusInProgress
	if _, err := env.svc.Update(context.Background(), tk.ID, Patch{Status: &st}, testActor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := env.history.lastForTask(tk.ID)
	if h.Action != ActionStatusChanged {
		t.Errorf("expected action status_changed, got %q", h.Action)
	}
}

func TestUpdate_CompletedStampsTimestamp(t *testing.T) {
	env := newTestEnv()
	tk := newTask(uuid.New())
	env.svc.Create(context.Background(), tk, testActor)

	st := StatusCompleted
	updated, err := env.svc.Update(context.Background(), tk.ID, Patch{Status: &st}, testActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.CompletedAt == nil {
		t.Error("expected CompletedAt to be stamped")
	}
}

func TestUpdate_NoChangesNoHistory(t *testing.T) {
	env := newTestEnv()
	tk := newTask(uuid.New())
	env.svc.Create(context.Background(), tk, testActor)
	before := len(env.history.entries)

	title := tk.Title
	if _, err := env.svc.Update(context.Background(), tk.ID, Patch{Title: &title}, testActor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(env.history.entries) != before {
		t.Error("expected no history entry for a no-op update")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	env := newTestEnv()
	title := "x"
	if _, err := env.svc.Update(context.Background(), uuid.New(), Patch{Title: &title}, testActor); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// -- Delete --

func TestDelete_CascadesReminders(t *testing.T) {
	env := newTestEnv()
	date := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	at := "09:30"
	tk := newTask(uuid.New())
	tk.ReminderEnabled = true
	tk.ReminderDate = &date
	tk.ReminderTime = &at
	env.svc.Create(context.Background(), tk, testActor)

	if err := env.svc.Delete(context.Background(), tk.ID, testActor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := env.svc.Get(context.Background(), tk.ID); err == nil {
		t.Fatal("expected task to be gone")
	}
	rems, _ := env.reminders.ListByTask(context.Background(), tk.ID)
	if len(rems) != 0 {
		t.Errorf("expected reminders to be cascaded, %d remain", len(rems))
	}
}

func TestDelete_HistoryKeepsUpdatedAction(t *testing.T) {
	env := newTestEnv()
	tk := newTask(uuid.New())
	env.svc.Create(context.Background(), tk, testActor)

	if err := env.svc.Delete(context.Background(), tk.ID, testActor); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := env.history.lastForTask(tk.ID)
	if h.Action != ActionUpdated {
		t.Errorf("deletion entries carry the updated action, got %q", h.Action)
	}
	if h.Note == nil {
		t.Error("expected a note on the deletion entry")
	}
}

func TestDelete_NotFound(t *testing.T) {
	env := newTestEnv()
	if err := env.svc.Delete(context.Background(), uuid.New(), testActor); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// -- Accept / Reject / Complete --

func TestAccept_MovesToPending(t *testing.T) {
	env := newTestEnv()
	tk := newTask(uuid.New())
	tk.Type = KindAssigned
	tk.Status = StatusInProgress
	env.svc.Create(context.Background(), tk, testActor)

	got, err := env.svc.Accept(context.Background(), tk.ID, testActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusPending {
		t.Errorf("accept moves the task to pending, got %q", got.Status)
	}
	if env.history.lastForTask(tk.ID).Action != ActionAccepted {
		t.Error("expected accepted history action")
	}
}

func TestReject_RecordsReason(t *testing.T) {
	env := newTestEnv()
	tk := newTask(uuid.New())
	tk.Type = KindAssigned
	env.svc.Create(context.Background(), tk, testActor)

	got, err := env.svc.Reject(context.Background(), tk.ID, "out of office this week", testActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusRejected {
		t.Errorf("expected status rejected, got %q", got.Status)
	}
	if got.RejectionReason == nil || *got.RejectionReason != "out of office this week" {
		t.Error("expected rejection reason to be stored")
	}
	if got.RejectedAt == nil {
		t.Error("expected RejectedAt to be stamped")
	}
}

func TestComplete_StampsTimestamp(t *testing.T) {
	env := newTestEnv()
	tk := newTask(uuid.New())
	env.svc.Create(context.Background(), tk, testActor)

	got, err := env.svc.Complete(context.Background(), tk.ID, testActor)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != StatusCompleted || got.CompletedAt == nil {
		t.Error("expected completed status with timestamp")
	}
}

func TestTransition_TerminalGuard(t *testing.T) {
	for _, terminal := range []Status{StatusCompleted, StatusCancelled, StatusRejected} {
		env := newTestEnv()
		tk := newTask(uuid.New())
		tk.Status = terminal
		env.svc.Create(context.Background(), tk, testActor)

		if _, err := env.svc.Accept(context.Background(), tk.ID, testActor); err == nil {
			t.Errorf("accept should fail for %s task", terminal)
		}
		if _, err := env.svc.Complete(context.Background(), tk.ID, testActor); err == nil {
			t.Errorf("complete should fail for %s task", terminal)
		}
		if _, err := env.svc.Reject(context.Background(), tk.ID, "", testActor); err == nil {
			t.Errorf("reject should fail for %s task", terminal)
		}
	}
}

// -- Listing and sorting --

func TestListUserTasks_SortOrder(t *testing.T) {
	env := newTestEnv()
	assignee := uuid.New()
	base := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	mk := func(title string, p Priority, due *time.Time, dueTime *string, created time.Time) {
		env.svc.SetClock(func() time.Time { return created })
		tk := newTask(assignee)
		tk.Title = title
		tk.Priority = p
		tk.DueDate = due
		tk.DueTime = dueTime
		if err := env.svc.Create(context.Background(), tk, testActor); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
	}

	nine := "09:00"
	ten := "10:00"
	mk("low no due", PriorityLow, nil, nil, base)
	mk("urgent late", PriorityUrgent, &day, &ten, base)
	mk("urgent early", PriorityUrgent, &day, &nine, base)
	mk("urgent no due old", PriorityUrgent, nil, nil, base)
	mk("urgent no due new", PriorityUrgent, nil, nil, base.Add(time.Hour))
	mk("high with due", PriorityHigh, &day, &nine, base)

	env.svc.SetClock(func() time.Time { return base })
	items, err := env.svc.ListUserTasks(context.Background(), assignee, Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := []string{
		"urgent early",
		"urgent late",
		"urgent no due new",
		"urgent no due old",
		"high with due",
		"low no due",
	}
	if len(items) != len(want) {
		t.Fatalf("expected %d tasks, got %d", len(want), len(items))
	}
	for i, w := range want {
		if items[i].Title != w {
			t.Errorf("position %d: expected %q, got %q", i, w, items[i].Title)
		}
	}
}

func TestListUserTasks_DueTimeDefaultsToEndOfDay(t *testing.T) {
	env := newTestEnv()
	assignee := uuid.New()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	noon := "12:00"

	withTime := newTask(assignee)
	withTime.Title = "noon"
	withTime.DueDate = &day
	withTime.DueTime = &noon
	env.svc.Create(context.Background(), withTime, testActor)

	dateOnly := newTask(assignee)
	dateOnly.Title = "date only"
	dateOnly.DueDate = &day
	env.svc.Create(context.Background(), dateOnly, testActor)

	items, err := env.svc.ListUserTasks(context.Background(), assignee, Filter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if items[0].Title != "noon" || items[1].Title != "date only" {
		t.Errorf("date-only due sorts after an explicit earlier time: %q then %q", items[0].Title, items[1].Title)
	}
}

func TestListUserTasks_Filters(t *testing.T) {
	env := newTestEnv()
	assignee := uuid.New()

	pending := newTask(assignee)
	env.svc.Create(context.Background(), pending, testActor)

	done := newTask(assignee)
	done.Status = StatusCompleted
	env.svc.Create(context.Background(), done, testActor)

	assigned := newTask(assignee)
	assigned.Type = KindAssigned
	env.svc.Create(context.Background(), assigned, testActor)

	other := newTask(uuid.New())
	env.svc.Create(context.Background(), other, testActor)

	items, _ := env.svc.ListUserTasks(context.Background(), assignee, Filter{Statuses: []Status{StatusPending}})
	if len(items) != 2 {
		t.Errorf("expected 2 pending tasks, got %d", len(items))
	}

	k := KindAssigned
	items, _ = env.svc.ListUserTasks(context.Background(), assignee, Filter{Type: &k})
	if len(items) != 1 {
		t.Errorf("expected 1 assigned task, got %d", len(items))
	}
}

func TestListUserTasks_OverdueFilter(t *testing.T) {
	env := newTestEnv()
	assignee := uuid.New()
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	yesterday := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	tomorrow := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)

	late := newTask(assignee)
	late.Title = "late"
	late.DueDate = &yesterday
	env.svc.Create(context.Background(), late, testActor)

	upcoming := newTask(assignee)
	upcoming.Title = "upcoming"
	upcoming.DueDate = &tomorrow
	env.svc.Create(context.Background(), upcoming, testActor)

	doneLate := newTask(assignee)
	doneLate.Title = "done late"
	doneLate.DueDate = &yesterday
	doneLate.Status = StatusCompleted
	env.svc.Create(context.Background(), doneLate, testActor)

	env.svc.SetClock(func() time.Time { return now })
	items, err := env.svc.ListUserTasks(context.Background(), assignee, Filter{Overdue: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(items) != 1 || items[0].Title != "late" {
		t.Errorf("expected only the open overdue task, got %d items", len(items))
	}
}

// -- Stats --

func TestUserStats(t *testing.T) {
	env := newTestEnv()
	assignee := uuid.New()
	now := time.Date(2026, 3, 11, 12, 0, 0, 0, time.UTC)
	yesterday := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	a := newTask(assignee)
	a.Priority = PriorityUrgent
	a.DueDate = &yesterday
	env.svc.Create(context.Background(), a, testActor)

	b := newTask(assignee)
	b.Status = StatusInProgress
	b.Type = KindAssigned
	env.svc.Create(context.Background(), b, testActor)

	c := newTask(assignee)
	c.Status = StatusCompleted
	env.svc.Create(context.Background(), c, testActor)

	env.svc.SetClock(func() time.Time { return now })
	stats, err := env.svc.UserStats(context.Background(), assignee)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Total != 3 || stats.Pending != 1 || stats.InProgress != 1 || stats.Completed != 1 {
		t.Errorf("status counts wrong: %+v", stats)
	}
	if stats.Overdue != 1 {
		t.Errorf("expected 1 overdue, got %d", stats.Overdue)
	}
	if stats.HighPriority != 1 {
		t.Errorf("expected 1 high priority, got %d", stats.HighPriority)
	}
	if stats.Assigned != 1 || stats.Personal != 2 {
		t.Errorf("type counts wrong: %+v", stats)
	}
}

// -- Reminders --

func TestDueReminders(t *testing.T) {
	env := newTestEnv()
	now := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	env.svc.SetClock(func() time.Time { return now })

	mk := func(title string, at string, status Status) uuid.UUID {
		tk := newTask(uuid.New())
		tk.Title = title
		tk.Status = status
		tk.ReminderEnabled = true
		tk.ReminderDate = &today
		tk.ReminderTime = &at
		if err := env.svc.Create(context.Background(), tk, testActor); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		return tk.ID
	}

	mk("fired", "09:00", StatusPending)
	mk("not yet", "11:00", StatusPending)
	mk("already done", "09:00", StatusCompleted)
	danglingID := mk("deleted later", "09:00", StatusPending)
	env.tasks.Delete(context.Background(), danglingID)

	due, err := env.svc.DueReminders(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("expected 1 due reminder, got %d", len(due))
	}
	if due[0].Task.Title != "fired" {
		t.Errorf("expected reminder for %q, got %q", "fired", due[0].Task.Title)
	}
}

func TestMarkReminderSent(t *testing.T) {
	env := newTestEnv()
	today := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	at := "09:00"
	tk := newTask(uuid.New())
	tk.ReminderEnabled = true
	tk.ReminderDate = &today
	tk.ReminderTime = &at
	env.svc.Create(context.Background(), tk, testActor)

	rems, _ := env.reminders.ListByTask(context.Background(), tk.ID)
	if err := env.svc.MarkReminderSent(context.Background(), rems[0].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, _ := env.reminders.GetByID(context.Background(), rems[0].ID)
	if !got.Sent || got.SentAt == nil {
		t.Error("expected reminder to be marked sent")
	}

	if err := env.svc.MarkReminderSent(context.Background(), uuid.New()); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
