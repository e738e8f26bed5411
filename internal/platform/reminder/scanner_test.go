package reminder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinichq/frontdesk/internal/domain/task"
	"github.com/clinichq/frontdesk/internal/platform/notification"
	"github.com/clinichq/frontdesk/internal/platform/ws"
)

type fakeTasks struct {
	mu   sync.Mutex
	due  []*task.DueReminder
	sent []uuid.UUID
	err  error
}

func (f *fakeTasks) DueReminders(_ context.Context) ([]*task.DueReminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*task.DueReminder, 0, len(f.due))
	for _, d := range f.due {
		delivered := false
		for _, id := range f.sent {
			if id == d.Reminder.ID {
				delivered = true
				break
			}
		}
		if !delivered {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeTasks) MarkReminderSent(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeTasks) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []ws.Event
	err    error
}

func (f *fakePublisher) Publish(_ context.Context, event ws.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) published() []ws.Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ws.Event(nil), f.events...)
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeNotifier) SendFromTemplate(_ context.Context, templateID string, _ map[string]string, recipient string) (*notification.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, templateID+":"+recipient)
	return &notification.Notification{}, nil
}

func dueReminder() *task.DueReminder {
	t := &task.Task{
		ID:           uuid.New(),
		Title:        "Call pharmacy",
		AssigneeID:   uuid.New(),
		AssigneeName: "Dr. Chen",
		Status:       task.StatusPending,
	}
	return &task.DueReminder{
		Reminder: &task.Reminder{
			ID:      uuid.New(),
			TaskID:  t.ID,
			Date:    time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
			Time:    "09:00",
			Message: "Reminder: Call pharmacy",
		},
		Task: t,
	}
}

func newTestScanner(tasks TaskSource, pub ws.EventPublisher, n Notifier, interval time.Duration) *Scanner {
	return NewScanner(tasks, pub, n, interval, zerolog.Nop())
}

func TestScan_DeliversAndMarksSent(t *testing.T) {
	d := dueReminder()
	tasks := &fakeTasks{due: []*task.DueReminder{d}}
	pub := &fakePublisher{}
	notif := &fakeNotifier{}

	s := newTestScanner(tasks, pub, notif, time.Minute)
	s.Scan(context.Background())

	events := pub.published()
	if len(events) != 1 {
		t.Fatalf("published %d events, want 1", len(events))
	}
	ev := events[0]
	if ev.Type != "task_reminder" {
		t.Errorf("event type = %s", ev.Type)
	}
	if want := ws.UserTopic(d.Task.AssigneeID.String()); ev.Topic != want {
		t.Errorf("topic = %s, want %s", ev.Topic, want)
	}
	if ev.Title != "Call pharmacy" {
		t.Errorf("title = %s", ev.Title)
	}

	if len(notif.calls) != 1 || notif.calls[0] != "task-reminder:"+d.Task.AssigneeID.String() {
		t.Errorf("notifier calls = %v", notif.calls)
	}
	if tasks.sentCount() != 1 {
		t.Errorf("marked %d reminders sent, want 1", tasks.sentCount())
	}
}

func TestScan_PublishFailureLeavesUnsent(t *testing.T) {
	tasks := &fakeTasks{due: []*task.DueReminder{dueReminder()}}
	pub := &fakePublisher{err: errors.New("hub down")}
	notif := &fakeNotifier{}

	s := newTestScanner(tasks, pub, notif, time.Minute)
	s.Scan(context.Background())

	if tasks.sentCount() != 0 {
		t.Errorf("failed delivery must not mark sent, got %d", tasks.sentCount())
	}
	if len(notif.calls) != 0 {
		t.Errorf("notifier should not run after publish failure, got %v", notif.calls)
	}
}

func TestScan_ListErrorIsNonFatal(t *testing.T) {
	tasks := &fakeTasks{err: errors.New("db down")}
	s := newTestScanner(tasks, &fakePublisher{}, &fakeNotifier{}, time.Minute)
	s.Scan(context.Background())
}

func TestRun_PollsAndStopsOnCancel(t *testing.T) {
	tasks := &fakeTasks{due: []*task.DueReminder{dueReminder()}}
	pub := &fakePublisher{}
	s := newTestScanner(tasks, pub, &fakeNotifier{}, 5*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(time.Second)
	for tasks.sentCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("scanner never delivered")
		case <-time.After(time.Millisecond):
		}
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scanner did not stop on cancel")
	}

	// marked-sent reminders are not delivered twice
	if got := tasks.sentCount(); got != 1 {
		t.Errorf("sent %d times, want 1", got)
	}
}
