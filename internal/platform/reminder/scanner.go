// Package reminder runs the background poller that turns due task reminders
// into WebSocket pushes and outbound notifications.
package reminder

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinichq/frontdesk/internal/domain/task"
	"github.com/clinichq/frontdesk/internal/platform/notification"
	"github.com/clinichq/frontdesk/internal/platform/ws"
)

// TaskSource is the slice of the task service the scanner needs.
type TaskSource interface {
	DueReminders(ctx context.Context) ([]*task.DueReminder, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}

// Notifier is the slice of the notification manager the scanner needs.
type Notifier interface {
	SendFromTemplate(ctx context.Context, templateID string, data map[string]string, recipient string) (*notification.Notification, error)
}

// Scanner polls for due reminders on a fixed interval and delivers each one
// exactly once: a WebSocket event to the assignee's topic, a notification,
// then the sent flag.
type Scanner struct {
	tasks    TaskSource
	events   ws.EventPublisher
	notifier Notifier
	interval time.Duration
	log      zerolog.Logger
}

func NewScanner(tasks TaskSource, events ws.EventPublisher, notifier Notifier, interval time.Duration, log zerolog.Logger) *Scanner {
	return &Scanner{
		tasks:    tasks,
		events:   events,
		notifier: notifier,
		interval: interval,
		log:      log.With().Str("component", "reminder-scanner").Logger(),
	}
}

// Run polls until the context is cancelled. An immediate first scan avoids
// waiting a full interval after startup.
func (s *Scanner) Run(ctx context.Context) {
	s.log.Info().Dur("interval", s.interval).Msg("reminder scanner started")
	s.Scan(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("reminder scanner stopped")
			return
		case <-ticker.C:
			s.Scan(ctx)
		}
	}
}

// Scan delivers every currently due reminder. Delivery failures are logged
// and the reminder is left unsent so the next tick retries it.
func (s *Scanner) Scan(ctx context.Context) {
	due, err := s.tasks.DueReminders(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("listing due reminders")
		return
	}
	for _, d := range due {
		if err := s.deliver(ctx, d); err != nil {
			s.log.Error().Err(err).
				Str("reminder_id", d.Reminder.ID.String()).
				Str("task_id", d.Task.ID.String()).
				Msg("delivering reminder")
			continue
		}
		if err := s.tasks.MarkReminderSent(ctx, d.Reminder.ID); err != nil {
			s.log.Error().Err(err).
				Str("reminder_id", d.Reminder.ID.String()).
				Msg("marking reminder sent")
		}
	}
}

func (s *Scanner) deliver(ctx context.Context, d *task.DueReminder) error {
	payload, _ := json.Marshal(d.Task)
	event := ws.Event{
		Type:      "task_reminder",
		Topic:     ws.UserTopic(d.Task.AssigneeID.String()),
		SubjectID: d.Task.ID.String(),
		Title:     d.Task.Title,
		Message:   d.Reminder.Message,
		Timestamp: time.Now(),
		Data:      payload,
	}
	if err := s.events.Publish(ctx, event); err != nil {
		return err
	}

	_, err := s.notifier.SendFromTemplate(ctx, "task-reminder", map[string]string{
		"user_name":  d.Task.AssigneeName,
		"task_title": d.Task.Title,
		"time":       d.Reminder.Time,
		"message":    d.Reminder.Message,
	}, d.Task.AssigneeID.String())
	return err
}
