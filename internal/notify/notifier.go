// Package notify delivers reminder notifications to the user-facing channels.
package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/pkordes/georeminder/internal/domain"
)

// Notifier shows one notification for a fired reminder.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n domain.Notification) error

func (f NotifierFunc) Notify(ctx context.Context, n domain.Notification) error { return f(ctx, n) }

// LogNotifier writes each notification as a structured log line.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier constructs a LogNotifier. A nil logger uses slog.Default().
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(ctx context.Context, msg domain.Notification) error {
	attrs := []any{
		"reminder_id", msg.ID,
		"title", msg.Title,
		"location", msg.LocationName,
	}
	if msg.Description != "" {
		attrs = append(attrs, "description", msg.Description)
	}
	if msg.Latitude != nil && msg.Longitude != nil {
		attrs = append(attrs, "lat", *msg.Latitude, "lng", *msg.Longitude)
	}
	n.log.InfoContext(ctx, "reminder notification", attrs...)
	return nil
}

// Multi delivers to every notifier and joins their errors.
type Multi struct {
	notifiers []Notifier
}

// NewMulti constructs a Multi. Nil notifiers are skipped.
func NewMulti(notifiers ...Notifier) *Multi {
	kept := make([]Notifier, 0, len(notifiers))
	for _, n := range notifiers {
		if n != nil {
			kept = append(kept, n)
		}
	}
	return &Multi{notifiers: kept}
}

// Notify forwards msg to all channels. One failing channel does not stop the rest.
func (m *Multi) Notify(ctx context.Context, msg domain.Notification) error {
	if m == nil {
		return nil
	}
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Notify(ctx, msg); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
