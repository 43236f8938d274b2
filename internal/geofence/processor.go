package geofence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pkordes/georeminder/internal/domain"
	"github.com/pkordes/georeminder/internal/metrics"
	"github.com/pkordes/georeminder/internal/notify"
)

// DefaultFanOut caps how many fired ids of one event are resolved at once.
const DefaultFanOut = 16

// ErrProcessorClosed is returned by Enqueue after Close.
var ErrProcessorClosed = errors.New("geofence: processor closed")

// ReminderLookup resolves a fired request id back to its reminder.
// service.ReminderRepository satisfies it.
type ReminderLookup interface {
	GetReminder(ctx context.Context, id string) domain.Result[domain.Reminder]
}

// Report summarises one processed event.
type Report struct {
	Received int // distinct non-blank ids
	Notified int
	Stale    int // ids with no stored reminder
	Failed   int
}

// ProcessorConfig holds the collaborators of a Processor.
type ProcessorConfig struct {
	Lookup   ReminderLookup
	Notifier notify.Notifier
	// FanOut bounds concurrent lookups per event; <= 0 uses DefaultFanOut.
	FanOut  int
	Logger  *slog.Logger
	Metrics *metrics.Metrics
}

// Processor turns transition events into notifications. It owns its own
// scope: events handed over with Enqueue keep running after the caller
// returns, until Close.
type Processor struct {
	lookup   ReminderLookup
	notifier notify.Notifier
	fanOut   int
	log      *slog.Logger
	metrics  *metrics.Metrics

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

var _ Handler = (*Processor)(nil)

// NewProcessor constructs a running Processor. Call Close to stop it.
func NewProcessor(cfg ProcessorConfig) *Processor {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	fanOut := cfg.FanOut
	if fanOut <= 0 {
		fanOut = DefaultFanOut
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Processor{
		lookup:   cfg.Lookup,
		notifier: cfg.Notifier,
		fanOut:   fanOut,
		log:      log,
		metrics:  cfg.Metrics,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// HandleTransition implements Handler by enqueueing event.
func (p *Processor) HandleTransition(event TransitionEvent) error {
	return p.Enqueue(event)
}

// Enqueue hands event to the processor and returns immediately.
func (p *Processor) Enqueue(event TransitionEvent) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.metrics.IncEvent("dropped")
		return ErrProcessorClosed
	}
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.Process(p.ctx, event)
	}()
	return nil
}

// Close cancels in-flight work and waits for it to return. Pending
// notifications are dropped; stored reminders are untouched.
func (p *Processor) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.cancel()
	p.wg.Wait()
}

// Process handles one event synchronously.
//
// Errored events are logged and dropped. Only ENTER transitions notify.
// Each fired id is looked up on its own: an id whose reminder is gone is
// counted as stale, and a failure or panic for one id never affects the others.
func (p *Processor) Process(ctx context.Context, event TransitionEvent) Report {
	start := time.Now()
	defer func() { p.metrics.ObserveProcess(time.Since(start)) }()

	if event.HasError {
		err := fmt.Errorf("%w: %s", domain.ErrTransport, ErrorMessage(event.ErrorCode))
		p.log.Error("geofence event error", "code", event.ErrorCode, "error", err)
		p.metrics.IncEvent("transport_error")
		return Report{}
	}
	if event.Transition != TransitionEnter {
		p.log.Debug("ignoring geofence transition", "transition", event.Transition.String())
		p.metrics.IncEvent("ignored")
		return Report{}
	}
	p.metrics.IncEvent("processed")

	ids := dedupeIDs(event.FiredIDs)
	var notified, stale, failed atomic.Int64

	var g errgroup.Group
	g.SetLimit(p.fanOut)
	for _, id := range ids {
		g.Go(func() error {
			switch p.handleID(ctx, id) {
			case resultNotified:
				notified.Add(1)
			case resultStale:
				stale.Add(1)
			default:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	r := Report{
		Received: len(ids),
		Notified: int(notified.Load()),
		Stale:    int(stale.Load()),
		Failed:   int(failed.Load()),
	}
	p.metrics.AddNotifications("sent", r.Notified)
	p.metrics.AddNotifications("stale", r.Stale)
	p.metrics.AddNotifications("failed", r.Failed)
	p.log.Debug("geofence event processed",
		"received", r.Received, "notified", r.Notified, "stale", r.Stale, "failed", r.Failed)
	return r
}

type idResult int

const (
	resultFailed idResult = iota
	resultNotified
	resultStale
)

func (p *Processor) handleID(ctx context.Context, id string) (res idResult) {
	defer func() {
		if v := recover(); v != nil {
			p.log.Error("panic handling geofence trigger", "request_id", id, "panic", v)
			res = resultFailed
		}
	}()

	lookup := p.lookup.GetReminder(ctx, id)
	reminder, ok := lookup.Value()
	if !ok {
		if errors.Is(lookup.Err(), domain.ErrNotFound) {
			// Deleted after the trigger fired, or disarm has not landed yet.
			p.log.Debug("geofence fired for unknown reminder", "request_id", id)
			return resultStale
		}
		p.log.Warn("look up fired reminder", "request_id", id, "error", lookup.Err())
		return resultFailed
	}

	if err := p.notifier.Notify(ctx, domain.NotificationFor(reminder)); err != nil {
		p.log.Warn("send reminder notification", "request_id", id, "error", err)
		return resultFailed
	}
	p.log.Info("reminder notified", "request_id", id, "title", reminder.Title)
	return resultNotified
}

// dedupeIDs drops empty ids and repeats, keeping first-seen order. Ids are
// otherwise passed through verbatim.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
