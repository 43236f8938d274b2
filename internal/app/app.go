package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pkordes/georeminder/internal/config"
	"github.com/pkordes/georeminder/internal/geofence"
	"github.com/pkordes/georeminder/internal/geofence/simulator"
	"github.com/pkordes/georeminder/internal/metrics"
	"github.com/pkordes/georeminder/internal/notify"
	"github.com/pkordes/georeminder/internal/service"
	"github.com/pkordes/georeminder/internal/worker"
)

// App holds the wired pipeline. Fields are exported so cmd/ can hand them to
// the HTTP layer or call them directly.
type App struct {
	Store      *Store
	Pool       *worker.Pool
	Metrics    *metrics.Metrics
	Device     *simulator.Device
	Processor  *geofence.Processor
	Manager    *geofence.Manager
	Repository *service.ReminderRepository
	Reminders  *service.ReminderService
	Export     *service.ExportService
}

// Options tweak New for the binary being built.
type Options struct {
	// Migrate applies pending migrations when the store is opened.
	Migrate bool
	// Registerer receives the collectors. Nil disables metrics.
	Registerer prometheus.Registerer
	// HTTPClient is used by the webhook notifier. Nil gets a default client.
	HTTPClient *http.Client
}

// New opens the store and builds every component on top of it.
// The caller owns the result and must Close it.
func New(ctx context.Context, cfg config.Config, log *slog.Logger, opts Options) (*App, error) {
	if log == nil {
		log = slog.Default()
	}

	store, err := OpenStore(ctx, cfg, opts.Migrate)
	if err != nil {
		return nil, err
	}

	var m *metrics.Metrics
	if opts.Registerer != nil {
		m = metrics.New(opts.Registerer)
	}

	notifier, err := newNotifier(cfg, log, opts.HTTPClient)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("app.New: %w", err)
	}

	state, err := simulator.ParseLocationState(cfg.SimLocationState)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("app.New: %w", err)
	}

	pool := worker.New(cfg.WorkerPoolSize)
	repository := service.NewReminderRepository(store.Reminders, pool, log, m)

	processor := geofence.NewProcessor(geofence.ProcessorConfig{
		Lookup:   repository,
		Notifier: notifier,
		Logger:   log,
		Metrics:  m,
	})

	device := simulator.New(simulator.Config{
		MaxActive:     cfg.GeofenceMaxActive,
		LocationState: state,
		AcceptPrompt:  cfg.SimAcceptPrompt,
		Logger:        log,
	})

	manager := geofence.NewManager(geofence.ManagerConfig{
		Transport:    device,
		Settings:     device,
		Resolver:     device,
		Handler:      processor,
		RadiusMeters: cfg.GeofenceRadiusMeters,
		Logger:       log,
		Metrics:      m,
	})

	return &App{
		Store:      store,
		Pool:       pool,
		Metrics:    m,
		Device:     device,
		Processor:  processor,
		Manager:    manager,
		Repository: repository,
		Reminders:  service.NewReminderService(repository, manager, log),
		Export:     service.NewExportService(repository, device),
	}, nil
}

// Close stops the processor, then the worker pool, then the store.
// In-flight events finish or observe cancellation before storage goes away.
func (a *App) Close() {
	a.Processor.Close()
	a.Pool.Close()
	a.Store.Close()
}

// newNotifier always logs; a webhook channel is added when configured.
func newNotifier(cfg config.Config, log *slog.Logger, client *http.Client) (notify.Notifier, error) {
	notifiers := []notify.Notifier{notify.NewLogNotifier(log)}
	if cfg.NotifyWebhookURL != "" {
		wh, err := notify.NewWebhookNotifier(cfg.NotifyWebhookURL, nil, client)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, wh)
	}
	return notify.NewMulti(notifiers...), nil
}
