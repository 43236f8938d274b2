// Package handler implements the HTTP API of the reminder service.
// All handlers are methods on Server. Routes are registered on a chi router
// by Routes; methods are split into files per resource (health.go,
// reminder.go, export.go, events.go, device.go).
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pkordes/georeminder/internal/domain"
	"github.com/pkordes/georeminder/internal/geofence"
	"github.com/pkordes/georeminder/internal/service"
)

// ReminderServicer defines the reminder use cases the handlers depend on.
// Defining the interface here (in the consumer package) lets handler tests
// inject a mock without touching the database or the geofence layer.
type ReminderServicer interface {
	Save(ctx context.Context, r domain.Reminder) (service.SaveResult, error)
	GetByID(ctx context.Context, id string) (domain.Reminder, error)
	List(ctx context.Context) ([]domain.Reminder, error)
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// ExportServicer produces the flat reminder export.
type ExportServicer interface {
	Export(ctx context.Context) ([]domain.ExportRow, error)
}

// EventSink accepts transition events from the platform webhook.
type EventSink interface {
	Enqueue(event geofence.TransitionEvent) error
}

// DeviceSimulator is the in-process device, present only in simulator mode.
type DeviceSimulator interface {
	ReportLocation(ctx context.Context, lat, lng float64) ([]string, error)
	Armed() []string
}

// Config holds the Server's dependencies. Device, Metrics and OpenAPI are optional.
type Config struct {
	Reminders ReminderServicer
	Export    ExportServicer
	Events    EventSink
	Device    DeviceSimulator
	OpenAPI   []byte
	Metrics   http.Handler
	Logger    *slog.Logger
}

// Server serves every API endpoint.
type Server struct {
	reminders ReminderServicer
	export    ExportServicer
	events    EventSink
	device    DeviceSimulator
	openAPI   []byte
	metrics   http.Handler
	log       *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
func NewServer(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		reminders: cfg.Reminders,
		export:    cfg.Export,
		events:    cfg.Events,
		device:    cfg.Device,
		openAPI:   cfg.OpenAPI,
		metrics:   cfg.Metrics,
		log:       log,
	}
}

// Routes builds the router. protect, when non-nil, wraps every route except
// /healthz, /openapi.yaml and /metrics.
func (s *Server) Routes(protect func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", s.GetHealth)
	if s.openAPI != nil {
		r.Get("/openapi.yaml", s.GetOpenAPI)
	}
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Group(func(r chi.Router) {
		if protect != nil {
			r.Use(protect)
		}
		r.Route("/reminders", func(r chi.Router) {
			r.Post("/", s.CreateReminder)
			r.Get("/", s.ListReminders)
			r.Delete("/", s.DeleteAllReminders)
			r.Get("/export", s.GetExport)
			r.Get("/{id}", s.GetReminder)
			r.Delete("/{id}", s.DeleteReminder)
		})
		r.Post("/geofence/events", s.PostGeofenceEvent)
		r.Post("/device/location", s.PostDeviceLocation)
		r.Get("/device/geofences", s.ListDeviceGeofences)
	})
	return r
}
