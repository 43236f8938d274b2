package geofence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/looplab/fsm"

	"github.com/pkordes/georeminder/internal/domain"
	"github.com/pkordes/georeminder/internal/metrics"
)

// Outcome is the terminal state of one registration attempt.
type Outcome string

const (
	OutcomeArmed     Outcome = "armed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeBlocked   Outcome = "blocked"
	OutcomeArmFailed Outcome = "arm_failed"
)

// Registration states.
const (
	StateCheckEnvironment = "check_environment"
	StateResolving        = "resolving"
	StateBuildRequest     = "build_request"
	StateArm              = "arm"
	StateArmed            = "armed"
	StateBlocked          = "blocked"
	StateSkipped          = "skipped"
	StateArmFailed        = "arm_failed"
)

const (
	eventSettingsOK         = "settings_ok"
	eventSettingsResolvable = "settings_resolvable"
	eventSettingsFailed     = "settings_failed"
	eventNoLocation         = "no_location"
	eventRequestBuilt       = "request_built"
	eventArmOK              = "arm_ok"
	eventArmError           = "arm_error"
)

var registrationEvents = fsm.Events{
	{Name: eventSettingsOK, Src: []string{StateCheckEnvironment, StateResolving}, Dst: StateBuildRequest},
	{Name: eventSettingsResolvable, Src: []string{StateCheckEnvironment}, Dst: StateResolving},
	{Name: eventSettingsFailed, Src: []string{StateCheckEnvironment, StateResolving}, Dst: StateBlocked},
	{Name: eventNoLocation, Src: []string{StateBuildRequest}, Dst: StateSkipped},
	{Name: eventRequestBuilt, Src: []string{StateBuildRequest}, Dst: StateArm},
	{Name: eventArmOK, Src: []string{StateArm}, Dst: StateArmed},
	{Name: eventArmError, Src: []string{StateArm}, Dst: StateArmFailed},
}

// ManagerConfig holds the collaborators of a Manager.
type ManagerConfig struct {
	Transport Transport
	Settings  SettingsChecker
	Resolver  Resolver
	// Handler receives transitions for every trigger this manager arms.
	Handler      Handler
	RadiusMeters float64
	Logger       *slog.Logger
	Metrics      *metrics.Metrics
	// OnTransition, if set, observes every state change of every attempt.
	OnTransition func(requestID, from, to string)
}

// Manager arms and disarms one trigger per reminder.
// It is safe for concurrent use; each Register call runs its own state machine.
type Manager struct {
	transport Transport
	settings  SettingsChecker
	resolver  Resolver
	target    *Target
	radius    float64
	log       *slog.Logger
	metrics   *metrics.Metrics
	observe   func(requestID, from, to string)
}

// NewManager constructs a Manager. The delivery target is created here once
// and reused for every Arm call.
func NewManager(cfg ManagerConfig) *Manager {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	radius := cfg.RadiusMeters
	if radius <= 0 {
		radius = DefaultRadiusMeters
	}
	return &Manager{
		transport: cfg.Transport,
		settings:  cfg.Settings,
		resolver:  cfg.Resolver,
		target:    NewTarget(cfg.Handler),
		radius:    radius,
		log:       log,
		metrics:   cfg.Metrics,
		observe:   cfg.OnTransition,
	}
}

// Target returns the delivery handle passed to the transport.
func (m *Manager) Target() *Target { return m.target }

// RadiusMeters returns the radius applied to every trigger.
func (m *Manager) RadiusMeters() float64 { return m.radius }

// Register attempts to arm the trigger for r.
//
//   - OutcomeArmed, nil: the transport accepted the trigger.
//   - OutcomeSkipped, nil: r has no coordinates; nothing was armed.
//   - OutcomeBlocked: location settings are unsatisfied; the error wraps
//     domain.ErrEnvironmentUnsatisfied.
//   - OutcomeArmFailed: the transport refused; the error wraps domain.ErrRegistration.
//
// Register never retries on its own.
func (m *Manager) Register(ctx context.Context, r domain.Reminder) (Outcome, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("geofence.Manager.Register: %w", err)
	}
	a := m.newAttempt(r.ID)

	err := m.settings.Check(ctx)
	if err != nil {
		var re *ResolvableError
		if !errors.As(err, &re) {
			return m.block(ctx, a, err)
		}
		a.fire(eventSettingsResolvable)
		if rerr := m.resolver.Resolve(ctx, re); rerr != nil {
			m.log.Warn("location settings prompt failed", "request_id", r.ID, "error", rerr)
		}
		// Second look, without prompting again.
		if err = m.settings.Check(ctx); err != nil {
			return m.block(ctx, a, err)
		}
	}
	a.fire(eventSettingsOK)

	spec, ok := BuildTriggerSpec(r, m.radius)
	if !ok {
		a.fire(eventNoLocation)
		m.log.Info("reminder has no coordinates, geofence skipped", "request_id", r.ID)
		return m.finish(OutcomeSkipped), nil
	}
	a.fire(eventRequestBuilt)

	if err := m.transport.Arm(ctx, spec, m.target); err != nil {
		a.fire(eventArmError)
		m.log.Error("arm geofence", "request_id", r.ID, "error", err)
		m.resolver.Inform(ctx, NoticeGeofencesNotAdded)
		return m.finish(OutcomeArmFailed), fmt.Errorf("geofence.Manager.Register: %w: %w", domain.ErrRegistration, err)
	}
	a.fire(eventArmOK)
	m.log.Info("geofence added", "request_id", r.ID,
		"lat", spec.Latitude, "lng", spec.Longitude, "radius_m", spec.RadiusMeters)
	return m.finish(OutcomeArmed), nil
}

// Disarm withdraws the triggers for ids. Empty input is a no-op.
func (m *Manager) Disarm(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	err := m.transport.Disarm(ctx, ids...)
	m.metrics.IncDisarm(err)
	if err != nil {
		return fmt.Errorf("geofence.Manager.Disarm: %w: %w", domain.ErrRegistration, err)
	}
	m.log.Info("geofences removed", "count", len(ids))
	return nil
}

// Confirm releases a held initial ENTER for id once the reminder is stored.
// It is a no-op for transports that deliver initial triggers on Arm.
func (m *Manager) Confirm(ctx context.Context, id string) error {
	h, ok := m.transport.(InitialTriggerHolder)
	if !ok {
		return nil
	}
	if err := h.ReleaseInitial(ctx, id); err != nil {
		return fmt.Errorf("geofence.Manager.Confirm: %w", err)
	}
	return nil
}

func (m *Manager) block(ctx context.Context, a *attempt, cause error) (Outcome, error) {
	a.fire(eventSettingsFailed)
	m.log.Warn("location settings unsatisfied", "request_id", a.id, "error", cause)
	m.resolver.Inform(ctx, NoticeLocationRequired)
	return m.finish(OutcomeBlocked), fmt.Errorf("geofence.Manager.Register: %w: %w", domain.ErrEnvironmentUnsatisfied, cause)
}

func (m *Manager) finish(o Outcome) Outcome {
	m.metrics.IncRegistration(string(o))
	return o
}

// attempt is the state machine of a single Register call.
type attempt struct {
	id  string
	fsm *fsm.FSM
	log *slog.Logger
}

func (m *Manager) newAttempt(id string) *attempt {
	a := &attempt{id: id, log: m.log}
	a.fsm = fsm.NewFSM(
		StateCheckEnvironment,
		registrationEvents,
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				a.log.Debug("registration transition", "request_id", id, "from", e.Src, "to", e.Dst)
				if m.observe != nil {
					m.observe(id, e.Src, e.Dst)
				}
			},
		},
	)
	return a
}

// fire advances the machine. The table is static, so a rejected event is a
// programming error and is only logged.
func (a *attempt) fire(event string) {
	// Transitions are bookkeeping; a cancelled caller must not leave the
	// machine mid-transition.
	if err := a.fsm.Event(context.Background(), event); err != nil {
		a.log.Error("registration state machine", "request_id", a.id, "event", event, "state", a.fsm.Current(), "error", err)
	}
}
