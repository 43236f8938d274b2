package geofence

import (
	"context"
	"errors"
	"fmt"
)

// ActionGeofenceEvent names the delivery channel every trigger is armed with.
const ActionGeofenceEvent = "georeminder.action.GEOFENCE_EVENT"

// Notices shown to the user through Resolver.Inform.
const (
	NoticeLocationRequired  = "Device location must be enabled to add a geofence"
	NoticeGeofencesNotAdded = "Geofences not added"
)

// Transport is the platform geofencing service.
type Transport interface {
	// Arm registers spec. Re-arming an existing request id replaces it.
	Arm(ctx context.Context, spec TriggerSpec, target *Target) error
	// Disarm withdraws the triggers with the given request ids.
	// Unknown ids are ignored.
	Disarm(ctx context.Context, requestIDs ...string) error
}

// InitialTriggerHolder is implemented by transports that hold an initial
// ENTER back until ReleaseInitial is called for its request id.
type InitialTriggerHolder interface {
	ReleaseInitial(ctx context.Context, requestID string) error
}

// Handler receives transition events from a transport.
type Handler interface {
	HandleTransition(event TransitionEvent) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(event TransitionEvent) error

func (f HandlerFunc) HandleTransition(event TransitionEvent) error { return f(event) }

// Target is the stable delivery handle passed on every Arm call.
// Transports use it to route transitions back into the process.
type Target struct {
	Action  string
	Handler Handler
}

// NewTarget builds the target for ActionGeofenceEvent delivering to h.
func NewTarget(h Handler) *Target {
	return &Target{Action: ActionGeofenceEvent, Handler: h}
}

// Deliver hands event to the target's handler.
func (t *Target) Deliver(event TransitionEvent) error {
	if t == nil || t.Handler == nil {
		return fmt.Errorf("geofence.Target.Deliver: no handler for %s", ActionGeofenceEvent)
	}
	return t.Handler.HandleTransition(event)
}

// SettingsChecker verifies the device location setting meets the
// transport's requirements.
type SettingsChecker interface {
	// Check returns nil when the setting is satisfied. A *ResolvableError
	// means the user can be prompted to fix it.
	Check(ctx context.Context) error
}

// ResolvableError is a settings failure that a user prompt may fix.
type ResolvableError struct {
	Reason string
}

func (e *ResolvableError) Error() string {
	return "location settings resolvable: " + e.Reason
}

// IsResolvable reports whether err carries a *ResolvableError.
func IsResolvable(err error) bool {
	var re *ResolvableError
	return errors.As(err, &re)
}

// Resolver is the permission prompt UX collaborator.
type Resolver interface {
	// Resolve shows the prompt for err and returns once the user answered.
	// The answer is observed by checking settings again.
	Resolve(ctx context.Context, err *ResolvableError) error
	// Inform shows a non-interactive notice.
	Inform(ctx context.Context, notice string)
}
