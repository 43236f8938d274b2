// Package geofence arms proximity triggers for reminders and turns the
// transitions reported by the platform transport into notifications.
package geofence

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkordes/georeminder/internal/domain"
)

// DefaultRadiusMeters is the trigger radius used when none is configured.
const DefaultRadiusMeters = 100.0

// NeverExpire is the TriggerSpec expiration meaning "armed until disarmed".
const NeverExpire = -1

// Transition is the kind of boundary crossing reported for a trigger.
type Transition int

const (
	TransitionEnter Transition = 1 << iota
	TransitionExit
	TransitionDwell
)

var transitionNames = map[Transition]string{
	TransitionEnter: "ENTER",
	TransitionExit:  "EXIT",
	TransitionDwell: "DWELL",
}

func (t Transition) String() string {
	if s, ok := transitionNames[t]; ok {
		return s
	}
	return fmt.Sprintf("Transition(%d)", int(t))
}

// ParseTransition maps ENTER / EXIT / DWELL (case-insensitive) to a Transition.
func ParseTransition(s string) (Transition, error) {
	for t, name := range transitionNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("geofence.ParseTransition: unknown transition %q", s)
}

func (t Transition) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Transition) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("geofence.Transition: %w", err)
	}
	parsed, err := ParseTransition(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// TriggerSpec is the arm request handed to the transport. It is derived
// from a reminder on every registration and never stored.
type TriggerSpec struct {
	RequestID      string
	Latitude       float64
	Longitude      float64
	RadiusMeters   float64
	Expiration     int64
	TransitionMask Transition
	InitialTrigger Transition
}

// BuildTriggerSpec derives the trigger for r. ok is false when r has no
// coordinates and therefore cannot be armed.
func BuildTriggerSpec(r domain.Reminder, radiusMeters float64) (spec TriggerSpec, ok bool) {
	if !r.HasLocation() {
		return TriggerSpec{}, false
	}
	if radiusMeters <= 0 {
		radiusMeters = DefaultRadiusMeters
	}
	return TriggerSpec{
		RequestID:      r.ID,
		Latitude:       *r.Latitude,
		Longitude:      *r.Longitude,
		RadiusMeters:   radiusMeters,
		Expiration:     NeverExpire,
		TransitionMask: TransitionEnter,
		InitialTrigger: TransitionEnter,
	}, true
}

// TransitionEvent is one delivery from the transport. FiredIDs are the
// request ids (reminder ids) of every trigger that crossed together.
type TransitionEvent struct {
	HasError   bool       `json:"hasError"`
	ErrorCode  int        `json:"errorCode,omitempty"`
	Transition Transition `json:"transition"`
	FiredIDs   []string   `json:"firedIds"`
}

// Transport error codes as reported by the platform geofencing service.
const (
	ErrCodeNotAvailable          = 1000
	ErrCodeTooManyGeofences      = 1001
	ErrCodeTooManyPendingTargets = 1002
)

// ErrorMessage returns a readable description of a transport error code.
func ErrorMessage(code int) string {
	switch code {
	case ErrCodeNotAvailable:
		return "geofence service is not available now"
	case ErrCodeTooManyGeofences:
		return "too many geofences registered"
	case ErrCodeTooManyPendingTargets:
		return "too many pending targets"
	default:
		return fmt.Sprintf("unknown geofence error code %d", code)
	}
}
