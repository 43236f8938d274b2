// Package simulator is an in-process stand-in for a phone's geofencing
// service. It arms fences, checks the location setting, answers the
// settings prompt, and turns reported positions into transition events.
package simulator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	"github.com/pkordes/georeminder/internal/geofence"
)

// DefaultMaxActive mirrors the per-app limit on active geofences.
const DefaultMaxActive = 100

const earthRadiusMeters = 6371008.8

// ErrTooManyGeofences is returned by Arm when the device is at capacity.
var ErrTooManyGeofences = errors.New("simulator: too many geofences")

// ErrLocationUnavailable is the unresolvable settings failure.
var ErrLocationUnavailable = errors.New("simulator: location services unavailable")

// LocationState is the device's location setting.
type LocationState int

const (
	LocationEnabled LocationState = iota
	// LocationResolvable is off, but a prompt can turn it on.
	LocationResolvable
	LocationDisabled
)

func (s LocationState) String() string {
	switch s {
	case LocationEnabled:
		return "enabled"
	case LocationResolvable:
		return "resolvable"
	case LocationDisabled:
		return "disabled"
	default:
		return fmt.Sprintf("LocationState(%d)", int(s))
	}
}

// ParseLocationState accepts enabled, resolvable or disabled.
func ParseLocationState(s string) (LocationState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "enabled":
		return LocationEnabled, nil
	case "resolvable":
		return LocationResolvable, nil
	case "disabled":
		return LocationDisabled, nil
	default:
		return 0, fmt.Errorf("simulator.ParseLocationState: unknown state %q", s)
	}
}

// Config configures a Device.
type Config struct {
	MaxActive     int
	LocationState LocationState
	// AcceptPrompt makes Resolve turn a resolvable setting on.
	AcceptPrompt bool
	Logger       *slog.Logger
}

type fence struct {
	spec   geofence.TriggerSpec
	target *geofence.Target
	inside bool
	// held marks an initial ENTER waiting for ReleaseInitial.
	held bool
}

type position struct {
	lat, lng float64
}

// Device implements geofence.Transport, geofence.SettingsChecker and
// geofence.Resolver.
type Device struct {
	mu           sync.Mutex
	fences       map[string]*fence
	order        []string
	maxActive    int
	state        LocationState
	acceptPrompt bool
	prompts      int
	notices      []string
	pos          *position
	log          *slog.Logger
}

var (
	_ geofence.Transport       = (*Device)(nil)
	_ geofence.SettingsChecker = (*Device)(nil)
	_ geofence.Resolver        = (*Device)(nil)
)

// New constructs a Device with no fences and no known position.
func New(cfg Config) *Device {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	maxActive := cfg.MaxActive
	if maxActive <= 0 {
		maxActive = DefaultMaxActive
	}
	return &Device{
		fences:       make(map[string]*fence),
		maxActive:    maxActive,
		state:        cfg.LocationState,
		acceptPrompt: cfg.AcceptPrompt,
		log:          log,
	}
}

// Arm registers spec, replacing any fence with the same request id.
// If the device already sits inside the new fence and the trigger asks for an
// initial ENTER, the event is held until ReleaseInitial.
func (d *Device) Arm(ctx context.Context, spec geofence.TriggerSpec, target *geofence.Target) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("simulator.Device.Arm: %w", err)
	}
	if spec.RequestID == "" {
		return errors.New("simulator.Device.Arm: empty request id")
	}

	d.mu.Lock()
	if _, exists := d.fences[spec.RequestID]; !exists {
		if len(d.fences) >= d.maxActive {
			d.mu.Unlock()
			return fmt.Errorf("simulator.Device.Arm: %w (limit %d)", ErrTooManyGeofences, d.maxActive)
		}
		d.order = append(d.order, spec.RequestID)
	}
	f := &fence{spec: spec, target: target}
	d.fences[spec.RequestID] = f
	if d.pos != nil && contains(spec, *d.pos) {
		f.inside = true
		f.held = spec.InitialTrigger&geofence.TransitionEnter != 0
	}
	d.mu.Unlock()
	return nil
}

// ReleaseInitial implements geofence.InitialTriggerHolder. A held ENTER is
// delivered if the device is still inside the fence. Unknown ids are ignored.
func (d *Device) ReleaseInitial(ctx context.Context, requestID string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("simulator.Device.ReleaseInitial: %w", err)
	}
	d.mu.Lock()
	f, ok := d.fences[requestID]
	if !ok || !f.held {
		d.mu.Unlock()
		return nil
	}
	f.held = false
	fire := f.inside
	target := f.target
	d.mu.Unlock()

	if fire {
		d.deliver(target, geofence.TransitionEnter, []string{requestID})
	}
	return nil
}

// Disarm removes fences by request id. Unknown ids are ignored.
func (d *Device) Disarm(ctx context.Context, requestIDs ...string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("simulator.Device.Disarm: %w", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, id := range requestIDs {
		delete(d.fences, id)
	}
	kept := d.order[:0]
	for _, id := range d.order {
		if _, ok := d.fences[id]; ok {
			kept = append(kept, id)
		}
	}
	d.order = kept
	return nil
}

// Check implements geofence.SettingsChecker.
func (d *Device) Check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	switch d.state {
	case LocationEnabled:
		return nil
	case LocationResolvable:
		return &geofence.ResolvableError{Reason: "location services are turned off"}
	default:
		return ErrLocationUnavailable
	}
}

// Resolve implements geofence.Resolver. The simulated user accepts the
// prompt when the device was configured to.
func (d *Device) Resolve(ctx context.Context, _ *geofence.ResolvableError) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.prompts++
	if d.acceptPrompt && d.state == LocationResolvable {
		d.state = LocationEnabled
	}
	d.log.Info("location settings prompt", "accepted", d.state == LocationEnabled)
	return nil
}

// Inform implements geofence.Resolver by recording the notice.
func (d *Device) Inform(_ context.Context, notice string) {
	d.mu.Lock()
	d.notices = append(d.notices, notice)
	d.mu.Unlock()
	d.log.Warn("user notice", "notice", notice)
}

// ReportLocation moves the device. Every fence entered by this move fires
// together in one ENTER event per target; fences left fire EXIT when their
// mask asks for it. It returns the ids that entered.
func (d *Device) ReportLocation(ctx context.Context, lat, lng float64) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("simulator.Device.ReportLocation: %w", err)
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, fmt.Errorf("simulator.Device.ReportLocation: coordinates out of range (%v, %v)", lat, lng)
	}

	type batch struct {
		target *geofence.Target
		ids    []string
	}
	var entered, exited []batch
	add := func(batches []batch, t *geofence.Target, id string) []batch {
		for i := range batches {
			if batches[i].target == t {
				batches[i].ids = append(batches[i].ids, id)
				return batches
			}
		}
		return append(batches, batch{target: t, ids: []string{id}})
	}

	var fired []string
	d.mu.Lock()
	p := position{lat: lat, lng: lng}
	d.pos = &p
	for _, id := range d.order {
		f := d.fences[id]
		in := contains(f.spec, p)
		switch {
		case in && !f.inside && f.spec.TransitionMask&geofence.TransitionEnter != 0:
			entered = add(entered, f.target, id)
			fired = append(fired, id)
		case !in && f.inside && f.spec.TransitionMask&geofence.TransitionExit != 0:
			exited = add(exited, f.target, id)
		}
		f.inside = in
		if !in {
			f.held = false
		}
	}
	d.mu.Unlock()

	var errs []error
	for _, b := range entered {
		errs = append(errs, d.deliver(b.target, geofence.TransitionEnter, b.ids))
	}
	for _, b := range exited {
		errs = append(errs, d.deliver(b.target, geofence.TransitionExit, b.ids))
	}
	if err := errors.Join(errs...); err != nil {
		return fired, fmt.Errorf("simulator.Device.ReportLocation: %w", err)
	}
	return fired, nil
}

// SetLocationState changes the location setting.
func (d *Device) SetLocationState(s LocationState) {
	d.mu.Lock()
	d.state = s
	d.mu.Unlock()
}

// Armed returns the armed request ids in arm order.
func (d *Device) Armed() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, len(d.order))
	copy(out, d.order)
	return out
}

// Spec returns the armed spec for id.
func (d *Device) Spec(id string) (geofence.TriggerSpec, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	f, ok := d.fences[id]
	if !ok {
		return geofence.TriggerSpec{}, false
	}
	return f.spec, true
}

// Notices returns every notice shown so far.
func (d *Device) Notices() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.notices...)
}

// Prompts returns how many times the settings prompt was shown.
func (d *Device) Prompts() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.prompts
}

func (d *Device) deliver(target *geofence.Target, t geofence.Transition, ids []string) error {
	err := target.Deliver(geofence.TransitionEvent{Transition: t, FiredIDs: ids})
	if err != nil {
		d.log.Error("deliver geofence event", "transition", t.String(), "ids", ids, "error", err)
	}
	return err
}

func contains(spec geofence.TriggerSpec, p position) bool {
	return Distance(spec.Latitude, spec.Longitude, p.lat, p.lng) <= spec.RadiusMeters
}

// Distance returns the great-circle distance in meters between two points.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	const rad = math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(a)))
}
