package domain

import "errors"

// ErrNotFound is returned by repo and service functions when the requested
// reminder does not exist in the store.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned when a reminder fails the save-time checks
// (missing title, missing location name, half-set coordinates).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrEnvironmentUnsatisfied is returned when the device location setting does
// not meet the trigger transport's requirements and could not be resolved.
// Handlers should map this to HTTP 409 Conflict.
var ErrEnvironmentUnsatisfied = errors.New("location environment unsatisfied")

// ErrRegistration is returned when the trigger transport rejects an arm or
// disarm request (for example the device limit on active geofences).
// Handlers should map this to HTTP 503 Service Unavailable.
var ErrRegistration = errors.New("geofence registration failed")

// ErrTransport marks a transition event that the transport itself flagged as
// errored. Such events are logged and dropped.
var ErrTransport = errors.New("geofence transport error")
