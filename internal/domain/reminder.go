// Package domain contains the core data types for the geofenced reminder service.
// It is imported by every other internal package (repo, service, geofence, handler).
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Validation messages shown to the user when a save is rejected.
const (
	MsgEnterTitle     = "Please enter title"
	MsgSelectLocation = "Please select location"
)

// Reminder is a note bound to a point of interest.
// Its ID doubles as the geofence request id, so one reminder owns at most one trigger.
// Latitude and Longitude are nil when no point was picked; such a reminder
// can be stored but never armed.
type Reminder struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	LocationName string   `json:"location_name"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
	// CreatedAt is owned by the store: set on first insert and kept on every
	// later save. A value supplied by the caller is ignored.
	CreatedAt time.Time `json:"created_at"`
}

// NewReminder builds a draft reminder with a freshly generated ID.
func NewReminder(title, description, locationName string, lat, lng *float64) Reminder {
	return Reminder{
		ID:           NewID(),
		Title:        title,
		Description:  description,
		LocationName: locationName,
		Latitude:     lat,
		Longitude:    lng,
	}
}

// NewID returns a time-ordered UUID v7, falling back to v4 if v7 generation fails.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String()
	}
	return id.String()
}

// HasLocation reports whether both coordinates are present.
func (r Reminder) HasLocation() bool {
	return r.Latitude != nil && r.Longitude != nil
}

// Validate enforces the rules a reminder must pass before it is persisted.
//   - Title must be non-empty (whitespace-only titles are rejected).
//   - LocationName must be non-empty.
//   - Latitude and Longitude are set together or not at all, and within range.
func (r Reminder) Validate() error {
	if strings.TrimSpace(r.Title) == "" {
		return fmt.Errorf("%w: %s", ErrValidation, MsgEnterTitle)
	}
	if strings.TrimSpace(r.LocationName) == "" {
		return fmt.Errorf("%w: %s", ErrValidation, MsgSelectLocation)
	}
	if (r.Latitude == nil) != (r.Longitude == nil) {
		return fmt.Errorf("%w: latitude and longitude must be set together", ErrValidation)
	}
	if r.Latitude != nil && (*r.Latitude < -90 || *r.Latitude > 90) {
		return fmt.Errorf("%w: latitude must be between -90 and 90", ErrValidation)
	}
	if r.Longitude != nil && (*r.Longitude < -180 || *r.Longitude > 180) {
		return fmt.Errorf("%w: longitude must be between -180 and 180", ErrValidation)
	}
	return nil
}

// Notification is the payload handed to the notification collaborator when a
// reminder's geofence fires.
type Notification struct {
	ID           string   `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	LocationName string   `json:"location_name"`
	Latitude     *float64 `json:"latitude,omitempty"`
	Longitude    *float64 `json:"longitude,omitempty"`
}

// NotificationFor copies the user-visible fields of r into a Notification.
func NotificationFor(r Reminder) Notification {
	return Notification{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		LocationName: r.LocationName,
		Latitude:     r.Latitude,
		Longitude:    r.Longitude,
	}
}

// Float64 returns a pointer to v. Handy for building coordinates in literals.
func Float64(v float64) *float64 {
	return &v
}
