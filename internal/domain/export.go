package domain

import "time"

// ExportRow is one reminder in the flat export.
// Armed is nil when the transport cannot report which triggers are armed.
type ExportRow struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	LocationName string    `json:"location_name"`
	Latitude     *float64  `json:"latitude"`
	Longitude    *float64  `json:"longitude"`
	CreatedAt    time.Time `json:"created_at"`
	Armed        *bool     `json:"armed,omitempty"`
}
