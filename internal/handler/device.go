package handler

import (
	"errors"
	"net/http"
)

const msgNoDevice = "device simulator not enabled"

type locationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// PostDeviceLocation handles POST /device/location: moves the simulated
// device and reports which geofences it entered.
func (s *Server) PostDeviceLocation(w http.ResponseWriter, r *http.Request) {
	if s.device == nil {
		notFound(w, msgNoDevice)
		return
	}
	var body locationRequest
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	if body.Latitude == nil || body.Longitude == nil {
		badRequest(w, errors.New("latitude and longitude are required"))
		return
	}
	lat, lng := *body.Latitude, *body.Longitude
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		badRequest(w, errors.New("coordinates out of range"))
		return
	}
	fired, err := s.device.ReportLocation(r.Context(), lat, lng)
	if err != nil {
		// The crossing is recorded even when delivery fails.
		s.log.WarnContext(r.Context(), "report simulated location", "error", err)
	}
	if fired == nil {
		fired = []string{}
	}
	writeJSON(w, http.StatusAccepted, map[string][]string{"fired": fired})
}

// ListDeviceGeofences handles GET /device/geofences.
func (s *Server) ListDeviceGeofences(w http.ResponseWriter, _ *http.Request) {
	if s.device == nil {
		notFound(w, msgNoDevice)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"armed": s.device.Armed()})
}
