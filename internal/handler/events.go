package handler

import (
	"errors"
	"net/http"

	"github.com/pkordes/georeminder/internal/geofence"
)

// PostGeofenceEvent handles POST /geofence/events, the ingress for a
// platform transport that delivers transitions over HTTP. The event is
// processed in the background; 202 means accepted, not notified.
func (s *Server) PostGeofenceEvent(w http.ResponseWriter, r *http.Request) {
	var ev geofence.TransitionEvent
	if err := decodeJSON(r, &ev); err != nil {
		badRequest(w, err)
		return
	}
	if ev.Transition == 0 && !ev.HasError {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, "transition is required")
		return
	}
	if err := s.events.Enqueue(ev); err != nil {
		if errors.Is(err, geofence.ErrProcessorClosed) {
			writeError(w, http.StatusServiceUnavailable, codeUnavailable, "shutting down")
			return
		}
		s.internalError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}
