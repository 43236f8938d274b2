package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/pkordes/georeminder/internal/domain"
	"github.com/pkordes/georeminder/internal/geofence"
)

// Error codes in the error body.
const (
	codeNotFound       = "not_found"
	codeValidation     = "validation_error"
	codeLocation       = "location_unavailable"
	codeGeofence       = "geofence_not_added"
	codeTooLarge       = "request_too_large"
	codeUnavailable    = "unavailable"
	codeInternal       = "internal_error"
	msgInternal        = "internal server error"
	msgRequestRequired = "request body is required"
)

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorDetail `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorDetail{Code: code, Message: message}})
}

// notFound writes a 404. The caller supplies the message because the handler
// is the layer that knows what was being looked up.
func notFound(w http.ResponseWriter, message string) {
	writeError(w, http.StatusNotFound, codeNotFound, message)
}

// validationFailed writes a 422 carrying the message of a domain.ErrValidation error.
func validationFailed(w http.ResponseWriter, err error) {
	writeError(w, http.StatusUnprocessableEntity, codeValidation, unwrapMessage(err))
}

// badRequest writes a 422 for input rejected before reaching the service layer.
// An oversized body becomes 413.
func badRequest(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, codeTooLarge, "request body too large")
		return
	}
	writeError(w, http.StatusUnprocessableEntity, codeValidation, err.Error())
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	s.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, codeInternal, message)
}

// writeSaveError maps the save use case's sentinels to status codes.
func (s *Server) writeSaveError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation):
		validationFailed(w, err)
	case errors.Is(err, domain.ErrEnvironmentUnsatisfied):
		writeError(w, http.StatusConflict, codeLocation, geofence.NoticeLocationRequired)
	case errors.Is(err, domain.ErrRegistration):
		writeError(w, http.StatusServiceUnavailable, codeGeofence, geofence.NoticeGeofencesNotAdded)
	default:
		s.internalError(w, r, err, msgInternal)
	}
}

// unwrapMessage extracts the human-readable part from a wrapped validation error.
// e.g. "service.X: validation error: Please enter title" → "Please enter title"
func unwrapMessage(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	const marker = "validation error: "
	if i := strings.LastIndex(msg, marker); i >= 0 && len(msg) > i+len(marker) {
		return msg[i+len(marker):]
	}
	return msg
}

// decodeJSON decodes the request body into dst, rejecting unknown fields
// and trailing data.
func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil || r.Body == http.NoBody {
		return errors.New(msgRequestRequired)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return errors.New(msgRequestRequired)
		}
		return errors.New("malformed JSON body: " + err.Error())
	}
	if dec.More() {
		return errors.New("malformed JSON body: trailing data")
	}
	return nil
}
