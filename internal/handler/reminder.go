package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/georeminder/internal/domain"
	"github.com/pkordes/georeminder/internal/service"
)

// createReminderRequest is the body of POST /reminders.
// ID is optional; clients that generate their own ids may send one.
type createReminderRequest struct {
	ID           *string  `json:"id"`
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	LocationName string   `json:"location_name"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

type pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type reminderPage struct {
	Data       []domain.Reminder `json:"data"`
	Pagination pagination        `json:"pagination"`
}

// CreateReminder handles POST /reminders.
// 201 when saved (armed or skipped), 422 on validation, 409 when location
// settings block arming, 503 when the transport refuses the geofence.
func (s *Server) CreateReminder(w http.ResponseWriter, r *http.Request) {
	var body createReminderRequest
	if err := decodeJSON(r, &body); err != nil {
		badRequest(w, err)
		return
	}
	rem := domain.NewReminder(body.Title, body.Description, body.LocationName, body.Latitude, body.Longitude)
	if body.ID != nil {
		id := strings.TrimSpace(*body.ID)
		if id == "" {
			badRequest(w, errors.New("id must not be blank"))
			return
		}
		rem.ID = id
	}

	res, err := s.reminders.Save(r.Context(), rem)
	if err != nil {
		s.writeSaveError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// ListReminders handles GET /reminders.
// Supports ?page= and ?limit= query parameters (defaults: page=1, limit=20, max=100).
func (s *Server) ListReminders(w http.ResponseWriter, r *http.Request) {
	var page, limit *int
	if err := runtime.BindQueryParameter("form", true, false, "page", r.URL.Query(), &page); err != nil {
		badRequest(w, err)
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		badRequest(w, err)
		return
	}
	params := domain.NewPaginationParams(page, limit)

	all, err := s.reminders.List(r.Context())
	if err != nil {
		s.internalError(w, r, err, service.MsgListFailed)
		return
	}
	start, end := params.Bounds(len(all))
	writeJSON(w, http.StatusOK, reminderPage{
		Data:       all[start:end],
		Pagination: pagination{Page: params.Page, Limit: params.Limit, Total: len(all)},
	})
}

// GetReminder handles GET /reminders/{id}.
func (s *Server) GetReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rem, err := s.reminders.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			notFound(w, domain.MsgReminderNotFound)
			return
		}
		s.internalError(w, r, err, msgInternal)
		return
	}
	writeJSON(w, http.StatusOK, rem)
}

// DeleteReminder handles DELETE /reminders/{id}.
func (s *Server) DeleteReminder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.reminders.Delete(r.Context(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			notFound(w, domain.MsgReminderNotFound)
			return
		}
		s.internalError(w, r, err, msgInternal)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllReminders handles DELETE /reminders.
func (s *Server) DeleteAllReminders(w http.ResponseWriter, r *http.Request) {
	if err := s.reminders.DeleteAll(r.Context()); err != nil {
		s.internalError(w, r, err, msgInternal)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID binds the {id} path parameter. It writes the error response itself.
func pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var id string
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err == nil && strings.TrimSpace(id) == "" {
		err = errors.New("id is required")
	}
	if err != nil {
		badRequest(w, err)
		return "", false
	}
	return id, true
}
