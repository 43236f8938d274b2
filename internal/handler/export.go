package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/oapi-codegen/runtime"

	"github.com/pkordes/georeminder/internal/domain"
)

// csvHeaders defines the column names written as the first row of any CSV export.
var csvHeaders = []string{
	"id", "title", "description", "location_name",
	"latitude", "longitude", "created_at", "armed",
}

// GetExport handles GET /reminders/export.
// Use ?format=csv to receive CSV; default is JSON.
func (s *Server) GetExport(w http.ResponseWriter, r *http.Request) {
	var format *string
	if err := runtime.BindQueryParameter("form", true, false, "format", r.URL.Query(), &format); err != nil {
		badRequest(w, err)
		return
	}
	if format != nil && *format != "csv" && *format != "json" {
		writeError(w, http.StatusUnprocessableEntity, codeValidation, "format must be csv or json")
		return
	}

	rows, err := s.export.Export(r.Context())
	if err != nil {
		s.internalError(w, r, err, msgInternal)
		return
	}

	if format != nil && *format == "csv" {
		body := buildCSV(rows)
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="reminders.csv"`)
		w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
		w.WriteHeader(http.StatusOK)
		_, _ = body.WriteTo(w)
		return
	}
	if rows == nil {
		rows = []domain.ExportRow{}
	}
	writeJSON(w, http.StatusOK, rows)
}

// buildCSV encodes rows as CSV with a header row.
func buildCSV(rows []domain.ExportRow) *bytes.Buffer {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	w.Write(csvHeaders)
	for _, r := range rows {
		//nolint:errcheck
		w.Write(rowToCSVRecord(r))
	}
	w.Flush()
	return &buf
}

// rowToCSVRecord encodes a domain.ExportRow as a flat string slice.
// Nil coordinates and an unknown armed flag are encoded as empty strings.
func rowToCSVRecord(r domain.ExportRow) []string {
	armed := ""
	if r.Armed != nil {
		armed = strconv.FormatBool(*r.Armed)
	}
	return []string{
		r.ID,
		r.Title,
		r.Description,
		r.LocationName,
		formatOptionalFloat(r.Latitude),
		formatOptionalFloat(r.Longitude),
		r.CreatedAt.UTC().Format(time.RFC3339),
		armed,
	}
}

func formatOptionalFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
