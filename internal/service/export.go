package service

import (
	"context"
	"fmt"

	"github.com/pkordes/georeminder/internal/domain"
)

// ArmedLister reports which request ids the transport currently has armed.
// The device simulator implements it; a webhook transport cannot.
type ArmedLister interface {
	Armed() []string
}

// ExportService assembles a flat export of all reminders.
type ExportService struct {
	repo  Repository
	armed ArmedLister
}

// NewExportService constructs an ExportService. armed may be nil, in which
// case rows carry no armed flag.
func NewExportService(r Repository, armed ArmedLister) *ExportService {
	return &ExportService{repo: r, armed: armed}
}

// Export returns one ExportRow per reminder in insertion order.
func (s *ExportService) Export(ctx context.Context) ([]domain.ExportRow, error) {
	list, err := s.repo.GetReminders(ctx).Unwrap()
	if err != nil {
		return nil, fmt.Errorf("service.ExportService.Export: %w", err)
	}

	var armed map[string]bool
	if s.armed != nil {
		ids := s.armed.Armed()
		armed = make(map[string]bool, len(ids))
		for _, id := range ids {
			armed[id] = true
		}
	}

	rows := make([]domain.ExportRow, 0, len(list))
	for _, r := range list {
		row := domain.ExportRow{
			ID:           r.ID,
			Title:        r.Title,
			Description:  r.Description,
			LocationName: r.LocationName,
			Latitude:     r.Latitude,
			Longitude:    r.Longitude,
			CreatedAt:    r.CreatedAt,
		}
		if armed != nil {
			a := armed[r.ID]
			row.Armed = &a
		}
		rows = append(rows, row)
	}
	return rows, nil
}
