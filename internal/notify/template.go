package notify

import (
	"bytes"
	"errors"
	"fmt"
	"text/template"

	"github.com/pkordes/georeminder/internal/domain"
)

// DefaultTemplate is the notification text used when none is configured.
const DefaultTemplate = `[Reminder] {{.Title}}
{{- if .Description}}
{{.Description}}
{{- end}}
Location: {{.LocationName}}
{{- if .HasCoordinates}}
Coordinates: {{printf "%.6f" .Latitude}}, {{printf "%.6f" .Longitude}}
{{- end}}
ID: {{.ID}}`

// TemplateData is the value a notification template is executed against.
type TemplateData struct {
	ID             string
	Title          string
	Description    string
	LocationName   string
	Latitude       float64
	Longitude      float64
	HasCoordinates bool
}

// TemplateDataFor flattens n for rendering.
func TemplateDataFor(n domain.Notification) TemplateData {
	d := TemplateData{
		ID:           n.ID,
		Title:        n.Title,
		Description:  n.Description,
		LocationName: n.LocationName,
	}
	if n.Latitude != nil && n.Longitude != nil {
		d.Latitude, d.Longitude, d.HasCoordinates = *n.Latitude, *n.Longitude, true
	}
	return d
}

// Template renders notification content.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses tpl, falling back to DefaultTemplate when empty.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("reminder-notification").Option("missingkey=error").Parse(tpl)
	if err != nil {
		return nil, fmt.Errorf("notify.NewTemplate: %w", err)
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to n.
func (t *Template) Render(n domain.Notification) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("notify.Template.Render: nil template")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, TemplateDataFor(n)); err != nil {
		return "", fmt.Errorf("notify.Template.Render: %w", err)
	}
	return buf.String(), nil
}
