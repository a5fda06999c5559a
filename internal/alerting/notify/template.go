package notify

import (
	"bytes"
	"errors"
	"html/template"
)

const DefaultTemplate = `<html><body>
<h2 style="color: red;">{{.Classification}}</h2>
<p><b>Device:</b> {{.DeviceID}}</p>
<p><b>Current Glucose:</b> {{.Glucose}} mg/dL</p>
<p><b>Prediction (15 min):</b> {{.Prediction}} mg/dL</p>
<p>Heart Rate: {{.HeartRate}} BPM</p>
<p>Oxygen Saturation: {{.Oxygen}}%</p>
<hr>
<p><b>Recommendations:</b><br>{{range .Recommendations}}{{.}}<br>{{end}}</p>
<hr>
<p>Trend chart of the most recent samples attached.</p>
</body></html>`

// TemplateData provides fields for rendering the alert body.
type TemplateData struct {
	Classification  string
	DeviceID        string
	Glucose         string
	Prediction      string
	HeartRate       int
	Oxygen          int
	Recommendations []string
}

// Template renders alert HTML bodies.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses an alert body template, falling back to DefaultTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("alert-body").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to data.
func (t *Template) Render(data TemplateData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("alert template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
