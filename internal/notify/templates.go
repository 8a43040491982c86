package notify

import (
	"bytes"
	"html/template"

	"github.com/wegovern/governance-api/internal/models"
)

type newMotionData struct {
	OrganizationName string
	AuthorName       string
	Motion           *models.Motion
	Tasks            []models.Task
	MotionURL        string
}

type statusChangeData struct {
	OrganizationName string
	Motion           *models.Motion
	Status           string
	VotesFor         []string
	VotesAgainst     []string
	MotionURL        string
}

var newMotionTemplate = template.Must(template.New("new_motion").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <h2>New motion in {{.OrganizationName}}</h2>
  <p><strong>{{.AuthorName}}</strong> submitted a motion for a vote.</p>
  {{if .Motion.Summary}}<h3>{{.Motion.Summary}}</h3>{{end}}
  <blockquote>{{.Motion.Text}}</blockquote>
  {{if .Tasks}}
  <p>If the motion passes, these tasks will start:</p>
  <ul>{{range .Tasks}}<li>{{.Action}}</li>{{end}}</ul>
  {{end}}
  {{if .MotionURL}}<p><a href="{{.MotionURL}}">Review and vote</a></p>{{end}}
</body>
</html>`))

var statusChangeTemplate = template.Must(template.New("status_change").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #1f2937;">
  <h2>Motion {{.Status}} in {{.OrganizationName}}</h2>
  {{if .Motion.Summary}}<h3>{{.Motion.Summary}}</h3>{{end}}
  <blockquote>{{.Motion.Text}}</blockquote>
  <h4>For ({{len .VotesFor}})</h4>
  <ul>{{range .VotesFor}}<li>{{.}}</li>{{else}}<li>None</li>{{end}}</ul>
  <h4>Against ({{len .VotesAgainst}})</h4>
  <ul>{{range .VotesAgainst}}<li>{{.}}</li>{{else}}<li>None</li>{{end}}</ul>
  {{if .MotionURL}}<p><a href="{{.MotionURL}}">View motion</a></p>{{end}}
</body>
</html>`))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
