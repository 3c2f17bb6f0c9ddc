package export

import (
	"bytes"
	"html/template"
	"strings"
	"time"

	"folio/api/internal/portfolio"
)

var portfolioTemplate = template.Must(template.New("portfolio").Funcs(template.FuncMap{
	"join": strings.Join,
	"formatDate": func(t time.Time, layout string) string {
		return t.Format(layout)
	},
	"external": func(link string) bool {
		return link != "" && link != portfolio.DefaultLink
	},
}).Parse(portfolioHTML))

// TemplateData holds data for portfolio template rendering
type TemplateData struct {
	Profile     portfolio.Profile
	Projects    []portfolio.Project
	Skills      []portfolio.Skill
	Activities  []portfolio.Activity
	GeneratedAt time.Time
}

// RenderPortfolioHTML renders the portfolio template with provided data
func RenderPortfolioHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := portfolioTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const portfolioHTML = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Profile.Name}} Portfolio</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; color: #1f2937; }
    h1 { border-bottom: 3px solid #667eea; padding-bottom: 0.5rem; margin-bottom: 0.25rem; }
    .tagline { color: #667eea; font-size: 1.1em; margin-top: 0; }
    .meta { color: #6b7280; font-size: 0.9em; }
    .skills span { display: inline-block; background: #eef2ff; border-radius: 12px; padding: 2px 10px; margin: 2px; }
    .project { page-break-inside: avoid; border-left: 3px solid #667eea; padding: 0.5rem 1rem; margin: 1rem 0; background: #f8f9ff; }
    .status { font-size: 0.8em; color: white; background: #10b981; border-radius: 8px; padding: 1px 8px; }
    .bar { background: #e5e7eb; height: 6px; border-radius: 3px; }
    .bar div { background: #667eea; height: 6px; border-radius: 3px; }
  </style>
</head>
<body>
  <h1>{{.Profile.Name}}</h1>
  <p class="tagline">{{.Profile.Tagline}}</p>
  <div class="meta">
    {{with .Profile.ContactInfo}}{{.Email}}{{if .Phone}} | {{.Phone}}{{end}}{{if .Location}} | {{.Location}}{{end}}{{end}}
    {{if .Profile.Experience}} | {{.Profile.Experience}} experience{{end}}
  </div>
  {{if .Profile.Bio}}<h2>About</h2><p>{{.Profile.Bio}}</p>{{end}}
  {{if .Profile.Availability}}<p><strong>Availability:</strong> {{.Profile.Availability}}</p>{{end}}

  {{if .Profile.Skills}}
  <h2>Skills</h2>
  <div class="skills">{{range .Profile.Skills}}<span>{{.}}</span>{{end}}</div>
  {{end}}
  {{if .Skills}}
  <table style="width: 100%; margin-top: 1rem;">
    {{range .Skills}}<tr><td style="width: 30%;">{{.Name}}</td><td><div class="bar"><div style="width: {{.Proficiency}}%;"></div></div></td><td style="width: 10%; text-align: right;">{{.Proficiency}}%</td></tr>{{end}}
  </table>
  {{end}}

  {{if .Projects}}
  <h2>Projects</h2>
  {{range .Projects}}
  <div class="project">
    <h3>{{.Title}} <span class="status">{{.Status}}</span></h3>
    <p>{{.FullDescription}}</p>
    {{if .Tags}}<p class="meta">{{join .Tags ", "}}</p>{{end}}
    {{if .Challenges}}<p><strong>Challenges:</strong> {{.Challenges}}</p>{{end}}
    {{if .Outcome}}<p><strong>Outcome:</strong> {{.Outcome}}</p>{{end}}
    <p class="meta">
      {{if .DateCompleted}}Completed {{.DateCompleted}}{{end}}
      {{if external .Links.GitHub}} | <a href="{{.Links.GitHub}}">Source</a>{{end}}
      {{if external .Links.Demo}} | <a href="{{.Links.Demo}}">Demo</a>{{end}}
      {{if external .Links.Live}} | <a href="{{.Links.Live}}">Live</a>{{end}}
    </p>
  </div>
  {{end}}
  {{end}}

  {{if .Activities}}
  <h2>Recent Activity</h2>
  <ul>{{range .Activities}}<li>{{.Date}}: {{.Description}}</li>{{end}}</ul>
  {{end}}

  <p class="meta">Generated {{formatDate .GeneratedAt "Jan 2, 2006"}}</p>
</body>
</html>`
