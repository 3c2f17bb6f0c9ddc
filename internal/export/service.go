package export

import (
	"context"
	"fmt"
	"time"

	"folio/api/internal/portfolio"
)

// Portfolio is everything the rendered document shows.
type Portfolio struct {
	Profile    portfolio.Profile
	Projects   []portfolio.Project
	Skills     []portfolio.Skill
	Activities []portfolio.Activity
}

// Service renders portfolios. The converters are fields so tests can run
// without Chrome or pandoc.
type Service struct {
	now  func() time.Time
	pdf  func(ctx context.Context, html, title string) (*Result, error)
	docx func(ctx context.Context, html, title string) (*Result, error)
}

func NewService() *Service {
	return &Service{now: time.Now, pdf: exportPDF, docx: exportDOCX}
}

// Export generates the portfolio document in the requested format.
func (s *Service) Export(ctx context.Context, p Portfolio, format Format) (*Result, error) {
	now := s.now()
	data := TemplateData{
		Profile:     p.Profile,
		Skills:      p.Skills,
		Activities:  p.Activities,
		GeneratedAt: now,
	}
	for _, project := range p.Projects {
		data.Projects = append(data.Projects, portfolio.ProjectDetail(project, now))
	}

	html, err := RenderPortfolioHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	title := p.Profile.Name + " Portfolio"
	switch format {
	case FormatPDF:
		return s.pdf(ctx, html, title)
	case FormatDOCX:
		return s.docx(ctx, html, title)
	case FormatHTML:
		return &Result{
			Data:     []byte(html),
			Filename: sanitizeFilename(title) + ".html",
			MimeType: "text/html; charset=utf-8",
		}, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
}
