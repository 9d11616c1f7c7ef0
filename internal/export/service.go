package export

import (
	"context"
	"fmt"
	"time"
)

// ReportSource supplies the assembled reconciliation data for an export.
type ReportSource interface {
	BuildReport(ctx context.Context) (Report, error)
}

// Service provides reconciliation report export functionality
type Service struct {
	source ReportSource
}

// NewService creates a new export service
func NewService(source ReportSource) *Service {
	return &Service{source: source}
}

// Export generates an export in the requested format
func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	report, err := s.source.BuildReport(ctx)
	if err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	if len(report.Sets) == 0 && len(report.LineItems) == 0 {
		return nil, ErrContentUnavailable
	}
	if report.GeneratedAt.IsZero() {
		report.GeneratedAt = time.Now()
	}

	title := req.Title
	if title == "" {
		title = "Reconciliation Report"
	}

	switch req.Format {
	case FormatPDF:
		html, err := RenderReportHTML(buildTemplateData(title, report, req.IncludeLineItems))
		if err != nil {
			return nil, fmt.Errorf("render template: %w", err)
		}
		return exportPDF(html, title)
	case FormatXLSX:
		return exportXLSX(title, report, req.IncludeLineItems)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}
