// Package export renders reconciliation reports as PDF and XLSX downloads.
package export

import (
	"errors"
	"time"

	"docflow/api/internal/recon"
)

// Format represents the export output format
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
)

// Request contains parameters for an export operation
type Request struct {
	Format           Format
	Title            string
	IncludeLineItems bool
}

// Report is the assembled reconciliation snapshot an export renders.
type Report struct {
	GeneratedAt time.Time
	Sets        []recon.DocumentSet
	LineItems   []recon.LineItemRecord
}

// Result contains the export output
type Result struct {
	Data     []byte
	Filename string
	MimeType string
}

var (
	// ErrContentUnavailable indicates report data could not be loaded for export.
	ErrContentUnavailable = errors.New("export content unavailable")
	// ErrPDFDependencyMissing indicates PDF export runtime dependencies are unavailable.
	ErrPDFDependencyMissing = errors.New("export pdf dependency missing")
)
