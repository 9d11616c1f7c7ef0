// Package recon implements three-way document reconciliation: grouping
// independently sourced invoices and packing lists by purchase-order number,
// classifying each pair into an exception category, and matching individual
// invoice line items against both documents.
package recon

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// InvoiceRecord is one invoice as delivered by the record source. ItemCodes
// and Quantities are parallel arrays; index i in both describes one line item.
// Empty arrays mean no line-item detail is available.
type InvoiceRecord struct {
	ID              string
	InvoiceNo       string
	PurchaseOrderNo string
	VendorName      string
	ItemCodes       []string
	Quantities      []string
	TotalAmount     string
	CreatedAt       time.Time
}

// PackingRecord is one packing list. Same shape as InvoiceRecord, sourced
// from a different document type.
type PackingRecord struct {
	ID              string
	PackingNo       string
	PurchaseOrderNo string
	VendorName      string
	ItemCodes       []string
	Quantities      []string
	TotalAmount     string
	CreatedAt       time.Time
}

// LineItemRecord is one flat invoice line item from the line-item source.
// MatchStatus, MismatchReason and MatchPL are derived by MatchLineItems and
// zero-valued until then.
type LineItemRecord struct {
	ID             string
	PONumber       string
	ItemCode       string
	Quantity       string
	UnitPrice      string
	LineAmount     string
	InvoiceNo      string
	VendorName     string
	MatchStatus    MatchStatus
	MismatchReason string
	MatchPL        bool
}

// DocumentGroup joins the documents that share one purchase-order key.
// Either side may be nil, never both: a group only exists because at least
// one record carried its key.
type DocumentGroup struct {
	PurchaseOrderKey string
	Invoice          *InvoiceRecord
	Packing          *PackingRecord
}

// ValidationError reports an input record that violates the parallel-array
// contract. Misaligned arrays would silently corrupt quantity comparisons,
// so callers get a hard failure instead.
type ValidationError struct {
	RecordID string
	Message  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("record %s: %s", e.RecordID, e.Message)
}

// Validate checks the ItemCodes/Quantities alignment invariant.
func (r *InvoiceRecord) Validate() error {
	if len(r.ItemCodes) != len(r.Quantities) {
		return &ValidationError{
			RecordID: r.ID,
			Message:  fmt.Sprintf("invoice has %d item codes but %d quantities", len(r.ItemCodes), len(r.Quantities)),
		}
	}
	return nil
}

// Validate checks the ItemCodes/Quantities alignment invariant.
func (r *PackingRecord) Validate() error {
	if len(r.ItemCodes) != len(r.Quantities) {
		return &ValidationError{
			RecordID: r.ID,
			Message:  fmt.Sprintf("packing list has %d item codes but %d quantities", len(r.ItemCodes), len(r.Quantities)),
		}
	}
	return nil
}

// parseQuantity coerces a warehouse quantity value to a number. Blank or
// unparseable values count as zero; reconciliation absorbs malformed data
// into the classification space rather than failing.
func parseQuantity(raw string) float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0
	}
	return v
}

// sumQuantities totals a quantity array with permissive coercion.
func sumQuantities(quantities []string) float64 {
	var total float64
	for _, q := range quantities {
		total += parseQuantity(q)
	}
	return total
}
