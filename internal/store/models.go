package store

import (
	"strconv"
	"time"

	"docflow/api/internal/recon"
)

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Invoice is an invoice header joined with its aggregated line items, as the
// warehouse returns it.
type Invoice struct {
	ID           int64
	InvoiceNo    string
	PONumber     string
	VendorName   string
	Currency     string
	Source       string
	SourceID     string
	Organization string
	ItemCodes    []string
	Quantities   []string
	Prices       []string
	TotalAmount  string
	Pages        int
	CreatedAt    time.Time
}

// PackingList is a packing-list header with aggregated item codes.
type PackingList struct {
	ID               int64
	PONumber         string
	Organization     string
	Source           string
	ItemCodes        []string
	Quantities       []string
	TotalCarton      string
	TotalGrossWeight string
	TotalMeasurement string
	CreatedAt        time.Time
}

// LineItem is one flat invoice line item joined to its invoice header.
type LineItem struct {
	ID         int64
	PONumber   string
	ItemCode   string
	Quantity   string
	UnitPrice  string
	LineAmount string
	ValidItem  bool
	InvoiceID  string
	InvoiceNo  string
	VendorName string
	CreatedAt  time.Time
}

// BillOfLading is a bill-of-lading header row.
type BillOfLading struct {
	ID           int64
	Organization string
	InvoiceNo    string
	GrossWeight  string
	Measurement  string
	TotalCarton  int
	Source       string
	Vessel       string
	OnboardDate  *time.Time
	CreatedAt    time.Time
}

// AgentAction is one audit-trail entry from the agent action history.
type AgentAction struct {
	ID          int64
	PONumber    string
	ActionKey   string
	Title       string
	Description string
	Content     string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DocumentStats carries the dashboard headline counters and the raw
// month-over-month inputs the service turns into growth percentages.
type DocumentStats struct {
	TotalInvoices     int
	TotalPacking      int
	UniqueVendors     int
	MonthlyInvoices   int
	PrevMonthInvoices int
	MonthlyPacking    int
	PrevMonthPacking  int
	MonthlyVendors    int
	PrevMonthVendors  int
}

// ChartPoint is one day of the densified document-volume series.
type ChartPoint struct {
	Date          time.Time
	Invoices      int
	Packing       int
	BillsOfLading int
}

// MonthlyTrend is one month of invoice/packing counts.
type MonthlyTrend struct {
	Month        string
	Invoices     int
	PackingLists int
}

// VendorCount is one slice of the supplier distribution.
type VendorCount struct {
	Name  string
	Count int
}

// Record converts the warehouse row into the reconciliation core's invoice
// shape. This is the only place warehouse column naming leaks into field
// names.
func (i Invoice) Record() recon.InvoiceRecord {
	return recon.InvoiceRecord{
		ID:              formatID(i.ID),
		InvoiceNo:       i.InvoiceNo,
		PurchaseOrderNo: i.PONumber,
		VendorName:      i.VendorName,
		ItemCodes:       i.ItemCodes,
		Quantities:      i.Quantities,
		TotalAmount:     i.TotalAmount,
		CreatedAt:       i.CreatedAt,
	}
}

// Record converts the warehouse row into the reconciliation core's packing
// shape. The packing number falls back to the PO number the way the source
// documents label themselves.
func (p PackingList) Record() recon.PackingRecord {
	return recon.PackingRecord{
		ID:              formatID(p.ID),
		PackingNo:       "PL-" + formatID(p.ID),
		PurchaseOrderNo: p.PONumber,
		VendorName:      p.Organization,
		ItemCodes:       p.ItemCodes,
		Quantities:      p.Quantities,
		TotalAmount:     p.TotalGrossWeight,
		CreatedAt:       p.CreatedAt,
	}
}

// Record converts the warehouse row into the reconciliation core's line-item
// shape.
func (l LineItem) Record() recon.LineItemRecord {
	return recon.LineItemRecord{
		ID:         formatID(l.ID),
		PONumber:   l.PONumber,
		ItemCode:   l.ItemCode,
		Quantity:   l.Quantity,
		UnitPrice:  l.UnitPrice,
		LineAmount: l.LineAmount,
		InvoiceNo:  l.InvoiceNo,
		VendorName: l.VendorName,
	}
}
