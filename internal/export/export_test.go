package export

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"docflow/api/internal/recon"
)

func sampleReport() Report {
	return Report{
		GeneratedAt: time.Date(2026, 3, 10, 9, 30, 0, 0, time.UTC),
		Sets: []recon.DocumentSet{
			{
				DocumentSet:     "DOC-001",
				PurchaseOrderNo: "PO-1001",
				InvoiceNo:       "INV-1",
				PackingList:     "PL-7",
				Vendor:          "Acme Supply Co",
				TotalQuantity:   30,
				TotalAmount:     "1250.00",
				Exception:       recon.ExceptionMatch,
				ReviewStatus:    "Pending",
			},
			{
				DocumentSet:     "DOC-002",
				PurchaseOrderNo: "PO-1002",
				InvoiceNo:       "INV-2",
				PackingList:     "N/A",
				Vendor:          "Beta Traders",
				TotalQuantity:   12,
				TotalAmount:     "400.00",
				Exception:       recon.ExceptionMissingPackingList,
				ReviewStatus:    "Pending",
			},
		},
		LineItems: []recon.LineItemRecord{
			{
				PONumber:    "PO-1001",
				ItemCode:    "WID-1",
				Quantity:    "10",
				UnitPrice:   "2.50",
				LineAmount:  "25.00",
				InvoiceNo:   "INV-1",
				VendorName:  "Acme Supply Co",
				MatchStatus: recon.StatusMatch,
			},
		},
	}
}

func TestRenderReportHTML(t *testing.T) {
	html, err := RenderReportHTML(buildTemplateData("Reconciliation Report", sampleReport(), true))
	if err != nil {
		t.Fatalf("RenderReportHTML() error = %v", err)
	}

	for _, want := range []string{
		"Reconciliation Report",
		"DOC-001",
		"PO-1001",
		"Acme Supply Co",
		"Missing Packing List",
		"WID-1",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("HTML missing %q", want)
		}
	}
}

func TestBuildTemplateDataSummary(t *testing.T) {
	data := buildTemplateData("Report", sampleReport(), false)
	if data.TotalSets != 2 || data.Matched != 1 || data.Exceptions != 1 {
		t.Fatalf("unexpected summary: total=%d matched=%d exceptions=%d",
			data.TotalSets, data.Matched, data.Exceptions)
	}
	if len(data.LineItems) != 0 {
		t.Fatal("line items should be excluded unless requested")
	}
}

func TestExportXLSX(t *testing.T) {
	result, err := exportXLSX("Reconciliation Report", sampleReport(), true)
	if err != nil {
		t.Fatalf("exportXLSX() error = %v", err)
	}
	if result.Filename != "Reconciliation-Report.xlsx" {
		t.Fatalf("unexpected filename %q", result.Filename)
	}

	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Document Sets")
	if err != nil {
		t.Fatalf("read sheet: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 set rows, got %d", len(rows))
	}
	if rows[1][0] != "DOC-001" || rows[2][7] != "Missing Packing List" {
		t.Fatalf("unexpected sheet contents: %v", rows)
	}

	itemRows, err := f.GetRows("Line Items")
	if err != nil {
		t.Fatalf("read line items sheet: %v", err)
	}
	if len(itemRows) != 2 {
		t.Fatalf("expected header plus 1 line item row, got %d", len(itemRows))
	}
	if itemRows[1][1] != "WID-1" {
		t.Fatalf("unexpected line item row: %v", itemRows[1])
	}
}

func TestExportXLSXOmitsLineItemsSheet(t *testing.T) {
	result, err := exportXLSX("Report", sampleReport(), false)
	if err != nil {
		t.Fatalf("exportXLSX() error = %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(result.Data))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	if index, _ := f.GetSheetIndex("Line Items"); index != -1 {
		t.Fatal("Line Items sheet should not exist")
	}
}

type staticSource struct {
	report Report
	err    error
}

func (s staticSource) BuildReport(context.Context) (Report, error) {
	return s.report, s.err
}

func TestServiceExportRejectsUnknownFormat(t *testing.T) {
	service := NewService(staticSource{report: sampleReport()})
	if _, err := service.Export(context.Background(), Request{Format: "csv"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestServiceExportEmptyReport(t *testing.T) {
	service := NewService(staticSource{report: Report{}})
	_, err := service.Export(context.Background(), Request{Format: FormatXLSX})
	if !errors.Is(err, ErrContentUnavailable) {
		t.Fatalf("expected ErrContentUnavailable for an empty report, got %v", err)
	}
}

func TestServiceExportXLSXDefaultsTitle(t *testing.T) {
	service := NewService(staticSource{report: sampleReport()})
	result, err := service.Export(context.Background(), Request{Format: FormatXLSX})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if result.Filename != "Reconciliation-Report.xlsx" {
		t.Fatalf("unexpected filename %q", result.Filename)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello-World"},
		{"Q1 Report v1.2", "Q1-Report-v12"},
		{"Special!@#$%Chars", "SpecialChars"},
		{"", "report"},
		{"Very Long Title That Exceeds Fifty Characters Limit", "Very-Long-Title-That-Exceeds-Fifty-Characters-Limi"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := sanitizeFilename(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestPercentEncodeForDataURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"hello world", "hello%20world"},       // Spaces encoded as %20, not +
		{"test+sign", "test%2Bsign"},           // + signs are encoded
		{"special<>", "special%3C%3E"},         // Special chars encoded
		{"normal-text.txt", "normal-text.txt"}, // Unreserved chars pass through
		{"", ""},                               // Empty string
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := percentEncodeForDataURL(tt.input)
			if result != tt.expected {
				t.Errorf("percentEncodeForDataURL(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}
