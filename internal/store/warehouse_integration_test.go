package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := strings.TrimSpace(os.Getenv("DOCFLOW_TEST_DATABASE_URL"))
	if dsn == "" {
		t.Skip("DOCFLOW_TEST_DATABASE_URL is not set")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestWarehouseInsertAndListInvoices(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := resetPublicSchema(ctx, db); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	warehouse := NewWarehouseStore(db)
	id, err := warehouse.InsertInvoice(ctx, Invoice{
		InvoiceNo:    "INV-9001",
		PONumber:     "PO-7001",
		VendorName:   "Acme Supply Co",
		Currency:     "USD",
		Source:       "manual",
		Organization: "Acme Supply Co",
		ItemCodes:    []string{"WID-1", "WID-2"},
		Quantities:   []string{"10", "4"},
		Prices:       []string{"2.50", "12"},
	})
	if err != nil {
		t.Fatalf("insert invoice: %v", err)
	}
	if id == 0 {
		t.Fatal("insert invoice returned zero id")
	}

	invoices, err := warehouse.ListInvoices(ctx)
	if err != nil {
		t.Fatalf("list invoices: %v", err)
	}
	if len(invoices) != 1 {
		t.Fatalf("expected 1 invoice, got %d", len(invoices))
	}
	got := invoices[0]
	if got.InvoiceNo != "INV-9001" || got.PONumber != "PO-7001" {
		t.Fatalf("unexpected header: %+v", got)
	}
	if len(got.ItemCodes) != 2 || len(got.Quantities) != 2 {
		t.Fatalf("expected 2 aggregated items, got codes=%v quantities=%v", got.ItemCodes, got.Quantities)
	}

	lineItems, err := warehouse.ListLineItems(ctx)
	if err != nil {
		t.Fatalf("list line items: %v", err)
	}
	if len(lineItems) != 2 {
		t.Fatalf("expected 2 line items, got %d", len(lineItems))
	}
	for _, item := range lineItems {
		if item.InvoiceNo != "INV-9001" {
			t.Fatalf("line item missing joined invoice header: %+v", item)
		}
	}
}

func TestWarehouseDocumentStatsOnEmptySchema(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := resetPublicSchema(ctx, db); err != nil {
		t.Fatalf("reset schema: %v", err)
	}
	if err := ApplyMigrations(ctx, db, filepath.Join("..", "..", "db", "migrations")); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}

	warehouse := NewWarehouseStore(db)
	stats, err := warehouse.DocumentStats(ctx)
	if err != nil {
		t.Fatalf("document stats: %v", err)
	}
	if stats.TotalInvoices != 0 || stats.TotalPacking != 0 || stats.UniqueVendors != 0 {
		t.Fatalf("expected zeroed stats, got %+v", stats)
	}

	points, err := warehouse.DailyDocumentCounts(ctx, 90)
	if err != nil {
		t.Fatalf("daily document counts: %v", err)
	}
	if len(points) != 90 {
		t.Fatalf("expected densified 90-day series, got %d points", len(points))
	}
}
