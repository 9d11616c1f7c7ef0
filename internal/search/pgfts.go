package search

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// PgFTS implements Searcher using PostgreSQL full-text search as a fallback.
// The expressions mirror the GIN indexes on invoices and packing_lists, so
// these queries stay index-backed.
type PgFTS struct {
	db *sql.DB
}

// NewPgFTS creates a PostgreSQL FTS searcher.
func NewPgFTS(db *sql.DB) *PgFTS {
	return &PgFTS{db: db}
}

// Healthy always returns true — if Postgres is down, the whole app is down.
func (p *PgFTS) Healthy() bool {
	return true
}

const (
	invoiceFTS = `to_tsvector('simple',
		COALESCE(i.invoice_no, '') || ' ' || COALESCE(i.po_number, '') || ' ' || COALESCE(i.vendor_name, ''))`
	packingFTS = `to_tsvector('simple',
		COALESCE(pl.po_number, '') || ' ' || COALESCE(pl.organization, ''))`
	billFTS = `to_tsvector('simple',
		COALESCE(b.invoice_no, '') || ' ' || COALESCE(b.organization, '') || ' ' || COALESCE(b.vessel, ''))`
)

// Search executes a UNION ALL query across invoices, packing lists, and bills
// of lading using plainto_tsquery and ts_rank.
func (p *PgFTS) Search(q Query) ([]Result, int, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, 0, nil
	}

	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}

	const tsQuery = "plainto_tsquery('simple', $1)"
	args := []any{q.Text}

	var subQueries []string

	if q.FilterType == "" || q.FilterType == ResultInvoice {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'invoice'::text AS type, i.id::text, COALESCE(i.invoice_no, '') AS title,
				COALESCE(i.vendor_name, '') AS snippet,
				COALESCE(i.po_number, '') AS po_number, COALESCE(i.vendor_name, '') AS vendor,
				ts_rank(%s, %s) AS rank
			FROM invoices i
			WHERE %s @@ %s`, invoiceFTS, tsQuery, invoiceFTS, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultPacking {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'packing_list'::text AS type, pl.id::text, COALESCE(pl.po_number, '') AS title,
				COALESCE(pl.organization, '') AS snippet,
				COALESCE(pl.po_number, '') AS po_number, COALESCE(pl.organization, '') AS vendor,
				ts_rank(%s, %s) AS rank
			FROM packing_lists pl
			WHERE %s @@ %s`, packingFTS, tsQuery, packingFTS, tsQuery))
	}

	if q.FilterType == "" || q.FilterType == ResultBillOfLading {
		subQueries = append(subQueries, fmt.Sprintf(`
			SELECT 'bill_of_lading'::text AS type, b.id::text, COALESCE(b.invoice_no, '') AS title,
				COALESCE(b.vessel, '') AS snippet,
				''::text AS po_number, COALESCE(b.organization, '') AS vendor,
				ts_rank(%s, %s) AS rank
			FROM bills_of_lading b
			WHERE %s @@ %s`, billFTS, tsQuery, billFTS, tsQuery))
	}

	if len(subQueries) == 0 {
		return nil, 0, nil
	}

	countSQL := fmt.Sprintf("SELECT count(*) FROM (%s) sub",
		strings.Join(subQueries, " UNION ALL "))

	dataSQL := fmt.Sprintf(`SELECT type, id, title, snippet, po_number, vendor
		FROM (%s) sub
		ORDER BY rank DESC
		LIMIT %d OFFSET %d`,
		strings.Join(subQueries, " UNION ALL "),
		limit, offset)

	ctx := context.Background()

	var total int
	if err := p.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("pgfts count: %w", err)
	}

	rows, err := p.db.QueryContext(ctx, dataSQL, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("pgfts query: %w", err)
	}
	defer rows.Close()

	var results []Result
	for rows.Next() {
		var r Result
		var typ string
		if err := rows.Scan(&typ, &r.ID, &r.Title, &r.Snippet, &r.PONumber, &r.Vendor); err != nil {
			return nil, 0, fmt.Errorf("pgfts scan: %w", err)
		}
		r.Type = ResultType(typ)
		results = append(results, r)
	}

	return results, total, rows.Err()
}

// LoadAllRecords returns all searchable records for full reindexing.
func (p *PgFTS) LoadAllRecords(ctx context.Context) ([]InvoiceRecord, []PackingRecord, []BillRecord, error) {
	invoiceRows, err := p.db.QueryContext(ctx, `
		SELECT id::text, COALESCE(invoice_no, ''), COALESCE(po_number, ''),
			COALESCE(vendor_name, ''), COALESCE(source, '')
		FROM invoices
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load invoices: %w", err)
	}
	defer invoiceRows.Close()

	invoices := make([]InvoiceRecord, 0)
	for invoiceRows.Next() {
		var r InvoiceRecord
		if err := invoiceRows.Scan(&r.ID, &r.InvoiceNo, &r.PONumber, &r.Vendor, &r.Source); err != nil {
			return nil, nil, nil, fmt.Errorf("scan invoice: %w", err)
		}
		invoices = append(invoices, r)
	}
	if err := invoiceRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate invoices: %w", err)
	}

	packingRows, err := p.db.QueryContext(ctx, `
		SELECT id::text, COALESCE(po_number, ''), COALESCE(organization, ''), COALESCE(source, '')
		FROM packing_lists
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load packing lists: %w", err)
	}
	defer packingRows.Close()

	packingLists := make([]PackingRecord, 0)
	for packingRows.Next() {
		var r PackingRecord
		if err := packingRows.Scan(&r.ID, &r.PONumber, &r.Organization, &r.Source); err != nil {
			return nil, nil, nil, fmt.Errorf("scan packing list: %w", err)
		}
		packingLists = append(packingLists, r)
	}
	if err := packingRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate packing lists: %w", err)
	}

	billRows, err := p.db.QueryContext(ctx, `
		SELECT id::text, COALESCE(invoice_no, ''), COALESCE(organization, ''), COALESCE(vessel, '')
		FROM bills_of_lading
	`)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load bills of lading: %w", err)
	}
	defer billRows.Close()

	bills := make([]BillRecord, 0)
	for billRows.Next() {
		var r BillRecord
		if err := billRows.Scan(&r.ID, &r.InvoiceNo, &r.Organization, &r.Vessel); err != nil {
			return nil, nil, nil, fmt.Errorf("scan bill of lading: %w", err)
		}
		bills = append(bills, r)
	}
	if err := billRows.Err(); err != nil {
		return nil, nil, nil, fmt.Errorf("iterate bills of lading: %w", err)
	}

	return invoices, packingLists, bills, nil
}
