package store

import (
	"context"
	"database/sql"
	"fmt"
)

// WarehouseStore is the record source: parameterized SQL against the
// document warehouse, rows reshaped into typed records. It owns no matching
// logic; reconciliation consumes its output as plain collections.
type WarehouseStore struct {
	db *sql.DB
}

func NewWarehouseStore(db *sql.DB) *WarehouseStore {
	return &WarehouseStore{db: db}
}

func (s *WarehouseStore) DB() *sql.DB {
	return s.db
}

func (s *WarehouseStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// ListInvoices returns invoice headers with their line items aggregated into
// parallel code/quantity/price arrays, newest first. Headers without line
// items come back with empty arrays.
func (s *WarehouseStore) ListInvoices(ctx context.Context) ([]Invoice, error) {
	const query = `
		SELECT
			i.id, COALESCE(i.invoice_no, ''), COALESCE(i.po_number, ''),
			COALESCE(i.vendor_name, ''), COALESCE(i.currency, 'USD'),
			COALESCE(i.source, ''), COALESCE(i.source_id, ''),
			COALESCE(i.organization, ''), COALESCE(i.pages, 0), i.created_at,
			COALESCE(ARRAY_AGG(ii.item_code) FILTER (WHERE ii.item_code IS NOT NULL), '{}'),
			COALESCE(ARRAY_AGG(ii.quantity::text) FILTER (WHERE ii.item_code IS NOT NULL), '{}'),
			COALESCE(ARRAY_AGG(ii.unit_price::text) FILTER (WHERE ii.item_code IS NOT NULL), '{}'),
			COALESCE(SUM(ii.line_amount), 0)::text
		FROM invoices i
		LEFT JOIN invoice_items ii ON ii.invoice_id = i.id::text
		GROUP BY i.id
		ORDER BY i.created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	items := make([]Invoice, 0)
	for rows.Next() {
		var item Invoice
		if err := rows.Scan(
			&item.ID, &item.InvoiceNo, &item.PONumber, &item.VendorName,
			&item.Currency, &item.Source, &item.SourceID, &item.Organization,
			&item.Pages, &item.CreatedAt,
			textArray{&item.ItemCodes}, textArray{&item.Quantities}, textArray{&item.Prices},
			&item.TotalAmount,
		); err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate invoices: %w", err)
	}
	return items, nil
}

// ListPackingLists returns packing-list headers with aggregated item codes
// and quantities, newest first.
func (s *WarehouseStore) ListPackingLists(ctx context.Context) ([]PackingList, error) {
	const query = `
		SELECT
			pl.id, COALESCE(pl.po_number, ''), COALESCE(pl.organization, ''),
			COALESCE(pl.source, ''), COALESCE(pl.total_carton::text, '0'),
			COALESCE(pl.total_gross_weight::text, '0'), COALESCE(pl.total_measurement::text, '0'),
			pl.created_at,
			COALESCE(ARRAY_AGG(pli.item_code) FILTER (WHERE pli.item_code IS NOT NULL), '{}'),
			COALESCE(ARRAY_AGG(pli.quantity::text) FILTER (WHERE pli.item_code IS NOT NULL), '{}')
		FROM packing_lists pl
		LEFT JOIN packing_list_items pli ON pli.packing_list_id = pl.id
		GROUP BY pl.id
		ORDER BY pl.created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list packing lists: %w", err)
	}
	defer rows.Close()

	items := make([]PackingList, 0)
	for rows.Next() {
		var item PackingList
		if err := rows.Scan(
			&item.ID, &item.PONumber, &item.Organization, &item.Source,
			&item.TotalCarton, &item.TotalGrossWeight, &item.TotalMeasurement,
			&item.CreatedAt,
			textArray{&item.ItemCodes}, textArray{&item.Quantities},
		); err != nil {
			return nil, fmt.Errorf("scan packing list: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate packing lists: %w", err)
	}
	return items, nil
}

// ListLineItems returns the flat invoice line items joined to their invoice
// headers, newest first then by item code.
func (s *WarehouseStore) ListLineItems(ctx context.Context) ([]LineItem, error) {
	const query = `
		SELECT
			ii.id, COALESCE(ii.po_number, ''), COALESCE(ii.item_code, ''),
			COALESCE(ii.quantity::text, '0'), COALESCE(ii.unit_price::text, '0'),
			COALESCE(ii.line_amount::text, '0'), COALESCE(ii.valid_item, FALSE),
			COALESCE(ii.invoice_id, ''), COALESCE(i.invoice_no, ''),
			COALESCE(i.vendor_name, ''), ii.created_at
		FROM invoice_items ii
		LEFT JOIN invoices i ON ii.invoice_id = i.id::text
		ORDER BY ii.created_at DESC, ii.item_code
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list line items: %w", err)
	}
	defer rows.Close()

	items := make([]LineItem, 0)
	for rows.Next() {
		var item LineItem
		if err := rows.Scan(
			&item.ID, &item.PONumber, &item.ItemCode, &item.Quantity,
			&item.UnitPrice, &item.LineAmount, &item.ValidItem,
			&item.InvoiceID, &item.InvoiceNo, &item.VendorName, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan line item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate line items: %w", err)
	}
	return items, nil
}

// ListBillsOfLading returns bill-of-lading headers, newest first.
func (s *WarehouseStore) ListBillsOfLading(ctx context.Context) ([]BillOfLading, error) {
	const query = `
		SELECT
			id, COALESCE(organization, ''), COALESCE(invoice_no, ''),
			COALESCE(gross_weight::text, '0'), COALESCE(measurement::text, '0'),
			COALESCE(total_carton, 0), COALESCE(source, ''), COALESCE(vessel, ''),
			onboard_date, created_at
		FROM bills_of_lading
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list bills of lading: %w", err)
	}
	defer rows.Close()

	items := make([]BillOfLading, 0)
	for rows.Next() {
		var item BillOfLading
		if err := rows.Scan(
			&item.ID, &item.Organization, &item.InvoiceNo, &item.GrossWeight,
			&item.Measurement, &item.TotalCarton, &item.Source, &item.Vessel,
			&item.OnboardDate, &item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan bill of lading: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills of lading: %w", err)
	}
	return items, nil
}

// InsertInvoice writes a manually entered invoice header and its line items,
// returning the new invoice ID.
func (s *WarehouseStore) InsertInvoice(ctx context.Context, item Invoice) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin insert invoice: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var id int64
	err = tx.QueryRowContext(ctx, `
		INSERT INTO invoices (invoice_no, po_number, vendor_name, currency, source, source_id, organization, pages)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, item.InvoiceNo, item.PONumber, item.VendorName, item.Currency,
		item.Source, item.SourceID, item.Organization, item.Pages).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert invoice: %w", err)
	}

	for i := range item.ItemCodes {
		quantity, price := "0", "0"
		if i < len(item.Quantities) {
			quantity = item.Quantities[i]
		}
		if i < len(item.Prices) {
			price = item.Prices[i]
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO invoice_items (invoice_id, po_number, item_code, quantity, unit_price, line_amount)
			VALUES ($1, $2, $3, NULLIF($4,'')::numeric, NULLIF($5,'')::numeric,
				COALESCE(NULLIF($4,'')::numeric, 0) * COALESCE(NULLIF($5,'')::numeric, 0))
		`, formatID(id), item.PONumber, item.ItemCodes[i], quantity, price); err != nil {
			return 0, fmt.Errorf("insert invoice item: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit insert invoice: %w", err)
	}
	return id, nil
}

// ListAgentActions returns the most recent audit-trail entries.
func (s *WarehouseStore) ListAgentActions(ctx context.Context, limit int) ([]AgentAction, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, COALESCE(po_number, ''), COALESCE(action_key, ''),
			COALESCE(action_title, ''), COALESCE(action_description, ''),
			COALESCE(action_content, ''), created_at, updated_at
		FROM agent_action_history
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list agent actions: %w", err)
	}
	defer rows.Close()

	items := make([]AgentAction, 0)
	for rows.Next() {
		var item AgentAction
		if err := rows.Scan(
			&item.ID, &item.PONumber, &item.ActionKey, &item.Title,
			&item.Description, &item.Content, &item.CreatedAt, &item.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan agent action: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agent actions: %w", err)
	}
	return items, nil
}

// InsertAgentAction records an audit-trail entry for an agent action.
func (s *WarehouseStore) InsertAgentAction(ctx context.Context, action AgentAction) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agent_action_history (po_number, action_key, action_title, action_description, action_content)
		VALUES ($1, $2, $3, $4, $5)
	`, action.PONumber, action.ActionKey, action.Title, action.Description, action.Content)
	if err != nil {
		return fmt.Errorf("insert agent action: %w", err)
	}
	return nil
}
