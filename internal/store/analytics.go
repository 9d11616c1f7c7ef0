package store

import (
	"context"
	"fmt"
	"time"
)

// DocumentStats returns the dashboard headline counters plus the raw counts
// for the current and previous calendar months. Growth math lives in the
// service so the SQL stays a plain aggregation.
func (s *WarehouseStore) DocumentStats(ctx context.Context) (DocumentStats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM invoices),
			(SELECT COUNT(*) FROM packing_lists),
			(SELECT COUNT(DISTINCT vendor_name) FROM invoices WHERE vendor_name IS NOT NULL AND vendor_name <> ''),
			(SELECT COUNT(*) FROM invoices WHERE date_trunc('month', created_at) = date_trunc('month', now())),
			(SELECT COUNT(*) FROM invoices WHERE date_trunc('month', created_at) = date_trunc('month', now() - interval '1 month')),
			(SELECT COUNT(*) FROM packing_lists WHERE date_trunc('month', created_at) = date_trunc('month', now())),
			(SELECT COUNT(*) FROM packing_lists WHERE date_trunc('month', created_at) = date_trunc('month', now() - interval '1 month')),
			(SELECT COUNT(DISTINCT vendor_name) FROM invoices
				WHERE vendor_name IS NOT NULL AND vendor_name <> ''
				AND date_trunc('month', created_at) = date_trunc('month', now())),
			(SELECT COUNT(DISTINCT vendor_name) FROM invoices
				WHERE vendor_name IS NOT NULL AND vendor_name <> ''
				AND date_trunc('month', created_at) = date_trunc('month', now() - interval '1 month'))
	`
	var stats DocumentStats
	err := s.db.QueryRowContext(ctx, query).Scan(
		&stats.TotalInvoices, &stats.TotalPacking, &stats.UniqueVendors,
		&stats.MonthlyInvoices, &stats.PrevMonthInvoices,
		&stats.MonthlyPacking, &stats.PrevMonthPacking,
		&stats.MonthlyVendors, &stats.PrevMonthVendors,
	)
	if err != nil {
		return DocumentStats{}, fmt.Errorf("document stats: %w", err)
	}
	return stats, nil
}

// DailyDocumentCounts returns one point per day over the trailing window,
// densified so days with no documents still appear with zero counts.
func (s *WarehouseStore) DailyDocumentCounts(ctx context.Context, days int) ([]ChartPoint, error) {
	if days <= 0 {
		days = 90
	}
	const query = `
		SELECT d::date,
			COALESCE(i.n, 0), COALESCE(p.n, 0), COALESCE(b.n, 0)
		FROM generate_series(
			(now() - ($1 - 1) * interval '1 day')::date, now()::date, interval '1 day') AS d
		LEFT JOIN (
			SELECT created_at::date AS day, COUNT(*) AS n FROM invoices GROUP BY 1
		) i ON i.day = d::date
		LEFT JOIN (
			SELECT created_at::date AS day, COUNT(*) AS n FROM packing_lists GROUP BY 1
		) p ON p.day = d::date
		LEFT JOIN (
			SELECT created_at::date AS day, COUNT(*) AS n FROM bills_of_lading GROUP BY 1
		) b ON b.day = d::date
		ORDER BY d
	`
	rows, err := s.db.QueryContext(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("daily document counts: %w", err)
	}
	defer rows.Close()

	points := make([]ChartPoint, 0, days)
	for rows.Next() {
		var point ChartPoint
		if err := rows.Scan(&point.Date, &point.Invoices, &point.Packing, &point.BillsOfLading); err != nil {
			return nil, fmt.Errorf("scan chart point: %w", err)
		}
		points = append(points, point)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chart points: %w", err)
	}
	return points, nil
}

// MonthlyTrends returns invoice and packing-list counts for the trailing
// months, oldest first, labelled like "Jan 2026".
func (s *WarehouseStore) MonthlyTrends(ctx context.Context, months int) ([]MonthlyTrend, error) {
	if months <= 0 {
		months = 6
	}
	const query = `
		SELECT m, COALESCE(i.n, 0), COALESCE(p.n, 0)
		FROM generate_series(
			date_trunc('month', now()) - ($1 - 1) * interval '1 month',
			date_trunc('month', now()), interval '1 month') AS m
		LEFT JOIN (
			SELECT date_trunc('month', created_at) AS month, COUNT(*) AS n FROM invoices GROUP BY 1
		) i ON i.month = m
		LEFT JOIN (
			SELECT date_trunc('month', created_at) AS month, COUNT(*) AS n FROM packing_lists GROUP BY 1
		) p ON p.month = m
		ORDER BY m
	`
	rows, err := s.db.QueryContext(ctx, query, months)
	if err != nil {
		return nil, fmt.Errorf("monthly trends: %w", err)
	}
	defer rows.Close()

	trends := make([]MonthlyTrend, 0, months)
	for rows.Next() {
		var (
			month time.Time
			trend MonthlyTrend
		)
		if err := rows.Scan(&month, &trend.Invoices, &trend.PackingLists); err != nil {
			return nil, fmt.Errorf("scan monthly trend: %w", err)
		}
		trend.Month = month.Format("Jan 2006")
		trends = append(trends, trend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate monthly trends: %w", err)
	}
	return trends, nil
}

// VendorDistribution returns the top suppliers by invoice count.
func (s *WarehouseStore) VendorDistribution(ctx context.Context, limit int) ([]VendorCount, error) {
	if limit <= 0 {
		limit = 8
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT vendor_name, COUNT(*)
		FROM invoices
		WHERE vendor_name IS NOT NULL AND vendor_name <> ''
		GROUP BY vendor_name
		ORDER BY COUNT(*) DESC, vendor_name
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("vendor distribution: %w", err)
	}
	defer rows.Close()

	vendors := make([]VendorCount, 0, limit)
	for rows.Next() {
		var vendor VendorCount
		if err := rows.Scan(&vendor.Name, &vendor.Count); err != nil {
			return nil, fmt.Errorf("scan vendor count: %w", err)
		}
		vendors = append(vendors, vendor)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate vendor counts: %w", err)
	}
	return vendors, nil
}
