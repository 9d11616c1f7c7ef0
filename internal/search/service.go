package search

import (
	"context"
	"log"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili *Meili
	pgfts *PgFTS
}

// NewService creates a search service. meili may be nil if Meilisearch is not configured.
func NewService(meili *Meili, pgfts *PgFTS) *Service {
	return &Service{meili: meili, pgfts: pgfts}
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if s.meili != nil && s.meili.Healthy() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text}
		}
		log.Printf("search: meilisearch error, falling back to pgfts: %v", err)
	}

	results, total, err := s.pgfts.Search(q)
	if err != nil {
		log.Printf("search: pgfts error: %v", err)
		return Response{Results: []Result{}, Total: 0, Query: q.Text}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text}
}

// IndexInvoice indexes an invoice (fire-and-forget to Meilisearch).
func (s *Service) IndexInvoice(record InvoiceRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexInvoice(record); err != nil {
			log.Printf("search: index invoice %s: %v", record.ID, err)
		}
	}()
}

// IndexPacking indexes a packing list (fire-and-forget to Meilisearch).
func (s *Service) IndexPacking(record PackingRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexPacking(record); err != nil {
			log.Printf("search: index packing list %s: %v", record.ID, err)
		}
	}()
}

// IndexBillOfLading indexes a bill of lading (fire-and-forget to Meilisearch).
func (s *Service) IndexBillOfLading(record BillRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}
	go func() {
		if err := s.meili.IndexBillOfLading(record); err != nil {
			log.Printf("search: index bill of lading %s: %v", record.ID, err)
		}
	}()
}

// ReindexAll pushes prepared record sets to Meilisearch.
func (s *Service) ReindexAll(invoices []InvoiceRecord, packingLists []PackingRecord, bills []BillRecord) {
	if s.meili == nil || !s.meili.Healthy() {
		return
	}

	if len(invoices) > 0 {
		if err := s.meili.IndexInvoices(invoices); err != nil {
			log.Printf("search: reindex invoices: %v", err)
		}
	}
	if len(packingLists) > 0 {
		if err := s.meili.IndexPackingLists(packingLists); err != nil {
			log.Printf("search: reindex packing lists: %v", err)
		}
	}
	if len(bills) > 0 {
		if err := s.meili.IndexBillsOfLading(bills); err != nil {
			log.Printf("search: reindex bills of lading: %v", err)
		}
	}
}

// ReindexAllFromPG reindexes all searchable entities from PostgreSQL into Meilisearch.
// Called during bootstrap if Meilisearch is healthy.
func (s *Service) ReindexAllFromPG(ctx context.Context) {
	if s.meili == nil || !s.meili.Healthy() || s.pgfts == nil {
		return
	}
	invoices, packingLists, bills, err := s.pgfts.LoadAllRecords(ctx)
	if err != nil {
		log.Printf("search: reindex load failed: %v", err)
		return
	}
	s.ReindexAll(invoices, packingLists, bills)
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
