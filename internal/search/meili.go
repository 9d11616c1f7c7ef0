package search

import (
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	meili "github.com/meilisearch/meilisearch-go"
)

const (
	idxInvoices = "docflow_invoices"
	idxPacking  = "docflow_packing_lists"
	idxBills    = "docflow_bills_of_lading"
)

// Meili implements Searcher and Indexer via Meilisearch.
type Meili struct {
	client  meili.ServiceManager
	healthy atomic.Bool
	done    chan struct{}
}

// NewMeili creates a Meilisearch client and configures indexes.
// Returns nil if the initial connection fails (caller should proceed without it).
func NewMeili(url, apiKey string) *Meili {
	client := meili.New(url, meili.WithAPIKey(apiKey))

	m := &Meili{
		client: client,
		done:   make(chan struct{}),
	}

	// Initial health check
	if _, err := client.Health(); err != nil {
		log.Printf("search: meilisearch unavailable at %s: %v", url, err)
		m.healthy.Store(false)
	} else {
		m.healthy.Store(true)
		m.configureIndexes()
	}

	go m.healthLoop()
	return m
}

func (m *Meili) configureIndexes() {
	indexes := []struct {
		uid        string
		primaryKey string
		filterable []string
		searchable []string
	}{
		{
			uid:        idxInvoices,
			primaryKey: "id",
			filterable: []string{"poNumber", "vendor", "source"},
			searchable: []string{"invoiceNo", "poNumber", "vendor"},
		},
		{
			uid:        idxPacking,
			primaryKey: "id",
			filterable: []string{"poNumber", "organization", "source"},
			searchable: []string{"poNumber", "organization"},
		},
		{
			uid:        idxBills,
			primaryKey: "id",
			filterable: []string{"organization"},
			searchable: []string{"invoiceNo", "organization", "vessel"},
		},
	}

	for _, idx := range indexes {
		if _, err := m.client.CreateIndex(&meili.IndexConfig{
			Uid:        idx.uid,
			PrimaryKey: idx.primaryKey,
		}); err != nil {
			log.Printf("search: create index %s (may already exist): %v", idx.uid, err)
		}

		index := m.client.Index(idx.uid)
		filterableInterface := make([]interface{}, len(idx.filterable))
		for i, v := range idx.filterable {
			filterableInterface[i] = v
		}
		if _, err := index.UpdateFilterableAttributes(&filterableInterface); err != nil {
			log.Printf("search: update filterable attrs for %s: %v", idx.uid, err)
		}
		if _, err := index.UpdateSearchableAttributes(&idx.searchable); err != nil {
			log.Printf("search: update searchable attrs for %s: %v", idx.uid, err)
		}
	}
}

func (m *Meili) healthLoop() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			_, err := m.client.Health()
			wasHealthy := m.healthy.Load()
			m.healthy.Store(err == nil)
			if err == nil && !wasHealthy {
				log.Println("search: meilisearch recovered, reconfiguring indexes")
				m.configureIndexes()
			}
		}
	}
}

// Close stops the background health monitor.
func (m *Meili) Close() {
	close(m.done)
}

// Healthy reports whether Meilisearch is reachable.
func (m *Meili) Healthy() bool {
	return m.healthy.Load()
}

// Search queries all three indexes (or a filtered subset) and merges results.
func (m *Meili) Search(q Query) ([]Result, int, error) {
	if !m.healthy.Load() {
		return nil, 0, fmt.Errorf("meilisearch unhealthy")
	}

	limit := int64(q.Limit)
	if limit == 0 {
		limit = 20
	}

	var queries []*meili.SearchRequest
	targetIndexes := []struct {
		uid  string
		rtyp ResultType
	}{
		{idxInvoices, ResultInvoice},
		{idxPacking, ResultPacking},
		{idxBills, ResultBillOfLading},
	}

	for _, ti := range targetIndexes {
		if q.FilterType != "" && q.FilterType != ti.rtyp {
			continue
		}
		queries = append(queries, &meili.SearchRequest{
			IndexUID:              ti.uid,
			Limit:                 limit,
			Offset:                int64(q.Offset),
			AttributesToHighlight: []string{"*"},
			HighlightPreTag:       "<mark>",
			HighlightPostTag:      "</mark>",
			ShowRankingScore:      true,
		})
	}

	if len(queries) == 0 {
		return nil, 0, nil
	}

	resp, err := m.client.MultiSearch(&meili.MultiSearchRequest{
		Queries: queries,
	})
	if err != nil {
		m.healthy.Store(false)
		return nil, 0, fmt.Errorf("meilisearch multi-search: %w", err)
	}

	var results []Result
	total := 0
	for _, sr := range resp.Results {
		total += int(sr.EstimatedTotalHits)
		rtyp := indexToResultType(sr.IndexUID)
		for _, hit := range sr.Hits {
			results = append(results, hitToResult(hit, rtyp))
		}
	}

	return results, total, nil
}

func indexToResultType(uid string) ResultType {
	switch uid {
	case idxInvoices:
		return ResultInvoice
	case idxPacking:
		return ResultPacking
	case idxBills:
		return ResultBillOfLading
	default:
		return ""
	}
}

func hitToResult(hit meili.Hit, rtyp ResultType) Result {
	r := Result{Type: rtyp}
	r.ID = decodeString(hit, "id")
	r.PONumber = decodeString(hit, "poNumber")

	switch rtyp {
	case ResultInvoice:
		r.Title = firstNonBlank(decodeFormattedString(hit, "invoiceNo"), decodeString(hit, "invoiceNo"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "vendor"), decodeString(hit, "vendor"))
		r.Vendor = decodeString(hit, "vendor")
	case ResultPacking:
		r.Title = firstNonBlank(decodeFormattedString(hit, "poNumber"), decodeString(hit, "poNumber"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "organization"), decodeString(hit, "organization"))
		r.Vendor = decodeString(hit, "organization")
	case ResultBillOfLading:
		r.Title = firstNonBlank(decodeFormattedString(hit, "invoiceNo"), decodeString(hit, "invoiceNo"))
		r.Snippet = firstNonBlank(decodeFormattedString(hit, "vessel"), decodeString(hit, "vessel"))
		r.Vendor = decodeString(hit, "organization")
	}
	return r
}

func decodeString(hit meili.Hit, key string) string {
	raw, ok := hit[key]
	if !ok {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return ""
}

func decodeFormattedString(hit meili.Hit, key string) string {
	raw, ok := hit["_formatted"]
	if !ok {
		return ""
	}
	var formatted map[string]string
	if err := json.Unmarshal(raw, &formatted); err != nil {
		return ""
	}
	return strings.TrimSpace(formatted[key])
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}

// IndexInvoice adds or updates an invoice in the search index.
func (m *Meili) IndexInvoice(record InvoiceRecord) error {
	_, err := m.client.Index(idxInvoices).AddDocuments([]InvoiceRecord{record}, nil)
	return err
}

// IndexPacking adds or updates a packing list in the search index.
func (m *Meili) IndexPacking(record PackingRecord) error {
	_, err := m.client.Index(idxPacking).AddDocuments([]PackingRecord{record}, nil)
	return err
}

// IndexBillOfLading adds or updates a bill of lading in the search index.
func (m *Meili) IndexBillOfLading(record BillRecord) error {
	_, err := m.client.Index(idxBills).AddDocuments([]BillRecord{record}, nil)
	return err
}

// IndexInvoices bulk-indexes invoices.
func (m *Meili) IndexInvoices(records []InvoiceRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxInvoices).AddDocuments(records, nil)
	return err
}

// IndexPackingLists bulk-indexes packing lists.
func (m *Meili) IndexPackingLists(records []PackingRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxPacking).AddDocuments(records, nil)
	return err
}

// IndexBillsOfLading bulk-indexes bills of lading.
func (m *Meili) IndexBillsOfLading(records []BillRecord) error {
	if len(records) == 0 {
		return nil
	}
	_, err := m.client.Index(idxBills).AddDocuments(records, nil)
	return err
}
