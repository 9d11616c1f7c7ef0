package search

// ResultType identifies the kind of entity in a search result.
type ResultType string

const (
	ResultInvoice      ResultType = "invoice"
	ResultPacking      ResultType = "packing_list"
	ResultBillOfLading ResultType = "bill_of_lading"
)

// Result is a single search hit returned to the caller.
type Result struct {
	Type     ResultType `json:"type"`
	ID       string     `json:"id"`
	Title    string     `json:"title"`
	Snippet  string     `json:"snippet"`
	PONumber string     `json:"poNumber"`
	Vendor   string     `json:"vendor,omitempty"`
}

// Query describes a search request.
type Query struct {
	Text       string
	FilterType ResultType // empty = all types
	Limit      int
	Offset     int
}

// Response is the envelope returned by the search endpoint.
type Response struct {
	Results []Result `json:"results"`
	Total   int      `json:"total"`
	Query   string   `json:"query"`
}

// Searcher can execute a full-text search.
type Searcher interface {
	Search(q Query) ([]Result, int, error)
	Healthy() bool
}

// Indexer can push entities into a search index.
type Indexer interface {
	IndexInvoice(record InvoiceRecord) error
	IndexPacking(record PackingRecord) error
	IndexBillOfLading(record BillRecord) error
}

// InvoiceRecord is the data we index for an invoice.
type InvoiceRecord struct {
	ID        string `json:"id"`
	InvoiceNo string `json:"invoiceNo"`
	PONumber  string `json:"poNumber"`
	Vendor    string `json:"vendor"`
	Source    string `json:"source"`
}

// PackingRecord is the data we index for a packing list.
type PackingRecord struct {
	ID           string `json:"id"`
	PONumber     string `json:"poNumber"`
	Organization string `json:"organization"`
	Source       string `json:"source"`
}

// BillRecord is the data we index for a bill of lading.
type BillRecord struct {
	ID           string `json:"id"`
	InvoiceNo    string `json:"invoiceNo"`
	Organization string `json:"organization"`
	Vessel       string `json:"vessel"`
}
