package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"docflow/api/internal/auth"
	"docflow/api/internal/config"
	"docflow/api/internal/docstore"
	"docflow/api/internal/export"
	"docflow/api/internal/metrics"
	"docflow/api/internal/notify"
	"docflow/api/internal/recon"
	"docflow/api/internal/search"
	"docflow/api/internal/store"
	"docflow/api/internal/util"
)

type Session struct {
	Token     string
	UserID    string
	UserName  string
	JTI       string
	ExpiresAt time.Time
}

type warehouseStore interface {
	Ping(context.Context) error
	ListInvoices(context.Context) ([]store.Invoice, error)
	ListPackingLists(context.Context) ([]store.PackingList, error)
	ListLineItems(context.Context) ([]store.LineItem, error)
	ListBillsOfLading(context.Context) ([]store.BillOfLading, error)
	InsertInvoice(context.Context, store.Invoice) (int64, error)
	ListAgentActions(context.Context, int) ([]store.AgentAction, error)
	InsertAgentAction(context.Context, store.AgentAction) error
	DocumentStats(context.Context) (store.DocumentStats, error)
	DailyDocumentCounts(context.Context, int) ([]store.ChartPoint, error)
	MonthlyTrends(context.Context, int) ([]store.MonthlyTrend, error)
	VendorDistribution(context.Context, int) ([]store.VendorCount, error)
}

type notificationStore interface {
	Save(context.Context, []notify.Notification) error
	List(context.Context) ([]notify.Notification, error)
	MarkRead(context.Context, string) error
	MarkAllRead(context.Context) error
}

// analystAsker answers natural-language questions about the warehoused
// invoice data.
type analystAsker interface {
	Ask(ctx context.Context, message string) (string, error)
}

type Service struct {
	store         warehouseStore
	cfg           config.Config
	notifications notificationStore
	search        *search.Service
	metrics       *metrics.Registry
	warehouseJWT  *auth.WarehouseJWT
	analyst       analystAsker
	docs          *docstore.Store
	exporter      *export.Service
	now           func() time.Time
}

func NewService(warehouse warehouseStore, cfg config.Config) *Service {
	return &Service{
		store: warehouse,
		cfg:   cfg,
		now:   time.Now,
	}
}

// WithNotifications attaches the Redis-backed notification store.
func (s *Service) WithNotifications(ns notificationStore) *Service {
	s.notifications = ns
	return s
}

// WithSearch attaches the search facade.
func (s *Service) WithSearch(search *search.Service) *Service {
	s.search = search
	return s
}

// WithMetrics attaches the Prometheus registry.
func (s *Service) WithMetrics(registry *metrics.Registry) *Service {
	s.metrics = registry
	return s
}

// WithWarehouseJWT attaches the warehouse keypair token minter.
func (s *Service) WithWarehouseJWT(minter *auth.WarehouseJWT) *Service {
	s.warehouseJWT = minter
	return s
}

// WithAnalyst attaches the warehouse analyst client backing the chat route.
func (s *Service) WithAnalyst(analyst analystAsker) *Service {
	s.analyst = analyst
	return s
}

// WithDocs attaches the object-storage client for source PDFs.
func (s *Service) WithDocs(docs *docstore.Store) *Service {
	s.docs = docs
	return s
}

// WithExporter attaches the report exporter.
func (s *Service) WithExporter(exporter *export.Service) *Service {
	s.exporter = exporter
	return s
}

// Docs returns the document store, or nil when object storage is not
// configured.
func (s *Service) Docs() *docstore.Store {
	return s.docs
}

// PingNotifications checks the notification backend when one is attached.
func (s *Service) PingNotifications(ctx context.Context) error {
	pinger, ok := s.notifications.(interface{ Ping(context.Context) error })
	if !ok {
		return nil
	}
	return pinger.Ping(ctx)
}

// ExportReport renders the reconciliation report in the requested format.
func (s *Service) ExportReport(ctx context.Context, req export.Request) (*export.Result, error) {
	if s.exporter == nil {
		return nil, domainError(503, "EXPORT_UNAVAILABLE", "Report export not configured", nil)
	}
	result, err := s.exporter.Export(ctx, req)
	if errors.Is(err, export.ErrContentUnavailable) {
		return nil, domainError(404, "NO_REPORT_CONTENT", "No documents available to export", nil)
	}
	return result, err
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// WarehouseFingerprint reports the registered public-key fingerprint, or ""
// when keypair auth is not configured.
func (s *Service) WarehouseFingerprint() string {
	if s.warehouseJWT == nil {
		return ""
	}
	fingerprint, err := s.warehouseJWT.Fingerprint()
	if err != nil {
		return ""
	}
	return fingerprint
}

// AskAnalyst forwards a natural-language question about the invoice data to
// the warehouse analyst service.
func (s *Service) AskAnalyst(ctx context.Context, message string) (string, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return "", domainError(400, "INVALID_MESSAGE", "Message is required", nil)
	}
	if s.analyst == nil {
		return "", domainError(503, "ANALYST_UNAVAILABLE", "Warehouse analyst not configured", nil)
	}
	return s.analyst.Ask(ctx, message)
}

// Login issues an access token for the given display name. The dashboard has
// no user registry; any non-blank name gets a session.
func (s *Service) Login(ctx context.Context, name string) (Session, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Session{}, domainError(400, "INVALID_NAME", "Name is required", nil)
	}

	userID := "user_" + strings.ToLower(strings.ReplaceAll(name, " ", "-"))
	jti := util.NewID("jti")
	expiresAt := s.now().Add(s.cfg.AccessTTL)

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:  userID,
		Name: name,
		JTI:  jti,
		Exp:  expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}

	return Session{
		Token:     token,
		UserID:    userID,
		UserName:  name,
		JTI:       jti,
		ExpiresAt: expiresAt,
	}, nil
}

// SessionFromToken validates an access token and reconstructs the session.
func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    claims.Sub,
		UserName:  claims.Name,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

// InvoiceView is the wire shape of one invoice, arrays aligned by position.
type InvoiceView struct {
	ID           string   `json:"id"`
	Source       string   `json:"source"`
	InvoiceNo    string   `json:"invoice_no"`
	VendorName   string   `json:"vendor_name"`
	PONumber     string   `json:"purchase_order_no"`
	ItemNo       []string `json:"item_no"`
	Quantity     []string `json:"quantity"`
	Price        []string `json:"price"`
	Currency     string   `json:"currency"`
	CreatedAt    string   `json:"created_at"`
	Type         string   `json:"type"`
	TotalAmount  string   `json:"total_amount"`
	Organization string   `json:"organization,omitempty"`
	SourceID     string   `json:"source_id,omitempty"`
	Pages        int      `json:"pages,omitempty"`
}

func (s *Service) Invoices(ctx context.Context) ([]InvoiceView, error) {
	rows, err := s.listInvoices(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]InvoiceView, 0, len(rows))
	for _, row := range rows {
		record := row.Record()
		source := row.Source
		if source == "" {
			source = "invoice_" + record.ID + ".pdf"
		}
		invoiceNo := row.InvoiceNo
		if invoiceNo == "" {
			invoiceNo = "-"
		}
		vendor := row.VendorName
		if vendor == "" {
			vendor = "Unknown"
		}
		views = append(views, InvoiceView{
			ID:           record.ID,
			Source:       source,
			InvoiceNo:    invoiceNo,
			VendorName:   vendor,
			PONumber:     row.PONumber,
			ItemNo:       nonNilStrings(row.ItemCodes),
			Quantity:     nonNilStrings(row.Quantities),
			Price:        nonNilStrings(row.Prices),
			Currency:     defaultString(row.Currency, "USD"),
			CreatedAt:    row.CreatedAt.UTC().Format(time.RFC3339),
			Type:         "Invoice",
			TotalAmount:  defaultString(row.TotalAmount, "0"),
			Organization: row.Organization,
			SourceID:     row.SourceID,
			Pages:        row.Pages,
		})
	}
	return views, nil
}

// PackingLists mirrors the invoice shape so the dashboard renders both from
// the same table component. Quantity and price carry the carton and gross
// weight totals.
func (s *Service) PackingLists(ctx context.Context) ([]InvoiceView, error) {
	rows, err := s.listPackingLists(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]InvoiceView, 0, len(rows))
	for _, row := range rows {
		record := row.Record()
		source := row.Source
		if source == "" {
			source = "packing_" + record.ID + ".pdf"
		}
		invoiceNo := row.PONumber
		if invoiceNo == "" {
			invoiceNo = record.PackingNo
		}
		views = append(views, InvoiceView{
			ID:          record.ID,
			Source:      source,
			InvoiceNo:   invoiceNo,
			VendorName:  defaultString(row.Organization, "Unknown Organization"),
			PONumber:    row.PONumber,
			ItemNo:      nonNilStrings(row.ItemCodes),
			Quantity:    []string{defaultString(row.TotalCarton, "0")},
			Price:       []string{defaultString(row.TotalGrossWeight, "0")},
			Currency:    "USD",
			CreatedAt:   row.CreatedAt.UTC().Format(time.RFC3339),
			Type:        "Packing List",
			TotalAmount: defaultString(row.TotalGrossWeight, "0"),
		})
	}
	return views, nil
}

// LineItemView is the wire shape of one invoice line item.
type LineItemView struct {
	ID         string `json:"id"`
	PONumber   string `json:"poNumber"`
	ItemCode   string `json:"itemCode"`
	Quantity   string `json:"quantity"`
	UnitPrice  string `json:"unitPrice"`
	LineAmount string `json:"lineAmount"`
	ValidItem  bool   `json:"validItem"`
	MatchPL    bool   `json:"matchPL"`
	InvoiceID  string `json:"invoiceId"`
	InvoiceNo  string `json:"invoiceNo"`
	VendorName string `json:"vendorName"`
	CreatedAt  string `json:"createdAt"`
}

func (s *Service) InvoiceItems(ctx context.Context) ([]LineItemView, error) {
	rows, err := s.store.ListLineItems(ctx)
	if err != nil {
		return nil, err
	}
	matched, err := s.matchLineItems(ctx, rows)
	if err != nil {
		return nil, err
	}

	views := make([]LineItemView, 0, len(rows))
	for i, row := range rows {
		views = append(views, LineItemView{
			ID:         matched[i].ID,
			PONumber:   row.PONumber,
			ItemCode:   row.ItemCode,
			Quantity:   row.Quantity,
			UnitPrice:  row.UnitPrice,
			LineAmount: row.LineAmount,
			ValidItem:  row.ValidItem,
			MatchPL:    matched[i].MatchPL,
			InvoiceID:  row.InvoiceID,
			InvoiceNo:  row.InvoiceNo,
			VendorName: row.VendorName,
			CreatedAt:  row.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	return views, nil
}

// BillOfLadingView is the wire shape of one bill of lading.
type BillOfLadingView struct {
	ID           string `json:"id"`
	Organization string `json:"organization"`
	InvoiceNo    string `json:"invoice_no"`
	GrossWeight  string `json:"gross_weight"`
	Measurement  string `json:"measurement"`
	TotalCarton  int    `json:"total_carton"`
	Source       string `json:"source"`
	Vessel       string `json:"vessel"`
	OnboardDate  string `json:"onboard_date,omitempty"`
	CreatedAt    string `json:"created_at"`
}

func (s *Service) BillsOfLading(ctx context.Context) ([]BillOfLadingView, error) {
	rows, err := s.store.ListBillsOfLading(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]BillOfLadingView, 0, len(rows))
	for _, row := range rows {
		view := BillOfLadingView{
			ID:           fmt.Sprintf("%d", row.ID),
			Organization: row.Organization,
			InvoiceNo:    row.InvoiceNo,
			GrossWeight:  row.GrossWeight,
			Measurement:  row.Measurement,
			TotalCarton:  row.TotalCarton,
			Source:       row.Source,
			Vessel:       row.Vessel,
			CreatedAt:    row.CreatedAt.UTC().Format(time.RFC3339),
		}
		if row.OnboardDate != nil {
			view.OnboardDate = row.OnboardDate.UTC().Format(time.RFC3339)
		}
		views = append(views, view)
	}
	return views, nil
}

// DocumentSets runs a reconciliation pass over the current warehouse contents.
func (s *Service) DocumentSets(ctx context.Context) ([]recon.DocumentSet, error) {
	invoices, err := s.listInvoiceRecords(ctx)
	if err != nil {
		return nil, err
	}
	packings, err := s.listPackingRecords(ctx)
	if err != nil {
		return nil, err
	}

	sets, err := recon.BuildDocumentSets(invoices, packings)
	if err != nil {
		return nil, mapReconErr(err)
	}

	if s.metrics != nil {
		s.metrics.ReconRuns.Inc()
		s.metrics.DocumentSets.Set(float64(len(sets)))
		for _, set := range sets {
			s.metrics.ReconExceptions.WithLabelValues(string(set.Exception)).Inc()
		}
	}
	return sets, nil
}

// ItemsMatch reconciles every invoice line item against the packing lists.
func (s *Service) ItemsMatch(ctx context.Context) ([]recon.LineItemRecord, error) {
	lineItems, err := s.store.ListLineItems(ctx)
	if err != nil {
		return nil, err
	}
	return s.matchLineItems(ctx, lineItems)
}

func (s *Service) matchLineItems(ctx context.Context, lineItems []store.LineItem) ([]recon.LineItemRecord, error) {
	invoices, err := s.listInvoiceRecords(ctx)
	if err != nil {
		return nil, err
	}
	packings, err := s.listPackingRecords(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]recon.LineItemRecord, 0, len(lineItems))
	for _, row := range lineItems {
		items = append(items, row.Record())
	}

	matched, err := recon.MatchLineItems(items, invoices, packings)
	if err != nil {
		return nil, mapReconErr(err)
	}
	return matched, nil
}

// mapReconErr turns a reconciliation validation failure into a client error;
// anything else passes through as a server fault.
func mapReconErr(err error) error {
	var validationErr *recon.ValidationError
	if errors.As(err, &validationErr) {
		return domainError(422, "INVALID_RECORD", validationErr.Message,
			map[string]any{"recordId": validationErr.RecordID})
	}
	return err
}

// StatsView carries the dashboard counters with formatted growth figures.
type StatsView struct {
	TotalInvoices  int    `json:"totalInvoices"`
	TotalPacking   int    `json:"totalPacking"`
	TotalDocuments int    `json:"totalDocuments"`
	UniqueVendors  int    `json:"uniqueVendors"`
	InvoiceGrowth  string `json:"invoiceGrowth"`
	PackingGrowth  string `json:"packingGrowth"`
	VendorGrowth   string `json:"vendorGrowth"`
	TotalGrowth    string `json:"totalGrowth"`
}

func (s *Service) DocumentStats(ctx context.Context) (StatsView, error) {
	stats, err := s.store.DocumentStats(ctx)
	if err != nil {
		return StatsView{}, err
	}

	if s.metrics != nil {
		s.metrics.Invoices.Set(float64(stats.TotalInvoices))
		s.metrics.PackingLists.Set(float64(stats.TotalPacking))
	}

	return StatsView{
		TotalInvoices:  stats.TotalInvoices,
		TotalPacking:   stats.TotalPacking,
		TotalDocuments: stats.TotalInvoices + stats.TotalPacking,
		UniqueVendors:  stats.UniqueVendors,
		InvoiceGrowth:  growthPercent(stats.MonthlyInvoices, stats.PrevMonthInvoices),
		PackingGrowth:  growthPercent(stats.MonthlyPacking, stats.PrevMonthPacking),
		VendorGrowth:   growthPercent(stats.MonthlyVendors, stats.PrevMonthVendors),
		TotalGrowth: growthPercent(
			stats.MonthlyInvoices+stats.MonthlyPacking,
			stats.PrevMonthInvoices+stats.PrevMonthPacking),
	}, nil
}

// growthPercent formats month-over-month growth as "+12.5%". A zero previous
// month reads as flat rather than infinite.
func growthPercent(current, previous int) string {
	if previous <= 0 {
		return "+0.0%"
	}
	growth := float64(current-previous) / float64(previous) * 100
	if growth >= 0 {
		return fmt.Sprintf("+%.1f%%", growth)
	}
	return fmt.Sprintf("%.1f%%", growth)
}

// ChartPointView is one day of the document-volume series.
type ChartPointView struct {
	Date          string `json:"date"`
	Invoices      int    `json:"invoices"`
	Packing       int    `json:"packing"`
	BillOfLadings int    `json:"billOfLandings"`
}

func (s *Service) ChartData(ctx context.Context) ([]ChartPointView, error) {
	points, err := s.store.DailyDocumentCounts(ctx, 90)
	if err != nil {
		return nil, err
	}
	views := make([]ChartPointView, 0, len(points))
	for _, point := range points {
		views = append(views, ChartPointView{
			Date:          point.Date.Format("2006-01-02"),
			Invoices:      point.Invoices,
			Packing:       point.Packing,
			BillOfLadings: point.BillsOfLading,
		})
	}
	return views, nil
}

// MonthlyTrendView is one month of document counts.
type MonthlyTrendView struct {
	Month        string `json:"month"`
	Invoices     int    `json:"invoices"`
	PackingLists int    `json:"packingLists"`
}

// VendorSliceView is one slice of the supplier distribution.
type VendorSliceView struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

func (s *Service) MonthlyTrends(ctx context.Context) ([]MonthlyTrendView, error) {
	trends, err := s.store.MonthlyTrends(ctx, 6)
	if err != nil {
		return nil, err
	}
	views := make([]MonthlyTrendView, 0, len(trends))
	for _, trend := range trends {
		views = append(views, MonthlyTrendView{
			Month:        trend.Month,
			Invoices:     trend.Invoices,
			PackingLists: trend.PackingLists,
		})
	}
	return views, nil
}

func (s *Service) VendorDistribution(ctx context.Context) ([]VendorSliceView, error) {
	vendors, err := s.store.VendorDistribution(ctx, 8)
	if err != nil {
		return nil, err
	}
	views := make([]VendorSliceView, 0, len(vendors))
	for _, vendor := range vendors {
		views = append(views, VendorSliceView{Name: vendor.Name, Value: vendor.Count})
	}
	return views, nil
}

// AuditEntryView is one audit-trail row.
type AuditEntryView struct {
	ID                string `json:"id"`
	Timestamp         string `json:"timestamp"`
	Action            string `json:"action"`
	ActionTitle       string `json:"actionTitle"`
	ActionDescription string `json:"actionDescription"`
	ActionContent     string `json:"actionContent"`
	PONumber          string `json:"poNumber"`
}

func (s *Service) AuditTrail(ctx context.Context, limit int) ([]AuditEntryView, error) {
	rows, err := s.store.ListAgentActions(ctx, limit)
	if err != nil {
		return nil, err
	}
	views := make([]AuditEntryView, 0, len(rows))
	for _, row := range rows {
		views = append(views, AuditEntryView{
			ID:                fmt.Sprintf("%d", row.ID),
			Timestamp:         row.CreatedAt.UTC().Format(time.RFC3339),
			Action:            defaultString(row.ActionKey, "UNKNOWN"),
			ActionTitle:       row.Title,
			ActionDescription: row.Description,
			ActionContent:     row.Content,
			PONumber:          row.PONumber,
		})
	}
	return views, nil
}

// CreateInvoiceInput is a manually entered invoice with positional item arrays.
type CreateInvoiceInput struct {
	InvoiceNo    string   `json:"invoice_no"`
	PONumber     string   `json:"purchase_order_no"`
	VendorName   string   `json:"vendor_name"`
	Currency     string   `json:"currency"`
	Source       string   `json:"source"`
	Organization string   `json:"organization"`
	ItemNo       []string `json:"item_no"`
	Quantity     []string `json:"quantity"`
	Price        []string `json:"price"`
}

func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (string, error) {
	if strings.TrimSpace(input.InvoiceNo) == "" {
		return "", domainError(400, "INVALID_INVOICE", "invoice_no is required", nil)
	}
	if len(input.ItemNo) != len(input.Quantity) {
		return "", domainError(400, "INVALID_INVOICE", "item_no and quantity must align", nil)
	}

	id, err := s.store.InsertInvoice(ctx, store.Invoice{
		InvoiceNo:    input.InvoiceNo,
		PONumber:     input.PONumber,
		VendorName:   input.VendorName,
		Currency:     defaultString(input.Currency, "USD"),
		Source:       defaultString(input.Source, "manual"),
		Organization: input.Organization,
		ItemCodes:    input.ItemNo,
		Quantities:   input.Quantity,
		Prices:       input.Price,
	})
	if err != nil {
		return "", err
	}

	idText := fmt.Sprintf("%d", id)

	// audit and search indexing are best effort
	_ = s.store.InsertAgentAction(ctx, store.AgentAction{
		PONumber:    input.PONumber,
		ActionKey:   "INVOICE_CREATED",
		Title:       "Invoice created",
		Description: fmt.Sprintf("Invoice %s entered manually", input.InvoiceNo),
	})
	if s.search != nil {
		s.search.IndexInvoice(search.InvoiceRecord{
			ID:        idText,
			InvoiceNo: input.InvoiceNo,
			PONumber:  input.PONumber,
			Vendor:    input.VendorName,
			Source:    defaultString(input.Source, "manual"),
		})
	}
	return idText, nil
}

// Notifications lists the stored notifications, newest first.
func (s *Service) Notifications(ctx context.Context) ([]notify.Notification, error) {
	if s.notifications == nil {
		return []notify.Notification{}, nil
	}
	return s.notifications.List(ctx)
}

func (s *Service) MarkNotificationRead(ctx context.Context, id string) error {
	if s.notifications == nil {
		return nil
	}
	if id == "" {
		return s.notifications.MarkAllRead(ctx)
	}
	return s.notifications.MarkRead(ctx, id)
}

// RefreshNotifications derives notifications from the current warehouse state
// and upserts them. The HTTP layer and the background poller both call this;
// deterministic IDs make the overlap harmless.
func (s *Service) RefreshNotifications(ctx context.Context) ([]notify.Notification, error) {
	if s.notifications == nil {
		return []notify.Notification{}, nil
	}

	invoices, err := s.listInvoiceRecords(ctx)
	if err != nil {
		return nil, err
	}
	packings, err := s.listPackingRecords(ctx)
	if err != nil {
		return nil, err
	}
	groups, err := recon.Group(invoices, packings)
	if err != nil {
		return nil, mapReconErr(err)
	}

	derived := notify.Build(notify.Snapshot{
		Groups:   groups,
		Invoices: invoices,
		Packings: packings,
		Now:      s.now(),
	})
	if err := s.notifications.Save(ctx, derived); err != nil {
		return nil, err
	}
	return s.notifications.List(ctx)
}

// Search runs a full-text query, or returns an empty response when search is
// not configured.
func (s *Service) Search(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text}
	}
	return s.search.Search(q)
}

// BuildReport implements export.ReportSource.
func (s *Service) BuildReport(ctx context.Context) (export.Report, error) {
	sets, err := s.DocumentSets(ctx)
	if err != nil {
		return export.Report{}, err
	}
	lineItems, err := s.ItemsMatch(ctx)
	if err != nil {
		return export.Report{}, err
	}
	return export.Report{
		GeneratedAt: s.now(),
		Sets:        sets,
		LineItems:   lineItems,
	}, nil
}

func (s *Service) listInvoices(ctx context.Context) ([]store.Invoice, error) {
	started := s.now()
	rows, err := s.store.ListInvoices(ctx)
	s.observeQuery(started)
	return rows, err
}

func (s *Service) listPackingLists(ctx context.Context) ([]store.PackingList, error) {
	started := s.now()
	rows, err := s.store.ListPackingLists(ctx)
	s.observeQuery(started)
	return rows, err
}

func (s *Service) listInvoiceRecords(ctx context.Context) ([]recon.InvoiceRecord, error) {
	rows, err := s.listInvoices(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]recon.InvoiceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	return records, nil
}

func (s *Service) listPackingRecords(ctx context.Context) ([]recon.PackingRecord, error) {
	rows, err := s.listPackingLists(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]recon.PackingRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	return records, nil
}

func (s *Service) observeQuery(started time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.QueryLatencySec.Observe(time.Since(started).Seconds())
}

func nonNilStrings(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
