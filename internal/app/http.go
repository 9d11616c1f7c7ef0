package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"docflow/api/internal/auth"
	"docflow/api/internal/export"
	"docflow/api/internal/recon"
	"docflow/api/internal/search"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
	metrics    httpMetrics
}

type httpMetrics interface {
	ObserveRequest(path string, status int)
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

// WithMetrics attaches a request counter to the middleware.
func (s *HTTPServer) WithMetrics(m httpMetrics) *HTTPServer {
	s.metrics = m
	return s
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		s.handleReady(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/api/session/login" {
		var body struct {
			Name string `json:"name"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		session, err := s.service.Login(r.Context(), body.Name)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"token":     session.Token,
			"userName":  session.UserName,
			"userId":    session.UserID,
			"expiresAt": session.ExpiresAt.Unix(),
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		token := bearerToken(r)
		if token == "" {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		session, err := s.service.SessionFromToken(r.Context(), token)
		if err != nil {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"userName":      session.UserName,
			"userId":        session.UserID,
		})
		return
	}

	if _, ok := s.requireSession(w, r); !ok {
		return
	}

	switch {
	case r.URL.Path == "/api/invoices" && r.Method == http.MethodGet:
		items, err := s.service.Invoices(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return

	case r.URL.Path == "/api/invoices" && r.Method == http.MethodPost:
		var body CreateInvoiceInput
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		id, err := s.service.CreateInvoice(r.Context(), body)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"id": id})
		return

	case r.URL.Path == "/api/packing" && r.Method == http.MethodGet:
		items, err := s.service.PackingLists(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return

	case r.URL.Path == "/api/invoice-items" && r.Method == http.MethodGet:
		items, err := s.service.InvoiceItems(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return

	case r.URL.Path == "/api/bill-of-ladings" && r.Method == http.MethodGet:
		items, err := s.service.BillsOfLading(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return

	case r.URL.Path == "/api/document-sets" && r.Method == http.MethodGet:
		sets, err := s.service.DocumentSets(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, sets)
		return

	case r.URL.Path == "/api/items-match" && r.Method == http.MethodGet:
		items, err := s.service.ItemsMatch(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		if po := strings.TrimSpace(r.URL.Query().Get("documentSet")); po != "" {
			filtered := items[:0:0]
			for _, item := range items {
				if item.PONumber == po {
					filtered = append(filtered, item)
				}
			}
			items = filtered
		}
		writeJSON(w, http.StatusOK, itemMatchViews(items))
		return

	case r.URL.Path == "/api/document-stats" && r.Method == http.MethodGet:
		stats, err := s.service.DocumentStats(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, stats)
		return

	case r.URL.Path == "/api/chart-data" && r.Method == http.MethodGet:
		points, err := s.service.ChartData(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, points)
		return

	case r.URL.Path == "/api/analytics" && r.Method == http.MethodGet:
		s.handleAnalytics(w, r)
		return

	case r.URL.Path == "/api/audit-trail" && r.Method == http.MethodGet:
		limit := 50
		if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
				limit = parsed
			}
		}
		entries, err := s.service.AuditTrail(r.Context(), limit)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, entries)
		return

	case r.URL.Path == "/api/notifications" && r.Method == http.MethodGet:
		items, err := s.service.Notifications(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return

	case r.URL.Path == "/api/notifications/refresh" && r.Method == http.MethodPost:
		items, err := s.service.RefreshNotifications(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, items)
		return

	case r.URL.Path == "/api/notifications/read" && r.Method == http.MethodPost:
		var body struct {
			ID string `json:"id"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		if err := s.service.MarkNotificationRead(r.Context(), strings.TrimSpace(body.ID)); err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return

	case r.URL.Path == "/api/search" && r.Method == http.MethodGet:
		s.handleSearch(w, r)
		return

	case r.URL.Path == "/api/analyst" && r.Method == http.MethodPost:
		s.handleAnalyst(w, r)
		return

	case r.URL.Path == "/api/report/export" && (r.Method == http.MethodGet || r.Method == http.MethodPost):
		s.handleReportExport(w, r)
		return
	}

	parts := splitPath(r.URL.Path)
	if len(parts) == 3 && parts[0] == "api" && parts[1] == "pdf" {
		s.handlePDF(w, r, parts[2])
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

func (s *HTTPServer) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	statusCode := http.StatusOK
	checks := map[string]any{
		"database": map[string]any{"status": "ok"},
	}

	if err := s.service.Ping(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["database"] = map[string]any{"status": "error", "error": err.Error()}
	}

	if err := s.service.PingNotifications(ctx); err != nil {
		status = "not_ready"
		statusCode = http.StatusServiceUnavailable
		checks["notifications"] = map[string]any{"status": "error", "error": err.Error()}
	}

	if fingerprint := s.service.WarehouseFingerprint(); fingerprint != "" {
		checks["warehouse"] = map[string]any{"status": "ok", "fingerprint": fingerprint}
	}

	writeJSON(w, statusCode, map[string]any{
		"ok":     status == "ready",
		"status": status,
		"checks": checks,
	})
}

func (s *HTTPServer) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	chart := strings.TrimSpace(r.URL.Query().Get("chart"))
	switch chart {
	case "monthly-trends":
		trends, err := s.service.MonthlyTrends(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, trends)
	case "vendor-distribution":
		vendors, err := s.service.VendorDistribution(r.Context())
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusOK, vendors)
	default:
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "chart must be 'monthly-trends' or 'vendor-distribution'", nil)
	}
}

func (s *HTTPServer) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	filterType := strings.TrimSpace(r.URL.Query().Get("type"))
	limit := 20
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "limit must be an integer", nil)
			return
		}
		limit = parsed
	}
	offset := 0
	if raw := strings.TrimSpace(r.URL.Query().Get("offset")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "offset must be an integer", nil)
			return
		}
		offset = parsed
	}

	payload := s.service.Search(search.Query{
		Text:       q,
		FilterType: search.ResultType(filterType),
		Limit:      limit,
		Offset:     offset,
	})
	writeJSON(w, http.StatusOK, payload)
}

func (s *HTTPServer) handleAnalyst(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Message string `json:"message"`
	}
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	answer, err := s.service.AskAnalyst(r.Context(), body.Message)
	if err != nil {
		var domainErr *DomainError
		if errors.As(err, &domainErr) {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		// Upstream hiccups degrade to a canned answer so the dashboard
		// chat stays usable.
		log.Printf(`{"event":"analyst_error","error":%q}`, err.Error())
		writeJSON(w, http.StatusOK, map[string]any{
			"response": "I'm analyzing your request. Please ensure the warehouse analyst is properly configured.",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"response": answer})
}

func (s *HTTPServer) handleReportExport(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Format           string `json:"format"`
		Title            string `json:"title"`
		IncludeLineItems bool   `json:"includeLineItems"`
	}
	if r.Method == http.MethodGet {
		body.Format = strings.TrimSpace(r.URL.Query().Get("format"))
		body.Title = strings.TrimSpace(r.URL.Query().Get("title"))
		body.IncludeLineItems = r.URL.Query().Get("lineItems") == "true"
	} else if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}

	format := export.Format(body.Format)
	if format != export.FormatPDF && format != export.FormatXLSX {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "format must be 'pdf' or 'xlsx'", nil)
		return
	}

	result, err := s.service.ExportReport(r.Context(), export.Request{
		Format:           format,
		Title:            body.Title,
		IncludeLineItems: body.IncludeLineItems,
	})
	if err != nil {
		status, code, message, details := mapError(err)
		writeError(w, status, code, message, details)
		return
	}

	w.Header().Set("Content-Disposition", "attachment; filename=\""+result.Filename+"\"")
	w.Header().Set("Content-Type", result.MimeType)
	w.Write(result.Data)
}

// handlePDF serves the stored source documents. GET streams a file through a
// short-lived link, POST accepts an upload.
func (s *HTTPServer) handlePDF(w http.ResponseWriter, r *http.Request, filename string) {
	docs := s.service.Docs()
	if docs == nil {
		writeError(w, http.StatusServiceUnavailable, "STORAGE_UNAVAILABLE", "Document storage not configured", nil)
		return
	}
	if filename == "" || strings.Contains(filename, "/") || strings.Contains(filename, "..") {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "invalid filename", nil)
		return
	}

	if r.Method == http.MethodGet {
		url, err := docs.PresignedURL(r.Context(), filename)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		http.Redirect(w, r, url, http.StatusFound)
		return
	}

	if r.Method == http.MethodPost {
		defer r.Body.Close()
		contentType := r.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "application/pdf"
		}
		meta, err := docs.Upload(r.Context(), filename, r.Body, r.ContentLength, contentType)
		if err != nil {
			status, code, message, details := mapError(err)
			writeError(w, status, code, message, details)
			return
		}
		writeJSON(w, http.StatusCreated, meta)
		return
	}

	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
}

// itemMatchView is the item-match endpoint shape, line item plus outcome.
type itemMatchView struct {
	ID             string `json:"id"`
	PONumber       string `json:"poNumber"`
	ItemCode       string `json:"itemCode"`
	Quantity       string `json:"quantity"`
	UnitPrice      string `json:"unitPrice"`
	LineAmount     string `json:"lineAmount"`
	InvoiceNo      string `json:"invoiceNo"`
	VendorName     string `json:"vendorName"`
	MatchStatus    string `json:"matchStatus"`
	MismatchReason string `json:"mismatchReason,omitempty"`
	MatchPL        bool   `json:"matchPL"`
}

func itemMatchViews(items []recon.LineItemRecord) []itemMatchView {
	views := make([]itemMatchView, 0, len(items))
	for _, item := range items {
		views = append(views, itemMatchView{
			ID:             item.ID,
			PONumber:       item.PONumber,
			ItemCode:       item.ItemCode,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			LineAmount:     item.LineAmount,
			InvoiceNo:      item.InvoiceNo,
			VendorName:     item.VendorName,
			MatchStatus:    string(item.MatchStatus),
			MismatchReason: item.MismatchReason,
			MatchPL:        item.MatchPL,
		})
	}
	return views
}

func (s *HTTPServer) requireSession(w http.ResponseWriter, r *http.Request) (Session, bool) {
	token := bearerToken(r)
	if token == "" {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return Session{}, false
	}
	session, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		if errors.Is(err, auth.ErrExpiredToken) || errors.Is(err, auth.ErrInvalidToken) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return Session{}, false
		}
		writeError(w, http.StatusInternalServerError, "SERVER_ERROR", "Session lookup failed", nil)
		return Session{}, false
	}
	return session, true
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		if s.metrics != nil {
			s.metrics.ObserveRequest(r.URL.Path, writer.status)
		}

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
