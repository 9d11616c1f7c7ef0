package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"docflow/api/internal/store"
)

func loginToken(t *testing.T, svc *Service) string {
	t.Helper()
	session, err := svc.Login(context.Background(), "Test User")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return session.Token
}

func authedRequest(method, target, token string, body string) *http.Request {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func TestDataRoutesRequireAuth(t *testing.T) {
	svc := newTestService(&fakeWarehouse{})
	handler := NewHTTPServer(svc, "*").Handler()

	for _, path := range []string{
		"/api/invoices",
		"/api/packing",
		"/api/invoice-items",
		"/api/document-sets",
		"/api/document-stats",
		"/api/notifications",
	} {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s without a token: expected 401, got %d", path, rr.Code)
		}
	}
}

func TestSessionEndpointWithoutToken(t *testing.T) {
	svc := newTestService(&fakeWarehouse{})
	handler := NewHTTPServer(svc, "*").Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if response["authenticated"] != false {
		t.Errorf("expected authenticated=false, got %v", response["authenticated"])
	}
}

func TestLoginAndSessionFlow(t *testing.T) {
	svc := newTestService(&fakeWarehouse{})
	handler := NewHTTPServer(svc, "*").Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/session/login",
		strings.NewReader(`{"name":"Grace"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d (%s)", rr.Code, rr.Body.String())
	}
	var loginResp struct {
		Token    string `json:"token"`
		UserName string `json:"userName"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &loginResp); err != nil {
		t.Fatalf("parse login response: %v", err)
	}
	if loginResp.Token == "" || loginResp.UserName != "Grace" {
		t.Fatalf("unexpected login response %+v", loginResp)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/session", loginResp.Token, ""))

	var sessionResp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &sessionResp); err != nil {
		t.Fatalf("parse session response: %v", err)
	}
	if sessionResp["authenticated"] != true || sessionResp["userName"] != "Grace" {
		t.Errorf("unexpected session response %v", sessionResp)
	}
}

func TestInvoicesEndpointShape(t *testing.T) {
	fw := &fakeWarehouse{
		listInvoicesFn: func(context.Context) ([]store.Invoice, error) {
			return []store.Invoice{{
				ID:         1,
				InvoiceNo:  "INV-1",
				PONumber:   "PO-1",
				VendorName: "ACME",
				ItemCodes:  []string{"W1"},
				Quantities: []string{"10"},
				Prices:     []string{"2.50"},
				CreatedAt:  time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			}}, nil
		},
	}
	svc := newTestService(fw)
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/invoices", token, ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var items []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 invoice, got %d", len(items))
	}
	item := items[0]
	for _, key := range []string{"id", "invoice_no", "vendor_name", "purchase_order_no", "item_no", "quantity", "price", "currency", "created_at", "type", "total_amount"} {
		if _, ok := item[key]; !ok {
			t.Errorf("missing key %q in invoice payload", key)
		}
	}
	if item["purchase_order_no"] != "PO-1" {
		t.Errorf("unexpected purchase_order_no %v", item["purchase_order_no"])
	}
}

func TestCreateInvoiceEndpoint(t *testing.T) {
	fw := &fakeWarehouse{
		insertInvoiceFn: func(_ context.Context, inv store.Invoice) (int64, error) {
			if inv.InvoiceNo != "INV-55" {
				t.Errorf("unexpected invoice %+v", inv)
			}
			return 55, nil
		},
	}
	svc := newTestService(fw)
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/invoices", token,
		`{"invoice_no":"INV-55","purchase_order_no":"PO-55","item_no":["W1"],"quantity":["4"],"price":["9.99"]}`))

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d (%s)", rr.Code, rr.Body.String())
	}
	var resp map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if resp["id"] != "55" {
		t.Errorf("expected id 55, got %v", resp["id"])
	}
}

func TestAnalyticsEndpointValidation(t *testing.T) {
	svc := newTestService(&fakeWarehouse{})
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/analytics?chart=bogus", token, ""))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for an unknown chart, got %d", rr.Code)
	}
}

func TestAnalyticsMonthlyTrends(t *testing.T) {
	fw := &fakeWarehouse{
		monthlyTrendsFn: func(_ context.Context, months int) ([]store.MonthlyTrend, error) {
			if months != 6 {
				t.Errorf("expected a 6 month window, got %d", months)
			}
			return []store.MonthlyTrend{{Month: "Mar 2026", Invoices: 4, PackingLists: 3}}, nil
		},
	}
	svc := newTestService(fw)
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/analytics?chart=monthly-trends", token, ""))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var trends []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &trends); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(trends) != 1 || trends[0]["month"] != "Mar 2026" {
		t.Errorf("unexpected trends %v", trends)
	}
}

func TestItemsMatchEndpoint(t *testing.T) {
	fw := reconFixture()
	fw.listLineItemsFn = func(context.Context) ([]store.LineItem, error) {
		return []store.LineItem{{ID: 1, PONumber: "PO-A", ItemCode: "W1", Quantity: "10"}}, nil
	}
	svc := newTestService(fw)
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/items-match", token, ""))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var items []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if items[0]["matchStatus"] != "match" || items[0]["matchPL"] != true {
		t.Errorf("unexpected match payload %v", items[0])
	}
}

func TestItemsMatchDocumentSetFilter(t *testing.T) {
	fw := reconFixture()
	fw.listLineItemsFn = func(context.Context) ([]store.LineItem, error) {
		return []store.LineItem{
			{ID: 1, PONumber: "PO-A", ItemCode: "W1", Quantity: "10"},
			{ID: 2, PONumber: "PO-B", ItemCode: "W2", Quantity: "5"},
		}, nil
	}
	svc := newTestService(fw)
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/items-match?documentSet=PO-B", token, ""))

	var items []map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &items); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if len(items) != 1 || items[0]["poNumber"] != "PO-B" {
		t.Errorf("expected only PO-B items, got %v", items)
	}
}

func TestNotificationsReadEndpoint(t *testing.T) {
	ns := &fakeNotificationStore{}
	svc := newTestService(&fakeWarehouse{}).WithNotifications(ns)
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/notifications/read", token, `{"id":"n-1"}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if len(ns.markedRead) != 1 || ns.markedRead[0] != "n-1" {
		t.Errorf("expected n-1 marked read, got %v", ns.markedRead)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/notifications/read", token, `{}`))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !ns.markedAll {
		t.Error("blank id should mark everything read")
	}
}

func TestReportExportValidation(t *testing.T) {
	svc := newTestService(&fakeWarehouse{})
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/report/export", token, `{"format":"docx"}`))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for an unsupported format, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/report/export?format=csv", token, ""))
	if rr.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for an unsupported query format, got %d", rr.Code)
	}
}

func TestPDFRouteWithoutStorage(t *testing.T) {
	svc := newTestService(&fakeWarehouse{})
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/pdf/invoice_001.pdf", token, ""))
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 when storage is not configured, got %d", rr.Code)
	}
}

func TestUnknownRouteReturns404(t *testing.T) {
	svc := newTestService(&fakeWarehouse{})
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodGet, "/api/nope", token, ""))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rr.Code)
	}

	var response map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if response["code"] != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %v", response["code"])
	}
}

func TestCORSAndRequestIDHeaders(t *testing.T) {
	svc := newTestService(&fakeWarehouse{})
	handler := NewHTTPServer(svc, "https://dashboard.example.com").Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if origin := rr.Header().Get("Access-Control-Allow-Origin"); origin != "https://dashboard.example.com" {
		t.Errorf("unexpected CORS origin %q", origin)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected a generated request id")
	}
}

func TestAnalystEndpoint(t *testing.T) {
	svc := newTestService(&fakeWarehouse{}).WithAnalyst(&fakeAnalyst{
		askFn: func(_ context.Context, message string) (string, error) {
			if message != "top vendor this month?" {
				t.Errorf("unexpected message %q", message)
			}
			return "Acme Supply Co leads with 14 invoices.", nil
		},
	})
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/analyst", token,
		`{"message":"top vendor this month?"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	var response map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if response["response"] != "Acme Supply Co leads with 14 invoices." {
		t.Errorf("unexpected response %q", response["response"])
	}
}

func TestAnalystEndpointRequiresAuth(t *testing.T) {
	svc := newTestService(&fakeWarehouse{})
	handler := NewHTTPServer(svc, "*").Handler()

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/analyst", "",
		`{"message":"anything"}`))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func TestAnalystEndpointUnconfigured(t *testing.T) {
	svc := newTestService(&fakeWarehouse{})
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/analyst", token,
		`{"message":"anything"}`))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without an analyst backend, got %d", rr.Code)
	}
}

func TestAnalystEndpointUpstreamFailureFallback(t *testing.T) {
	svc := newTestService(&fakeWarehouse{}).WithAnalyst(&fakeAnalyst{
		askFn: func(context.Context, string) (string, error) {
			return "", errors.New("analyst returned 502: bad gateway")
		},
	})
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/analyst", token,
		`{"message":"anything"}`))

	if rr.Code != http.StatusOK {
		t.Fatalf("upstream failures should degrade to 200, got %d", rr.Code)
	}
	var response map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if !strings.Contains(response["response"], "analyzing your request") {
		t.Errorf("expected the canned fallback answer, got %q", response["response"])
	}
}

func TestAnalystEndpointRejectsBlankMessage(t *testing.T) {
	svc := newTestService(&fakeWarehouse{}).WithAnalyst(&fakeAnalyst{
		askFn: func(context.Context, string) (string, error) { return "unused", nil },
	})
	handler := NewHTTPServer(svc, "*").Handler()
	token := loginToken(t, svc)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, authedRequest(http.MethodPost, "/api/analyst", token, `{"message":"  "}`))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a blank message, got %d", rr.Code)
	}
}
