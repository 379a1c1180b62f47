package ventra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	pkgerrors "github.com/rafaelduartes/salescope-backend/pkg/errors"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	client, err := NewClient("vt_test_token", WithBaseURL(baseURL), WithPacing(0, 0))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func salesPage(count int, current, last int, nextURL string) map[string]any {
	data := make([]map[string]any, 0, count)
	for i := 0; i < count; i++ {
		data = append(data, map[string]any{
			"transaction": fmt.Sprintf("tx-%d-%d", current, i),
			"product_key": "prod-1",
			"amount":      10.0,
			"status":      "approved",
			"date_sale":   "2025-03-10 12:00:00",
		})
	}
	return map[string]any{
		"data":          data,
		"current_page":  current,
		"last_page":     last,
		"next_page_url": nextURL,
	}
}

func TestFetchSalesWalksAllPages(t *testing.T) {
	var calls int32
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer vt_test_token" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		n := atomic.AddInt32(&calls, 1)
		switch r.URL.Query().Get("page") {
		case "1":
			_ = json.NewEncoder(w).Encode(salesPage(100, 1, 2, srv.URL+"/sales?page=2"))
		case "2":
			_ = json.NewEncoder(w).Encode(salesPage(40, 2, 2, ""))
		default:
			t.Errorf("unexpected call %d to page %q", n, r.URL.Query().Get("page"))
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	records, err := client.FetchSales(context.Background(), from, from.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("FetchSales: %v", err)
	}
	if len(records) != 140 {
		t.Fatalf("got %d records, want 140", len(records))
	}
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("issued %d HTTP calls, want 2", got)
	}
}

func TestFetchSalesStopsOnEmptyPageDespiteNextPointer(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_ = json.NewEncoder(w).Encode(salesPage(0, 1, 99, "https://example.com/sales?page=2"))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	records, err := client.FetchSales(context.Background(), from, from.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("FetchSales: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("got %d records, want 0", len(records))
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("issued %d HTTP calls, want 1", got)
	}
}

func TestFetchSalesReturnsPartialResultsOnMidFetchFailure(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			_ = json.NewEncoder(w).Encode(salesPage(100, 1, 3, srv.URL+"/sales?page=2"))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	records, err := client.FetchSales(context.Background(), from, from.AddDate(0, 1, 0))
	if err != nil {
		t.Fatalf("expected partial results without error, got %v", err)
	}
	if len(records) != 100 {
		t.Fatalf("got %d records, want the 100 accumulated before the failure", len(records))
	}
}

func TestFetchSalesRaisesWhenNothingAccumulated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if _, err := client.FetchSales(context.Background(), from, from.AddDate(0, 1, 0)); err == nil {
		t.Fatal("expected error when no records were retrieved")
	}
}

func TestFetchAbandonsSendsBothDateBounds(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("date_min") == "" || q.Get("date_max") == "" {
			t.Errorf("missing date bounds in query %q", r.URL.RawQuery)
		}
		if _, err := time.Parse("2006-01-02 15:04:05", q.Get("date_min")); err != nil {
			t.Errorf("date_min %q is not in gateway format: %v", q.Get("date_min"), err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{
				{"id": "ab-1", "cli_email": "legacy@example.com", "amount": 49.9, "date_abandon": "2025-03-10 08:00:00"},
			},
			"current_page": 1,
			"last_page":    1,
		})
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	records, err := client.FetchAbandons(context.Background(), from, from.AddDate(0, 0, 15))
	if err != nil {
		t.Fatalf("FetchAbandons: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	if records[0].ClientEmail != "legacy@example.com" {
		t.Fatalf("unexpected email %q", records[0].ClientEmail)
	}
	if records[0].AmountCents != 4990 {
		t.Fatalf("unexpected amount %d", records[0].AmountCents)
	}
}

func TestFetchProductsCombinesListingVariants(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var hash string
		switch r.URL.Path {
		case "/products":
			hash = "own-1"
		case "/products/co-productions":
			hash = "co-1"
		case "/affiliates/products":
			hash = "aff-1"
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data":         []map[string]any{{"hash": hash, "name": "Course", "price": 100.0}},
			"current_page": 1,
			"last_page":    1,
		})
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	records, err := client.FetchProducts(context.Background())
	if err != nil {
		t.Fatalf("FetchProducts: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records, want 3", len(records))
	}
	roles := map[string]ProductRole{}
	for _, r := range records {
		roles[r.ProductHash] = r.Role
	}
	if roles["own-1"] != ProductRoleProducer || roles["co-1"] != ProductRoleCoProducer || roles["aff-1"] != ProductRoleAffiliate {
		t.Fatalf("unexpected role assignment %v", roles)
	}
}

func TestTestConnectionRejectsBadCredential(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)
	err := client.TestConnection(context.Background())
	if err == nil {
		t.Fatal("expected error for rejected credential")
	}
	if appErr := pkgerrors.As(err); appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized code, got %v", err)
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient("   "); err == nil {
		t.Fatal("expected error for blank token")
	}
}
