package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/marketplace-price-sync/internal/auditlog"
	"github.com/fairyhunter13/marketplace-price-sync/internal/config"
	"github.com/fairyhunter13/marketplace-price-sync/internal/model"
	"github.com/fairyhunter13/marketplace-price-sync/internal/store"
)

func setupApp(t *testing.T) (*App, *store.Store, http.Handler) {
	t.Helper()
	cfg := config.Load()
	cfg.DataDir = t.TempDir()
	st := store.New()
	tenants := []config.Tenant{
		{UserID: "u1", SpreadsheetID: "s1", MarketName: "Магазин", Wildberries: &config.WBCredentials{APIKey: "k", Range: "wb!A1:F"}},
	}
	app := NewApp(cfg, st, tenants)
	mux := NewRouter(app)
	return app, st, mux
}

func TestHealthzOK(t *testing.T) {
	_, _, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected request id header")
	}
}

func TestStatusListsCycles(t *testing.T) {
	_, st, mux := setupApp(t)
	st.Record(store.CycleResult{UserID: "u1", Marketplace: "wb", RowsChanged: 2, PushOK: true})
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var resp struct {
		Cycles []store.CycleResult `json:"cycles"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Cycles) != 1 || resp.Cycles[0].Marketplace != "wb" {
		t.Fatalf("unexpected cycles: %+v", resp.Cycles)
	}
}

func TestUserStatusUnknownTenant(t *testing.T) {
	_, _, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/status/nobody", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestUserStatusKnownTenant(t *testing.T) {
	_, st, mux := setupApp(t)
	st.Record(store.CycleResult{UserID: "u1", Marketplace: "wb"})
	req := httptest.NewRequest(http.MethodGet, "/status/u1", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte(`"user_id":"u1"`)) {
		t.Fatalf("expected user id in body: %s", rr.Body.String())
	}
}

func TestAuditServedNewestFirst(t *testing.T) {
	app, _, mux := setupApp(t)
	path := auditlog.DBPath(app.Cfg.DataDir, "u1", "Магазин_wb")
	as, err := auditlog.Open(path)
	if err != nil {
		t.Fatalf("open audit: %v", err)
	}
	if err := as.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema: %v", err)
	}
	for i, note := range []string{"первая", "вторая"} {
		e := model.AuditEntry{
			Timestamp:     time.Date(2024, 5, 1, 10, i, 0, 0, time.UTC),
			ID:            "1",
			ProductID:     "244833098",
			NewPrice:      decimal.NewNullDecimal(decimal.NewFromInt(int64(100 + i))),
			Note:          note,
			ChangeApplied: true,
		}
		if err := as.Append(context.Background(), e); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	as.Close()

	req := httptest.NewRequest(http.MethodGet, "/audit/u1/wb?limit=1", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.Contains(body, "вторая") || strings.Contains(body, "первая") {
		t.Fatalf("expected only newest entry, got %s", body)
	}
}

func TestAuditMissingLogIs404(t *testing.T) {
	_, _, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/audit/u1/ozon", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestAuditBadLimit(t *testing.T) {
	_, _, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/audit/u1/wb?limit=zero", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestMetricsHandler(t *testing.T) {
	_, st, mux := setupApp(t)
	st.Record(store.CycleResult{UserID: "u1", Marketplace: "wb", RowsChanged: 3, Merged: true})
	st.Record(store.CycleResult{UserID: "u1", Marketplace: "ozon", Error: "boom"})
	req := httptest.NewRequest(http.MethodGet, "/debug/metrics", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var m map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &m); err != nil {
		t.Fatalf("metrics json decode: %v", err)
	}
	if m["cycles_ok"].(float64) != 1 || m["cycles_failed"].(float64) != 1 {
		t.Fatalf("unexpected counters: %v", m)
	}
	if m["rows_changed"].(float64) != 3 {
		t.Fatalf("unexpected rows_changed: %v", m)
	}
}

func TestOpenAPIServed(t *testing.T) {
	_, _, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !bytes.Contains(rr.Body.Bytes(), []byte("openapi:")) {
		t.Fatalf("expected openapi content")
	}
}

func TestDocsServed(t *testing.T) {
	_, _, mux := setupApp(t)
	req := httptest.NewRequest(http.MethodGet, "/docs", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "swagger-ui") {
		t.Fatalf("expected swagger-ui in docs body")
	}
}
