package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fairyhunter13/marketplace-price-sync/internal/config"
	"github.com/fairyhunter13/marketplace-price-sync/internal/model"
)

func testClient(debug bool) *Client {
	return NewClient(5*time.Second, debug, nil)
}

func wbRow(nmID, price, discount string) model.Row {
	return model.Row{"nmID": nmID, "t_price": price, "discount": discount, "disc_old": "10"}
}

func TestWildberriesPushPayload(t *testing.T) {
	var got struct {
		Data []wbGood `json:"data"`
	}
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"error":false}`))
	}))
	defer srv.Close()

	wb := NewWildberries(testClient(false), config.WBCredentials{APIKey: "key-1"})
	wb.BaseURL = srv.URL
	rows := []model.Row{
		wbRow("244833098", "3599", "45"),
		wbRow("not-a-number", "100", "5"), // skipped
		wbRow("7", "100", "bad"),          // discount falls back to disc_old
	}
	if err := wb.Push(context.Background(), rows); err != nil {
		t.Fatalf("push: %v", err)
	}
	if auth != "key-1" {
		t.Fatalf("authorization header: %q", auth)
	}
	if len(got.Data) != 2 {
		t.Fatalf("expected 2 goods, got %d", len(got.Data))
	}
	if got.Data[0].NmID != 244833098 || got.Data[0].Price != 3599 || got.Data[0].Discount != 45 {
		t.Fatalf("first good: %+v", got.Data[0])
	}
	if got.Data[1].Discount != 10 {
		t.Fatalf("discount fallback: %+v", got.Data[1])
	}
}

func TestWildberriesPushAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":true,"errorText":"все сломалось"}`))
	}))
	defer srv.Close()

	wb := NewWildberries(testClient(false), config.WBCredentials{APIKey: "k"})
	wb.BaseURL = srv.URL
	err := wb.Push(context.Background(), []model.Row{wbRow("1", "100", "0")})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestWildberriesPushHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	wb := NewWildberries(testClient(false), config.WBCredentials{APIKey: "k"})
	wb.BaseURL = srv.URL
	err := wb.Push(context.Background(), []model.Row{wbRow("1", "100", "0")})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected on status 401, got %v", err)
	}
}

func TestMegamarketPushPayload(t *testing.T) {
	var got struct {
		Data struct {
			Token  string    `json:"token"`
			Prices []mmPrice `json:"prices"`
		} `json:"data"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	mm := NewMegamarket(testClient(false), config.MMCredentials{Token: "tok"})
	mm.BaseURL = srv.URL
	rows := []model.Row{{"seller_id": "103616", "t_price": "2790"}}
	if err := mm.Push(context.Background(), rows); err != nil {
		t.Fatalf("push: %v", err)
	}
	if got.Data.Token != "tok" {
		t.Fatalf("token in body: %q", got.Data.Token)
	}
	if len(got.Data.Prices) != 1 || got.Data.Prices[0].OfferID != "103616" || got.Data.Prices[0].Price != 2790 {
		t.Fatalf("prices: %+v", got.Data.Prices)
	}
	if got.Data.Prices[0].IsDeleted {
		t.Fatalf("isDeleted must be false")
	}
}

func TestYandexMarketPushPayload(t *testing.T) {
	var got struct {
		Offers []ymOffer `json:"offers"`
	}
	var path, apiKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		apiKey = r.Header.Get("Api-Key")
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &got); err != nil {
			t.Errorf("bad payload: %v", err)
		}
		_, _ = w.Write([]byte(`{"status":"OK"}`))
	}))
	defer srv.Close()

	ym := NewYandexMarket(testClient(false), config.YandexCredentials{APIKey: "yk", BusinessID: "42"})
	ym.BaseURL = srv.URL
	rows := []model.Row{{"offer_id": "sku-9", "t_price": "1500", "discount_base": "2000"}}
	if err := ym.Push(context.Background(), rows); err != nil {
		t.Fatalf("push: %v", err)
	}
	if path != "/businesses/42/offer-prices/updates" {
		t.Fatalf("path: %s", path)
	}
	if apiKey != "yk" {
		t.Fatalf("api key header: %q", apiKey)
	}
	if len(got.Offers) != 1 {
		t.Fatalf("offers: %+v", got.Offers)
	}
	o := got.Offers[0]
	if o.OfferID != "sku-9" || o.Price.Value != 1500 || o.Price.CurrencyID != "RUR" || o.Price.DiscountBase != 2000 {
		t.Fatalf("offer: %+v", o)
	}
}

func TestOzonPushRejectedResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Client-Id") != "cid" || r.Header.Get("Api-Key") != "ak" {
			t.Errorf("missing auth headers")
		}
		_, _ = w.Write([]byte(`{"result":[{"product_id":1,"updated":false,"errors":[{"code":"x","message":"bad"}]}]}`))
	}))
	defer srv.Close()

	oz := NewOzon(testClient(false), config.OzonCredentials{APIKey: "ak", ClientID: "cid"})
	oz.BaseURL = srv.URL
	rows := []model.Row{{"offer_id": "s1", "product_id": "1", "t_price": "100", "old_price": "90", "min_price": "80"}}
	err := oz.Push(context.Background(), rows)
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestDebugModeSkipsSend(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	wb := NewWildberries(testClient(true), config.WBCredentials{APIKey: "k"})
	wb.BaseURL = srv.URL
	err := wb.Push(context.Background(), []model.Row{wbRow("1", "100", "0")})
	if !errors.Is(err, ErrRejected) {
		t.Fatalf("debug push must report rejection, got %v", err)
	}
	if called {
		t.Fatalf("debug mode must not call the API")
	}
}

func TestParseIntVariants(t *testing.T) {
	for raw, want := range map[string]int64{"3599": 3599, "3599.0": 3599, "3599,9": 3599, " 7 ": 7} {
		got, err := parseInt(raw)
		if err != nil {
			t.Fatalf("%q: %v", raw, err)
		}
		if got != want {
			t.Fatalf("%q: got %d want %d", raw, got, want)
		}
	}
	if _, err := parseInt("abc"); err == nil {
		t.Fatalf("expected error for non-numeric")
	}
}

func TestForTenantOrder(t *testing.T) {
	tn := config.Tenant{
		UserID: "u", SpreadsheetID: "s", MarketName: "m",
		Wildberries: &config.WBCredentials{APIKey: "k", Range: "r2"},
		Ozon:        &config.OzonCredentials{APIKey: "k", ClientID: "c", Range: "r1"},
	}
	targets := ForTenant(testClient(false), tn)
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if targets[0].Pusher.Name() != "ozon" || targets[1].Pusher.Name() != "wb" {
		t.Fatalf("fixed order broken: %s, %s", targets[0].Pusher.Name(), targets[1].Pusher.Name())
	}
	if targets[0].Range != "r1" {
		t.Fatalf("range wiring: %s", targets[0].Range)
	}
}
