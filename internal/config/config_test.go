package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	if cfg.HTTPAddr != ":8080" {
		t.Fatalf("default addr: %s", cfg.HTTPAddr)
	}
	if cfg.DataDir != "databases" {
		t.Fatalf("default data dir: %s", cfg.DataDir)
	}
	if cfg.Debug {
		t.Fatalf("debug must default to false")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("SHUTDOWN_TIMEOUT", "5")
	t.Setenv("DEBUG", "true")
	cfg := Load()
	if cfg.HTTPAddr != ":9999" {
		t.Fatalf("addr override: %s", cfg.HTTPAddr)
	}
	if cfg.ShutdownTimeout != 5*time.Second {
		t.Fatalf("timeout override: %v", cfg.ShutdownTimeout)
	}
	if !cfg.Debug {
		t.Fatalf("debug override lost")
	}
}

func TestLoadInvalidEnvFallsBack(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-number")
	t.Setenv("DEBUG", "not-a-bool")
	cfg := Load()
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Fatalf("expected default timeout, got %v", cfg.ShutdownTimeout)
	}
	if cfg.Debug {
		t.Fatalf("expected default debug")
	}
}

func writeTenants(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tenants.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write tenants: %v", err)
	}
	return path
}

const validTenants = `
tenants:
  - user_id: shop-1
    spreadsheet_id: sheet-abc
    market_name: Мой Магазин
    user_email: owner@example.com
    ozon:
      api_key: k1
      client_id: c1
      range: "Лист1!A1:L100"
    wildberries:
      api_key: k2
      range: "Лист2!A1:L100"
`

func TestLoadTenants(t *testing.T) {
	tenants, err := LoadTenants(writeTenants(t, validTenants))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(tenants) != 1 {
		t.Fatalf("expected 1 tenant, got %d", len(tenants))
	}
	tn := tenants[0]
	if tn.Interval() != 5*time.Minute {
		t.Fatalf("interval default: %v", tn.Interval())
	}
	if tn.Ozon == nil || tn.Ozon.ClientID != "c1" {
		t.Fatalf("ozon block: %+v", tn.Ozon)
	}
	if tn.YandexMarket != nil || tn.Megamarket != nil {
		t.Fatalf("absent blocks must stay nil")
	}
	if !strings.Contains(tn.UserInfo(), "shop-1") {
		t.Fatalf("user info: %s", tn.UserInfo())
	}
}

func TestLoadTenantsRejectsIncompleteBlock(t *testing.T) {
	body := `
tenants:
  - user_id: shop-2
    spreadsheet_id: sheet-abc
    market_name: M
    ozon:
      api_key: k1
`
	if _, err := LoadTenants(writeTenants(t, body)); err == nil {
		t.Fatalf("expected validation error for incomplete ozon block")
	}
}

func TestLoadTenantsRejectsMissingIdentity(t *testing.T) {
	body := `
tenants:
  - spreadsheet_id: sheet-abc
    market_name: M
    megamarket: {token: t, range: r}
`
	if _, err := LoadTenants(writeTenants(t, body)); err == nil {
		t.Fatalf("expected validation error for missing user_id")
	}
}

func TestLoadTenantsRejectsEmptyFile(t *testing.T) {
	if _, err := LoadTenants(writeTenants(t, "tenants: []\n")); err == nil {
		t.Fatalf("expected error for empty tenant list")
	}
}
