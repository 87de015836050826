package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Tenant is one configured user account whose marketplace pricing is being
// synchronized. Every marketplace block is optional; an absent block skips
// that marketplace for the tenant.
type Tenant struct {
	UserID                string              `yaml:"user_id"`
	SpreadsheetID         string              `yaml:"spreadsheet_id"`
	UpdateIntervalMinutes int                 `yaml:"update_interval_minutes"`
	MarketName            string              `yaml:"market_name"`
	UserEmail             string              `yaml:"user_email"`
	PhoneNumber           string              `yaml:"phone_number"`
	Ozon                  *OzonCredentials    `yaml:"ozon"`
	YandexMarket          *YandexCredentials  `yaml:"yandex_market"`
	Wildberries           *WBCredentials      `yaml:"wildberries"`
	Megamarket            *MMCredentials      `yaml:"megamarket"`
}

// OzonCredentials configures the Ozon seller API access and sheet range.
type OzonCredentials struct {
	APIKey   string `yaml:"api_key"`
	ClientID string `yaml:"client_id"`
	Range    string `yaml:"range"`
}

// YandexCredentials configures the Yandex Market partner API access.
type YandexCredentials struct {
	APIKey     string `yaml:"api_key"`
	BusinessID string `yaml:"business_id"`
	Range      string `yaml:"range"`
}

// WBCredentials configures the Wildberries prices API access.
type WBCredentials struct {
	APIKey string `yaml:"api_key"`
	Range  string `yaml:"range"`
}

// MMCredentials configures the Megamarket merchant API access.
type MMCredentials struct {
	Token string `yaml:"token"`
	Range string `yaml:"range"`
}

// Interval returns the tenant's polling interval.
func (t Tenant) Interval() time.Duration {
	return time.Duration(t.UpdateIntervalMinutes) * time.Minute
}

// UserInfo returns the tenant identification used in logs.
func (t Tenant) UserInfo() string {
	return fmt.Sprintf("[ID: %s, Email: %s, Тел: %s]", t.UserID, t.UserEmail, t.PhoneNumber)
}

type tenantsFile struct {
	Tenants []Tenant `yaml:"tenants"`
}

// LoadTenants reads and validates the tenants YAML file. Validation happens
// here, at load time: a misconfigured tenant fails startup instead of
// surfacing as a missing-key lookup mid-cycle.
func LoadTenants(path string) ([]Tenant, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tenants file: %w", err)
	}
	var f tenantsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse tenants file: %w", err)
	}
	if len(f.Tenants) == 0 {
		return nil, errors.New("tenants file defines no tenants")
	}
	for i := range f.Tenants {
		t := &f.Tenants[i]
		if t.UpdateIntervalMinutes <= 0 {
			t.UpdateIntervalMinutes = 5
		}
		if err := t.validate(); err != nil {
			return nil, fmt.Errorf("tenant %d (%s): %w", i, t.UserID, err)
		}
	}
	return f.Tenants, nil
}

func (t *Tenant) validate() error {
	switch {
	case t.UserID == "":
		return errors.New("user_id is required")
	case t.SpreadsheetID == "":
		return errors.New("spreadsheet_id is required")
	case t.MarketName == "":
		return errors.New("market_name is required")
	}
	if t.Ozon == nil && t.YandexMarket == nil && t.Wildberries == nil && t.Megamarket == nil {
		return errors.New("no marketplace configured")
	}
	if o := t.Ozon; o != nil && (o.APIKey == "" || o.ClientID == "" || o.Range == "") {
		return errors.New("ozon block needs api_key, client_id and range")
	}
	if y := t.YandexMarket; y != nil && (y.APIKey == "" || y.BusinessID == "" || y.Range == "") {
		return errors.New("yandex_market block needs api_key, business_id and range")
	}
	if w := t.Wildberries; w != nil && (w.APIKey == "" || w.Range == "") {
		return errors.New("wildberries block needs api_key and range")
	}
	if m := t.Megamarket; m != nil && (m.Token == "" || m.Range == "") {
		return errors.New("megamarket block needs token and range")
	}
	return nil
}
