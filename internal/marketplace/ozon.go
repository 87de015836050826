package marketplace

import (
	"context"
	"strconv"

	"github.com/fairyhunter13/marketplace-price-sync/internal/config"
	"github.com/fairyhunter13/marketplace-price-sync/internal/model"
)

const ozonPricesURL = "https://api-seller.ozon.ru/v1/product/import/prices"

// Ozon pushes prices through the Ozon seller API.
type Ozon struct {
	client  *Client
	creds   config.OzonCredentials
	BaseURL string
}

// NewOzon builds the Ozon pusher.
func NewOzon(c *Client, creds config.OzonCredentials) *Ozon {
	return &Ozon{client: c, creds: creds, BaseURL: ozonPricesURL}
}

// Name implements Pusher.
func (o *Ozon) Name() string { return "ozon" }

// KeyField implements Pusher. Ozon sheets join rejected rows on the seller
// SKU, not the numeric product id.
func (o *Ozon) KeyField() string { return "offer_id" }

// Mapping implements Pusher.
func (o *Ozon) Mapping() model.FieldMapping {
	return model.FieldMapping{
		ID:             "id",
		ProductID:      "product_id",
		Price:          "t_price",
		OldPrice:       "price",
		Annotation:     "prim",
		DiscountBase:   "price_old",
		DiscountManual: "old_price",
		MinPriceBase:   "min_price_base",
		MinPrice:       "min_price",
	}
}

type ozonPrice struct {
	AutoActionEnabled string `json:"auto_action_enabled"`
	CurrencyCode      string `json:"currency_code"`
	OfferID           string `json:"offer_id"`
	Price             string `json:"price"`
	OldPrice          string `json:"old_price"`
	MinPrice          string `json:"min_price,omitempty"`
	ProductID         int64  `json:"product_id,omitempty"`
}

type ozonResult struct {
	Result []struct {
		ProductID int64 `json:"product_id"`
		Updated   bool  `json:"updated"`
		Errors    []struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"result"`
}

// Push implements Pusher.
func (o *Ozon) Push(ctx context.Context, rows []model.Row) error {
	prices := make([]ozonPrice, 0, len(rows))
	for _, row := range rows {
		p := ozonPrice{
			AutoActionEnabled: "UNKNOWN",
			CurrencyCode:      "RUB",
			OfferID:           row["offer_id"],
			Price:             row["t_price"],
			OldPrice:          row["old_price"],
			MinPrice:          row["min_price"],
		}
		if id, err := strconv.ParseInt(row["product_id"], 10, 64); err == nil {
			p.ProductID = id
		}
		prices = append(prices, p)
	}
	payload := map[string]any{"prices": prices}
	if o.client.debug {
		return o.client.debugSkip(o.Name(), payload)
	}

	headers := map[string]string{"Client-Id": o.creds.ClientID, "Api-Key": o.creds.APIKey}
	var res ozonResult
	if err := o.client.postJSON(ctx, o.BaseURL, headers, payload, &res); err != nil {
		return err
	}
	for _, r := range res.Result {
		if !r.Updated || len(r.Errors) > 0 {
			o.client.log.Warn("ozon_price_rejected", "product_id", r.ProductID, "errors", r.Errors)
			return ErrRejected
		}
	}
	o.client.log.Info("ozon_prices_updated", "count", len(prices))
	return nil
}
