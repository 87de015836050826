package marketplace

import (
	"context"

	"github.com/fairyhunter13/marketplace-price-sync/internal/config"
	"github.com/fairyhunter13/marketplace-price-sync/internal/model"
)

const mmSaveURL = "https://api.megamarket.tech/api/merchantIntegration/v1/offerService/manualPrice/save"

// Megamarket pushes manual prices through the merchant integration API.
type Megamarket struct {
	client  *Client
	creds   config.MMCredentials
	BaseURL string
}

// NewMegamarket builds the Megamarket pusher.
func NewMegamarket(c *Client, creds config.MMCredentials) *Megamarket {
	return &Megamarket{client: c, creds: creds, BaseURL: mmSaveURL}
}

// Name implements Pusher.
func (m *Megamarket) Name() string { return "mm" }

// KeyField implements Pusher.
func (m *Megamarket) KeyField() string { return "seller_id" }

// Mapping implements Pusher. Megamarket has no discount or min-price pair.
func (m *Megamarket) Mapping() model.FieldMapping {
	return model.FieldMapping{
		ID:         "id",
		ProductID:  "seller_id",
		Price:      "t_price",
		OldPrice:   "price",
		Annotation: "prim",
	}
}

type mmPrice struct {
	OfferID   string `json:"offerId"`
	Price     int64  `json:"price"`
	IsDeleted bool   `json:"isDeleted"`
}

// Push implements Pusher. The merchant token travels in the request body,
// not a header.
func (m *Megamarket) Push(ctx context.Context, rows []model.Row) error {
	prices := make([]mmPrice, 0, len(rows))
	for _, row := range rows {
		price, err := parseInt(row["t_price"])
		if err != nil {
			m.client.log.Error("mm_row_skipped", "seller_id", row["seller_id"], "error", err.Error())
			continue
		}
		prices = append(prices, mmPrice{OfferID: row["seller_id"], Price: price})
	}
	payload := map[string]any{
		"meta": map[string]any{},
		"data": map[string]any{
			"token":  m.creds.Token,
			"prices": prices,
		},
	}
	if m.client.debug {
		return m.client.debugSkip(m.Name(), payload)
	}

	if err := m.client.postJSON(ctx, m.BaseURL, nil, payload, nil); err != nil {
		return err
	}
	m.client.log.Info("mm_prices_updated", "count", len(prices))
	return nil
}
