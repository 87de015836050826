package marketplace

import (
	"context"
	"fmt"

	"github.com/fairyhunter13/marketplace-price-sync/internal/config"
	"github.com/fairyhunter13/marketplace-price-sync/internal/model"
)

const ymBaseURL = "https://api.partner.market.yandex.ru"

// YandexMarket pushes prices through the partner API's business offer-price
// updates endpoint.
type YandexMarket struct {
	client  *Client
	creds   config.YandexCredentials
	BaseURL string
}

// NewYandexMarket builds the Yandex Market pusher.
func NewYandexMarket(c *Client, creds config.YandexCredentials) *YandexMarket {
	return &YandexMarket{client: c, creds: creds, BaseURL: ymBaseURL}
}

// Name implements Pusher.
func (y *YandexMarket) Name() string { return "ym" }

// KeyField implements Pusher.
func (y *YandexMarket) KeyField() string { return "offer_id" }

// Mapping implements Pusher.
func (y *YandexMarket) Mapping() model.FieldMapping {
	return model.FieldMapping{
		ID:             "id",
		ProductID:      "offer_id",
		Price:          "t_price",
		OldPrice:       "price",
		Annotation:     "prim",
		DiscountBase:   "price_old",
		DiscountManual: "discount_base",
	}
}

type ymPrice struct {
	Value        int64  `json:"value"`
	CurrencyID   string `json:"currencyId"`
	DiscountBase int64  `json:"discountBase,omitempty"`
}

type ymOffer struct {
	OfferID string  `json:"offerId"`
	Price   ymPrice `json:"price"`
}

// Push implements Pusher.
func (y *YandexMarket) Push(ctx context.Context, rows []model.Row) error {
	offers := make([]ymOffer, 0, len(rows))
	for _, row := range rows {
		price, err := parseInt(row["t_price"])
		if err != nil {
			y.client.log.Error("ym_row_skipped", "offer_id", row["offer_id"], "error", err.Error())
			continue
		}
		offer := ymOffer{
			OfferID: row["offer_id"],
			Price:   ymPrice{Value: price, CurrencyID: "RUR"},
		}
		if base, err := parseInt(row["discount_base"]); err == nil && base > price {
			offer.Price.DiscountBase = base
		}
		offers = append(offers, offer)
	}
	payload := map[string]any{"offers": offers}
	if y.client.debug {
		return y.client.debugSkip(y.Name(), payload)
	}

	url := fmt.Sprintf("%s/businesses/%s/offer-prices/updates", y.BaseURL, y.creds.BusinessID)
	if err := y.client.postJSON(ctx, url, map[string]string{"Api-Key": y.creds.APIKey}, payload, nil); err != nil {
		return err
	}
	y.client.log.Info("ym_prices_updated", "count", len(offers))
	return nil
}
