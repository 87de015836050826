package marketplace

import (
	"context"
	"strconv"
	"strings"

	"github.com/fairyhunter13/marketplace-price-sync/internal/config"
	"github.com/fairyhunter13/marketplace-price-sync/internal/model"
)

const wbUploadURL = "https://discounts-prices-api.wildberries.ru/api/v2/upload/task"

// Wildberries pushes prices and discounts through the discounts-prices API.
type Wildberries struct {
	client  *Client
	creds   config.WBCredentials
	BaseURL string
}

// NewWildberries builds the Wildberries pusher.
func NewWildberries(c *Client, creds config.WBCredentials) *Wildberries {
	return &Wildberries{client: c, creds: creds, BaseURL: wbUploadURL}
}

// Name implements Pusher.
func (w *Wildberries) Name() string { return "wb" }

// KeyField implements Pusher.
func (w *Wildberries) KeyField() string { return "nmID" }

// Mapping implements Pusher.
func (w *Wildberries) Mapping() model.FieldMapping {
	return model.FieldMapping{
		ID:             "id",
		ProductID:      "nmID",
		Price:          "t_price",
		OldPrice:       "price",
		Annotation:     "prim",
		DiscountBase:   "disc_old",
		DiscountManual: "discount",
	}
}

type wbGood struct {
	NmID     int64 `json:"nmID"`
	Price    int64 `json:"price"`
	Discount int64 `json:"discount"`
}

type wbResponse struct {
	Error     bool   `json:"error"`
	ErrorText string `json:"errorText"`
}

// Push implements Pusher. Rows whose article or price do not parse are
// skipped, matching the source system; the discount falls back to the
// stored column and then to zero.
func (w *Wildberries) Push(ctx context.Context, rows []model.Row) error {
	goods := make([]wbGood, 0, len(rows))
	for _, row := range rows {
		nmID, err := parseInt(row["nmID"])
		if err != nil {
			w.client.log.Error("wb_row_skipped", "nmID", row["nmID"], "error", err.Error())
			continue
		}
		price, err := parseInt(row["t_price"])
		if err != nil {
			w.client.log.Error("wb_row_skipped", "nmID", row["nmID"], "error", err.Error())
			continue
		}
		discount, err := parseInt(row["discount"])
		if err != nil {
			if discount, err = parseInt(row["disc_old"]); err != nil {
				discount = 0
			}
		}
		goods = append(goods, wbGood{NmID: nmID, Price: price, Discount: discount})
	}
	payload := map[string]any{"data": goods}
	if w.client.debug {
		return w.client.debugSkip(w.Name(), payload)
	}

	var res wbResponse
	if err := w.client.postJSON(ctx, w.BaseURL, map[string]string{"Authorization": w.creds.APIKey}, payload, &res); err != nil {
		return err
	}
	if res.Error {
		w.client.log.Warn("wb_prices_rejected", "error_text", res.ErrorText)
		return ErrRejected
	}
	w.client.log.Info("wb_prices_updated", "count", len(goods))
	return nil
}

// parseInt reads a sheet cell as an integer, accepting decimal notation
// with either separator ("3599", "3599.0", "3599,0").
func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}
