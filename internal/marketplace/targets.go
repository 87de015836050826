package marketplace

import "github.com/fairyhunter13/marketplace-price-sync/internal/config"

// Target bundles one marketplace's pusher with the tenant's sheet range for
// it.
type Target struct {
	Pusher Pusher
	Range  string
}

// ForTenant builds the push targets a tenant has configured, in a fixed
// order.
func ForTenant(c *Client, t config.Tenant) []Target {
	var out []Target
	if t.Ozon != nil {
		out = append(out, Target{Pusher: NewOzon(c, *t.Ozon), Range: t.Ozon.Range})
	}
	if t.YandexMarket != nil {
		out = append(out, Target{Pusher: NewYandexMarket(c, *t.YandexMarket), Range: t.YandexMarket.Range})
	}
	if t.Wildberries != nil {
		out = append(out, Target{Pusher: NewWildberries(c, *t.Wildberries), Range: t.Wildberries.Range})
	}
	if t.Megamarket != nil {
		out = append(out, Target{Pusher: NewMegamarket(c, *t.Megamarket), Range: t.Megamarket.Range})
	}
	return out
}
