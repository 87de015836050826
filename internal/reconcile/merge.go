package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/marketplace-price-sync/internal/model"
)

// Recovery is the merger's reinterpretation of one rejected row.
type Recovery struct {
	Note  string
	Price decimal.NullDecimal
}

// RecoverFromAnnotation reinterprets the annotation a push step left on a
// rejected row. An annotation opening with the accepted-change verb is
// rewritten to a marketplace-failure message that keeps the change detail,
// and the price the push attempted (the value after the "на" connector) is
// recovered so the next cycle does not re-detect the same delta. Blank or
// unrecognized annotations map to an opaque failure with no recovery.
func RecoverFromAnnotation(text string) Recovery {
	words := strings.Fields(text)
	if len(words) == 0 {
		return Recovery{Note: notePushOpaque}
	}

	rec := Recovery{Note: notePushOpaque}
	if words[0] == changedVerb {
		rest := strings.Join(words[2:], " ")
		rec.Note = notePushPrefix
		if rest != "" {
			rec.Note += " " + rest
		}
		// "Изменена цена с X на Y": the attempted price is the token
		// after "на".
		if len(words) >= 6 && words[4] == "на" {
			if d, err := decimal.NewFromString(strings.ReplaceAll(words[5], ",", ".")); err == nil {
				rec.Price = decimal.NullDecimal{Decimal: d, Valid: true}
			}
		}
	}
	return rec
}

// Merge patches updated with the reprocessed state of the rows a downstream
// push rejected: a keyed left-join on keyField. Matching rows get the
// rewritten failure note and, when a price could be recovered, the
// recovered price in the stored-price column; non-matching rows pass
// through unchanged. The structured decision for a row, when available, is
// preferred over annotation parsing.
func Merge(updated model.Dataset, rejected []model.Row, keyField string, fm model.FieldMapping, decisions map[string]model.Decision) model.Dataset {
	recoveries := make(map[string]Recovery, len(rejected))
	for _, rr := range rejected {
		rec := RecoverFromAnnotation(rr[fm.Annotation])
		// Decisions are keyed by the product id cell, which is not
		// always the join key (Ozon joins on the seller SKU).
		if d, ok := decisions[rr[fm.ProductID]]; ok && d.Outcome == model.OutcomeAccepted && d.NewPrice.Valid {
			rec.Price = d.NewPrice
		}
		recoveries[rr[keyField]] = rec
	}

	out := updated.Clone()
	for _, row := range out.Rows {
		rec, ok := recoveries[row[keyField]]
		if !ok {
			continue
		}
		row[fm.Annotation] = rec.Note
		if rec.Price.Valid {
			row[fm.OldPrice] = rec.Price.Decimal.String()
		}
	}
	return out
}
