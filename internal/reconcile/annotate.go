package reconcile

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Annotation texts written into the sheet's note column. The accepted-change
// wording is load-bearing: the conflict merger recognizes its leading verb
// when reinterpreting rows a marketplace rejected.
const (
	noteFormatError   = "Ошибка формата данных"
	noteMissingPrice  = "Отсутствует старая или новая цена"
	noteNewPriceZero  = "Новая цена стала 0, требуется проверка"
	notePushOpaque    = "Ошибка применения цены, со стороны маркетплейса"
	notePushPrefix    = "Ошибка от маркетплейса при попытке изменения цены"
	changedVerb       = "Изменена"
	noteNoChange      = "Без изменений"
	combinedConnector = " и "
)

func notePriceChanged(oldPrice, newPrice decimal.Decimal) string {
	return fmt.Sprintf("%s цена с %s на %s", changedVerb, oldPrice, newPrice)
}

func notePriceFromZero(newPrice decimal.Decimal) string {
	return fmt.Sprintf("Старая цена была 0, обновлено на %s", newPrice)
}

func noteBoundExceeded(oldPrice, newPrice decimal.Decimal) string {
	return fmt.Sprintf("Изменение цены с %s на %s превышает 50%%, цена не изменена", oldPrice, newPrice)
}

func noteDiscountChanged(base, manual decimal.Decimal) string {
	return fmt.Sprintf("Обновлена скидка с %s на %s", base, manual)
}

func noteMinPriceChanged(base, manual decimal.Decimal) string {
	return fmt.Sprintf("Обновлена минимальная цена с %s на %s", base, manual)
}

// composeNote joins per-field notes in the fixed field order (price,
// discount, minimum price). Subsequent parts drop the leading verb so a
// combined note reads as one sentence, e.g.
// "Изменена цена с 100 на 105 и скидка с 10 на 15".
func composeNote(parts []string) string {
	if len(parts) == 0 {
		return ""
	}
	out := parts[0]
	for _, p := range parts[1:] {
		out += combinedConnector + trimVerb(p)
	}
	return out
}

func trimVerb(note string) string {
	for _, verb := range []string{"Обновлена ", "Изменена "} {
		if rest, ok := strings.CutPrefix(note, verb); ok {
			return rest
		}
	}
	return note
}
