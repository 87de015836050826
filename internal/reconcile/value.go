// Package reconcile implements the price reconciliation engine: cell
// validation, the change policy, the row-by-row pass that mutates the
// working dataset and audits every decision, and the conflict merger that
// reapplies rows rejected by a marketplace push.
package reconcile

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NoValueText is the placeholder the sheets use for an absent value.
const NoValueText = "Нет Значения"

// ErrInvalidFormat reports a cell that is neither empty, the no-value
// placeholder, nor a parseable number.
var ErrInvalidFormat = errors.New("invalid cell format")

// Value is a parsed cell: either a finite decimal or the no-value sentinel.
type Value struct {
	Dec     decimal.Decimal
	Present bool
}

// Null converts the value to its nullable-decimal representation.
func (v Value) Null() decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: v.Dec, Valid: v.Present}
}

// IsZero reports whether the value is present and exactly zero.
func (v Value) IsZero() bool { return v.Present && v.Dec.IsZero() }

// NoValue is the absent-value sentinel.
func NoValue() Value { return Value{} }

// NewValue wraps a decimal in a present Value.
func NewValue(d decimal.Decimal) Value { return Value{Dec: d, Present: true} }

// ParseCell normalizes one raw cell into a Value. Empty cells and the
// no-value placeholder (case-insensitive) map to the sentinel. Both "." and
// "," are accepted as decimal separator. Pure function.
func ParseCell(raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	if s == "" || strings.EqualFold(s, NoValueText) {
		return NoValue(), nil
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
	if err != nil {
		return NoValue(), fmt.Errorf("%w: %q", ErrInvalidFormat, raw)
	}
	return NewValue(d), nil
}

// ParseCellOrZero is ParseCell with the sentinel collapsed to zero, the
// convention for discount and min-price cells.
func ParseCellOrZero(raw string) (decimal.Decimal, error) {
	v, err := ParseCell(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if !v.Present {
		return decimal.Zero, nil
	}
	return v.Dec, nil
}
