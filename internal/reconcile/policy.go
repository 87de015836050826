package reconcile

import "github.com/shopspring/decimal"

// Verdict is the change policy's classification of a price delta.
type Verdict int

const (
	// VerdictRejectMissing: either side is the no-value sentinel.
	VerdictRejectMissing Verdict = iota
	// VerdictAcceptFromZero: old price is zero, new is not; the new price
	// is adopted unconditionally (bootstrap case).
	VerdictAcceptFromZero
	// VerdictRejectZero: new price is zero while old is not. Zero is always
	// a marketplace glitch sentinel, never a legitimate price.
	VerdictRejectZero
	// VerdictRejectBound: the relative change exceeds the 50% guard.
	VerdictRejectBound
	// VerdictAccept: a real, bounded change.
	VerdictAccept
	// VerdictNoOp: prices are equal.
	VerdictNoOp
)

// maxRelativeChange is the fixed guard against erroneous bulk drops/spikes.
var maxRelativeChange = decimal.NewFromFloat(0.5)

// EvaluatePrice classifies the (old, new) pair. Rules are checked in a fixed
// order and the first match wins: missing, bootstrap-from-zero, new-zero,
// bound, change, no-op. A zero old price therefore always resolves via the
// bootstrap rule even when the jump exceeds the bound.
func EvaluatePrice(oldPrice, newPrice Value) Verdict {
	switch {
	case !oldPrice.Present || !newPrice.Present:
		return VerdictRejectMissing
	case oldPrice.Dec.IsZero():
		if newPrice.Dec.IsZero() {
			return VerdictNoOp
		}
		return VerdictAcceptFromZero
	case newPrice.Dec.IsZero():
		return VerdictRejectZero
	case newPrice.Dec.Sub(oldPrice.Dec).Abs().Div(oldPrice.Dec.Abs()).GreaterThan(maxRelativeChange):
		return VerdictRejectBound
	case !newPrice.Dec.Equal(oldPrice.Dec):
		return VerdictAccept
	default:
		return VerdictNoOp
	}
}

// OverrideChanged implements the policy for discount and min-price pairs:
// the manual side is authoritative, so any difference is accepted with no
// magnitude bound.
func OverrideChanged(base, manual decimal.Decimal) bool {
	return !base.Equal(manual)
}
