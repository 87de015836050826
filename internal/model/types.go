// Package model defines domain types shared by the reconciliation engine,
// the audit log and the marketplace pushers.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Row is one spreadsheet row, keyed by column name. Cells hold the raw text
// as it appears in the sheet.
type Row map[string]string

// Clone returns an independent copy of the row.
func (r Row) Clone() Row {
	c := make(Row, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}

// Dataset is a row-oriented table. The Header row is the human-readable
// description row that spreadsheet callers prepend; it is never reconciled
// and is always written back first.
type Dataset struct {
	Columns []string
	Header  Row
	Rows    []Row
}

// Clone deep-copies the dataset.
func (d Dataset) Clone() Dataset {
	out := Dataset{
		Columns: append([]string(nil), d.Columns...),
		Header:  d.Header.Clone(),
		Rows:    make([]Row, len(d.Rows)),
	}
	for i, r := range d.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// FieldMapping names which dataset columns carry each semantic role. The
// discount and min-price pairs are optional; an empty column name disables
// that sub-check without affecting price reconciliation.
type FieldMapping struct {
	ID             string
	ProductID      string
	Price          string // freshly observed price to reconcile
	OldPrice       string // price currently stored in the sheet
	Annotation     string
	DiscountBase   string // discount stored in the sheet
	DiscountManual string // authoritative manual discount
	MinPriceBase   string
	MinPrice       string
}

// HasDiscount reports whether the discount pair is mapped.
func (m FieldMapping) HasDiscount() bool {
	return m.DiscountBase != "" && m.DiscountManual != ""
}

// HasMinPrice reports whether the min-price pair is mapped.
func (m FieldMapping) HasMinPrice() bool {
	return m.MinPriceBase != "" && m.MinPrice != ""
}

// Outcome classifies one reconciliation decision.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeAccepted
	OutcomeNoChange
	OutcomeRejectedMissing
	OutcomeRejectedZero
	OutcomeRejectedBound
	OutcomeInvalidFormat
)

// String returns the log-friendly name of the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeNoChange:
		return "no_change"
	case OutcomeRejectedMissing:
		return "rejected_missing"
	case OutcomeRejectedZero:
		return "rejected_new_zero"
	case OutcomeRejectedBound:
		return "rejected_exceeds_bound"
	case OutcomeInvalidFormat:
		return "invalid_format"
	default:
		return "unknown"
	}
}

// Decision is the structured record of one row's reconciliation outcome. It
// travels alongside the human-readable annotation so downstream consumers
// never have to re-parse free text.
type Decision struct {
	Outcome  Outcome
	OldPrice decimal.NullDecimal
	NewPrice decimal.NullDecimal
	Note     string
}

// ChangeSet is the output of one reconciliation pass. Changed is the subset
// of Updated.Rows that had a price, discount or min-price mutation applied,
// in input order. Decisions is keyed by the row's product id cell; with
// duplicate ids the last processed row wins.
type ChangeSet struct {
	Updated   Dataset
	Changed   []Row
	Decisions map[string]Decision
}

// AuditEntry is one append-only record of a reconciliation decision.
// Exactly one entry is written per data row per pass.
type AuditEntry struct {
	Timestamp     time.Time
	ID            string
	ProductID     string
	OldPrice      decimal.NullDecimal
	NewPrice      decimal.NullDecimal
	OldDiscount   decimal.NullDecimal
	NewDiscount   decimal.NullDecimal
	OldMinPrice   decimal.NullDecimal
	NewMinPrice   decimal.NullDecimal
	Note          string
	ChangeApplied bool
}
