package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fairyhunter13/marketplace-price-sync/internal/model"
	"github.com/fairyhunter13/marketplace-price-sync/internal/obs"
)

// AuditSink receives exactly one entry per data row per pass. Appends must
// be whole-entry atomic; a sink failure aborts the pass.
type AuditSink interface {
	Append(ctx context.Context, e model.AuditEntry) error
}

// Engine runs reconciliation passes against an audit sink.
type Engine struct {
	sink AuditSink
	log  *slog.Logger
	now  func() time.Time
}

// NewEngine constructs an Engine. A nil logger falls back to the global one.
func NewEngine(sink AuditSink, log *slog.Logger) *Engine {
	if log == nil {
		log = obs.Logger
	}
	return &Engine{sink: sink, log: log, now: time.Now}
}

// Reconcile compares each data row's observed price against the stored one,
// applies the change policy, mutates the working copy and buckets rows into
// changed/unchanged. The header row passes through untouched and stays
// first; output row order matches input order. Per-row errors never abort
// the pass; only a sink failure does, in which case no ChangeSet is
// returned.
func (e *Engine) Reconcile(ctx context.Context, ds model.Dataset, fm model.FieldMapping) (*model.ChangeSet, error) {
	cs := &model.ChangeSet{
		Updated:   ds.Clone(),
		Decisions: make(map[string]model.Decision, len(ds.Rows)),
	}

	for _, row := range cs.Updated.Rows {
		dec, entry := e.reconcileRow(row, fm)
		if err := e.sink.Append(ctx, entry); err != nil {
			e.log.Error("audit_sink_error", "error", err, "id", entry.ID)
			return nil, fmt.Errorf("append audit entry: %w", err)
		}
		// Duplicate product ids: last write wins.
		cs.Decisions[row[fm.ProductID]] = dec
		if entry.ChangeApplied {
			cs.Changed = append(cs.Changed, row)
		}
	}
	return cs, nil
}

// rowFields holds every cell of one row after validation, before any
// mutation. Parsing everything up front keeps a format failure from leaving
// the row half-updated.
type rowFields struct {
	oldPrice, newPrice   Value
	discBase, discManual decimal.Decimal
	minBase, minManual   decimal.Decimal
}

func parseRow(row model.Row, fm model.FieldMapping) (rowFields, error) {
	var f rowFields
	var err error
	if f.oldPrice, err = ParseCell(row[fm.OldPrice]); err != nil {
		return f, err
	}
	if f.newPrice, err = ParseCell(row[fm.Price]); err != nil {
		return f, err
	}
	if fm.HasDiscount() {
		if f.discBase, err = ParseCellOrZero(row[fm.DiscountBase]); err != nil {
			return f, err
		}
		if f.discManual, err = ParseCellOrZero(row[fm.DiscountManual]); err != nil {
			return f, err
		}
	}
	if fm.HasMinPrice() {
		if f.minBase, err = ParseCellOrZero(row[fm.MinPriceBase]); err != nil {
			return f, err
		}
		if f.minManual, err = ParseCellOrZero(row[fm.MinPrice]); err != nil {
			return f, err
		}
	}
	return f, nil
}

// reconcileRow evaluates one row in place and returns its decision together
// with the single audit entry describing the composed outcome.
func (e *Engine) reconcileRow(row model.Row, fm model.FieldMapping) (model.Decision, model.AuditEntry) {
	entry := model.AuditEntry{
		Timestamp: e.now(),
		ID:        row[fm.ID],
		ProductID: row[fm.ProductID],
	}
	rowLog := e.log.With("id", entry.ID, "product_id", entry.ProductID)

	f, err := parseRow(row, fm)
	if err != nil {
		rowLog.Warn("invalid_price_or_discount", "importance", "high", "error", err.Error())
		row[fm.Annotation] = noteFormatError
		entry.Note = noteFormatError
		return model.Decision{Outcome: model.OutcomeInvalidFormat, Note: noteFormatError}, entry
	}
	entry.OldPrice = f.oldPrice.Null()
	entry.NewPrice = f.newPrice.Null()

	var notes []string
	dec := model.Decision{
		Outcome:  model.OutcomeNoChange,
		OldPrice: f.oldPrice.Null(),
		NewPrice: f.newPrice.Null(),
	}

	switch EvaluatePrice(f.oldPrice, f.newPrice) {
	case VerdictRejectMissing:
		rowLog.Info("missing_price", "importance", "high")
		dec.Outcome = model.OutcomeRejectedMissing
		notes = append(notes, noteMissingPrice)
	case VerdictAcceptFromZero:
		rowLog.Info("price_updated_from_zero", "new_price", f.newPrice.Dec.String())
		row[fm.OldPrice] = f.newPrice.Dec.String()
		dec.Outcome = model.OutcomeAccepted
		entry.ChangeApplied = true
		notes = append(notes, notePriceFromZero(f.newPrice.Dec))
	case VerdictRejectZero:
		rowLog.Warn("new_price_zero", "importance", "high")
		dec.Outcome = model.OutcomeRejectedZero
		notes = append(notes, noteNewPriceZero)
	case VerdictRejectBound:
		rowLog.Info("price_change_exceeds_limit", "importance", "high",
			"old_price", f.oldPrice.Dec.String(), "new_price", f.newPrice.Dec.String())
		dec.Outcome = model.OutcomeRejectedBound
		notes = append(notes, noteBoundExceeded(f.oldPrice.Dec, f.newPrice.Dec))
	case VerdictAccept:
		rowLog.Info("price_updated",
			"old_price", f.oldPrice.Dec.String(), "new_price", f.newPrice.Dec.String())
		row[fm.OldPrice] = f.newPrice.Dec.String()
		dec.Outcome = model.OutcomeAccepted
		entry.ChangeApplied = true
		notes = append(notes, notePriceChanged(f.oldPrice.Dec, f.newPrice.Dec))
	case VerdictNoOp:
		dec.Outcome = model.OutcomeNoChange
	}

	if fm.HasDiscount() && OverrideChanged(f.discBase, f.discManual) {
		rowLog.Info("discount_updated",
			"old_discount", f.discBase.String(), "new_discount", f.discManual.String())
		row[fm.DiscountBase] = f.discManual.String()
		entry.OldDiscount = decimal.NullDecimal{Decimal: f.discBase, Valid: true}
		entry.NewDiscount = decimal.NullDecimal{Decimal: f.discManual, Valid: true}
		entry.ChangeApplied = true
		notes = append(notes, noteDiscountChanged(f.discBase, f.discManual))
	}
	if fm.HasMinPrice() && OverrideChanged(f.minBase, f.minManual) {
		rowLog.Info("min_price_updated",
			"old_min_price", f.minBase.String(), "new_min_price", f.minManual.String())
		row[fm.MinPriceBase] = f.minManual.String()
		entry.OldMinPrice = decimal.NullDecimal{Decimal: f.minBase, Valid: true}
		entry.NewMinPrice = decimal.NullDecimal{Decimal: f.minManual, Valid: true}
		entry.ChangeApplied = true
		notes = append(notes, noteMinPriceChanged(f.minBase, f.minManual))
	}

	if len(notes) > 0 {
		note := composeNote(notes)
		row[fm.Annotation] = note
		dec.Note = note
		entry.Note = note
	} else {
		// Pure no-op: the sheet keeps describing the last real decision,
		// the audit trail still records the pass.
		dec.Note = noteNoChange
		entry.Note = noteNoChange
	}
	return dec, entry
}
