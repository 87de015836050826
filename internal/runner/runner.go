// Package runner drives the periodic per-tenant synchronization cycles:
// fetch the sheet, reconcile prices, write the result back, push accepted
// changes to the marketplace and merge rejections into the sheet.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fairyhunter13/marketplace-price-sync/internal/auditlog"
	"github.com/fairyhunter13/marketplace-price-sync/internal/config"
	"github.com/fairyhunter13/marketplace-price-sync/internal/marketplace"
	"github.com/fairyhunter13/marketplace-price-sync/internal/obs"
	"github.com/fairyhunter13/marketplace-price-sync/internal/reconcile"
	"github.com/fairyhunter13/marketplace-price-sync/internal/sheets"
	"github.com/fairyhunter13/marketplace-price-sync/internal/store"
)

// Runner executes synchronization cycles for one set of tenants.
type Runner struct {
	cfg    config.Config
	gw     sheets.Gateway
	client *marketplace.Client
	status *store.Store
}

// New builds a Runner over the given sheet gateway and status registry.
func New(cfg config.Config, gw sheets.Gateway, client *marketplace.Client, status *store.Store) *Runner {
	return &Runner{cfg: cfg, gw: gw, client: client, status: status}
}

// RunTenant loops tenant cycles until the context is cancelled. The sleep
// between cycles subtracts the cycle's own duration from the tenant's
// interval so cycles start on a steady cadence.
func (r *Runner) RunTenant(ctx context.Context, t config.Tenant) error {
	log := obs.Logger.With("user_id", t.UserID)
	log.Info("tenant_loop_started", "user_info", t.UserInfo(), "interval", t.Interval().String())
	for {
		started := time.Now()
		r.RunCycle(ctx, t)
		if ctx.Err() != nil {
			log.Info("tenant_loop_stopped")
			return ctx.Err()
		}
		sleep := t.Interval() - time.Since(started)
		if sleep < 0 {
			sleep = 0
		}
		select {
		case <-ctx.Done():
			log.Info("tenant_loop_stopped")
			return ctx.Err()
		case <-time.After(sleep):
		}
	}
}

// RunCycle runs one full pass over every marketplace the tenant has
// configured, sequentially, recording each result in the status registry.
// A failing marketplace does not stop the remaining ones.
func (r *Runner) RunCycle(ctx context.Context, t config.Tenant) {
	for _, target := range marketplace.ForTenant(r.client, t) {
		if ctx.Err() != nil {
			return
		}
		res := r.runTarget(ctx, t, target)
		r.status.Record(res)
	}
}

func (r *Runner) runTarget(ctx context.Context, t config.Tenant, target marketplace.Target) store.CycleResult {
	name := target.Pusher.Name()
	log := obs.For(name, t.UserID).With("cycle_id", uuid.NewString())
	res := store.CycleResult{UserID: t.UserID, Marketplace: name, StartedAt: time.Now()}
	fail := func(stage string, err error) store.CycleResult {
		log.Error("cycle_failed", "stage", stage, "error", err.Error())
		res.Error = fmt.Sprintf("%s: %v", stage, err)
		res.FinishedAt = time.Now()
		return res
	}

	ds, err := r.gw.Fetch(ctx, t.SpreadsheetID, target.Range)
	if err != nil {
		return fail("fetch", err)
	}
	res.RowsTotal = len(ds.Rows)

	audit, err := auditlog.Open(auditlog.DBPath(r.cfg.DataDir, t.UserID, t.MarketName+"_"+name))
	if err != nil {
		return fail("audit_open", err)
	}
	defer audit.Close()
	if err := audit.EnsureSchema(ctx); err != nil {
		return fail("audit_schema", err)
	}
	snapshot := auditlog.SnapshotTable(name, t.MarketName)
	if err := audit.SaveSnapshot(ctx, snapshot, ds, target.Pusher.KeyField()); err != nil {
		return fail("snapshot", err)
	}

	fm := target.Pusher.Mapping()
	engine := reconcile.NewEngine(audit, log)
	cs, err := engine.Reconcile(ctx, ds, fm)
	if err != nil {
		return fail("reconcile", err)
	}
	res.RowsChanged = len(cs.Changed)
	if err := r.gw.Write(ctx, t.SpreadsheetID, target.Range, cs.Updated); err != nil {
		return fail("write", err)
	}
	if len(cs.Changed) == 0 {
		log.Info("cycle_no_changes", "rows", res.RowsTotal)
		res.FinishedAt = time.Now()
		return res
	}

	err = target.Pusher.Push(ctx, cs.Changed)
	switch {
	case err == nil:
		res.PushOK = true
		log.Info("cycle_pushed", "rows_changed", res.RowsChanged)
	case errors.Is(err, marketplace.ErrRejected):
		// The marketplace refused the batch: fold the rejection back
		// into the sheet so the next pass does not retry it blindly.
		merged := reconcile.Merge(cs.Updated, cs.Changed, target.Pusher.KeyField(), fm, cs.Decisions)
		if werr := r.gw.Write(ctx, t.SpreadsheetID, target.Range, merged); werr != nil {
			return fail("merge_write", werr)
		}
		res.Merged = true
		log.Warn("cycle_push_rejected", "rows_changed", res.RowsChanged)
	default:
		return fail("push", err)
	}
	res.FinishedAt = time.Now()
	return res
}

// Manager fans tenant loops out and waits for them on shutdown.
type Manager struct {
	runner  *Runner
	tenants []config.Tenant
	g       *errgroup.Group
	cancel  context.CancelFunc
}

// NewManager builds a Manager over the runner and tenant set.
func NewManager(r *Runner, tenants []config.Tenant) *Manager {
	return &Manager{runner: r, tenants: tenants}
}

// Start launches one goroutine per tenant. The loops stop when ctx is
// cancelled or Stop is called.
func (m *Manager) Start(ctx context.Context) {
	ctx, m.cancel = context.WithCancel(ctx)
	m.g, ctx = errgroup.WithContext(ctx)
	for _, t := range m.tenants {
		t := t
		m.g.Go(func() error {
			err := m.runner.RunTenant(ctx, t)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}
}

// Stop cancels the tenant loops and waits for in-flight cycles to finish.
func (m *Manager) Stop() error {
	if m.cancel != nil {
		m.cancel()
	}
	if m.g == nil {
		return nil
	}
	return m.g.Wait()
}
