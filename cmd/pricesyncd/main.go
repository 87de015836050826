// Package main boots the marketplace price synchronization daemon.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/fairyhunter13/marketplace-price-sync/internal/config"
	httpapi "github.com/fairyhunter13/marketplace-price-sync/internal/http"
	"github.com/fairyhunter13/marketplace-price-sync/internal/marketplace"
	"github.com/fairyhunter13/marketplace-price-sync/internal/obs"
	"github.com/fairyhunter13/marketplace-price-sync/internal/runner"
	"github.com/fairyhunter13/marketplace-price-sync/internal/sheets"
	"github.com/fairyhunter13/marketplace-price-sync/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	obs.InitLogger()
	obs.Logger.Info("service_starting", "debug", cfg.Debug)

	tenants, err := config.LoadTenants(cfg.TenantsFile)
	if err != nil {
		obs.Logger.Error("tenants_load_error", "file", cfg.TenantsFile, "error", err)
		os.Exit(1)
	}
	obs.Logger.Info("tenants_loaded", "count", len(tenants))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gw, err := sheets.NewService(ctx, cfg.CredentialsFile)
	if err != nil {
		obs.Logger.Error("sheets_init_error", "file", cfg.CredentialsFile, "error", err)
		os.Exit(1)
	}

	st := store.New()
	client := marketplace.NewClient(cfg.PushTimeout, cfg.Debug, obs.Logger)
	mgr := runner.NewManager(runner.New(cfg, gw, client, st), tenants)
	mgr.Start(ctx)

	app := httpapi.NewApp(cfg, st, tenants)
	mux := httpapi.NewRouter(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		obs.Logger.Info("http_listen", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			obs.Logger.Error("http_server_error", "error", err)
			os.Exit(1)
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigc
	obs.Logger.Info("shutdown_signal", "signal", s.String())

	// Cancel the tenant loops and let in-flight cycles finish.
	cancel()
	done := make(chan error, 1)
	go func() { done <- mgr.Stop() }()
	select {
	case err := <-done:
		if err != nil {
			obs.Logger.Error("tenant_loops_error", "error", err)
		} else {
			obs.Logger.Info("tenant_loops_stopped")
		}
	case <-time.After(cfg.ShutdownTimeout):
		obs.Logger.Warn("shutdown_drain_timeout")
	}

	ctxSrv, cancelSrv := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSrv()
	if err := srv.Shutdown(ctxSrv); err != nil {
		obs.Logger.Error("http_shutdown_error", "error", err)
	}
	obs.Logger.Info("service_stopped")
}
