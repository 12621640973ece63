package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/use-agent/ownerlookup/api"
	"github.com/use-agent/ownerlookup/browser"
	"github.com/use-agent/ownerlookup/cache"
	"github.com/use-agent/ownerlookup/config"
	"github.com/use-agent/ownerlookup/logging"
	"github.com/use-agent/ownerlookup/opencorporates"
)

func main() {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	logging.Init(cfg.Log)
	slog.Info("ownerlookup-api starting",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"mode", cfg.Server.Mode,
		"states", cfg.Scraper.States,
	)
	if !cfg.Credentials.Configured() {
		slog.Warn("OpenCorporates credentials missing; lookups will fail until OPENCORPORATES_EMAIL and OPENCORPORATES_PASSWORD are set")
	}

	// ── 3. Initialise scraper (browser starts on first lookup) ──────
	sc := opencorporates.NewScraper(cfg.Scraper, cfg.Credentials, browser.Opener(cfg.Browser))
	defer sc.Close()

	// ── 4. Initialise cache ─────────────────────────────────────────
	cc := cache.New(cfg.Cache.MaxEntries, cfg.Cache.MaxAge)
	defer cc.Close()

	// ── 5. Setup router ─────────────────────────────────────────────
	bgCtx, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()
	router := api.NewRouter(bgCtx, sc, cfg, cc, time.Now())

	// ── 6. Start HTTP server ────────────────────────────────────────
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		slog.Info("HTTP server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// ── 7. Graceful shutdown ────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig.String())

	// Lookups can take a while; give in-flight requests 30 seconds.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("HTTP server forced shutdown", "error", err)
	} else {
		slog.Info("HTTP server drained gracefully")
	}

	// sc.Close() runs via defer and kills Chrome.
	slog.Info("ownerlookup-api stopped")
}
