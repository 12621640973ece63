// Command ownerlookup fills the contact column of a company workbook with
// the owners listed on OpenCorporates.
//
// It takes no flags. Paths, target states and credentials come from the
// environment or a .env file in the working directory:
//
//	OPENCORPORATES_EMAIL, OPENCORPORATES_PASSWORD   account to sign in with
//	OWNERLOOKUP_INPUT   (default companies.xlsx)
//	OWNERLOOKUP_OUTPUT  (default updated-companies.xlsx)
//	OWNERLOOKUP_STATES  (default Illinois)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/use-agent/ownerlookup/browser"
	"github.com/use-agent/ownerlookup/config"
	"github.com/use-agent/ownerlookup/logging"
	"github.com/use-agent/ownerlookup/models"
	"github.com/use-agent/ownerlookup/opencorporates"
	"github.com/use-agent/ownerlookup/pipeline"
	"github.com/use-agent/ownerlookup/webhook"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── 1. Load configuration ───────────────────────────────────────
	cfg := config.Load()

	// ── 2. Initialise structured logging ────────────────────────────
	logging.Init(cfg.Log)

	runID := "run-" + uuid.New().String()[:8]
	slog.Info("ownerlookup starting",
		"run_id", runID,
		"input", cfg.Spreadsheet.InputPath,
		"output", cfg.Spreadsheet.OutputPath,
		"states", cfg.Scraper.States,
	)
	if !cfg.Credentials.Configured() {
		slog.Error("OpenCorporates credentials missing: set OPENCORPORATES_EMAIL and OPENCORPORATES_PASSWORD")
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── 3. Prepare the scraper (browser starts on first lookup) ─────
	sc := opencorporates.NewScraper(cfg.Scraper, cfg.Credentials, browser.Opener(cfg.Browser))
	defer func() {
		if err := sc.Close(); err != nil {
			slog.Warn("closing browser", "error", err)
		}
	}()

	// ── 4. Enrich the workbook ──────────────────────────────────────
	enricher := pipeline.NewEnricher(sc, nil, 0, sc.States())
	summary, err := enricher.Run(ctx, cfg.Spreadsheet.InputPath, cfg.Spreadsheet.OutputPath)

	// ── 5. Report ───────────────────────────────────────────────────
	if cfg.Webhook.URL != "" {
		webhook.Notify(context.WithoutCancel(ctx), cfg.Webhook.URL, cfg.Webhook.Secret, webhook.RunEvent(runID, summary, err))
	}

	if err != nil {
		slog.Error("run aborted", "run_id", runID, "fatal", models.IsFatal(err), "error", err)
		return 1
	}

	fmt.Printf("Processing completed. Check %s.\n", cfg.Spreadsheet.OutputPath)
	return 0
}
