// Package opencorporates looks up the registered owners of a company on
// OpenCorporates.
//
// A lookup searches the company name, picks the one result that matches the
// name and a target state, opens it and scrapes the owner entries:
//
//	Idle ─(first lookup: open browser, sign in)─▶ SessionReady
//	SessionReady ─(search, wait for results)─▶ ResultFetched
//	ResultFetched ─(no matching block)─▶ no_match
//	ResultFetched ─(open matched block)─▶ OwnerExtracted ─▶ matched
//
// Only a session that cannot be started is an error. Every other failure
// degrades to an empty owners record for that one company.
package opencorporates

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/use-agent/ownerlookup/browser"
	"github.com/use-agent/ownerlookup/config"
	"github.com/use-agent/ownerlookup/matcher"
	"github.com/use-agent/ownerlookup/models"
)

// Scraper owns the browser session and runs lookups one at a time.
// It is safe for concurrent use; lookups are serialized.
type Scraper struct {
	cfg     config.ScraperConfig
	creds   config.CredentialsConfig
	open    browser.OpenFunc
	matcher *matcher.Matcher

	// turn is held for a whole lookup and guards page and closer.
	turn   chan struct{}
	page   browser.Page
	closer io.Closer

	// ready and stats are read by health checks while a lookup runs.
	ready   atomic.Bool
	statsMu sync.Mutex
	stats   models.LookupStats
}

// NewScraper creates a Scraper. The browser is not started until the first
// lookup.
func NewScraper(cfg config.ScraperConfig, creds config.CredentialsConfig, open browser.OpenFunc) *Scraper {
	return &Scraper{
		cfg:     cfg,
		creds:   creds,
		open:    open,
		matcher: matcher.New(cfg.States),
		turn:    make(chan struct{}, 1),
	}
}

// acquire waits for the lookup turn. It gives up when ctx ends first, so a
// caller that went away does not run a lookup after it.
func (s *Scraper) acquire(ctx context.Context) error {
	select {
	case s.turn <- struct{}{}:
	case <-ctx.Done():
		return browser.CategorizeError(ctx.Err(), "lookup canceled while queued")
	}
	if err := ctx.Err(); err != nil {
		s.release()
		return browser.CategorizeError(err, "lookup canceled while queued")
	}
	return nil
}

func (s *Scraper) release() { <-s.turn }

// Lookup finds the owners of the company called name.
//
// The returned error is non-nil only when the browser session could not be
// started (fatal, see models.IsFatal) or ctx ended.
func (s *Scraper) Lookup(ctx context.Context, name string) (models.Owners, error) {
	if err := s.acquire(ctx); err != nil {
		return models.Owners{}, err
	}
	defer s.release()

	if err := s.ensureSession(ctx); err != nil {
		return models.Owners{}, err
	}

	owners, err := s.lookup(ctx, name)
	if err != nil {
		return models.Owners{}, err
	}

	s.record(owners)
	return owners, nil
}

func (s *Scraper) record(owners models.Owners) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()

	s.stats.Lookups++
	switch owners.Status {
	case models.StatusMatched:
		s.stats.Matched++
	case models.StatusNoMatch:
		s.stats.NoMatch++
	default:
		s.stats.Failed++
	}
}

// ensureSession starts the browser and signs in on first use. On failure
// the scraper stays idle so a later call starts over.
func (s *Scraper) ensureSession(ctx context.Context) error {
	if s.page != nil {
		return nil
	}

	slog.Info("starting browser session", "states", s.matcher.States())
	page, closer, err := s.open(ctx)
	if err != nil {
		var se *models.ScrapeError
		if errors.As(err, &se) {
			return se
		}
		return models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to start browser", err)
	}

	if err := Login(ctx, page, SignInURL(s.cfg.BaseURL), s.creds, s.loginTimeouts()); err != nil {
		if closeErr := closer.Close(); closeErr != nil {
			slog.Warn("closing browser after failed sign-in", "error", closeErr)
		}
		return models.NewScrapeError(models.ErrCodeLoginFailed, "signing in to OpenCorporates failed", err)
	}

	s.page, s.closer = page, closer
	s.ready.Store(true)
	slog.Info("browser session ready")
	return nil
}

func (s *Scraper) lookup(ctx context.Context, name string) (models.Owners, error) {
	searchURL := SearchURL(s.cfg.BaseURL, name)
	log := slog.With("company", name)
	log.Debug("searching company", "url", searchURL)

	// ── ResultFetched ──────────────────────────────────────────────
	if err := s.navigate(ctx, searchURL); err != nil {
		return degrade(ctx, log, "search page failed to load", err)
	}
	found, err := s.page.WaitFor(ctx, resultBlockSelector, s.cfg.ResultsTimeout)
	if err != nil {
		return degrade(ctx, log, "waiting for search results failed", err)
	}
	if !found {
		log.Info("no search results")
		return models.NoMatch("no search results"), nil
	}

	rawHTML, err := s.page.HTML(ctx)
	if err != nil {
		return degrade(ctx, log, "reading search results failed", err)
	}
	blocks, err := ParseResults(rawHTML)
	if err != nil {
		return degrade(ctx, log, "parsing search results failed", err)
	}

	texts := make([]string, len(blocks))
	for i, b := range blocks {
		texts[i] = b.Text
	}
	idx, ok := s.matcher.Select(texts, name)
	if !ok {
		log.Info("no matching company in search results", "results", len(blocks))
		return models.NoMatch("no matching result"), nil
	}
	match := blocks[idx]
	log.Debug("matched search result", "result", match.Text, "position", idx)

	// ── OwnerExtracted ─────────────────────────────────────────────
	if match.Href == "" {
		log.Warn("matched result has no company link", "result", match.Text)
		return models.Failed("matched result has no company link"), nil
	}
	companyURL, err := resolveLink(s.cfg.BaseURL, match.Href)
	if err != nil {
		return degrade(ctx, log, "bad company link", err)
	}

	if err := s.navigate(ctx, companyURL); err != nil {
		return degrade(ctx, log, "company page failed to load", err)
	}
	found, err = s.page.WaitFor(ctx, ownerBlockSelector, s.cfg.OwnersTimeout)
	if err != nil {
		return degrade(ctx, log, "waiting for owner entries failed", err)
	}
	if !found {
		log.Info("company page lists no owners", "url", companyURL)
		owners := models.Matched("", match.Text, companyURL)
		owners.Reason = "company page lists no owners"
		return owners, nil
	}

	rawHTML, err = s.page.HTML(ctx)
	if err != nil {
		return degrade(ctx, log, "reading company page failed", err)
	}
	entries, err := ParseOwners(rawHTML)
	if err != nil {
		return degrade(ctx, log, "parsing owner entries failed", err)
	}

	text := CleanOwners(entries)
	log.Debug("owners extracted", "url", companyURL, "entries", len(entries))
	return models.Matched(text, match.Text, companyURL), nil
}

func (s *Scraper) loginTimeouts() LoginTimeouts {
	return LoginTimeouts{Navigation: s.cfg.NavigationTimeout, Form: s.cfg.LoginTimeout}
}

// navigate loads url, bounded by the configured navigation timeout.
func (s *Scraper) navigate(ctx context.Context, url string) error {
	if s.cfg.NavigationTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.NavigationTimeout)
		defer cancel()
	}
	return s.page.Navigate(ctx, url)
}

// degrade turns a fetch failure into an empty owners record. A finished
// ctx is returned as an error instead, so callers stop.
func degrade(ctx context.Context, log *slog.Logger, reason string, err error) (models.Owners, error) {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return models.Owners{}, browser.CategorizeError(ctxErr, "lookup canceled")
	}
	log.Warn(reason, "error", err)
	return models.Failed(reason), nil
}

// Ready reports whether the browser session is started and signed in.
// It never waits for a running lookup.
func (s *Scraper) Ready() bool {
	return s.ready.Load()
}

// Stats returns a snapshot of lookup outcomes. It never waits for a
// running lookup.
func (s *Scraper) Stats() models.LookupStats {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.stats
}

// States returns the configured target states.
func (s *Scraper) States() []string {
	return s.matcher.States()
}

// Close ends the browser session, if one was started. It waits for a
// running lookup to finish.
func (s *Scraper) Close() error {
	s.turn <- struct{}{}
	defer s.release()

	if s.closer == nil {
		return nil
	}
	s.ready.Store(false)
	err := s.closer.Close()
	s.page, s.closer = nil, nil
	return err
}
