// Package browser owns the Chrome session used for lookups.
//
// A Session is one launched browser with one tab. Callers drive the tab
// through the Page interface so the lookup workflow can be exercised
// without a browser.
package browser

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/ownerlookup/config"
	"github.com/use-agent/ownerlookup/models"
	"github.com/ysmood/gson"
)

// OpenFunc starts a browser session and returns its page plus the closer
// that tears the session down.
type OpenFunc func(ctx context.Context) (Page, io.Closer, error)

// Session is a launched Chrome process with a single reusable tab.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	router   *rod.HijackRouter
}

// Opener returns an OpenFunc launching sessions with cfg. The session
// outlives the ctx it was opened with; only Close ends it.
func Opener(cfg config.BrowserConfig) OpenFunc {
	return func(ctx context.Context) (Page, io.Closer, error) {
		if err := ctx.Err(); err != nil {
			return nil, nil, CategorizeError(err, "browser start canceled")
		}
		s, err := Launch(context.WithoutCancel(ctx), cfg)
		if err != nil {
			return nil, nil, err
		}
		return s.Page(), s, nil
	}
}

// Launch starts Chrome, connects to it and prepares one tab: user agent,
// extra headers, stealth evasions and resource blocking.
func Launch(ctx context.Context, cfg config.BrowserConfig) (*Session, error) {
	l := launcher.New().
		Context(ctx).
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("log-level"), "3")
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	if cfg.UserAgent != "" {
		l.Set(flags.Flag("user-agent"), cfg.UserAgent)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Debug("browser launched", "controlURL", controlURL, "headless", cfg.Headless)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = b.Close()
		l.Kill()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to open page",
			err,
		)
	}

	s := &Session{launcher: l, browser: b, page: page}
	s.prepare(cfg)
	return s, nil
}

// prepare applies best-effort page settings. Failures are logged and the
// session continues without the setting.
func (s *Session) prepare(cfg config.BrowserConfig) {
	if cfg.UserAgent != "" {
		if err := s.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      cfg.UserAgent,
			AcceptLanguage: "en-US,en;q=0.9",
		}); err != nil {
			slog.Warn("user agent override failed", "error", err)
		}
	}

	if err := (proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
		}),
	}).Call(s.page); err != nil {
		slog.Warn("extra headers failed", "error", err)
	}

	if cfg.Stealth {
		if _, err := s.page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", err,
			)
		}
	}

	s.router = setupHijack(s.page, cfg.BlockedResourceTypes)
}

// Page returns the session's tab.
func (s *Session) Page() Page {
	return &rodPage{page: s.page}
}

// Close stops request interception and kills the browser process.
func (s *Session) Close() error {
	if s.router != nil {
		_ = s.router.Stop()
	}
	err := s.browser.Close()
	s.launcher.Kill()
	s.launcher.Cleanup()
	slog.Debug("browser closed")
	return err
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
