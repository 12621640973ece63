package browser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/ownerlookup/models"
)

// Page is the subset of tab control the lookup workflow needs.
type Page interface {
	// Navigate loads url and waits for the load event.
	Navigate(ctx context.Context, url string) error

	// WaitFor polls until at least one element matches the CSS selector.
	// It reports false, without error, when timeout elapses first.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error)

	// HTML returns the rendered document.
	HTML(ctx context.Context) (string, error)

	// URL returns the current location.
	URL(ctx context.Context) (string, error)

	// Input types text into the element matching the CSS selector.
	Input(ctx context.Context, selector, text string) error

	// ClickX clicks the element matching the XPath expression.
	ClickX(ctx context.Context, xpath string) error
}

type rodPage struct {
	page *rod.Page
}

func (r *rodPage) Navigate(ctx context.Context, url string) error {
	p := r.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return CategorizeError(err, "navigation failed")
	}
	if err := p.WaitLoad(); err != nil {
		return CategorizeError(err, "page did not finish loading")
	}
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM",
			"error", err,
		)
	}
	return nil
}

func (r *rodPage) WaitFor(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	err := r.page.Context(ctx).Timeout(timeout).WaitElementsMoreThan(selector, 0)
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, CategorizeError(ctx.Err(), "wait canceled")
	case errors.Is(err, context.DeadlineExceeded):
		return false, nil
	default:
		return false, CategorizeError(err, fmt.Sprintf("waiting for %q failed", selector))
	}
}

func (r *rodPage) HTML(ctx context.Context) (string, error) {
	html, err := r.page.Context(ctx).HTML()
	if err != nil {
		return "", CategorizeError(err, "failed to extract page HTML")
	}
	return html, nil
}

func (r *rodPage) URL(ctx context.Context) (string, error) {
	info, err := r.page.Context(ctx).Info()
	if err != nil {
		return "", CategorizeError(err, "failed to read page info")
	}
	return info.URL, nil
}

func (r *rodPage) Input(ctx context.Context, selector, text string) error {
	el, err := r.page.Context(ctx).Element(selector)
	if err != nil {
		return CategorizeError(err, fmt.Sprintf("element %q not found", selector))
	}
	if err := el.Input(text); err != nil {
		return CategorizeError(err, fmt.Sprintf("typing into %q failed", selector))
	}
	return nil
}

func (r *rodPage) ClickX(ctx context.Context, xpath string) error {
	el, err := r.page.Context(ctx).ElementX(xpath)
	if err != nil {
		return CategorizeError(err, fmt.Sprintf("element %q not found", xpath))
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return CategorizeError(err, fmt.Sprintf("click on %q failed", xpath))
	}
	return nil
}

// CategorizeError wraps raw errors into typed ScrapeErrors so callers can
// tell timeouts from navigation failures.
func CategorizeError(err error, msg string) *models.ScrapeError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewScrapeError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewScrapeError(models.ErrCodeTimeout, "request canceled", err)
	default:
		return models.NewScrapeError(models.ErrCodeNavigation, msg, err)
	}
}
