// Package browsertest provides an in-memory browser.Page for tests.
package browsertest

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/use-agent/ownerlookup/browser"
)

// Page serves fixed HTML documents by URL. Unknown URLs load as an empty
// document. It is safe for concurrent use.
type Page struct {
	mu sync.Mutex

	// Docs maps a URL to the HTML served for it.
	Docs map[string]string

	// NavErrors makes Navigate fail for the given URLs.
	NavErrors map[string]error

	// SubmitURL is where ClickX navigates to, emulating a form submit.
	// Empty leaves the page where it is.
	SubmitURL string

	// Hold makes Navigate to the given URLs hang until the channel is
	// closed or ctx ends, emulating a page that never finishes loading.
	Hold map[string]chan struct{}

	// Navigating, when set, receives each URL as Navigate starts on it.
	Navigating chan<- string

	current string
	visits  []string
	inputs  map[string]string
	clicks  []string
	closed  bool
}

// NewPage returns a Page serving docs.
func NewPage(docs map[string]string) *Page {
	return &Page{
		Docs:      docs,
		NavErrors: map[string]error{},
		Hold:      map[string]chan struct{}{},
		inputs:    map[string]string{},
	}
}

// Opener returns a browser.OpenFunc handing out p.
func (p *Page) Opener() browser.OpenFunc {
	return func(ctx context.Context) (browser.Page, io.Closer, error) {
		return p, p, nil
	}
}

func (p *Page) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return browser.CategorizeError(err, "navigation failed")
	}
	p.mu.Lock()
	p.visits = append(p.visits, url)
	hold := p.Hold[url]
	navigating := p.Navigating
	p.mu.Unlock()

	if navigating != nil {
		navigating <- url
	}
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return browser.CategorizeError(ctx.Err(), "navigation failed")
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.NavErrors[url]; err != nil {
		return browser.CategorizeError(err, "navigation failed")
	}
	p.current = url
	return nil
}

// WaitFor reports immediately whether the current document has a match.
func (p *Page) WaitFor(ctx context.Context, selector string, _ time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, browser.CategorizeError(err, "wait canceled")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(p.document()))
	if err != nil {
		return false, err
	}
	return doc.Find(selector).Length() > 0, nil
}

func (p *Page) HTML(ctx context.Context) (string, error) {
	return p.document(), ctx.Err()
}

func (p *Page) URL(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current, ctx.Err()
}

func (p *Page) Input(ctx context.Context, selector, text string) error {
	found, err := p.WaitFor(ctx, selector, 0)
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("element %q not found", selector)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.inputs[selector] = text
	return nil
}

func (p *Page) ClickX(ctx context.Context, xpath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.clicks = append(p.clicks, xpath)
	if p.SubmitURL != "" {
		p.current = p.SubmitURL
	}
	return nil
}

// Close marks the page closed.
func (p *Page) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	return nil
}

// Visits returns every URL passed to Navigate, in order.
func (p *Page) Visits() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.visits...)
}

// Inputs returns the text typed into each selector.
func (p *Page) Inputs() map[string]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]string, len(p.inputs))
	for k, v := range p.inputs {
		out[k] = v
	}
	return out
}

// Clicks returns the XPath expressions clicked, in order.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

// Closed reports whether Close was called.
func (p *Page) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *Page) document() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.Docs[p.current]
}
