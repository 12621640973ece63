// Package pipeline fills the contact column of a company spreadsheet with
// the owners found for each business name.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/ownerlookup/cache"
	"github.com/use-agent/ownerlookup/models"
	"github.com/use-agent/ownerlookup/spreadsheet"
)

const (
	// BusinessNameColumn is the input column holding company names.
	BusinessNameColumn = "Business Name"

	// ContactNameColumn is the output column receiving owner text.
	ContactNameColumn = "Contact Name"
)

// Lookuper finds the owners of one company.
type Lookuper interface {
	Lookup(ctx context.Context, name string) (models.Owners, error)
}

// Enricher runs lookups for every row of a table.
type Enricher struct {
	lookup Lookuper
	cache  *cache.Cache
	maxAge time.Duration
	states []string
}

// NewEnricher creates an Enricher. cache may be nil. states only scope the
// cache keys; filtering by state is the Lookuper's job.
func NewEnricher(lookup Lookuper, c *cache.Cache, maxAge time.Duration, states []string) *Enricher {
	return &Enricher{
		lookup: lookup,
		cache:  c,
		maxAge: maxAge,
		states: states,
	}
}

// Enrich looks up every business name in t, in row order, and writes the
// owners into the contact column, adding it when missing.
//
// A fatal lookup error or a canceled ctx aborts the run; the summary counts
// the rows processed so far. Every other outcome leaves a contact cell,
// empty when nothing was found.
func (e *Enricher) Enrich(ctx context.Context, t *spreadsheet.Table) (*models.RunSummary, error) {
	start := time.Now()
	summary := &models.RunSummary{}

	nameCol := t.Column(BusinessNameColumn)
	if nameCol < 0 {
		return summary, models.NewScrapeError(models.ErrCodeInvalidInput,
			fmt.Sprintf("spreadsheet has no %q column", BusinessNameColumn), nil)
	}
	contactCol := t.EnsureColumn(ContactNameColumn)

	// Outcomes already seen in this run, so repeated names cost one lookup
	// even without a shared cache.
	seen := make(map[string]models.Owners)

	for row := range t.Rows {
		summary.Rows++
		name := strings.TrimSpace(t.Cell(row, nameCol))
		if name == "" {
			summary.Skipped++
			t.Set(row, contactCol, "")
			continue
		}

		owners, hit, err := e.resolve(ctx, name, seen)
		if err != nil {
			summary.DurationMs = time.Since(start).Milliseconds()
			return summary, err
		}
		if hit {
			summary.CacheHits++
		}
		summary.Record(owners)
		t.Set(row, contactCol, owners.CellValue())

		slog.Info("company processed",
			"row", row+2,
			"company", name,
			"status", owners.Status,
			"cached", hit,
		)
	}

	summary.DurationMs = time.Since(start).Milliseconds()
	return summary, nil
}

func (e *Enricher) resolve(ctx context.Context, name string, seen map[string]models.Owners) (models.Owners, bool, error) {
	key := cache.Key(name, e.states)
	if o, ok := seen[key]; ok {
		return o, true, nil
	}
	if o, ok := e.cache.Get(key, e.maxAge); ok {
		seen[key] = o
		return o, true, nil
	}

	o, err := e.lookup.Lookup(ctx, name)
	if err != nil {
		return models.Owners{}, false, err
	}
	if cache.Cacheable(o) {
		seen[key] = o
		e.cache.Set(key, o)
	}
	return o, false, nil
}

// Run reads the workbook at inPath, enriches it and writes the result to
// outPath. Nothing is written when enrichment aborts.
func (e *Enricher) Run(ctx context.Context, inPath, outPath string) (*models.RunSummary, error) {
	slog.Info("reading spreadsheet", "path", inPath)
	t, err := spreadsheet.ReadFile(inPath)
	if err != nil {
		return nil, err
	}
	slog.Info("spreadsheet loaded", "sheet", t.Sheet, "rows", len(t.Rows))

	summary, err := e.Enrich(ctx, t)
	if err != nil {
		return summary, err
	}

	slog.Info("writing spreadsheet", "path", outPath)
	if err := spreadsheet.WriteFile(outPath, t); err != nil {
		return summary, err
	}

	slog.Info("run finished",
		"rows", summary.Rows,
		"matched", summary.Matched,
		"no_match", summary.NoMatch,
		"failed", summary.Failed,
		"skipped", summary.Skipped,
		"cache_hits", summary.CacheHits,
		"duration_ms", summary.DurationMs,
	)
	return summary, nil
}
