package pipeline

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/ownerlookup/cache"
	"github.com/use-agent/ownerlookup/models"
	"github.com/use-agent/ownerlookup/spreadsheet"
)

// fakeLookuper answers from a fixed table and records every call.
type fakeLookuper struct {
	mu      sync.Mutex
	results map[string]models.Owners
	errs    map[string]error
	calls   []string
}

func (f *fakeLookuper) Lookup(ctx context.Context, name string) (models.Owners, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, name)
	if err := f.errs[name]; err != nil {
		return models.Owners{}, err
	}
	if o, ok := f.results[name]; ok {
		return o, nil
	}
	return models.NoMatch("no search results"), nil
}

func newTable(names ...string) *spreadsheet.Table {
	t := &spreadsheet.Table{Header: []string{"Business Name", "City"}}
	for _, n := range names {
		t.Rows = append(t.Rows, []string{n, "Chicago"})
	}
	return t
}

func TestEnrich_WritesContactColumn(t *testing.T) {
	lk := &fakeLookuper{results: map[string]models.Owners{
		"Acme Inc": models.Matched("John Doe\nJane Roe", "ACME INC (Illinois)", "https://oc.test/companies/us_il/1"),
		"Broken":   models.Failed("company page failed to load"),
	}}
	tbl := newTable("Acme Inc", "Zenith Co", "Broken")

	summary, err := NewEnricher(lk, nil, 0, nil).Enrich(context.Background(), tbl)
	require.NoError(t, err)

	col := tbl.Column(ContactNameColumn)
	require.Equal(t, 2, col)
	assert.Equal(t, "John Doe\nJane Roe", tbl.Cell(0, col))
	assert.Equal(t, "", tbl.Cell(1, col))
	assert.Equal(t, "", tbl.Cell(2, col))
	for i := range tbl.Rows {
		assert.Len(t, tbl.Rows[i], 3, "row %d", i)
	}

	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.NoMatch)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, []string{"Acme Inc", "Zenith Co", "Broken"}, lk.calls)
}

func TestEnrich_ReusesExistingContactColumn(t *testing.T) {
	lk := &fakeLookuper{results: map[string]models.Owners{
		"Acme Inc": models.Matched("John Doe", "ACME INC (Illinois)", ""),
	}}
	tbl := &spreadsheet.Table{
		Header: []string{"Contact Name", "Business Name"},
		Rows:   [][]string{{"stale", "Acme Inc"}},
	}

	_, err := NewEnricher(lk, nil, 0, nil).Enrich(context.Background(), tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"Contact Name", "Business Name"}, tbl.Header)
	assert.Equal(t, "John Doe", tbl.Cell(0, 0))
}

func TestEnrich_SkipsBlankNames(t *testing.T) {
	lk := &fakeLookuper{}
	tbl := newTable("  ", "Zenith Co")
	tbl.Rows = append(tbl.Rows, []string{})

	summary, err := NewEnricher(lk, nil, 0, nil).Enrich(context.Background(), tbl)
	require.NoError(t, err)

	assert.Equal(t, 3, summary.Rows)
	assert.Equal(t, 2, summary.Skipped)
	assert.Equal(t, []string{"Zenith Co"}, lk.calls)
	assert.Equal(t, "", tbl.Cell(2, tbl.Column(ContactNameColumn)))
}

func TestEnrich_RepeatedNamesLookedUpOnce(t *testing.T) {
	lk := &fakeLookuper{results: map[string]models.Owners{
		"Acme Inc": models.Matched("John Doe", "ACME INC (Illinois)", ""),
	}}
	tbl := newTable("Acme Inc", "acme inc ", "Acme Inc")

	summary, err := NewEnricher(lk, nil, 0, nil).Enrich(context.Background(), tbl)
	require.NoError(t, err)

	assert.Equal(t, []string{"Acme Inc"}, lk.calls)
	assert.Equal(t, 2, summary.CacheHits)
	assert.Equal(t, 3, summary.Matched)
}

func TestEnrich_FailedOutcomesAreRetried(t *testing.T) {
	lk := &fakeLookuper{results: map[string]models.Owners{
		"Flaky": models.Failed("search page failed to load"),
	}}
	tbl := newTable("Flaky", "Flaky")

	summary, err := NewEnricher(lk, nil, 0, nil).Enrich(context.Background(), tbl)
	require.NoError(t, err)
	assert.Equal(t, []string{"Flaky", "Flaky"}, lk.calls)
	assert.Equal(t, 0, summary.CacheHits)
}

func TestEnrich_SharedCacheAcrossRuns(t *testing.T) {
	c := cache.New(10, time.Hour)
	defer c.Close()

	lk := &fakeLookuper{results: map[string]models.Owners{
		"Acme Inc": models.Matched("John Doe", "ACME INC (Illinois)", ""),
	}}
	states := []string{"Illinois"}

	_, err := NewEnricher(lk, c, time.Hour, states).Enrich(context.Background(), newTable("Acme Inc"))
	require.NoError(t, err)

	tbl := newTable("Acme Inc")
	summary, err := NewEnricher(lk, c, time.Hour, states).Enrich(context.Background(), tbl)
	require.NoError(t, err)

	assert.Len(t, lk.calls, 1)
	assert.Equal(t, 1, summary.CacheHits)
	assert.Equal(t, "John Doe", tbl.Cell(0, tbl.Column(ContactNameColumn)))
}

func TestEnrich_MissingNameColumn(t *testing.T) {
	tbl := &spreadsheet.Table{Header: []string{"Company"}, Rows: [][]string{{"Acme Inc"}}}

	_, err := NewEnricher(&fakeLookuper{}, nil, 0, nil).Enrich(context.Background(), tbl)

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeInvalidInput, se.Code)
}

func TestEnrich_FatalErrorAborts(t *testing.T) {
	loginErr := models.NewScrapeError(models.ErrCodeLoginFailed, "signing in to OpenCorporates failed", nil)
	lk := &fakeLookuper{
		results: map[string]models.Owners{"Acme Inc": models.Matched("John Doe", "ACME INC (Illinois)", "")},
		errs:    map[string]error{"Zenith Co": loginErr},
	}
	tbl := newTable("Acme Inc", "Zenith Co", "Other Co")

	summary, err := NewEnricher(lk, nil, 0, nil).Enrich(context.Background(), tbl)
	require.Error(t, err)
	assert.True(t, models.IsFatal(err))
	assert.Equal(t, 2, summary.Rows)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, []string{"Acme Inc", "Zenith Co"}, lk.calls)
}

func TestRun_MissingInput(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out.xlsx")

	_, err := NewEnricher(&fakeLookuper{}, nil, 0, nil).Run(context.Background(), filepath.Join(dir, "in.xlsx"), out)

	var se *models.ScrapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, models.ErrCodeSpreadsheet, se.Code)
	assert.NoFileExists(t, out)
}

func TestRun_AbortWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.xlsx")
	out := filepath.Join(dir, "out.xlsx")
	require.NoError(t, spreadsheet.WriteFile(in, newTable("Acme Inc")))

	lk := &fakeLookuper{errs: map[string]error{
		"Acme Inc": models.NewScrapeError(models.ErrCodeBrowserCrash, "failed to start browser", nil),
	}}
	_, err := NewEnricher(lk, nil, 0, nil).Run(context.Background(), in, out)
	require.Error(t, err)
	assert.NoFileExists(t, out)
}
