package pipeline

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/ownerlookup/browser/browsertest"
	"github.com/use-agent/ownerlookup/config"
	"github.com/use-agent/ownerlookup/opencorporates"
	"github.com/use-agent/ownerlookup/spreadsheet"
)

const e2eBase = "https://oc.test/"

func TestRun_EndToEnd(t *testing.T) {
	page := browsertest.NewPage(map[string]string{
		opencorporates.SignInURL(e2eBase): `<html><body><form>
<input id="user_email"><input id="user_password">
<button name="submit">Sign in</button>
</form></body></html>`,
		e2eBase: `<html><body>Dashboard</body></html>`,
		opencorporates.SearchURL(e2eBase, "Acme Inc"): `<html><body><ul>
<li class="company"><a class="company_search_result" href="/companies/us_il/42">ACME INC</a> (Illinois)</li>
</ul></body></html>`,
		e2eBase + "companies/us_il/42": `<html><body><ul>
<li class="attribute_item">John Doe123</li>
<li class="attribute_item">Jane99 Roe</li>
</ul></body></html>`,
	})
	page.SubmitURL = e2eBase

	sc := opencorporates.NewScraper(config.ScraperConfig{
		BaseURL:        e2eBase,
		States:         []string{"Illinois"},
		ResultsTimeout: time.Second,
		OwnersTimeout:  time.Second,
		LoginTimeout:   time.Second,
	}, config.CredentialsConfig{Email: "ops@example.com", Password: "s3cret"}, page.Opener())
	defer sc.Close()

	dir := t.TempDir()
	in := filepath.Join(dir, "companies.xlsx")
	out := filepath.Join(dir, "updated-companies.xlsx")
	require.NoError(t, spreadsheet.WriteFile(in, &spreadsheet.Table{
		Header: []string{"Business Name"},
		Rows:   [][]string{{"Acme Inc"}, {"Zenith Co"}},
	}))

	summary, err := NewEnricher(sc, nil, 0, sc.States()).Run(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Matched)
	assert.Equal(t, 1, summary.NoMatch)

	got, err := spreadsheet.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, []string{"Business Name", "Contact Name"}, got.Header)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, "Acme Inc", got.Cell(0, 0))
	assert.Equal(t, "John Doe\nJane Roe", got.Cell(0, 1))
	assert.Equal(t, "Zenith Co", got.Cell(1, 0))
	assert.Equal(t, "", got.Cell(1, 1))
}
