package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"legal suffix", "Acme LLC", "acme"},
		{"punctuation and digits", "Acme, Inc. #42", "acme"},
		{"inactive marker", "ACME INC (Inactive)", "acme"},
		{"and removed", "Smith and Sons", "smithsons"},
		{"and inside word", "Andover Partners", "overpartners"},
		{"co inside word", "Coleman Co", "leman"},
		{"non ascii dropped", "Café Société", "cafsocit"},
		{"empty", "", ""},
		{"only noise", "Co. and Inc.", ""},
		{"joined after punctuation", "c.o. Holdings", "holdings"},
		{"joined after removal", "aandnd", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Acme LLC, Illinois",
		"A & B Co",
		"Andover Coleman Inactive",
		"in-active c o",
		"a-nd",
		"ÀÉÎõü 123 !!",
		"llcllcinc",
		"",
	}
	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once), "input %q", in)
	}
}

func TestNormalize_OnlyLowercaseLetters(t *testing.T) {
	inputs := []string{
		"ACME Holdings, Inc. (Illinois) 2019",
		"Ärger & Söhne GmbH",
		"\t\n  mixed Space ",
		"日本語の会社",
	}
	for _, in := range inputs {
		for _, c := range Normalize(in) {
			assert.True(t, c >= 'a' && c <= 'z', "input %q produced %q", in, c)
		}
	}
}

func TestMatch(t *testing.T) {
	m := New([]string{"Illinois"})

	tests := []struct {
		name      string
		candidate string
		searched  string
		want      bool
	}{
		{"exact with state", "Acme LLC, Illinois", "Acme LLC", true},
		{"case and suffix differ", "ACME INC (Illinois)", "Acme Inc", true},
		{"search contained in candidate", "THE ACME GROUP LLC (Illinois, US)", "Acme", true},
		{"state missing", "Acme LLC, Delaware", "Acme LLC", false},
		{"name differs", "Zenith LLC, Illinois", "Acme LLC", false},
		{"state with inner whitespace", "Acme LLC I l l i n o i s", "Acme", true},
		{"state lowercased", "acme llc (illinois)", "ACME LLC", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Match(tt.candidate, tt.searched))
		})
	}
}

func TestMatch_StateComparedBeforeNormalization(t *testing.T) {
	// "co" would be stripped out of "Colorado" by Normalize.
	m := New([]string{"Colorado"})
	assert.True(t, m.Match("Acme LLC (Colorado)", "Acme"))
}

func TestMatch_MultiWordState(t *testing.T) {
	m := New([]string{"New York", " "})
	assert.Equal(t, []string{"New York"}, m.States())
	assert.True(t, m.Match("ACME CORP (New York, US)", "Acme Corp"))
	assert.False(t, m.Match("ACME CORP (New Jersey, US)", "Acme Corp"))
}

func TestMatch_NoStatesNeverMatches(t *testing.T) {
	m := New(nil)
	assert.False(t, m.Match("Acme LLC, Illinois", "Acme LLC"))
}

func TestSelect(t *testing.T) {
	m := New([]string{"Illinois"})

	candidates := []string{
		"ACME LLC (Delaware)",
		"ACME LLC (Illinois)",
		"ACME HOLDINGS LLC (Illinois)",
	}

	idx, ok := m.Select(candidates, "Acme LLC")
	assert.True(t, ok)
	assert.Equal(t, 1, idx)

	idx, ok = m.Select(nil, "Acme LLC")
	assert.False(t, ok)
	assert.Equal(t, -1, idx)

	_, ok = m.Select(candidates, "Zenith Co")
	assert.False(t, ok)
}
