// Package matcher decides which search result corresponds to a searched
// company name.
//
// Both texts are reduced to a comparable form by Normalize; a candidate
// matches when the normalized names overlap and the candidate mentions one
// of the configured target states.
package matcher

import (
	"strings"
	"unicode"
)

// removedWords are stripped before the legal suffixes. "inactive" shows up
// on dissolved companies in search results.
var removedWords = []string{"inactive", "and"}

// legalSuffixes are business entity abbreviations.
var legalSuffixes = []string{"llc", "co", "inc"}

// Normalize lowercases text, removes the noise words and legal suffixes and
// drops every character that is not an ASCII letter.
//
// Removal is plain substring removal, not word-aware: "Andover" becomes
// "over" and "Coleman" becomes "leman". Both sides of a comparison are
// normalized the same way, so the damage is symmetric.
//
// Removing words or punctuation can bring a new "and" or "co" together
// ("c.o", "aandnd"), so the passes repeat until the text stops changing.
// Normalize(Normalize(s)) == Normalize(s) for every s.
func Normalize(text string) string {
	s := strings.ToLower(text)
	for {
		next := lettersOnly(stripWords(s))
		if next == s {
			return s
		}
		s = next
	}
}

func stripWords(s string) string {
	for _, w := range removedWords {
		s = strings.ReplaceAll(s, w, "")
	}
	for _, w := range legalSuffixes {
		s = strings.ReplaceAll(s, w, "")
	}
	return s
}

func lettersOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= 'a' && c <= 'z' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Matcher holds the target state filter.
type Matcher struct {
	states []string // lowercased, whitespace stripped
	raw    []string
}

// New creates a Matcher for the given target states (e.g. "Illinois",
// "New York"). Blank entries are ignored.
func New(states []string) *Matcher {
	m := &Matcher{}
	for _, s := range states {
		prepared := squash(s)
		if prepared == "" {
			continue
		}
		m.states = append(m.states, prepared)
		m.raw = append(m.raw, strings.TrimSpace(s))
	}
	return m
}

// States returns the configured target states as given.
func (m *Matcher) States() []string {
	return append([]string(nil), m.raw...)
}

// Match reports whether candidate, the display text of one search result,
// is the company named searched.
func (m *Matcher) Match(candidate, searched string) bool {
	c := Normalize(candidate)
	s := Normalize(searched)

	namesMatch := strings.HasPrefix(c, s) || strings.Contains(c, s)
	return namesMatch && m.inTargetState(candidate)
}

// Select returns the index of the first candidate matching searched.
func (m *Matcher) Select(candidates []string, searched string) (int, bool) {
	for i, c := range candidates {
		if m.Match(c, searched) {
			return i, true
		}
	}
	return -1, false
}

func (m *Matcher) inTargetState(candidate string) bool {
	text := squash(candidate)
	for _, st := range m.states {
		if strings.Contains(text, st) {
			return true
		}
	}
	return false
}

// squash lowercases s and removes all whitespace.
func squash(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}
