package models

// OwnersStatus classifies the outcome of a single owners lookup.
type OwnersStatus string

const (
	// StatusMatched means a search result matched and its detail page was
	// scraped. The owners text may still be empty.
	StatusMatched OwnersStatus = "matched"

	// StatusNoMatch means the search ran but no result block satisfied the
	// matching heuristic (including an empty result list).
	StatusNoMatch OwnersStatus = "no_match"

	// StatusFailed means a page could not be fetched or an expected element
	// was missing. The lookup degraded to an empty record.
	StatusFailed OwnersStatus = "failed"
)

// Owners is the owners record of one business: newline-joined owner names
// scraped from its detail page, or an empty record explaining why nothing
// was found. Values are immutable once constructed.
type Owners struct {
	Status      OwnersStatus `json:"status"`
	Text        string       `json:"text"`
	MatchedName string       `json:"matched_name,omitempty"`
	SourceURL   string       `json:"source_url,omitempty"`
	Reason      string       `json:"reason,omitempty"`
}

// Matched builds the record of a successful scrape.
func Matched(text, matchedName, sourceURL string) Owners {
	return Owners{
		Status:      StatusMatched,
		Text:        text,
		MatchedName: matchedName,
		SourceURL:   sourceURL,
	}
}

// NoMatch builds the empty record for a search without a matching result.
func NoMatch(reason string) Owners {
	return Owners{Status: StatusNoMatch, Reason: reason}
}

// Failed builds the empty record for a lookup that could not complete.
func Failed(reason string) Owners {
	return Owners{Status: StatusFailed, Reason: reason}
}

// Found reports whether a result was matched.
func (o Owners) Found() bool {
	return o.Status == StatusMatched
}

// CellValue is the text written to the spreadsheet's contact column.
func (o Owners) CellValue() string {
	if !o.Found() {
		return ""
	}
	return o.Text
}
