package models

// LookupResponse is the response for POST /api/v1/lookup.
type LookupResponse struct {
	// Success indicates whether the lookup completed without a hard error.
	// A lookup that found nothing is still successful.
	Success bool `json:"success"`

	// BusinessName echoes the searched name.
	BusinessName string `json:"business_name,omitempty"`

	// Owners is the lookup outcome.
	Owners *Owners `json:"owners,omitempty"`

	// Timing provides duration breakdowns for the operation.
	Timing TimingInfo `json:"timing"`

	// CacheStatus indicates whether the response was served from cache.
	// Values: "hit", "miss", or empty (caching not requested).
	CacheStatus string `json:"cache_status,omitempty"`

	// Error is populated only when Success is false.
	Error *ErrorDetail `json:"error,omitempty"`
}

// TimingInfo breaks down the time spent in each phase.
type TimingInfo struct {
	TotalMs  int64 `json:"total_ms"`
	LookupMs int64 `json:"lookup_ms"`
}

// HealthResponse is the response for GET /api/v1/health.
type HealthResponse struct {
	Status       string      `json:"status"` // "healthy" or "idle"
	Uptime       string      `json:"uptime"`
	SessionReady bool        `json:"session_ready"`
	Stats        LookupStats `json:"stats"`
	States       []string    `json:"states"`
	Version      string      `json:"version"`
}

// LookupStats counts lookup outcomes since the scraper was created.
type LookupStats struct {
	Lookups int `json:"lookups"`
	Matched int `json:"matched"`
	NoMatch int `json:"no_match"`
	Failed  int `json:"failed"`
}

// RunSummary reports the outcome of one spreadsheet enrichment run.
type RunSummary struct {
	Rows       int   `json:"rows"`
	Matched    int   `json:"matched"`
	NoMatch    int   `json:"no_match"`
	Failed     int   `json:"failed"`
	Skipped    int   `json:"skipped"`
	CacheHits  int   `json:"cache_hits"`
	DurationMs int64 `json:"duration_ms"`
}

// Record counts one lookup outcome.
func (s *RunSummary) Record(o Owners) {
	switch o.Status {
	case StatusMatched:
		s.Matched++
	case StatusNoMatch:
		s.NoMatch++
	default:
		s.Failed++
	}
}

// ErrorResponse is the body of a request rejected before any lookup ran.
type ErrorResponse struct {
	Success bool         `json:"success"`
	Error   *ErrorDetail `json:"error"`
}
