package models

import "strings"

// LookupRequest is the payload for POST /api/v1/lookup.
type LookupRequest struct {
	// BusinessName is the company name to search for. Required.
	BusinessName string `json:"business_name" binding:"required,max=512"`

	// MaxAge allows serving a cached result younger than this many
	// milliseconds. 0 disables the cache for this request.
	MaxAge int `json:"max_age,omitempty" binding:"omitempty,min=0"`
}

// Defaults normalises the request in place.
func (r *LookupRequest) Defaults() {
	r.BusinessName = strings.TrimSpace(r.BusinessName)
}
