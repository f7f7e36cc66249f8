package models

import "strings"

// DefaultTopK is the number of semantic results returned when a request does not set K.
const DefaultTopK = 5

// MaxTopK caps K for requests coming through the outer surfaces.
const MaxTopK = 100

// SearchMode reports which path produced a response.
type SearchMode string

const (
	// ModeSemantic means results were ranked by embedding similarity.
	ModeSemantic SearchMode = "semantic"
	// ModeFallback means results came from case-insensitive substring matching in
	// catalog order, without scores.
	ModeFallback SearchMode = "fallback"
	// ModeAll means the query was empty and the full catalog was returned.
	ModeAll SearchMode = "all"
)

// SearchQuery is a search request from the HTTP API or CLI.
type SearchQuery struct {
	Query string `json:"query"`
	K     int    `json:"k,omitempty"`
}

// Validate normalizes the query: trims the text and applies the default and cap for K.
// An empty query is valid and means "return the full catalog".
func (q *SearchQuery) Validate(defaultK, maxK int) error {
	q.Query = strings.TrimSpace(q.Query)
	if defaultK <= 0 {
		defaultK = DefaultTopK
	}
	if maxK <= 0 {
		maxK = MaxTopK
	}
	if q.K <= 0 {
		q.K = defaultK
	}
	if q.K > maxK {
		q.K = maxK
	}
	return nil
}
