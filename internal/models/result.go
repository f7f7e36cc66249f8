package models

// SearchResult is a single hit. Score is only meaningful in semantic mode.
type SearchResult struct {
	Item  *Item   `json:"item"`
	Score float64 `json:"score,omitempty"`
	Rank  int     `json:"rank"`
}

// SearchResponse is the response for a search request.
type SearchResponse struct {
	Results   []*SearchResult `json:"results"`
	Total     int             `json:"total"`
	Mode      SearchMode      `json:"mode"`
	QueryTime int64           `json:"query_time_ms"`
	Query     string          `json:"query"`
}

// NewSearchResponse ranks items from 1. scores may be nil; otherwise it is
// parallel to items.
func NewSearchResponse(query string, items []*Item, scores []float64, mode SearchMode, queryTimeMs int64) *SearchResponse {
	resp := &SearchResponse{
		Results:   make([]*SearchResult, 0, len(items)),
		Total:     len(items),
		Mode:      mode,
		QueryTime: queryTimeMs,
		Query:     query,
	}
	for i, it := range items {
		r := &SearchResult{Item: it, Rank: i + 1}
		if i < len(scores) {
			r.Score = scores[i]
		}
		resp.Results = append(resp.Results, r)
	}
	return resp
}

// StatusResponse describes the retrieval service lifecycle.
type StatusResponse struct {
	Session   string `json:"session"`
	State     string `json:"state"`
	Building  bool   `json:"building"`
	Error     string `json:"error,omitempty"`
	Items     int    `json:"items"`
	IndexSize int    `json:"index_size"`
	// Stage and Message echo the latest progress event, if any.
	Stage   string `json:"stage,omitempty"`
	Message string `json:"message,omitempty"`
	Done    int    `json:"done,omitempty"`
	Total   int    `json:"total,omitempty"`
}
