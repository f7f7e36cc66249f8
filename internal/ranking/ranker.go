// Package ranking orders embedding index entries by similarity to a query vector.
package ranking

import (
	"sort"

	"github.com/hyperjump/etalase/internal/vector"
)

// Result is a ranked entry with its cosine similarity to the query.
type Result struct {
	ID    string  `json:"id"`
	Score float64 `json:"score"`
}

// Ranker performs exact top-K retrieval over an index by full linear scan.
type Ranker struct{}

// NewRanker creates a Ranker.
func NewRanker() *Ranker {
	return &Ranker{}
}

// Rank returns the identifiers of the top min(k, N) entries by descending score.
func (r *Ranker) Rank(query []float32, idx *vector.Index, k int) ([]string, error) {
	results, err := r.RankScored(query, idx, k)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(results))
	for i, res := range results {
		ids[i] = res.ID
	}
	return ids, nil
}

// RankScored is Rank with scores attached. Entries with equal scores keep
// their index order. An empty index or k <= 0 yields an empty result.
func (r *Ranker) RankScored(query []float32, idx *vector.Index, k int) ([]Result, error) {
	if k <= 0 || idx.Len() == 0 {
		return []Result{}, nil
	}

	scores, err := idx.Score(query)
	if err != nil {
		return nil, err
	}
	entries := idx.Entries()
	results := make([]Result, len(entries))
	for i, e := range entries {
		results[i] = Result{ID: e.ID(), Score: scores[i]}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results, nil
}
