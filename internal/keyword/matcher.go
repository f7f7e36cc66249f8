// Package keyword provides the plain-text matchers used when semantic search is unavailable.
package keyword

import (
	"context"
	"strings"

	"github.com/hyperjump/etalase/internal/models"
)

// Matcher selects the items whose name or description contains the query,
// case-insensitively. Results keep catalog order and carry no score. Tags are
// not consulted.
type Matcher interface {
	Match(ctx context.Context, query string, items []*models.Item) ([]*models.Item, error)
}

// Indexer is implemented by matchers that precompute a structure over the catalog.
type Indexer interface {
	Index(ctx context.Context, items []*models.Item) error
}

// SubstringMatcher is the reference Matcher: a linear case-folded substring scan.
type SubstringMatcher struct{}

// NewSubstringMatcher creates a SubstringMatcher.
func NewSubstringMatcher() *SubstringMatcher {
	return &SubstringMatcher{}
}

// Match implements Matcher.
func (m *SubstringMatcher) Match(ctx context.Context, query string, items []*models.Item) ([]*models.Item, error) {
	q := strings.ToLower(query)
	out := make([]*models.Item, 0)
	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if Contains(it, q) {
			out = append(out, it)
		}
	}
	return out, nil
}

// Contains reports whether the lowercased query occurs in the item's name or description.
func Contains(it *models.Item, lowerQuery string) bool {
	return strings.Contains(strings.ToLower(it.Name), lowerQuery) ||
		strings.Contains(strings.ToLower(it.Description), lowerQuery)
}
