package vector

import (
	"context"
	"fmt"

	"github.com/hyperjump/etalase/internal/embedding"
	"github.com/hyperjump/etalase/internal/models"
)

// Entry pairs a catalog item identifier with its embedding.
type Entry struct {
	id     string
	vector []float32
}

// ID returns the item identifier.
func (e Entry) ID() string {
	return e.id
}

// Vector returns a copy of the embedding.
func (e Entry) Vector() []float32 {
	return append([]float32(nil), e.vector...)
}

// EmbedFunc returns the embedding of one catalog item.
type EmbedFunc func(ctx context.Context, item *models.Item) ([]float32, error)

// ProgressFunc is called after each item is embedded.
type ProgressFunc func(done, total int, id string)

// Index holds one embedding per catalog item in catalog order. It is immutable
// once Build returns and safe for concurrent readers.
type Index struct {
	entries    []Entry
	positions  map[string]int
	dimensions int
	ready      bool
}

// BuildOption configures Build.
type BuildOption func(*buildOptions)

type buildOptions struct {
	progress ProgressFunc
}

// WithProgress reports per-item progress during Build.
func WithProgress(fn ProgressFunc) BuildOption {
	return func(o *buildOptions) { o.progress = fn }
}

// Build embeds every item and returns a ready index. The build is all-or-nothing:
// the first embedding failure, dimension disagreement or context cancellation aborts
// it and no index is returned. A duplicate identifier replaces the earlier entry
// in place.
func Build(ctx context.Context, items []*models.Item, embed EmbedFunc, opts ...BuildOption) (*Index, error) {
	var o buildOptions
	for _, opt := range opts {
		opt(&o)
	}
	idx := &Index{
		entries:   make([]Entry, 0, len(items)),
		positions: make(map[string]int, len(items)),
	}
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := item.ID.String()
		vec, err := embed(ctx, item)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			return nil, &embedding.EmbedderError{ItemID: id, Err: err}
		}
		if i == 0 {
			idx.dimensions = len(vec)
		} else if len(vec) != idx.dimensions {
			return nil, &embedding.EmbedderError{
				ItemID: id,
				Err:    fmt.Errorf("%w: embedding dimension %d, index dimension %d", ErrInvalidInput, len(vec), idx.dimensions),
			}
		}
		entry := Entry{id: id, vector: append([]float32(nil), vec...)}
		if pos, ok := idx.positions[id]; ok {
			idx.entries[pos] = entry
		} else {
			idx.positions[id] = len(idx.entries)
			idx.entries = append(idx.entries, entry)
		}
		if o.progress != nil {
			o.progress(i+1, len(items), id)
		}
	}
	idx.ready = true
	return idx, nil
}

// EmbedWith adapts an Embedder to an EmbedFunc using the item's embedding text.
func EmbedWith(e embedding.Embedder) EmbedFunc {
	return func(ctx context.Context, item *models.Item) ([]float32, error) {
		return e.Embed(ctx, item.EmbeddingText())
	}
}

// IsReady reports whether the index came from a successful Build. An index built
// over an empty catalog is ready but never produces results.
func (idx *Index) IsReady() bool {
	return idx != nil && idx.ready
}

// Entries returns the entries in catalog order. The slice is a copy.
func (idx *Index) Entries() []Entry {
	if idx == nil {
		return nil
	}
	return append([]Entry(nil), idx.entries...)
}

// Len returns the number of entries.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return len(idx.entries)
}

// Dimensions returns the embedding dimension, or 0 for an empty index.
func (idx *Index) Dimensions() int {
	if idx == nil {
		return 0
	}
	return idx.dimensions
}

// Contains reports whether id has an entry.
func (idx *Index) Contains(id string) bool {
	if idx == nil {
		return false
	}
	_, ok := idx.positions[id]
	return ok
}

// Score returns the cosine similarity of query against every entry, in entry order.
func (idx *Index) Score(query []float32) ([]float64, error) {
	if idx.Len() == 0 {
		return nil, nil
	}
	scores := make([]float64, len(idx.entries))
	for i, e := range idx.entries {
		s, err := CosineSimilarity(query, e.vector)
		if err != nil {
			return nil, err
		}
		scores[i] = s
	}
	return scores, nil
}
