// Package embedding provides text embedding via ONNX, a deterministic mock, and caching.
package embedding

import (
	"context"
	"errors"
	"fmt"
)

// ErrEmbedderUnavailable reports that the embedder could not be reached or loaded.
var ErrEmbedderUnavailable = errors.New("embedder unavailable")

// Embedder produces vector embeddings for text. All vectors produced within one
// session must have the same dimension.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Close() error
}

// Loader opens an Embedder. Loading can be slow (first-time model load), so the
// retrieval service calls it lazily during initialization.
type Loader func(ctx context.Context) (Embedder, error)

// Static returns a Loader that always yields e.
func Static(e Embedder) Loader {
	return func(context.Context) (Embedder, error) {
		if e == nil {
			return nil, ErrEmbedderUnavailable
		}
		return e, nil
	}
}

// EmbedderError is a failed embedding call for one catalog item or one query.
type EmbedderError struct {
	// ItemID is set when the failure happened while building the index.
	ItemID string
	// Query is set when the failure happened while embedding a search query.
	Query string
	Err   error
}

func (e *EmbedderError) Error() string {
	if e.ItemID != "" {
		return fmt.Sprintf("embedding item %s failed: %v", e.ItemID, e.Err)
	}
	return fmt.Sprintf("embedding query %q failed: %v", e.Query, e.Err)
}

func (e *EmbedderError) Unwrap() error {
	return e.Err
}
