//go:build !cgo
// +build !cgo

package embedding

import (
	"context"
	"fmt"
)

// ONNXEmbedder is unavailable without CGO.
type ONNXEmbedder struct{}

// NewONNXEmbedder reports ErrEmbedderUnavailable when built without CGO.
func NewONNXEmbedder(opts ONNXOptions) (*ONNXEmbedder, error) {
	return nil, fmt.Errorf("%w: cannot load %s: ONNX Runtime needs a CGO_ENABLED=1 build",
		ErrEmbedderUnavailable, opts.ModelPath)
}

// Embed always fails without CGO.
func (e *ONNXEmbedder) Embed(context.Context, string) ([]float32, error) {
	return nil, ErrEmbedderUnavailable
}

// EmbedBatch always fails without CGO.
func (e *ONNXEmbedder) EmbedBatch(context.Context, []string) ([][]float32, error) {
	return nil, ErrEmbedderUnavailable
}

// Dimensions returns 0 without CGO.
func (e *ONNXEmbedder) Dimensions() int {
	return 0
}

// Close is a no-op without CGO.
func (e *ONNXEmbedder) Close() error {
	return nil
}
