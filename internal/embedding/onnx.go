//go:build cgo
// +build cgo

package embedding

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/etalase/pkg/utils"
	ort "github.com/yalue/onnxruntime_go"
)

// ONNXEmbedder runs a BERT-style sentence model through ONNX Runtime. Models that
// emit one vector per token (last_hidden_state) are mean-pooled over the attention
// mask. Requires CGO and the onnxruntime shared library.
type ONNXEmbedder struct {
	mu        sync.Mutex
	session   *ort.AdvancedSession
	io        *onnxTensors
	opts      ONNXOptions
	tokenizer Tokenizer
}

// onnxTensors are bound to the session once and refilled for every Run.
type onnxTensors struct {
	inputIDs      *ort.Tensor[int64]
	attentionMask *ort.Tensor[int64]
	tokenTypeIDs  *ort.Tensor[int64]
	output        *ort.Tensor[float32]
}

func newONNXTensors(opts ONNXOptions) (*onnxTensors, error) {
	inputShape := ort.NewShape(1, int64(opts.MaxTokens))
	t := &onnxTensors{}
	var err error
	if t.inputIDs, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		return nil, fmt.Errorf("input_ids tensor: %w", err)
	}
	if t.attentionMask, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		t.destroy()
		return nil, fmt.Errorf("attention_mask tensor: %w", err)
	}
	if t.tokenTypeIDs, err = ort.NewEmptyTensor[int64](inputShape); err != nil {
		t.destroy()
		return nil, fmt.Errorf("token_type_ids tensor: %w", err)
	}
	outputShape := ort.NewShape(1, int64(opts.Dimensions))
	if opts.MeanPooling {
		outputShape = ort.NewShape(1, int64(opts.MaxTokens), int64(opts.Dimensions))
	}
	if t.output, err = ort.NewEmptyTensor[float32](outputShape); err != nil {
		t.destroy()
		return nil, fmt.Errorf("%s tensor: %w", opts.OutputName, err)
	}
	return t, nil
}

func (t *onnxTensors) destroy() {
	if t.inputIDs != nil {
		_ = t.inputIDs.Destroy()
	}
	if t.attentionMask != nil {
		_ = t.attentionMask.Destroy()
	}
	if t.tokenTypeIDs != nil {
		_ = t.tokenTypeIDs.Destroy()
	}
	if t.output != nil {
		_ = t.output.Destroy()
	}
}

// NewONNXEmbedder loads the model at opts.ModelPath. The ONNX Runtime environment
// is initialized on first use.
func NewONNXEmbedder(opts ONNXOptions) (*ONNXEmbedder, error) {
	opts = opts.withDefaults()
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX runtime: %w", err)
		}
	}

	io, err := newONNXTensors(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate tensors: %w", err)
	}
	session, err := ort.NewAdvancedSession(
		opts.ModelPath,
		[]string{"input_ids", "attention_mask", "token_type_ids"},
		[]string{opts.OutputName},
		[]ort.ArbitraryTensor{io.inputIDs, io.attentionMask, io.tokenTypeIDs},
		[]ort.ArbitraryTensor{io.output},
		nil,
	)
	if err != nil {
		io.destroy()
		return nil, fmt.Errorf("failed to create ONNX session for %s: %w", opts.ModelPath, err)
	}
	return &ONNXEmbedder{
		session:   session,
		io:        io,
		opts:      opts,
		tokenizer: &SimpleTokenizer{},
	}, nil
}

// Embed runs the model on text and returns an L2-normalized embedding.
func (e *ONNXEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, fmt.Errorf("%w: session closed", ErrEmbedderUnavailable)
	}

	ids, mask, types := e.tokenizer.Tokenize(text, e.opts.MaxTokens)
	copy(e.io.inputIDs.GetData(), ids)
	copy(e.io.attentionMask.GetData(), mask)
	copy(e.io.tokenTypeIDs.GetData(), types)
	if err := e.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := e.io.output.GetData()
	var vec []float32
	if e.opts.MeanPooling {
		vec = meanPool(out, mask, e.opts.Dimensions)
	} else {
		vec = append([]float32(nil), out[:e.opts.Dimensions]...)
	}
	utils.NormalizeL2(vec)
	return vec, nil
}

// EmbedBatch embeds texts one at a time; the session is bound to a batch of one.
func (e *ONNXEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the embedding dimension.
func (e *ONNXEmbedder) Dimensions() int {
	return e.opts.Dimensions
}

// Close destroys the session and its tensors. Embed fails afterwards.
func (e *ONNXEmbedder) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.session == nil {
		return nil
	}
	err := e.session.Destroy()
	e.session = nil
	e.io.destroy()
	e.io = nil
	return err
}
