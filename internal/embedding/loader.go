package embedding

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/hyperjump/etalase/internal/config"
	"go.uber.org/zap"
)

const (
	// ProviderONNX loads a sentence-embedding model through ONNX Runtime.
	ProviderONNX = "onnx"
	// ProviderMock uses the deterministic MockEmbedder.
	ProviderMock = "mock"
)

// NewLoader returns a Loader for the configured provider. Every load failure is
// reported as ErrEmbedderUnavailable so the retrieval service can enter degraded mode.
func NewLoader(cfg *config.EmbeddingConfig, logger *zap.Logger) Loader {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(ctx context.Context) (Embedder, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		base, err := openProvider(cfg)
		if err != nil {
			logger.Warn("embedder load failed", zap.String("provider", cfg.Provider), zap.Error(err))
			if !errors.Is(err, ErrEmbedderUnavailable) {
				err = fmt.Errorf("%w: %v", ErrEmbedderUnavailable, err)
			}
			return nil, err
		}
		logger.Info("embedder loaded",
			zap.String("provider", cfg.Provider),
			zap.Int("dimensions", base.Dimensions()),
			zap.Int("cache_size", cfg.CacheSize),
		)
		if cfg.CacheSize > 0 {
			return NewCachedEmbedder(base, cfg.CacheSize), nil
		}
		return base, nil
	}
}

func openProvider(cfg *config.EmbeddingConfig) (Embedder, error) {
	switch cfg.Provider {
	case ProviderMock:
		return NewMockEmbedder(cfg.Dimensions), nil
	case ProviderONNX, "":
		if _, err := os.Stat(cfg.ModelPath); err != nil {
			return nil, fmt.Errorf("model not found at %s: %w", cfg.ModelPath, err)
		}
		e, err := NewONNXEmbedder(ONNXOptions{
			ModelPath:   cfg.ModelPath,
			Dimensions:  cfg.Dimensions,
			MaxTokens:   cfg.MaxTokens,
			OutputName:  cfg.OutputName,
			MeanPooling: cfg.Pooling != "none",
		})
		if err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider: %s (supported: onnx, mock)", cfg.Provider)
	}
}
