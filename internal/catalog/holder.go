package catalog

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Holder keeps the current catalog for a path and swaps it on reload. Readers
// never block; a failed reload keeps the previous catalog.
type Holder struct {
	path   string
	cur    atomic.Pointer[Catalog]
	mu     sync.Mutex
	logger *zap.Logger
}

// NewHolder returns a Holder for path, starting with initial (which may be nil).
func NewHolder(path string, initial *Catalog, logger *zap.Logger) *Holder {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Holder{path: path, logger: logger}
	if initial != nil {
		h.cur.Store(initial)
	}
	return h
}

// Path returns the catalog path.
func (h *Holder) Path() string {
	return h.path
}

// Current returns the loaded catalog, or nil before the first successful load.
func (h *Holder) Current() *Catalog {
	return h.cur.Load()
}

// Reload reads the catalog from disk and makes it current.
func (h *Holder) Reload(ctx context.Context) (*Catalog, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, err := Load(ctx, h.path)
	if err != nil {
		h.logger.Warn("catalog reload failed, keeping previous catalog",
			zap.String("path", h.path), zap.Error(err))
		return nil, err
	}
	h.cur.Store(c)
	h.logger.Info("catalog loaded", zap.String("path", h.path), zap.Int("items", c.Len()))
	return c, nil
}
