// Package search provides the retrieval service: semantic top-K search over the
// catalog with a plain-text fallback while the embedding index is unavailable.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hyperjump/etalase/internal/embedding"
	"github.com/hyperjump/etalase/internal/keyword"
	"github.com/hyperjump/etalase/internal/models"
	"github.com/hyperjump/etalase/internal/ranking"
	"github.com/hyperjump/etalase/internal/status"
	"github.com/hyperjump/etalase/internal/vector"
	"go.uber.org/zap"
)

// DefaultTopK is the number of results returned when a caller does not choose.
const DefaultTopK = models.DefaultTopK

// ErrDegraded is returned by WaitReady when initialization failed.
var ErrDegraded = errors.New("retrieval service degraded")

// ErrClosed is returned by Initialize after Close.
var ErrClosed = errors.New("retrieval service closed")

// State is the readiness of a Service.
type State int

const (
	// StateUninitialized means no initialization attempt has completed.
	StateUninitialized State = iota
	// StateReady means the embedding index is built and semantic search is active.
	StateReady
	// StateDegraded means initialization failed; searches use substring matching.
	StateDegraded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// snapshot is published atomically; it is never mutated after Store.
type snapshot struct {
	state    State
	index    *vector.Index
	embedder embedding.Embedder
	err      error
}

// Result is the outcome of one query.
type Result struct {
	Items []*models.Item
	// Scores is parallel to Items in semantic mode and nil otherwise.
	Scores []float64
	Mode   models.SearchMode
}

// Service owns the embedding index for one session. Search is safe for
// concurrent use; Initialize calls are serialized.
type Service struct {
	load    embedding.Loader
	ranker  *ranking.Ranker
	matcher keyword.Matcher
	status  *status.Broadcaster
	logger  *zap.Logger
	session string

	snap     atomic.Pointer[snapshot]
	building atomic.Bool

	buildMu  sync.Mutex
	embedder embedding.Embedder // guarded by buildMu
	closed   bool               // guarded by buildMu

	waitMu  sync.Mutex
	changed chan struct{}

	startOnce sync.Once
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMatcher sets the matcher used while the service is not ready.
func WithMatcher(m keyword.Matcher) Option {
	return func(s *Service) {
		if m != nil {
			s.matcher = m
		}
	}
}

// WithStatus sets the broadcaster that receives initialization progress.
func WithStatus(b *status.Broadcaster) Option {
	return func(s *Service) {
		if b != nil {
			s.status = b
		}
	}
}

// WithRanker sets the ranker.
func WithRanker(r *ranking.Ranker) Option {
	return func(s *Service) {
		if r != nil {
			s.ranker = r
		}
	}
}

// NewService creates an uninitialized Service that obtains its embedder from load.
func NewService(load embedding.Loader, opts ...Option) *Service {
	s := &Service{
		load:    load,
		ranker:  ranking.NewRanker(),
		matcher: keyword.NewSubstringMatcher(),
		logger:  zap.NewNop(),
		session: uuid.NewString(),
		changed: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.status == nil {
		s.status = status.NewBroadcaster(status.WithLogger(s.logger))
	}
	s.logger = s.logger.With(zap.String("session", s.session))
	s.snap.Store(&snapshot{state: StateUninitialized})
	return s
}

// Session returns the session identifier carried by status events.
func (s *Service) Session() string {
	return s.session
}

// Status returns the broadcaster carrying initialization progress.
func (s *Service) Status() *status.Broadcaster {
	return s.status
}

// State returns the current readiness.
func (s *Service) State() State {
	return s.snap.Load().state
}

// Err returns the failure that put the service in StateDegraded, or nil.
func (s *Service) Err() error {
	return s.snap.Load().err
}

// Building reports whether an initialization is in progress.
func (s *Service) Building() bool {
	return s.building.Load()
}

// IndexSize returns the number of entries in the active index.
func (s *Service) IndexSize() int {
	return s.snap.Load().index.Len()
}

// Start runs the automatic initialization in the background. Only the first
// call has any effect; later rebuilds go through Initialize.
func (s *Service) Start(ctx context.Context, items []*models.Item) {
	s.startOnce.Do(func() {
		go func() {
			if err := s.Initialize(ctx, items); err != nil {
				s.logger.Debug("automatic initialization did not complete", zap.Error(err))
			}
		}()
	})
}

// Initialize builds the embedding index for items and makes it active. On
// embedder failure the service enters StateDegraded and the error is returned
// and published on the status channel. If ctx is cancelled the previous state
// is kept and nothing is installed.
func (s *Service) Initialize(ctx context.Context, items []*models.Item) error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	if s.closed {
		return ErrClosed
	}

	s.building.Store(true)
	defer func() {
		s.building.Store(false)
		s.notify()
	}()

	start := time.Now()
	if ix, ok := s.matcher.(keyword.Indexer); ok {
		if err := ix.Index(ctx, items); err != nil {
			s.logger.Warn("fallback matcher indexing failed", zap.Error(err))
		}
	}

	s.publish(status.Event{Stage: status.StageLoadingModel, Message: status.MessageLoadingModel})
	emb, err := s.loadEmbedder(ctx)
	if err != nil {
		return s.fail(ctx, err)
	}
	s.publish(status.Event{Stage: status.StageModelLoaded, Message: status.MessageModelLoaded})

	total := len(items)
	step := total / 100
	if step < 1 {
		step = 1
	}
	s.publish(status.Event{Stage: status.StageEmbedding, Message: status.MessageEmbedding, Total: total})
	idx, err := vector.Build(ctx, items, vector.EmbedWith(emb), vector.WithProgress(func(done, n int, _ string) {
		if done%step == 0 || done == n {
			s.publish(status.Event{Stage: status.StageEmbedding, Message: status.MessageEmbedding, Done: done, Total: n})
		}
	}))
	if err != nil {
		return s.fail(ctx, err)
	}

	s.snap.Store(&snapshot{state: StateReady, index: idx, embedder: emb})
	s.publish(status.Event{Stage: status.StageReady, Message: status.MessageReady, Done: total, Total: total})
	s.logger.Info("retrieval service ready",
		zap.Int("items", idx.Len()),
		zap.Int("dimensions", idx.Dimensions()),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// loadEmbedder returns the session's embedder, loading it on first use. A
// failed load is retried by the next Initialize.
func (s *Service) loadEmbedder(ctx context.Context) (embedding.Embedder, error) {
	if s.embedder != nil {
		return s.embedder, nil
	}
	if s.load == nil {
		return nil, fmt.Errorf("%w: no embedder configured", embedding.ErrEmbedderUnavailable)
	}
	emb, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if emb == nil {
		return nil, fmt.Errorf("%w: loader returned no embedder", embedding.ErrEmbedderUnavailable)
	}
	s.embedder = emb
	return emb, nil
}

// fail records a build failure. Cancellation leaves the active snapshot alone.
func (s *Service) fail(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		s.logger.Info("initialization cancelled", zap.Error(err))
		return err
	}
	s.snap.Store(&snapshot{state: StateDegraded, err: err})
	s.publish(status.Event{Stage: status.StageError, Message: status.MessageError, Err: err.Error()})
	s.logger.Warn("retrieval service degraded, using substring matching", zap.Error(err))
	return err
}

func (s *Service) publish(e status.Event) {
	e.Session = s.session
	s.status.Publish(e)
}

func (s *Service) notify() {
	s.waitMu.Lock()
	close(s.changed)
	s.changed = make(chan struct{})
	s.waitMu.Unlock()
}

// WaitReady blocks until the service is ready, an initialization attempt has
// failed, or ctx is done. A failed attempt is reported as ErrDegraded wrapping
// the cause.
func (s *Service) WaitReady(ctx context.Context) error {
	for {
		s.waitMu.Lock()
		ch := s.changed
		s.waitMu.Unlock()

		snap := s.snap.Load()
		switch {
		case snap.state == StateReady:
			return nil
		case snap.state == StateDegraded && !s.building.Load():
			return fmt.Errorf("%w: %w", ErrDegraded, snap.err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
		}
	}
}

// Search returns up to k items of catalog most similar to query. A blank query
// returns the whole catalog. Before the service is ready, items whose name or
// description contain the query are returned in catalog order instead.
func (s *Service) Search(ctx context.Context, query string, catalog []*models.Item, k int) ([]*models.Item, error) {
	res, err := s.Query(ctx, query, catalog, k)
	if err != nil {
		return nil, err
	}
	return res.Items, nil
}

// Query is Search with the scores and the mode that produced them.
func (s *Service) Query(ctx context.Context, query string, catalog []*models.Item, k int) (*Result, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return &Result{Items: append([]*models.Item{}, catalog...), Mode: models.ModeAll}, nil
	}

	snap := s.snap.Load()
	if snap.state != StateReady {
		items, err := s.matcher.Match(ctx, q, catalog)
		if err != nil {
			return nil, err
		}
		return &Result{Items: items, Mode: models.ModeFallback}, nil
	}

	vec, err := snap.embedder.Embed(ctx, q)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &embedding.EmbedderError{Query: q, Err: err}
	}
	ranked, err := s.ranker.RankScored(vec, snap.index, k)
	if err != nil {
		return nil, fmt.Errorf("failed to rank query %q: %w", q, err)
	}

	byID := make(map[string]*models.Item, len(catalog))
	for _, it := range catalog {
		if _, dup := byID[it.ID.String()]; !dup {
			byID[it.ID.String()] = it
		}
	}
	res := &Result{
		Items:  make([]*models.Item, 0, len(ranked)),
		Scores: make([]float64, 0, len(ranked)),
		Mode:   models.ModeSemantic,
	}
	for _, r := range ranked {
		it, ok := byID[r.ID]
		if !ok {
			continue
		}
		res.Items = append(res.Items, it)
		res.Scores = append(res.Scores, r.Score)
	}
	return res, nil
}

// Close releases the embedder and the fallback matcher and closes the status
// channel. Later searches use substring matching and Initialize fails.
func (s *Service) Close() error {
	s.buildMu.Lock()
	defer s.buildMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.snap.Store(&snapshot{state: StateDegraded, err: ErrClosed})
	s.notify()

	var errs []error
	if s.embedder != nil {
		errs = append(errs, s.embedder.Close())
		s.embedder = nil
	}
	if c, ok := s.matcher.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	s.status.Close()
	return errors.Join(errs...)
}
