// Package status publishes retrieval service progress as a sequence of events.
package status

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Stage identifies a step of service initialization.
type Stage string

const (
	StageLoadingModel Stage = "loading_model"
	StageModelLoaded  Stage = "model_loaded"
	StageEmbedding    Stage = "embedding"
	StageReady        Stage = "ready"
	StageError        Stage = "error"
)

// Default human-readable messages per stage.
const (
	MessageLoadingModel = "Loading AI Model..."
	MessageModelLoaded  = "Model Loaded."
	MessageEmbedding    = "Generating Product Embeddings..."
	MessageReady        = "RAG System Ready."
	MessageError        = "Error Loading AI."
)

const (
	defaultHistorySize = 256
	defaultBufferSize  = 64
)

// Event is one observation of initialization progress. It has no control meaning.
type Event struct {
	Session string    `json:"session"`
	Stage   Stage     `json:"stage"`
	Message string    `json:"message"`
	Done    int       `json:"done,omitempty"`
	Total   int       `json:"total,omitempty"`
	Err     string    `json:"error,omitempty"`
	Time    time.Time `json:"time"`
}

// String renders the event as a single progress line.
func (e Event) String() string {
	s := e.Message
	if e.Stage == StageEmbedding && e.Total > 0 {
		s = fmt.Sprintf("%s (%d/%d)", s, e.Done, e.Total)
	}
	if e.Err != "" {
		s += ": " + e.Err
	}
	return s
}

// Terminal reports whether the event ends an initialization attempt.
func (e Event) Terminal() bool {
	return e.Stage == StageReady || e.Stage == StageError
}

// Broadcaster fans events out to subscribers. New subscribers first receive the
// retained history, then live events. A subscriber that falls behind loses events
// rather than blocking the publisher. Safe for concurrent use.
type Broadcaster struct {
	mu          sync.Mutex
	history     []Event
	subs        map[*subscriber]struct{}
	closed      bool
	done        chan struct{}
	historySize int
	bufferSize  int
	logger      *zap.Logger
}

type subscriber struct {
	ch chan Event
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithLogger mirrors every published event to logger at debug level.
func WithLogger(logger *zap.Logger) Option {
	return func(b *Broadcaster) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// WithHistorySize sets how many past events are kept for replay.
func WithHistorySize(n int) Option {
	return func(b *Broadcaster) {
		if n > 0 {
			b.historySize = n
		}
	}
}

// WithBufferSize sets the per-subscriber buffer for live events.
func WithBufferSize(n int) Option {
	return func(b *Broadcaster) {
		if n > 0 {
			b.bufferSize = n
		}
	}
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster(opts ...Option) *Broadcaster {
	b := &Broadcaster{
		subs:        make(map[*subscriber]struct{}),
		done:        make(chan struct{}),
		historySize: defaultHistorySize,
		bufferSize:  defaultBufferSize,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Publish records e and delivers it to current subscribers. A zero Time is set to now.
// Publishing after Close is a no-op.
func (b *Broadcaster) Publish(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	b.logger.Debug("status",
		zap.String("session", e.Session),
		zap.String("stage", string(e.Stage)),
		zap.String("message", e.Message),
		zap.Int("done", e.Done),
		zap.Int("total", e.Total),
		zap.String("error", e.Err),
	)

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.history = append(b.history, e)
	if over := len(b.history) - b.historySize; over > 0 {
		b.history = append(b.history[:0:0], b.history[over:]...)
	}
	for s := range b.subs {
		select {
		case s.ch <- e:
		default:
		}
	}
}

// Subscribe returns a channel that replays the history and then carries live
// events. The channel is closed when ctx is done or the Broadcaster is closed.
func (b *Broadcaster) Subscribe(ctx context.Context) <-chan Event {
	b.mu.Lock()
	s := &subscriber{ch: make(chan Event, len(b.history)+b.bufferSize)}
	for _, e := range b.history {
		s.ch <- e
	}
	if b.closed {
		close(s.ch)
		b.mu.Unlock()
		return s.ch
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			b.remove(s)
		case <-b.done:
		}
	}()
	return s.ch
}

func (b *Broadcaster) remove(s *subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[s]; ok {
		delete(b.subs, s)
		close(s.ch)
	}
}

// History returns a copy of the retained events, oldest first.
func (b *Broadcaster) History() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.history...)
}

// Last returns the most recent event.
func (b *Broadcaster) Last() (Event, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.history) == 0 {
		return Event{}, false
	}
	return b.history[len(b.history)-1], true
}

// Close closes every subscriber channel. Later Subscribe calls get the history
// on an already-closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
	for s := range b.subs {
		delete(b.subs, s)
		close(s.ch)
	}
}
