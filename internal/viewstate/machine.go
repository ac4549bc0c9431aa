package viewstate

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// streamBuffer covers the longest stream: current, loading, final.
const streamBuffer = 3

// machine is the activation engine shared by the List and Detail controllers.
// At most one fetch is in flight; activations for the same key join it, a
// different key supersedes it, and results from superseded fetches are dropped.
type machine[S any] struct {
	name   string
	logger *slog.Logger

	mu     sync.Mutex
	state  S
	gen    uint64
	key    int
	cancel context.CancelFunc // non-nil while a fetch is in flight
	subs   []chan S
}

func newMachine[S any](name string, logger *slog.Logger) *machine[S] {
	if logger == nil {
		logger = slog.Default()
	}
	return &machine[S]{name: name, logger: logger}
}

// snapshot returns the current state.
func (m *machine[S]) snapshot() S {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// activate starts (or joins) a fetch for key and returns its state stream.
// loading derives the Loading state from the current one; run performs the
// fetch without holding the lock and returns how to fold its outcome into state.
func (m *machine[S]) activate(
	ctx context.Context, key int, loading func(S) S, run func(context.Context) func(S) S,
) <-chan S {
	ch := make(chan S, streamBuffer)

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cancel != nil && m.key == key {
		m.logger.Debug("joining in-flight fetch", slog.String("controller", m.name), slog.Int("key", key))
		ch <- m.state
		m.subs = append(m.subs, ch)
		return ch
	}

	m.abortLocked()

	ch <- m.state
	m.state = loading(m.state)
	ch <- m.state
	m.subs = append(m.subs, ch)

	fetchCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.key = key
	gen := m.gen

	logger := m.logger.With(
		slog.String("controller", m.name),
		slog.String("activation_id", uuid.NewString()),
	)
	logger.Debug("activation started", slog.Int("key", key))

	go func() {
		start := time.Now()
		apply := run(fetchCtx)

		m.mu.Lock()
		defer m.mu.Unlock()
		if gen != m.gen {
			logger.Debug("discarding stale result", slog.Duration("elapsed", time.Since(start)))
			return
		}
		cancel()
		m.cancel = nil
		m.state = apply(m.state)
		for _, sub := range m.subs {
			sub <- m.state
			close(sub)
		}
		m.subs = nil
		logger.Debug("activation settled", slog.Duration("elapsed", time.Since(start)))
	}()

	return ch
}

// deactivate cancels any in-flight fetch, closes open streams and resets to the zero state.
func (m *machine[S]) deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.abortLocked()
	var zero S
	m.state = zero
}

// abortLocked invalidates the in-flight fetch, if any. Callers hold m.mu.
func (m *machine[S]) abortLocked() {
	m.gen++
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
	for _, sub := range m.subs {
		close(sub)
	}
	m.subs = nil
}
