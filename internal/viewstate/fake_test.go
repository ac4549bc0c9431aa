package viewstate

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/vadimtrunov/moviedeck/internal/core"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// fakeCatalog implements PopularSource and DetailSource.
// When gate is non-nil every fetch blocks until gate is closed or ctx ends.
type fakeCatalog struct {
	popular    []core.Movie
	popularErr error
	details    map[int]core.Movie
	detailErr  error

	gate     chan struct{}
	started  chan int // receives the id (0 for popular) when a fetch begins
	popCalls atomic.Int32
	detCalls atomic.Int32

	mu       sync.Mutex
	detailID []int
}

func (f *fakeCatalog) wait(ctx context.Context, id int) error {
	if f.started != nil {
		f.started <- id
	}
	if f.gate == nil {
		return nil
	}
	select {
	case <-f.gate:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeCatalog) FetchPopular(ctx context.Context) ([]core.Movie, error) {
	f.popCalls.Add(1)
	if err := f.wait(ctx, 0); err != nil {
		return nil, err
	}
	if f.popularErr != nil {
		return nil, f.popularErr
	}
	return append([]core.Movie(nil), f.popular...), nil
}

func (f *fakeCatalog) FetchDetail(ctx context.Context, id int) (core.Movie, error) {
	f.detCalls.Add(1)
	f.mu.Lock()
	f.detailID = append(f.detailID, id)
	f.mu.Unlock()
	if err := f.wait(ctx, id); err != nil {
		return core.Movie{}, err
	}
	if f.detailErr != nil {
		return core.Movie{}, f.detailErr
	}
	m, ok := f.details[id]
	if !ok {
		return core.Movie{}, fmt.Errorf("fetch detail %d: %w", id, &core.NotFoundError{ID: id})
	}
	return m, nil
}

func movies(n int) []core.Movie {
	out := make([]core.Movie, n)
	for i := range out {
		out[i] = core.Movie{ID: i + 1, Title: fmt.Sprintf("Movie %d", i+1)}
	}
	return out
}

func collect[S any](ch <-chan S) []S {
	var out []S
	for s := range ch {
		out = append(out, s)
	}
	return out
}
