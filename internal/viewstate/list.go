package viewstate

import (
	"context"
	"log/slog"

	"github.com/vadimtrunov/moviedeck/internal/core"
)

const (
	nowPlayingCount = 5
	comingSoonCount = 3
)

// PopularSource provides the popular movies listing.
type PopularSource interface {
	FetchPopular(ctx context.Context) ([]core.Movie, error)
}

// List drives the browse screen.
type List struct {
	source PopularSource
	m      *machine[ListState]
	logger *slog.Logger
}

// NewList creates a List controller in the Idle state.
func NewList(source PopularSource, logger *slog.Logger) *List {
	if logger == nil {
		logger = slog.Default()
	}
	return &List{
		source: source,
		m:      newMachine[ListState]("list", logger),
		logger: logger,
	}
}

// Activate fetches the popular listing and streams the resulting states:
// the current state, Loading, then Loaded or Failed. An activation while a fetch
// is in flight joins it instead of issuing another request.
// Previously loaded movies stay visible while Loading.
func (l *List) Activate(ctx context.Context) <-chan ListState {
	return l.m.activate(ctx, 0, listLoading, l.fetch)
}

// State returns the current state.
func (l *List) State() ListState {
	return l.m.snapshot()
}

// Deactivate discards in-flight work and resets the controller to Idle.
func (l *List) Deactivate() {
	l.m.deactivate()
}

func listLoading(s ListState) ListState {
	s.Status = StatusLoading
	s.Err = nil
	s.Kind = KindNone
	return s
}

func (l *List) fetch(ctx context.Context) func(ListState) ListState {
	movies, err := l.source.FetchPopular(ctx)
	if err != nil {
		kind := Classify(err)
		l.logger.Warn("popular fetch failed",
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return func(ListState) ListState {
			return ListState{Status: StatusFailed, Err: err, Kind: kind}
		}
	}
	return func(ListState) ListState {
		return ListState{
			Status:     StatusLoaded,
			Movies:     movies,
			NowPlaying: NowPlaying(movies),
			ComingSoon: ComingSoon(movies),
		}
	}
}

// NowPlaying returns the first five movies, or all of them when there are fewer.
func NowPlaying(movies []core.Movie) []core.Movie {
	n := min(nowPlayingCount, len(movies))
	return movies[:n:n]
}

// ComingSoon returns movies at indices 5 through 7, clamped to the list length.
func ComingSoon(movies []core.Movie) []core.Movie {
	from := min(nowPlayingCount, len(movies))
	to := min(nowPlayingCount+comingSoonCount, len(movies))
	return movies[from:to:to]
}
