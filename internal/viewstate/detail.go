package viewstate

import (
	"context"
	"log/slog"

	"github.com/vadimtrunov/moviedeck/internal/core"
)

// DetailSource provides single movie records.
type DetailSource interface {
	FetchDetail(ctx context.Context, id int) (core.Movie, error)
}

// Detail drives the movie detail screen for the id supplied by navigation.
type Detail struct {
	source DetailSource
	m      *machine[DetailState]
	logger *slog.Logger
}

// NewDetail creates a Detail controller in the Idle state.
func NewDetail(source DetailSource, logger *slog.Logger) *Detail {
	if logger == nil {
		logger = slog.Default()
	}
	return &Detail{
		source: source,
		m:      newMachine[DetailState]("detail", logger),
		logger: logger,
	}
}

// Activate fetches the record for id and streams the resulting states.
// Activating the id already in flight joins that fetch. Activating another id
// cancels the in-flight fetch, closes its streams and drops its result.
// The previous record stays visible while reloading the same id only.
func (d *Detail) Activate(ctx context.Context, id int) <-chan DetailState {
	loading := func(s DetailState) DetailState {
		if s.ID != id {
			return DetailState{Status: StatusLoading, ID: id}
		}
		s.Status = StatusLoading
		s.Err = nil
		s.Kind = KindNone
		return s
	}
	run := func(ctx context.Context) func(DetailState) DetailState {
		return d.fetch(ctx, id)
	}
	return d.m.activate(ctx, id, loading, run)
}

// State returns the current state.
func (d *Detail) State() DetailState {
	return d.m.snapshot()
}

// Deactivate discards in-flight work and resets the controller to Idle.
func (d *Detail) Deactivate() {
	d.m.deactivate()
}

func (d *Detail) fetch(ctx context.Context, id int) func(DetailState) DetailState {
	movie, err := d.source.FetchDetail(ctx, id)
	if err != nil {
		kind := Classify(err)
		d.logger.Warn("detail fetch failed",
			slog.Int("movie_id", id),
			slog.String("kind", string(kind)),
			slog.String("error", err.Error()),
		)
		return func(DetailState) DetailState {
			return DetailState{Status: StatusFailed, ID: id, Err: err, Kind: kind}
		}
	}

	synopsis, more := Truncate(movie.Overview)
	return func(DetailState) DetailState {
		return DetailState{
			Status:   StatusLoaded,
			ID:       id,
			Movie:    &movie,
			Synopsis: synopsis,
			HasMore:  more,
		}
	}
}
