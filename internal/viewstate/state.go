// Package viewstate holds the per-screen controllers that sit between the
// catalog client and presentation. Each controller is a small state machine,
// Idle -> Loading -> {Loaded, Failed}, driven by explicit activations.
package viewstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vadimtrunov/moviedeck/internal/core"
)

// Status is the lifecycle position of a controller.
type Status int

const (
	StatusIdle Status = iota
	StatusLoading
	StatusLoaded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusFailed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// MarshalText encodes the status as its lowercase name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// ErrorKind classifies a failure for presentation.
type ErrorKind string

const (
	KindNone     ErrorKind = ""
	KindConfig   ErrorKind = "config"
	KindNetwork  ErrorKind = "network"
	KindUpstream ErrorKind = "upstream"
	KindNotFound ErrorKind = "not_found"
	KindCanceled ErrorKind = "canceled"
	KindUnknown  ErrorKind = "unknown"
)

// Classify maps a catalog error onto an ErrorKind.
func Classify(err error) ErrorKind {
	var (
		cfgErr *core.ConfigError
		netErr *core.NetworkError
		nfErr  *core.NotFoundError
		upErr  *core.UpstreamError
	)
	switch {
	case err == nil:
		return KindNone
	case errors.As(err, &cfgErr):
		return KindConfig
	case errors.As(err, &nfErr):
		return KindNotFound
	case errors.As(err, &upErr):
		return KindUpstream
	case errors.As(err, &netErr):
		return KindNetwork
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	default:
		return KindUnknown
	}
}

// ListState is what the browse screen renders.
// The slices are shared between snapshots and must be treated as read-only.
type ListState struct {
	Status     Status
	Movies     []core.Movie
	NowPlaying []core.Movie
	ComingSoon []core.Movie
	Err        error
	Kind       ErrorKind
}

// DetailState is what the movie detail screen renders.
type DetailState struct {
	Status   Status
	ID       int
	Movie    *core.Movie // nil until loaded
	Synopsis string
	HasMore  bool
	Err      error
	Kind     ErrorKind
}

type stateError struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}

func newStateError(kind ErrorKind, err error) *stateError {
	if err == nil {
		return nil
	}
	return &stateError{Kind: kind, Message: err.Error()}
}

// MarshalJSON encodes the list view state as {status, now_playing, coming_soon, movies, error}.
func (s ListState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status     Status       `json:"status"`
		NowPlaying []core.Movie `json:"now_playing"`
		ComingSoon []core.Movie `json:"coming_soon"`
		Movies     []core.Movie `json:"movies"`
		Error      *stateError  `json:"error,omitempty"`
	}{
		Status:     s.Status,
		NowPlaying: nonNil(s.NowPlaying),
		ComingSoon: nonNil(s.ComingSoon),
		Movies:     nonNil(s.Movies),
		Error:      newStateError(s.Kind, s.Err),
	})
}

// MarshalJSON encodes the detail view state as {status, id, record, synopsis, has_more, error}.
func (s DetailState) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Status   Status      `json:"status"`
		ID       int         `json:"id"`
		Record   *core.Movie `json:"record,omitempty"`
		Synopsis string      `json:"synopsis"`
		HasMore  bool        `json:"has_more"`
		Error    *stateError `json:"error,omitempty"`
	}{
		Status:   s.Status,
		ID:       s.ID,
		Record:   s.Movie,
		Synopsis: s.Synopsis,
		HasMore:  s.HasMore,
		Error:    newStateError(s.Kind, s.Err),
	})
}

func nonNil(movies []core.Movie) []core.Movie {
	if movies == nil {
		return []core.Movie{}
	}
	return movies
}

// Final drains a state stream and returns the last state it carried.
// ok is false when the stream closed without emitting a settled (Loaded or Failed) state,
// which happens when the controller was deactivated mid-fetch.
func Final[S interface{ settled() bool }](states <-chan S) (last S, ok bool) {
	for s := range states {
		last = s
	}
	return last, last.settled()
}

func (s ListState) settled() bool   { return s.Status == StatusLoaded || s.Status == StatusFailed }
func (s DetailState) settled() bool { return s.Status == StatusLoaded || s.Status == StatusFailed }
