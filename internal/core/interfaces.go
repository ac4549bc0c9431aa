package core

import "context"

// Catalog defines the movie metadata source used by the view-state controllers.
type Catalog interface {
	// FetchPopular returns page 1 of the popular movies listing, in upstream order
	FetchPopular(ctx context.Context) ([]Movie, error)

	// FetchDetail returns the full record for one movie id
	FetchDetail(ctx context.Context, id int) (Movie, error)
}

// Frontend defines the interface for user-facing frontends (TUI, HTTP, Telegram)
type Frontend interface {
	// Start starts the frontend and blocks until ctx is canceled
	Start(ctx context.Context) error

	// Stop stops the frontend
	Stop(ctx context.Context) error

	// Name returns the frontend name (e.g., "http", "telegram")
	Name() string
}
