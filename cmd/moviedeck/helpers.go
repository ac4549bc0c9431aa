package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/moviedeck/internal/config"
	"github.com/vadimtrunov/moviedeck/internal/core"
	"github.com/vadimtrunov/moviedeck/internal/httpclient"
	"github.com/vadimtrunov/moviedeck/internal/metadata/tmdb"
	"github.com/vadimtrunov/moviedeck/internal/viewstate"
)

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	styleRating  = lipgloss.NewStyle().Foreground(lipgloss.Color("11")) // yellow
	styleTitle   = lipgloss.NewStyle().Bold(true)

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5")).
			MarginBottom(1)
)

// errMovieNotFound is surfaced by the movie command for unknown ids.
var errMovieNotFound = errors.New("movie not found")

// loadConfig loads and validates the configuration. A missing file is allowed
// when the environment supplies the API key.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadOptional(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// initCatalog creates the TMDb catalog client from configuration.
func initCatalog(cfg *config.Config, logger *slog.Logger) (*tmdb.Client, error) {
	client, err := tmdb.New(tmdb.Config{
		APIKey:   cfg.TMDb.APIKey,
		BaseURL:  cfg.TMDb.BaseURL,
		Language: cfg.TMDb.Language,
		HTTP: httpclient.Config{
			Timeout:   cfg.TMDb.Timeout,
			RateLimit: cfg.TMDb.RateLimit,
			Burst:     cfg.TMDb.Burst,
		},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create catalog client: %w", err)
	}
	logger.Debug("TMDb catalog initialized", slog.String("url", sanitizeURL(cfg.TMDb.BaseURL)))
	return client, nil
}

// failureMessage renders a failed view state for the terminal.
func failureMessage(kind viewstate.ErrorKind, err error) string {
	switch kind {
	case viewstate.KindNotFound:
		return errMovieNotFound.Error()
	case viewstate.KindNetwork:
		return "can't reach TMDb: check your connection"
	case viewstate.KindUpstream:
		var upErr *core.UpstreamError
		if errors.As(err, &upErr) {
			return fmt.Sprintf("TMDb returned an error (HTTP %d)", upErr.StatusCode)
		}
		return "TMDb returned an error"
	case viewstate.KindConfig:
		return "configuration error: " + err.Error()
	case viewstate.KindCanceled:
		return "canceled"
	default:
		if err != nil {
			return err.Error()
		}
		return "unknown error"
	}
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
