package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/vadimtrunov/moviedeck/internal/core"
	"github.com/vadimtrunov/moviedeck/internal/httpclient"
)

const (
	// DefaultBaseURL is the TMDb v3 API root.
	DefaultBaseURL = "https://api.themoviedb.org/3"
	// DefaultLanguage is the only language tag the catalog requests.
	DefaultLanguage = "en-US"

	// PosterSize and BackdropSize are the image widths used across frontends.
	PosterSize   = "w500"
	BackdropSize = "w780"

	imageBaseURL = "https://image.tmdb.org/t/p/"
	maxErrorBody = 4 << 10
)

// Config holds everything the client captures at construction.
type Config struct {
	APIKey   string
	BaseURL  string // defaults to DefaultBaseURL
	Language string // defaults to DefaultLanguage
	HTTP     httpclient.Config
}

// Client is a TMDb API v3 client. It is immutable after New and safe for concurrent use.
type Client struct {
	baseURL  string
	apiKey   string
	language string
	http     *httpclient.Client
	logger   *slog.Logger
}

// compile-time check.
var _ core.Catalog = (*Client)(nil)

// New creates a new TMDb client. It fails with *core.ConfigError when the API key is
// missing, before any HTTP machinery is built.
func New(cfg Config, logger *slog.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &core.ConfigError{Field: "tmdb.api_key", Reason: "is required"}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Language == "" {
		cfg.Language = DefaultLanguage
	}
	if cfg.HTTP == (httpclient.Config{}) {
		cfg.HTTP = httpclient.DefaultConfig()
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		language: cfg.Language,
		http:     httpclient.New(cfg.HTTP, logger),
		logger:   logger,
	}, nil
}

// FetchPopular returns page 1 of the popular movies listing in upstream order.
func (c *Client) FetchPopular(ctx context.Context) ([]core.Movie, error) {
	var resp popularResponse
	params := url.Values{"page": {"1"}}
	if err := c.get(ctx, "/movie/popular", params, &resp); err != nil {
		return nil, fmt.Errorf("fetch popular: %w", err)
	}

	movies := make([]core.Movie, 0, len(resp.Results))
	for _, r := range resp.Results {
		movies = append(movies, r.toMovie())
	}
	c.logger.Debug("fetched popular movies", slog.Int("count", len(movies)))
	return movies, nil
}

// FetchDetail retrieves the full record for a movie by TMDb ID.
// A 404 from upstream is reported as *core.NotFoundError.
func (c *Client) FetchDetail(ctx context.Context, id int) (core.Movie, error) {
	var r movieResult
	path := fmt.Sprintf("/movie/%d", id)
	if err := c.get(ctx, path, nil, &r); err != nil {
		var up *core.UpstreamError
		if errors.As(err, &up) && up.StatusCode == http.StatusNotFound {
			err = &core.NotFoundError{ID: id}
		}
		return core.Movie{}, fmt.Errorf("fetch detail %d: %w", id, err)
	}

	c.logger.Debug("fetched movie detail", slog.Int("movie_id", id))
	return r.toMovie(), nil
}

// PosterURL returns the full URL for a poster path.
func PosterURL(posterPath, size string) string {
	if posterPath == "" {
		return ""
	}
	return imageBaseURL + size + posterPath
}

// BackdropURL returns the backdrop image URL, falling back to the poster when the
// movie has no backdrop.
func BackdropURL(m core.Movie) string {
	if m.BackdropPath != "" {
		return imageBaseURL + BackdropSize + m.BackdropPath
	}
	return PosterURL(m.PosterPath, PosterSize)
}

// get performs an authenticated GET request to the TMDb API and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	q := u.Query()
	q.Set("api_key", c.apiKey)
	q.Set("language", c.language)
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.logger.Warn("tmdb API error",
			slog.String("path", path),
			slog.Int("status", resp.StatusCode),
		)
		return &core.UpstreamError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return &core.UpstreamError{
			StatusCode: resp.StatusCode,
			Body:       "invalid JSON: " + err.Error(),
		}
	}
	return nil
}
