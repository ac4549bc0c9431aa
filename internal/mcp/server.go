package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/moviedeck/internal/core"
	"github.com/vadimtrunov/moviedeck/internal/viewstate"
)

// Deps holds backend dependencies for MCP tool handlers.
type Deps struct {
	Catalog core.Catalog
}

// Server wraps an MCP SDK server with the movie screen tools.
type Server struct {
	server *mcpsdk.Server
	deps   Deps
	logger *slog.Logger
}

// NewServer creates an MCP server with all tools registered.
func NewServer(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "moviedeck",
			Version: "0.1.0",
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, deps: deps, logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.server.AddTool(popularMoviesTool(), s.handlePopularMovies)
	s.server.AddTool(movieDetailTool(), s.handleMovieDetail)
}

func popularMoviesTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name: "popular_movies",
		Description: "List today's popular movies. Returns the browse screen state: now_playing (first five), " +
			"coming_soon (next three) and the full movies list, each with TMDb IDs, titles, ratings and poster paths.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func movieDetailTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name: "movie_detail",
		Description: "Get the detail screen state for a movie by its TMDb ID: the full record, " +
			"a synopsis cut to 100 characters and whether more text is available.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"tmdb_id": map[string]any{
					"type":        "integer",
					"description": "The TMDb ID of the movie",
				},
			},
			"required": []any{"tmdb_id"},
		},
	}
}

func (s *Server) handlePopularMovies(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("movie catalog not configured"), nil
	}

	list := viewstate.NewList(s.deps.Catalog, s.logger)
	defer list.Deactivate()

	state, ok := viewstate.Final(list.Activate(ctx))
	if !ok {
		return toolError("popular movies request was interrupted"), nil
	}
	if state.Status == viewstate.StatusFailed {
		return toolError(fmt.Sprintf("popular movies failed (%s): %v", state.Kind, state.Err)), nil
	}
	return toolJSON(state)
}

func (s *Server) handleMovieDetail(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("movie catalog not configured"), nil
	}

	tmdbID, err := extractIntFromArgs(req.Params.Arguments, "tmdb_id")
	if err != nil {
		return toolError(err.Error()), nil
	}
	if tmdbID < 1 {
		return toolError("tmdb_id must be a positive integer"), nil
	}

	detail := viewstate.NewDetail(s.deps.Catalog, s.logger)
	defer detail.Deactivate()

	state, ok := viewstate.Final(detail.Activate(ctx, tmdbID))
	if !ok {
		return toolError("movie detail request was interrupted"), nil
	}
	if state.Status == viewstate.StatusFailed {
		return toolError(fmt.Sprintf("movie detail failed (%s): %v", state.Kind, state.Err)), nil
	}
	return toolJSON(state)
}

// Helper functions.

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}

// extractIntFromArgs extracts an integer argument from raw JSON arguments.
func extractIntFromArgs(raw json.RawMessage, key string) (int, error) {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return 0, fmt.Errorf("invalid arguments: %w", err)
	}

	val, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}

	switch v := val.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, val)
	}
}
