package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/moviedeck/internal/core"
)

// mockCatalog implements core.Catalog for testing.
type mockCatalog struct {
	popular    []core.Movie
	popularErr error
	detail     core.Movie
	detailErr  error
	gotID      int
}

func (m *mockCatalog) FetchPopular(_ context.Context) ([]core.Movie, error) {
	return m.popular, m.popularErr
}

func (m *mockCatalog) FetchDetail(_ context.Context, id int) (core.Movie, error) {
	m.gotID = id
	return m.detail, m.detailErr
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()
	ctx := context.Background()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	_, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}
	return result
}

func resultText(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

func TestPopularMovies(t *testing.T) {
	t.Parallel()
	movies := make([]core.Movie, 7)
	for i := range movies {
		movies[i] = core.Movie{ID: 100 + i, Title: "Movie"}
	}
	srv := NewServer(Deps{Catalog: &mockCatalog{popular: movies}}, discardLogger)

	result := callTool(t, srv, "popular_movies", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}

	var got struct {
		Status     string       `json:"status"`
		NowPlaying []core.Movie `json:"now_playing"`
		ComingSoon []core.Movie `json:"coming_soon"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if got.Status != "loaded" {
		t.Errorf("expected loaded, got %q", got.Status)
	}
	if len(got.NowPlaying) != 5 || len(got.ComingSoon) != 2 {
		t.Errorf("expected 5/2 split, got %d/%d", len(got.NowPlaying), len(got.ComingSoon))
	}
	if got.ComingSoon[0].ID != 105 {
		t.Errorf("expected coming soon to start at id 105, got %d", got.ComingSoon[0].ID)
	}
}

func TestMovieDetail(t *testing.T) {
	t.Parallel()
	mock := &mockCatalog{detail: core.Movie{
		ID: 27205, Title: "Inception", Runtime: 148, Overview: strings.Repeat("a", 120),
	}}
	srv := NewServer(Deps{Catalog: mock}, discardLogger)

	result := callTool(t, srv, "movie_detail", map[string]any{"tmdb_id": 27205})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}
	if mock.gotID != 27205 {
		t.Errorf("expected id 27205 passed to catalog, got %d", mock.gotID)
	}

	var got struct {
		Record   core.Movie `json:"record"`
		Synopsis string     `json:"synopsis"`
		HasMore  bool       `json:"has_more"`
	}
	if err := json.Unmarshal([]byte(resultText(t, result)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Record.Runtime != 148 {
		t.Errorf("expected runtime 148, got %d", got.Record.Runtime)
	}
	if !got.HasMore || len(got.Synopsis) != 103 {
		t.Errorf("expected truncated synopsis, got %q", got.Synopsis)
	}
}

func TestMovieDetail_StringID(t *testing.T) {
	t.Parallel()
	mock := &mockCatalog{detail: core.Movie{ID: 550, Title: "Fight Club"}}
	srv := NewServer(Deps{Catalog: mock}, discardLogger)

	result := callTool(t, srv, "movie_detail", map[string]any{"tmdb_id": "550"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", resultText(t, result))
	}
	if mock.gotID != 550 {
		t.Errorf("expected id 550, got %d", mock.gotID)
	}
}

func TestToolError_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		tool     string
		args     map[string]any
		catalog  *mockCatalog
		wantText string
	}{
		{
			"not_found", "movie_detail", map[string]any{"tmdb_id": 1},
			&mockCatalog{detailErr: &core.NotFoundError{ID: 1}}, "not_found",
		},
		{
			"upstream", "popular_movies", map[string]any{},
			&mockCatalog{popularErr: &core.UpstreamError{StatusCode: 401}}, "upstream",
		},
		{
			"network", "popular_movies", map[string]any{},
			&mockCatalog{popularErr: &core.NetworkError{Op: "GET", Err: errors.New("refused")}}, "network",
		},
		{
			"missing_id", "movie_detail", map[string]any{},
			&mockCatalog{}, "tmdb_id is required",
		},
		{
			"negative_id", "movie_detail", map[string]any{"tmdb_id": -3},
			&mockCatalog{}, "positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv := NewServer(Deps{Catalog: tt.catalog}, discardLogger)
			result := callTool(t, srv, tt.tool, tt.args)
			if !result.IsError {
				t.Fatal("expected tool error")
			}
			if text := resultText(t, result); !strings.Contains(text, tt.wantText) {
				t.Errorf("expected %q in %q", tt.wantText, text)
			}
		})
	}
}

func TestToolError_NilDependency(t *testing.T) {
	t.Parallel()
	srv := NewServer(Deps{}, discardLogger)

	tests := []struct {
		tool string
		args map[string]any
	}{
		{"popular_movies", map[string]any{}},
		{"movie_detail", map[string]any{"tmdb_id": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			t.Parallel()
			result := callTool(t, srv, tt.tool, tt.args)
			if !result.IsError {
				t.Errorf("expected error for %s with nil dependency", tt.tool)
			}
		})
	}
}

func TestExtractIntFromArgs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{`{"tmdb_id": 550}`, 550, false},
		{`{"tmdb_id": "27205"}`, 27205, false},
		{`{"tmdb_id": "abc"}`, 0, true},
		{`{"tmdb_id": true}`, 0, true},
		{`{}`, 0, true},
		{`not json`, 0, true},
	}
	for _, tt := range tests {
		got, err := extractIntFromArgs(json.RawMessage(tt.raw), "tmdb_id")
		if (err != nil) != tt.wantErr {
			t.Errorf("extractIntFromArgs(%s) error = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("extractIntFromArgs(%s) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}
