package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vadimtrunov/moviedeck/internal/core"
	"github.com/vadimtrunov/moviedeck/internal/viewstate"
)

func TestRunMovie_Loaded(t *testing.T) {
	var out bytes.Buffer
	if err := runMovie(context.Background(), testCatalog(0), testLogger(), &out, 550, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"Fight Club", "(1999)", "★ 8.4", "2h 19m", "Drama, Thriller",
		"An insomniac office worker",
		"https://image.tmdb.org/t/p/w500/fc.jpg",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("output missing %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "--full") {
		t.Error("short synopsis must not hint at --full")
	}
}

func TestRunMovie_Truncated(t *testing.T) {
	var out bytes.Buffer
	if err := runMovie(context.Background(), testCatalog(0), testLogger(), &out, 27205, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), "...") || !strings.Contains(out.String(), "--full") {
		t.Errorf("expected truncated synopsis with hint, got:\n%s", out.String())
	}

	out.Reset()
	if err := runMovie(context.Background(), testCatalog(0), testLogger(), &out, 27205, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out.String(), strings.TrimSpace(strings.Repeat("dream ", 40))) {
		t.Errorf("expected full overview, got:\n%s", out.String())
	}
}

func TestRunMovie_NotFound(t *testing.T) {
	var out bytes.Buffer
	err := runMovie(context.Background(), testCatalog(0), testLogger(), &out, 404, false)
	if !errors.Is(err, errMovieNotFound) {
		t.Fatalf("expected errMovieNotFound, got %v", err)
	}
	if out.Len() != 0 {
		t.Errorf("expected no output, got %q", out.String())
	}
}

func TestRunMovie_UpstreamFailure(t *testing.T) {
	cat := testCatalog(0)
	cat.detailErr = &core.UpstreamError{StatusCode: 500, Body: "oops"}

	err := runMovie(context.Background(), cat, testLogger(), &bytes.Buffer{}, 550, false)
	if err == nil || errors.Is(err, errMovieNotFound) {
		t.Fatalf("expected upstream failure, got %v", err)
	}
	if !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("expected status in message, got %q", err.Error())
	}
}

func TestRenderDetail_NoSynopsis(t *testing.T) {
	mv := core.Movie{ID: 7, Title: "Quiet"}
	got := renderDetail(viewstate.DetailState{Status: viewstate.StatusLoaded, ID: 7, Movie: &mv}, false)
	if !strings.Contains(got, noSynopsis) {
		t.Errorf("expected placeholder, got:\n%s", got)
	}
	if strings.Contains(got, "image.tmdb.org") {
		t.Error("no poster path must not print an image URL")
	}
}

func TestParseMovieID(t *testing.T) {
	for _, in := range []string{"", "abc", "0", "-1", "2.5"} {
		if _, err := parseMovieID(in); err == nil {
			t.Errorf("parseMovieID(%q) expected error", in)
		}
	}
	if id, err := parseMovieID("550"); err != nil || id != 550 {
		t.Errorf("parseMovieID(\"550\") = %d, %v", id, err)
	}
}
