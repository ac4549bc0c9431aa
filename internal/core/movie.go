package core

import (
	"fmt"
	"math"
	"strings"
)

// Movie is the in-memory representation of one movie's metadata.
// A Movie is a value: each fetch produces a fresh one and nothing mutates it afterwards.
type Movie struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	PosterPath   string  `json:"poster_path,omitempty"`   // empty = no image
	BackdropPath string  `json:"backdrop_path,omitempty"` // empty = no image
	VoteAverage  float64 `json:"vote_average"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`      // YYYY-MM-DD or empty
	Runtime      int     `json:"runtime,omitempty"` // minutes, 0 = unknown
	Genres       []Genre `json:"genres,omitempty"`
}

// Genre represents a movie genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Year returns the leading year of the release date, or "" when unknown.
func (m Movie) Year() string {
	year, _, _ := strings.Cut(m.ReleaseDate, "-")
	return year
}

// RuntimeLabel formats the runtime as "2h 28m". Unknown runtimes yield "".
func (m Movie) RuntimeLabel() string {
	if m.Runtime <= 0 {
		return ""
	}
	h, mins := m.Runtime/60, m.Runtime%60
	if h == 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%dh %dm", h, mins)
}

// RatingLabel formats the vote average with one decimal.
func (m Movie) RatingLabel() string {
	return fmt.Sprintf("%.1f", m.VoteAverage)
}

// PrimaryGenre returns the first genre name, or "" if the record has none.
func (m Movie) PrimaryGenre() string {
	if len(m.Genres) == 0 {
		return ""
	}
	return m.Genres[0].Name
}

// GenreNames returns at most n genre names in upstream order. n <= 0 means all.
func (m Movie) GenreNames(n int) []string {
	if n <= 0 || n > len(m.Genres) {
		n = len(m.Genres)
	}
	names := make([]string, 0, n)
	for _, g := range m.Genres[:n] {
		names = append(names, g.Name)
	}
	return names
}

// ShortTitle cuts the title to n characters followed by "..." when it is longer.
func (m Movie) ShortTitle(n int) string {
	r := []rune(m.Title)
	if n <= 0 || len(r) <= n {
		return m.Title
	}
	return string(r[:n]) + "..."
}

// CarouselIndex converts a horizontal scroll offset into the index of the snapped item.
// The result is clamped to [0, count-1]; it is 0 when there are no items.
func CarouselIndex(offset, itemWidth float64, count int) int {
	if count <= 0 || itemWidth <= 0 {
		return 0
	}
	idx := int(math.Round(offset / itemWidth))
	return max(0, min(idx, count-1))
}
