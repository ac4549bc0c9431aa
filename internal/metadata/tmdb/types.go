package tmdb

import "github.com/vadimtrunov/moviedeck/internal/core"

// movieResult is a movie object as returned by both the popular listing and the detail endpoint.
// Nullable upstream fields decode to their zero values.
type movieResult struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
	VoteAverage  float64 `json:"vote_average"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	Runtime      *int    `json:"runtime"`
	Genres       []genre `json:"genres"`
}

type genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// popularResponse is the TMDb paginated listing response.
type popularResponse struct {
	Page         int           `json:"page"`
	Results      []movieResult `json:"results"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
}

// toMovie builds a fresh core.Movie; nothing in the result aliases the decoded response.
func (r movieResult) toMovie() core.Movie {
	m := core.Movie{
		ID:          r.ID,
		Title:       r.Title,
		VoteAverage: r.VoteAverage,
		Overview:    r.Overview,
		ReleaseDate: r.ReleaseDate,
	}
	if r.PosterPath != nil {
		m.PosterPath = *r.PosterPath
	}
	if r.BackdropPath != nil {
		m.BackdropPath = *r.BackdropPath
	}
	if r.Runtime != nil && *r.Runtime > 0 {
		m.Runtime = *r.Runtime
	}
	if len(r.Genres) > 0 {
		m.Genres = make([]core.Genre, len(r.Genres))
		for i, g := range r.Genres {
			m.Genres[i] = core.Genre{ID: g.ID, Name: g.Name}
		}
	}
	return m
}
