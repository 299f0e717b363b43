package tmdb

import (
	"strconv"
	"strings"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
)

// UnitsPerSeason estimates episodes per season when only the season count is known.
const UnitsPerSeason = 10

type searchResponse struct {
	Page    int            `json:"page"`
	Results []searchResult `json:"results"`
}

type searchResult struct {
	ID int64 `json:"id"`
}

type genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// movieDetails represents the TMDB movie details response
type movieDetails struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview"`
	ReleaseDate string  `json:"release_date"`
	Genres      []genre `json:"genres"`
	VoteAverage float64 `json:"vote_average"`
}

// tvDetails represents the TMDB series details response
type tvDetails struct {
	ID              int64   `json:"id"`
	Name            string  `json:"name"`
	Overview        string  `json:"overview"`
	FirstAirDate    string  `json:"first_air_date"`
	Genres          []genre `json:"genres"`
	VoteAverage     float64 `json:"vote_average"`
	NumberOfSeasons int     `json:"number_of_seasons"`
}

func (d movieDetails) toDraft() domain.Title {
	return domain.Title{
		Name:        d.Title,
		Kind:        domain.KindMovie,
		ReleaseYear: yearOf(d.ReleaseDate),
		Genre:       joinGenres(d.Genres),
		UserRating:  clampRating(d.VoteAverage),
		Status:      domain.StatusPlanned,
		Progress:    0,
		TotalUnits:  1,
		Description: d.Overview,
	}
}

func (d tvDetails) toDraft() domain.Title {
	total := d.NumberOfSeasons * UnitsPerSeason
	if total < 1 {
		total = 1
	}
	return domain.Title{
		Name:        d.Name,
		Kind:        domain.KindSeries,
		ReleaseYear: yearOf(d.FirstAirDate),
		Genre:       joinGenres(d.Genres),
		UserRating:  clampRating(d.VoteAverage),
		Status:      domain.StatusPlanned,
		Progress:    0,
		TotalUnits:  total,
		Description: d.Overview,
	}
}

// yearOf reads the leading four digits of an ISO date, or 0.
func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil || year < 0 {
		return 0
	}
	return year
}

func joinGenres(genres []genre) string {
	names := make([]string, 0, len(genres))
	for _, g := range genres {
		if name := strings.TrimSpace(g.Name); name != "" {
			names = append(names, name)
		}
	}
	return strings.Join(names, ", ")
}

func clampRating(r float64) float64 {
	switch {
	case r < 0:
		return 0
	case r > domain.MaxRating:
		return domain.MaxRating
	}
	return domain.RoundRating(r)
}
