package testutil

import (
	"fmt"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
)

// Movie returns a valid, normalised movie title.
func Movie(name string, year int) domain.Title {
	return domain.Title{
		Name:        name,
		Kind:        domain.KindMovie,
		ReleaseYear: year,
		Genre:       "Drama",
		UserRating:  7.5,
		Status:      domain.StatusPlanned,
		TotalUnits:  1,
		Description: fmt.Sprintf("%s (%d)", name, year),
	}
}

// Series returns a valid series title with the given progress.
func Series(name string, year, progress, total int) domain.Title {
	t := domain.Title{
		Name:        name,
		Kind:        domain.KindSeries,
		ReleaseYear: year,
		Genre:       "Sci-Fi, Drama",
		UserRating:  8.0,
		Status:      domain.StatusPlanned,
		Progress:    progress,
		TotalUnits:  total,
		Description: "A series with \"quotes\",\ncommas and newlines",
	}
	return t.WithDerivedStatus()
}

// Catalog returns a small mixed catalog.
func Catalog() []domain.Title {
	return []domain.Title{
		Series("Dune", 2021, 3, 10),
		Movie("Arrival", 2016),
		Series("Twin Peaks", 1990, 30, 30),
		Movie("Solaris", 1972),
	}
}
