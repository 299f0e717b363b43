package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
)

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name     string
		kind     domain.Kind
		progress int
		total    int
		current  domain.Status
		want     domain.Status
	}{
		{"series not started", domain.KindSeries, 0, 10, domain.StatusCompleted, domain.StatusPlanned},
		{"series midway", domain.KindSeries, 3, 10, domain.StatusPlanned, domain.StatusInProgress},
		{"series finished", domain.KindSeries, 10, 10, domain.StatusInProgress, domain.StatusCompleted},
		{"series overrun", domain.KindSeries, 12, 10, domain.StatusPlanned, domain.StatusCompleted},
		{"series without length keeps status", domain.KindSeries, 4, 0, domain.StatusInProgress, domain.StatusInProgress},
		{"movie unwatched", domain.KindMovie, 0, 1, domain.StatusCompleted, domain.StatusPlanned},
		{"movie watched", domain.KindMovie, 1, 1, domain.StatusPlanned, domain.StatusCompleted},
		{"favorite movie is sticky", domain.KindMovie, 0, 1, domain.StatusFavorite, domain.StatusFavorite},
		{"favorite series is sticky", domain.KindSeries, 5, 10, domain.StatusFavorite, domain.StatusFavorite},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.DeriveStatus(tt.kind, tt.progress, tt.total, tt.current))
		})
	}
}

func TestDeriveStatusIsIdempotent(t *testing.T) {
	for _, kind := range domain.Kinds {
		for _, current := range domain.Statuses {
			for total := 1; total <= 12; total++ {
				for progress := 0; progress <= total+2; progress++ {
					once := domain.DeriveStatus(kind, progress, total, current)
					twice := domain.DeriveStatus(kind, progress, total, once)
					assert.Equal(t, once, twice, "kind=%s progress=%d total=%d current=%s", kind, progress, total, current)
					if current == domain.StatusFavorite {
						assert.Equal(t, domain.StatusFavorite, once)
					}
				}
			}
		}
	}
}

func TestDeriveStatusSeriesIsMonotonic(t *testing.T) {
	rank := map[domain.Status]int{
		domain.StatusPlanned:    0,
		domain.StatusInProgress: 1,
		domain.StatusCompleted:  2,
	}

	for total := 1; total <= 20; total++ {
		prev := -1
		for progress := 0; progress <= total+5; progress++ {
			got := domain.DeriveStatus(domain.KindSeries, progress, total, domain.StatusPlanned)
			r, ok := rank[got]
			assert.True(t, ok, "unexpected status %s", got)
			assert.GreaterOrEqual(t, r, prev, "total=%d progress=%d", total, progress)
			prev = r
		}
	}
}

func TestSeriesLifecycleScenario(t *testing.T) {
	dune := domain.Title{
		Name:        "Dune",
		Kind:        domain.KindSeries,
		ReleaseYear: 2021,
		Progress:    3,
		TotalUnits:  10,
	}.Normalize().WithDerivedStatus()
	assert.Equal(t, domain.StatusInProgress, dune.Status)

	dune.Progress = 10
	dune = dune.WithDerivedStatus()
	assert.Equal(t, domain.StatusCompleted, dune.Status)

	dune.Status = domain.StatusFavorite
	dune.Progress = 0
	dune = dune.WithDerivedStatus()
	assert.Equal(t, domain.StatusFavorite, dune.Status)
}
