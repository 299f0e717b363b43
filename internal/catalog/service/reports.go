package service

import (
	"bytes"
	"context"
	"io"
	"slices"

	"github.com/narwhalmedia/watchlist/internal/catalog/codec"
	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
	"github.com/narwhalmedia/watchlist/pkg/errors"
	"github.com/narwhalmedia/watchlist/pkg/interfaces"
)

// Statistics summarises the catalog.
type Statistics struct {
	Total         int
	Movies        int
	Series        int
	ByStatus      map[domain.Status]int
	AverageRating float64

	SeriesUnitsWatched int
	SeriesUnitsTotal   int
	// SeriesCompletion is a percentage. Progress overrun can push it past 100.
	SeriesCompletion float64
}

// Statistics computes counts and averages over the whole catalog.
func (s *CatalogService) Statistics(ctx context.Context) (Statistics, error) {
	titles, err := s.ListTitles(ctx)
	if err != nil {
		return Statistics{}, err
	}
	stats := computeStatistics(titles)
	s.log(ctx).Debug("Catalog statistics computed",
		interfaces.Int("titles", stats.Total),
		interfaces.Float64("average_rating", stats.AverageRating),
		interfaces.Float64("series_completion", stats.SeriesCompletion))
	return stats, nil
}

func computeStatistics(titles []domain.Title) Statistics {
	stats := Statistics{ByStatus: make(map[domain.Status]int, len(domain.Statuses))}
	for _, st := range domain.Statuses {
		stats.ByStatus[st] = 0
	}

	var ratingSum float64
	for _, t := range titles {
		stats.Total++
		stats.ByStatus[t.Status]++
		ratingSum += t.UserRating
		switch t.Kind {
		case domain.KindMovie:
			stats.Movies++
		case domain.KindSeries:
			stats.Series++
			stats.SeriesUnitsWatched += t.Progress
			stats.SeriesUnitsTotal += t.TotalUnits
		}
	}

	if stats.Total > 0 {
		stats.AverageRating = domain.RoundRating(ratingSum / float64(stats.Total))
	}
	if stats.SeriesUnitsTotal > 0 {
		stats.SeriesCompletion = float64(stats.SeriesUnitsWatched) * 100 / float64(stats.SeriesUnitsTotal)
	}
	return stats
}

// SortByRating returns the catalog ordered by rating, highest first. Ties
// keep the backend order.
func (s *CatalogService) SortByRating(ctx context.Context) ([]domain.Title, error) {
	return s.sorted(ctx, func(a, b domain.Title) int {
		switch {
		case a.UserRating > b.UserRating:
			return -1
		case a.UserRating < b.UserRating:
			return 1
		}
		return 0
	})
}

// SortByYear returns the catalog ordered by release year, newest first.
func (s *CatalogService) SortByYear(ctx context.Context) ([]domain.Title, error) {
	return s.sorted(ctx, func(a, b domain.Title) int {
		return b.ReleaseYear - a.ReleaseYear
	})
}

func (s *CatalogService) sorted(ctx context.Context, cmp func(a, b domain.Title) int) ([]domain.Title, error) {
	titles, err := s.ListTitles(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(titles, cmp)
	return titles, nil
}

// Export writes the whole catalog in the flat-file format.
func (s *CatalogService) Export(ctx context.Context, w io.Writer) error {
	titles, err := s.ListTitles(ctx)
	if err != nil {
		return err
	}
	if err := codec.Write(w, titles); err != nil {
		return errors.StorageUnavailable("write export", err)
	}
	return nil
}

// SnapshotSink stores exported catalogs under a key.
type SnapshotSink interface {
	Store(ctx context.Context, key string, r io.Reader) error
}

// ExportSnapshot exports the catalog into sink and returns the key used.
func (s *CatalogService) ExportSnapshot(ctx context.Context, sink SnapshotSink) (string, error) {
	var buf bytes.Buffer
	if err := s.Export(ctx, &buf); err != nil {
		return "", err
	}

	key := snapshotKey(s.now())
	if err := sink.Store(ctx, key, &buf); err != nil {
		s.log(ctx).Error("Failed to store catalog snapshot", interfaces.String("key", key), interfaces.Error(err))
		return "", errors.StorageUnavailable("store snapshot "+key, err)
	}

	s.log(ctx).Info("Catalog snapshot stored", interfaces.String("key", key), interfaces.Int("bytes", buf.Len()))
	return key, nil
}
