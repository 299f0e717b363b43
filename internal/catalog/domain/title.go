package domain

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/cases"

	"github.com/narwhalmedia/watchlist/pkg/errors"
)

// Year bounds accepted for a title.
const (
	MinReleaseYear = 1900
	MaxReleaseYear = 2030
	MaxRating      = 10.0
)

// Kind classifies a title.
type Kind string

const (
	KindMovie  Kind = "Movie"
	KindSeries Kind = "Series"
)

// Kinds lists every valid kind.
var Kinds = []Kind{KindMovie, KindSeries}

var kindAliases = map[string]Kind{
	"movie":  KindMovie,
	"film":   KindMovie,
	"фильм":  KindMovie,
	"series": KindSeries,
	"tv":     KindSeries,
	"show":   KindSeries,
	"сериал": KindSeries,
}

// ParseKind resolves a kind name case-insensitively. Labels written by older
// catalog files are accepted as aliases.
func ParseKind(s string) (Kind, error) {
	if k, ok := kindAliases[foldKey(s)]; ok {
		return k, nil
	}
	return "", errors.Validationf("unknown kind %q", s)
}

// Status is the lifecycle label of a title.
type Status string

const (
	StatusPlanned    Status = "Planned"
	StatusInProgress Status = "InProgress"
	StatusCompleted  Status = "Completed"
	StatusFavorite   Status = "Favorite"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{StatusPlanned, StatusInProgress, StatusCompleted, StatusFavorite}

var statusAliases = map[string]Status{
	"planned":        StatusPlanned,
	"хочупосмотреть": StatusPlanned,
	"inprogress":     StatusInProgress,
	"watching":       StatusInProgress,
	"впроцессе":      StatusInProgress,
	"completed":      StatusCompleted,
	"watched":        StatusCompleted,
	"просмотрено":    StatusCompleted,
	"favorite":       StatusFavorite,
	"favourite":      StatusFavorite,
	"любимое":        StatusFavorite,
}

// ParseStatus resolves a status name case-insensitively, ignoring spaces,
// underscores and hyphens ("in progress", "IN_PROGRESS").
func ParseStatus(s string) (Status, error) {
	if st, ok := statusAliases[foldKey(s)]; ok {
		return st, nil
	}
	return "", errors.Validationf("unknown status %q", s)
}

// Fold case-folds s for case-insensitive comparison.
func Fold(s string) string {
	return cases.Fold().String(s)
}

func foldKey(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, Fold(strings.TrimSpace(s)))
}

// Key is the natural identity of a title.
type Key struct {
	Name string
	Year int
}

func (k Key) String() string {
	return fmt.Sprintf("%s (%d)", k.Name, k.Year)
}

// Title is one catalogued movie or series with the user's tracking state.
// It is a plain value; every mutation produces a new copy.
type Title struct {
	Name        string
	Kind        Kind
	ReleaseYear int
	Genre       string
	UserRating  float64
	Status      Status
	Progress    int
	TotalUnits  int
	Description string
}

// Key returns the (name, year) identity.
func (t Title) Key() Key {
	return Key{Name: t.Name, Year: t.ReleaseYear}
}

// Validate checks the caller-supplied attributes.
func (t Title) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return errors.Validation("name is required")
	}
	if t.Kind != KindMovie && t.Kind != KindSeries {
		return errors.Validationf("kind must be %s or %s, got %q", KindMovie, KindSeries, t.Kind)
	}
	if t.ReleaseYear < MinReleaseYear || t.ReleaseYear > MaxReleaseYear {
		return errors.Validationf("release year must be between %d and %d, got %d", MinReleaseYear, MaxReleaseYear, t.ReleaseYear)
	}
	if math.IsNaN(t.UserRating) || t.UserRating < 0 || t.UserRating > MaxRating {
		return errors.Validationf("rating must be between 0 and %.0f, got %v", MaxRating, t.UserRating)
	}
	if t.Kind == KindSeries && t.TotalUnits <= 0 {
		return errors.Validation("series must declare a positive number of units")
	}
	if t.Progress < 0 {
		return errors.Validationf("progress must not be negative, got %d", t.Progress)
	}
	if t.Status != "" {
		if _, err := ParseStatus(string(t.Status)); err != nil {
			return err
		}
	}
	return nil
}

// Normalize applies the canonical shape: movies span one unit, ratings carry
// one decimal, and a missing status means Planned.
func (t Title) Normalize() Title {
	t.Name = strings.TrimSpace(t.Name)
	if t.Kind == KindMovie {
		t.TotalUnits = 1
	}
	t.UserRating = RoundRating(t.UserRating)
	if t.Status == "" {
		t.Status = StatusPlanned
	} else if st, err := ParseStatus(string(t.Status)); err == nil {
		t.Status = st
	}
	return t
}

// WithDerivedStatus returns a copy whose status agrees with its progress.
func (t Title) WithDerivedStatus() Title {
	t.Status = DeriveStatus(t.Kind, t.Progress, t.TotalUnits, t.Status)
	return t
}

// RoundRating rounds to one fractional digit.
func RoundRating(r float64) float64 {
	return math.Round(r*10) / 10
}
