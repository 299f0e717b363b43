package repository

import (
	"context"
	"strings"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
)

// Store persists titles. Backends share the same semantics: Add does not
// check uniqueness, Update is delete-by-key then add, Delete removes every
// record with the key, and a single undecodable record is logged and skipped
// rather than failing a scan.
type Store interface {
	// Name identifies the backend ("file", "postgres", "sqlite").
	Name() string

	GetAll(ctx context.Context) ([]domain.Title, error)
	Exists(ctx context.Context, name string, year int) (bool, error)
	Add(ctx context.Context, t domain.Title) error
	Update(ctx context.Context, t domain.Title) error
	Delete(ctx context.Context, name string, year int) error

	// Search matches the query as a case-insensitive substring of name,
	// genre, kind or description.
	Search(ctx context.Context, query string) ([]domain.Title, error)
	FindByStatus(ctx context.Context, status domain.Status) ([]domain.Title, error)
	FindByKind(ctx context.Context, kind domain.Kind) ([]domain.Title, error)

	Close() error
}

// matchesQuery reports whether folded appears in any searchable field of t.
func matchesQuery(t domain.Title, folded string) bool {
	for _, field := range []string{t.Name, t.Genre, string(t.Kind), t.Description} {
		if strings.Contains(domain.Fold(field), folded) {
			return true
		}
	}
	return false
}

func filter(titles []domain.Title, keep func(domain.Title) bool) []domain.Title {
	out := make([]domain.Title, 0, len(titles))
	for _, t := range titles {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
