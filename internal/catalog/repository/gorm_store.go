package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/narwhalmedia/watchlist/internal/catalog/domain"
	"github.com/narwhalmedia/watchlist/pkg/database"
	"github.com/narwhalmedia/watchlist/pkg/errors"
	"github.com/narwhalmedia/watchlist/pkg/interfaces"
	"github.com/narwhalmedia/watchlist/pkg/repository"
)

const (
	keyCondition  = "name = ? AND release_year = ?"
	naturalOrder  = "name, release_year"
	sqliteDialect = "sqlite"
	searchClause  = `LOWER(name) LIKE LOWER(?) ESCAPE '\' OR LOWER(genre) LIKE LOWER(?) ESCAPE '\' OR ` +
		`LOWER(kind) LIKE LOWER(?) ESCAPE '\' OR LOWER(description) LIKE LOWER(?) ESCAPE '\'`
)

// GormStore keeps titles in a relational table. The (name, release_year)
// pair carries a unique index, so adding an existing key is a Conflict.
type GormStore struct {
	db     *gorm.DB
	name   string
	logger interfaces.Logger
}

var _ Store = (*GormStore)(nil)

// NewGormStore creates a store over db. name is reported by Name, typically
// the driver.
func NewGormStore(db *gorm.DB, name string, logger interfaces.Logger) *GormStore {
	return &GormStore{
		db:     db,
		name:   name,
		logger: logger.WithFields(interfaces.String("store", name)),
	}
}

// Migrate applies pending schema migrations.
func (s *GormStore) Migrate() error {
	if err := database.NewMigrator(s.db, s.logger, Migrations()...).Migrate(); err != nil {
		return errors.StorageUnavailable("migrate titles table", err)
	}
	return nil
}

func (s *GormStore) Name() string {
	return s.name
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *GormStore) GetAll(ctx context.Context) ([]domain.Title, error) {
	return s.find(ctx, "")
}

func (s *GormStore) Exists(ctx context.Context, name string, year int) (bool, error) {
	ok, err := repository.ExistsWhere[TitleModel](ctx, s.db, keyCondition, name, year)
	if err != nil {
		return false, s.unavailable("check title", err)
	}
	return ok, nil
}

func (s *GormStore) Add(ctx context.Context, t domain.Title) error {
	if err := repository.Create(ctx, s.db, toModel(t)); err != nil {
		if errors.IsConflict(err) {
			return errors.Conflict(t.Key().String() + " already exists")
		}
		return s.unavailable("add title", err)
	}
	return nil
}

// Update deletes the key and inserts the new row in one transaction.
func (s *GormStore) Update(ctx context.Context, t domain.Title) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := repository.DeleteWhere[TitleModel](ctx, tx, keyCondition, t.Name, t.ReleaseYear); err != nil {
			return err
		}
		return repository.Create(ctx, tx, toModel(t))
	})
	if err != nil {
		if errors.IsConflict(err) {
			return errors.Conflict(t.Key().String() + " already exists")
		}
		return s.unavailable("update title", err)
	}
	return nil
}

func (s *GormStore) Delete(ctx context.Context, name string, year int) error {
	if _, err := repository.DeleteWhere[TitleModel](ctx, s.db, keyCondition, name, year); err != nil {
		return s.unavailable("delete title", err)
	}
	return nil
}

// Search matches case-insensitively. SQLite's LOWER folds ASCII only, so on
// sqlite the rows are folded and matched here instead of in SQL.
func (s *GormStore) Search(ctx context.Context, query string) ([]domain.Title, error) {
	if s.db.Dialector.Name() == sqliteDialect {
		titles, err := s.find(ctx, "")
		if err != nil {
			return nil, err
		}
		folded := domain.Fold(query)
		return filter(titles, func(t domain.Title) bool { return matchesQuery(t, folded) }), nil
	}

	pattern := "%" + escapeLike(query) + "%"
	return s.find(ctx, searchClause, pattern, pattern, pattern, pattern)
}

func (s *GormStore) FindByStatus(ctx context.Context, status domain.Status) ([]domain.Title, error) {
	return s.find(ctx, "LOWER(status) = LOWER(?)", string(status))
}

func (s *GormStore) FindByKind(ctx context.Context, kind domain.Kind) ([]domain.Title, error) {
	return s.find(ctx, "LOWER(kind) = LOWER(?)", string(kind))
}

// find loads matching rows in natural order, skipping rows that do not decode.
func (s *GormStore) find(ctx context.Context, query string, args ...interface{}) ([]domain.Title, error) {
	rows, err := repository.FindWhere[TitleModel](ctx, s.db, naturalOrder, query, args...)
	if err != nil {
		return nil, s.unavailable("load titles", err)
	}

	titles := make([]domain.Title, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			s.logger.Warn("Skipping corrupt title row",
				interfaces.String("id", row.ID.String()),
				interfaces.Error(err))
			continue
		}
		titles = append(titles, t)
	}
	return titles, nil
}

func (s *GormStore) unavailable(op string, err error) error {
	if errors.IsCancelled(err) {
		return errors.Cancelled(op, err)
	}
	return errors.StorageUnavailable(op, err)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
