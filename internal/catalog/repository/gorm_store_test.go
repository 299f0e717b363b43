package repository_test

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"

	"github.com/narwhalmedia/watchlist/internal/catalog/repository"
	"github.com/narwhalmedia/watchlist/pkg/database"
	"github.com/narwhalmedia/watchlist/pkg/errors"
	"github.com/narwhalmedia/watchlist/pkg/logger"
	"github.com/narwhalmedia/watchlist/test/testutil"
)

func newSQLiteStore(t *testing.T) *repository.GormStore {
	t.Helper()
	store := repository.NewGormStore(testutil.NewTestDB(t), "sqlite", logger.NewNoop())
	require.NoError(t, store.Migrate())
	return store
}

func TestGormStoreAddDuplicateIsConflict(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, testutil.Movie("Arrival", 2016)))
	err := store.Add(ctx, testutil.Movie("Arrival", 2016))
	assert.True(t, errors.IsConflict(err), "got %v", err)

	// same name, different year is a different title
	assert.NoError(t, store.Add(ctx, testutil.Movie("Arrival", 2017)))
}

func TestGormStoreOrdersByNameThenYear(t *testing.T) {
	store := newSQLiteStore(t)
	ctx := context.Background()

	for _, title := range testutil.Catalog() {
		require.NoError(t, store.Add(ctx, title))
	}
	require.NoError(t, store.Add(ctx, testutil.Movie("Dune", 1984)))

	titles, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arrival", "Dune", "Dune", "Solaris", "Twin Peaks"}, names(titles))
	assert.Equal(t, 1984, titles[1].ReleaseYear)
}

func TestGormStoreSkipsCorruptRow(t *testing.T) {
	db := testutil.NewTestDB(t)
	store := repository.NewGormStore(db, "sqlite", logger.NewNoop())
	require.NoError(t, store.Migrate())
	ctx := context.Background()

	require.NoError(t, store.Add(ctx, testutil.Movie("Arrival", 2016)))
	require.NoError(t, db.Create(&repository.TitleModel{
		Name:        "Broken",
		Kind:        "Cartoon",
		ReleaseYear: 2000,
		Status:      "Planned",
		TotalUnits:  1,
	}).Error)

	titles, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Arrival"}, names(titles))
}

func TestGormStoreMigrateIsRepeatable(t *testing.T) {
	store := newSQLiteStore(t)
	assert.NoError(t, store.Migrate())
}

func newMockStore(t *testing.T) (*repository.GormStore, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := database.OpenDialector(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), zaptest.NewLogger(t), false)
	require.NoError(t, err)

	return repository.NewGormStore(db, "postgres", logger.NewNoop()), mock
}

func TestGormStoreUnavailable(t *testing.T) {
	store, mock := newMockStore(t)
	ctx := context.Background()
	refused := stderrors.New("dial tcp 127.0.0.1:5432: connect: connection refused")

	mock.ExpectQuery(`SELECT \* FROM "titles"`).WillReturnError(refused)
	_, err := store.GetAll(ctx)
	assert.True(t, errors.IsStorageUnavailable(err), "got %v", err)
	assert.ErrorIs(t, err, refused)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "titles"`).WillReturnError(refused)
	_, err = store.Exists(ctx, "Dune", 2021)
	assert.True(t, errors.IsStorageUnavailable(err), "got %v", err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGormStoreSearchQuery(t *testing.T) {
	store, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"id", "name", "kind", "release_year", "genre", "user_rating", "status", "progress", "total_units", "description"}).
		AddRow("0b0f7a4c-6f3c-4d57-9a53-2a6d1c1b8e10", "Dune", "Series", 2021, "Sci-Fi", 8.0, "InProgress", 3, 10, "")
	mock.ExpectQuery(`SELECT \* FROM "titles" WHERE .*LOWER\(name\) LIKE LOWER\(\$1\).* ORDER BY name, release_year`).
		WithArgs(`%du\_ne%`, `%du\_ne%`, `%du\_ne%`, `%du\_ne%`).
		WillReturnRows(rows)

	titles, err := store.Search(context.Background(), "du_ne")
	require.NoError(t, err)
	assert.Equal(t, []string{"Dune"}, names(titles))
	assert.NoError(t, mock.ExpectationsWereMet())
}
