package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/narwhalmedia/watchlist/pkg/database"
)

// NewTestDB creates a new in-memory SQLite database for testing. The pool is
// pinned to one connection so every statement sees the same memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.OpenDialector(sqlite.Open(":memory:"), zaptest.NewLogger(t), false)
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	t.Cleanup(func() {
		sqlDB.Close()
	})
	return db
}
