package testutil

import (
	"fmt"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/narwhalmedia/watchlist/pkg/database"
)

// PostgresDSNEnv names the variable holding a disposable database's DSN.
const PostgresDSNEnv = "WATCHLIST_TEST_POSTGRES_DSN"

// NewPostgresDB connects to the database named by WATCHLIST_TEST_POSTGRES_DSN
// and skips the test when it is unset.
func NewPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set, skipping postgres test", PostgresDSNEnv)
	}

	db, err := database.OpenDialector(postgres.Open(dsn), zaptest.NewLogger(t), false)
	require.NoError(t, err)

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})
	return db
}

// TruncateTables truncates all tables to clean data between tests
func TruncateTables(db *gorm.DB, tableNames ...string) error {
	for _, table := range tableNames {
		if err := db.Exec(fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table)).Error; err != nil {
			return err
		}
	}
	return nil
}
