package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/narwhalmedia/watchlist/pkg/config"
	"github.com/narwhalmedia/watchlist/pkg/database"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg := config.GetDefaults()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, config.BackendFile, cfg.Storage.Backend)
	assert.Equal(t, "ru-RU", cfg.TMDB.Language)
	assert.Equal(t, 3, cfg.TMDB.MaxAttempts)
	assert.Equal(t, 5*time.Second, cfg.TMDB.BaseDelay)
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watchlist.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  backend: sqlite
  sqlite_path: /tmp/catalog.db
tmdb:
  access_token: from-file
  max_attempts: 5
events:
  kafka:
    enabled: true
    brokers: ["kafka-1:9092"]
`), 0o644))

	t.Setenv("WATCHLIST_TMDB_ACCESS_TOKEN", "from-env")
	t.Setenv("WATCHLIST_TMDB_BASE_DELAY", "250ms")
	t.Setenv("WATCHLIST_STORAGE_FILE_PATH", "/srv/titles.csv")

	cfg := config.GetDefaults()
	err := config.NewManager(config.ServiceName).WithPaths(path).LoadConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, config.BackendSQLite, cfg.Storage.Backend)
	assert.Equal(t, "/tmp/catalog.db", cfg.Storage.SQLitePath)
	assert.Equal(t, "/srv/titles.csv", cfg.Storage.FilePath)
	assert.Equal(t, "from-env", cfg.TMDB.AccessToken)
	assert.Equal(t, 5, cfg.TMDB.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.TMDB.BaseDelay)
	assert.Equal(t, []string{"kafka-1:9092"}, cfg.Events.Kafka.Brokers)
	assert.Equal(t, "https://api.themoviedb.org/3", cfg.TMDB.BaseURL)
}

func TestLoadConfig_MissingFilesAreSkipped(t *testing.T) {
	cfg := config.GetDefaults()
	err := config.NewManager(config.ServiceName).
		WithPaths(filepath.Join(t.TempDir(), "absent.yaml")).
		LoadConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultFilePath, cfg.Storage.FilePath)
}

func TestLoadConfig_InvalidFails(t *testing.T) {
	t.Setenv("WATCHLIST_STORAGE_BACKEND", "mongo")

	cfg := config.GetDefaults()
	err := config.NewManager(config.ServiceName).WithPaths().LoadConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mongo")
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.WatchlistConfig)
	}{
		{"zero attempts", func(c *config.WatchlistConfig) { c.TMDB.MaxAttempts = 0 }},
		{"negative delay", func(c *config.WatchlistConfig) { c.TMDB.BaseDelay = -time.Second }},
		{"negative cache ttl", func(c *config.WatchlistConfig) { c.TMDB.CacheTTL = -time.Minute }},
		{"no file path", func(c *config.WatchlistConfig) { c.Storage.FilePath = "" }},
		{"postgres without host", func(c *config.WatchlistConfig) {
			c.Storage.Backend = config.BackendPostgres
			c.Database.Host = ""
		}},
		{"nats without url", func(c *config.WatchlistConfig) {
			c.Events.NATS.Enabled = true
			c.Events.NATS.URL = ""
		}},
		{"s3 without bucket", func(c *config.WatchlistConfig) { c.Snapshot.Backend = config.SnapshotS3 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.GetDefaults()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestToDatabaseConfig(t *testing.T) {
	cfg := config.GetDefaults()

	cfg.Storage.Backend = config.BackendSQLite
	db := cfg.ToDatabaseConfig()
	assert.Equal(t, database.DriverSQLite, db.Driver)
	assert.Equal(t, config.DefaultSQLitePath, db.Path)

	cfg.Storage.Backend = config.BackendPostgres
	cfg.Database.SSLMode = ""
	db = cfg.ToDatabaseConfig()
	assert.Equal(t, database.DriverPostgres, db.Driver)
	assert.Equal(t, "disable", db.SSLMode)
	assert.Contains(t, db.DSN(), "dbname=watchlist")
}

func TestToLoggerConfig(t *testing.T) {
	lc := config.LoggerConfig{Level: "warn", Format: "json", OutputPath: "stdout"}.ToLoggerConfig()
	assert.Equal(t, "warn", lc.Level)
	assert.Equal(t, "json", lc.Encoding)
	assert.Equal(t, []string{"stdout"}, lc.OutputPaths)
}

func TestLoad_ExplicitPathMustExist(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
