package config

import "time"

// ServiceName prefixes environment variables and names config files.
const ServiceName = "watchlist"

// Storage backends.
const (
	BackendFile     = "file"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
)

// Snapshot backends.
const (
	SnapshotLocal = "local"
	SnapshotS3    = "s3"
)

const (
	// Storage defaults.
	DefaultFilePath    = "data/titles.csv"
	DefaultSQLitePath  = "data/watchlist.db"
	DefaultSnapshotDir = "data/snapshots"

	// Database defaults.
	DefaultPostgresPort    = 5432
	DefaultMaxConnections  = 10
	DefaultMinConnections  = 2
	DefaultMaxConnIdleTime = 30 * time.Minute

	// Metadata lookup defaults.
	DefaultTMDBBaseURL     = "https://api.themoviedb.org/3"
	DefaultTMDBLanguage    = "ru-RU"
	DefaultTMDBTimeout     = 10 * time.Second
	DefaultTMDBMaxAttempts = 3
	DefaultTMDBBaseDelay   = 5 * time.Second
	DefaultTMDBCacheTTL    = 0

	// Broker defaults.
	DefaultMaxReconnect  = 5
	DefaultReconnectWait = 2 * time.Second
)
