package config

import (
	"fmt"
	"os"

	"github.com/narwhalmedia/watchlist/pkg/database"
	"github.com/narwhalmedia/watchlist/pkg/logger"
)

// Load reads the watchlist configuration starting from GetDefaults. A
// non-empty path replaces the default file search list.
func Load(path string) (*WatchlistConfig, error) {
	cfg := GetDefaults()
	manager := NewManager(ServiceName)
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file: %w", err)
		}
		manager.WithPaths(path)
	}
	if err := manager.LoadConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// MustLoad loads config and panics on error (for main functions)
func MustLoad(path string) *WatchlistConfig {
	cfg, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("failed to load %s config: %v", ServiceName, err))
	}
	return cfg
}

// ToDatabaseConfig converts config to database package config for the
// relational backend named by storage.backend.
func (c *WatchlistConfig) ToDatabaseConfig() *database.Config {
	if c.Storage.Backend == BackendSQLite {
		return &database.Config{
			Driver: database.DriverSQLite,
			Path:   c.Storage.SQLitePath,
			Debug:  c.Database.Debug,
		}
	}

	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return &database.Config{
		Driver:          database.DriverPostgres,
		Host:            c.Database.Host,
		Port:            c.Database.Port,
		User:            c.Database.User,
		Password:        c.Database.Password,
		Database:        c.Database.Database,
		SSLMode:         sslMode,
		MaxConnections:  c.Database.MaxConnections,
		MinConnections:  c.Database.MinConnections,
		MaxConnLifetime: c.Database.MaxConnLifetime,
		MaxConnIdleTime: c.Database.MaxConnIdleTime,
		Debug:           c.Database.Debug,
	}
}

// ToLoggerConfig converts config to logger package config
func (c LoggerConfig) ToLoggerConfig() *logger.Config {
	cfg := logger.DefaultConfig()
	if c.Development {
		cfg = logger.DevelopmentConfig()
	}
	if c.Level != "" {
		cfg.Level = c.Level
	}
	if c.Format != "" {
		cfg.Encoding = c.Format
	}
	if c.OutputPath != "" {
		cfg.OutputPaths = []string{c.OutputPath}
	}
	return cfg
}

// IsRelational reports whether the configured backend is served by gorm.
func (c StorageConfig) IsRelational() bool {
	return c.Backend == BackendPostgres || c.Backend == BackendSQLite
}
