package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config is the interface that all loadable configs must implement.
type Config interface {
	Validate() error
}

// WatchlistConfig is the full application configuration.
type WatchlistConfig struct {
	Storage  StorageConfig  `koanf:"storage"`
	Database DatabaseConfig `koanf:"database"`
	TMDB     TMDBConfig     `koanf:"tmdb"`
	Logger   LoggerConfig   `koanf:"logger"`
	Events   EventsConfig   `koanf:"events"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
}

// StorageConfig selects the active catalog backend.
type StorageConfig struct {
	Backend    string `koanf:"backend"` // file, postgres, sqlite
	FilePath   string `koanf:"file_path"`
	SQLitePath string `koanf:"sqlite_path"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Database        string        `koanf:"database"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxConnections  int           `koanf:"max_connections"`
	MinConnections  int           `koanf:"min_connections"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
	Debug           bool          `koanf:"debug"`
}

// TMDBConfig configures the metadata lookup. An empty access token disables it.
type TMDBConfig struct {
	BaseURL     string        `koanf:"base_url"`
	AccessToken string        `koanf:"access_token"`
	Language    string        `koanf:"language"`
	Timeout     time.Duration `koanf:"timeout"`
	MaxAttempts int           `koanf:"max_attempts"`
	BaseDelay   time.Duration `koanf:"base_delay"`
	CacheTTL    time.Duration `koanf:"cache_ttl"` // 0 disables the draft cache
}

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level       string `koanf:"level"`  // debug, info, warn, error
	Format      string `koanf:"format"` // json, console
	Development bool   `koanf:"development"`
	OutputPath  string `koanf:"output_path"` // stdout, stderr, or file path
}

// EventsConfig configures the optional broker forwarders.
type EventsConfig struct {
	NATS  NATSConfig  `koanf:"nats"`
	Kafka KafkaConfig `koanf:"kafka"`
}

// NATSConfig contains NATS JetStream settings.
type NATSConfig struct {
	Enabled       bool          `koanf:"enabled"`
	URL           string        `koanf:"url"`
	ClientID      string        `koanf:"client_id"`
	Stream        string        `koanf:"stream"`
	SubjectPrefix string        `koanf:"subject_prefix"`
	MaxReconnect  int           `koanf:"max_reconnect"`
	ReconnectWait time.Duration `koanf:"reconnect_wait"`
}

// KafkaConfig contains Kafka producer settings.
type KafkaConfig struct {
	Enabled  bool     `koanf:"enabled"`
	Brokers  []string `koanf:"brokers"`
	Topic    string   `koanf:"topic"`
	ClientID string   `koanf:"client_id"`
}

// SnapshotConfig configures where exported catalogs are stored.
type SnapshotConfig struct {
	Backend string `koanf:"backend"` // local, s3
	Dir     string `koanf:"dir"`
	Bucket  string `koanf:"bucket"`
	Prefix  string `koanf:"prefix"`
	Region  string `koanf:"region"`
}

// Manager handles configuration loading and parsing.
type Manager struct {
	k           *koanf.Koanf
	serviceName string
	configPaths []string
}

// NewManager creates a new configuration manager.
func NewManager(serviceName string) *Manager {
	return &Manager{
		k:           koanf.New("."),
		serviceName: serviceName,
		configPaths: getDefaultConfigPaths(serviceName),
	}
}

// WithPaths replaces the config file search list.
func (m *Manager) WithPaths(paths ...string) *Manager {
	m.configPaths = paths
	return m
}

// LoadConfig loads configuration from all sources.
func (m *Manager) LoadConfig(cfg Config) error {
	// 1. Load defaults from the struct as passed in
	if err := m.loadDefaults(cfg); err != nil {
		return fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Load from config files (in order of precedence)
	for _, path := range m.configPaths {
		if err := m.loadFromFile(path); err != nil {
			// Skip if file doesn't exist, error on parse failures
			if !os.IsNotExist(err) {
				return fmt.Errorf("failed to load config from %s: %w", path, err)
			}
		}
	}

	// 3. Load from environment variables
	if err := m.loadFromEnv(); err != nil {
		return fmt.Errorf("failed to load from environment: %w", err)
	}

	// 4. Unmarshal into the config struct
	if err := m.k.Unmarshal("", cfg); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// 5. Validate the configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	return nil
}

// Get returns a value for the given key.
func (m *Manager) Get(key string) interface{} {
	return m.k.Get(key)
}

// GetString returns a string value for the given key.
func (m *Manager) GetString(key string) string {
	return m.k.String(key)
}

// GetInt returns an int value for the given key.
func (m *Manager) GetInt(key string) int {
	return m.k.Int(key)
}

// GetBool returns a bool value for the given key.
func (m *Manager) GetBool(key string) bool {
	return m.k.Bool(key)
}

func (m *Manager) loadDefaults(cfg Config) error {
	return m.k.Load(structs.Provider(cfg, "koanf"), nil)
}

func (m *Manager) loadFromFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return err
	}

	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return fmt.Errorf("unsupported config file format: %s", ext)
	}

	return m.k.Load(file.Provider(path), parser)
}

// loadFromEnv maps WATCHLIST_STORAGE_FILE_PATH to storage.file_path. Keys
// already known from the defaults win over the plain underscore split, so
// snake_case leaves survive.
func (m *Manager) loadFromEnv() error {
	prefix := strings.ToUpper(m.serviceName) + "_"

	known := make(map[string]string, len(m.k.Keys()))
	for _, key := range m.k.Keys() {
		known[strings.ReplaceAll(key, ".", "_")] = key
	}

	return m.k.Load(env.Provider(prefix, ".", func(s string) string {
		name := strings.ToLower(strings.TrimPrefix(s, prefix))
		if key, ok := known[name]; ok {
			return key
		}
		return strings.ReplaceAll(name, "_", ".")
	}), nil)
}

func getDefaultConfigPaths(serviceName string) []string {
	paths := []string{
		"config.yaml",
		"config.json",
		fmt.Sprintf("%s.yaml", serviceName),
		fmt.Sprintf("%s.json", serviceName),

		"configs/config.yaml",
		"configs/config.json",
		fmt.Sprintf("configs/%s.yaml", serviceName),
		fmt.Sprintf("configs/%s.json", serviceName),
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		paths = append([]string{configPath}, paths...)
	}

	return paths
}

// Validate validates the watchlist configuration.
func (c *WatchlistConfig) Validate() error {
	switch c.Storage.Backend {
	case BackendFile:
		if c.Storage.FilePath == "" {
			return errors.New("storage.file_path is required for the file backend")
		}
	case BackendSQLite:
		if c.Storage.SQLitePath == "" {
			return errors.New("storage.sqlite_path is required for the sqlite backend")
		}
	case BackendPostgres:
		if c.Database.Host == "" {
			return errors.New("database host is required")
		}
		if c.Database.Port <= 0 || c.Database.Port > 65535 {
			return fmt.Errorf("invalid database port: %d", c.Database.Port)
		}
	default:
		return fmt.Errorf("unknown storage backend %q (want %s, %s or %s)",
			c.Storage.Backend, BackendFile, BackendPostgres, BackendSQLite)
	}

	if c.TMDB.MaxAttempts <= 0 {
		return fmt.Errorf("tmdb.max_attempts must be positive, got %d", c.TMDB.MaxAttempts)
	}
	if c.TMDB.BaseDelay < 0 {
		return fmt.Errorf("tmdb.base_delay must not be negative, got %s", c.TMDB.BaseDelay)
	}
	if c.TMDB.Timeout <= 0 {
		return fmt.Errorf("tmdb.timeout must be positive, got %s", c.TMDB.Timeout)
	}
	if c.TMDB.CacheTTL < 0 {
		return fmt.Errorf("tmdb.cache_ttl must not be negative, got %s", c.TMDB.CacheTTL)
	}

	if c.Events.NATS.Enabled && c.Events.NATS.URL == "" {
		return errors.New("events.nats.url is required when NATS forwarding is enabled")
	}
	if c.Events.Kafka.Enabled && len(c.Events.Kafka.Brokers) == 0 {
		return errors.New("events.kafka.brokers is required when Kafka forwarding is enabled")
	}

	switch c.Snapshot.Backend {
	case SnapshotLocal:
	case SnapshotS3:
		if c.Snapshot.Bucket == "" {
			return errors.New("snapshot.bucket is required for the s3 snapshot backend")
		}
	default:
		return fmt.Errorf("unknown snapshot backend %q", c.Snapshot.Backend)
	}
	return nil
}

// GetDefaults returns default configuration values.
func GetDefaults() *WatchlistConfig {
	return &WatchlistConfig{
		Storage: StorageConfig{
			Backend:    BackendFile,
			FilePath:   DefaultFilePath,
			SQLitePath: DefaultSQLitePath,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            DefaultPostgresPort,
			User:            "watchlist",
			Password:        "watchlist_dev",
			Database:        "watchlist",
			SSLMode:         "disable",
			MaxConnections:  DefaultMaxConnections,
			MinConnections:  DefaultMinConnections,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: DefaultMaxConnIdleTime,
		},
		TMDB: TMDBConfig{
			BaseURL:     DefaultTMDBBaseURL,
			Language:    DefaultTMDBLanguage,
			Timeout:     DefaultTMDBTimeout,
			MaxAttempts: DefaultTMDBMaxAttempts,
			BaseDelay:   DefaultTMDBBaseDelay,
			CacheTTL:    DefaultTMDBCacheTTL,
		},
		Logger: LoggerConfig{
			Level:      "warn",
			Format:     "console",
			OutputPath: "stderr",
		},
		Events: EventsConfig{
			NATS: NATSConfig{
				URL:           "nats://localhost:4222",
				ClientID:      ServiceName,
				Stream:        "WATCHLIST_EVENTS",
				SubjectPrefix: "watchlist",
				MaxReconnect:  DefaultMaxReconnect,
				ReconnectWait: DefaultReconnectWait,
			},
			Kafka: KafkaConfig{
				Brokers:  []string{"localhost:9092"},
				Topic:    "watchlist.titles",
				ClientID: ServiceName,
			},
		},
		Snapshot: SnapshotConfig{
			Backend: SnapshotLocal,
			Dir:     DefaultSnapshotDir,
			Prefix:  "snapshots",
		},
	}
}
