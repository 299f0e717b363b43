package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/narwhalmedia/watchlist/internal/catalog/repository"
	"github.com/narwhalmedia/watchlist/internal/catalog/service"
	"github.com/narwhalmedia/watchlist/internal/infrastructure/adapters/external/tmdb"
	"github.com/narwhalmedia/watchlist/internal/infrastructure/events"
	"github.com/narwhalmedia/watchlist/internal/infrastructure/events/kafka"
	"github.com/narwhalmedia/watchlist/internal/infrastructure/events/nats"
	"github.com/narwhalmedia/watchlist/internal/infrastructure/snapshot"
	"github.com/narwhalmedia/watchlist/pkg/cache"
	"github.com/narwhalmedia/watchlist/pkg/config"
	"github.com/narwhalmedia/watchlist/pkg/database"
	pkgevents "github.com/narwhalmedia/watchlist/pkg/events"
	"github.com/narwhalmedia/watchlist/pkg/interfaces"
	"github.com/narwhalmedia/watchlist/pkg/logger"
)

// App holds everything a command needs.
type App struct {
	Config  *config.WatchlistConfig
	Logger  *logger.ZapLogger
	Service *service.CatalogService
	Sink    snapshot.Sink
}

func provideLogger(cfg *config.WatchlistConfig) (*logger.ZapLogger, func(), error) {
	l, err := logger.NewFromConfig(cfg.Logger.ToLoggerConfig())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return l, func() { _ = l.Sync() }, nil
}

func provideZapLogger(l *logger.ZapLogger) *zap.Logger {
	return l.Zap()
}

func provideStore(cfg *config.WatchlistConfig, log interfaces.Logger, zl *zap.Logger) (repository.Store, func(), error) {
	store, err := openStore(cfg, cfg.Storage.Backend, log, zl)
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

// openStore opens and, for relational backends, migrates the named backend.
func openStore(cfg *config.WatchlistConfig, backend string, log interfaces.Logger, zl *zap.Logger) (repository.Store, error) {
	switch backend {
	case config.BackendFile:
		return repository.NewFileStore(cfg.Storage.FilePath, log)
	case config.BackendPostgres, config.BackendSQLite:
		scoped := *cfg
		scoped.Storage.Backend = backend
		db, _, err := database.Open(scoped.ToDatabaseConfig(), zl)
		if err != nil {
			return nil, fmt.Errorf("open %s backend: %w", backend, err)
		}
		store := repository.NewGormStore(db, backend, log)
		if err := store.Migrate(); err != nil {
			_ = store.Close()
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}

// provideMetadata returns a nil provider when no access token is configured.
func provideMetadata(cfg *config.WatchlistConfig, log interfaces.Logger) (service.MetadataProvider, error) {
	if cfg.TMDB.AccessToken == "" {
		return nil, nil
	}
	client, err := tmdb.New(cfg.TMDB.BaseURL, cfg.TMDB.AccessToken,
		tmdb.WithLanguage(cfg.TMDB.Language),
		tmdb.WithRetryPolicy(cfg.TMDB.MaxAttempts, cfg.TMDB.BaseDelay),
		tmdb.WithTimeout(cfg.TMDB.Timeout),
		tmdb.WithLogger(log),
		tmdb.WithCache(cache.NewMemory(), cfg.TMDB.CacheTTL),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

// provideEventBus builds the in-process bus and attaches the enabled broker
// forwarders to it.
func provideEventBus(cfg *config.WatchlistConfig, log interfaces.Logger, zl *zap.Logger) (interfaces.EventBus, func(), error) {
	bus := pkgevents.NewInMemoryEventBus(log)
	var closers []func()

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		_ = bus.Close()
	}

	if nc := cfg.Events.NATS; nc.Enabled {
		client, drain, err := nats.NewClient(nc, zl)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		fwd := events.NewForwarder("nats-forwarder", client, events.SubjectPrefix(nc.SubjectPrefix), zl)
		detach := fwd.Attach(bus)
		closers = append(closers, func() {
			detach()
			drain()
		})
	}

	if kc := cfg.Events.Kafka; kc.Enabled {
		producer, err := kafka.NewProducer(kc, zl)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		fwd := events.NewForwarder("kafka-forwarder", producer, events.FixedTopic(kc.Topic), zl)
		detach := fwd.Attach(bus)
		closers = append(closers, func() {
			detach()
			if err := fwd.Close(); err != nil {
				zl.Warn("failed to close Kafka producer", zap.Error(err))
			}
		})
	}

	return bus, cleanup, nil
}

func provideSink(cfg *config.WatchlistConfig, zl *zap.Logger) (snapshot.Sink, error) {
	if cfg.Snapshot.Backend == config.SnapshotS3 {
		return snapshot.NewS3Sink(context.Background(), cfg.Snapshot.Bucket, cfg.Snapshot.Prefix, cfg.Snapshot.Region, zl)
	}
	return snapshot.NewLocalSink(cfg.Snapshot.Dir, zl), nil
}
