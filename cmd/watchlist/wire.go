//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"

	"github.com/narwhalmedia/watchlist/internal/catalog/service"
	"github.com/narwhalmedia/watchlist/pkg/config"
	"github.com/narwhalmedia/watchlist/pkg/interfaces"
	"github.com/narwhalmedia/watchlist/pkg/logger"
)

// InitializeApp wires the catalog service with its store, metadata client,
// event bus and snapshot sink.
func InitializeApp(cfg *config.WatchlistConfig) (*App, func(), error) {
	wire.Build(
		// Logging
		provideLogger,
		wire.Bind(new(interfaces.Logger), new(*logger.ZapLogger)),
		provideZapLogger,

		// Infrastructure
		provideStore,
		provideMetadata,
		provideEventBus,
		provideSink,

		// Domain
		service.NewCatalogService,

		wire.Struct(new(App), "*"),
	)

	return nil, nil, nil
}
