//go:build wireinject
// +build wireinject

package di

import (
	"NeuroBand/pkg/config"
	"NeuroBand/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application together with
// a cleanup that releases the store, cache and producer.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Infrastructure clients
		ProvideKafkaProducer,
		ProvideEventPublisher,
		ProvideLogger,
		ProvideMetrics,

		// Repositories
		ProvideSignalStore,
		ProvideResultCache,

		// Domain services
		ProvideGenerator,
		ProvideAnalyzer,

		// Use cases
		ProvideSignalIngestor,

		// HTTP
		ProvideLimiter,
		ProvideEEGHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
