//go:build wireinject
// +build wireinject

package di

import (
	"FinScore/pkg/config"
	"FinScore/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideCache,

		// Repositories
		ProvideIndicatorSource,
		ProvideResultStore,
		ProvidePublisher,
		ProvideExporter,
		ProvideEventCatalog,
		ProvideEventSource,

		// Engine services
		ProvideDetector,
		ProvideEventCorrelator,

		// Use cases
		ProvideScoringUseCase,
		ProvideAnomalyUseCase,
		ProvideRunUseCase,

		// Query API
		ProvideRateLimiter,
		ProvideDashboardHandler,

		// Application
		ProvideApp,
	)
	return &server.App{}, nil
}
