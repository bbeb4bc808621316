//go:build wireinject
// +build wireinject

package di

import (
	"QuantDesk/pkg/config"
	"QuantDesk/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Market data providers
		ProvideHistoricalSource,
		ProvideFinnhubStream,
		ProvideQuoteSource,

		// Core pipeline
		ProvidePriceCache,
		ProvideReportBuilder,
		ProvideAnalytics,
		ProvideRefresher,

		// Tick archive
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideTickPublisher,
		ProvideTickStorage,
		ProvideArchiver,

		// Transport
		ProvideListener,
		ProvidePayloadCache,
		ProvideAdminServer,

		ProvideApp,
	)
	return &server.App{}, nil
}
