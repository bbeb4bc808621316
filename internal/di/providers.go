// Package di assembles the application graph with google/wire.
package di

import (
	"context"
	"fmt"
	"time"

	"QuantDesk/internal/archive"
	"QuantDesk/internal/domain/repository"
	"QuantDesk/internal/handler/api"
	"QuantDesk/internal/handler/tcp"
	"QuantDesk/internal/pricecache"
	"QuantDesk/internal/provider/alphavantage"
	"QuantDesk/internal/provider/finnhub"
	"QuantDesk/internal/report"
	"QuantDesk/internal/strategy"
	"QuantDesk/internal/usecase"
	"QuantDesk/pkg/cache"
	pkgch "QuantDesk/pkg/clickhouse"
	"QuantDesk/pkg/config"
	xhttp "QuantDesk/pkg/http"
	pkgkafka "QuantDesk/pkg/kafka"
	applogger "QuantDesk/pkg/logger"
	"QuantDesk/pkg/metrics"
	"QuantDesk/pkg/server"
)

// ProvideLogger creates the application logger with an error buffer for the
// health endpoint.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	log, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return log.WithErrorBuffer(applogger.NewErrorBuffer(64)), nil
}

// ProvideMetrics creates the Prometheus recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideHistoricalSource creates the Alpha Vantage intraday client.
func ProvideHistoricalSource(cfg *config.Config, log *applogger.Logger) repository.HistoricalSource {
	return alphavantage.NewClient(cfg.AlphaVantage.BaseURL, cfg.AlphaVantage.APIKey,
		cfg.AlphaVantage.Timeout, log)
}

// ProvideFinnhubStream creates the trade stream when the realtime provider
// is "stream"; otherwise it returns nil and the REST client serves quotes.
func ProvideFinnhubStream(cfg *config.Config, log *applogger.Logger) *finnhub.Stream {
	if cfg.Providers.Realtime != "stream" {
		return nil
	}
	return finnhub.NewStream(finnhub.StreamConfig{
		URL:            cfg.Finnhub.WebSocketURL,
		APIKey:         cfg.Finnhub.APIKey,
		ReconnectDelay: cfg.Finnhub.ReconnectDelay,
		PingInterval:   cfg.Finnhub.PingInterval,
	}, cfg.Market.Tickers, log)
}

// ProvideQuoteSource selects the realtime quote backend.
func ProvideQuoteSource(cfg *config.Config, stream *finnhub.Stream, log *applogger.Logger) repository.QuoteSource {
	if stream != nil {
		return stream
	}
	return finnhub.NewClient(cfg.Finnhub.BaseURL, cfg.Finnhub.APIKey, cfg.Finnhub.Timeout, log)
}

// ProvidePriceCache creates the shared price cache.
func ProvidePriceCache(cfg *config.Config, historical repository.HistoricalSource,
	quotes repository.QuoteSource, log *applogger.Logger, m repository.Metrics) *pricecache.Cache {
	return pricecache.New(historical, quotes, cfg.Market.Tickers, cfg.Market.SamplingMinutes, log, m)
}

// ProvideReportBuilder creates the momentum pipeline and report builder.
func ProvideReportBuilder(cfg *config.Config) *report.Builder {
	return report.NewBuilder(strategy.New(), cfg.Report.Path)
}

// ProvideAnalytics creates the analytics engine.
func ProvideAnalytics(c *pricecache.Cache, b *report.Builder,
	log *applogger.Logger, m repository.Metrics) *usecase.Analytics {
	return usecase.NewAnalytics(c, b, log, m)
}

// ProvideRefresher creates the realtime refresher.
func ProvideRefresher(cfg *config.Config, c *pricecache.Cache,
	log *applogger.Logger, m repository.Metrics) *usecase.Refresher {
	return usecase.NewRefresher(c, cfg.SamplingPeriod(), log, m)
}

// ProvideClickHouseClient opens a ClickHouse connection when the clickhouse
// archive backend is enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if cfg.Archive.Backend != usecase.BackendClickHouse {
		return nil, nil
	}
	ch := cfg.Archive.ClickHouse
	client, err := pkgch.NewClient(
		pkgch.WithHost(ch.Host),
		pkgch.WithPort(ch.Port),
		pkgch.WithDatabase(ch.Database),
		pkgch.WithCredentials(ch.User, ch.Password),
		pkgch.WithHTTP(ch.UseHTTP),
		pkgch.WithAsyncInsert(ch.AsyncInsert, ch.WaitForAsync),
		pkgch.WithTimeouts(ch.DialTimeout, ch.ReadTimeout, ch.WriteTimeout),
		pkgch.WithMaxExecutionTime(ch.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := client.InitSchema(ctx, archive.TickSchema(ch.Table)); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return client, nil
}

// ProvideKafkaProducer creates a producer when the kafka archive backend is
// enabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if cfg.Archive.Backend != usecase.BackendKafka {
		return nil, nil
	}
	k := cfg.Archive.Kafka
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(k.Brokers),
		pkgkafka.WithCompression(k.Compression),
		pkgkafka.WithRequiredAcks(k.RequiredAcks),
		pkgkafka.WithBatching(k.BatchSize, k.BatchBytes, k.Linger),
		pkgkafka.WithTimeouts(k.WriteTimeout, k.ReadTimeout),
		pkgkafka.WithMaxAttempts(k.MaxAttempts),
		pkgkafka.WithAsync(k.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideTickPublisher binds the kafka producer to the publisher interface.
func ProvideTickPublisher(producer *pkgkafka.Producer, cfg *config.Config) repository.TickPublisher {
	if producer == nil {
		return nil
	}
	return archive.NewKafkaPublisher(producer, cfg.Archive.Kafka.Topic)
}

// ProvideTickStorage binds the clickhouse client to the storage interface.
func ProvideTickStorage(client *pkgch.Client, cfg *config.Config) repository.TickStorage {
	if client == nil {
		return nil
	}
	return archive.NewClickHouseStorage(client.DB(), cfg.Archive.ClickHouse.Table)
}

// ProvideArchiver creates the tick archiver.
func ProvideArchiver(pub repository.TickPublisher, store repository.TickStorage,
	cfg *config.Config, log *applogger.Logger, m repository.Metrics) *usecase.Archiver {
	return usecase.NewArchiver(pub, store, cfg.Archive.Backend, log, m)
}

// ProvideListener creates the TCP listener.
func ProvideListener(cfg *config.Config, engine *usecase.Analytics,
	log *applogger.Logger, m repository.Metrics) *tcp.Listener {
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	return tcp.NewListener(addr, engine, log, m)
}

// ProvidePayloadCache selects the admin report cache backend.
func ProvidePayloadCache(cfg *config.Config) cache.BytesCache {
	if cfg.Cache.Backend == "redis" {
		return cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.Redis.Addr,
			Password: cfg.Cache.Redis.Password,
			DB:       cfg.Cache.Redis.DB,
		})
	}
	return cache.NewMemoryCache()
}

// ProvideAdminServer creates the admin HTTP server, or nil when disabled.
func ProvideAdminServer(cfg *config.Config, engine *usecase.Analytics,
	payloads cache.BytesCache, log *applogger.Logger) *xhttp.Server {
	if !cfg.Admin.Enabled {
		return nil
	}
	handler := api.NewAdmin(engine, payloads, cfg.Admin.ReportCacheTTL, log)
	return xhttp.NewServer(log, handler,
		xhttp.WithPort(cfg.Admin.Port),
		xhttp.WithTimeouts(cfg.Admin.ReadTimeout, cfg.Admin.WriteTimeout, cfg.Admin.ShutdownTimeout),
	)
}

// ProvideApp assembles the application.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	c *pricecache.Cache,
	analytics *usecase.Analytics,
	refresher *usecase.Refresher,
	archiver *usecase.Archiver,
	listener *tcp.Listener,
	admin *xhttp.Server,
	stream *finnhub.Stream,
	chClient *pkgch.Client,
) *server.App {
	return server.New(cfg, log, c, analytics, refresher, archiver, listener, admin, stream, chClient)
}
