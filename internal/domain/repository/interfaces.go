package repository

import (
	"context"

	"QuantDesk/internal/domain/models"
)

// HistoricalSource fetches intraday history for a symbol.
type HistoricalSource interface {
	FetchHistorical(ctx context.Context, ticker string, samplingMinutes int) (models.Series, error)
	Name() string
}

// QuoteSource resolves the latest traded price for a symbol.
type QuoteSource interface {
	LatestQuote(ctx context.Context, ticker string) (models.Quote, error)
	Name() string
}

// SymbolSubscriber is implemented by quote sources that hold a live
// per-symbol subscription and need to track ticker changes.
type SymbolSubscriber interface {
	Subscribe(symbol string) error
	Unsubscribe(symbol string) error
}

// TickPublisher delivers raw ticks to a message broker.
type TickPublisher interface {
	Publish(ctx context.Context, key string, value interface{}) error
	Close() error
}

// TickStorage persists ticks in a columnar store.
type TickStorage interface {
	Init(ctx context.Context) error
	Store(ctx context.Context, tick models.Tick) error
	StoreBatch(ctx context.Context, ticks []models.Tick) error
	Health(ctx context.Context) error
	Close() error
}

// Metrics is the instrumentation surface the engine records into.
type Metrics interface {
	RecordCommand(command, status string)
	SessionOpened()
	SessionClosed()
	RecordRefresh(result string)
	RecordError(errType string)
	RecordLastPrice(symbol string, price float64)
	DropSymbol(symbol string)
	SetTrackedTickers(n int)
	RecordLatency(operation string, seconds float64)
}
