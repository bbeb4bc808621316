package usecase

import (
	"context"

	"QuantDesk/internal/domain/models"
	"QuantDesk/internal/domain/repository"
	"QuantDesk/pkg/logger"
)

// Archive backend names.
const (
	BackendNone       = "none"
	BackendKafka      = "kafka"
	BackendClickHouse = "clickhouse"
)

// Archiver exports merged realtime ticks to the configured backend. Ticks
// are handed off through a buffered channel so the price cache hook never
// blocks on broker or storage latency; overflow drops the tick and counts it.
type Archiver struct {
	pub     repository.TickPublisher
	store   repository.TickStorage
	backend string
	log     *logger.Logger
	metrics repository.Metrics

	queue chan models.Tick
}

// NewArchiver creates an archiver for the given backend. With BackendNone
// every tick is discarded.
func NewArchiver(pub repository.TickPublisher, store repository.TickStorage,
	backend string, log *logger.Logger, metrics repository.Metrics) *Archiver {
	return &Archiver{
		pub:     pub,
		store:   store,
		backend: backend,
		log:     log,
		metrics: metrics,
		queue:   make(chan models.Tick, 1024),
	}
}

// Enqueue accepts a tick for archival without blocking.
func (a *Archiver) Enqueue(t models.Tick) {
	if a.backend == BackendNone {
		return
	}
	select {
	case a.queue <- t:
	default:
		a.metrics.RecordError("archive_overflow")
	}
}

// Run drains the queue until ctx is cancelled. Backend failures only log.
func (a *Archiver) Run(ctx context.Context) {
	if a.backend == BackendNone {
		return
	}
	a.log.Info("tick archiver started", logger.String("backend", a.backend))
	for {
		select {
		case <-ctx.Done():
			a.drain()
			return
		case t := <-a.queue:
			a.archive(ctx, t)
		}
	}
}

func (a *Archiver) archive(ctx context.Context, t models.Tick) {
	var err error
	switch a.backend {
	case BackendKafka:
		err = a.pub.Publish(ctx, t.Symbol, t)
	case BackendClickHouse:
		err = a.store.Store(ctx, t)
	}
	if err != nil {
		a.metrics.RecordError("archive")
		a.log.Warn("tick archive failed",
			logger.String("backend", a.backend),
			logger.String("symbol", t.Symbol),
			logger.Error(err))
	}
}

func (a *Archiver) drain() {
	for {
		select {
		case t := <-a.queue:
			a.archive(context.Background(), t)
		default:
			return
		}
	}
}
