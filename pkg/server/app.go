// Package server owns the application lifecycle: boot order, background
// loops and graceful shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"QuantDesk/internal/handler/tcp"
	"QuantDesk/internal/pricecache"
	"QuantDesk/internal/provider/finnhub"
	"QuantDesk/internal/usecase"
	pkgch "QuantDesk/pkg/clickhouse"
	"QuantDesk/pkg/config"
	xhttp "QuantDesk/pkg/http"
	applogger "QuantDesk/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	cache     *pricecache.Cache
	analytics *usecase.Analytics
	refresher *usecase.Refresher
	archiver  *usecase.Archiver
	listener  *tcp.Listener
	admin     *xhttp.Server
	stream    *finnhub.Stream
	chClient  *pkgch.Client
}

// New creates an App with all dependencies. stream, chClient and admin may
// be nil depending on configuration.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	cache *pricecache.Cache,
	analytics *usecase.Analytics,
	refresher *usecase.Refresher,
	archiver *usecase.Archiver,
	listener *tcp.Listener,
	admin *xhttp.Server,
	stream *finnhub.Stream,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		cache:     cache,
		analytics: analytics,
		refresher: refresher,
		archiver:  archiver,
		listener:  listener,
		admin:     admin,
		stream:    stream,
		chClient:  chClient,
	}
}

// Run boots the server and blocks until an interrupt arrives. The order
// mirrors the data dependencies: the cache must be populated and the first
// report persisted before any client can connect.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if a.stream != nil {
		go a.stream.Run(ctx)
	}

	if err := a.cache.Initialize(ctx); err != nil {
		return fmt.Errorf("initialize price cache: %w", err)
	}

	a.cache.SetTickHook(a.archiver.Enqueue)
	go a.archiver.Run(ctx)

	if err := a.analytics.GenerateReport(ctx); err != nil {
		a.log.Error("initial report failed", applogger.Error(err))
	}

	go a.refresher.Run(ctx)

	if err := a.listener.Start(ctx); err != nil {
		return err
	}

	if a.admin != nil {
		if err := a.admin.Start(); err != nil {
			return fmt.Errorf("start admin server: %w", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	cancel()
	return a.shutdown()
}

func (a *App) shutdown() error {
	a.listener.Stop()

	if a.admin != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Admin.ShutdownTimeout)
		defer cancel()
		if err := a.admin.Stop(shutdownCtx); err != nil {
			a.log.Warn("admin shutdown error", applogger.Error(err))
		}
	}

	if a.stream != nil {
		a.stream.Close()
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
