package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/labstack/echo/v4"

	domrepo "ARSPull/internal/domain/repository"
	"ARSPull/internal/handler/api"
	mid "ARSPull/internal/middleware"
	icache "ARSPull/internal/service/cache"
	"ARSPull/internal/services/ars"
	"ARSPull/internal/usecase"
	pkgcache "ARSPull/pkg/cache"
	pkgch "ARSPull/pkg/clickhouse"
	"ARSPull/pkg/config"
	xhttp "ARSPull/pkg/http"
	pkgkafka "ARSPull/pkg/kafka"
	applogger "ARSPull/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.SignalCollector
	pipe        *mid.PricePipeline
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	store       domrepo.SignalStore
	guard       *ars.DrawdownGuard
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	SignalProc  *usecase.SignalProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.SignalCollector,
	pipe *mid.PricePipeline,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	store domrepo.SignalStore,
	guard *ars.DrawdownGuard,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		pipe:      pipe,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		store:     store,
		guard:     guard,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// init app logger (console info by default)
	l, _ := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})

	// Setup Echo HTTP server using pkg/http and register routes via handler
	httpHandler := a.httpHandler
	if httpHandler == nil && a.store != nil && a.guard != nil {
		httpHandler = api.NewSignalsEchoHandler(l, a.store, a.collector.Processor(), a.guard)
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Public read-only surface: cached and rate limited, mounted beside the
	// Echo API so anonymous pollers never touch the store directly.
	if a.store != nil && a.guard != nil {
		ph := api.NewSignalsHandler(a.store, a.guard)
		ph.SetLogger(l)
		var bc icache.BytesCache = icache.NewServiceCache(pkgcache.NewMemoryCache())
		if a.cfg.Redis.Enabled {
			bc = icache.NewRedisCache(icache.RedisConfig{
				Addr:     a.cfg.Redis.Addr,
				Password: a.cfg.Redis.Password,
				DB:       a.cfg.Redis.DB,
			})
		}
		ph.SetCache(bc)
		e := a.httpServer.Echo()
		e.GET("/public/signals", echo.WrapHandler(ph.Latest()))
		e.GET("/public/drawdown", echo.WrapHandler(ph.Drawdown()))
	}

	// Start collector (price stream + collection loop)
	go func() {
		if err := a.collector.Start(ctx, a.pipe); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started",
		applogger.String("data_api", a.cfg.Polymarket.DataAPIURL),
		applogger.Duration("interval", a.cfg.Collector.Interval),
		applogger.Int("leaderboard_limit", a.cfg.Collector.LeaderboardLimit),
	)

	// Start outcomes consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l, err := applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	if err != nil {
		log.Printf("failed to create logger: %v", err)
		return err
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx, a.pipe); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close signal processor resources (publisher/store)
	if a.SignalProc != nil {
		a.SignalProc.Close()
	}

	l.Info("shutdown complete")
	return nil
}
