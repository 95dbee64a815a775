package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"TradeGate/internal/domain/repository"
	"TradeGate/internal/usecase"
	"TradeGate/pkg/cache"
	pkgch "TradeGate/pkg/clickhouse"
	"TradeGate/pkg/config"
	xhttp "TradeGate/pkg/http"
	pkgkafka "TradeGate/pkg/kafka"
	applogger "TradeGate/pkg/logger"
	"TradeGate/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg       *config.Config
	log       *applogger.Logger
	collector *usecase.TickCollector
	consumer  *pkgkafka.Consumer
	proposals pkgkafka.MessageHandler
	plans     *queue.RedisQueue
	halt      *usecase.HaltService
	publisher repository.EventPublisher
	chClient  *pkgch.Client
	cache     *cache.RedisCache

	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	collector *usecase.TickCollector,
	consumer *pkgkafka.Consumer,
	proposals pkgkafka.MessageHandler,
	plans *queue.RedisQueue,
	halt *usecase.HaltService,
	publisher repository.EventPublisher,
	chClient *pkgch.Client,
	c *cache.RedisCache,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		collector: collector,
		consumer:  consumer,
		proposals: proposals,
		plans:     plans,
		halt:      halt,
		publisher: publisher,
		chClient:  chClient,
		cache:     c,
	}
}

// SetHTTPHandler allows DI to inject the HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Plan queue workers must be up before any proposal is admitted.
	if a.plans != nil {
		if err := a.plans.Start(); err != nil {
			a.log.Error("plan queue start error", applogger.Error(err))
			return err
		}
		a.log.Info("plan queue started", applogger.Int("workers", a.cfg.Queue.Workers))
	}

	// Establish the halt state before taking traffic, then keep it fresh.
	if a.halt != nil {
		if _, err := a.halt.Evaluate(ctx, time.Now()); err != nil {
			a.log.Warn("initial halt evaluation error", applogger.Error(err))
		}
		go a.haltLoop(ctx)
	}

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.log.Error("tick collector error", applogger.Error(err))
			}
		}()
		a.log.Info("tick collector started", applogger.Strings("assets", a.cfg.PriceFeed.Assets))
	}

	if a.consumer != nil && a.proposals != nil {
		a.consumer.RegisterHandler(a.proposals)
		go func() {
			if err := a.consumer.Start(); err != nil {
				a.log.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		a.log.Info("kafka consumer started", applogger.String("topic", a.proposals.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// haltLoop periodically re-evaluates the halt state so a degraded snapshot
// trips the halt even when no proposals are flowing.
func (a *App) haltLoop(ctx context.Context) {
	ticker := time.NewTicker(a.cfg.Gate.EvaluationTTL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := a.halt.Evaluate(ctx, time.Now()); err != nil {
				a.log.Warn("halt evaluation error", applogger.Error(err))
			}
		}
	}
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			a.log.Warn("tick collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	if a.plans != nil {
		if err := a.plans.Stop(shutdownCtx); err != nil {
			a.log.Warn("plan queue stop error", applogger.Error(err))
		}
	}

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("publisher close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("redis close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
