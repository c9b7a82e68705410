package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	domrepo "Stockyard/internal/domain/repository"
	"Stockyard/internal/usecase"
	pkgch "Stockyard/pkg/clickhouse"
	"Stockyard/pkg/config"
	xhttp "Stockyard/pkg/http"
	pkgkafka "Stockyard/pkg/kafka"
	applogger "Stockyard/pkg/logger"
	"Stockyard/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	collector   *usecase.RecordCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	advisor     *usecase.Advisor
	queue       *queue.RedisQueue
	modelStore  domrepo.ModelStore
	RecordProc  *usecase.RecordProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	collector *usecase.RecordCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		l:         l,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// SetAdvisor injects the advisor for startup model loading.
func (a *App) SetAdvisor(adv *usecase.Advisor) { a.advisor = adv }

// SetQueue injects the training job queue.
func (a *App) SetQueue(q *queue.RedisQueue) { a.queue = q }

// SetModelStore injects the model registry for shutdown cleanup.
func (a *App) SetModelStore(s domrepo.ModelStore) { a.modelStore = s }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.l
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	// Restore the most recent trained model, if any. Missing registry is fine
	// on a fresh deployment.
	if a.advisor != nil {
		if err := a.advisor.LoadLatest(ctx); err != nil {
			l.Warn("no persisted model restored", applogger.Error(err))
		} else if m := a.advisor.Model(); m != nil {
			l.Info("restored trained model",
				applogger.String("model_id", m.ID),
				applogger.Int("features", len(m.Schema)),
			)
		}
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector
	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("collector started", applogger.Strings("markets", a.cfg.Feed.Markets))
	}

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start training job queue workers
	if a.queue != nil {
		if err := a.queue.Start(); err != nil {
			l.Error("training queue start error", applogger.Error(err))
		} else {
			l.Info("training queue started",
				applogger.Int("workers", a.cfg.Advisor.Queue.Workers))
		}
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx, l)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context, l *applogger.Logger) error {
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Drain queue workers before closing infrastructure they depend on
	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			l.Warn("training queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close record processor resources (publisher/storage)
	if a.RecordProc != nil {
		a.RecordProc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.modelStore != nil {
		if err := a.modelStore.Close(); err != nil {
			l.Warn("model store close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
