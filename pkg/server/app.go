package server

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"BioWatch/internal/usecase"
	pkgch "BioWatch/pkg/clickhouse"
	"BioWatch/pkg/config"
	xhttp "BioWatch/pkg/http"
	pkgkafka "BioWatch/pkg/kafka"
	applogger "BioWatch/pkg/logger"
)

// App encapsulates one process lifecycle. The detector runs consumer plus
// HTTP API; the collector runs the gateway-to-Kafka bridge. Unset components
// are simply skipped.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	collector   *usecase.BaselineCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	closers     []io.Closer
}

// New creates a new App instance.
func New(cfg *config.Config, log *applogger.Logger) *App {
	return &App{cfg: cfg, log: log}
}

// SetCollector attaches the gateway collector.
func (a *App) SetCollector(c *usecase.BaselineCollector) { a.collector = c }

// SetConsumer attaches the Kafka consumer and its handler.
func (a *App) SetConsumer(c *pkgkafka.Consumer, kh pkgkafka.MessageHandler) {
	a.consumer = c
	a.kh = kh
}

// SetClickHouse attaches the ClickHouse client for shutdown.
func (a *App) SetClickHouse(ch *pkgch.Client) { a.chClient = ch }

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// AddCloser registers a resource closed during shutdown, after the consumers.
func (a *App) AddCloser(c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, c)
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.log
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	if a.httpHandler != nil {
		a.httpServer = xhttp.NewServer(a.httpHandler,
			xhttp.WithPort(a.cfg.Server.Port),
			xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		)
	}

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				l.Error("collector error", applogger.Error(err))
			}
		}()
		l.Info("collector started", applogger.String("stream", a.cfg.Detector.Stream))
	}

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	if a.httpServer != nil {
		if err := a.httpServer.Start(); err != nil {
			l.Error("http server start error", applogger.Error(err))
			return err
		}
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx, l)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context, l *applogger.Logger) error {
	if a.collector != nil {
		if err := a.collector.Shutdown(ctx); err != nil {
			l.Warn("collector stop error", applogger.Error(err))
		}
	}

	if a.httpServer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			l.Warn("resource close error", applogger.Error(err))
		}
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
