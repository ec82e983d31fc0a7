package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"FinScore/internal/domain/models"
	"FinScore/internal/usecase"
	"FinScore/pkg/config"
	xhttp "FinScore/pkg/http"
	applogger "FinScore/pkg/logger"
)

type namedCloser struct {
	name string
	c    io.Closer
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	l           *applogger.Logger
	run         *usecase.RunUseCase
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	closers     []namedCloser
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, run *usecase.RunUseCase, h xhttp.Handler) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, l: l, run: run, httpHandler: h}
}

// OnClose registers a resource released by Close, in registration order.
func (a *App) OnClose(name string, c io.Closer) {
	if c != nil {
		a.closers = append(a.closers, namedCloser{name: name, c: c})
	}
}

// Logger returns the application logger.
func (a *App) Logger() *applogger.Logger { return a.l }

// RunOnce performs one batch evaluation. A sink failure is returned with
// the run.
func (a *App) RunOnce(ctx context.Context) (*models.Run, error) {
	return a.run.Run(ctx)
}

// Serve runs one evaluation, starts the query API and blocks until
// interrupted. A failing initial run is logged; the API then answers
// 503 until a run succeeds.
func (a *App) Serve(runOnStart bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if runOnStart {
		if _, err := a.run.Run(ctx); err != nil {
			a.l.Warn("app.initial_run failed", applogger.Error(err))
		}
	}

	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(a.cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(a.l),
	)
	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) shutdown() error {
	a.l.Info("shutting down...")
	if a.httpServer != nil {
		if err := a.httpServer.Stop(context.Background()); err != nil {
			a.l.Error("http shutdown error", applogger.Error(err))
		}
	}
	err := a.Close()
	a.l.Info("shutdown complete")
	return err
}

// Close releases infrastructure clients. Every closer runs; the first
// error is returned.
func (a *App) Close() error {
	var first error
	for _, nc := range a.closers {
		if err := nc.c.Close(); err != nil {
			a.l.Warn(nc.name+" close error", applogger.Error(err))
			if first == nil {
				first = fmt.Errorf("close %s: %w", nc.name, err)
			}
		}
	}
	a.closers = nil
	return first
}
