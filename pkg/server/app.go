package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"NeuroBand/pkg/config"
	xhttp "NeuroBand/pkg/http"
	applogger "NeuroBand/pkg/logger"
)

// App encapsulates the application lifecycle: serve HTTP until interrupted, then drain.
// Infrastructure is released by the cleanup returned from dependency wiring.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, srv *xhttp.Server) *App {
	return &App{cfg: cfg, l: l, httpServer: srv}
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM or a listener failure.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	a.l.Info("neuroband starting",
		applogger.String("env", a.cfg.Environment),
		applogger.String("store", a.cfg.Store.Backend),
		applogger.String("cache", a.cfg.Cache.Backend),
		applogger.Bool("events", a.cfg.Events.Enabled),
		applogger.Float64("sample_rate", a.cfg.Analysis.SampleRate),
		applogger.Int64("upload_limit_bytes", a.cfg.Analysis.UploadLimitBytes),
	)

	errc := a.httpServer.Start()

	var runErr error
	select {
	case <-ctx.Done():
		a.l.Info("shutdown signal received")
	case err, ok := <-errc:
		if ok && err != nil {
			a.l.Error("http server error", applogger.Error(err))
			runErr = err
		}
	}

	if err := a.shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// shutdown stops accepting requests and waits for in-flight ones.
func (a *App) shutdown() error {
	a.l.Info("shutting down...")
	if err := a.httpServer.Stop(context.Background()); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.l.Info("shutdown complete")
	return nil
}
