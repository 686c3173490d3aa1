// Command api serves the import pipeline and reports over HTTP.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FACorreiaa/coverage-reports/pkg/config"
	"github.com/FACorreiaa/coverage-reports/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := run(); err != nil {
		slog.Error("api exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Logging)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := InitDependencies(ctx, cfg, log)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Handler:           NewRouter(deps),
		ReadHeaderTimeout: 10 * time.Second,
	}
	ln, err := net.Listen("tcp", cfg.Server.Addr())
	if err != nil {
		return err
	}
	log.Info("http server listening", slog.String("addr", ln.Addr().String()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		err := srv.Shutdown(shutdownCtx)
		deps.Cleanup(shutdownCtx)
		return err
	})

	// The listener is up, so presets served under /data resolve.
	if err := deps.SelectDefaultSource(ctx); err != nil {
		log.Warn("default source not loaded", slog.Any("error", err))
	}
	if err := deps.Scheduler.Start(); err != nil {
		stop()
		_ = g.Wait()
		return err
	}

	return g.Wait()
}
