package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hrportal/internal/platform/config"
	"hrportal/internal/platform/httpserver"
	"hrportal/internal/platform/logger"
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal service packages.
func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hr-portal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogFormat, cfg.LogLevel)

	app, err := build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close(log)

	relayDone := make(chan struct{})
	go func() {
		defer close(relayDone)
		_ = app.relay.Run(ctx)
	}()

	srv := httpserver.New(cfg.Addr, app.router)
	serveErr := make(chan error, 1)
	go func() {
		log.Info("starting hr-portal",
			"addr", cfg.Addr,
			"env", cfg.Environment,
			"blob_backend", cfg.Blob.Backend,
			"lock_backend", cfg.Lock.Backend,
			"notify_sink", cfg.Notify.Sink,
			"postgres", app.db != nil,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			stop()
			<-relayDone
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
	}
	<-relayDone

	// deliver what the last requests wrote before the sink closes
	if n, err := app.relay.Drain(shutdownCtx); err != nil {
		log.Warn("outbox drain incomplete", "delivered", n, "error", err)
	} else if n > 0 {
		log.Info("outbox drained", "delivered", n)
	}
	return nil
}
