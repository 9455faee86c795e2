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

	"credo-referral/internal/platform/config"
	"credo-referral/internal/platform/logger"
)

const shutdownPeriod = 10 * time.Second

// main loads configuration, builds the application and owns the server
// lifecycle. Wiring lives in app.go.
func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	log.Info("starting referral service", "config", cfg.String())

	ctx := context.Background()
	app, err := newApp(ctx, cfg, log)
	if err != nil {
		log.Error("build application", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	srvErrCh := make(chan error, 1)
	go func() {
		log.Info("listening", "addr", cfg.Addr, "issuer_did", app.trustRoot.DID())
		srvErrCh <- app.server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			app.Close()
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownPeriod)
	defer cancel()
	if err := app.server.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		app.Close()
		os.Exit(1)
	}

	log.Info("server exited cleanly")
}
