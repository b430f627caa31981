package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Paul-frank/todo-tracker-api/internal/handlers"
	"github.com/Paul-frank/todo-tracker-api/internal/metrics"
	"github.com/Paul-frank/todo-tracker-api/internal/todo"
	"github.com/Paul-frank/todo-tracker-api/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

func runServe(ctx context.Context, configPath string, logOutput io.Writer) error {
	cfg, logger, err := setup(configPath, logOutput)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Observability.Tracing {
		shutdownTracing, err := tracing.Setup(os.Stdout, "todo-api")
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Error("flush traces", "err", err)
			}
		}()
	}

	store, err := openStore(ctx, cfg.Database) // Datenbank öffnen und Tabelle anlegen
	if err != nil {
		return err
	}
	defer store.Close() // Beenden der Datenbankinstanz

	opts := []handlers.Option{handlers.WithHealthCheck(store.Ping)}
	if cfg.Observability.Metrics {
		opts = append(opts, handlers.WithMetrics(metrics.New()))
	}
	h := handlers.New(
		todo.NewService(store),
		logger,
		handlers.Auth{Secret: []byte(cfg.Auth.JWTSecret), Issuer: cfg.Auth.Issuer},
		opts...,
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server startet", "addr", cfg.Server.Addr, "driver", cfg.Database.Driver)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Server wird beendet")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
