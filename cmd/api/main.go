// Package main is the entry point for the reminder API server.
// Its sole responsibility is wiring dependencies together and starting the server.
// No business logic belongs here.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pkordes/georeminder/internal/app"
	"github.com/pkordes/georeminder/internal/config"
	"github.com/pkordes/georeminder/internal/handler"
	"github.com/pkordes/georeminder/internal/middleware"
	"github.com/pkordes/georeminder/openapi"
)

func main() {
	// --- Config -----------------------------------------------------------
	cfg, err := config.Load()
	if err != nil {
		// Use plain stderr before the logger is configured.
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}

	// --- Logger -----------------------------------------------------------
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// --- Pipeline ---------------------------------------------------------
	// Store, worker pool, geofence manager, event processor and services.
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	a, err := app.New(startCtx, cfg, logger, app.Options{
		Migrate:    true,
		Registerer: prometheus.DefaultRegisterer,
	})
	cancelStart()
	if err != nil {
		slog.Error("failed to start reminder pipeline", "error", err)
		os.Exit(1)
	}
	defer a.Close()
	slog.Info("store ready", "driver", cfg.StoreDriver)

	// --- Router -----------------------------------------------------------
	// Middleware order: RequestID, RealIP, SlogLogger, Recoverer, CORS, MaxBodySize.
	// Recoverer sits inside the logger so a panicking request is still logged as 500.
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewSlogLogger(logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.NewCORSHandler(cfg.CORSOrigins))
	r.Use(middleware.NewMaxBodySizeHandler(cfg.MaxBodyBytes))

	var protect func(http.Handler) http.Handler
	if cfg.AuthJWTSecret != "" {
		protect = middleware.NewJWTAuth([]byte(cfg.AuthJWTSecret), logger)
	} else {
		slog.Warn("AUTH_JWT_SECRET not set; API is unauthenticated")
	}

	srvHandler := handler.NewServer(handler.Config{
		Reminders: a.Reminders,
		Export:    a.Export,
		Events:    a.Processor,
		Device:    a.Device,
		OpenAPI:   openapi.Document,
		Metrics:   promhttp.Handler(),
		Logger:    logger,
	})
	r.Mount("/", srvHandler.Routes(protect))

	// --- HTTP Server ------------------------------------------------------
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown: wait for OS signal, then give in-flight requests
	// up to 15 seconds to complete. The deferred a.Close then stops the
	// event processor before the store goes away.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serveErr:
		slog.Error("server error", "error", err)
		a.Close()
		os.Exit(1)
	}
	slog.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
		a.Close()
		os.Exit(1)
	}
	slog.Info("server stopped")
}
