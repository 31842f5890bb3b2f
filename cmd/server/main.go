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

	"github.com/pauljones0/brick-deals/internal/acquisition"
	"github.com/pauljones0/brick-deals/internal/config"
	"github.com/pauljones0/brick-deals/internal/logger"
	"github.com/pauljones0/brick-deals/internal/render"
	"github.com/pauljones0/brick-deals/internal/storage"
	"github.com/pauljones0/brick-deals/internal/validator"
	"github.com/pauljones0/brick-deals/internal/viewstate"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		os.Exit(1)
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	log.Info("Starting Lego deals view server...", "source", cfg.AcquisitionSource)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	var fetcher viewstate.Fetcher
	switch cfg.AcquisitionSource {
	case config.SourceFirestore:
		store, err := storage.New(ctx, cfg.ProjectID)
		if err != nil {
			log.Error("Critical error initializing Firestore client", "error", err)
			os.Exit(1)
		}
		defer store.Close()
		fetcher = acquisition.NewStoreSource(store)
	default:
		fetcher = acquisition.New(cfg)
	}

	snapshot := render.NewSnapshot()
	controller := viewstate.New(fetcher, snapshot, viewstate.Options{
		PageSize:    cfg.DefaultPageSize,
		MaxPageSize: cfg.MaxPageSize,
		Logger:      log,
		Validator:   validator.New(),
	})
	go func() {
		if err := controller.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("View controller stopped", "error", err)
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      NewServer(controller, snapshot).Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("Received signal, shutting down gracefully...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Error("HTTP server shutdown error", "error", err)
		}
	}()

	log.Info("Listening on port", "port", cfg.Port)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("Failed to listen and serve", "error", err)
		os.Exit(1)
	}
	log.Info("Server stopped.")
}
