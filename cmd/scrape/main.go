// Command scrape runs one ingest pass: it scrapes the Dealabs Lego group,
// stores new and changed deals in Firestore, trims old ones, and exports the
// scraped deals as JSON.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pauljones0/brick-deals/internal/config"
	"github.com/pauljones0/brick-deals/internal/logger"
	"github.com/pauljones0/brick-deals/internal/processor"
	"github.com/pauljones0/brick-deals/internal/scraper"
	"github.com/pauljones0/brick-deals/internal/storage"
	"github.com/pauljones0/brick-deals/internal/validator"
)

const runTimeout = 4 * time.Minute

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Critical error loading configuration", "error", err)
		return 1
	}
	log := logger.New(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	if cfg.ProjectID == "" {
		log.Error("GOOGLE_CLOUD_PROJECT environment variable is required")
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	store, err := storage.New(ctx, cfg.ProjectID)
	if err != nil {
		log.Error("Critical error initializing Firestore client", "error", err)
		return 1
	}
	defer store.Close()

	s, err := scraper.New(cfg)
	if err != nil {
		log.Error("Critical error initializing scraper", "error", err)
		return 1
	}

	p := processor.New(store, processor.NewFileExporter(cfg.ExportPath), s, validator.New(), cfg)
	if err := p.ProcessDeals(ctx); err != nil {
		log.Error("Error processing deals", "error", err)
		return 1
	}
	log.Info("Deals exported", "path", cfg.ExportPath)
	return 0
}
