package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pauljones0/brick-deals/internal/config"
	"github.com/pauljones0/brick-deals/internal/models"
	"github.com/pauljones0/brick-deals/internal/scraper"
	"github.com/pauljones0/brick-deals/internal/validator"
)

type Processor interface {
	ProcessDeals(ctx context.Context) error
}

type DealProcessor struct {
	store     DealStore
	exporter  DealExporter
	scraper   scraper.Scraper
	validator *validator.Validator
	maxDeals  int
}

func New(store DealStore, exporter DealExporter, s scraper.Scraper, v *validator.Validator, cfg *config.Config) *DealProcessor {
	return &DealProcessor{
		store:     store,
		exporter:  exporter,
		scraper:   s,
		validator: v,
		maxDeals:  cfg.MaxStoredDeals,
	}
}

// ProcessDeals runs one ingest pass: scrape, persist new and changed deals,
// trim the collection, then export what was scraped. Per-deal store failures
// are collected and reported together; the export still runs.
func (p *DealProcessor) ProcessDeals(ctx context.Context) error {
	scraped, err := p.scraper.ScrapeDeals(ctx)
	if err != nil {
		return fmt.Errorf("failed to scrape deal list: %w", err)
	}
	slog.Info("Successfully scraped deal list", "count", len(scraped))

	valid := make([]models.Record, 0, len(scraped))
	for _, deal := range scraped {
		if err := p.validator.ValidateStruct(deal); err != nil {
			slog.Warn("Skipping invalid deal", "title", deal.Title, "url", deal.Link, "error", err)
			continue
		}
		valid = append(valid, deal)
	}

	var newCount, updatedCount int
	var errorMessages []string

	for _, deal := range valid {
		isNew, isUpdated, err := p.processSingleDeal(ctx, deal)
		if err != nil {
			errorMessages = append(errorMessages, err.Error())
			continue
		}
		if isNew {
			newCount++
		}
		if isUpdated {
			updatedCount++
		}
	}

	// Trim once per run instead of per deal.
	if newCount > 0 && p.maxDeals > 0 {
		if err := p.store.TrimOldDeals(ctx, p.maxDeals); err != nil {
			slog.Warn("Failed to trim old deals", "error", err)
		}
	}

	if err := p.exporter.Export(valid); err != nil {
		errorMessages = append(errorMessages, fmt.Sprintf("export: %v", err))
	}

	slog.Info("Finished processing", "new", newCount, "updated", updatedCount, "exported", len(valid))
	if len(errorMessages) > 0 {
		return fmt.Errorf("processed with errors: %s", strings.Join(errorMessages, "; "))
	}
	return nil
}

func (p *DealProcessor) processSingleDeal(ctx context.Context, deal models.Record) (isNew, isUpdated bool, err error) {
	existing, err := p.store.GetRecord(ctx, deal.UUID)
	if err != nil {
		return false, false, fmt.Errorf("failed to look up deal %s: %w", deal.UUID, err)
	}

	if existing == nil {
		createErr := p.store.TryCreateRecord(ctx, deal)
		if createErr == nil {
			slog.Info("New deal added", "title", deal.Title)
			return true, false, nil
		}

		// Race condition: another run created it first
		if !errors.Is(createErr, models.ErrDealExists) {
			return false, false, fmt.Errorf("failed to create deal %s: %w", deal.Title, createErr)
		}
		existing, err = p.store.GetRecord(ctx, deal.UUID)
		if err != nil {
			return false, false, fmt.Errorf("error recovering from race for deal %s: %w", deal.UUID, err)
		}
		if existing == nil {
			slog.Warn("Race condition anomaly: deal claimed to exist but returned nil", "uuid", deal.UUID)
			return false, false, nil
		}
	}

	if !dealChanged(existing, &deal) {
		return false, false, nil
	}

	if err := p.store.UpdateRecord(ctx, deal); err != nil {
		return false, false, fmt.Errorf("failed to update deal %s: %w", deal.UUID, err)
	}
	slog.Info("Updated deal", "title", deal.Title)
	return false, true, nil
}

func dealChanged(existing, scraped *models.Record) bool {
	return existing.Title != scraped.Title ||
		existing.Link != scraped.Link ||
		existing.Image != scraped.Image ||
		existing.Price != scraped.Price ||
		!equalInt(existing.Discount, scraped.Discount) ||
		!equalInt(existing.Temperature, scraped.Temperature) ||
		!equalInt(existing.Comments, scraped.Comments)
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
