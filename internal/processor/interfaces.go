package processor

import (
	"context"

	"github.com/pauljones0/brick-deals/internal/models"
)

// DealStore abstracts the storage layer for scraped deals.
type DealStore interface {
	GetRecord(ctx context.Context, uuid string) (*models.Record, error)
	TryCreateRecord(ctx context.Context, r models.Record) error
	UpdateRecord(ctx context.Context, r models.Record) error
	TrimOldDeals(ctx context.Context, maxDeals int) error
}

// DealExporter writes the deals of a run somewhere outside the store.
type DealExporter interface {
	Export(deals []models.Record) error
}
