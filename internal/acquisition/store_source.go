package acquisition

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pauljones0/brick-deals/internal/models"
)

// RecordLister pages through persisted records.
type RecordLister interface {
	ListRecords(ctx context.Context, req models.BatchRequest) ([]models.Record, models.Pagination, error)
}

// StoreSource serves batches from the scraper's backing store in the same
// wire shape as the HTTP API.
type StoreSource struct {
	lister RecordLister
}

func NewStoreSource(l RecordLister) *StoreSource {
	return &StoreSource{lister: l}
}

func (s *StoreSource) Fetch(ctx context.Context, req models.BatchRequest) (models.RawBatch, error) {
	records, pagination, err := s.lister.ListRecords(ctx, req)
	if err != nil {
		return models.RawBatch{}, fmt.Errorf("list %s records: %w", req.Kind, err)
	}

	result, err := models.EncodeRecords(records)
	if err != nil {
		return models.RawBatch{}, err
	}
	meta, err := json.Marshal(pagination)
	if err != nil {
		return models.RawBatch{}, fmt.Errorf("encode meta: %w", err)
	}
	return models.RawBatch{Result: result, Meta: meta}, nil
}
