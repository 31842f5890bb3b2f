package viewstate

import (
	"context"

	"github.com/pauljones0/brick-deals/internal/models"
)

// Fetcher abstracts record acquisition. A non-nil error is treated as an
// acquisition failure and degrades the view to the empty state.
type Fetcher interface {
	Fetch(ctx context.Context, req models.BatchRequest) (models.RawBatch, error)
}

// Renderer receives every completed projection.
type Renderer interface {
	OnProjectionReady(p Projection)
}

// Membership answers favorite lookups for the pipeline.
type Membership interface {
	Has(uuid string) bool
}
