package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/firestore/apiv1/firestorepb"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pauljones0/brick-deals/internal/models"
)

const (
	firestoreCollection = "deals"
	countAlias          = "all"
)

// recordDoc is the persisted form of a record. Published is epoch seconds,
// 0 when unknown, so that ordering works without null handling.
type recordDoc struct {
	Kind        string    `firestore:"kind"`
	SetID       string    `firestore:"id"`
	UUID        string    `firestore:"uuid"`
	Title       string    `firestore:"title"`
	Link        string    `firestore:"link"`
	Image       string    `firestore:"image"`
	Price       string    `firestore:"price"`
	Discount    *int      `firestore:"discount"`
	Temperature *int      `firestore:"temperature"`
	Comments    *int      `firestore:"comments"`
	Published   int64     `firestore:"published"`
	LastUpdated time.Time `firestore:"lastUpdated"`
}

func toDoc(r models.Record, now time.Time) recordDoc {
	var published int64
	if r.HasKnownDate() {
		published = r.Published.Unix()
	}
	return recordDoc{
		Kind:        string(r.Kind),
		SetID:       r.ID,
		UUID:        r.UUID,
		Title:       r.Title,
		Link:        r.Link,
		Image:       r.Image,
		Price:       string(r.Price),
		Discount:    r.Discount,
		Temperature: r.Temperature,
		Comments:    r.Comments,
		Published:   published,
		LastUpdated: now,
	}
}

func (d recordDoc) toRecord() models.Record {
	return models.Record{
		Kind:        models.Kind(d.Kind),
		ID:          d.SetID,
		UUID:        d.UUID,
		Title:       d.Title,
		Link:        d.Link,
		Image:       d.Image,
		Price:       models.Price(d.Price),
		Discount:    d.Discount,
		Temperature: d.Temperature,
		Comments:    d.Comments,
		Published:   models.PublishedFromUnix(d.Published),
	}
}

type Client struct {
	client *firestore.Client
	now    func() time.Time
}

func New(ctx context.Context, projectID string) (*Client, error) {
	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("firestore.NewClient: %w", err)
	}
	return &Client{client: client, now: time.Now}, nil
}

func (c *Client) Close() error {
	return c.client.Close()
}

// GetRecord retrieves a record by its UUID. A missing document yields nil, nil.
func (c *Client) GetRecord(ctx context.Context, uuid string) (*models.Record, error) {
	doc, err := c.client.Collection(firestoreCollection).Doc(uuid).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get record %s: %w", uuid, err)
	}
	if !doc.Exists() {
		return nil, nil
	}

	var d recordDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record data: %w", err)
	}
	r := d.toRecord()
	return &r, nil
}

// TryCreateRecord creates a new record keyed by UUID. It returns
// models.ErrDealExists if the document is already present.
func (c *Client) TryCreateRecord(ctx context.Context, r models.Record) error {
	_, err := c.client.Collection(firestoreCollection).Doc(r.UUID).Create(ctx, toDoc(r, c.now()))
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return fmt.Errorf("%s: %w", r.UUID, models.ErrDealExists)
		}
		return err
	}
	return nil
}

// UpdateRecord refreshes the fields a source may change between scrapes.
func (c *Client) UpdateRecord(ctx context.Context, r models.Record) error {
	d := toDoc(r, c.now())
	_, err := c.client.Collection(firestoreCollection).Doc(r.UUID).Update(ctx, []firestore.Update{
		{Path: "title", Value: d.Title},
		{Path: "link", Value: d.Link},
		{Path: "image", Value: d.Image},
		{Path: "price", Value: d.Price},
		{Path: "discount", Value: d.Discount},
		{Path: "temperature", Value: d.Temperature},
		{Path: "comments", Value: d.Comments},
		{Path: "lastUpdated", Value: d.LastUpdated},
	})
	return err
}

// ListRecords returns one page of records of the requested kind, newest first,
// along with pagination computed from the total match count.
func (c *Client) ListRecords(ctx context.Context, req models.BatchRequest) ([]models.Record, models.Pagination, error) {
	query := c.client.Collection(firestoreCollection).Where("kind", "==", string(req.Kind))
	if req.Kind == models.KindSale {
		query = query.Where("id", "==", req.SetID)
	}

	countResult, err := query.NewAggregationQuery().WithCount(countAlias).Get(ctx)
	if err != nil {
		return nil, models.Pagination{}, fmt.Errorf("failed to count %s records: %w", req.Kind, err)
	}
	total, err := countFromAggregation(countResult)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	pagination := models.NewPagination(req.Page, req.Size, total)
	size := max(req.Size, 1)

	iter := query.
		OrderBy("published", firestore.Desc).
		Offset((pagination.CurrentPage - 1) * size).
		Limit(size).
		Documents(ctx)
	defer iter.Stop()

	records := make([]models.Record, 0, size)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, models.Pagination{}, fmt.Errorf("failed to iterate %s records: %w", req.Kind, err)
		}
		var d recordDoc
		if err := doc.DataTo(&d); err != nil {
			slog.Warn("Skipping unreadable record", "id", doc.Ref.ID, "error", err)
			continue
		}
		records = append(records, d.toRecord())
	}
	return records, pagination, nil
}

// TrimOldDeals deletes the oldest deals (by published time) so that at most
// maxDeals remain. Sales are left alone.
func (c *Client) TrimOldDeals(ctx context.Context, maxDeals int) error {
	query := c.client.Collection(firestoreCollection).Where("kind", "==", string(models.KindDeal))

	countResult, err := query.NewAggregationQuery().WithCount(countAlias).Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to get deal count for trimming: %w", err)
	}
	current, err := countFromAggregation(countResult)
	if err != nil {
		return err
	}
	if current <= maxDeals {
		return nil
	}

	numToDelete := current - maxDeals
	slog.Info("Trimming old deals", "current", current, "max", maxDeals, "deleting", numToDelete)

	iter := query.OrderBy("published", firestore.Asc).Limit(numToDelete).Documents(ctx)
	defer iter.Stop()

	bulkWriter := c.client.BulkWriter(ctx)
	defer bulkWriter.End()

	deleted := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to iterate deals for trimming: %w", err)
		}
		if _, err := bulkWriter.Delete(doc.Ref); err != nil {
			slog.Warn("Failed to queue delete", "id", doc.Ref.ID, "error", err)
			continue
		}
		deleted++
	}

	if deleted > 0 {
		bulkWriter.Flush()
		slog.Info("Flushed delete operations", "count", deleted)
	}
	return nil
}

// countFromAggregation extracts the count stored under countAlias. The SDK has
// returned both int64 and *firestorepb.Value across versions.
func countFromAggregation(result firestore.AggregationResult) (int, error) {
	value, ok := result[countAlias]
	if !ok {
		return 0, fmt.Errorf("count aggregation result was invalid: %q key missing", countAlias)
	}
	switch v := value.(type) {
	case int64:
		return int(v), nil
	case *firestorepb.Value:
		return int(v.GetIntegerValue()), nil
	default:
		return 0, fmt.Errorf("count aggregation result has unexpected type %T", value)
	}
}
