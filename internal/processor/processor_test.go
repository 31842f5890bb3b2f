package processor

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pauljones0/brick-deals/internal/config"
	"github.com/pauljones0/brick-deals/internal/models"
	"github.com/pauljones0/brick-deals/internal/validator"
)

// --- Mock implementations ---

type mockStore struct {
	deals       map[string]*models.Record
	getErr      error
	createErr   error
	updateErr   error
	trimCalled  bool
	trimMax     int
	updateCount int
}

func newMockStore() *mockStore {
	return &mockStore{deals: make(map[string]*models.Record)}
}

func (m *mockStore) GetRecord(_ context.Context, uuid string) (*models.Record, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	deal, ok := m.deals[uuid]
	if !ok {
		return nil, nil
	}
	copy := *deal
	return &copy, nil
}

func (m *mockStore) TryCreateRecord(_ context.Context, r models.Record) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.deals[r.UUID]; exists {
		return models.ErrDealExists
	}
	copy := r
	m.deals[r.UUID] = &copy
	return nil
}

func (m *mockStore) UpdateRecord(_ context.Context, r models.Record) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updateCount++
	copy := r
	m.deals[r.UUID] = &copy
	return nil
}

func (m *mockStore) TrimOldDeals(_ context.Context, maxDeals int) error {
	m.trimCalled = true
	m.trimMax = maxDeals
	return nil
}

// raceStore reports the deal as missing on first lookup, then loses the create race.
type raceStore struct {
	*mockStore
	lookups int
}

func (r *raceStore) GetRecord(ctx context.Context, uuid string) (*models.Record, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, nil
	}
	return r.mockStore.GetRecord(ctx, uuid)
}

type mockExporter struct {
	exported []models.Record
	calls    int
	err      error
}

func (m *mockExporter) Export(deals []models.Record) error {
	m.calls++
	m.exported = deals
	return m.err
}

type mockScraper struct {
	deals []models.Record
	err   error
}

func (m *mockScraper) ScrapeDeals(_ context.Context) ([]models.Record, error) {
	return m.deals, m.err
}

func newTestProcessor(store DealStore, exporter DealExporter, scraper *mockScraper) *DealProcessor {
	cfg := &config.Config{MaxStoredDeals: 500}
	return New(store, exporter, scraper, validator.New(), cfg)
}

func intPtr(v int) *int { return &v }

func sampleDeal(uuid string) models.Record {
	return models.Record{
		Kind:        models.KindDeal,
		ID:          "42151",
		UUID:        uuid,
		Title:       "LEGO 42151 Bugatti",
		Link:        "https://www.dealabs.com/bons-plans/" + uuid,
		Price:       "39.99",
		Discount:    intPtr(30),
		Temperature: intPtr(120),
		Comments:    intPtr(4),
		Published:   models.PublishedFromUnix(1737217150),
	}
}

// --- Tests ---

func TestProcessDeals_NewDeal(t *testing.T) {
	store := newMockStore()
	exporter := &mockExporter{}
	p := newTestProcessor(store, exporter, &mockScraper{deals: []models.Record{sampleDeal("a")}})

	if err := p.ProcessDeals(context.Background()); err != nil {
		t.Fatalf("ProcessDeals() error = %v", err)
	}
	if _, ok := store.deals["a"]; !ok {
		t.Fatal("Expected deal to be stored")
	}
	if !store.trimCalled || store.trimMax != 500 {
		t.Errorf("Expected trim with 500, got called=%v max=%d", store.trimCalled, store.trimMax)
	}
	if len(exporter.exported) != 1 {
		t.Errorf("Expected 1 exported deal, got %d", len(exporter.exported))
	}
}

func TestProcessDeals_UnchangedDealNotUpdated(t *testing.T) {
	store := newMockStore()
	existing := sampleDeal("a")
	store.deals["a"] = &existing
	p := newTestProcessor(store, &mockExporter{}, &mockScraper{deals: []models.Record{sampleDeal("a")}})

	if err := p.ProcessDeals(context.Background()); err != nil {
		t.Fatalf("ProcessDeals() error = %v", err)
	}
	if store.updateCount != 0 {
		t.Errorf("Expected no updates, got %d", store.updateCount)
	}
	if store.trimCalled {
		t.Error("Trim should only run when new deals were added")
	}
}

func TestProcessDeals_ChangedDealUpdated(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *models.Record)
	}{
		{"Temperature", func(r *models.Record) { r.Temperature = intPtr(200) }},
		{"Comments", func(r *models.Record) { r.Comments = intPtr(9) }},
		{"Discount removed", func(r *models.Record) { r.Discount = nil }},
		{"Price", func(r *models.Record) { r.Price = "35.00" }},
		{"Title", func(r *models.Record) { r.Title = "LEGO 42151 Bugatti Bolide" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			existing := sampleDeal("a")
			store.deals["a"] = &existing

			scraped := sampleDeal("a")
			tt.mutate(&scraped)
			p := newTestProcessor(store, &mockExporter{}, &mockScraper{deals: []models.Record{scraped}})

			if err := p.ProcessDeals(context.Background()); err != nil {
				t.Fatalf("ProcessDeals() error = %v", err)
			}
			if store.updateCount != 1 {
				t.Errorf("Expected 1 update, got %d", store.updateCount)
			}
		})
	}
}

func TestProcessDeals_InvalidDealsSkipped(t *testing.T) {
	store := newMockStore()
	exporter := &mockExporter{}

	noUUID := sampleDeal("")
	badDiscount := sampleDeal("b")
	badDiscount.Discount = intPtr(150)
	p := newTestProcessor(store, exporter, &mockScraper{deals: []models.Record{noUUID, badDiscount, sampleDeal("c")}})

	if err := p.ProcessDeals(context.Background()); err != nil {
		t.Fatalf("ProcessDeals() error = %v", err)
	}
	if len(store.deals) != 1 {
		t.Errorf("Expected only the valid deal stored, got %d", len(store.deals))
	}
	if len(exporter.exported) != 1 || exporter.exported[0].UUID != "c" {
		t.Errorf("Expected only deal c exported, got %+v", exporter.exported)
	}
}

func TestProcessDeals_ScraperError(t *testing.T) {
	exporter := &mockExporter{}
	p := newTestProcessor(newMockStore(), exporter, &mockScraper{err: errors.New("blocked")})

	if err := p.ProcessDeals(context.Background()); err == nil {
		t.Fatal("Expected error from scraper")
	}
	if exporter.calls != 0 {
		t.Error("Nothing should be exported when scraping fails")
	}
}

func TestProcessDeals_StoreErrorsCollected(t *testing.T) {
	store := newMockStore()
	store.createErr = errors.New("unavailable")
	exporter := &mockExporter{}
	p := newTestProcessor(store, exporter, &mockScraper{deals: []models.Record{sampleDeal("a"), sampleDeal("b")}})

	err := p.ProcessDeals(context.Background())
	if err == nil {
		t.Fatal("Expected aggregated error")
	}
	if strings.Count(err.Error(), "unavailable") != 2 {
		t.Errorf("Expected both failures reported, got %v", err)
	}
	if exporter.calls != 1 {
		t.Error("Export should still run after store failures")
	}
}

func TestProcessDeals_CreateRace(t *testing.T) {
	inner := newMockStore()
	existing := sampleDeal("a")
	inner.deals["a"] = &existing
	store := &raceStore{mockStore: inner}

	scraped := sampleDeal("a")
	scraped.Temperature = intPtr(300)
	p := newTestProcessor(store, &mockExporter{}, &mockScraper{deals: []models.Record{scraped}})

	if err := p.ProcessDeals(context.Background()); err != nil {
		t.Fatalf("ProcessDeals() error = %v", err)
	}
	if inner.updateCount != 1 {
		t.Errorf("Expected the race loser to update, got %d updates", inner.updateCount)
	}
}

func TestProcessDeals_ExportError(t *testing.T) {
	p := newTestProcessor(newMockStore(), &mockExporter{err: errors.New("disk full")}, &mockScraper{deals: []models.Record{sampleDeal("a")}})
	if err := p.ProcessDeals(context.Background()); err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Expected export error, got %v", err)
	}
}

func TestFileExporter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lego_deals.json")
	deals := []models.Record{sampleDeal("a"), sampleDeal("b")}

	if err := NewFileExporter(path).Export(deals); err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "[\n  {") {
		t.Errorf("Expected indented JSON array, got %q", data[:min(len(data), 20)])
	}

	got, err := models.DecodeRecords(models.KindDeal, json.RawMessage(data))
	if err != nil {
		t.Fatalf("export does not decode: %v", err)
	}
	if len(got) != 2 || got[1].UUID != "b" || !got[0].Published.Equal(deals[0].Published) {
		t.Errorf("unexpected decoded export: %+v", got)
	}
}
