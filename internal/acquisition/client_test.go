package acquisition

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/pauljones0/brick-deals/internal/config"
	"github.com/pauljones0/brick-deals/internal/models"
)

func newTestClient(baseURL string, maxRetries int) *Client {
	c := New(&config.Config{
		LegoAPIURL:    baseURL + "/",
		APITimeout:    5 * time.Second,
		APIMaxRetries: maxRetries,
	})
	c.rateLimiter = rate.NewLimiter(rate.Inf, 1)
	return c
}

func TestClient_FetchDeals(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/deals" {
			t.Errorf("Expected /deals, got %s", r.URL.Path)
		}
		if r.URL.Query().Get("page") != "2" || r.URL.Query().Get("size") != "6" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"success":true,"data":{"result":[{"uuid":"a","price":"10"}],"meta":{"currentPage":2,"pageCount":3,"count":13}}}`)
	}))
	defer server.Close()

	batch, err := newTestClient(server.URL, 0).Fetch(context.Background(), models.BatchRequest{Kind: models.KindDeal, Page: 2, Size: 6})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(string(batch.Result), `"uuid":"a"`) {
		t.Errorf("result = %s", batch.Result)
	}
	if !strings.Contains(string(batch.Meta), `"pageCount":3`) {
		t.Errorf("meta = %s", batch.Meta)
	}
}

func TestClient_FetchSalesUsesSetID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sales" || r.URL.Query().Get("id") != "42151" {
			t.Errorf("unexpected request %s?%s", r.URL.Path, r.URL.RawQuery)
		}
		fmt.Fprint(w, `{"success":true,"data":{"result":[],"meta":{}}}`)
	}))
	defer server.Close()

	_, err := newTestClient(server.URL, 0).Fetch(context.Background(), models.BatchRequest{Kind: models.KindSale, SetID: "42151", Page: 1, Size: 6})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
}

func TestClient_MissingDataIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true}`)
	}))
	defer server.Close()

	batch, err := newTestClient(server.URL, 0).Fetch(context.Background(), models.BatchRequest{Kind: models.KindDeal, Page: 1, Size: 6})
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if batch.Result != nil || batch.Meta != nil {
		t.Errorf("Expected empty batch for the store to reject, got %+v", batch)
	}
}

func TestClient_Failures(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantHit int32
	}{
		{"Success False", http.StatusOK, `{"success":false}`, 1},
		{"Invalid JSON", http.StatusOK, `<html>`, 1},
		{"Not Found Not Retried", http.StatusNotFound, ``, 1},
		{"Server Error Retried", http.StatusBadGateway, ``, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer server.Close()

			_, err := newTestClient(server.URL, 1).Fetch(context.Background(), models.BatchRequest{Kind: models.KindDeal, Page: 1, Size: 6})
			if err == nil {
				t.Fatal("Expected an error")
			}
			if got := hits.Load(); got != tt.wantHit {
				t.Errorf("Expected %d requests, got %d", tt.wantHit, got)
			}
		})
	}
}

func TestClient_RejectsBadRequests(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0", 0)
	for _, req := range []models.BatchRequest{
		{Kind: models.KindSale, Page: 1, Size: 6},
		{Kind: "auction", Page: 1, Size: 6},
	} {
		if _, err := c.Fetch(context.Background(), req); err == nil {
			t.Errorf("Fetch(%+v) should fail", req)
		}
	}
}

type fakeLister struct {
	records    []models.Record
	pagination models.Pagination
	err        error
	got        models.BatchRequest
}

func (f *fakeLister) ListRecords(_ context.Context, req models.BatchRequest) ([]models.Record, models.Pagination, error) {
	f.got = req
	return f.records, f.pagination, f.err
}

func TestStoreSource_Fetch(t *testing.T) {
	lister := &fakeLister{
		records:    []models.Record{{Kind: models.KindDeal, ID: "42151", UUID: "a", Price: "39.99", Published: models.PublishedFromUnix(1737217150)}},
		pagination: models.Pagination{CurrentPage: 1, PageCount: 2, Count: 7},
	}
	req := models.BatchRequest{Kind: models.KindDeal, Page: 1, Size: 6}

	batch, err := NewStoreSource(lister).Fetch(context.Background(), req)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if lister.got != req {
		t.Errorf("lister got %+v, want %+v", lister.got, req)
	}

	records, err := models.DecodeRecords(models.KindDeal, batch.Result)
	if err != nil {
		t.Fatalf("result does not decode: %v", err)
	}
	if len(records) != 1 || !records[0].Published.Equal(lister.records[0].Published) {
		t.Errorf("records = %+v", records)
	}
	if string(batch.Meta) != `{"currentPage":1,"pageCount":2,"count":7}` {
		t.Errorf("meta = %s", batch.Meta)
	}
}

func TestStoreSource_ListError(t *testing.T) {
	lister := &fakeLister{err: fmt.Errorf("unavailable")}
	if _, err := NewStoreSource(lister).Fetch(context.Background(), models.BatchRequest{Kind: models.KindDeal}); err == nil {
		t.Fatal("Expected error from lister to propagate")
	}
}
