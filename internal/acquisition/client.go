package acquisition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"golang.org/x/time/rate"

	"github.com/pauljones0/brick-deals/internal/config"
	"github.com/pauljones0/brick-deals/internal/models"
	"github.com/pauljones0/brick-deals/internal/util"
)

const maxResponseBytes = 4 << 20

// Client fetches deal and sale pages from the Lego API:
//
//	GET {base}/deals?page=&size=
//	GET {base}/sales?id=&page=&size=
type Client struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
	maxRetries  int
}

func New(cfg *config.Config) *Client {
	limit := rate.Inf
	if cfg.APIRateLimit > 0 {
		limit = rate.Every(cfg.APIRateLimit)
	}
	return &Client{
		baseURL:     strings.TrimRight(cfg.LegoAPIURL, "/"),
		httpClient:  &http.Client{Timeout: cfg.APITimeout},
		rateLimiter: rate.NewLimiter(limit, 1),
		maxRetries:  cfg.APIMaxRetries,
	}
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Data    models.RawBatch `json:"data"`
}

// Fetch returns the raw result and meta of one page. Shape validation is left
// to the caller; only transport and envelope problems are errors here.
func (c *Client) Fetch(ctx context.Context, req models.BatchRequest) (models.RawBatch, error) {
	endpoint, err := c.endpoint(req)
	if err != nil {
		return models.RawBatch{}, err
	}

	var batch models.RawBatch
	err = util.RetryWithBackoff(ctx, c.maxRetries, func(attempt int) error {
		if err := c.rateLimiter.Wait(ctx); err != nil {
			return util.Permanent(err)
		}
		b, err := c.get(ctx, endpoint)
		if err != nil {
			if attempt < c.maxRetries {
				slog.Warn("Acquisition attempt failed", "url", endpoint, "attempt", attempt+1, "error", err)
			}
			return err
		}
		batch = b
		return nil
	})
	if err != nil {
		return models.RawBatch{}, fmt.Errorf("fetch %s: %w", endpoint, err)
	}
	return batch, nil
}

func (c *Client) endpoint(req models.BatchRequest) (string, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(req.Page))
	q.Set("size", strconv.Itoa(req.Size))

	var path string
	switch req.Kind {
	case models.KindDeal:
		path = "/deals"
	case models.KindSale:
		if req.SetID == "" {
			return "", errors.New("sales request without a set id")
		}
		path = "/sales"
		q.Set("id", req.SetID)
	default:
		return "", fmt.Errorf("unknown record kind %q", req.Kind)
	}
	return c.baseURL + path + "?" + q.Encode(), nil
}

func (c *Client) get(ctx context.Context, endpoint string) (models.RawBatch, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return models.RawBatch{}, util.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return models.RawBatch{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return models.RawBatch{}, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return models.RawBatch{}, fmt.Errorf("API response error: %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		return models.RawBatch{}, util.Permanent(fmt.Errorf("API response error: %s", resp.Status))
	}

	var env apiEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return models.RawBatch{}, util.Permanent(fmt.Errorf("failed to decode response: %w", err))
	}
	if !env.Success {
		return models.RawBatch{}, util.Permanent(errors.New("API returned success: false"))
	}
	return env.Data, nil
}
