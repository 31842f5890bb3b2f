package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/pauljones0/brick-deals/internal/config"
	"github.com/pauljones0/brick-deals/internal/models"
	"github.com/pauljones0/brick-deals/internal/util"
)

const maxRetries = 3

// setIDRegex matches a Lego set number in a deal title, e.g. "LEGO 42151 Bugatti".
var setIDRegex = regexp.MustCompile(`\b(\d{4,6})\b`)

type Scraper interface {
	ScrapeDeals(ctx context.Context) ([]models.Record, error)
}

type Client struct {
	fetcher     DocumentFetcher
	selectors   SelectorConfig
	listURL     string
	pages       int
	concurrency int
}

// New builds a scraper for cfg.DealabsURL. Pages are rendered in headless
// Chrome when cfg.ScrapeBrowser is set.
func New(cfg *config.Config) (*Client, error) {
	selectors := LoadConfig()

	var fetcher DocumentFetcher
	if cfg.ScrapeBrowser {
		fetcher = newBrowserFetcher(cfg.AllowedDomains, selectors.DealList.Container.Item)
	} else {
		hf, err := newHTTPFetcher(cfg.AllowedDomains)
		if err != nil {
			return nil, err
		}
		fetcher = hf
	}
	return NewWithFetcher(fetcher, selectors, cfg.DealabsURL, cfg.ScrapePages, cfg.ScrapeConcurrency), nil
}

func NewWithFetcher(fetcher DocumentFetcher, selectors SelectorConfig, listURL string, pages, concurrency int) *Client {
	return &Client{
		fetcher:     fetcher,
		selectors:   selectors,
		listURL:     listURL,
		pages:       max(pages, 1),
		concurrency: max(concurrency, 1),
	}
}

// ScrapeDeals scrapes every configured listing page and returns the deals in
// page order, without duplicates. Any page failing after retries fails the run.
func (c *Client) ScrapeDeals(ctx context.Context) ([]models.Record, error) {
	slog.Info("Scraping Dealabs listing", "url", c.listURL, "pages", c.pages)

	perPage := make([][]models.Record, c.pages)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)

	for i := range c.pages {
		u, err := pageURL(c.listURL, i+1)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			deals, err := c.scrapePage(gctx, u)
			if err != nil {
				return err
			}
			perPage[i] = deals
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to scrape deals: %w", err)
	}

	seen := make(map[string]bool)
	var deals []models.Record
	for _, page := range perPage {
		for _, d := range page {
			if seen[d.UUID] {
				continue
			}
			seen[d.UUID] = true
			deals = append(deals, d)
		}
	}
	slog.Info("Scraped deals", "count", len(deals))
	return deals, nil
}

func (c *Client) scrapePage(ctx context.Context, pageURL string) ([]models.Record, error) {
	var deals []models.Record
	err := util.RetryWithBackoff(ctx, maxRetries, func(attempt int) error {
		doc, err := c.fetcher.FetchDocument(ctx, pageURL)
		if err != nil {
			slog.Warn("Scraping attempt failed", "url", pageURL, "attempt", attempt+1, "error", err)
			return err
		}
		parsed, err := ParseDeals(doc, c.selectors, pageURL)
		if err != nil {
			slog.Warn("Scraping attempt failed", "url", pageURL, "attempt", attempt+1, "error", err)
			return err
		}
		deals = parsed
		return nil
	})
	if err != nil {
		slog.Error("Critical error scraping listing page", "url", pageURL, "error", err)
		return nil, err
	}
	return deals, nil
}

func pageURL(listURL string, page int) (string, error) {
	u, err := url.Parse(listURL)
	if err != nil {
		return "", fmt.Errorf("invalid listing URL %s: %w", listURL, err)
	}
	if page > 1 {
		q := u.Query()
		q.Set("page", strconv.Itoa(page))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// ParseDeals extracts deals from a Dealabs listing document. Items without a
// title or link are skipped. An empty listing is an error because it usually
// means the page was blocked or its structure changed.
func ParseDeals(doc *goquery.Document, selectors SelectorConfig, pageURL string) ([]models.Record, error) {
	list := selectors.DealList
	items := doc.Find(list.Container.Item)
	if items.Length() == 0 {
		return nil, fmt.Errorf("no '%s' elements found on %s. Potential block or page structure change", list.Container.Item, pageURL)
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL %s: %w", pageURL, err)
	}

	var deals []models.Record
	items.Each(func(_ int, s *goquery.Selection) {
		if list.Container.IgnoreModifier != "" && s.Is(list.Container.IgnoreModifier) {
			return
		}
		deal, ok := parseDeal(s, list.Elements, base)
		if ok {
			deals = append(deals, deal)
		}
	})
	return deals, nil
}

func parseDeal(s *goquery.Selection, el ListElements, base *url.URL) (models.Record, bool) {
	var parseErrors []string

	titleLink := s.Find(el.TitleLink).First()
	title := strings.TrimSpace(titleLink.Text())
	href, _ := titleLink.Attr("href")
	link := resolve(base, href)
	if title == "" || link == "" {
		return models.Record{}, false
	}
	if normalized, err := util.NormalizeURL(link); err == nil {
		link = normalized
	}

	deal := models.Record{
		Kind:  models.KindDeal,
		UUID:  uuid.NewSHA1(uuid.NameSpaceURL, []byte(link)).String(),
		Title: title,
		Link:  link,
	}
	if m := setIDRegex.FindStringSubmatch(title); m != nil {
		deal.ID = m[1]
	}

	if priceText := strings.TrimSpace(s.Find(el.Price).First().Text()); priceText != "" {
		deal.Price = models.Price(util.ParsePrice(priceText))
		if deal.Price == "" {
			parseErrors = append(parseErrors, fmt.Sprintf("unreadable price %q", priceText))
		}
	}

	// Badges read "-30%"; anything without a number means no discount.
	if n := util.ParseSignedNumericString(s.Find(el.Discount).First().Text()); n != "" {
		if v := util.SafeAtoi(n); v != 0 {
			d := min(abs(v), 100)
			deal.Discount = &d
		}
	}

	if n := util.ParseSignedNumericString(s.Find(el.Temperature).First().Text()); n != "" {
		t := util.SafeAtoi(n)
		deal.Temperature = &t
	}

	if el.CommentCount != "" {
		if n := util.CleanNumericString(s.Find(el.CommentCount).First().Text()); n != "" {
			c := util.SafeAtoi(n)
			deal.Comments = &c
		}
	}

	if src, ok := s.Find(el.Image).First().Attr("src"); ok {
		deal.Image = resolve(base, src)
	}

	if el.PublishedTime != "" {
		deal.Published = parsePublished(s.Find(el.PublishedTime).First())
		if !deal.HasKnownDate() {
			parseErrors = append(parseErrors, "published time not found")
		}
	}

	if len(parseErrors) > 0 {
		slog.Debug("Parsing issues for deal", "title", deal.Title, "url", deal.Link, "issues", strings.Join(parseErrors, "; "))
	}
	return deal, true
}

// parsePublished reads a <time> element's datetime attribute, falling back to
// an epoch value in data-t.
func parsePublished(sel *goquery.Selection) time.Time {
	if sel.Length() == 0 {
		return time.Time{}
	}
	if dt, ok := sel.Attr("datetime"); ok {
		if t, err := time.Parse(time.RFC3339, strings.TrimSpace(dt)); err == nil {
			return t.UTC()
		}
		if t := models.ParsePublished(dt); !t.IsZero() {
			return t
		}
	}
	if epoch, ok := sel.Attr("data-t"); ok {
		return models.ParsePublished(epoch)
	}
	return time.Time{}
}

func resolve(base *url.URL, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(u)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	return resolved.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
