package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
)

const browserWaitTimeout = 10 * time.Second

// browserFetcher renders pages in headless Chrome before parsing, for when the
// listing is filled in by JavaScript or static requests are blocked.
type browserFetcher struct {
	allowedDomains []string
	waitSelector   string
}

func newBrowserFetcher(allowedDomains []string, waitSelector string) *browserFetcher {
	return &browserFetcher{allowedDomains: allowedDomains, waitSelector: waitSelector}
}

func (f *browserFetcher) FetchDocument(ctx context.Context, urlStr string) (*goquery.Document, error) {
	if _, err := checkAllowed(urlStr, f.allowedDomains); err != nil {
		return nil, err
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(userAgent),
		chromedp.Flag("blink-settings", "imagesEnabled=false"),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	if err := chromedp.Run(tabCtx, chromedp.Navigate(urlStr)); err != nil {
		return nil, fmt.Errorf("failed to load %s in browser: %w", urlStr, err)
	}

	// A listing that never shows up is reported by the parser, not here.
	waitCtx, cancelWait := context.WithTimeout(tabCtx, browserWaitTimeout)
	err := chromedp.Run(waitCtx, chromedp.WaitReady(f.waitSelector, chromedp.ByQuery))
	cancelWait()
	if err != nil {
		if !errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("failed waiting for %q on %s: %w", f.waitSelector, urlStr, err)
		}
		slog.Warn("No deals rendered before timeout", "url", urlStr, "selector", f.waitSelector, "timeout", browserWaitTimeout)
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("failed to read rendered HTML of %s: %w", urlStr, err)
	}
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}
