package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// DocumentFetcher loads a page and parses it for selector queries.
type DocumentFetcher interface {
	FetchDocument(ctx context.Context, urlStr string) (*goquery.Document, error)
}

// checkAllowed rejects non-HTTP schemes and hosts outside the allowlist.
func checkAllowed(urlStr string, allowedDomains []string) (*url.URL, error) {
	parsedURL, err := url.Parse(urlStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL %s: %w", urlStr, err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, fmt.Errorf("invalid URL scheme %s: only http and https allowed", parsedURL.Scheme)
	}
	if !slices.Contains(allowedDomains, parsedURL.Hostname()) {
		return nil, fmt.Errorf("security violation: URL hostname %s is not in allowlist", parsedURL.Hostname())
	}
	return parsedURL, nil
}

// httpFetcher fetches static HTML. Cookies set by the site (consent, session)
// are kept across pages of the same run.
type httpFetcher struct {
	httpClient     *http.Client
	allowedDomains []string
}

func newHTTPFetcher(allowedDomains []string) (*httpFetcher, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return &httpFetcher{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		allowedDomains: allowedDomains,
	}, nil
}

func (f *httpFetcher) FetchDocument(ctx context.Context, urlStr string) (*goquery.Document, error) {
	if _, err := checkAllowed(urlStr, f.allowedDomains); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for URL %s: %w", urlStr, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "fr-FR,fr;q=0.9")

	res, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL %s: %w", urlStr, err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL %s: status code %d", urlStr, res.StatusCode)
	}
	return goquery.NewDocumentFromReader(res.Body)
}
