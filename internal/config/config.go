package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Acquisition sources.
const (
	SourceAPI       = "api"
	SourceFirestore = "firestore"
)

type Config struct {
	ProjectID         string
	Port              string
	LegoAPIURL        string
	AcquisitionSource string
	DefaultPageSize   int
	MaxPageSize       int
	APITimeout        time.Duration
	APIRateLimit      time.Duration
	APIMaxRetries     int
	DealabsURL        string
	ScrapePages       int
	ScrapeConcurrency int
	ScrapeBrowser     bool
	ExportPath        string
	MaxStoredDeals    int
	LogLevel          string
	LogFormat         string
	AllowedDomains    []string
}

// Load reads configuration from the environment. Values from a local .env file
// are applied first without overriding variables that are already set.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("Failed to read .env file", "error", err)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		slog.Info("Defaulting to port", "port", port)
	}

	source := getEnv("ACQUISITION_SOURCE", SourceAPI)
	if source != SourceAPI && source != SourceFirestore {
		return nil, fmt.Errorf("invalid ACQUISITION_SOURCE %q: want %q or %q", source, SourceAPI, SourceFirestore)
	}

	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	if source == SourceFirestore && projectID == "" {
		return nil, fmt.Errorf("GOOGLE_CLOUD_PROJECT environment variable is required for the firestore source")
	}

	defaultPageSize, err := getInt("DEFAULT_PAGE_SIZE", 6)
	if err != nil {
		return nil, err
	}
	maxPageSize, err := getInt("MAX_PAGE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	if defaultPageSize < 1 || defaultPageSize > maxPageSize {
		return nil, fmt.Errorf("DEFAULT_PAGE_SIZE %d must be between 1 and MAX_PAGE_SIZE %d", defaultPageSize, maxPageSize)
	}

	apiTimeout, err := getDuration("API_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	apiRateLimit, err := getDuration("API_RATE_LIMIT", 500*time.Millisecond)
	if err != nil {
		return nil, err
	}
	apiMaxRetries, err := getInt("API_MAX_RETRIES", 2)
	if err != nil {
		return nil, err
	}
	scrapePages, err := getInt("SCRAPE_PAGES", 1)
	if err != nil {
		return nil, err
	}
	scrapeConcurrency, err := getInt("SCRAPE_CONCURRENCY", 3)
	if err != nil {
		return nil, err
	}
	maxStoredDeals, err := getInt("MAX_STORED_DEALS", 500)
	if err != nil {
		return nil, err
	}

	scrapeBrowser := false
	if v := os.Getenv("SCRAPE_BROWSER"); v != "" {
		scrapeBrowser, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid SCRAPE_BROWSER %q: %w", v, err)
		}
	}

	return &Config{
		ProjectID:         projectID,
		Port:              port,
		LegoAPIURL:        getEnv("LEGO_API_URL", "https://lego-api-blue.vercel.app"),
		AcquisitionSource: source,
		DefaultPageSize:   defaultPageSize,
		MaxPageSize:       maxPageSize,
		APITimeout:        apiTimeout,
		APIRateLimit:      apiRateLimit,
		APIMaxRetries:     apiMaxRetries,
		DealabsURL:        getEnv("DEALABS_URL", "https://www.dealabs.com/groupe/lego"),
		ScrapePages:       scrapePages,
		ScrapeConcurrency: scrapeConcurrency,
		ScrapeBrowser:     scrapeBrowser,
		ExportPath:        getEnv("EXPORT_PATH", "lego_deals.json"),
		MaxStoredDeals:    maxStoredDeals,
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "text"),
		AllowedDomains:    []string{"dealabs.com", "www.dealabs.com"},
	}, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return parsed, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	return parsed, nil
}
