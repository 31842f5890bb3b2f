package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	// Set test environment variables (auto-cleaned up after test)
	t.Setenv("PORT", "9090")
	t.Setenv("LEGO_API_URL", "http://localhost:3000")
	t.Setenv("DEFAULT_PAGE_SIZE", "12")
	t.Setenv("ACQUISITION_SOURCE", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected 9090, got %s", cfg.Port)
	}
	if cfg.LegoAPIURL != "http://localhost:3000" {
		t.Errorf("Expected http://localhost:3000, got %s", cfg.LegoAPIURL)
	}
	if cfg.DefaultPageSize != 12 {
		t.Errorf("Expected page size 12, got %d", cfg.DefaultPageSize)
	}
	if cfg.AcquisitionSource != SourceAPI {
		t.Errorf("Expected default source %q, got %q", SourceAPI, cfg.AcquisitionSource)
	}
	if cfg.APITimeout != 15*time.Second {
		t.Errorf("Expected default 15s timeout, got %s", cfg.APITimeout)
	}
	if cfg.MaxStoredDeals != 500 {
		t.Errorf("Expected default MaxStoredDeals 500, got %d", cfg.MaxStoredDeals)
	}
}

func TestLoad_FirestoreSourceRequiresProject(t *testing.T) {
	t.Setenv("ACQUISITION_SOURCE", SourceFirestore)
	t.Setenv("GOOGLE_CLOUD_PROJECT", "")

	_, err := Load()
	if err == nil {
		t.Error("Load() should return an error when the firestore source has no project")
	}
}

func TestLoad_UnknownSource(t *testing.T) {
	t.Setenv("ACQUISITION_SOURCE", "mongodb")

	if _, err := Load(); err == nil {
		t.Error("Load() should reject an unknown ACQUISITION_SOURCE")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"API_TIMEOUT", "not-a-duration"},
		{"API_RATE_LIMIT", "fast"},
		{"DEFAULT_PAGE_SIZE", "six"},
		{"DEFAULT_PAGE_SIZE", "0"},
		{"MAX_STORED_DEALS", "lots"},
		{"SCRAPE_BROWSER", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv("ACQUISITION_SOURCE", "")
			t.Setenv(tt.key, tt.value)

			if _, err := Load(); err == nil {
				t.Errorf("Load() should return error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoad_CustomDurations(t *testing.T) {
	t.Setenv("ACQUISITION_SOURCE", "")
	t.Setenv("API_RATE_LIMIT", "2s")
	t.Setenv("SCRAPE_BROWSER", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned unexpected error: %v", err)
	}

	if cfg.APIRateLimit != 2*time.Second {
		t.Errorf("Expected 2s, got %s", cfg.APIRateLimit)
	}
	if !cfg.ScrapeBrowser {
		t.Error("Expected ScrapeBrowser to be enabled")
	}
}
