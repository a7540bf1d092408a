package config

import (
	"strings"
	"testing"
	"time"
)

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name: "unknown mode",
			mutate: func(cfg *Config) {
				cfg.Mode = "batch"
			},
			wantErr: "mode",
		},
		{
			name: "single mode without url",
			mutate: func(cfg *Config) {
				cfg.Mode = ModeSingle
				cfg.SingleURL = ""
			},
			wantErr: "single mode",
		},
		{
			name: "empty seed url",
			mutate: func(cfg *Config) {
				cfg.SeedURL = ""
			},
			wantErr: "seed URL",
		},
		{
			name: "origin without host",
			mutate: func(cfg *Config) {
				cfg.Origin = "https://"
			},
			wantErr: "origin",
		},
		{
			name: "zero max hotels",
			mutate: func(cfg *Config) {
				cfg.MaxHotels = 0
			},
			wantErr: "max hotels",
		},
		{
			name: "negative quota",
			mutate: func(cfg *Config) {
				cfg.ReviewQuota = -1
			},
			wantErr: "quota",
		},
		{
			name: "zero navigation attempts",
			mutate: func(cfg *Config) {
				cfg.NavAttempts = 0
			},
			wantErr: "attempts",
		},
		{
			name: "negative navigation timeout",
			mutate: func(cfg *Config) {
				cfg.NavTimeout = -1 * time.Second
			},
			wantErr: "timeout",
		},
		{
			name: "no next selectors",
			mutate: func(cfg *Config) {
				cfg.NextSelectors = nil
			},
			wantErr: "next-page selector",
		},
		{
			name: "empty output file",
			mutate: func(cfg *Config) {
				cfg.OutputFile = ""
			},
			wantErr: "output file",
		},
		{
			name: "bad output format",
			mutate: func(cfg *Config) {
				cfg.OutputFormat = "xml"
			},
			wantErr: "output format",
		},
		{
			name: "empty user agent",
			mutate: func(cfg *Config) {
				cfg.UserAgent = ""
			},
			wantErr: "user agent",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestSingleModeValidWithURL(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mode = ModeSingle
	cfg.SingleURL = "https://www.agoda.com/grand-hotel/hotel/tokyo-jp.html"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("single mode with url should validate, got %v", err)
	}
}

func TestEnvInt(t *testing.T) {
	t.Setenv("SCRAPER_TEST_INT", "42")
	value, ok, err := EnvInt("SCRAPER_TEST_INT")
	if err != nil || !ok || value != 42 {
		t.Fatalf("EnvInt = (%d, %v, %v), want (42, true, nil)", value, ok, err)
	}

	if _, ok, err := EnvInt("SCRAPER_TEST_INT_UNSET"); ok || err != nil {
		t.Fatalf("unset variable should report not ok, got ok=%v err=%v", ok, err)
	}

	t.Setenv("SCRAPER_TEST_INT_BAD", "many")
	if _, _, err := EnvInt("SCRAPER_TEST_INT_BAD"); err == nil {
		t.Fatalf("expected parse error for non-numeric value")
	}
}

func TestEnvString(t *testing.T) {
	t.Setenv("SCRAPER_TEST_STR", "output/alt.json")
	if value, ok := EnvString("SCRAPER_TEST_STR"); !ok || value != "output/alt.json" {
		t.Fatalf("EnvString = (%q, %v), want (output/alt.json, true)", value, ok)
	}
	if _, ok := EnvString("SCRAPER_TEST_STR_UNSET"); ok {
		t.Fatalf("unset variable should report not ok")
	}
}
