package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Modes for a scrape run.
const (
	ModeMultiple = "multiple"
	ModeSingle   = "single"
)

// Config holds scraper configuration.
type Config struct {
	SeedURL   string
	SingleURL string
	Mode      string // multiple or single
	Origin    string // site origin used to resolve relative listing links

	MaxHotels   int
	ReviewQuota int

	Headless       bool
	SlowMo         time.Duration
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int

	NavTimeout        time.Duration
	NavAttempts       int
	RetryDelay        time.Duration
	SettleDelay       time.Duration
	QuietTimeout      time.Duration
	QuietFallback     time.Duration
	ClickTimeout      time.Duration
	ForceClickTimeout time.Duration
	NextClickTimeout  time.Duration
	StatsTimeout      time.Duration
	QueryTimeout      time.Duration
	TargetPause       time.Duration
	ScrollCycles      int
	ScrollPause       time.Duration

	OverlaySelector string
	RevealSelector  string
	RevealText      string
	NextSelectors   []string

	QueryEndpoint  string
	QueryAPIKey    string
	ReaderEndpoint string

	OutputFile    string
	OutputFormat  string // json, csv, or dual
	StatePath     string
	SaveState     bool
	MetricsAddr   string
	SeenCacheSize int
	Verbose       bool
}

// DefaultConfig returns the tuning that works against the hotel site the
// scraper was built for.
func DefaultConfig() *Config {
	return &Config{
		SeedURL:   "https://www.agoda.com/search?city=181",
		Mode:      ModeMultiple,
		Origin:    "https://www.agoda.com",
		MaxHotels: 3,

		ReviewQuota: 20,

		Headless:       false,
		SlowMo:         300 * time.Millisecond,
		UserAgent:      "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
		ViewportWidth:  1920,
		ViewportHeight: 1080,

		NavTimeout:        30 * time.Second,
		NavAttempts:       3,
		RetryDelay:        2 * time.Second,
		SettleDelay:       2 * time.Second,
		QuietTimeout:      5 * time.Second,
		QuietFallback:     500 * time.Millisecond,
		ClickTimeout:      10 * time.Second,
		ForceClickTimeout: 3 * time.Second,
		NextClickTimeout:  5 * time.Second,
		StatsTimeout:      10 * time.Second,
		QueryTimeout:      15 * time.Second,
		TargetPause:       3 * time.Second,
		ScrollCycles:      3,
		ScrollPause:       time.Second,

		OverlaySelector: "[data-selenium='backdrop']",
		RevealSelector:  "span[label='Read all reviews']",
		RevealText:      "Read all reviews",
		NextSelectors: []string{
			"button[aria-label='Next reviews page']",
			"button[data-element-name='review-paginator-next']",
			"button[aria-label*='Next']",
		},

		QueryEndpoint:  "https://api.agentql.com",
		ReaderEndpoint: "https://r.jina.ai",

		OutputFile:    "output/reviews.json",
		OutputFormat:  "json",
		SeenCacheSize: 1024,
		Verbose:       false,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.Mode != ModeMultiple && c.Mode != ModeSingle {
		return fmt.Errorf("mode must be %s or %s", ModeMultiple, ModeSingle)
	}
	if c.Mode == ModeSingle && c.SingleURL == "" {
		return fmt.Errorf("single mode requires a single-target URL")
	}
	if c.Mode == ModeMultiple && c.SeedURL == "" {
		return fmt.Errorf("seed URL cannot be empty")
	}

	if err := validateURL("origin", c.Origin); err != nil {
		return err
	}
	if err := validateURL("query endpoint", c.QueryEndpoint); err != nil {
		return err
	}
	if err := validateURL("reader endpoint", c.ReaderEndpoint); err != nil {
		return err
	}

	if c.MaxHotels <= 0 {
		return fmt.Errorf("max hotels must be positive")
	}
	if c.ReviewQuota < 0 {
		return fmt.Errorf("review quota cannot be negative")
	}
	if c.NavAttempts <= 0 {
		return fmt.Errorf("navigation attempts must be positive")
	}
	if c.NavTimeout <= 0 {
		return fmt.Errorf("navigation timeout must be positive")
	}
	if c.QueryTimeout <= 0 || c.StatsTimeout <= 0 {
		return fmt.Errorf("query timeouts must be positive")
	}
	if c.RetryDelay < 0 || c.SettleDelay < 0 || c.QuietFallback < 0 {
		return fmt.Errorf("delays cannot be negative")
	}
	if c.TargetPause < 0 {
		return fmt.Errorf("target pause cannot be negative")
	}
	if c.ScrollCycles < 0 {
		return fmt.Errorf("scroll cycles cannot be negative")
	}
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		return fmt.Errorf("viewport dimensions must be positive")
	}
	if c.SeenCacheSize <= 0 {
		return fmt.Errorf("seen cache size must be positive")
	}
	if c.OverlaySelector == "" || c.RevealSelector == "" {
		return fmt.Errorf("overlay and reveal selectors cannot be empty")
	}
	if len(c.NextSelectors) == 0 {
		return fmt.Errorf("at least one next-page selector is required")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output file cannot be empty")
	}
	if c.OutputFormat != "json" && c.OutputFormat != "csv" && c.OutputFormat != "dual" {
		return fmt.Errorf("output format must be json, csv, or dual")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}

	return nil
}

func validateURL(name, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", name)
	}
	parsed, err := url.Parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if parsed.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}

// EnvInt reads an integer environment variable. The second return reports
// whether the variable was set.
func EnvInt(key string) (int, bool, error) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return 0, false, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", key, err)
	}
	return value, true, nil
}

// EnvString reads a string environment variable and whether it was set.
func EnvString(key string) (string, bool) {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return "", false
	}
	return raw, true
}
