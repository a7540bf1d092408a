package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aluiziolira/go-scrape-reviews/browser"
	"github.com/aluiziolira/go-scrape-reviews/config"
	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/aluiziolira/go-scrape-reviews/query"
	"github.com/aluiziolira/go-scrape-reviews/scraper"
	"github.com/aluiziolira/go-scrape-reviews/sink"
)

// levelCritical marks failures that end the run outside normal control
// flow, such as a panic caught on the way out.
const levelCritical = slog.LevelError + 4

func main() {
	defaultCfg := config.DefaultConfig()

	maxHotelsDefault := defaultCfg.MaxHotels
	if value, ok, err := config.EnvInt("SCRAPER_MAX_HOTELS"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_MAX_HOTELS: %v\n", err)
		os.Exit(1)
	} else if ok {
		maxHotelsDefault = value
	}
	quotaDefault := defaultCfg.ReviewQuota
	if value, ok, err := config.EnvInt("SCRAPER_QUOTA"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid SCRAPER_QUOTA: %v\n", err)
		os.Exit(1)
	} else if ok {
		quotaDefault = value
	}
	outputDefault := defaultCfg.OutputFile
	if value, ok := config.EnvString("SCRAPER_OUTPUT"); ok {
		outputDefault = value
	}
	metricsDefault := defaultCfg.MetricsAddr
	if value, ok := config.EnvString("SCRAPER_METRICS_ADDR"); ok {
		metricsDefault = value
	}
	queryEndpointDefault := defaultCfg.QueryEndpoint
	if value, ok := config.EnvString("SCRAPER_QUERY_ENDPOINT"); ok {
		queryEndpointDefault = value
	}

	seedURL := flag.String("url", defaultCfg.SeedURL, "Search listing URL to discover hotels from")
	mode := flag.String("mode", defaultCfg.Mode, "Crawl mode: multiple or single")
	singleURL := flag.String("single-url", "", "Hotel page URL for single mode")
	maxHotels := flag.Int("max-hotels", maxHotelsDefault, "Maximum hotels to scrape from the listing")
	reviews := flag.Int("reviews", quotaDefault, "Maximum reviews to collect per hotel")
	headless := flag.Bool("headless", false, "Run the browser headless")
	outputFile := flag.String("output", outputDefault, "Output file path")
	outputFormat := flag.String("format", defaultCfg.OutputFormat, "Output format: json, csv, or dual")
	statePath := flag.String("state", "", "Browser storage state file to load if present")
	saveState := flag.Bool("save-state", false, "Save browser storage state on exit")
	queryEndpoint := flag.String("query-endpoint", queryEndpointDefault, "Structured-extraction service base URL")
	metricsAddr := flag.String("metrics-addr", metricsDefault, "Prometheus metrics listen address (e.g. :9090)")
	verbose := flag.Bool("v", false, "Enable verbose logging")

	flag.Parse()

	logger, level := newLogger(*verbose)
	slog.SetDefault(logger)
	setLogLoggerLevel(level.Level())

	cfg := buildConfigFromFlags(*seedURL, *mode, *singleURL, *maxHotels, *reviews, *headless, *outputFile, *outputFormat, *statePath, *saveState, *queryEndpoint, *metricsAddr, *verbose)
	if key, ok := config.EnvString("SCRAPER_QUERY_KEY"); ok {
		cfg.QueryAPIKey = key
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	runID := uuid.NewString()
	log := slog.Default().With(slog.String("run_id", runID))

	log.Info("starting crawl",
		slog.String("mode", cfg.Mode),
		slog.String("url", crawlURL(cfg)),
		slog.Int("max_hotels", cfg.MaxHotels),
		slog.Int("review_quota", cfg.ReviewQuota),
	)

	if err := run(cfg, log, runID); err != nil {
		log.Error("crawl failed", slog.Any("error", err))
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *slog.Logger, runID string) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	session, err := browser.LoadOrStart(browser.Options{
		Headless:       cfg.Headless,
		SlowMo:         cfg.SlowMo,
		UserAgent:      cfg.UserAgent,
		ViewportWidth:  cfg.ViewportWidth,
		ViewportHeight: cfg.ViewportHeight,
	}, cfg.StatePath, log)
	if err != nil {
		return fmt.Errorf("start browser session: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Log(context.Background(), levelCritical, "unhandled panic",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = fmt.Errorf("unhandled panic: %v", r)
		}
		if cerr := session.Close(); cerr != nil {
			log.Error("closing browser session", slog.Any("error", cerr))
		} else {
			log.Info("browser session closed")
		}
	}()

	writer, err := createWriter(cfg.OutputFormat, cfg.OutputFile)
	if err != nil {
		return fmt.Errorf("create writer: %w", err)
	}
	defer func() {
		if cerr := writer.Close(); cerr != nil {
			log.Error("close writer", slog.Any("error", cerr))
		}
	}()

	querier := query.NewClient(query.Config{
		Endpoint: cfg.QueryEndpoint,
		APIKey:   cfg.QueryAPIKey,
		Reader:   cfg.ReaderEndpoint,
		Timeout:  cfg.QueryTimeout,
	}, log)

	engine, err := scraper.NewEngine(cfg, session.Page(), querier, writer, log)
	if err != nil {
		return fmt.Errorf("initialise engine: %w", err)
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" && engine.Metrics != nil {
		metricsServer = &http.Server{
			Addr:    cfg.MetricsAddr,
			Handler: promhttp.HandlerFor(engine.Metrics.Registry, promhttp.HandlerOpts{}),
		}
		go func() {
			if serr := metricsServer.ListenAndServe(); serr != nil && !errors.Is(serr, http.ErrServerClosed) {
				log.Error("metrics server failed", slog.Any("error", serr))
			}
		}()
		log.Info("metrics server enabled", slog.String("addr", cfg.MetricsAddr))
	}

	startTime := time.Now()
	result, runErr := engine.Run(ctx)
	result.RunID = runID

	if cfg.SaveState && cfg.StatePath != "" {
		if serr := session.SaveState(cfg.StatePath); serr != nil {
			log.Error("saving browser state", slog.Any("error", serr))
		} else {
			log.Info("browser state saved", slog.String("path", cfg.StatePath))
		}
	}

	if verr := writer.Validate(); verr != nil {
		log.Error("output validation failed", slog.Any("error", verr))
		runErr = errors.Join(runErr, verr)
	}

	if metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if serr := metricsServer.Shutdown(shutdownCtx); serr != nil {
			log.Error("metrics server shutdown failed", slog.Any("error", serr))
		}
		cancel()
	}

	printSummary(result, time.Since(startTime), cfg.OutputFile)
	return runErr
}

func buildConfigFromFlags(seedURL, mode, singleURL string, maxHotels, reviews int, headless bool, outputFile, outputFormat, statePath string, saveState bool, queryEndpoint, metricsAddr string, verbose bool) *config.Config {
	cfg := config.DefaultConfig()
	cfg.SeedURL = seedURL
	cfg.Mode = strings.ToLower(mode)
	cfg.SingleURL = singleURL
	cfg.MaxHotels = maxHotels
	cfg.ReviewQuota = reviews
	cfg.Headless = headless
	cfg.OutputFile = outputFile
	cfg.OutputFormat = strings.ToLower(outputFormat)
	cfg.StatePath = statePath
	cfg.SaveState = saveState
	cfg.QueryEndpoint = queryEndpoint
	cfg.MetricsAddr = metricsAddr
	cfg.Verbose = verbose
	return cfg
}

func crawlURL(cfg *config.Config) string {
	if cfg.Mode == config.ModeSingle {
		return cfg.SingleURL
	}
	return cfg.SeedURL
}

func createWriter(format, filename string) (sink.Writer, error) {
	switch format {
	case "json":
		return sink.NewJSONWriter(filename)
	case "csv":
		return sink.NewCSVWriter(filename)
	case "dual":
		base := strings.TrimSuffix(filename, filepath.Ext(filename))
		return sink.NewDualWriter(base+".csv", base+".json")
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

func printSummary(result *models.CrawlResult, duration time.Duration, outputFile string) {
	separator := "--------------------------------------------------"
	fmt.Println("\n" + separator)
	fmt.Println("Crawl complete")

	fmt.Printf("  Run ID:        %s\n", result.RunID)
	fmt.Printf("  Hotels:        %d\n", result.HotelCount)
	fmt.Printf("  Reviews:       %d\n", result.ReviewCount)
	fmt.Printf("  Errors:        %d\n", result.ErrorCount)
	fmt.Printf("  Retries:       %d\n", result.RetryCount)
	fmt.Printf("  Failed URLs:   %d\n", len(result.FailedURLs))
	if len(result.ErrorsByType) > 0 {
		fmt.Printf("  Error types:   %v\n", result.ErrorsByType)
	}
	reviewsPerSec := 0.0
	if duration.Seconds() > 0 {
		reviewsPerSec = float64(result.ReviewCount) / duration.Seconds()
	}
	fmt.Printf("  Duration:      %v\n", duration)
	fmt.Printf("  Reviews/sec:   %.2f\n", reviewsPerSec)
	fmt.Printf("  Output file:   %s\n", outputFile)
	fmt.Println(separator)
}

func newLogger(verbose bool) (*slog.Logger, *slog.LevelVar) {
	level := &slog.LevelVar{}
	if verbose {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if isTerminal(os.Stdout) {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler), level
}

func isTerminal(f *os.File) bool {
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
