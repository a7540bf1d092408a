package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"github.com/aluiziolira/go-scrape-reviews/browser"
	"github.com/aluiziolira/go-scrape-reviews/config"
	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/aluiziolira/go-scrape-reviews/parser"
)

// Querier turns captured page content into structured data. *query.Client
// satisfies it.
type Querier interface {
	Extract(ctx context.Context, content, schema string, out any) error
}

// Checkpointer persists the full batch collected so far. sink writers
// satisfy it; Save must replace the previous checkpoint, not append to it.
type Checkpointer interface {
	Save(batch []*models.HotelReviews) error
}

// Engine orchestrates the crawl: hotel discovery, per-target scraping, and
// batch checkpointing. It drives a single page sequentially; none of its
// state needs locking.
type Engine struct {
	cfg     *config.Config
	page    browser.Page
	nav     *Navigator
	ix      *Interactor
	querier Querier
	sink    Checkpointer
	log     *slog.Logger
	Metrics *Metrics

	seen *lru.Cache[string, struct{}]
	pace *rate.Limiter

	errorCount   int
	failedURLs   []string
	errorsByType map[string]int
}

// NewEngine builds a crawl engine around an already-open page.
func NewEngine(cfg *config.Config, page browser.Page, querier Querier, sink Checkpointer, log *slog.Logger) (*Engine, error) {
	if log == nil {
		log = slog.Default()
	}
	seen, err := lru.New[string, struct{}](cfg.SeenCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create seen cache: %w", err)
	}

	metrics := NewMetrics()
	return &Engine{
		cfg:          cfg,
		page:         page,
		nav:          NewNavigator(page, cfg, metrics, log),
		ix:           NewInteractor(page, cfg, metrics, log),
		querier:      querier,
		sink:         sink,
		log:          log,
		Metrics:      metrics,
		seen:         seen,
		pace:         rate.NewLimiter(rate.Every(cfg.TargetPause), 1),
		errorsByType: make(map[string]int),
	}, nil
}

// Run executes a whole crawl in the configured mode and reports run-level
// statistics. The returned result is always non-nil.
func (e *Engine) Run(ctx context.Context) (*models.CrawlResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()

	var batch []*models.HotelReviews
	var runErr error

	switch e.cfg.Mode {
	case config.ModeSingle:
		target := models.Target{URL: e.cfg.SingleURL, Quota: e.cfg.ReviewQuota}
		result, err := e.ScrapeHotel(ctx, target)
		if err != nil {
			e.log.Error("hotel scrape failed",
				slog.String("url", target.URL),
				slog.Any("error", err))
			e.recordFailure(target.URL, err)
		}
		batch = []*models.HotelReviews{result}
		e.checkpoint(batch)
	default:
		batch, runErr = e.CrawlHotels(ctx, e.cfg.SeedURL)
	}

	reviewCount := 0
	for _, hotel := range batch {
		reviewCount += hotel.TotalScraped
	}

	result := &models.CrawlResult{
		StartTime:    start,
		EndTime:      time.Now(),
		HotelCount:   len(batch),
		ReviewCount:  reviewCount,
		ErrorCount:   e.errorCount,
		RetryCount:   e.nav.TotalRetries(),
		FailedURLs:   slices.Clone(e.failedURLs),
		ErrorsByType: maps.Clone(e.errorsByType),
	}
	return result, runErr
}

// CrawlHotels discovers hotels on the seed listing page and scrapes each
// one in turn. A target failure never aborts the run: its empty result
// joins the batch and the crawl moves on. The batch is checkpointed after
// every target so an interrupted run keeps everything finished so far.
func (e *Engine) CrawlHotels(ctx context.Context, seedURL string) ([]*models.HotelReviews, error) {
	batch := []*models.HotelReviews{}

	e.log.Info("discovering hotels", slog.String("seed", seedURL))
	if err := e.nav.Navigate(seedURL); err != nil {
		e.recordFailure(seedURL, err)
		e.checkpoint(batch)
		return batch, fmt.Errorf("reach seed listing: %w", err)
	}
	e.settleListing()

	hotels, err := e.discoverHotels(ctx)
	if err != nil {
		e.recordFailure(seedURL, err)
		e.checkpoint(batch)
		return batch, fmt.Errorf("discover hotels: %w", err)
	}
	e.log.Info("hotels discovered", slog.Int("count", len(hotels)))

	if len(hotels) > e.cfg.MaxHotels {
		e.log.Info("limiting crawl",
			slog.Int("discovered", len(hotels)),
			slog.Int("max_hotels", e.cfg.MaxHotels))
		hotels = hotels[:e.cfg.MaxHotels]
	}

	checkpointed := false
	for i, hotel := range hotels {
		if err := e.pace.Wait(ctx); err != nil {
			e.log.Info("crawl canceled, stopping",
				slog.Int("completed", len(batch)),
				slog.Int("remaining", len(hotels)-i))
			break
		}

		if err := parser.ValidateSummary(&hotel); err != nil {
			e.log.Warn("skipping unusable listing entry",
				slog.String("hotel", hotel.Name),
				slog.Any("error", err))
			e.Metrics.IncTarget("skipped")
			continue
		}
		link := parser.AbsoluteURL(e.cfg.Origin, hotel.Link)
		if link == "" {
			e.log.Warn("skipping listing entry without a resolvable link",
				slog.String("hotel", hotel.Name))
			e.Metrics.IncTarget("skipped")
			continue
		}
		if e.seen.Contains(link) {
			e.log.Info("skipping already-visited hotel", slog.String("url", link))
			e.Metrics.IncTarget("skipped")
			continue
		}
		e.seen.Add(link, struct{}{})

		e.log.Info("processing hotel",
			slog.Int("position", i+1),
			slog.Int("of", len(hotels)),
			slog.String("hotel", hotel.Name))

		target := models.Target{URL: link, Name: hotel.Name, Quota: e.cfg.ReviewQuota}
		result, err := e.ScrapeHotel(ctx, target)
		if err != nil {
			e.log.Error("hotel scrape failed",
				slog.String("url", link),
				slog.Any("error", err))
			e.recordFailure(link, err)
		}
		batch = append(batch, result)
		e.checkpoint(batch)
		checkpointed = true
	}

	if !checkpointed {
		e.checkpoint(batch)
	}
	return batch, nil
}

// discoverHotels extracts listing entries from the current page.
func (e *Engine) discoverHotels(ctx context.Context) ([]models.HotelSummary, error) {
	content, err := e.page.Content()
	if err != nil {
		e.Metrics.IncQuery(queryKindHotelList, "failed")
		return nil, ErrQuery{Kind: queryKindHotelList, Err: err}
	}
	qctx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()

	var payload struct {
		Hotels []models.HotelSummary `json:"hotels"`
	}
	if err := e.querier.Extract(qctx, content, hotelListSchema, &payload); err != nil {
		e.Metrics.IncQuery(queryKindHotelList, "failed")
		return nil, ErrQuery{Kind: queryKindHotelList, Err: err}
	}
	e.Metrics.IncQuery(queryKindHotelList, "ok")
	return payload.Hotels, nil
}

// settleListing scrolls the listing page so lazily-loaded entries render
// before discovery runs.
func (e *Engine) settleListing() {
	for i := 0; i < e.cfg.ScrollCycles; i++ {
		if err := e.page.Press("PageDown"); err != nil {
			e.log.Debug("listing scroll failed", slog.Any("error", err))
			return
		}
		time.Sleep(e.cfg.ScrollPause)
	}
}

// checkpoint persists the batch collected so far. A failed checkpoint is
// recorded but never stops the crawl; the next one retries the full batch.
func (e *Engine) checkpoint(batch []*models.HotelReviews) {
	if err := e.sink.Save(batch); err != nil {
		wrapped := ErrCheckpoint{Path: e.cfg.OutputFile, Err: err}
		e.log.Error("checkpoint failed",
			slog.Int("hotels", len(batch)),
			slog.Any("error", wrapped))
		e.recordFailure("", wrapped)
		e.Metrics.IncCheckpoint("failed")
		return
	}
	e.Metrics.IncCheckpoint("ok")
	e.log.Info("checkpoint saved", slog.Int("hotels", len(batch)))
}

// recordFailure folds an error into the run statistics. url may be empty
// when the failure is not tied to a particular target.
func (e *Engine) recordFailure(url string, err error) {
	label := errorTypeLabel(err)
	e.errorCount++
	e.errorsByType[label]++
	if url != "" {
		e.failedURLs = append(e.failedURLs, url)
	}
	e.Metrics.IncError(label)
}
