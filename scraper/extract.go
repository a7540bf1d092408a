package scraper

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/browser"
	"github.com/aluiziolira/go-scrape-reviews/models"
	"github.com/aluiziolira/go-scrape-reviews/parser"
)

// Query kinds, used as metric labels and ErrQuery tags.
const (
	queryKindHotelList    = "hotel_list"
	queryKindOverallStats = "overall_stats"
	queryKindReviews      = "reviews"
)

// unknownHotelName labels targets whose name could not be recovered from
// the listing or the page title.
const unknownHotelName = "Unknown Hotel"

// ScrapeHotel runs the full per-target sequence: navigate, reveal the
// review panel, query overall statistics, then page through reviews until
// the quota is met or pagination ends. The returned result is always
// non-nil and well-formed even on failure; the error reports the
// target-fatal cause, and whatever was collected first stays on the
// result.
func (e *Engine) ScrapeHotel(ctx context.Context, target models.Target) (*models.HotelReviews, error) {
	result := &models.HotelReviews{
		HotelName: target.Name,
		HotelURL:  target.URL,
		Reviews:   []models.Review{},
		ScrapedAt: time.Now(),
	}

	e.log.Info("scraping hotel",
		slog.String("url", target.URL),
		slog.Int("quota", target.Quota))

	if err := e.nav.Navigate(target.URL); err != nil {
		e.Metrics.IncTarget("failed")
		return result, err
	}

	if result.HotelName == "" {
		result.HotelName = e.hotelName()
	}

	if e.ix.ClickWithOverlayRecovery(e.page.Locate(e.cfg.RevealSelector), e.cfg.RevealText) {
		e.log.Info("review panel revealed")
	} else {
		e.log.Warn("could not reveal the review panel, extracting what is visible")
	}
	e.quiesce()

	if stats, err := e.queryStats(ctx); err != nil {
		e.log.Warn("overall statistics unavailable", slog.Any("error", err))
	} else {
		result.Stats = stats
	}

	e.collectReviews(ctx, result, target.Quota)
	result.TotalScraped = len(result.Reviews)

	e.Metrics.IncTarget("ok")
	e.Metrics.AddReviews(result.TotalScraped)
	e.log.Info("hotel scraped",
		slog.String("hotel", result.HotelName),
		slog.Int("reviews", result.TotalScraped))
	return result, nil
}

// collectReviews pages through the review panel until the quota is met, a
// page yields nothing, the query fails, or no next-page control is left.
func (e *Engine) collectReviews(ctx context.Context, result *models.HotelReviews, quota int) {
	page := 1
	for len(result.Reviews) < quota {
		reviews, err := e.queryReviews(ctx)
		if err != nil {
			e.log.Error("review query failed, ending pagination",
				slog.Int("page", page),
				slog.Any("error", err))
			e.recordFailure("", err)
			return
		}
		if len(reviews) == 0 {
			e.log.Info("page yielded no reviews, pagination complete", slog.Int("page", page))
			return
		}

		result.Reviews = append(result.Reviews, reviews...)
		e.log.Info("reviews collected",
			slog.Int("page", page),
			slog.Int("new", len(reviews)),
			slog.Int("total", len(result.Reviews)),
			slog.Int("quota", quota))

		if len(result.Reviews) >= quota {
			result.Reviews = result.Reviews[:quota]
			e.log.Info("review quota reached", slog.Int("quota", quota))
			return
		}
		if !e.advancePage() {
			e.log.Info("no next-page control, pagination complete", slog.Int("page", page))
			return
		}
		page++
	}
}

func (e *Engine) queryStats(ctx context.Context) (*models.OverallStats, error) {
	content, err := e.page.Content()
	if err != nil {
		e.Metrics.IncQuery(queryKindOverallStats, "failed")
		return nil, ErrQuery{Kind: queryKindOverallStats, Err: err}
	}
	qctx, cancel := context.WithTimeout(ctx, e.cfg.StatsTimeout)
	defer cancel()

	stats := &models.OverallStats{}
	if err := e.querier.Extract(qctx, content, overallStatsSchema, stats); err != nil {
		e.Metrics.IncQuery(queryKindOverallStats, "failed")
		return nil, ErrQuery{Kind: queryKindOverallStats, Err: err}
	}
	e.Metrics.IncQuery(queryKindOverallStats, "ok")
	return stats, nil
}

func (e *Engine) queryReviews(ctx context.Context) ([]models.Review, error) {
	content, err := e.page.Content()
	if err != nil {
		e.Metrics.IncQuery(queryKindReviews, "failed")
		return nil, ErrQuery{Kind: queryKindReviews, Err: err}
	}
	qctx, cancel := context.WithTimeout(ctx, e.cfg.QueryTimeout)
	defer cancel()

	var payload struct {
		Reviews []models.Review `json:"reviews"`
	}
	if err := e.querier.Extract(qctx, content, reviewsSchema, &payload); err != nil {
		e.Metrics.IncQuery(queryKindReviews, "failed")
		return nil, ErrQuery{Kind: queryKindReviews, Err: err}
	}
	e.Metrics.IncQuery(queryKindReviews, "ok")
	return payload.Reviews, nil
}

// advancePage clicks the first visible next-page control. Individual
// candidate failures are tolerated; running out of candidates is the
// normal end of pagination, not an error.
func (e *Engine) advancePage() bool {
	candidates := e.page.Locate(strings.Join(e.cfg.NextSelectors, ", "))
	count, err := candidates.Count()
	if err != nil || count == 0 {
		return false
	}
	for i := 0; i < count; i++ {
		candidate := candidates.Nth(i)
		visible, err := candidate.Visible()
		if err != nil || !visible {
			continue
		}
		if err := candidate.Click(browser.ClickOptions{Force: true, Timeout: e.cfg.NextClickTimeout}); err != nil {
			e.log.Debug("next-page candidate refused the click",
				slog.Int("candidate", i),
				slog.Any("error", err))
			continue
		}
		e.Metrics.IncClick("next")
		e.quiesce()
		return true
	}
	return false
}

// quiesce waits for network activity to die down, falling back to a short
// fixed pause when the page never goes quiet.
func (e *Engine) quiesce() {
	if err := e.page.WaitForQuiet(e.cfg.QuietTimeout); err != nil {
		e.log.Debug("page never went quiet, using fixed pause", slog.Any("error", err))
		time.Sleep(e.cfg.QuietFallback)
	}
}

// hotelName recovers a display name from the page title.
func (e *Engine) hotelName() string {
	title, err := e.page.Title()
	if err != nil {
		e.log.Debug("page title unavailable", slog.Any("error", err))
		return unknownHotelName
	}
	if name := parser.HotelNameFromTitle(title); name != "" {
		return name
	}
	return unknownHotelName
}
