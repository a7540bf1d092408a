package scraper

import (
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/browser"
	"github.com/aluiziolira/go-scrape-reviews/config"
)

// Activation gesture pacing. The pauses give the page's own handlers time
// to catch up between steps.
const (
	gesturePreWait  = time.Second
	gestureKeyWait  = 300 * time.Millisecond
	gesturePostWait = 500 * time.Millisecond
)

// Navigator drives page transitions with a bounded retry loop and performs
// the post-load activation gesture.
type Navigator struct {
	page    browser.Page
	cfg     *config.Config
	metrics *Metrics
	log     *slog.Logger

	preWait  time.Duration
	keyWait  time.Duration
	postWait time.Duration
	retries  int
}

// NewNavigator wires a navigator to a live page.
func NewNavigator(page browser.Page, cfg *config.Config, metrics *Metrics, log *slog.Logger) *Navigator {
	if log == nil {
		log = slog.Default()
	}
	return &Navigator{
		page:     page,
		cfg:      cfg,
		metrics:  metrics,
		log:      log,
		preWait:  gesturePreWait,
		keyWait:  gestureKeyWait,
		postWait: gesturePostWait,
	}
}

// Navigate loads url, lets the page settle, and performs the activation
// gesture. Each failed attempt waits a fixed delay before the next; when
// every attempt fails the last cause is returned wrapped in ErrNavigation.
func (n *Navigator) Navigate(url string) error {
	var lastErr error
	for attempt := 1; attempt <= n.cfg.NavAttempts; attempt++ {
		n.log.Info("navigating",
			slog.String("url", url),
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", n.cfg.NavAttempts))

		start := time.Now()
		if err := n.page.Goto(url, n.cfg.NavTimeout); err != nil {
			lastErr = err
			n.metrics.IncNavigation("failed")
			n.log.Warn("navigation attempt failed",
				slog.String("url", url),
				slog.Any("error", err))
			if attempt < n.cfg.NavAttempts {
				n.retries++
				n.metrics.IncRetries()
				time.Sleep(n.cfg.RetryDelay)
			}
			continue
		}
		n.metrics.ObserveNavigation(time.Since(start))

		time.Sleep(n.cfg.SettleDelay)
		n.activate()
		n.metrics.IncNavigation("ok")
		return nil
	}

	n.log.Error("all navigation attempts failed", slog.String("url", url))
	return ErrNavigation{URL: url, Attempts: n.cfg.NavAttempts, Err: lastErr}
}

// TotalRetries reports how many navigation retries the run needed so far.
func (n *Navigator) TotalRetries() int {
	return n.retries
}

// activate nudges the page out of its post-load pointer-event freeze:
// PageDown, a centered mouse move, then a right-click at center. Entirely
// best-effort; any failure is logged and swallowed.
func (n *Navigator) activate() {
	time.Sleep(n.preWait)
	if err := n.page.Press("PageDown"); err != nil {
		n.log.Warn("activation gesture failed",
			slog.String("step", "pagedown"),
			slog.Any("error", err))
		return
	}
	time.Sleep(n.keyWait)

	width, height := n.page.Viewport()
	centerX, centerY := float64(width)/2, float64(height)/2
	if err := n.page.MouseMove(centerX, centerY); err != nil {
		n.log.Warn("activation gesture failed",
			slog.String("step", "mouse_move"),
			slog.Any("error", err))
		return
	}
	if err := n.page.RightClick(centerX, centerY); err != nil {
		n.log.Warn("activation gesture failed",
			slog.String("step", "right_click"),
			slog.Any("error", err))
		return
	}
	time.Sleep(n.postWait)
	n.log.Debug("activation gesture complete")
}
