package scraper

import (
	"log/slog"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/browser"
	"github.com/aluiziolira/go-scrape-reviews/config"
)

// In-page scripts for the last-resort fallbacks. Both run through
// Element.Evaluate so tests can observe them without a browser.
const (
	neutralizeOverlayScript = `el => { el.style.pointerEvents = 'none'; el.style.opacity = '0'; }`
	domClickScript          = `el => el.click()`
)

// overlaySettle is how long the page gets to react after a dismissal.
const overlaySettle = 200 * time.Millisecond

// Interactor makes best-effort UI actions land despite blocking overlays
// and pointer-event interception. Failures never propagate out of it;
// callers branch on the returned booleans.
type Interactor struct {
	page    browser.Page
	cfg     *config.Config
	metrics *Metrics
	log     *slog.Logger
}

// NewInteractor wires an interactor to a live page.
func NewInteractor(page browser.Page, cfg *config.Config, metrics *Metrics, log *slog.Logger) *Interactor {
	if log == nil {
		log = slog.Default()
	}
	return &Interactor{page: page, cfg: cfg, metrics: metrics, log: log}
}

// dismissStrategy is one step of the overlay fallback chain.
type dismissStrategy struct {
	name string
	run  func(overlay browser.Element) error
}

// DismissOverlay looks for a blocking overlay and tries to defeat it:
// click it away, send Escape, then neutralize its styles in-page. The
// first strategy that does not fail wins. Finding no overlay is a normal
// result, not an error.
func (ix *Interactor) DismissOverlay() bool {
	overlay := ix.page.Locate(ix.cfg.OverlaySelector)
	count, err := overlay.Count()
	if err != nil || count == 0 {
		return false
	}
	first := overlay.First()
	visible, err := first.Visible()
	if err != nil || !visible {
		return false
	}

	ix.log.Info("blocking overlay detected", slog.String("selector", ix.cfg.OverlaySelector))

	strategies := []dismissStrategy{
		{name: "click", run: func(el browser.Element) error {
			return el.Click(browser.ClickOptions{Timeout: ix.cfg.ForceClickTimeout})
		}},
		{name: "escape", run: func(el browser.Element) error {
			return ix.page.Press("Escape")
		}},
		{name: "neutralize", run: func(el browser.Element) error {
			_, err := el.Evaluate(neutralizeOverlayScript)
			return err
		}},
	}
	for _, strategy := range strategies {
		if err := strategy.run(first); err != nil {
			ix.log.Debug("overlay dismissal strategy failed",
				slog.String("strategy", strategy.name),
				slog.Any("error", err))
			continue
		}
		time.Sleep(overlaySettle)
		ix.metrics.IncOverlayDismissal(strategy.name)
		ix.log.Info("overlay dismissed", slog.String("strategy", strategy.name))
		return true
	}

	ix.log.Warn("overlay resisted every dismissal strategy")
	return false
}

// clickAttempt is one step of the resilient click sequence.
type clickAttempt struct {
	name string
	opts browser.ClickOptions
}

// ClickResilient clicks el, first normally, then with the interactability
// checks bypassed. Reports whether any attempt landed.
func (ix *Interactor) ClickResilient(el browser.Element) bool {
	attempts := []clickAttempt{
		{name: "normal", opts: browser.ClickOptions{Timeout: ix.cfg.ClickTimeout}},
		{name: "forced", opts: browser.ClickOptions{Force: true, Timeout: ix.cfg.ForceClickTimeout}},
	}
	for _, attempt := range attempts {
		if err := el.Click(attempt.opts); err != nil {
			ix.log.Debug("click attempt failed",
				slog.String("method", attempt.name),
				slog.Any("error", err))
			continue
		}
		ix.metrics.IncClick(attempt.name)
		return true
	}
	return false
}

// ClickWithOverlayRecovery is the full escalation: resilient click, overlay
// dismissal and one retry, then a DOM-level click dispatched on an
// exact-text match. The text fallback exists because the attribute locator
// itself may be what the overlay occludes.
func (ix *Interactor) ClickWithOverlayRecovery(el browser.Element, fallbackText string) bool {
	if ix.ClickResilient(el) {
		return true
	}
	ix.DismissOverlay()
	if ix.ClickResilient(el) {
		return true
	}

	if fallbackText == "" {
		return false
	}
	fallback := ix.page.LocateText(fallbackText, true).First()
	count, err := fallback.Count()
	if err != nil || count == 0 {
		ix.log.Debug("no exact-text fallback on page", slog.String("text", fallbackText))
		return false
	}
	if _, err := fallback.Evaluate(domClickScript); err != nil {
		ix.log.Debug("DOM-level click failed",
			slog.String("text", fallbackText),
			slog.Any("error", err))
		return false
	}
	ix.metrics.IncClick("dom")
	ix.log.Info("clicked via DOM dispatch", slog.String("text", fallbackText))
	return true
}
