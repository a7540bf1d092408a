package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aluiziolira/go-scrape-reviews/browser"
	"github.com/aluiziolira/go-scrape-reviews/config"
	"github.com/aluiziolira/go-scrape-reviews/models"
)

// fakePage implements browser.Page against in-memory state. Elements are
// registered per selector; unregistered selectors resolve to an empty
// element whose clicks succeed.
type fakePage struct {
	elements map[string]*fakeElement
	textEls  map[string]*fakeElement

	gotoErr    func(url string, call int) error
	gotoCalls  []string
	title      string
	content    string
	contentErr error
	pressed    []string
	pressErr   error
	quietErr   error
	quietCalls int
	moves      int
	rightAt    int
	mouseErr   error
}

func newFakePage() *fakePage {
	return &fakePage{
		elements: make(map[string]*fakeElement),
		textEls:  make(map[string]*fakeElement),
		title:    "Grand Palace Hotel - Agoda",
		content:  "<html><body>fixture</body></html>",
	}
}

func (p *fakePage) Goto(url string, _ time.Duration) error {
	p.gotoCalls = append(p.gotoCalls, url)
	if p.gotoErr != nil {
		return p.gotoErr(url, len(p.gotoCalls))
	}
	return nil
}

func (p *fakePage) WaitForQuiet(_ time.Duration) error {
	p.quietCalls++
	return p.quietErr
}

func (p *fakePage) Press(key string) error {
	p.pressed = append(p.pressed, key)
	return p.pressErr
}

func (p *fakePage) MouseMove(_, _ float64) error {
	if p.mouseErr != nil {
		return p.mouseErr
	}
	p.moves++
	return nil
}

func (p *fakePage) RightClick(_, _ float64) error {
	if p.mouseErr != nil {
		return p.mouseErr
	}
	p.rightAt++
	return nil
}

func (p *fakePage) Locate(selector string) browser.Element {
	if el, ok := p.elements[selector]; ok {
		return el
	}
	return &fakeElement{}
}

func (p *fakePage) LocateText(text string, _ bool) browser.Element {
	if el, ok := p.textEls[text]; ok {
		return el
	}
	return &fakeElement{}
}

func (p *fakePage) Evaluate(_ string) (any, error) {
	return nil, nil
}

func (p *fakePage) Content() (string, error) {
	return p.content, p.contentErr
}

func (p *fakePage) Title() (string, error) {
	return p.title, nil
}

func (p *fakePage) URL() string {
	return ""
}

func (p *fakePage) Viewport() (int, int) {
	return 1920, 1080
}

// fakeElement implements browser.Element. clickQueue, when non-empty,
// serves one result per click before falling back to clickErr.
type fakeElement struct {
	count      int
	countErr   error
	visible    bool
	visibleErr error
	clickErr   error
	clickQueue []error
	evalErr    error

	clicks   []browser.ClickOptions
	evals    []string
	children []*fakeElement
}

func (f *fakeElement) Count() (int, error) {
	return f.count, f.countErr
}

func (f *fakeElement) Visible() (bool, error) {
	return f.visible, f.visibleErr
}

func (f *fakeElement) Click(opts browser.ClickOptions) error {
	f.clicks = append(f.clicks, opts)
	if len(f.clickQueue) > 0 {
		err := f.clickQueue[0]
		f.clickQueue = f.clickQueue[1:]
		return err
	}
	return f.clickErr
}

func (f *fakeElement) Evaluate(script string) (any, error) {
	f.evals = append(f.evals, script)
	return nil, f.evalErr
}

func (f *fakeElement) First() browser.Element {
	return f
}

func (f *fakeElement) Nth(index int) browser.Element {
	if index < len(f.children) {
		return f.children[index]
	}
	return f
}

// fakeQuerier serves canned extraction payloads through the same JSON
// decode path the real client uses. Review pages are served in call order;
// cycle makes them repeat for long runs.
type fakeQuerier struct {
	hotels    []models.HotelSummary
	hotelsErr error

	stats    *models.OverallStats
	statsErr error

	reviewPages [][]models.Review
	reviewErrs  map[int]error
	cycle       bool

	listCalls   int
	statsCalls  int
	reviewCalls int

	onExtract func(schema string, call int)
}

func (q *fakeQuerier) Extract(_ context.Context, _, schema string, out any) error {
	switch schema {
	case hotelListSchema:
		q.listCalls++
		if q.onExtract != nil {
			q.onExtract(schema, q.listCalls)
		}
		if q.hotelsErr != nil {
			return q.hotelsErr
		}
		return decodeInto(out, map[string]any{"hotels": q.hotels})
	case overallStatsSchema:
		q.statsCalls++
		if q.onExtract != nil {
			q.onExtract(schema, q.statsCalls)
		}
		if q.statsErr != nil {
			return q.statsErr
		}
		if q.stats == nil {
			return decodeInto(out, map[string]any{})
		}
		return decodeInto(out, q.stats)
	case reviewsSchema:
		call := q.reviewCalls
		q.reviewCalls++
		if q.onExtract != nil {
			q.onExtract(schema, q.reviewCalls)
		}
		if err, ok := q.reviewErrs[call]; ok {
			return err
		}
		var page []models.Review
		if q.cycle && len(q.reviewPages) > 0 {
			page = q.reviewPages[call%len(q.reviewPages)]
		} else if call < len(q.reviewPages) {
			page = q.reviewPages[call]
		}
		return decodeInto(out, map[string]any{"reviews": page})
	default:
		return fmt.Errorf("unexpected schema: %q", schema)
	}
}

func decodeInto(out, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// fakeSink records every checkpointed batch.
type fakeSink struct {
	saves [][]*models.HotelReviews
	err   error
}

func (s *fakeSink) Save(batch []*models.HotelReviews) error {
	snapshot := make([]*models.HotelReviews, len(batch))
	copy(snapshot, batch)
	s.saves = append(s.saves, snapshot)
	return s.err
}

func (s *fakeSink) last() []*models.HotelReviews {
	if len(s.saves) == 0 {
		return nil
	}
	return s.saves[len(s.saves)-1]
}

func newTestConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Origin = "https://hotels.example.test"
	cfg.SeedURL = "https://hotels.example.test/search"
	cfg.OverlaySelector = "div.backdrop"
	cfg.RevealSelector = "button.reveal"
	cfg.RevealText = "Read all reviews"
	cfg.NextSelectors = []string{"button.next"}
	cfg.MaxHotels = 3
	cfg.ReviewQuota = 20
	cfg.SettleDelay = 0
	cfg.RetryDelay = 0
	cfg.QuietFallback = 0
	cfg.ScrollPause = 0
	cfg.TargetPause = 0
	return cfg
}

func newTestEngine(tb testing.TB, cfg *config.Config, page *fakePage, querier Querier, sink Checkpointer) *Engine {
	tb.Helper()
	engine, err := NewEngine(cfg, page, querier, sink, testLogger())
	if err != nil {
		tb.Fatalf("new engine: %v", err)
	}
	engine.nav.preWait = 0
	engine.nav.keyWait = 0
	engine.nav.postWait = 0
	return engine
}

func newTestInteractor(page *fakePage, cfg *config.Config) *Interactor {
	return NewInteractor(page, cfg, NewMetrics(), testLogger())
}

func newTestNavigator(page *fakePage, cfg *config.Config) *Navigator {
	nav := NewNavigator(page, cfg, NewMetrics(), testLogger())
	nav.preWait = 0
	nav.keyWait = 0
	nav.postWait = 0
	return nav
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func makeReviews(n int, prefix string) []models.Review {
	reviews := make([]models.Review, n)
	for i := range reviews {
		score := 8.5
		reviews[i] = models.Review{
			Score:     &score,
			ScoreText: "Excellent",
			Name:      fmt.Sprintf("%s-%d", prefix, i+1),
			Country:   "Brazil",
			Title:     "Great stay",
			Text:      "Clean rooms and friendly staff.",
			Date:      "July 2025",
		}
	}
	return reviews
}
