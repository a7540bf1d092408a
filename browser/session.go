// Package browser owns the automation session: one driver, one Chromium
// process, one isolated context, one page. Everything above it talks to
// the page through the Page and Element abstractions so the engine can be
// exercised without a real browser.
package browser

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	pw "github.com/playwright-community/playwright-go"
)

// Options configures a browser session.
type Options struct {
	Headless       bool
	SlowMo         time.Duration // ignored when headless
	UserAgent      string
	ViewportWidth  int
	ViewportHeight int
}

// Session is one live browser automation session. At most one should be
// alive per scraper instance.
type Session struct {
	driver  *pw.Playwright
	browser pw.Browser
	context pw.BrowserContext
	page    pw.Page
	opts    Options
	log     *slog.Logger
}

// Start launches a fresh session with an empty browsing context.
func Start(opts Options, log *slog.Logger) (*Session, error) {
	return launch(opts, "", log)
}

// LoadOrStart launches a session seeded from the storage-state file at
// statePath when it exists, and falls back to a fresh start otherwise.
func LoadOrStart(opts Options, statePath string, log *slog.Logger) (*Session, error) {
	resolved := resolveStatePath(statePath)
	if statePath != "" && resolved == "" {
		log.Info("no saved session state, starting fresh", slog.String("path", statePath))
	}
	return launch(opts, resolved, log)
}

// resolveStatePath returns path when it names an existing file, else "".
func resolveStatePath(path string) string {
	if path == "" {
		return ""
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return ""
	}
	return path
}

func launch(opts Options, statePath string, log *slog.Logger) (*Session, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Session{opts: opts, log: log}

	driver, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright driver: %w", err)
	}
	s.driver = driver

	slowMo := float64(opts.SlowMo.Milliseconds())
	if opts.Headless {
		slowMo = 0
	}
	b, err := driver.Chromium.Launch(pw.BrowserTypeLaunchOptions{
		Headless: pw.Bool(opts.Headless),
		SlowMo:   pw.Float(slowMo),
	})
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	s.browser = b

	ctxOpts := pw.BrowserNewContextOptions{
		Viewport: &pw.Size{
			Width:  opts.ViewportWidth,
			Height: opts.ViewportHeight,
		},
		UserAgent: pw.String(opts.UserAgent),
	}
	if statePath != "" {
		ctxOpts.StorageStatePath = pw.String(statePath)
		log.Info("seeding context from saved session state", slog.String("path", statePath))
	}
	context, err := b.NewContext(ctxOpts)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create browser context: %w", err)
	}
	s.context = context

	page, err := context.NewPage()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("open page: %w", err)
	}
	s.page = page

	log.Info("browser session started",
		slog.Bool("headless", opts.Headless),
		slog.Int("viewport_width", opts.ViewportWidth),
		slog.Int("viewport_height", opts.ViewportHeight),
	)
	return s, nil
}

// Page returns the live page wrapped in the engine-facing abstraction.
func (s *Session) Page() Page {
	return &pwPage{
		page:   s.page,
		width:  s.opts.ViewportWidth,
		height: s.opts.ViewportHeight,
	}
}

// SaveState serializes the context's cookies and storage to path. It is a
// no-op when no session is live.
func (s *Session) SaveState(path string) error {
	if s == nil || s.context == nil {
		return nil
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state directory: %w", err)
		}
	}
	if _, err := s.context.StorageState(path); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}
	s.log.Info("session state saved", slog.String("path", path))
	return nil
}

// Close tears down page, context, browser, and driver in that order. Every
// stage tolerates being nil, so Close is safe after a partial startup
// failure and on repeat calls.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var errs []error
	if s.page != nil {
		if err := s.page.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close page: %w", err))
		}
		s.page = nil
	}
	if s.context != nil {
		if err := s.context.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close context: %w", err))
		}
		s.context = nil
	}
	if s.browser != nil {
		if err := s.browser.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close browser: %w", err))
		}
		s.browser = nil
	}
	if s.driver != nil {
		if err := s.driver.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("stop driver: %w", err))
		}
		s.driver = nil
	}
	return errors.Join(errs...)
}
