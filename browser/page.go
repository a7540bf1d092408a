package browser

import (
	"time"

	pw "github.com/playwright-community/playwright-go"
)

// ClickOptions tunes a single click attempt.
type ClickOptions struct {
	Force   bool
	Timeout time.Duration
}

// Element is a handle on zero or more matched page nodes. Script-injection
// fallbacks run through Evaluate so tests can observe and stub them.
type Element interface {
	Count() (int, error)
	Visible() (bool, error)
	Click(opts ClickOptions) error
	Evaluate(script string) (any, error)
	First() Element
	Nth(index int) Element
}

// Page is the surface the engine drives. All waits block the caller.
type Page interface {
	Goto(url string, timeout time.Duration) error
	WaitForQuiet(timeout time.Duration) error
	Press(key string) error
	MouseMove(x, y float64) error
	RightClick(x, y float64) error
	Locate(selector string) Element
	LocateText(text string, exact bool) Element
	Evaluate(script string) (any, error)
	Content() (string, error)
	Title() (string, error)
	URL() string
	Viewport() (width, height int)
}

type pwPage struct {
	page   pw.Page
	width  int
	height int
}

func (p *pwPage) Goto(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, pw.PageGotoOptions{
		Timeout:   pw.Float(float64(timeout.Milliseconds())),
		WaitUntil: pw.WaitUntilStateDomcontentloaded,
	})
	return err
}

func (p *pwPage) WaitForQuiet(timeout time.Duration) error {
	return p.page.WaitForLoadState(pw.PageWaitForLoadStateOptions{
		State:   pw.LoadStateNetworkidle,
		Timeout: pw.Float(float64(timeout.Milliseconds())),
	})
}

func (p *pwPage) Press(key string) error {
	return p.page.Keyboard().Press(key)
}

func (p *pwPage) MouseMove(x, y float64) error {
	return p.page.Mouse().Move(x, y)
}

func (p *pwPage) RightClick(x, y float64) error {
	return p.page.Mouse().Click(x, y, pw.MouseClickOptions{
		Button: pw.MouseButtonRight,
	})
}

func (p *pwPage) Locate(selector string) Element {
	return &pwElement{loc: p.page.Locator(selector)}
}

func (p *pwPage) LocateText(text string, exact bool) Element {
	return &pwElement{loc: p.page.GetByText(text, pw.PageGetByTextOptions{
		Exact: pw.Bool(exact),
	})}
}

func (p *pwPage) Evaluate(script string) (any, error) {
	return p.page.Evaluate(script)
}

func (p *pwPage) Content() (string, error) {
	return p.page.Content()
}

func (p *pwPage) Title() (string, error) {
	return p.page.Title()
}

func (p *pwPage) URL() string {
	return p.page.URL()
}

func (p *pwPage) Viewport() (int, int) {
	return p.width, p.height
}

type pwElement struct {
	loc pw.Locator
}

func (e *pwElement) Count() (int, error) {
	return e.loc.Count()
}

func (e *pwElement) Visible() (bool, error) {
	return e.loc.IsVisible()
}

func (e *pwElement) Click(opts ClickOptions) error {
	clickOpts := pw.LocatorClickOptions{}
	if opts.Force {
		clickOpts.Force = pw.Bool(true)
	}
	if opts.Timeout > 0 {
		clickOpts.Timeout = pw.Float(float64(opts.Timeout.Milliseconds()))
	}
	return e.loc.Click(clickOpts)
}

func (e *pwElement) Evaluate(script string) (any, error) {
	return e.loc.Evaluate(script, nil)
}

func (e *pwElement) First() Element {
	return &pwElement{loc: e.loc.First()}
}

func (e *pwElement) Nth(index int) Element {
	return &pwElement{loc: e.loc.Nth(index)}
}
