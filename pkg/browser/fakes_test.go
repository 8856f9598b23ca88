package browser

import (
	"errors"
	"sync"

	"github.com/playwright-community/playwright-go"
)

// Test fakes embed the playwright interfaces and override only the
// methods the code under test touches. Calling anything else panics,
// which is exactly what a test wants to hear about.

type fakeHandle struct {
	playwright.ElementHandle

	mu      sync.Mutex
	tag     string
	text    string
	attrs   map[string]string
	visible bool

	clicks    int
	clickErrs []error // error per attempt; exhausted list means success
	onClick   func()  // side effect of a successful click
	fills     []string
	fillErr   error
	evalExprs []string
	evalErr   error
	selected  []string
}

func newFakeHandle(tag, text string) *fakeHandle {
	return &fakeHandle{tag: tag, text: text, attrs: map[string]string{}, visible: true}
}

func (h *fakeHandle) IsVisible() (bool, error) {
	return h.visible, nil
}

func (h *fakeHandle) TextContent() (string, error) {
	return h.text, nil
}

func (h *fakeHandle) GetAttribute(name string) (string, error) {
	return h.attrs[name], nil
}

func (h *fakeHandle) Click(options ...playwright.ElementHandleClickOptions) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clicks++
	if len(h.clickErrs) > 0 {
		err := h.clickErrs[0]
		h.clickErrs = h.clickErrs[1:]
		return err
	}
	if h.onClick != nil {
		h.onClick()
	}
	return nil
}

func (h *fakeHandle) Fill(value string, options ...playwright.ElementHandleFillOptions) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.fillErr != nil {
		return h.fillErr
	}
	h.fills = append(h.fills, value)
	return nil
}

func (h *fakeHandle) Evaluate(expression string, options ...interface{}) (interface{}, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.evalExprs = append(h.evalExprs, expression)
	if h.evalErr != nil {
		return nil, h.evalErr
	}
	return nil, nil
}

func (h *fakeHandle) SelectOption(values playwright.SelectOptionValues, options ...playwright.ElementHandleSelectOptionOptions) ([]string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if values.Values != nil {
		h.selected = append(h.selected, *values.Values...)
	}
	return h.selected, nil
}

type fakeKeyboard struct {
	playwright.Keyboard

	mu      sync.Mutex
	pressed []string
}

func (k *fakeKeyboard) Press(key string, options ...playwright.KeyboardPressOptions) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.pressed = append(k.pressed, key)
	return nil
}

func (k *fakeKeyboard) keys() []string {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make([]string, len(k.pressed))
	copy(out, k.pressed)
	return out
}

type fakePage struct {
	playwright.Page

	mu       sync.Mutex
	url      string
	title    string
	closed   bool
	content  string
	keyboard *fakeKeyboard

	// selectors scripts QuerySelectorAll results per selector.
	selectors map[string][]playwright.ElementHandle

	// evalFn scripts Evaluate; nil falls back to per-script defaults.
	evalFn func(expression string, args []interface{}) (interface{}, error)

	// per-script canned results used when evalFn is nil
	structureSample string
	elementCount    int
	sample          map[string]interface{}
	focused         map[string]interface{}
	indexResult     interface{}

	gotoURLs []string
	gotoErr  error
}

func newFakePage(url string) *fakePage {
	return &fakePage{
		url:       url,
		title:     "Test Page",
		keyboard:  &fakeKeyboard{},
		selectors: map[string][]playwright.ElementHandle{},
		sample:    map[string]interface{}{"text": "hello", "interactive": float64(1)},
	}
}

func (p *fakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *fakePage) setURL(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.url = url
}

func (p *fakePage) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

func (p *fakePage) IsClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

func (p *fakePage) Content() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.content, nil
}

func (p *fakePage) QuerySelectorAll(selector string) ([]playwright.ElementHandle, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectors[selector], nil
}

func (p *fakePage) Evaluate(expression string, options ...interface{}) (interface{}, error) {
	p.mu.Lock()
	fn := p.evalFn
	p.mu.Unlock()

	if fn != nil {
		return fn(expression, options)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	switch expression {
	case structureSampleScript:
		return p.structureSample, nil
	case elementCountScript:
		return float64(p.elementCount), nil
	case contentSampleScript:
		return p.sample, nil
	case focusedSignalsScript:
		if p.focused == nil {
			return nil, nil
		}
		return p.focused, nil
	}
	if p.indexResult != nil {
		return p.indexResult, nil
	}
	return nil, errors.New("unscripted evaluate: " + truncateExpr(expression))
}

func (p *fakePage) WaitForLoadState(options ...playwright.PageWaitForLoadStateOptions) error {
	return nil
}

func (p *fakePage) OnDOMContentLoaded(fn func(playwright.Page)) {}
func (p *fakePage) OnLoad(fn func(playwright.Page))             {}
func (p *fakePage) OnFrameNavigated(fn func(playwright.Frame))  {}

func (p *fakePage) Keyboard() playwright.Keyboard {
	return p.keyboard
}

func (p *fakePage) Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gotoURLs = append(p.gotoURLs, url)
	if p.gotoErr != nil {
		return nil, p.gotoErr
	}
	p.url = url
	return nil, nil
}

func (p *fakePage) BringToFront() error {
	return nil
}

type fakeContext struct {
	playwright.BrowserContext

	mu     sync.Mutex
	pages  []playwright.Page
	onPage func(playwright.Page)
}

func (c *fakeContext) Pages() []playwright.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]playwright.Page, len(c.pages))
	copy(out, c.pages)
	return out
}

func (c *fakeContext) OnPage(fn func(playwright.Page)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onPage = fn
}

// openPage simulates the browser opening a new page: it joins the live
// set and the new-page event fires.
func (c *fakeContext) openPage(page playwright.Page) {
	c.mu.Lock()
	c.pages = append(c.pages, page)
	fn := c.onPage
	c.mu.Unlock()
	if fn != nil {
		fn(page)
	}
}

func truncateExpr(expr string) string {
	if len(expr) > 40 {
		return expr[:40] + "..."
	}
	return expr
}
