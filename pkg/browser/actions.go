package browser

import (
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/sentrahq/sentra/pkg/dom"
)

// ActionResult reports what an action observed. Navigated tells the
// caller whether a re-index is needed before addressing more elements.
type ActionResult struct {
	Navigated bool
	Attempts  int
	URL       string
}

// pageFingerprint is the pre-action capture a navigation check compares
// against.
type pageFingerprint struct {
	URL  string
	Hash uint64
}

// captureFingerprint records the page identity before an action. Hash
// failures leave zero, which simply weakens the later comparison.
func (c *Controller) captureFingerprint(page playwright.Page) pageFingerprint {
	fp := pageFingerprint{URL: safeURL(page)}
	if hash, err := Fingerprint(page, c.cfg.Detection.FingerprintSampleSize); err == nil {
		fp.Hash = hash
	}
	return fp
}

// detectNavigation runs the bounded post-action loop: cheap URL compare
// first, then a structural-hash compare only when the URL held still.
// Expiry is soft; the action result just reports navigation unconfirmed.
func (c *Controller) detectNavigation(page playwright.Page, pre pageFingerprint) bool {
	deadline := time.Now().Add(c.cfg.Actions.NavigationWait)
	for time.Now().Before(deadline) {
		if page.IsClosed() {
			return true
		}
		if safeURL(page) != pre.URL {
			return true
		}
		if pre.Hash != 0 {
			if hash, err := Fingerprint(page, c.cfg.Detection.FingerprintSampleSize); err == nil && hash != pre.Hash {
				return true
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// afterAction settles a completed action: navigation is detected, counters
// and caches update, and a navigation schedules nothing further here — the
// state monitor's own refresh drives re-indexing.
func (c *Controller) afterAction(page playwright.Page, pre pageFingerprint) ActionResult {
	navigated := c.detectNavigation(page, pre)
	if navigated {
		c.recordNavigation()
		c.locator.Invalidate()
		c.monitor.Refresh("action")
	}
	return ActionResult{Navigated: navigated, URL: safeURL(page)}
}

// Click resolves an index and clicks it with escalating strength:
// a standard click, then a forced click that skips actionability checks,
// then a synthetic click dispatched in-page. Bounded attempts with linear
// backoff.
func (c *Controller) Click(index int) (ActionResult, error) {
	c.recordAttempt()

	page := c.ActivePage()
	if page == nil {
		c.recordFailure()
		return ActionResult{}, ErrNoActivePage
	}

	handle, err := c.locator.Locate(index)
	if err != nil {
		c.recordFailure()
		return ActionResult{}, err
	}

	pre := c.captureFingerprint(page)
	timeout := playwright.Float(float64(c.cfg.Browser.ActionTimeout.Milliseconds()))

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= c.cfg.Actions.MaxAttempts; attempt++ {
		attempts = attempt
		switch attempt {
		case 1:
			lastErr = handle.Click(playwright.ElementHandleClickOptions{Timeout: timeout})
		case 2:
			lastErr = handle.Click(playwright.ElementHandleClickOptions{
				Force:   playwright.Bool(true),
				Timeout: timeout,
			})
		default:
			_, lastErr = handle.Evaluate("el => el.click()")
		}
		if lastErr == nil {
			break
		}
		c.log.Debugf("Click attempt %d on index %d failed: %v", attempt, index, lastErr)
		time.Sleep(time.Duration(attempt) * c.cfg.Actions.RetryBackoff)
	}
	if lastErr != nil {
		c.recordFailure()
		return ActionResult{Attempts: attempts}, fmt.Errorf("click on element %d failed: %w", index, lastErr)
	}

	result := c.afterAction(page, pre)
	result.Attempts = attempts
	c.recordSuccess()
	return result, nil
}

// Type resolves an index, validates it can receive text, and fills it.
// Wrong-kind and disabled targets fail fast with NotEditableError before
// the fill primitive is ever invoked.
func (c *Controller) Type(index int, text string) (ActionResult, error) {
	c.recordAttempt()

	page := c.ActivePage()
	if page == nil {
		c.recordFailure()
		return ActionResult{}, ErrNoActivePage
	}

	element, ok := c.Element(index)
	if !ok {
		c.recordFailure()
		return ActionResult{}, &ElementNotFoundError{Index: index, Attempted: []string{"snapshot"}}
	}

	switch dom.ClassifyEditability(element) {
	case dom.NotEditable:
		c.recordFailure()
		return ActionResult{}, &NotEditableError{Index: index, Tag: element.Tag, Reason: ReasonWrongKind}
	case dom.EditDisabled:
		c.recordFailure()
		return ActionResult{}, &NotEditableError{Index: index, Tag: element.Tag, Reason: ReasonDisabled}
	}

	handle, err := c.locator.Locate(index)
	if err != nil {
		c.recordFailure()
		return ActionResult{}, err
	}

	pre := c.captureFingerprint(page)
	timeout := playwright.Float(float64(c.cfg.Browser.ActionTimeout.Milliseconds()))

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= c.cfg.Actions.MaxAttempts; attempt++ {
		attempts = attempt
		switch attempt {
		case 1:
			lastErr = handle.Fill(text, playwright.ElementHandleFillOptions{Timeout: timeout})
		case 2:
			if lastErr = handle.Click(playwright.ElementHandleClickOptions{
				Force:   playwright.Bool(true),
				Timeout: timeout,
			}); lastErr == nil {
				lastErr = handle.Fill(text, playwright.ElementHandleFillOptions{
					Force:   playwright.Bool(true),
					Timeout: timeout,
				})
			}
		default:
			// Synthetic fallback: set the value and fire the events a real
			// keyboard would.
			_, lastErr = handle.Evaluate(`(el, value) => {
				el.focus();
				el.value = value;
				el.dispatchEvent(new Event('input', { bubbles: true }));
				el.dispatchEvent(new Event('change', { bubbles: true }));
			}`, text)
		}
		if lastErr == nil {
			break
		}
		c.log.Debugf("Type attempt %d on index %d failed: %v", attempt, index, lastErr)
		time.Sleep(time.Duration(attempt) * c.cfg.Actions.RetryBackoff)
	}
	if lastErr != nil {
		c.recordFailure()
		return ActionResult{Attempts: attempts}, fmt.Errorf("type into element %d failed: %w", index, lastErr)
	}

	result := c.afterAction(page, pre)
	result.Attempts = attempts
	c.recordSuccess()
	return result, nil
}

// focusedSignalsScript reads the identifying attributes of the element
// holding focus, for Enter-key context classification.
const focusedSignalsScript = `() => {
	const el = document.activeElement;
	if (!el || el === document.body) return null;
	return {
		tag: el.tagName.toLowerCase(),
		type: el.getAttribute('type') || '',
		name: el.getAttribute('name') || '',
		id: el.id || '',
		class: typeof el.className === 'string' ? el.className : '',
		placeholder: el.getAttribute('placeholder') || '',
		role: el.getAttribute('role') || ''
	};
}`

// focusedSignals reads the focus signals, degrading to empty signals (and
// therefore ContextNone) on any failure.
func focusedSignals(page playwright.Page) FocusSignals {
	result, err := page.Evaluate(focusedSignalsScript)
	if err != nil {
		return FocusSignals{}
	}
	m, ok := result.(map[string]interface{})
	if !ok {
		return FocusSignals{}
	}
	str := func(key string) string {
		if s, ok := m[key].(string); ok {
			return s
		}
		return ""
	}
	return FocusSignals{
		Tag:         str("tag"),
		Type:        str("type"),
		Name:        str("name"),
		ID:          str("id"),
		Class:       str("class"),
		Placeholder: str("placeholder"),
		Role:        str("role"),
	}
}

// PressKey sends a key (with optional modifiers) to the page. Enter gets
// context-sensitive handling: submit-and-await-navigation for search-like
// inputs, buttons and links; focus advance for generic form fields; a
// plain forward otherwise.
func (c *Controller) PressKey(key string, modifiers []string) (ActionResult, error) {
	c.recordAttempt()

	page := c.ActivePage()
	if page == nil {
		c.recordFailure()
		return ActionResult{}, ErrNoActivePage
	}

	combo := key
	if len(modifiers) > 0 {
		combo = strings.Join(modifiers, "+") + "+" + key
	}

	if strings.EqualFold(key, "Enter") && len(modifiers) == 0 {
		result, err := c.pressEnter(page)
		if err != nil {
			c.recordFailure()
			return result, err
		}
		c.recordSuccess()
		return result, nil
	}

	pre := c.captureFingerprint(page)
	if err := page.Keyboard().Press(combo); err != nil {
		c.recordFailure()
		return ActionResult{}, fmt.Errorf("key press %q failed: %w", combo, err)
	}

	result := c.afterAction(page, pre)
	result.Attempts = 1
	c.recordSuccess()
	return result, nil
}

// pressEnter classifies the focused element and picks the Enter branch.
func (c *Controller) pressEnter(page playwright.Page) (ActionResult, error) {
	c.mu.Lock()
	classifier := c.classifier
	c.mu.Unlock()

	signals := focusedSignals(page)
	context := classifier.Classify(signals)
	c.log.Debugf("Enter pressed with focus context %s (tag=%s)", context, signals.Tag)

	pre := c.captureFingerprint(page)

	switch context {
	case ContextFormField:
		// Advance to the next field instead of submitting a half-filled
		// form.
		if err := page.Keyboard().Press("Tab"); err != nil {
			return ActionResult{}, fmt.Errorf("focus advance failed: %w", err)
		}
		return ActionResult{Attempts: 1, URL: safeURL(page)}, nil

	case ContextSearchInput, ContextButton, ContextLink:
		if err := page.Keyboard().Press("Enter"); err != nil {
			return ActionResult{}, fmt.Errorf("enter press failed: %w", err)
		}
		result := c.afterAction(page, pre)
		result.Attempts = 1
		return result, nil

	default:
		if err := page.Keyboard().Press("Enter"); err != nil {
			return ActionResult{}, fmt.Errorf("enter press failed: %w", err)
		}
		return ActionResult{Attempts: 1, URL: safeURL(page)}, nil
	}
}

// Navigate drives the page to a URL and waits for content load within the
// configured bound. A timeout is soft: the result is returned with the
// navigation flag reflecting what actually happened.
func (c *Controller) Navigate(url string) (ActionResult, error) {
	c.recordAttempt()

	page := c.ActivePage()
	if page == nil {
		c.recordFailure()
		return ActionResult{}, ErrNoActivePage
	}

	pre := c.captureFingerprint(page)

	_, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(c.cfg.Browser.NavigationTimeout.Milliseconds())),
	})
	if err != nil {
		// Goto timeouts frequently race real navigations; check before
		// declaring failure.
		if safeURL(page) == pre.URL {
			c.recordFailure()
			return ActionResult{}, fmt.Errorf("navigation to %s failed: %w", url, err)
		}
		c.log.Warnf("Navigation wait to %s expired but URL changed, continuing: %v", url, err)
	}

	result := c.afterAction(page, pre)
	result.Attempts = 1
	c.recordSuccess()
	return result, nil
}

// ScrollDirection names a scroll axis and sense.
type ScrollDirection string

const (
	ScrollDown ScrollDirection = "down"
	ScrollUp   ScrollDirection = "up"
)

// Scroll moves the viewport by the given number of pixels (one viewport
// height when amount is 0). Scrolling changes which elements are in the
// indexable viewport, so the result always recommends re-indexing.
func (c *Controller) Scroll(direction ScrollDirection, amount int) (ActionResult, error) {
	c.recordAttempt()

	page := c.ActivePage()
	if page == nil {
		c.recordFailure()
		return ActionResult{}, ErrNoActivePage
	}

	if amount <= 0 {
		amount = c.cfg.Browser.ViewportHeight
	}
	delta := amount
	if direction == ScrollUp {
		delta = -amount
	}

	if _, err := page.Evaluate("dy => window.scrollBy(0, dy)", delta); err != nil {
		c.recordFailure()
		return ActionResult{}, fmt.Errorf("scroll failed: %w", err)
	}

	c.recordSuccess()
	// Viewport moved: indices may now cover different elements.
	return ActionResult{Navigated: true, Attempts: 1, URL: safeURL(page)}, nil
}

// SelectOption picks an option on a select element by value or label.
func (c *Controller) SelectOption(index int, value string) (ActionResult, error) {
	c.recordAttempt()

	page := c.ActivePage()
	if page == nil {
		c.recordFailure()
		return ActionResult{}, ErrNoActivePage
	}

	element, ok := c.Element(index)
	if !ok {
		c.recordFailure()
		return ActionResult{}, &ElementNotFoundError{Index: index, Attempted: []string{"snapshot"}}
	}
	if !strings.EqualFold(element.Tag, "select") {
		c.recordFailure()
		return ActionResult{}, &NotEditableError{Index: index, Tag: element.Tag, Reason: ReasonWrongKind}
	}
	if dom.ClassifyEditability(element) == dom.EditDisabled {
		c.recordFailure()
		return ActionResult{}, &NotEditableError{Index: index, Tag: element.Tag, Reason: ReasonDisabled}
	}

	handle, err := c.locator.Locate(index)
	if err != nil {
		c.recordFailure()
		return ActionResult{}, err
	}

	pre := c.captureFingerprint(page)

	if _, err := handle.SelectOption(playwright.SelectOptionValues{
		Values: &[]string{value},
	}); err != nil {
		c.recordFailure()
		return ActionResult{}, fmt.Errorf("select option %q on element %d failed: %w", value, index, err)
	}

	result := c.afterAction(page, pre)
	result.Attempts = 1
	c.recordSuccess()
	return result, nil
}
