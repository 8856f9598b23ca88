package browser

import (
	"errors"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// controllerWith wires a controller over one fake page with the given
// indexed elements and a locator primed by a real detection pass.
func controllerWith(t *testing.T, page *fakePage, elements ...map[string]interface{}) *Controller {
	t.Helper()
	page.indexResult = indexResultFor(elements...)

	c, _ := newTestController(page)
	c.SetActivePage(page)
	require.NotNil(t, c.Snapshot())
	return c
}

func TestClickReportsNavigation(t *testing.T) {
	page := newFakePage("https://example.com")
	handle := newFakeHandle("button", "Checkout")
	handle.onClick = func() {
		page.setURL("https://example.com/checkout")
	}
	page.selectors[indexSelector(0)] = []playwright.ElementHandle{handle}

	c := controllerWith(t, page, elementNode("button", "Checkout", "#checkout", nil))

	result, err := c.Click(0)
	require.NoError(t, err)
	assert.True(t, result.Navigated)
	assert.Equal(t, 1, result.Attempts)
	assert.Equal(t, "https://example.com/checkout", result.URL)
	assert.Equal(t, 1, handle.clicks)
}

func TestClickDetectsStructuralSwapWithoutURLChange(t *testing.T) {
	// SPA-style: the click replaces content but the URL holds still, so the
	// structural hash is what gives the navigation away.
	page := newFakePage("https://example.com/app")
	page.structureSample = "html|body|div#list"
	handle := newFakeHandle("button", "Load more")
	handle.onClick = func() {
		page.mu.Lock()
		page.structureSample = "html|body|div#list|div#extra"
		page.mu.Unlock()
	}
	page.selectors[indexSelector(0)] = []playwright.ElementHandle{handle}

	c := controllerWith(t, page, elementNode("button", "Load more", "#more", nil))

	result, err := c.Click(0)
	require.NoError(t, err)
	assert.True(t, result.Navigated)
}

func TestClickEscalatesThroughAttempts(t *testing.T) {
	page := newFakePage("https://example.com")
	handle := newFakeHandle("button", "Go")
	handle.clickErrs = []error{
		errors.New("element is covered"),
		errors.New("element is covered"),
	}
	page.selectors[indexSelector(0)] = []playwright.ElementHandle{handle}

	c := controllerWith(t, page, elementNode("button", "Go", "#go", nil))

	result, err := c.Click(0)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, 2, handle.clicks)
	assert.Contains(t, handle.evalExprs, "el => el.click()")
}

func TestClickExhaustsAttempts(t *testing.T) {
	page := newFakePage("https://example.com")
	handle := newFakeHandle("button", "Go")
	handle.clickErrs = []error{
		errors.New("element is covered"),
		errors.New("element is covered"),
	}
	handle.evalErr = errors.New("element detached")
	page.selectors[indexSelector(0)] = []playwright.ElementHandle{handle}

	c := controllerWith(t, page, elementNode("button", "Go", "#go", nil))
	before := c.Stats()

	_, err := c.Click(0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "click on element 0 failed")
	assert.Equal(t, before.Failures+1, c.Stats().Failures)
}

func TestClickUnknownIndex(t *testing.T) {
	page := newFakePage("https://example.com")
	c := controllerWith(t, page, elementNode("button", "Go", "#go", nil))

	_, err := c.Click(12)
	var notFound *ElementNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 12, notFound.Index)
}

func TestTypeFillsEditableElement(t *testing.T) {
	page := newFakePage("https://example.com")
	handle := newFakeHandle("input", "")
	page.selectors[indexSelector(0)] = []playwright.ElementHandle{handle}

	c := controllerWith(t, page, elementNode("input", "", "#search",
		map[string]interface{}{"type": "text", "name": "q"}))

	result, err := c.Type(0, "wireless keyboard")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempts)
	assert.False(t, result.Navigated)
	assert.Equal(t, []string{"wireless keyboard"}, handle.fills)
}

func TestTypeRejectsClickOnlyTarget(t *testing.T) {
	page := newFakePage("https://example.com")
	handle := newFakeHandle("a", "Home")
	page.selectors[indexSelector(0)] = []playwright.ElementHandle{handle}

	c := controllerWith(t, page, elementNode("a", "Home", "#home", nil))

	_, err := c.Type(0, "text")
	var notEditable *NotEditableError
	require.ErrorAs(t, err, &notEditable)
	assert.Equal(t, ReasonWrongKind, notEditable.Reason)
	assert.Empty(t, handle.fills, "fill must never reach a click-only target")
}

func TestTypeRejectsDisabledInput(t *testing.T) {
	page := newFakePage("https://example.com")
	handle := newFakeHandle("input", "")
	page.selectors[indexSelector(0)] = []playwright.ElementHandle{handle}

	c := controllerWith(t, page, elementNode("input", "", "#email",
		map[string]interface{}{"type": "text", "disabled": ""}))

	_, err := c.Type(0, "text")
	var notEditable *NotEditableError
	require.ErrorAs(t, err, &notEditable)
	assert.Equal(t, ReasonDisabled, notEditable.Reason)
	assert.Empty(t, handle.fills)
	assert.Zero(t, handle.clicks)
}

func TestTypeEscalatesToSyntheticInput(t *testing.T) {
	page := newFakePage("https://example.com")
	handle := newFakeHandle("input", "")
	handle.fillErr = errors.New("element not stable")
	page.selectors[indexSelector(0)] = []playwright.ElementHandle{handle}

	c := controllerWith(t, page, elementNode("input", "", "#search",
		map[string]interface{}{"type": "text"}))

	result, err := c.Type(0, "query")
	require.NoError(t, err)
	assert.Equal(t, 3, result.Attempts)
	require.NotEmpty(t, handle.evalExprs)
	assert.Contains(t, handle.evalExprs[len(handle.evalExprs)-1], "dispatchEvent")
}

func TestPressKeyWithModifiers(t *testing.T) {
	page := newFakePage("https://example.com")
	c := controllerWith(t, page, elementNode("input", "", "#search",
		map[string]interface{}{"type": "text"}))

	_, err := c.PressKey("a", []string{"Control"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Control+a"}, page.keyboard.keys())
}

func TestPressEnterAdvancesGenericFormField(t *testing.T) {
	page := newFakePage("https://example.com")
	page.focused = map[string]interface{}{
		"tag": "input", "type": "text", "name": "email",
	}

	c := controllerWith(t, page, elementNode("input", "", "#email",
		map[string]interface{}{"type": "text", "name": "email"}))

	result, err := c.PressKey("Enter", nil)
	require.NoError(t, err)
	assert.False(t, result.Navigated)
	assert.Equal(t, []string{"Tab"}, page.keyboard.keys())
}

func TestPressEnterSubmitsSearchInput(t *testing.T) {
	page := newFakePage("https://example.com")
	page.focused = map[string]interface{}{
		"tag": "input", "type": "search", "name": "q",
	}

	c := controllerWith(t, page, elementNode("input", "", "#q",
		map[string]interface{}{"type": "search", "name": "q"}))

	_, err := c.PressKey("Enter", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Enter"}, page.keyboard.keys())
}

func TestPressEnterWithoutFocus(t *testing.T) {
	page := newFakePage("https://example.com")
	c := controllerWith(t, page, elementNode("button", "Go", "#go", nil))

	result, err := c.PressKey("Enter", nil)
	require.NoError(t, err)
	assert.False(t, result.Navigated)
	assert.Equal(t, []string{"Enter"}, page.keyboard.keys())
}

func TestNavigate(t *testing.T) {
	page := newFakePage("https://example.com")
	c := controllerWith(t, page, elementNode("button", "Go", "#go", nil))

	result, err := c.Navigate("https://example.com/next")
	require.NoError(t, err)
	assert.True(t, result.Navigated)
	assert.Equal(t, []string{"https://example.com/next"}, page.gotoURLs)
	assert.Equal(t, "https://example.com/next", result.URL)
}

func TestNavigateFailureWhenURLHeld(t *testing.T) {
	page := newFakePage("https://example.com")
	page.gotoErr = errors.New("net::ERR_NAME_NOT_RESOLVED")

	c := controllerWith(t, page, elementNode("button", "Go", "#go", nil))
	before := c.Stats()

	_, err := c.Navigate("https://bad.example.invalid")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "navigation to https://bad.example.invalid failed")
	assert.Equal(t, before.Failures+1, c.Stats().Failures)
}

func TestScrollRecommendsReindex(t *testing.T) {
	page := newFakePage("https://example.com")
	c := controllerWith(t, page, elementNode("button", "Go", "#go", nil))

	var scrolledBy interface{}
	page.mu.Lock()
	page.evalFn = func(expression string, args []interface{}) (interface{}, error) {
		if len(args) > 0 {
			scrolledBy = args[0]
		}
		return nil, nil
	}
	page.mu.Unlock()

	result, err := c.Scroll(ScrollDown, 600)
	require.NoError(t, err)
	assert.True(t, result.Navigated, "scrolling changes the indexable viewport")
	assert.Equal(t, 600, scrolledBy)

	_, err = c.Scroll(ScrollUp, 400)
	require.NoError(t, err)
	assert.Equal(t, -400, scrolledBy)
}

func TestSelectOption(t *testing.T) {
	page := newFakePage("https://example.com")
	handle := newFakeHandle("select", "")
	page.selectors[indexSelector(0)] = []playwright.ElementHandle{handle}

	c := controllerWith(t, page, elementNode("select", "", "#color", nil))

	_, err := c.SelectOption(0, "blue")
	require.NoError(t, err)
	assert.Equal(t, []string{"blue"}, handle.selected)
}

func TestSelectOptionRejectsNonSelect(t *testing.T) {
	page := newFakePage("https://example.com")
	c := controllerWith(t, page, elementNode("button", "Go", "#go", nil))

	_, err := c.SelectOption(0, "blue")
	var notEditable *NotEditableError
	require.ErrorAs(t, err, &notEditable)
	assert.Equal(t, ReasonWrongKind, notEditable.Reason)
}

func TestSelectOptionRejectsDisabledSelect(t *testing.T) {
	page := newFakePage("https://example.com")
	c := controllerWith(t, page, elementNode("select", "", "#color",
		map[string]interface{}{"disabled": ""}))

	_, err := c.SelectOption(0, "blue")
	var notEditable *NotEditableError
	require.ErrorAs(t, err, &notEditable)
	assert.Equal(t, ReasonDisabled, notEditable.Reason)
}

func TestActionsWithoutActivePage(t *testing.T) {
	c, _ := newTestController(nil)

	_, err := c.Click(0)
	assert.ErrorIs(t, err, ErrNoActivePage)

	_, err = c.Type(0, "x")
	assert.ErrorIs(t, err, ErrNoActivePage)

	_, err = c.PressKey("Enter", nil)
	assert.ErrorIs(t, err, ErrNoActivePage)

	_, err = c.Navigate("https://example.com")
	assert.ErrorIs(t, err, ErrNoActivePage)

	_, err = c.Scroll(ScrollDown, 0)
	assert.ErrorIs(t, err, ErrNoActivePage)
}
