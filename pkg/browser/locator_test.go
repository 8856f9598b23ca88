package browser

import (
	"fmt"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sentrahq/sentra/pkg/dom"
)

func snapshotWith(elements ...dom.InteractiveElement) *dom.DocumentSnapshot {
	return &dom.DocumentSnapshot{Elements: elements}
}

func primedLocator(page playwright.Page, elements ...dom.InteractiveElement) *Locator {
	l := NewLocator()
	l.SetPage(page)
	l.Prime("https://example.com", 42, snapshotWith(elements...))
	return l
}

func indexSelector(index int) string {
	return fmt.Sprintf(`[%s="%d"]`, dom.IndexAttribute, index)
}

func TestLocateByIndexAttribute(t *testing.T) {
	page := newFakePage("https://example.com")
	handle := newFakeHandle("button", "Submit")
	page.selectors[indexSelector(0)] = []playwright.ElementHandle{handle}

	l := primedLocator(page, dom.InteractiveElement{Index: 0, Tag: "button", Text: "Submit"})

	got, err := l.Locate(0)
	require.NoError(t, err)
	assert.Same(t, handle, got)
}

func TestLocateFallsBackToCachedSelector(t *testing.T) {
	// The DOM mutated and stripped the index attribute; the cached CSS
	// selector still resolves the element.
	page := newFakePage("https://example.com")
	handle := newFakeHandle("button", "Submit")
	page.selectors["#checkout > button.primary"] = []playwright.ElementHandle{handle}

	l := primedLocator(page, dom.InteractiveElement{
		Index:       3,
		Tag:         "button",
		Text:        "Submit",
		CSSSelector: "#checkout > button.primary",
	})

	got, err := l.Locate(3)
	require.NoError(t, err)
	assert.Same(t, handle, got)
}

func TestLocateFallsBackToXPath(t *testing.T) {
	page := newFakePage("https://example.com")
	handle := newFakeHandle("a", "Details")
	page.selectors["xpath=/html/body/div[2]/a"] = []playwright.ElementHandle{handle}

	l := primedLocator(page, dom.InteractiveElement{
		Index: 1,
		Tag:   "a",
		Text:  "Details",
		XPath: "/html/body/div[2]/a",
	})

	got, err := l.Locate(1)
	require.NoError(t, err)
	assert.Same(t, handle, got)
}

func TestLocateFallsBackToUniqueText(t *testing.T) {
	page := newFakePage("https://example.com")
	target := newFakeHandle("button", "Add to cart")
	other := newFakeHandle("a", "View cart")
	page.selectors[interactiveSelector] = []playwright.ElementHandle{other, target}

	l := primedLocator(page, dom.InteractiveElement{Index: 5, Tag: "button", Text: "Add to cart"})

	got, err := l.Locate(5)
	require.NoError(t, err)
	assert.Same(t, target, got)
}

func TestLocateRejectsAmbiguousText(t *testing.T) {
	// Two elements share the text; text strategies must refuse rather than
	// guess, leaving position as the only (also failing here) fallback.
	page := newFakePage("https://example.com")
	first := newFakeHandle("button", "Buy")
	second := newFakeHandle("button", "Buy")
	page.selectors[interactiveSelector] = []playwright.ElementHandle{first, second}

	l := primedLocator(page, dom.InteractiveElement{Index: 9, Tag: "button", Text: "Buy"})

	_, err := l.Locate(9)
	var notFound *ElementNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, notFound.Attempted, "text-exact")
	assert.Contains(t, notFound.Attempted, "position")
}

func TestLocateByRoleAndName(t *testing.T) {
	page := newFakePage("https://example.com")
	target := newFakeHandle("div", "")
	target.attrs["aria-label"] = "Close dialog"
	page.selectors[`[role="button"]`] = []playwright.ElementHandle{target}

	element := dom.InteractiveElement{
		Index:      2,
		Tag:        "div",
		Attributes: map[string]string{"role": "button", "aria-label": "Close dialog"},
	}

	l := primedLocator(page, element)

	got, err := l.Locate(2)
	require.NoError(t, err)
	assert.Same(t, target, got)
}

func TestLocateByPlaceholder(t *testing.T) {
	page := newFakePage("https://example.com")
	target := newFakeHandle("input", "")
	page.selectors[`[placeholder="Search products..."]`] = []playwright.ElementHandle{target}

	element := dom.InteractiveElement{
		Index:      4,
		Tag:        "input",
		Attributes: map[string]string{"placeholder": "Search products..."},
	}

	l := primedLocator(page, element)

	got, err := l.Locate(4)
	require.NoError(t, err)
	assert.Same(t, target, got)
}

func TestLocateByPositionAsLastResort(t *testing.T) {
	page := newFakePage("https://example.com")
	first := newFakeHandle("a", "Home")
	second := newFakeHandle("a", "Away")
	page.selectors[interactiveSelector] = []playwright.ElementHandle{first, second}

	// No cached descriptor at all: only the index attribute and position
	// can run, and the attribute is gone.
	l := NewLocator()
	l.SetPage(page)

	got, err := l.Locate(1)
	require.NoError(t, err)
	assert.Same(t, second, got)
}

func TestLocateSkipsInvisibleMatches(t *testing.T) {
	page := newFakePage("https://example.com")
	hidden := newFakeHandle("button", "Submit")
	hidden.visible = false
	visible := newFakeHandle("button", "Submit")
	page.selectors[indexSelector(0)] = []playwright.ElementHandle{hidden}
	page.selectors["form > button"] = []playwright.ElementHandle{visible}

	l := primedLocator(page, dom.InteractiveElement{
		Index:       0,
		Tag:         "button",
		Text:        "Submit",
		CSSSelector: "form > button",
	})

	got, err := l.Locate(0)
	require.NoError(t, err)
	assert.Same(t, visible, got)
}

func TestLocateWithoutPage(t *testing.T) {
	l := NewLocator()
	_, err := l.Locate(0)
	assert.ErrorIs(t, err, ErrNoActivePage)
}

func TestLocateExhaustedReportsAllStrategies(t *testing.T) {
	page := newFakePage("https://example.com")

	l := primedLocator(page, dom.InteractiveElement{
		Index:       0,
		Tag:         "button",
		Text:        "Submit",
		CSSSelector: "form > button",
		XPath:       "/html/body/form/button",
	})

	_, err := l.Locate(0)
	var notFound *ElementNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, 0, notFound.Index)
	assert.Len(t, notFound.Attempted, len(strategies))
}

func TestInvalidateDropsDescriptors(t *testing.T) {
	page := newFakePage("https://example.com")
	l := primedLocator(page, dom.InteractiveElement{Index: 0, Tag: "button", Text: "Go"})

	_, ok := l.Descriptor(0)
	require.True(t, ok)

	l.Invalidate()
	_, ok = l.Descriptor(0)
	assert.False(t, ok)
}

func TestDescriptorScopedToFingerprint(t *testing.T) {
	page := newFakePage("https://example.com")
	l := primedLocator(page, dom.InteractiveElement{Index: 0, Tag: "button", Text: "Go"})

	// A new pass over a different structure replaces the validity window.
	l.Prime("https://example.com/next", 43, snapshotWith(
		dom.InteractiveElement{Index: 0, Tag: "a", Text: "Back"},
	))

	desc, ok := l.Descriptor(0)
	require.True(t, ok)
	assert.Equal(t, "a", desc.Tag)
}
