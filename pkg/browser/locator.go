package browser

import (
	"fmt"
	"strings"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/sentrahq/sentra/pkg/dom"
	"github.com/sentrahq/sentra/pkg/logging"
)

// Descriptor caches everything known about one indexed element so it can
// be re-found after the index attribute is lost to DOM mutation.
type Descriptor struct {
	Index       int
	CSSSelector string
	XPath       string
	Text        string
	Role        string
	Name        string
	Label       string
	Placeholder string
	Title       string
	Tag         string
	Interaction dom.InteractionType
}

// descriptorFromElement captures a locator descriptor from one indexed
// element.
func descriptorFromElement(el *dom.InteractiveElement) Descriptor {
	name := el.Attr("aria-label")
	if name == "" {
		name = el.Text
	}
	return Descriptor{
		Index:       el.Index,
		CSSSelector: el.CSSSelector,
		XPath:       el.XPath,
		Text:        el.Text,
		Role:        el.Attr("role"),
		Name:        name,
		Label:       el.Attr("aria-label"),
		Placeholder: el.Attr("placeholder"),
		Title:       el.Attr("title"),
		Tag:         el.Tag,
		Interaction: el.Interaction,
	}
}

// cacheKey scopes cached descriptors to one page structure. Any detected
// navigation changes the key and orphans the old entries.
type cacheKey struct {
	URL  string
	Hash uint64
}

// interactiveSelector is the selector union a positional fallback scan and
// the text strategies search over.
const interactiveSelector = `a, button, input, select, textarea, details, summary, ` +
	`[role="button"], [role="link"], [role="textbox"], [role="checkbox"], ` +
	`[role="radio"], [role="combobox"], [role="menuitem"], [role="tab"], ` +
	`[role="switch"], [role="option"], [contenteditable], [onclick], [tabindex]`

// Locator resolves a highlight index to a live element handle through an
// ordered chain of fallback strategies. The stable index attribute is
// tried first; when DOM mutation stripped it, cached descriptors re-find
// the element by selector, xpath, text, accessible name, or position.
type Locator struct {
	log *logging.Logger

	mu      sync.Mutex
	page    playwright.Page
	cache   map[cacheKey]map[int]Descriptor
	current cacheKey
}

// NewLocator creates an empty locator. Prime populates it after each
// indexing pass.
func NewLocator() *Locator {
	log, _ := logging.NewLogger("locator")
	return &Locator{
		log:   log,
		cache: make(map[cacheKey]map[int]Descriptor),
	}
}

// SetPage points the locator at a new page. Cached descriptors for other
// pages stay resident until Invalidate.
func (l *Locator) SetPage(page playwright.Page) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.page = page
}

// Prime caches descriptors for every element of a completed indexing pass
// under the pass's page fingerprint.
func (l *Locator) Prime(url string, hash uint64, snapshot *dom.DocumentSnapshot) {
	descriptors := make(map[int]Descriptor, len(snapshot.Elements))
	for i := range snapshot.Elements {
		el := &snapshot.Elements[i]
		descriptors[el.Index] = descriptorFromElement(el)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.current = cacheKey{URL: url, Hash: hash}
	l.cache[l.current] = descriptors
}

// Invalidate drops every cached descriptor. Called on any page change or
// detected navigation.
func (l *Locator) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache = make(map[cacheKey]map[int]Descriptor)
	l.current = cacheKey{}
}

// Descriptor returns the cached descriptor for an index in the current
// validity window.
func (l *Locator) Descriptor(index int) (Descriptor, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	descriptors, ok := l.cache[l.current]
	if !ok {
		return Descriptor{}, false
	}
	desc, ok := descriptors[index]
	return desc, ok
}

// strategy is one relocation attempt. A nil handle with nil error means
// the strategy found nothing unambiguous and the chain moves on.
type strategy struct {
	name string
	run  func(page playwright.Page, desc Descriptor) (playwright.ElementHandle, error)
}

var strategies = []strategy{
	{"index-attribute", byIndexAttribute},
	{"css-selector", byCSSSelector},
	{"xpath", byXPath},
	{"text-exact", byTextExact},
	{"text-substring", byTextSubstring},
	{"text-case-insensitive", byTextCaseInsensitive},
	{"role-and-name", byRoleAndName},
	{"label-attribute", byLabelAttribute},
	{"position", byPosition},
}

// Locate resolves an index to a live, visible element handle. Strategies
// run in order; the first unambiguous, visible match wins. Exhausting the
// chain yields ElementNotFoundError listing everything attempted.
func (l *Locator) Locate(index int) (playwright.ElementHandle, error) {
	l.mu.Lock()
	page := l.page
	l.mu.Unlock()

	if page == nil {
		return nil, ErrNoActivePage
	}

	desc, cached := l.Descriptor(index)
	if !cached {
		// No descriptor survives for this index; the index attribute and a
		// positional scan are all that is left to try.
		desc = Descriptor{Index: index}
	}

	var attempted []string
	for _, s := range strategies {
		handle, err := s.run(page, desc)
		if err != nil {
			l.log.Debugf("Strategy %s errored for index %d: %v", s.name, index, err)
			attempted = append(attempted, s.name)
			continue
		}
		if handle == nil {
			attempted = append(attempted, s.name)
			continue
		}

		visible, err := handle.IsVisible()
		if err != nil || !visible {
			l.log.Debugf("Strategy %s matched a non-visible element for index %d", s.name, index)
			attempted = append(attempted, s.name)
			continue
		}

		l.log.Debugf("Located index %d via %s", index, s.name)
		return handle, nil
	}

	return nil, &ElementNotFoundError{Index: index, Attempted: attempted}
}

// byIndexAttribute matches the stable attribute the indexing pass wrote
// onto the element.
func byIndexAttribute(page playwright.Page, desc Descriptor) (playwright.ElementHandle, error) {
	selector := fmt.Sprintf(`[%s="%d"]`, dom.IndexAttribute, desc.Index)
	return uniqueMatch(page, selector)
}

func byCSSSelector(page playwright.Page, desc Descriptor) (playwright.ElementHandle, error) {
	if desc.CSSSelector == "" {
		return nil, nil
	}
	return uniqueMatch(page, desc.CSSSelector)
}

func byXPath(page playwright.Page, desc Descriptor) (playwright.ElementHandle, error) {
	if desc.XPath == "" {
		return nil, nil
	}
	return uniqueMatch(page, "xpath="+desc.XPath)
}

func byTextExact(page playwright.Page, desc Descriptor) (playwright.ElementHandle, error) {
	return byText(page, desc, func(text string) bool {
		return text == desc.Text
	})
}

func byTextSubstring(page playwright.Page, desc Descriptor) (playwright.ElementHandle, error) {
	return byText(page, desc, func(text string) bool {
		return strings.Contains(text, desc.Text)
	})
}

func byTextCaseInsensitive(page playwright.Page, desc Descriptor) (playwright.ElementHandle, error) {
	want := strings.ToLower(desc.Text)
	return byText(page, desc, func(text string) bool {
		return strings.Contains(strings.ToLower(text), want)
	})
}

// byText scans interactive elements for a text match. Accepted only when
// exactly one element matches; an ambiguous match risks binding to the
// wrong node and is worse than no match.
func byText(page playwright.Page, desc Descriptor, match func(string) bool) (playwright.ElementHandle, error) {
	if desc.Text == "" {
		return nil, nil
	}

	handles, err := page.QuerySelectorAll(interactiveSelector)
	if err != nil {
		return nil, err
	}

	var found playwright.ElementHandle
	for _, handle := range handles {
		text, err := handle.TextContent()
		if err != nil {
			continue
		}
		if !match(strings.TrimSpace(text)) {
			continue
		}
		if found != nil {
			return nil, nil // ambiguous
		}
		found = handle
	}
	return found, nil
}

// byRoleAndName matches on explicit ARIA role plus accessible name.
func byRoleAndName(page playwright.Page, desc Descriptor) (playwright.ElementHandle, error) {
	if desc.Role == "" || desc.Name == "" {
		return nil, nil
	}

	handles, err := page.QuerySelectorAll(fmt.Sprintf(`[role=%q]`, desc.Role))
	if err != nil {
		return nil, err
	}

	var found playwright.ElementHandle
	for _, handle := range handles {
		name, err := handle.GetAttribute("aria-label")
		if err != nil || name == "" {
			text, terr := handle.TextContent()
			if terr != nil {
				continue
			}
			name = strings.TrimSpace(text)
		}
		if !strings.EqualFold(name, desc.Name) {
			continue
		}
		if found != nil {
			return nil, nil
		}
		found = handle
	}
	return found, nil
}

// byLabelAttribute matches on aria-label, placeholder, or title.
func byLabelAttribute(page playwright.Page, desc Descriptor) (playwright.ElementHandle, error) {
	candidates := []struct{ attr, value string }{
		{"aria-label", desc.Label},
		{"placeholder", desc.Placeholder},
		{"title", desc.Title},
	}

	for _, c := range candidates {
		if c.value == "" {
			continue
		}
		handle, err := uniqueMatch(page, fmt.Sprintf(`[%s=%q]`, c.attr, c.value))
		if err != nil {
			return nil, err
		}
		if handle != nil {
			return handle, nil
		}
	}
	return nil, nil
}

// byPosition is the last resort: the Nth interactive element of a fresh
// structural scan, on the bet that document order survived the mutation
// that ate the index attribute.
func byPosition(page playwright.Page, desc Descriptor) (playwright.ElementHandle, error) {
	handles, err := page.QuerySelectorAll(interactiveSelector)
	if err != nil {
		return nil, err
	}
	if desc.Index < 0 || desc.Index >= len(handles) {
		return nil, nil
	}
	return handles[desc.Index], nil
}

// uniqueMatch resolves a selector only if it matches exactly one element.
func uniqueMatch(page playwright.Page, selector string) (playwright.ElementHandle, error) {
	handles, err := page.QuerySelectorAll(selector)
	if err != nil {
		return nil, err
	}
	if len(handles) != 1 {
		return nil, nil
	}
	return handles[0], nil
}
