package browser

import "github.com/playwright-community/playwright-go"

// The background loops (state poll, tab sweep) query pages that may close
// or navigate at any moment. Every such query degrades to a default value
// instead of propagating, so a stale handle never crashes a timer tick.

// safeURL returns the page URL, or "" for a closed or broken page.
func safeURL(page playwright.Page) (result string) {
	if page == nil || page.IsClosed() {
		return ""
	}
	defer func() {
		if recover() != nil {
			result = ""
		}
	}()
	return page.URL()
}

// safeTitle returns the page title, or "" when it cannot be read.
func safeTitle(page playwright.Page) string {
	if page == nil || page.IsClosed() {
		return ""
	}
	title, err := page.Title()
	if err != nil {
		return ""
	}
	return title
}
