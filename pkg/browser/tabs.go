package browser

import (
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/glob"
	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"
	"golang.org/x/net/publicsuffix"

	"github.com/sentrahq/sentra/pkg/logging"
)

// PageType is coarse planner-facing page classification.
type PageType string

const (
	PageTypeSearch  PageType = "search"
	PageTypeStore   PageType = "store"
	PageTypeArticle PageType = "article"
	PageTypeLogin   PageType = "login"
	PageTypeApp     PageType = "app"
	PageTypeBlank   PageType = "blank"
	PageTypeOther   PageType = "other"
)

// TabRecord tracks one open page. Owned by the TabManager: created when a
// page opens, refreshed on sweep, removed once the page is observed closed.
type TabRecord struct {
	ID         string
	Page       playwright.Page
	URL        string
	Title      string
	Domain     string
	PageType   PageType
	LastUpdate time.Time
}

// SwitchPolicy decides whether a newly opened valid tab is promoted to
// active. The default promotes every new tab.
type SwitchPolicy func(record *TabRecord) bool

// PageChangeListener observes active-page promotions.
type PageChangeListener func(page playwright.Page)

// errorTitleMarkers flag pages whose title indicates a load failure.
var errorTitleMarkers = []string{
	"404", "not found", "error", "can't be reached", "cannot be reached",
	"access denied", "forbidden", "problem loading page",
}

// TabManager tracks the set of open pages, filters out browser-internal
// ones, and owns active-tab selection. A new-page event registers the tab
// immediately; a periodic sweep reconciles against the live page set for
// anything the events missed.
type TabManager struct {
	context playwright.BrowserContext
	log     *logging.Logger

	sweepInterval time.Duration
	initialWait   time.Duration
	excluded      []glob.Glob
	policy        SwitchPolicy

	mu        sync.Mutex
	records   []*TabRecord
	activeID  string
	listeners map[string]PageChangeListener

	stop chan struct{}
	done sync.WaitGroup
}

// TabManagerOptions configures a TabManager.
type TabManagerOptions struct {
	SweepInterval time.Duration

	// InitialWait bounds the content-load wait for a freshly opened page.
	InitialWait time.Duration

	// ExcludedURLPatterns are glob patterns for URLs that never become the
	// active tab. Unparseable patterns are skipped.
	ExcludedURLPatterns []string

	// Policy decides promotion of new tabs; nil promotes everything.
	Policy SwitchPolicy
}

// NewTabManager creates a tab manager over a browser context.
func NewTabManager(context playwright.BrowserContext, opts TabManagerOptions) *TabManager {
	log, _ := logging.NewLogger("tabs")

	if opts.SweepInterval <= 0 {
		opts.SweepInterval = 2 * time.Second
	}
	if opts.InitialWait <= 0 {
		opts.InitialWait = 3 * time.Second
	}
	if opts.Policy == nil {
		opts.Policy = func(*TabRecord) bool { return true }
	}

	var excluded []glob.Glob
	for _, pattern := range opts.ExcludedURLPatterns {
		g, err := glob.Compile(pattern)
		if err != nil {
			log.Warnf("Skipping invalid URL exclusion pattern %q: %v", pattern, err)
			continue
		}
		excluded = append(excluded, g)
	}

	return &TabManager{
		context:       context,
		log:           log,
		sweepInterval: opts.SweepInterval,
		initialWait:   opts.InitialWait,
		excluded:      excluded,
		policy:        opts.Policy,
		listeners:     make(map[string]PageChangeListener),
		stop:          make(chan struct{}),
	}
}

// Start registers the new-page handler and begins the reconciliation
// sweep. Pages already open are adopted on the first sweep.
func (m *TabManager) Start() {
	m.context.OnPage(m.handleNewPage)

	m.done.Add(1)
	go func() {
		defer m.done.Done()
		ticker := time.NewTicker(m.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.sweep()
			}
		}
	}()
}

// Stop halts the sweep. The new-page handler stays registered but becomes
// inert once the context closes.
func (m *TabManager) Stop() {
	close(m.stop)
	m.done.Wait()
}

// OnPageChange registers a listener for active-page promotions and
// returns its registration id.
func (m *TabManager) OnPageChange(listener PageChangeListener) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.listeners[id] = listener
	return id
}

// RemoveListener drops a listener registration.
func (m *TabManager) RemoveListener(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, id)
}

// handleNewPage registers a freshly opened page and, policy permitting,
// promotes it to active with exactly one page-change notification.
func (m *TabManager) handleNewPage(page playwright.Page) {
	// Give the page a bounded chance to load real content before judging
	// its URL and title; timeout is not fatal.
	waitErr := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(float64(m.initialWait.Milliseconds())),
	})
	if waitErr != nil {
		m.log.Debugf("New page load wait expired: %v", waitErr)
	}

	record, ok := m.buildRecord(page)
	if !ok {
		m.log.Debugf("Rejected new page %q", safeURL(page))
		return
	}

	m.mu.Lock()
	m.records = append(m.records, record)
	promote := m.policy(record)
	if promote {
		m.activeID = record.ID
	}
	listeners := m.snapshotListenersLocked()
	m.mu.Unlock()

	m.log.Infof("Registered tab %s (%s)", record.ID, record.URL)
	if promote {
		notifyPageChange(listeners, page, m.log)
	}
}

// sweep reconciles tracked records against the live page set: closed tabs
// drop out, metadata refreshes, and a missing active tab is replaced by
// the most recently created valid one.
func (m *TabManager) sweep() {
	live := m.context.Pages()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Drop records whose page is gone or closed.
	kept := m.records[:0]
	for _, record := range m.records {
		open := false
		for _, page := range live {
			if record.Page == page && !page.IsClosed() {
				open = true
				break
			}
		}
		if open {
			kept = append(kept, record)
		} else if record.ID == m.activeID {
			m.activeID = ""
		}
	}
	m.records = kept

	// Adopt live pages the new-page event missed.
	for _, page := range live {
		if page.IsClosed() || m.trackedLocked(page) {
			continue
		}
		if record, ok := m.buildRecord(page); ok {
			m.records = append(m.records, record)
			m.log.Debugf("Sweep adopted tab %s (%s)", record.ID, record.URL)
		}
	}

	// Refresh metadata on surviving records.
	for _, record := range m.records {
		m.refreshRecord(record)
	}

	// No active tab: default to the most recently created valid one.
	if m.activeID == "" && len(m.records) > 0 {
		record := m.records[len(m.records)-1]
		m.activeID = record.ID
		listeners := m.snapshotListenersLocked()
		page := record.Page
		m.log.Infof("No active tab, promoting %s (%s)", record.ID, record.URL)
		go notifyPageChange(listeners, page, m.log)
	}
}

// Tabs returns the tracked valid tabs, oldest first.
func (m *TabManager) Tabs() []TabRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	tabs := make([]TabRecord, 0, len(m.records))
	for _, record := range m.records {
		tabs = append(tabs, *record)
	}
	return tabs
}

// Active returns the active tab record, or nil when none is promoted.
func (m *TabManager) Active() *TabRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, record := range m.records {
		if record.ID == m.activeID {
			active := *record
			return &active
		}
	}
	return nil
}

// SwitchTo promotes the tab with the given id and returns its page.
// Switching to the already-active tab is a no-op that fires no
// notification.
func (m *TabManager) SwitchTo(id string) (playwright.Page, error) {
	m.mu.Lock()
	var target *TabRecord
	for _, record := range m.records {
		if record.ID == id {
			target = record
			break
		}
	}
	if target == nil {
		m.mu.Unlock()
		return nil, &TabNotFoundError{ID: id}
	}
	if m.activeID == id {
		m.mu.Unlock()
		return target.Page, nil
	}
	m.activeID = id
	listeners := m.snapshotListenersLocked()
	m.mu.Unlock()

	if err := target.Page.BringToFront(); err != nil {
		m.log.Warnf("BringToFront failed for tab %s: %v", id, err)
	}

	m.log.Infof("Switched to tab %s (%s)", id, target.URL)
	notifyPageChange(listeners, target.Page, m.log)
	return target.Page, nil
}

// buildRecord validates a page and builds its record. Blank or internal
// URLs and error-titled pages are rejected.
func (m *TabManager) buildRecord(page playwright.Page) (*TabRecord, bool) {
	pageURL := safeURL(page)
	if !m.validURL(pageURL) {
		return nil, false
	}

	title := safeTitle(page)
	if isErrorTitle(title) {
		return nil, false
	}

	return &TabRecord{
		ID:         uuid.New().String(),
		Page:       page,
		URL:        pageURL,
		Title:      title,
		Domain:     domainOf(pageURL),
		PageType:   classifyPageType(pageURL, title),
		LastUpdate: time.Now(),
	}, true
}

// refreshRecord re-reads mutable page metadata. Must hold m.mu.
func (m *TabManager) refreshRecord(record *TabRecord) {
	pageURL := safeURL(record.Page)
	if pageURL == "" {
		return
	}
	record.URL = pageURL
	record.Title = safeTitle(record.Page)
	record.Domain = domainOf(pageURL)
	record.PageType = classifyPageType(pageURL, record.Title)
	record.LastUpdate = time.Now()
}

// validURL rejects blank and browser-internal URLs.
func (m *TabManager) validURL(pageURL string) bool {
	if pageURL == "" || pageURL == "about:blank" {
		return false
	}
	for _, g := range m.excluded {
		if g.Match(pageURL) {
			return false
		}
	}
	return true
}

func (m *TabManager) trackedLocked(page playwright.Page) bool {
	for _, record := range m.records {
		if record.Page == page {
			return true
		}
	}
	return false
}

func (m *TabManager) snapshotListenersLocked() []PageChangeListener {
	listeners := make([]PageChangeListener, 0, len(m.listeners))
	for _, listener := range m.listeners {
		listeners = append(listeners, listener)
	}
	return listeners
}

// notifyPageChange runs listeners with per-listener panic isolation so one
// failing listener cannot block the rest.
func notifyPageChange(listeners []PageChangeListener, page playwright.Page, log *logging.Logger) {
	for _, listener := range listeners {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Errorf("Page-change listener panicked: %v", r)
				}
			}()
			listener(page)
		}()
	}
}

// isErrorTitle reports whether a title indicates a failed load.
func isErrorTitle(title string) bool {
	lower := strings.ToLower(title)
	for _, marker := range errorTitleMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// domainOf derives the registrable domain (eTLD+1) of a URL, falling back
// to the bare host when the public suffix list has no answer.
func domainOf(pageURL string) string {
	parsed, err := url.Parse(pageURL)
	if err != nil || parsed.Hostname() == "" {
		return ""
	}
	host := parsed.Hostname()
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return domain
}

// classifyPageType is a coarse URL/title heuristic for planner-facing tab
// metadata.
func classifyPageType(pageURL, title string) PageType {
	if pageURL == "" || pageURL == "about:blank" {
		return PageTypeBlank
	}

	haystack := strings.ToLower(pageURL + " " + title)

	switch {
	case containsAny(haystack, "login", "signin", "sign-in", "sign_in", "auth", "password"):
		return PageTypeLogin
	case containsAny(haystack, "search?", "/search", "query=", "?q=", "&q="):
		return PageTypeSearch
	case containsAny(haystack, "cart", "checkout", "product", "shop", "store", "order"):
		return PageTypeStore
	case containsAny(haystack, "article", "blog", "news", "/post", "/wiki"):
		return PageTypeArticle
	case containsAny(haystack, "dashboard", "console", "admin", "/app"):
		return PageTypeApp
	default:
		return PageTypeOther
	}
}

func containsAny(haystack string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(haystack, needle) {
			return true
		}
	}
	return false
}
