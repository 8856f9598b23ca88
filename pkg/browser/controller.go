package browser

import (
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/sentrahq/sentra/pkg/config"
	"github.com/sentrahq/sentra/pkg/dom"
	"github.com/sentrahq/sentra/pkg/logging"
)

// Stats are the controller's operation counters, kept for observability.
type Stats struct {
	Attempts    int
	Successes   int
	Failures    int
	Navigations int
	TabSwitches int
}

// Controller owns the canonical active-page reference and keeps every
// dependent component pointed at it. Any page change — a tab switch, a
// detected navigation, an explicit caller request — propagates the new
// reference, invalidates page-keyed caches, and forces a fresh indexing
// pass before further actions are accepted.
type Controller struct {
	log *logging.Logger
	cfg *config.Config

	indexer    *dom.Indexer
	locator    *Locator
	monitor    *StateMonitor
	tabs       *TabManager
	classifier KeyContextClassifier

	mu       sync.Mutex
	page     playwright.Page
	snapshot *dom.DocumentSnapshot
	stats    Stats

	// Single-flight guard: one detection pass runs at a time; callers that
	// arrive mid-pass await its shared result.
	detectMu   sync.Mutex
	inflight   chan struct{}
	lastResult *dom.DocumentSnapshot
	lastErr    error
}

// NewController wires the core components over a browser context. The
// indexing script comes from the dom package; a missing script downgrades
// indexing permanently but the controller stays operational.
func NewController(context playwright.BrowserContext, cfg *config.Config) *Controller {
	log, _ := logging.NewLogger("controller")

	indexer, err := dom.NewIndexer(dom.IndexScript())
	if err != nil {
		log.Errorf("Indexer degraded for this session: %v", err)
	}

	c := &Controller{
		log:     log,
		cfg:     cfg,
		indexer: indexer,
		locator: NewLocator(),
		monitor: NewStateMonitor(StateMonitorOptions{
			PollInterval:          cfg.Detection.PollInterval,
			SettleDelay:           cfg.Detection.SettleDelay,
			HistoryLimit:          cfg.Detection.HistoryLimit,
			FingerprintSampleSize: cfg.Detection.FingerprintSampleSize,
		}),
		tabs: NewTabManager(context, TabManagerOptions{
			SweepInterval:       cfg.Tabs.SweepInterval,
			ExcludedURLPatterns: cfg.Tabs.ExcludedURLPatterns,
		}),
		classifier: NewVocabularyClassifier(cfg.Actions.SearchVocabulary),
	}

	// Tab promotions and detected navigations both route through
	// SetActivePage / re-indexing so every component observes the change.
	c.tabs.OnPageChange(func(page playwright.Page) {
		c.SetActivePage(page)
	})
	c.monitor.OnChange(func(old, new PageState, event StateEvent) {
		if event != EventNavigation {
			return
		}
		c.log.Infof("Navigation detected: %s -> %s", old.URL, new.URL)
		c.recordNavigation()
		c.locator.Invalidate()
		if _, err := c.Detect(true); err != nil {
			c.log.Warnf("Re-index after navigation failed: %v", err)
		}
	})

	return c
}

// SetClassifier swaps the Enter-key context classifier.
func (c *Controller) SetClassifier(classifier KeyContextClassifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if classifier != nil {
		c.classifier = classifier
	}
}

// Start brings up the detector and tab manager, then runs the first
// indexing pass. The order is fixed: both background components must be
// running before the first pass so baseline counters exist.
func (c *Controller) Start(initial playwright.Page) error {
	c.monitor.Start()
	c.tabs.Start()

	c.SetActivePage(initial)

	if _, err := c.Detect(true); err != nil {
		return fmt.Errorf("initial detection failed: %w", err)
	}
	return nil
}

// Stop halts the background components.
func (c *Controller) Stop() {
	c.tabs.Stop()
	c.monitor.Stop()
}

// SetActivePage installs a new canonical page reference. Idempotent: a
// notification for the already-current page is a no-op. Otherwise the
// reference propagates to the monitor and locator, caches invalidate, and
// a forced indexing pass realigns overlays and indices.
func (c *Controller) SetActivePage(page playwright.Page) {
	c.mu.Lock()
	if c.page == page {
		c.mu.Unlock()
		return
	}
	switched := c.page != nil
	c.page = page
	c.snapshot = nil
	if switched {
		c.stats.TabSwitches++
	}
	c.mu.Unlock()

	c.log.Infof("Active page is now %s", safeURL(page))

	c.monitor.SetPage(page)
	c.locator.SetPage(page)
	c.locator.Invalidate()

	if _, err := c.Detect(true); err != nil {
		c.log.Warnf("Re-index after page change failed: %v", err)
	}
}

// ActivePage returns the canonical page reference.
func (c *Controller) ActivePage() playwright.Page {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// Snapshot returns the latest detection result, which may be nil before
// the first pass.
func (c *Controller) Snapshot() *dom.DocumentSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshot
}

// Element returns an indexed element from the latest snapshot.
func (c *Controller) Element(index int) (*dom.InteractiveElement, bool) {
	c.mu.Lock()
	snapshot := c.snapshot
	c.mu.Unlock()
	if snapshot == nil {
		return nil, false
	}
	return snapshot.Element(index)
}

// State returns the detector's latest page state.
func (c *Controller) State() PageState {
	return c.monitor.Current()
}

// Tabs returns the planner-facing tab list.
func (c *Controller) Tabs() []TabRecord {
	return c.tabs.Tabs()
}

// ActiveTab returns the active tab record, or nil.
func (c *Controller) ActiveTab() *TabRecord {
	return c.tabs.Active()
}

// SwitchTab promotes a tab by id. The resulting page-change callback
// drives SetActivePage, so by the time this returns the controller either
// points at the new tab or the switch was a no-op.
func (c *Controller) SwitchTab(id string) error {
	_, err := c.tabs.SwitchTo(id)
	return err
}

// Stats returns a copy of the operation counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Detect runs an indexing pass against the active page. Without force, a
// snapshot from the current pass is reused. Concurrent callers share one
// in-flight pass rather than starting duplicates.
func (c *Controller) Detect(force bool) (*dom.DocumentSnapshot, error) {
	c.mu.Lock()
	page := c.page
	snapshot := c.snapshot
	c.mu.Unlock()

	if page == nil {
		return nil, ErrNoActivePage
	}
	if !force && snapshot != nil {
		return snapshot, nil
	}

	c.detectMu.Lock()
	if c.inflight != nil {
		// A pass is already running; await its shared result.
		wait := c.inflight
		c.detectMu.Unlock()
		<-wait
		c.detectMu.Lock()
		result, err := c.lastResult, c.lastErr
		c.detectMu.Unlock()
		return result, err
	}
	c.inflight = make(chan struct{})
	c.detectMu.Unlock()

	result, err := c.runDetection(page)

	c.detectMu.Lock()
	c.lastResult, c.lastErr = result, err
	close(c.inflight)
	c.inflight = nil
	c.detectMu.Unlock()

	return result, err
}

// runDetection performs one indexing pass and primes the locator cache
// with the pass's page fingerprint.
func (c *Controller) runDetection(page playwright.Page) (*dom.DocumentSnapshot, error) {
	opts := dom.Options{
		HighlightEnabled:  c.cfg.Indexing.HighlightEnabled,
		FocusIndex:        -1,
		ViewportExpansion: c.cfg.Indexing.ViewportExpansion,
	}

	snapshot, err := c.indexer.Index(page, opts)
	if err != nil {
		c.mu.Lock()
		c.stats.Failures++
		c.mu.Unlock()
		return snapshot, &DetectionError{URL: safeURL(page), Cause: err}
	}

	url := safeURL(page)
	hash, herr := Fingerprint(page, c.cfg.Detection.FingerprintSampleSize)
	if herr != nil {
		c.log.Debugf("Fingerprint during detection failed: %v", herr)
	}
	c.locator.Prime(url, hash, snapshot)

	c.mu.Lock()
	c.snapshot = snapshot
	c.mu.Unlock()

	c.log.Debugf("Detection pass complete: %d interactive elements on %s", snapshot.InteractiveCount(), url)
	return snapshot, nil
}

// Monitor exposes the state detector for callers that subscribe directly.
func (c *Controller) Monitor() *StateMonitor {
	return c.monitor
}

// TabManager exposes the tab manager.
func (c *Controller) TabManager() *TabManager {
	return c.tabs
}

func (c *Controller) recordAttempt() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Attempts++
}

func (c *Controller) recordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Successes++
}

func (c *Controller) recordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Failures++
}

func (c *Controller) recordNavigation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stats.Navigations++
}
