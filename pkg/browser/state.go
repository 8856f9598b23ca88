package browser

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playwright-community/playwright-go"

	"github.com/sentrahq/sentra/pkg/logging"
)

// elementCountThreshold is the absolute element-count delta that counts as
// a significant change on its own.
const elementCountThreshold = 50

// contentSampleLimit bounds the visible-text head the poll compares.
const contentSampleLimit = 2000

// StateEvent tags why a state refresh was considered significant.
type StateEvent string

const (
	EventNavigation       StateEvent = "navigation"
	EventTitleChanged     StateEvent = "title_changed"
	EventStructureChanged StateEvent = "structure_changed"
	EventContentChanged   StateEvent = "content_changed"
)

// PageState is one observation of the active page. Mutated only by the
// StateMonitor; callers get copies.
type PageState struct {
	URL                     string
	Title                   string
	StructuralHash          uint64
	Timestamp               time.Time
	IsLoading               bool
	ElementCount            int
	InteractiveElementCount int
}

// StateListener observes significant state changes with the old and new
// state and the event tag.
type StateListener func(old, new PageState, event StateEvent)

// classifyChange decides whether a refresh is significant and which event
// tag describes it best. URL beats title beats structure beats count.
func classifyChange(old, new PageState) (StateEvent, bool) {
	switch {
	case old.URL != new.URL:
		return EventNavigation, true
	case old.Title != new.Title:
		return EventTitleChanged, true
	case old.StructuralHash != new.StructuralHash:
		return EventStructureChanged, true
	}

	delta := new.ElementCount - old.ElementCount
	if delta < 0 {
		delta = -delta
	}
	if delta > elementCountThreshold {
		return EventContentChanged, true
	}
	return "", false
}

// StateMonitorOptions configures a StateMonitor.
type StateMonitorOptions struct {
	PollInterval          time.Duration
	SettleDelay           time.Duration
	HistoryLimit          int
	FingerprintSampleSize int
}

// StateMonitor tracks the active page's state from two independent
// triggers: browser lifecycle events followed by a bounded stabilization
// wait, and a fixed-interval poll that catches SPA content swaps which
// raise no lifecycle event.
//
// A poll tick that lands within one interval of the last refresh is a
// guaranteed no-op, so an ordinary navigation is never reported twice.
type StateMonitor struct {
	log  *logging.Logger
	opts StateMonitorOptions

	mu          sync.Mutex
	page        playwright.Page
	current     PageState
	history     []PageState
	lastRefresh time.Time
	lastSample  contentSample
	listeners   map[string]StateListener

	stop    chan struct{}
	done    sync.WaitGroup
	started bool
}

// NewStateMonitor creates a monitor; SetPage attaches it to a page and
// Start begins the poll.
func NewStateMonitor(opts StateMonitorOptions) *StateMonitor {
	log, _ := logging.NewLogger("state")

	if opts.PollInterval <= 0 {
		opts.PollInterval = 2 * time.Second
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = 500 * time.Millisecond
	}
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = 10
	}
	if opts.FingerprintSampleSize <= 0 {
		opts.FingerprintSampleSize = 100
	}

	return &StateMonitor{
		log:       log,
		opts:      opts,
		listeners: make(map[string]StateListener),
		stop:      make(chan struct{}),
	}
}

// Start begins the background poll. Idempotent.
func (m *StateMonitor) Start() {
	m.mu.Lock()
	if m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	m.done.Add(1)
	go func() {
		defer m.done.Done()
		ticker := time.NewTicker(m.opts.PollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-m.stop:
				return
			case <-ticker.C:
				m.poll()
			}
		}
	}()
}

// Stop halts the poll.
func (m *StateMonitor) Stop() {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return
	}
	m.started = false
	m.mu.Unlock()

	close(m.stop)
	m.done.Wait()
}

// SetPage points the monitor at a new page, subscribes its lifecycle
// events, and takes a baseline state so later deltas have a reference.
func (m *StateMonitor) SetPage(page playwright.Page) {
	m.mu.Lock()
	if m.page == page {
		m.mu.Unlock()
		return
	}
	m.page = page
	m.mu.Unlock()

	if page == nil {
		return
	}

	// Lifecycle subscriptions stay attached for the page's lifetime;
	// events for a page that is no longer current are ignored inside the
	// handler.
	page.OnDOMContentLoaded(func(p playwright.Page) {
		m.handleLifecycleEvent(p, "domcontentloaded")
	})
	page.OnLoad(func(p playwright.Page) {
		m.handleLifecycleEvent(p, "load")
	})
	page.OnFrameNavigated(func(frame playwright.Frame) {
		m.handleLifecycleEvent(page, "framenavigated")
	})

	m.Refresh("page-attached")
}

// Current returns the last observed state.
func (m *StateMonitor) Current() PageState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// History returns the retained significant states, oldest first.
func (m *StateMonitor) History() []PageState {
	m.mu.Lock()
	defer m.mu.Unlock()
	history := make([]PageState, len(m.history))
	copy(history, m.history)
	return history
}

// OnChange registers a listener and returns its registration id.
func (m *StateMonitor) OnChange(listener StateListener) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New().String()
	m.listeners[id] = listener
	return id
}

// RemoveListener drops a listener registration.
func (m *StateMonitor) RemoveListener(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.listeners, id)
}

// handleLifecycleEvent runs the bounded stabilization wait and refreshes,
// but only if the event belongs to the page the monitor currently tracks.
func (m *StateMonitor) handleLifecycleEvent(page playwright.Page, event string) {
	m.mu.Lock()
	tracked := m.page == page
	m.mu.Unlock()
	if !tracked {
		return
	}

	m.log.Debugf("Lifecycle event: %s", event)
	m.waitForStable(page)
	m.Refresh(event)
}

// waitForStable runs the three-stage stabilization wait: content loaded,
// then network idle, then a fixed settle delay. Each stage is
// independently time-boxed and non-fatal on timeout.
func (m *StateMonitor) waitForStable(page playwright.Page) {
	if page == nil || page.IsClosed() {
		return
	}

	if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateDomcontentloaded,
		Timeout: playwright.Float(3000),
	}); err != nil {
		m.log.Debugf("Content-loaded wait expired: %v", err)
	}

	if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   playwright.LoadStateNetworkidle,
		Timeout: playwright.Float(2000),
	}); err != nil {
		m.log.Debugf("Network-idle wait expired: %v", err)
	}

	time.Sleep(m.opts.SettleDelay)
}

// Refresh takes a fresh state observation. A significant change is pushed
// to history and fanned out to listeners tagged by what actually changed;
// trigger names the mechanism that asked for the refresh, for the log.
func (m *StateMonitor) Refresh(trigger string) PageState {
	m.mu.Lock()
	page := m.page
	old := m.current
	m.mu.Unlock()

	if page == nil || page.IsClosed() {
		return old
	}

	state := m.observe(page, old)

	m.mu.Lock()
	m.current = state
	m.lastRefresh = time.Now()

	tag, significant := classifyChange(old, state)
	if significant {
		m.history = append(m.history, state)
		if len(m.history) > m.opts.HistoryLimit {
			m.history = m.history[len(m.history)-m.opts.HistoryLimit:]
		}
	}
	listeners := m.snapshotListenersLocked()
	m.mu.Unlock()

	if significant {
		m.log.Debugf("State change (%s, via %s): %s -> %s", tag, trigger, old.URL, state.URL)
		for _, listener := range listeners {
			func() {
				defer func() {
					if r := recover(); r != nil {
						m.log.Errorf("State listener panicked: %v", r)
					}
				}()
				listener(old, state, tag)
			}()
		}
	}

	return state
}

// observe reads the page's current state, keeping the previous hash and
// counts wherever a query fails mid-navigation.
func (m *StateMonitor) observe(page playwright.Page, previous PageState) PageState {
	state := PageState{
		URL:                     safeURL(page),
		Title:                   safeTitle(page),
		Timestamp:               time.Now(),
		StructuralHash:          previous.StructuralHash,
		ElementCount:            previous.ElementCount,
		InteractiveElementCount: previous.InteractiveElementCount,
	}

	if hash, err := Fingerprint(page, m.opts.FingerprintSampleSize); err == nil {
		state.StructuralHash = hash
	} else {
		m.log.Debugf("Fingerprint kept previous value: %v", err)
	}

	state.ElementCount = countElements(page, previous.ElementCount)

	if sample, err := sampleContent(page, contentSampleLimit); err == nil {
		state.InteractiveElementCount = sample.Interactive
		m.mu.Lock()
		m.lastSample = sample
		m.mu.Unlock()
	}

	return state
}

// poll is the independent freshness trigger: it samples cheaply and
// refreshes only when the sample moved meaningfully and at least one
// interval has elapsed since the last refresh.
func (m *StateMonitor) poll() {
	m.mu.Lock()
	page := m.page
	fresh := time.Since(m.lastRefresh) < m.opts.PollInterval
	prev := m.lastSample
	m.mu.Unlock()

	if page == nil || page.IsClosed() || fresh {
		return
	}

	sample, err := sampleContent(page, contentSampleLimit)
	if err != nil {
		m.log.Debugf("Poll sample failed, skipping tick: %v", err)
		return
	}

	if !sampleDiffers(prev, sample) {
		return
	}

	m.log.Debugf("Poll detected content drift, refreshing state")
	m.Refresh("poll")
}

func (m *StateMonitor) snapshotListenersLocked() []StateListener {
	listeners := make([]StateListener, 0, len(m.listeners))
	for _, listener := range m.listeners {
		listeners = append(listeners, listener)
	}
	return listeners
}
