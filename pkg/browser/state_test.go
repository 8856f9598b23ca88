package browser

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyChange(t *testing.T) {
	base := PageState{
		URL:            "https://example.com",
		Title:          "Example",
		StructuralHash: 111,
		ElementCount:   200,
	}

	tests := []struct {
		name            string
		mutate          func(s *PageState)
		wantEvent       StateEvent
		wantSignificant bool
	}{
		{
			name:            "no change",
			mutate:          func(*PageState) {},
			wantSignificant: false,
		},
		{
			name:            "url change wins",
			mutate:          func(s *PageState) { s.URL = "https://example.com/next"; s.Title = "Next" },
			wantEvent:       EventNavigation,
			wantSignificant: true,
		},
		{
			name:            "title change",
			mutate:          func(s *PageState) { s.Title = "Example - updated" },
			wantEvent:       EventTitleChanged,
			wantSignificant: true,
		},
		{
			name:            "structure change",
			mutate:          func(s *PageState) { s.StructuralHash = 222 },
			wantEvent:       EventStructureChanged,
			wantSignificant: true,
		},
		{
			name:            "large element count delta",
			mutate:          func(s *PageState) { s.ElementCount = 300 },
			wantEvent:       EventContentChanged,
			wantSignificant: true,
		},
		{
			name:            "small element count delta",
			mutate:          func(s *PageState) { s.ElementCount = 230 },
			wantSignificant: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base
			tt.mutate(&next)
			event, significant := classifyChange(base, next)
			assert.Equal(t, tt.wantSignificant, significant)
			if tt.wantSignificant {
				assert.Equal(t, tt.wantEvent, event)
			}
		})
	}
}

func TestSetPageTakesBaseline(t *testing.T) {
	m := NewStateMonitor(StateMonitorOptions{})

	page := newFakePage("https://example.com")
	page.structureSample = "html|body|div#app"
	page.elementCount = 120

	m.SetPage(page)

	state := m.Current()
	assert.Equal(t, "https://example.com", state.URL)
	assert.Equal(t, "Test Page", state.Title)
	assert.Equal(t, hashStructure("html|body|div#app"), state.StructuralHash)
	assert.Equal(t, 120, state.ElementCount)
	assert.Equal(t, 1, state.InteractiveElementCount)
}

func TestRefreshNotifiesOnSignificantChange(t *testing.T) {
	m := NewStateMonitor(StateMonitorOptions{})
	page := newFakePage("https://example.com")
	m.SetPage(page)

	type change struct {
		old, new PageState
		event    StateEvent
	}
	changes := make(chan change, 4)
	m.OnChange(func(old, new PageState, event StateEvent) {
		changes <- change{old, new, event}
	})

	page.setURL("https://example.com/results")
	m.Refresh("test")

	select {
	case c := <-changes:
		assert.Equal(t, EventNavigation, c.event)
		assert.Equal(t, "https://example.com", c.old.URL)
		assert.Equal(t, "https://example.com/results", c.new.URL)
	default:
		t.Fatal("expected a navigation notification")
	}

	// An identical observation is not significant and fires nothing.
	m.Refresh("test")
	assert.Empty(t, changes)

	page.mu.Lock()
	page.title = "Results - updated"
	page.mu.Unlock()
	m.Refresh("test")

	select {
	case c := <-changes:
		assert.Equal(t, EventTitleChanged, c.event)
	default:
		t.Fatal("expected a title notification")
	}
}

func TestRefreshKeepsHashOnEvaluateFailure(t *testing.T) {
	m := NewStateMonitor(StateMonitorOptions{})
	page := newFakePage("https://example.com")
	page.structureSample = "html|body|main"
	m.SetPage(page)

	baseline := m.Current()
	require.NotZero(t, baseline.StructuralHash)

	page.mu.Lock()
	page.evalFn = func(string, []interface{}) (interface{}, error) {
		return nil, errors.New("execution context destroyed")
	}
	page.mu.Unlock()

	state := m.Refresh("test")
	assert.Equal(t, baseline.StructuralHash, state.StructuralHash)
	assert.Equal(t, baseline.ElementCount, state.ElementCount)
}

func TestHistoryIsCapped(t *testing.T) {
	m := NewStateMonitor(StateMonitorOptions{HistoryLimit: 3})
	page := newFakePage("https://example.com/0")
	m.SetPage(page)

	for i := 1; i <= 5; i++ {
		page.setURL("https://example.com/" + string(rune('0'+i)))
		m.Refresh("test")
	}

	history := m.History()
	require.Len(t, history, 3)
	assert.Equal(t, "https://example.com/3", history[0].URL)
	assert.Equal(t, "https://example.com/5", history[2].URL)
}

func TestStateListenerPanicIsolation(t *testing.T) {
	m := NewStateMonitor(StateMonitorOptions{})
	page := newFakePage("https://example.com")
	m.SetPage(page)

	var survived int32
	m.OnChange(func(PageState, PageState, StateEvent) {
		panic("listener bug")
	})
	m.OnChange(func(PageState, PageState, StateEvent) {
		atomic.AddInt32(&survived, 1)
	})

	page.setURL("https://example.com/next")
	m.Refresh("test")
	assert.Equal(t, int32(1), atomic.LoadInt32(&survived))
}

func TestPollSkipsFreshState(t *testing.T) {
	m := NewStateMonitor(StateMonitorOptions{PollInterval: time.Minute})
	page := newFakePage("https://example.com")
	m.SetPage(page)

	// A drastic content change right after a refresh: the freshness guard
	// swallows the tick.
	page.mu.Lock()
	page.sample = map[string]interface{}{"text": "completely different content body", "interactive": float64(40)}
	page.url = "https://example.com/next"
	page.mu.Unlock()

	m.poll()
	assert.Equal(t, "https://example.com", m.Current().URL)

	// Age the last refresh past the interval and the same tick fires.
	m.mu.Lock()
	m.lastRefresh = time.Now().Add(-2 * time.Minute)
	m.mu.Unlock()

	m.poll()
	assert.Equal(t, "https://example.com/next", m.Current().URL)
}

func TestPollIgnoresStableSample(t *testing.T) {
	m := NewStateMonitor(StateMonitorOptions{PollInterval: time.Minute})
	page := newFakePage("https://example.com")
	m.SetPage(page)

	m.mu.Lock()
	m.lastRefresh = time.Now().Add(-2 * time.Minute)
	m.mu.Unlock()

	// Same sample, stale refresh: nothing significant to report.
	page.setURL("https://example.com") // unchanged
	m.poll()
	assert.Empty(t, m.History()[1:], "no additional history entries expected")
}
