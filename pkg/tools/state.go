package tools

import (
	"context"
	"fmt"
)

// StateTool reports the detector's view of the active page plus the
// controller's operation counters.
type StateTool struct {
	controller Controller
}

// NewStateTool creates a new state tool.
func NewStateTool(controller Controller) *StateTool {
	return &StateTool{controller: controller}
}

// Name returns the tool name.
func (t *StateTool) Name() string {
	return "browser_state"
}

// Description returns the tool description.
func (t *StateTool) Description() string {
	return "Report the current page state: URL, title, element counts and the session's operation counters. Useful for checking whether the page settled after an action."
}

// Schema returns the tool's JSON schema.
func (t *StateTool) Schema() map[string]interface{} {
	return BaseToolSchema(map[string]interface{}{}, nil)
}

// Execute reports the state.
func (t *StateTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	state := t.controller.State()
	stats := t.controller.Stats()

	result := fmt.Sprintf(`Page state:
- URL: %s
- Title: %s
- Elements: %d (%d interactive)
- Observed at: %s

Session counters:
- Actions: %d attempted, %d succeeded, %d failed
- Navigations: %d
- Tab switches: %d`,
		state.URL,
		state.Title,
		state.ElementCount,
		state.InteractiveElementCount,
		state.Timestamp.Format("15:04:05.000"),
		stats.Attempts, stats.Successes, stats.Failures,
		stats.Navigations,
		stats.TabSwitches,
	)

	return result, map[string]interface{}{
		"url":               state.URL,
		"title":             state.Title,
		"element_count":     state.ElementCount,
		"interactive_count": state.InteractiveElementCount,
	}, nil
}
