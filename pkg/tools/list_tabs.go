package tools

import (
	"context"
	"fmt"

	"github.com/sentrahq/sentra/pkg/browser"
)

// ListTabsTool lists the tracked browser tabs.
type ListTabsTool struct {
	controller Controller
}

// NewListTabsTool creates a new list-tabs tool.
func NewListTabsTool(controller Controller) *ListTabsTool {
	return &ListTabsTool{controller: controller}
}

// Name returns the tool name.
func (t *ListTabsTool) Name() string {
	return "browser_list_tabs"
}

// Description returns the tool description.
func (t *ListTabsTool) Description() string {
	return "List the open browser tabs with their ids, titles, URLs and page types. The active tab is marked with an asterisk; tab ids address browser_switch_tab."
}

// Schema returns the tool's JSON schema.
func (t *ListTabsTool) Schema() map[string]interface{} {
	return BaseToolSchema(map[string]interface{}{}, nil)
}

// Execute lists the tabs.
func (t *ListTabsTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	tabs := t.controller.Tabs()

	activeID := ""
	if active := t.controller.ActiveTab(); active != nil {
		activeID = active.ID
	}

	result := fmt.Sprintf("Open tabs (%d):\n%s", len(tabs), browser.FormatTabs(tabs, activeID))
	return result, map[string]interface{}{
		"tab_count": len(tabs),
		"active_id": activeID,
	}, nil
}
