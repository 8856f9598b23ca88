package tools

import (
	"context"
	"encoding/xml"
	"fmt"
)

// SwitchTabTool promotes a tab to active by id.
type SwitchTabTool struct {
	controller Controller
}

// NewSwitchTabTool creates a new switch-tab tool.
func NewSwitchTabTool(controller Controller) *SwitchTabTool {
	return &SwitchTabTool{controller: controller}
}

// Name returns the tool name.
func (t *SwitchTabTool) Name() string {
	return "browser_switch_tab"
}

// Description returns the tool description.
func (t *SwitchTabTool) Description() string {
	return "Switch the active tab by id from browser_list_tabs. All element tools address the active tab, and switching re-indexes it; run browser_detect for the fresh element list."
}

// Schema returns the tool's JSON schema.
func (t *SwitchTabTool) Schema() map[string]interface{} {
	return BaseToolSchema(
		map[string]interface{}{
			"id": map[string]interface{}{
				"type":        "string",
				"description": "Tab id from browser_list_tabs",
			},
		},
		[]string{"id"},
	)
}

// Execute switches tabs.
func (t *SwitchTabTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		ID      string   `xml:"id"`
	}
	if err := UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.ID == "" {
		return "", nil, fmt.Errorf("id is required")
	}

	if err := t.controller.SwitchTab(input.ID); err != nil {
		return "", nil, err
	}

	url := ""
	if active := t.controller.ActiveTab(); active != nil {
		url = active.URL
	}
	msg := fmt.Sprintf("Switched to tab %s.\nCurrent URL: %s\nElement indices are stale, run browser_detect before the next element action.", input.ID, url)
	return msg, map[string]interface{}{"active_id": input.ID, "url": url}, nil
}
