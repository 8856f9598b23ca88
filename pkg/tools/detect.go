package tools

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/sentrahq/sentra/pkg/browser"
)

// DetectTool runs a detection pass and returns the indexed element list.
type DetectTool struct {
	controller Controller
}

// NewDetectTool creates a new detect tool.
func NewDetectTool(controller Controller) *DetectTool {
	return &DetectTool{controller: controller}
}

// Name returns the tool name.
func (t *DetectTool) Name() string {
	return "browser_detect"
}

// Description returns the tool description.
func (t *DetectTool) Description() string {
	return "Scan the active page and return its interactive elements as a numbered list. Element indices from this list address all other element tools. Run this after any action that reports a page change."
}

// Schema returns the tool's JSON schema.
func (t *DetectTool) Schema() map[string]interface{} {
	return BaseToolSchema(
		map[string]interface{}{
			"force": map[string]interface{}{
				"type":        "boolean",
				"description": "Re-scan even when a snapshot from the current page already exists (default false)",
			},
		},
		nil,
	)
}

// Execute runs a detection pass.
func (t *DetectTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Force   bool     `xml:"force"`
	}
	if err := UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}

	snapshot, err := t.controller.Detect(input.Force)
	if err != nil {
		return "", nil, err
	}

	state := t.controller.State()
	result := fmt.Sprintf("Page: %s (%s)\n\nInteractive elements:\n%s",
		state.Title, state.URL, browser.FormatElements(snapshot))

	return result, map[string]interface{}{
		"element_count": snapshot.InteractiveCount(),
		"degraded":      snapshot.Degraded,
		"url":           state.URL,
	}, nil
}
