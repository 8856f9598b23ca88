package tools

import (
	"context"
	"encoding/xml"
	"fmt"
)

// NavigateTool drives the active page to a URL.
type NavigateTool struct {
	controller Controller
}

// NewNavigateTool creates a new navigate tool.
func NewNavigateTool(controller Controller) *NavigateTool {
	return &NavigateTool{controller: controller}
}

// Name returns the tool name.
func (t *NavigateTool) Name() string {
	return "browser_navigate"
}

// Description returns the tool description.
func (t *NavigateTool) Description() string {
	return "Navigate the active page to a URL and wait for its content to load. Always run browser_detect afterwards to index the new page."
}

// Schema returns the tool's JSON schema.
func (t *NavigateTool) Schema() map[string]interface{} {
	return BaseToolSchema(
		map[string]interface{}{
			"url": map[string]interface{}{
				"type":        "string",
				"description": "Absolute URL to navigate to (e.g., 'https://example.com')",
			},
		},
		[]string{"url"},
	)
}

// Execute navigates.
func (t *NavigateTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		URL     string   `xml:"url"`
	}
	if err := UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.URL == "" {
		return "", nil, fmt.Errorf("url is required")
	}

	result, err := t.controller.Navigate(input.URL)
	if err != nil {
		return "", nil, err
	}

	msg := fmt.Sprintf("Navigated to %s.\n%s", result.URL, navigationHint(result))
	return msg, actionMetadata(result), nil
}
