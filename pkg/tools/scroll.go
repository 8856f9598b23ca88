package tools

import (
	"context"
	"encoding/xml"
	"fmt"

	"github.com/sentrahq/sentra/pkg/browser"
)

// ScrollTool scrolls the active page's viewport.
type ScrollTool struct {
	controller Controller
}

// NewScrollTool creates a new scroll tool.
func NewScrollTool(controller Controller) *ScrollTool {
	return &ScrollTool{controller: controller}
}

// Name returns the tool name.
func (t *ScrollTool) Name() string {
	return "browser_scroll"
}

// Description returns the tool description.
func (t *ScrollTool) Description() string {
	return "Scroll the page up or down. Scrolling changes which elements are in view, so element indices are stale afterwards; run browser_detect before the next element action."
}

// Schema returns the tool's JSON schema.
func (t *ScrollTool) Schema() map[string]interface{} {
	return BaseToolSchema(
		map[string]interface{}{
			"direction": map[string]interface{}{
				"type":        "string",
				"description": "Scroll direction: 'down' (default) or 'up'",
			},
			"amount": map[string]interface{}{
				"type":        "integer",
				"description": "Pixels to scroll; 0 or omitted scrolls one viewport height",
			},
		},
		nil,
	)
}

// Execute scrolls.
func (t *ScrollTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName   xml.Name `xml:"arguments"`
		Direction string   `xml:"direction"`
		Amount    int      `xml:"amount"`
	}
	if err := UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}

	direction := browser.ScrollDown
	switch input.Direction {
	case "", "down":
	case "up":
		direction = browser.ScrollUp
	default:
		return "", nil, fmt.Errorf("invalid direction: %s (must be 'down' or 'up')", input.Direction)
	}

	result, err := t.controller.Scroll(direction, input.Amount)
	if err != nil {
		return "", nil, err
	}

	msg := fmt.Sprintf("Scrolled %s.\n%s", direction, navigationHint(result))
	return msg, actionMetadata(result), nil
}
