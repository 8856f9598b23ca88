package tools

import (
	"context"
	"encoding/xml"
	"fmt"
)

// ClickTool clicks an indexed element on the active page.
type ClickTool struct {
	controller Controller
}

// NewClickTool creates a new click tool.
func NewClickTool(controller Controller) *ClickTool {
	return &ClickTool{controller: controller}
}

// Name returns the tool name.
func (t *ClickTool) Name() string {
	return "browser_click"
}

// Description returns the tool description.
func (t *ClickTool) Description() string {
	return "Click an element by its index from the last browser_detect listing. Retries with escalating strength when the element is covered or unstable."
}

// Schema returns the tool's JSON schema.
func (t *ClickTool) Schema() map[string]interface{} {
	return BaseToolSchema(
		map[string]interface{}{
			"index": map[string]interface{}{
				"type":        "integer",
				"description": "Element index from the last detection pass",
			},
		},
		[]string{"index"},
	)
}

// Execute clicks the element.
func (t *ClickTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Index   *int     `xml:"index"`
	}
	if err := UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.Index == nil {
		return "", nil, fmt.Errorf("index is required")
	}

	result, err := t.controller.Click(*input.Index)
	if err != nil {
		return "", nil, err
	}

	msg := fmt.Sprintf("Clicked element %d (attempt %d).\nCurrent URL: %s\n%s",
		*input.Index, result.Attempts, result.URL, navigationHint(result))
	return msg, actionMetadata(result), nil
}
