package tools

import (
	"context"
	"encoding/xml"
	"fmt"
)

// TypeTool types text into an indexed editable element.
type TypeTool struct {
	controller Controller
}

// NewTypeTool creates a new type tool.
func NewTypeTool(controller Controller) *TypeTool {
	return &TypeTool{controller: controller}
}

// Name returns the tool name.
func (t *TypeTool) Name() string {
	return "browser_type"
}

// Description returns the tool description.
func (t *TypeTool) Description() string {
	return "Type text into an editable element by its index from the last browser_detect listing. Fails with a clear reason when the target expects a click instead, or is disabled or read-only."
}

// Schema returns the tool's JSON schema.
func (t *TypeTool) Schema() map[string]interface{} {
	return BaseToolSchema(
		map[string]interface{}{
			"index": map[string]interface{}{
				"type":        "integer",
				"description": "Element index from the last detection pass",
			},
			"text": map[string]interface{}{
				"type":        "string",
				"description": "Text to type; replaces the element's current value",
			},
		},
		[]string{"index", "text"},
	)
}

// Execute types the text.
func (t *TypeTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Index   *int     `xml:"index"`
		Text    string   `xml:"text"`
	}
	if err := UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.Index == nil {
		return "", nil, fmt.Errorf("index is required")
	}

	result, err := t.controller.Type(*input.Index, input.Text)
	if err != nil {
		return "", nil, err
	}

	msg := fmt.Sprintf("Typed %q into element %d (attempt %d).\n%s",
		input.Text, *input.Index, result.Attempts, navigationHint(result))
	return msg, actionMetadata(result), nil
}
