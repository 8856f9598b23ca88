package tools

import (
	"context"
	"encoding/xml"
	"fmt"
)

// SelectOptionTool picks an option on an indexed select element.
type SelectOptionTool struct {
	controller Controller
}

// NewSelectOptionTool creates a new select-option tool.
func NewSelectOptionTool(controller Controller) *SelectOptionTool {
	return &SelectOptionTool{controller: controller}
}

// Name returns the tool name.
func (t *SelectOptionTool) Name() string {
	return "browser_select_option"
}

// Description returns the tool description.
func (t *SelectOptionTool) Description() string {
	return "Select an option on a <select> element by its index from the last browser_detect listing. Fails with a clear reason when the target is not a select or is disabled."
}

// Schema returns the tool's JSON schema.
func (t *SelectOptionTool) Schema() map[string]interface{} {
	return BaseToolSchema(
		map[string]interface{}{
			"index": map[string]interface{}{
				"type":        "integer",
				"description": "Element index from the last detection pass",
			},
			"value": map[string]interface{}{
				"type":        "string",
				"description": "Option value to select",
			},
		},
		[]string{"index", "value"},
	)
}

// Execute selects the option.
func (t *SelectOptionTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName xml.Name `xml:"arguments"`
		Index   *int     `xml:"index"`
		Value   string   `xml:"value"`
	}
	if err := UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.Index == nil {
		return "", nil, fmt.Errorf("index is required")
	}
	if input.Value == "" {
		return "", nil, fmt.Errorf("value is required")
	}

	result, err := t.controller.SelectOption(*input.Index, input.Value)
	if err != nil {
		return "", nil, err
	}

	msg := fmt.Sprintf("Selected %q on element %d.\n%s",
		input.Value, *input.Index, navigationHint(result))
	return msg, actionMetadata(result), nil
}
