package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"strings"
)

// PressKeyTool sends a key press to the active page.
type PressKeyTool struct {
	controller Controller
}

// NewPressKeyTool creates a new press-key tool.
func NewPressKeyTool(controller Controller) *PressKeyTool {
	return &PressKeyTool{controller: controller}
}

// Name returns the tool name.
func (t *PressKeyTool) Name() string {
	return "browser_press_key"
}

// Description returns the tool description.
func (t *PressKeyTool) Description() string {
	return "Press a keyboard key, optionally with modifiers. A bare Enter is context-sensitive: it submits search boxes and activates buttons, but advances focus in generic form fields instead of submitting a half-filled form."
}

// Schema returns the tool's JSON schema.
func (t *PressKeyTool) Schema() map[string]interface{} {
	return BaseToolSchema(
		map[string]interface{}{
			"key": map[string]interface{}{
				"type":        "string",
				"description": "Key to press (e.g., 'Enter', 'Escape', 'Tab', 'a')",
			},
			"modifiers": map[string]interface{}{
				"type":        "string",
				"description": "Comma-separated modifiers (e.g., 'Control' or 'Control,Shift')",
			},
		},
		[]string{"key"},
	)
}

// Execute presses the key.
func (t *PressKeyTool) Execute(ctx context.Context, argsXML []byte) (string, map[string]interface{}, error) {
	var input struct {
		XMLName   xml.Name `xml:"arguments"`
		Key       string   `xml:"key"`
		Modifiers string   `xml:"modifiers"`
	}
	if err := UnmarshalXMLWithFallback(argsXML, &input); err != nil {
		return "", nil, fmt.Errorf("invalid parameters: %w", err)
	}
	if input.Key == "" {
		return "", nil, fmt.Errorf("key is required")
	}

	var modifiers []string
	for _, m := range strings.Split(input.Modifiers, ",") {
		if m = strings.TrimSpace(m); m != "" {
			modifiers = append(modifiers, m)
		}
	}

	result, err := t.controller.PressKey(input.Key, modifiers)
	if err != nil {
		return "", nil, err
	}

	combo := input.Key
	if len(modifiers) > 0 {
		combo = strings.Join(modifiers, "+") + "+" + input.Key
	}
	msg := fmt.Sprintf("Pressed %s.\n%s", combo, navigationHint(result))
	return msg, actionMetadata(result), nil
}
