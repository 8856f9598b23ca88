package dom

import (
	"fmt"
	"strconv"
	"time"
)

// decodeSnapshot converts the indexing script's return value into a typed
// snapshot. Interaction types are re-derived host-side from the raw
// signals each element reported.
func decodeSnapshot(result interface{}) (*DocumentSnapshot, error) {
	payload, ok := result.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected indexing result type %T", result)
	}

	if payload["rootId"] == nil {
		return EmptySnapshot(false), nil
	}
	rootID := NodeID(getInt(payload, "rootId"))

	rawMap, ok := payload["map"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("indexing result has no node map")
	}

	snapshot := &DocumentSnapshot{
		RootID:     rootID,
		Nodes:      make(map[NodeID]*Node, len(rawMap)),
		CapturedAt: time.Now(),
	}

	for key, rawNode := range rawMap {
		id, err := strconv.Atoi(key)
		if err != nil {
			return nil, fmt.Errorf("invalid node id %q", key)
		}

		nodeMap, ok := rawNode.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("invalid node record for id %d", id)
		}

		node := decodeNode(NodeID(id), nodeMap)
		snapshot.Nodes[node.ID] = node

		if !node.IsText() && node.HighlightIndex >= 0 {
			snapshot.Elements = append(snapshot.Elements, InteractiveElement{
				Index:       node.HighlightIndex,
				Tag:         node.Tag,
				Text:        getString(nodeMap, "text"),
				Attributes:  node.Attributes,
				XPath:       node.XPath,
				CSSSelector: node.CSSSelector,
				Visible:     node.Visible,
				InViewport:  node.InViewport,
				Topmost:     node.Topmost,
				Interaction: node.Interaction,
				Rect:        node.Rect,
			})
		}
	}

	snapshot.sortElements()
	if err := verifyDense(snapshot.Elements); err != nil {
		return nil, err
	}

	return snapshot, nil
}

// decodeNode converts one raw node record. Records without a tag are text
// runs.
func decodeNode(id NodeID, m map[string]interface{}) *Node {
	node := &Node{
		ID:             id,
		Parent:         -1,
		HighlightIndex: -1,
	}

	if m["parent"] != nil {
		node.Parent = NodeID(getInt(m, "parent"))
	}

	tag := getString(m, "tag")
	if tag == "" {
		node.Text = getString(m, "text")
		node.Visible = getBool(m, "visible")
		return node
	}

	node.Tag = tag
	node.XPath = getString(m, "xpath")
	node.CSSSelector = getString(m, "css")
	node.Visible = getBool(m, "visible")
	node.InViewport = getBool(m, "inViewport")
	node.Topmost = getBool(m, "topmost")

	if m["highlightIndex"] != nil {
		node.HighlightIndex = getInt(m, "highlightIndex")
	}

	node.Attributes = make(map[string]string)
	if attrs, ok := m["attributes"].(map[string]interface{}); ok {
		for k, v := range attrs {
			if s, ok := v.(string); ok {
				node.Attributes[k] = s
			}
		}
	}

	if children, ok := m["children"].([]interface{}); ok {
		for _, child := range children {
			node.Children = append(node.Children, NodeID(toInt(child)))
		}
	}

	if rect, ok := m["rect"].(map[string]interface{}); ok {
		node.Rect = BoundingRect{
			X:      getFloat(rect, "x"),
			Y:      getFloat(rect, "y"),
			Width:  getFloat(rect, "width"),
			Height: getFloat(rect, "height"),
		}
	}

	node.Interaction = Classify(decodeSignals(m, node))

	return node
}

// decodeSignals rebuilds the classification descriptor from the signals
// the script reported alongside the node.
func decodeSignals(m map[string]interface{}, node *Node) ElementDescriptor {
	desc := ElementDescriptor{
		Tag:       node.Tag,
		Role:      node.Attributes["role"],
		InputType: node.Attributes["type"],
	}

	signals, ok := m["signals"].(map[string]interface{})
	if !ok {
		return desc
	}

	desc.Role = getString(signals, "role")
	desc.InputType = getString(signals, "inputType")
	desc.Cursor = getString(signals, "cursor")
	desc.TabIndex = getInt(signals, "tabIndex")
	desc.HasTabIndex = getBool(signals, "hasTabIndex")
	desc.ContentEditable = getBool(signals, "contentEditable")
	desc.HasClickHandler = getBool(signals, "clickHandler")
	desc.HasAriaState = getBool(signals, "ariaState")
	desc.Disabled = getBool(signals, "disabled")

	return desc
}

// verifyDense checks that element indices form the range 0..N-1. A gap
// means the script's index assignment went wrong and the pass cannot be
// trusted.
func verifyDense(elements []InteractiveElement) error {
	for i, el := range elements {
		if el.Index != i {
			return fmt.Errorf("element indices not dense: position %d holds index %d", i, el.Index)
		}
	}
	return nil
}

// getString extracts a string value from a decoded map
func getString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// getBool extracts a boolean value from a decoded map
func getBool(m map[string]interface{}, key string) bool {
	if v, ok := m[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return false
}

// getInt extracts an integer value from a decoded map
func getInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		return toInt(v)
	}
	return 0
}

// getFloat extracts a float value from a decoded map
func getFloat(m map[string]interface{}, key string) float64 {
	if v, ok := m[key]; ok {
		switch val := v.(type) {
		case float64:
			return val
		case int:
			return float64(val)
		}
	}
	return 0
}

// toInt normalizes the number representations the driver hands back
func toInt(v interface{}) int {
	switch val := v.(type) {
	case int:
		return val
	case float64:
		return int(val)
	}
	return 0
}
