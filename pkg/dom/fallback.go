package dom

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ScanHTML builds a degraded snapshot from static page source.
//
// The scan classifies elements from markup alone: no layout, cursor, or
// listener information is available, viewport membership and occlusion
// cannot be judged, and visibility is approximated from hiding attributes
// and inline styles. Snapshots produced here always carry Degraded=true.
func ScanHTML(source string) (*DocumentSnapshot, error) {
	doc, err := html.Parse(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	root := findElement(doc, "body")
	if root == nil {
		root = findElement(doc, "html")
	}
	if root == nil {
		return EmptySnapshot(true), nil
	}

	scan := &staticScanner{
		snapshot: &DocumentSnapshot{
			Nodes:      map[NodeID]*Node{},
			Degraded:   true,
			CapturedAt: time.Now(),
		},
	}

	rootID, ok := scan.walk(root, -1, "", "")
	if !ok {
		return EmptySnapshot(true), nil
	}
	scan.snapshot.RootID = rootID
	scan.snapshot.sortElements()

	return scan.snapshot, nil
}

// staticScanner threads the node-id and highlight-index cursors through
// the traversal.
type staticScanner struct {
	snapshot  *DocumentSnapshot
	nextNode  NodeID
	nextIndex int
}

func (s *staticScanner) record(node *Node) NodeID {
	node.ID = s.nextNode
	s.nextNode++
	s.snapshot.Nodes[node.ID] = node
	return node.ID
}

// walk processes one parse-tree node and its children. The second return
// is false for skipped nodes.
func (s *staticScanner) walk(n *html.Node, parent NodeID, parentXPath, parentCSS string) (NodeID, bool) {
	switch n.Type {
	case html.TextNode:
		text := strings.TrimSpace(n.Data)
		if text == "" {
			return 0, false
		}
		if len(text) > 500 {
			text = text[:500]
		}
		id := s.record(&Node{
			Parent:  parent,
			Text:    text,
			Visible: true,
		})
		return id, true

	case html.ElementNode:
		// handled below

	default:
		return 0, false
	}

	tag := strings.ToLower(n.Data)
	if isSkippedScanElement(tag) {
		return 0, false
	}

	attrs := attributeMap(n)
	if attrs["id"] == HighlightContainerID {
		return 0, false
	}

	visible := staticallyVisible(tag, attrs)
	xpath := parentXPath + "/" + tag + fmt.Sprintf("[%d]", elementPosition(n))
	css := staticSelector(n, tag, attrs, parentCSS)

	node := &Node{
		Parent:         parent,
		Tag:            tag,
		Attributes:     attrs,
		XPath:          xpath,
		CSSSelector:    css,
		Visible:        visible,
		InViewport:     true,
		Topmost:        true,
		HighlightIndex: -1,
		Interaction:    Classify(staticDescriptor(tag, attrs)),
	}

	if visible && node.Interaction != InteractionNone {
		node.HighlightIndex = s.nextIndex
		s.nextIndex++
	}

	id := s.record(node)

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if childID, ok := s.walk(c, id, xpath, css); ok {
			node.Children = append(node.Children, childID)
		}
	}

	if node.HighlightIndex >= 0 {
		s.snapshot.Elements = append(s.snapshot.Elements, InteractiveElement{
			Index:       node.HighlightIndex,
			Tag:         tag,
			Text:        collectText(n, 200),
			Attributes:  attrs,
			XPath:       xpath,
			CSSSelector: css,
			Visible:     true,
			InViewport:  true,
			Topmost:     true,
			Interaction: node.Interaction,
		})
	}

	return id, true
}

// staticDescriptor builds the classification descriptor from markup alone
func staticDescriptor(tag string, attrs map[string]string) ElementDescriptor {
	tabIndexAttr, hasTabIndex := attrs["tabindex"]
	tabIndex := 0
	if hasTabIndex {
		fmt.Sscanf(tabIndexAttr, "%d", &tabIndex)
	}

	contentEditable := false
	if ce, ok := attrs["contenteditable"]; ok {
		contentEditable = !strings.EqualFold(ce, "false")
	}

	hasAriaState := false
	for _, name := range []string{"aria-pressed", "aria-expanded", "aria-selected", "aria-checked"} {
		if _, ok := attrs[name]; ok {
			hasAriaState = true
			break
		}
	}

	_, disabled := attrs["disabled"]

	return ElementDescriptor{
		Tag:             tag,
		Role:            attrs["role"],
		InputType:       attrs["type"],
		TabIndex:        tabIndex,
		HasTabIndex:     hasTabIndex,
		ContentEditable: contentEditable,
		HasClickHandler: attrs["onclick"] != "",
		HasAriaState:    hasAriaState,
		Disabled:        disabled || strings.EqualFold(attrs["aria-disabled"], "true"),
	}
}

// staticallyVisible approximates visibility from hiding attributes and
// inline styles
func staticallyVisible(tag string, attrs map[string]string) bool {
	if _, hidden := attrs["hidden"]; hidden {
		return false
	}
	if strings.EqualFold(attrs["aria-hidden"], "true") {
		return false
	}
	if tag == "input" && strings.EqualFold(attrs["type"], "hidden") {
		return false
	}

	style := strings.ReplaceAll(strings.ToLower(attrs["style"]), " ", "")
	if strings.Contains(style, "display:none") || strings.Contains(style, "visibility:hidden") {
		return false
	}

	return true
}

// staticSelector mirrors the in-page selector generation: id first, then
// test ids and names, then a positional chain from the nearest anchor.
func staticSelector(n *html.Node, tag string, attrs map[string]string, parentCSS string) string {
	if id := attrs["id"]; id != "" {
		return "#" + id
	}
	if testID := attrs["data-testid"]; testID != "" {
		return fmt.Sprintf("[data-testid=%q]", testID)
	}
	if name := attrs["name"]; name != "" {
		return fmt.Sprintf("%s[name=%q]", tag, name)
	}

	segment := fmt.Sprintf("%s:nth-of-type(%d)", tag, elementPosition(n))
	if parentCSS == "" {
		return segment
	}
	return parentCSS + " > " + segment
}

// elementPosition counts preceding siblings with the same tag, 1-based
func elementPosition(n *html.Node) int {
	position := 1
	for sib := n.PrevSibling; sib != nil; sib = sib.PrevSibling {
		if sib.Type == html.ElementNode && sib.Data == n.Data {
			position++
		}
	}
	return position
}

// attributeMap collects element attributes, dropping any stale index
// attribute from a previous live pass
func attributeMap(n *html.Node) map[string]string {
	attrs := make(map[string]string, len(n.Attr))
	for _, attr := range n.Attr {
		if attr.Key == IndexAttribute {
			continue
		}
		attrs[strings.ToLower(attr.Key)] = attr.Val
	}
	return attrs
}

// collectText gathers descendant text up to limit characters
func collectText(n *html.Node, limit int) string {
	var builder strings.Builder
	var traverse func(*html.Node)
	traverse = func(node *html.Node) {
		if builder.Len() >= limit {
			return
		}
		if node.Type == html.TextNode {
			text := strings.TrimSpace(node.Data)
			if text != "" {
				if builder.Len() > 0 {
					builder.WriteString(" ")
				}
				builder.WriteString(text)
			}
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(n)

	text := builder.String()
	if len(text) > limit {
		text = text[:limit]
	}
	return text
}

// isSkippedScanElement returns true for elements that never contribute
// interactive content
func isSkippedScanElement(tag string) bool {
	skipped := map[string]bool{
		"script":   true,
		"style":    true,
		"noscript": true,
		"template": true,
		"head":     true,
		"meta":     true,
		"link":     true,
	}
	return skipped[tag]
}

// findElement locates the first element with the given tag
func findElement(doc *html.Node, tag string) *html.Node {
	var found *html.Node
	var traverse func(*html.Node)
	traverse = func(n *html.Node) {
		if found != nil {
			return
		}
		if n.Type == html.ElementNode && n.Data == tag {
			found = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			traverse(c)
		}
	}
	traverse(doc)
	return found
}
