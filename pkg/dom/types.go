package dom

import (
	"sort"
	"time"
)

const (
	// IndexAttribute is the data attribute carrying an element's index
	// for the current detection pass.
	IndexAttribute = "data-sentra-index"

	// HighlightContainerID identifies the overlay container the indexer
	// renders numbered markers into.
	HighlightContainerID = "sentra-highlight-container"
)

// InteractionType classifies how an element expects to be interacted with.
type InteractionType int

const (
	// InteractionNone marks elements with no interactive signals.
	InteractionNone InteractionType = iota

	// InteractionClick marks buttons, links, and other click targets.
	InteractionClick

	// InteractionInput marks text fields, selects, and editable regions.
	InteractionInput

	// InteractionOther marks elements that respond to interaction without
	// being a recognizable control (handler-only divs, focusable widgets).
	InteractionOther
)

// String returns the planner-facing name of the interaction type.
func (t InteractionType) String() string {
	switch t {
	case InteractionClick:
		return "click"
	case InteractionInput:
		return "input"
	case InteractionOther:
		return "interactive"
	default:
		return "none"
	}
}

// BoundingRect is an element's rendered box in viewport coordinates.
type BoundingRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Center returns the midpoint of the rect, the point used for hit-testing.
func (r BoundingRect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// InteractiveElement is one indexed element from a detection pass.
// Instances are read-only once the pass completes; the next pass replaces
// them wholesale.
type InteractiveElement struct {
	Index       int
	Tag         string
	Text        string
	Attributes  map[string]string
	XPath       string
	CSSSelector string
	Visible     bool
	InViewport  bool
	Topmost     bool
	Interaction InteractionType
	Rect        BoundingRect
}

// IsInputElement reports whether typing is the expected interaction.
func (e *InteractiveElement) IsInputElement() bool {
	return e.Interaction == InteractionInput
}

// IsClickableOnly reports whether the element accepts clicks but not text.
func (e *InteractiveElement) IsClickableOnly() bool {
	return e.Interaction == InteractionClick
}

// Attr returns the named attribute, or "" when absent.
func (e *InteractiveElement) Attr(name string) string {
	if e.Attributes == nil {
		return ""
	}
	return e.Attributes[name]
}

// NodeID is a synthetic identifier assigned during one indexing pass.
type NodeID int

// Node is one entry in a snapshot's node map: either an element record or
// a text run. Text nodes have an empty Tag.
type Node struct {
	ID       NodeID
	Parent   NodeID
	Children []NodeID

	Tag         string
	Attributes  map[string]string
	XPath       string
	CSSSelector string
	Visible     bool
	InViewport  bool
	Topmost     bool
	Interaction InteractionType

	// HighlightIndex is the element's index for this pass, or -1 when the
	// element was not indexed.
	HighlightIndex int

	// Text holds the payload of a text node.
	Text string

	Rect BoundingRect
}

// IsText reports whether the node is a text run.
func (n *Node) IsText() bool {
	return n.Tag == ""
}

// DocumentSnapshot is the immutable result of one detection pass.
type DocumentSnapshot struct {
	RootID NodeID
	Nodes  map[NodeID]*Node

	// Elements lists the indexed interactive elements, dense by Index.
	Elements []InteractiveElement

	// Degraded is set when the snapshot came from the static fallback scan
	// rather than live in-page traversal.
	Degraded bool

	CapturedAt time.Time
}

// EmptySnapshot returns a snapshot with no nodes, used when no document
// root is obtainable.
func EmptySnapshot(degraded bool) *DocumentSnapshot {
	return &DocumentSnapshot{
		RootID:     -1,
		Nodes:      map[NodeID]*Node{},
		Elements:   nil,
		Degraded:   degraded,
		CapturedAt: time.Now(),
	}
}

// Element returns the indexed element for a highlight index.
func (s *DocumentSnapshot) Element(index int) (*InteractiveElement, bool) {
	if index < 0 || index >= len(s.Elements) {
		return nil, false
	}
	return &s.Elements[index], true
}

// SelectorMap associates each highlight index with its snapshot node.
func (s *DocumentSnapshot) SelectorMap() map[int]*Node {
	m := make(map[int]*Node)
	for _, node := range s.Nodes {
		if !node.IsText() && node.HighlightIndex >= 0 {
			m[node.HighlightIndex] = node
		}
	}
	return m
}

// ElementCount returns the number of element nodes in the snapshot.
func (s *DocumentSnapshot) ElementCount() int {
	count := 0
	for _, node := range s.Nodes {
		if !node.IsText() {
			count++
		}
	}
	return count
}

// InteractiveCount returns the number of indexed interactive elements.
func (s *DocumentSnapshot) InteractiveCount() int {
	return len(s.Elements)
}

// sortElements orders Elements by index after decoding.
func (s *DocumentSnapshot) sortElements() {
	sort.Slice(s.Elements, func(i, j int) bool {
		return s.Elements[i].Index < s.Elements[j].Index
	})
}
