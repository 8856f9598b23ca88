// Package dom indexes the interactive elements of a live web page.
//
// The indexer runs a traversal script inside the page, classifies every
// visible element, and assigns each interactive one a small integer index
// for the duration of that pass. Indices are written back onto the element
// as a data attribute so later operations can address elements without
// assuming the DOM structure stayed stable.
//
// # Detection Pass
//
// One call to Indexer.Index produces one DocumentSnapshot:
//
//  1. Traverse depth-first from the document body, skipping script/style
//     and hidden subtrees
//  2. Compute visibility and viewport membership per element
//  3. Classify interactivity from tag, ARIA role, cursor style, handlers,
//     and editability signals
//  4. Hit-test the element's visual center so only the topmost element at
//     that point receives an index
//  5. Optionally draw a numbered overlay for each indexed element
//
// Snapshots are immutable. The next pass supersedes the previous one
// wholesale, including all index assignments.
//
// # Degraded Mode
//
// When in-page script evaluation fails, or when the indexing script is
// unavailable at startup, the indexer falls back to a static scan of the
// page source. Fallback snapshots carry Degraded=true: elements are
// classified from markup alone, with no layout, viewport, or occlusion
// information.
//
// # Addressing
//
// Indexed elements carry the IndexAttribute data attribute. The numbered
// overlay lives in a full-viewport container identified by
// HighlightContainerID; the container never receives pointer events and
// is excluded from page text sampling by the state detector.
package dom
