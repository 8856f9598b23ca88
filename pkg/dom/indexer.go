package dom

import (
	"errors"
	"fmt"

	"github.com/sentrahq/sentra/pkg/logging"
)

var debugLog *logging.Logger

func init() {
	var err error
	debugLog, err = logging.NewLogger("dom")
	if err != nil {
		// Logger fell back to stderr due to initialization failure
		debugLog.Warnf("Failed to initialize dom logger, using stderr fallback: %v", err)
	}
}

// ErrIndexScriptUnavailable reports that the indexing script was missing
// at startup. The indexer stays usable but every pass runs the static
// fallback scan.
var ErrIndexScriptUnavailable = errors.New("indexing script unavailable")

// PageEvaluator is the driver surface one detection pass needs.
type PageEvaluator interface {
	Evaluate(expression string, options ...interface{}) (interface{}, error)
	Content() (string, error)
}

// Options control one detection pass.
type Options struct {
	// HighlightEnabled draws numbered overlays on indexed elements.
	HighlightEnabled bool

	// FocusIndex limits overlays to a single index; -1 highlights all.
	FocusIndex int

	// ViewportExpansion extends the indexable area beyond the viewport in
	// pixels. -1 indexes the whole page.
	ViewportExpansion int
}

// DefaultOptions returns the options used when the caller has no opinion.
func DefaultOptions() Options {
	return Options{
		HighlightEnabled:  true,
		FocusIndex:        -1,
		ViewportExpansion: 0,
	}
}

// Indexer runs detection passes against a live page.
type Indexer struct {
	script   string
	degraded bool
}

// NewIndexer creates an indexer around the given in-page script. An empty
// script permanently downgrades the indexer to the static fallback scan;
// the returned error reports that condition while the indexer itself
// stays usable.
func NewIndexer(script string) (*Indexer, error) {
	ix := &Indexer{script: script}
	if script == "" {
		ix.degraded = true
		debugLog.Errorf("Indexing script missing, all passes will use the static fallback scan")
		return ix, ErrIndexScriptUnavailable
	}
	return ix, nil
}

// Degraded reports whether every pass runs the static fallback scan.
func (ix *Indexer) Degraded() bool {
	return ix.degraded
}

// Index runs one detection pass and returns its snapshot.
//
// In-page evaluation failures are absorbed: the pass falls back to a
// static scan of the page source and the snapshot is marked Degraded.
// An error is returned only when no document is obtainable at all, and
// even then the snapshot is a valid empty one.
func (ix *Indexer) Index(page PageEvaluator, opts Options) (*DocumentSnapshot, error) {
	if ix.degraded {
		return ix.staticScan(page)
	}

	args := map[string]interface{}{
		"highlightEnabled":  opts.HighlightEnabled,
		"focusIndex":        opts.FocusIndex,
		"viewportExpansion": opts.ViewportExpansion,
		"indexAttribute":    IndexAttribute,
		"containerId":       HighlightContainerID,
	}

	result, err := page.Evaluate(ix.script, args)
	if err != nil {
		debugLog.Warnf("In-page indexing failed, falling back to static scan: %v", err)
		return ix.staticScan(page)
	}

	snapshot, err := decodeSnapshot(result)
	if err != nil {
		debugLog.Warnf("Indexing result decode failed, falling back to static scan: %v", err)
		return ix.staticScan(page)
	}

	debugLog.Debugf("Indexed %d interactive elements (%d nodes)", snapshot.InteractiveCount(), len(snapshot.Nodes))
	return snapshot, nil
}

// staticScan builds a degraded snapshot from the page source.
func (ix *Indexer) staticScan(page PageEvaluator) (*DocumentSnapshot, error) {
	source, err := page.Content()
	if err != nil {
		return EmptySnapshot(true), fmt.Errorf("page content unavailable: %w", err)
	}

	snapshot, err := ScanHTML(source)
	if err != nil {
		return EmptySnapshot(true), fmt.Errorf("static scan failed: %w", err)
	}

	debugLog.Debugf("Static scan indexed %d interactive elements", snapshot.InteractiveCount())
	return snapshot, nil
}

// RemoveHighlights clears overlay markers and index attributes from the
// page. Failures are logged and swallowed; a missing overlay is not an
// error.
func (ix *Indexer) RemoveHighlights(page PageEvaluator) {
	args := map[string]interface{}{
		"indexAttribute": IndexAttribute,
		"containerId":    HighlightContainerID,
	}
	if _, err := page.Evaluate(removeHighlightsScript, args); err != nil {
		debugLog.Debugf("Highlight removal failed: %v", err)
	}
}
