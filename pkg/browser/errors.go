package browser

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNavigationTimeout marks a bounded navigation wait that expired. It is
// soft: the action result is still returned with navigation unconfirmed.
var ErrNavigationTimeout = errors.New("navigation wait timed out")

// ErrNoActivePage reports an operation attempted before any page became
// active.
var ErrNoActivePage = errors.New("no active page")

// DetectionError wraps an in-page evaluation failure during a detection
// pass. The pass itself degrades to the static fallback scan; this error
// surfaces only when even the fallback produced nothing usable.
type DetectionError struct {
	URL   string
	Cause error
}

func (e *DetectionError) Error() string {
	return fmt.Sprintf("detection failed on %s: %v", e.URL, e.Cause)
}

func (e *DetectionError) Unwrap() error {
	return e.Cause
}

// ElementNotFoundError reports that every locator strategy was exhausted
// for an index. Attempted lists the strategies tried, in order.
type ElementNotFoundError struct {
	Index     int
	Attempted []string
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("element %d not found (tried: %s)", e.Index, strings.Join(e.Attempted, ", "))
}

// NotEditableReason distinguishes why typing at a target was rejected.
type NotEditableReason int

const (
	// ReasonWrongKind means the target expects a click, not text.
	ReasonWrongKind NotEditableReason = iota

	// ReasonDisabled means the target is a text control that is currently
	// disabled or read-only.
	ReasonDisabled
)

// NotEditableError reports a type action against a target that cannot
// receive text. The fill primitive is never invoked for these.
type NotEditableError struct {
	Index  int
	Tag    string
	Reason NotEditableReason
}

func (e *NotEditableError) Error() string {
	switch e.Reason {
	case ReasonDisabled:
		return fmt.Sprintf("element %d (<%s>) is disabled or read-only", e.Index, e.Tag)
	default:
		return fmt.Sprintf("element %d (<%s>) should be clicked, not typed into", e.Index, e.Tag)
	}
}

// TabNotFoundError reports a switch to a tab id that is not tracked.
type TabNotFoundError struct {
	ID string
}

func (e *TabNotFoundError) Error() string {
	return fmt.Sprintf("tab %q not found", e.ID)
}
