package browser

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestElementNotFoundErrorListsStrategies(t *testing.T) {
	err := &ElementNotFoundError{
		Index:     7,
		Attempted: []string{"index-attribute", "css-selector", "position"},
	}

	assert.Contains(t, err.Error(), "element 7")
	assert.Contains(t, err.Error(), "index-attribute, css-selector, position")

	var notFound *ElementNotFoundError
	require.ErrorAs(t, fmt.Errorf("locate: %w", err), &notFound)
	assert.Equal(t, 7, notFound.Index)
}

func TestNotEditableErrorDistinguishesReasons(t *testing.T) {
	wrongKind := &NotEditableError{Index: 2, Tag: "a", Reason: ReasonWrongKind}
	assert.Contains(t, wrongKind.Error(), "clicked, not typed")

	disabled := &NotEditableError{Index: 3, Tag: "input", Reason: ReasonDisabled}
	assert.Contains(t, disabled.Error(), "disabled or read-only")
}

func TestDetectionErrorUnwraps(t *testing.T) {
	cause := errors.New("execution context destroyed")
	err := &DetectionError{URL: "https://example.com", Cause: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "https://example.com")
}

func TestTabNotFoundError(t *testing.T) {
	err := &TabNotFoundError{ID: "abc-123"}
	assert.Contains(t, err.Error(), `"abc-123"`)

	var tabErr *TabNotFoundError
	require.ErrorAs(t, fmt.Errorf("switch: %w", err), &tabErr)
	assert.Equal(t, "abc-123", tabErr.ID)
}
