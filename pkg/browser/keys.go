package browser

import "strings"

// KeyContext classifies the element holding focus when Enter is pressed.
type KeyContext int

const (
	// ContextNone means nothing useful has focus; forward the key as-is.
	ContextNone KeyContext = iota

	// ContextSearchInput is a search-like text field; Enter should submit
	// and await navigation.
	ContextSearchInput

	// ContextFormField is a generic form input; Enter advances focus to
	// the next field instead of submitting half-filled forms.
	ContextFormField

	// ContextButton is a focused button; Enter activates it.
	ContextButton

	// ContextLink is a focused link; Enter follows it.
	ContextLink
)

// String returns the context name used in logs and action results.
func (c KeyContext) String() string {
	switch c {
	case ContextSearchInput:
		return "search-input"
	case ContextFormField:
		return "form-field"
	case ContextButton:
		return "button"
	case ContextLink:
		return "link"
	default:
		return "none"
	}
}

// FocusSignals carries the raw signals of the focused element that context
// classification works from.
type FocusSignals struct {
	Tag         string
	Type        string
	Name        string
	ID          string
	Class       string
	Placeholder string
	Role        string
}

// KeyContextClassifier decides how an Enter press should be handled for
// the element currently holding focus. The default is vocabulary-driven
// and intentionally swappable: the pattern list is a heuristic, not a
// fact about the web.
type KeyContextClassifier interface {
	Classify(signals FocusSignals) KeyContext
}

// DefaultSearchVocabulary lists the terms that mark an input as
// search-like when they appear in its name, id, class, or placeholder.
var DefaultSearchVocabulary = []string{
	"search", "query", "find", "keyword", "lookup", "filter", "suche", "buscar",
}

// VocabularyClassifier is the default KeyContextClassifier: a keyword scan
// over the focused element's identifying attributes.
type VocabularyClassifier struct {
	vocabulary []string
}

// NewVocabularyClassifier builds a classifier over the given search terms.
// An empty list falls back to DefaultSearchVocabulary.
func NewVocabularyClassifier(vocabulary []string) *VocabularyClassifier {
	if len(vocabulary) == 0 {
		vocabulary = DefaultSearchVocabulary
	}
	terms := make([]string, len(vocabulary))
	for i, t := range vocabulary {
		terms[i] = strings.ToLower(t)
	}
	return &VocabularyClassifier{vocabulary: terms}
}

// Classify maps focus signals to a key context.
func (c *VocabularyClassifier) Classify(signals FocusSignals) KeyContext {
	tag := strings.ToLower(signals.Tag)
	role := strings.ToLower(signals.Role)
	inputType := strings.ToLower(signals.Type)

	switch tag {
	case "":
		return ContextNone
	case "button":
		return ContextButton
	case "a":
		return ContextLink
	case "textarea":
		return ContextFormField
	case "select":
		return ContextFormField
	}

	switch role {
	case "button":
		return ContextButton
	case "link":
		return ContextLink
	}

	if tag != "input" {
		return ContextNone
	}

	switch inputType {
	case "submit", "button", "reset", "image":
		return ContextButton
	case "search":
		return ContextSearchInput
	}

	if role == "searchbox" || c.matchesVocabulary(signals) {
		return ContextSearchInput
	}

	return ContextFormField
}

// matchesVocabulary scans name/id/class/placeholder for any search term.
// The single-letter name "q" is the one exact match honored, a convention
// too widespread to ignore.
func (c *VocabularyClassifier) matchesVocabulary(signals FocusSignals) bool {
	if strings.EqualFold(signals.Name, "q") || strings.EqualFold(signals.ID, "q") {
		return true
	}

	haystacks := []string{
		strings.ToLower(signals.Name),
		strings.ToLower(signals.ID),
		strings.ToLower(signals.Class),
		strings.ToLower(signals.Placeholder),
	}
	for _, haystack := range haystacks {
		if haystack == "" {
			continue
		}
		for _, term := range c.vocabulary {
			if strings.Contains(haystack, term) {
				return true
			}
		}
	}
	return false
}
