package dom

import "strings"

// interactiveTags are always considered interactive.
var interactiveTags = map[string]bool{
	"a": true, "button": true, "input": true, "select": true,
	"textarea": true, "details": true, "summary": true,
	"option": true, "optgroup": true,
}

// interactiveRoles from ARIA that indicate interactivity.
var interactiveRoles = map[string]bool{
	"button": true, "link": true, "textbox": true, "checkbox": true,
	"radio": true, "combobox": true, "listbox": true, "menuitem": true,
	"menuitemcheckbox": true, "menuitemradio": true, "option": true,
	"tab": true, "switch": true, "slider": true, "spinbutton": true,
	"searchbox": true, "gridcell": true, "treeitem": true,
}

// editableRoles accept typed text.
var editableRoles = map[string]bool{
	"textbox": true, "searchbox": true, "combobox": true,
	"spinbutton": true,
}

// clickInputTypes are input elements that act as buttons or toggles.
var clickInputTypes = map[string]bool{
	"button": true, "submit": true, "reset": true, "checkbox": true,
	"radio": true, "image": true, "file": true,
}

// interactionCursors imply clickability when combined with other signals.
var interactionCursors = map[string]bool{
	"pointer": true, "grab": true, "grabbing": true, "move": true,
	"cell": true, "copy": true, "alias": true, "crosshair": true,
}

// ElementDescriptor carries the raw signals classification works from.
// The in-page script reports these per element; the static fallback scan
// fills what it can from markup alone.
type ElementDescriptor struct {
	Tag             string
	Role            string
	InputType       string
	Cursor          string
	TabIndex        int
	HasTabIndex     bool
	ContentEditable bool
	HasClickHandler bool
	HasAriaState    bool
	Disabled        bool
}

// Classify maps raw element signals to an interaction type.
//
// Detection is tiered: explicit interactive tags first, then ARIA roles,
// then handler/tabindex signals, then cursor style combined with at least
// one auxiliary signal. Hidden inputs and disabled elements classify as
// none regardless of other signals.
func Classify(d ElementDescriptor) InteractionType {
	tag := strings.ToLower(d.Tag)
	role := strings.ToLower(d.Role)
	inputType := strings.ToLower(d.InputType)

	if d.Disabled {
		return InteractionNone
	}

	if d.ContentEditable {
		return InteractionInput
	}

	switch tag {
	case "input":
		if inputType == "hidden" {
			return InteractionNone
		}
		if clickInputTypes[inputType] {
			return InteractionClick
		}
		return InteractionInput
	case "textarea", "select":
		return InteractionInput
	case "a", "button", "summary", "option":
		return InteractionClick
	}

	if interactiveTags[tag] {
		return InteractionClick
	}

	if editableRoles[role] {
		return InteractionInput
	}
	if interactiveRoles[role] {
		return InteractionClick
	}

	if d.HasClickHandler {
		return InteractionOther
	}

	if d.HasTabIndex && d.TabIndex >= 0 {
		return InteractionOther
	}

	// Cursor style alone is too weak; require an auxiliary signal.
	if interactionCursors[d.Cursor] && d.HasAriaState {
		return InteractionOther
	}

	return InteractionNone
}

// Editability describes whether a target can receive typed text.
type Editability int

const (
	// Editable targets accept typed text.
	Editable Editability = iota

	// NotEditable targets are interactive but expect a click, not text.
	NotEditable

	// EditDisabled targets are text controls that are currently disabled
	// or read-only.
	EditDisabled
)

// ClassifyEditability checks whether an indexed element can be typed into,
// distinguishing wrong-kind targets from disabled or read-only ones.
func ClassifyEditability(e *InteractiveElement) Editability {
	tag := strings.ToLower(e.Tag)
	role := strings.ToLower(e.Attr("role"))

	editableKind := false
	switch tag {
	case "textarea", "select":
		editableKind = true
	case "input":
		inputType := strings.ToLower(e.Attr("type"))
		editableKind = !clickInputTypes[inputType] && inputType != "hidden"
	}
	if !editableKind && hasAttr(e, "contenteditable") {
		ce := strings.ToLower(e.Attr("contenteditable"))
		editableKind = ce == "" || ce == "true" || ce == "plaintext-only"
	}
	if !editableKind {
		editableKind = editableRoles[role]
	}

	if !editableKind {
		return NotEditable
	}

	if hasAttr(e, "disabled") || hasAttr(e, "readonly") {
		return EditDisabled
	}
	if strings.EqualFold(e.Attr("aria-disabled"), "true") || strings.EqualFold(e.Attr("aria-readonly"), "true") {
		return EditDisabled
	}

	return Editable
}

func hasAttr(e *InteractiveElement, name string) bool {
	if e.Attributes == nil {
		return false
	}
	_, ok := e.Attributes[name]
	return ok
}
