package browser

import (
	"fmt"
	"strings"

	"github.com/sentrahq/sentra/pkg/dom"
)

// FormatElements renders the planner-facing element list: one line per
// indexed element with everything a planner needs to pick a target.
func FormatElements(snapshot *dom.DocumentSnapshot) string {
	if snapshot == nil || snapshot.InteractiveCount() == 0 {
		return "No interactive elements detected."
	}

	var b strings.Builder
	if snapshot.Degraded {
		b.WriteString("(degraded scan: positions and visibility are approximate)\n")
	}
	for i := range snapshot.Elements {
		el := &snapshot.Elements[i]
		text := el.Text
		if len(text) > 80 {
			text = text[:77] + "..."
		}
		text = strings.ReplaceAll(text, "\n", " ")

		fmt.Fprintf(&b, "[%d] <%s> %s (%s)", el.Index, el.Tag, text, el.Interaction)
		if hint := elementHint(el); hint != "" {
			fmt.Fprintf(&b, " %s", hint)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// elementHint adds the attribute a planner most likely needs to tell
// similar elements apart.
func elementHint(el *dom.InteractiveElement) string {
	if p := el.Attr("placeholder"); p != "" {
		return fmt.Sprintf("placeholder=%q", p)
	}
	if l := el.Attr("aria-label"); l != "" {
		return fmt.Sprintf("aria-label=%q", l)
	}
	if h := el.Attr("href"); h != "" {
		return fmt.Sprintf("href=%q", h)
	}
	if n := el.Attr("name"); n != "" {
		return fmt.Sprintf("name=%q", n)
	}
	return ""
}

// FormatTabs renders the planner-facing tab list with the active tab
// marked.
func FormatTabs(tabs []TabRecord, activeID string) string {
	if len(tabs) == 0 {
		return "No tabs open."
	}

	var b strings.Builder
	for _, tab := range tabs {
		marker := " "
		if tab.ID == activeID {
			marker = "*"
		}
		title := tab.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(&b, "%s %s  %s  %s  [%s]\n", marker, tab.ID, title, tab.URL, tab.PageType)
	}
	return strings.TrimRight(b.String(), "\n")
}
