package tools

import (
	"github.com/sentrahq/sentra/pkg/browser"
	"github.com/sentrahq/sentra/pkg/dom"
)

// Controller is the browser-core surface the toolset drives. The concrete
// implementation is *browser.Controller; tests substitute a fake.
type Controller interface {
	Detect(force bool) (*dom.DocumentSnapshot, error)
	Snapshot() *dom.DocumentSnapshot
	State() browser.PageState

	Click(index int) (browser.ActionResult, error)
	Type(index int, text string) (browser.ActionResult, error)
	PressKey(key string, modifiers []string) (browser.ActionResult, error)
	Navigate(url string) (browser.ActionResult, error)
	Scroll(direction browser.ScrollDirection, amount int) (browser.ActionResult, error)
	SelectOption(index int, value string) (browser.ActionResult, error)

	Tabs() []browser.TabRecord
	ActiveTab() *browser.TabRecord
	SwitchTab(id string) error

	Stats() browser.Stats
}

// actionMetadata is the metadata block every action tool returns.
func actionMetadata(result browser.ActionResult) map[string]interface{} {
	return map[string]interface{}{
		"navigated": result.Navigated,
		"attempts":  result.Attempts,
		"url":       result.URL,
	}
}

// navigationHint tells the planner whether its element indices survived.
func navigationHint(result browser.ActionResult) string {
	if result.Navigated {
		return "The page changed; element indices are stale, run browser_detect before the next element action."
	}
	return "The page did not change; element indices remain valid."
}
