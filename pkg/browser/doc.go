// Package browser coordinates live-page automation on top of Playwright.
//
// The package owns the moving parts that make a continuously changing page
// addressable: a locator that re-finds indexed elements after DOM mutation,
// a state monitor that notices navigations (including soft SPA swaps that
// fire no load event), a tab manager that tracks page open/close/switch,
// and a controller that keeps every component pointed at the same page.
//
// # Architecture
//
// Components are layered around a single canonical page reference:
//
//  1. Driver: launches or connects to a browser and hands out the context
//     and initial page
//  2. StateMonitor: fingerprints the page, watches lifecycle events, and
//     polls for changes those events miss
//  3. TabManager: tracks open pages, filters out browser-internal ones,
//     and promotes an active tab
//  4. Locator: resolves an element index to a live handle through an
//     ordered chain of fallback strategies backed by a descriptor cache
//  5. Controller: owns the active page, invalidates caches on any page
//     change, and exposes the click/type/press/navigate action surface
//
// The controller is the only component that mutates the active-page
// reference. Tab promotion and detected navigations both route through it,
// so a change observed by one component is observed by all of them before
// the next action runs.
//
// # Page Changes
//
// Two independent mechanisms detect page changes. Browser lifecycle events
// (DOMContentLoaded, Load, frame navigation) trigger a bounded
// stabilization wait followed by a state refresh. A fixed-interval poll
// takes a cheap text-and-count sample and forces a refresh only when the
// sample moved and the last refresh is older than one poll interval, which
// keeps an ordinary navigation from being reported twice.
//
// # Failure Discipline
//
// Every query against a page that may have closed or navigated mid-call is
// guarded: timeouts and evaluation errors during navigation degrade to a
// default value and are logged, never propagated as fatal. Structural
// failures come back as typed errors — ElementNotFoundError with the list
// of attempted strategies, NotEditableError for typing at a non-text
// target, TabNotFoundError for a vanished tab — so a caller can choose a
// different action instead of retrying blindly.
package browser
