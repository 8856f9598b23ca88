// Package tools exposes the browser core as a planner-facing toolset.
//
// Each tool wraps one controller operation behind a stable name, a JSON
// schema describing its parameters, and XML argument decoding. A planner
// emits tool calls as XML, the registry resolves them by name, and every
// tool returns a human-readable result plus structured metadata the
// planner can branch on.
package tools
