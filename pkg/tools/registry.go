package tools

import "fmt"

// Registry holds the full toolset bound to one controller.
type Registry struct {
	tools  []Tool
	byName map[string]Tool
}

// NewRegistry creates the browser toolset over a controller.
func NewRegistry(controller Controller) *Registry {
	r := &Registry{byName: make(map[string]Tool)}

	for _, tool := range []Tool{
		NewDetectTool(controller),
		NewClickTool(controller),
		NewTypeTool(controller),
		NewPressKeyTool(controller),
		NewNavigateTool(controller),
		NewScrollTool(controller),
		NewSelectOptionTool(controller),
		NewListTabsTool(controller),
		NewSwitchTabTool(controller),
		NewStateTool(controller),
	} {
		r.tools = append(r.tools, tool)
		r.byName[tool.Name()] = tool
	}

	return r
}

// Tools returns the registered tools in registration order.
func (r *Registry) Tools() []Tool {
	return r.tools
}

// Get resolves a tool by name.
func (r *Registry) Get(name string) (Tool, error) {
	tool, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
	return tool, nil
}
