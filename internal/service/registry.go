package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"strings"

	"github.com/Strob0t/StatForge/internal/domain/tool"
)

// Tool is one capability the agent may invoke. Execute never returns a Go
// error: every failure is reported inside the Result.
type Tool interface {
	Descriptor() tool.Descriptor
	Execute(ctx context.Context, args map[string]any) tool.Result
}

// ToolRegistry maps tool names to capabilities. It is built once and read-only afterwards.
type ToolRegistry struct {
	tools map[string]Tool
	order []string
}

// NewToolRegistry registers tools in the given order. Later duplicates replace earlier ones.
func NewToolRegistry(tools ...Tool) *ToolRegistry {
	r := &ToolRegistry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		name := t.Descriptor().Name
		if _, dup := r.tools[name]; !dup {
			r.order = append(r.order, name)
		}
		r.tools[name] = t
	}
	return r
}

// Get returns the tool registered under name.
func (r *ToolRegistry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Names returns tool names in registration order.
func (r *ToolRegistry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Descriptors returns all descriptors in registration order.
func (r *ToolRegistry) Descriptors() []tool.Descriptor {
	out := make([]tool.Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name].Descriptor())
	}
	return out
}

// DescribeAll renders the capability block injected into the system prompt.
func (r *ToolRegistry) DescribeAll() string {
	parts := make([]string, 0, len(r.order))
	for _, d := range r.Descriptors() {
		parts = append(parts, "## "+d.Name+"\n"+strings.TrimSpace(d.Description))
	}
	return strings.Join(parts, "\n\n")
}

// Dispatch runs call against the registry. Unknown names and panics inside
// tool bodies come back as failed results.
func (r *ToolRegistry) Dispatch(ctx context.Context, call tool.Call) (res tool.Result) {
	t, ok := r.tools[call.Name]
	if !ok {
		return tool.Failf("Unknown tool: %s. Available: %s", call.Name, strings.Join(r.order, ", "))
	}

	defer func() {
		if p := recover(); p != nil {
			slog.Error("tool panicked", "tool", call.Name, "panic", p, "stack", string(debug.Stack()))
			res = tool.Failf("tool %s failed: %v", call.Name, p)
		}
	}()

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}
	res = t.Execute(ctx, args)
	if !res.Success {
		res.Data = nil
		if res.Error == "" {
			res.Error = fmt.Sprintf("tool %s failed", call.Name)
		}
	}
	return res
}
