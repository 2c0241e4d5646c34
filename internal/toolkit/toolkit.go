// Package toolkit implements the tool invocation pipeline: the registry of
// tool descriptors, the dispatcher that admits and executes calls, and the
// per-invocation progress reporter.
package toolkit

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Descriptor binds a tool definition to its handler and rate-limit category.
// Category is the declared rate-limit bucket; when empty the dispatcher falls
// back to its prefix rules and then the default category.
// Descriptors are immutable once registered.
type Descriptor struct {
	Tool     mcp.Tool
	Category string
	Handler  server.ToolHandlerFunc
}

// Kit is the tool registry: a lookup table keyed by unique tool name, built
// once at startup by merging category catalogs. Registration order is
// preserved for listing.
type Kit struct {
	order  []string
	byName map[string]Descriptor
}

// NewKit creates an empty registry.
func NewKit() *Kit {
	return &Kit{byName: make(map[string]Descriptor)}
}

// Register adds one descriptor. A duplicate tool name is a startup defect and
// is rejected rather than silently overwritten.
func (k *Kit) Register(d Descriptor) error {
	name := d.Tool.Name
	if name == "" {
		return fmt.Errorf("tool descriptor has no name")
	}
	if d.Handler == nil {
		return fmt.Errorf("tool %s has no handler", name)
	}
	if _, exists := k.byName[name]; exists {
		return fmt.Errorf("duplicate tool name: %s", name)
	}
	k.byName[name] = d
	k.order = append(k.order, name)
	return nil
}

// Merge registers a batch of descriptors, stopping at the first collision.
func (k *Kit) Merge(ds ...Descriptor) error {
	for _, d := range ds {
		if err := k.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// Resolve returns the descriptor for a tool name. It performs no execution.
func (k *Kit) Resolve(name string) (Descriptor, bool) {
	d, ok := k.byName[name]
	return d, ok
}

// List returns the tool definitions (name, description, input schema — no
// handlers) in registration order.
func (k *Kit) List() []mcp.Tool {
	tools := make([]mcp.Tool, 0, len(k.order))
	for _, name := range k.order {
		tools = append(tools, k.byName[name].Tool)
	}
	return tools
}

// Len returns the number of registered tools.
func (k *Kit) Len() int {
	return len(k.order)
}
