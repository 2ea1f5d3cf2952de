package core

import (
	"context"
	"fmt"
)

// Tool is an opaque capability handle created by a ToolFactory. The runtime
// stores tools and never calls them.
type Tool interface{}

// ToolFactory creates tool instances by name.
type ToolFactory interface {
	CreateTool(ctx context.Context, name string) (Tool, error)
}

// ToolFactoryFunc adapts a function to ToolFactory.
type ToolFactoryFunc func(ctx context.Context, name string) (Tool, error)

// CreateTool calls f(ctx, name).
func (f ToolFactoryFunc) CreateTool(ctx context.Context, name string) (Tool, error) {
	return f(ctx, name)
}

// UnimplementedToolFactory is the factory a runtime falls back to. Every
// call fails with ErrNotImplemented; agents that list tools must supply
// their own factory.
type UnimplementedToolFactory struct{}

// CreateTool always fails.
func (UnimplementedToolFactory) CreateTool(_ context.Context, name string) (Tool, error) {
	return nil, &FrameworkError{
		Op:      "ToolFactory.CreateTool",
		Kind:    "NotImplemented",
		ID:      name,
		Message: fmt.Sprintf("tool creation for %s not implemented", name),
		Err:     ErrNotImplemented,
	}
}

// ToolRegistry is a ToolFactory backed by named constructors.
type ToolRegistry struct {
	constructors map[string]func(ctx context.Context) (Tool, error)
}

// NewToolRegistry returns an empty registry.
func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{constructors: make(map[string]func(ctx context.Context) (Tool, error))}
}

// Register adds a constructor for name. A later registration under the
// same name replaces the earlier one.
func (r *ToolRegistry) Register(name string, ctor func(ctx context.Context) (Tool, error)) *ToolRegistry {
	r.constructors[name] = ctor
	return r
}

// CreateTool runs the constructor registered for name.
func (r *ToolRegistry) CreateTool(ctx context.Context, name string) (Tool, error) {
	ctor, ok := r.constructors[name]
	if !ok {
		return nil, &FrameworkError{
			Op:   "ToolRegistry.CreateTool",
			Kind: "tool",
			ID:   name,
			Err:  ErrToolNotFound,
		}
	}
	return ctor(ctx)
}
