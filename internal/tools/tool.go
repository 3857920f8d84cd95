package tools

import (
	"context"
)

// Tool is the interface all tools must implement
type Tool interface {
	// Definition returns the structured tool definition
	Definition() ToolDefinition

	// Validate checks if the arguments are valid
	Validate(args map[string]any) error

	// Execute runs the tool with validated arguments. A returned error is
	// reported to the model as a failed tool result.
	Execute(ctx context.Context, args map[string]any) (ToolResult, error)
}

// BaseTool provides common functionality for tools
type BaseTool struct {
	Def ToolDefinition
}

// Definition returns the tool definition
func (b *BaseTool) Definition() ToolDefinition {
	return b.Def
}

// Validate checks the arguments against the parameter schema. Tools with
// cross-field rules override it and call it first.
func (b *BaseTool) Validate(args map[string]any) error {
	return ValidateArgs(b.Def.Parameters, args)
}

// Func is the signature accepted by RegisterFunc.
type Func func(ctx context.Context, args map[string]any) (ToolResult, error)

type funcTool struct {
	BaseTool
	fn Func
}

func (t *funcTool) Execute(ctx context.Context, args map[string]any) (ToolResult, error) {
	return t.fn(ctx, args)
}

// NewFunc wraps a plain function as a Tool.
func NewFunc(def ToolDefinition, fn Func) Tool {
	return &funcTool{BaseTool: BaseTool{Def: def}, fn: fn}
}
