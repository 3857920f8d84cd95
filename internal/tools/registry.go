package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/simonyos/travelagent/internal/llm"
)

// Registry manages tool registration and execution. Tools are registered at
// start-up; afterwards the registry is read concurrently by every conversation.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool to the registry
func (r *Registry) Register(tool Tool) error {
	def := tool.Definition()
	if def.Name == "" {
		return ErrEmptyName
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tools[def.Name]; exists {
		return &DuplicateNameError{Name: def.Name}
	}
	r.tools[def.Name] = tool
	return nil
}

// RegisterFunc registers a plain function under def.
func (r *Registry) RegisterFunc(def ToolDefinition, fn Func) error {
	return r.Register(NewFunc(def, fn))
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tools)
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// List returns all registered tool definitions, sorted by name.
func (r *Registry) List() []ToolDefinition {
	names := r.Names()
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ToolDefinition, 0, len(names))
	for _, name := range names {
		if t, ok := r.tools[name]; ok {
			defs = append(defs, t.Definition())
		}
	}
	return defs
}

// Specs returns the backend-facing view of every tool, sorted by name so the
// prompt is identical from call to call.
func (r *Registry) Specs() []llm.ToolSpec {
	defs := r.List()
	specs := make([]llm.ToolSpec, 0, len(defs))
	for _, def := range defs {
		specs = append(specs, llm.ToolSpec{
			Name:        def.Name,
			Description: def.Description,
			Parameters:  def.Parameters.Map(),
		})
	}
	return specs
}

// Dispatch validates args and runs the named tool.
func (r *Registry) Dispatch(ctx context.Context, name string, args map[string]any) (ToolResult, error) {
	tool, ok := r.Get(name)
	if !ok {
		return ToolResult{}, &UnknownToolError{Name: name}
	}

	if args == nil {
		args = map[string]any{}
	}
	if err := tool.Validate(args); err != nil {
		var verr *ArgumentValidationError
		if !errors.As(err, &verr) {
			verr = &ArgumentValidationError{Reason: err.Error()}
		}
		verr.Tool = name
		return ToolResult{}, verr
	}

	return run(ctx, name, tool, withDefaults(tool.Definition().Parameters, args))
}

func run(ctx context.Context, name string, tool Tool, args map[string]any) (result ToolResult, err error) {
	defer func() {
		if p := recover(); p != nil {
			result = ToolResult{}
			err = &ToolExecutionError{Tool: name, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	result, err = tool.Execute(ctx, args)
	if err != nil {
		return ToolResult{}, &ToolExecutionError{Tool: name, Err: err}
	}
	return result, nil
}

// Execute runs a model-issued request. It never fails: every error becomes an
// unsuccessful result so one bad call cannot abort the conversation.
func (r *Registry) Execute(ctx context.Context, req llm.ToolRequest) ToolResult {
	if _, ok := r.Get(req.Name); ok && req.Arguments == nil && req.RawArguments != "" {
		err := &ArgumentValidationError{Tool: req.Name, Reason: fmt.Sprintf("arguments are not a JSON object: %q", req.RawArguments)}
		return ToolResult{Success: false, Error: err.Error()}
	}

	result, err := r.Dispatch(ctx, req.Name, req.Arguments)
	if err != nil {
		return ToolResult{Success: false, Error: err.Error()}
	}
	return result
}
