package llm

import (
	"encoding/json"
	"strings"
)

// ToolSpec is the backend-facing description of a registered tool.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON Schema
}

// ToolRequest is a tool invocation requested by the model.
type ToolRequest struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`

	// RawArguments holds the backend's argument text when it could not be
	// decoded into a JSON object.
	RawArguments string `json:"raw_arguments,omitempty"`
}

// Usage reports token accounting when the backend provides it.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// ToolCallResponse contains the model's response with tool requests
type ToolCallResponse struct {
	Content      string        // Text content (may be empty if only tool calls)
	ToolRequests []ToolRequest // Tool calls requested by the model
	Usage        Usage
}

// Done reports whether the model produced a final answer.
func (r *ToolCallResponse) Done() bool {
	return len(r.ToolRequests) == 0
}

// ParseArguments decodes a JSON argument string into a ToolRequest's
// argument map. Empty input is an empty object.
func ParseArguments(raw string) (map[string]any, string) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return map[string]any{}, ""
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return nil, raw
	}
	return args, ""
}

// argumentsJSON renders a request's arguments for backends that want a string.
func argumentsJSON(tr ToolRequest) string {
	if tr.Arguments == nil && tr.RawArguments != "" {
		return tr.RawArguments
	}
	if tr.Arguments == nil {
		return "{}"
	}
	data, err := json.Marshal(tr.Arguments)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// SplitSystem separates the system prompt from the rest of the conversation.
// Backends with a dedicated system field use it.
func SplitSystem(messages []Message) (string, []Message) {
	var system []string
	rest := make([]Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}
	return strings.Join(system, "\n\n"), rest
}
