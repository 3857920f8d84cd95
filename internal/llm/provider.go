package llm

import "context"

// Role tags a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool" // tool_result
)

// Message represents a chat message.
//
// Assistant messages may carry ToolRequests. Tool messages answer exactly one
// request of the preceding assistant message, matched by ToolCallID.
type Message struct {
	Role         Role          `json:"role"`
	Content      string        `json:"content"`
	ToolRequests []ToolRequest `json:"tool_requests,omitempty"`
	ToolCallID   string        `json:"tool_call_id,omitempty"`
	Name         string        `json:"name,omitempty"`     // tool name for tool messages
	IsError      bool          `json:"is_error,omitempty"` // tool message carries an error description
}

// HasToolRequests reports whether an assistant message asks for tool calls.
func (m Message) HasToolRequests() bool {
	return m.Role == RoleAssistant && len(m.ToolRequests) > 0
}

// Provider is the interface for LLM backends with native tool calling.
type Provider interface {
	// Name identifies the backend in logs and errors ("gemini", "openai", ...)
	Name() string

	// ModelName returns the model being used
	ModelName() string

	// GenerateWithTools sends the full conversation plus the tool list and
	// returns either text or tool requests.
	GenerateWithTools(ctx context.Context, messages []Message, tools []ToolSpec) (*ToolCallResponse, error)
}
