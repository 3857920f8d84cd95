package agent

import (
	"fmt"

	"github.com/simonyos/travelagent/internal/llm"
)

// Conversation is the append-only message log of one Run.
type Conversation struct {
	messages []llm.Message
}

// NewConversation starts a conversation with an optional system prompt and
// the user's query.
func NewConversation(systemPrompt, query string) *Conversation {
	c := &Conversation{}
	if systemPrompt != "" {
		c.messages = append(c.messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	}
	c.messages = append(c.messages, llm.Message{Role: llm.RoleUser, Content: query})
	return c
}

// Append adds msg. A tool message must answer a request of the nearest
// assistant message that has not been answered yet, with only tool messages
// in between; otherwise ErrOrphanToolResult is returned and nothing changes.
func (c *Conversation) Append(msg llm.Message) error {
	if msg.Role == llm.RoleTool {
		if err := c.checkToolResult(msg); err != nil {
			return err
		}
	}
	c.messages = append(c.messages, msg)
	return nil
}

func (c *Conversation) checkToolResult(msg llm.Message) error {
	answered := make(map[string]bool)
	for i := len(c.messages) - 1; i >= 0; i-- {
		prev := c.messages[i]
		switch prev.Role {
		case llm.RoleTool:
			answered[prev.ToolCallID] = true
			continue
		case llm.RoleAssistant:
			for _, req := range prev.ToolRequests {
				if req.ID == msg.ToolCallID && !answered[req.ID] {
					return nil
				}
			}
		}
		break
	}
	return fmt.Errorf("%w: id %q", ErrOrphanToolResult, msg.ToolCallID)
}

// Messages returns a copy of the log.
func (c *Conversation) Messages() []llm.Message {
	out := make([]llm.Message, len(c.messages))
	copy(out, c.messages)
	return out
}

// Len returns the number of messages.
func (c *Conversation) Len() int {
	return len(c.messages)
}
