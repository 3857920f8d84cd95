// Package llm - Anthropic provider
// Native Claude API support with tool calling
package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Default timeout for Anthropic API requests (Claude can take longer for complex tasks)
const defaultAnthropicTimeout = 5 * time.Minute

const (
	defaultAnthropicModel   = "claude-sonnet-4-20250514"
	defaultAnthropicBaseURL = "https://api.anthropic.com/v1"
)

// Anthropic implements Provider using Claude API
type Anthropic struct {
	APIKey      string
	Model       string
	BaseURL     string
	MaxTokens   int
	Temperature *float64
	client      *http.Client
}

// Anthropic API types
type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
	Temperature *float64           `json:"temperature,omitempty"`
}

type anthropicMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"` // string or []anthropicContentBlock
}

type anthropicContentBlock struct {
	Type      string `json:"type"`                  // "text", "tool_use", "tool_result"
	Text      string `json:"text,omitempty"`        // for text blocks
	ID        string `json:"id,omitempty"`          // for tool_use blocks
	Name      string `json:"name,omitempty"`        // for tool_use blocks
	Input     any    `json:"input,omitempty"`       // for tool_use blocks
	ToolUseID string `json:"tool_use_id,omitempty"` // for tool_result blocks
	Content   string `json:"content,omitempty"`     // for tool_result blocks (result text)
	IsError   bool   `json:"is_error,omitempty"`    // for tool_result blocks
}

type anthropicTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthropicResponse struct {
	Content    []anthropicContentBlock `json:"content"`
	StopReason string                  `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *anthropicError `json:"error,omitempty"`
}

type anthropicError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewAnthropic creates a new Anthropic provider with explicit API key
func NewAnthropic(apiKey, model string) *Anthropic {
	if model == "" {
		model = defaultAnthropicModel
	}
	return &Anthropic{
		APIKey:    apiKey,
		Model:     model,
		BaseURL:   defaultAnthropicBaseURL,
		MaxTokens: 4096,
		client:    &http.Client{Timeout: defaultAnthropicTimeout},
	}
}

// Name returns the provider identifier
func (a *Anthropic) Name() string { return "anthropic" }

// ModelName returns the model being used
func (a *Anthropic) ModelName() string { return a.Model }

// convertToAnthropicMessages converts internal messages to Anthropic format.
// Tool results become user messages with tool_result blocks; consecutive
// results share one user message.
func convertToAnthropicMessages(messages []Message) (string, []anthropicMessage) {
	systemPrompt, rest := SplitSystem(messages)
	var anthropicMsgs []anthropicMessage

	for _, msg := range rest {
		switch {
		case msg.Role == RoleTool:
			block := anthropicContentBlock{
				Type:      "tool_result",
				ToolUseID: msg.ToolCallID,
				Content:   msg.Content,
				IsError:   msg.IsError,
			}
			if n := len(anthropicMsgs); n > 0 {
				if blocks, ok := anthropicMsgs[n-1].Content.([]anthropicContentBlock); ok && anthropicMsgs[n-1].Role == "user" && len(blocks) > 0 && blocks[0].Type == "tool_result" {
					anthropicMsgs[n-1].Content = append(blocks, block)
					continue
				}
			}
			anthropicMsgs = append(anthropicMsgs, anthropicMessage{
				Role:    "user",
				Content: []anthropicContentBlock{block},
			})
		case msg.HasToolRequests():
			var blocks []anthropicContentBlock
			if msg.Content != "" {
				blocks = append(blocks, anthropicContentBlock{Type: "text", Text: msg.Content})
			}
			for _, tr := range msg.ToolRequests {
				input := any(tr.Arguments)
				if tr.Arguments == nil {
					input = map[string]any{} // fallback to empty object
				}
				blocks = append(blocks, anthropicContentBlock{
					Type:  "tool_use",
					ID:    tr.ID,
					Name:  tr.Name,
					Input: input,
				})
			}
			anthropicMsgs = append(anthropicMsgs, anthropicMessage{Role: "assistant", Content: blocks})
		default:
			anthropicMsgs = append(anthropicMsgs, anthropicMessage{
				Role:    string(msg.Role),
				Content: msg.Content,
			})
		}
	}

	return systemPrompt, anthropicMsgs
}

// GenerateWithTools calls Anthropic API with tool definitions
func (a *Anthropic) GenerateWithTools(ctx context.Context, messages []Message, tools []ToolSpec) (*ToolCallResponse, error) {
	if a.APIKey == "" {
		return nil, &FatalError{Provider: a.Name(), Err: fmt.Errorf("%w: use 'travelagent config set anthropic <key>' or set ANTHROPIC_API_KEY", ErrMissingAPIKey)}
	}

	systemPrompt, anthropicMsgs := convertToAnthropicMessages(messages)

	reqBody := anthropicRequest{
		Model:       a.Model,
		MaxTokens:   a.MaxTokens,
		System:      systemPrompt,
		Messages:    anthropicMsgs,
		Temperature: a.Temperature,
	}
	for _, t := range tools {
		reqBody.Tools = append(reqBody.Tools, anthropicTool{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: t.Parameters,
		})
	}

	headers := map[string]string{
		"x-api-key":         a.APIKey,
		"anthropic-version": "2023-06-01",
	}
	body, status, err := postJSON(ctx, a.client, a.Name(), strings.TrimRight(a.BaseURL, "/")+"/messages", headers, reqBody)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, classifyStatus(a.Name(), status, "", string(body))
	}

	var anthropicResp anthropicResponse
	if err := json.Unmarshal(body, &anthropicResp); err != nil {
		return nil, &FatalError{Provider: a.Name(), StatusCode: status, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if anthropicResp.Error != nil {
		return nil, &FatalError{Provider: a.Name(), StatusCode: status, Err: fmt.Errorf("Anthropic API error: %s", anthropicResp.Error.Message)}
	}

	// Convert response to ToolCallResponse
	var textContent strings.Builder
	var requests []ToolRequest

	for _, block := range anthropicResp.Content {
		switch block.Type {
		case "text":
			textContent.WriteString(block.Text)
		case "tool_use":
			args, _ := block.Input.(map[string]any)
			if args == nil {
				args = map[string]any{}
			}
			requests = append(requests, ToolRequest{ID: block.ID, Name: block.Name, Arguments: args})
		}
	}

	return &ToolCallResponse{
		Content:      textContent.String(),
		ToolRequests: requests,
		Usage: Usage{
			InputTokens:  anthropicResp.Usage.InputTokens,
			OutputTokens: anthropicResp.Usage.OutputTokens,
		},
	}, nil
}

// Ensure Anthropic implements Provider
var _ Provider = (*Anthropic)(nil)
