package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	defaultOpenAIModel   = "gpt-4o"
	defaultOpenAITimeout = 2 * time.Minute
	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
)

// OpenAI implements Provider using an OpenAI-compatible chat completions API.
// BaseURL may point at OpenRouter, LiteLLM or any other compatible gateway.
type OpenAI struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float64
	client      *http.Client
}

// OpenAI API request/response types
type openAIRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Tools       []openAITool    `json:"tools,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

// openAIMessage uses *string for Content to allow null values for assistant
// messages with tool calls.
type openAIMessage struct {
	Role       string           `json:"role"`
	Content    *string          `json:"content"`
	Name       string           `json:"name,omitempty"`
	ToolCalls  []openAIToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
}

type openAITool struct {
	Type     string         `json:"type"` // "function"
	Function openAIFunction `json:"function"`
}

type openAIFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type openAIToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"` // "function"
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"` // JSON string
	} `json:"function"`
}

type openAIResponse struct {
	Choices []struct {
		Message struct {
			Role      string           `json:"role"`
			Content   *string          `json:"content"`
			ToolCalls []openAIToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *openAIError `json:"error,omitempty"`
}

type openAIError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewOpenAI creates a new OpenAI provider with explicit API key
func NewOpenAI(apiKey, model, baseURL string) *OpenAI {
	if model == "" {
		model = defaultOpenAIModel
	}
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	return &OpenAI{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultOpenAITimeout},
	}
}

// Name returns the provider identifier
func (o *OpenAI) Name() string { return "openai" }

// ModelName returns the model being used
func (o *OpenAI) ModelName() string { return o.Model }

// convertMessages converts internal messages to OpenAI format
func convertMessagesToOpenAI(messages []Message) []openAIMessage {
	result := make([]openAIMessage, 0, len(messages))
	for _, msg := range messages {
		om := openAIMessage{
			Role:       string(msg.Role),
			ToolCallID: msg.ToolCallID,
		}
		if msg.Role == RoleTool {
			om.Name = msg.Name
		}
		for _, tr := range msg.ToolRequests {
			tc := openAIToolCall{ID: tr.ID, Type: "function"}
			tc.Function.Name = tr.Name
			tc.Function.Arguments = argumentsJSON(tr)
			om.ToolCalls = append(om.ToolCalls, tc)
		}
		// For assistant messages with tool calls, content should be null if empty
		if !(msg.HasToolRequests() && msg.Content == "") {
			content := msg.Content
			om.Content = &content
		}
		result = append(result, om)
	}
	return result
}

// GenerateWithTools calls the chat completions API with tool definitions
func (o *OpenAI) GenerateWithTools(ctx context.Context, messages []Message, tools []ToolSpec) (*ToolCallResponse, error) {
	if o.APIKey == "" {
		return nil, &FatalError{Provider: o.Name(), Err: fmt.Errorf("%w: use 'travelagent config set openai <key>' or set OPENAI_API_KEY", ErrMissingAPIKey)}
	}

	reqBody := openAIRequest{
		Model:       o.Model,
		Messages:    convertMessagesToOpenAI(messages),
		Temperature: o.Temperature,
	}
	for _, t := range tools {
		reqBody.Tools = append(reqBody.Tools, openAITool{
			Type:     "function",
			Function: openAIFunction{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}

	headers := map[string]string{"Authorization": "Bearer " + o.APIKey}
	body, status, err := postJSON(ctx, o.client, o.Name(), o.BaseURL+"/chat/completions", headers, reqBody)
	if err != nil {
		return nil, err
	}

	if status != http.StatusOK {
		return nil, classifyStatus(o.Name(), status, "", string(body))
	}

	var openAIResp openAIResponse
	if err := json.Unmarshal(body, &openAIResp); err != nil {
		return nil, &FatalError{Provider: o.Name(), StatusCode: status, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if openAIResp.Error != nil {
		return nil, &FatalError{Provider: o.Name(), StatusCode: status, Err: fmt.Errorf("OpenAI API error: %s", openAIResp.Error.Message)}
	}

	if len(openAIResp.Choices) == 0 {
		return nil, &FatalError{Provider: o.Name(), StatusCode: status, Err: fmt.Errorf("no response choices returned")}
	}

	choice := openAIResp.Choices[0].Message
	resp := &ToolCallResponse{
		Usage: Usage{
			InputTokens:  openAIResp.Usage.PromptTokens,
			OutputTokens: openAIResp.Usage.CompletionTokens,
		},
	}
	if choice.Content != nil {
		resp.Content = *choice.Content
	}
	for _, tc := range choice.ToolCalls {
		args, raw := ParseArguments(tc.Function.Arguments)
		resp.ToolRequests = append(resp.ToolRequests, ToolRequest{
			ID:           tc.ID,
			Name:         tc.Function.Name,
			Arguments:    args,
			RawArguments: raw,
		})
	}
	return resp, nil
}

// Ensure OpenAI implements Provider
var _ Provider = (*OpenAI)(nil)
