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
	defaultGeminiModel   = "gemini-2.0-flash"
	defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultGeminiTimeout = 2 * time.Minute
)

// Gemini implements Provider using the Generative Language generateContent
// API with native function calling.
type Gemini struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float64
	client      *http.Client
}

// Gemini API types
type geminiRequest struct {
	SystemInstruction *geminiContent         `json:"systemInstruction,omitempty"`
	Contents          []geminiContent        `json:"contents"`
	Tools             []geminiTool           `json:"tools,omitempty"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"` // "user" or "model"
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text             string                  `json:"text,omitempty"`
	FunctionCall     *geminiFunctionCall     `json:"functionCall,omitempty"`
	FunctionResponse *geminiFunctionResponse `json:"functionResponse,omitempty"`
}

type geminiFunctionCall struct {
	Name string         `json:"name"`
	Args map[string]any `json:"args,omitempty"`
}

type geminiFunctionResponse struct {
	Name     string         `json:"name"`
	Response map[string]any `json:"response"`
}

type geminiTool struct {
	FunctionDeclarations []geminiFunctionDeclaration `json:"functionDeclarations"`
}

type geminiFunctionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

type geminiGenerationConfig struct {
	Temperature *float64 `json:"temperature,omitempty"`
}

// blockedFinishReasons end a candidate without a usable answer.
var blockedFinishReasons = map[string]bool{
	"SAFETY":             true,
	"RECITATION":         true,
	"BLOCKLIST":          true,
	"PROHIBITED_CONTENT": true,
	"SPII":               true,
}

type geminiResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
	} `json:"usageMetadata"`
	Error *geminiError `json:"error,omitempty"`
}

type geminiError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

// NewGemini creates a new Gemini provider
func NewGemini(apiKey, model string) *Gemini {
	if model == "" {
		model = defaultGeminiModel
	}
	return &Gemini{
		APIKey:  apiKey,
		Model:   model,
		BaseURL: defaultGeminiBaseURL,
		client:  &http.Client{Timeout: defaultGeminiTimeout},
	}
}

// Name returns the provider identifier
func (g *Gemini) Name() string { return "gemini" }

// ModelName returns the model being used
func (g *Gemini) ModelName() string { return g.Model }

// convertToGeminiContents converts internal messages to Gemini contents.
// Consecutive tool results are folded into one user turn, as the API expects
// all function responses for a model turn together.
func convertToGeminiContents(messages []Message) (*geminiContent, []geminiContent) {
	system, rest := SplitSystem(messages)

	var contents []geminiContent
	for _, msg := range rest {
		switch msg.Role {
		case RoleTool:
			part := geminiPart{FunctionResponse: &geminiFunctionResponse{
				Name:     msg.Name,
				Response: map[string]any{"content": msg.Content},
			}}
			if msg.IsError {
				part.FunctionResponse.Response = map[string]any{"error": msg.Content}
			}
			if n := len(contents); n > 0 && contents[n-1].Role == "user" && contents[n-1].Parts[0].FunctionResponse != nil {
				contents[n-1].Parts = append(contents[n-1].Parts, part)
				continue
			}
			contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{part}})
		case RoleAssistant:
			var parts []geminiPart
			if msg.Content != "" {
				parts = append(parts, geminiPart{Text: msg.Content})
			}
			for _, tr := range msg.ToolRequests {
				parts = append(parts, geminiPart{FunctionCall: &geminiFunctionCall{Name: tr.Name, Args: tr.Arguments}})
			}
			if len(parts) == 0 {
				parts = append(parts, geminiPart{Text: ""})
			}
			contents = append(contents, geminiContent{Role: "model", Parts: parts})
		default:
			contents = append(contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: msg.Content}}})
		}
	}

	if system == "" {
		return nil, contents
	}
	return &geminiContent{Parts: []geminiPart{{Text: system}}}, contents
}

func convertToolsToGemini(tools []ToolSpec) []geminiTool {
	if len(tools) == 0 {
		return nil
	}
	decls := make([]geminiFunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, geminiFunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  t.Parameters,
		})
	}
	return []geminiTool{{FunctionDeclarations: decls}}
}

// GenerateWithTools calls the Gemini API with function declarations
func (g *Gemini) GenerateWithTools(ctx context.Context, messages []Message, tools []ToolSpec) (*ToolCallResponse, error) {
	if g.APIKey == "" {
		return nil, &FatalError{Provider: g.Name(), Err: fmt.Errorf("%w: use 'travelagent config set gemini <key>' or set GEMINI_API_KEY", ErrMissingAPIKey)}
	}

	system, contents := convertToGeminiContents(messages)
	reqBody := geminiRequest{
		SystemInstruction: system,
		Contents:          contents,
		Tools:             convertToolsToGemini(tools),
	}
	if g.Temperature != nil {
		reqBody.GenerationConfig = &geminiGenerationConfig{Temperature: g.Temperature}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", strings.TrimRight(g.BaseURL, "/"), g.Model)
	body, status, err := postJSON(ctx, g.client, g.Name(), url, map[string]string{"x-goog-api-key": g.APIKey}, reqBody)
	if err != nil {
		return nil, err
	}

	var geminiResp geminiResponse
	if err := json.Unmarshal(body, &geminiResp); err != nil && status == http.StatusOK {
		return nil, &FatalError{Provider: g.Name(), StatusCode: status, Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if status != http.StatusOK || geminiResp.Error != nil {
		if geminiResp.Error != nil {
			if status == http.StatusOK {
				status = geminiResp.Error.Code
			}
			return nil, classifyStatus(g.Name(), status, geminiResp.Error.Status, geminiResp.Error.Message)
		}
		return nil, classifyStatus(g.Name(), status, "", string(body))
	}

	if len(geminiResp.Candidates) == 0 {
		return nil, &FatalError{Provider: g.Name(), StatusCode: status, Err: fmt.Errorf("no response candidates returned")}
	}

	candidate := geminiResp.Candidates[0]
	if blockedFinishReasons[candidate.FinishReason] {
		return nil, &FatalError{Provider: g.Name(), StatusCode: status, Err: fmt.Errorf("response blocked (finish reason %s)", candidate.FinishReason)}
	}

	var textContent strings.Builder
	var requests []ToolRequest
	for _, part := range candidate.Content.Parts {
		if part.FunctionCall != nil {
			args := part.FunctionCall.Args
			if args == nil {
				args = map[string]any{}
			}
			// Gemini does not assign call IDs; the agent loop fills them in.
			requests = append(requests, ToolRequest{Name: part.FunctionCall.Name, Arguments: args})
			continue
		}
		textContent.WriteString(part.Text)
	}

	if strings.TrimSpace(textContent.String()) == "" && len(requests) == 0 {
		return nil, &FatalError{Provider: g.Name(), StatusCode: status, Err: fmt.Errorf("empty response (finish reason %s)", candidate.FinishReason)}
	}

	return &ToolCallResponse{
		Content:      textContent.String(),
		ToolRequests: requests,
		Usage: Usage{
			InputTokens:  geminiResp.UsageMetadata.PromptTokenCount,
			OutputTokens: geminiResp.UsageMetadata.CandidatesTokenCount,
		},
	}, nil
}

// Ensure Gemini implements Provider
var _ Provider = (*Gemini)(nil)
