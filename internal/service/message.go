package service

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/simonyos/travelagent/internal/agent"
	"github.com/simonyos/travelagent/internal/llm"
)

// AskRequest asks the server to answer one query in a fresh conversation.
type AskRequest struct {
	ID        string    `json:"id"`
	Query     string    `json:"query"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAskRequest creates a request with a generated ID and timestamp.
func NewAskRequest(query string) *AskRequest {
	return &AskRequest{
		ID:        uuid.New().String(),
		Query:     query,
		Timestamp: time.Now(),
	}
}

// AskResponse carries the outcome of one run.
type AskResponse struct {
	ID           string                `json:"id"`
	Answer       string                `json:"answer,omitempty"`
	State        agent.State           `json:"state,omitempty"`
	Failure      string                `json:"failure,omitempty"`
	Error        string                `json:"error,omitempty"`
	Iterations   int                   `json:"iterations"`
	Conversation []llm.Message         `json:"conversation,omitempty"`
	ToolCalls    []agent.ToolExecution `json:"tool_calls,omitempty"`
	Duration     time.Duration         `json:"duration"`
}

// Err returns the run failure as an error, or nil on success.
func (r *AskResponse) Err() error {
	if r.Error == "" {
		return nil
	}
	return &RemoteError{Failure: r.Failure, Message: r.Error}
}

// Encode serializes a value to JSON.
func Encode(v any) ([]byte, error) {
	return json.Marshal(v)
}

// DecodeAskRequest deserializes a request from JSON.
func DecodeAskRequest(data []byte) (*AskRequest, error) {
	var req AskRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeAskResponse deserializes a response from JSON.
func DecodeAskResponse(data []byte) (*AskResponse, error) {
	var resp AskResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
