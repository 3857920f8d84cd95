package agent

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"

	"github.com/simonyos/travelagent/internal/llm"
	"github.com/simonyos/travelagent/internal/tools"
)

// ToolExecution records a single tool call and its result
type ToolExecution struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Args      string           `json:"args"` // Formatted args string for display
	Arguments map[string]any   `json:"arguments,omitempty"`
	Result    tools.ToolResult `json:"result"`
	Duration  time.Duration    `json:"duration"`
}

// assignIDs gives every request a unique ID within its turn. Backends that
// omit IDs (Gemini) or repeat them get call_<uuid>.
func assignIDs(reqs []llm.ToolRequest) []llm.ToolRequest {
	out := make([]llm.ToolRequest, len(reqs))
	seen := make(map[string]bool, len(reqs))
	for i, req := range reqs {
		if req.ID == "" || seen[req.ID] {
			req.ID = "call_" + uuid.NewString()
		}
		seen[req.ID] = true
		out[i] = req
	}
	return out
}

// dispatch executes reqs with at most limit running at once. Results come
// back in request order regardless of completion order.
func (a *Agent) dispatch(ctx context.Context, reqs []llm.ToolRequest) []ToolExecution {
	mapper := iter.Mapper[llm.ToolRequest, ToolExecution]{MaxGoroutines: a.cfg.ToolConcurrency}
	return mapper.Map(reqs, func(req *llm.ToolRequest) ToolExecution {
		start := time.Now()
		result := a.registry.Execute(ctx, *req)
		return ToolExecution{
			ID:        req.ID,
			Name:      req.Name,
			Args:      formatArgs(req.Name, req.Arguments, req.RawArguments),
			Arguments: req.Arguments,
			Result:    result,
			Duration:  time.Since(start),
		}
	})
}

// formatArgs creates a display string for tool arguments
func formatArgs(toolName string, args map[string]any, raw string) string {
	if args == nil {
		return raw
	}
	switch toolName {
	case "get_weather_forecast", "search_tourist_attractions":
		if city, ok := args["city"].(string); ok {
			return city
		}
	case "search_flights_hotels":
		origin, _ := args["origin"].(string)
		dest, _ := args["destination"].(string)
		if origin != "" && dest != "" {
			return origin + " → " + dest
		}
	}
	// Fallback: JSON representation
	bytes, _ := json.Marshal(args)
	return string(bytes)
}
