package tools

// JSONSchema is the subset of JSON Schema used to describe tool parameters.
type JSONSchema struct {
	Type             string                 `json:"type"`
	Description      string                 `json:"description,omitempty"`
	Properties       map[string]*JSONSchema `json:"properties,omitempty"`
	Required         []string               `json:"required,omitempty"`
	Enum             []string               `json:"enum,omitempty"`
	Items            *JSONSchema            `json:"items,omitempty"`
	Minimum          *float64               `json:"minimum,omitempty"`
	Maximum          *float64               `json:"maximum,omitempty"`
	ExclusiveMinimum *float64               `json:"exclusiveMinimum,omitempty"`
	MinItems         *int                   `json:"minItems,omitempty"`
	Format           string                 `json:"format,omitempty"` // "date" = YYYY-MM-DD
	Default          any                    `json:"default,omitempty"`
}

// Float returns a pointer for Minimum / Maximum literals.
func Float(v float64) *float64 { return &v }

// Int returns a pointer for MinItems literals.
func Int(v int) *int { return &v }

// ToolDefinition is the structured tool definition
type ToolDefinition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  *JSONSchema `json:"parameters"`
}

// ToolResult represents the output of a tool execution.
// Output is the text sent back to the model; Data is the structured value
// for callers that want it.
type ToolResult struct {
	Success bool   `json:"success"`
	Output  string `json:"output"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Text returns what the model should see for this result.
func (r ToolResult) Text() string {
	if !r.Success && r.Error != "" {
		return "Error: " + r.Error
	}
	return r.Output
}

// Map converts the schema into the plain map form backends expect.
func (s *JSONSchema) Map() map[string]any {
	if s == nil {
		return map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		}
	}

	result := map[string]any{"type": s.Type}

	if s.Description != "" {
		result["description"] = s.Description
	}
	if len(s.Properties) > 0 {
		props := make(map[string]any, len(s.Properties))
		for name, prop := range s.Properties {
			props[name] = prop.Map()
		}
		result["properties"] = props
	} else if s.Type == "object" {
		result["properties"] = map[string]any{}
	}
	if len(s.Required) > 0 {
		result["required"] = s.Required
	}
	if len(s.Enum) > 0 {
		result["enum"] = s.Enum
	}
	if s.Items != nil {
		result["items"] = s.Items.Map()
	}
	if s.Minimum != nil {
		result["minimum"] = *s.Minimum
	}
	if s.Maximum != nil {
		result["maximum"] = *s.Maximum
	}
	if s.ExclusiveMinimum != nil {
		result["exclusiveMinimum"] = *s.ExclusiveMinimum
	}
	if s.MinItems != nil {
		result["minItems"] = *s.MinItems
	}
	if s.Format != "" {
		result["format"] = s.Format
	}
	if s.Default != nil {
		result["default"] = s.Default
	}

	return result
}
