package models

import (
	"github.com/Cyclone1070/loom/internal/orchestrator/models"
)

// GenerateRequest carries one model invocation: the trimmed history
// (system messages first) and the bound tool schema set.
type GenerateRequest struct {
	History []models.Message
	Tools   []ToolDefinition
}

// GenerateResponse is the final aggregated assistant output. A response may
// carry text, tool calls, or both.
type GenerateResponse struct {
	Text      string
	ToolCalls []models.ToolCall
}

// ToolDefinition defines a tool the model can invoke.
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  *ParameterSchema // nil means no parameters
}

// ParameterSchema maps directly to standard JSON Schema.
type ParameterSchema struct {
	Type       string                    `json:"type"`
	Properties map[string]PropertySchema `json:"properties"`
	Required   []string                  `json:"required,omitempty"`
}

// PropertySchema defines a single parameter property.
type PropertySchema struct {
	Type        string          `json:"type"`
	Description string          `json:"description,omitempty"`
	Enum        []string        `json:"enum,omitempty"`
	Items       *PropertySchema `json:"items,omitempty"`
}
