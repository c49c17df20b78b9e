package models

import (
	"github.com/google/uuid"
)

// Role identifies who produced a message.
type Role string

const (
	RoleHuman     Role = "human"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
	RoleSystem    Role = "system"
)

// Message is a single conversational unit.
//
// Human and System messages carry only Content. Assistant messages may carry
// text content and zero or more ToolCalls. Tool messages carry the result of
// exactly one tool call, keyed by ToolCallID.
type Message struct {
	ID      string `json:"id"`
	Role    Role   `json:"role"`
	Content string `json:"content,omitempty"`

	// Assistant messages only.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`

	// Tool messages only. ToolCallID must reference a ToolCall emitted by
	// the most recent unresolved assistant message.
	ToolCallID string `json:"tool_call_id,omitempty"`
	ToolName   string `json:"tool_name,omitempty"`
}

// ToolCall is a model-requested invocation of a named tool. It is immutable
// once emitted; ID is the correlation key for approval decisions and results.
type ToolCall struct {
	ID   string         `json:"id"`
	Name string         `json:"name"`
	Args map[string]any `json:"args"`
}

// NewHumanMessage builds a Human message with a fresh id.
func NewHumanMessage(content string) Message {
	return Message{ID: uuid.NewString(), Role: RoleHuman, Content: content}
}

// NewSystemMessage builds a System message with a fresh id.
func NewSystemMessage(content string) Message {
	return Message{ID: uuid.NewString(), Role: RoleSystem, Content: content}
}

// NewAssistantMessage builds an Assistant message with a fresh id. Tool calls
// without an id (some backends omit them) are assigned one so results and
// approval decisions can be routed back to the right call.
func NewAssistantMessage(content string, calls []ToolCall) Message {
	for i := range calls {
		if calls[i].ID == "" {
			calls[i].ID = uuid.NewString()
		}
	}
	return Message{ID: uuid.NewString(), Role: RoleAssistant, Content: content, ToolCalls: calls}
}

// NewToolMessage builds a Tool message carrying one result keyed to callID.
func NewToolMessage(callID, toolName, content string) Message {
	return Message{
		ID:         uuid.NewString(),
		Role:       RoleTool,
		Content:    content,
		ToolCallID: callID,
		ToolName:   toolName,
	}
}
