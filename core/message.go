package core

import (
	"time"

	"github.com/google/uuid"
)

// Role identifies the author of a message within a conversation.
type Role string

const (
	// RoleSystem is the instruction message prepended on the first turn.
	RoleSystem Role = "system"
	// RoleUser is a human participant message.
	RoleUser Role = "user"
	// RoleAssistant is a model-generated message.
	RoleAssistant Role = "assistant"
	// RoleTool carries the result of an executed tool call.
	RoleTool Role = "tool"
)

// ToolCall is a structured request emitted by the generative model naming a
// registered function and its serialized arguments. Unified across providers
// so downstream logic does not need per-provider branching.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"` // JSON-encoded argument object
}

// Message is the unit of a conversation transcript. Append-only within a
// Conversation; treated as immutable after creation.
//
// An assistant message requesting tool execution carries ToolCalls; the
// corresponding results are RoleTool messages linked back via ToolCallID.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Timestamp  time.Time  `json:"timestamp"`
}

// NewSystemMessage creates a system instruction message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content, Timestamp: time.Now().UTC()}
}

// NewUserMessage creates a user-authored message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content, Timestamp: time.Now().UTC()}
}

// NewAssistantMessage creates an assistant message with plain text content.
func NewAssistantMessage(content string) Message {
	return Message{Role: RoleAssistant, Content: content, Timestamp: time.Now().UTC()}
}

// NewToolResultMessage records the serialized outcome of a tool call.
func NewToolResultMessage(callID, content string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: callID, Timestamp: time.Now().UTC()}
}

// IsConversational reports whether the message belongs in the durable
// human-readable transcript. System and tool messages stay in the in-memory
// working transcript only.
func (m Message) IsConversational() bool {
	return (m.Role == RoleUser || m.Role == RoleAssistant) && m.Content != ""
}

// FilterConversational returns the subset of messages that belong in the
// durable transcript, preserving order.
func FilterConversational(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.IsConversational() {
			out = append(out, m)
		}
	}
	return out
}

// NewID generates a unique identifier for conversations, memories, reminders
// and tool calls.
func NewID() string { return uuid.NewString() }
