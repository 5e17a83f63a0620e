// Package model defines the language model abstraction used by the runner:
// a synchronous, provider-agnostic completion call over a shared message and
// tool vocabulary. Providers live in subpackages.
package model

import (
	"context"

	"github.com/hupe1980/teambrain/core"
)

// ToolDefinition advertises a callable tool to the model.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request is one completion call: the conversation so far plus the tools the
// model may invoke.
type Request struct {
	System      string
	Messages    []core.Message
	Tools       []ToolDefinition
	Temperature float64
	MaxTokens   int
}

// Usage reports token accounting for a completion, when the provider
// supplies it.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the model's reply: assistant text, zero or more tool calls,
// and the provider's stop reason.
type Response struct {
	Content      string
	ToolCalls    []core.ToolCall
	FinishReason string
	Usage        Usage
}

// HasToolCalls reports whether the model requested tool executions.
func (r *Response) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// Model is a synchronous completion provider. Complete blocks until the
// provider replies or ctx is done; transport and provider failures are
// returned wrapped in *core.ModelUnavailableError and are not retried.
type Model interface {
	// Complete performs one completion round trip.
	Complete(ctx context.Context, req Request) (*Response, error)

	// Info identifies the provider and model for logging.
	Info() Info
}

// Info identifies a concrete model.
type Info struct {
	Provider string `json:"provider"`
	Name     string `json:"name"`
}
