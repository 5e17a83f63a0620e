// Package tool defines the callable tool abstraction the model loop
// dispatches into, plus the registry that owns validation, identity
// injection and execution.
package tool

import (
	"context"
	"fmt"

	"github.com/hupe1980/teambrain/core"
	"github.com/hupe1980/teambrain/logging"
)

// Context carries per-call data into a tool execution: the resolved caller
// identity, the conversation the call originated from, and a logger.
// Identity fields are set by the registry and cannot be spoofed via
// arguments.
type Context struct {
	context.Context

	CallID         string
	ConversationID string
	Identity       core.Identity
	Logger         logging.Logger
}

// Tool is a callable capability advertised to the model.
type Tool interface {
	// Name returns the unique tool name.
	Name() string

	// Description explains the tool to the model.
	Description() string

	// Parameters returns the JSON schema of the tool's arguments.
	Parameters() map[string]any

	// Execute runs the tool with decoded arguments and returns a
	// JSON-serializable result.
	Execute(tctx Context, args map[string]any) (any, error)
}

// ErrorCode classifies tool failures for the error envelope fed back to the
// model.
type ErrorCode string

const (
	CodeInvalidArguments ErrorCode = "invalid_arguments"
	CodeNotFound         ErrorCode = "not_found"
	CodeUnknownTool      ErrorCode = "unknown_tool"
	CodeInternal         ErrorCode = "internal"
)

// Error is a structured tool failure. The runner serializes it back to the
// model instead of aborting the turn.
type Error struct {
	Tool    string    `json:"tool"`
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("tool %s failed (%s): %s", e.Tool, e.Code, e.Message)
}

// NewError builds a structured tool failure.
func NewError(tool string, code ErrorCode, format string, args ...any) *Error {
	return &Error{Tool: tool, Code: code, Message: fmt.Sprintf(format, args...)}
}
