package core

import (
	"errors"
	"fmt"
)

// ErrConversationNotFound is returned when a conversation id is not in the
// active table, including the second finalize on an already-archived id.
var ErrConversationNotFound = errors.New("conversation not found")

// ErrTurnInFlight is returned when a turn is requested for a conversation
// that already has a turn executing. One conversation id is processed by at
// most one in-flight turn; concurrent turns are rejected, never interleaved.
var ErrTurnInFlight = errors.New("turn already in flight for conversation")

// AuthError means the caller identity could not be resolved. The turn is
// aborted before any model call.
type AuthError struct {
	Reason string
}

func (e *AuthError) Error() string { return fmt.Sprintf("auth: %s", e.Reason) }

// NewAuthError creates an AuthError with the given reason.
func NewAuthError(reason string) *AuthError { return &AuthError{Reason: reason} }

// ModelUnavailableError means the generative model call failed. Fatal for the
// turn; never auto-retried.
type ModelUnavailableError struct {
	Provider string
	Err      error
}

func (e *ModelUnavailableError) Error() string {
	return fmt.Sprintf("model %s unavailable: %v", e.Provider, e.Err)
}

func (e *ModelUnavailableError) Unwrap() error { return e.Err }

// LoopExhaustionError means the dispatch loop hit its iteration cap without
// the model producing a final answer. Fatal and distinct from a crash.
type LoopExhaustionError struct {
	Iterations int
}

func (e *LoopExhaustionError) Error() string {
	return fmt.Sprintf("dispatch loop exhausted after %d iterations without a final answer", e.Iterations)
}

// FinalizationError wraps a failure while archiving a conversation. Logged
// only; the already-computed turn response is unaffected and the conversation
// stays active for a later retry.
type FinalizationError struct {
	ConversationID string
	Err            error
}

func (e *FinalizationError) Error() string {
	return fmt.Sprintf("finalize conversation %s: %v", e.ConversationID, e.Err)
}

func (e *FinalizationError) Unwrap() error { return e.Err }
