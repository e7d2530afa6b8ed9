package model

import "fmt"

// The engine returns four distinguishable error kinds. Handlers map them to
// HTTP statuses; the engine itself never logs or swallows them.

// ValidationError means the caller's input was rejected (missing signature
// field before send, wrong confirmation phrase). Recoverable; no state change.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Code, e.Message)
}

// NewValidationError builds a ValidationError with a machine-readable code
// and a user-safe message.
func NewValidationError(code, message string) *ValidationError {
	return &ValidationError{Code: code, Message: message}
}

// InvalidTransitionError means a document status change was requested that
// the lifecycle does not allow (backward moves, acting on a terminal
// document). Callers should treat it as idempotent-safe, not fatal.
type InvalidTransitionError struct {
	From DocumentStatus
	To   DocumentStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition: %s -> %s", e.From, e.To)
}

// ConfigurationError means an unrecognized role, status or auth method
// reached a rule table, or a disabled auth method was required. The
// operation must fail closed; guessing a default could under-authenticate
// a signer.
type ConfigurationError struct {
	Field string
	Value string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration: unrecognized %s %q", e.Field, e.Value)
}

// PermissionError means the actor is not entitled to the requested
// operation. Surfaced distinctly from validation so the caller can explain
// "you don't have rights" vs "your input was invalid".
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return "permission: " + e.Message
}
