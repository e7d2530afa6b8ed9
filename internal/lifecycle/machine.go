package lifecycle

// Package lifecycle is the document status machine. It is pure: it decides
// whether a transition is legal from an in-memory aggregate and reports the
// resulting status; persisting the change (including the compare-and-swap
// on concurrent completions) is the caller's job.

import (
	"fmt"

	"signapi/internal/model"
	"signapi/internal/roles"
)

// Result reports the outcome of a transition attempt.
type Result struct {
	NewStatus    model.DocumentStatus `json:"new_status"`
	Transitioned bool                 `json:"transitioned"`
}

// SendForSigning validates the DRAFT -> PENDING transition.
//
// Preconditions: at least one recipient must require completion (a document
// nobody has to act on could never reach COMPLETED), and every
// completion-requiring recipient has at least one signature-capable field
// assigned. A violation is a ValidationError, never a silent proceed.
// Calling from PENDING or COMPLETED is an InvalidTransitionError.
func SendForSigning(status model.DocumentStatus, recipients []model.Recipient, fields []model.Field) (Result, error) {
	if !status.IsValid() {
		return Result{}, &model.ConfigurationError{Field: "document status", Value: string(status)}
	}
	if status != model.StatusDraft {
		return Result{NewStatus: status}, &model.InvalidTransitionError{From: status, To: model.StatusPending}
	}

	signatureFields := make(map[string]bool)
	for _, f := range fields {
		if f.Type.IsSignatureCapable() {
			signatureFields[f.RecipientID] = true
		}
	}

	requiredCount := 0
	for _, r := range recipients {
		required, err := roles.RequiresCompletion(r.Role)
		if err != nil {
			return Result{}, err
		}
		if !required {
			continue
		}
		requiredCount++
		if !signatureFields[r.ID] {
			return Result{NewStatus: status}, model.NewValidationError(
				"MISSING_SIGNATURE_FIELD",
				fmt.Sprintf("recipient %s has no signature field", r.Email),
			)
		}
	}
	if requiredCount == 0 {
		return Result{NewStatus: status}, model.NewValidationError(
			"NO_SIGNING_RECIPIENTS",
			"document has no recipients that must complete it",
		)
	}

	return Result{NewStatus: model.StatusPending, Transitioned: true}, nil
}

// EvaluateCompletion decides the PENDING -> COMPLETED transition.
//
// The completion predicate is recomputed from the full audit log on every
// call rather than counted incrementally, so duplicate delivery of the same
// completion event cannot double-count. On an already COMPLETED document the
// call is a no-op, not an error, for the same reason. DRAFT documents cannot
// complete.
func EvaluateCompletion(status model.DocumentStatus, recipients []model.Recipient, auditLog []model.AuditLogEntry) (Result, error) {
	switch status {
	case model.StatusCompleted:
		return Result{NewStatus: model.StatusCompleted}, nil
	case model.StatusDraft:
		return Result{NewStatus: status}, &model.InvalidTransitionError{From: status, To: model.StatusCompleted}
	case model.StatusPending:
	default:
		return Result{}, &model.ConfigurationError{Field: "document status", Value: string(status)}
	}

	for _, r := range recipients {
		required, err := roles.RequiresCompletion(r.Role)
		if err != nil {
			return Result{}, err
		}
		if required && !IsRecipientComplete(r.ID, auditLog) {
			return Result{NewStatus: model.StatusPending}, nil
		}
	}

	return Result{NewStatus: model.StatusCompleted, Transitioned: true}, nil
}

// IsRecipientComplete reports whether the audit log holds a completion event
// for the recipient.
func IsRecipientComplete(recipientID string, auditLog []model.AuditLogEntry) bool {
	for _, e := range auditLog {
		if e.Type == model.AuditDocumentRecipientCompleted && e.RecipientID != nil && *e.RecipientID == recipientID {
			return true
		}
	}
	return false
}
