package deletion

// Package deletion decides what a delete request actually does. Depending on
// the document status and who is asking, "delete" is a hard delete, a
// cancel-and-notify of an in-flight signing, or a soft hide that leaves
// recipient copies untouched. The decision is pure; executing the branch is
// the caller's job.

import (
	"strings"

	"signapi/internal/model"
)

// Action is the concrete operation a delete request resolves to.
type Action string

const (
	HardDelete      Action = "HARD_DELETE"
	CancelAndNotify Action = "CANCEL_AND_NOTIFY"
	SoftHide        Action = "SOFT_HIDE"
)

// Actor describes the requester's relation to the document.
type Actor struct {
	// IsAdmin marks a privileged administrator acting out-of-band.
	IsAdmin bool
	// CanManage marks the document owner or a team-authorized user.
	CanManage bool
}

// Decision tells the caller which branch to execute and what extra input
// the request must carry.
type Decision struct {
	Action                     Action `json:"action"`
	RequiresReasonText         bool   `json:"requires_reason_text"`
	RequiresConfirmationPhrase bool   `json:"requires_confirmation_phrase"`
}

// ConfirmationPhrase is the literal a managing user must re-type before a
// PENDING document is cancelled.
const ConfirmationPhrase = "eliminar"

// Decide resolves a delete request to its action.
//
// Admins always hard delete but must justify it in writing. Owners hard
// delete drafts (no counterparties to notify), cancel-and-notify pending
// documents behind a typed confirmation, and soft hide completed ones.
// Anyone else only ever hides the document from their own view.
func Decide(status model.DocumentStatus, actor Actor) (Decision, error) {
	if actor.IsAdmin {
		return Decision{Action: HardDelete, RequiresReasonText: true}, nil
	}

	if !actor.CanManage {
		return Decision{Action: SoftHide}, nil
	}

	switch status {
	case model.StatusDraft:
		return Decision{Action: HardDelete}, nil
	case model.StatusPending:
		return Decision{Action: CancelAndNotify, RequiresConfirmationPhrase: true}, nil
	case model.StatusCompleted:
		return Decision{Action: SoftHide}, nil
	default:
		return Decision{}, &model.ConfigurationError{Field: "document status", Value: string(status)}
	}
}

// ValidateConfirmation checks the typed confirmation phrase. Anything other
// than the exact literal is rejected with no state change.
func ValidateConfirmation(input string) error {
	if input != ConfirmationPhrase {
		return model.NewValidationError("INVALID_CONFIRMATION", "escribe '"+ConfirmationPhrase+"' para confirmar")
	}
	return nil
}

// ValidateReason checks the free-text justification required for admin
// deletes. The reason is logged with the audit entry.
func ValidateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return model.NewValidationError("REASON_REQUIRED", "a reason is required to delete this document")
	}
	return nil
}
