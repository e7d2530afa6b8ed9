package docauth

// Package docauth resolves the effective authentication requirement for a
// recipient from the document-wide settings and the recipient's own
// overrides. Resolution is pure: it is evaluated both when gating a signing
// action and when labelling historical decisions on the certificate, and the
// two call sites must never disagree for the same stored inputs.

import (
	"signapi/internal/model"
)

// Config gates which auth methods are reachable in this deployment.
// It is passed in explicitly; the resolver never reads ambient process state.
type Config struct {
	AllowPasskey   bool
	AllowTwoFactor bool
}

// Derived holds the per-axis resolution result. The zero value on an axis
// means no requirement applies (nothing was set at any level).
type Derived struct {
	AccessAuth model.AuthMethod
	ActionAuth model.AuthMethod
}

// Resolver computes effective auth requirements.
type Resolver struct {
	cfg Config
}

// NewResolver builds a Resolver with the given deployment config.
func NewResolver(cfg Config) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve computes the effective access and action auth for one recipient.
//
// Per axis: a recipient-level EXPLICIT_NONE wins even over a stricter
// document-wide setting (deliberate escape hatch); otherwise a concrete
// recipient-level method wins; otherwise the document-wide value applies;
// otherwise the axis has no requirement.
//
// Unknown method values, access-axis methods other than ACCOUNT or
// EXPLICIT_NONE, and methods disabled by Config fail closed with a
// ConfigurationError.
func (r *Resolver) Resolve(docOpts, recipientOpts *model.AuthOptions) (Derived, error) {
	var docAccess, docAction, rcpAccess, rcpAction model.AuthMethod
	if docOpts != nil {
		docAccess, docAction = docOpts.AccessAuth, docOpts.ActionAuth
	}
	if recipientOpts != nil {
		rcpAccess, rcpAction = recipientOpts.AccessAuth, recipientOpts.ActionAuth
	}

	access := resolveAxis(docAccess, rcpAccess)
	if err := r.validateAccess(access); err != nil {
		return Derived{}, err
	}

	action := resolveAxis(docAction, rcpAction)
	if err := r.validateAction(action); err != nil {
		return Derived{}, err
	}

	return Derived{AccessAuth: access, ActionAuth: action}, nil
}

// resolveAxis applies the override order for a single axis.
func resolveAxis(doc, recipient model.AuthMethod) model.AuthMethod {
	if recipient == model.AuthExplicitNone {
		return model.AuthExplicitNone
	}
	if recipient != "" {
		return recipient
	}
	return doc
}

// validateAccess admits only ACCOUNT or EXPLICIT_NONE on the access axis.
// Passkeys and 2FA are action-only concepts.
func (r *Resolver) validateAccess(m model.AuthMethod) error {
	switch m {
	case "", model.AuthAccount, model.AuthExplicitNone:
		return nil
	case model.AuthPasskey, model.AuthTwoFactor:
		return &model.ConfigurationError{Field: "access auth", Value: string(m)}
	default:
		return &model.ConfigurationError{Field: "auth method", Value: string(m)}
	}
}

func (r *Resolver) validateAction(m model.AuthMethod) error {
	switch m {
	case "", model.AuthAccount, model.AuthExplicitNone:
		return nil
	case model.AuthPasskey:
		if !r.cfg.AllowPasskey {
			return &model.ConfigurationError{Field: "disabled auth method", Value: string(m)}
		}
		return nil
	case model.AuthTwoFactor:
		if !r.cfg.AllowTwoFactor {
			return &model.ConfigurationError{Field: "disabled auth method", Value: string(m)}
		}
		return nil
	default:
		return &model.ConfigurationError{Field: "auth method", Value: string(m)}
	}
}

// MethodLabel is the settings-facing label for an auth method.
func MethodLabel(m model.AuthMethod) (string, error) {
	switch m {
	case model.AuthAccount:
		return "Requiere cuenta", nil
	case model.AuthPasskey:
		return "Requeriere clave de acceso", nil
	case model.AuthTwoFactor:
		return "Requiere 2FA", nil
	case model.AuthExplicitNone:
		return "None (Overrides global settings)", nil
	default:
		return "", &model.ConfigurationError{Field: "auth method", Value: string(m)}
	}
}
