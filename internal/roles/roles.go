package roles

// Package roles holds the fixed rule tables for recipient roles: display
// labels, whether the role blocks document completion, the default signing
// reason, and the request email kind. The tables are exhaustive over
// model.AllRoles; a lookup for a role missing from a table fails closed with
// a ConfigurationError instead of defaulting.

import "signapi/internal/model"

// Description is the human-facing label set for a role.
type Description struct {
	ActionVerb      string
	Actioned        string
	ProgressiveVerb string
	RoleName        string
}

// EmailType identifies the kind of request email a role receives when a
// document is sent for signing.
type EmailType string

const (
	EmailSigningRequest EmailType = "SIGNING_REQUEST"
	EmailViewRequest    EmailType = "VIEW_REQUEST"
	EmailApproveRequest EmailType = "APPROVE_REQUEST"
)

var descriptions = map[model.Role]Description{
	model.RoleSigner: {
		ActionVerb:      "Firmar",
		Actioned:        "Firmado",
		ProgressiveVerb: "Firmando",
		RoleName:        "Firmante",
	},
	model.RoleApprover: {
		ActionVerb:      "Aprobar",
		Actioned:        "Aprobado",
		ProgressiveVerb: "Aprobando",
		RoleName:        "Aprobador",
	},
	model.RoleViewer: {
		ActionVerb:      "Visualizar",
		Actioned:        "Visto",
		ProgressiveVerb: "visualizando",
		RoleName:        "Observador",
	},
	model.RoleCC: {
		ActionVerb:      "CC",
		Actioned:        "CC'd",
		ProgressiveVerb: "CC",
		RoleName:        "Cc",
	},
}

// signingReasons is the default reason recorded when the recipient does not
// supply a custom one.
var signingReasons = map[model.Role]string{
	model.RoleSigner:   "Soy firmante de este documento",
	model.RoleApprover: "Soy un aprobador de este documento.",
	model.RoleViewer:   "Soy un espectador de este documento.",
	model.RoleCC:       "Debo recibir una copia de este documento",
}

// requiresCompletion marks the roles whose audit completion event blocks the
// document's PENDING -> COMPLETED transition. CC is copy-only and never
// blocks completion.
var requiresCompletion = map[model.Role]bool{
	model.RoleSigner:   true,
	model.RoleApprover: true,
	model.RoleViewer:   true,
	model.RoleCC:       false,
}

var emailTypes = map[model.Role]EmailType{
	model.RoleSigner:   EmailSigningRequest,
	model.RoleViewer:   EmailViewRequest,
	model.RoleApprover: EmailApproveRequest,
}

// Describe returns the label set for a role.
func Describe(r model.Role) (Description, error) {
	d, ok := descriptions[r]
	if !ok {
		return Description{}, &model.ConfigurationError{Field: "role", Value: string(r)}
	}
	return d, nil
}

// RequiresCompletion reports whether the role must complete before the
// document can transition to COMPLETED.
func RequiresCompletion(r model.Role) (bool, error) {
	v, ok := requiresCompletion[r]
	if !ok {
		return false, &model.ConfigurationError{Field: "role", Value: string(r)}
	}
	return v, nil
}

// SigningReason returns the role's default signing reason.
func SigningReason(r model.Role) (string, error) {
	s, ok := signingReasons[r]
	if !ok {
		return "", &model.ConfigurationError{Field: "role", Value: string(r)}
	}
	return s, nil
}

// RequestEmailType returns the request email kind for the role. The second
// return is false for CC, which only ever receives the completed copy.
func RequestEmailType(r model.Role) (EmailType, bool, error) {
	if !r.IsValid() {
		return "", false, &model.ConfigurationError{Field: "role", Value: string(r)}
	}
	t, ok := emailTypes[r]
	return t, ok, nil
}
