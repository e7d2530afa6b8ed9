package model

// AuthMethod is an authentication requirement a recipient must satisfy
// before viewing or acting on a document.
//
// The zero value means "not set": the level that declares it inherits from
// the next level down (recipient -> document -> no requirement).
// AuthExplicitNone is different from unset: it is a deliberate opt-out that
// overrides a stricter document-wide setting.
type AuthMethod string

const (
	AuthAccount      AuthMethod = "ACCOUNT"
	AuthPasskey      AuthMethod = "PASSKEY"
	AuthTwoFactor    AuthMethod = "TWO_FACTOR_AUTH"
	AuthExplicitNone AuthMethod = "EXPLICIT_NONE"
)

// AllAuthMethods lists every concrete auth method value.
var AllAuthMethods = []AuthMethod{AuthAccount, AuthPasskey, AuthTwoFactor, AuthExplicitNone}

// IsValid reports whether m is a known auth method. The empty string is not
// a method; it is the absence of one.
func (m AuthMethod) IsValid() bool {
	switch m {
	case AuthAccount, AuthPasskey, AuthTwoFactor, AuthExplicitNone:
		return true
	}
	return false
}

// AuthOptions carries the two independent authentication axes.
// AccessAuth gates opening the document, ActionAuth gates the recipient's
// role action (signing, approving, viewing).
type AuthOptions struct {
	AccessAuth AuthMethod `json:"access_auth,omitempty"`
	ActionAuth AuthMethod `json:"action_auth,omitempty"`
}
