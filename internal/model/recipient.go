package model

// Role determines the action a recipient must take for a document
// to be considered complete.
type Role string

const (
	RoleSigner   Role = "SIGNER"
	RoleApprover Role = "APPROVER"
	RoleViewer   Role = "VIEWER"
	RoleCC       Role = "CC"
)

// AllRoles lists every recipient role. Every rule table keyed by role is
// verified against this slice in tests; a role missing from a table is a
// configuration error, never a silent default.
var AllRoles = []Role{RoleSigner, RoleApprover, RoleViewer, RoleCC}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	switch r {
	case RoleSigner, RoleApprover, RoleViewer, RoleCC:
		return true
	}
	return false
}

// Recipient is a party attached to a document. Completion is derived from
// the audit log (a DOCUMENT_RECIPIENT_COMPLETED entry), never stored here.
type Recipient struct {
	ID         string `json:"id"`
	DocumentID string `json:"document_id"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	Role       Role   `json:"role"`
	// Token is the opaque signing-session credential mailed to the recipient.
	Token string `json:"token"`
	// AuthOptions overrides the document-wide auth settings for this
	// recipient only. Nil means inherit.
	AuthOptions  *AuthOptions `json:"auth_options,omitempty"`
	SigningOrder int          `json:"signing_order"`
}
