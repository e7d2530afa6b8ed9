package certificate

// Package certificate reduces a document's audit log stream into the
// per-recipient timeline printed on the signing certificate. The projection
// is read-only and pure; it reuses the docauth resolver so the label on the
// certificate can never disagree with the gate that was enforced at signing
// time.

import (
	"strings"
	"time"

	"signapi/internal/docauth"
	"signapi/internal/model"
	"signapi/internal/roles"
)

// Unknown is the explicit sentinel rendered when a timeline bucket is empty.
// An empty bucket is a valid state (e.g. a CC recipient that never opened
// the document), not an error.
const Unknown = "Unknown"

// RecipientTimeline is one certificate row.
type RecipientTimeline struct {
	RecipientID string `json:"recipient_id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	RoleName    string `json:"role_name"`
	AuthLevel   string `json:"auth_level"`
	// Sent, Opened and Completed are the first chronological entry of each
	// bucket; the zero time means the event never happened.
	Sent      time.Time `json:"sent,omitempty"`
	Opened    time.Time `json:"opened,omitempty"`
	Completed time.Time `json:"completed,omitempty"`
	IPAddress string    `json:"ip_address,omitempty"`
	Device    string    `json:"device,omitempty"`
	// SignatureFieldID and SignatureImagePath locate the recipient's
	// signature artifact; empty when the recipient has no signature field.
	SignatureFieldID   string `json:"signature_field_id,omitempty"`
	SignatureImagePath string `json:"signature_image_path,omitempty"`
	SigningReason      string `json:"signing_reason"`
}

// Project builds one timeline row per recipient, in recipient order.
//
// Within each event bucket the earliest entry is canonical: if a recipient
// was re-sent an email, only the first send is shown.
func Project(recipients []model.Recipient, fields []model.Field, auditLog []model.AuditLogEntry, resolver *docauth.Resolver, docOpts *model.AuthOptions) ([]RecipientTimeline, error) {
	rows := make([]RecipientTimeline, 0, len(recipients))

	for _, r := range recipients {
		desc, err := roles.Describe(r.Role)
		if err != nil {
			return nil, err
		}
		reason, err := roles.SigningReason(r.Role)
		if err != nil {
			return nil, err
		}

		derived, err := resolver.Resolve(docOpts, r.AuthOptions)
		if err != nil {
			return nil, err
		}
		authLevel, err := authLevelLabel(derived)
		if err != nil {
			return nil, err
		}

		row := RecipientTimeline{
			RecipientID:   r.ID,
			Name:          r.Name,
			Email:         r.Email,
			RoleName:      desc.RoleName,
			AuthLevel:     authLevel,
			SigningReason: reason,
		}

		row.Sent = firstOfType(auditLog, model.AuditEmailSent, r.ID).CreatedAt
		row.Opened = firstOfType(auditLog, model.AuditDocumentOpened, r.ID).CreatedAt

		if completed := firstOfType(auditLog, model.AuditDocumentRecipientCompleted, r.ID); !completed.CreatedAt.IsZero() {
			row.Completed = completed.CreatedAt
			row.IPAddress = completed.IPAddress
			row.Device = DeviceLabel(completed.UserAgent)
		}

		if f := signatureField(fields, r.ID); f != nil {
			row.SignatureFieldID = f.ID
			row.SignatureImagePath = f.SignatureImagePath
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// authLevelLabel derives the authentication label for a certificate row:
// the action-auth result when set, else the access-auth result, else
// "Email", the implicit weakest tier.
func authLevelLabel(d docauth.Derived) (string, error) {
	switch d.ActionAuth {
	case model.AuthAccount:
		return "Account Re-Authentication", nil
	case model.AuthTwoFactor:
		return "Two-Factor Re-Authentication", nil
	case model.AuthPasskey:
		return "Passkey Re-Authentication", nil
	case model.AuthExplicitNone:
		return "Email", nil
	case "":
	default:
		return "", &model.ConfigurationError{Field: "action auth", Value: string(d.ActionAuth)}
	}

	switch d.AccessAuth {
	case model.AuthAccount:
		return "Account Authentication", nil
	case model.AuthExplicitNone, "":
		return "Email", nil
	default:
		return "", &model.ConfigurationError{Field: "access auth", Value: string(d.AccessAuth)}
	}
}

// firstOfType returns the earliest log entry of the given type for the
// recipient. Entries are appended chronologically, so the first match wins;
// a zero entry is returned when the bucket is empty.
func firstOfType(auditLog []model.AuditLogEntry, t model.AuditLogType, recipientID string) model.AuditLogEntry {
	for _, e := range auditLog {
		if e.Type == t && e.RecipientID != nil && *e.RecipientID == recipientID {
			return e
		}
	}
	return model.AuditLogEntry{}
}

// signatureField returns the recipient's first signature-capable field.
func signatureField(fields []model.Field, recipientID string) *model.Field {
	for i := range fields {
		f := &fields[i]
		if f.RecipientID == recipientID && f.Type.IsSignatureCapable() {
			return f
		}
	}
	return nil
}

// DeviceLabel renders the device column from the completion entry's
// User-Agent header.
func DeviceLabel(userAgent string) string {
	ua := strings.TrimSpace(userAgent)
	if ua == "" {
		return Unknown
	}
	return ua
}

// TimeLabel renders a timeline timestamp, substituting the Unknown sentinel
// for events that never happened.
func TimeLabel(t time.Time) string {
	if t.IsZero() {
		return Unknown
	}
	return t.UTC().Format("2006-01-02 03:04:05 PM (MST)")
}
