package certificate

import (
	"testing"
	"time"

	"signapi/internal/docauth"
	"signapi/internal/model"

	"github.com/stretchr/testify/assert"
)

func entry(t model.AuditLogType, recipientID string, at time.Time) model.AuditLogEntry {
	return model.AuditLogEntry{
		DocumentID:  "doc-1",
		Type:        t,
		RecipientID: &recipientID,
		CreatedAt:   at,
	}
}

func testResolver() *docauth.Resolver {
	return docauth.NewResolver(docauth.Config{AllowPasskey: true, AllowTwoFactor: true})
}

func TestProject_Timeline(t *testing.T) {
	t1 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	t2 := t1.Add(time.Hour)
	t3 := t1.Add(2 * time.Hour)

	recipients := []model.Recipient{
		{ID: "r1", DocumentID: "doc-1", Name: "Ana", Email: "ana@example.com", Role: model.RoleSigner},
		{ID: "r2", DocumentID: "doc-1", Name: "Luis", Email: "luis@example.com", Role: model.RoleCC},
	}

	completed := entry(model.AuditDocumentRecipientCompleted, "r1", t3)
	completed.IPAddress = "203.0.113.7"
	completed.UserAgent = "Mozilla/5.0"

	auditLog := []model.AuditLogEntry{
		entry(model.AuditEmailSent, "r1", t1),
		// Re-sent email: only the first send counts.
		entry(model.AuditEmailSent, "r1", t2),
		entry(model.AuditDocumentOpened, "r1", t2),
		completed,
		entry(model.AuditEmailSent, "r2", t2),
	}

	fields := []model.Field{
		{ID: "f1", DocumentID: "doc-1", RecipientID: "r1", Type: model.FieldSignature, SignatureImagePath: "signatures/f1.png"},
		{ID: "f2", DocumentID: "doc-1", RecipientID: "r1", Type: model.FieldDate},
	}

	rows, err := Project(recipients, fields, auditLog, testResolver(), nil)
	assert.NoError(t, err)
	assert.Len(t, rows, 2)

	r1 := rows[0]
	assert.Equal(t, "r1", r1.RecipientID)
	assert.Equal(t, "Firmante", r1.RoleName)
	assert.Equal(t, t1, r1.Sent, "first email sent is canonical")
	assert.Equal(t, t2, r1.Opened)
	assert.Equal(t, t3, r1.Completed)
	assert.Equal(t, "203.0.113.7", r1.IPAddress)
	assert.Equal(t, "Mozilla/5.0", r1.Device)
	assert.Equal(t, "f1", r1.SignatureFieldID)
	assert.Equal(t, "signatures/f1.png", r1.SignatureImagePath)
	assert.Equal(t, "Soy firmante de este documento", r1.SigningReason)

	r2 := rows[1]
	assert.Equal(t, "Cc", r2.RoleName)
	assert.Equal(t, t2, r2.Sent)
	assert.True(t, r2.Opened.IsZero(), "empty bucket resolves to the unknown sentinel")
	assert.True(t, r2.Completed.IsZero())
	assert.Empty(t, r2.SignatureFieldID)
}

func TestProject_AuthLevels(t *testing.T) {
	tests := []struct {
		name    string
		docOpts *model.AuthOptions
		rcpOpts *model.AuthOptions
		want    string
	}{
		{
			name: "nothing set falls back to email",
			want: "Email",
		},
		{
			name:    "action auth account",
			rcpOpts: &model.AuthOptions{ActionAuth: model.AuthAccount},
			want:    "Account Re-Authentication",
		},
		{
			name:    "action auth two factor",
			docOpts: &model.AuthOptions{ActionAuth: model.AuthTwoFactor},
			want:    "Two-Factor Re-Authentication",
		},
		{
			name:    "action auth passkey",
			docOpts: &model.AuthOptions{ActionAuth: model.AuthPasskey},
			want:    "Passkey Re-Authentication",
		},
		{
			name:    "explicit none action auth shows email",
			docOpts: &model.AuthOptions{ActionAuth: model.AuthTwoFactor},
			rcpOpts: &model.AuthOptions{ActionAuth: model.AuthExplicitNone},
			want:    "Email",
		},
		{
			name:    "access auth only",
			docOpts: &model.AuthOptions{AccessAuth: model.AuthAccount},
			want:    "Account Authentication",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipients := []model.Recipient{
				{ID: "r1", Name: "Ana", Email: "ana@example.com", Role: model.RoleSigner, AuthOptions: tt.rcpOpts},
			}

			rows, err := Project(recipients, nil, nil, testResolver(), tt.docOpts)
			assert.NoError(t, err)
			assert.Len(t, rows, 1)
			assert.Equal(t, tt.want, rows[0].AuthLevel)
		})
	}
}

func TestProject_UnknownRoleFailsClosed(t *testing.T) {
	recipients := []model.Recipient{{ID: "r1", Role: model.Role("WITNESS")}}

	_, err := Project(recipients, nil, nil, testResolver(), nil)
	var cfgErr *model.ConfigurationError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestDeviceLabel(t *testing.T) {
	assert.Equal(t, Unknown, DeviceLabel(""))
	assert.Equal(t, Unknown, DeviceLabel("   "))
	assert.Equal(t, "Mozilla/5.0", DeviceLabel("Mozilla/5.0"))
}

func TestTimeLabel(t *testing.T) {
	assert.Equal(t, Unknown, TimeLabel(time.Time{}))

	at := time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC)
	assert.Equal(t, "2026-03-01 03:04:05 PM (UTC)", TimeLabel(at))
}
