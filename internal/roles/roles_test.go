package roles

import (
	"testing"

	"signapi/internal/model"

	"github.com/stretchr/testify/assert"
)

// Every rule table must cover every role. A role that reaches a table
// without an entry must fail closed, so these tests double as the
// exhaustiveness check for the closed role set.
func TestRuleTablesAreExhaustive(t *testing.T) {
	for _, role := range model.AllRoles {
		t.Run(string(role), func(t *testing.T) {
			desc, err := Describe(role)
			assert.NoError(t, err)
			assert.NotEmpty(t, desc.RoleName)
			assert.NotEmpty(t, desc.ActionVerb)
			assert.NotEmpty(t, desc.Actioned)
			assert.NotEmpty(t, desc.ProgressiveVerb)

			_, err = RequiresCompletion(role)
			assert.NoError(t, err)

			reason, err := SigningReason(role)
			assert.NoError(t, err)
			assert.NotEmpty(t, reason)

			_, _, err = RequestEmailType(role)
			assert.NoError(t, err)
		})
	}
}

func TestUnknownRoleFailsClosed(t *testing.T) {
	unknown := model.Role("WITNESS")

	var cfgErr *model.ConfigurationError

	_, err := Describe(unknown)
	assert.ErrorAs(t, err, &cfgErr)

	_, err = RequiresCompletion(unknown)
	assert.ErrorAs(t, err, &cfgErr)

	_, err = SigningReason(unknown)
	assert.ErrorAs(t, err, &cfgErr)

	_, _, err = RequestEmailType(unknown)
	assert.ErrorAs(t, err, &cfgErr)
}

func TestRequiresCompletion(t *testing.T) {
	tests := []struct {
		role model.Role
		want bool
	}{
		{model.RoleSigner, true},
		{model.RoleApprover, true},
		{model.RoleViewer, true},
		{model.RoleCC, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			got, err := RequiresCompletion(tt.role)
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRequestEmailType(t *testing.T) {
	et, ok, err := RequestEmailType(model.RoleSigner)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, EmailSigningRequest, et)

	et, ok, err = RequestEmailType(model.RoleApprover)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, EmailApproveRequest, et)

	et, ok, err = RequestEmailType(model.RoleViewer)
	assert.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, EmailViewRequest, et)

	// CC receives no request email; it only gets the completed copy.
	_, ok, err = RequestEmailType(model.RoleCC)
	assert.NoError(t, err)
	assert.False(t, ok)
}
