package auth

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ispdesk/ops-console/internal/domain"
	apperrors "github.com/ispdesk/ops-console/pkg/util/errorutil"
)

func TestCasbinAuthorizerDefaults(t *testing.T) {
	authz, err := NewCasbinAuthorizer("", zap.NewNop())
	require.NoError(t, err)

	tech := Actor{ID: "e1", Role: domain.EmployeeRoleTechnician}
	support := Actor{ID: "e2", Role: domain.EmployeeRoleSupport}
	manager := Actor{ID: "e3", Role: domain.EmployeeRoleManager}
	admin := Actor{ID: "e4", Role: domain.EmployeeRoleAdmin}

	cases := []struct {
		actor   Actor
		cap     Capability
		allowed bool
	}{
		{tech, CapTicketUpdate, true},
		{tech, CapTicketEscalate, true},
		{tech, CapTicketAssign, false},
		{tech, CapTicketCreate, false},
		{support, CapTicketAssign, true},
		{support, CapCommentAdd, true},
		{support, CapCategoriesManage, false},
		{manager, CapCategoriesManage, true},
		{manager, CapTicketUpdate, true},
		{manager, CapTicketDelete, false},
		{admin, CapTicketDelete, true},
		{admin, CapCategoriesManage, true},
		{Actor{ID: "e5", Role: "GUEST"}, CapCommentAdd, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, authz.HasPermission(tc.actor, tc.cap), "%s %s", tc.actor.Role, tc.cap)
	}
}

func TestCasbinAuthorizerPolicyFileExtendsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	policy := "p, role:TECHNICIAN, tickets, delete\np, role:SUPPORT, reports, read\n"
	require.NoError(t, os.WriteFile(path, []byte(policy), 0o600))

	authz, err := NewCasbinAuthorizer(path, zap.NewNop())
	require.NoError(t, err)

	tech := Actor{ID: "e1", Role: domain.EmployeeRoleTechnician}
	manager := Actor{ID: "e3", Role: domain.EmployeeRoleManager}

	assert.True(t, authz.HasPermission(tech, CapTicketDelete))
	assert.True(t, authz.HasPermission(tech, CapTicketUpdate), "built-in rules stay in place")
	assert.True(t, authz.HasPermission(manager, Capability("reports:read")), "file rules follow role inheritance")
	assert.False(t, authz.HasPermission(tech, CapCategoriesManage))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, policy, string(raw))
}

func TestCasbinAuthorizerMissingPolicyFile(t *testing.T) {
	_, err := NewCasbinAuthorizer(filepath.Join(t.TempDir(), "missing.csv"), nil)
	assert.Error(t, err)
}

func TestRequire(t *testing.T) {
	authz, err := NewCasbinAuthorizer("", nil)
	require.NoError(t, err)

	err = Require(authz, Actor{}, CapCommentAdd)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnauthorized))

	err = Require(authz, Actor{ID: "e1", Role: domain.EmployeeRoleTechnician}, CapTicketDelete)
	assert.True(t, apperrors.IsForbidden(err))

	assert.NoError(t, Require(authz, Actor{ID: "e1", Role: domain.EmployeeRoleAdmin}, CapTicketDelete))
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken(domain.Employee{ID: "emp-7", Name: "Jane Tech", Role: domain.EmployeeRoleTechnician})
	require.NoError(t, err)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "emp-7", claims.Subject)
	assert.Equal(t, "Jane Tech", claims.Name)
	assert.Equal(t, domain.EmployeeRoleTechnician, claims.Role)

	_, err = NewTokenManager("other", 5).ParseToken(token)
	assert.Error(t, err)
}
