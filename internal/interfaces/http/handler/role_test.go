package handler

import (
	"net/http"
	"testing"

	"github.com/calibra/backend/internal/infrastructure/authz"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roleHarness(t *testing.T) (*harness, *authz.Service) {
	h := newHarness(t)
	svc, err := authz.NewService(h.db)
	require.NoError(t, err)
	require.NoError(t, svc.SeedBuiltinRoles())

	rh := NewRoleHandler(svc)
	h.engine.GET("/roles/:role/permissions", rh.GetPermissions)
	h.engine.POST("/roles/:role/permissions", rh.Grant)
	h.engine.DELETE("/roles/:role/permissions", rh.Revoke)
	return h, svc
}

func TestRoleHandler_GrantIsTenantScoped(t *testing.T) {
	h, svc := roleHarness(t)

	rec := h.do(http.MethodPost, "/roles/technician/permissions", map[string]any{
		"permissions": []string{"finance.receivables.view"},
	})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	ok, err := svc.Allowed(h.tenantID.String(), []string{"technician"}, "finance.receivables.view")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = svc.Allowed(uuid.NewString(), []string{"technician"}, "finance.receivables.view")
	require.NoError(t, err)
	assert.False(t, ok, "other tenants keep the builtin grants")

	var resp RolePermissionsResponse
	decode(t, h.do(http.MethodGet, "/roles/technician/permissions", nil), &resp)
	assert.Equal(t, "technician", resp.Role)
	assert.Contains(t, resp.Policies, authz.Policy{
		Role: "technician", Domain: h.tenantID.String(), Permission: "finance.receivables.view",
	})

	// another tenant does not see the grant
	var other RolePermissionsResponse
	decode(t, h.asTenant(uuid.New(), http.MethodGet, "/roles/technician/permissions"), &other)
	for _, p := range other.Policies {
		assert.Equal(t, authz.AllTenants, p.Domain)
	}

	rec = h.do(http.MethodDelete, "/roles/technician/permissions", map[string]any{
		"permissions": []string{"finance.receivables.view"},
	})
	require.Equal(t, http.StatusNoContent, rec.Code)
	ok, err = svc.Allowed(h.tenantID.String(), []string{"technician"}, "finance.receivables.view")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRoleHandler_GrantValidation(t *testing.T) {
	h, _ := roleHarness(t)
	rec := h.do(http.MethodPost, "/roles/technician/permissions", map[string]any{"permissions": []string{}})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
