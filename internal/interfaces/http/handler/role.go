package handler

import (
	"github.com/calibra/backend/internal/infrastructure/authz"
	"github.com/gin-gonic/gin"
)

// RolePolicies manages permission grants on roles
type RolePolicies interface {
	Grant(p authz.Policy) error
	Revoke(p authz.Policy) error
	Policies(role string) ([]authz.Policy, error)
}

// RoleHandler exposes the permissions granted to each role. Tenants only see
// and change grants in their own domain plus the shared builtin ones.
type RoleHandler struct {
	BaseHandler
	policies RolePolicies
}

// NewRoleHandler creates a new role handler
func NewRoleHandler(policies RolePolicies) *RoleHandler {
	return &RoleHandler{policies: policies}
}

// RolePermissionsResponse lists the grants of a role
type RolePermissionsResponse struct {
	Role     string         `json:"role"`
	Policies []authz.Policy `json:"policies"`
}

// GetPermissions godoc
// @ID           getRolePermissions
// @Summary      Permissions granted to a role
// @Tags         roles
// @Produce      json
// @Param        role path string true "Role"
// @Success      200 {object} dto.Response{data=RolePermissionsResponse}
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /roles/{role}/permissions [get]
func (h *RoleHandler) GetPermissions(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	role := c.Param("role")
	all, err := h.policies.Policies(role)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	visible := make([]authz.Policy, 0, len(all))
	for _, p := range all {
		if p.Domain == authz.AllTenants || p.Domain == tenantID.String() {
			visible = append(visible, p)
		}
	}
	h.Success(c, RolePermissionsResponse{Role: role, Policies: visible})
}

// Grant godoc
// @ID           grantRolePermissions
// @Summary      Grant permissions to a role within the tenant
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        role path string true "Role"
// @Param        request body RolePermissionsRequest true "Permissions"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /roles/{role}/permissions [post]
func (h *RoleHandler) Grant(c *gin.Context) {
	h.apply(c, h.policies.Grant)
}

// Revoke godoc
// @ID           revokeRolePermissions
// @Summary      Revoke tenant permissions from a role
// @Tags         roles
// @Accept       json
// @Produce      json
// @Param        role path string true "Role"
// @Param        request body RolePermissionsRequest true "Permissions"
// @Success      204
// @Failure      400 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /roles/{role}/permissions [delete]
func (h *RoleHandler) Revoke(c *gin.Context) {
	h.apply(c, h.policies.Revoke)
}

func (h *RoleHandler) apply(c *gin.Context, fn func(authz.Policy) error) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req RolePermissionsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	for _, perm := range req.Permissions {
		err := fn(authz.Policy{Role: c.Param("role"), Domain: tenantID.String(), Permission: perm})
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
	}
	h.NoContent(c)
}
