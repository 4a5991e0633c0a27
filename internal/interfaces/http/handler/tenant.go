package handler

import (
	"github.com/calibra/backend/internal/application/identity"
	"github.com/gin-gonic/gin"
)

// TenantHandler provisions tenants
type TenantHandler struct {
	BaseHandler
	tenantService *identity.TenantService
}

// NewTenantHandler creates a new tenant handler
func NewTenantHandler(tenantService *identity.TenantService) *TenantHandler {
	return &TenantHandler{
		tenantService: tenantService,
	}
}

// Create godoc
// @ID           createTenant
// @Summary      Provision a tenant
// @Description  Creates the tenant and its first administrator
// @Tags         tenants
// @Accept       json
// @Produce      json
// @Param        request body CreateTenantRequest true "Tenant"
// @Success      201 {object} dto.Response{data=CreateTenantResponse}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /tenants [post]
func (h *TenantHandler) Create(c *gin.Context) {
	var req CreateTenantRequest
	if !h.bindJSON(c, &req) {
		return
	}
	tenant, admin, err := h.tenantService.Create(c.Request.Context(), identity.CreateTenantInput{
		Name:          req.Name,
		Slug:          req.Slug,
		Timezone:      req.Timezone,
		AdminName:     req.AdminName,
		AdminEmail:    req.AdminEmail,
		AdminPassword: req.AdminPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, CreateTenantResponse{Tenant: tenant, Admin: admin})
}

// Current godoc
// @ID           getCurrentTenant
// @Summary      Tenant of the authenticated user
// @Tags         tenants
// @Produce      json
// @Success      200 {object} dto.Response{data=identity.TenantInfo}
// @Security     BearerAuth
// @Router       /tenants/current [get]
func (h *TenantHandler) Current(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	tenant, err := h.tenantService.Get(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, tenant)
}
