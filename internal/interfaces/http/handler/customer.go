package handler

import (
	"github.com/calibra/backend/internal/application/customer"
	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// CustomerHandler handles customer and equipment HTTP requests
type CustomerHandler struct {
	BaseHandler
	customerService *customer.Service
}

// NewCustomerHandler creates a new customer handler
func NewCustomerHandler(customerService *customer.Service) *CustomerHandler {
	return &CustomerHandler{
		customerService: customerService,
	}
}

// Create godoc
// @ID           createCustomer
// @Summary      Create a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        request body customer.CustomerRequest true "Customer"
// @Success      201 {object} dto.Response{data=customer.Customer}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /customers [post]
func (h *CustomerHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var req customer.CustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.customerService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Update godoc
// @ID           updateCustomer
// @Summary      Update a customer
// @Tags         customers
// @Accept       json
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Param        request body customer.CustomerRequest true "Customer"
// @Success      200 {object} dto.Response{data=customer.Customer}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /customers/{id} [put]
func (h *CustomerHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req customer.CustomerRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.customerService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetByID godoc
// @ID           getCustomerById
// @Summary      Get a customer
// @Tags         customers
// @Produce      json
// @Param        id path string true "Customer ID" format(uuid)
// @Success      200 {object} dto.Response{data=customer.Customer}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.customerService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// List godoc
// @ID           listCustomers
// @Summary      List customers
// @Tags         customers
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Name, document or email"
// @Success      200 {object} dto.Response{data=[]customer.Customer,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.customerService.List(c.Request.Context(), tenantID, req.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// Delete godoc
// @ID           deleteCustomer
// @Summary      Delete a customer
// @Description  Refused while work orders or receivables reference the customer
// @Tags         customers
// @Param        id path string true "Customer ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /customers/{id} [delete]
func (h *CustomerHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.customerService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateEquipment godoc
// @ID           createEquipment
// @Summary      Register an equipment
// @Tags         equipments
// @Accept       json
// @Produce      json
// @Param        request body customer.EquipmentRequest true "Equipment"
// @Success      201 {object} dto.Response{data=customer.Equipment}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /equipments [post]
func (h *CustomerHandler) CreateEquipment(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var req customer.EquipmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.customerService.CreateEquipment(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// UpdateEquipment godoc
// @ID           updateEquipment
// @Summary      Update an equipment
// @Tags         equipments
// @Accept       json
// @Produce      json
// @Param        id path string true "Equipment ID" format(uuid)
// @Param        request body customer.EquipmentRequest true "Equipment"
// @Success      200 {object} dto.Response{data=customer.Equipment}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /equipments/{id} [put]
func (h *CustomerHandler) UpdateEquipment(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req customer.EquipmentRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.customerService.UpdateEquipment(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetEquipment godoc
// @ID           getEquipmentById
// @Summary      Get an equipment
// @Tags         equipments
// @Produce      json
// @Param        id path string true "Equipment ID" format(uuid)
// @Success      200 {object} dto.Response{data=customer.Equipment}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /equipments/{id} [get]
func (h *CustomerHandler) GetEquipment(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.customerService.GetEquipment(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// ListEquipments godoc
// @ID           listEquipments
// @Summary      List equipments
// @Tags         equipments
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Serial number or model"
// @Param        customer_id query string false "Customer ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]customer.Equipment,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /equipments [get]
func (h *CustomerHandler) ListEquipments(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var f customer.EquipmentListFilter
	if !h.bindQuery(c, &f) {
		return
	}
	page, err := h.customerService.ListEquipments(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// DeleteEquipment godoc
// @ID           deleteEquipment
// @Summary      Delete an equipment
// @Tags         equipments
// @Param        id path string true "Equipment ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      409 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /equipments/{id} [delete]
func (h *CustomerHandler) DeleteEquipment(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.customerService.DeleteEquipment(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
