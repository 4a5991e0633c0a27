package handler

import (
	"github.com/calibra/backend/internal/application/contract"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BillMonthRequest bills the tenant's contracts for a month. An empty month
// means the current one.
type BillMonthRequest struct {
	Month string `json:"month" binding:"omitempty,period"`
}

// ContractHandler handles recurring contract HTTP requests
type ContractHandler struct {
	BaseHandler
	contractService *contract.Service
}

// NewContractHandler creates a new contract handler
func NewContractHandler(contractService *contract.Service) *ContractHandler {
	return &ContractHandler{
		contractService: contractService,
	}
}

// Create godoc
// @ID           createRecurringContract
// @Summary      Create a recurring contract
// @Tags         recurring-contracts
// @Accept       json
// @Produce      json
// @Param        request body contract.CreateContractRequest true "Contract"
// @Success      201 {object} dto.Response{data=domainContract.RecurringContract}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /recurring-contracts [post]
func (h *ContractHandler) Create(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var req contract.CreateContractRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rc, err := h.contractService.Create(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, rc)
}

// Update godoc
// @ID           updateRecurringContract
// @Summary      Update a recurring contract
// @Tags         recurring-contracts
// @Accept       json
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Param        request body contract.UpdateContractRequest true "Changes"
// @Success      200 {object} dto.Response{data=domainContract.RecurringContract}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /recurring-contracts/{id} [put]
func (h *ContractHandler) Update(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req contract.UpdateContractRequest
	if !h.bindJSON(c, &req) {
		return
	}
	rc, err := h.contractService.Update(c.Request.Context(), tenantID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rc)
}

// GetByID godoc
// @ID           getRecurringContract
// @Summary      Get a recurring contract
// @Tags         recurring-contracts
// @Produce      json
// @Param        id path string true "Contract ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainContract.RecurringContract}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /recurring-contracts/{id} [get]
func (h *ContractHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	rc, err := h.contractService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rc)
}

// List godoc
// @ID           listRecurringContracts
// @Summary      List recurring contracts
// @Tags         recurring-contracts
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        search query string false "Name"
// @Success      200 {object} dto.Response{data=[]domainContract.RecurringContract,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /recurring-contracts [get]
func (h *ContractHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.contractService.List(c.Request.Context(), tenantID, req.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// Delete godoc
// @ID           deleteRecurringContract
// @Summary      Delete a recurring contract
// @Tags         recurring-contracts
// @Param        id path string true "Contract ID" format(uuid)
// @Success      204
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /recurring-contracts/{id} [delete]
func (h *ContractHandler) Delete(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	if err := h.contractService.Delete(c.Request.Context(), tenantID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Bill godoc
// @ID           billRecurringContracts
// @Summary      Bill the tenant's contracts for a month
// @Description  Re-running a month creates nothing new
// @Tags         recurring-contracts
// @Accept       json
// @Produce      json
// @Param        request body BillMonthRequest false "Month"
// @Success      200 {object} dto.Response{data=contract.BillingResult}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /recurring-contracts/bill [post]
func (h *ContractHandler) Bill(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req BillMonthRequest
	if c.Request.ContentLength > 0 && !h.bindJSON(c, &req) {
		return
	}
	month := h.contractService.CurrentMonth()
	if req.Month != "" {
		p, err := valueobject.ParsePeriod(req.Month)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		month = p
	}
	result, err := h.contractService.BillMonth(c.Request.Context(), tenantID, month)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
