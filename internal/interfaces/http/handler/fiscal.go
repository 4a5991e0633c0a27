package handler

import (
	"net/http"

	"github.com/calibra/backend/internal/application/fiscal"
	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// FiscalHandler handles fiscal note emission and the contingency queue
type FiscalHandler struct {
	BaseHandler
	fiscalService *fiscal.Service
}

// NewFiscalHandler creates a new fiscal handler
func NewFiscalHandler(fiscalService *fiscal.Service) *FiscalHandler {
	return &FiscalHandler{
		fiscalService: fiscalService,
	}
}

// outcomeStatus maps an emission outcome to its HTTP status
func outcomeStatus(o fiscal.Outcome) int {
	switch o {
	case fiscal.OutcomeAuthorized:
		return http.StatusCreated
	case fiscal.OutcomeRejected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusAccepted
	}
}

// Emit godoc
// @ID           emitFiscalNote
// @Summary      Emit an NF-e or NFS-e
// @Description  201 when authorized. 202 while the provider processes it or when it was queued for contingency. 422 when rejected.
// @Tags         fiscal
// @Accept       json
// @Produce      json
// @Param        request body fiscal.EmitRequest true "Note"
// @Success      201 {object} dto.Response{data=fiscal.EmitResult}
// @Success      202 {object} dto.Response{data=fiscal.EmitResult}
// @Failure      422 {object} dto.Response{data=fiscal.EmitResult,error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /fiscal/notes [post]
func (h *FiscalHandler) Emit(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var req fiscal.EmitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.fiscalService.Emit(c.Request.Context(), tenantID, userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	status := outcomeStatus(result.Outcome)
	if result.Outcome == fiscal.OutcomeRejected {
		resp := dto.NewErrorResponseWithRequestID(dto.ErrCodeValidation, result.Message, getRequestID(c))
		resp.Data = result
		c.JSON(status, resp)
		return
	}
	c.JSON(status, dto.NewSuccessResponse(result))
}

// GetByID godoc
// @ID           getFiscalNote
// @Summary      Get a fiscal note
// @Tags         fiscal
// @Produce      json
// @Param        id path string true "Note ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainFiscal.Note}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /fiscal/notes/{id} [get]
func (h *FiscalHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	note, err := h.fiscalService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, note)
}

// List godoc
// @ID           listFiscalNotes
// @Summary      List fiscal notes
// @Tags         fiscal
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} dto.Response{data=[]domainFiscal.Note,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /fiscal/notes [get]
func (h *FiscalHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var req dto.ListRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.fiscalService.List(c.Request.Context(), tenantID, req.Filter())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// ContingencyStatus godoc
// @ID           getFiscalContingencyStatus
// @Summary      Contingency queue size and provider availability
// @Tags         fiscal
// @Produce      json
// @Success      200 {object} dto.Response{data=domainFiscal.ContingencyStatus}
// @Security     BearerAuth
// @Router       /fiscal/contingency/status [get]
func (h *FiscalHandler) ContingencyStatus(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	status, err := h.fiscalService.Status(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, status)
}

// RetransmitPending godoc
// @ID           retransmitFiscalContingency
// @Summary      Retransmit every queued note of the tenant
// @Tags         fiscal
// @Produce      json
// @Success      200 {object} dto.Response{data=domainFiscal.RetransmitSummary}
// @Security     BearerAuth
// @Router       /fiscal/contingency/retransmit [post]
func (h *FiscalHandler) RetransmitPending(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	summary, err := h.fiscalService.RetransmitPending(c.Request.Context(), tenantID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// RetransmitNote godoc
// @ID           retransmitFiscalNote
// @Summary      Retransmit one queued note
// @Tags         fiscal
// @Produce      json
// @Param        id path string true "Note ID" format(uuid)
// @Success      200 {object} dto.Response{data=domainFiscal.RetransmitResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /fiscal/contingency/retransmit/{id} [post]
func (h *FiscalHandler) RetransmitNote(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.fiscalService.RetransmitNote(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
