package handler

import (
	"bytes"
	"net/http"

	importapp "github.com/calibra/backend/internal/application/import"
	"github.com/calibra/backend/internal/domain/importing"
	"github.com/gin-gonic/gin"
)

// Maximum file size for imports (10MB)
const maxImportFileSize = 10 << 20

// ImportUploadRequest carries the form fields sent with an import file
type ImportUploadRequest struct {
	EntityType   string `form:"entity_type" binding:"required,oneof=customers equipments"`
	ConflictMode string `form:"conflict_mode" binding:"omitempty,oneof=skip update"`
}

// ImportHandler handles CSV imports and their rollback
type ImportHandler struct {
	BaseHandler
	importService *importapp.Service
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importService *importapp.Service) *ImportHandler {
	return &ImportHandler{
		importService: importService,
	}
}

// Import godoc
// @ID           createImport
// @Summary      Import customers or equipments from CSV
// @Description  Rows that fail validation are reported and skipped
// @Tags         imports
// @Accept       multipart/form-data
// @Produce      json
// @Param        file formData file true "CSV file"
// @Param        entity_type formData string true "customers or equipments"
// @Param        conflict_mode formData string false "skip or update" default(skip)
// @Success      201 {object} dto.Response{data=importing.Import}
// @Failure      413 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /imports [post]
func (h *ImportHandler) Import(c *gin.Context) {
	tenantID, userID, ok := h.scope(c)
	if !ok {
		return
	}
	var form ImportUploadRequest
	if err := c.ShouldBind(&form); err != nil {
		h.bindFailed(c, err)
		return
	}
	name, content, ok := h.readUpload(c, maxImportFileSize)
	if !ok {
		return
	}

	req := importapp.ImportRequest{
		EntityType:   importing.EntityType(form.EntityType),
		FileName:     name,
		ConflictMode: importapp.ConflictMode(form.ConflictMode),
	}
	imp, err := h.importService.Import(c.Request.Context(), tenantID, userID, req, bytes.NewReader(content))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, imp)
}

// List godoc
// @ID           listImports
// @Summary      Import history
// @Tags         imports
// @Produce      json
// @Param        page query int false "Page" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Param        entity_type query string false "Entity type"
// @Success      200 {object} dto.Response{data=[]importing.Import,meta=dto.Meta}
// @Security     BearerAuth
// @Router       /imports [get]
func (h *ImportHandler) List(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	var f importapp.ListFilter
	if !h.bindQuery(c, &f) {
		return
	}
	page, err := h.importService.List(c.Request.Context(), tenantID, f)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	paginated(c, page)
}

// GetByID godoc
// @ID           getImport
// @Summary      Get an import
// @Tags         imports
// @Produce      json
// @Param        id path string true "Import ID" format(uuid)
// @Success      200 {object} dto.Response{data=importing.Import}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /imports/{id} [get]
func (h *ImportHandler) GetByID(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	imp, err := h.importService.Get(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, imp)
}

// Mappings godoc
// @ID           getImportMappings
// @Summary      External to local id mappings recorded by an import
// @Tags         imports
// @Produce      json
// @Param        id path string true "Import ID" format(uuid)
// @Success      200 {object} dto.Response{data=[]importing.IDMapping}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /imports/{id}/mappings [get]
func (h *ImportHandler) Mappings(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	mappings, err := h.importService.Mappings(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, mappings)
}

// Rollback godoc
// @ID           rollbackImport
// @Summary      Undo a completed import
// @Description  Soft-deletes the imported records and removes the id mappings
// @Tags         imports
// @Produce      json
// @Param        id path string true "Import ID" format(uuid)
// @Success      200 {object} dto.Response{data=importing.RollbackResult}
// @Failure      404 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /imports/{id}/rollback [post]
func (h *ImportHandler) Rollback(c *gin.Context) {
	tenantID, ok := h.tenant(c)
	if !ok {
		return
	}
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.importService.Rollback(c.Request.Context(), tenantID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Template godoc
// @ID           getImportTemplate
// @Summary      Download an empty CSV template
// @Tags         imports
// @Produce      text/csv
// @Param        entity_type path string true "customers or equipments"
// @Success      200 {file} binary
// @Failure      422 {object} dto.Response{error=dto.ErrorInfo}
// @Security     BearerAuth
// @Router       /imports/templates/{entity_type} [get]
func (h *ImportHandler) Template(c *gin.Context) {
	entityType := c.Param("entity_type")
	body, err := importapp.Template(importing.EntityType(entityType))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+entityType+"-template.csv\"")
	c.Data(http.StatusOK, "text/csv; charset=utf-8", []byte(body))
}
