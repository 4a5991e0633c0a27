package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/logger"
	"github.com/calibra/backend/internal/interfaces/http/dto"
	"github.com/calibra/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(middleware.RequestIDKey); id != "" {
		return id
	}
	return c.GetHeader(middleware.RequestIDHeader)
}

// scope returns the tenant and user of the request. It writes a 401 and
// returns false when the tenant middleware did not run.
func (h *BaseHandler) scope(c *gin.Context) (tenantID, userID uuid.UUID, ok bool) {
	tenantID, ok = middleware.GetTenantUUID(c)
	if !ok {
		h.Unauthorized(c, "Tenant identification required")
		return uuid.Nil, uuid.Nil, false
	}
	userID, _ = middleware.GetUserUUID(c)
	return tenantID, userID, true
}

// tenant is scope without the user
func (h *BaseHandler) tenant(c *gin.Context) (uuid.UUID, bool) {
	tenantID, _, ok := h.scope(c)
	return tenantID, ok
}

// pathID parses a uuid path parameter. Malformed ids are reported as 404.
func (h *BaseHandler) pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		h.NotFound(c, "Resource not found")
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON binds the body and writes a 422 on failure
func (h *BaseHandler) bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// bindFailed writes the 422 for a failed bind
func (h *BaseHandler) bindFailed(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// bindQuery binds query parameters and writes a 422 on failure
func (h *BaseHandler) bindQuery(c *gin.Context, req any) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		middleware.HandleValidationError(c, err)
		return false
	}
	return true
}

// readUpload returns the name and content of the multipart "file" field
func (h *BaseHandler) readUpload(c *gin.Context, limit int64) (string, []byte, bool) {
	header, err := c.FormFile("file")
	if err != nil {
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeValidation, "A file is required")
		return "", nil, false
	}
	if header.Size > limit {
		h.Error(c, http.StatusRequestEntityTooLarge, dto.ErrCodePayloadTooLarge, "File is too large")
		return "", nil, false
	}
	f, err := header.Open()
	if err != nil {
		h.HandleError(c, err)
		return "", nil, false
	}
	defer f.Close()
	content, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		h.HandleError(c, err)
		return "", nil, false
	}
	return header.Filename, content, true
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// paginated sends a page of items with its meta
func paginated[T any](c *gin.Context, page shared.Paginated[T]) {
	c.JSON(http.StatusOK, dto.NewPaginatedResponse(page))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, getRequestID(c)))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// Forbidden sends a 403 forbidden response
func (h *BaseHandler) Forbidden(c *gin.Context, message string) {
	h.Error(c, http.StatusForbidden, dto.ErrCodeForbidden, message)
}

// HandleError converts service errors to HTTP responses. Anything that is not
// a domain error is logged and reported as a 500 without its cause.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		status := dto.GetHTTPStatus(domainErr.Code)
		if status >= http.StatusInternalServerError && status != http.StatusServiceUnavailable {
			h.logUnexpected(c, err)
		}
		c.JSON(status, dto.NewDomainErrorResponse(domainErr, getRequestID(c)))
		return
	}

	h.logUnexpected(c, err)
	c.JSON(http.StatusInternalServerError, dto.NewErrorResponseWithRequestID(
		dto.ErrCodeInternal,
		"An unexpected error occurred",
		getRequestID(c),
	))
}

func (h *BaseHandler) logUnexpected(c *gin.Context, err error) {
	logger.FromContext(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Error(err))
}
