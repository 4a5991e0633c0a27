package handler

import (
	"net/http"
	"testing"

	"github.com/calibra/backend/internal/application/customer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func customerRoutes(h *harness) {
	ch := NewCustomerHandler(customer.NewService(h.tx, h.repos, zap.NewNop()))
	h.engine.POST("/customers", ch.Create)
	h.engine.GET("/customers", ch.List)
	h.engine.GET("/customers/:id", ch.GetByID)
	h.engine.DELETE("/customers/:id", ch.Delete)
	h.engine.POST("/equipments", ch.CreateEquipment)
	h.engine.GET("/equipments", ch.ListEquipments)
}

func TestCustomerHandler_Lifecycle(t *testing.T) {
	h := newHarness(t)
	customerRoutes(h)

	rec := h.do(http.MethodPost, "/customers", map[string]any{
		"name":     "Laboratório Alfa",
		"document": "12.345.678/0001-90",
		"email":    "contato@alfa.com.br",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		ID   uuid.UUID `json:"id"`
		Name string    `json:"name"`
	}
	decode(t, rec, &created)
	assert.Equal(t, "Laboratório Alfa", created.Name)

	dup := h.do(http.MethodPost, "/customers", map[string]any{"name": "Outro", "document": "12.345.678/0001-90"})
	assert.Equal(t, http.StatusConflict, dup.Code)

	list := h.do(http.MethodGet, "/customers?page=1&page_size=10", nil)
	require.Equal(t, http.StatusOK, list.Code)
	resp := decode(t, list, nil)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, int64(1), resp.Meta.Total)

	path := "/customers/" + created.ID.String()
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.asTenant(uuid.New(), http.MethodGet, path).Code)
	assert.Equal(t, http.StatusNoContent, h.do(http.MethodDelete, path, nil).Code)
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, path, nil).Code)
}

func TestCustomerHandler_ValidationFailure(t *testing.T) {
	h := newHarness(t)
	customerRoutes(h)

	rec := h.do(http.MethodPost, "/customers", map[string]any{"email": "not-an-email"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode(t, rec, nil)
	fields := make([]string, 0, len(resp.Error.Fields))
	for _, f := range resp.Error.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"name", "email"}, fields)
}

func TestCustomerHandler_EquipmentForForeignCustomer(t *testing.T) {
	h := newHarness(t)
	customerRoutes(h)

	rec := h.do(http.MethodPost, "/equipments", map[string]any{
		"customer_id":   uuid.New(),
		"serial_number": "BAL-0001",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}
