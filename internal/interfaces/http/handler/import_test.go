package handler

import (
	"net/http"
	"strings"
	"testing"

	importapp "github.com/calibra/backend/internal/application/import"
	"github.com/calibra/backend/internal/domain/importing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func importHarness(t *testing.T) *harness {
	h := newHarness(t)
	ih := NewImportHandler(importapp.NewService(h.tx, h.repos, zap.NewNop()))
	h.engine.POST("/imports", ih.Import)
	h.engine.GET("/imports", ih.List)
	h.engine.GET("/imports/:id", ih.GetByID)
	h.engine.GET("/imports/:id/mappings", ih.Mappings)
	h.engine.POST("/imports/:id/rollback", ih.Rollback)
	h.engine.GET("/imports/templates/:entity_type", ih.Template)
	return h
}

func TestImportHandler_UploadAndRollback(t *testing.T) {
	h := importHarness(t)
	csv := "name,document,city,external_id\n" +
		"Acme Balanças,12.345.678/0001-90,Campinas,EXT-1\n" +
		",98.765.432/0001-10,Santos,EXT-2\n" +
		"Beta Pesagem,,Sorocaba,EXT-3\n"

	rec := h.upload("/imports", "clientes.csv", csv, map[string]string{"entity_type": "customers"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var imp importing.Import
	decode(t, rec, &imp)
	assert.Equal(t, importing.StatusDone, imp.Status)
	assert.Equal(t, "clientes.csv", imp.FileName)
	assert.Equal(t, 3, imp.TotalRows)
	assert.Equal(t, 2, imp.Inserted)
	require.Len(t, imp.Errors, 1)
	assert.Equal(t, "name", imp.Errors[0].Column)

	var mappings []importing.IDMapping
	decode(t, h.do(http.MethodGet, "/imports/"+imp.ID.String()+"/mappings", nil), &mappings)
	assert.Len(t, mappings, 2)

	rb := h.do(http.MethodPost, "/imports/"+imp.ID.String()+"/rollback", nil)
	require.Equal(t, http.StatusOK, rb.Code, rb.Body.String())
	var result importing.RollbackResult
	decode(t, rb, &result)
	assert.Equal(t, importing.RollbackResult{Deleted: 2, Total: 2}, result)

	decode(t, h.do(http.MethodGet, "/imports/"+imp.ID.String(), nil), &imp)
	assert.Equal(t, importing.StatusRolledBack, imp.Status)

	list := h.do(http.MethodGet, "/imports", nil)
	require.Equal(t, http.StatusOK, list.Code)
	assert.Equal(t, int64(1), decode(t, list, nil).Meta.Total)
}

func TestImportHandler_BadRequests(t *testing.T) {
	h := importHarness(t)
	tests := []struct {
		name     string
		filename string
		content  string
		fields   map[string]string
	}{
		{"unknown entity type", "x.csv", "name\nA\n", map[string]string{"entity_type": "products"}},
		{"missing entity type", "x.csv", "name\nA\n", nil},
		{"unknown conflict mode", "x.csv", "name\nA\n", map[string]string{"entity_type": "customers", "conflict_mode": "merge"}},
		{"no file", "", "", map[string]string{"entity_type": "customers"}},
		{"header only", "x.csv", "name,document\n", map[string]string{"entity_type": "customers"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.upload("/imports", tt.filename, tt.content, tt.fields)
			assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.Equal(t, "VALIDATION_ERROR", decode(t, rec, nil).Error.Code)
		})
	}
}

func TestImportHandler_Template(t *testing.T) {
	h := importHarness(t)

	rec := h.do(http.MethodGet, "/imports/templates/customers", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "customers-template.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "name,document,email,phone,address,city,state,external_id"))

	rec = h.do(http.MethodGet, "/imports/templates/equipments", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Body.String(), "serial_number,customer_document,customer_id"))

	assert.Equal(t, http.StatusUnprocessableEntity, h.do(http.MethodGet, "/imports/templates/invoices", nil).Code)
}
