package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/calibra/backend/internal/application/finance"
	"github.com/calibra/backend/internal/domain/customer"
	domainFinance "github.com/calibra/backend/internal/domain/finance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func receivableHarness(t *testing.T) (*harness, *customer.Customer) {
	h := newHarness(t)
	log := zap.NewNop()
	rh := NewReceivableHandler(
		finance.NewReceivableService(h.tx, h.repos, log),
		finance.NewPaymentService(h.tx, h.repos, log),
	)
	h.engine.POST("/accounts-receivable", rh.Create)
	h.engine.GET("/accounts-receivable/export", rh.Export)
	h.engine.GET("/accounts-receivable/:id", rh.GetByID)
	h.engine.POST("/accounts-receivable/:id/pay", rh.Pay)
	h.engine.GET("/accounts-receivable/:id/payments", rh.Payments)

	c, err := customer.NewCustomer(h.tenantID, "Laboratório Gama", "")
	require.NoError(t, err)
	require.NoError(t, h.repos.Customers().Save(context.Background(), c))
	return h, c
}

func TestReceivableHandler_PartialThenFullPayment(t *testing.T) {
	h, c := receivableHarness(t)
	due := time.Now().AddDate(0, 0, 10).UTC()

	rec := h.do(http.MethodPost, "/accounts-receivable", map[string]any{
		"customer_id": c.ID,
		"description": "Calibração anual",
		"amount":      "1000.00",
		"due_date":    due,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var ar domainFinance.AccountReceivable
	decode(t, rec, &ar)
	assert.Equal(t, domainFinance.StatusPending, ar.Status)

	path := "/accounts-receivable/" + ar.ID.String()
	pay := func(amount string) int {
		return h.do(http.MethodPost, path+"/pay", map[string]any{
			"amount":         amount,
			"payment_method": "pix",
			"payment_date":   time.Now().UTC(),
		}).Code
	}
	require.Equal(t, http.StatusCreated, pay("400.00"))

	got := h.do(http.MethodGet, path, nil)
	decode(t, got, &ar)
	assert.Equal(t, domainFinance.StatusPartial, ar.Status)
	assert.Equal(t, "400", ar.AmountPaid.String())

	require.Equal(t, http.StatusCreated, pay("600.00"))
	decode(t, h.do(http.MethodGet, path, nil), &ar)
	assert.Equal(t, domainFinance.StatusPaid, ar.Status)
	assert.NotNil(t, ar.PaidAt)

	var payments []domainFinance.Payment
	decode(t, h.do(http.MethodGet, path+"/payments", nil), &payments)
	assert.Len(t, payments, 2)

	// nothing left to pay
	assert.Equal(t, http.StatusUnprocessableEntity, pay("1.00"))
}

func TestReceivableHandler_Validation(t *testing.T) {
	h, c := receivableHarness(t)
	tests := []struct {
		name  string
		body  map[string]any
		field string
	}{
		{"zero amount", map[string]any{"customer_id": c.ID, "description": "x", "amount": "0", "due_date": time.Now()}, "amount"},
		{"missing description", map[string]any{"customer_id": c.ID, "amount": "10", "due_date": time.Now()}, "description"},
		{"missing due date", map[string]any{"customer_id": c.ID, "description": "x", "amount": "10"}, "due_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(http.MethodPost, "/accounts-receivable", tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
			resp := decode(t, rec, nil)
			require.NotNil(t, resp.Error)
			var fields []string
			for _, f := range resp.Error.Fields {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.field)
		})
	}
}

func TestReceivableHandler_Export(t *testing.T) {
	h, c := receivableHarness(t)
	rec := h.do(http.MethodPost, "/accounts-receivable", map[string]any{
		"customer_id": c.ID,
		"description": "Manutenção preventiva",
		"amount":      "250.00",
		"due_date":    time.Now().AddDate(0, 1, 0).UTC(),
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	export := h.do(http.MethodGet, "/accounts-receivable/export", nil)
	require.Equal(t, http.StatusOK, export.Code)
	assert.Contains(t, export.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, export.Header().Get("Content-Disposition"), "receivables-")

	lines := strings.Split(strings.TrimSpace(export.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "id,description,customer_id,work_order_id"))
	assert.Contains(t, lines[1], "Manutenção preventiva")
}
