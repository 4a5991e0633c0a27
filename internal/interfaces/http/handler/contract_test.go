package handler

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/calibra/backend/internal/application/contract"
	"github.com/calibra/backend/internal/domain/customer"
	domainContract "github.com/calibra/backend/internal/domain/contract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func contractHarness(t *testing.T) (*harness, *customer.Customer) {
	h := newHarness(t)
	ch := NewContractHandler(contract.NewService(h.tx, h.repos, zap.NewNop(), time.UTC))
	h.engine.POST("/recurring-contracts", ch.Create)
	h.engine.POST("/recurring-contracts/bill", ch.Bill)
	h.engine.GET("/recurring-contracts/:id", ch.GetByID)

	c, err := customer.NewCustomer(h.tenantID, "Usina Sigma", "")
	require.NoError(t, err)
	require.NoError(t, h.repos.Customers().Save(context.Background(), c))
	return h, c
}

func TestContractHandler_BillMonth(t *testing.T) {
	h, c := contractHarness(t)
	rec := h.do(http.MethodPost, "/recurring-contracts", map[string]any{
		"customer_id":   c.ID,
		"name":          "Manutenção mensal",
		"monthly_value": "800.00",
		"billing_day":   31,
		"starts_at":     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created domainContract.RecurringContract
	decode(t, rec, &created)

	bill := func() contract.BillingResult {
		rec := h.do(http.MethodPost, "/recurring-contracts/bill", map[string]any{"month": "2026-02"})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var res contract.BillingResult
		decode(t, rec, &res)
		return res
	}
	first := bill()
	assert.Equal(t, "2026-02", first.Month)
	assert.Equal(t, 1, first.Created)
	assert.Zero(t, bill().Created)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/recurring-contracts/"+created.ID.String(), nil).Code)
}

func TestContractHandler_BillRejectsBadMonth(t *testing.T) {
	h, _ := contractHarness(t)
	rec := h.do(http.MethodPost, "/recurring-contracts/bill", map[string]any{"month": "02/2026"})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "month", decode(t, rec, nil).Error.Fields[0].Field)
}

func TestContractHandler_CreateValidation(t *testing.T) {
	h, c := contractHarness(t)
	rec := h.do(http.MethodPost, "/recurring-contracts", map[string]any{
		"customer_id": c.ID,
		"name":        "Sem dia",
		"billing_day": 32,
		"starts_at":   time.Now(),
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "billing_day", decode(t, rec, nil).Error.Fields[0].Field)
}
