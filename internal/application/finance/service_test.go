package finance

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"
	"time"

	"github.com/calibra/backend/internal/domain/customer"
	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/workorder"
	"github.com/calibra/backend/internal/infrastructure/persistence"
	"github.com/calibra/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var april10 = time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)

type recordingPublisher struct {
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

type fixture struct {
	db          *gorm.DB
	receivables *ReceivableService
	payables    *PayableService
	payments    *PaymentService
	invoices    *InvoiceService
	expenses    *ExpenseService
	publisher   *recordingPublisher
	tenantID    uuid.UUID
	userID      uuid.UUID
	customer    *customer.Customer
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	tx := persistence.NewGormTransactionScope(db)
	repos := persistence.NewRepositorySet(db)
	clock := func() time.Time { return april10 }

	f := &fixture{
		db:          db,
		receivables: NewReceivableService(tx, repos, zap.NewNop()),
		payables:    NewPayableService(tx, repos, zap.NewNop()),
		payments:    NewPaymentService(tx, repos, zap.NewNop()),
		invoices:    NewInvoiceService(tx, repos, zap.NewNop()),
		expenses:    NewExpenseService(tx, repos, zap.NewNop()),
		publisher:   &recordingPublisher{},
		tenantID:    uuid.New(),
		userID:      uuid.New(),
	}
	f.receivables.now = clock
	f.payables.now = clock
	f.payments.now = clock
	f.receivables.SetEventPublisher(f.publisher)
	f.invoices.SetEventPublisher(f.publisher)

	c, err := customer.NewCustomer(f.tenantID, "Laboratório Alfa", "")
	require.NoError(t, err)
	require.NoError(t, persistence.NewGormCustomerRepository(db).Save(context.Background(), c))
	f.customer = c
	return f
}

func (f *fixture) workOrder(t *testing.T, status workorder.Status, total string) *workorder.WorkOrder {
	t.Helper()
	wo, err := workorder.NewWorkOrder(f.tenantID, f.customer.ID, "OS-"+uuid.NewString()[:6], "paquímetro")
	require.NoError(t, err)
	item, err := workorder.NewItem(workorder.ItemTypeService, "Calibração", decimal.NewFromInt(1),
		decimal.RequireFromString(total), decimal.Zero, decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, wo.SetItems([]workorder.Item{item}))
	wo.Status = status
	wo.ClearDomainEvents()
	require.NoError(t, persistence.NewGormWorkOrderRepository(f.db).Save(context.Background(), wo))
	return wo
}

func (f *fixture) receivable(t *testing.T, amount string, due time.Time) *finance.AccountReceivable {
	t.Helper()
	ar, err := f.receivables.Create(context.Background(), f.tenantID, f.userID, CreateReceivableRequest{
		CustomerID:  f.customer.ID,
		Description: "Calibração anual",
		Amount:      decimal.RequireFromString(amount),
		DueDate:     due,
	})
	require.NoError(t, err)
	return ar
}

func pay(amount string) PayRequest {
	return PayRequest{
		Amount:        decimal.RequireFromString(amount),
		PaymentMethod: "pix",
		PaymentDate:   april10,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected domain error, got %v", err)
	assert.Equal(t, code, de.Code)
}

func TestReceivable_PartialThenFullPayment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ar := f.receivable(t, "1000.00", april10.AddDate(0, 0, 10))

	_, err := f.receivables.Pay(ctx, f.tenantID, f.userID, ar.ID, pay("400"))
	require.NoError(t, err)
	got, err := f.receivables.Get(ctx, f.tenantID, ar.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.StatusPartial, got.Status)
	assert.Nil(t, got.PaidAt)

	_, err = f.receivables.Pay(ctx, f.tenantID, f.userID, ar.ID, pay("600"))
	require.NoError(t, err)
	got, err = f.receivables.Get(ctx, f.tenantID, ar.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.StatusPaid, got.Status)
	assert.True(t, got.AmountPaid.Equal(decimal.NewFromInt(1000)))
	assert.NotNil(t, got.PaidAt)
	assert.Equal(t, []string{finance.EventTypeReceivablePaymentRecorded, finance.EventTypeReceivablePaymentRecorded},
		f.publisher.types())

	_, err = f.receivables.Pay(ctx, f.tenantID, f.userID, ar.ID, pay("0.01"))
	assert.Error(t, err, "paid receivable takes no further payment")
}

func TestReceivable_OverpaymentRejected(t *testing.T) {
	f := newFixture(t)
	ar := f.receivable(t, "100.00", april10)

	_, err := f.receivables.Pay(context.Background(), f.tenantID, f.userID, ar.ID, pay("100.01"))
	assertCode(t, err, shared.CodeValidation)
	assert.Empty(t, f.publisher.events)
}

func TestReceivable_CreateRejectsForeignCustomer(t *testing.T) {
	f := newFixture(t)
	_, err := f.receivables.Create(context.Background(), f.tenantID, f.userID, CreateReceivableRequest{
		CustomerID:  uuid.New(),
		Description: "x",
		Amount:      decimal.NewFromInt(10),
		DueDate:     april10,
	})
	assertCode(t, err, shared.CodeValidation)
}

func TestReceivable_UpdateLiftsOverdue(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ar := f.receivable(t, "300.00", april10.AddDate(0, 0, -5))
	assert.Equal(t, finance.StatusOverdue, ar.Status)

	newDue := april10.AddDate(0, 1, 0)
	updated, err := f.receivables.Update(ctx, f.tenantID, ar.ID, UpdateDocumentRequest{DueDate: &newDue})
	require.NoError(t, err)
	assert.Equal(t, finance.StatusPending, updated.Status)

	_, err = f.receivables.Pay(ctx, f.tenantID, f.userID, ar.ID, pay("100"))
	require.NoError(t, err)
	lower := decimal.NewFromInt(50)
	_, err = f.receivables.Update(ctx, f.tenantID, ar.ID, UpdateDocumentRequest{Amount: &lower})
	assertCode(t, err, shared.CodeValidation)
}

func TestReceivable_DeleteBlockedByPayments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ar := f.receivable(t, "100.00", april10)
	payment, err := f.receivables.Pay(ctx, f.tenantID, f.userID, ar.ID, pay("10"))
	require.NoError(t, err)

	err = f.receivables.Delete(ctx, f.tenantID, ar.ID)
	assertCode(t, err, shared.CodeInvalidState)

	_, err = f.payments.Reverse(ctx, f.tenantID, payment.ID)
	require.NoError(t, err)
	require.NoError(t, f.receivables.Delete(ctx, f.tenantID, ar.ID))
	_, err = f.receivables.Get(ctx, f.tenantID, ar.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGenerateInstallments_SplitsRemainderIntoLast(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.workOrder(t, workorder.StatusCompleted, "100.00")

	rows, err := f.receivables.GenerateInstallments(ctx, f.tenantID, f.userID, GenerateInstallmentsRequest{
		WorkOrderID:  wo.ID,
		Installments: 3,
		FirstDueDate: time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "33.33", rows[0].Amount.StringFixed(2))
	assert.Equal(t, "33.33", rows[1].Amount.StringFixed(2))
	assert.Equal(t, "33.34", rows[2].Amount.StringFixed(2))
	assert.Equal(t, "OS "+wo.Number+" - Parcela 2/3", rows[1].Description)
	assert.Equal(t, time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), rows[1].DueDate)
	for _, ar := range rows {
		assert.Equal(t, f.customer.ID, ar.CustomerID)
		assert.Equal(t, wo.ID, *ar.WorkOrderID)
	}

	_, err = f.receivables.GenerateFromWorkOrder(ctx, f.tenantID, f.userID, GenerateFromWorkOrderRequest{
		WorkOrderID: wo.ID,
		DueDate:     april10,
	})
	assertCode(t, err, shared.CodeConflict)
}

func TestGenerateFromWorkOrder_RejectsCancelledOrder(t *testing.T) {
	f := newFixture(t)
	wo := f.workOrder(t, workorder.StatusCancelled, "100.00")

	_, err := f.receivables.GenerateFromWorkOrder(context.Background(), f.tenantID, f.userID, GenerateFromWorkOrderRequest{
		WorkOrderID: wo.ID,
		DueDate:     april10,
	})
	assertCode(t, err, shared.CodeInvalidState)
}

func TestReceivable_SummaryAndExport(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.receivable(t, "200.00", april10.AddDate(0, 0, 5))
	f.receivable(t, "50.00", april10.AddDate(0, 0, -3))
	paid := f.receivable(t, "75.00", april10)
	_, err := f.receivables.Pay(ctx, f.tenantID, f.userID, paid.ID, pay("75"))
	require.NoError(t, err)

	sum, err := f.receivables.Summary(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, "50.00", sum.Overdue.StringFixed(2))
	assert.Equal(t, "75.00", sum.PaidThisMonth.StringFixed(2))

	var buf bytes.Buffer
	n, err := f.receivables.Export(ctx, f.tenantID, DocumentListFilter{}, &buf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, exportHeader, records[0])

	_, err = f.receivables.List(ctx, f.tenantID, DocumentListFilter{OrderBy: "password"})
	assertCode(t, err, shared.CodeValidation)
}

func TestRefreshOverdue_MarksPastDueDocuments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ar := f.receivable(t, "120.00", april10.AddDate(0, 0, 2))

	f.receivables.now = func() time.Time { return april10.AddDate(0, 0, 5) }
	changed, err := f.receivables.RefreshOverdue(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	got, err := f.receivables.Get(ctx, f.tenantID, ar.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.StatusOverdue, got.Status)
}

func TestRefreshOverdue_WalksEveryPage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	due := april10.AddDate(0, 0, 1)
	count := shared.MaxPageSize + 5
	for range count {
		f.receivable(t, "10.00", due)
	}

	f.receivables.now = func() time.Time { return april10.AddDate(0, 0, 3) }
	changed, err := f.receivables.RefreshOverdue(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, count, changed)

	changed, err = f.receivables.RefreshOverdue(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Zero(t, changed, "a second sweep finds nothing left to change")
}

func TestPayable_RefreshOverdueFeedsSummary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.payables.Create(ctx, f.tenantID, f.userID, CreatePayableRequest{
		SupplierName: "Padrões Ltda",
		Description:  "Manutenção da balança",
		Amount:       decimal.NewFromInt(250),
		DueDate:      april10.AddDate(0, 0, 2),
	})
	require.NoError(t, err)

	f.payables.now = func() time.Time { return april10.AddDate(0, 0, 4) }
	changed, err := f.payables.RefreshOverdue(ctx, f.tenantID)
	require.NoError(t, err)
	assert.Equal(t, 1, changed)

	summary, err := f.payables.Summary(ctx, f.tenantID)
	require.NoError(t, err)
	assert.True(t, summary.Overdue.Equal(decimal.NewFromInt(250)), summary.Overdue.String())
	assert.True(t, summary.Pending.IsZero())
}

func TestReceivable_PayUsesClockNotPaymentDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ar := f.receivable(t, "1000.00", april10.AddDate(0, 0, 3))

	req := pay("400")
	req.PaymentDate = april10.AddDate(0, 0, 10)
	payment, err := f.receivables.Pay(ctx, f.tenantID, f.userID, ar.ID, req)
	require.NoError(t, err)
	assert.True(t, payment.PaymentDate.Equal(req.PaymentDate))

	got, err := f.receivables.Get(ctx, f.tenantID, ar.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.StatusPartial, got.Status)

	req = pay("600")
	req.PaymentDate = april10.AddDate(0, -2, 0)
	_, err = f.receivables.Pay(ctx, f.tenantID, f.userID, ar.ID, req)
	require.NoError(t, err)
	got, err = f.receivables.Get(ctx, f.tenantID, ar.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PaidAt)
	assert.True(t, got.PaidAt.Equal(april10), got.PaidAt.String())
}

func TestPayable_PayReverseAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ap, err := f.payables.Create(ctx, f.tenantID, f.userID, CreatePayableRequest{
		SupplierName: "Padrões Ltda",
		Description:  "Certificado RBC",
		Amount:       decimal.NewFromInt(500),
		DueDate:      april10.AddDate(0, 0, 15),
	})
	require.NoError(t, err)

	payment, err := f.payables.Pay(ctx, f.tenantID, f.userID, ap.ID, pay("500"))
	require.NoError(t, err)
	got, err := f.payables.Get(ctx, f.tenantID, ap.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.StatusPaid, got.Status)

	err = f.payables.Delete(ctx, f.tenantID, ap.ID)
	assertCode(t, err, shared.CodeConflict)

	result, err := f.payments.Reverse(ctx, f.tenantID, payment.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.PayableTypePayable, result.PayableType)
	assert.True(t, result.AmountPaid.IsZero())
	assert.Equal(t, finance.StatusPending, result.Status)

	got, err = f.payables.Get(ctx, f.tenantID, ap.ID)
	require.NoError(t, err)
	assert.Nil(t, got.PaidAt)
	require.NoError(t, f.payables.Delete(ctx, f.tenantID, ap.ID))
}

func TestPayments_ListByType(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ar := f.receivable(t, "100.00", april10)
	_, err := f.receivables.Pay(ctx, f.tenantID, f.userID, ar.ID, pay("30"))
	require.NoError(t, err)

	page, err := f.payments.List(ctx, f.tenantID, PaymentListFilter{PayableType: "receivable"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)

	_, err = f.payments.List(ctx, f.tenantID, PaymentListFilter{PayableType: "voucher"})
	assertCode(t, err, shared.CodeValidation)
}

func TestInvoice_DeliveredOrderBecomesInvoicedAndReverts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.workOrder(t, workorder.StatusDelivered, "850.00")
	woRepo := persistence.NewGormWorkOrderRepository(f.db)

	inv, err := f.invoices.Create(ctx, f.tenantID, f.userID, CreateInvoiceRequest{WorkOrderID: &wo.ID})
	require.NoError(t, err)
	assert.Equal(t, f.customer.ID, inv.CustomerID)
	assert.Equal(t, "850.00", inv.Total.StringFixed(2))
	assert.Equal(t, finance.InvoiceStatusDraft, inv.Status)
	assert.NotEmpty(t, inv.Number)
	assert.Contains(t, f.publisher.types(), workorder.EventTypeInvoiced)

	got, err := woRepo.FindByID(ctx, f.tenantID, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, workorder.StatusInvoiced, got.Status)

	_, err = f.invoices.UpdateStatus(ctx, f.tenantID, f.userID, inv.ID, InvoiceStatusRequest{Status: "issued"})
	require.NoError(t, err)
	err = f.invoices.Delete(ctx, f.tenantID, f.userID, inv.ID)
	assertCode(t, err, shared.CodeInvalidState)

	cancelled, err := f.invoices.UpdateStatus(ctx, f.tenantID, f.userID, inv.ID, InvoiceStatusRequest{Status: "cancelled"})
	require.NoError(t, err)
	assert.Equal(t, finance.InvoiceStatusCancelled, cancelled.Status)

	got, err = woRepo.FindByID(ctx, f.tenantID, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, workorder.StatusDelivered, got.Status)

	_, err = f.invoices.Update(ctx, f.tenantID, inv.ID, UpdateInvoiceRequest{Total: decimal.NewFromInt(1)})
	assertCode(t, err, shared.CodeInvalidState)
}

func TestInvoice_SecondInvoiceKeepsOrderInvoiced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.workOrder(t, workorder.StatusDelivered, "100.00")

	first, err := f.invoices.Create(ctx, f.tenantID, f.userID, CreateInvoiceRequest{WorkOrderID: &wo.ID})
	require.NoError(t, err)
	half := decimal.NewFromInt(50)
	_, err = f.invoices.Create(ctx, f.tenantID, f.userID, CreateInvoiceRequest{WorkOrderID: &wo.ID, Total: &half})
	require.NoError(t, err)

	require.NoError(t, f.invoices.Delete(ctx, f.tenantID, f.userID, first.ID))
	got, err := persistence.NewGormWorkOrderRepository(f.db).FindByID(ctx, f.tenantID, wo.ID)
	require.NoError(t, err)
	assert.Equal(t, workorder.StatusInvoiced, got.Status)
}

func TestInvoice_RequiresCustomer(t *testing.T) {
	f := newFixture(t)
	_, err := f.invoices.Create(context.Background(), f.tenantID, f.userID, CreateInvoiceRequest{})
	assertCode(t, err, shared.CodeValidation)
}

func TestExpense_ApproveRejectDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	wo := f.workOrder(t, workorder.StatusCompleted, "100.00")

	e, err := f.expenses.Create(ctx, f.tenantID, f.userID, CreateExpenseRequest{
		WorkOrderID:     &wo.ID,
		Description:     "Pedágio",
		Amount:          decimal.RequireFromString("12.50"),
		ExpenseDate:     april10,
		AffectsNetValue: true,
	})
	require.NoError(t, err)
	assert.Equal(t, finance.ExpenseStatusPending, e.Status)

	approved, err := f.expenses.Approve(ctx, f.tenantID, f.userID, e.ID)
	require.NoError(t, err)
	assert.True(t, approved.AffectsNet())

	_, err = f.expenses.Reject(ctx, f.tenantID, f.userID, e.ID, RejectExpenseRequest{Reason: "late"})
	assertCode(t, err, shared.CodeInvalidState)
	err = f.expenses.Delete(ctx, f.tenantID, e.ID)
	assertCode(t, err, shared.CodeInvalidState)

	page, err := f.expenses.List(ctx, f.tenantID, ExpenseListFilter{WorkOrderID: &wo.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}
