package persistence

import (
	"context"
	"time"

	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/calibra/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// applyDocumentFilter applies the filters shared by receivables and payables
func applyDocumentFilter(query *gorm.DB, filter finance.DocumentFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	return query
}

// applyMatchCandidates selects open documents whose open amount is within tolerance and due window
func applyMatchCandidates(query *gorm.DB, filter finance.MatchCandidateFilter) *gorm.DB {
	query = query.
		Where("status IN ?", []finance.DocumentStatus{finance.StatusPending, finance.StatusPartial}).
		Where("(amount - amount_paid) BETWEEN ? AND ?", filter.Amount.Sub(filter.Tolerance), filter.Amount.Add(filter.Tolerance))
	if !filter.DueFrom.IsZero() && !filter.DueTo.IsZero() {
		query = query.Where("due_date BETWEEN ? AND ?", filter.DueFrom, filter.DueTo)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	return query.Order("due_date ASC")
}

// ledgerSummary aggregates a receivable or payable table for the month containing now
func ledgerSummary(ctx context.Context, db *gorm.DB, tenantID uuid.UUID, model any, payableType finance.PayableType, now time.Time) (finance.Summary, error) {
	start, end := valueobject.PeriodOf(now).Bounds(now.Location())
	scoped := func() *gorm.DB {
		return db.WithContext(ctx).Model(model).Scopes(tenantScope(tenantID))
	}

	var (
		summary finance.Summary
		err     error
	)
	if summary.Pending, err = sumColumn(scoped().Where("status IN ?",
		[]finance.DocumentStatus{finance.StatusPending, finance.StatusPartial}), "amount - amount_paid"); err != nil {
		return summary, err
	}
	if summary.Overdue, err = sumColumn(scoped().Where("status = ?", finance.StatusOverdue), "amount - amount_paid"); err != nil {
		return summary, err
	}
	if summary.BilledThisMonth, err = sumColumn(scoped().
		Where("status <> ?", finance.StatusCancelled).
		Where("created_at >= ? AND created_at < ?", start, end), "amount"); err != nil {
		return summary, err
	}
	if summary.PaidThisMonth, err = sumColumn(db.WithContext(ctx).Model(&models.PaymentModel{}).
		Scopes(tenantScope(tenantID)).
		Where("payable_type = ?", payableType).
		Where("payment_date >= ? AND payment_date < ?", start, end), "amount"); err != nil {
		return summary, err
	}
	summary.TotalOpen = summary.Pending.Add(summary.Overdue)
	return summary, nil
}

// GormReceivableRepository implements finance.ReceivableRepository using GORM
type GormReceivableRepository struct {
	db *gorm.DB
}

// NewGormReceivableRepository creates a new GormReceivableRepository
func NewGormReceivableRepository(db *gorm.DB) *GormReceivableRepository {
	return &GormReceivableRepository{db: db}
}

// FindByID finds a receivable by ID within a tenant
func (r *GormReceivableRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountReceivable, error) {
	var model models.AccountReceivableModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists receivables matching the filter
func (r *GormReceivableRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.DocumentFilter) ([]finance.AccountReceivable, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AccountReceivableModel{}).Scopes(tenantScope(tenantID))
	query = applyDocumentFilter(searchLike(query, filter.Search, "description"), filter)
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.WorkOrderID != nil {
		query = query.Where("work_order_id = ?", *filter.WorkOrderID)
	}

	var rows []models.AccountReceivableModel
	total, err := findPage(query, filter.Filter, LedgerSortFields, "due_date", &rows)
	if err != nil {
		return nil, 0, err
	}
	return receivablesToDomain(rows), total, nil
}

// FindByWorkOrder returns the receivables generated for a work order
func (r *GormReceivableRepository) FindByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) ([]finance.AccountReceivable, error) {
	var rows []models.AccountReceivableModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("work_order_id = ?", workOrderID).
		Order("installment ASC, due_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return receivablesToDomain(rows), nil
}

// CountByWorkOrder counts receivables of a work order
func (r *GormReceivableRepository) CountByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.AccountReceivableModel{}).
		Scopes(tenantScope(tenantID)).
		Where("work_order_id = ?", workOrderID).
		Count(&count).Error
	return count, err
}

// CreateBilled inserts a marked receivable, leaving the row out when the
// unique billing marker index already holds the marker
func (r *GormReceivableRepository) CreateBilled(ctx context.Context, ar *finance.AccountReceivable) (bool, error) {
	if ar.BillingMarker == nil || *ar.BillingMarker == "" {
		return false, shared.NewValidationError("billing_marker", "Billing marker is required")
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.AccountReceivableModelFromDomain(ar))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FindMatchCandidates returns open receivables near an amount and due date
func (r *GormReceivableRepository) FindMatchCandidates(ctx context.Context, tenantID uuid.UUID, filter finance.MatchCandidateFilter) ([]finance.AccountReceivable, error) {
	var rows []models.AccountReceivableModel
	if err := applyMatchCandidates(r.db.WithContext(ctx).Scopes(tenantScope(tenantID)), filter).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return receivablesToDomain(rows), nil
}

// Summary aggregates receivable balances
func (r *GormReceivableRepository) Summary(ctx context.Context, tenantID uuid.UUID, now time.Time) (finance.Summary, error) {
	return ledgerSummary(ctx, r.db, tenantID, &models.AccountReceivableModel{}, finance.PayableTypeReceivable, now)
}

// Save creates or updates a receivable
func (r *GormReceivableRepository) Save(ctx context.Context, ar *finance.AccountReceivable) error {
	return r.db.WithContext(ctx).Save(models.AccountReceivableModelFromDomain(ar)).Error
}

// Delete soft deletes a receivable
func (r *GormReceivableRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, tenantID, id, &models.AccountReceivableModel{})
}

func receivablesToDomain(rows []models.AccountReceivableModel) []finance.AccountReceivable {
	out := make([]finance.AccountReceivable, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormPayableRepository implements finance.PayableRepository using GORM
type GormPayableRepository struct {
	db *gorm.DB
}

// NewGormPayableRepository creates a new GormPayableRepository
func NewGormPayableRepository(db *gorm.DB) *GormPayableRepository {
	return &GormPayableRepository{db: db}
}

// FindByID finds a payable by ID within a tenant
func (r *GormPayableRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountPayable, error) {
	var model models.AccountPayableModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists payables matching the filter
func (r *GormPayableRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.DocumentFilter) ([]finance.AccountPayable, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.AccountPayableModel{}).Scopes(tenantScope(tenantID))
	query = applyDocumentFilter(searchLike(query, filter.Search, "description", "supplier_name"), filter)

	var rows []models.AccountPayableModel
	total, err := findPage(query, filter.Filter, LedgerSortFields, "due_date", &rows)
	if err != nil {
		return nil, 0, err
	}
	return payablesToDomain(rows), total, nil
}

// FindMatchCandidates returns open payables near an amount and due date
func (r *GormPayableRepository) FindMatchCandidates(ctx context.Context, tenantID uuid.UUID, filter finance.MatchCandidateFilter) ([]finance.AccountPayable, error) {
	var rows []models.AccountPayableModel
	if err := applyMatchCandidates(r.db.WithContext(ctx).Scopes(tenantScope(tenantID)), filter).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return payablesToDomain(rows), nil
}

// Summary aggregates payable balances
func (r *GormPayableRepository) Summary(ctx context.Context, tenantID uuid.UUID, now time.Time) (finance.Summary, error) {
	return ledgerSummary(ctx, r.db, tenantID, &models.AccountPayableModel{}, finance.PayableTypePayable, now)
}

// Save creates or updates a payable
func (r *GormPayableRepository) Save(ctx context.Context, ap *finance.AccountPayable) error {
	return r.db.WithContext(ctx).Save(models.AccountPayableModelFromDomain(ap)).Error
}

// Delete soft deletes a payable
func (r *GormPayableRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, tenantID, id, &models.AccountPayableModel{})
}

func payablesToDomain(rows []models.AccountPayableModel) []finance.AccountPayable {
	out := make([]finance.AccountPayable, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormPaymentRepository implements finance.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by ID within a tenant
func (r *GormPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByDocument returns the payments of one document, oldest first
func (r *GormPaymentRepository) FindByDocument(ctx context.Context, tenantID uuid.UUID, payableType finance.PayableType, payableID uuid.UUID) ([]finance.Payment, error) {
	var rows []models.PaymentModel
	if err := r.documentScope(ctx, tenantID, payableType, payableID).
		Order("payment_date ASC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return paymentsToDomain(rows), nil
}

// FindAll lists payments, optionally of one document kind
func (r *GormPaymentRepository) FindAll(ctx context.Context, tenantID uuid.UUID, payableType *finance.PayableType, filter shared.Filter) ([]finance.Payment, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentModel{}).Scopes(tenantScope(tenantID))
	if payableType != nil {
		query = query.Where("payable_type = ?", *payableType)
	}
	query = searchLike(query, filter.Search, "notes", "payment_method")

	var rows []models.PaymentModel
	total, err := findPage(query, filter, PaymentSortFields, "payment_date", &rows)
	if err != nil {
		return nil, 0, err
	}
	return paymentsToDomain(rows), total, nil
}

// SumByDocument sums the payments of a document
func (r *GormPaymentRepository) SumByDocument(ctx context.Context, tenantID uuid.UUID, payableType finance.PayableType, payableID uuid.UUID) (decimal.Decimal, error) {
	return sumColumn(r.documentScope(ctx, tenantID, payableType, payableID), "amount")
}

// CountByDocument counts the payments of a document
func (r *GormPaymentRepository) CountByDocument(ctx context.Context, tenantID uuid.UUID, payableType finance.PayableType, payableID uuid.UUID) (int64, error) {
	var count int64
	err := r.documentScope(ctx, tenantID, payableType, payableID).Count(&count).Error
	return count, err
}

// Save creates or updates a payment
func (r *GormPaymentRepository) Save(ctx context.Context, p *finance.Payment) error {
	return r.db.WithContext(ctx).Save(models.PaymentModelFromDomain(p)).Error
}

// Delete removes a payment. Payments are not soft deleted so sums stay exact.
func (r *GormPaymentRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, tenantID, id, &models.PaymentModel{})
}

func (r *GormPaymentRepository) documentScope(ctx context.Context, tenantID uuid.UUID, payableType finance.PayableType, payableID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.PaymentModel{}).
		Scopes(tenantScope(tenantID)).
		Where("payable_type = ? AND payable_id = ?", payableType, payableID)
}

func paymentsToDomain(rows []models.PaymentModel) []finance.Payment {
	out := make([]finance.Payment, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormInvoiceRepository implements finance.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists invoices
func (r *GormInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]finance.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Scopes(tenantScope(tenantID))
	query = searchLike(query, filter.Search, "number", "observation")

	var rows []models.InvoiceModel
	total, err := findPage(query, filter, InvoiceSortFields, "created_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]finance.Invoice, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// CountActiveByWorkOrder counts non-cancelled invoices of a work order
func (r *GormInvoiceRepository) CountActiveByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Scopes(tenantScope(tenantID)).
		Where("work_order_id = ? AND status <> ?", workOrderID, finance.InvoiceStatusCancelled).
		Count(&count).Error
	return count, err
}

// CountByWorkOrder counts all invoices of a work order
func (r *GormInvoiceRepository) CountByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Scopes(tenantScope(tenantID)).
		Where("work_order_id = ?", workOrderID).
		Count(&count).Error
	return count, err
}

// NextNumber returns the next NF-%06d number for the tenant
func (r *GormInvoiceRepository) NextNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	n, err := nextSequence(ctx, r.db, tenantID, SequenceInvoice)
	if err != nil {
		return "", err
	}
	return formatSequence("NF", n), nil
}

// Save creates or updates an invoice
func (r *GormInvoiceRepository) Save(ctx context.Context, inv *finance.Invoice) error {
	return r.db.WithContext(ctx).Save(models.InvoiceModelFromDomain(inv)).Error
}

// Delete soft deletes an invoice
func (r *GormInvoiceRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, tenantID, id, &models.InvoiceModel{})
}

// GormExpenseRepository implements finance.ExpenseRepository using GORM
type GormExpenseRepository struct {
	db *gorm.DB
}

// NewGormExpenseRepository creates a new GormExpenseRepository
func NewGormExpenseRepository(db *gorm.DB) *GormExpenseRepository {
	return &GormExpenseRepository{db: db}
}

// FindByID finds an expense by ID within a tenant
func (r *GormExpenseRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Expense, error) {
	var model models.ExpenseModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists expenses, optionally of one work order
func (r *GormExpenseRepository) FindAll(ctx context.Context, tenantID uuid.UUID, workOrderID *uuid.UUID, filter shared.Filter) ([]finance.Expense, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ExpenseModel{}).Scopes(tenantScope(tenantID))
	if workOrderID != nil {
		query = query.Where("work_order_id = ?", *workOrderID)
	}
	query = searchLike(query, filter.Search, "description", "category")

	var rows []models.ExpenseModel
	total, err := findPage(query, filter, ExpenseSortFields, "expense_date", &rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]finance.Expense, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// SumNetAffecting sums approved expenses flagged affects_net_value for a work order
func (r *GormExpenseRepository) SumNetAffecting(ctx context.Context, tenantID, workOrderID uuid.UUID) (decimal.Decimal, error) {
	return sumColumn(r.db.WithContext(ctx).Model(&models.ExpenseModel{}).
		Scopes(tenantScope(tenantID)).
		Where("work_order_id = ? AND status = ? AND affects_net_value = ?", workOrderID, finance.ExpenseStatusApproved, true),
		"amount")
}

// Save creates or updates an expense
func (r *GormExpenseRepository) Save(ctx context.Context, e *finance.Expense) error {
	return r.db.WithContext(ctx).Save(models.ExpenseModelFromDomain(e)).Error
}

// Delete soft deletes an expense
func (r *GormExpenseRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, tenantID, id, &models.ExpenseModel{})
}

var (
	_ finance.ReceivableRepository = (*GormReceivableRepository)(nil)
	_ finance.PayableRepository    = (*GormPayableRepository)(nil)
	_ finance.PaymentRepository    = (*GormPaymentRepository)(nil)
	_ finance.InvoiceRepository    = (*GormInvoiceRepository)(nil)
	_ finance.ExpenseRepository    = (*GormExpenseRepository)(nil)
)
