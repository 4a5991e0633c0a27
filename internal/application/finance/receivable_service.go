// Package finance implements receivables, payables, payments, invoices and expenses.
package finance

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/calibra/backend/internal/domain/workorder"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var documentSortFields = map[string]bool{
	"due_date": true, "amount": true, "amount_paid": true, "status": true, "created_at": true,
}

// ReceivableService handles accounts receivable
type ReceivableService struct {
	tx        txn.TransactionScope
	repos     txn.Repositories
	publisher shared.EventPublisher
	logger    *zap.Logger
	now       func() time.Time
}

// NewReceivableService creates a receivable service
func NewReceivableService(tx txn.TransactionScope, repos txn.Repositories, logger *zap.Logger) *ReceivableService {
	return &ReceivableService{tx: tx, repos: repos, logger: logger, now: time.Now}
}

// SetEventPublisher sets the publisher used after commits
func (s *ReceivableService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Create registers a receivable for a customer of the tenant
func (s *ReceivableService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateReceivableRequest) (*finance.AccountReceivable, error) {
	ar, err := finance.NewAccountReceivable(tenantID, req.CustomerID, req.Description, req.Amount, req.DueDate)
	if err != nil {
		return nil, err
	}
	ar.SetCreatedBy(userID)
	ar.WorkOrderID = req.WorkOrderID
	ar.PaymentMethod = req.PaymentMethod
	ar.Notes = req.Notes
	ar.Refresh(s.now())

	err = s.tx.Execute(ctx, func(repos txn.Repositories) error {
		if _, err := repos.Customers().FindByID(ctx, tenantID, req.CustomerID); err != nil {
			return crossTenant(err, "customer_id", "Customer not found")
		}
		if req.WorkOrderID != nil {
			if _, err := repos.WorkOrders().FindByID(ctx, tenantID, *req.WorkOrderID); err != nil {
				return crossTenant(err, "work_order_id", "Work order not found")
			}
		}
		return repos.Receivables().Save(ctx, ar)
	})
	if err != nil {
		return nil, err
	}
	return ar, nil
}

// Update edits an open receivable and re-derives its status
func (s *ReceivableService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateDocumentRequest) (*finance.AccountReceivable, error) {
	var ar *finance.AccountReceivable
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		ar, err = repos.Receivables().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := applyLedgerUpdate(&ar.Ledger, req, s.now()); err != nil {
			return err
		}
		if req.Description != nil {
			ar.Description = *req.Description
		}
		if req.PaymentMethod != nil {
			ar.PaymentMethod = *req.PaymentMethod
		}
		if req.Notes != nil {
			ar.Notes = *req.Notes
		}
		ar.Touch()
		return repos.Receivables().Save(ctx, ar)
	})
	if err != nil {
		return nil, err
	}
	return ar, nil
}

// applyLedgerUpdate changes amount and due date of an open document
func applyLedgerUpdate(l *finance.Ledger, req UpdateDocumentRequest, now time.Time) error {
	if l.Status == finance.StatusCancelled || l.Status == finance.StatusPaid {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot edit a %s document", l.Status))
	}
	if req.Description != nil && *req.Description == "" {
		return shared.NewValidationError("description", "Description is required")
	}
	if req.Amount != nil {
		amount := valueobject.Round2(*req.Amount)
		if amount.LessThan(valueobject.Cent()) {
			return shared.NewValidationError("amount", "Amount must be at least 0.01")
		}
		if amount.LessThan(l.AmountPaid) {
			return shared.NewValidationError("amount", "Amount cannot be lower than what was already paid")
		}
		l.Amount = amount
	}
	if req.DueDate != nil {
		l.DueDate = *req.DueDate
		// a new due date may lift an overdue flag
		if l.Status == finance.StatusOverdue {
			l.Status = finance.StatusPending
		}
	}
	l.Refresh(now)
	return nil
}

// Get returns one receivable
func (s *ReceivableService) Get(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountReceivable, error) {
	return s.repos.Receivables().FindByID(ctx, tenantID, id)
}

func documentFilter(f DocumentListFilter) (finance.DocumentFilter, error) {
	filter := finance.DocumentFilter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			Search:   f.Search,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
		},
		CustomerID:  f.CustomerID,
		WorkOrderID: f.WorkOrderID,
		DueFrom:     f.DueFrom,
		DueTo:       f.DueTo,
	}
	if f.OrderBy != "" && !documentSortFields[f.OrderBy] {
		return filter, shared.NewValidationError("order_by", "Unsupported sort field")
	}
	if f.Status != "" {
		st := finance.DocumentStatus(f.Status)
		if !st.IsValid() {
			return filter, shared.NewValidationError("status", "Unknown status")
		}
		filter.Status = &st
	}
	return filter, nil
}

// List returns a page of receivables
func (s *ReceivableService) List(ctx context.Context, tenantID uuid.UUID, f DocumentListFilter) (shared.Paginated[finance.AccountReceivable], error) {
	filter, err := documentFilter(f)
	if err != nil {
		return shared.Paginated[finance.AccountReceivable]{}, err
	}
	rows, total, err := s.repos.Receivables().FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[finance.AccountReceivable]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), filter.Limit()), nil
}

// Pay records a payment and publishes ReceivablePaymentRecorded after commit
func (s *ReceivableService) Pay(ctx context.Context, tenantID, userID, id uuid.UUID, req PayRequest) (*finance.Payment, error) {
	var (
		ar      *finance.AccountReceivable
		payment *finance.Payment
	)
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		ar, err = repos.Receivables().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		payment, err = ar.Pay(req.Amount, req.PaymentMethod, req.PaymentDate, &userID, req.Notes, s.now())
		if err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, payment); err != nil {
			return err
		}
		return repos.Receivables().Save(ctx, ar)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("receivable payment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("receivable_id", ar.ID.String()),
		zap.String("amount", payment.Amount.String()),
		zap.String("status", string(ar.Status)))
	txn.PublishAfterCommit(ctx, s.publisher, s.logger, ar)
	return payment, nil
}

// Cancel cancels an unpaid receivable
func (s *ReceivableService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountReceivable, error) {
	var ar *finance.AccountReceivable
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		ar, err = repos.Receivables().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := ar.Cancel(); err != nil {
			return err
		}
		return repos.Receivables().Save(ctx, ar)
	})
	if err != nil {
		return nil, err
	}
	return ar, nil
}

// Delete soft-deletes a receivable that has no payments
func (s *ReceivableService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.tx.Execute(ctx, func(repos txn.Repositories) error {
		if _, err := repos.Receivables().FindByID(ctx, tenantID, id); err != nil {
			return err
		}
		count, err := repos.Payments().CountByDocument(ctx, tenantID, finance.PayableTypeReceivable, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.NewDomainError(shared.CodeInvalidState,
				"Receivable has payments; reverse them before deleting").WithDetail("payments", count)
		}
		return repos.Receivables().Delete(ctx, tenantID, id)
	})
}

// loadBillable loads a work order that can be billed and checks it has no receivables yet
func loadBillable(ctx context.Context, repos txn.Repositories, tenantID, workOrderID uuid.UUID) (*workorder.WorkOrder, error) {
	wo, err := repos.WorkOrders().FindByID(ctx, tenantID, workOrderID)
	if err != nil {
		return nil, crossTenant(err, "work_order_id", "Work order not found")
	}
	if wo.Status == workorder.StatusCancelled {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Cannot bill a cancelled work order")
	}
	if !wo.Total.IsPositive() {
		return nil, shared.NewValidationError("work_order_id", "Work order total must be positive")
	}
	count, err := repos.Receivables().CountByWorkOrder(ctx, tenantID, workOrderID)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, shared.NewDomainError(shared.CodeConflict, "Work order already has receivables")
	}
	return wo, nil
}

// GenerateFromWorkOrder creates one receivable for the full work order total
func (s *ReceivableService) GenerateFromWorkOrder(ctx context.Context, tenantID, userID uuid.UUID, req GenerateFromWorkOrderRequest) (*finance.AccountReceivable, error) {
	var ar *finance.AccountReceivable
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		wo, err := loadBillable(ctx, repos, tenantID, req.WorkOrderID)
		if err != nil {
			return err
		}
		ar, err = finance.NewAccountReceivable(tenantID, wo.CustomerID, "OS "+wo.Number, wo.Total, req.DueDate)
		if err != nil {
			return err
		}
		ar.SetCreatedBy(userID)
		ar.WorkOrderID = &wo.ID
		ar.PaymentMethod = req.PaymentMethod
		ar.Refresh(s.now())
		return repos.Receivables().Save(ctx, ar)
	})
	if err != nil {
		return nil, err
	}
	return ar, nil
}

// GenerateInstallments splits a work order total into monthly receivables
func (s *ReceivableService) GenerateInstallments(ctx context.Context, tenantID, userID uuid.UUID, req GenerateInstallmentsRequest) ([]finance.AccountReceivable, error) {
	var out []finance.AccountReceivable
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		wo, err := loadBillable(ctx, repos, tenantID, req.WorkOrderID)
		if err != nil {
			return err
		}
		plan, err := finance.PlanInstallments(wo.Total, req.Installments, req.FirstDueDate)
		if err != nil {
			return err
		}
		now := s.now()
		for _, inst := range plan {
			desc := fmt.Sprintf("OS %s - Parcela %d/%d", wo.Number, inst.Number, len(plan))
			ar, err := finance.NewAccountReceivable(tenantID, wo.CustomerID, desc, inst.Amount, inst.DueDate)
			if err != nil {
				return err
			}
			ar.SetCreatedBy(userID)
			ar.WorkOrderID = &wo.ID
			ar.Installment = inst.Number
			ar.PaymentMethod = req.PaymentMethod
			ar.Refresh(now)
			if err := repos.Receivables().Save(ctx, ar); err != nil {
				return err
			}
			out = append(out, *ar)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("installments generated",
		zap.String("tenant_id", tenantID.String()),
		zap.String("work_order_id", req.WorkOrderID.String()),
		zap.Int("count", len(out)))
	return out, nil
}

// Summary aggregates open, overdue and this month's figures
func (s *ReceivableService) Summary(ctx context.Context, tenantID uuid.UUID) (finance.Summary, error) {
	return s.repos.Receivables().Summary(ctx, tenantID, s.now())
}

var exportHeader = []string{
	"id", "description", "customer_id", "work_order_id", "installment", "amount", "amount_paid",
	"due_date", "status", "paid_at", "payment_method",
}

// Export writes every receivable matching the filter as CSV
func (s *ReceivableService) Export(ctx context.Context, tenantID uuid.UUID, f DocumentListFilter, w io.Writer) (int, error) {
	filter, err := documentFilter(f)
	if err != nil {
		return 0, err
	}
	filter.PageSize = shared.MaxPageSize

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, err
	}
	written := 0
	for page := 1; ; page++ {
		filter.Page = page
		rows, total, err := s.repos.Receivables().FindAll(ctx, tenantID, filter)
		if err != nil {
			return written, err
		}
		for _, ar := range rows {
			if err := cw.Write(exportRow(&ar)); err != nil {
				return written, err
			}
			written++
		}
		if len(rows) == 0 || int64(written) >= total {
			break
		}
	}
	cw.Flush()
	return written, cw.Error()
}

func exportRow(ar *finance.AccountReceivable) []string {
	workOrder := ""
	if ar.WorkOrderID != nil {
		workOrder = ar.WorkOrderID.String()
	}
	paidAt := ""
	if ar.PaidAt != nil {
		paidAt = ar.PaidAt.Format(time.RFC3339)
	}
	installment := ""
	if ar.Installment > 0 {
		installment = fmt.Sprint(ar.Installment)
	}
	return []string{
		ar.ID.String(),
		ar.Description,
		ar.CustomerID.String(),
		workOrder,
		installment,
		ar.Amount.StringFixed(2),
		ar.AmountPaid.StringFixed(2),
		ar.DueDate.Format("2006-01-02"),
		string(ar.Status),
		paidAt,
		ar.PaymentMethod,
	}
}

// RefreshOverdue marks open receivables whose due date has passed as overdue
func (s *ReceivableService) RefreshOverdue(ctx context.Context, tenantID uuid.UUID) (int, error) {
	repo := s.repos.Receivables()
	return refreshOverdue(ctx, s.now(),
		func(f finance.DocumentFilter) ([]finance.AccountReceivable, int64, error) {
			return repo.FindAll(ctx, tenantID, f)
		},
		func(ar *finance.AccountReceivable) *finance.Ledger { return &ar.Ledger },
		func(ar *finance.AccountReceivable) error { return repo.Save(ctx, ar) },
	)
}

// refreshOverdue collects every past-due pending or partial document page by page,
// then re-derives and saves the ones whose status changed. Collecting first keeps
// the paging stable while saved rows leave the filtered set.
func refreshOverdue[T any](ctx context.Context, now time.Time,
	find func(finance.DocumentFilter) ([]T, int64, error),
	ledger func(*T) *finance.Ledger,
	save func(*T) error,
) (int, error) {
	y, m, d := now.Date()
	yesterday := time.Date(y, m, d, 0, 0, 0, 0, now.Location()).Add(-time.Nanosecond)

	var due []T
	for _, st := range []finance.DocumentStatus{finance.StatusPending, finance.StatusPartial} {
		status := st
		filter := finance.DocumentFilter{
			Filter: shared.Filter{PageSize: shared.MaxPageSize, OrderBy: "id", OrderDir: "asc"},
			Status: &status,
			DueTo:  &yesterday,
		}
		read := 0
		for page := 1; ; page++ {
			filter.Page = page
			rows, total, err := find(filter)
			if err != nil {
				return 0, err
			}
			due = append(due, rows...)
			read += len(rows)
			if len(rows) == 0 || int64(read) >= total {
				break
			}
		}
	}

	changed := 0
	for i := range due {
		if err := ctx.Err(); err != nil {
			return changed, err
		}
		l := ledger(&due[i])
		before := l.Status
		l.Refresh(now)
		if l.Status == before {
			continue
		}
		if err := save(&due[i]); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}

// crossTenant turns a not-found reference into a validation error on field
func crossTenant(err error, field, message string) error {
	if isNotFound(err) {
		return shared.NewValidationError(field, message)
	}
	return err
}
