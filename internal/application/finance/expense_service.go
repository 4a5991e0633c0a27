package finance

import (
	"context"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExpenseService records and approves expenses
type ExpenseService struct {
	tx     txn.TransactionScope
	repos  txn.Repositories
	logger *zap.Logger
}

// NewExpenseService creates an expense service
func NewExpenseService(tx txn.TransactionScope, repos txn.Repositories, logger *zap.Logger) *ExpenseService {
	return &ExpenseService{tx: tx, repos: repos, logger: logger}
}

// Create records a pending expense
func (s *ExpenseService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateExpenseRequest) (*finance.Expense, error) {
	e, err := finance.NewExpense(tenantID, req.Description, req.Amount, req.ExpenseDate, req.AffectsNetValue)
	if err != nil {
		return nil, err
	}
	e.SetCreatedBy(userID)
	e.WorkOrderID = req.WorkOrderID
	e.UserID = req.UserID
	e.Category = req.Category

	err = s.tx.Execute(ctx, func(repos txn.Repositories) error {
		if req.WorkOrderID != nil {
			if _, err := repos.WorkOrders().FindByID(ctx, tenantID, *req.WorkOrderID); err != nil {
				return crossTenant(err, "work_order_id", "Work order not found")
			}
		}
		return repos.Expenses().Save(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// Approve approves a pending expense
func (s *ExpenseService) Approve(ctx context.Context, tenantID, userID, id uuid.UUID) (*finance.Expense, error) {
	return s.decide(ctx, tenantID, id, func(e *finance.Expense) error {
		return e.Approve(userID)
	})
}

// Reject rejects a pending expense
func (s *ExpenseService) Reject(ctx context.Context, tenantID, userID, id uuid.UUID, req RejectExpenseRequest) (*finance.Expense, error) {
	return s.decide(ctx, tenantID, id, func(e *finance.Expense) error {
		return e.Reject(userID, req.Reason)
	})
}

func (s *ExpenseService) decide(ctx context.Context, tenantID, id uuid.UUID, fn func(*finance.Expense) error) (*finance.Expense, error) {
	var e *finance.Expense
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		e, err = repos.Expenses().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := fn(e); err != nil {
			return err
		}
		return repos.Expenses().Save(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("expense reviewed",
		zap.String("expense_id", e.ID.String()),
		zap.String("status", string(e.Status)))
	return e, nil
}

// Get returns one expense
func (s *ExpenseService) Get(ctx context.Context, tenantID, id uuid.UUID) (*finance.Expense, error) {
	return s.repos.Expenses().FindByID(ctx, tenantID, id)
}

// List returns a page of expenses, optionally of one work order
func (s *ExpenseService) List(ctx context.Context, tenantID uuid.UUID, f ExpenseListFilter) (shared.Paginated[finance.Expense], error) {
	filter := shared.Filter{Page: f.Page, PageSize: f.PageSize, Search: f.Search}
	rows, total, err := s.repos.Expenses().FindAll(ctx, tenantID, f.WorkOrderID, filter)
	if err != nil {
		return shared.Paginated[finance.Expense]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), filter.Limit()), nil
}

// Delete removes an expense that is not approved
func (s *ExpenseService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.tx.Execute(ctx, func(repos txn.Repositories) error {
		e, err := repos.Expenses().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if e.Status == finance.ExpenseStatusApproved {
			return shared.NewDomainError(shared.CodeInvalidState, "Approved expenses cannot be deleted")
		}
		return repos.Expenses().Delete(ctx, tenantID, id)
	})
}
