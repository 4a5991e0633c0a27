package finance

import (
	"context"
	"time"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PayableService handles accounts payable
type PayableService struct {
	tx     txn.TransactionScope
	repos  txn.Repositories
	logger *zap.Logger
	now    func() time.Time
}

// NewPayableService creates a payable service
func NewPayableService(tx txn.TransactionScope, repos txn.Repositories, logger *zap.Logger) *PayableService {
	return &PayableService{tx: tx, repos: repos, logger: logger, now: time.Now}
}

// Create registers a payable
func (s *PayableService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreatePayableRequest) (*finance.AccountPayable, error) {
	ap, err := finance.NewAccountPayable(tenantID, req.SupplierName, req.Description, req.Amount, req.DueDate)
	if err != nil {
		return nil, err
	}
	ap.SetCreatedBy(userID)
	ap.Category = req.Category
	ap.PaymentMethod = req.PaymentMethod
	ap.Notes = req.Notes
	ap.Refresh(s.now())

	if err := s.repos.Payables().Save(ctx, ap); err != nil {
		return nil, err
	}
	return ap, nil
}

// Update edits an open payable
func (s *PayableService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateDocumentRequest) (*finance.AccountPayable, error) {
	var ap *finance.AccountPayable
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		ap, err = repos.Payables().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := applyLedgerUpdate(&ap.Ledger, req, s.now()); err != nil {
			return err
		}
		if req.Description != nil {
			ap.Description = *req.Description
		}
		if req.SupplierName != nil {
			ap.SupplierName = *req.SupplierName
		}
		if req.Category != nil {
			ap.Category = *req.Category
		}
		if req.PaymentMethod != nil {
			ap.PaymentMethod = *req.PaymentMethod
		}
		if req.Notes != nil {
			ap.Notes = *req.Notes
		}
		ap.Touch()
		return repos.Payables().Save(ctx, ap)
	})
	if err != nil {
		return nil, err
	}
	return ap, nil
}

// Get returns one payable
func (s *PayableService) Get(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountPayable, error) {
	return s.repos.Payables().FindByID(ctx, tenantID, id)
}

// List returns a page of payables
func (s *PayableService) List(ctx context.Context, tenantID uuid.UUID, f DocumentListFilter) (shared.Paginated[finance.AccountPayable], error) {
	filter, err := documentFilter(f)
	if err != nil {
		return shared.Paginated[finance.AccountPayable]{}, err
	}
	filter.CustomerID = nil
	filter.WorkOrderID = nil
	rows, total, err := s.repos.Payables().FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[finance.AccountPayable]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), filter.Limit()), nil
}

// Pay records an outgoing payment
func (s *PayableService) Pay(ctx context.Context, tenantID, userID, id uuid.UUID, req PayRequest) (*finance.Payment, error) {
	var payment *finance.Payment
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		ap, err := repos.Payables().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		payment, err = ap.Pay(req.Amount, req.PaymentMethod, req.PaymentDate, &userID, req.Notes, s.now())
		if err != nil {
			return err
		}
		if err := repos.Payments().Save(ctx, payment); err != nil {
			return err
		}
		return repos.Payables().Save(ctx, ap)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("payable payment recorded",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payable_id", id.String()),
		zap.String("amount", payment.Amount.String()))
	return payment, nil
}

// Cancel cancels an unpaid payable
func (s *PayableService) Cancel(ctx context.Context, tenantID, id uuid.UUID) (*finance.AccountPayable, error) {
	var ap *finance.AccountPayable
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		ap, err = repos.Payables().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := ap.Cancel(); err != nil {
			return err
		}
		return repos.Payables().Save(ctx, ap)
	})
	if err != nil {
		return nil, err
	}
	return ap, nil
}

// Delete soft-deletes a payable without payments
func (s *PayableService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.tx.Execute(ctx, func(repos txn.Repositories) error {
		if _, err := repos.Payables().FindByID(ctx, tenantID, id); err != nil {
			return err
		}
		count, err := repos.Payments().CountByDocument(ctx, tenantID, finance.PayableTypePayable, id)
		if err != nil {
			return err
		}
		if count > 0 {
			return shared.NewDomainError(shared.CodeConflict,
				"Payable has payments; reverse them before deleting").WithDetail("payments", count)
		}
		return repos.Payables().Delete(ctx, tenantID, id)
	})
}

// Summary aggregates open, overdue and this month's figures
func (s *PayableService) Summary(ctx context.Context, tenantID uuid.UUID) (finance.Summary, error) {
	return s.repos.Payables().Summary(ctx, tenantID, s.now())
}

// RefreshOverdue marks open payables whose due date has passed as overdue
func (s *PayableService) RefreshOverdue(ctx context.Context, tenantID uuid.UUID) (int, error) {
	repo := s.repos.Payables()
	return refreshOverdue(ctx, s.now(),
		func(f finance.DocumentFilter) ([]finance.AccountPayable, int64, error) {
			return repo.FindAll(ctx, tenantID, f)
		},
		func(ap *finance.AccountPayable) *finance.Ledger { return &ap.Ledger },
		func(ap *finance.AccountPayable) error { return repo.Save(ctx, ap) },
	)
}
