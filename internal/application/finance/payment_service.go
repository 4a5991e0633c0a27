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

// PaymentService lists and reverses payments
type PaymentService struct {
	tx     txn.TransactionScope
	repos  txn.Repositories
	logger *zap.Logger
	now    func() time.Time
}

// NewPaymentService creates a payment service
func NewPaymentService(tx txn.TransactionScope, repos txn.Repositories, logger *zap.Logger) *PaymentService {
	return &PaymentService{tx: tx, repos: repos, logger: logger, now: time.Now}
}

// Get returns one payment
func (s *PaymentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	return s.repos.Payments().FindByID(ctx, tenantID, id)
}

// List returns a page of payments, optionally of one document kind
func (s *PaymentService) List(ctx context.Context, tenantID uuid.UUID, f PaymentListFilter) (shared.Paginated[finance.Payment], error) {
	var payableType *finance.PayableType
	switch finance.PayableType(f.PayableType) {
	case "":
	case finance.PayableTypeReceivable, finance.PayableTypePayable:
		pt := finance.PayableType(f.PayableType)
		payableType = &pt
	default:
		return shared.Paginated[finance.Payment]{}, shared.NewValidationError("payable_type", "Unknown payable type")
	}
	filter := shared.Filter{Page: f.Page, PageSize: f.PageSize, Search: f.Search}
	rows, total, err := s.repos.Payments().FindAll(ctx, tenantID, payableType, filter)
	if err != nil {
		return shared.Paginated[finance.Payment]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), filter.Limit()), nil
}

// ForDocument returns the payments of a receivable or payable
func (s *PaymentService) ForDocument(ctx context.Context, tenantID uuid.UUID, payableType finance.PayableType, id uuid.UUID) ([]finance.Payment, error) {
	return s.repos.Payments().FindByDocument(ctx, tenantID, payableType, id)
}

// Reverse deletes a payment and recomputes the paid amount and status of its document
func (s *PaymentService) Reverse(ctx context.Context, tenantID, id uuid.UUID) (*ReversalResult, error) {
	var result *ReversalResult
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		payment, err := repos.Payments().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := repos.Payments().Delete(ctx, tenantID, id); err != nil {
			return err
		}
		paid, err := repos.Payments().SumByDocument(ctx, tenantID, payment.PayableType, payment.PayableID)
		if err != nil {
			return err
		}

		result = &ReversalResult{PayableType: payment.PayableType, PayableID: payment.PayableID}
		switch payment.PayableType {
		case finance.PayableTypeReceivable:
			ar, err := repos.Receivables().FindByID(ctx, tenantID, payment.PayableID)
			if err != nil {
				return err
			}
			ar.RecomputePaid(paid, s.now())
			ar.Touch()
			result.AmountPaid, result.Status = ar.AmountPaid, ar.Status
			return repos.Receivables().Save(ctx, ar)
		case finance.PayableTypePayable:
			ap, err := repos.Payables().FindByID(ctx, tenantID, payment.PayableID)
			if err != nil {
				return err
			}
			ap.RecomputePaid(paid, s.now())
			ap.Touch()
			result.AmountPaid, result.Status = ap.AmountPaid, ap.Status
			return repos.Payables().Save(ctx, ap)
		}
		return shared.NewDomainError(shared.CodeInvalidState, "Payment is not linked to a known document")
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment reversed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("payment_id", id.String()),
		zap.String("payable_type", string(result.PayableType)),
		zap.String("status", string(result.Status)))
	return result, nil
}
