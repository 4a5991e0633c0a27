package finance

import (
	"context"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/workorder"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// InvoiceService manages invoices and keeps linked work orders in step
type InvoiceService struct {
	tx        txn.TransactionScope
	repos     txn.Repositories
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewInvoiceService creates an invoice service
func NewInvoiceService(tx txn.TransactionScope, repos txn.Repositories, logger *zap.Logger) *InvoiceService {
	return &InvoiceService{tx: tx, repos: repos, logger: logger}
}

// SetEventPublisher sets the publisher used for work order events
func (s *InvoiceService) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Create issues a draft invoice. A delivered work order becomes invoiced.
func (s *InvoiceService) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateInvoiceRequest) (*finance.Invoice, error) {
	var (
		inv *finance.Invoice
		wo  *workorder.WorkOrder
	)
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var (
			customerID uuid.UUID
			total      decimal.Decimal
		)
		if req.WorkOrderID != nil {
			var err error
			wo, err = repos.WorkOrders().FindByID(ctx, tenantID, *req.WorkOrderID)
			if err != nil {
				return crossTenant(err, "work_order_id", "Work order not found")
			}
			if wo.Status == workorder.StatusCancelled {
				return shared.NewDomainError(shared.CodeInvalidState, "Cannot invoice a cancelled work order")
			}
			customerID, total = wo.CustomerID, wo.Total
		}
		if req.CustomerID != nil {
			customerID = *req.CustomerID
		}
		if req.Total != nil {
			total = *req.Total
		}
		if customerID == uuid.Nil {
			return shared.NewValidationError("customer_id", "Customer is required")
		}
		if _, err := repos.Customers().FindByID(ctx, tenantID, customerID); err != nil {
			return crossTenant(err, "customer_id", "Customer not found")
		}

		number, err := repos.Invoices().NextNumber(ctx, tenantID)
		if err != nil {
			return err
		}
		inv, err = finance.NewInvoice(tenantID, customerID, number, total)
		if err != nil {
			return err
		}
		inv.SetCreatedBy(userID)
		inv.WorkOrderID = req.WorkOrderID
		inv.DueDate = req.DueDate
		inv.Observation = req.Observation
		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return err
		}

		if wo == nil || wo.Status != workorder.StatusDelivered {
			return nil
		}
		if err := wo.TransitionTo(workorder.StatusInvoiced, &userID, "invoice "+number); err != nil {
			return err
		}
		return repos.WorkOrders().Save(ctx, wo)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("invoice_id", inv.ID.String()),
		zap.String("number", inv.Number))
	s.publishWorkOrder(ctx, wo)
	return inv, nil
}

// Update edits total, due date and observation
func (s *InvoiceService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceRequest) (*finance.Invoice, error) {
	var inv *finance.Invoice
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		inv, err = repos.Invoices().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := inv.Update(req.Total, req.DueDate, req.Observation); err != nil {
			return err
		}
		return repos.Invoices().Save(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

// UpdateStatus moves an invoice along its lifecycle. Cancelling the last
// active invoice of an invoiced work order reverts the order to delivered.
func (s *InvoiceService) UpdateStatus(ctx context.Context, tenantID, userID, id uuid.UUID, req InvoiceStatusRequest) (*finance.Invoice, error) {
	var (
		inv *finance.Invoice
		wo  *workorder.WorkOrder
	)
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		inv, err = repos.Invoices().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := inv.TransitionTo(finance.InvoiceStatus(req.Status)); err != nil {
			return err
		}
		if err := repos.Invoices().Save(ctx, inv); err != nil {
			return err
		}
		if inv.Status != finance.InvoiceStatusCancelled {
			return nil
		}
		wo, err = revertIfLastInvoice(ctx, repos, inv, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publishWorkOrder(ctx, wo)
	return inv, nil
}

// Delete removes a draft or cancelled invoice
func (s *InvoiceService) Delete(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	var wo *workorder.WorkOrder
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		inv, err := repos.Invoices().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := inv.EnsureDeletable(); err != nil {
			return err
		}
		if err := repos.Invoices().Delete(ctx, tenantID, id); err != nil {
			return err
		}
		if !inv.IsActive() {
			return nil
		}
		wo, err = revertIfLastInvoice(ctx, repos, inv, userID)
		return err
	})
	if err != nil {
		return err
	}
	s.publishWorkOrder(ctx, wo)
	return nil
}

// revertIfLastInvoice returns the work order of inv to delivered when no
// active invoice is left for it. It returns the reverted order, if any.
func revertIfLastInvoice(ctx context.Context, repos txn.Repositories, inv *finance.Invoice, userID uuid.UUID) (*workorder.WorkOrder, error) {
	if inv.WorkOrderID == nil {
		return nil, nil
	}
	active, err := repos.Invoices().CountActiveByWorkOrder(ctx, inv.TenantID, *inv.WorkOrderID)
	if err != nil || active > 0 {
		return nil, err
	}
	wo, err := repos.WorkOrders().FindByID(ctx, inv.TenantID, *inv.WorkOrderID)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	if wo.Status != workorder.StatusInvoiced {
		return nil, nil
	}
	if err := wo.RevertInvoicing(&userID); err != nil {
		return nil, err
	}
	return wo, repos.WorkOrders().Save(ctx, wo)
}

func (s *InvoiceService) publishWorkOrder(ctx context.Context, wo *workorder.WorkOrder) {
	if wo == nil {
		return
	}
	txn.PublishAfterCommit(ctx, s.publisher, s.logger, wo)
}

// Get returns one invoice
func (s *InvoiceService) Get(ctx context.Context, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	return s.repos.Invoices().FindByID(ctx, tenantID, id)
}

// List returns a page of invoices
func (s *InvoiceService) List(ctx context.Context, tenantID uuid.UUID, f shared.Filter) (shared.Paginated[finance.Invoice], error) {
	rows, total, err := s.repos.Invoices().FindAll(ctx, tenantID, f)
	if err != nil {
		return shared.Paginated[finance.Invoice]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), f.Limit()), nil
}
