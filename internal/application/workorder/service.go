// Package workorder implements work order use cases: creation, editing,
// status transitions and deletion.
package workorder

import (
	"context"
	"errors"
	"fmt"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/commission"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/workorder"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var sortableFields = map[string]bool{
	"number": true, "status": true, "total": true, "received_at": true, "created_at": true, "updated_at": true,
}

// Service handles work order operations
type Service struct {
	tx        txn.TransactionScope
	repos     txn.Repositories
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates a work order service
func NewService(tx txn.TransactionScope, repos txn.Repositories, logger *zap.Logger) *Service {
	return &Service{tx: tx, repos: repos, logger: logger}
}

// SetEventPublisher sets the publisher used after commits
func (s *Service) SetEventPublisher(publisher shared.EventPublisher) {
	s.publisher = publisher
}

// Create opens a work order with the next OS number of the tenant
func (s *Service) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateWorkOrderRequest) (*WorkOrderResponse, error) {
	items, err := buildItems(req.Items)
	if err != nil {
		return nil, err
	}

	var wo *workorder.WorkOrder
	err = s.tx.Execute(ctx, func(repos txn.Repositories) error {
		if err := ensureCustomer(ctx, repos, tenantID, req.CustomerID); err != nil {
			return err
		}
		if req.EquipmentID != nil {
			if err := ensureEquipment(ctx, repos, tenantID, *req.EquipmentID, req.CustomerID); err != nil {
				return err
			}
		}

		number, err := repos.WorkOrders().NextNumber(ctx, tenantID)
		if err != nil {
			return err
		}
		wo, err = workorder.NewWorkOrder(tenantID, req.CustomerID, number, req.Description)
		if err != nil {
			return err
		}
		wo.SetCreatedBy(userID)
		wo.EquipmentID = req.EquipmentID
		wo.IsWarranty = req.IsWarranty
		if req.Priority != "" {
			wo.Priority = req.Priority
		}
		if req.ReceivedAt != nil {
			wo.ReceivedAt = *req.ReceivedAt
		}
		wo.AssignTeam(req.AssignedTo, req.TechnicianIDs, req.SellerID, req.DriverID)
		if err := wo.SetPricing(req.DisplacementValue, req.Discount, req.DiscountPercentage); err != nil {
			return err
		}
		if err := wo.SetItems(items); err != nil {
			return err
		}
		return repos.WorkOrders().Save(ctx, wo)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("work order created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("work_order_id", wo.ID.String()),
		zap.String("number", wo.Number))
	resp := ToWorkOrderResponse(wo)
	return &resp, nil
}

// Update edits items, pricing and team of a work order
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateWorkOrderRequest) (*WorkOrderResponse, error) {
	var items []workorder.Item
	if req.Items != nil {
		var err error
		if items, err = buildItems(req.Items); err != nil {
			return nil, err
		}
	}

	var wo *workorder.WorkOrder
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		wo, err = repos.WorkOrders().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if wo.Status == workorder.StatusInvoiced || wo.Status == workorder.StatusCancelled {
			return shared.NewDomainError(shared.CodeInvalidState,
				fmt.Sprintf("Cannot edit a %s work order", wo.Status))
		}
		if req.Description != nil {
			wo.Description = *req.Description
		}
		if req.Priority != nil {
			wo.Priority = *req.Priority
		}
		if req.IsWarranty != nil {
			wo.IsWarranty = *req.IsWarranty
		}
		if req.AssignedTo != nil || req.TechnicianIDs != nil || req.SellerID != nil || req.DriverID != nil {
			assigned, techs, seller, driver := wo.AssignedTo, wo.TechnicianIDs, wo.SellerID, wo.DriverID
			if req.AssignedTo != nil {
				assigned = req.AssignedTo
			}
			if req.TechnicianIDs != nil {
				techs = req.TechnicianIDs
			}
			if req.SellerID != nil {
				seller = req.SellerID
			}
			if req.DriverID != nil {
				driver = req.DriverID
			}
			wo.AssignTeam(assigned, techs, seller, driver)
		}
		if req.DisplacementValue != nil || req.Discount != nil || req.DiscountPercentage != nil {
			displacement, discount, pct := wo.DisplacementValue, wo.Discount, wo.DiscountPercentage
			if req.DisplacementValue != nil {
				displacement = *req.DisplacementValue
			}
			if req.Discount != nil {
				discount = *req.Discount
			}
			if req.DiscountPercentage != nil {
				pct = *req.DiscountPercentage
			}
			if err := wo.SetPricing(displacement, discount, pct); err != nil {
				return err
			}
		}
		if items != nil {
			if err := wo.SetItems(items); err != nil {
				return err
			}
		}
		return repos.WorkOrders().Save(ctx, wo)
	})
	if err != nil {
		return nil, err
	}
	resp := ToWorkOrderResponse(wo)
	return &resp, nil
}

// Get returns one work order
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*WorkOrderResponse, error) {
	wo, err := s.repos.WorkOrders().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	resp := ToWorkOrderResponse(wo)
	return &resp, nil
}

// List returns a page of work orders
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, f ListFilter) (shared.Paginated[WorkOrderResponse], error) {
	filter := workorder.Filter{
		Filter: shared.Filter{
			Page:     f.Page,
			PageSize: f.PageSize,
			Search:   f.Search,
			OrderBy:  f.OrderBy,
			OrderDir: f.OrderDir,
		},
		CustomerID: f.CustomerID,
		AssignedTo: f.AssignedTo,
	}
	if f.OrderBy != "" && !sortableFields[f.OrderBy] {
		return shared.Paginated[WorkOrderResponse]{}, shared.NewValidationError("order_by", "Unsupported sort field")
	}
	if f.Status != "" {
		st := workorder.Status(f.Status)
		if !st.IsValid() {
			return shared.Paginated[WorkOrderResponse]{}, shared.NewValidationError("status", "Unknown status")
		}
		filter.Status = &st
	}

	rows, total, err := s.repos.WorkOrders().FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[WorkOrderResponse]{}, err
	}
	items := make([]WorkOrderResponse, len(rows))
	for i := range rows {
		items[i] = ToWorkOrderResponse(&rows[i])
	}
	return shared.NewPaginated(items, total, max(f.Page, 1), filter.Limit()), nil
}

// ChangeStatus applies a transition from the status table and publishes its event after commit
func (s *Service) ChangeStatus(ctx context.Context, tenantID, userID, id uuid.UUID, req ChangeStatusRequest) (*WorkOrderResponse, error) {
	var wo *workorder.WorkOrder
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		wo, err = repos.WorkOrders().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := wo.TransitionTo(workorder.Status(req.Status), &userID, req.Notes); err != nil {
			return err
		}
		return repos.WorkOrders().Save(ctx, wo)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("work order status changed",
		zap.String("work_order_id", wo.ID.String()),
		zap.String("status", string(wo.Status)))
	txn.PublishAfterCommit(ctx, s.publisher, s.logger, wo)
	resp := ToWorkOrderResponse(wo)
	return &resp, nil
}

// Reopen moves a cancelled work order back to open
func (s *Service) Reopen(ctx context.Context, tenantID, userID, id uuid.UUID) (*WorkOrderResponse, error) {
	var wo *workorder.WorkOrder
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		wo, err = repos.WorkOrders().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := wo.Reopen(&userID); err != nil {
			return err
		}
		return repos.WorkOrders().Save(ctx, wo)
	})
	if err != nil {
		return nil, err
	}
	txn.PublishAfterCommit(ctx, s.publisher, s.logger, wo)
	resp := ToWorkOrderResponse(wo)
	return &resp, nil
}

// Delete soft deletes a work order that is not locked by its status and
// is not referenced by receivables, invoices or commission events
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.tx.Execute(ctx, func(repos txn.Repositories) error {
		wo, err := repos.WorkOrders().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := wo.EnsureDeletable(); err != nil {
			return err
		}

		refs := map[string]func() (int64, error){
			"receivables": func() (int64, error) { return repos.Receivables().CountByWorkOrder(ctx, tenantID, id) },
			"invoices":    func() (int64, error) { return repos.Invoices().CountByWorkOrder(ctx, tenantID, id) },
			"commissions": func() (int64, error) { return repos.CommissionEvents().CountByWorkOrder(ctx, tenantID, id) },
		}
		for _, name := range []string{"receivables", "invoices", "commissions"} {
			n, err := refs[name]()
			if err != nil {
				return err
			}
			if n > 0 {
				return shared.NewDomainError(shared.CodeHasDependencies,
					fmt.Sprintf("Work order is referenced by %d %s", n, name)).
					WithDetail("dependency", name)
			}
		}
		return repos.WorkOrders().Delete(ctx, tenantID, id)
	})
}

// History returns the status changes of a work order, oldest first
func (s *Service) History(ctx context.Context, tenantID, id uuid.UUID) ([]workorder.StatusChange, error) {
	if _, err := s.repos.WorkOrders().FindByID(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.repos.WorkOrders().History(ctx, tenantID, id)
}

// CommissionEvents lists the commission events generated for a work order
func (s *Service) CommissionEvents(ctx context.Context, tenantID, id uuid.UUID) ([]commission.CommissionEvent, error) {
	if _, err := s.repos.WorkOrders().FindByID(ctx, tenantID, id); err != nil {
		return nil, err
	}
	return s.repos.CommissionEvents().FindByWorkOrder(ctx, tenantID, id, nil)
}

func buildItems(inputs []ItemInput) ([]workorder.Item, error) {
	items := make([]workorder.Item, 0, len(inputs))
	for i, in := range inputs {
		item, err := workorder.NewItem(workorder.ItemType(in.Type), in.Description, in.Quantity, in.UnitPrice, in.CostPrice, in.Discount)
		if err != nil {
			var de *shared.DomainError
			if errors.As(err, &de) {
				return nil, de.WithDetail("item", i)
			}
			return nil, err
		}
		item.ReferenceID = in.ReferenceID
		items = append(items, item)
	}
	return items, nil
}

// ensureCustomer turns a missing or foreign customer into a validation error
func ensureCustomer(ctx context.Context, repos txn.Repositories, tenantID, customerID uuid.UUID) error {
	if _, err := repos.Customers().FindByID(ctx, tenantID, customerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("customer_id", "Customer not found")
		}
		return err
	}
	return nil
}

func ensureEquipment(ctx context.Context, repos txn.Repositories, tenantID, equipmentID, customerID uuid.UUID) error {
	eq, err := repos.Equipments().FindByID(ctx, tenantID, equipmentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("equipment_id", "Equipment not found")
		}
		return err
	}
	if eq.CustomerID != customerID {
		return shared.NewValidationError("equipment_id", "Equipment belongs to another customer")
	}
	return nil
}
