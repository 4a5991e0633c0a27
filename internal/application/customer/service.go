// Package customer manages customers and the equipments they own.
package customer

import (
	"context"
	"errors"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/customer"
	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/workorder"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles customer and equipment CRUD
type Service struct {
	tx        txn.TransactionScope
	repos     txn.Repositories
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewService creates a customer service
func NewService(tx txn.TransactionScope, repos txn.Repositories, logger *zap.Logger) *Service {
	return &Service{tx: tx, repos: repos, logger: logger}
}

// SetEventPublisher sets the publisher for CustomerCreated events
func (s *Service) SetEventPublisher(p shared.EventPublisher) {
	s.publisher = p
}

// Create registers a customer. Documents are unique per tenant.
func (s *Service) Create(ctx context.Context, tenantID, userID uuid.UUID, req CustomerRequest) (*customer.Customer, error) {
	c, err := customer.NewCustomer(tenantID, req.Name, req.Document)
	if err != nil {
		return nil, err
	}
	if err := s.apply(c, req); err != nil {
		return nil, err
	}
	c.SetCreatedBy(userID)

	err = s.tx.Execute(ctx, func(repos txn.Repositories) error {
		if err := ensureDocumentFree(ctx, repos, tenantID, c.Document, uuid.Nil); err != nil {
			return err
		}
		return repos.Customers().Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	txn.PublishAfterCommit(ctx, s.publisher, s.logger, c)
	return c, nil
}

// Update replaces the editable fields of a customer
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req CustomerRequest) (*customer.Customer, error) {
	var c *customer.Customer
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		c, err = repos.Customers().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := s.apply(c, req); err != nil {
			return err
		}
		if err := ensureDocumentFree(ctx, repos, tenantID, c.Document, c.ID); err != nil {
			return err
		}
		return repos.Customers().Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) apply(c *customer.Customer, req CustomerRequest) error {
	if err := c.Update(req.Name, req.Document, req.Email, req.Phone); err != nil {
		return err
	}
	c.SetAddress(req.Address, req.City, req.State)
	c.Notes = req.Notes
	if req.Active != nil {
		c.Active = *req.Active
	}
	return nil
}

func ensureDocumentFree(ctx context.Context, repos txn.Repositories, tenantID uuid.UUID, document string, self uuid.UUID) error {
	if document == "" {
		return nil
	}
	existing, err := repos.Customers().FindByDocument(ctx, tenantID, document)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return shared.NewDomainError(shared.CodeConflict, "A customer with this document already exists").
			WithDetail("field", "document")
	}
	return nil
}

// Get returns one customer
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*customer.Customer, error) {
	return s.repos.Customers().FindByID(ctx, tenantID, id)
}

// List returns a page of customers
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, f shared.Filter) (shared.Paginated[customer.Customer], error) {
	rows, total, err := s.repos.Customers().FindAll(ctx, tenantID, f)
	if err != nil {
		return shared.Paginated[customer.Customer]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), f.Limit()), nil
}

// Delete soft-deletes a customer without work orders or receivables
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.tx.Execute(ctx, func(repos txn.Repositories) error {
		if _, err := repos.Customers().FindByID(ctx, tenantID, id); err != nil {
			return err
		}
		one := shared.Filter{PageSize: 1}
		_, orders, err := repos.WorkOrders().FindAll(ctx, tenantID, workorder.Filter{Filter: one, CustomerID: &id})
		if err != nil {
			return err
		}
		_, receivables, err := repos.Receivables().FindAll(ctx, tenantID, finance.DocumentFilter{Filter: one, CustomerID: &id})
		if err != nil {
			return err
		}
		if orders > 0 || receivables > 0 {
			return shared.NewDomainError(shared.CodeHasDependencies, "Customer has work orders or receivables").
				WithDetail("work_orders", orders).
				WithDetail("receivables", receivables)
		}
		return repos.Customers().Delete(ctx, tenantID, id)
	})
}

// CreateEquipment registers an equipment for a customer of the tenant
func (s *Service) CreateEquipment(ctx context.Context, tenantID, userID uuid.UUID, req EquipmentRequest) (*customer.Equipment, error) {
	e, err := customer.NewEquipment(tenantID, req.CustomerID, req.SerialNumber, req.Model, req.Manufacturer)
	if err != nil {
		return nil, err
	}
	e.Description = req.Description
	e.SetCreatedBy(userID)

	err = s.tx.Execute(ctx, func(repos txn.Repositories) error {
		if err := ensureOwner(ctx, repos, tenantID, req.CustomerID); err != nil {
			return err
		}
		if err := ensureSerialFree(ctx, repos, tenantID, e.SerialNumber, uuid.Nil); err != nil {
			return err
		}
		return repos.Equipments().Save(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

// UpdateEquipment replaces the editable fields of an equipment
func (s *Service) UpdateEquipment(ctx context.Context, tenantID, id uuid.UUID, req EquipmentRequest) (*customer.Equipment, error) {
	var e *customer.Equipment
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		e, err = repos.Equipments().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		// validates the new values before they are copied
		if _, err := customer.NewEquipment(tenantID, req.CustomerID, req.SerialNumber, req.Model, req.Manufacturer); err != nil {
			return err
		}
		if err := ensureOwner(ctx, repos, tenantID, req.CustomerID); err != nil {
			return err
		}
		if err := ensureSerialFree(ctx, repos, tenantID, req.SerialNumber, e.ID); err != nil {
			return err
		}
		e.CustomerID = req.CustomerID
		e.SerialNumber = req.SerialNumber
		e.Model = req.Model
		e.Manufacturer = req.Manufacturer
		e.Description = req.Description
		if req.Active != nil {
			e.Active = *req.Active
		}
		e.Touch()
		return repos.Equipments().Save(ctx, e)
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func ensureOwner(ctx context.Context, repos txn.Repositories, tenantID, customerID uuid.UUID) error {
	if _, err := repos.Customers().FindByID(ctx, tenantID, customerID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewValidationError("customer_id", "Customer not found")
		}
		return err
	}
	return nil
}

func ensureSerialFree(ctx context.Context, repos txn.Repositories, tenantID uuid.UUID, serial string, self uuid.UUID) error {
	existing, err := repos.Equipments().FindBySerial(ctx, tenantID, serial)
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID != self {
		return shared.NewDomainError(shared.CodeConflict, "An equipment with this serial number already exists").
			WithDetail("field", "serial_number")
	}
	return nil
}

// GetEquipment returns one equipment
func (s *Service) GetEquipment(ctx context.Context, tenantID, id uuid.UUID) (*customer.Equipment, error) {
	return s.repos.Equipments().FindByID(ctx, tenantID, id)
}

// ListEquipments returns a page of equipments, optionally of one customer
func (s *Service) ListEquipments(ctx context.Context, tenantID uuid.UUID, f EquipmentListFilter) (shared.Paginated[customer.Equipment], error) {
	filter := shared.Filter{Page: f.Page, PageSize: f.PageSize, Search: f.Search}
	rows, total, err := s.repos.Equipments().FindAll(ctx, tenantID, f.CustomerID, filter)
	if err != nil {
		return shared.Paginated[customer.Equipment]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), filter.Limit()), nil
}

// DeleteEquipment soft-deletes an equipment
func (s *Service) DeleteEquipment(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.repos.Equipments().Delete(ctx, tenantID, id)
}
