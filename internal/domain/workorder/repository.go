package workorder

import (
	"context"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter defines filtering options for work order queries
type Filter struct {
	shared.Filter
	Status     *Status
	CustomerID *uuid.UUID
	AssignedTo *uuid.UUID
}

// Repository defines persistence for work orders. All methods are tenant scoped.
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*WorkOrder, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter Filter) ([]WorkOrder, int64, error)
	// Save creates or updates the order, its items and any new history rows
	Save(ctx context.Context, wo *WorkOrder) error
	// Delete soft deletes the order
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	History(ctx context.Context, tenantID, id uuid.UUID) ([]StatusChange, error)
	// NextNumber returns the next OS-%06d number for the tenant
	NextNumber(ctx context.Context, tenantID uuid.UUID) (string, error)
}
