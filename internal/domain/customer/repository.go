package customer

import (
	"context"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository persists customers
type Repository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Customer, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Customer, int64, error)
	FindByDocument(ctx context.Context, tenantID uuid.UUID, document string) (*Customer, error)
	Save(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// EquipmentRepository persists equipments
type EquipmentRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Equipment, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, customerID *uuid.UUID, filter shared.Filter) ([]Equipment, int64, error)
	FindBySerial(ctx context.Context, tenantID uuid.UUID, serial string) (*Equipment, error)
	Save(ctx context.Context, e *Equipment) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}
