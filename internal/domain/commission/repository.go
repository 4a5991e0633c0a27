package commission

import (
	"context"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RuleRepository persists commission rules
type RuleRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Rule, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Rule, int64, error)
	// FindActive returns active rules for a trigger ordered by priority
	FindActive(ctx context.Context, tenantID uuid.UUID, trigger Trigger) ([]Rule, error)
	Save(ctx context.Context, rule *Rule) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// CampaignRepository persists campaigns
type CampaignRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Campaign, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]Campaign, int64, error)
	// FindRunning returns active campaigns whose window contains at
	FindRunning(ctx context.Context, tenantID uuid.UUID, at time.Time) ([]Campaign, error)
	Save(ctx context.Context, campaign *Campaign) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

// EventFilter defines filtering options for commission event queries
type EventFilter struct {
	shared.Filter
	UserID       *uuid.UUID
	WorkOrderID  *uuid.UUID
	Status       *EventStatus
	SettlementID *uuid.UUID
}

// UserTotals aggregates a user's commissions by status
type UserTotals struct {
	Pending  decimal.Decimal `json:"pending"`
	Approved decimal.Decimal `json:"approved"`
	Paid     decimal.Decimal `json:"paid"`
}

// EventRepository persists commission events
type EventRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CommissionEvent, error)
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]CommissionEvent, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter EventFilter) ([]CommissionEvent, int64, error)
	FindByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID, status *EventStatus) ([]CommissionEvent, error)
	FindBySettlement(ctx context.Context, tenantID, settlementID uuid.UUID) ([]CommissionEvent, error)
	// FindSettleable returns approved, unsettled events of a user whose reference date
	// COALESCE(work order completed_at, work order received_at, event created_at) is in [from, to)
	FindSettleable(ctx context.Context, tenantID, userID uuid.UUID, from, to time.Time) ([]CommissionEvent, error)
	ExistsForTrigger(ctx context.Context, tenantID, workOrderID uuid.UUID, trigger Trigger) (bool, error)
	CountByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) (int64, error)
	Totals(ctx context.Context, tenantID, userID uuid.UUID) (UserTotals, error)
	Save(ctx context.Context, event *CommissionEvent) error
	SaveAll(ctx context.Context, events []*CommissionEvent) error
}

// SettlementRepository persists settlements
type SettlementRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Settlement, error)
	FindByUserPeriod(ctx context.Context, tenantID, userID uuid.UUID, period Period) (*Settlement, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter SettlementFilter) ([]Settlement, int64, error)
	Save(ctx context.Context, settlement *Settlement) error
}

// SettlementFilter defines filtering options for settlement queries
type SettlementFilter struct {
	shared.Filter
	UserID *uuid.UUID
	Period *Period
	Status *SettlementStatus
}
