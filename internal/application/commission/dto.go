package commission

import (
	"time"

	"github.com/calibra/backend/internal/domain/commission"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateRuleRequest represents a request to create a commission rule
type CreateRuleRequest struct {
	UserID          *uuid.UUID        `json:"user_id"`
	Name            string            `json:"name" binding:"required,max=255"`
	Value           decimal.Decimal   `json:"value"`
	CalculationType string            `json:"calculation_type" binding:"required"`
	AppliesToRole   string            `json:"applies_to_role" binding:"required,oneof=technician seller driver"`
	AppliesWhen     string            `json:"applies_when" binding:"required,oneof=os_completed os_invoiced installment_paid"`
	Tiers           []commission.Tier `json:"tiers"`
	Formula         string            `json:"formula" binding:"max=500"`
	Priority        int               `json:"priority"`
	Active          *bool             `json:"active"`
}

// UpdateRuleRequest edits a rule. Nil fields are left unchanged.
type UpdateRuleRequest struct {
	UserID          *uuid.UUID        `json:"user_id"`
	Name            *string           `json:"name" binding:"omitempty,max=255"`
	Value           *decimal.Decimal  `json:"value"`
	CalculationType *string           `json:"calculation_type"`
	AppliesToRole   *string           `json:"applies_to_role" binding:"omitempty,oneof=technician seller driver"`
	AppliesWhen     *string           `json:"applies_when" binding:"omitempty,oneof=os_completed os_invoiced installment_paid"`
	Tiers           []commission.Tier `json:"tiers"`
	Formula         *string           `json:"formula" binding:"omitempty,max=500"`
	Priority        *int              `json:"priority"`
	Active          *bool             `json:"active"`
}

// CreateCampaignRequest represents a request to create a campaign
type CreateCampaignRequest struct {
	Name                     string          `json:"name" binding:"required,max=255"`
	Multiplier               decimal.Decimal `json:"multiplier" binding:"decimal_gt0"`
	AppliesToRole            *string         `json:"applies_to_role" binding:"omitempty,oneof=technician seller driver"`
	AppliesToCalculationType *string         `json:"applies_to_calculation_type"`
	StartsAt                 time.Time       `json:"starts_at" binding:"required"`
	EndsAt                   time.Time       `json:"ends_at" binding:"required"`
	Active                   *bool           `json:"active"`
}

// UpdateCampaignRequest edits a campaign. Nil fields are left unchanged.
type UpdateCampaignRequest struct {
	Name                     *string          `json:"name" binding:"omitempty,max=255"`
	Multiplier               *decimal.Decimal `json:"multiplier"`
	AppliesToRole            *string          `json:"applies_to_role" binding:"omitempty,oneof=technician seller driver"`
	AppliesToCalculationType *string          `json:"applies_to_calculation_type"`
	StartsAt                 *time.Time       `json:"starts_at"`
	EndsAt                   *time.Time       `json:"ends_at"`
	Active                   *bool            `json:"active"`
}

// GenerateRequest asks for commissions of a work order on a trigger
type GenerateRequest struct {
	WorkOrderID uuid.UUID `json:"work_order_id" binding:"required"`
	Trigger     string    `json:"trigger" binding:"omitempty,oneof=os_completed os_invoiced installment_paid"`
}

// SimulationResult is the dry-run output of the evaluator
type SimulationResult struct {
	WorkOrderID  uuid.UUID                `json:"work_order_id"`
	Trigger      commission.Trigger       `json:"trigger"`
	Calculations []commission.Calculation `json:"calculations"`
	Total        decimal.Decimal          `json:"total"`
}

// EventListFilter holds query parameters for listing commission events
type EventListFilter struct {
	Page         int        `form:"page"`
	PageSize     int        `form:"page_size"`
	UserID       *uuid.UUID `form:"user_id,parser=encoding.TextUnmarshaler"`
	WorkOrderID  *uuid.UUID `form:"work_order_id,parser=encoding.TextUnmarshaler"`
	SettlementID *uuid.UUID `form:"settlement_id,parser=encoding.TextUnmarshaler"`
	Status       string     `form:"status"`
}

// UpdateStatusRequest moves a commission event to another status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes" binding:"max=1000"`
}

// BatchUpdateStatusRequest moves many events at once
type BatchUpdateStatusRequest struct {
	IDs    []uuid.UUID `json:"ids" binding:"required,min=1,max=200"`
	Status string      `json:"status" binding:"required"`
}

// BatchSkip explains why one event of a batch was left untouched
type BatchSkip struct {
	ID     uuid.UUID `json:"id"`
	Reason string    `json:"reason"`
}

// BatchResult counts the outcome of a batch status update
type BatchResult struct {
	Updated int         `json:"updated"`
	Skipped int         `json:"skipped"`
	Errors  []BatchSkip `json:"errors,omitempty"`
}

// ReleaseResult reports what a payment released
type ReleaseResult struct {
	Proportion decimal.Decimal `json:"proportion"`
	Approved   int             `json:"approved"`
	Split      int             `json:"split"`
}

// CloseSettlementRequest closes a user's period
type CloseSettlementRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
	Period string    `json:"period" binding:"required,period"`
}

// PaySettlementRequest pays a settlement. A nil amount pays the total.
type PaySettlementRequest struct {
	PaidAmount *decimal.Decimal `json:"paid_amount"`
	Notes      string           `json:"payment_notes" binding:"max=1000"`
}

// RejectSettlementRequest rejects a closed settlement
type RejectSettlementRequest struct {
	Reason string `json:"rejection_reason" binding:"required,max=1000"`
}

// SettlementListFilter holds query parameters for listing settlements
type SettlementListFilter struct {
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
	UserID   *uuid.UUID `form:"user_id,parser=encoding.TextUnmarshaler"`
	Period   string     `form:"period"`
	Status   string     `form:"status"`
}

// SettlementDetail is a settlement with its linked events
type SettlementDetail struct {
	*commission.Settlement
	Events []commission.CommissionEvent `json:"events"`
}

// StatementFile is a rendered commission statement
type StatementFile struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"-"`
	Key         string `json:"key,omitempty"`
	URL         string `json:"url,omitempty"`
}
