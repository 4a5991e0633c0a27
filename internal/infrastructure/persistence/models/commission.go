package models

import (
	"time"

	"github.com/calibra/backend/internal/domain/commission"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// CommissionRuleModel is the persistence model for commission rules
type CommissionRuleModel struct {
	TenantAggregateModel
	UserID          *uuid.UUID                 `gorm:"type:uuid;index"`
	Name            string                     `gorm:"type:varchar(200);not null"`
	Value           decimal.Decimal            `gorm:"type:decimal(18,4);not null;default:0"`
	CalculationType commission.CalculationType `gorm:"type:varchar(50);not null"`
	AppliesToRole   commission.Role            `gorm:"type:varchar(20);not null;index"`
	AppliesWhen     commission.Trigger         `gorm:"type:varchar(30);not null;index"`
	Tiers           []commission.Tier          `gorm:"type:jsonb;serializer:json"`
	Formula         string                     `gorm:"type:text"`
	Priority        int                        `gorm:"not null;default:0"`
	Active          bool                       `gorm:"not null;default:true;index"`
	DeletedAt       gorm.DeletedAt             `gorm:"index"`
}

// TableName returns the table name for GORM
func (CommissionRuleModel) TableName() string {
	return "commission_rules"
}

// ToDomain converts the persistence model to a domain Rule
func (m *CommissionRuleModel) ToDomain() *commission.Rule {
	tiers := m.Tiers
	if tiers == nil {
		tiers = []commission.Tier{}
	}
	return &commission.Rule{
		TenantAggregateRoot: m.tenantRoot(),
		UserID:              m.UserID,
		Name:                m.Name,
		Value:               m.Value,
		CalculationType:     m.CalculationType,
		AppliesToRole:       m.AppliesToRole,
		AppliesWhen:         m.AppliesWhen,
		Tiers:               tiers,
		Formula:             m.Formula,
		Priority:            m.Priority,
		Active:              m.Active,
	}
}

// FromDomain populates the persistence model from a domain Rule
func (m *CommissionRuleModel) FromDomain(r *commission.Rule) {
	m.setTenantRoot(r.TenantAggregateRoot)
	m.UserID = r.UserID
	m.Name = r.Name
	m.Value = r.Value
	m.CalculationType = r.CalculationType
	m.AppliesToRole = r.AppliesToRole
	m.AppliesWhen = r.AppliesWhen
	m.Tiers = r.Tiers
	m.Formula = r.Formula
	m.Priority = r.Priority
	m.Active = r.Active
}

// CommissionRuleModelFromDomain creates a new persistence model from a domain Rule
func CommissionRuleModelFromDomain(r *commission.Rule) *CommissionRuleModel {
	m := &CommissionRuleModel{}
	m.FromDomain(r)
	return m
}

// CommissionCampaignModel is the persistence model for campaigns
type CommissionCampaignModel struct {
	TenantAggregateModel
	Name                     string                      `gorm:"type:varchar(200);not null"`
	Multiplier               decimal.Decimal             `gorm:"type:decimal(8,4);not null;default:1"`
	AppliesToRole            *commission.Role            `gorm:"type:varchar(20)"`
	AppliesToCalculationType *commission.CalculationType `gorm:"type:varchar(50)"`
	StartsAt                 time.Time                   `gorm:"not null;index"`
	EndsAt                   time.Time                   `gorm:"not null;index"`
	Active                   bool                        `gorm:"not null;default:true"`
	DeletedAt                gorm.DeletedAt              `gorm:"index"`
}

// TableName returns the table name for GORM
func (CommissionCampaignModel) TableName() string {
	return "commission_campaigns"
}

// ToDomain converts the persistence model to a domain Campaign
func (m *CommissionCampaignModel) ToDomain() *commission.Campaign {
	return &commission.Campaign{
		TenantAggregateRoot:      m.tenantRoot(),
		Name:                     m.Name,
		Multiplier:               m.Multiplier,
		AppliesToRole:            m.AppliesToRole,
		AppliesToCalculationType: m.AppliesToCalculationType,
		StartsAt:                 m.StartsAt,
		EndsAt:                   m.EndsAt,
		Active:                   m.Active,
	}
}

// CommissionCampaignModelFromDomain creates a new persistence model from a domain Campaign
func CommissionCampaignModelFromDomain(c *commission.Campaign) *CommissionCampaignModel {
	m := &CommissionCampaignModel{
		Name:                     c.Name,
		Multiplier:               c.Multiplier,
		AppliesToRole:            c.AppliesToRole,
		AppliesToCalculationType: c.AppliesToCalculationType,
		StartsAt:                 c.StartsAt,
		EndsAt:                   c.EndsAt,
		Active:                   c.Active,
	}
	m.setTenantRoot(c.TenantAggregateRoot)
	return m
}

// CommissionEventModel is the persistence model for commission events
type CommissionEventModel struct {
	TenantAggregateModel
	RuleID           uuid.UUID              `gorm:"type:uuid;not null;index"`
	WorkOrderID      uuid.UUID              `gorm:"type:uuid;not null;index"`
	UserID           uuid.UUID              `gorm:"type:uuid;not null;index"`
	Role             commission.Role        `gorm:"type:varchar(20);not null"`
	Trigger          commission.Trigger     `gorm:"column:trigger_type;type:varchar(30);not null"`
	SettlementID     *uuid.UUID             `gorm:"type:uuid;index"`
	ParentID         *uuid.UUID             `gorm:"type:uuid;index"`
	CampaignID       *uuid.UUID             `gorm:"type:uuid"`
	BaseAmount       decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	CommissionAmount decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	Multiplier       decimal.Decimal        `gorm:"type:decimal(8,4);not null;default:1"`
	Status           commission.EventStatus `gorm:"type:varchar(20);not null;index"`
	Notes            string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CommissionEventModel) TableName() string {
	return "commission_events"
}

// ToDomain converts the persistence model to a domain CommissionEvent
func (m *CommissionEventModel) ToDomain() *commission.CommissionEvent {
	return &commission.CommissionEvent{
		TenantAggregateRoot: m.tenantRoot(),
		RuleID:              m.RuleID,
		WorkOrderID:         m.WorkOrderID,
		UserID:              m.UserID,
		Role:                m.Role,
		Trigger:             m.Trigger,
		SettlementID:        m.SettlementID,
		ParentID:            m.ParentID,
		CampaignID:          m.CampaignID,
		BaseAmount:          m.BaseAmount,
		CommissionAmount:    m.CommissionAmount,
		Multiplier:          m.Multiplier,
		Status:              m.Status,
		Notes:               m.Notes,
	}
}

// CommissionEventModelFromDomain creates a new persistence model from a domain CommissionEvent
func CommissionEventModelFromDomain(e *commission.CommissionEvent) *CommissionEventModel {
	m := &CommissionEventModel{
		RuleID:           e.RuleID,
		WorkOrderID:      e.WorkOrderID,
		UserID:           e.UserID,
		Role:             e.Role,
		Trigger:          e.Trigger,
		SettlementID:     e.SettlementID,
		ParentID:         e.ParentID,
		CampaignID:       e.CampaignID,
		BaseAmount:       e.BaseAmount,
		CommissionAmount: e.CommissionAmount,
		Multiplier:       e.Multiplier,
		Status:           e.Status,
		Notes:            e.Notes,
	}
	m.setTenantRoot(e.TenantAggregateRoot)
	return m
}

// CommissionSettlementModel is the persistence model for settlements
type CommissionSettlementModel struct {
	TenantAggregateModel
	UserID          uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Period          string                      `gorm:"type:varchar(7);not null;index"`
	TotalAmount     decimal.Decimal             `gorm:"type:decimal(18,2);not null;default:0"`
	EventsCount     int                         `gorm:"not null;default:0"`
	Status          commission.SettlementStatus `gorm:"type:varchar(20);not null;index"`
	ClosedBy        *uuid.UUID                  `gorm:"type:uuid"`
	ClosedAt        *time.Time
	ApprovedBy      *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt      *time.Time
	PaidAt          *time.Time
	PaidAmount      *decimal.Decimal `gorm:"type:decimal(18,2)"`
	PaymentNotes    string           `gorm:"type:text"`
	RejectionReason string           `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CommissionSettlementModel) TableName() string {
	return "commission_settlements"
}

// ToDomain converts the persistence model to a domain Settlement
func (m *CommissionSettlementModel) ToDomain() *commission.Settlement {
	return &commission.Settlement{
		TenantAggregateRoot: m.tenantRoot(),
		UserID:              m.UserID,
		Period:              valueobject.Period(m.Period),
		TotalAmount:         m.TotalAmount,
		EventsCount:         m.EventsCount,
		Status:              m.Status,
		ClosedBy:            m.ClosedBy,
		ClosedAt:            m.ClosedAt,
		ApprovedBy:          m.ApprovedBy,
		ApprovedAt:          m.ApprovedAt,
		PaidAt:              m.PaidAt,
		PaidAmount:          m.PaidAmount,
		PaymentNotes:        m.PaymentNotes,
		RejectionReason:     m.RejectionReason,
	}
}

// CommissionSettlementModelFromDomain creates a new persistence model from a domain Settlement
func CommissionSettlementModelFromDomain(s *commission.Settlement) *CommissionSettlementModel {
	m := &CommissionSettlementModel{
		UserID:          s.UserID,
		Period:          string(s.Period),
		TotalAmount:     s.TotalAmount,
		EventsCount:     s.EventsCount,
		Status:          s.Status,
		ClosedBy:        s.ClosedBy,
		ClosedAt:        s.ClosedAt,
		ApprovedBy:      s.ApprovedBy,
		ApprovedAt:      s.ApprovedAt,
		PaidAt:          s.PaidAt,
		PaidAmount:      s.PaidAmount,
		PaymentNotes:    s.PaymentNotes,
		RejectionReason: s.RejectionReason,
	}
	m.setTenantRoot(s.TenantAggregateRoot)
	return m
}
