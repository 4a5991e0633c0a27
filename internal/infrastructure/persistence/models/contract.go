package models

import (
	"time"

	"github.com/calibra/backend/internal/domain/contract"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RecurringContractModel is the persistence model for recurring contracts
type RecurringContractModel struct {
	TenantAggregateModel
	CustomerID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name         string          `gorm:"type:varchar(200);not null"`
	MonthlyValue decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	BillingDay   int             `gorm:"not null;default:1"`
	Active       bool            `gorm:"not null;default:true;index"`
	StartsAt     time.Time       `gorm:"type:date;not null"`
	EndsAt       *time.Time      `gorm:"type:date"`
	DeletedAt    gorm.DeletedAt  `gorm:"index"`
}

// TableName returns the table name for GORM
func (RecurringContractModel) TableName() string {
	return "recurring_contracts"
}

// ToDomain converts the persistence model to a domain RecurringContract
func (m *RecurringContractModel) ToDomain() *contract.RecurringContract {
	return &contract.RecurringContract{
		TenantAggregateRoot: m.tenantRoot(),
		CustomerID:          m.CustomerID,
		Name:                m.Name,
		MonthlyValue:        m.MonthlyValue,
		BillingDay:          m.BillingDay,
		Active:              m.Active,
		StartsAt:            m.StartsAt,
		EndsAt:              m.EndsAt,
	}
}

// RecurringContractModelFromDomain creates a new persistence model from a domain RecurringContract
func RecurringContractModelFromDomain(c *contract.RecurringContract) *RecurringContractModel {
	m := &RecurringContractModel{
		CustomerID:   c.CustomerID,
		Name:         c.Name,
		MonthlyValue: c.MonthlyValue,
		BillingDay:   c.BillingDay,
		Active:       c.Active,
		StartsAt:     c.StartsAt,
		EndsAt:       c.EndsAt,
	}
	m.setTenantRoot(c.TenantAggregateRoot)
	return m
}
