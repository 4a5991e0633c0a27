package models

import (
	"time"

	"github.com/calibra/backend/internal/domain/finance"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LedgerColumns holds the balance columns shared by receivables and payables
type LedgerColumns struct {
	Amount     decimal.Decimal        `gorm:"type:decimal(18,2);not null"`
	AmountPaid decimal.Decimal        `gorm:"type:decimal(18,2);not null;default:0"`
	DueDate    time.Time              `gorm:"type:date;not null;index"`
	Status     finance.DocumentStatus `gorm:"type:varchar(20);not null;index"`
	PaidAt     *time.Time
}

func (c *LedgerColumns) toDomain() finance.Ledger {
	return finance.Ledger{
		Amount:     c.Amount,
		AmountPaid: c.AmountPaid,
		DueDate:    c.DueDate,
		Status:     c.Status,
		PaidAt:     c.PaidAt,
	}
}

func ledgerColumnsFromDomain(l finance.Ledger) LedgerColumns {
	return LedgerColumns{
		Amount:     l.Amount,
		AmountPaid: l.AmountPaid,
		DueDate:    l.DueDate,
		Status:     l.Status,
		PaidAt:     l.PaidAt,
	}
}

// AccountReceivableModel is the persistence model for receivables
type AccountReceivableModel struct {
	TenantAggregateModel
	LedgerColumns
	CustomerID    uuid.UUID      `gorm:"type:uuid;not null;index"`
	WorkOrderID   *uuid.UUID     `gorm:"type:uuid;index"`
	Description   string         `gorm:"type:varchar(500);not null"`
	PaymentMethod string         `gorm:"type:varchar(50)"`
	Installment   int            `gorm:"not null;default:0"`
	Notes         string         `gorm:"type:text"`
	BillingMarker *string        `gorm:"type:varchar(120)"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (AccountReceivableModel) TableName() string {
	return "accounts_receivable"
}

// ToDomain converts the persistence model to a domain AccountReceivable
func (m *AccountReceivableModel) ToDomain() *finance.AccountReceivable {
	return &finance.AccountReceivable{
		TenantAggregateRoot: m.tenantRoot(),
		Ledger:              m.LedgerColumns.toDomain(),
		CustomerID:          m.CustomerID,
		WorkOrderID:         m.WorkOrderID,
		Description:         m.Description,
		PaymentMethod:       m.PaymentMethod,
		Installment:         m.Installment,
		Notes:               m.Notes,
		BillingMarker:       m.BillingMarker,
	}
}

// AccountReceivableModelFromDomain creates a new persistence model from a domain AccountReceivable
func AccountReceivableModelFromDomain(ar *finance.AccountReceivable) *AccountReceivableModel {
	m := &AccountReceivableModel{
		LedgerColumns: ledgerColumnsFromDomain(ar.Ledger),
		CustomerID:    ar.CustomerID,
		WorkOrderID:   ar.WorkOrderID,
		Description:   ar.Description,
		PaymentMethod: ar.PaymentMethod,
		Installment:   ar.Installment,
		Notes:         ar.Notes,
		BillingMarker: ar.BillingMarker,
	}
	m.setTenantRoot(ar.TenantAggregateRoot)
	return m
}

// AccountPayableModel is the persistence model for payables
type AccountPayableModel struct {
	TenantAggregateModel
	LedgerColumns
	SupplierName  string         `gorm:"type:varchar(200);not null"`
	Category      string         `gorm:"type:varchar(100);index"`
	Description   string         `gorm:"type:varchar(500);not null"`
	PaymentMethod string         `gorm:"type:varchar(50)"`
	Notes         string         `gorm:"type:text"`
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (AccountPayableModel) TableName() string {
	return "accounts_payable"
}

// ToDomain converts the persistence model to a domain AccountPayable
func (m *AccountPayableModel) ToDomain() *finance.AccountPayable {
	return &finance.AccountPayable{
		TenantAggregateRoot: m.tenantRoot(),
		Ledger:              m.LedgerColumns.toDomain(),
		SupplierName:        m.SupplierName,
		Category:            m.Category,
		Description:         m.Description,
		PaymentMethod:       m.PaymentMethod,
		Notes:               m.Notes,
	}
}

// AccountPayableModelFromDomain creates a new persistence model from a domain AccountPayable
func AccountPayableModelFromDomain(ap *finance.AccountPayable) *AccountPayableModel {
	m := &AccountPayableModel{
		LedgerColumns: ledgerColumnsFromDomain(ap.Ledger),
		SupplierName:  ap.SupplierName,
		Category:      ap.Category,
		Description:   ap.Description,
		PaymentMethod: ap.PaymentMethod,
		Notes:         ap.Notes,
	}
	m.setTenantRoot(ap.TenantAggregateRoot)
	return m
}

// PaymentModel is the persistence model for payments against receivables and payables
type PaymentModel struct {
	BaseModel
	TenantID      uuid.UUID           `gorm:"type:uuid;not null;index"`
	PayableType   finance.PayableType `gorm:"type:varchar(20);not null;index:idx_payment_document,priority:1"`
	PayableID     uuid.UUID           `gorm:"type:uuid;not null;index:idx_payment_document,priority:2"`
	Amount        decimal.Decimal     `gorm:"type:decimal(18,2);not null"`
	PaymentMethod string              `gorm:"type:varchar(50);not null"`
	PaymentDate   time.Time           `gorm:"type:date;not null"`
	ReceivedBy    *uuid.UUID          `gorm:"type:uuid"`
	Notes         string              `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PaymentModel) TableName() string {
	return "payments"
}

// ToDomain converts the persistence model to a domain Payment
func (m *PaymentModel) ToDomain() *finance.Payment {
	return &finance.Payment{
		BaseEntity:    m.BaseModel.entity(),
		TenantID:      m.TenantID,
		PayableType:   m.PayableType,
		PayableID:     m.PayableID,
		Amount:        m.Amount,
		PaymentMethod: m.PaymentMethod,
		PaymentDate:   m.PaymentDate,
		ReceivedBy:    m.ReceivedBy,
		Notes:         m.Notes,
	}
}

// PaymentModelFromDomain creates a new persistence model from a domain Payment
func PaymentModelFromDomain(p *finance.Payment) *PaymentModel {
	m := &PaymentModel{
		TenantID:      p.TenantID,
		PayableType:   p.PayableType,
		PayableID:     p.PayableID,
		Amount:        p.Amount,
		PaymentMethod: p.PaymentMethod,
		PaymentDate:   p.PaymentDate,
		ReceivedBy:    p.ReceivedBy,
		Notes:         p.Notes,
	}
	m.setEntity(p.BaseEntity)
	return m
}

// InvoiceModel is the persistence model for invoices
type InvoiceModel struct {
	TenantAggregateModel
	Number      string                `gorm:"type:varchar(30);not null;index"`
	CustomerID  uuid.UUID             `gorm:"type:uuid;not null;index"`
	WorkOrderID *uuid.UUID            `gorm:"type:uuid;index"`
	Total       decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	Status      finance.InvoiceStatus `gorm:"type:varchar(20);not null;index"`
	IssuedAt    *time.Time
	DueDate     *time.Time     `gorm:"type:date"`
	Observation string         `gorm:"type:text"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *finance.Invoice {
	return &finance.Invoice{
		TenantAggregateRoot: m.tenantRoot(),
		Number:              m.Number,
		CustomerID:          m.CustomerID,
		WorkOrderID:         m.WorkOrderID,
		Total:               m.Total,
		Status:              m.Status,
		IssuedAt:            m.IssuedAt,
		DueDate:             m.DueDate,
		Observation:         m.Observation,
	}
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice
func InvoiceModelFromDomain(inv *finance.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		Number:      inv.Number,
		CustomerID:  inv.CustomerID,
		WorkOrderID: inv.WorkOrderID,
		Total:       inv.Total,
		Status:      inv.Status,
		IssuedAt:    inv.IssuedAt,
		DueDate:     inv.DueDate,
		Observation: inv.Observation,
	}
	m.setTenantRoot(inv.TenantAggregateRoot)
	return m
}

// ExpenseModel is the persistence model for expenses
type ExpenseModel struct {
	TenantAggregateModel
	WorkOrderID     *uuid.UUID            `gorm:"type:uuid;index"`
	UserID          *uuid.UUID            `gorm:"type:uuid;index"`
	Description     string                `gorm:"type:varchar(500);not null"`
	Category        string                `gorm:"type:varchar(100)"`
	Amount          decimal.Decimal       `gorm:"type:decimal(18,2);not null"`
	ExpenseDate     time.Time             `gorm:"type:date;not null"`
	Status          finance.ExpenseStatus `gorm:"type:varchar(20);not null;index"`
	AffectsNetValue bool                  `gorm:"not null;default:false"`
	ApprovedBy      *uuid.UUID            `gorm:"type:uuid"`
	RejectionReason string                `gorm:"type:text"`
	DeletedAt       gorm.DeletedAt        `gorm:"index"`
}

// TableName returns the table name for GORM
func (ExpenseModel) TableName() string {
	return "expenses"
}

// ToDomain converts the persistence model to a domain Expense
func (m *ExpenseModel) ToDomain() *finance.Expense {
	return &finance.Expense{
		TenantAggregateRoot: m.tenantRoot(),
		WorkOrderID:         m.WorkOrderID,
		UserID:              m.UserID,
		Description:         m.Description,
		Category:            m.Category,
		Amount:              m.Amount,
		ExpenseDate:         m.ExpenseDate,
		Status:              m.Status,
		AffectsNetValue:     m.AffectsNetValue,
		ApprovedBy:          m.ApprovedBy,
		RejectionReason:     m.RejectionReason,
	}
}

// ExpenseModelFromDomain creates a new persistence model from a domain Expense
func ExpenseModelFromDomain(e *finance.Expense) *ExpenseModel {
	m := &ExpenseModel{
		WorkOrderID:     e.WorkOrderID,
		UserID:          e.UserID,
		Description:     e.Description,
		Category:        e.Category,
		Amount:          e.Amount,
		ExpenseDate:     e.ExpenseDate,
		Status:          e.Status,
		AffectsNetValue: e.AffectsNetValue,
		ApprovedBy:      e.ApprovedBy,
		RejectionReason: e.RejectionReason,
	}
	m.setTenantRoot(e.TenantAggregateRoot)
	return m
}

