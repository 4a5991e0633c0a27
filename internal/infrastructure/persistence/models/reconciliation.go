package models

import (
	"time"

	"github.com/calibra/backend/internal/domain/reconciliation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BankStatementModel is the persistence model for imported bank statements
type BankStatementModel struct {
	TenantAggregateModel
	Filename       string                `gorm:"type:varchar(255);not null"`
	Format         reconciliation.Format `gorm:"type:varchar(20);not null"`
	StorageKey     string                `gorm:"type:varchar(500)"`
	TotalEntries   int                   `gorm:"not null;default:0"`
	MatchedEntries int                   `gorm:"not null;default:0"`
	ImportedBy     uuid.UUID             `gorm:"type:uuid;not null"`
	ImportedAt     time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (BankStatementModel) TableName() string {
	return "bank_statements"
}

// ToDomain converts the persistence model to a domain BankStatement
func (m *BankStatementModel) ToDomain() *reconciliation.BankStatement {
	return &reconciliation.BankStatement{
		TenantAggregateRoot: m.tenantRoot(),
		Filename:            m.Filename,
		Format:              m.Format,
		StorageKey:          m.StorageKey,
		TotalEntries:        m.TotalEntries,
		MatchedEntries:      m.MatchedEntries,
		ImportedBy:          m.ImportedBy,
		ImportedAt:          m.ImportedAt,
	}
}

// BankStatementModelFromDomain creates a new persistence model from a domain BankStatement
func BankStatementModelFromDomain(s *reconciliation.BankStatement) *BankStatementModel {
	m := &BankStatementModel{
		Filename:       s.Filename,
		Format:         s.Format,
		StorageKey:     s.StorageKey,
		TotalEntries:   s.TotalEntries,
		MatchedEntries: s.MatchedEntries,
		ImportedBy:     s.ImportedBy,
		ImportedAt:     s.ImportedAt,
	}
	m.setTenantRoot(s.TenantAggregateRoot)
	return m
}

// BankStatementEntryModel is the persistence model for statement lines
type BankStatementEntryModel struct {
	BaseModel
	TenantID          uuid.UUID                   `gorm:"type:uuid;not null;index"`
	StatementID       uuid.UUID                   `gorm:"column:bank_statement_id;type:uuid;not null;index"`
	Date              time.Time                   `gorm:"type:date;not null;index"`
	Description       string                      `gorm:"type:varchar(500)"`
	Amount            decimal.Decimal             `gorm:"type:decimal(18,2);not null"`
	Type              reconciliation.EntryType    `gorm:"type:varchar(10);not null"`
	Status            reconciliation.EntryStatus  `gorm:"type:varchar(20);not null;index"`
	MatchedType       *reconciliation.MatchedType `gorm:"type:varchar(30)"`
	MatchedID         *uuid.UUID                  `gorm:"type:uuid;index"`
	PossibleDuplicate bool                        `gorm:"not null;default:false"`
	ReconciledAt      *time.Time
	ReconciledBy      *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (BankStatementEntryModel) TableName() string {
	return "bank_statement_entries"
}

// ToDomain converts the persistence model to a domain Entry
func (m *BankStatementEntryModel) ToDomain() *reconciliation.Entry {
	return &reconciliation.Entry{
		BaseEntity:        m.BaseModel.entity(),
		TenantID:          m.TenantID,
		StatementID:       m.StatementID,
		Date:              m.Date,
		Description:       m.Description,
		Amount:            m.Amount,
		Type:              m.Type,
		Status:            m.Status,
		MatchedType:       m.MatchedType,
		MatchedID:         m.MatchedID,
		PossibleDuplicate: m.PossibleDuplicate,
		ReconciledAt:      m.ReconciledAt,
		ReconciledBy:      m.ReconciledBy,
	}
}

// BankStatementEntryModelFromDomain creates a new persistence model from a domain Entry
func BankStatementEntryModelFromDomain(e *reconciliation.Entry) *BankStatementEntryModel {
	m := &BankStatementEntryModel{
		TenantID:          e.TenantID,
		StatementID:       e.StatementID,
		Date:              e.Date,
		Description:       e.Description,
		Amount:            e.Amount,
		Type:              e.Type,
		Status:            e.Status,
		MatchedType:       e.MatchedType,
		MatchedID:         e.MatchedID,
		PossibleDuplicate: e.PossibleDuplicate,
		ReconciledAt:      e.ReconciledAt,
		ReconciledBy:      e.ReconciledBy,
	}
	m.setEntity(e.BaseEntity)
	return m
}
