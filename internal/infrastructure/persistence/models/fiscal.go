package models

import (
	"time"

	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FiscalNoteModel is the persistence model for NF-e and NFS-e notes
type FiscalNoteModel struct {
	TenantAggregateModel
	Type             fiscal.NoteType   `gorm:"type:varchar(10);not null"`
	WorkOrderID      *uuid.UUID        `gorm:"type:uuid;index"`
	CustomerID       uuid.UUID         `gorm:"type:uuid;not null;index"`
	Amount           decimal.Decimal   `gorm:"type:decimal(18,2);not null"`
	Status           fiscal.NoteStatus `gorm:"type:varchar(20);not null;index"`
	Reference        string            `gorm:"type:varchar(100);not null;index"`
	ContingencyMode  bool              `gorm:"not null;default:false;index"`
	OfflinePayload   []byte            `gorm:"type:jsonb"`
	QueuedAt         *time.Time        `gorm:"index"`
	ProviderID       string            `gorm:"type:varchar(100)"`
	AccessKey        string            `gorm:"type:varchar(60)"`
	Number           string            `gorm:"type:varchar(30)"`
	Series           string            `gorm:"type:varchar(10)"`
	VerificationCode string            `gorm:"type:varchar(60)"`
	ErrorMessage     string            `gorm:"type:text"`
	AuthorizedAt     *time.Time
}

// TableName returns the table name for GORM
func (FiscalNoteModel) TableName() string {
	return "fiscal_notes"
}

// ToDomain converts the persistence model to a domain Note
func (m *FiscalNoteModel) ToDomain() *fiscal.Note {
	return &fiscal.Note{
		TenantAggregateRoot: m.tenantRoot(),
		Type:                m.Type,
		WorkOrderID:         m.WorkOrderID,
		CustomerID:          m.CustomerID,
		Amount:              m.Amount,
		Status:              m.Status,
		Reference:           m.Reference,
		ContingencyMode:     m.ContingencyMode,
		OfflinePayload:      m.OfflinePayload,
		QueuedAt:            m.QueuedAt,
		ProviderID:          m.ProviderID,
		AccessKey:           m.AccessKey,
		Number:              m.Number,
		Series:              m.Series,
		VerificationCode:    m.VerificationCode,
		ErrorMessage:        m.ErrorMessage,
		AuthorizedAt:        m.AuthorizedAt,
	}
}

// FiscalNoteModelFromDomain creates a new persistence model from a domain Note
func FiscalNoteModelFromDomain(n *fiscal.Note) *FiscalNoteModel {
	m := &FiscalNoteModel{
		Type:             n.Type,
		WorkOrderID:      n.WorkOrderID,
		CustomerID:       n.CustomerID,
		Amount:           n.Amount,
		Status:           n.Status,
		Reference:        n.Reference,
		ContingencyMode:  n.ContingencyMode,
		OfflinePayload:   n.OfflinePayload,
		QueuedAt:         n.QueuedAt,
		ProviderID:       n.ProviderID,
		AccessKey:        n.AccessKey,
		Number:           n.Number,
		Series:           n.Series,
		VerificationCode: n.VerificationCode,
		ErrorMessage:     n.ErrorMessage,
		AuthorizedAt:     n.AuthorizedAt,
	}
	m.setTenantRoot(n.TenantAggregateRoot)
	return m
}
