package models

import (
	"time"

	"github.com/calibra/backend/internal/domain/importing"
	"github.com/google/uuid"
)

// ImportModel is the persistence model for the Import domain entity.
type ImportModel struct {
	TenantAggregateModel
	EntityType   importing.EntityType `gorm:"type:varchar(30);not null;index"`
	FileName     string               `gorm:"type:varchar(255);not null"`
	Status       importing.Status     `gorm:"type:varchar(30);not null;default:'pending'"`
	TotalRows    int                  `gorm:"not null;default:0"`
	Inserted     int                  `gorm:"not null;default:0"`
	Skipped      int                  `gorm:"not null;default:0"`
	ErrorCount   int                  `gorm:"not null;default:0"`
	ImportedIDs  []uuid.UUID          `gorm:"type:jsonb;serializer:json"`
	Errors       []importing.RowError `gorm:"type:jsonb;serializer:json"`
	ImportedBy   uuid.UUID            `gorm:"type:uuid;not null"`
	CompletedAt  *time.Time           `gorm:"type:timestamptz"`
	RolledBackAt *time.Time           `gorm:"type:timestamptz"`
}

// TableName returns the table name for GORM
func (ImportModel) TableName() string {
	return "imports"
}

// ToDomain converts the persistence model to a domain Import entity.
func (m *ImportModel) ToDomain() *importing.Import {
	ids := m.ImportedIDs
	if ids == nil {
		ids = []uuid.UUID{}
	}
	return &importing.Import{
		TenantAggregateRoot: m.tenantRoot(),
		EntityType:          m.EntityType,
		FileName:            m.FileName,
		Status:              m.Status,
		TotalRows:           m.TotalRows,
		Inserted:            m.Inserted,
		Skipped:             m.Skipped,
		ErrorCount:          m.ErrorCount,
		ImportedIDs:         ids,
		Errors:              m.Errors,
		ImportedBy:          m.ImportedBy,
		CompletedAt:         m.CompletedAt,
		RolledBackAt:        m.RolledBackAt,
	}
}

// FromDomain populates the persistence model from a domain Import entity.
func (m *ImportModel) FromDomain(imp *importing.Import) {
	m.setTenantRoot(imp.TenantAggregateRoot)
	m.EntityType = imp.EntityType
	m.FileName = imp.FileName
	m.Status = imp.Status
	m.TotalRows = imp.TotalRows
	m.Inserted = imp.Inserted
	m.Skipped = imp.Skipped
	m.ErrorCount = imp.ErrorCount
	m.ImportedIDs = imp.ImportedIDs
	m.Errors = imp.Errors
	m.ImportedBy = imp.ImportedBy
	m.CompletedAt = imp.CompletedAt
	m.RolledBackAt = imp.RolledBackAt
}

// ImportModelFromDomain creates a new persistence model from a domain Import entity.
func ImportModelFromDomain(imp *importing.Import) *ImportModel {
	m := &ImportModel{}
	m.FromDomain(imp)
	return m
}

// ImportMappingModel links an external id to a record created by an import
type ImportMappingModel struct {
	BaseModel
	TenantID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	ImportID   uuid.UUID            `gorm:"type:uuid;not null;index"`
	EntityType importing.EntityType `gorm:"type:varchar(30);not null"`
	ExternalID string               `gorm:"type:varchar(100);not null"`
	LocalID    uuid.UUID            `gorm:"type:uuid;not null"`
}

// TableName returns the table name for GORM
func (ImportMappingModel) TableName() string {
	return "import_mappings"
}

// ToDomain converts the mapping model to a domain IDMapping
func (m *ImportMappingModel) ToDomain() importing.IDMapping {
	return importing.IDMapping{
		BaseEntity: m.BaseModel.entity(),
		TenantID:   m.TenantID,
		ImportID:   m.ImportID,
		EntityType: m.EntityType,
		ExternalID: m.ExternalID,
		LocalID:    m.LocalID,
	}
}

// ImportMappingModelFromDomain creates a new persistence model from a domain IDMapping
func ImportMappingModelFromDomain(mp importing.IDMapping) ImportMappingModel {
	m := ImportMappingModel{
		TenantID:   mp.TenantID,
		ImportID:   mp.ImportID,
		EntityType: mp.EntityType,
		ExternalID: mp.ExternalID,
		LocalID:    mp.LocalID,
	}
	m.setEntity(mp.BaseEntity)
	return m
}
