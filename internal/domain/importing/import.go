package importing

import (
	"fmt"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EntityType is the kind of record an import creates
type EntityType string

const (
	EntityCustomers  EntityType = "customers"
	EntityEquipments EntityType = "equipments"
	EntityWorkOrders EntityType = "work_orders"
)

// IsValid checks if the entity type is valid
func (e EntityType) IsValid() bool {
	switch e {
	case EntityCustomers, EntityEquipments, EntityWorkOrders:
		return true
	}
	return false
}

// Status represents the state of an import
type Status string

const (
	StatusPending             Status = "pending"
	StatusProcessing          Status = "processing"
	StatusDone                Status = "done"
	StatusFailed              Status = "failed"
	StatusRolledBack          Status = "rolled_back"
	StatusPartiallyRolledBack Status = "partially_rolled_back"
)

// RowError describes a rejected CSV row
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
	Value   string `json:"value,omitempty"`
}

// Import records a CSV import and the ids it created
type Import struct {
	shared.TenantAggregateRoot
	EntityType   EntityType  `json:"entity_type"`
	FileName     string      `json:"file_name"`
	Status       Status      `json:"status"`
	TotalRows    int         `json:"total_rows"`
	Inserted     int         `json:"inserted"`
	Skipped      int         `json:"skipped"`
	ErrorCount   int         `json:"error_count"`
	ImportedIDs  []uuid.UUID `json:"imported_ids"`
	Errors       []RowError  `json:"errors,omitempty"`
	ImportedBy   uuid.UUID   `json:"imported_by"`
	CompletedAt  *time.Time  `json:"completed_at,omitempty"`
	RolledBackAt *time.Time  `json:"rolled_back_at,omitempty"`
}

// IDMapping links an id from the source system to the local record
type IDMapping struct {
	shared.BaseEntity
	TenantID   uuid.UUID  `json:"tenant_id"`
	ImportID   uuid.UUID  `json:"import_id"`
	EntityType EntityType `json:"entity_type"`
	ExternalID string     `json:"external_id"`
	LocalID    uuid.UUID  `json:"local_id"`
}

// RollbackResult summarises a rollback
type RollbackResult struct {
	Deleted int `json:"deleted"`
	Failed  int `json:"failed"`
	Total   int `json:"total"`
}

// NewImport creates a pending import
func NewImport(tenantID uuid.UUID, entityType EntityType, fileName string, importedBy uuid.UUID) (*Import, error) {
	if !entityType.IsValid() {
		return nil, shared.NewValidationError("entity_type", fmt.Sprintf("Invalid entity type: %s", entityType))
	}
	if fileName == "" {
		return nil, shared.NewValidationError("file", "File name cannot be empty")
	}
	return &Import{
		TenantAggregateRoot: shared.NewTenantAggregateRootWithCreator(tenantID, importedBy),
		EntityType:          entityType,
		FileName:            fileName,
		Status:              StatusPending,
		ImportedIDs:         []uuid.UUID{},
		ImportedBy:          importedBy,
	}, nil
}

// Start marks the import as processing
func (i *Import) Start(totalRows int) error {
	if i.Status != StatusPending {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot start an import in %s status", i.Status))
	}
	i.Status = StatusProcessing
	i.TotalRows = totalRows
	i.Touch()
	return nil
}

// RecordInserted appends a created record id
func (i *Import) RecordInserted(id uuid.UUID) {
	i.ImportedIDs = append(i.ImportedIDs, id)
	i.Inserted++
}

// RecordSkipped counts a row that matched an existing record
func (i *Import) RecordSkipped() {
	i.Skipped++
}

// RecordError keeps a rejected row
func (i *Import) RecordError(e RowError) {
	i.Errors = append(i.Errors, e)
	i.ErrorCount++
}

// Finish closes a processing import. An import where every row failed is marked failed.
func (i *Import) Finish() error {
	if i.Status != StatusProcessing {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot finish an import in %s status", i.Status))
	}
	i.Status = StatusDone
	if i.Inserted == 0 && i.ErrorCount > 0 {
		i.Status = StatusFailed
	}
	now := time.Now()
	i.CompletedAt = &now
	i.Touch()
	return nil
}

// EnsureRollbackable checks that the import can be undone
func (i *Import) EnsureRollbackable() error {
	if i.Status != StatusDone {
		return shared.NewDomainError(shared.CodeInvalidState, "Only completed imports can be rolled back").
			WithDetail("status", string(i.Status))
	}
	if len(i.ImportedIDs) == 0 {
		return shared.NewDomainError(shared.CodeInvalidState, "Import has no records to roll back")
	}
	return nil
}

// CompleteRollback records the outcome. Ids that could not be deleted stay listed.
func (i *Import) CompleteRollback(failed []uuid.UUID) RollbackResult {
	total := len(i.ImportedIDs)
	now := time.Now()
	i.RolledBackAt = &now
	if len(failed) == 0 {
		i.Status = StatusRolledBack
	} else {
		i.Status = StatusPartiallyRolledBack
		i.ImportedIDs = append([]uuid.UUID(nil), failed...)
	}
	i.Touch()
	return RollbackResult{Deleted: total - len(failed), Failed: len(failed), Total: total}
}
