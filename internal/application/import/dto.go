package importapp

import (
	"github.com/calibra/backend/internal/domain/importing"
)

// ConflictMode decides what happens to a row that matches an existing record
type ConflictMode string

const (
	// ConflictSkip leaves the existing record untouched
	ConflictSkip ConflictMode = "skip"
	// ConflictUpdate overwrites the existing record with the row values
	ConflictUpdate ConflictMode = "update"
)

// IsValid checks if the conflict mode is valid
func (m ConflictMode) IsValid() bool {
	return m == ConflictSkip || m == ConflictUpdate
}

// ImportRequest describes an uploaded CSV file
type ImportRequest struct {
	EntityType   importing.EntityType `json:"entity_type" binding:"required,oneof=customers equipments"`
	FileName     string               `json:"file_name"`
	ConflictMode ConflictMode         `json:"conflict_mode" binding:"omitempty,oneof=skip update"`
}

// ListFilter narrows the import history
type ListFilter struct {
	Page       int    `form:"page" binding:"omitempty,min=1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=200"`
	EntityType string `form:"entity_type" binding:"omitempty,oneof=customers equipments work_orders"`
	Search     string `form:"search"`
}
