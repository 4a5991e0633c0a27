package workorder

import (
	"time"

	"github.com/calibra/backend/internal/domain/workorder"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemInput is a priced line in a create or update request
type ItemInput struct {
	Type        string          `json:"type" binding:"required,oneof=product service"`
	ReferenceID *uuid.UUID      `json:"reference_id"`
	Description string          `json:"description" binding:"required,max=255"`
	Quantity    decimal.Decimal `json:"quantity" binding:"decimal_gt0"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	Discount    decimal.Decimal `json:"discount"`
}

// CreateWorkOrderRequest represents a request to open a work order
type CreateWorkOrderRequest struct {
	CustomerID         uuid.UUID       `json:"customer_id" binding:"required"`
	EquipmentID        *uuid.UUID      `json:"equipment_id"`
	Description        string          `json:"description" binding:"max=2000"`
	Priority           string          `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	AssignedTo         *uuid.UUID      `json:"assigned_to"`
	TechnicianIDs      []uuid.UUID     `json:"technician_ids"`
	SellerID           *uuid.UUID      `json:"seller_id"`
	DriverID           *uuid.UUID      `json:"driver_id"`
	Items              []ItemInput     `json:"items" binding:"dive"`
	DisplacementValue  decimal.Decimal `json:"displacement_value"`
	Discount           decimal.Decimal `json:"discount"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	IsWarranty         bool            `json:"is_warranty"`
	ReceivedAt         *time.Time      `json:"received_at"`
}

// UpdateWorkOrderRequest replaces the editable fields of a work order.
// Nil fields are left unchanged.
type UpdateWorkOrderRequest struct {
	Description        *string          `json:"description" binding:"omitempty,max=2000"`
	Priority           *string          `json:"priority" binding:"omitempty,oneof=low normal high urgent"`
	AssignedTo         *uuid.UUID       `json:"assigned_to"`
	TechnicianIDs      []uuid.UUID      `json:"technician_ids"`
	SellerID           *uuid.UUID       `json:"seller_id"`
	DriverID           *uuid.UUID       `json:"driver_id"`
	Items              []ItemInput      `json:"items" binding:"omitempty,dive"`
	DisplacementValue  *decimal.Decimal `json:"displacement_value"`
	Discount           *decimal.Decimal `json:"discount"`
	DiscountPercentage *decimal.Decimal `json:"discount_percentage"`
	IsWarranty         *bool            `json:"is_warranty"`
}

// ChangeStatusRequest moves a work order to another status
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes" binding:"max=1000"`
}

// ListFilter carries list query parameters
type ListFilter struct {
	Page       int        `form:"page"`
	PageSize   int        `form:"page_size"`
	Search     string     `form:"search"`
	OrderBy    string     `form:"order_by"`
	OrderDir   string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
	Status     string     `form:"status"`
	CustomerID *uuid.UUID `form:"customer_id,parser=encoding.TextUnmarshaler"`
	AssignedTo *uuid.UUID `form:"assigned_to,parser=encoding.TextUnmarshaler"`
}

// WorkOrderResponse is the API view of a work order
type WorkOrderResponse struct {
	ID                 uuid.UUID        `json:"id"`
	Number             string           `json:"number"`
	CustomerID         uuid.UUID        `json:"customer_id"`
	EquipmentID        *uuid.UUID       `json:"equipment_id,omitempty"`
	Description        string           `json:"description"`
	Priority           string           `json:"priority"`
	Status             string           `json:"status"`
	AllowedStatuses    []string         `json:"allowed_statuses"`
	AssignedTo         *uuid.UUID       `json:"assigned_to,omitempty"`
	TechnicianIDs      []uuid.UUID      `json:"technician_ids"`
	SellerID           *uuid.UUID       `json:"seller_id,omitempty"`
	DriverID           *uuid.UUID       `json:"driver_id,omitempty"`
	Items              []workorder.Item `json:"items"`
	DisplacementValue  decimal.Decimal  `json:"displacement_value"`
	Discount           decimal.Decimal  `json:"discount"`
	DiscountPercentage decimal.Decimal  `json:"discount_percentage"`
	Total              decimal.Decimal  `json:"total"`
	IsWarranty         bool             `json:"is_warranty"`
	ReceivedAt         time.Time        `json:"received_at"`
	StartedAt          *time.Time       `json:"started_at,omitempty"`
	CompletedAt        *time.Time       `json:"completed_at,omitempty"`
	DeliveredAt        *time.Time       `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time       `json:"cancelled_at,omitempty"`
	CreatedBy          *uuid.UUID       `json:"created_by,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// ToWorkOrderResponse converts a domain work order
func ToWorkOrderResponse(wo *workorder.WorkOrder) WorkOrderResponse {
	allowed := make([]string, 0)
	for _, s := range wo.Status.AllowedTransitions() {
		allowed = append(allowed, string(s))
	}
	return WorkOrderResponse{
		ID:                 wo.ID,
		Number:             wo.Number,
		CustomerID:         wo.CustomerID,
		EquipmentID:        wo.EquipmentID,
		Description:        wo.Description,
		Priority:           wo.Priority,
		Status:             string(wo.Status),
		AllowedStatuses:    allowed,
		AssignedTo:         wo.AssignedTo,
		TechnicianIDs:      wo.TechnicianIDs,
		SellerID:           wo.SellerID,
		DriverID:           wo.DriverID,
		Items:              wo.Items,
		DisplacementValue:  wo.DisplacementValue,
		Discount:           wo.Discount,
		DiscountPercentage: wo.DiscountPercentage,
		Total:              wo.Total,
		IsWarranty:         wo.IsWarranty,
		ReceivedAt:         wo.ReceivedAt,
		StartedAt:          wo.StartedAt,
		CompletedAt:        wo.CompletedAt,
		DeliveredAt:        wo.DeliveredAt,
		CancelledAt:        wo.CancelledAt,
		CreatedBy:          wo.CreatedBy,
		CreatedAt:          wo.CreatedAt,
		UpdatedAt:          wo.UpdatedAt,
	}
}
