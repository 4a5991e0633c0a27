package models

import (
	"time"

	"github.com/calibra/backend/internal/domain/workorder"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WorkOrderModel is the persistence model for the WorkOrder aggregate root.
type WorkOrderModel struct {
	TenantAggregateModel
	Number             string           `gorm:"type:varchar(30);not null;index"`
	CustomerID         uuid.UUID        `gorm:"type:uuid;not null;index"`
	EquipmentID        *uuid.UUID       `gorm:"type:uuid;index"`
	Description        string           `gorm:"type:text"`
	Priority           string           `gorm:"type:varchar(20);not null;default:'normal'"`
	Status             workorder.Status `gorm:"type:varchar(30);not null;index"`
	AssignedTo         *uuid.UUID       `gorm:"type:uuid;index"`
	TechnicianIDs      []uuid.UUID      `gorm:"type:jsonb;serializer:json"`
	SellerID           *uuid.UUID       `gorm:"type:uuid;index"`
	DriverID           *uuid.UUID       `gorm:"type:uuid"`
	DisplacementValue  decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	Discount           decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	DiscountPercentage decimal.Decimal  `gorm:"type:decimal(5,2);not null;default:0"`
	Total              decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	IsWarranty         bool             `gorm:"not null;default:false"`
	ReceivedAt         time.Time        `gorm:"not null"`
	StartedAt          *time.Time
	CompletedAt        *time.Time
	DeliveredAt        *time.Time
	CancelledAt        *time.Time
	DeletedAt          gorm.DeletedAt       `gorm:"index"`
	Items              []WorkOrderItemModel `gorm:"foreignKey:WorkOrderID;references:ID"`
}

// TableName returns the table name for GORM
func (WorkOrderModel) TableName() string {
	return "work_orders"
}

// ToDomain converts the persistence model to a domain WorkOrder.
func (m *WorkOrderModel) ToDomain() *workorder.WorkOrder {
	wo := &workorder.WorkOrder{
		TenantAggregateRoot: m.tenantRoot(),
		Number:              m.Number,
		CustomerID:          m.CustomerID,
		EquipmentID:         m.EquipmentID,
		Description:         m.Description,
		Priority:            m.Priority,
		Status:              m.Status,
		AssignedTo:          m.AssignedTo,
		TechnicianIDs:       m.TechnicianIDs,
		SellerID:            m.SellerID,
		DriverID:            m.DriverID,
		DisplacementValue:   m.DisplacementValue,
		Discount:            m.Discount,
		DiscountPercentage:  m.DiscountPercentage,
		Total:               m.Total,
		IsWarranty:          m.IsWarranty,
		ReceivedAt:          m.ReceivedAt,
		StartedAt:           m.StartedAt,
		CompletedAt:         m.CompletedAt,
		DeliveredAt:         m.DeliveredAt,
		CancelledAt:         m.CancelledAt,
	}
	if wo.TechnicianIDs == nil {
		wo.TechnicianIDs = []uuid.UUID{}
	}
	wo.Items = make([]workorder.Item, len(m.Items))
	for i := range m.Items {
		wo.Items[i] = m.Items[i].ToDomain()
	}
	return wo
}

// FromDomain populates the persistence model from a domain WorkOrder. Items are mapped separately.
func (m *WorkOrderModel) FromDomain(wo *workorder.WorkOrder) {
	m.setTenantRoot(wo.TenantAggregateRoot)
	m.Number = wo.Number
	m.CustomerID = wo.CustomerID
	m.EquipmentID = wo.EquipmentID
	m.Description = wo.Description
	m.Priority = wo.Priority
	m.Status = wo.Status
	m.AssignedTo = wo.AssignedTo
	m.TechnicianIDs = wo.TechnicianIDs
	m.SellerID = wo.SellerID
	m.DriverID = wo.DriverID
	m.DisplacementValue = wo.DisplacementValue
	m.Discount = wo.Discount
	m.DiscountPercentage = wo.DiscountPercentage
	m.Total = wo.Total
	m.IsWarranty = wo.IsWarranty
	m.ReceivedAt = wo.ReceivedAt
	m.StartedAt = wo.StartedAt
	m.CompletedAt = wo.CompletedAt
	m.DeliveredAt = wo.DeliveredAt
	m.CancelledAt = wo.CancelledAt
}

// WorkOrderModelFromDomain creates a new persistence model from a domain WorkOrder.
func WorkOrderModelFromDomain(wo *workorder.WorkOrder) *WorkOrderModel {
	m := &WorkOrderModel{}
	m.FromDomain(wo)
	return m
}

// WorkOrderItemModel stores one product or service line
type WorkOrderItemModel struct {
	ID          uuid.UUID          `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID          `gorm:"type:uuid;not null;index"`
	WorkOrderID uuid.UUID          `gorm:"type:uuid;not null;index"`
	Type        workorder.ItemType `gorm:"type:varchar(20);not null"`
	ReferenceID *uuid.UUID         `gorm:"type:uuid"`
	Description string             `gorm:"type:varchar(500)"`
	Quantity    decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	UnitPrice   decimal.Decimal    `gorm:"type:decimal(18,4);not null"`
	CostPrice   decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	Discount    decimal.Decimal    `gorm:"type:decimal(18,2);not null;default:0"`
	Total       decimal.Decimal    `gorm:"type:decimal(18,2);not null"`
	Position    int                `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (WorkOrderItemModel) TableName() string {
	return "work_order_items"
}

// ToDomain converts the item model to a domain item
func (m *WorkOrderItemModel) ToDomain() workorder.Item {
	return workorder.Item{
		ID:          m.ID,
		Type:        m.Type,
		ReferenceID: m.ReferenceID,
		Description: m.Description,
		Quantity:    m.Quantity,
		UnitPrice:   m.UnitPrice,
		CostPrice:   m.CostPrice,
		Discount:    m.Discount,
		Total:       m.Total,
	}
}

// WorkOrderItemModelsFromDomain maps the items of an order in their current order
func WorkOrderItemModelsFromDomain(wo *workorder.WorkOrder) []WorkOrderItemModel {
	out := make([]WorkOrderItemModel, len(wo.Items))
	for i, it := range wo.Items {
		id := it.ID
		if id == uuid.Nil {
			id = uuid.New()
		}
		out[i] = WorkOrderItemModel{
			ID:          id,
			TenantID:    wo.TenantID,
			WorkOrderID: wo.ID,
			Type:        it.Type,
			ReferenceID: it.ReferenceID,
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			CostPrice:   it.CostPrice,
			Discount:    it.Discount,
			Total:       it.Total,
			Position:    i,
		}
	}
	return out
}

// WorkOrderStatusHistoryModel is an append-only audit row of a status change
type WorkOrderStatusHistoryModel struct {
	ID          uuid.UUID        `gorm:"type:uuid;primary_key"`
	TenantID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	WorkOrderID uuid.UUID        `gorm:"type:uuid;not null;index"`
	FromStatus  workorder.Status `gorm:"type:varchar(30)"`
	ToStatus    workorder.Status `gorm:"type:varchar(30);not null"`
	UserID      *uuid.UUID       `gorm:"type:uuid"`
	Notes       string           `gorm:"type:text"`
	CreatedAt   time.Time        `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (WorkOrderStatusHistoryModel) TableName() string {
	return "work_order_status_history"
}

// ToDomain converts the history row to a domain status change
func (m *WorkOrderStatusHistoryModel) ToDomain() workorder.StatusChange {
	return workorder.StatusChange{
		ID:         m.ID,
		FromStatus: m.FromStatus,
		ToStatus:   m.ToStatus,
		UserID:     m.UserID,
		Notes:      m.Notes,
		CreatedAt:  m.CreatedAt,
	}
}

// WorkOrderHistoryModelsFromDomain maps the in-memory history of an order
func WorkOrderHistoryModelsFromDomain(wo *workorder.WorkOrder) []WorkOrderStatusHistoryModel {
	out := make([]WorkOrderStatusHistoryModel, len(wo.History))
	for i, h := range wo.History {
		out[i] = WorkOrderStatusHistoryModel{
			ID:          h.ID,
			TenantID:    wo.TenantID,
			WorkOrderID: wo.ID,
			FromStatus:  h.FromStatus,
			ToStatus:    h.ToStatus,
			UserID:      h.UserID,
			Notes:       h.Notes,
			CreatedAt:   h.CreatedAt,
		}
	}
	return out
}
