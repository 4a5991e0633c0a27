package models

import (
	"github.com/calibra/backend/internal/domain/customer"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CustomerModel is the persistence model for the Customer aggregate root.
type CustomerModel struct {
	TenantAggregateModel
	Name      string         `gorm:"type:varchar(200);not null"`
	Document  string         `gorm:"type:varchar(20);index"`
	Email     string         `gorm:"type:varchar(200)"`
	Phone     string         `gorm:"type:varchar(50)"`
	Address   string         `gorm:"type:varchar(500)"`
	City      string         `gorm:"type:varchar(100)"`
	State     string         `gorm:"type:varchar(2)"`
	Notes     string         `gorm:"type:text"`
	Active    bool           `gorm:"not null;default:true"`
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *customer.Customer {
	return &customer.Customer{
		TenantAggregateRoot: m.tenantRoot(),
		Name:                m.Name,
		Document:            m.Document,
		Email:               m.Email,
		Phone:               m.Phone,
		Address:             m.Address,
		City:                m.City,
		State:               m.State,
		Notes:               m.Notes,
		Active:              m.Active,
	}
}

// CustomerModelFromDomain creates a new persistence model from a domain Customer entity.
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	m := &CustomerModel{
		Name:     c.Name,
		Document: c.Document,
		Email:    c.Email,
		Phone:    c.Phone,
		Address:  c.Address,
		City:     c.City,
		State:    c.State,
		Notes:    c.Notes,
		Active:   c.Active,
	}
	m.setTenantRoot(c.TenantAggregateRoot)
	return m
}

// EquipmentModel is the persistence model for customer equipment
type EquipmentModel struct {
	TenantAggregateModel
	CustomerID   uuid.UUID      `gorm:"type:uuid;not null;index"`
	SerialNumber string         `gorm:"type:varchar(100);not null;index"`
	Model        string         `gorm:"type:varchar(200)"`
	Manufacturer string         `gorm:"type:varchar(200)"`
	Description  string         `gorm:"type:text"`
	Active       bool           `gorm:"not null;default:true"`
	DeletedAt    gorm.DeletedAt `gorm:"index"`
}

// TableName returns the table name for GORM
func (EquipmentModel) TableName() string {
	return "equipments"
}

// ToDomain converts the persistence model to a domain Equipment
func (m *EquipmentModel) ToDomain() *customer.Equipment {
	return &customer.Equipment{
		TenantAggregateRoot: m.tenantRoot(),
		CustomerID:          m.CustomerID,
		SerialNumber:        m.SerialNumber,
		Model:               m.Model,
		Manufacturer:        m.Manufacturer,
		Description:         m.Description,
		Active:              m.Active,
	}
}

// EquipmentModelFromDomain creates a new persistence model from a domain Equipment
func EquipmentModelFromDomain(e *customer.Equipment) *EquipmentModel {
	m := &EquipmentModel{
		CustomerID:   e.CustomerID,
		SerialNumber: e.SerialNumber,
		Model:        e.Model,
		Manufacturer: e.Manufacturer,
		Description:  e.Description,
		Active:       e.Active,
	}
	m.setTenantRoot(e.TenantAggregateRoot)
	return m
}
