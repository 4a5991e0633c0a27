package customer

import "github.com/google/uuid"

// CustomerRequest creates or replaces a customer
type CustomerRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	Document string `json:"document" binding:"omitempty,max=20"`
	Email    string `json:"email" binding:"omitempty,email,max=255"`
	Phone    string `json:"phone" binding:"omitempty,max=50"`
	Address  string `json:"address" binding:"omitempty,max=255"`
	City     string `json:"city" binding:"omitempty,max=100"`
	State    string `json:"state" binding:"omitempty,len=2"`
	Notes    string `json:"notes"`
	Active   *bool  `json:"active"`
}

// EquipmentRequest creates or replaces an equipment
type EquipmentRequest struct {
	CustomerID   uuid.UUID `json:"customer_id" binding:"required"`
	SerialNumber string    `json:"serial_number" binding:"required,max=100"`
	Model        string    `json:"model" binding:"omitempty,max=100"`
	Manufacturer string    `json:"manufacturer" binding:"omitempty,max=100"`
	Description  string    `json:"description"`
	Active       *bool     `json:"active"`
}

// EquipmentListFilter narrows equipment listings
type EquipmentListFilter struct {
	Page       int        `form:"page" binding:"omitempty,min=1"`
	PageSize   int        `form:"page_size" binding:"omitempty,min=1,max=200"`
	Search     string     `form:"search"`
	CustomerID *uuid.UUID `form:"customer_id,parser=encoding.TextUnmarshaler"`
}
