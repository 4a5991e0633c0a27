package finance

import (
	"fmt"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceStatus is the lifecycle state of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusIssued    InvoiceStatus = "issued"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

var invoiceTransitions = map[InvoiceStatus][]InvoiceStatus{
	InvoiceStatusDraft:     {InvoiceStatusIssued, InvoiceStatusCancelled},
	InvoiceStatusIssued:    {InvoiceStatusSent, InvoiceStatusCancelled},
	InvoiceStatusSent:      {InvoiceStatusCancelled},
	InvoiceStatusCancelled: {},
}

// IsValid checks if the status is known
func (s InvoiceStatus) IsValid() bool {
	_, ok := invoiceTransitions[s]
	return ok
}

func (s InvoiceStatus) allowed() []string {
	out := make([]string, 0, len(invoiceTransitions[s]))
	for _, next := range invoiceTransitions[s] {
		out = append(out, string(next))
	}
	return out
}

// Invoice is a billing document, optionally tied to a work order
type Invoice struct {
	shared.TenantAggregateRoot
	Number      string          `json:"number"`
	CustomerID  uuid.UUID       `json:"customer_id"`
	WorkOrderID *uuid.UUID      `json:"work_order_id,omitempty"`
	Total       decimal.Decimal `json:"total"`
	Status      InvoiceStatus   `json:"status"`
	IssuedAt    *time.Time      `json:"issued_at,omitempty"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	Observation string          `json:"observation,omitempty"`
}

// NewInvoice creates a draft invoice
func NewInvoice(tenantID, customerID uuid.UUID, number string, total decimal.Decimal) (*Invoice, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "Customer is required")
	}
	if total.IsNegative() {
		return nil, shared.NewValidationError("total", "Total cannot be negative")
	}
	return &Invoice{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		CustomerID:          customerID,
		Total:               valueobject.Round2(total),
		Status:              InvoiceStatusDraft,
	}, nil
}

// TransitionTo changes the invoice status following the transition table
func (inv *Invoice) TransitionTo(target InvoiceStatus) error {
	if !target.IsValid() {
		return shared.NewValidationError("status", fmt.Sprintf("Unknown status %q", target))
	}
	for _, next := range invoiceTransitions[inv.Status] {
		if next == target {
			if target == InvoiceStatusIssued && inv.IssuedAt == nil {
				now := time.Now()
				inv.IssuedAt = &now
			}
			inv.Status = target
			inv.Touch()
			return nil
		}
	}
	return shared.NewTransitionError(string(inv.Status), string(target), inv.Status.allowed())
}

// Update edits the editable fields; cancelled invoices are frozen
func (inv *Invoice) Update(total decimal.Decimal, dueDate *time.Time, observation string) error {
	if inv.Status == InvoiceStatusCancelled {
		return shared.NewDomainError(shared.CodeInvalidState, "Cancelled invoices cannot be edited")
	}
	if total.IsNegative() {
		return shared.NewValidationError("total", "Total cannot be negative")
	}
	inv.Total = valueobject.Round2(total)
	inv.DueDate = dueDate
	inv.Observation = observation
	inv.Touch()
	return nil
}

// EnsureDeletable blocks deletion of issued or sent invoices
func (inv *Invoice) EnsureDeletable() error {
	if inv.Status == InvoiceStatusIssued || inv.Status == InvoiceStatusSent {
		return shared.NewDomainError(shared.CodeInvalidState, "Issued or sent invoices cannot be deleted; cancel them instead")
	}
	return nil
}

// IsActive reports whether the invoice still counts for its work order
func (inv *Invoice) IsActive() bool {
	return inv.Status != InvoiceStatusCancelled
}
