package workorder

import (
	"fmt"
	"time"

	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemType distinguishes product lines from service lines
type ItemType string

const (
	ItemTypeProduct ItemType = "product"
	ItemTypeService ItemType = "service"
)

// IsValid checks if the item type is valid
func (t ItemType) IsValid() bool {
	return t == ItemTypeProduct || t == ItemTypeService
}

// Item is a priced line of a work order
type Item struct {
	ID          uuid.UUID       `json:"id"`
	Type        ItemType        `json:"type"`
	ReferenceID *uuid.UUID      `json:"reference_id,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	Discount    decimal.Decimal `json:"discount"`
	Total       decimal.Decimal `json:"total"`
}

// NewItem creates a line and computes its total
func NewItem(itemType ItemType, description string, quantity, unitPrice, costPrice, discount decimal.Decimal) (Item, error) {
	if !itemType.IsValid() {
		return Item{}, shared.NewValidationError("type", "Item type must be product or service")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return Item{}, shared.NewValidationError("quantity", "Quantity must be positive")
	}
	if unitPrice.IsNegative() || costPrice.IsNegative() || discount.IsNegative() {
		return Item{}, shared.NewValidationError("unit_price", "Prices cannot be negative")
	}
	item := Item{
		ID:          uuid.New(),
		Type:        itemType,
		Description: description,
		Quantity:    quantity,
		UnitPrice:   unitPrice,
		CostPrice:   costPrice,
		Discount:    discount,
	}
	item.Total = valueobject.Round2(valueobject.NonNegative(quantity.Mul(unitPrice).Sub(discount)))
	return item, nil
}

// Cost returns quantity × cost price
func (i Item) Cost() decimal.Decimal {
	return i.Quantity.Mul(i.CostPrice)
}

// StatusChange is one row of a work order's status history
type StatusChange struct {
	ID         uuid.UUID  `json:"id"`
	FromStatus Status     `json:"from_status"`
	ToStatus   Status     `json:"to_status"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// WorkOrder is the aggregate root for a billable service job ("OS")
type WorkOrder struct {
	shared.TenantAggregateRoot
	Number             string          `json:"number"`
	CustomerID         uuid.UUID       `json:"customer_id"`
	EquipmentID        *uuid.UUID      `json:"equipment_id,omitempty"`
	Description        string          `json:"description"`
	Priority           string          `json:"priority"`
	Status             Status          `json:"status"`
	AssignedTo         *uuid.UUID      `json:"assigned_to,omitempty"`
	TechnicianIDs      []uuid.UUID     `json:"technician_ids"`
	SellerID           *uuid.UUID      `json:"seller_id,omitempty"`
	DriverID           *uuid.UUID      `json:"driver_id,omitempty"`
	Items              []Item          `json:"items"`
	DisplacementValue  decimal.Decimal `json:"displacement_value"`
	Discount           decimal.Decimal `json:"discount"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	Total              decimal.Decimal `json:"total"`
	IsWarranty         bool            `json:"is_warranty"`
	ReceivedAt         time.Time       `json:"received_at"`
	StartedAt          *time.Time      `json:"started_at,omitempty"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	DeliveredAt        *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt        *time.Time      `json:"cancelled_at,omitempty"`
	History            []StatusChange  `json:"-"`
}

// NewWorkOrder creates a work order in the open status
func NewWorkOrder(tenantID, customerID uuid.UUID, number, description string) (*WorkOrder, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer_id", "Customer is required")
	}
	if number == "" {
		return nil, shared.NewValidationError("number", "Work order number cannot be empty")
	}
	wo := &WorkOrder{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Number:              number,
		CustomerID:          customerID,
		Description:         description,
		Priority:            "normal",
		Status:              StatusOpen,
		TechnicianIDs:       []uuid.UUID{},
		Items:               []Item{},
		DisplacementValue:   decimal.Zero,
		Discount:            decimal.Zero,
		DiscountPercentage:  decimal.Zero,
		Total:               decimal.Zero,
		ReceivedAt:          time.Now(),
	}
	return wo, nil
}

// SetItems replaces the priced lines and recalculates the total
func (wo *WorkOrder) SetItems(items []Item) error {
	if wo.Status == StatusInvoiced || wo.Status == StatusCancelled {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot change items of a %s work order", wo.Status))
	}
	wo.Items = items
	wo.RecalculateTotal()
	wo.Touch()
	return nil
}

// SetPricing sets displacement and discount. Fixed and percentage discounts are exclusive.
func (wo *WorkOrder) SetPricing(displacement, discount, discountPercentage decimal.Decimal) error {
	if displacement.IsNegative() || discount.IsNegative() || discountPercentage.IsNegative() {
		return shared.NewValidationError("discount", "Pricing values cannot be negative")
	}
	if discount.IsPositive() && discountPercentage.IsPositive() {
		return shared.NewValidationError("discount", "Use either a fixed discount or a percentage discount, not both")
	}
	if discountPercentage.GreaterThan(decimal.NewFromInt(100)) {
		return shared.NewValidationError("discount_percentage", "Discount percentage cannot exceed 100")
	}
	wo.DisplacementValue = displacement
	wo.Discount = discount
	wo.DiscountPercentage = discountPercentage
	wo.RecalculateTotal()
	wo.Touch()
	return nil
}

// AssignTeam sets the main technician, auxiliary technicians, seller and driver
func (wo *WorkOrder) AssignTeam(assignedTo *uuid.UUID, technicians []uuid.UUID, sellerID, driverID *uuid.UUID) {
	wo.AssignedTo = assignedTo
	wo.TechnicianIDs = dedupe(technicians)
	wo.SellerID = sellerID
	wo.DriverID = driverID
	wo.Touch()
}

// RecalculateTotal recomputes total = items + displacement − discount, never below zero
func (wo *WorkOrder) RecalculateTotal() {
	subtotal := wo.ItemsTotal()
	discount := wo.Discount
	if wo.DiscountPercentage.IsPositive() {
		discount = valueobject.Percent(subtotal, wo.DiscountPercentage)
	}
	total := subtotal.Add(wo.DisplacementValue).Sub(discount)
	wo.Total = valueobject.Round2(valueobject.NonNegative(total))
}

// ItemsTotal sums all line totals
func (wo *WorkOrder) ItemsTotal() decimal.Decimal {
	return wo.sumItems(func(Item) bool { return true })
}

// ProductsTotal sums product lines
func (wo *WorkOrder) ProductsTotal() decimal.Decimal {
	return wo.sumItems(func(i Item) bool { return i.Type == ItemTypeProduct })
}

// ServicesTotal sums service lines
func (wo *WorkOrder) ServicesTotal() decimal.Decimal {
	return wo.sumItems(func(i Item) bool { return i.Type == ItemTypeService })
}

// CostTotal sums quantity × cost price over all lines
func (wo *WorkOrder) CostTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range wo.Items {
		total = total.Add(item.Cost())
	}
	return total
}

// ItemsCount returns the number of priced lines
func (wo *WorkOrder) ItemsCount() int {
	return len(wo.Items)
}

func (wo *WorkOrder) sumItems(match func(Item) bool) decimal.Decimal {
	total := decimal.Zero
	for _, item := range wo.Items {
		if match(item) {
			total = total.Add(item.Total)
		}
	}
	return total
}

// Technicians returns the assigned technician followed by the auxiliary ones, without duplicates
func (wo *WorkOrder) Technicians() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(wo.TechnicianIDs)+1)
	if wo.AssignedTo != nil {
		ids = append(ids, *wo.AssignedTo)
	}
	ids = append(ids, wo.TechnicianIDs...)
	return dedupe(ids)
}

// TransitionTo moves the order to a new status following the transition table.
// Reopening a cancelled order must go through Reopen.
func (wo *WorkOrder) TransitionTo(to Status, userID *uuid.UUID, notes string) error {
	if !to.IsValid() {
		return shared.NewValidationError("status", fmt.Sprintf("Unknown status %q", to))
	}
	if wo.Status == StatusCancelled && to == StatusOpen {
		return shared.NewTransitionError(string(wo.Status), string(to), statusStrings(wo.Status.AllowedTransitions())).
			WithDetail("hint", "use reopen")
	}
	if !wo.Status.CanTransitionTo(to) {
		return shared.NewTransitionError(string(wo.Status), string(to), statusStrings(wo.Status.AllowedTransitions()))
	}
	wo.apply(to, userID, notes)
	return nil
}

// Reopen moves a cancelled order back to open
func (wo *WorkOrder) Reopen(userID *uuid.UUID) error {
	if wo.Status != StatusCancelled {
		return shared.NewDomainError(shared.CodeInvalidState, "Only cancelled work orders can be reopened")
	}
	wo.CancelledAt = nil
	wo.apply(StatusOpen, userID, "reopened")
	return nil
}

// RevertInvoicing returns an invoiced order to delivered once its last active invoice is cancelled.
// This compensating step is not a user-facing transition.
func (wo *WorkOrder) RevertInvoicing(userID *uuid.UUID) error {
	if wo.Status != StatusInvoiced {
		return shared.NewDomainError(shared.CodeInvalidState, "Work order is not invoiced")
	}
	wo.apply(StatusDelivered, userID, "invoice cancelled")
	return nil
}

func (wo *WorkOrder) apply(to Status, userID *uuid.UUID, notes string) {
	now := time.Now()
	from := wo.Status
	wo.Status = to

	firstStart := false
	switch to {
	case StatusInProgress:
		if wo.StartedAt == nil {
			wo.StartedAt = &now
			firstStart = true
		}
	case StatusCompleted:
		wo.CompletedAt = &now
	case StatusDelivered:
		if from != StatusInvoiced {
			wo.DeliveredAt = &now
		}
	case StatusCancelled:
		wo.CancelledAt = &now
	}

	wo.History = append(wo.History, StatusChange{
		ID:         uuid.New(),
		FromStatus: from,
		ToStatus:   to,
		UserID:     userID,
		Notes:      notes,
		CreatedAt:  now,
	})
	wo.Touch()

	if eventType, ok := eventTypeFor(to); ok {
		if to == StatusInProgress && !firstStart {
			return
		}
		if to == StatusDelivered && from == StatusInvoiced {
			return
		}
		wo.AddDomainEvent(newStatusChangedEvent(eventType, wo, from, userID))
	}
}

// EnsureDeletable checks the status part of the deletion rule.
// References from financial documents are checked by the application layer.
func (wo *WorkOrder) EnsureDeletable() error {
	if wo.Status.IsLocked() {
		return shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Cannot delete a %s work order", wo.Status))
	}
	return nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
