package commission

import (
	"context"
	"fmt"

	"github.com/calibra/backend/internal/domain/commission"
	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/workorder"
	"go.uber.org/zap"
)

// WorkOrderCommissionHandler generates commissions when a work order
// is completed or invoiced
type WorkOrderCommissionHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewWorkOrderCommissionHandler creates the handler
func NewWorkOrderCommissionHandler(service *Service, logger *zap.Logger) *WorkOrderCommissionHandler {
	return &WorkOrderCommissionHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *WorkOrderCommissionHandler) EventTypes() []string {
	return []string{workorder.EventTypeCompleted, workorder.EventTypeInvoiced}
}

// Handle maps the work order event to its trigger and generates events
func (h *WorkOrderCommissionHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	changed, ok := event.(*workorder.StatusChangedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", "StatusChangedEvent"),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: %s", event.EventType())
	}

	var trigger commission.Trigger
	switch changed.EventType() {
	case workorder.EventTypeCompleted:
		trigger = commission.TriggerOSCompleted
	case workorder.EventTypeInvoiced:
		trigger = commission.TriggerOSInvoiced
	default:
		return nil
	}

	events, err := h.service.Generate(ctx, changed.TenantID(), changed.WorkOrderID, trigger)
	if err != nil {
		h.logger.Error("failed to generate commissions",
			zap.String("work_order_id", changed.WorkOrderID.String()),
			zap.String("trigger", string(trigger)),
			zap.Error(err),
		)
		return fmt.Errorf("generate %s commissions: %w", trigger, err)
	}
	h.logger.Debug("work order commissions handled",
		zap.String("work_order_id", changed.WorkOrderID.String()),
		zap.String("number", changed.Number),
		zap.Int("created", len(events)),
	)
	return nil
}

// PaymentCommissionHandler generates installment commissions and releases
// pending commissions when a receivable linked to a work order is paid
type PaymentCommissionHandler struct {
	service *Service
	logger  *zap.Logger
}

// NewPaymentCommissionHandler creates the handler
func NewPaymentCommissionHandler(service *Service, logger *zap.Logger) *PaymentCommissionHandler {
	return &PaymentCommissionHandler{service: service, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *PaymentCommissionHandler) EventTypes() []string {
	return []string{finance.EventTypeReceivablePaymentRecorded}
}

// Handle processes a ReceivablePaymentRecordedEvent
func (h *PaymentCommissionHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	paid, ok := event.(*finance.ReceivablePaymentRecordedEvent)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", finance.EventTypeReceivablePaymentRecorded),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			finance.EventTypeReceivablePaymentRecorded, event.EventType())
	}
	if paid.WorkOrderID == nil {
		return nil
	}

	tenantID := paid.TenantID()
	if _, err := h.service.Generate(ctx, tenantID, *paid.WorkOrderID, commission.TriggerInstallmentPaid); err != nil {
		return fmt.Errorf("generate installment commissions: %w", err)
	}
	if _, err := h.service.ReleaseByPayment(ctx, tenantID, *paid.WorkOrderID, paid.Amount); err != nil {
		h.logger.Error("failed to release commissions",
			zap.String("work_order_id", paid.WorkOrderID.String()),
			zap.String("payment_id", paid.PaymentID.String()),
			zap.Error(err),
		)
		return fmt.Errorf("release commissions: %w", err)
	}
	return nil
}
