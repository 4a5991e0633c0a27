package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TaskRecurringBilling    = "billing:recurring"
	TaskFiscalRetransmit    = "fiscal:retransmit"
	TaskCommissionStatement = "commission:statement"
)

// RecurringBillingPayload bills one tenant's recurring contracts for a month
type RecurringBillingPayload struct {
	TenantID uuid.UUID `json:"tenant_id"`
	Month    string    `json:"month"` // YYYY-MM
}

// FiscalRetransmitPayload retransmits a tenant's queued fiscal notes
type FiscalRetransmitPayload struct {
	TenantID uuid.UUID `json:"tenant_id"`
}

// CommissionStatementPayload renders the PDF statement of a settlement
type CommissionStatementPayload struct {
	TenantID     uuid.UUID `json:"tenant_id"`
	SettlementID uuid.UUID `json:"settlement_id"`
	RequestedBy  uuid.UUID `json:"requested_by"`
}

// NewRecurringBillingTask creates a billing:recurring task
func NewRecurringBillingTask(payload RecurringBillingPayload) (*asynq.Task, error) {
	return newTask(TaskRecurringBilling, payload)
}

// NewFiscalRetransmitTask creates a fiscal:retransmit task
func NewFiscalRetransmitTask(payload FiscalRetransmitPayload) (*asynq.Task, error) {
	return newTask(TaskFiscalRetransmit, payload)
}

// NewCommissionStatementTask creates a commission:statement task
func NewCommissionStatementTask(payload CommissionStatementPayload) (*asynq.Task, error) {
	return newTask(TaskCommissionStatement, payload)
}

func newTask(typename string, payload any) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", typename, err)
	}
	return asynq.NewTask(typename, body), nil
}

// DecodePayload unmarshals a task payload into v
func DecodePayload(task *asynq.Task, v any) error {
	if err := json.Unmarshal(task.Payload(), v); err != nil {
		return fmt.Errorf("decode %s payload: %w", task.Type(), err)
	}
	return nil
}
