package persistence

import "strings"

// sortFields whitelists the columns a list endpoint may order by. Order
// requests never reach SQL unless the column is listed here.
type sortFields map[string]struct{}

func sortable(fields ...string) sortFields {
	s := sortFields{"id": {}, "created_at": {}, "updated_at": {}}
	for _, f := range fields {
		s[f] = struct{}{}
	}
	return s
}

// clause builds the ORDER BY expression. Unknown columns fall back to def,
// anything but "asc" sorts descending, and id breaks ties so pages do not
// overlap.
func (s sortFields) clause(field, dir, def string) string {
	field = strings.TrimSpace(field)
	if _, ok := s[field]; !ok {
		field = def
	}
	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(dir), "asc") {
		direction = "ASC"
	}
	if field == "id" {
		return "id " + direction
	}
	return field + " " + direction + ", id " + direction
}

var (
	CommonSortFields = sortable()

	UserSortFields            = sortable("name", "email", "last_login_at")
	CustomerSortFields        = sortable("name", "document", "city")
	EquipmentSortFields       = sortable("serial_number", "model", "manufacturer")
	WorkOrderSortFields       = sortable("number", "status", "priority", "total", "received_at", "completed_at")
	CommissionRuleSortFields  = sortable("name", "priority", "calculation_type", "applies_to_role")
	CommissionEventSortFields = sortable("status", "commission_amount", "base_amount")
	SettlementSortFields      = sortable("period", "status", "total_amount")
	LedgerSortFields          = sortable("due_date", "amount", "amount_paid", "status", "description")
	PaymentSortFields         = sortable("payment_date", "amount")
	InvoiceSortFields         = sortable("number", "status", "total", "issued_at")
	ExpenseSortFields         = sortable("expense_date", "amount", "status", "category")
	StatementSortFields       = sortable("filename", "imported_at")
	EntrySortFields           = sortable("date", "amount", "status")
	ContractSortFields        = sortable("name", "monthly_value", "billing_day", "starts_at")
	ImportSortFields          = sortable("entity_type", "status", "completed_at")
	FiscalNoteSortFields      = sortable("status", "amount", "queued_at", "authorized_at")
)
