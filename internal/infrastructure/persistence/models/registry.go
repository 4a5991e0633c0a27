package models

// All lists every persisted model. Tests use it to build an in-memory schema;
// production schema changes go through the SQL migrations.
func All() []any {
	return []any{
		&TenantModel{},
		&UserModel{},
		&SequenceModel{},
		&CustomerModel{},
		&EquipmentModel{},
		&WorkOrderModel{},
		&WorkOrderItemModel{},
		&WorkOrderStatusHistoryModel{},
		&CommissionRuleModel{},
		&CommissionCampaignModel{},
		&CommissionEventModel{},
		&CommissionSettlementModel{},
		&AccountReceivableModel{},
		&AccountPayableModel{},
		&PaymentModel{},
		&InvoiceModel{},
		&ExpenseModel{},
		&BankStatementModel{},
		&BankStatementEntryModel{},
		&RecurringContractModel{},
		&ImportModel{},
		&ImportMappingModel{},
		&FiscalNoteModel{},
	}
}
