package router

import (
	"github.com/calibra/backend/internal/interfaces/http/handler"
)

// Handlers is every HTTP handler mounted under the versioned API
type Handlers struct {
	Auth           *handler.AuthHandler
	User           *handler.UserHandler
	Tenant         *handler.TenantHandler
	Role           *handler.RoleHandler
	System         *handler.SystemHandler
	Customer       *handler.CustomerHandler
	WorkOrder      *handler.WorkOrderHandler
	Commission     *handler.CommissionHandler
	Settlement     *handler.SettlementHandler
	Receivable     *handler.ReceivableHandler
	Payable        *handler.PayableHandler
	Finance        *handler.FinanceHandler
	Reconciliation *handler.ReconciliationHandler
	Contract       *handler.ContractHandler
	Import         *handler.ImportHandler
	Fiscal         *handler.FiscalHandler
}

// Groups builds the API route table. Public endpoints (login, refresh,
// system info) must also be listed in the JWT skip paths.
func Groups(h Handlers, guard Guard) []*DomainGroup {
	auth := NewDomainGroup("auth", "/auth", guard).
		POST("/login", "", h.Auth.Login).
		POST("/refresh", "", h.Auth.RefreshToken).
		POST("/logout", "", h.Auth.Logout).
		GET("/me", "", h.Auth.GetCurrentUser)

	system := NewDomainGroup("system", "/system", guard).
		GET("/info", "", h.System.GetSystemInfo)

	identity := NewDomainGroup("identity", "", guard).
		POST("/tenants", "tenants.create", h.Tenant.Create).
		GET("/tenants/current", "", h.Tenant.Current).
		POST("/users", "users.manage", h.User.Create).
		GET("/users", "users.view", h.User.List).
		GET("/users/:id", "users.view", h.User.GetByID).
		PUT("/users/:id/roles", "users.manage", h.User.SetRoles).
		POST("/users/:id/deactivate", "users.manage", h.User.Deactivate).
		GET("/roles/:role/permissions", "roles.view", h.Role.GetPermissions).
		POST("/roles/:role/permissions", "roles.manage", h.Role.Grant).
		DELETE("/roles/:role/permissions", "roles.manage", h.Role.Revoke)

	customers := NewDomainGroup("customers", "", guard).
		POST("/customers", "customers.create", h.Customer.Create).
		GET("/customers", "customers.view", h.Customer.List).
		GET("/customers/:id", "customers.view", h.Customer.GetByID).
		PUT("/customers/:id", "customers.update", h.Customer.Update).
		DELETE("/customers/:id", "customers.delete", h.Customer.Delete).
		POST("/equipments", "customers.create", h.Customer.CreateEquipment).
		GET("/equipments", "customers.view", h.Customer.ListEquipments).
		GET("/equipments/:id", "customers.view", h.Customer.GetEquipment).
		PUT("/equipments/:id", "customers.update", h.Customer.UpdateEquipment).
		DELETE("/equipments/:id", "customers.delete", h.Customer.DeleteEquipment)

	workOrders := NewDomainGroup("work-orders", "/work-orders", guard).
		POST("", "work_orders.create", h.WorkOrder.Create).
		GET("", "work_orders.view", h.WorkOrder.List).
		GET("/:id", "work_orders.view", h.WorkOrder.GetByID).
		PUT("/:id", "work_orders.update", h.WorkOrder.Update).
		DELETE("/:id", "work_orders.delete", h.WorkOrder.Delete).
		POST("/:id/status", "work_orders.update_status", h.WorkOrder.ChangeStatus).
		POST("/:id/reopen", "work_orders.update_status", h.WorkOrder.Reopen).
		GET("/:id/history", "work_orders.view", h.WorkOrder.History).
		GET("/:id/commission-events", "commissions.events.view", h.WorkOrder.CommissionEvents)

	commissions := NewDomainGroup("commissions", "", guard).
		POST("/commission-rules", "commissions.rules.manage", h.Commission.CreateRule).
		GET("/commission-rules", "commissions.rules.view", h.Commission.ListRules).
		GET("/commission-rules/:id", "commissions.rules.view", h.Commission.GetRule).
		PUT("/commission-rules/:id", "commissions.rules.manage", h.Commission.UpdateRule).
		DELETE("/commission-rules/:id", "commissions.rules.manage", h.Commission.DeleteRule).
		POST("/commission-campaigns", "commissions.campaigns.manage", h.Commission.CreateCampaign).
		GET("/commission-campaigns", "commissions.campaigns.view", h.Commission.ListCampaigns).
		GET("/commission-campaigns/:id", "commissions.campaigns.view", h.Commission.GetCampaign).
		PUT("/commission-campaigns/:id", "commissions.campaigns.manage", h.Commission.UpdateCampaign).
		DELETE("/commission-campaigns/:id", "commissions.campaigns.manage", h.Commission.DeleteCampaign).
		POST("/commissions/simulate", "commissions.simulate", h.Commission.Simulate).
		GET("/commissions/summary", "commissions.events.view", h.Commission.Summary).
		GET("/commission-events", "commissions.events.view", h.Commission.ListEvents).
		GET("/commission-events/:id", "commissions.events.view", h.Commission.GetEvent).
		PUT("/commission-events/:id/status", "commissions.events.update", h.Commission.UpdateEventStatus).
		POST("/commission-events/batch-status", "commissions.events.update", h.Commission.BatchUpdateEventStatus)

	settlements := NewDomainGroup("commission-settlements", "/commission-settlements", guard).
		POST("/close", "commissions.settlements.close", h.Settlement.Close).
		GET("", "commissions.settlements.view", h.Settlement.List).
		GET("/:id", "commissions.settlements.view", h.Settlement.GetByID).
		POST("/:id/approve", "commissions.settlements.approve", h.Settlement.Approve).
		POST("/:id/pay", "commissions.settlements.pay", h.Settlement.Pay).
		POST("/:id/reopen", "commissions.settlements.reopen", h.Settlement.Reopen).
		POST("/:id/reject", "commissions.settlements.reject", h.Settlement.Reject).
		GET("/:id/statement", "commissions.settlements.view", h.Settlement.Statement).
		POST("/:id/statement/publish", "commissions.settlements.view", h.Settlement.PublishStatement)

	receivables := NewDomainGroup("accounts-receivable", "/accounts-receivable", guard).
		POST("", "finance.receivables.create", h.Receivable.Create).
		GET("", "finance.receivables.view", h.Receivable.List).
		GET("/summary", "finance.receivables.view", h.Receivable.Summary).
		GET("/export", "finance.receivables.export", h.Receivable.Export).
		POST("/from-work-order", "finance.receivables.create", h.Receivable.GenerateFromWorkOrder).
		POST("/installments", "finance.receivables.create", h.Receivable.GenerateInstallments).
		GET("/:id", "finance.receivables.view", h.Receivable.GetByID).
		PUT("/:id", "finance.receivables.update", h.Receivable.Update).
		DELETE("/:id", "finance.receivables.delete", h.Receivable.Delete).
		POST("/:id/pay", "finance.receivables.pay", h.Receivable.Pay).
		GET("/:id/payments", "finance.receivables.view", h.Receivable.Payments).
		POST("/:id/cancel", "finance.receivables.update", h.Receivable.Cancel)

	payables := NewDomainGroup("accounts-payable", "/accounts-payable", guard).
		POST("", "finance.payables.create", h.Payable.Create).
		GET("", "finance.payables.view", h.Payable.List).
		GET("/summary", "finance.payables.view", h.Payable.Summary).
		GET("/:id", "finance.payables.view", h.Payable.GetByID).
		PUT("/:id", "finance.payables.update", h.Payable.Update).
		DELETE("/:id", "finance.payables.delete", h.Payable.Delete).
		POST("/:id/pay", "finance.payables.pay", h.Payable.Pay).
		GET("/:id/payments", "finance.payables.view", h.Payable.Payments).
		POST("/:id/cancel", "finance.payables.update", h.Payable.Cancel)

	finance := NewDomainGroup("finance", "", guard).
		GET("/payments", "finance.payments.view", h.Finance.ListPayments).
		GET("/payments/:id", "finance.payments.view", h.Finance.GetPayment).
		DELETE("/payments/:id", "finance.payments.reverse", h.Finance.ReversePayment).
		POST("/invoices", "finance.invoices.create", h.Finance.CreateInvoice).
		GET("/invoices", "finance.invoices.view", h.Finance.ListInvoices).
		GET("/invoices/:id", "finance.invoices.view", h.Finance.GetInvoice).
		PUT("/invoices/:id", "finance.invoices.update", h.Finance.UpdateInvoice).
		PUT("/invoices/:id/status", "finance.invoices.update", h.Finance.UpdateInvoiceStatus).
		DELETE("/invoices/:id", "finance.invoices.delete", h.Finance.DeleteInvoice).
		POST("/expenses", "finance.expenses.create", h.Finance.CreateExpense).
		GET("/expenses", "finance.expenses.view", h.Finance.ListExpenses).
		GET("/expenses/:id", "finance.expenses.view", h.Finance.GetExpense).
		DELETE("/expenses/:id", "finance.expenses.delete", h.Finance.DeleteExpense).
		POST("/expenses/:id/approve", "finance.expenses.approve", h.Finance.ApproveExpense).
		POST("/expenses/:id/reject", "finance.expenses.approve", h.Finance.RejectExpense)

	reconciliation := NewDomainGroup("reconciliation", "", guard).
		POST("/bank-statements", "reconciliation.import", h.Reconciliation.Import).
		GET("/bank-statements", "reconciliation.view", h.Reconciliation.ListStatements).
		GET("/bank-statements/:id", "reconciliation.view", h.Reconciliation.GetStatement).
		DELETE("/bank-statements/:id", "reconciliation.delete", h.Reconciliation.DeleteStatement).
		POST("/bank-statements/:id/auto-match", "reconciliation.match", h.Reconciliation.AutoMatch).
		GET("/bank-statement-entries", "reconciliation.view", h.Reconciliation.ListEntries).
		GET("/bank-statement-entries/summary", "reconciliation.view", h.Reconciliation.Summary).
		POST("/bank-statement-entries/bulk", "reconciliation.match", h.Reconciliation.Bulk).
		GET("/bank-statement-entries/:id/suggestions", "reconciliation.view", h.Reconciliation.Suggestions).
		POST("/bank-statement-entries/:id/match", "reconciliation.match", h.Reconciliation.Match).
		POST("/bank-statement-entries/:id/unmatch", "reconciliation.match", h.Reconciliation.Unmatch).
		POST("/bank-statement-entries/:id/ignore", "reconciliation.match", h.Reconciliation.Ignore).
		POST("/bank-statement-entries/:id/restore", "reconciliation.match", h.Reconciliation.Restore)

	contracts := NewDomainGroup("recurring-contracts", "/recurring-contracts", guard).
		POST("", "contracts.manage", h.Contract.Create).
		GET("", "contracts.view", h.Contract.List).
		POST("/bill", "contracts.bill", h.Contract.Bill).
		GET("/:id", "contracts.view", h.Contract.GetByID).
		PUT("/:id", "contracts.manage", h.Contract.Update).
		DELETE("/:id", "contracts.manage", h.Contract.Delete)

	imports := NewDomainGroup("imports", "/imports", guard).
		POST("", "imports.create", h.Import.Import).
		GET("", "imports.view", h.Import.List).
		GET("/templates/:entity_type", "imports.view", h.Import.Template).
		GET("/:id", "imports.view", h.Import.GetByID).
		GET("/:id/mappings", "imports.view", h.Import.Mappings).
		POST("/:id/rollback", "imports.rollback", h.Import.Rollback)

	fiscal := NewDomainGroup("fiscal", "/fiscal", guard).
		POST("/notes", "fiscal.emit", h.Fiscal.Emit).
		GET("/notes", "fiscal.view", h.Fiscal.List).
		GET("/notes/:id", "fiscal.view", h.Fiscal.GetByID).
		GET("/contingency/status", "fiscal.view", h.Fiscal.ContingencyStatus).
		POST("/contingency/retransmit", "fiscal.retransmit", h.Fiscal.RetransmitPending).
		POST("/contingency/retransmit/:id", "fiscal.retransmit", h.Fiscal.RetransmitNote)

	return []*DomainGroup{
		auth, system, identity, customers, workOrders, commissions, settlements,
		receivables, payables, finance, reconciliation, contracts, imports, fiscal,
	}
}
