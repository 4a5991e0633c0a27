package persistence

import (
	"context"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/commission"
	"github.com/calibra/backend/internal/domain/contract"
	"github.com/calibra/backend/internal/domain/customer"
	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/calibra/backend/internal/domain/importing"
	"github.com/calibra/backend/internal/domain/reconciliation"
	"github.com/calibra/backend/internal/domain/workorder"
	"gorm.io/gorm"
)

// GormTransactionScope implements txn.TransactionScope using GORM transactions
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos txn.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories builds repositories bound to the current transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) WorkOrders() workorder.Repository {
	return NewGormWorkOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) Rules() commission.RuleRepository {
	return NewGormCommissionRuleRepository(r.tx)
}

func (r *gormTransactionalRepositories) Campaigns() commission.CampaignRepository {
	return NewGormCampaignRepository(r.tx)
}

func (r *gormTransactionalRepositories) CommissionEvents() commission.EventRepository {
	return NewGormCommissionEventRepository(r.tx)
}

func (r *gormTransactionalRepositories) Settlements() commission.SettlementRepository {
	return NewGormSettlementRepository(r.tx)
}

func (r *gormTransactionalRepositories) Receivables() finance.ReceivableRepository {
	return NewGormReceivableRepository(r.tx)
}

func (r *gormTransactionalRepositories) Payables() finance.PayableRepository {
	return NewGormPayableRepository(r.tx)
}

func (r *gormTransactionalRepositories) Payments() finance.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

func (r *gormTransactionalRepositories) Invoices() finance.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

func (r *gormTransactionalRepositories) Expenses() finance.ExpenseRepository {
	return NewGormExpenseRepository(r.tx)
}

func (r *gormTransactionalRepositories) Statements() reconciliation.StatementRepository {
	return NewGormStatementRepository(r.tx)
}

func (r *gormTransactionalRepositories) Entries() reconciliation.EntryRepository {
	return NewGormEntryRepository(r.tx)
}

func (r *gormTransactionalRepositories) Contracts() contract.Repository {
	return NewGormContractRepository(r.tx)
}

func (r *gormTransactionalRepositories) Imports() importing.Repository {
	return NewGormImportRepository(r.tx)
}

func (r *gormTransactionalRepositories) Records() importing.RecordRemover {
	return NewGormRecordRemover(r.tx)
}

func (r *gormTransactionalRepositories) FiscalNotes() fiscal.Repository {
	return NewGormFiscalNoteRepository(r.tx)
}

func (r *gormTransactionalRepositories) Customers() customer.Repository {
	return NewGormCustomerRepository(r.tx)
}

func (r *gormTransactionalRepositories) Equipments() customer.EquipmentRepository {
	return NewGormEquipmentRepository(r.tx)
}

// NewRepositorySet returns non-transactional repositories over db
func NewRepositorySet(db *gorm.DB) *txn.RepositorySet {
	return &txn.RepositorySet{
		WorkOrderRepo:       NewGormWorkOrderRepository(db),
		RuleRepo:            NewGormCommissionRuleRepository(db),
		CampaignRepo:        NewGormCampaignRepository(db),
		CommissionEventRepo: NewGormCommissionEventRepository(db),
		SettlementRepo:      NewGormSettlementRepository(db),
		ReceivableRepo:      NewGormReceivableRepository(db),
		PayableRepo:         NewGormPayableRepository(db),
		PaymentRepo:         NewGormPaymentRepository(db),
		InvoiceRepo:         NewGormInvoiceRepository(db),
		ExpenseRepo:         NewGormExpenseRepository(db),
		StatementRepo:       NewGormStatementRepository(db),
		EntryRepo:           NewGormEntryRepository(db),
		ContractRepo:        NewGormContractRepository(db),
		ImportRepo:          NewGormImportRepository(db),
		RecordRemover:       NewGormRecordRemover(db),
		FiscalNoteRepo:      NewGormFiscalNoteRepository(db),
		CustomerRepo:        NewGormCustomerRepository(db),
		EquipmentRepo:       NewGormEquipmentRepository(db),
	}
}

var (
	_ txn.TransactionScope = (*GormTransactionScope)(nil)
	_ txn.Repositories     = (*gormTransactionalRepositories)(nil)
)
