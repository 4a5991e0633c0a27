// Package txn defines the unit of work shared by application services.
package txn

import (
	"context"

	"github.com/calibra/backend/internal/domain/commission"
	"github.com/calibra/backend/internal/domain/contract"
	"github.com/calibra/backend/internal/domain/customer"
	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/calibra/backend/internal/domain/importing"
	"github.com/calibra/backend/internal/domain/reconciliation"
	"github.com/calibra/backend/internal/domain/workorder"
)

// TransactionScope provides transactional access to the repositories.
// Every repository handed to fn shares the same database transaction and is
// committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos Repositories) error) error
}

// Repositories gives access to every aggregate repository bound to one transaction
type Repositories interface {
	WorkOrders() workorder.Repository
	Rules() commission.RuleRepository
	Campaigns() commission.CampaignRepository
	CommissionEvents() commission.EventRepository
	Settlements() commission.SettlementRepository
	Receivables() finance.ReceivableRepository
	Payables() finance.PayableRepository
	Payments() finance.PaymentRepository
	Invoices() finance.InvoiceRepository
	Expenses() finance.ExpenseRepository
	Statements() reconciliation.StatementRepository
	Entries() reconciliation.EntryRepository
	Contracts() contract.Repository
	Imports() importing.Repository
	Records() importing.RecordRemover
	FiscalNotes() fiscal.Repository
	Customers() customer.Repository
	Equipments() customer.EquipmentRepository
}

// RepositorySet is a plain Repositories implementation over fixed repositories
type RepositorySet struct {
	WorkOrderRepo       workorder.Repository
	RuleRepo            commission.RuleRepository
	CampaignRepo        commission.CampaignRepository
	CommissionEventRepo commission.EventRepository
	SettlementRepo      commission.SettlementRepository
	ReceivableRepo      finance.ReceivableRepository
	PayableRepo         finance.PayableRepository
	PaymentRepo         finance.PaymentRepository
	InvoiceRepo         finance.InvoiceRepository
	ExpenseRepo         finance.ExpenseRepository
	StatementRepo       reconciliation.StatementRepository
	EntryRepo           reconciliation.EntryRepository
	ContractRepo        contract.Repository
	ImportRepo          importing.Repository
	RecordRemover       importing.RecordRemover
	FiscalNoteRepo      fiscal.Repository
	CustomerRepo        customer.Repository
	EquipmentRepo       customer.EquipmentRepository
}

func (s *RepositorySet) WorkOrders() workorder.Repository { return s.WorkOrderRepo }
func (s *RepositorySet) Rules() commission.RuleRepository { return s.RuleRepo }
func (s *RepositorySet) Campaigns() commission.CampaignRepository { return s.CampaignRepo }
func (s *RepositorySet) CommissionEvents() commission.EventRepository { return s.CommissionEventRepo }
func (s *RepositorySet) Settlements() commission.SettlementRepository { return s.SettlementRepo }
func (s *RepositorySet) Receivables() finance.ReceivableRepository { return s.ReceivableRepo }
func (s *RepositorySet) Payables() finance.PayableRepository { return s.PayableRepo }
func (s *RepositorySet) Payments() finance.PaymentRepository { return s.PaymentRepo }
func (s *RepositorySet) Invoices() finance.InvoiceRepository { return s.InvoiceRepo }
func (s *RepositorySet) Expenses() finance.ExpenseRepository { return s.ExpenseRepo }
func (s *RepositorySet) Statements() reconciliation.StatementRepository { return s.StatementRepo }
func (s *RepositorySet) Entries() reconciliation.EntryRepository { return s.EntryRepo }
func (s *RepositorySet) Contracts() contract.Repository { return s.ContractRepo }
func (s *RepositorySet) Imports() importing.Repository { return s.ImportRepo }
func (s *RepositorySet) Records() importing.RecordRemover { return s.RecordRemover }
func (s *RepositorySet) FiscalNotes() fiscal.Repository { return s.FiscalNoteRepo }
func (s *RepositorySet) Customers() customer.Repository { return s.CustomerRepo }
func (s *RepositorySet) Equipments() customer.EquipmentRepository { return s.EquipmentRepo }

// NoOpTransactionScope runs fn against a fixed repository set without a transaction.
// This is useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	repos Repositories
}

// NewNoOpTransactionScope creates a NoOpTransactionScope over repos
func NewNoOpTransactionScope(repos Repositories) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs fn without a real transaction
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s.repos)
}

var (
	_ TransactionScope = (*NoOpTransactionScope)(nil)
	_ Repositories     = (*RepositorySet)(nil)
)
