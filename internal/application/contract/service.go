// Package contract manages recurring contracts and their monthly billing.
package contract

import (
	"context"
	"errors"
	"time"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/contract"
	"github.com/calibra/backend/internal/domain/finance"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Service handles recurring contracts
type Service struct {
	tx     txn.TransactionScope
	repos  txn.Repositories
	logger *zap.Logger
	loc    *time.Location
	now    func() time.Time
}

// NewService creates a contract service. Due dates are computed in loc.
func NewService(tx txn.TransactionScope, repos txn.Repositories, logger *zap.Logger, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{tx: tx, repos: repos, logger: logger, loc: loc, now: time.Now}
}

// Create registers a contract for a customer of the tenant
func (s *Service) Create(ctx context.Context, tenantID, userID uuid.UUID, req CreateContractRequest) (*contract.RecurringContract, error) {
	c, err := contract.NewRecurringContract(tenantID, req.CustomerID, req.Name, req.MonthlyValue, req.BillingDay, req.StartsAt)
	if err != nil {
		return nil, err
	}
	c.EndsAt = req.EndsAt
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.SetCreatedBy(userID)

	err = s.tx.Execute(ctx, func(repos txn.Repositories) error {
		if _, err := repos.Customers().FindByID(ctx, tenantID, req.CustomerID); err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewValidationError("customer_id", "Customer not found")
			}
			return err
		}
		return repos.Contracts().Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Update edits a contract
func (s *Service) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateContractRequest) (*contract.RecurringContract, error) {
	var c *contract.RecurringContract
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		c, err = repos.Contracts().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if req.Name != nil {
			c.Name = *req.Name
		}
		if req.MonthlyValue != nil {
			c.MonthlyValue = valueobject.Round2(*req.MonthlyValue)
		}
		if req.BillingDay != nil {
			c.BillingDay = *req.BillingDay
		}
		if req.EndsAt != nil {
			c.EndsAt = req.EndsAt
		}
		if req.Active != nil {
			c.Active = *req.Active
		}
		if err := c.Validate(); err != nil {
			return err
		}
		c.Touch()
		return repos.Contracts().Save(ctx, c)
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns one contract
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*contract.RecurringContract, error) {
	return s.repos.Contracts().FindByID(ctx, tenantID, id)
}

// List returns a page of contracts
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, f shared.Filter) (shared.Paginated[contract.RecurringContract], error) {
	rows, total, err := s.repos.Contracts().FindAll(ctx, tenantID, f)
	if err != nil {
		return shared.Paginated[contract.RecurringContract]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), f.Limit()), nil
}

// Delete soft-deletes a contract. Receivables already billed are kept.
func (s *Service) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.repos.Contracts().FindByID(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repos.Contracts().Delete(ctx, tenantID, id)
}

// BillMonth creates one receivable per billable contract of the tenant.
// Contracts already billed for the month are skipped.
func (s *Service) BillMonth(ctx context.Context, tenantID uuid.UUID, month valueobject.Period) (*BillingResult, error) {
	if _, err := valueobject.ParsePeriod(string(month)); err != nil {
		return nil, err
	}
	result := &BillingResult{TenantID: tenantID, Month: string(month)}
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		contracts, err := repos.Contracts().FindActive(ctx, tenantID)
		if err != nil {
			return err
		}
		for i := range contracts {
			c := &contracts[i]
			if !c.IsBillableIn(month, s.loc) {
				result.Skipped++
				continue
			}
			ar, err := finance.NewAccountReceivable(tenantID, c.CustomerID, c.BillingDescription(), c.MonthlyValue, c.DueDate(month, s.loc))
			if err != nil {
				return err
			}
			marker := c.BillingMarker(month)
			ar.BillingMarker = &marker
			ar.Refresh(s.now())
			created, err := repos.Receivables().CreateBilled(ctx, ar)
			if err != nil {
				return err
			}
			if !created {
				result.Skipped++
				continue
			}
			result.Created++
			result.IDs = append(result.IDs, ar.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("recurring contracts billed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("month", string(month)),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped))
	return result, nil
}

// BillAllTenants runs BillMonth for every tenant with an active contract.
// A failing tenant is logged and does not stop the others.
func (s *Service) BillAllTenants(ctx context.Context, month valueobject.Period) ([]BillingResult, error) {
	tenants, err := s.repos.Contracts().TenantsWithActive(ctx)
	if err != nil {
		return nil, err
	}
	results := make([]BillingResult, 0, len(tenants))
	var errs []error
	for _, tenantID := range tenants {
		res, err := s.BillMonth(ctx, tenantID, month)
		if err != nil {
			s.logger.Error("recurring billing failed",
				zap.String("tenant_id", tenantID.String()),
				zap.String("month", string(month)),
				zap.Error(err))
			errs = append(errs, err)
			continue
		}
		results = append(results, *res)
	}
	return results, errors.Join(errs...)
}

// CurrentMonth is the period containing now in the service location
func (s *Service) CurrentMonth() valueobject.Period {
	return valueobject.PeriodOf(s.now().In(s.loc))
}
