// Package commission implements commission rules, campaigns, event generation
// and the settlement workflow.
package commission

import (
	"context"
	"errors"
	"time"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/commission"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Service handles commission rules, campaigns and events
type Service struct {
	tx     txn.TransactionScope
	repos  txn.Repositories
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a commission service
func NewService(tx txn.TransactionScope, repos txn.Repositories, logger *zap.Logger) *Service {
	return &Service{tx: tx, repos: repos, logger: logger, now: time.Now}
}

// ---------------------------------------------------------------------------
// Rules
// ---------------------------------------------------------------------------

// CreateRule creates a commission rule
func (s *Service) CreateRule(ctx context.Context, tenantID uuid.UUID, req CreateRuleRequest) (*commission.Rule, error) {
	rule, err := commission.NewRule(tenantID, req.Name, commission.CalculationType(req.CalculationType), req.Value,
		commission.Role(req.AppliesToRole), commission.Trigger(req.AppliesWhen))
	if err != nil {
		return nil, err
	}
	rule.UserID = req.UserID
	rule.Priority = req.Priority
	rule.Formula = req.Formula
	if req.Tiers != nil {
		rule.Tiers = req.Tiers
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	if err := s.repos.Rules().Save(ctx, rule); err != nil {
		return nil, err
	}
	s.logger.Info("commission rule created",
		zap.String("tenant_id", tenantID.String()),
		zap.String("rule_id", rule.ID.String()),
		zap.String("calculation_type", string(rule.CalculationType)))
	return rule, nil
}

// UpdateRule edits a commission rule
func (s *Service) UpdateRule(ctx context.Context, tenantID, id uuid.UUID, req UpdateRuleRequest) (*commission.Rule, error) {
	rule, err := s.repos.Rules().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.UserID != nil {
		rule.UserID = req.UserID
	}
	if req.Name != nil {
		rule.Name = *req.Name
	}
	if req.Value != nil {
		rule.Value = *req.Value
	}
	if req.CalculationType != nil {
		rule.CalculationType = commission.CalculationType(*req.CalculationType)
	}
	if req.AppliesToRole != nil {
		rule.AppliesToRole = commission.Role(*req.AppliesToRole)
	}
	if req.AppliesWhen != nil {
		rule.AppliesWhen = commission.Trigger(*req.AppliesWhen)
	}
	if req.Tiers != nil {
		rule.Tiers = req.Tiers
	}
	if req.Formula != nil {
		rule.Formula = *req.Formula
	}
	if req.Priority != nil {
		rule.Priority = *req.Priority
	}
	if req.Active != nil {
		rule.Active = *req.Active
	}
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	rule.Touch()
	if err := s.repos.Rules().Save(ctx, rule); err != nil {
		return nil, err
	}
	return rule, nil
}

// GetRule returns one rule
func (s *Service) GetRule(ctx context.Context, tenantID, id uuid.UUID) (*commission.Rule, error) {
	return s.repos.Rules().FindByID(ctx, tenantID, id)
}

// ListRules returns a page of rules
func (s *Service) ListRules(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[commission.Rule], error) {
	rows, total, err := s.repos.Rules().FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[commission.Rule]{}, err
	}
	return shared.NewPaginated(rows, total, max(filter.Page, 1), filter.Limit()), nil
}

// DeleteRule soft-deletes a rule. Events already generated keep their amounts.
func (s *Service) DeleteRule(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.repos.Rules().FindByID(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repos.Rules().Delete(ctx, tenantID, id)
}

// ---------------------------------------------------------------------------
// Campaigns
// ---------------------------------------------------------------------------

// CreateCampaign creates a commission campaign
func (s *Service) CreateCampaign(ctx context.Context, tenantID uuid.UUID, req CreateCampaignRequest) (*commission.Campaign, error) {
	c, err := commission.NewCampaign(tenantID, req.Name, req.Multiplier, req.StartsAt, req.EndsAt)
	if err != nil {
		return nil, err
	}
	applyCampaignFilters(c, req.AppliesToRole, req.AppliesToCalculationType)
	if req.Active != nil {
		c.Active = *req.Active
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repos.Campaigns().Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCampaign edits a campaign
func (s *Service) UpdateCampaign(ctx context.Context, tenantID, id uuid.UUID, req UpdateCampaignRequest) (*commission.Campaign, error) {
	c, err := s.repos.Campaigns().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Multiplier != nil {
		c.Multiplier = *req.Multiplier
	}
	if req.StartsAt != nil {
		c.StartsAt = *req.StartsAt
	}
	if req.EndsAt != nil {
		c.EndsAt = *req.EndsAt
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	applyCampaignFilters(c, req.AppliesToRole, req.AppliesToCalculationType)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Touch()
	if err := s.repos.Campaigns().Save(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// an empty string clears a filter, nil keeps it
func applyCampaignFilters(c *commission.Campaign, role, calc *string) {
	if role != nil {
		if *role == "" {
			c.AppliesToRole = nil
		} else {
			r := commission.Role(*role)
			c.AppliesToRole = &r
		}
	}
	if calc != nil {
		if *calc == "" {
			c.AppliesToCalculationType = nil
		} else {
			ct := commission.CalculationType(*calc)
			c.AppliesToCalculationType = &ct
		}
	}
}

// GetCampaign returns one campaign
func (s *Service) GetCampaign(ctx context.Context, tenantID, id uuid.UUID) (*commission.Campaign, error) {
	return s.repos.Campaigns().FindByID(ctx, tenantID, id)
}

// ListCampaigns returns a page of campaigns
func (s *Service) ListCampaigns(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) (shared.Paginated[commission.Campaign], error) {
	rows, total, err := s.repos.Campaigns().FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[commission.Campaign]{}, err
	}
	return shared.NewPaginated(rows, total, max(filter.Page, 1), filter.Limit()), nil
}

// DeleteCampaign removes a campaign
func (s *Service) DeleteCampaign(ctx context.Context, tenantID, id uuid.UUID) error {
	if _, err := s.repos.Campaigns().FindByID(ctx, tenantID, id); err != nil {
		return err
	}
	return s.repos.Campaigns().Delete(ctx, tenantID, id)
}

// ---------------------------------------------------------------------------
// Generation
// ---------------------------------------------------------------------------

func parseTrigger(raw string) (commission.Trigger, error) {
	if raw == "" {
		return commission.TriggerOSCompleted, nil
	}
	t := commission.Trigger(raw)
	if !t.IsValid() {
		return "", shared.NewValidationError("trigger", "Unknown trigger")
	}
	return t, nil
}

func (s *Service) evaluate(ctx context.Context, repos txn.Repositories, tenantID, workOrderID uuid.UUID, trigger commission.Trigger) ([]commission.Calculation, error) {
	wo, err := repos.WorkOrders().FindByID(ctx, tenantID, workOrderID)
	if err != nil {
		return nil, err
	}
	rules, err := repos.Rules().FindActive(ctx, tenantID, trigger)
	if err != nil {
		return nil, err
	}
	now := s.now()
	campaigns, err := repos.Campaigns().FindRunning(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}
	expenses, err := repos.Expenses().SumNetAffecting(ctx, tenantID, workOrderID)
	if err != nil {
		return nil, err
	}
	return commission.NewEvaluator().WithClock(func() time.Time { return now }).
		Evaluate(wo, trigger, rules, campaigns, expenses), nil
}

// Generate creates pending commission events for a work order and trigger.
// A second call for the same pair creates nothing.
func (s *Service) Generate(ctx context.Context, tenantID, workOrderID uuid.UUID, trigger commission.Trigger) ([]commission.CommissionEvent, error) {
	if !trigger.IsValid() {
		return nil, shared.NewValidationError("trigger", "Unknown trigger")
	}

	var created []*commission.CommissionEvent
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		exists, err := repos.CommissionEvents().ExistsForTrigger(ctx, tenantID, workOrderID, trigger)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		calcs, err := s.evaluate(ctx, repos, tenantID, workOrderID, trigger)
		if err != nil {
			return err
		}
		for _, c := range calcs {
			created = append(created, c.ToEvent(tenantID, workOrderID, trigger))
		}
		if len(created) == 0 {
			return nil
		}
		return repos.CommissionEvents().SaveAll(ctx, created)
	})
	if err != nil {
		return nil, err
	}

	out := make([]commission.CommissionEvent, len(created))
	for i, e := range created {
		out[i] = *e
	}
	if len(out) > 0 {
		s.logger.Info("commission events generated",
			zap.String("tenant_id", tenantID.String()),
			zap.String("work_order_id", workOrderID.String()),
			zap.String("trigger", string(trigger)),
			zap.Int("count", len(out)))
	}
	return out, nil
}

// Simulate runs the evaluator without persisting anything
func (s *Service) Simulate(ctx context.Context, tenantID uuid.UUID, req GenerateRequest) (*SimulationResult, error) {
	trigger, err := parseTrigger(req.Trigger)
	if err != nil {
		return nil, err
	}
	calcs, err := s.evaluate(ctx, s.repos, tenantID, req.WorkOrderID, trigger)
	if err != nil {
		return nil, err
	}
	total := decimal.Zero
	for _, c := range calcs {
		total = total.Add(c.Amount)
	}
	if calcs == nil {
		calcs = []commission.Calculation{}
	}
	return &SimulationResult{
		WorkOrderID:  req.WorkOrderID,
		Trigger:      trigger,
		Calculations: calcs,
		Total:        total,
	}, nil
}

// ---------------------------------------------------------------------------
// Events
// ---------------------------------------------------------------------------

// ListEvents returns a page of commission events
func (s *Service) ListEvents(ctx context.Context, tenantID uuid.UUID, f EventListFilter) (shared.Paginated[commission.CommissionEvent], error) {
	filter := commission.EventFilter{
		Filter:       shared.Filter{Page: f.Page, PageSize: f.PageSize},
		UserID:       f.UserID,
		WorkOrderID:  f.WorkOrderID,
		SettlementID: f.SettlementID,
	}
	if f.Status != "" {
		st := commission.EventStatus(f.Status)
		if !st.IsValid() {
			return shared.Paginated[commission.CommissionEvent]{}, shared.NewValidationError("status", "Unknown status")
		}
		filter.Status = &st
	}
	rows, total, err := s.repos.CommissionEvents().FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[commission.CommissionEvent]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), filter.Limit()), nil
}

// GetEvent returns one commission event
func (s *Service) GetEvent(ctx context.Context, tenantID, id uuid.UUID) (*commission.CommissionEvent, error) {
	return s.repos.CommissionEvents().FindByID(ctx, tenantID, id)
}

// UpdateStatus moves one event along the transition table
func (s *Service) UpdateStatus(ctx context.Context, tenantID, id uuid.UUID, req UpdateStatusRequest) (*commission.CommissionEvent, error) {
	var event *commission.CommissionEvent
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		event, err = repos.CommissionEvents().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := event.TransitionTo(commission.EventStatus(req.Status)); err != nil {
			return err
		}
		if req.Notes != "" {
			event.Notes = req.Notes
		}
		return repos.CommissionEvents().Save(ctx, event)
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

// BatchUpdateStatus moves many events in one transaction.
// Each event is checked on its own; events that cannot move are skipped.
func (s *Service) BatchUpdateStatus(ctx context.Context, tenantID uuid.UUID, req BatchUpdateStatusRequest) (*BatchResult, error) {
	target := commission.EventStatus(req.Status)
	if !target.IsValid() {
		return nil, shared.NewValidationError("status", "Unknown status")
	}

	result := &BatchResult{}
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		events, err := repos.CommissionEvents().FindByIDs(ctx, tenantID, req.IDs)
		if err != nil {
			return err
		}
		found := make(map[uuid.UUID]bool, len(events))
		var changed []*commission.CommissionEvent
		for i := range events {
			e := &events[i]
			found[e.ID] = true
			if err := e.TransitionTo(target); err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, BatchSkip{ID: e.ID, Reason: err.Error()})
				continue
			}
			changed = append(changed, e)
		}
		for _, id := range req.IDs {
			if !found[id] {
				result.Skipped++
				result.Errors = append(result.Errors, BatchSkip{ID: id, Reason: "not found"})
			}
		}
		if len(changed) == 0 {
			return nil
		}
		result.Updated = len(changed)
		return repos.CommissionEvents().SaveAll(ctx, changed)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ReleaseByPayment approves the share of a work order's pending events covered by a payment
func (s *Service) ReleaseByPayment(ctx context.Context, tenantID, workOrderID uuid.UUID, amount decimal.Decimal) (*ReleaseResult, error) {
	if !amount.IsPositive() {
		return nil, shared.NewValidationError("amount", "Payment amount must be positive")
	}

	result := &ReleaseResult{}
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		wo, err := repos.WorkOrders().FindByID(ctx, tenantID, workOrderID)
		if err != nil {
			return err
		}
		result.Proportion = commission.ReleaseProportion(amount, wo.Total)

		pending := commission.EventStatusPending
		events, err := repos.CommissionEvents().FindByWorkOrder(ctx, tenantID, workOrderID, &pending)
		if err != nil {
			return err
		}
		var changed []*commission.CommissionEvent
		for i := range events {
			e := &events[i]
			part, err := e.Release(result.Proportion)
			if err != nil {
				return err
			}
			if part != nil {
				result.Split++
				changed = append(changed, part)
			} else if e.Status == commission.EventStatusApproved {
				result.Approved++
			}
			changed = append(changed, e)
		}
		if len(changed) == 0 {
			return nil
		}
		return repos.CommissionEvents().SaveAll(ctx, changed)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("commissions released by payment",
		zap.String("tenant_id", tenantID.String()),
		zap.String("work_order_id", workOrderID.String()),
		zap.String("proportion", result.Proportion.String()),
		zap.Int("approved", result.Approved),
		zap.Int("split", result.Split))
	return result, nil
}

// Summary returns a user's commission totals by status
func (s *Service) Summary(ctx context.Context, tenantID, userID uuid.UUID) (commission.UserTotals, error) {
	return s.repos.CommissionEvents().Totals(ctx, tenantID, userID)
}

// isNotFound reports whether err is a not-found domain error
func isNotFound(err error) bool {
	return errors.Is(err, shared.ErrNotFound)
}
