package persistence

import (
	"context"
	"time"

	"github.com/calibra/backend/internal/domain/commission"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCommissionRuleRepository implements commission.RuleRepository using GORM
type GormCommissionRuleRepository struct {
	db *gorm.DB
}

// NewGormCommissionRuleRepository creates a new GormCommissionRuleRepository
func NewGormCommissionRuleRepository(db *gorm.DB) *GormCommissionRuleRepository {
	return &GormCommissionRuleRepository{db: db}
}

// FindByID finds a rule by ID within a tenant
func (r *GormCommissionRuleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*commission.Rule, error) {
	var model models.CommissionRuleModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists rules
func (r *GormCommissionRuleRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]commission.Rule, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CommissionRuleModel{}).Scopes(tenantScope(tenantID))
	query = searchLike(query, filter.Search, "name")

	var rows []models.CommissionRuleModel
	total, err := findPage(query, filter, CommissionRuleSortFields, "priority", &rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]commission.Rule, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// FindActive returns active rules for a trigger, highest priority first
func (r *GormCommissionRuleRepository) FindActive(ctx context.Context, tenantID uuid.UUID, trigger commission.Trigger) ([]commission.Rule, error) {
	var rows []models.CommissionRuleModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("active = ? AND applies_when = ?", true, trigger).
		Order("priority DESC, created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]commission.Rule, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a rule
func (r *GormCommissionRuleRepository) Save(ctx context.Context, rule *commission.Rule) error {
	return r.db.WithContext(ctx).Save(models.CommissionRuleModelFromDomain(rule)).Error
}

// Delete soft deletes a rule
func (r *GormCommissionRuleRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, tenantID, id, &models.CommissionRuleModel{})
}

// GormCampaignRepository implements commission.CampaignRepository using GORM
type GormCampaignRepository struct {
	db *gorm.DB
}

// NewGormCampaignRepository creates a new GormCampaignRepository
func NewGormCampaignRepository(db *gorm.DB) *GormCampaignRepository {
	return &GormCampaignRepository{db: db}
}

// FindByID finds a campaign by ID within a tenant
func (r *GormCampaignRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*commission.Campaign, error) {
	var model models.CommissionCampaignModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists campaigns
func (r *GormCampaignRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter shared.Filter) ([]commission.Campaign, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CommissionCampaignModel{}).Scopes(tenantScope(tenantID))
	query = searchLike(query, filter.Search, "name")

	var rows []models.CommissionCampaignModel
	total, err := findPage(query, filter, CommonSortFields, "created_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]commission.Campaign, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// FindRunning returns active campaigns whose window contains at
func (r *GormCampaignRepository) FindRunning(ctx context.Context, tenantID uuid.UUID, at time.Time) ([]commission.Campaign, error) {
	var rows []models.CommissionCampaignModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("active = ? AND starts_at <= ? AND ends_at >= ?", true, at, at).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]commission.Campaign, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, nil
}

// Save creates or updates a campaign
func (r *GormCampaignRepository) Save(ctx context.Context, campaign *commission.Campaign) error {
	return r.db.WithContext(ctx).Save(models.CommissionCampaignModelFromDomain(campaign)).Error
}

// Delete soft deletes a campaign
func (r *GormCampaignRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return deleteScoped(ctx, r.db, tenantID, id, &models.CommissionCampaignModel{})
}

// GormCommissionEventRepository implements commission.EventRepository using GORM
type GormCommissionEventRepository struct {
	db *gorm.DB
}

// NewGormCommissionEventRepository creates a new GormCommissionEventRepository
func NewGormCommissionEventRepository(db *gorm.DB) *GormCommissionEventRepository {
	return &GormCommissionEventRepository{db: db}
}

// FindByID finds an event by ID within a tenant
func (r *GormCommissionEventRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*commission.CommissionEvent, error) {
	var model models.CommissionEventModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByIDs loads the given events; unknown ids are skipped
func (r *GormCommissionEventRepository) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]commission.CommissionEvent, error) {
	if len(ids) == 0 {
		return []commission.CommissionEvent{}, nil
	}
	return r.find(r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id IN ?", ids))
}

// FindAll lists events matching the filter
func (r *GormCommissionEventRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter commission.EventFilter) ([]commission.CommissionEvent, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CommissionEventModel{}).Scopes(tenantScope(tenantID))
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.WorkOrderID != nil {
		query = query.Where("work_order_id = ?", *filter.WorkOrderID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SettlementID != nil {
		query = query.Where("settlement_id = ?", *filter.SettlementID)
	}

	var rows []models.CommissionEventModel
	total, err := findPage(query, filter.Filter, CommissionEventSortFields, "created_at", &rows)
	if err != nil {
		return nil, 0, err
	}
	return eventsToDomain(rows), total, nil
}

// FindByWorkOrder returns the events of one work order, optionally by status
func (r *GormCommissionEventRepository) FindByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID, status *commission.EventStatus) ([]commission.CommissionEvent, error) {
	query := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("work_order_id = ?", workOrderID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	return r.find(query.Order("created_at ASC"))
}

// FindBySettlement returns the events attached to a settlement
func (r *GormCommissionEventRepository) FindBySettlement(ctx context.Context, tenantID, settlementID uuid.UUID) ([]commission.CommissionEvent, error) {
	return r.find(r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("settlement_id = ?", settlementID).
		Order("created_at ASC"))
}

// FindSettleable returns approved, unsettled events of a user whose reference
// date falls in [from, to). The reference date is the work order's completion,
// then its reception, then the event creation.
func (r *GormCommissionEventRepository) FindSettleable(ctx context.Context, tenantID, userID uuid.UUID, from, to time.Time) ([]commission.CommissionEvent, error) {
	const refDate = "COALESCE(wo.completed_at, wo.received_at, commission_events.created_at)"
	var rows []models.CommissionEventModel
	if err := r.db.WithContext(ctx).
		Table("commission_events").
		Select("commission_events.*").
		Joins("LEFT JOIN work_orders wo ON wo.id = commission_events.work_order_id").
		Where("commission_events.tenant_id = ? AND commission_events.user_id = ?", tenantID, userID).
		Where("commission_events.status = ? AND commission_events.settlement_id IS NULL", commission.EventStatusApproved).
		Where(refDate+" >= ? AND "+refDate+" < ?", from, to).
		Order("commission_events.created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return eventsToDomain(rows), nil
}

// ExistsForTrigger reports whether events were already generated for a trigger
func (r *GormCommissionEventRepository) ExistsForTrigger(ctx context.Context, tenantID, workOrderID uuid.UUID, trigger commission.Trigger) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.CommissionEventModel{}).
		Scopes(tenantScope(tenantID)).
		Where("work_order_id = ? AND trigger_type = ?", workOrderID, trigger).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountByWorkOrder counts all events of a work order
func (r *GormCommissionEventRepository) CountByWorkOrder(ctx context.Context, tenantID, workOrderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommissionEventModel{}).
		Scopes(tenantScope(tenantID)).
		Where("work_order_id = ?", workOrderID).
		Count(&count).Error
	return count, err
}

// Totals sums a user's commissions by status
func (r *GormCommissionEventRepository) Totals(ctx context.Context, tenantID, userID uuid.UUID) (commission.UserTotals, error) {
	type statusSum struct {
		Status commission.EventStatus
		Total  decimal.Decimal
	}
	var sums []statusSum
	if err := r.db.WithContext(ctx).Model(&models.CommissionEventModel{}).
		Scopes(tenantScope(tenantID)).
		Select("status, COALESCE(SUM(commission_amount), 0) AS total").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&sums).Error; err != nil {
		return commission.UserTotals{}, err
	}
	totals := commission.UserTotals{Pending: decimal.Zero, Approved: decimal.Zero, Paid: decimal.Zero}
	for _, s := range sums {
		switch s.Status {
		case commission.EventStatusPending:
			totals.Pending = s.Total
		case commission.EventStatusApproved:
			totals.Approved = s.Total
		case commission.EventStatusPaid:
			totals.Paid = s.Total
		}
	}
	return totals, nil
}

// Save creates or updates an event
func (r *GormCommissionEventRepository) Save(ctx context.Context, event *commission.CommissionEvent) error {
	return r.db.WithContext(ctx).Save(models.CommissionEventModelFromDomain(event)).Error
}

// SaveAll saves events in one transaction
func (r *GormCommissionEventRepository) SaveAll(ctx context.Context, events []*commission.CommissionEvent) error {
	if len(events) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, e := range events {
			if err := tx.Save(models.CommissionEventModelFromDomain(e)).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *GormCommissionEventRepository) find(query *gorm.DB) ([]commission.CommissionEvent, error) {
	var rows []models.CommissionEventModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return eventsToDomain(rows), nil
}

func eventsToDomain(rows []models.CommissionEventModel) []commission.CommissionEvent {
	out := make([]commission.CommissionEvent, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out
}

// GormSettlementRepository implements commission.SettlementRepository using GORM
type GormSettlementRepository struct {
	db *gorm.DB
}

// NewGormSettlementRepository creates a new GormSettlementRepository
func NewGormSettlementRepository(db *gorm.DB) *GormSettlementRepository {
	return &GormSettlementRepository{db: db}
}

// FindByID finds a settlement by ID within a tenant
func (r *GormSettlementRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*commission.Settlement, error) {
	var model models.CommissionSettlementModel
	if err := r.db.WithContext(ctx).Scopes(tenantScope(tenantID)).Where("id = ?", id).First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByUserPeriod finds the settlement of a user for a period
func (r *GormSettlementRepository) FindByUserPeriod(ctx context.Context, tenantID, userID uuid.UUID, period commission.Period) (*commission.Settlement, error) {
	var model models.CommissionSettlementModel
	if err := r.db.WithContext(ctx).
		Scopes(tenantScope(tenantID)).
		Where("user_id = ? AND period = ?", userID, string(period)).
		First(&model).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll lists settlements matching the filter
func (r *GormSettlementRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter commission.SettlementFilter) ([]commission.Settlement, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.CommissionSettlementModel{}).Scopes(tenantScope(tenantID))
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Period != nil {
		query = query.Where("period = ?", string(*filter.Period))
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}

	var rows []models.CommissionSettlementModel
	total, err := findPage(query, filter.Filter, SettlementSortFields, "period", &rows)
	if err != nil {
		return nil, 0, err
	}
	out := make([]commission.Settlement, len(rows))
	for i := range rows {
		out[i] = *rows[i].ToDomain()
	}
	return out, total, nil
}

// Save creates or updates a settlement
func (r *GormSettlementRepository) Save(ctx context.Context, settlement *commission.Settlement) error {
	return r.db.WithContext(ctx).Save(models.CommissionSettlementModelFromDomain(settlement)).Error
}

var (
	_ commission.RuleRepository       = (*GormCommissionRuleRepository)(nil)
	_ commission.CampaignRepository   = (*GormCampaignRepository)(nil)
	_ commission.EventRepository      = (*GormCommissionEventRepository)(nil)
	_ commission.SettlementRepository = (*GormSettlementRepository)(nil)
)
