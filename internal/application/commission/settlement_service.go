package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/commission"
	"github.com/calibra/backend/internal/domain/identity"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/calibra/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StatementLine is one commission event as printed on a statement
type StatementLine struct {
	WorkOrderNumber string
	Role            string
	Trigger         string
	Date            time.Time
	BaseAmount      decimal.Decimal
	Multiplier      decimal.Decimal
	Amount          decimal.Decimal
}

// StatementData is everything a statement template needs
type StatementData struct {
	SettlementID uuid.UUID
	UserName     string
	UserEmail    string
	Period       string
	Status       string
	TotalAmount  decimal.Decimal
	PaidAmount   *decimal.Decimal
	PaidAt       *time.Time
	GeneratedAt  time.Time
	Lines        []StatementLine
}

// StatementRenderer turns statement data into a PDF
type StatementRenderer interface {
	RenderStatement(ctx context.Context, data StatementData) ([]byte, error)
}

// SettlementService handles the settlement lifecycle
type SettlementService struct {
	tx       txn.TransactionScope
	repos    txn.Repositories
	users    identity.UserRepository
	renderer StatementRenderer
	store    storage.Store
	logger   *zap.Logger
	now      func() time.Time
	loc      *time.Location
}

// SettlementOption configures a SettlementService
type SettlementOption func(*SettlementService)

// WithStatementRenderer enables PDF statements
func WithStatementRenderer(r StatementRenderer) SettlementOption {
	return func(s *SettlementService) { s.renderer = r }
}

// WithStatementStore keeps rendered statements in object storage
func WithStatementStore(store storage.Store) SettlementOption {
	return func(s *SettlementService) { s.store = store }
}

// WithLocation sets the timezone used for period boundaries
func WithLocation(loc *time.Location) SettlementOption {
	return func(s *SettlementService) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// NewSettlementService creates a settlement service
func NewSettlementService(tx txn.TransactionScope, repos txn.Repositories, users identity.UserRepository, logger *zap.Logger, opts ...SettlementOption) *SettlementService {
	s := &SettlementService{
		tx:     tx,
		repos:  repos,
		users:  users,
		logger: logger,
		now:    time.Now,
		loc:    time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close totals a user's approved, unsettled events of a period into a closed settlement.
// An existing settlement for the same user and period is reused.
func (s *SettlementService) Close(ctx context.Context, tenantID, closedBy uuid.UUID, req CloseSettlementRequest) (*commission.Settlement, error) {
	period, err := commission.ParsePeriod(req.Period)
	if err != nil {
		return nil, err
	}
	if period.IsFuture(s.now().In(s.loc)) {
		return nil, shared.NewValidationError("period", "Cannot close a future period")
	}
	from, to := period.Bounds(s.loc)

	var settlement *commission.Settlement
	err = s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		settlement, err = repos.Settlements().FindByUserPeriod(ctx, tenantID, req.UserID, period)
		switch {
		case isNotFound(err):
			settlement = commission.NewSettlement(tenantID, req.UserID, period)
		case err != nil:
			return err
		}

		events, err := repos.CommissionEvents().FindSettleable(ctx, tenantID, req.UserID, from, to)
		if err != nil {
			return err
		}
		// a re-close keeps what the settlement already holds
		if settlement.Status != commission.SettlementStatusOpen && settlement.Status != commission.SettlementStatusPaid {
			linked, err := repos.CommissionEvents().FindBySettlement(ctx, tenantID, settlement.ID)
			if err != nil {
				return err
			}
			for _, e := range linked {
				if e.Status == commission.EventStatusApproved {
					events = append(events, e)
				}
			}
		}

		if err := settlement.Close(events, closedBy); err != nil {
			return err
		}
		if err := repos.Settlements().Save(ctx, settlement); err != nil {
			return err
		}
		linked := make([]*commission.CommissionEvent, len(events))
		for i := range events {
			events[i].LinkSettlement(settlement.ID)
			linked[i] = &events[i]
		}
		return repos.CommissionEvents().SaveAll(ctx, linked)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("settlement closed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("settlement_id", settlement.ID.String()),
		zap.String("user_id", req.UserID.String()),
		zap.String("period", string(period)),
		zap.String("total", settlement.TotalAmount.String()),
		zap.Int("events", settlement.EventsCount))
	return settlement, nil
}

// mutate loads a settlement and its linked events, applies fn and saves both
func (s *SettlementService) mutate(ctx context.Context, tenantID, id uuid.UUID,
	fn func(st *commission.Settlement, events []commission.CommissionEvent) ([]*commission.CommissionEvent, error),
) (*commission.Settlement, error) {
	var settlement *commission.Settlement
	err := s.tx.Execute(ctx, func(repos txn.Repositories) error {
		var err error
		settlement, err = repos.Settlements().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		events, err := repos.CommissionEvents().FindBySettlement(ctx, tenantID, id)
		if err != nil {
			return err
		}
		changed, err := fn(settlement, events)
		if err != nil {
			return err
		}
		if err := repos.Settlements().Save(ctx, settlement); err != nil {
			return err
		}
		if len(changed) == 0 {
			return nil
		}
		return repos.CommissionEvents().SaveAll(ctx, changed)
	})
	if err != nil {
		return nil, err
	}
	return settlement, nil
}

// Approve approves a closed settlement
func (s *SettlementService) Approve(ctx context.Context, tenantID, approvedBy, id uuid.UUID) (*commission.Settlement, error) {
	return s.mutate(ctx, tenantID, id, func(st *commission.Settlement, _ []commission.CommissionEvent) ([]*commission.CommissionEvent, error) {
		return nil, st.Approve(approvedBy)
	})
}

// Pay marks a settlement paid and its approved events paid
func (s *SettlementService) Pay(ctx context.Context, tenantID, id uuid.UUID, req PaySettlementRequest) (*commission.Settlement, error) {
	st, err := s.mutate(ctx, tenantID, id, func(st *commission.Settlement, events []commission.CommissionEvent) ([]*commission.CommissionEvent, error) {
		if err := st.Pay(req.PaidAmount, req.Notes); err != nil {
			return nil, err
		}
		var changed []*commission.CommissionEvent
		for i := range events {
			if events[i].Status != commission.EventStatusApproved {
				continue
			}
			if err := events[i].TransitionTo(commission.EventStatusPaid); err != nil {
				return nil, err
			}
			changed = append(changed, &events[i])
		}
		return changed, nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("settlement paid",
		zap.String("tenant_id", tenantID.String()),
		zap.String("settlement_id", id.String()),
		zap.String("paid_amount", st.PaidAmount.String()))
	return st, nil
}

// unlinkAll sends every linked event back to pending
func unlinkAll(events []commission.CommissionEvent) []*commission.CommissionEvent {
	out := make([]*commission.CommissionEvent, len(events))
	for i := range events {
		events[i].RevertToPending()
		out[i] = &events[i]
	}
	return out
}

// Reopen sends a settlement back to open and releases its events
func (s *SettlementService) Reopen(ctx context.Context, tenantID, id uuid.UUID) (*commission.Settlement, error) {
	return s.mutate(ctx, tenantID, id, func(st *commission.Settlement, events []commission.CommissionEvent) ([]*commission.CommissionEvent, error) {
		if err := st.Reopen(); err != nil {
			return nil, err
		}
		return unlinkAll(events), nil
	})
}

// Reject rejects a closed settlement and releases its events
func (s *SettlementService) Reject(ctx context.Context, tenantID, id uuid.UUID, req RejectSettlementRequest) (*commission.Settlement, error) {
	return s.mutate(ctx, tenantID, id, func(st *commission.Settlement, events []commission.CommissionEvent) ([]*commission.CommissionEvent, error) {
		if err := st.Reject(req.Reason); err != nil {
			return nil, err
		}
		return unlinkAll(events), nil
	})
}

// Get returns a settlement with its events
func (s *SettlementService) Get(ctx context.Context, tenantID, id uuid.UUID) (*SettlementDetail, error) {
	st, err := s.repos.Settlements().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	events, err := s.repos.CommissionEvents().FindBySettlement(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []commission.CommissionEvent{}
	}
	return &SettlementDetail{Settlement: st, Events: events}, nil
}

// List returns a page of settlements
func (s *SettlementService) List(ctx context.Context, tenantID uuid.UUID, f SettlementListFilter) (shared.Paginated[commission.Settlement], error) {
	filter := commission.SettlementFilter{
		Filter: shared.Filter{Page: f.Page, PageSize: f.PageSize},
		UserID: f.UserID,
	}
	if f.Period != "" {
		p, err := commission.ParsePeriod(f.Period)
		if err != nil {
			return shared.Paginated[commission.Settlement]{}, err
		}
		filter.Period = &p
	}
	if f.Status != "" {
		st := commission.SettlementStatus(f.Status)
		filter.Status = &st
	}
	rows, total, err := s.repos.Settlements().FindAll(ctx, tenantID, filter)
	if err != nil {
		return shared.Paginated[commission.Settlement]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), filter.Limit()), nil
}

// StatementData collects what a settlement statement prints
func (s *SettlementService) StatementData(ctx context.Context, tenantID, id uuid.UUID) (*StatementData, error) {
	detail, err := s.Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	st := detail.Settlement
	data := &StatementData{
		SettlementID: st.ID,
		Period:       string(st.Period),
		Status:       string(st.Status),
		TotalAmount:  st.TotalAmount,
		PaidAmount:   st.PaidAmount,
		PaidAt:       st.PaidAt,
		GeneratedAt:  s.now().In(s.loc),
		Lines:        make([]StatementLine, 0, len(detail.Events)),
	}
	if s.users != nil {
		if u, err := s.users.FindByID(ctx, tenantID, st.UserID); err == nil {
			data.UserName = u.Name
			data.UserEmail = u.Email
		} else if !isNotFound(err) {
			return nil, err
		}
	}

	numbers := make(map[uuid.UUID]string)
	for _, e := range detail.Events {
		number, ok := numbers[e.WorkOrderID]
		if !ok {
			if wo, err := s.repos.WorkOrders().FindByID(ctx, tenantID, e.WorkOrderID); err == nil {
				number = wo.Number
			}
			numbers[e.WorkOrderID] = number
		}
		data.Lines = append(data.Lines, StatementLine{
			WorkOrderNumber: number,
			Role:            string(e.Role),
			Trigger:         string(e.Trigger),
			Date:            e.CreatedAt,
			BaseAmount:      e.BaseAmount,
			Multiplier:      e.Multiplier,
			Amount:          e.CommissionAmount,
		})
	}
	return data, nil
}

// Statement renders the settlement statement PDF
func (s *SettlementService) Statement(ctx context.Context, tenantID, id uuid.UUID) (*StatementFile, error) {
	if s.renderer == nil {
		return nil, shared.ErrServiceUnavailable.WithDetail("reason", "statement rendering is disabled")
	}
	data, err := s.StatementData(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	pdf, err := s.renderer.RenderStatement(ctx, *data)
	if err != nil {
		return nil, fmt.Errorf("render statement: %w", err)
	}
	return &StatementFile{
		Filename:    fmt.Sprintf("commission-statement-%s.pdf", data.Period),
		ContentType: "application/pdf",
		Content:     pdf,
	}, nil
}

// PublishStatement renders the statement and keeps it in object storage
func (s *SettlementService) PublishStatement(ctx context.Context, tenantID, id uuid.UUID) (*StatementFile, error) {
	if s.store == nil {
		return nil, shared.ErrServiceUnavailable.WithDetail("reason", "statement storage is disabled")
	}
	file, err := s.Statement(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	file.Key = storage.TenantKey(tenantID, "commission-statements", file.Filename, s.now())
	if err := s.store.Put(ctx, file.Key, file.Content, file.ContentType); err != nil {
		return nil, fmt.Errorf("store statement: %w", err)
	}
	if url, err := s.store.URL(ctx, file.Key, 24*time.Hour); err == nil {
		file.URL = url
	} else {
		s.logger.Warn("statement url unavailable", zap.String("key", file.Key), zap.Error(err))
	}
	s.logger.Info("commission statement stored",
		zap.String("tenant_id", tenantID.String()),
		zap.String("settlement_id", id.String()),
		zap.String("key", file.Key))
	return file, nil
}
