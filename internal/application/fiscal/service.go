// Package fiscal emits fiscal notes and retransmits the ones queued while the
// provider was unreachable.
package fiscal

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/calibra/backend/internal/application/txn"
	"github.com/calibra/backend/internal/domain/fiscal"
	"github.com/calibra/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	healthCheckTimeout = 5 * time.Second
	unavailableMessage = "fiscal service unavailable"
)

// Service emits notes through a provider and manages the contingency queue.
// Provider calls happen outside any transaction.
type Service struct {
	repos    txn.Repositories
	provider fiscal.Provider
	logger   *zap.Logger
	now      func() time.Time
}

// NewService creates a fiscal service
func NewService(repos txn.Repositories, provider fiscal.Provider, logger *zap.Logger) *Service {
	return &Service{repos: repos, provider: provider, logger: logger, now: time.Now}
}

// Emit sends a new note. An unreachable provider queues the note offline.
func (s *Service) Emit(ctx context.Context, tenantID, userID uuid.UUID, req EmitRequest) (*EmitResult, error) {
	note, err := fiscal.NewNote(tenantID, req.Type, req.CustomerID, req.Amount)
	if err != nil {
		return nil, err
	}
	note.WorkOrderID = req.WorkOrderID
	note.SetCreatedBy(userID)

	if _, err := s.repos.Customers().FindByID(ctx, tenantID, req.CustomerID); err != nil {
		return nil, crossTenant(err, "customer_id", "Customer not found")
	}
	if req.WorkOrderID != nil {
		if _, err := s.repos.WorkOrders().FindByID(ctx, tenantID, *req.WorkOrderID); err != nil {
			return nil, crossTenant(err, "work_order_id", "Work order not found")
		}
	}
	payload, err := buildPayload(note, req.Payload)
	if err != nil {
		return nil, err
	}

	res, err := fiscal.Emit(ctx, s.provider, note.Type, note.Reference, payload)
	out := &EmitResult{Note: note}
	switch {
	case err == nil:
		note.ApplyResult(res, s.now())
		out.Outcome, out.Message = OutcomeAuthorized, "Note authorized"
		if note.Status == fiscal.NoteStatusProcessing {
			out.Outcome, out.Message = OutcomeProcessing, "Note is being processed by the tax authority"
		}
	case fiscal.IsConnectionError(err):
		note.QueueOffline(payload, s.now())
		out.Outcome, out.Message = OutcomeContingency, "Fiscal service unavailable. Note saved in contingency for later transmission"
	default:
		rej, ok := fiscal.IsRejection(err)
		if !ok {
			return nil, err
		}
		note.Reject(rej.Message)
		out.Outcome, out.Message = OutcomeRejected, rej.Message
	}

	if err := s.repos.FiscalNotes().Save(ctx, note); err != nil {
		return nil, err
	}
	s.logger.Info("fiscal note emitted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("note_id", note.ID.String()),
		zap.String("type", string(note.Type)),
		zap.String("outcome", string(out.Outcome)))
	return out, nil
}

// buildPayload merges the caller's fields with the note reference and total
func buildPayload(note *fiscal.Note, raw json.RawMessage) (json.RawMessage, error) {
	fields := map[string]any{}
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &fields); err != nil {
			return nil, shared.NewValidationError("payload", "Payload must be a JSON object")
		}
	}
	fields["ref"] = note.Reference
	fields["valor_total"] = note.Amount.StringFixed(2)
	return json.Marshal(fields)
}

// Get returns one note
func (s *Service) Get(ctx context.Context, tenantID, id uuid.UUID) (*fiscal.Note, error) {
	return s.repos.FiscalNotes().FindByID(ctx, tenantID, id)
}

// List returns a page of notes
func (s *Service) List(ctx context.Context, tenantID uuid.UUID, f shared.Filter) (shared.Paginated[fiscal.Note], error) {
	rows, total, err := s.repos.FiscalNotes().FindAll(ctx, tenantID, f)
	if err != nil {
		return shared.Paginated[fiscal.Note]{}, err
	}
	return shared.NewPaginated(rows, total, max(f.Page, 1), f.Limit()), nil
}

// PendingCount is the number of notes waiting in contingency
func (s *Service) PendingCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	return s.repos.FiscalNotes().CountQueued(ctx, tenantID)
}

// IsServiceAvailable runs the provider health check
func (s *Service) IsServiceAvailable(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()
	if err := s.provider.HealthCheck(ctx); err != nil {
		s.logger.Warn("fiscal provider health check failed", zap.Error(err))
		return false
	}
	return true
}

// Status reports the contingency queue size and provider availability
func (s *Service) Status(ctx context.Context, tenantID uuid.UUID) (*fiscal.ContingencyStatus, error) {
	count, err := s.PendingCount(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	return &fiscal.ContingencyStatus{PendingCount: count, ServiceAvailable: s.IsServiceAvailable(ctx)}, nil
}

// RetransmitPending resends every queued note of the tenant. Nothing is sent
// while the provider is unavailable.
func (s *Service) RetransmitPending(ctx context.Context, tenantID uuid.UUID) (*fiscal.RetransmitSummary, error) {
	notes, err := s.repos.FiscalNotes().FindQueued(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	summary := &fiscal.RetransmitSummary{Total: len(notes), Results: []fiscal.RetransmitResult{}}
	if len(notes) == 0 {
		return summary, nil
	}
	if !s.IsServiceAvailable(ctx) {
		summary.Message = unavailableMessage
		return summary, nil
	}

	for i := range notes {
		res, err := s.retransmit(ctx, &notes[i])
		if err != nil {
			return nil, err
		}
		summary.Add(res)
	}
	s.logger.Info("fiscal contingency retransmitted",
		zap.String("tenant_id", tenantID.String()),
		zap.Int("total", summary.Total),
		zap.Int("success", summary.Success),
		zap.Int("failed", summary.Failed))
	return summary, nil
}

// RetransmitNote resends one queued note
func (s *Service) RetransmitNote(ctx context.Context, tenantID, id uuid.UUID) (*fiscal.RetransmitResult, error) {
	note, err := s.repos.FiscalNotes().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !note.IsQueued() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, "Note is not in contingency").
			WithDetail("status", string(note.Status))
	}
	res, err := s.retransmit(ctx, note)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// retransmit sends a queued note. A failure keeps the note queued with the
// error recorded; only persistence errors are returned.
func (s *Service) retransmit(ctx context.Context, note *fiscal.Note) (fiscal.RetransmitResult, error) {
	out := fiscal.RetransmitResult{NoteID: note.ID}
	if len(note.OfflinePayload) == 0 {
		note.RecordRetransmitFailure("Offline payload not found")
	} else if res, err := fiscal.Emit(ctx, s.provider, note.Type, note.Reference, note.OfflinePayload); err != nil {
		note.RecordRetransmitFailure(err.Error())
	} else {
		note.ApplyResult(res, s.now())
		out.Success = true
	}
	out.Status = note.Status
	out.Error = note.ErrorMessage

	if err := s.repos.FiscalNotes().Save(ctx, note); err != nil {
		return out, err
	}
	if !out.Success {
		s.logger.Warn("fiscal retransmission failed",
			zap.String("note_id", note.ID.String()),
			zap.String("error", out.Error))
	}
	return out, nil
}

// RetransmitAllTenants drains the queue of every tenant with queued notes.
// A failing tenant does not stop the others.
func (s *Service) RetransmitAllTenants(ctx context.Context) (map[uuid.UUID]*fiscal.RetransmitSummary, error) {
	tenants, err := s.repos.FiscalNotes().TenantsWithQueued(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]*fiscal.RetransmitSummary, len(tenants))
	var errs []error
	for _, tenantID := range tenants {
		summary, err := s.RetransmitPending(ctx, tenantID)
		if err != nil {
			s.logger.Error("fiscal retransmission failed for tenant",
				zap.String("tenant_id", tenantID.String()), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		out[tenantID] = summary
	}
	return out, errors.Join(errs...)
}

func crossTenant(err error, field, message string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewValidationError(field, message)
	}
	return err
}
