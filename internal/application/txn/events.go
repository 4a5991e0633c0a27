package txn

import (
	"context"

	"github.com/calibra/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// EventSource buffers domain events raised by an aggregate
type EventSource interface {
	GetDomainEvents() []shared.DomainEvent
	ClearDomainEvents()
}

// PublishAfterCommit publishes and clears the buffered events of each source.
// Call it only after the transaction that produced them has committed.
// Publish failures are logged; the state change itself already happened.
func PublishAfterCommit(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, sources ...EventSource) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		events := src.GetDomainEvents()
		src.ClearDomainEvents()
		if publisher == nil || len(events) == 0 {
			continue
		}
		if err := publisher.Publish(ctx, events...); err != nil && logger != nil {
			logger.Error("failed to publish domain events",
				zap.Int("count", len(events)),
				zap.String("event_type", events[0].EventType()),
				zap.Error(err))
		}
	}
}
