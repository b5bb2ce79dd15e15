// Package engine implements the platform core: subscription billing and fee
// tiering, reward accrual, vault solvency, and the stake/claim/unstake
// lifecycle. Every operation runs inside a single store transaction; token
// and NFT movements go through the custody collaborator, and a failed custody
// instruction rolls the whole operation back.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/stakehaus/stake-engine/internal/adapter"
	"github.com/stakehaus/stake-engine/internal/custody"
	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/logger"
	"github.com/stakehaus/stake-engine/internal/messaging"
	"github.com/stakehaus/stake-engine/internal/store"
)

// Engine wires the persistence layer, the custody collaborator, the event
// publisher, and the ledger clock into one entry point for all platform
// operations
type Engine struct {
	store     store.Store
	custodian custody.Custodian
	publisher messaging.Publisher
	clock     adapter.Clock
}

// New creates an Engine. Publisher may be nil when event emission is not
// wanted (tests, one-shot tools).
func New(st store.Store, custodian custody.Custodian, publisher messaging.Publisher, clock adapter.Clock) *Engine {
	return &Engine{
		store:     st,
		custodian: custodian,
		publisher: publisher,
		clock:     clock,
	}
}

// publish emits a platform event after the surrounding transaction has
// committed. Emission failures are logged, never returned: the state change
// has already happened and must not be reported as failed.
func (e *Engine) publish(ctx context.Context, tenant string, eventType domain.EventType, data map[string]interface{}) {
	if e.publisher == nil {
		return
	}
	event := &domain.PlatformEvent{
		EventID:   uuid.NewString(),
		Tenant:    tenant,
		Type:      eventType,
		Timestamp: e.clock.Now(),
		Data:      data,
	}
	if err := e.publisher.PublishEvent(ctx, event); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "failed to publish platform event"),
			zap.String("tenant", tenant),
			zap.String("event_type", string(eventType)))
	}
}

// seconds returns the whole seconds between two instants, never negative
func seconds(from, to time.Time) int64 {
	s := to.Unix() - from.Unix()
	if s < 0 {
		return 0
	}
	return s
}
