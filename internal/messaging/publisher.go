package messaging

import (
	"context"

	"github.com/stakehaus/stake-engine/internal/domain"
)

// Publisher defines the interface for publishing platform events to the
// message broker
type Publisher interface {
	// PublishEvent publishes a platform event to the message broker
	PublishEvent(ctx context.Context, event *domain.PlatformEvent) error
	// Close closes the connection
	Close()
}
