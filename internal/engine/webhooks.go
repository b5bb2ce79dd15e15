package engine

import (
	"context"
	"encoding/hex"

	"gorm.io/datatypes"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/store"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

// defaultWebhookMaxAttempts caps deliveries per event when the endpoint does
// not choose its own ceiling
const defaultWebhookMaxAttempts = 5

// CreateWebhookEndpointParams registers a signed-event delivery endpoint
type CreateWebhookEndpointParams struct {
	URL string
	// Secret is the hex-encoded HMAC signing key shared with the receiver
	Secret string
	// EventFilters limits delivery to matching event types; empty means all
	EventFilters []string
	MaxAttempts  *int
}

// CreateWebhookEndpoint registers an endpoint that receives the tenant's
// signed platform events. Only the tenant owner or a platform admin may
// register one.
func (e *Engine) CreateWebhookEndpoint(ctx context.Context, actor, slug string, params CreateWebhookEndpointParams) (*schema.WebhookEndpoint, error) {
	if params.URL == "" {
		return nil, domain.ErrInvalidWebhookURL
	}
	if _, err := hex.DecodeString(params.Secret); err != nil || params.Secret == "" {
		return nil, domain.ErrInvalidWebhookSecret
	}
	var endpoint *schema.WebhookEndpoint
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if actor != cfg.Authority {
			if err := requireOwner(staker, actor); err != nil {
				return err
			}
		}
		maxAttempts := defaultWebhookMaxAttempts
		if params.MaxAttempts != nil {
			maxAttempts = *params.MaxAttempts
		}
		endpoint = &schema.WebhookEndpoint{
			StakerID:     staker.ID,
			URL:          params.URL,
			Secret:       params.Secret,
			EventFilters: datatypes.JSONSlice[string](params.EventFilters),
			Active:       true,
			MaxAttempts:  maxAttempts,
		}
		return tx.CreateWebhookEndpoint(ctx, endpoint)
	})
	if err != nil {
		return nil, err
	}
	return endpoint, nil
}

// ListWebhookEndpoints returns the tenant's active delivery endpoints
func (e *Engine) ListWebhookEndpoints(ctx context.Context, actor, slug string) ([]*schema.WebhookEndpoint, error) {
	var endpoints []*schema.WebhookEndpoint
	err := e.store.Atomic(ctx, func(tx store.Store) error {
		cfg, err := loadConfig(ctx, tx)
		if err != nil {
			return err
		}
		staker, err := loadStaker(ctx, tx, slug)
		if err != nil {
			return err
		}
		if actor != cfg.Authority {
			if err := requireOwner(staker, actor); err != nil {
				return err
			}
		}
		endpoints, err = tx.ListActiveWebhookEndpoints(ctx, staker.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return endpoints, nil
}
