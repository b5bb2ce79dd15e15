package webhook

import (
	"context"
	"fmt"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"
	"go.uber.org/zap"

	"github.com/stakehaus/stake-engine/internal/adapter"
	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/logger"
	"github.com/stakehaus/stake-engine/internal/store"
	"github.com/stakehaus/stake-engine/internal/store/schema"
)

// DispatcherConfig holds the consumer and retry settings of a dispatcher
type DispatcherConfig struct {
	// Stream is the JetStream stream carrying platform events
	Stream string
	// ConsumerName is the durable consumer identity
	ConsumerName string
	// FilterSubjects restricts which event subjects are consumed
	FilterSubjects []string
}

// Dispatcher consumes platform events from JetStream and delivers them to
// every matching tenant endpoint, recording one delivery row per attempt
// chain. Transport failures retry with exponential backoff up to the
// endpoint's attempt ceiling.
type Dispatcher struct {
	store      store.Store
	js         adapter.JetStream
	httpClient adapter.HTTPClient
	json       adapter.JSON
	clock      adapter.Clock
	cfg        DispatcherConfig

	consumeCtx adapter.ConsumeContext
}

// NewDispatcher creates a webhook dispatcher
func NewDispatcher(st store.Store, js adapter.JetStream, httpClient adapter.HTTPClient, json adapter.JSON, clock adapter.Clock, cfg DispatcherConfig) *Dispatcher {
	return &Dispatcher{
		store:      st,
		js:         js,
		httpClient: httpClient,
		json:       json,
		clock:      clock,
		cfg:        cfg,
	}
}

// Start binds the durable consumer and begins dispatching
func (d *Dispatcher) Start(ctx context.Context) error {
	consumer, err := d.js.CreateOrUpdateConsumer(ctx, d.cfg.Stream, jetstream.ConsumerConfig{
		Durable:        d.cfg.ConsumerName,
		FilterSubjects: d.cfg.FilterSubjects,
		AckPolicy:      jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return fmt.Errorf("failed to create webhook consumer: %w", err)
	}
	consumeCtx, err := consumer.Consume(func(msg adapter.Message) {
		d.handle(ctx, msg)
	})
	if err != nil {
		return fmt.Errorf("failed to start webhook consumer: %w", err)
	}
	d.consumeCtx = consumeCtx
	logger.Info("webhook dispatcher started",
		zap.String("stream", d.cfg.Stream),
		zap.String("consumer", d.cfg.ConsumerName))
	return nil
}

// Stop drains the consumer
func (d *Dispatcher) Stop() {
	if d.consumeCtx != nil {
		d.consumeCtx.Drain()
	}
}

// handle processes one message. Malformed events are terminated; dispatch
// errors trigger redelivery.
func (d *Dispatcher) handle(ctx context.Context, msg adapter.Message) {
	var event domain.PlatformEvent
	if err := d.json.Unmarshal(msg.Data(), &event); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "failed to decode platform event, terminating"),
			zap.String("subject", msg.Subject()))
		_ = msg.Term()
		return
	}
	if err := d.Dispatch(ctx, &event); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "failed to dispatch platform event"),
			zap.String("event_id", event.EventID))
		_ = msg.Nak()
		return
	}
	_ = msg.Ack()
}

// Dispatch fans one event out to every active endpoint of its tenant whose
// filters match. Endpoint-level delivery failure is recorded, not returned:
// one unreachable receiver must not hold back the rest.
func (d *Dispatcher) Dispatch(ctx context.Context, event *domain.PlatformEvent) error {
	staker, err := d.store.GetStakerBySlug(ctx, event.Tenant)
	if err != nil {
		return err
	}
	if staker == nil {
		// Tenant removed after the event was published; nothing to do.
		return nil
	}
	endpoints, err := d.store.ListActiveWebhookEndpoints(ctx, staker.ID)
	if err != nil {
		return err
	}
	for _, endpoint := range endpoints {
		if !Matches(endpoint.EventFilters, string(event.Type)) {
			continue
		}
		d.deliver(ctx, endpoint, event)
	}
	return nil
}

// deliver runs the retry loop for one endpoint and records the outcome
func (d *Dispatcher) deliver(ctx context.Context, endpoint *schema.WebhookEndpoint, event *domain.PlatformEvent) {
	eventID, err := uuid.Parse(event.EventID)
	if err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "event carries a malformed id, skipping delivery"),
			zap.String("event_id", event.EventID))
		return
	}

	delivery := &schema.WebhookDelivery{
		EndpointID: endpoint.ID,
		EventID:    eventID,
		EventType:  string(event.Type),
		Status:     schema.WebhookDeliveryStatusPending,
	}
	if err := d.store.CreateWebhookDelivery(ctx, delivery); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "failed to create webhook delivery record"),
			zap.Uint64("endpoint_id", endpoint.ID))
		return
	}

	maxAttempts := endpoint.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempt := func() error {
		delivery.Attempts++
		now := d.clock.Now()
		delivery.LastAttemptAt = &now

		payload, signature, timestamp, err := GenerateSignedPayload(endpoint.Secret, event)
		if err != nil {
			// A bad secret cannot improve with retries.
			return backoff.Permanent(err)
		}
		delivery.Payload = payload

		headers := map[string]string{
			"Content-Type":  "application/json",
			"User-Agent":    userAgent,
			HeaderSignature: signature,
			HeaderEventID:   event.EventID,
			HeaderEventType: string(event.Type),
			HeaderTimestamp: fmt.Sprintf("%d", timestamp),
		}
		result, err := d.httpClient.Post(ctx, endpoint.URL, headers, payload)
		if err != nil {
			msg := err.Error()
			delivery.ErrorMessage = &msg
			return err
		}
		delivery.ResponseStatus = &result.StatusCode
		if result.StatusCode < 200 || result.StatusCode >= 300 {
			msg := fmt.Sprintf("endpoint returned status %d", result.StatusCode)
			delivery.ErrorMessage = &msg
			return fmt.Errorf("%s", msg)
		}
		delivery.ErrorMessage = nil
		return nil
	}

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewExponentialBackOff(), uint64(maxAttempts-1)), ctx)
	if err := backoff.Retry(attempt, policy); err != nil {
		delivery.Status = schema.WebhookDeliveryStatusFailed
		logger.WarnCtx(ctx, "webhook delivery failed",
			zap.Uint64("endpoint_id", endpoint.ID),
			zap.String("event_id", event.EventID),
			zap.Int("attempts", delivery.Attempts),
			zap.Error(err))
	} else {
		delivery.Status = schema.WebhookDeliveryStatusSuccess
	}
	if err := d.store.SaveWebhookDelivery(ctx, delivery); err != nil {
		logger.ErrorCtx(ctx, err,
			zap.String("message", "failed to save webhook delivery record"),
			zap.Uint64("delivery_id", delivery.ID))
	}
}
