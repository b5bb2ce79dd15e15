package domain

import "time"

// EventType represents the type of platform event
type EventType string

const (
	EventTypeStakerCreated       EventType = "staker.created"
	EventTypeStakerClosed        EventType = "staker.closed"
	EventTypeSubscriptionUpdated EventType = "subscription.updated"
	EventTypeSubscriptionPaid    EventType = "subscription.paid"
	EventTypeSubscriptionDue     EventType = "subscription.due"
	EventTypeSubscriptionLapsed  EventType = "subscription.lapsed"
	EventTypeCollectionCreated   EventType = "collection.created"
	EventTypeCollectionClosed    EventType = "collection.closed"
	EventTypeEmissionAdded       EventType = "emission.added"
	EventTypeEmissionClosed      EventType = "emission.closed"
	EventTypeStakeCreated        EventType = "stake.created"
	EventTypeStakeClaimed        EventType = "stake.claimed"
	EventTypeStakeReleased       EventType = "stake.released"
	EventTypeDistributionFunded  EventType = "distribution.funded"
)

// PlatformEvent is the normalized event published to the message broker after
// every state-changing operation. This is the standard format consumers see.
type PlatformEvent struct {
	// EventID is a unique identifier for this event (UUID)
	EventID string `json:"event_id"`
	// Tenant is the slug of the staker the event belongs to
	Tenant string `json:"tenant"`
	// Type is the event type (e.g., "stake.created")
	Type EventType `json:"type"`
	// Timestamp is the ledger clock at the time of the operation
	Timestamp time.Time `json:"timestamp"`
	// Data carries event-specific fields (mints, amounts, fees)
	Data map[string]interface{} `json:"data,omitempty"`
}
