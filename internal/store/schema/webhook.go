package schema

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// WebhookEndpoint represents the webhook_endpoints table. Each tenant may
// register endpoints that receive signed platform events.
type WebhookEndpoint struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// StakerID references the tenant that owns the endpoint
	StakerID uint64 `gorm:"column:staker_id;not null;index"`
	// URL is the delivery target
	URL string `gorm:"column:url;not null;type:text"`
	// Secret is the HMAC signing key shared with the receiver
	Secret string `gorm:"column:secret;not null;type:text"`
	// EventFilters is a list of event type patterns; empty means all events
	EventFilters datatypes.JSONSlice[string] `gorm:"column:event_filters;type:jsonb"`
	// Active indicates whether deliveries are attempted
	Active bool `gorm:"column:active;not null;default:true"`
	// MaxAttempts is the retry ceiling per event
	MaxAttempts int `gorm:"column:max_attempts;not null;default:5"`
	// CreatedAt is the timestamp this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the WebhookEndpoint model
func (WebhookEndpoint) TableName() string {
	return "webhook_endpoints"
}

// Webhook delivery statuses.
const (
	WebhookDeliveryStatusPending = "pending"
	WebhookDeliveryStatusSuccess = "success"
	WebhookDeliveryStatusFailed  = "failed"
)

// WebhookDelivery represents the webhook_deliveries table, one row per
// endpoint per event.
type WebhookDelivery struct {
	// ID is the internal database primary key
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// EndpointID references the endpoint the event was delivered to
	EndpointID uint64 `gorm:"column:endpoint_id;not null;index"`
	// EventID is the platform event identifier carried in the signature
	EventID uuid.UUID `gorm:"column:event_id;not null;type:uuid;index"`
	// EventType is the dotted event type, e.g. stake.created
	EventType string `gorm:"column:event_type;not null;type:text"`
	// Payload is the JSON body that was sent
	Payload datatypes.JSON `gorm:"column:payload;type:jsonb"`
	// Status is pending, success or failed
	Status string `gorm:"column:status;not null;default:'pending';index"`
	// Attempts is the number of delivery attempts made so far
	Attempts int `gorm:"column:attempts;not null;default:0"`
	// LastAttemptAt is the time of the most recent attempt
	LastAttemptAt *time.Time `gorm:"column:last_attempt_at;type:timestamptz"`
	// ResponseStatus is the HTTP status of the last attempt
	ResponseStatus *int `gorm:"column:response_status"`
	// ErrorMessage holds the transport error of the last failed attempt
	ErrorMessage *string `gorm:"column:error_message;type:text"`
	// CreatedAt is the timestamp this record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz"`
	// UpdatedAt is the timestamp this record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz"`
}

// TableName specifies the table name for the WebhookDelivery model
func (WebhookDelivery) TableName() string {
	return "webhook_deliveries"
}
