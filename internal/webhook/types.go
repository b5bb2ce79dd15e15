package webhook

import "strings"

// EventTypeWildcard is a filter that matches every event type
const EventTypeWildcard = "*"

// Headers attached to every delivery
const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderEventID   = "X-Webhook-Event-ID"
	HeaderEventType = "X-Webhook-Event-Type"
	HeaderTimestamp = "X-Webhook-Timestamp"
)

const userAgent = "Stake-Engine-Webhook/1.0"

// DeliveryResult represents the result of a webhook delivery attempt
type DeliveryResult struct {
	// Success indicates whether the delivery was successful
	Success bool
	// StatusCode is the HTTP status code returned by the webhook endpoint
	StatusCode int
	// Body is the response body (limited to 4KB)
	Body string
	// Error contains error details if delivery failed
	Error string
}

// Matches reports whether an endpoint's filters accept an event type. An
// empty filter list accepts everything; "stake.*" style patterns match the
// dotted prefix.
func Matches(filters []string, eventType string) bool {
	if len(filters) == 0 {
		return true
	}
	for _, filter := range filters {
		if filter == EventTypeWildcard || filter == eventType {
			return true
		}
		if prefix, ok := strings.CutSuffix(filter, ".*"); ok && strings.HasPrefix(eventType, prefix+".") {
			return true
		}
	}
	return false
}
