// Package webhook delivers signed platform events to tenant-registered HTTP
// endpoints, with per-endpoint filtering and retry bookkeeping.
package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/stakehaus/stake-engine/internal/domain"
)

// GenerateSignedPayload generates a signed webhook payload with HMAC-SHA256
// signature. The secret is hex-encoded at rest and decoded before signing.
// Returns the JSON payload, signature header value, timestamp, and any error.
func GenerateSignedPayload(hexSecret string, event *domain.PlatformEvent) (payload []byte, signature string, timestamp int64, err error) {
	secret, err := hex.DecodeString(hexSecret)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to decode hex secret: %w", err)
	}

	payload, err = json.Marshal(event)
	if err != nil {
		return nil, "", 0, fmt.Errorf("failed to marshal event: %w", err)
	}

	timestamp = time.Now().Unix()

	// Create signature payload: {timestamp}.{event_id}.{json_body}
	// This format allows clients to verify:
	// 1. The timestamp to prevent replay attacks
	// 2. The event ID for deduplication
	// 3. The entire payload integrity
	signaturePayload := fmt.Sprintf("%d.%s.%s", timestamp, event.EventID, string(payload))

	h := hmac.New(sha256.New, secret)
	h.Write([]byte(signaturePayload))

	// Format: "sha256=<hex_signature>"
	signature = "sha256=" + hex.EncodeToString(h.Sum(nil))

	return payload, signature, timestamp, nil
}
