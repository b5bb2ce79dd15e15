package webhook_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakehaus/stake-engine/internal/domain"
	"github.com/stakehaus/stake-engine/internal/webhook"
)

func testEvent(eventID string, eventType domain.EventType) *domain.PlatformEvent {
	return &domain.PlatformEvent{
		EventID:   eventID,
		Tenant:    "gallery",
		Type:      eventType,
		Timestamp: time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Data: map[string]interface{}{
			"nft_mint": "7vQ9mPa9v3nN7m4sQh7vT4GyZkQ1b2eFAnkw8cdE9xwA",
			"owner":    "F5aK1sQh7vT4GyZkQ1b2eFAnkw8cdE9xwA7vQ9mPa9v3",
		},
	}
}

func TestGenerateSignedPayload(t *testing.T) {
	t.Run("generates valid payload and signature", func(t *testing.T) {
		hexSecret := "746573742d7365637265742d6b6579"
		event := testEvent("8f8f5b9e-7a6e-4c21-935e-6a35a86f2d42", domain.EventTypeStakeCreated)

		payload, signature, timestamp, err := webhook.GenerateSignedPayload(hexSecret, event)
		require.NoError(t, err)

		// Payload is the JSON encoding of the event.
		var parsed domain.PlatformEvent
		err = json.Unmarshal(payload, &parsed)
		require.NoError(t, err)
		assert.Equal(t, event.EventID, parsed.EventID)
		assert.Equal(t, event.Type, parsed.Type)

		assert.Contains(t, signature, "sha256=")
		assert.Greater(t, len(signature), 7)

		now := time.Now().Unix()
		assert.GreaterOrEqual(t, now, timestamp)
		assert.Less(t, now-timestamp, int64(5))

		// A client holding the secret can reproduce the signature from the
		// timestamp, event id, and body.
		signaturePayload := fmt.Sprintf("%d.%s.%s", timestamp, event.EventID, string(payload))
		secretBytes, err := hex.DecodeString(hexSecret)
		require.NoError(t, err)
		h := hmac.New(sha256.New, secretBytes)
		h.Write([]byte(signaturePayload))
		expected := "sha256=" + hex.EncodeToString(h.Sum(nil))
		assert.Equal(t, expected, signature)
	})

	t.Run("different events produce different signatures", func(t *testing.T) {
		hexSecret := "746573742d7365637265742d6b6579"

		_, signature1, _, err := webhook.GenerateSignedPayload(hexSecret,
			testEvent("8f8f5b9e-7a6e-4c21-935e-6a35a86f2d42", domain.EventTypeStakeCreated))
		require.NoError(t, err)

		_, signature2, _, err := webhook.GenerateSignedPayload(hexSecret,
			testEvent("06a1b9ff-4f4e-4f5a-a6a5-0f8f5b9e7a6e", domain.EventTypeStakeReleased))
		require.NoError(t, err)

		assert.NotEqual(t, signature1, signature2)
	})

	t.Run("different secrets produce different signatures", func(t *testing.T) {
		event := testEvent("8f8f5b9e-7a6e-4c21-935e-6a35a86f2d42", domain.EventTypeStakeCreated)

		// Hex encodings of "secret1" and "secret2".
		_, signature1, _, err := webhook.GenerateSignedPayload("73656372657431", event)
		require.NoError(t, err)

		_, signature2, _, err := webhook.GenerateSignedPayload("73656372657432", event)
		require.NoError(t, err)

		assert.NotEqual(t, signature1, signature2)
	})

	t.Run("signature includes event_id to prevent replay", func(t *testing.T) {
		hexSecret := "746573742d7365637265742d6b6579"

		_, signature1, _, err := webhook.GenerateSignedPayload(hexSecret,
			testEvent("8f8f5b9e-7a6e-4c21-935e-6a35a86f2d42", domain.EventTypeStakeCreated))
		require.NoError(t, err)

		_, signature2, _, err := webhook.GenerateSignedPayload(hexSecret,
			testEvent("06a1b9ff-4f4e-4f5a-a6a5-0f8f5b9e7a6e", domain.EventTypeStakeCreated))
		require.NoError(t, err)

		assert.NotEqual(t, signature1, signature2, "Different event IDs should produce different signatures")
	})

	t.Run("empty secret still produces valid signature", func(t *testing.T) {
		event := testEvent("8f8f5b9e-7a6e-4c21-935e-6a35a86f2d42", domain.EventTypeStakeCreated)

		payload, signature, timestamp, err := webhook.GenerateSignedPayload("", event)
		require.NoError(t, err)
		assert.NotEmpty(t, payload)
		assert.NotEmpty(t, signature)
		assert.NotZero(t, timestamp)
	})

	t.Run("invalid hex secret returns error", func(t *testing.T) {
		invalidHexSecret := "not-valid-hex-string" //nolint:gosec,G101
		event := testEvent("8f8f5b9e-7a6e-4c21-935e-6a35a86f2d42", domain.EventTypeStakeCreated)

		_, _, _, err := webhook.GenerateSignedPayload(invalidHexSecret, event)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to decode hex secret")
	})
}

func TestMatches(t *testing.T) {
	assert.True(t, webhook.Matches(nil, "stake.created"))
	assert.True(t, webhook.Matches([]string{"*"}, "stake.created"))
	assert.True(t, webhook.Matches([]string{"stake.created"}, "stake.created"))
	assert.True(t, webhook.Matches([]string{"stake.*"}, "stake.created"))
	assert.True(t, webhook.Matches([]string{"subscription.*", "stake.created"}, "subscription.paid"))

	assert.False(t, webhook.Matches([]string{"stake.created"}, "stake.released"))
	assert.False(t, webhook.Matches([]string{"stake.*"}, "subscription.paid"))
	assert.False(t, webhook.Matches([]string{"stake"}, "stake.created"))
}
