package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalJSON(t *testing.T) {
	body, err := canonicalJSON(map[string]interface{}{
		"status":      "completed",
		"amount":      "0.002",
		"invoice_url": "https://plisio.net/invoice/1",
		"verify_hash": "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"amount":"0.002","invoice_url":"https:\/\/plisio.net\/invoice\/1","status":"completed"}`, string(body))
}

func TestVerifyCallback(t *testing.T) {
	payload := map[string]interface{}{
		"invoice_id":   "inv-1",
		"status":       "completed",
		"order_number": "CRYPTO1",
	}
	hash, err := Sign("secret", payload)
	require.NoError(t, err)

	payload["verify_hash"] = hash
	assert.True(t, VerifyCallback("secret", payload))
	assert.False(t, VerifyCallback("other-secret", payload))

	payload["status"] = "cancelled"
	assert.False(t, VerifyCallback("secret", payload))

	delete(payload, "verify_hash")
	assert.False(t, VerifyCallback("secret", payload))
}
