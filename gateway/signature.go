package gateway

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
)

// Sign computes the verify_hash Plisio attaches to callbacks: HMAC-SHA1 over
// the JSON encoding of the payload with keys sorted and verify_hash removed.
func Sign(secret string, payload map[string]interface{}) (string, error) {
	body, err := canonicalJSON(payload)
	if err != nil {
		return "", err
	}
	mac := hmac.New(sha1.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil)), nil
}

// VerifyCallback reports whether payload carries a valid verify_hash for secret.
func VerifyCallback(secret string, payload map[string]interface{}) bool {
	given, _ := payload["verify_hash"].(string)
	if given == "" {
		return false
	}
	want, err := Sign(secret, payload)
	if err != nil {
		return false
	}
	return hmac.Equal([]byte(want), []byte(given))
}

// canonicalJSON mirrors PHP's json_encode of a ksorted array: no HTML
// escaping and forward slashes escaped.
func canonicalJSON(payload map[string]interface{}) ([]byte, error) {
	m := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		if k == "verify_hash" {
			continue
		}
		m[k] = v
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(m); err != nil {
		return nil, err
	}
	out := bytes.TrimRight(buf.Bytes(), "\n")
	return bytes.ReplaceAll(out, []byte("/"), []byte(`\/`)), nil
}
