package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// DeriveKey produces a deterministic idempotency key from the caller identity
// and the draft payload. A client that retries the same submission after a
// timeout lands on the same key, so the gateway is charged at most once even
// when no explicit Idempotency-Key header was sent.
func DeriveKey(userID string, draft interface{}) (string, error) {
	payload, err := json.Marshal(draft)
	if err != nil {
		return "", fmt.Errorf("marshal draft for key derivation: %w", err)
	}
	h := sha256.New()
	h.Write([]byte(userID))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil)), nil
}
