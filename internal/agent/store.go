package agent

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// retentionWindow bounds the lifetime of every stored envelope. Older
// envelopes are treated as absent and removed on read.
const retentionWindow = 24 * time.Hour

// envelope is the persisted, tamper-resistant wrapper around any client
// payload. Integrity is a truncated digest of the decrypted plaintext: a
// mismatch after decryption means the ciphertext was edited in place.
type envelope struct {
	Encrypted string `json:"encrypted"`
	Signature string `json:"signature"`
	Timestamp int64  `json:"timestamp"` // epoch ms
	Integrity string `json:"integrity"`
}

// integrityDigest hashes the serialized plaintext and truncates the result.
func integrityDigest(plain []byte) string {
	return strconv.FormatUint(uint64(rollingHash(plain)), 16)
}

// secureStore encrypts, signs and persists v under key.
func (a *Agent) secureStore(key string, v any) error {
	plain, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("secure store %s: %w", key, err)
	}
	cipherText, err := a.codec.encrypt(v)
	if err != nil {
		return fmt.Errorf("secure store %s: %w", key, err)
	}
	sig, err := a.SignData(v)
	if err != nil {
		return fmt.Errorf("secure store %s: %w", key, err)
	}
	env := envelope{
		Encrypted: cipherText,
		Signature: sig,
		Timestamp: a.now().UnixMilli(),
		Integrity: integrityDigest(plain),
	}
	raw, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("secure store %s: %w", key, err)
	}
	return a.storage.Set(key, string(raw))
}

// secureRetrieve loads and verifies the envelope under key into out.
// Expired, corrupted or tampered envelopes are deleted and reported as
// absent; the caller never distinguishes the three cases.
func (a *Agent) secureRetrieve(key string, out any) bool {
	raw, ok := a.storage.Get(key)
	if !ok {
		return false
	}
	var env envelope
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		a.discard(key, "unreadable envelope")
		return false
	}
	storedAt := time.UnixMilli(env.Timestamp)
	if a.now().Sub(storedAt) > retentionWindow {
		a.discard(key, "expired")
		return false
	}
	if !a.codec.decrypt(env.Encrypted, out) {
		a.discard(key, "decrypt failed")
		return false
	}
	plain, err := json.Marshal(out)
	if err != nil {
		a.discard(key, "reserialize failed")
		return false
	}
	if integrityDigest(plain) != env.Integrity {
		a.discard(key, "integrity mismatch")
		return false
	}
	return true
}

func (a *Agent) discard(key, why string) {
	a.log.Debug("discarding stored envelope", zap.String("key", key), zap.String("reason", why))
	if err := a.storage.Delete(key); err != nil {
		a.log.Warn("envelope delete failed", zap.String("key", key), zap.Error(err))
	}
}
