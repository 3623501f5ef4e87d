package agent

import (
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
)

// SignData builds a signature token over data: a rolling hash of the
// serialized payload (data + timestamp + nonce + a session-secret fragment),
// encoded as base64("hash|timestamp|nonce"). The token lets the validator
// reject payloads that were not produced by an agent session; it is not a
// cryptographic MAC.
func (a *Agent) SignData(data any) (string, error) {
	serialized, err := json.Marshal(data)
	if err != nil {
		return "", err
	}
	nonce, err := randomNonce()
	if err != nil {
		return "", err
	}
	ts := a.now().UnixMilli()

	payload := fmt.Sprintf("%s|%d|%s|%s", serialized, ts, nonce, secretFragment(a.secret))
	hash := strconv.FormatUint(uint64(rollingHash([]byte(payload))), 16)

	token := fmt.Sprintf("%s|%d|%s", hash, ts, nonce)
	return base64.StdEncoding.EncodeToString([]byte(token)), nil
}

func randomNonce() (string, error) {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
