package agent

import (
	"encoding/base64"
	"encoding/json"
)

// codec is the symmetric obfuscation layer: JSON-serialize, XOR against the
// repeating session key, base64-armor. Reversing with a different key yields
// bytes that fail to parse, so callers see corrupted data as absent data.
type codec struct {
	key []byte
}

// encrypt serializes v and obfuscates it under the session key.
func (c codec) encrypt(v any) (string, error) {
	plain, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(c.xor(plain)), nil
}

// decrypt reverses encrypt into out. It never panics; any decode or parse
// failure reports false so corrupted envelopes are handled like missing ones.
func (c codec) decrypt(cipherText string, out any) bool {
	raw, err := base64.StdEncoding.DecodeString(cipherText)
	if err != nil {
		return false
	}
	return json.Unmarshal(c.xor(raw), out) == nil
}

func (c codec) xor(in []byte) []byte {
	out := make([]byte, len(in))
	for i := range in {
		out[i] = in[i] ^ c.key[i%len(c.key)]
	}
	return out
}

// rollingHash is the agent's non-cryptographic hash (djb2 variant). It backs
// both signature tokens and envelope integrity digests.
func rollingHash(b []byte) uint32 {
	var h uint32 = 5381
	for _, c := range b {
		h = h*33 + uint32(c)
	}
	return h
}
