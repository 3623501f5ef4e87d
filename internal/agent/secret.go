package agent

import (
	"crypto/sha256"
	"strconv"
	"strings"

	"golang.org/x/crypto/hkdf"
)

const sessionKeyLen = 32

// Fingerprint carries the low-entropy but highly available client signals
// the session secret is derived from. None of them is secret; envelopes
// written under one fingerprint simply fail to decrypt under another.
type Fingerprint struct {
	UserAgent        string
	ScreenResolution string // e.g. "1920x1080"
	Timezone         string // IANA name, e.g. "Europe/Paris"
	Language         string // negotiated language, e.g. "fr-FR"
	TimezoneOffset   int    // minutes from UTC
}

func (f Fingerprint) concat() string {
	return strings.Join([]string{
		f.UserAgent,
		f.ScreenResolution,
		f.Timezone,
		f.Language,
		strconv.Itoa(f.TimezoneOffset),
	}, "|")
}

// deriveSessionSecret expands the fingerprint concatenation into a
// fixed-length key via HKDF-SHA256. The key lives for the session only;
// it is never persisted.
func deriveSessionSecret(f Fingerprint) ([]byte, error) {
	r := hkdf.New(sha256.New, []byte(f.concat()), nil, []byte("linkpulse-session"))
	key := make([]byte, sessionKeyLen)
	if _, err := r.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// secretFragment returns the key prefix mixed into signature payloads.
func secretFragment(secret []byte) string {
	n := 8
	if len(secret) < n {
		n = len(secret)
	}
	return strconv.FormatUint(uint64(rollingHash(secret[:n])), 16)
}
