package validator

import (
	"encoding/base64"
	"strconv"
	"strings"
	"time"

	"github.com/linkpulse/linkpulse/internal/errs"
)

// Clock tolerance for signature timestamps: tokens from the future beyond
// this skew are rejected.
const maxClockSkew = time.Minute

// verifySignature checks a client signature token: base64("hash|ts|nonce").
// The server cannot recompute the rolling hash (the session secret lives in
// the client), so the check enforces structure and freshness: well-formed
// token, non-empty hash and nonce, timestamp within maxAge of now.
func verifySignature(token string, maxAge time.Duration, now time.Time) error {
	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return errs.ErrBadSignature
	}
	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return errs.ErrBadSignature
	}
	ms, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return errs.ErrBadSignature
	}
	signedAt := time.UnixMilli(ms)
	if signedAt.After(now.Add(maxClockSkew)) || now.Sub(signedAt) > maxAge {
		return errs.ErrBadSignature
	}
	return nil
}
