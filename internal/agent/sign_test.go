package agent

import (
	"encoding/base64"
	"strconv"
	"strings"
	"testing"
)

func TestSignData_TokenShape(t *testing.T) {
	t.Parallel()
	a, _, clock := newTestAgent(t)

	token, err := a.SignData(map[string]any{"amount": 100})
	if err != nil {
		t.Fatalf("SignData: %v", err)
	}

	raw, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		t.Fatalf("token is not base64: %v", err)
	}
	parts := strings.Split(string(raw), "|")
	if len(parts) != 3 {
		t.Fatalf("want hash|timestamp|nonce, got %q", raw)
	}
	if parts[0] == "" || parts[2] == "" {
		t.Fatalf("empty hash or nonce: %q", raw)
	}
	ms, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		t.Fatalf("bad timestamp %q: %v", parts[1], err)
	}
	if ms != clock.UnixMilli() {
		t.Fatalf("timestamp %d != clock %d", ms, clock.UnixMilli())
	}
}

func TestSignData_NonceVaries(t *testing.T) {
	t.Parallel()
	a, _, _ := newTestAgent(t)

	t1, err := a.SignData("x")
	if err != nil {
		t.Fatalf("SignData: %v", err)
	}
	t2, err := a.SignData("x")
	if err != nil {
		t.Fatalf("SignData: %v", err)
	}
	if t1 == t2 {
		t.Fatalf("identical tokens for identical payloads")
	}
}
