package agent

import (
	"testing"
)

type payload struct {
	Name  string  `json:"name"`
	Count int     `json:"count"`
	Score float64 `json:"score"`
}

func TestCodec_RoundTrip(t *testing.T) {
	t.Parallel()

	secret, err := deriveSessionSecret(Fingerprint{
		UserAgent:        "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
		ScreenResolution: "1920x1080",
		Timezone:         "Europe/Paris",
		Language:         "fr-FR",
		TimezoneOffset:   -120,
	})
	if err != nil {
		t.Fatalf("derive secret: %v", err)
	}
	c := codec{key: secret}

	in := payload{Name: "aff123", Count: 7, Score: 49.99}
	cipherText, err := c.encrypt(in)
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}
	if cipherText == "" {
		t.Fatalf("empty ciphertext")
	}

	var out payload
	if !c.decrypt(cipherText, &out) {
		t.Fatalf("decrypt failed on valid ciphertext")
	}
	if out != in {
		t.Fatalf("round trip mismatch: got %+v want %+v", out, in)
	}
}

func TestCodec_WrongKeyYieldsAbsent(t *testing.T) {
	t.Parallel()

	keyA, _ := deriveSessionSecret(Fingerprint{UserAgent: "ua-one", ScreenResolution: "800x600"})
	keyB, _ := deriveSessionSecret(Fingerprint{UserAgent: "ua-two", ScreenResolution: "800x600"})

	cipherText, err := codec{key: keyA}.encrypt(payload{Name: "secret", Count: 1})
	if err != nil {
		t.Fatalf("encrypt: %v", err)
	}

	// Must not panic and must not yield the original payload.
	var out payload
	if (codec{key: keyB}).decrypt(cipherText, &out) && out.Name == "secret" {
		t.Fatalf("decrypt under a different session secret recovered the payload")
	}
}

func TestCodec_GarbageInput(t *testing.T) {
	t.Parallel()

	key, _ := deriveSessionSecret(Fingerprint{UserAgent: "ua"})
	c := codec{key: key}

	var out payload
	if c.decrypt("not-base64!!", &out) {
		t.Fatalf("decrypt accepted invalid base64")
	}
	if c.decrypt("aGVsbG8=", &out) {
		t.Fatalf("decrypt accepted non-JSON plaintext")
	}
}

func TestDeriveSessionSecret_StablePerFingerprint(t *testing.T) {
	t.Parallel()

	fp := Fingerprint{UserAgent: "ua", ScreenResolution: "1x1", Timezone: "UTC", Language: "en", TimezoneOffset: 0}
	a, _ := deriveSessionSecret(fp)
	b, _ := deriveSessionSecret(fp)
	if string(a) != string(b) {
		t.Fatalf("secret not stable for identical fingerprints")
	}

	fp.TimezoneOffset = 60
	c, _ := deriveSessionSecret(fp)
	if string(a) == string(c) {
		t.Fatalf("secret identical across different fingerprints")
	}
	if len(a) != sessionKeyLen {
		t.Fatalf("bad key length %d", len(a))
	}
}
