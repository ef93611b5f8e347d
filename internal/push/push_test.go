package push

import (
	"encoding/base64"
	"testing"
	"time"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	if err != nil {
		t.Fatalf("generate VAPID keys: %v", err)
	}

	if pub == "" {
		t.Error("expected non-empty public key")
	}
	if priv == "" {
		t.Error("expected non-empty private key")
	}

	// Public key is a base64url-encoded 65-byte uncompressed P-256 point.
	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	if err != nil {
		t.Fatalf("decode public key: %v", err)
	}
	if len(pubBytes) != 65 {
		t.Errorf("public key length = %d, want 65", len(pubBytes))
	}

	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	if err != nil {
		t.Fatalf("decode private key: %v", err)
	}
	if len(privBytes) != 32 {
		t.Errorf("private key length = %d, want 32", len(privBytes))
	}

	pub2, _, _ := GenerateVAPIDKeys()
	if pub == pub2 {
		t.Error("expected different keys on second generation")
	}
}

func TestServiceEnabled(t *testing.T) {
	if NewService("", "", "").Enabled() {
		t.Error("expected Enabled = false without keys")
	}
	if !NewService("pub", "priv", "").Enabled() {
		t.Error("expected Enabled = true with keys")
	}
}

func TestAtClock(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	day := time.Date(2025, 3, 10, 14, 22, 0, 0, loc)

	got, err := atClock(day, "17:30", loc)
	if err != nil {
		t.Fatalf("atClock: %v", err)
	}
	want := time.Date(2025, 3, 10, 17, 30, 0, 0, loc)
	if !got.Equal(want) {
		t.Errorf("atClock = %v, want %v", got, want)
	}

	if _, err := atClock(day, "25:00", loc); err == nil {
		t.Error("expected error for invalid clock string")
	}
}

func TestWeekBounds(t *testing.T) {
	loc := time.UTC
	// Wednesday, 2025-03-12. The week runs Sunday the 9th to Sunday the 16th.
	wed := time.Date(2025, 3, 12, 10, 0, 0, 0, loc)

	start, end := weekBounds(wed, loc)
	wantStart := time.Date(2025, 3, 9, 0, 0, 0, 0, loc)
	wantEnd := time.Date(2025, 3, 16, 0, 0, 0, 0, loc)
	if !start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", start, wantStart)
	}
	if !end.Equal(wantEnd) {
		t.Errorf("end = %v, want %v", end, wantEnd)
	}

	// A Sunday is the start of its own week.
	sun := time.Date(2025, 3, 9, 23, 59, 0, 0, loc)
	start, _ = weekBounds(sun, loc)
	if !start.Equal(wantStart) {
		t.Errorf("sunday start = %v, want %v", start, wantStart)
	}
}
