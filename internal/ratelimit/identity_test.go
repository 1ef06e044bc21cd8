package ratelimit

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientIdentity(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("X-Forwarded-For", " 203.0.113.7 , 10.0.0.1")
	r.Header.Set("X-Real-IP", "198.51.100.2")
	if got := ClientIdentity(r); got != "203.0.113.7" {
		t.Fatalf("expected forwarded ip, got %q", got)
	}

	r.Header.Set("X-Forwarded-For", " , 203.0.113.9")
	if got := ClientIdentity(r); got != "203.0.113.9" {
		t.Fatalf("expected first non-empty hop, got %q", got)
	}

	r.Header.Set("X-Forwarded-For", " , ")
	if got := ClientIdentity(r); got != "198.51.100.2" {
		t.Fatalf("expected real ip for empty forwarded list, got %q", got)
	}

	r.Header.Del("X-Forwarded-For")
	if got := ClientIdentity(r); got != "198.51.100.2" {
		t.Fatalf("expected real ip, got %q", got)
	}

	anon := httptest.NewRequest("GET", "/", nil)
	anon.Header.Set("User-Agent", "quiz-client/1.0")
	anon.Header.Set("Accept-Language", "en-US")
	first := ClientIdentity(anon)
	if !strings.HasPrefix(first, "anon:") {
		t.Fatalf("expected anonymous bucket, got %q", first)
	}
	if again := ClientIdentity(anon); again != first {
		t.Fatalf("expected stable identity, got %q and %q", first, again)
	}

	other := httptest.NewRequest("GET", "/", nil)
	other.Header.Set("User-Agent", "quiz-client/1.0")
	other.Header.Set("Accept-Language", "de-DE")
	if ClientIdentity(other) == first {
		t.Fatalf("expected different bucket for different language")
	}
}
