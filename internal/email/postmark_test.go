package email

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestSendWeeklySummary(t *testing.T) {
	var received postmarkEmail
	var gotToken string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-Postmark-Server-Token")
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"MessageID": "test-id"}`))
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "https://clockit.test", WithAPIURL(server.URL))

	weekStart := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	err := client.SendWeeklySummary("alice@example.com", "Alice", weekStart, 38.5, 4.25)
	if err != nil {
		t.Fatalf("send weekly summary: %v", err)
	}

	if gotToken != "test-token" {
		t.Errorf("server token = %q, want %q", gotToken, "test-token")
	}
	if received.To != "alice@example.com" {
		t.Errorf("To = %q, want %q", received.To, "alice@example.com")
	}
	if received.From != "noreply@example.com" {
		t.Errorf("From = %q, want %q", received.From, "noreply@example.com")
	}
	if received.Subject != "Your week of Mar 9, 2025" {
		t.Errorf("Subject = %q", received.Subject)
	}
	if !strings.Contains(received.TextBody, "38.50 hours") {
		t.Errorf("TextBody missing total: %q", received.TextBody)
	}
	if !strings.Contains(received.HtmlBody, "https://clockit.test/reports") {
		t.Errorf("HtmlBody missing link: %q", received.HtmlBody)
	}
}

func TestSendWeeklySummaryUnconfigured(t *testing.T) {
	client := NewClient("", "noreply@example.com", "https://clockit.test")
	if err := client.SendWeeklySummary("a@example.com", "A", time.Now(), 0, 0); err == nil {
		t.Error("expected error when server token is missing")
	}
}

func TestSendWeeklySummaryAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	client := NewClient("test-token", "noreply@example.com", "https://clockit.test", WithAPIURL(server.URL))
	if err := client.SendWeeklySummary("a@example.com", "A", time.Now(), 1, 0); err == nil {
		t.Error("expected error on API failure")
	}
}
