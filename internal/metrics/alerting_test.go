package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestDetermineAlertSeverity(t *testing.T) {
	cases := []struct {
		summary  AlertSummary
		expected AlertSeverity
	}{
		{AlertSummary{TotalChecks: 10, Failed: 0, Status: "success"}, AlertSeverityInfo},
		{AlertSummary{TotalChecks: 10, Failed: 2, Status: "warning"}, AlertSeverityWarning},
		{AlertSummary{TotalChecks: 10, Failed: 7, Status: "error"}, AlertSeverityCritical},
		{AlertSummary{TotalChecks: 10, Failed: 5, Status: "warning"}, AlertSeverityCritical},
	}
	for _, c := range cases {
		if got := DetermineAlertSeverity(c.summary); got != c.expected {
			t.Fatalf("summary %+v: expected %s, got %s", c.summary, c.expected, got)
		}
	}
}

func TestNewAlertPayload_OmitsDetailsWhenEmpty(t *testing.T) {
	payload := NewAlertPayload(AlertSummary{TotalChecks: 5, Passed: 5, Status: "success"}, nil, "orders", "production", time.Unix(0, 0))
	if payload.Details != nil {
		t.Fatal("expected nil details when none supplied")
	}
	if payload.Severity != AlertSeverityInfo {
		t.Fatalf("expected info severity, got %s", payload.Severity)
	}
}

func TestSignPayload_DeterministicAndSecretSensitive(t *testing.T) {
	body := []byte(`{"title":"Test Alert"}`)
	sig1 := SignPayload(body, "secret1")
	sig2 := SignPayload(body, "secret1")
	if sig1 != sig2 {
		t.Fatal("expected deterministic signature for same body and secret")
	}
	sig3 := SignPayload(body, "secret2")
	if sig1 == sig3 {
		t.Fatal("expected different signature for different secret")
	}
	if len(sig1) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(sig1))
	}
}

func TestWebhookClient_RejectsEmptyURL(t *testing.T) {
	if _, err := NewWebhookClient(WebhookConfig{URL: ""}); err == nil {
		t.Fatal("expected error for empty webhook url")
	}
}

func TestWebhookClient_SendSkipsBelowMinSeverity(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewWebhookClient(WebhookConfig{URL: server.URL, MinSeverity: AlertSeverityCritical})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload := NewAlertPayload(AlertSummary{TotalChecks: 5, Failed: 1, Status: "warning"}, nil, "orders", "production", time.Unix(0, 0))
	if err := client.Send(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Fatal("expected send to be skipped below min severity")
	}
}

func TestWebhookClient_SendSignsPayloadWhenSecretConfigured(t *testing.T) {
	var gotSignature string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSignature = r.Header.Get("X-Signature-256")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := NewWebhookClient(WebhookConfig{URL: server.URL, Secret: "my-secret"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	payload := NewAlertPayload(AlertSummary{TotalChecks: 1, Passed: 1, Status: "success"}, nil, "orders", "production", time.Unix(0, 0))
	if err := client.Send(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotSignature == "" || gotSignature[:7] != "sha256=" {
		t.Fatalf("expected X-Signature-256 header with sha256= prefix, got %q", gotSignature)
	}
}
