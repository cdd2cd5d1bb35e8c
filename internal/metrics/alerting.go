package metrics

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/canonica-labs/canonica-validate/internal/errors"
)

// AlertSeverity grades a webhook alert for min-severity filtering.
type AlertSeverity string

const (
	AlertSeverityInfo     AlertSeverity = "info"
	AlertSeverityWarning  AlertSeverity = "warning"
	AlertSeverityCritical AlertSeverity = "critical"
)

var severityRank = map[AlertSeverity]int{
	AlertSeverityInfo:     0,
	AlertSeverityWarning:  1,
	AlertSeverityCritical: 2,
}

// AlertDetail mirrors one issue from a ValidationReport in the alert
// payload.
type AlertDetail struct {
	Check     string   `json:"check"`
	Level     string   `json:"level"`
	Message   string   `json:"message"`
	Metric    *float64 `json:"metric,omitempty"`
}

// AlertSummary is the pass/fail tally carried alongside the alert.
type AlertSummary struct {
	TotalChecks int    `json:"total_checks"`
	Passed      int    `json:"passed"`
	Failed      int    `json:"failed"`
	Status      string `json:"status"`
}

// AlertPayload is the JSON body posted to the alerting webhook.
type AlertPayload struct {
	Title         string        `json:"title"`
	Severity      AlertSeverity `json:"severity"`
	Dataset       string        `json:"dataset"`
	Environment   string        `json:"environment"`
	Summary       AlertSummary  `json:"summary"`
	Details       []AlertDetail `json:"details,omitempty"`
	Timestamp     time.Time     `json:"timestamp"`
	DashboardURL  string        `json:"dashboard_url,omitempty"`
}

// DetermineAlertSeverity derives severity from a validation tally per the
// fixed thresholds: no failures is info; a failure rate at or above 50% (or
// an error-level status) is critical; any other failure is warning.
func DetermineAlertSeverity(summary AlertSummary) AlertSeverity {
	if summary.Failed == 0 {
		return AlertSeverityInfo
	}
	total := summary.TotalChecks
	if total == 0 {
		total = 1
	}
	failureRate := float64(summary.Failed) / float64(total)
	if failureRate >= 0.5 || summary.Status == "error" {
		return AlertSeverityCritical
	}
	return AlertSeverityWarning
}

func alertTitle(summary AlertSummary, severity AlertSeverity) string {
	switch severity {
	case AlertSeverityInfo:
		return "Validation Passed"
	case AlertSeverityCritical:
		return fmt.Sprintf("Validation Critical: %d of %d checks failed", summary.Failed, summary.TotalChecks)
	default:
		return fmt.Sprintf("Validation Warning: %d of %d checks failed", summary.Failed, summary.TotalChecks)
	}
}

// NewAlertPayload builds a payload from a tally, dataset, and environment,
// deriving severity and title. details is omitted entirely when empty.
func NewAlertPayload(summary AlertSummary, details []AlertDetail, dataset, environment string, now time.Time) AlertPayload {
	severity := DetermineAlertSeverity(summary)
	payload := AlertPayload{
		Title:       alertTitle(summary, severity),
		Severity:    severity,
		Dataset:     dataset,
		Environment: environment,
		Summary:     summary,
		Timestamp:   now,
	}
	if len(details) > 0 {
		payload.Details = details
	}
	return payload
}

// WebhookConfig configures a WebhookClient.
type WebhookConfig struct {
	URL            string
	Headers        map[string]string
	IncludeDetails bool
	MinSeverity    AlertSeverity
	Secret         string
	Timeout        time.Duration
}

// Validate rejects an unusable webhook configuration.
func (c WebhookConfig) Validate() error {
	if c.URL == "" {
		return errors.NewConfigurationError("webhook url cannot be empty")
	}
	lower := strings.ToLower(c.URL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return errors.NewConfigurationError("webhook url must start with http:// or https://")
	}
	return nil
}

// WebhookClient posts AlertPayloads to a configured webhook endpoint,
// optionally signing the body with HMAC-SHA256 and filtering by minimum
// severity.
type WebhookClient struct {
	config WebhookConfig
	client *http.Client
}

// NewWebhookClient validates config and builds a client around it.
func NewWebhookClient(config WebhookConfig) (*WebhookClient, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	timeout := config.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	return &WebhookClient{config: config, client: &http.Client{Timeout: timeout}}, nil
}

// Send posts payload to the configured endpoint unless its severity falls
// below the configured minimum.
func (c *WebhookClient) Send(ctx context.Context, payload AlertPayload) error {
	if severityRank[payload.Severity] < severityRank[c.config.MinSeverity] {
		return nil
	}

	toSend := payload
	if !c.config.IncludeDetails {
		toSend.Details = nil
	}

	body, err := json.Marshal(toSend)
	if err != nil {
		return errors.NewInternalError("failed to serialize alert payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.URL, bytes.NewReader(body))
	if err != nil {
		return errors.NewDataSourceError("failed to build webhook request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}
	if c.config.Secret != "" {
		req.Header.Set("X-Signature-256", "sha256="+SignPayload(body, c.config.Secret))
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return errors.NewDataSourceError("webhook request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return errors.NewDataSourceError(fmt.Sprintf("webhook responded with status %d", resp.StatusCode), nil)
	}
	return nil
}

// SignPayload computes the hex-encoded HMAC-SHA256 of body under secret.
func SignPayload(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}
