package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/use-agent/ownerlookup/models"
)

// Event types.
const (
	EventRunCompleted = "run.completed"
	EventRunFailed    = "run.failed"
)

// SignatureHeader carries the HMAC-SHA256 of the body when a secret is set.
const SignatureHeader = "X-Ownerlookup-Signature"

// Event is the payload sent to webhook endpoints.
type Event struct {
	Type      string              `json:"type"`
	RunID     string              `json:"run_id"`
	Timestamp int64               `json:"timestamp"`
	Summary   *models.RunSummary  `json:"summary,omitempty"`
	Error     *models.ErrorDetail `json:"error,omitempty"`
}

// RunEvent builds the event reporting the end of a run. A non-nil err makes
// it a run.failed event.
func RunEvent(runID string, summary *models.RunSummary, err error) *Event {
	ev := &Event{
		Type:      EventRunCompleted,
		RunID:     runID,
		Timestamp: time.Now().Unix(),
		Summary:   summary,
	}
	if err != nil {
		ev.Type = EventRunFailed
		var se *models.ScrapeError
		if !errors.As(err, &se) {
			se = models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
		}
		ev.Error = se.ToDetail()
	}
	return ev
}

// Sign returns the signature header value for body.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Deliver sends a webhook event synchronously.
// The request body is signed with HMAC-SHA256 if secret is non-empty.
// Header: X-Ownerlookup-Signature: sha256=<hex>
func Deliver(ctx context.Context, url, secret string, event *Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("webhook: marshal event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Ownerlookup-Webhook/1.0")

	if secret != "" {
		req.Header.Set(SignatureHeader, Sign(secret, body))
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: deliver: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: endpoint returned status %d", resp.StatusCode)
	}
	return nil
}

// retryDelays are the waits before each delivery attempt.
var retryDelays = []time.Duration{0, 1 * time.Second, 5 * time.Second, 30 * time.Second}

// Notify delivers event with retries, blocking until it is delivered, every
// attempt failed or ctx ends. Failures are logged only.
func Notify(ctx context.Context, url, secret string, event *Event) bool {
	for attempt, delay := range retryDelays {
		if delay > 0 {
			select {
			case <-ctx.Done():
				slog.Warn("webhook delivery canceled",
					"url", url,
					"event", event.Type,
					"run_id", event.RunID,
				)
				return false
			case <-time.After(delay):
			}
		}
		attemptCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		err := Deliver(attemptCtx, url, secret, event)
		cancel()
		if err == nil {
			slog.Info("webhook delivered",
				"url", url,
				"event", event.Type,
				"run_id", event.RunID,
				"attempt", attempt+1,
			)
			return true
		}
		slog.Warn("webhook delivery failed",
			"url", url,
			"event", event.Type,
			"run_id", event.RunID,
			"attempt", attempt+1,
			"error", err,
		)
	}
	slog.Warn("webhook delivery exhausted all retries",
		"url", url,
		"event", event.Type,
		"run_id", event.RunID,
	)
	return false
}
