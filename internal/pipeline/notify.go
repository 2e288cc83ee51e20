package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hakim/surfacerecon/internal/models"
)

// Notifier posts a completion payload to a webhook.
type Notifier struct {
	WebhookURL string
	Client     *http.Client
}

// NewNotifier returns nil when url is empty so callers can pass the result
// straight into Options.
func NewNotifier(url string) *Notifier {
	if url == "" {
		return nil
	}
	return &Notifier{WebhookURL: url, Client: &http.Client{Timeout: 10 * time.Second}}
}

// completionPayload is the JSON body posted to the webhook endpoint.
type completionPayload struct {
	Domain         string                  `json:"domain"`
	ScanID         string                  `json:"scan_id"`
	Status         models.ScanStatus       `json:"status"`
	ElapsedSeconds float64                 `json:"elapsed_seconds"`
	LiveEndpoints  int                     `json:"live_endpoints"`
	Findings       int                     `json:"findings"`
	SeverityCounts map[models.Severity]int `json:"severity_counts"`
	OpenPorts      int                     `json:"open_ports"`
	PhaseErrors    map[models.Phase]string `json:"phase_errors,omitempty"`
}

// SendCompletion posts the scan summary to the webhook. A nil Notifier is a
// no-op. Errors should be treated as warnings.
func (n *Notifier) SendCompletion(ctx context.Context, r *models.ScanReport) error {
	if n == nil || n.WebhookURL == "" {
		return nil
	}

	payload := completionPayload{
		Domain:         r.Domain,
		ScanID:         r.ID,
		Status:         r.Status,
		ElapsedSeconds: r.Duration.Seconds(),
		LiveEndpoints:  len(r.Live),
		Findings:       len(r.Findings),
		SeverityCounts: r.Summary.SeverityCounts,
		OpenPorts:      len(r.OpenPorts),
	}
	for _, p := range r.Phases {
		if p.Error != "" {
			if payload.PhaseErrors == nil {
				payload.PhaseErrors = make(map[models.Phase]string)
			}
			payload.PhaseErrors[p.Phase] = p.Error
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshaling payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("notify: building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := n.Client
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("notify: posting to %s: %w", n.WebhookURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notify: webhook returned non-2xx status %d", resp.StatusCode)
	}

	return nil
}
