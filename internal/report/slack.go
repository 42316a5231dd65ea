package report

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/hamed0406/pgpinger/internal/domain"
)

// Slack posts only when the target changes between up and down. The first
// result alerts only if it is a failure. A transition whose post fails is
// announced again on the next result.
type Slack struct {
	Webhook string
	Target  string
	Client  *http.Client

	known  bool
	lastUp bool
}

// NewSlack returns nil when webhook is empty.
func NewSlack(webhook, target string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook: webhook,
		Target:  target,
		Client:  &http.Client{Timeout: 5 * time.Second},
	}
}

type slackPayload struct {
	Text string `json:"text"`
}

func (s *Slack) Report(ctx context.Context, r domain.ProbeResult) error {
	up := r.OK()
	if s.known && s.lastUp == up {
		return nil
	}
	if !s.known && up {
		s.known, s.lastUp = true, true
		return nil
	}

	title := "🔴 Database DOWN"
	detail := fmt.Sprintf("Kind: %s\nReason: %s", r.Kind, r.Reason)
	if up {
		title = "🟢 Database RECOVERED"
		detail = fmt.Sprintf("Version: %s\nLatency: %.0f ms", r.Version, r.LatencyMS())
	}
	text := fmt.Sprintf("Target: %s\n%s\nChecked: %s",
		s.Target, detail, r.CheckedAt.Format(time.RFC3339))
	// State only advances once the alert is delivered, so a failed post is
	// retried on the next result.
	if err := s.send(ctx, title, text); err != nil {
		return err
	}
	s.known, s.lastUp = true, up
	return nil
}

func (s *Slack) send(ctx context.Context, title, text string) error {
	body, _ := json.Marshal(slackPayload{Text: "*" + title + "*\n" + text})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("slack: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return errors.New("slack non-2xx")
	}
	return nil
}
