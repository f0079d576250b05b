package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
)

// ResendSender implements Sender against the Resend HTTP API.
type ResendSender struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewResendSender creates a Resend sender from configuration.
func NewResendSender(cfg *config.Config) *ResendSender {
	return &ResendSender{
		baseURL:    strings.TrimRight(cfg.ResendBaseURL, "/"),
		apiKey:     cfg.ResendAPIKey,
		httpClient: &http.Client{Timeout: cfg.MailTimeout},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
	ReplyTo string   `json:"reply_to,omitempty"`
}

// Send posts the message to the /emails endpoint.
func (s *ResendSender) Send(ctx context.Context, msg *Message) error {
	payload, err := json.Marshal(resendRequest{
		From:    msg.From,
		To:      msg.To,
		Subject: msg.Subject,
		Text:    msg.Text,
		ReplyTo: msg.ReplyTo,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create resend request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("resend request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return fmt.Errorf("resend returned status %d after %v: %s", resp.StatusCode, time.Since(start).Round(time.Millisecond), string(body))
	}
	return nil
}
