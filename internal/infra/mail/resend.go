package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/gatekeep/internal/core/domain"
)

// DefaultResendURL is the Resend send-email endpoint.
const DefaultResendURL = "https://api.resend.com/emails"

// DefaultTimeout bounds a single provider call.
const DefaultTimeout = 10 * time.Second

// maxErrorBody caps how much of a provider error body is kept.
const maxErrorBody = 4 << 10

// ResendMailer sends email through the Resend HTTP API.
type ResendMailer struct {
	url    string
	apiKey string
	client *http.Client
}

// NewResendMailer creates a ResendMailer. An empty url selects
// DefaultResendURL.
func NewResendMailer(apiKey, url string, timeout time.Duration) *ResendMailer {
	if url == "" {
		url = DefaultResendURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ResendMailer{
		url:    url,
		apiKey: apiKey,
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Send implements service.Mailer.
//
// A non-2xx response is returned as domain.ErrMailProvider carrying the
// provider's response body as details.
func (m *ResendMailer) Send(ctx context.Context, email *domain.Email) error {
	data, err := json.Marshal(resendRequest{
		From:    email.From,
		To:      email.To,
		Subject: email.Subject,
		HTML:    email.HTML,
		Text:    email.Text,
	})
	if err != nil {
		return fmt.Errorf("marshal email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+m.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "gatekeep/1.0")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("resend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		details := strings.TrimSpace(string(body))
		if details == "" {
			details = resp.Status
		}
		return domain.ErrMailProvider.WithDetails(details)
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
