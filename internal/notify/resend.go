package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"deepresearch/internal/config"
)

const maxErrorBodyBytes = 8 * 1024

var ErrMissingAPIKey = errors.New("resend api key is not configured")

type APIError struct {
	StatusCode int
	Body       string
}

func (e APIError) Error() string {
	return fmt.Sprintf("resend returned %d: %s", e.StatusCode, e.Body)
}

type Email struct {
	Subject  string
	Markdown string
}

// Mailer delivers a finished report. Delivery is best effort: callers log
// failures and move on; a run's result never depends on it.
type Mailer interface {
	Send(ctx context.Context, email Email) error
}

type sendAPIRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

// ResendMailer sends report emails through the Resend HTTP API.
type ResendMailer struct {
	apiKey     string
	baseURL    string
	from       string
	to         string
	httpClient *http.Client
}

func NewResendMailer(cfg config.Config, httpClient *http.Client) ResendMailer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return ResendMailer{
		apiKey:     strings.TrimSpace(cfg.ResendAPIKey),
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.ResendBaseURL), "/"),
		from:       strings.TrimSpace(cfg.ReportEmailFrom),
		to:         strings.TrimSpace(cfg.ReportEmailTo),
		httpClient: httpClient,
	}
}

func (m ResendMailer) Send(ctx context.Context, email Email) error {
	if m.apiKey == "" {
		return ErrMissingAPIKey
	}
	if m.from == "" || m.to == "" {
		return errors.New("report email sender and recipient are required")
	}
	if strings.TrimSpace(email.Markdown) == "" {
		return errors.New("email body is empty")
	}

	subject := strings.TrimSpace(email.Subject)
	if subject == "" {
		subject = "Research report"
	}

	payload, err := json.Marshal(sendAPIRequest{
		From:    m.from,
		To:      []string{m.to},
		Subject: subject,
		Text:    email.Markdown,
	})
	if err != nil {
		return fmt.Errorf("marshal resend request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build resend request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request resend: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyBytes))
		return APIError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}
	return nil
}
