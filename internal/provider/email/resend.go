package email

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/pkg/httpretry"
	"github.com/attendly/attendly/internal/provider"
)

// Resend sends through the Resend REST API.
type Resend struct {
	*provider.Base
	baseURL    string
	apiKey     string
	fromEmail  string
	httpClient httpretry.HTTPDoer
}

// NewResend creates a Resend provider from a resolved config.
func NewResend(cfg domain.ProviderConfig, limiter provider.RateLimiter) *Resend {
	return &Resend{
		Base:      provider.NewBase(cfg, limiter),
		baseURL:   cfg.Setting("base_url", "https://api.resend.com"),
		apiKey:    cfg.Setting("api_key", ""),
		fromEmail: cfg.Setting("from_email", ""),
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: settingTimeout(cfg),
		}, 3),
	}
}

type resendPayload struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	CC      []string `json:"cc,omitempty"`
	BCC     []string `json:"bcc,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

type resendResponse struct {
	ID string `json:"id"`
}

// Send performs the raw Resend API call.
func (p *Resend) Send(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	payload := resendPayload{
		From:    firstNonEmpty(msg.FromEmail, p.fromEmail),
		To:      msg.To,
		CC:      msg.CC,
		BCC:     msg.BCC,
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		HTML:    msg.HTMLBody,
		Text:    msg.Body,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling resend payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/emails", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, provider.NewVendorError(domain.ProviderResend, provider.VendorCode(domain.ProviderResend), err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		p.MarkUnavailable("resend auth failure")
		return nil, provider.NewVendorError(domain.ProviderResend, provider.AuthCode(domain.ProviderResend),
			fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, provider.NewVendorError(domain.ProviderResend, provider.VendorCode(domain.ProviderResend),
			fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
	}

	var parsed resendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, provider.NewVendorError(domain.ProviderResend, provider.VendorCode(domain.ProviderResend),
			fmt.Errorf("parsing response: %w", err))
	}

	return p.Result(parsed.ID, provider.EstimateCost(domain.ProviderResend, msg)), nil
}

// SendWithOptions applies the shared gate and stats tracking around Send.
func (p *Resend) SendWithOptions(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	return p.Checked(ctx, msg, p.Send)
}

// TestConnection lists sending domains and updates availability.
func (p *Resend) TestConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/domains", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.MarkUnavailable("resend connection test failed")
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.MarkAvailable()
		return true
	}
	p.MarkUnavailable(fmt.Sprintf("resend connection test status %d", resp.StatusCode))
	return false
}
