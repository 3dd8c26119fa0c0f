package email

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/pkg/httpretry"
	"github.com/attendly/attendly/internal/provider"
)

// Mailgun sends through the Mailgun v3 messages API.
type Mailgun struct {
	*provider.Base
	baseURL    string
	apiKey     string
	domain     string
	fromEmail  string
	httpClient httpretry.HTTPDoer
}

// NewMailgun creates a Mailgun provider from a resolved config.
func NewMailgun(cfg domain.ProviderConfig, limiter provider.RateLimiter) *Mailgun {
	return &Mailgun{
		Base:      provider.NewBase(cfg, limiter),
		baseURL:   cfg.Setting("base_url", "https://api.mailgun.net"),
		apiKey:    cfg.Setting("api_key", ""),
		domain:    cfg.Setting("domain", ""),
		fromEmail: cfg.Setting("from_email", ""),
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: settingTimeout(cfg),
		}, 3),
	}
}

type mgSendResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// Send performs the raw Mailgun API call (form-encoded, Basic Auth with
// "api" as username).
func (p *Mailgun) Send(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	form := url.Values{}
	form.Set("from", firstNonEmpty(msg.FromEmail, p.fromEmail))
	form.Set("to", strings.Join(msg.To, ","))
	if len(msg.CC) > 0 {
		form.Set("cc", strings.Join(msg.CC, ","))
	}
	if len(msg.BCC) > 0 {
		form.Set("bcc", strings.Join(msg.BCC, ","))
	}
	if msg.ReplyTo != "" {
		form.Set("h:Reply-To", msg.ReplyTo)
	}
	form.Set("subject", msg.Subject)
	if msg.Body != "" {
		form.Set("text", msg.Body)
	}
	if msg.HTMLBody != "" {
		form.Set("html", msg.HTMLBody)
	}
	if msg.TemplateID != "" {
		form.Set("template", msg.TemplateID)
	}

	endpoint := fmt.Sprintf("%s/v3/%s/messages", p.baseURL, p.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.SetBasicAuth("api", p.apiKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, provider.NewVendorError(domain.ProviderMailgun, provider.VendorCode(domain.ProviderMailgun), err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		p.MarkUnavailable("mailgun auth failure")
		return nil, provider.NewVendorError(domain.ProviderMailgun, provider.AuthCode(domain.ProviderMailgun),
			fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, provider.NewVendorError(domain.ProviderMailgun, provider.VendorCode(domain.ProviderMailgun),
			fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
	}

	var parsed mgSendResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, provider.NewVendorError(domain.ProviderMailgun, provider.VendorCode(domain.ProviderMailgun),
			fmt.Errorf("parsing response: %w", err))
	}

	return p.Result(strings.Trim(parsed.ID, "<>"), provider.EstimateCost(domain.ProviderMailgun, msg)), nil
}

// SendWithOptions applies the shared gate and stats tracking around Send.
func (p *Mailgun) SendWithOptions(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	return p.Checked(ctx, msg, p.Send)
}

// TestConnection fetches the sending domain's metadata and updates
// availability.
func (p *Mailgun) TestConnection(ctx context.Context) bool {
	endpoint := fmt.Sprintf("%s/v3/domains/%s", p.baseURL, p.domain)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	req.SetBasicAuth("api", p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.MarkUnavailable("mailgun connection test failed")
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.MarkAvailable()
		return true
	}
	p.MarkUnavailable(fmt.Sprintf("mailgun connection test status %d", resp.StatusCode))
	return false
}
