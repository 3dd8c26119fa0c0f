package sms

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

// Vonage sends through the Vonage (Nexmo) SMS API.
type Vonage struct {
	*provider.Base
	baseURL    string
	apiKey     string
	apiSecret  string
	fromNumber string
	httpClient httpretry.HTTPDoer
}

// NewVonage creates a Vonage provider from a resolved config.
func NewVonage(cfg domain.ProviderConfig, limiter provider.RateLimiter) *Vonage {
	return &Vonage{
		Base:       provider.NewBase(cfg, limiter),
		baseURL:    cfg.Setting("base_url", "https://rest.nexmo.com"),
		apiKey:     cfg.Setting("api_key", ""),
		apiSecret:  cfg.Setting("api_secret", ""),
		fromNumber: cfg.Setting("from_number", ""),
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: settingTimeout(cfg),
		}, 3),
	}
}

// Vonage per-message status codes: "0" is success, "4" is bad credentials.
const (
	vonageStatusOK       = "0"
	vonageStatusBadCreds = "4"
)

type vonageResponse struct {
	Messages []struct {
		Status    string `json:"status"`
		MessageID string `json:"message-id"`
		ErrorText string `json:"error-text"`
	} `json:"messages"`
}

// Send performs the raw Vonage API calls, one per recipient.
func (p *Vonage) Send(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	var firstID string
	for _, to := range msg.To {
		form := url.Values{}
		form.Set("api_key", p.apiKey)
		form.Set("api_secret", p.apiSecret)
		form.Set("to", strings.TrimPrefix(to, "+"))
		form.Set("from", p.fromNumber)
		form.Set("text", msg.Body)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/sms/json", strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return nil, provider.NewVendorError(domain.ProviderVonage, provider.VendorCode(domain.ProviderVonage), err)
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, provider.NewVendorError(domain.ProviderVonage, provider.VendorCode(domain.ProviderVonage),
				fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
		}

		var parsed vonageResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, provider.NewVendorError(domain.ProviderVonage, provider.VendorCode(domain.ProviderVonage),
				fmt.Errorf("parsing response: %w", err))
		}
		if len(parsed.Messages) == 0 {
			return nil, provider.NewVendorError(domain.ProviderVonage, provider.VendorCode(domain.ProviderVonage),
				fmt.Errorf("empty response"))
		}

		m := parsed.Messages[0]
		if m.Status != vonageStatusOK {
			if m.Status == vonageStatusBadCreds {
				p.MarkUnavailable("vonage auth failure")
				return nil, provider.NewVendorError(domain.ProviderVonage, provider.AuthCode(domain.ProviderVonage),
					fmt.Errorf("status %s: %s", m.Status, m.ErrorText))
			}
			return nil, provider.NewVendorError(domain.ProviderVonage, provider.VendorCode(domain.ProviderVonage),
				fmt.Errorf("status %s: %s", m.Status, m.ErrorText))
		}
		if firstID == "" {
			firstID = m.MessageID
		}
	}

	return p.Result(firstID, provider.EstimateCost(domain.ProviderVonage, msg)), nil
}

// SendWithOptions applies the shared gate and stats tracking around Send.
func (p *Vonage) SendWithOptions(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	return p.Checked(ctx, msg, p.Send)
}

// TestConnection checks the account balance endpoint and updates
// availability.
func (p *Vonage) TestConnection(ctx context.Context) bool {
	endpoint := fmt.Sprintf("%s/account/get-balance?api_key=%s&api_secret=%s",
		p.baseURL, url.QueryEscape(p.apiKey), url.QueryEscape(p.apiSecret))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.MarkUnavailable("vonage connection test failed")
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.MarkAvailable()
		return true
	}
	p.MarkUnavailable(fmt.Sprintf("vonage connection test status %d", resp.StatusCode))
	return false
}
