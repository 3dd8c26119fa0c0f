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

// Twilio sends through the Twilio Messages API. Twilio accepts one
// recipient per call, so multi-recipient messages fan out sequentially.
type Twilio struct {
	*provider.Base
	baseURL    string
	accountSID string
	authToken  string
	fromNumber string
	httpClient httpretry.HTTPDoer
}

// NewTwilio creates a Twilio provider from a resolved config.
func NewTwilio(cfg domain.ProviderConfig, limiter provider.RateLimiter) *Twilio {
	return &Twilio{
		Base:       provider.NewBase(cfg, limiter),
		baseURL:    cfg.Setting("base_url", "https://api.twilio.com"),
		accountSID: cfg.Setting("account_sid", ""),
		authToken:  cfg.Setting("auth_token", ""),
		fromNumber: cfg.Setting("from_number", ""),
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: settingTimeout(cfg),
		}, 3),
	}
}

type twilioMessageResponse struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

// Send performs the raw Twilio API calls, one per recipient. It fails on
// the first rejected recipient.
func (p *Twilio) Send(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", p.baseURL, p.accountSID)

	var firstSID string
	for _, to := range msg.To {
		form := url.Values{}
		form.Set("To", to)
		form.Set("From", p.fromNumber)
		form.Set("Body", msg.Body)

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.SetBasicAuth(p.accountSID, p.authToken)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return nil, provider.NewVendorError(domain.ProviderTwilio, provider.VendorCode(domain.ProviderTwilio), err)
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			p.MarkUnavailable("twilio auth failure")
			return nil, provider.NewVendorError(domain.ProviderTwilio, provider.AuthCode(domain.ProviderTwilio),
				fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, provider.NewVendorError(domain.ProviderTwilio, provider.VendorCode(domain.ProviderTwilio),
				fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
		}

		var parsed twilioMessageResponse
		if err := json.Unmarshal(respBody, &parsed); err != nil {
			return nil, provider.NewVendorError(domain.ProviderTwilio, provider.VendorCode(domain.ProviderTwilio),
				fmt.Errorf("parsing response: %w", err))
		}
		if firstSID == "" {
			firstSID = parsed.SID
		}
	}

	return p.Result(firstSID, provider.EstimateCost(domain.ProviderTwilio, msg)), nil
}

// SendWithOptions applies the shared gate and stats tracking around Send.
func (p *Twilio) SendWithOptions(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	return p.Checked(ctx, msg, p.Send)
}

// TestConnection fetches the account resource and updates availability.
func (p *Twilio) TestConnection(ctx context.Context) bool {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s.json", p.baseURL, p.accountSID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false
	}
	req.SetBasicAuth(p.accountSID, p.authToken)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.MarkUnavailable("twilio connection test failed")
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.MarkAvailable()
		return true
	}
	p.MarkUnavailable(fmt.Sprintf("twilio connection test status %d", resp.StatusCode))
	return false
}
