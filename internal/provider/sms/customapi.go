package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/pkg/httpretry"
	"github.com/attendly/attendly/internal/provider"
)

// CustomAPI sends through an arbitrary JSON-over-HTTP SMS gateway described
// entirely by config. Response handling uses a dot-path field extractor
// with whitelisted predicates; vendor responses are never evaluated as
// code.
//
// Settings:
//
//	endpoint          full URL of the send endpoint (required)
//	method            HTTP method, default POST
//	auth_header       header name for the credential, default Authorization
//	auth_value        header value, e.g. "Bearer xyz"
//	to_field          JSON field for the recipient, default "to"
//	message_field     JSON field for the text, default "message"
//	from_field        optional JSON field for the sender
//	from_value        sender value when from_field is set
//	success_path      dot-path checked on the response body
//	success_op        equals | exists | contains (default equals)
//	success_value     expected value for equals/contains
//	message_id_path   dot-path of the vendor message ID
type CustomAPI struct {
	*provider.Base
	endpoint   string
	method     string
	authHeader string
	authValue  string
	settings   map[string]string
	httpClient httpretry.HTTPDoer
}

// NewCustomAPI creates a custom-gateway provider from a resolved config.
func NewCustomAPI(cfg domain.ProviderConfig, limiter provider.RateLimiter) (*CustomAPI, error) {
	endpoint := cfg.Setting("endpoint", "")
	if endpoint == "" {
		return nil, fmt.Errorf("custom_api provider requires an endpoint setting")
	}
	return &CustomAPI{
		Base:       provider.NewBase(cfg, limiter),
		endpoint:   endpoint,
		method:     strings.ToUpper(cfg.Setting("method", http.MethodPost)),
		authHeader: cfg.Setting("auth_header", "Authorization"),
		authValue:  cfg.Setting("auth_value", ""),
		settings:   cfg.Settings,
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: settingTimeout(cfg),
		}, 3),
	}, nil
}

func (p *CustomAPI) setting(key, fallback string) string {
	if v, ok := p.settings[key]; ok && v != "" {
		return v
	}
	return fallback
}

// Send posts one request per recipient and checks the configured success
// predicate against each response.
func (p *CustomAPI) Send(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	toField := p.setting("to_field", "to")
	msgField := p.setting("message_field", "message")

	var firstID string
	for _, to := range msg.To {
		payload := map[string]string{
			toField:  to,
			msgField: msg.Body,
		}
		if f := p.setting("from_field", ""); f != "" {
			payload[f] = p.setting("from_value", "")
		}

		body, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling payload: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, p.method, p.endpoint, strings.NewReader(string(body)))
		if err != nil {
			return nil, fmt.Errorf("creating request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		if p.authValue != "" {
			req.Header.Set(p.authHeader, p.authValue)
		}

		resp, err := p.httpClient.Do(req)
		if err != nil {
			return nil, provider.NewVendorError(domain.ProviderCustomAPI, provider.VendorCode(domain.ProviderCustomAPI), err)
		}
		respBody, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			p.MarkUnavailable("custom api auth failure")
			return nil, provider.NewVendorError(domain.ProviderCustomAPI, provider.AuthCode(domain.ProviderCustomAPI),
				fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
		case resp.StatusCode < 200 || resp.StatusCode >= 300:
			return nil, provider.NewVendorError(domain.ProviderCustomAPI, provider.VendorCode(domain.ProviderCustomAPI),
				fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
		}

		var decoded interface{}
		if len(respBody) > 0 {
			if err := json.Unmarshal(respBody, &decoded); err != nil {
				return nil, provider.NewVendorError(domain.ProviderCustomAPI, provider.VendorCode(domain.ProviderCustomAPI),
					fmt.Errorf("parsing response: %w", err))
			}
		}

		if path := p.setting("success_path", ""); path != "" {
			if !fieldMatches(decoded, path, p.setting("success_op", "equals"), p.setting("success_value", "")) {
				return nil, provider.NewVendorError(domain.ProviderCustomAPI, provider.VendorCode(domain.ProviderCustomAPI),
					fmt.Errorf("response failed success check: %s", respBody))
			}
		}

		if firstID == "" {
			if path := p.setting("message_id_path", ""); path != "" {
				if v, ok := extractField(decoded, path); ok {
					firstID = fieldString(v)
				}
			}
		}
	}

	if firstID == "" {
		firstID = uuid.New().String()
	}
	return p.Result(firstID, provider.EstimateCost(domain.ProviderCustomAPI, msg)), nil
}

// SendWithOptions applies the shared gate and stats tracking around Send.
func (p *CustomAPI) SendWithOptions(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	return p.Checked(ctx, msg, p.Send)
}

// TestConnection issues a HEAD request against the endpoint host. Custom
// gateways rarely expose a health route, so reachability is the probe.
func (p *CustomAPI) TestConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.endpoint, nil)
	if err != nil {
		return false
	}
	if p.authValue != "" {
		req.Header.Set(p.authHeader, p.authValue)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.MarkUnavailable("custom api connection test failed")
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < http.StatusInternalServerError {
		p.MarkAvailable()
		return true
	}
	p.MarkUnavailable(fmt.Sprintf("custom api connection test status %d", resp.StatusCode))
	return false
}
