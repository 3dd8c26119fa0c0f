package email

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/pkg/httpretry"
	"github.com/attendly/attendly/internal/provider"
)

// SendGrid sends through the SendGrid v3 mail API.
type SendGrid struct {
	*provider.Base
	baseURL    string
	apiKey     string
	fromEmail  string
	fromName   string
	httpClient httpretry.HTTPDoer
}

// NewSendGrid creates a SendGrid provider from a resolved config.
func NewSendGrid(cfg domain.ProviderConfig, limiter provider.RateLimiter) *SendGrid {
	return &SendGrid{
		Base:      provider.NewBase(cfg, limiter),
		baseURL:   cfg.Setting("base_url", "https://api.sendgrid.com"),
		apiKey:    cfg.Setting("api_key", ""),
		fromEmail: cfg.Setting("from_email", ""),
		fromName:  cfg.Setting("from_name", ""),
		httpClient: httpretry.NewRetryClient(&http.Client{
			Timeout: settingTimeout(cfg),
		}, 3),
	}
}

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgPersonalization struct {
	To  []sgAddress `json:"to"`
	CC  []sgAddress `json:"cc,omitempty"`
	BCC []sgAddress `json:"bcc,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgAttachment struct {
	Content  string `json:"content"`
	Type     string `json:"type,omitempty"`
	Filename string `json:"filename"`
}

type sgMail struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	ReplyTo          *sgAddress          `json:"reply_to,omitempty"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content,omitempty"`
	TemplateID       string              `json:"template_id,omitempty"`
	Attachments      []sgAttachment      `json:"attachments,omitempty"`
}

// Send performs the raw SendGrid API call.
func (p *SendGrid) Send(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	payload := sgMail{
		From:    sgAddress{Email: firstNonEmpty(msg.FromEmail, p.fromEmail), Name: firstNonEmpty(msg.FromName, p.fromName)},
		Subject: msg.Subject,
	}

	pers := sgPersonalization{}
	for _, to := range msg.To {
		pers.To = append(pers.To, sgAddress{Email: to})
	}
	for _, cc := range msg.CC {
		pers.CC = append(pers.CC, sgAddress{Email: cc})
	}
	for _, bcc := range msg.BCC {
		pers.BCC = append(pers.BCC, sgAddress{Email: bcc})
	}
	payload.Personalizations = []sgPersonalization{pers}

	if msg.ReplyTo != "" {
		payload.ReplyTo = &sgAddress{Email: msg.ReplyTo}
	}
	if msg.TemplateID != "" {
		payload.TemplateID = msg.TemplateID
	}
	if msg.Body != "" {
		payload.Content = append(payload.Content, sgContent{Type: "text/plain", Value: msg.Body})
	}
	if msg.HTMLBody != "" {
		payload.Content = append(payload.Content, sgContent{Type: "text/html", Value: msg.HTMLBody})
	}
	for _, a := range msg.Attachments {
		payload.Attachments = append(payload.Attachments, sgAttachment{
			Content:  base64.StdEncoding.EncodeToString(a.Content),
			Type:     a.ContentType,
			Filename: a.Filename,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshaling sendgrid payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v3/mail/send", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, provider.NewVendorError(domain.ProviderSendGrid, provider.VendorCode(domain.ProviderSendGrid), err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		p.MarkUnavailable("sendgrid auth failure")
		return nil, provider.NewVendorError(domain.ProviderSendGrid, provider.AuthCode(domain.ProviderSendGrid),
			fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, provider.NewVendorError(domain.ProviderSendGrid, provider.VendorCode(domain.ProviderSendGrid),
			fmt.Errorf("status %d: %s", resp.StatusCode, respBody))
	}

	messageID := resp.Header.Get("X-Message-Id")
	if messageID == "" {
		messageID = uuid.New().String()
	}
	return p.Result(messageID, provider.EstimateCost(domain.ProviderSendGrid, msg)), nil
}

// SendWithOptions applies the shared gate and stats tracking around Send.
func (p *SendGrid) SendWithOptions(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	return p.Checked(ctx, msg, p.Send)
}

// TestConnection probes the account profile endpoint and updates
// availability.
func (p *SendGrid) TestConnection(ctx context.Context) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v3/user/profile", nil)
	if err != nil {
		return false
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.MarkUnavailable("sendgrid connection test failed")
		return false
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		p.MarkAvailable()
		return true
	}
	p.MarkUnavailable(fmt.Sprintf("sendgrid connection test status %d", resp.StatusCode))
	return false
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
