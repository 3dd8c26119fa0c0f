package config

import (
	"strconv"

	"github.com/attendly/attendly/internal/domain"
)

// StaticProviderConfigs builds the static-default tier of provider config
// resolution from the application config. A vendor appears in the result
// only when its credentials are present; each entry is active and carries
// the vendor's configured priority and rate limit.
func (c *Config) StaticProviderConfigs() []domain.ProviderConfig {
	var out []domain.ProviderConfig

	if c.SendGrid.APIKey != "" {
		out = append(out, staticConfig(domain.ProviderSendGrid, domain.ChannelEmail, "SendGrid (default)",
			c.SendGrid.Priority, c.SendGrid.MaxPerMinute, map[string]string{
				"api_key":    c.SendGrid.APIKey,
				"base_url":   c.SendGrid.BaseURL,
				"from_email": c.SendGrid.FromEmail,
				"from_name":  c.SendGrid.FromName,
				"timeout":    strconv.Itoa(c.SendGrid.TimeoutSeconds),
			}))
	}
	if c.Mailgun.APIKey != "" {
		out = append(out, staticConfig(domain.ProviderMailgun, domain.ChannelEmail, "Mailgun (default)",
			c.Mailgun.Priority, c.Mailgun.MaxPerMinute, map[string]string{
				"api_key":    c.Mailgun.APIKey,
				"base_url":   c.Mailgun.BaseURL,
				"domain":     c.Mailgun.Domain,
				"from_email": c.Mailgun.FromEmail,
				"timeout":    strconv.Itoa(c.Mailgun.TimeoutSeconds),
			}))
	}
	if c.SES.AccessKey != "" && c.SES.SecretKey != "" {
		out = append(out, staticConfig(domain.ProviderSES, domain.ChannelEmail, "AWS SES (default)",
			c.SES.Priority, c.SES.MaxPerMinute, map[string]string{
				"access_key": c.SES.AccessKey,
				"secret_key": c.SES.SecretKey,
				"region":     c.SES.Region,
				"from_email": c.SES.FromEmail,
			}))
	}
	if c.SMTP.Host != "" {
		out = append(out, staticConfig(domain.ProviderSMTP, domain.ChannelEmail, "SMTP (default)",
			c.SMTP.Priority, c.SMTP.MaxPerMinute, map[string]string{
				"host":       c.SMTP.Host,
				"port":       strconv.Itoa(c.SMTP.Port),
				"username":   c.SMTP.Username,
				"password":   c.SMTP.Password,
				"from_email": c.SMTP.FromEmail,
			}))
	}
	if c.Resend.APIKey != "" {
		out = append(out, staticConfig(domain.ProviderResend, domain.ChannelEmail, "Resend (default)",
			c.Resend.Priority, c.Resend.MaxPerMinute, map[string]string{
				"api_key":    c.Resend.APIKey,
				"base_url":   c.Resend.BaseURL,
				"from_email": c.Resend.FromEmail,
				"timeout":    strconv.Itoa(c.Resend.TimeoutSeconds),
			}))
	}

	if c.Twilio.AccountSID != "" && c.Twilio.AuthToken != "" {
		out = append(out, staticConfig(domain.ProviderTwilio, domain.ChannelSMS, "Twilio (default)",
			c.Twilio.Priority, c.Twilio.MaxPerMinute, map[string]string{
				"account_sid": c.Twilio.AccountSID,
				"auth_token":  c.Twilio.AuthToken,
				"from_number": c.Twilio.FromNumber,
				"base_url":    c.Twilio.BaseURL,
				"timeout":     strconv.Itoa(c.Twilio.TimeoutSeconds),
			}))
	}
	if c.Vonage.APIKey != "" && c.Vonage.APISecret != "" {
		out = append(out, staticConfig(domain.ProviderVonage, domain.ChannelSMS, "Vonage (default)",
			c.Vonage.Priority, c.Vonage.MaxPerMinute, map[string]string{
				"api_key":     c.Vonage.APIKey,
				"api_secret":  c.Vonage.APISecret,
				"from_number": c.Vonage.FromNumber,
				"base_url":    c.Vonage.BaseURL,
				"timeout":     strconv.Itoa(c.Vonage.TimeoutSeconds),
			}))
	}
	if c.SNS.AccessKey != "" && c.SNS.SecretKey != "" {
		out = append(out, staticConfig(domain.ProviderSNS, domain.ChannelSMS, "AWS SNS (default)",
			c.SNS.Priority, c.SNS.MaxPerMinute, map[string]string{
				"access_key": c.SNS.AccessKey,
				"secret_key": c.SNS.SecretKey,
				"region":     c.SNS.Region,
				"sender_id":  c.SNS.SenderID,
			}))
	}

	return out
}

func staticConfig(pt domain.ProviderType, ch domain.Channel, name string, priority, maxPerMinute int, settings map[string]string) domain.ProviderConfig {
	return domain.ProviderConfig{
		ID:        "static-" + string(pt),
		Type:      pt,
		Channel:   ch,
		Name:      name,
		Priority:  priority,
		IsActive:  true,
		Source:    domain.SourceStatic,
		Settings:  settings,
		RateLimit: domain.RateLimit{MaxPerMinute: maxPerMinute},
	}
}
