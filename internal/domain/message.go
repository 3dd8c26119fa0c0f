package domain

import (
	"fmt"
	"strings"
	"time"
)

// Attachment is an email attachment, already encoded by the caller.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	Content     []byte `json:"content"`
}

// Message is the normalized send request handed to a provider. Email and
// SMS share the struct; SMS providers read To and Body only.
type Message struct {
	ID string `json:"id"`

	To      []string `json:"to"`
	CC      []string `json:"cc,omitempty"`
	BCC     []string `json:"bcc,omitempty"`
	ReplyTo string   `json:"reply_to,omitempty"`

	FromName  string `json:"from_name,omitempty"`
	FromEmail string `json:"from_email,omitempty"`

	Subject  string `json:"subject,omitempty"`
	HTMLBody string `json:"html_body,omitempty"`
	Body     string `json:"body"`

	TemplateID  string       `json:"template_id,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Validate checks the fields every channel requires.
func (m *Message) Validate(channel Channel) error {
	if len(m.To) == 0 {
		return fmt.Errorf("message has no recipients")
	}
	for _, to := range m.To {
		if strings.TrimSpace(to) == "" {
			return fmt.Errorf("message has an empty recipient")
		}
	}
	if channel == ChannelEmail && m.Subject == "" && m.TemplateID == "" {
		return fmt.Errorf("email message requires a subject or template")
	}
	if channel == ChannelSMS && strings.TrimSpace(m.Body) == "" {
		return fmt.Errorf("sms message requires a body")
	}
	return nil
}

// SendResult is returned by a provider after a send attempt.
// Invariant: Success implies MessageID is set; !Success implies at least
// one entry in Errors.
type SendResult struct {
	Success   bool         `json:"success"`
	MessageID string       `json:"message_id,omitempty"`
	Provider  ProviderType `json:"provider"`
	Cost      float64      `json:"cost"`
	QueuedAt  time.Time    `json:"queued_at"`
	Errors    []string     `json:"errors,omitempty"`
}

// DispatchResult is the outcome of a failover dispatch across providers.
type DispatchResult struct {
	Success  bool         `json:"success"`
	Provider ProviderType `json:"provider,omitempty"`
	Result   *SendResult  `json:"result,omitempty"`
	Error    string       `json:"error,omitempty"`
	Attempts int          `json:"attempts"`
}
