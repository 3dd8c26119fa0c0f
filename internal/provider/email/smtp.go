package email

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/provider"
)

// SMTP sends through a plain SMTP relay. It exists as the lowest-priority
// escape hatch when no API vendor is configured.
type SMTP struct {
	*provider.Base
	host      string
	port      string
	username  string
	password  string
	fromEmail string
}

// NewSMTP creates an SMTP provider from a resolved config.
func NewSMTP(cfg domain.ProviderConfig, limiter provider.RateLimiter) *SMTP {
	return &SMTP{
		Base:      provider.NewBase(cfg, limiter),
		host:      cfg.Setting("host", ""),
		port:      cfg.Setting("port", "587"),
		username:  cfg.Setting("username", ""),
		password:  cfg.Setting("password", ""),
		fromEmail: cfg.Setting("from_email", ""),
	}
}

func (p *SMTP) addr() string { return net.JoinHostPort(p.host, p.port) }

// Send builds an RFC 5322 message and relays it. The relay assigns no
// message ID, so one is generated locally for tracking.
func (p *SMTP) Send(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	from := firstNonEmpty(msg.FromEmail, p.fromEmail)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(msg.To, ", "))
	if len(msg.CC) > 0 {
		fmt.Fprintf(&b, "Cc: %s\r\n", strings.Join(msg.CC, ", "))
	}
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.ReplyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	if msg.HTMLBody != "" {
		b.WriteString("MIME-Version: 1.0\r\nContent-Type: text/html; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.HTMLBody)
	} else {
		b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n\r\n")
		b.WriteString(msg.Body)
	}

	recipients := append(append(append([]string{}, msg.To...), msg.CC...), msg.BCC...)

	var auth smtp.Auth
	if p.username != "" {
		auth = smtp.PlainAuth("", p.username, p.password, p.host)
	}

	// smtp.SendMail has no context support; run it in a goroutine so the
	// dispatcher's per-attempt deadline still applies.
	errCh := make(chan error, 1)
	go func() {
		errCh <- smtp.SendMail(p.addr(), auth, from, recipients, []byte(b.String()))
	}()

	select {
	case err := <-errCh:
		if err != nil {
			if strings.Contains(err.Error(), "535") || strings.Contains(strings.ToLower(err.Error()), "auth") {
				p.MarkUnavailable("smtp auth failure")
				return nil, provider.NewVendorError(domain.ProviderSMTP, provider.AuthCode(domain.ProviderSMTP), err)
			}
			return nil, provider.NewVendorError(domain.ProviderSMTP, provider.VendorCode(domain.ProviderSMTP), err)
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	return p.Result(uuid.New().String(), provider.EstimateCost(domain.ProviderSMTP, msg)), nil
}

// SendWithOptions applies the shared gate and stats tracking around Send.
func (p *SMTP) SendWithOptions(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	return p.Checked(ctx, msg, p.Send)
}

// TestConnection dials the relay and updates availability.
func (p *SMTP) TestConnection(ctx context.Context) bool {
	d := net.Dialer{Timeout: 10 * time.Second}
	conn, err := d.DialContext(ctx, "tcp", p.addr())
	if err != nil {
		p.MarkUnavailable("smtp connection test failed")
		return false
	}
	conn.Close()
	p.MarkAvailable()
	return true
}
