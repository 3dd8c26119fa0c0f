package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/provider"
)

// SES sends through the AWS SES v2 API.
type SES struct {
	*provider.Base
	client    *sesv2.Client
	fromEmail string
}

// NewSES creates an SES provider with static credentials from the config.
func NewSES(cfg domain.ProviderConfig, limiter provider.RateLimiter) (*SES, error) {
	creds := credentials.NewStaticCredentialsProvider(
		cfg.Setting("access_key", ""),
		cfg.Setting("secret_key", ""),
		"",
	)

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Setting("region", "us-east-1")),
		awsconfig.WithCredentialsProvider(creds),
	)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &SES{
		Base:      provider.NewBase(cfg, limiter),
		client:    sesv2.NewFromConfig(awsCfg),
		fromEmail: cfg.Setting("from_email", ""),
	}, nil
}

// Send performs the raw SES SendEmail call.
func (p *SES) Send(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	content := &types.EmailContent{
		Simple: &types.Message{
			Subject: &types.Content{Data: aws.String(msg.Subject)},
			Body:    &types.Body{},
		},
	}
	if msg.Body != "" {
		content.Simple.Body.Text = &types.Content{Data: aws.String(msg.Body)}
	}
	if msg.HTMLBody != "" {
		content.Simple.Body.Html = &types.Content{Data: aws.String(msg.HTMLBody)}
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(firstNonEmpty(msg.FromEmail, p.fromEmail)),
		Destination: &types.Destination{
			ToAddresses:  msg.To,
			CcAddresses:  msg.CC,
			BccAddresses: msg.BCC,
		},
		Content: content,
	}
	if msg.ReplyTo != "" {
		input.ReplyToAddresses = []string{msg.ReplyTo}
	}

	out, err := p.client.SendEmail(ctx, input)
	if err != nil {
		if isAWSAuthError(err) {
			p.MarkUnavailable("ses auth failure")
			return nil, provider.NewVendorError(domain.ProviderSES, provider.AuthCode(domain.ProviderSES), err)
		}
		return nil, provider.NewVendorError(domain.ProviderSES, provider.VendorCode(domain.ProviderSES), err)
	}

	return p.Result(aws.ToString(out.MessageId), provider.EstimateCost(domain.ProviderSES, msg)), nil
}

// SendWithOptions applies the shared gate and stats tracking around Send.
func (p *SES) SendWithOptions(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	return p.Checked(ctx, msg, p.Send)
}

// TestConnection checks the account's sending status and updates
// availability.
func (p *SES) TestConnection(ctx context.Context) bool {
	out, err := p.client.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		p.MarkUnavailable("ses connection test failed")
		return false
	}
	if !out.SendingEnabled {
		p.MarkUnavailable("ses sending disabled on account")
		return false
	}
	p.MarkAvailable()
	return true
}

// isAWSAuthError classifies SDK errors that imply bad credentials.
func isAWSAuthError(err error) bool {
	s := err.Error()
	return strings.Contains(s, "InvalidClientTokenId") ||
		strings.Contains(s, "SignatureDoesNotMatch") ||
		strings.Contains(s, "UnrecognizedClientException") ||
		strings.Contains(s, "AccessDenied")
}
