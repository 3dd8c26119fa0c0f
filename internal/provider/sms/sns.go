package sms

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"

	"github.com/attendly/attendly/internal/domain"
	"github.com/attendly/attendly/internal/provider"
)

// SNS sends SMS through AWS SNS direct publish.
type SNS struct {
	*provider.Base
	client   *sns.Client
	senderID string
}

// NewSNS creates an SNS provider with static credentials from the config.
func NewSNS(cfg domain.ProviderConfig, limiter provider.RateLimiter) (*SNS, error) {
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

	return &SNS{
		Base:     provider.NewBase(cfg, limiter),
		client:   sns.NewFromConfig(awsCfg),
		senderID: cfg.Setting("sender_id", ""),
	}, nil
}

// Send publishes one SMS per recipient.
func (p *SNS) Send(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	var attrs map[string]types.MessageAttributeValue
	if p.senderID != "" {
		attrs = map[string]types.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(p.senderID),
			},
		}
	}

	var firstID string
	for _, to := range msg.To {
		out, err := p.client.Publish(ctx, &sns.PublishInput{
			PhoneNumber:       aws.String(to),
			Message:           aws.String(msg.Body),
			MessageAttributes: attrs,
		})
		if err != nil {
			if isAWSAuthError(err) {
				p.MarkUnavailable("sns auth failure")
				return nil, provider.NewVendorError(domain.ProviderSNS, provider.AuthCode(domain.ProviderSNS), err)
			}
			return nil, provider.NewVendorError(domain.ProviderSNS, provider.VendorCode(domain.ProviderSNS), err)
		}
		if firstID == "" {
			firstID = aws.ToString(out.MessageId)
		}
	}

	return p.Result(firstID, provider.EstimateCost(domain.ProviderSNS, msg)), nil
}

// SendWithOptions applies the shared gate and stats tracking around Send.
func (p *SNS) SendWithOptions(ctx context.Context, msg *domain.Message) (*domain.SendResult, error) {
	return p.Checked(ctx, msg, p.Send)
}

// TestConnection reads the account SMS attributes and updates availability.
func (p *SNS) TestConnection(ctx context.Context) bool {
	_, err := p.client.GetSMSAttributes(ctx, &sns.GetSMSAttributesInput{})
	if err != nil {
		p.MarkUnavailable("sns connection test failed")
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
		strings.Contains(s, "AuthorizationError")
}
