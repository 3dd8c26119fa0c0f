package provider

import "github.com/attendly/attendly/internal/domain"

// Static per-recipient rates in USD. These are list-price approximations
// used for spend estimates, not billing-accurate figures.
var perRecipientRate = map[domain.ProviderType]float64{
	domain.ProviderSendGrid:  0.00095,
	domain.ProviderMailgun:   0.0008,
	domain.ProviderSES:       0.0001,
	domain.ProviderSMTP:      0,
	domain.ProviderResend:    0.0004,
	domain.ProviderTwilio:    0.0079,
	domain.ProviderVonage:    0.0072,
	domain.ProviderSNS:       0.00645,
	domain.ProviderCustomAPI: 0.005,
}

// Surcharge per megabyte of attachments, applied per recipient for email
// vendors that bill on payload size.
const attachmentRatePerMB = 0.0001

// EstimateCost returns the approximate cost of sending msg through the
// given provider type. Cost is monotonically non-decreasing in the number
// of recipients.
func EstimateCost(pt domain.ProviderType, msg *domain.Message) float64 {
	rate := perRecipientRate[pt]
	recipients := len(msg.To) + len(msg.CC) + len(msg.BCC)
	cost := rate * float64(recipients)

	if len(msg.Attachments) > 0 {
		var bytes int64
		for _, a := range msg.Attachments {
			bytes += int64(len(a.Content))
		}
		cost += attachmentRatePerMB * float64(bytes) / (1 << 20) * float64(recipients)
	}
	return cost
}
