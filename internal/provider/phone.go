package provider

import (
	"strings"

	"github.com/attendly/attendly/internal/domain"
)

// NormalizePhone converts a phone number to E.164-ish form: strips
// formatting characters, keeps a leading +, and assumes US (+1) for bare
// 10-digit numbers.
func NormalizePhone(raw string) string {
	raw = strings.TrimSpace(raw)
	plus := strings.HasPrefix(raw, "+")

	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()
	if d == "" {
		return raw
	}

	switch {
	case plus:
		return "+" + d
	case len(d) == 10:
		return "+1" + d
	default:
		return "+" + d
	}
}

func normalizeRecipients(msg *domain.Message, channel domain.Channel) {
	for i, to := range msg.To {
		if channel == domain.ChannelSMS {
			msg.To[i] = NormalizePhone(to)
		} else {
			msg.To[i] = strings.TrimSpace(strings.ToLower(to))
		}
	}
}
