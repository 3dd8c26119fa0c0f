package logger

import (
	"regexp"
	"strings"
)

var (
	emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phoneRegex = regexp.MustCompile(`\+?[0-9][0-9 .\-()]{6,}[0-9]`)
)

// credentialKeys are field-name fragments whose values are never logged.
var credentialKeys = []string{"api_key", "apikey", "secret", "password", "token", "auth_token", "account_sid"}

func redactValue(key, val string) string {
	key = strings.ToLower(key)
	for _, k := range credentialKeys {
		if strings.Contains(key, k) {
			return "[redacted]"
		}
	}
	if strings.Contains(key, "email") || strings.Contains(key, "recipient") || strings.Contains(key, "attendee") {
		return RedactEmail(val)
	}
	if strings.Contains(key, "phone") || strings.Contains(key, "sms_to") {
		return RedactPhone(val)
	}
	// Catch addresses embedded in generic fields.
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}

// RedactEmail masks an email address for safe logging.
// "jane.doe@example.com" → "ja***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactPhone masks all but the last four digits of a phone number.
// "+15551234567" → "*******4567"
func RedactPhone(phone string) string {
	if !phoneRegex.MatchString(phone) {
		return phone
	}
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(digits)-4) + digits[len(digits)-4:]
}
