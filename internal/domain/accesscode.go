package domain

import "time"

// CodeKind distinguishes the two attendance check-in code formats.
type CodeKind string

const (
	CodePIN CodeKind = "pin" // short numeric code typed by the attendee
	CodeQR  CodeKind = "qr"  // opaque token embedded in a QR image
)

// AccessCode is a one-time attendance check-in credential. A code is valid
// iff it has not been used and has not expired. It is mutated exactly once
// (marked used) or removed by the expiry sweep.
type AccessCode struct {
	ID             string    `json:"id" db:"id"`
	EventID        string    `json:"event_id" db:"event_id"`
	OrganizationID string    `json:"organization_id,omitempty" db:"organization_id"`
	UserID         string    `json:"user_id" db:"user_id"`
	Kind           CodeKind  `json:"kind" db:"kind"`
	Code           string    `json:"code" db:"code"`
	ExpiresAt      time.Time `json:"expires_at" db:"expires_at"`
	IsUsed         bool      `json:"is_used" db:"is_used"`
	UsedAt         time.Time `json:"used_at,omitempty" db:"used_at"`
	UsedBy         string    `json:"used_by,omitempty" db:"used_by"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Valid reports whether the code can still be redeemed at the given time.
func (c *AccessCode) Valid(now time.Time) bool {
	return !c.IsUsed && !now.After(c.ExpiresAt)
}
