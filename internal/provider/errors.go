package provider

import (
	"errors"
	"fmt"

	"github.com/attendly/attendly/internal/domain"
)

var (
	// ErrConfigNotFound means no resolution tier (tenant, global, static)
	// yielded a usable config for the requested provider type.
	ErrConfigNotFound = errors.New("provider config not found")

	// ErrUnsupportedType means the requested provider type has no registered
	// constructor. This is a programmer error and is never swallowed.
	ErrUnsupportedType = errors.New("unsupported provider type")

	// ErrProviderUnavailable means CanSend returned false: the provider is
	// inactive, marked unavailable, or rate-limited. The dispatcher treats
	// this as "try the next provider".
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrRateLimitExceeded is the rate limiter's explicit rejection,
	// distinct from general unavailability.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	// ErrTimedOut means a single provider attempt exceeded the dispatch
	// attempt timeout. Kept distinct from vendor errors so callers can tell
	// a hung vendor from a rejecting one.
	ErrTimedOut = errors.New("provider attempt timed out")
)

// VendorError wraps a vendor SDK/HTTP failure with a machine-readable code
// such as "twilio_auth_error" or "aws_ses_error".
type VendorError struct {
	Provider domain.ProviderType
	Code     string
	Err      error
}

func (e *VendorError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Code, e.Err)
}

func (e *VendorError) Unwrap() error { return e.Err }

// NewVendorError builds a VendorError for the given provider and code.
func NewVendorError(pt domain.ProviderType, code string, err error) *VendorError {
	return &VendorError{Provider: pt, Code: code, Err: err}
}

// AuthCode returns the conventional auth-failure error code for a vendor.
// Vendor implementations flip themselves unavailable when they emit it.
func AuthCode(pt domain.ProviderType) string {
	return string(pt) + "_auth_error"
}

// VendorCode returns the conventional generic error code for a vendor.
func VendorCode(pt domain.ProviderType) string {
	return string(pt) + "_error"
}
