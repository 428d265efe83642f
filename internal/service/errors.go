package service

import (
	"errors"
	"time"
)

var (
	ErrEventNotFound    = errors.New("event not found")
	ErrEventNotActive   = errors.New("event is not active")
	ErrHostNotOnboarded = errors.New("event host is not onboarded with the payment provider")
	ErrCapacityExceeded = errors.New("not enough tickets remaining")

	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderNotRefundable = errors.New("order cannot be refunded")
	ErrOrderForbidden     = errors.New("order does not belong to caller")

	ErrTicketNotFound    = errors.New("ticket not found")
	ErrTicketAlreadyUsed = errors.New("ticket already used")
	ErrTicketInvalid     = errors.New("ticket is not valid for entry")
	ErrScanTooEarly      = errors.New("entry window has not opened yet")
	ErrScanTooLate       = errors.New("entry window has closed")

	ErrOTPExpired         = errors.New("code expired or not found")
	ErrOTPMismatch        = errors.New("code does not match")
	ErrOTPTooManyAttempts = errors.New("too many attempts, request a new code")

	ErrRateLimited = errors.New("rate limit exceeded")
)

// AlreadyUsedError carries the prior scan details for operator
// feedback. errors.Is(err, ErrTicketAlreadyUsed) matches it.
type AlreadyUsedError struct {
	ScannedAt *time.Time
	ScannedBy string
}

func (e *AlreadyUsedError) Error() string {
	return ErrTicketAlreadyUsed.Error()
}

func (e *AlreadyUsedError) Unwrap() error {
	return ErrTicketAlreadyUsed
}
