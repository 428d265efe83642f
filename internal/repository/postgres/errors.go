package repository

import "errors"

var (
	ErrEventNotFound  = errors.New("event not found")
	ErrOrderNotFound  = errors.New("order not found")
	ErrTicketNotFound = errors.New("ticket not found")

	ErrEventNotActive   = errors.New("event is not active")
	ErrHostNotOnboarded = errors.New("event host has no payment account")
	ErrCapacityExceeded = errors.New("event capacity exceeded")

	ErrOrderNotRefundable = errors.New("order is not refundable")
)
