package kafka

import "time"

// Events published BY Checkout Service

// CheckoutCompletedEvent lets the waiting-room service release the
// buyer's reservation slot.
type CheckoutCompletedEvent struct {
	OrderID   string    `json:"order_id"`
	SessionID string    `json:"session_id,omitempty"`
	BuyerID   string    `json:"buyer_id"`
	EventID   string    `json:"event_id"`
	Quantity  int       `json:"quantity"`
	Timestamp time.Time `json:"timestamp"`
}

type CheckoutFailedEvent struct {
	OrderID   string    `json:"order_id"`
	SessionID string    `json:"session_id,omitempty"`
	BuyerID   string    `json:"buyer_id"`
	EventID   string    `json:"event_id"`
	Reason    string    `json:"reason,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type IssuedTicket struct {
	TicketID       string `json:"ticket_id"`
	SequenceNumber int    `json:"sequence_number"`
}

// TicketIssuedEvent is consumed by the notification service, which
// owns delivery of the tickets to the buyer.
type TicketIssuedEvent struct {
	OrderID    string         `json:"order_id"`
	BuyerID    string         `json:"buyer_id"`
	BuyerEmail string         `json:"buyer_email"`
	EventID    string         `json:"event_id"`
	Tickets    []IssuedTicket `json:"tickets"`
	Timestamp  time.Time      `json:"timestamp"`
}

type TicketScannedEvent struct {
	TicketID  string    `json:"ticket_id"`
	OrderID   string    `json:"order_id"`
	EventID   string    `json:"event_id"`
	ScannedBy string    `json:"scanned_by"`
	ScannedAt time.Time `json:"scanned_at"`
	Timestamp time.Time `json:"timestamp"`
}

// OTPRequestedEvent carries the code to the notification service; the
// core never sends email or SMS itself.
type OTPRequestedEvent struct {
	Identifier string    `json:"identifier"`
	Code       string    `json:"code"`
	ExpiresAt  time.Time `json:"expires_at"`
	Timestamp  time.Time `json:"timestamp"`
}
