package models

import "time"

type TicketStatus string

const (
	TicketStatusValid     TicketStatus = "valid"
	TicketStatusUsed      TicketStatus = "used"
	TicketStatusCancelled TicketStatus = "cancelled"
	TicketStatusRefunded  TicketStatus = "refunded"
)

// Ticket is one admission credential. ScanToken is the high-entropy
// value embedded in the QR code; SequenceNumber is the human-readable
// 1-based index within the order.
type Ticket struct {
	ID             string       `json:"id"`
	OrderID        string       `json:"order_id"`
	EventRef       EventRef     `json:"event_ref"`
	ScanToken      string       `json:"scan_token"`
	SequenceNumber int          `json:"sequence_number"`
	Status         TicketStatus `json:"status"`
	ScannedAt      *time.Time   `json:"scanned_at,omitempty"`
	ScannedBy      string       `json:"scanned_by,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

func (t *Ticket) IsRedeemable() bool {
	return t.Status == TicketStatusValid
}
