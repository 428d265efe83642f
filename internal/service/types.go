package service

import (
	"time"

	"github.com/vogiaan1904/ticketbottle-checkout/internal/models"
)

type ReserveInput struct {
	EventRef   models.EventRef `json:"event_ref"`
	Quantity   int             `json:"quantity" validate:"required,gte=1,lte=10"`
	BuyerID    string          `json:"buyer_id" validate:"required"`
	BuyerEmail string          `json:"buyer_email" validate:"required,email"`
	SessionID  string          `json:"session_id,omitempty"`
}

type ReserveOutput struct {
	Order        *models.Order `json:"order"`
	ClientSecret string        `json:"client_secret"`
}

type OrderOutput struct {
	Order   *models.Order    `json:"order"`
	Tickets []*models.Ticket `json:"tickets,omitempty"`
}

type ChargeInfo struct {
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

type ScanInput struct {
	Token     string `json:"token" validate:"required"`
	ScannerID string `json:"scanner_id" validate:"required"`
}

type ScanOutput struct {
	Ticket *models.Ticket `json:"ticket"`
}

// TicketView is the read-only shape for the door display; producing
// it never mutates the ticket.
type TicketView struct {
	TicketID       string              `json:"ticket_id"`
	SequenceNumber int                 `json:"sequence_number"`
	Status         models.TicketStatus `json:"status"`
	EventTitle     string              `json:"event_title"`
	EventStartsAt  string              `json:"event_starts_at"`
	ScannedAt      *time.Time          `json:"scanned_at,omitempty"`
}
