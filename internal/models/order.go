package models

import "time"

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusFailed    OrderStatus = "failed"
	OrderStatusRefunded  OrderStatus = "refunded"
)

// Order is one purchase attempt. PaymentReference is the processor's
// idempotency key and the sole correlation key for fulfillment.
type Order struct {
	ID               string      `json:"id"`
	Code             string      `json:"code"`
	BuyerID          string      `json:"buyer_id"`
	BuyerEmail       string      `json:"buyer_email"`
	EventRef         EventRef    `json:"event_ref"`
	Quantity         int         `json:"quantity"`
	AmountCents      int64       `json:"amount_cents"`
	FeeSplitCents    int64       `json:"fee_split_cents"`
	Currency         string      `json:"currency"`
	PaymentReference string      `json:"payment_reference"`
	SessionID        string      `json:"session_id,omitempty"`
	Status           OrderStatus `json:"status"`
	CreatedAt        time.Time   `json:"created_at"`
	UpdatedAt        time.Time   `json:"updated_at"`
}

func (o *Order) IsTerminal() bool {
	return o.Status == OrderStatusCompleted ||
		o.Status == OrderStatusFailed ||
		o.Status == OrderStatusRefunded
}
