package models

import "time"

type EventStatus string

const (
	EventStatusActive    EventStatus = "active"
	EventStatusPaused    EventStatus = "paused"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

type Event struct {
	ID            string      `json:"id"`
	Title         string      `json:"title"`
	Description   string      `json:"description,omitempty"`
	StartsAt      time.Time   `json:"starts_at"`
	Capacity      int         `json:"capacity"`
	TicketsSold   int         `json:"tickets_sold"`
	PriceCents    int64       `json:"price_cents"`
	Currency      string      `json:"currency"`
	HostAccountID string      `json:"host_account_id,omitempty"`
	Status        EventStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (e *Event) Remaining() int {
	return e.Capacity - e.TicketsSold
}

func (e *Event) IsSellable() bool {
	return e.Status == EventStatusActive
}

// ExternalEvent is a read model filled by the sync job. Capacity is
// owned by the external catalog, so it carries none here.
type ExternalEvent struct {
	ID         string      `json:"id"`
	Title      string      `json:"title"`
	StartsAt   time.Time   `json:"starts_at"`
	PriceCents int64       `json:"price_cents"`
	Currency   string      `json:"currency"`
	Status     EventStatus `json:"status"`
	Source     string      `json:"source"`
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

func (e *ExternalEvent) IsSellable() bool {
	return e.Status == EventStatusActive
}
