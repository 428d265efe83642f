package producer

import (
	"context"

	kafka "github.com/vogiaan1904/ticketbottle-checkout/internal/delivery/kafka"
)

// NewNopProducer is used when Kafka is disabled (local development).
func NewNopProducer() Producer {
	return nopProducer{}
}

type nopProducer struct{}

func (nopProducer) PublishCheckoutCompleted(ctx context.Context, event kafka.CheckoutCompletedEvent) error {
	return nil
}

func (nopProducer) PublishCheckoutFailed(ctx context.Context, event kafka.CheckoutFailedEvent) error {
	return nil
}

func (nopProducer) PublishTicketIssued(ctx context.Context, event kafka.TicketIssuedEvent) error {
	return nil
}

func (nopProducer) PublishTicketScanned(ctx context.Context, event kafka.TicketScannedEvent) error {
	return nil
}

func (nopProducer) PublishOTPRequested(ctx context.Context, event kafka.OTPRequestedEvent) error {
	return nil
}

func (nopProducer) Close() error { return nil }
