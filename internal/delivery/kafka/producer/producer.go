package producer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IBM/sarama"

	kafka "github.com/vogiaan1904/ticketbottle-checkout/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
)

type Producer interface {
	PublishCheckoutCompleted(ctx context.Context, event kafka.CheckoutCompletedEvent) error
	PublishCheckoutFailed(ctx context.Context, event kafka.CheckoutFailedEvent) error
	PublishTicketIssued(ctx context.Context, event kafka.TicketIssuedEvent) error
	PublishTicketScanned(ctx context.Context, event kafka.TicketScannedEvent) error
	PublishOTPRequested(ctx context.Context, event kafka.OTPRequestedEvent) error
	Close() error
}

type implProducer struct {
	l    logger.Logger
	prod sarama.SyncProducer
}

func NewProducer(prod sarama.SyncProducer, l logger.Logger) Producer {
	return &implProducer{
		l:    l,
		prod: prod,
	}
}

func (p *implProducer) send(ctx context.Context, topic, key string, event any) error {
	val, err := json.Marshal(event)
	if err != nil {
		p.l.Errorf(ctx, "delivery.kafka.producer.send: %v", err)
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key), // Partition by key for per-entity ordering
		Value: sarama.ByteEncoder(val),
		Headers: []sarama.RecordHeader{
			{
				Key:   []byte("timestamp"),
				Value: []byte(time.Now().Format(time.RFC3339)),
			},
		},
	}

	_, _, err = p.prod.SendMessage(msg)
	return err
}

func (p *implProducer) PublishCheckoutCompleted(ctx context.Context, event kafka.CheckoutCompletedEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, kafka.TopicCheckoutCompleted, event.OrderID, event)
}

func (p *implProducer) PublishCheckoutFailed(ctx context.Context, event kafka.CheckoutFailedEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, kafka.TopicCheckoutFailed, event.OrderID, event)
}

func (p *implProducer) PublishTicketIssued(ctx context.Context, event kafka.TicketIssuedEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, kafka.TopicTicketIssued, event.OrderID, event)
}

func (p *implProducer) PublishTicketScanned(ctx context.Context, event kafka.TicketScannedEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, kafka.TopicTicketScanned, event.TicketID, event)
}

func (p *implProducer) PublishOTPRequested(ctx context.Context, event kafka.OTPRequestedEvent) error {
	event.Timestamp = time.Now()
	return p.send(ctx, kafka.TopicOTPRequested, event.Identifier, event)
}

func (p *implProducer) Close() error {
	if err := p.prod.Close(); err != nil {
		return err
	}

	return nil
}
