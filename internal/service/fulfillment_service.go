package service

import (
	"context"
	"errors"

	kafka "github.com/vogiaan1904/ticketbottle-checkout/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/monitoring"
	pgRepo "github.com/vogiaan1904/ticketbottle-checkout/internal/repository/postgres"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
)

// FulfillmentService turns payment confirmations into tickets. The
// processor delivers at-least-once, so every handler must tolerate
// duplicate and concurrent invocations for the same reference.
type FulfillmentService interface {
	HandlePaymentSucceeded(ctx context.Context, ref string, charge ChargeInfo) error
	HandlePaymentFailed(ctx context.Context, ref, reason string) error
	HandlePaymentActionRequired(ctx context.Context, ref string) error
}

type fulfillmentService struct {
	oRepo pgRepo.OrderRepository
	prod  producer.Producer
	l     logger.Logger
}

func NewFulfillmentService(
	oRepo pgRepo.OrderRepository,
	prod producer.Producer,
	l logger.Logger,
) FulfillmentService {
	return &fulfillmentService{
		oRepo: oRepo,
		prod:  prod,
		l:     l,
	}
}

func (s *fulfillmentService) HandlePaymentSucceeded(ctx context.Context, ref string, charge ChargeInfo) error {
	res, err := s.oRepo.Complete(ctx, ref)
	if err != nil {
		if errors.Is(err, pgRepo.ErrOrderNotFound) {
			s.l.Warnf(ctx, "service.fulfillmentService.HandlePaymentSucceeded: %v", ErrOrderNotFound)
			monitoring.ObserveWebhookEvent("payment_intent.succeeded", "order_not_found")
			return ErrOrderNotFound
		}
		s.l.Errorf(ctx, "service.fulfillmentService.HandlePaymentSucceeded: %v", err)
		monitoring.ObserveWebhookEvent("payment_intent.succeeded", "error")
		return err
	}

	if res.Duplicate {
		// At-least-once delivery; nothing to do and nothing to report
		// to the processor.
		s.l.Infof(ctx, "duplicate fulfillment for %s suppressed", ref)
		monitoring.ObserveWebhookEvent("payment_intent.succeeded", "duplicate")
		return nil
	}

	monitoring.ObserveWebhookEvent("payment_intent.succeeded", "completed")
	monitoring.ObserveTicketsIssued(len(res.Tickets))

	o := res.Order
	if err := s.prod.PublishCheckoutCompleted(ctx, kafka.CheckoutCompletedEvent{
		OrderID:   o.ID,
		SessionID: o.SessionID,
		BuyerID:   o.BuyerID,
		EventID:   o.EventRef.ID,
		Quantity:  o.Quantity,
	}); err != nil {
		s.l.Errorf(ctx, "service.fulfillmentService.HandlePaymentSucceeded: %v", err)
	}

	issued := make([]kafka.IssuedTicket, 0, len(res.Tickets))
	for _, t := range res.Tickets {
		issued = append(issued, kafka.IssuedTicket{
			TicketID:       t.ID,
			SequenceNumber: t.SequenceNumber,
		})
	}
	if err := s.prod.PublishTicketIssued(ctx, kafka.TicketIssuedEvent{
		OrderID:    o.ID,
		BuyerID:    o.BuyerID,
		BuyerEmail: o.BuyerEmail,
		EventID:    o.EventRef.ID,
		Tickets:    issued,
	}); err != nil {
		s.l.Errorf(ctx, "service.fulfillmentService.HandlePaymentSucceeded: %v", err)
	}

	s.l.Infof(ctx, "order %s fulfilled with %d tickets", o.ID, len(res.Tickets))
	return nil
}

func (s *fulfillmentService) HandlePaymentFailed(ctx context.Context, ref, reason string) error {
	o, transitioned, err := s.oRepo.MarkFailed(ctx, ref)
	if err != nil {
		if errors.Is(err, pgRepo.ErrOrderNotFound) {
			s.l.Warnf(ctx, "service.fulfillmentService.HandlePaymentFailed: %v", ErrOrderNotFound)
			monitoring.ObserveWebhookEvent("payment_intent.payment_failed", "order_not_found")
			return ErrOrderNotFound
		}
		s.l.Errorf(ctx, "service.fulfillmentService.HandlePaymentFailed: %v", err)
		monitoring.ObserveWebhookEvent("payment_intent.payment_failed", "error")
		return err
	}

	if !transitioned {
		// Late failure after completion; a completed order is never
		// downgraded. Capacity stays reserved, releasing it is an
		// explicit separate operation.
		monitoring.ObserveWebhookEvent("payment_intent.payment_failed", "ignored")
		return nil
	}

	monitoring.ObserveWebhookEvent("payment_intent.payment_failed", "failed")

	if err := s.prod.PublishCheckoutFailed(ctx, kafka.CheckoutFailedEvent{
		OrderID:   o.ID,
		SessionID: o.SessionID,
		BuyerID:   o.BuyerID,
		EventID:   o.EventRef.ID,
		Reason:    reason,
	}); err != nil {
		s.l.Errorf(ctx, "service.fulfillmentService.HandlePaymentFailed: %v", err)
	}

	return nil
}

func (s *fulfillmentService) HandlePaymentActionRequired(ctx context.Context, ref string) error {
	// The buyer finishes the extra step in the payment UI; no state to
	// change here.
	s.l.Infof(ctx, "payment %s requires buyer action", ref)
	monitoring.ObserveWebhookEvent("payment_intent.requires_action", "noop")
	return nil
}
