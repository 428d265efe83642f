package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/vogiaan1904/ticketbottle-checkout/internal/monitoring"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/payment"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/service"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/response"
)

const maxWebhookBodySize = 1 << 20 // 1 MiB

// PaymentWebhook receives the processor's at-least-once deliveries.
// Response discipline: 400 for bad signatures, 200 for terminal
// conditions (unknown type, unknown reference, malformed payload) so
// redelivery storms stop, 500 for transient errors so the processor
// retries. Correctness rests on fulfillment idempotency, not on
// delivery count.
func (h *Handler) PaymentWebhook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBodySize))
	if err != nil {
		h.l.Errorf(ctx, "delivery.http.PaymentWebhook: %v", err)
		response.Error(w, err)
		return
	}

	sig := r.Header.Get(payment.SignatureHeader)
	if err := payment.VerifySignature(body, sig, h.payConf.WebhookSecret, h.payConf.SignatureTolerance, time.Now()); err != nil {
		h.l.Warnf(ctx, "delivery.http.PaymentWebhook: %v", err)
		monitoring.ObserveWebhookEvent("unknown", "invalid_signature")
		h.respondError(w, r, err)
		return
	}

	var event payment.WebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		// Signed but malformed; retrying will not fix it.
		h.l.Warnf(ctx, "delivery.http.PaymentWebhook: %v", err)
		monitoring.ObserveWebhookEvent("unknown", "malformed")
		response.JSON(w, http.StatusOK, response.Resp{Message: "acknowledged"})
		return
	}

	switch event.Type {
	case payment.EventPaymentSucceeded:
		err = h.fulfillSvc.HandlePaymentSucceeded(ctx, event.Data.PaymentReference, service.ChargeInfo{
			AmountCents: event.Data.AmountCents,
			Currency:    event.Data.Currency,
		})
	case payment.EventPaymentFailed:
		err = h.fulfillSvc.HandlePaymentFailed(ctx, event.Data.PaymentReference, event.Data.FailureReason)
	case payment.EventPaymentRequiresAction:
		err = h.fulfillSvc.HandlePaymentActionRequired(ctx, event.Data.PaymentReference)
	default:
		monitoring.ObserveWebhookEvent(event.Type, "ignored")
		response.JSON(w, http.StatusOK, response.Resp{Message: "ignored"})
		return
	}

	switch {
	case err == nil:
		response.JSON(w, http.StatusOK, response.Resp{Message: "processed"})
	case errors.Is(err, service.ErrOrderNotFound):
		// Terminal: acknowledge so the processor stops redelivering.
		response.JSON(w, http.StatusOK, response.Resp{Message: "unknown payment reference"})
	default:
		response.Error(w, err)
	}
}
