package payment

// Webhook event types acted on by fulfillment. Anything else is
// acknowledged as a no-op.
const (
	EventPaymentSucceeded      = "payment_intent.succeeded"
	EventPaymentFailed         = "payment_intent.payment_failed"
	EventPaymentRequiresAction = "payment_intent.requires_action"
)

// WebhookEvent is the signed envelope delivered by the processor.
type WebhookEvent struct {
	ID      string      `json:"id"`
	Type    string      `json:"type"`
	Created int64       `json:"created"`
	Data    WebhookData `json:"data"`
}

type WebhookData struct {
	PaymentReference string `json:"payment_reference"`
	AmountCents      int64  `json:"amount"`
	Currency         string `json:"currency"`
	FailureReason    string `json:"failure_reason,omitempty"`
}
