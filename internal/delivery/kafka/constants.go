package kafka

const (
	TopicCheckoutCompleted = "checkout.completed"
	TopicCheckoutFailed    = "checkout.failed"

	TopicTicketIssued  = "ticket.issued"
	TopicTicketScanned = "ticket.scanned"

	TopicOTPRequested = "otp.requested"
)
