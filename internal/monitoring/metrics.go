package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	reservations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_reservations_total",
			Help: "Reservation attempts by outcome",
		},
		[]string{"outcome"},
	)

	webhookEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_webhook_events_total",
			Help: "Payment webhook events by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	ticketsIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_tickets_issued_total",
			Help: "Tickets issued by fulfillment",
		},
	)

	scans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_ticket_scans_total",
			Help: "Ticket scan attempts by result",
		},
		[]string{"result"},
	)

	otpIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "checkout_otp_issued_total",
			Help: "OTP codes issued",
		},
	)

	otpVerified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "checkout_otp_verifications_total",
			Help: "OTP verification attempts by result",
		},
		[]string{"result"},
	)

	httpDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	paymentCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "checkout_payment_call_duration_seconds",
			Help:    "Payment provider call duration",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"call", "ok"},
	)
)

func ObserveReservation(outcome string) {
	reservations.WithLabelValues(outcome).Inc()
}

func ObserveWebhookEvent(eventType, outcome string) {
	webhookEvents.WithLabelValues(eventType, outcome).Inc()
}

func ObserveTicketsIssued(n int) {
	ticketsIssued.Add(float64(n))
}

func ObserveScan(result string) {
	scans.WithLabelValues(result).Inc()
}

func ObserveOTPIssued() {
	otpIssued.Inc()
}

func ObserveOTPVerification(result string) {
	otpVerified.WithLabelValues(result).Inc()
}

func ObserveHTTPRequest(method, path, status string, d time.Duration) {
	httpDuration.WithLabelValues(method, path, status).Observe(d.Seconds())
}

func ObservePaymentCall(call string, d time.Duration, ok bool) {
	label := "false"
	if ok {
		label = "true"
	}
	paymentCallDuration.WithLabelValues(call, label).Observe(d.Seconds())
}
