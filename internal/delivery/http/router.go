package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func NewRouter(h *Handler, authH *AuthHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(Metrics)

	r.Get("/healthz", h.HealthCheck)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth/otp", func(r chi.Router) {
			r.Use(h.RateLimit("otp"))
			r.Post("/request", authH.RequestOTP)
			r.Post("/verify", authH.VerifyOTP)
		})

		r.Get("/events/{id}", h.GetEvent)
		r.Get("/events/external/{id}", h.GetExternalEvent)
		r.Get("/tickets/{token}", h.VerifyTicket)

		// Signature-verified, no bearer auth.
		r.Post("/webhooks/payment", h.PaymentWebhook)

		r.Group(func(r chi.Router) {
			r.Use(h.Authenticate)

			r.With(h.RateLimit("orders")).Post("/orders", h.CreateOrder)
			r.Get("/orders/{id}", h.GetOrder)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireHost)
				r.Post("/orders/{id}/refund", h.RefundOrder)
				r.Post("/tickets/scan", h.ScanTicket)
				r.Post("/tickets/{id}/cancel", h.CancelTicket)
			})
		})
	})

	return r
}
