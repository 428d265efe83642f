package http

import (
	"net/http"
	"time"

	kafka "github.com/vogiaan1904/ticketbottle-checkout/internal/delivery/kafka"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/delivery/kafka/producer"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/service"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/response"
)

type requestOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required"`
}

type verifyOTPResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AuthHandler owns the OTP login flow. The producer hands the issued
// code to the notification service, which delivers it.
type AuthHandler struct {
	*Handler
	prod producer.Producer
}

func NewAuthHandler(h *Handler, prod producer.Producer) *AuthHandler {
	return &AuthHandler{Handler: h, prod: prod}
}

func (h *AuthHandler) RequestOTP(w http.ResponseWriter, r *http.Request) {
	var req requestOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	issued, err := h.otpSvc.Issue(r.Context(), req.Email)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.prod.PublishOTPRequested(r.Context(), kafka.OTPRequestedEvent{
		Identifier: issued.Identifier,
		Code:       issued.Code,
		ExpiresAt:  issued.ExpiresAt,
	}); err != nil {
		h.l.Errorf(r.Context(), "delivery.http.AuthHandler.RequestOTP: %v", err)
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if !h.decode(w, r, &req) {
		return
	}

	if err := h.otpSvc.Verify(r.Context(), req.Email, req.Code); err != nil {
		h.respondError(w, r, err)
		return
	}

	token, expAt, err := h.tokenSvc.Generate(req.Email, service.RoleBuyer, "")
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, verifyOTPResponse{
		AccessToken: token,
		ExpiresAt:   expAt,
	})
}
