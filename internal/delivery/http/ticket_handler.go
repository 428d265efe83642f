package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vogiaan1904/ticketbottle-checkout/internal/service"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/response"
)

type scanRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *Handler) ScanTicket(w http.ResponseWriter, r *http.Request) {
	var req scanRequest
	if !h.decode(w, r, &req) {
		return
	}

	claims := claimsFrom(r.Context())
	out, err := h.ticketSvc.Scan(r.Context(), service.ScanInput{
		Token:     req.Token,
		ScannerID: claims.Subject,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, out)
}

// VerifyTicket is the read-only door-display endpoint. No auth, no
// side effects.
func (h *Handler) VerifyTicket(w http.ResponseWriter, r *http.Request) {
	view, err := h.ticketSvc.Verify(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, view)
}

func (h *Handler) CancelTicket(w http.ResponseWriter, r *http.Request) {
	t, err := h.ticketSvc.Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, t)
}
