package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vogiaan1904/ticketbottle-checkout/internal/models"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/service"
	pkgErrors "github.com/vogiaan1904/ticketbottle-checkout/pkg/errors"
	"github.com/vogiaan1904/ticketbottle-checkout/pkg/response"
)

type createOrderRequest struct {
	EventID         string `json:"event_id,omitempty"`
	ExternalEventID string `json:"external_event_id,omitempty"`
	Quantity        int    `json:"quantity" validate:"required,gte=1,lte=10"`
	SessionID       string `json:"session_id,omitempty"`
}

func (req createOrderRequest) eventRef() (models.EventRef, bool) {
	switch {
	case req.EventID != "" && req.ExternalEventID == "":
		return models.LocalEventRef(req.EventID), true
	case req.EventID == "" && req.ExternalEventID != "":
		return models.ExternalEventRef(req.ExternalEventID), true
	default:
		return models.EventRef{}, false
	}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req createOrderRequest
	if !h.decode(w, r, &req) {
		return
	}

	ref, ok := req.eventRef()
	if !ok {
		response.Error(w, pkgErrors.NewHTTPError(http.StatusBadRequest, 400, "Exactly one of event_id and external_event_id must be set"))
		return
	}

	claims := claimsFrom(r.Context())
	out, err := h.checkoutSvc.Reserve(r.Context(), service.ReserveInput{
		EventRef:   ref,
		Quantity:   req.Quantity,
		BuyerID:    claims.Subject,
		BuyerEmail: claims.Subject,
		SessionID:  req.SessionID,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.Created(w, out)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	out, err := h.checkoutSvc.GetOrder(r.Context(), chi.URLParam(r, "id"), claims.Subject, claims.Role == service.RoleHost)
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, out)
}

func (h *Handler) RefundOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.checkoutSvc.RefundOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, o)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.checkoutSvc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, ev)
}

func (h *Handler) GetExternalEvent(w http.ResponseWriter, r *http.Request) {
	ev, err := h.checkoutSvc.GetExternalEvent(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	response.OK(w, ev)
}
