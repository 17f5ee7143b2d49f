package handlers

import (
	"net/http"

	apierrors "github.com/common-repository/vatomi/internal/errors"
	"github.com/common-repository/vatomi/internal/http/session"
)

type validateTicketRequest struct {
	ProductID int64 `json:"product_id"`
}

type validateTicketResponse struct {
	Valid bool `json:"valid"`
}

// SupportProducts — продукты, по которым актор может открыть тикет.
func (h *Handlers) SupportProducts(w http.ResponseWriter, r *http.Request) {
	gates, err := h.svc.ListProducts(r.Context(), session.ActorFrom(r.Context()))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, gates)
}

// ValidateTicket — серверная проверка выбранного продукта перед созданием тикета.
// Отказ приходит как 400 с текстом для пользователя.
func (h *Handlers) ValidateTicket(w http.ResponseWriter, r *http.Request) {
	var in validateTicketRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.svc.ValidateSubmission(r.Context(), session.ActorFrom(r.Context()), in.ProductID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, validateTicketResponse{Valid: true})
}
