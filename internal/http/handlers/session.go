package handlers

import (
	"net/http"

	"github.com/google/uuid"

	apierrors "github.com/common-repository/vatomi/internal/errors"
	"github.com/common-repository/vatomi/internal/models"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	UserID uuid.UUID   `json:"user_id"`
	Login  string      `json:"login"`
	Role   models.Role `json:"role"`
}

type alertsResponse struct {
	Alerts []models.Alert `json:"alerts"`
}

// Login — вход локальным паролем (администраторы, пользователи с паролем).
func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeStrict(r, &in); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	user, err := h.svc.Login(r.Context(), in.Login, in.Password)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.sessions.SignIn(w, r, user.ID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{UserID: user.ID, Login: user.Login, Role: user.Role})
}

func (h *Handlers) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.SignOut(w, r); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Alerts отдаёт и сбрасывает одноразовые уведомления сессии.
func (h *Handlers) Alerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.sessions.Flashes(w, r)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, alertsResponse{Alerts: alerts})
}
