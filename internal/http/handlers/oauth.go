package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/common-repository/vatomi/internal/errors"
	"github.com/common-repository/vatomi/internal/http/session"
	"github.com/common-repository/vatomi/internal/models"
	logctx "github.com/common-repository/vatomi/internal/pkg/log"
	"github.com/common-repository/vatomi/internal/service"
)

// Тексты уведомлений на странице входа.
const (
	msgAuthFailed    = "Error: Authorization with Envato failed."
	msgNotConfigured = "Error: Envato login is not configured."
	msgNoAccount     = "Error: Unable to create an account for this Envato user."
)

// OAuthStart запоминает адрес возврата и уводит на страницу авторизации маркетплейса.
func (h *Handlers) OAuthStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	target := h.loginTarget(r)

	link, err := h.svc.AuthorizeURL(ctx, h.callbackURL)
	if err != nil {
		if errors.Is(err, service.ErrNotConfigured) {
			h.flashAndRedirect(w, r, models.Alert{Type: models.AlertError, Text: msgNotConfigured}, target)
			return
		}
		apierrors.WriteError(w, r, err)
		return
	}

	if err := h.sessions.SetRedirect(w, target); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	http.Redirect(w, r, link, http.StatusFound)
}

// loginTarget — адрес возврата после входа: локальный адрес или
// настроенный администратором PostLoginRedirect.
func (h *Handlers) loginTarget(r *http.Request) string {
	raw := strings.TrimSpace(r.URL.Query().Get("redirect_to"))
	if raw != "" {
		if st, err := h.svc.Settings(r.Context()); err == nil && raw == st.PostLoginRedirect {
			return raw
		}
	}

	return h.localTarget(raw, "/")
}

// OAuthCallback завершает OAuth: обмен кода, поиск или создание аккаунта,
// синхронизация, установка сессии и возврат на сохранённый адрес.
// Пользователь с уже подключённым маркетплейсом повторно код не обменивает.
func (h *Handlers) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	lg := logctx.From(ctx)

	target, err := h.sessions.PopRedirect(w, r)
	if err != nil {
		target = "/"
	}

	actor := session.ActorFrom(ctx)
	if ok, err := h.connected(r, actor); err == nil && ok {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		h.flashAndRedirect(w, r, models.Alert{Type: models.AlertError, Text: msgAuthFailed}, target)
		return
	}

	user, err := h.svc.CompleteOAuth(ctx, code)
	if err != nil {
		lg.Warn("oauth_callback_failed",
			slog.String("op", "handlers.OAuthCallback"),
			slog.String("err", err.Error()),
		)

		msg := msgAuthFailed
		switch {
		case errors.Is(err, service.ErrNotConfigured):
			msg = msgNotConfigured
		case errors.Is(err, service.ErrConflict):
			msg = msgNoAccount
		}
		h.flashAndRedirect(w, r, models.Alert{Type: models.AlertError, Text: msg}, target)
		return
	}

	if err := h.sessions.SignIn(w, r, user.ID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	lg.Info("oauth_signed_in", slog.String("user_id", user.ID.String()))
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handlers) flashAndRedirect(w http.ResponseWriter, r *http.Request, a models.Alert, target string) {
	if err := h.sessions.AddFlash(w, r, a); err != nil {
		logctx.From(r.Context()).Warn("flash_save_failed",
			slog.String("op", "handlers.flashAndRedirect"),
			slog.String("err", err.Error()),
		)
	}
	http.Redirect(w, r, target, http.StatusFound)
}
