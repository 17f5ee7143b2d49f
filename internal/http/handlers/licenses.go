package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	apierrors "github.com/common-repository/vatomi/internal/errors"
	"github.com/common-repository/vatomi/internal/http/session"
	"github.com/common-repository/vatomi/internal/models"
	logctx "github.com/common-repository/vatomi/internal/pkg/log"
	"github.com/common-repository/vatomi/internal/service"
)

const (
	actionActivate   = "activate"
	actionDeactivate = "deactivate"
	// queryActionToken — подпись ссылки действия (session.Manager.ActionToken).
	queryActionToken = "vatomi_token"

	msgActionExpired = "Error: The link has expired. Please try again."
)

// actionTarget — объект подписи: товар и код (деактивация) или сайт (активация).
func actionTarget(itemID, ref string) string {
	return itemID + ":" + ref
}

// domainRejection — ошибки, о которых пользователю сообщает уведомление,
// а не статус ответа.
func domainRejection(err error) bool {
	return errors.Is(err, service.ErrValidation) ||
		errors.Is(err, service.ErrForbidden) ||
		errors.Is(err, service.ErrNotFound) ||
		errors.Is(err, service.ErrConflict)
}

// LicenseAction — активация/деактивация лицензии по ссылке
// (?vatomi_action=activate|deactivate). Анонимный пользователь сначала
// проходит OAuth и возвращается на ту же ссылку. Ссылка должна нести
// подпись vatomi_token, выданную этому пользователю; активация с кодом
// без подписи открывает форму выбора лицензии.
func (h *Handlers) LicenseAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	actor := session.ActorFrom(ctx)

	if actor.Anonymous() {
		http.Redirect(w, r, oauthStartURL(r.URL.RequestURI()), http.StatusFound)
		return
	}

	redirect := safeTarget(q.Get("vatomi_redirect"), "")
	itemID := q.Get("vatomi_item_id")
	token := q.Get(queryActionToken)

	var (
		out models.Outcome
		err error
	)
	switch q.Get("vatomi_action") {
	case actionActivate:
		site, code := q.Get("vatomi_site"), q.Get("vatomi_license")
		if code != "" {
			if verr := h.sessions.VerifyAction(token, actor.UserID, actionActivate, actionTarget(itemID, site)); verr != nil {
				logctx.From(ctx).Warn("license_action_unsigned",
					slog.String("op", "handlers.LicenseAction"),
					slog.String("action", actionActivate),
					slog.String("err", verr.Error()),
				)
				code = ""
			}
		}

		out, err = h.svc.Activate(ctx, actor, service.ActivateRequest{
			Site:     site,
			ItemID:   itemID,
			Code:     code,
			Redirect: redirect,
		})
		if err == nil && out.Alert == nil && out.Redirect == "" {
			// Без кода и без активной лицензии на сайте — форма выбора лицензии.
			http.Redirect(w, r, "/licenses/activation?"+url.Values{
				"vatomi_item_id":  {itemID},
				"vatomi_site":     {site},
				"vatomi_redirect": {redirect},
			}.Encode(), http.StatusFound)
			return
		}
	case actionDeactivate:
		code := q.Get("vatomi_license")
		if verr := h.sessions.VerifyAction(token, actor.UserID, actionDeactivate, actionTarget(itemID, code)); verr != nil {
			logctx.From(ctx).Warn("license_action_unsigned",
				slog.String("op", "handlers.LicenseAction"),
				slog.String("action", actionDeactivate),
				slog.String("err", verr.Error()),
			)
			out = models.Outcome{Alert: &models.Alert{Type: models.AlertError, Text: msgActionExpired}}
			break
		}

		out, err = h.svc.Deactivate(ctx, actor, service.DeactivateRequest{
			Code:     code,
			ItemID:   itemID,
			Redirect: redirect,
		})
	default:
		apierrors.WriteError(w, r, apierrors.ErrBadRequest)
		return
	}

	if err != nil && !domainRejection(err) {
		apierrors.WriteError(w, r, err)
		return
	}

	if out.Alert != nil {
		if ferr := h.sessions.AddFlash(w, r, *out.Alert); ferr != nil {
			logctx.From(ctx).Warn("flash_save_failed",
				slog.String("op", "handlers.LicenseAction"),
				slog.String("err", ferr.Error()),
			)
		}
	}

	target := out.Redirect
	if target == "" {
		target = h.localTarget(r.Referer(), "/embed/licenses")
	}

	http.Redirect(w, r, target, http.StatusFound)
}

type refreshResponse struct {
	Success bool `json:"success"`
}

// RefreshData — принудительная синхронизация покупок. Администратор может
// указать чужой user_id. С redirect_to отвечает редиректом (форма embed).
func (h *Handlers) RefreshData(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor := session.ActorFrom(ctx)

	userID := uuid.Nil
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			apierrors.WriteError(w, r, apierrors.ErrBadRequest)
			return
		}
		userID = id
	}

	if err := h.svc.RefreshData(ctx, actor, userID); err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	if target := h.localTarget(r.URL.Query().Get("redirect_to"), ""); target != "" {
		http.Redirect(w, r, target, http.StatusSeeOther)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{Success: true})
}
