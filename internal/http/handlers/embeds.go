package handlers

import (
	"log/slog"
	"net/http"
	"net/url"

	apierrors "github.com/common-repository/vatomi/internal/errors"
	"github.com/common-repository/vatomi/internal/http/session"
	"github.com/common-repository/vatomi/internal/models"
	logctx "github.com/common-repository/vatomi/internal/pkg/log"
	"github.com/common-repository/vatomi/internal/service"
)

type loginButtonView struct {
	Link  string
	Class string
}

type licenseRow struct {
	models.LicenseView
	DeactivateURL string
}

type licensesView struct {
	Class    string
	Page     string
	Alerts   []models.Alert
	Licenses []licenseRow
}

type activationView struct {
	Class    string
	Page     string
	Redirect string
	ListURL  string
	Token    string
	Alerts   []models.Alert
	Form     *service.ActivationForm
}

// oauthStartURL — ссылка на начало OAuth с адресом возврата.
func oauthStartURL(redirect string) string {
	return "/oauth/start?" + url.Values{"redirect_to": {redirect}}.Encode()
}

// connected — есть ли у актора сессия и сохранённые токены маркетплейса.
func (h *Handlers) connected(r *http.Request, actor models.Actor) (bool, error) {
	if actor.Anonymous() {
		return false, nil
	}
	return h.svc.Connected(r.Context(), actor.UserID)
}

// flashes забирает уведомления сессии; сбой чтения не мешает отрисовке.
func (h *Handlers) flashes(w http.ResponseWriter, r *http.Request) []models.Alert {
	alerts, err := h.sessions.Flashes(w, r)
	if err != nil {
		logctx.From(r.Context()).Warn("flashes_read_failed",
			slog.String("op", "handlers.flashes"),
			slog.String("err", err.Error()),
		)
		return nil
	}
	return alerts
}

// LoginButton — кнопка «Login With Envato». Пустой фрагмент, если
// пользователь уже вошёл и подключил маркетплейс.
func (h *Handlers) LoginButton(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	settings, err := h.svc.Settings(ctx)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	redirect := h.backTarget(r, q.Get("redirect_url"))
	if settings.PostLoginRedirect != "" {
		redirect = settings.PostLoginRedirect
	}

	ok, err := h.connected(r, session.ActorFrom(ctx))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if ok {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		return
	}

	renderHTML(w, r, "login-button", loginButtonView{Link: oauthStartURL(redirect), Class: q.Get("class")})
}

// Licenses — список лицензий пользователя с кнопками деактивации.
// Без подключённого маркетплейса показывается кнопка входа.
func (h *Handlers) Licenses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	actor := session.ActorFrom(ctx)
	page := h.backTarget(r, q.Get("redirect_url"))

	ok, err := h.connected(r, actor)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}
	if !ok {
		renderHTML(w, r, "login-button", loginButtonView{Link: oauthStartURL(page), Class: q.Get("class")})
		return
	}

	list, err := h.svc.ListForUser(ctx, actor, actor.UserID)
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	rows := make([]licenseRow, 0, len(list))
	for _, l := range list {
		token, err := h.sessions.ActionToken(actor.UserID, actionDeactivate, actionTarget(l.ItemID, l.Code))
		if err != nil {
			apierrors.WriteError(w, r, err)
			return
		}

		rows = append(rows, licenseRow{
			LicenseView: l,
			DeactivateURL: "/licenses/action?" + url.Values{
				"vatomi_action":   {actionDeactivate},
				"vatomi_item_id":  {l.ItemID},
				"vatomi_license":  {l.Code},
				"vatomi_redirect": {page},
				queryActionToken:  {token},
			}.Encode(),
		})
	}

	renderHTML(w, r, "licenses", licensesView{
		Class:    q.Get("class"),
		Page:     page,
		Alerts:   h.flashes(w, r),
		Licenses: rows,
	})
}

// Activation — форма выбора лицензии для активации на сайте.
func (h *Handlers) Activation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	actor := session.ActorFrom(ctx)

	if actor.Anonymous() {
		http.Redirect(w, r, oauthStartURL(r.URL.RequestURI()), http.StatusFound)
		return
	}

	form, err := h.svc.ActivationCandidates(ctx, actor, q.Get("vatomi_item_id"), q.Get("vatomi_site"))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	token, err := h.sessions.ActionToken(actor.UserID, actionActivate, actionTarget(form.ItemID, form.Site))
	if err != nil {
		apierrors.WriteError(w, r, err)
		return
	}

	renderHTML(w, r, "activation", activationView{
		Class:    q.Get("class"),
		Page:     r.URL.RequestURI(),
		Redirect: safeTarget(q.Get("vatomi_redirect"), ""),
		ListURL:  "/embed/licenses",
		Token:    token,
		Alerts:   h.flashes(w, r),
		Form:     form,
	})
}
