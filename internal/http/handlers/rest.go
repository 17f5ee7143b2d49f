package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/common-repository/vatomi/internal/errors"
	"github.com/common-repository/vatomi/internal/models"
	logctx "github.com/common-repository/vatomi/internal/pkg/log"
	"github.com/common-repository/vatomi/internal/pkg/redact"
	"github.com/common-repository/vatomi/internal/service"
)

// facadeOK — успешный конверт REST-фасада.
type facadeOK struct {
	Success  bool `json:"success"`
	Response any  `json:"response"`
}

// facadeFail — конверт ошибки REST-фасада; отдаётся со статусом 401.
type facadeFail struct {
	Error     bool   `json:"error"`
	Success   bool   `json:"success"`
	ErrorCode string `json:"error_code"`
	Response  string `json:"response"`
}

// facade пишет ответ фасада и фиксирует вызов в журнале (категория Rest).
// Ошибки, не относящиеся к фасаду (хранилище, отмена), уходят в общий формат.
func (h *Handlers) facade(w http.ResponseWriter, r *http.Request, response any, err error) {
	ctx := r.Context()
	path := strings.TrimPrefix(redact.RequestURI(r.URL), "/")

	if err == nil {
		h.svc.Audit(ctx, path, response, models.CategoryRest, models.AuditLog)
		writeJSON(w, http.StatusOK, facadeOK{Success: true, Response: response})
		return
	}

	var ferr *service.FacadeError
	if errors.As(err, &ferr) {
		h.svc.Audit(ctx, path, ferr.Message, models.CategoryRest, models.AuditError)
		writeJSON(w, http.StatusUnauthorized, facadeFail{
			Error:     true,
			Success:   false,
			ErrorCode: ferr.Code,
			Response:  ferr.Message,
		})
		return
	}

	logctx.From(ctx).Error("rest_call_failed",
		slog.String("op", "handlers.facade"),
		slog.String("path", path),
		slog.String("err", err.Error()),
	)
	apierrors.WriteError(w, r, err)
}

func (h *Handlers) ItemURL(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.ItemURL(r.Context(), chi.URLParam(r, "id"))
	h.facade(w, r, link, err)
}

func (h *Handlers) ItemVersion(w http.ResponseWriter, r *http.Request) {
	version, err := h.svc.ItemVersion(r.Context(), chi.URLParam(r, "id"))
	h.facade(w, r, version, err)
}

func (h *Handlers) ItemWPURL(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	link, err := h.svc.ItemWPURL(r.Context(), service.WPURLRequest{
		ItemID:       chi.URLParam(r, "id"),
		License:      q.Get("license"),
		Site:         q.Get("site"),
		AccessToken:  q.Get("access_token"),
		RefreshToken: q.Get("refresh_token"),
	})
	h.facade(w, r, link, err)
}

func (h *Handlers) CheckLicense(w http.ResponseWriter, r *http.Request) {
	sale, err := h.svc.CheckLicense(r.Context(), chi.URLParam(r, "license"))
	if err != nil {
		h.facade(w, r, nil, err)
		return
	}
	h.facade(w, r, sale, nil)
}
