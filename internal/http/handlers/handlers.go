package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/common-repository/vatomi/internal/errors"
	"github.com/common-repository/vatomi/internal/http/session"
	"github.com/common-repository/vatomi/internal/service"
)

// Handlers агрегирует зависимости HTTP-слоя.
type Handlers struct {
	svc      *service.Service
	sessions *session.Manager
	// callbackURL — redirect_uri OAuth-приложения.
	callbackURL string
}

func New(svc *service.Service, sm *session.Manager, callbackURL string) *Handlers {
	return &Handlers{svc: svc, sessions: sm, callbackURL: callbackURL}
}

// writeJSON — единый ответ JSON с нужным Content-Type.
// Ошибки выводим через apierrors.WriteError.
func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

// decodeStrict — строгий JSON-декодер: запрещаем неизвестные поля.
func decodeStrict(r *http.Request, value any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(value); err != nil {
		return errors.Join(apierrors.ErrBadRequest, err)
	}
	return nil
}

// int64Param — положительный числовой параметр пути.
func int64Param(r *http.Request, name string) (int64, error) {
	v, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || v <= 0 {
		return 0, apierrors.ErrBadRequest
	}
	return v, nil
}

// pageParams — limit/offset из строки запроса; некорректные значения игнорируются.
func pageParams(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, _ = strconv.Atoi(q.Get("limit"))
	offset, _ = strconv.Atoi(q.Get("offset"))
	if limit < 0 {
		limit = 0
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// safeTarget допускает только относительный путь или абсолютный http(s)-адрес.
// Подходит для vatomi_redirect: активация возвращает на внешний сайт.
func safeTarget(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	if relativePath(raw) {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fallback
	}

	return raw
}

// localTarget — как safeTarget, но абсолютный адрес принимается только
// на хосте callback-адреса сервиса.
func (h *Handlers) localTarget(raw, fallback string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}

	if relativePath(raw) {
		return raw
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fallback
	}

	cb, err := url.Parse(h.callbackURL)
	if err != nil || cb.Host == "" || !strings.EqualFold(cb.Host, u.Host) {
		return fallback
	}

	return raw
}

// relativePath — путь от корня без схемы и хоста ("//x" и "/\x" браузер
// считает адресом другого хоста).
func relativePath(raw string) bool {
	return strings.HasPrefix(raw, "/") &&
		!strings.HasPrefix(raw, "//") &&
		!strings.HasPrefix(raw, "/\\")
}

// backTarget — адрес возврата: явный параметр, иначе Referer, иначе корень.
func (h *Handlers) backTarget(r *http.Request, explicit string) string {
	return h.localTarget(explicit, h.localTarget(r.Referer(), "/"))
}
