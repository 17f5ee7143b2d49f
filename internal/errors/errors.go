// errors стандартизирует ответы об ошибках HTTP-слоя.
// На вход он принимает ошибку сервисного слоя (сентинелы internal/service),
// а на выход даёт:
//   - корректный HTTP-статус;
//   - краткое безопасное message без утечки деталей.
//
// Источник истинности по маппингу: комментарии к сентинелам service.
// Ошибки REST-фасада (*service.FacadeError) сюда не попадают:
// у фасада собственный конверт ответа.
package errors

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/common-repository/vatomi/internal/service"
)

// Нестандартный код часто используемый для "клиент закрыл соединение".
const StatusClientClosedRequest = 499

// ErrRateLimited — локальная ошибка транспорта: превышен лимит запросов.
var ErrRateLimited = errors.New("rate limited")

// ErrBadRequest — тело или параметры запроса не разобраны.
var ErrBadRequest = errors.New("bad request")

// APIError — единый формат для фронта.
// Code — короткий стабильный код для машиночитаемой обработки на FE.
// Message — безопасное человекочитаемое описание.
// RequestID — прокидывается из X-Request-Id, если есть (для трассировки).
type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

// ErrorResponse — корневой объект в ответе.
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// ToHTTP конвертирует ошибку сервиса в HTTP-статус и унифицированный ответ.
//
// Поведение:
//   - err == nil - это программная ошибка вызова: возвращаем 500/internal,
//     чтобы не послать "200 OK" с телом ошибки и не маскировать баг.
//   - *service.ValidationError - 400 с текстом ошибки (он безопасен и
//     предназначен пользователю).
//   - сентинелы сервиса - по таблице baseFromService().
//   - прочее - 500/internal (без утечки деталей).
func ToHTTP(err error) (int, ErrorResponse) {
	if err == nil {
		return http.StatusInternalServerError, ErrorResponse{
			Error: APIError{
				Code:    "internal",
				Message: "internal error",
			},
		}
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) && verr.Message != "" {
		return http.StatusBadRequest, ErrorResponse{
			Error: APIError{
				Code:    "invalid_argument",
				Message: verr.Message,
			},
		}
	}

	httpStatus, code, msg := baseFromService(err)
	return httpStatus, ErrorResponse{
		Error: APIError{
			Code:    code,
			Message: msg,
		},
	}
}

// WriteError — хелпер для HTTP-хендлеров.
// Пишет корректный статус/тело, добавляет request_id из заголовка, если он есть.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status, resp := ToHTTP(err)

	if rid := r.Header.Get("X-Request-Id"); rid != "" {
		resp.Error.RequestID = rid
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(resp)
}

// baseFromService — базовый маппинг ошибок сервиса -> HTTP/FE-код/сообщение:
//   - ErrValidation, ErrBadRequest -> 400
//   - ErrUnauthenticated -> 401
//   - ErrInvalidCredentials -> 401 (отдельный код для формы входа)
//   - ErrForbidden -> 403
//   - ErrNotFound -> 404
//   - ErrConflict -> 409
//   - ErrRateLimited -> 429
//   - context.Canceled -> 499 (клиент закрыл соединение)
//   - ErrMarketplace -> 502 (апстрим ответил ошибкой)
//   - ErrNotConfigured -> 503 (не заданы ключи интеграции)
//   - context.DeadlineExceeded -> 504
//   - прочее -> 500/internal
func baseFromService(err error) (int, string, string) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "invalid_argument", "invalid argument"
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid_credentials", "invalid credentials"
	case errors.Is(err, service.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated", "unauthenticated"
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden, "permission_denied", "permission denied"
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound, "not_found", "not found"
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict, "conflict", "conflict"
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, "resource_exhausted", "too many requests"
	case errors.Is(err, context.Canceled):
		return StatusClientClosedRequest, "canceled", "canceled"
	case errors.Is(err, service.ErrMarketplace):
		return http.StatusBadGateway, "marketplace_error", "marketplace error"
	case errors.Is(err, service.ErrNotConfigured):
		return http.StatusServiceUnavailable, "not_configured", "marketplace is not configured"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "deadline_exceeded", "deadline exceeded"
	default:
		return http.StatusInternalServerError, "internal", "internal error"
	}
}
