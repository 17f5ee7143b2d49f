package marketplace

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotFound — в ответе нет ожидаемых данных (товар, ссылка, профиль).
	ErrNotFound = errors.New("marketplace: not found")
	// ErrInvalidPurchaseCode — код покупки не подтверждён маркетплейсом.
	ErrInvalidPurchaseCode = errors.New("marketplace: invalid purchase code")
	// ErrBadAccessToken — обмен кода не вернул access_token.
	ErrBadAccessToken = errors.New("Bad access token.")
	// ErrBadRefreshToken — обмен кода не вернул refresh_token.
	ErrBadRefreshToken = errors.New("Bad refresh token.")
)

// Error — запись в журнале ошибок сессии. Сохраняется для показа
// пользователю (баннер на странице входа) и для журнала действий.
type Error struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// TransportError — запрос не дошёл до маркетплейса или ответ не читается.
type TransportError struct {
	Endpoint string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("marketplace %s: transport: %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// APIError — маркетплейс ответил ошибкой (статус >= 400 или поле error в теле).
type APIError struct {
	Endpoint string
	Status   int
	Code     string
	Message  string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("marketplace %s: %d %s: %s", e.Endpoint, e.Status, e.Code, e.Message)
	}

	return fmt.Sprintf("marketplace %s: %d: %s", e.Endpoint, e.Status, e.Message)
}

// Is позволяет сравнивать 404 с ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}
