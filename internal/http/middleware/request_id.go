package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-Id"

	// maxRequestIDLen — длиннее чужой id не принимаем, генерируем свой.
	maxRequestIDLen = 64
)

type requestIDKey struct{}

// RequestID обеспечивает наличие X-Request-Id. Входящий id берётся, если он
// короткий и печатный, иначе генерируется UUID. Id попадает в заголовки
// запроса и ответа и в контекст (RequestIDFrom).
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerRequestID)
			if !validRequestID(id) {
				id = uuid.NewString()
				r.Header.Set(headerRequestID, id)
			}
			w.Header().Set(headerRequestID, id)

			ctx := context.WithValue(r.Context(), requestIDKey{}, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDFrom возвращает id запроса из контекста или пустую строку.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func validRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for _, c := range id {
		if c < '!' || c > '~' {
			return false
		}
	}
	return true
}
