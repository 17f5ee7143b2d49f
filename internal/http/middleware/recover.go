package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"

	apierrors "github.com/common-repository/vatomi/internal/errors"
	logctx "github.com/common-repository/vatomi/internal/pkg/log"
)

var errPanic = errors.New("panic")

// Recover превращает panic обработчика в 500/internal. Причина и стек
// уходят только в лог. http.ErrAbortHandler пробрасывается дальше.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if err, ok := rec.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(rec)
				}

				logctx.From(r.Context()).Error("handler_panic",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", RequestIDFrom(r.Context())),
					slog.Any("reason", rec),
					slog.String("stack", string(debug.Stack())),
				)
				apierrors.WriteError(w, r, errPanic)
			}()
			next.ServeHTTP(w, r)
		})
	}
}
