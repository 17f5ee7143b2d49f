package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	apierrors "github.com/common-repository/vatomi/internal/errors"
)

// Timeout навешивает deadline на запрос, если его ещё нет.
// Если обработчик упёрся в deadline и ничего не записал, клиент получает 504.
// Значение <=0 делает мидлвар no-op.
func Timeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		if d <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := r.Context().Deadline(); ok {
				next.ServeHTTP(w, r)
				return
			}

			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()

			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r.WithContext(ctx))

			if !sw.written() && errors.Is(ctx.Err(), context.DeadlineExceeded) {
				apierrors.WriteError(sw, r, context.DeadlineExceeded)
			}
		})
	}
}
