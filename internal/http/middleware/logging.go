package middleware

import (
	"log/slog"
	"net/http"
	"time"

	logctx "github.com/common-repository/vatomi/internal/pkg/log"
)

// Logging кладёт в контекст логгер запроса (с request_id) и пишет
// итоговую запись "http". Ответы 5xx пишутся с уровнем error.
func Logging(l *slog.Logger) Middleware {
	if l == nil {
		l = slog.Default()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqLogger := l
			if rid := r.Header.Get(headerRequestID); rid != "" {
				reqLogger = reqLogger.With(slog.String("request_id", rid))
			}

			r = r.WithContext(logctx.Into(r.Context(), reqLogger))

			sw := newStatusWriter(w)
			start := time.Now()

			next.ServeHTTP(sw, r)

			status := sw.status
			if status == 0 {
				status = http.StatusOK
			}

			level := slog.LevelInfo
			if status >= http.StatusInternalServerError {
				level = slog.LevelError
			}

			logctx.From(r.Context()).LogAttrs(r.Context(), level, "http",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", status),
				slog.Duration("dur", time.Since(start)),
				slog.Int("bytes", sw.count),
				slog.String("ip", ClientIP(r)),
			)
		})
	}
}
