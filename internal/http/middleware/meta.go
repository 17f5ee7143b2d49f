package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/common-repository/vatomi/internal/pkg/redact"
	"github.com/common-repository/vatomi/internal/service"
)

// ClientIP — адрес клиента: первый X-Forwarded-For, затем X-Real-Ip, затем RemoteAddr.
func ClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if ip := strings.TrimSpace(r.Header.Get("X-Real-Ip")); ip != "" {
		return ip
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}

	return host
}

// RequestMeta кладёт в контекст IP, User-Agent и URL запроса (без секретов) для журнала действий.
func RequestMeta() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := service.WithRequestMeta(r.Context(), service.RequestMeta{
				IP:        ClientIP(r),
				UserAgent: r.UserAgent(),
				URL:       redact.RequestURI(r.URL),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
