package middleware

import (
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	apierrors "github.com/common-repository/vatomi/internal/errors"
)

// idleWindow — сколько хранится лимитер клиента без запросов.
const idleWindow = 5 * time.Minute

// RateLimiter ограничивает частоту запросов по IP клиента.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	mu      sync.Mutex
	clients map[string]*clientLimiter
	now     func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter создаёт лимитер на requestsPerMinute запросов в минуту.
// requestsPerMinute <= 0 отключает ограничение (возвращается nil).
func NewRateLimiter(requestsPerMinute, burst int) *RateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}

	if burst < 1 {
		burst = requestsPerMinute / 10
	}
	if burst < 1 {
		burst = 1
	}

	return &RateLimiter{
		limit:   rate.Limit(float64(requestsPerMinute) / 60.0),
		burst:   burst,
		clients: make(map[string]*clientLimiter),
		now:     time.Now,
	}
}

// Middleware отвечает 429, когда клиент исчерпал бюджет.
// nil-лимитер пропускает всё.
func (rl *RateLimiter) Middleware() Middleware {
	return func(next http.Handler) http.Handler {
		if rl == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !rl.get(ClientIP(r)).Allow() {
				w.Header().Set("Retry-After", "60")
				apierrors.WriteError(w, r, apierrors.ErrRateLimited)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (rl *RateLimiter) get(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if entry, ok := rl.clients[key]; ok {
		entry.lastSeen = now
		return entry.limiter
	}

	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.clients[key] = &clientLimiter{limiter: limiter, lastSeen: now}
	rl.cleanupLocked(now)

	return limiter
}

func (rl *RateLimiter) cleanupLocked(now time.Time) {
	for key, entry := range rl.clients {
		if now.Sub(entry.lastSeen) > idleWindow {
			delete(rl.clients, key)
		}
	}
}
