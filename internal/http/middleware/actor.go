package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	apierrors "github.com/common-repository/vatomi/internal/errors"
	"github.com/common-repository/vatomi/internal/http/session"
	"github.com/common-repository/vatomi/internal/models"
	logctx "github.com/common-repository/vatomi/internal/pkg/log"
	"github.com/common-repository/vatomi/internal/service"
)

// ActorResolver восстанавливает актора по пользователю сессии.
type ActorResolver func(ctx context.Context, userID uuid.UUID) (models.Actor, error)

// Actor загружает актора из cookie-сессии в контекст (session.ActorFrom).
// Сессия удалённого пользователя трактуется как анонимная.
func Actor(sm *session.Manager, resolve ActorResolver) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, ok := sm.UserID(r)
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			actor, err := resolve(r.Context(), uid)
			switch {
			case err == nil:
				ctx := logctx.WithUser(session.WithActor(r.Context(), actor), actor.UserID)
				r = r.WithContext(ctx)
			case errors.Is(err, service.ErrUnauthenticated):
			default:
				logctx.From(r.Context()).Error("actor_resolve_failed",
					slog.String("op", "middleware.Actor"),
					slog.String("err", err.Error()),
				)
				apierrors.WriteError(w, r, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireActor пропускает только аутентифицированные запросы.
func RequireActor() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if session.ActorFrom(r.Context()).Anonymous() {
				apierrors.WriteError(w, r, service.ErrUnauthenticated)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin пропускает только администраторов.
func RequireAdmin() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor := session.ActorFrom(r.Context())
			switch {
			case actor.Anonymous():
				apierrors.WriteError(w, r, service.ErrUnauthenticated)
			case actor.Role != models.RoleAdmin:
				apierrors.WriteError(w, r, service.ErrForbidden)
			default:
				next.ServeHTTP(w, r)
			}
		})
	}
}
