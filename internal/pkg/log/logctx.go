// log — логгер запроса в context.Context.
//
// Транспорт кладёт в контекст логгер с request_id, а после загрузки
// сессии дополняет его user_id; сервис и клиент маркетплейса берут
// логгер через From и не знают, откуда он пришёл.
package log

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

type ctxKey struct{}

// Into кладёт логгер в контекст.
func Into(ctx context.Context, l *slog.Logger) context.Context {
	if l == nil {
		return ctx
	}
	return context.WithValue(ctx, ctxKey{}, l)
}

// From достаёт логгер из контекста (или возвращает slog.Default()).
func From(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return slog.Default()
	}
	if l, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && l != nil {
		return l
	}

	return slog.Default()
}

// With дополняет логгер контекста атрибутами и кладёт результат обратно.
func With(ctx context.Context, args ...any) context.Context {
	return Into(ctx, From(ctx).With(args...))
}

// WithUser добавляет к логгеру user_id вошедшего пользователя.
func WithUser(ctx context.Context, userID uuid.UUID) context.Context {
	if userID == uuid.Nil {
		return ctx
	}
	return With(ctx, slog.String("user_id", userID.String()))
}
