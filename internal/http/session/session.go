// session — cookie-сессии пользователей, одноразовые уведомления (flash)
// и подписанная cookie с адресом возврата после OAuth.
package session

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"github.com/common-repository/vatomi/internal/models"
)

const (
	sessionName    = "vatomi_session"
	redirectCookie = "vatomi_redirect"
	userIDKey      = "uid"
	// RedirectTTL — время жизни cookie с адресом возврата.
	RedirectTTL = 30 * time.Minute
	// ActionTTL — время жизни подписи ссылки активации/деактивации.
	ActionTTL = 12 * time.Hour
)

var (
	// ErrInvalidRedirect — cookie возврата отсутствует, истекла или подделана.
	ErrInvalidRedirect = errors.New("invalid redirect cookie")
	// ErrInvalidAction — подпись ссылки действия отсутствует, истекла,
	// выдана другому пользователю или для другого действия.
	ErrInvalidAction = errors.New("invalid action token")
)

func init() {
	gob.Register(models.Alert{})
}

// Manager — доступ к сессии запроса.
type Manager struct {
	store  *sessions.CookieStore
	secret []byte
	secure bool
	now    func() time.Time
}

// New создаёт менеджер сессий с ключом подписи secret.
func New(secret string, maxAge time.Duration, secure bool) *Manager {
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(maxAge.Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		store:  store,
		secret: []byte(secret),
		secure: secure,
		now:    time.Now,
	}
}

// UserID возвращает пользователя сессии; ok=false для анонимного запроса.
// Битая или чужая cookie трактуется как отсутствие сессии.
func (m *Manager) UserID(r *http.Request) (uuid.UUID, bool) {
	sess, err := m.store.Get(r, sessionName)
	if err != nil {
		return uuid.Nil, false
	}

	raw, _ := sess.Values[userIDKey].(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}

	return id, true
}

// SignIn привязывает сессию к пользователю.
func (m *Manager) SignIn(w http.ResponseWriter, r *http.Request, userID uuid.UUID) error {
	const op = "session.SignIn"

	sess, _ := m.store.Get(r, sessionName)
	sess.Values[userIDKey] = userID.String()
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SignOut завершает сессию.
func (m *Manager) SignOut(w http.ResponseWriter, r *http.Request) error {
	const op = "session.SignOut"

	sess, _ := m.store.Get(r, sessionName)
	delete(sess.Values, userIDKey)
	sess.Options.MaxAge = -1
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// AddFlash сохраняет уведомление до следующего запроса.
func (m *Manager) AddFlash(w http.ResponseWriter, r *http.Request, a models.Alert) error {
	const op = "session.AddFlash"

	sess, _ := m.store.Get(r, sessionName)
	sess.AddFlash(a)
	if err := sess.Save(r, w); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// Flashes забирает накопленные уведомления; повторный вызов вернёт пустой список.
func (m *Manager) Flashes(w http.ResponseWriter, r *http.Request) ([]models.Alert, error) {
	const op = "session.Flashes"

	sess, _ := m.store.Get(r, sessionName)
	raw := sess.Flashes()
	out := make([]models.Alert, 0, len(raw))
	for _, v := range raw {
		if a, ok := v.(models.Alert); ok {
			out = append(out, a)
		}
	}

	if len(raw) == 0 {
		return out, nil
	}

	if err := sess.Save(r, w); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

type redirectClaims struct {
	Target string `json:"to"`
	jwt.RegisteredClaims
}

// SetRedirect запоминает адрес возврата после OAuth на RedirectTTL.
func (m *Manager) SetRedirect(w http.ResponseWriter, target string) error {
	const op = "session.SetRedirect"

	now := m.now()
	claims := redirectClaims{
		Target: target,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(RedirectTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     redirectCookie,
		Value:    signed,
		Path:     "/",
		MaxAge:   int(RedirectTTL.Seconds()),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	return nil
}

// PopRedirect читает и сразу удаляет адрес возврата.
func (m *Manager) PopRedirect(w http.ResponseWriter, r *http.Request) (string, error) {
	const op = "session.PopRedirect"

	c, err := r.Cookie(redirectCookie)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidRedirect)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     redirectCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})

	token, err := jwt.ParseWithClaims(c.Value, &redirectClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidRedirect)
	}

	claims, ok := token.Claims.(*redirectClaims)
	if !ok || !token.Valid || claims.Target == "" {
		return "", fmt.Errorf("%s: %w", op, ErrInvalidRedirect)
	}

	return claims.Target, nil
}

type actionClaims struct {
	Action string `json:"act"`
	Target string `json:"tgt"`
	jwt.RegisteredClaims
}

// ActionToken подписывает действие action над target для пользователя userID.
// Подпись кладётся в ссылку и проверяется VerifyAction.
func (m *Manager) ActionToken(userID uuid.UUID, action, target string) (string, error) {
	const op = "session.ActionToken"

	now := m.now()
	claims := actionClaims{
		Action: action,
		Target: target,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ActionTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return signed, nil
}

// VerifyAction проверяет подпись ссылки действия.
func (m *Manager) VerifyAction(token string, userID uuid.UUID, action, target string) error {
	const op = "session.VerifyAction"

	if token == "" {
		return fmt.Errorf("%s: %w", op, ErrInvalidAction)
	}

	parsed, err := jwt.ParseWithClaims(token, &actionClaims{},
		func(t *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
		jwt.WithSubject(userID.String()),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, ErrInvalidAction)
	}

	claims, ok := parsed.Claims.(*actionClaims)
	if !ok || !parsed.Valid || claims.Action != action || claims.Target != target {
		return fmt.Errorf("%s: %w", op, ErrInvalidAction)
	}

	return nil
}

type actorKey struct{}

// WithActor кладёт актора запроса в контекст.
func WithActor(ctx context.Context, a models.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFrom достаёт актора из контекста; без сессии — анонимный актор.
func ActorFrom(ctx context.Context) models.Actor {
	a, _ := ctx.Value(actorKey{}).(models.Actor)
	return a
}
