package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/common-repository/vatomi/internal/models"
)

// carry переносит Set-Cookie ответа в следующий запрос.
func carry(rr *httptest.ResponseRecorder, target string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for _, c := range rr.Result().Cookies() {
		if c.MaxAge < 0 {
			continue
		}
		req.AddCookie(c)
	}

	return req
}

func TestSignInSignOut(t *testing.T) {
	m := New("0123456789abcdef0123456789abcdef", time.Hour, false)
	uid := uuid.New()

	rr := httptest.NewRecorder()
	require.NoError(t, m.SignIn(rr, httptest.NewRequest(http.MethodGet, "/", nil), uid))

	got, ok := m.UserID(carry(rr, "/"))
	require.True(t, ok)
	require.Equal(t, uid, got)

	out := httptest.NewRecorder()
	require.NoError(t, m.SignOut(out, carry(rr, "/")))

	_, ok = m.UserID(carry(out, "/"))
	require.False(t, ok)
}

func TestUserID_ForeignCookieIsAnonymous(t *testing.T) {
	m := New("0123456789abcdef0123456789abcdef", time.Hour, false)
	other := New("fedcba9876543210fedcba9876543210", time.Hour, false)

	rr := httptest.NewRecorder()
	require.NoError(t, other.SignIn(rr, httptest.NewRequest(http.MethodGet, "/", nil), uuid.New()))

	_, ok := m.UserID(carry(rr, "/"))
	require.False(t, ok)
}

func TestFlashes_OneShot(t *testing.T) {
	m := New("0123456789abcdef0123456789abcdef", time.Hour, false)

	rr := httptest.NewRecorder()
	alert := models.Alert{Type: models.AlertSuccess, Text: "Activated https://a.example (c1)."}
	require.NoError(t, m.AddFlash(rr, httptest.NewRequest(http.MethodGet, "/", nil), alert))

	first := httptest.NewRecorder()
	got, err := m.Flashes(first, carry(rr, "/"))
	require.NoError(t, err)
	require.Equal(t, []models.Alert{alert}, got)

	second := httptest.NewRecorder()
	got, err = m.Flashes(second, carry(first, "/"))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRedirect_RoundTripAndExpiry(t *testing.T) {
	m := New("0123456789abcdef0123456789abcdef", time.Hour, false)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	rr := httptest.NewRecorder()
	require.NoError(t, m.SetRedirect(rr, "https://site.example/licenses"))

	target, err := m.PopRedirect(httptest.NewRecorder(), carry(rr, "/oauth/callback"))
	require.NoError(t, err)
	require.Equal(t, "https://site.example/licenses", target)

	m.now = func() time.Time { return now.Add(RedirectTTL + time.Minute) }
	_, err = m.PopRedirect(httptest.NewRecorder(), carry(rr, "/oauth/callback"))
	require.True(t, errors.Is(err, ErrInvalidRedirect))
}

func TestRedirect_Missing(t *testing.T) {
	m := New("0123456789abcdef0123456789abcdef", time.Hour, false)

	_, err := m.PopRedirect(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, errors.Is(err, ErrInvalidRedirect))
}

func TestActionToken(t *testing.T) {
	m := New("0123456789abcdef0123456789abcdef", time.Hour, false)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }
	uid := uuid.New()

	tok, err := m.ActionToken(uid, "deactivate", "7:CODE-1")
	require.NoError(t, err)
	require.NoError(t, m.VerifyAction(tok, uid, "deactivate", "7:CODE-1"))

	cases := []struct {
		name   string
		token  string
		user   uuid.UUID
		action string
		target string
	}{
		{name: "empty", token: "", user: uid, action: "deactivate", target: "7:CODE-1"},
		{name: "other_user", token: tok, user: uuid.New(), action: "deactivate", target: "7:CODE-1"},
		{name: "other_action", token: tok, user: uid, action: "activate", target: "7:CODE-1"},
		{name: "other_target", token: tok, user: uid, action: "deactivate", target: "7:CODE-2"},
		{name: "garbage", token: "not-a-jwt", user: uid, action: "deactivate", target: "7:CODE-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorIs(t, m.VerifyAction(tc.token, tc.user, tc.action, tc.target), ErrInvalidAction)
		})
	}

	foreign := New("fedcba9876543210fedcba9876543210", time.Hour, false)
	forged, err := foreign.ActionToken(uid, "deactivate", "7:CODE-1")
	require.NoError(t, err)
	require.ErrorIs(t, m.VerifyAction(forged, uid, "deactivate", "7:CODE-1"), ErrInvalidAction)

	m.now = func() time.Time { return now.Add(ActionTTL + time.Minute) }
	require.ErrorIs(t, m.VerifyAction(tok, uid, "deactivate", "7:CODE-1"), ErrInvalidAction)
}

func TestActorContext(t *testing.T) {
	require.True(t, ActorFrom(context.Background()).Anonymous())

	a := models.Actor{UserID: uuid.New(), Role: models.RoleAdmin}
	require.Equal(t, a, ActorFrom(WithActor(context.Background(), a)))
}
