package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/common-repository/vatomi/internal/models"
)

// Unit-тесты клиента маркетплейса поверх httptest.Server:
//   - обмен кода (успех, error_description, обе ошибки отсутствующих токенов);
//   - MaybeRefresh (ровно один refresh, признак смены токена, сбой без изменения состояния);
//   - кэш карточек, проверка кода покупки, ссылка загрузки, профиль.

var creds = Credentials{ClientID: "app-1", ClientSecret: "secret-1"}

// memCache — потокобезопасный ItemCache в памяти.
type memCache struct {
	mu   sync.Mutex
	data map[string]string
	ttl  map[string]time.Duration
}

func newMemCache() *memCache {
	return &memCache{data: map[string]string{}, ttl: map[string]time.Duration{}}
}

func (m *memCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *memCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttl[key] = ttl
	return nil
}

func newTestClient(t *testing.T, h http.Handler, cache ItemCache) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return New(Options{
		BaseURL: srv.URL,
		Cache:   cache,
		Metrics: NewMetrics(prometheus.NewRegistry()),
	})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func TestAuthorizeURL(t *testing.T) {
	t.Parallel()

	c := New(Options{})
	got := c.AuthorizeURL("app-1", "https://site.example/oauth/callback")

	require.True(t, strings.HasPrefix(got, "https://api.envato.com/authorization?"))
	require.Contains(t, got, "response_type=code")
	require.Contains(t, got, "client_id=app-1")
	require.Contains(t, got, "redirect_uri=https%3A%2F%2Fsite.example%2Foauth%2Fcallback")
}

func TestExchangeCode_OK(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		require.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		require.Equal(t, "abc", r.PostForm.Get("code"))
		require.Equal(t, "app-1", r.PostForm.Get("client_id"))
		require.Equal(t, "secret-1", r.PostForm.Get("client_secret"))
		writeJSON(w, http.StatusOK, `{"access_token":"at","refresh_token":"rt","expires_in":3600}`)
	}), nil)

	tok, err := c.ExchangeCode(context.Background(), creds, "abc")
	require.NoError(t, err)
	require.Equal(t, "at", tok.AccessToken)
	require.Equal(t, "rt", tok.RefreshToken)
	require.NotNil(t, tok.ExpiresAt)
	require.WithinDuration(t, time.Now().Add(time.Hour), *tok.ExpiresAt, 5*time.Second)
}

func TestExchangeCode_ErrorDescriptionStops(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusBadRequest, `{"error":"invalid_grant","error_description":"Code expired"}`)
	}), nil)

	tok, err := c.ExchangeCode(context.Background(), creds, "abc")
	require.Error(t, err)
	require.True(t, tok.Empty())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	require.Equal(t, "invalid_grant", apiErr.Code)
	require.Equal(t, "Code expired", apiErr.Message)
	require.NotErrorIs(t, err, ErrBadAccessToken)
}

func TestExchangeCode_BothTokensMissing_ReportsBoth(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	}), nil)

	tok, err := c.ExchangeCode(context.Background(), creds, "abc")
	require.True(t, tok.Empty())
	require.ErrorIs(t, err, ErrBadAccessToken)
	require.ErrorIs(t, err, ErrBadRefreshToken)
}

func TestExchangeCode_OnlyRefreshMissing(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"access_token":"at"}`)
	}), nil)

	tok, err := c.ExchangeCode(context.Background(), creds, "abc")
	require.True(t, tok.Empty(), "токены выставляются только вместе")
	require.ErrorIs(t, err, ErrBadRefreshToken)
	require.NotErrorIs(t, err, ErrBadAccessToken)
}

func TestExchangeCode_TransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	c := New(Options{BaseURL: srv.URL})
	_, err := c.ExchangeCode(context.Background(), creds, "abc")

	var te *TransportError
	require.ErrorAs(t, err, &te)
}

// refreshServer считает обращения к /token и отвечает заданным телом.
func refreshServer(calls *atomic.Int32, status int, body string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			http.NotFound(w, r)
			return
		}
		calls.Add(1)
		_ = r.ParseForm()
		if r.PostForm.Get("grant_type") != "refresh_token" || r.PostForm.Get("client_id") != "app-1" {
			writeJSON(w, http.StatusBadRequest, `{"error":"invalid_request"}`)
			return
		}
		writeJSON(w, status, body)
	})
}

func TestMaybeRefresh_PastExpiry_RefreshesOnce(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, refreshServer(&calls, http.StatusOK,
		`{"access_token":"new-at","token_type":"bearer","expires_in":3600}`), nil)

	past := time.Now().Add(-time.Minute)
	api := c.Session(creds, models.TokenSet{AccessToken: "old-at", RefreshToken: "rt", ExpiresAt: &past})

	changed := api.MaybeRefresh(context.Background())
	require.True(t, changed)
	require.EqualValues(t, 1, calls.Load())

	tok := api.Token()
	require.Equal(t, "new-at", tok.AccessToken)
	require.Equal(t, "rt", tok.RefreshToken, "refresh-токен сохраняется, если сервер не прислал новый")
	require.NotNil(t, tok.ExpiresAt)
	require.True(t, tok.ExpiresAt.After(time.Now()))
}

func TestMaybeRefresh_NilExpiry_TreatedAsExpired(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, refreshServer(&calls, http.StatusOK,
		`{"access_token":"new-at","token_type":"bearer","expires_in":3600}`), nil)

	api := c.Session(creds, models.TokenSet{AccessToken: "old-at", RefreshToken: "rt"})
	require.True(t, api.MaybeRefresh(context.Background()))
	require.EqualValues(t, 1, calls.Load())
}

func TestMaybeRefresh_FutureExpiry_NoCall(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, refreshServer(&calls, http.StatusOK, `{}`), nil)

	future := time.Now().Add(time.Hour)
	api := c.Session(creds, models.TokenSet{AccessToken: "at", RefreshToken: "rt", ExpiresAt: &future})

	require.False(t, api.MaybeRefresh(context.Background()))
	require.Zero(t, calls.Load())
}

func TestMaybeRefresh_SameTokenReturned_NotChanged(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, refreshServer(&calls, http.StatusOK,
		`{"access_token":"at","token_type":"bearer","expires_in":3600}`), nil)

	api := c.Session(creds, models.TokenSet{AccessToken: "at", RefreshToken: "rt"})
	require.False(t, api.MaybeRefresh(context.Background()))
	require.EqualValues(t, 1, calls.Load())
}

func TestMaybeRefresh_Failure_StateUnchanged(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	c := newTestClient(t, refreshServer(&calls, http.StatusBadRequest,
		`{"error":"invalid_grant","error_description":"Refresh token revoked"}`), nil)

	past := time.Now().Add(-time.Minute)
	api := c.Session(creds, models.TokenSet{AccessToken: "old-at", RefreshToken: "rt", ExpiresAt: &past})

	require.False(t, api.MaybeRefresh(context.Background()))
	require.EqualValues(t, 1, calls.Load())
	require.Equal(t, "old-at", api.Token().AccessToken)
	require.Equal(t, past, *api.Token().ExpiresAt)

	errs := api.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, "invalid_grant", errs[0].Code)
	require.Equal(t, "Refresh token revoked", errs[0].Message)
	require.Contains(t, api.Log(), "Refreshing Token...")
}

func TestItem_CachedForSameCredentials(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	cache := newMemCache()
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v2/market/catalog/item", r.URL.Path)
		require.Equal(t, "Bearer pt", r.Header.Get("Authorization"))
		hits.Add(1)
		writeJSON(w, http.StatusOK, `{"id":123,"name":"Theme","url":"https://market/item/123",
			"thumbnail_url":"https://img/123.png","wordpress_theme_metadata":{"version":"2.1.0"}}`)
	}), cache)

	api := c.Session(creds, models.TokenSet{AccessToken: "pt"})

	it, err := api.Item(context.Background(), "123")
	require.NoError(t, err)
	require.Equal(t, "123", it.ID)
	require.Equal(t, "Theme", it.Name)
	require.Equal(t, "2.1.0", it.Version)
	require.Equal(t, "https://img/123.png", it.ThumbnailURL)

	again, err := api.Item(context.Background(), "123")
	require.NoError(t, err)
	require.Equal(t, it.URL, again.URL)
	require.EqualValues(t, 1, hits.Load())

	key := itemCacheKey("123", "pt", creds.ClientSecret, creds.ClientID)
	require.Equal(t, DefaultItemCacheTTL, cache.ttl[key])

	// Другой токен — другой ключ кэша.
	other := c.Session(creds, models.TokenSet{AccessToken: "pt2"})
	_, _ = other.Item(context.Background(), "123")
	require.EqualValues(t, 2, hits.Load())

	// ItemFresh всегда идёт в сеть.
	_, err = api.ItemFresh(context.Background(), "123")
	require.NoError(t, err)
	require.EqualValues(t, 3, hits.Load())
}

func TestItem_NotFound(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, `{"error":404,"description":"No item"}`)
	}), newMemCache())

	api := c.Session(creds, models.TokenSet{AccessToken: "pt"})
	_, err := api.Item(context.Background(), "999")
	require.ErrorIs(t, err, ErrNotFound)

	errs := api.Errors()
	require.Len(t, errs, 1)
	require.Equal(t, "404", errs[0].Code)
	require.Equal(t, "No item", errs[0].Message)
}

func TestCheckPurchaseCode(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("code") {
		case "valid":
			writeJSON(w, http.StatusOK, `{"amount":"19.00","item":{"id":1,"name":"Theme"},"buyer":"bob"}`)
		case "no-item":
			writeJSON(w, http.StatusOK, `{"amount":"19.00"}`)
		default:
			writeJSON(w, http.StatusNotFound, `{"error":404,"description":"No sale belonging to the current user found with that code"}`)
		}
	}), nil)

	api := c.Session(creds, models.TokenSet{AccessToken: "pt"})

	raw, err := api.CheckPurchaseCode(context.Background(), "valid")
	require.NoError(t, err)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(raw, &payload))
	require.Equal(t, "bob", payload["buyer"])

	_, err = api.CheckPurchaseCode(context.Background(), "no-item")
	require.ErrorIs(t, err, ErrInvalidPurchaseCode)

	_, err = api.CheckPurchaseCode(context.Background(), "unknown")
	require.ErrorIs(t, err, ErrInvalidPurchaseCode)

	_, err = api.CheckPurchaseCode(context.Background(), " ")
	require.ErrorIs(t, err, ErrInvalidPurchaseCode)
}

func TestDownloadURL_ThemeThenPlugin(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "true", r.URL.Query().Get("shorten_url"))
		switch r.URL.Query().Get("item_id") {
		case "1":
			writeJSON(w, http.StatusOK, `{"wordpress_theme":"https://dl/theme","wordpress_plugin":"https://dl/plugin"}`)
		case "2":
			writeJSON(w, http.StatusOK, `{"wordpress_plugin":"https://dl/plugin"}`)
		default:
			writeJSON(w, http.StatusOK, `{"download_url":"https://dl/zip"}`)
		}
	}), nil)

	api := c.Session(creds, models.TokenSet{AccessToken: "at"})

	u, err := api.DownloadURL(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, "https://dl/theme", u)

	u, err = api.DownloadURL(context.Background(), "2")
	require.NoError(t, err)
	require.Equal(t, "https://dl/plugin", u)

	_, err = api.DownloadURL(context.Background(), "3")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestProfileEndpoints(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/v1/market/private/user/username.json":
			writeJSON(w, http.StatusOK, `{"username":"bob"}`)
		case "/v1/market/private/user/email.json":
			writeJSON(w, http.StatusOK, `{"email":"bob@example.com"}`)
		case "/v1/market/private/user/account.json":
			writeJSON(w, http.StatusOK, `{"account":{"firstname":"Bob","surname":"Smith","country":"NZ"}}`)
		case "/v3/market/buyer/purchases":
			writeJSON(w, http.StatusOK, `{"count":2,"purchases":[{"code":"c1"},{"code":"c2"}]}`)
		case "/v1/discovery/search/search/item":
			require.Equal(t, "bob", r.URL.Query().Get("username"))
			writeJSON(w, http.StatusOK, `{"matches":[{"id":1,"name":"A"},{"id":2,"name":"B"},"garbage"]}`)
		default:
			http.NotFound(w, r)
		}
	}), nil)

	api := c.Session(creds, models.TokenSet{AccessToken: "at"})
	ctx := context.Background()

	name, err := api.Username(ctx)
	require.NoError(t, err)
	require.Equal(t, "bob", name)

	email, err := api.Email(ctx)
	require.NoError(t, err)
	require.Equal(t, "bob@example.com", email)

	acc, err := api.Account(ctx)
	require.NoError(t, err)
	var a models.Account
	require.NoError(t, json.Unmarshal(acc, &a))
	require.Equal(t, "Bob", a.FirstName)
	require.Equal(t, "Smith", a.Surname)

	purchases, err := api.Purchases(ctx)
	require.NoError(t, err)
	require.Len(t, purchases, 2)

	items, err := api.ItemsByUsername(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "B", items[1].Name)

	require.Contains(t, api.Log(), "GET: /v3/market/buyer/purchases")
	require.Empty(t, api.Errors())
}

func TestEmail_InvalidAddress(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"email":"not an email"}`)
	}), nil)

	_, err := c.Session(creds, models.TokenSet{AccessToken: "at"}).Email(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRequest_ContextCancelled(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, `{"username":"bob"}`)
	}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	api := c.Session(creds, models.TokenSet{AccessToken: "at"})
	_, err := api.Username(ctx)
	require.Error(t, err)
	require.True(t, errors.Is(err, context.Canceled))

	var te *TransportError
	require.ErrorAs(t, err, &te)
	require.Len(t, api.Errors(), 1)
}

func TestAPIError_IsNotFoundOnlyFor404(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, &APIError{Status: http.StatusNotFound}, ErrNotFound)
	require.NotErrorIs(t, &APIError{Status: http.StatusForbidden}, ErrNotFound)
	require.Contains(t, (&APIError{Endpoint: "x", Status: 403, Code: "forbidden", Message: "no"}).Error(), "forbidden")
	require.Equal(t, "marketplace x: 500: boom", fmt.Sprint(&APIError{Endpoint: "x", Status: 500, Message: "boom"}))
}
