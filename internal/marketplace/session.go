package marketplace

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/pkg/log"
)

// API — операции маркетплейса от имени одного набора токенов.
type API interface {
	// Token возвращает текущее состояние токенов (после возможного refresh).
	Token() models.TokenSet
	// MaybeRefresh обновляет токен, если срок неизвестен или истёк.
	// Возвращает true, если значение access-токена изменилось.
	MaybeRefresh(ctx context.Context) bool
	// RefreshAccessToken выполняет refresh-грант. При ошибке состояние не меняется.
	RefreshAccessToken(ctx context.Context) (models.TokenSet, error)

	// Item возвращает карточку товара (через кэш).
	Item(ctx context.Context, id string) (*models.Item, error)
	// ItemFresh возвращает карточку товара в обход кэша.
	ItemFresh(ctx context.Context, id string) (*models.Item, error)
	// Purchases возвращает покупки пользователя в исходном виде.
	Purchases(ctx context.Context) ([]json.RawMessage, error)
	// Username возвращает имя пользователя маркетплейса.
	Username(ctx context.Context) (string, error)
	// Email возвращает адрес пользователя маркетплейса.
	Email(ctx context.Context) (string, error)
	// Account возвращает данные аккаунта в исходном виде.
	Account(ctx context.Context) (json.RawMessage, error)
	// ItemsByUsername возвращает товары автора, которому принадлежит токен.
	ItemsByUsername(ctx context.Context) ([]models.Item, error)
	// CheckPurchaseCode проверяет код покупки у автора.
	CheckPurchaseCode(ctx context.Context, code string) (json.RawMessage, error)
	// DownloadURL возвращает ссылку на загрузку WordPress-темы или плагина.
	DownloadURL(ctx context.Context, itemID string) (string, error)

	// Errors — ошибки, накопленные сессией.
	Errors() []Error
	// Log — журнал вызовов сессии.
	Log() string
}

type session struct {
	c     *Client
	creds Credentials
	tok   models.TokenSet
	errs  []Error
	log   strings.Builder
}

// logf дописывает строку журнала с меткой времени.
func (s *session) logf(format string, args ...any) {
	s.log.WriteString("\n[")
	s.log.WriteString(s.c.now().Format("01/02/2006 03:04:05 pm"))
	s.log.WriteString("] ")
	fmt.Fprintf(&s.log, format, args...)
}

func (s *session) fail(e Error) {
	s.logf("Error: %s %s", e.Code, e.Message)
	s.errs = append(s.errs, e)
}

func (s *session) Token() models.TokenSet { return s.tok }

func (s *session) Errors() []Error {
	out := make([]Error, len(s.errs))
	copy(out, s.errs)
	return out
}

func (s *session) Log() string { return s.log.String() }

func (s *session) MaybeRefresh(ctx context.Context) bool {
	old := s.tok.AccessToken

	if s.tok.Expired(s.c.now()) {
		_, _ = s.RefreshAccessToken(ctx)
	}

	return old != s.tok.AccessToken
}

func (s *session) RefreshAccessToken(ctx context.Context) (models.TokenSet, error) {
	const op = "marketplace.RefreshAccessToken"
	const endpoint = "token"

	if s.tok.RefreshToken == "" {
		return s.tok, fmt.Errorf("%s: %w", op, ErrBadRefreshToken)
	}

	s.logf("Refreshing Token...")

	conf := oauth2.Config{
		ClientID:     s.creds.ClientID,
		ClientSecret: s.creds.ClientSecret,
		Endpoint: oauth2.Endpoint{
			AuthURL:   s.c.base + "/authorization",
			TokenURL:  s.c.base + "/token",
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	octx := context.WithValue(ctx, oauth2.HTTPClient, s.c.http)

	start := time.Now()
	t, err := conf.TokenSource(octx, &oauth2.Token{RefreshToken: s.tok.RefreshToken}).Token()
	if err != nil {
		e := Error{Message: err.Error()}
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			e.Code = re.ErrorCode
			if re.ErrorDescription != "" {
				e.Message = re.ErrorDescription
			}
		}
		s.fail(e)
		s.c.metrics.observe(endpoint, "api_error", time.Since(start).Seconds())

		log.From(ctx).Warn("marketplace_refresh_failed",
			slog.String("op", op),
			slog.String("err", err.Error()),
		)

		return s.tok, fmt.Errorf("%s: %w", op, err)
	}

	s.c.metrics.observe(endpoint, "ok", time.Since(start).Seconds())

	next := s.tok
	next.AccessToken = t.AccessToken
	if t.RefreshToken != "" {
		next.RefreshToken = t.RefreshToken
	}
	if !t.Expiry.IsZero() {
		exp := t.Expiry.UTC()
		next.ExpiresAt = &exp
		s.logf("New Token Expires In: %d", exp.Unix())
	}
	s.tok = next

	return s.tok, nil
}

// errorBody — тело ошибки API маркетплейса (встречаются оба варианта полей).
type errorBody struct {
	Error            *models.Flex `json:"error"`
	Description      string       `json:"description"`
	ErrorDescription string       `json:"error_description"`
	Message          string       `json:"message"`
}

// get выполняет авторизованный GET и возвращает тело успешного ответа.
func (s *session) get(ctx context.Context, endpoint, path string) ([]byte, error) {
	const op = "marketplace.get"

	s.logf("GET: %s", path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.c.base+path, nil)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.tok.AccessToken)
	req.Header.Set("Accept", "application/json")

	lg := log.From(ctx)

	start := time.Now()
	resp, err := s.c.http.Do(req)
	if err != nil {
		s.c.metrics.observe(endpoint, "transport_error", time.Since(start).Seconds())
		s.fail(Error{Message: err.Error()})
		lg.Warn("marketplace_request_failed",
			slog.String("op", op),
			slog.String("endpoint", endpoint),
			slog.String("err", err.Error()),
		)
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		s.c.metrics.observe(endpoint, "transport_error", time.Since(start).Seconds())
		s.fail(Error{Message: err.Error()})
		return nil, &TransportError{Endpoint: endpoint, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{Endpoint: endpoint, Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

		var eb errorBody
		if json.Unmarshal(body, &eb) == nil {
			apiErr.Code = eb.Error.String()
			for _, m := range []string{eb.ErrorDescription, eb.Description, eb.Message} {
				if m != "" {
					apiErr.Message = m
					break
				}
			}
		}

		s.c.metrics.observe(endpoint, "api_error", time.Since(start).Seconds())
		code := apiErr.Code
		if code == "" {
			code = fmt.Sprint(resp.StatusCode)
		}
		s.fail(Error{Code: code, Message: apiErr.Message})
		lg.Warn("marketplace_request_failed",
			slog.String("op", op),
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("err", apiErr.Message),
		)

		return nil, apiErr
	}

	s.c.metrics.observe(endpoint, "ok", time.Since(start).Seconds())
	s.logf("Response: %d, %d bytes", resp.StatusCode, len(body))

	return body, nil
}

// itemPayload — поля карточки каталога, которые нас интересуют.
type itemPayload struct {
	ID           models.Flex `json:"id"`
	Name         string      `json:"name"`
	URL          string      `json:"url"`
	ThumbnailURL string      `json:"thumbnail_url"`
	WPTheme      *struct {
		Version string `json:"version"`
	} `json:"wordpress_theme_metadata"`
}

func parseItem(raw []byte) (*models.Item, error) {
	var p itemPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, ErrNotFound
	}

	if p.ID == "" && p.Name == "" {
		return nil, ErrNotFound
	}

	it := &models.Item{
		ID:           string(p.ID),
		Name:         p.Name,
		URL:          p.URL,
		ThumbnailURL: p.ThumbnailURL,
		Raw:          json.RawMessage(raw),
	}
	if p.WPTheme != nil {
		it.Version = p.WPTheme.Version
	}

	return it, nil
}

// itemCacheKey — ключ кэша карточки: зависит от токена и ключей приложения,
// чтобы разные учётные данные не делили кэш.
func itemCacheKey(id, accessToken, clientSecret, clientID string) string {
	sum := md5.Sum([]byte("envato_item_data_" + id + "_" + accessToken + clientSecret + clientID))
	return "item:" + hex.EncodeToString(sum[:])
}

func (s *session) Item(ctx context.Context, id string) (*models.Item, error) {
	const op = "marketplace.Item"

	key := itemCacheKey(id, s.tok.AccessToken, s.creds.ClientSecret, s.creds.ClientID)

	if s.c.cache != nil {
		v, ok, err := s.c.cache.Get(ctx, key)
		if err != nil {
			log.From(ctx).Warn("item_cache_get_failed", slog.String("op", op), slog.String("err", err.Error()))
		}
		if ok {
			if it, err := parseItem([]byte(v)); err == nil {
				return it, nil
			}
		}
	}

	it, err := s.ItemFresh(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.c.cache != nil {
		if err := s.c.cache.Set(ctx, key, string(it.Raw), s.c.itemTTL); err != nil {
			log.From(ctx).Warn("item_cache_set_failed", slog.String("op", op), slog.String("err", err.Error()))
		}
	}

	return it, nil
}

func (s *session) ItemFresh(ctx context.Context, id string) (*models.Item, error) {
	const op = "marketplace.ItemFresh"

	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	body, err := s.get(ctx, "catalog_item", "/v2/market/catalog/item?id="+url.QueryEscape(id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	it, err := parseItem(body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return it, nil
}

func (s *session) Purchases(ctx context.Context) ([]json.RawMessage, error) {
	const op = "marketplace.Purchases"

	body, err := s.get(ctx, "buyer_purchases", "/v3/market/buyer/purchases")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp struct {
		Purchases []json.RawMessage `json:"purchases"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		s.fail(Error{Message: "malformed purchases response"})
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return resp.Purchases, nil
}

func (s *session) Username(ctx context.Context) (string, error) {
	const op = "marketplace.Username"

	body, err := s.get(ctx, "user_username", "/v1/market/private/user/username.json")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var resp struct {
		Username string `json:"username"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Username == "" {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return resp.Username, nil
}

func (s *session) Email(ctx context.Context) (string, error) {
	const op = "marketplace.Email"

	body, err := s.get(ctx, "user_email", "/v1/market/private/user/email.json")
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var resp struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || resp.Email == "" {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	addr, err := mail.ParseAddress(resp.Email)
	if err != nil || addr.Address != resp.Email {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return addr.Address, nil
}

func (s *session) Account(ctx context.Context) (json.RawMessage, error) {
	const op = "marketplace.Account"

	body, err := s.get(ctx, "user_account", "/v1/market/private/user/account.json")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp struct {
		Account json.RawMessage `json:"account"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || isEmptyJSON(resp.Account) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	return resp.Account, nil
}

func (s *session) ItemsByUsername(ctx context.Context) ([]models.Item, error) {
	const op = "marketplace.ItemsByUsername"

	username, err := s.Username(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	body, err := s.get(ctx, "discovery_search", "/v1/discovery/search/search/item?username="+url.QueryEscape(username))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp struct {
		Matches []json.RawMessage `json:"matches"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Matches) == 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	items := make([]models.Item, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		it, err := parseItem(m)
		if err != nil {
			continue
		}
		items = append(items, *it)
	}

	return items, nil
}

func (s *session) CheckPurchaseCode(ctx context.Context, code string) (json.RawMessage, error) {
	const op = "marketplace.CheckPurchaseCode"

	if strings.TrimSpace(code) == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPurchaseCode)
	}

	body, err := s.get(ctx, "author_sale", "/v3/market/author/sale?code="+url.QueryEscape(code))
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPurchaseCode)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var resp struct {
		Item json.RawMessage `json:"item"`
	}
	if err := json.Unmarshal(body, &resp); err != nil || isEmptyJSON(resp.Item) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPurchaseCode)
	}

	return json.RawMessage(body), nil
}

func (s *session) DownloadURL(ctx context.Context, itemID string) (string, error) {
	const op = "marketplace.DownloadURL"

	q := url.Values{}
	q.Set("item_id", itemID)
	q.Set("shorten_url", "true")

	body, err := s.get(ctx, "buyer_download", "/v3/market/buyer/download?"+q.Encode())
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	var resp struct {
		Theme  string `json:"wordpress_theme"`
		Plugin string `json:"wordpress_plugin"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	switch {
	case resp.Theme != "":
		return resp.Theme, nil
	case resp.Plugin != "":
		return resp.Plugin, nil
	default:
		return "", fmt.Errorf("%s: %w", op, ErrNotFound)
	}
}

func isEmptyJSON(raw json.RawMessage) bool {
	v := strings.TrimSpace(string(raw))
	return v == "" || v == "null" || v == "{}" || v == "[]" || v == `""` || v == "false"
}

// Проверка на соответствие интерфейсу API.
var _ API = (*session)(nil)
