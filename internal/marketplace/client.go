// marketplace — HTTP-клиент API маркетплейса Envato: OAuth-обмен кода,
// refresh-грант и чтение покупок, профиля и каталога.
package marketplace

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/pkg/log"
)

const (
	// DefaultBaseURL — адрес API маркетплейса.
	DefaultBaseURL = "https://api.envato.com"
	// DefaultTimeout — таймаут одного запроса.
	DefaultTimeout = 20 * time.Second
	// DefaultItemCacheTTL — время жизни кэша карточки товара.
	DefaultItemCacheTTL = 5 * time.Hour

	maxBodySize = 4 << 20
)

// ItemCache — хранилище транзиентов для кэша карточек товаров.
type ItemCache interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// Credentials — ключи OAuth-приложения.
type Credentials struct {
	ClientID     string
	ClientSecret string
}

// Options — параметры клиента. Нулевые значения заменяются значениями по умолчанию.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	HTTPClient   *http.Client
	Cache        ItemCache
	ItemCacheTTL time.Duration
	Metrics      *Metrics
	// Now — источник времени (для тестов).
	Now func() time.Time
}

// Client — общая для всех запросов часть: адреса, HTTP-клиент, кэш, метрики.
// Состояния токенов не хранит; оно живёт в сессии, созданной через Session.
type Client struct {
	base    string
	http    *http.Client
	cache   ItemCache
	itemTTL time.Duration
	metrics *Metrics
	now     func() time.Time
}

// New создаёт клиент маркетплейса.
func New(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	ttl := opts.ItemCacheTTL
	if ttl <= 0 {
		ttl = DefaultItemCacheTTL
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		base:    base,
		http:    hc,
		cache:   opts.Cache,
		itemTTL: ttl,
		metrics: opts.Metrics,
		now:     now,
	}
}

// AuthorizeURL — адрес страницы согласия маркетплейса.
func (c *Client) AuthorizeURL(clientID, redirectURI string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", clientID)
	q.Set("redirect_uri", redirectURI)

	return c.base + "/authorization?" + q.Encode()
}

// tokenResponse — ответ /token. Поле error приходит и строкой, и числом.
type tokenResponse struct {
	AccessToken      string       `json:"access_token"`
	RefreshToken     string       `json:"refresh_token"`
	ExpiresIn        int64        `json:"expires_in"`
	Error            *models.Flex `json:"error"`
	ErrorDescription string       `json:"error_description"`
}

// ExchangeCode обменивает одноразовый код авторизации на пару токенов.
//
// Если маркетплейс вернул error, возвращается *APIError с error_description.
// Иначе наличие access_token и refresh_token проверяется независимо, и обе
// ошибки (ErrBadAccessToken, ErrBadRefreshToken) возвращаются вместе.
// Токены выставляются только вместе: при любой ошибке результат пустой.
func (c *Client) ExchangeCode(ctx context.Context, creds Credentials, code string) (models.TokenSet, error) {
	const op = "marketplace.ExchangeCode"
	const endpoint = "token"

	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", creds.ClientID)
	form.Set("client_secret", creds.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/token", strings.NewReader(form.Encode()))
	if err != nil {
		return models.TokenSet{}, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.metrics.observe(endpoint, "transport_error", time.Since(start).Seconds())
		return models.TokenSet{}, fmt.Errorf("%s: %w", op, &TransportError{Endpoint: endpoint, Err: err})
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.metrics.observe(endpoint, "transport_error", time.Since(start).Seconds())
		return models.TokenSet{}, fmt.Errorf("%s: %w", op, &TransportError{Endpoint: endpoint, Err: err})
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		c.metrics.observe(endpoint, "api_error", time.Since(start).Seconds())
		return models.TokenSet{}, fmt.Errorf("%s: %w", op, &APIError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Message:  "malformed token response",
		})
	}

	if tr.Error != nil {
		c.metrics.observe(endpoint, "api_error", time.Since(start).Seconds())
		return models.TokenSet{}, fmt.Errorf("%s: %w", op, &APIError{
			Endpoint: endpoint,
			Status:   resp.StatusCode,
			Code:     tr.Error.String(),
			Message:  tr.ErrorDescription,
		})
	}

	var errs []error
	if tr.AccessToken == "" {
		errs = append(errs, ErrBadAccessToken)
	}
	if tr.RefreshToken == "" {
		errs = append(errs, ErrBadRefreshToken)
	}
	if len(errs) > 0 {
		c.metrics.observe(endpoint, "api_error", time.Since(start).Seconds())
		return models.TokenSet{}, fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}

	c.metrics.observe(endpoint, "ok", time.Since(start).Seconds())

	tok := models.TokenSet{AccessToken: tr.AccessToken, RefreshToken: tr.RefreshToken}
	if tr.ExpiresIn > 0 {
		exp := c.now().Add(time.Duration(tr.ExpiresIn) * time.Second).UTC()
		tok.ExpiresAt = &exp
	}

	log.From(ctx).Debug("marketplace_code_exchanged", slog.String("op", op))

	return tok, nil
}

// Session возвращает API, привязанный к ключам приложения и набору токенов.
// Сессия накапливает журнал вызовов и ошибки текущей операции и
// не предназначена для конкурентного использования.
func (c *Client) Session(creds Credentials, tok models.TokenSet) API {
	return &session{c: c, creds: creds, tok: tok}
}
