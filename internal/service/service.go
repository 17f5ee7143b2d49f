// service содержит бизнес-логику интеграции с маркетплейсом:
// жизненный цикл OAuth-токенов, синхронизацию покупок в локальные
// записи лицензий, активацию/деактивацию, фильтр продуктов поддержки,
// REST-фасад над каталогом и журнал действий.
//
// Основные аспекты:
//   - Service не хранит состояние запроса; состояние токенов живёт
//     в сессии маркетплейса (marketplace.API), созданной на вызов.
//   - Все кэши и метки «уже делали» лежат в транзиентах (Redis) с явным TTL.
//   - Ошибки возвращаются и маппятся транспортом на HTTP-статусы
//     (см. комментарии к переменным ошибок ниже).
package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/common-repository/vatomi/internal/cache"
	"github.com/common-repository/vatomi/internal/marketplace"
	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/storage"
)

var (
	// ErrValidation — не хватает данных или они некорректны. Транспорт: HTTP 400.
	ErrValidation = errors.New("validation failed")

	// ErrForbidden — у актора нет прав на действие. Транспорт: HTTP 403.
	ErrForbidden = errors.New("forbidden")

	// ErrUnauthenticated — запрос без сессии там, где она нужна. Транспорт: HTTP 401.
	ErrUnauthenticated = errors.New("unauthenticated")

	// ErrInvalidCredentials — неверный логин или пароль. Транспорт: HTTP 401.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrNotFound — запись не найдена. Транспорт: HTTP 404.
	ErrNotFound = errors.New("not found")

	// ErrConflict — подходящей для действия записи нет
	// (например, лицензия уже активирована на другом сайте). Транспорт: HTTP 409.
	ErrConflict = errors.New("conflict")

	// ErrNotConfigured — ключи приложения маркетплейса не заданы. Транспорт: HTTP 503.
	ErrNotConfigured = errors.New("marketplace is not configured")

	// ErrMarketplace — маркетплейс ответил ошибкой или недоступен. Транспорт: HTTP 502.
	ErrMarketplace = errors.New("marketplace error")
)

// ValidationError несёт текст для пользователя; сравнивается с ErrValidation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FacadeError — ошибка REST-фасада с машинным кодом (no_id_found, no_api_keys, ...).
type FacadeError struct {
	Code    string
	Message string
}

func (e *FacadeError) Error() string { return e.Code + ": " + e.Message }

// Marketplace — часть клиента маркетплейса, нужная сервису.
type Marketplace interface {
	AuthorizeURL(clientID, redirectURI string) string
	ExchangeCode(ctx context.Context, creds marketplace.Credentials, code string) (models.TokenSet, error)
	Session(creds marketplace.Credentials, tok models.TokenSet) marketplace.API
}

// Options — параметры сервиса. Нулевые длительности заменяются значениями по умолчанию.
type Options struct {
	// Defaults — настройки из конфига; сохранённые в БД значения перекрывают их.
	Defaults models.Settings
	// DiscoveryTTL — время жизни кэша списка товаров автора.
	DiscoveryTTL time.Duration
	// SyncInterval — не чаще какого интервала заново забирать покупки пользователя.
	SyncInterval time.Duration
	// PruneInterval — не чаще какого интервала чистить журнал.
	PruneInterval time.Duration
	Now           func() time.Time
}

const (
	defaultDiscoveryTTL  = 2 * time.Hour
	defaultSyncInterval  = 24 * time.Hour
	defaultPruneInterval = 10 * time.Minute

	// pruneBatch — сколько записей журнала удаляется за один проход.
	pruneBatch = 1000
)

// Service описывает бизнес-логику интеграции.
type Service struct {
	storage    storage.Storage
	audit      storage.AuditStorage
	transients cache.Transients
	market     Marketplace
	validate   *validator.Validate
	opts       Options
	now        func() time.Time
}

// New создаёт новый экземпляр Service. Журнал по умолчанию пишется в st.
func New(st storage.Storage, tr cache.Transients, market Marketplace, opts Options) *Service {
	if opts.DiscoveryTTL <= 0 {
		opts.DiscoveryTTL = defaultDiscoveryTTL
	}
	if opts.SyncInterval <= 0 {
		opts.SyncInterval = defaultSyncInterval
	}
	if opts.PruneInterval <= 0 {
		opts.PruneInterval = defaultPruneInterval
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Service{
		storage:    st,
		audit:      st,
		transients: tr,
		market:     market,
		validate:   newValidator(),
		opts:       opts,
		now:        func() time.Time { return now().UTC() },
	}
}

// SetAuditSink переключает журнал на отдельное хранилище (например, MongoDB).
func (s *Service) SetAuditSink(a storage.AuditStorage) {
	if a != nil {
		s.audit = a
	}
}

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}
