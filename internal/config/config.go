// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"github.com/common-repository/vatomi/internal/models"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
//
// Перед чтением подхватывается .env, если он есть.
type Config struct {
	Env         string            `yaml:"env" env:"ENV" env-default:"local"`
	HTTP        HTTPConfig        `yaml:"http"`
	DB          DBConfig          `yaml:"db"`
	Redis       RedisConfig       `yaml:"redis"`
	Audit       AuditConfig       `yaml:"audit"`
	Session     SessionConfig     `yaml:"session"`
	Marketplace MarketplaceConfig `yaml:"marketplace"`
	Settings    SettingsDefaults  `yaml:"settings"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Timeouts    TimeoutConfig     `yaml:"timeouts"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Service time.Duration `yaml:"service" env:"SERVICE_TIMEOUT" env-default:"30s"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
type HTTPConfig struct {
	Host string `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port string `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	// PublicURL — внешний адрес сервиса; из него строится redirect_uri OAuth.
	PublicURL string `yaml:"public_url" env:"PUBLIC_URL" env-default:"http://localhost:8080"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// CallbackURL — адрес обработчика OAuth-колбэка.
func (h HTTPConfig) CallbackURL() string {
	return strings.TrimRight(h.PublicURL, "/") + "/oauth/callback"
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
}

// RedisConfig — подключение к Redis для транзиентов.
type RedisConfig struct {
	RedisURL string `yaml:"redis_url" env:"REDIS_URL" env-required:"true"`
	Prefix   string `yaml:"prefix" env:"REDIS_PREFIX" env-default:"vatomi:"`
}

// AuditConfig — куда пишется журнал действий.
type AuditConfig struct {
	// Backend — postgres или mongo.
	Backend  string `yaml:"backend" env:"AUDIT_BACKEND" env-default:"postgres"`
	MongoURL string `yaml:"mongo_url" env:"AUDIT_MONGO_URL"`
}

// SessionConfig — cookie-сессии.
type SessionConfig struct {
	Secret string        `yaml:"secret" env:"SESSION_SECRET" env-required:"true"`
	MaxAge time.Duration `yaml:"max_age" env:"SESSION_MAX_AGE" env-default:"336h"`
	Secure bool          `yaml:"secure" env:"SESSION_SECURE" env-default:"false"`
}

// MarketplaceConfig — параметры клиента маркетплейса и его кэшей.
type MarketplaceConfig struct {
	BaseURL       string        `yaml:"base_url" env:"MARKETPLACE_BASE_URL" env-default:"https://api.envato.com"`
	Timeout       time.Duration `yaml:"timeout" env:"MARKETPLACE_TIMEOUT" env-default:"20s"`
	ItemCacheTTL  time.Duration `yaml:"item_cache_ttl" env:"MARKETPLACE_ITEM_CACHE_TTL" env-default:"5h"`
	DiscoveryTTL  time.Duration `yaml:"discovery_ttl" env:"MARKETPLACE_DISCOVERY_TTL" env-default:"2h"`
	SyncInterval  time.Duration `yaml:"sync_interval" env:"MARKETPLACE_SYNC_INTERVAL" env-default:"24h"`
	PruneInterval time.Duration `yaml:"prune_interval" env:"AUDIT_PRUNE_INTERVAL" env-default:"10m"`
}

// SettingsDefaults — значения настроек интеграции до первого сохранения в админке.
type SettingsDefaults struct {
	SecretKey         string   `yaml:"secret_key" env:"ENVATO_SECRET_KEY"`
	ClientID          string   `yaml:"client_id" env:"ENVATO_CLIENT_ID"`
	PersonalToken     string   `yaml:"personal_token" env:"ENVATO_PERSONAL_TOKEN"`
	LicensesPageID    string   `yaml:"licenses_page_id" env:"LICENSES_PAGE_ID"`
	LoggingEnabled    bool     `yaml:"logging_enabled" env:"LOGS_ENABLED" env-default:"true"`
	LogRetention      string   `yaml:"log_retention" env:"LOGS_PRUNE" env-default:"2wa"`
	ButtonPlacements  []string `yaml:"button_placements" env:"BUTTON_PLACES" env-default:"standard_form,support_form"`
	PostLoginRedirect string   `yaml:"post_login_redirect" env:"BUTTON_REDIRECT_AFTER_LOGIN"`
}

// Typed переводит значения по умолчанию в models.Settings.
func (d SettingsDefaults) Typed() models.Settings {
	return models.Settings{
		SecretKey:         d.SecretKey,
		ClientID:          d.ClientID,
		PersonalToken:     d.PersonalToken,
		LicensesPageID:    d.LicensesPageID,
		LoggingEnabled:    d.LoggingEnabled,
		LogRetention:      models.Retention(d.LogRetention),
		ButtonPlacements:  models.ParsePlacements(strings.Join(d.ButtonPlacements, ",")),
		PostLoginRedirect: d.PostLoginRedirect,
	}
}

// RateLimitConfig — ограничение частоты запросов к REST-фасаду по IP.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" env:"RATE_LIMIT_RPM" env-default:"60"`
	Burst             int `yaml:"burst" env:"RATE_LIMIT_BURST" env-default:"10"`
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла ENV-переменные накладываются поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	// .env необязателен: отсутствие файла не ошибка.
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return nil, fmt.Errorf("failed to read .env: %w", err)
		}
	}

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			return nil, fmt.Errorf("config file does not exist: %q: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, nil
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, nil
}
