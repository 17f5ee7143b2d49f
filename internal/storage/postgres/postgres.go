// postgres — хранилище пользователей, токенов маркетплейса, лицензий,
// настроек, фильтра продуктов поддержки и журнала на pgx/v5.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/common-repository/vatomi/internal/storage"
)

const (
	applicationName = "vatomi"
	maxConnIdleTime = 5 * time.Minute
)

type Storage struct {
	db *pgxpool.Pool
}

// New создает пул соединений к PostgreSQL и проверяет его пингом.
func New(ctx context.Context, dbURL string) (*Storage, error) {
	const op = "storage.postgres.New"

	config, err := pgxpool.ParseConfig(dbURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Явные параметры строки подключения имеют приоритет.
	if config.ConnConfig.RuntimeParams["application_name"] == "" {
		config.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	config.MaxConnIdleTime = maxConnIdleTime

	db, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{db: db}, nil
}

// Ping проверяет доступность БД (для /healthz).
func (s *Storage) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close закрывает пул соединений.
func (s *Storage) Close() {
	s.db.Close()
}

// Проверка на соответствие интерфейсам хранилища.
var (
	_ storage.Storage      = (*Storage)(nil)
	_ storage.AuditStorage = (*Storage)(nil)
)
