// migrations — SQL-схема сервиса и раннер golang-migrate поверх встроенных файлов.
package migrations

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed *.sql
var files embed.FS

// newMigrator создаёт мигратор для строки подключения postgres://.
func newMigrator(dbURL string) (*migrate.Migrate, error) {
	src, err := iofs.New(files, ".")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, driverURL(dbURL))
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}

	return m, nil
}

// driverURL переводит postgres:// (postgresql://) в схему драйвера pgx5://.
func driverURL(dbURL string) string {
	for _, p := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dbURL, p) {
			return "pgx5://" + strings.TrimPrefix(dbURL, p)
		}
	}

	return dbURL
}

// Up применяет все миграции.
func Up(dbURL string, lg *slog.Logger) error {
	const op = "migrations.Up"

	m, err := newMigrator(dbURL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	err = m.Up()
	if errors.Is(err, migrate.ErrNoChange) {
		lg.Info("migrations_no_change", slog.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("migrations_applied", slog.String("op", op))
	return nil
}

// Down откатывает steps миграций (steps <= 0 — все).
func Down(dbURL string, steps int, lg *slog.Logger) error {
	const op = "migrations.Down"

	m, err := newMigrator(dbURL)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	if steps > 0 {
		err = m.Steps(-steps)
	} else {
		err = m.Down()
	}

	if errors.Is(err, migrate.ErrNoChange) {
		lg.Info("migrations_no_change", slog.String("op", op))
		return nil
	}
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	lg.Info("migrations_rolled_back", slog.String("op", op), slog.Int("steps", steps))
	return nil
}

// Version возвращает текущую версию схемы и флаг dirty.
func Version(dbURL string) (uint, bool, error) {
	const op = "migrations.Version"

	m, err := newMigrator(dbURL)
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}
	defer m.Close()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("%s: %w", op, err)
	}

	return v, dirty, nil
}
