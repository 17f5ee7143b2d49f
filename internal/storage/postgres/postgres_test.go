package postgres

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/common-repository/vatomi/migrations"
)

// Интеграционные тесты пакета postgres поднимают PostgreSQL 16 через
// testcontainers-go и накатывают схему тем же раннером golang-migrate,
// что и команда `vatomi migrate up`. Без GO_TEST_INTEGRATION пропускаются.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/postgres -v -count=1

// startPostgres поднимает временный PostgreSQL, применяет миграции
// и возвращает хранилище с функцией очистки.
func startPostgres(t *testing.T) (*Storage, func()) {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:16-alpine",
		Env:          map[string]string{"POSTGRES_USER": "vatomi", "POSTGRES_PASSWORD": "vatomi", "POSTGRES_DB": "vatomi"},
		ExposedPorts: []string{"5432/tcp"},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "5432/tcp")
	require.NoError(t, err)
	dsn := fmt.Sprintf("postgres://vatomi:vatomi@%s:%s/vatomi?sslmode=disable", host, port.Port())

	lg := slog.New(slog.NewTextHandler(io.Discard, nil))
	require.NoError(t, migrations.Up(dsn, lg))

	st, err := New(ctx, dsn)
	require.NoError(t, err)

	return st, func() {
		st.Close()
		_ = c.Terminate(context.Background())
	}
}

func TestNew_SetsApplicationName(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	var name string
	require.NoError(t, st.db.QueryRow(context.Background(), "SELECT current_setting('application_name')").Scan(&name))
	require.Equal(t, applicationName, name)
	require.NoError(t, st.Ping(context.Background()))
}

func TestNew_BadURL(t *testing.T) {
	_, err := New(context.Background(), "://not-a-dsn")
	require.Error(t, err)
}
