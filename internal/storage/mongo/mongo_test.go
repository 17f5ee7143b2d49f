package mongo

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/common-repository/vatomi/internal/models"
)

const testTimeout = 10 * time.Second

// TestMain поднимает MongoDB один раз на пакет; каждый тест работает в своей БД.
func TestMain(m *testing.M) {
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	mongoC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "mongo:7.0",
			ExposedPorts: []string{"27017/tcp"},
			WaitingFor:   wait.ForLog("Waiting for connections").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start mongo testcontainer: %v\n", err)
		os.Exit(1)
	}

	host, _ := mongoC.Host(ctx)
	port, _ := mongoC.MappedPort(ctx, "27017/tcp")
	_ = os.Setenv("AUDIT_MONGO_URL", fmt.Sprintf("mongodb://%s:%s", host, port.Port()))

	code := m.Run()

	_ = mongoC.Terminate(context.Background())
	os.Exit(code)
}

func newTestMongo(t *testing.T) *Mongo {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	uri := strings.TrimSuffix(os.Getenv("AUDIT_MONGO_URL"), "/") + "/audit_test_" + strings.ReplaceAll(uuid.NewString(), "-", "")

	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	m, err := New(ctx, uri)
	require.NoError(t, err)
	t.Cleanup(func() { _ = m.Close(context.Background()) })

	return m
}

func TestDatabaseFromURI(t *testing.T) {
	require.Equal(t, "logs", databaseFromURI("mongodb://localhost:27017/logs"))
	require.Equal(t, defaultDBName, databaseFromURI("mongodb://localhost:27017"))
	require.Equal(t, defaultDBName, databaseFromURI("::bad::"))
}

func TestNew_EmptyURI(t *testing.T) {
	_, err := New(context.Background(), "")
	require.Error(t, err)
}

func TestIntegration_Audit_AppendListPrune(t *testing.T) {
	m := newTestMongo(t)
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	defer cancel()

	old := time.Now().UTC().Add(-30 * 24 * time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, m.AppendAudit(ctx, &models.AuditEntry{
			Type:      models.AuditLog,
			Category:  models.CategoryRest,
			Title:     "old",
			CreatedAt: old.Add(time.Duration(i) * time.Minute),
		}))
	}

	fresh := &models.AuditEntry{
		Type:     models.AuditError,
		Category: models.CategoryOAuth,
		Title:    "fresh",
		Message:  json.RawMessage(`{"k":"v"}`),
	}
	require.NoError(t, m.AppendAudit(ctx, fresh))
	require.NotEmpty(t, fresh.ID)

	entries, total, err := m.AuditEntries(ctx, models.AuditFilter{})
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Equal(t, "fresh", entries[0].Title)
	require.JSONEq(t, `{"k":"v"}`, string(entries[0].Message))

	_, total, err = m.AuditEntries(ctx, models.AuditFilter{Type: models.AuditError, Category: models.CategoryOAuth})
	require.NoError(t, err)
	require.Equal(t, 1, total)

	n, err := m.PruneAudit(ctx, time.Now().UTC().Add(-24*time.Hour), 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, total, err = m.AuditEntries(ctx, models.AuditFilter{})
	require.NoError(t, err)
	require.Equal(t, 2, total)
}
