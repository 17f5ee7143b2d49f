package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/storage"
)

func TestIntegration_Gates(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	ctx := context.Background()

	g := &models.ProductGate{Name: "Theme", MarketplaceItemID: "42", VerificationEnabled: true}
	require.NoError(t, st.SaveGate(ctx, g))
	require.NotZero(t, g.ID)
	require.NoError(t, st.SaveGate(ctx, &models.ProductGate{Name: "General"}))

	ids, err := st.GateItemIDs(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"42"}, ids)

	g.Name = "Theme Pro"
	g.VerificationEnabled = false
	require.NoError(t, st.UpdateGate(ctx, g))

	got, err := st.GateByID(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, "Theme Pro", got.Name)
	require.False(t, got.VerificationEnabled)

	all, err := st.Gates(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)

	_, err = st.GateByID(ctx, 999999)
	require.ErrorIs(t, err, storage.ErrNotFound)
	require.ErrorIs(t, st.UpdateGate(ctx, &models.ProductGate{ID: 999999}), storage.ErrNotFound)
}

func TestIntegration_Settings(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	ctx := context.Background()

	kv, err := st.Settings(ctx)
	require.NoError(t, err)
	require.Empty(t, kv)

	require.NoError(t, st.SaveSettings(ctx, map[string]string{
		models.SettingClientID:  "client",
		models.SettingSecretKey: "secret",
	}))
	require.NoError(t, st.SaveSettings(ctx, map[string]string{models.SettingClientID: "client-2"}))

	kv, err = st.Settings(ctx)
	require.NoError(t, err)
	require.Equal(t, "client-2", kv[models.SettingClientID])
	require.Equal(t, "secret", kv[models.SettingSecretKey])
}

func TestIntegration_Audit_AppendListPrune(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	ctx := context.Background()

	old := time.Now().UTC().Add(-30 * 24 * time.Hour)
	for i := 0; i < 3; i++ {
		require.NoError(t, st.AppendAudit(ctx, &models.AuditEntry{
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
		IP:       "10.0.0.1",
	}
	require.NoError(t, st.AppendAudit(ctx, fresh))
	require.NotEmpty(t, fresh.ID)

	entries, total, err := st.AuditEntries(ctx, models.AuditFilter{})
	require.NoError(t, err)
	require.Equal(t, 4, total)
	require.Equal(t, "fresh", entries[0].Title)
	require.JSONEq(t, `{"k":"v"}`, string(entries[0].Message))

	entries, total, err = st.AuditEntries(ctx, models.AuditFilter{Type: models.AuditError})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, entries, 1)

	n, err := st.PruneAudit(ctx, time.Now().UTC().Add(-24*time.Hour), 2)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)

	_, total, err = st.AuditEntries(ctx, models.AuditFilter{Category: models.CategoryRest})
	require.NoError(t, err)
	require.Equal(t, 1, total)
}
