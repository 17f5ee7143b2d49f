package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/storage"
)

func newLicense(userID uuid.UUID, code, item string) *models.License {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.License{
		UserID:         userID,
		LicenseType:    "Regular License",
		PurchaseCode:   code,
		ItemID:         item,
		ItemName:       "Item " + item,
		SoldAt:         now.Add(-48 * time.Hour),
		SupportedUntil: now.Add(24 * time.Hour),
		Amount:         "19.00",
		SupportAmount:  "0.00",
		Raw:            json.RawMessage(`{"code":"` + code + `"}`),
	}
}

func TestIntegration_UpsertLicense_Idempotent_PreservesSite(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	ctx := context.Background()

	u := newUser("lic", "lic@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	l := newLicense(u.ID, "code-1", "100")
	id1, err := st.UpsertLicense(ctx, l)
	require.NoError(t, err)
	require.NoError(t, st.SetActivatedSite(ctx, id1, "https://a.example"))

	l.ItemName = "Renamed"
	id2, err := st.UpsertLicense(ctx, l)
	require.NoError(t, err)
	require.Equal(t, id1, id2)

	got, err := st.LicenseByID(ctx, id1)
	require.NoError(t, err)
	require.Equal(t, "Renamed", got.ItemName)
	require.Equal(t, "https://a.example", got.ActivatedSite)

	all, err := st.LicensesByUser(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)

	// тот же код у другого пользователя — отдельная запись.
	other := newUser("lic2", "lic2@example.com")
	require.NoError(t, st.SaveUser(ctx, other))
	id3, err := st.UpsertLicense(ctx, newLicense(other.ID, "code-1", "100"))
	require.NoError(t, err)
	require.NotEqual(t, id1, id3)
}

func TestIntegration_LicenseFinders(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	ctx := context.Background()

	u := newUser("find", "find@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	idA, err := st.UpsertLicense(ctx, newLicense(u.ID, "code-a", "7"))
	require.NoError(t, err)
	_, err = st.UpsertLicense(ctx, newLicense(u.ID, "code-b", "7"))
	require.NoError(t, err)

	byItem, err := st.LicensesByUserItem(ctx, u.ID, "7")
	require.NoError(t, err)
	require.Len(t, byItem, 2)

	l, err := st.LicenseForActivation(ctx, u.ID, "7", "code-a", "https://s.example")
	require.NoError(t, err)
	require.Equal(t, idA, l.ID)

	require.NoError(t, st.SetActivatedSite(ctx, idA, "https://s.example"))

	l, err = st.LicenseActivatedOn(ctx, u.ID, "7", "https://s.example")
	require.NoError(t, err)
	require.Equal(t, idA, l.ID)

	_, err = st.LicenseForActivation(ctx, u.ID, "7", "code-a", "https://other.example")
	require.ErrorIs(t, err, storage.ErrNotFound)

	l, err = st.ActivatedLicense(ctx, u.ID, "code-a", "7")
	require.NoError(t, err)
	require.Equal(t, idA, l.ID)

	_, err = st.ActivatedLicense(ctx, u.ID, "code-b", "7")
	require.ErrorIs(t, err, storage.ErrNotFound)

	l, err = st.LicenseBySite(ctx, "code-a", "7", []string{"http://s.example", "https://s.example"})
	require.NoError(t, err)
	require.Equal(t, idA, l.ID)

	require.NoError(t, st.SetActivatedSite(ctx, idA, ""))
	_, err = st.LicenseActivatedOn(ctx, u.ID, "7", "https://s.example")
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.ErrorIs(t, st.SetActivatedSite(ctx, 999999, "x"), storage.ErrNotFound)
}

func TestIntegration_SearchLicenses(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	ctx := context.Background()

	u := newUser("search", "search@example.com")
	require.NoError(t, st.SaveUser(ctx, u))
	require.NoError(t, st.SaveProfile(ctx, u.ID, "envato_searcher", nil))

	for _, code := range []string{"alpha-1", "alpha-2", "beta-1"} {
		_, err := st.UpsertLicense(ctx, newLicense(u.ID, code, "55"))
		require.NoError(t, err)
	}

	rows, total, err := st.SearchLicenses(ctx, models.LicenseFilter{Query: "alpha"})
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, rows, 2)
	require.Equal(t, "envato_searcher", rows[0].Username)

	rows, total, err = st.SearchLicenses(ctx, models.LicenseFilter{Query: "searcher", Limit: 1})
	require.NoError(t, err)
	require.Equal(t, 3, total)
	require.Len(t, rows, 1)

	// спецсимволы LIKE экранируются.
	_, total, err = st.SearchLicenses(ctx, models.LicenseFilter{Query: "%"})
	require.NoError(t, err)
	require.Zero(t, total)
}
