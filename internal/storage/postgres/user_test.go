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

func newUser(login, email string) *models.User {
	now := time.Now().UTC()
	return &models.User{
		ID:           uuid.New(),
		Login:        login,
		Email:        email,
		PasswordHash: "hash",
		Role:         models.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestIntegration_SaveUser_Lookups(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	ctx := context.Background()

	u := newUser("buyer", "Buyer@Example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	got, err := st.UserByEmail(ctx, "buyer@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, models.RoleCustomer, got.Role)

	got, err = st.UserByLogin(ctx, "buyer")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	ok, err := st.LoginExists(ctx, "buyer")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = st.LoginExists(ctx, "nobody")
	require.NoError(t, err)
	require.False(t, ok)

	_, err = st.UserByID(ctx, uuid.New())
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_SaveUser_Duplicate(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, st.SaveUser(ctx, newUser("a", "same@example.com")))
	err := st.SaveUser(ctx, newUser("b", "SAME@example.com"))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)

	err = st.SaveUser(ctx, newUser("a", "other@example.com"))
	require.ErrorIs(t, err, storage.ErrAlreadyExists)
}

func TestIntegration_UpdateUserName(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	ctx := context.Background()

	u := newUser("named", "named@example.com")
	require.NoError(t, st.SaveUser(ctx, u))
	require.NoError(t, st.UpdateUserName(ctx, u.ID, "Ann", "Lee"))

	got, err := st.UserByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "Ann", got.FirstName)
	require.Equal(t, "Lee", got.LastName)

	require.ErrorIs(t, st.UpdateUserName(ctx, uuid.New(), "x", "y"), storage.ErrNotFound)
}

func TestIntegration_Profile_TokensAndAccount(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()
	ctx := context.Background()

	u := newUser("tok", "tok@example.com")
	require.NoError(t, st.SaveUser(ctx, u))

	_, err := st.Profile(ctx, u.ID)
	require.ErrorIs(t, err, storage.ErrNotFound)

	exp := time.Now().UTC().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, st.SaveTokens(ctx, u.ID, models.TokenSet{AccessToken: "a1", RefreshToken: "r1", ExpiresAt: &exp}))

	p, err := st.Profile(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "a1", p.Tokens.AccessToken)
	require.Equal(t, "r1", p.Tokens.RefreshToken)
	require.NotNil(t, p.Tokens.ExpiresAt)
	require.WithinDuration(t, exp, *p.Tokens.ExpiresAt, time.Second)

	// пустой refresh не затирает сохранённый.
	require.NoError(t, st.SaveTokens(ctx, u.ID, models.TokenSet{AccessToken: "a2"}))
	require.NoError(t, st.SaveProfile(ctx, u.ID, "envato_buyer", json.RawMessage(`{"firstname":"Ann"}`)))

	p, err = st.Profile(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, "a2", p.Tokens.AccessToken)
	require.Equal(t, "r1", p.Tokens.RefreshToken)
	require.Equal(t, "envato_buyer", p.Username)
	require.JSONEq(t, `{"firstname":"Ann"}`, string(p.Account))

	err = st.SaveTokens(ctx, uuid.New(), models.TokenSet{AccessToken: "x", RefreshToken: "y"})
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestIntegration_CanceledContext(t *testing.T) {
	st, cleanup := startPostgres(t)
	defer cleanup()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.UserByID(ctx, uuid.New())
	require.ErrorIs(t, err, context.Canceled)
}
