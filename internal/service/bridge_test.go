package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/common-repository/vatomi/internal/marketplace"
	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/storage"
)

func TestExchangeAuthCode_NotConfigured(t *testing.T) {
	f := newFixture(t)
	f.withSettings(map[string]string{models.SettingClientID: "client"})

	_, err := f.svc.ExchangeAuthCode(context.Background(), "code")
	require.ErrorIs(t, err, ErrNotConfigured)
}

func TestExchangeAuthCode_EmptyCode(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ExchangeAuthCode(context.Background(), "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestExchangeAuthCode_OK(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())

	exp := fixedNow.Add(time.Hour)
	want := models.TokenSet{AccessToken: "a", RefreshToken: "r", ExpiresAt: &exp}
	f.mp.EXPECT().ExchangeCode(gomock.Any(), testCreds, "code").Return(want, nil)

	got, err := f.svc.ExchangeAuthCode(context.Background(), "code")
	require.NoError(t, err)
	require.Equal(t, want, got)
}

func TestExchangeAuthCode_BothTokensMissing(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())

	f.mp.EXPECT().ExchangeCode(gomock.Any(), testCreds, "code").
		Return(models.TokenSet{}, errors.Join(marketplace.ErrBadAccessToken, marketplace.ErrBadRefreshToken))

	_, err := f.svc.ExchangeAuthCode(context.Background(), "code")
	require.ErrorIs(t, err, ErrMarketplace)
	require.ErrorIs(t, err, marketplace.ErrBadAccessToken)
	require.ErrorIs(t, err, marketplace.ErrBadRefreshToken)
}

func TestAuthorizeURL(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())

	f.mp.EXPECT().AuthorizeURL("client", "https://site/oauth/callback").Return("https://api/authorization?x")

	u, err := f.svc.AuthorizeURL(context.Background(), "https://site/oauth/callback")
	require.NoError(t, err)
	require.Equal(t, "https://api/authorization?x", u)
}

func TestLoadTokensForUser_NoProfile(t *testing.T) {
	f := newFixture(t)
	uid := uuid.New()

	f.st.EXPECT().Profile(gomock.Any(), uid).Return(nil, storage.ErrNotFound)

	_, err := f.svc.LoadTokensForUser(context.Background(), uid)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadTokensForUser_EmptyTokens(t *testing.T) {
	f := newFixture(t)
	uid := uuid.New()

	f.st.EXPECT().Profile(gomock.Any(), uid).Return(&models.MarketplaceProfile{UserID: uid}, nil)

	_, err := f.svc.LoadTokensForUser(context.Background(), uid)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestLoadTokensForUser_RefreshedTokenIsPersisted(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())
	uid := uuid.New()

	old := models.TokenSet{AccessToken: "old", RefreshToken: "r"}
	exp := fixedNow.Add(time.Hour)
	fresh := models.TokenSet{AccessToken: "new", RefreshToken: "r", ExpiresAt: &exp}

	f.st.EXPECT().Profile(gomock.Any(), uid).Return(&models.MarketplaceProfile{UserID: uid, Tokens: old}, nil)
	f.mp.EXPECT().Session(testCreds, old).Return(f.api)
	f.api.EXPECT().MaybeRefresh(gomock.Any()).Return(true)
	f.api.EXPECT().Token().Return(fresh)
	f.st.EXPECT().SaveTokens(gomock.Any(), uid, fresh).Return(nil)

	api, err := f.svc.LoadTokensForUser(context.Background(), uid)
	require.NoError(t, err)
	require.Equal(t, f.api, api)
}

func TestLoadTokensForUser_NotRefreshed_NoWrite(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())
	uid := uuid.New()

	exp := fixedNow.Add(time.Hour)
	tok := models.TokenSet{AccessToken: "a", RefreshToken: "r", ExpiresAt: &exp}

	f.st.EXPECT().Profile(gomock.Any(), uid).Return(&models.MarketplaceProfile{UserID: uid, Tokens: tok}, nil)
	f.mp.EXPECT().Session(testCreds, tok).Return(f.api)
	f.api.EXPECT().MaybeRefresh(gomock.Any()).Return(false)
	f.api.EXPECT().Token().Return(tok)

	_, err := f.svc.LoadTokensForUser(context.Background(), uid)
	require.NoError(t, err)
}

func TestLoadTokensForUser_RefreshFailed_ExpiredToken(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())
	uid := uuid.New()

	past := fixedNow.Add(-time.Minute)
	tok := models.TokenSet{AccessToken: "a", RefreshToken: "revoked", ExpiresAt: &past}

	f.st.EXPECT().Profile(gomock.Any(), uid).Return(&models.MarketplaceProfile{UserID: uid, Tokens: tok}, nil)
	f.mp.EXPECT().Session(testCreds, tok).Return(f.api)
	f.api.EXPECT().MaybeRefresh(gomock.Any()).Return(false)
	f.api.EXPECT().Token().Return(tok)
	f.api.EXPECT().Errors().Return([]marketplace.Error{{Code: "invalid_grant", Message: "Refresh token revoked"}})

	api, err := f.svc.LoadTokensForUser(context.Background(), uid)
	require.ErrorIs(t, err, ErrMarketplace)
	require.ErrorContains(t, err, "Refresh token revoked")
	require.Nil(t, api)
}

func TestConnected(t *testing.T) {
	f := newFixture(t)
	uid := uuid.New()

	ok, err := f.svc.Connected(context.Background(), uuid.Nil)
	require.NoError(t, err)
	require.False(t, ok)

	f.st.EXPECT().Profile(gomock.Any(), uid).Return(&models.MarketplaceProfile{Tokens: models.TokenSet{AccessToken: "a", RefreshToken: "r"}}, nil)
	ok, err = f.svc.Connected(context.Background(), uid)
	require.NoError(t, err)
	require.True(t, ok)

	f.st.EXPECT().Profile(gomock.Any(), uid).Return(nil, storage.ErrNotFound)
	ok, err = f.svc.Connected(context.Background(), uid)
	require.NoError(t, err)
	require.False(t, ok)
}
