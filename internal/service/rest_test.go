package service

import (
	"context"
	"encoding/json"
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

var personalTok = models.TokenSet{AccessToken: "personal"}

func requireFacadeCode(t *testing.T, err error, code string) {
	t.Helper()
	var fe *FacadeError
	require.True(t, errors.As(err, &fe), "expected FacadeError, got %v", err)
	require.Equal(t, code, fe.Code)
}

func TestFacade_NoAPIKeys(t *testing.T) {
	f := newFixture(t)
	f.withSettings(map[string]string{models.SettingClientID: "client", models.SettingSecretKey: "secret"})

	_, err := f.svc.ItemURL(context.Background(), "1")
	requireFacadeCode(t, err, CodeNoAPIKeys)

	_, err = f.svc.ItemVersion(context.Background(), "1")
	requireFacadeCode(t, err, CodeNoAPIKeys)

	_, err = f.svc.CheckLicense(context.Background(), "c")
	requireFacadeCode(t, err, CodeNoAPIKeys)

	_, err = f.svc.ItemWPURL(context.Background(), WPURLRequest{ItemID: "1"})
	requireFacadeCode(t, err, CodeNoAPIKeys)
}

func TestItemURL(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())
	f.mp.EXPECT().Session(testCreds, personalTok).Return(f.api).AnyTimes()

	_, err := f.svc.ItemURL(context.Background(), " ")
	requireFacadeCode(t, err, CodeNoIDFound)

	f.api.EXPECT().Item(gomock.Any(), "1").Return(&models.Item{ID: "1", URL: "https://market/item/1"}, nil)
	u, err := f.svc.ItemURL(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, "https://market/item/1", u)

	f.api.EXPECT().Item(gomock.Any(), "2").Return(nil, marketplace.ErrNotFound)
	_, err = f.svc.ItemURL(context.Background(), "2")
	requireFacadeCode(t, err, CodeNoURLFound)
}

func TestItemVersion(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())
	f.mp.EXPECT().Session(testCreds, personalTok).Return(f.api).AnyTimes()

	f.api.EXPECT().Item(gomock.Any(), "1").Return(&models.Item{ID: "1", Version: "2.1.0"}, nil)
	v, err := f.svc.ItemVersion(context.Background(), "1")
	require.NoError(t, err)
	require.Equal(t, "2.1.0", v)

	f.api.EXPECT().Item(gomock.Any(), "2").Return(&models.Item{ID: "2"}, nil)
	_, err = f.svc.ItemVersion(context.Background(), "2")
	requireFacadeCode(t, err, CodeNoVersionFound)
}

func TestCheckLicense(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())
	f.mp.EXPECT().Session(testCreds, personalTok).Return(f.api).AnyTimes()

	_, err := f.svc.CheckLicense(context.Background(), "")
	requireFacadeCode(t, err, CodeNoLicenseFound)

	f.api.EXPECT().CheckPurchaseCode(gomock.Any(), "bad").Return(nil, marketplace.ErrInvalidPurchaseCode)
	_, err = f.svc.CheckLicense(context.Background(), "bad")
	requireFacadeCode(t, err, CodeNoValidLicense)

	sale := json.RawMessage(`{"item":{"id":1},"buyer":"b"}`)
	f.api.EXPECT().CheckPurchaseCode(gomock.Any(), "good").Return(sale, nil)
	got, err := f.svc.CheckLicense(context.Background(), "good")
	require.NoError(t, err)
	require.JSONEq(t, string(sale), string(got))
}

func TestItemWPURL_Validation(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())
	f.mp.EXPECT().Session(testCreds, personalTok).Return(f.api).AnyTimes()

	_, err := f.svc.ItemWPURL(context.Background(), WPURLRequest{})
	requireFacadeCode(t, err, CodeNoIDFound)

	_, err = f.svc.ItemWPURL(context.Background(), WPURLRequest{ItemID: "1", Site: "https://a.io"})
	requireFacadeCode(t, err, CodeNoLicenseFound)

	_, err = f.svc.ItemWPURL(context.Background(), WPURLRequest{ItemID: "1", License: "c"})
	requireFacadeCode(t, err, CodeNoSiteFound)
}

func TestItemWPURL_NotActivated(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())
	f.mp.EXPECT().Session(testCreds, personalTok).Return(f.api)

	f.st.EXPECT().LicenseBySite(gomock.Any(), "c", "1", []string{"https://a.io", "http://a.io"}).Return(nil, storage.ErrNotFound)

	_, err := f.svc.ItemWPURL(context.Background(), WPURLRequest{ItemID: "1", License: "c", Site: "https://a.io"})
	requireFacadeCode(t, err, CodeNoSiteActivated)
}

func TestItemWPURL_OwnerTokens(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())
	owner := uuid.New()

	exp := fixedNow.Add(time.Hour)
	ownerTok := models.TokenSet{AccessToken: "oa", RefreshToken: "or", ExpiresAt: &exp}
	ownerAPI := f.api

	f.mp.EXPECT().Session(testCreds, personalTok).Return(f.api)
	f.st.EXPECT().LicenseBySite(gomock.Any(), "c", "1", []string{"http://a.io", "https://a.io"}).
		Return(&models.License{ID: 5, UserID: owner, ActivatedSite: "https://a.io"}, nil)
	f.st.EXPECT().Profile(gomock.Any(), owner).Return(&models.MarketplaceProfile{UserID: owner, Tokens: ownerTok}, nil)
	f.mp.EXPECT().Session(testCreds, ownerTok).Return(ownerAPI)
	ownerAPI.EXPECT().MaybeRefresh(gomock.Any()).Return(false)
	ownerAPI.EXPECT().Token().Return(ownerTok)
	ownerAPI.EXPECT().DownloadURL(gomock.Any(), "1").Return("https://dl/1.zip", nil)

	link, err := f.svc.ItemWPURL(context.Background(), WPURLRequest{ItemID: "1", License: "c", Site: "http://a.io"})
	require.NoError(t, err)
	require.Equal(t, "https://dl/1.zip", link)
}

func TestItemWPURL_CallerTokens_NotPersisted(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())

	callerTok := models.TokenSet{AccessToken: "ca", RefreshToken: "cr"}

	f.mp.EXPECT().Session(testCreds, personalTok).Return(f.api)
	f.mp.EXPECT().Session(testCreds, callerTok).Return(f.api)
	f.api.EXPECT().MaybeRefresh(gomock.Any()).Return(true)
	f.api.EXPECT().DownloadURL(gomock.Any(), "1").Return("", marketplace.ErrNotFound)

	_, err := f.svc.ItemWPURL(context.Background(), WPURLRequest{ItemID: "1", AccessToken: "ca", RefreshToken: "cr"})
	requireFacadeCode(t, err, CodeNoURLFound)
}

func TestItemWPURL_CallerTokens_RefreshFailed(t *testing.T) {
	f := newFixture(t)
	f.withSettings(configured())

	callerTok := models.TokenSet{AccessToken: "ca", RefreshToken: "revoked"}

	f.mp.EXPECT().Session(testCreds, personalTok).Return(f.api)
	f.mp.EXPECT().Session(testCreds, callerTok).Return(f.api)
	f.api.EXPECT().MaybeRefresh(gomock.Any()).Return(false)
	f.api.EXPECT().Token().Return(callerTok)
	f.api.EXPECT().Errors().Return([]marketplace.Error{{Code: "invalid_grant", Message: "Refresh token revoked"}})

	_, err := f.svc.ItemWPURL(context.Background(), WPURLRequest{ItemID: "1", AccessToken: "ca", RefreshToken: "revoked"})
	requireFacadeCode(t, err, CodeNoURLFound)
}

func TestSiteTwins(t *testing.T) {
	require.Equal(t, []string{"https://a.io", "http://a.io"}, siteTwins("https://a.io"))
	require.Equal(t, []string{"http://a.io", "https://a.io"}, siteTwins("http://a.io"))
	require.Equal(t, []string{"a.io"}, siteTwins("a.io"))
}
