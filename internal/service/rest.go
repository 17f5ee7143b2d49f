package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	logctx "github.com/common-repository/vatomi/internal/pkg/log"

	"github.com/common-repository/vatomi/internal/marketplace"
	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/storage"
)

// Коды ошибок REST-фасада.
const (
	CodeNoIDFound       = "no_id_found"
	CodeNoLicenseFound  = "no_license_found"
	CodeNoSiteFound     = "no_site_found"
	CodeNoSiteActivated = "no_site_activated"
	CodeNoURLFound      = "no_url_found"
	CodeNoVersionFound  = "no_version_found"
	CodeNoValidLicense  = "no_valid_license"
	CodeNoAPIKeys       = "no_api_keys"
)

var (
	errNoAPIKeys       = &FacadeError{Code: CodeNoAPIKeys, Message: "No api keys specified."}
	errNoID            = &FacadeError{Code: CodeNoIDFound, Message: "Provide item ID."}
	errNoURL           = &FacadeError{Code: CodeNoURLFound, Message: "Item URL not found."}
	errNoVersion       = &FacadeError{Code: CodeNoVersionFound, Message: "Item version not found."}
	errNoLicense       = &FacadeError{Code: CodeNoLicenseFound, Message: "Provide purchase code."}
	errNoSite          = &FacadeError{Code: CodeNoSiteFound, Message: "Provide activated site url."}
	errNoSiteActivated = &FacadeError{Code: CodeNoSiteActivated, Message: "Your site was not activated."}
	errNoWPURL         = &FacadeError{Code: CodeNoURLFound, Message: "Item WP URL not found."}
	errNoValidLicense  = &FacadeError{Code: CodeNoValidLicense, Message: "Purchase code no valid."}
)

// facadeSession — сессия от имени автора; без всех трёх ключей — no_api_keys.
func (s *Service) facadeSession(ctx context.Context) (marketplace.API, error) {
	api, err := s.personalSession(ctx)
	if err != nil {
		if errors.Is(err, ErrNotConfigured) {
			return nil, errNoAPIKeys
		}

		return nil, err
	}

	return api, nil
}

// ItemURL — адрес страницы товара на маркетплейсе.
func (s *Service) ItemURL(ctx context.Context, itemID string) (string, error) {
	const op = "service.rest.ItemURL"

	api, err := s.facadeSession(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return "", fmt.Errorf("%s: %w", op, errNoID)
	}

	item, err := api.Item(ctx, itemID)
	if err != nil || item.URL == "" {
		return "", fmt.Errorf("%s: %w", op, errNoURL)
	}

	return item.URL, nil
}

// ItemVersion — версия темы из wordpress_theme_metadata.
func (s *Service) ItemVersion(ctx context.Context, itemID string) (string, error) {
	const op = "service.rest.ItemVersion"

	api, err := s.facadeSession(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	itemID = strings.TrimSpace(itemID)
	if itemID == "" {
		return "", fmt.Errorf("%s: %w", op, errNoID)
	}

	item, err := api.Item(ctx, itemID)
	if err != nil || item.Version == "" {
		return "", fmt.Errorf("%s: %w", op, errNoVersion)
	}

	return item.Version, nil
}

// CheckLicense проверяет код покупки у маркетплейса и возвращает данные продажи.
func (s *Service) CheckLicense(ctx context.Context, code string) (json.RawMessage, error) {
	const op = "service.rest.CheckLicense"

	api, err := s.facadeSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%s: %w", op, errNoLicense)
	}

	sale, err := api.CheckPurchaseCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, errNoValidLicense)
	}

	return sale, nil
}

// WPURLRequest — параметры item_wp_url: либо license+site, либо пара токенов вызывающего.
type WPURLRequest struct {
	ItemID       string
	License      string
	Site         string
	AccessToken  string
	RefreshToken string
}

// ItemWPURL — ссылка на скачивание установочного архива.
//
// Описание:
//   - с токенами вызывающего: они обновляются (без сохранения) и используются напрямую;
//   - иначе ищется лицензия (код, товар), активированная на site или его
//     http/https-двойнике, и берутся токены её владельца с обновлением
//     и сохранением нового токена.
func (s *Service) ItemWPURL(ctx context.Context, req WPURLRequest) (string, error) {
	const op = "service.rest.ItemWPURL"

	if _, err := s.facadeSession(ctx); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	itemID := strings.TrimSpace(req.ItemID)
	if itemID == "" {
		return "", fmt.Errorf("%s: %w", op, errNoID)
	}

	var api marketplace.API
	if req.AccessToken != "" && req.RefreshToken != "" {
		var err error
		api, err = s.Session(ctx, models.TokenSet{AccessToken: req.AccessToken, RefreshToken: req.RefreshToken})
		if err != nil {
			return "", fmt.Errorf("%s: %w", op, err)
		}
		if !api.MaybeRefresh(ctx) && api.Token().Expired(s.now()) {
			logctx.From(ctx).Warn("caller_tokens_unusable", "op", op, "err", sessionError(api))
			return "", fmt.Errorf("%s: %w", op, errNoWPURL)
		}
	} else {
		code := strings.TrimSpace(req.License)
		if code == "" {
			return "", fmt.Errorf("%s: %w", op, errNoLicense)
		}

		site := strings.TrimSpace(req.Site)
		if site == "" {
			return "", fmt.Errorf("%s: %w", op, errNoSite)
		}

		l, err := s.storage.LicenseBySite(ctx, code, itemID, siteTwins(site))
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return "", fmt.Errorf("%s: %w", op, errNoSiteActivated)
			}

			return "", fmt.Errorf("%s: %w", op, err)
		}

		api, err = s.LoadTokensForUser(ctx, l.UserID)
		if err != nil {
			logctx.From(ctx).Warn("owner_tokens_unavailable", "op", op, "license_id", l.ID, "err", err)
			return "", fmt.Errorf("%s: %w", op, errNoWPURL)
		}
	}

	link, err := api.DownloadURL(ctx, itemID)
	if err != nil || link == "" {
		return "", fmt.Errorf("%s: %w", op, errNoWPURL)
	}

	return link, nil
}

// siteTwins — адрес сайта и его вариант с другой схемой (http <-> https).
func siteTwins(site string) []string {
	out := []string{site}

	switch {
	case strings.HasPrefix(site, "https://"):
		out = append(out, "http://"+strings.TrimPrefix(site, "https://"))
	case strings.HasPrefix(site, "http://"):
		out = append(out, "https://"+strings.TrimPrefix(site, "http://"))
	}

	return out
}
