package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	logctx "github.com/common-repository/vatomi/internal/pkg/log"

	"github.com/common-repository/vatomi/internal/marketplace"
	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/storage"
)

// AuthorizeURL — адрес страницы согласия маркетплейса для redirectURI.
func (s *Service) AuthorizeURL(ctx context.Context, redirectURI string) (string, error) {
	const op = "service.bridge.AuthorizeURL"

	st, err := s.Settings(ctx)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	if !st.OAuthConfigured() {
		return "", fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	return s.market.AuthorizeURL(st.ClientID, redirectURI), nil
}

// ExchangeAuthCode обменивает код авторизации на пару токенов.
// Нужны secret key и client id. Отсутствие каждого из токенов в ответе
// даёт отдельную ошибку; обе проверяются.
func (s *Service) ExchangeAuthCode(ctx context.Context, code string) (models.TokenSet, error) {
	const op = "service.bridge.ExchangeAuthCode"

	if code == "" {
		return models.TokenSet{}, fmt.Errorf("%s: %w", op, &ValidationError{Message: "Authorization code is empty."})
	}

	st, err := s.Settings(ctx)
	if err != nil {
		return models.TokenSet{}, fmt.Errorf("%s: %w", op, err)
	}

	if !st.OAuthConfigured() {
		return models.TokenSet{}, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	tok, err := s.market.ExchangeCode(ctx, credentials(st), code)
	if err != nil {
		return models.TokenSet{}, fmt.Errorf("%s: %w: %w", op, ErrMarketplace, err)
	}

	return tok, nil
}

// Session создаёт сессию маркетплейса с токенами tok и ключами из настроек.
func (s *Service) Session(ctx context.Context, tok models.TokenSet) (marketplace.API, error) {
	const op = "service.bridge.Session"

	st, err := s.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !st.OAuthConfigured() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotConfigured)
	}

	return s.market.Session(credentials(st), tok), nil
}

// LoadTokensForUser поднимает сохранённые токены пользователя в сессию
// и при необходимости обновляет access token. Новый токен и срок
// сразу сохраняются. ErrNotFound — у пользователя нет токенов,
// ErrMarketplace — токен истёк, а обновить его не удалось.
func (s *Service) LoadTokensForUser(ctx context.Context, userID uuid.UUID) (marketplace.API, error) {
	const op = "service.bridge.LoadTokensForUser"

	p, err := s.storage.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if p.Tokens.Empty() {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}

	api, err := s.Session(ctx, p.Tokens)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if api.MaybeRefresh(ctx) {
		if err := s.storage.SaveTokens(ctx, userID, api.Token()); err != nil {
			return nil, fmt.Errorf("%s: save refreshed token: %w", op, err)
		}

		logctx.From(ctx).Debug("marketplace_token_refreshed", "user_id", userID)
	} else if api.Token().Expired(s.now()) {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMarketplace, sessionError(api))
	}

	return api, nil
}

// sessionError собирает ошибки сессии маркетплейса в одну.
func sessionError(api marketplace.API) error {
	errs := api.Errors()
	if len(errs) == 0 {
		return errors.New("access token expired and was not refreshed")
	}

	msgs := make([]string, 0, len(errs))
	for _, e := range errs {
		if e.Code != "" {
			msgs = append(msgs, e.Code+": "+e.Message)
			continue
		}
		msgs = append(msgs, e.Message)
	}

	return errors.New(strings.Join(msgs, "; "))
}

// Connected сообщает, сохранены ли у пользователя токены маркетплейса.
func (s *Service) Connected(ctx context.Context, userID uuid.UUID) (bool, error) {
	const op = "service.bridge.Connected"

	if userID == uuid.Nil {
		return false, nil
	}

	p, err := s.storage.Profile(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}

		return false, fmt.Errorf("%s: %w", op, err)
	}

	return !p.Tokens.Empty(), nil
}
