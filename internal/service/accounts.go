package service

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	logctx "github.com/common-repository/vatomi/internal/pkg/log"
	"github.com/common-repository/vatomi/internal/pkg/redact"

	"github.com/common-repository/vatomi/internal/marketplace"
	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/storage"
)

const (
	// loginAttempts — сколько раз пробовать суффикс _<random> при занятом логине.
	loginAttempts = 5
	// generatedPasswordLen — длина пароля для аккаунтов, созданных через OAuth.
	generatedPasswordLen = 12

	passwordAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*()"
)

// SyncUserData подтягивает данные маркетплейса в локальный аккаунт с тем же email:
// покупки (не чаще SyncInterval, если не force), имя на маркетплейсе,
// данные аккаунта (имя/фамилия) и текущие токены.
// Если у маркетплейса нет email или аккаунта нет — ничего не делает и возвращает uuid.Nil.
// Ошибки транспорта и API при запросе email возвращаются как ErrMarketplace.
func (s *Service) SyncUserData(ctx context.Context, api marketplace.API, force bool) (uuid.UUID, error) {
	const op = "service.accounts.SyncUserData"
	lg := logctx.From(ctx)

	email, err := api.Email(ctx)
	if err != nil && !errors.Is(err, marketplace.ErrNotFound) {
		return uuid.Nil, fmt.Errorf("%s: %w: %w", op, ErrMarketplace, err)
	}
	if email == "" {
		lg.Debug("sync_user_no_email", "op", op, "err", err)
		return uuid.Nil, nil
	}

	user, err := s.storage.UserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			lg.Debug("sync_user_not_found", "op", op, "email", redact.Email(email))
			return uuid.Nil, nil
		}

		return uuid.Nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.syncPurchases(ctx, api, user.ID, force); err != nil {
		lg.Warn("purchases_sync_failed", "op", op, "user_id", user.ID, "err", err)
	}

	username, err := api.Username(ctx)
	if err != nil {
		lg.Warn("marketplace_username_failed", "op", op, "err", err)
	}

	account, err := api.Account(ctx)
	if err != nil {
		lg.Warn("marketplace_account_failed", "op", op, "err", err)
	}

	if username != "" || len(account) > 0 {
		if err := s.storage.SaveProfile(ctx, user.ID, username, account); err != nil {
			lg.Warn("profile_save_failed", "op", op, "user_id", user.ID, "err", err)
			s.Audit(ctx, "Envato username were not updated", map[string]any{"user_id": user.ID, "error": err.Error()}, models.CategoryOAuth, models.AuditError)
		}
	}

	if len(account) > 0 {
		var acc models.Account
		if err := json.Unmarshal(account, &acc); err == nil && (acc.FirstName != "" || acc.Surname != "") {
			if err := s.storage.UpdateUserName(ctx, user.ID, acc.FirstName, acc.Surname); err != nil {
				lg.Warn("user_name_update_failed", "op", op, "user_id", user.ID, "err", err)
				s.Audit(ctx, "User account details were not updated", map[string]any{"user_id": user.ID, "error": err.Error()}, models.CategoryOAuth, models.AuditError)
			}
		}
	}

	if tok := api.Token(); tok.Complete() {
		if err := s.storage.SaveTokens(ctx, user.ID, tok); err != nil {
			return user.ID, fmt.Errorf("%s: save tokens: %w", op, err)
		}
	}

	return user.ID, nil
}

// ProvisionAccount находит или создаёт локальный аккаунт для владельца сессии
// маркетплейса и синхронизирует его данные. Новый аккаунт получает логин
// по имени на маркетплейсе, случайный пароль и ограниченную роль.
func (s *Service) ProvisionAccount(ctx context.Context, api marketplace.API) (*models.User, error) {
	const op = "service.accounts.ProvisionAccount"
	lg := logctx.From(ctx)

	username, uerr := api.Username(ctx)
	email, eerr := api.Email(ctx)
	if uerr != nil || eerr != nil || username == "" || email == "" {
		s.Audit(ctx, "New Envato user", map[string]any{
			"error":  "marketplace did not return username or email",
			"errors": api.Errors(),
		}, models.CategoryOAuth, models.AuditError)

		return nil, fmt.Errorf("%s: %w: %w", op, ErrMarketplace, errors.Join(uerr, eerr, marketplace.ErrNotFound))
	}

	user, err := s.storage.UserByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrNotFound):
		user, err = s.createCustomer(ctx, username, email)
		if err != nil {
			s.Audit(ctx, "New Envato user", map[string]any{
				"username": username,
				"error":    err.Error(),
			}, models.CategoryOAuth, models.AuditError)

			return nil, fmt.Errorf("%s: %w", op, err)
		}

		s.Audit(ctx, fmt.Sprintf("New Envato user: %s [%s]", user.Login, redact.Email(email)), map[string]any{
			"user_id":  user.ID,
			"username": username,
		}, models.CategoryOAuth, models.AuditLog)
		lg.Info("account_provisioned", "user_id", user.ID, "login", user.Login)
	default:
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.SyncUserData(ctx, api, true); err != nil {
		lg.Warn("sync_user_failed", "op", op, "user_id", user.ID, "err", err)
	}

	return user, nil
}

func (s *Service) createCustomer(ctx context.Context, username, email string) (*models.User, error) {
	login, err := s.uniqueLogin(ctx, username)
	if err != nil {
		return nil, err
	}

	password, err := randomPassword(generatedPasswordLen)
	if err != nil {
		return nil, err
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New(),
		Login:        login,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleCustomer,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: %w", ErrConflict, err)
		}
		return nil, err
	}

	return user, nil
}

// uniqueLogin подбирает свободный логин: сначала base, потом base_<random>.
func (s *Service) uniqueLogin(ctx context.Context, username string) (string, error) {
	base := sanitizeLogin(username)

	candidate := base
	for i := 0; i <= loginAttempts; i++ {
		taken, err := s.storage.LoginExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}

		n, err := rand.Int(rand.Reader, big.NewInt(100000))
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s_%d", base, n.Int64())
	}

	return "", fmt.Errorf("%w: login %q is taken", ErrConflict, base)
}

func sanitizeLogin(username string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(username) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' || r == '-' || r == '.' {
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return "envato_user"
	}

	return b.String()
}

func randomPassword(n int) (string, error) {
	out := make([]byte, n)
	limit := big.NewInt(int64(len(passwordAlphabet)))
	for i := range out {
		v, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = passwordAlphabet[v.Int64()]
	}

	return string(out), nil
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	return string(hash), nil
}

func checkPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// CompleteOAuth проводит возврат с маркетплейса: обмен кода, поиск или
// создание аккаунта, синхронизация. Ошибка означает, что сессию
// устанавливать нельзя.
func (s *Service) CompleteOAuth(ctx context.Context, code string) (*models.User, error) {
	const op = "service.accounts.CompleteOAuth"

	tok, err := s.ExchangeAuthCode(ctx, code)
	if err != nil {
		s.Audit(ctx, "Authorization failed", map[string]any{"error": err.Error()}, models.CategoryOAuth, models.AuditError)
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	api, err := s.Session(ctx, tok)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	user, err := s.ProvisionAccount(ctx, api)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// Login — вход по логину (или email) и паролю.
func (s *Service) Login(ctx context.Context, login, password string) (*models.User, error) {
	const op = "service.accounts.Login"

	login = strings.TrimSpace(login)
	if login == "" || password == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	var (
		user *models.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.storage.UserByEmail(ctx, login)
	} else {
		user, err = s.storage.UserByLogin(ctx, login)
	}
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if !checkPassword(user.PasswordHash, password) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	return user, nil
}

// Actor восстанавливает актора по ID пользователя из сессии.
func (s *Service) Actor(ctx context.Context, userID uuid.UUID) (models.Actor, error) {
	const op = "service.accounts.Actor"

	user, err := s.storage.UserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.Actor{}, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
		}

		return models.Actor{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.Actor{UserID: user.ID, Role: user.Role}, nil
}

// CreateAdmin создаёт администратора (команда vatomi admin create).
func (s *Service) CreateAdmin(ctx context.Context, login, email, password string) (*models.User, error) {
	const op = "service.accounts.CreateAdmin"

	login = strings.TrimSpace(login)
	email = strings.TrimSpace(email)
	if login == "" || email == "" || len(password) < 8 {
		return nil, fmt.Errorf("%s: %w", op, &ValidationError{Message: "login, email and a password of at least 8 characters are required"})
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New(),
		Login:        login,
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.storage.SaveUser(ctx, user); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return nil, fmt.Errorf("%s: %w", op, ErrConflict)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}
