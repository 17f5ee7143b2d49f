package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/storage"
)

const userColumns = `id, login, email, password_hash, role, first_name, last_name, created_at, updated_at`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.Login,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.FirstName,
		&u.LastName,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	u.Role = models.Role(role)

	return &u, nil
}

// SaveUser создает нового пользователя в БД.
func (s *Storage) SaveUser(ctx context.Context, user *models.User) error {
	const op = "storage.postgres.SaveUser"

	query := `
		INSERT INTO users(id, login, email, password_hash, role, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.db.Exec(ctx, query,
		user.ID,
		user.Login,
		user.Email,
		user.PasswordHash,
		string(user.Role),
		user.FirstName,
		user.LastName,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrAlreadyExists)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UserByID находит пользователя по ID.
func (s *Storage) UserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	const op = "storage.postgres.UserByID"

	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// UserByEmail находит пользователя по email (CITEXT, без учёта регистра).
func (s *Storage) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	const op = "storage.postgres.UserByEmail"

	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// UserByLogin находит пользователя по логину.
func (s *Storage) UserByLogin(ctx context.Context, login string) (*models.User, error) {
	const op = "storage.postgres.UserByLogin"

	u, err := scanUser(s.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE login = $1`, login))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return u, nil
}

// LoginExists сообщает, занят ли логин.
func (s *Storage) LoginExists(ctx context.Context, login string) (bool, error) {
	const op = "storage.postgres.LoginExists"

	var exists bool
	if err := s.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE login = $1)`, login).Scan(&exists); err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return exists, nil
}

// UpdateUserName обновляет имя и фамилию.
func (s *Storage) UpdateUserName(ctx context.Context, id uuid.UUID, firstName, lastName string) error {
	const op = "storage.postgres.UpdateUserName"

	tag, err := s.db.Exec(ctx, `
		UPDATE users SET first_name = $2, last_name = $3, updated_at = now()
		WHERE id = $1
	`, id, firstName, lastName)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// Profile возвращает поля маркетплейса пользователя.
func (s *Storage) Profile(ctx context.Context, userID uuid.UUID) (*models.MarketplaceProfile, error) {
	const op = "storage.postgres.Profile"

	query := `
		SELECT user_id, access_token, refresh_token, token_expires_at, username, account, updated_at
		FROM user_marketplace
		WHERE user_id = $1
	`

	var p models.MarketplaceProfile
	var account []byte
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&p.UserID,
		&p.Tokens.AccessToken,
		&p.Tokens.RefreshToken,
		&p.Tokens.ExpiresAt,
		&p.Username,
		&account,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if len(account) > 0 {
		p.Account = json.RawMessage(account)
	}

	return &p, nil
}

// SaveTokens записывает токены. Пустые значения (и nil срок) не затирают сохранённые.
func (s *Storage) SaveTokens(ctx context.Context, userID uuid.UUID, tok models.TokenSet) error {
	const op = "storage.postgres.SaveTokens"

	query := `
		INSERT INTO user_marketplace(user_id, access_token, refresh_token, token_expires_at, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_id) DO UPDATE SET
			access_token     = COALESCE(NULLIF(EXCLUDED.access_token, ''), user_marketplace.access_token),
			refresh_token    = COALESCE(NULLIF(EXCLUDED.refresh_token, ''), user_marketplace.refresh_token),
			token_expires_at = COALESCE(EXCLUDED.token_expires_at, user_marketplace.token_expires_at),
			updated_at       = now()
	`

	if _, err := s.db.Exec(ctx, query, userID, tok.AccessToken, tok.RefreshToken, tok.ExpiresAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// SaveProfile записывает имя пользователя маркетплейса и данные аккаунта.
func (s *Storage) SaveProfile(ctx context.Context, userID uuid.UUID, username string, account json.RawMessage) error {
	const op = "storage.postgres.SaveProfile"

	var acc []byte
	if len(account) > 0 {
		acc = account
	}

	query := `
		INSERT INTO user_marketplace(user_id, username, account, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE SET
			username   = COALESCE(NULLIF(EXCLUDED.username, ''), user_marketplace.username),
			account    = COALESCE(EXCLUDED.account, user_marketplace.account),
			updated_at = now()
	`

	if _, err := s.db.Exec(ctx, query, userID, username, acc); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
