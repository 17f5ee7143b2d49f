package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/storage"
)

const licenseColumns = `l.id, l.user_id, l.license_type, l.purchase_code, l.item_id, l.item_name,
	l.sold_at, l.supported_until, l.amount, l.support_amount, COALESCE(l.activated_site, ''),
	l.raw, l.created_at, l.updated_at`

func scanLicense(row pgx.Row, extra ...any) (*models.License, error) {
	var l models.License
	var raw []byte

	dest := []any{
		&l.ID,
		&l.UserID,
		&l.LicenseType,
		&l.PurchaseCode,
		&l.ItemID,
		&l.ItemName,
		&l.SoldAt,
		&l.SupportedUntil,
		&l.Amount,
		&l.SupportAmount,
		&l.ActivatedSite,
		&raw,
		&l.CreatedAt,
		&l.UpdatedAt,
	}

	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	l.Raw = raw

	return &l, nil
}

func (s *Storage) oneLicense(ctx context.Context, op, where string, args ...any) (*models.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses l WHERE ` + where + ` ORDER BY l.id LIMIT 1`

	l, err := scanLicense(s.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return l, nil
}

func (s *Storage) manyLicenses(ctx context.Context, op, where string, args ...any) ([]models.License, error) {
	query := `SELECT ` + licenseColumns + ` FROM licenses l WHERE ` + where + ` ORDER BY l.sold_at DESC, l.id`

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.License
	for rows.Next() {
		l, err := scanLicense(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, *l)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return out, nil
}

// UpsertLicense создаёт или обновляет запись по (purchase_code, user_id).
// activated_site при обновлении сохраняется.
func (s *Storage) UpsertLicense(ctx context.Context, l *models.License) (int64, error) {
	const op = "storage.postgres.UpsertLicense"

	query := `
		INSERT INTO licenses(user_id, license_type, purchase_code, item_id, item_name,
			sold_at, supported_until, amount, support_amount, raw)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (purchase_code, user_id) DO UPDATE SET
			license_type    = EXCLUDED.license_type,
			item_id         = EXCLUDED.item_id,
			item_name       = EXCLUDED.item_name,
			sold_at         = EXCLUDED.sold_at,
			supported_until = EXCLUDED.supported_until,
			amount          = EXCLUDED.amount,
			support_amount  = EXCLUDED.support_amount,
			raw             = EXCLUDED.raw,
			updated_at      = now()
		RETURNING id
	`

	var id int64
	err := s.db.QueryRow(ctx, query,
		l.UserID,
		l.LicenseType,
		l.PurchaseCode,
		l.ItemID,
		l.ItemName,
		l.SoldAt,
		l.SupportedUntil,
		l.Amount,
		l.SupportAmount,
		[]byte(l.Raw),
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

// LicenseByID находит запись по ID.
func (s *Storage) LicenseByID(ctx context.Context, id int64) (*models.License, error) {
	return s.oneLicense(ctx, "storage.postgres.LicenseByID", `l.id = $1`, id)
}

// LicensesByUser возвращает все записи пользователя.
func (s *Storage) LicensesByUser(ctx context.Context, userID uuid.UUID) ([]models.License, error) {
	return s.manyLicenses(ctx, "storage.postgres.LicensesByUser", `l.user_id = $1`, userID)
}

// LicensesByUserItem возвращает записи пользователя для товара.
func (s *Storage) LicensesByUserItem(ctx context.Context, userID uuid.UUID, itemID string) ([]models.License, error) {
	return s.manyLicenses(ctx, "storage.postgres.LicensesByUserItem",
		`l.user_id = $1 AND l.item_id = $2`, userID, itemID)
}

// LicenseActivatedOn находит запись (user, item), активированную ровно на site.
func (s *Storage) LicenseActivatedOn(ctx context.Context, userID uuid.UUID, itemID, site string) (*models.License, error) {
	return s.oneLicense(ctx, "storage.postgres.LicenseActivatedOn",
		`l.user_id = $1 AND l.item_id = $2 AND l.activated_site = $3`, userID, itemID, site)
}

// LicenseForActivation находит запись (user, item, code), свободную или уже активированную на site.
func (s *Storage) LicenseForActivation(ctx context.Context, userID uuid.UUID, itemID, code, site string) (*models.License, error) {
	return s.oneLicense(ctx, "storage.postgres.LicenseForActivation",
		`l.user_id = $1 AND l.item_id = $2 AND l.purchase_code = $3
		 AND (l.activated_site IS NULL OR l.activated_site = $4)`, userID, itemID, code, site)
}

// ActivatedLicense находит активированную запись (user, code, item).
func (s *Storage) ActivatedLicense(ctx context.Context, userID uuid.UUID, code, itemID string) (*models.License, error) {
	return s.oneLicense(ctx, "storage.postgres.ActivatedLicense",
		`l.user_id = $1 AND l.purchase_code = $2 AND l.item_id = $3 AND l.activated_site IS NOT NULL`,
		userID, code, itemID)
}

// LicenseBySite находит запись (code, item), активированную на одном из sites.
func (s *Storage) LicenseBySite(ctx context.Context, code, itemID string, sites []string) (*models.License, error) {
	return s.oneLicense(ctx, "storage.postgres.LicenseBySite",
		`l.purchase_code = $1 AND l.item_id = $2 AND l.activated_site = ANY($3)`, code, itemID, sites)
}

// SetActivatedSite выставляет сайт активации; пустая строка сбрасывает его в NULL.
func (s *Storage) SetActivatedSite(ctx context.Context, id int64, site string) error {
	const op = "storage.postgres.SetActivatedSite"

	tag, err := s.db.Exec(ctx, `
		UPDATE licenses SET activated_site = NULLIF($2, ''), updated_at = now()
		WHERE id = $1
	`, id, site)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
	}

	return nil
}

// SearchLicenses — административный поиск с подсчётом общего числа совпадений.
func (s *Storage) SearchLicenses(ctx context.Context, f models.LicenseFilter) ([]storage.LicenseRow, int, error) {
	const op = "storage.postgres.SearchLicenses"

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	where := `TRUE`
	args := []any{}
	if q := strings.TrimSpace(f.Query); q != "" {
		args = append(args, "%"+escapeLike(q)+"%")
		where = `(l.purchase_code ILIKE $1 OR l.item_name ILIKE $1 OR l.item_id ILIKE $1
			OR l.activated_site ILIKE $1 OR l.license_type ILIKE $1 OR m.username ILIKE $1)`
	}

	from := ` FROM licenses l LEFT JOIN user_marketplace m ON m.user_id = l.user_id WHERE ` + where

	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*)`+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	query := fmt.Sprintf(`SELECT %s, COALESCE(m.username, '')%s ORDER BY l.id DESC LIMIT %d OFFSET %d`,
		licenseColumns, from, limit, offset)

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []storage.LicenseRow
	for rows.Next() {
		var username string
		l, err := scanLicense(rows, &username)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, storage.LicenseRow{License: *l, Username: username})
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: rows: %w", op, err)
	}

	return out, total, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
