package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/storage"
)

const gateColumns = `id, name, marketplace_item_id, verification_enabled, thumbnail_url, created_at, updated_at`

func scanGate(row pgx.Row) (*models.ProductGate, error) {
	var g models.ProductGate
	if err := row.Scan(
		&g.ID,
		&g.Name,
		&g.MarketplaceItemID,
		&g.VerificationEnabled,
		&g.ThumbnailURL,
		&g.CreatedAt,
		&g.UpdatedAt,
	); err != nil {
		return nil, err
	}

	return &g, nil
}

// Gates возвращает все продукты в порядке имени.
func (s *Storage) Gates(ctx context.Context) ([]models.ProductGate, error) {
	const op = "storage.postgres.Gates"

	rows, err := s.db.Query(ctx, `SELECT `+gateColumns+` FROM product_gates ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.ProductGate
	for rows.Next() {
		g, err := scanGate(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, *g)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return out, nil
}

// GateByID находит продукт по ID.
func (s *Storage) GateByID(ctx context.Context, id int64) (*models.ProductGate, error) {
	const op = "storage.postgres.GateByID"

	g, err := scanGate(s.db.QueryRow(ctx, `SELECT `+gateColumns+` FROM product_gates WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return g, nil
}

// SaveGate создаёт продукт и заполняет ID и таймстемпы.
func (s *Storage) SaveGate(ctx context.Context, g *models.ProductGate) error {
	const op = "storage.postgres.SaveGate"

	query := `
		INSERT INTO product_gates(name, marketplace_item_id, verification_enabled, thumbnail_url)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`

	err := s.db.QueryRow(ctx, query, g.Name, g.MarketplaceItemID, g.VerificationEnabled, g.ThumbnailURL).
		Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// UpdateGate обновляет продукт.
func (s *Storage) UpdateGate(ctx context.Context, g *models.ProductGate) error {
	const op = "storage.postgres.UpdateGate"

	query := `
		UPDATE product_gates
		SET name = $2, marketplace_item_id = $3, verification_enabled = $4, thumbnail_url = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`

	err := s.db.QueryRow(ctx, query, g.ID, g.Name, g.MarketplaceItemID, g.VerificationEnabled, g.ThumbnailURL).
		Scan(&g.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%s: %w", op, storage.ErrNotFound)
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// GateItemIDs возвращает ID товаров, уже привязанных к продуктам.
func (s *Storage) GateItemIDs(ctx context.Context) ([]string, error) {
	const op = "storage.postgres.GateItemIDs"

	rows, err := s.db.Query(ctx, `
		SELECT DISTINCT marketplace_item_id FROM product_gates
		WHERE marketplace_item_id <> ''
		ORDER BY marketplace_item_id
	`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return ids, nil
}
