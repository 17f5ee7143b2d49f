package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Settings возвращает все сохранённые пары ключ/значение.
func (s *Storage) Settings(ctx context.Context) (map[string]string, error) {
	const op = "storage.postgres.Settings"

	rows, err := s.db.Query(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out[k] = v
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: rows: %w", op, err)
	}

	return out, nil
}

// SaveSettings записывает пары одной транзакцией.
func (s *Storage) SaveSettings(ctx context.Context, kv map[string]string) error {
	const op = "storage.postgres.SaveSettings"

	if len(kv) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for k, v := range kv {
		batch.Queue(`
			INSERT INTO settings(key, value, updated_at) VALUES ($1, $2, now())
			ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()
		`, k, v)
	}

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}
