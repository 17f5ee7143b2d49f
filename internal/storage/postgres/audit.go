package postgres

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/common-repository/vatomi/internal/models"
)

// AppendAudit добавляет запись журнала и заполняет ID/CreatedAt.
func (s *Storage) AppendAudit(ctx context.Context, e *models.AuditEntry) error {
	const op = "storage.postgres.AppendAudit"

	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	var msg []byte
	if len(e.Message) > 0 {
		msg = e.Message
	}

	var id int64
	err := s.db.QueryRow(ctx, `
		INSERT INTO audit_log(type, category, title, message, ip, user_agent, url, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`, string(e.Type), e.Category, e.Title, msg, e.IP, e.UserAgent, e.URL, e.CreatedAt).Scan(&id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	e.ID = strconv.FormatInt(id, 10)

	return nil
}

// AuditEntries возвращает записи по фильтру (новые первыми) и общее число.
func (s *Storage) AuditEntries(ctx context.Context, f models.AuditFilter) ([]models.AuditEntry, int, error) {
	const op = "storage.postgres.AuditEntries"

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := max(f.Offset, 0)

	where := `WHERE ($1 = '' OR type = $1) AND ($2 = '' OR category = $2)`
	args := []any{string(f.Type), f.Category}

	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM audit_log `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	rows, err := s.db.Query(ctx, fmt.Sprintf(`
		SELECT id, type, category, title, message, ip, user_agent, url, created_at
		FROM audit_log %s
		ORDER BY created_at DESC, id DESC
		LIMIT %d OFFSET %d
	`, where, limit, offset), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var (
			e   models.AuditEntry
			id  int64
			typ string
			msg []byte
		)
		if err := rows.Scan(&id, &typ, &e.Category, &e.Title, &msg, &e.IP, &e.UserAgent, &e.URL, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("%s: scan: %w", op, err)
		}
		e.ID = strconv.FormatInt(id, 10)
		e.Type = models.AuditType(typ)
		e.Message = msg
		out = append(out, e)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: rows: %w", op, err)
	}

	return out, total, nil
}

// PruneAudit удаляет не более limit самых старых записей, созданных раньше before.
func (s *Storage) PruneAudit(ctx context.Context, before time.Time, limit int) (int64, error) {
	const op = "storage.postgres.PruneAudit"

	tag, err := s.db.Exec(ctx, `
		DELETE FROM audit_log
		WHERE id IN (
			SELECT id FROM audit_log
			WHERE created_at < $1
			ORDER BY created_at ASC, id ASC
			LIMIT $2
		)
	`, before, limit)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return tag.RowsAffected(), nil
}
