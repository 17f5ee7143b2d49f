package service

import (
	"context"
	"encoding/json"
	"fmt"

	logctx "github.com/common-repository/vatomi/internal/pkg/log"

	"github.com/common-repository/vatomi/internal/models"
)

// RequestMeta — данные запроса, попадающие в журнал.
type RequestMeta struct {
	IP        string
	UserAgent string
	URL       string
}

type metaKey struct{}

// WithRequestMeta кладёт данные запроса в контекст (делает HTTP-middleware).
func WithRequestMeta(ctx context.Context, m RequestMeta) context.Context {
	return context.WithValue(ctx, metaKey{}, m)
}

func requestMetaFrom(ctx context.Context) RequestMeta {
	m, _ := ctx.Value(metaKey{}).(RequestMeta)
	return m
}

const pruneMarkerKey = "audit:prune"

// Audit пишет запись в журнал, если журнал включён в настройках.
// Ошибки записи только логируются.
func (s *Service) Audit(ctx context.Context, title string, message any, category string, typ models.AuditType) {
	const op = "service.audit.Audit"

	st, err := s.Settings(ctx)
	if err != nil {
		logctx.From(ctx).Warn("audit_settings_failed", "op", op, "err", err)
		return
	}
	if !st.LoggingEnabled {
		return
	}

	if !typ.Valid() {
		typ = models.AuditLog
	}

	meta := requestMetaFrom(ctx)
	e := &models.AuditEntry{
		Type:      typ,
		Category:  category,
		Title:     title,
		Message:   encodeMessage(message),
		IP:        meta.IP,
		UserAgent: meta.UserAgent,
		URL:       meta.URL,
		CreatedAt: s.now(),
	}

	if err := s.audit.AppendAudit(ctx, e); err != nil {
		logctx.From(ctx).Warn("audit_append_failed", "op", op, "title", title, "err", err)
	}
}

func encodeMessage(v any) json.RawMessage {
	switch m := v.(type) {
	case nil:
		return nil
	case json.RawMessage:
		return m
	case []byte:
		if json.Valid(m) {
			return m
		}
		v = string(m)
	}

	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}

	return b
}

// MaybePruneAudit удаляет старые записи журнала не чаще, чем раз в PruneInterval.
// Возвращает число удалённых записей.
func (s *Service) MaybePruneAudit(ctx context.Context) (int64, error) {
	const op = "service.audit.MaybePruneAudit"

	ok, err := s.transients.SetNX(ctx, pruneMarkerKey, "1", s.opts.PruneInterval)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return 0, nil
	}

	st, err := s.Settings(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	cutoff, enabled, err := st.LogRetention.Cutoff(s.now())
	if err != nil {
		logctx.From(ctx).Warn("audit_retention_invalid", "op", op, "retention", string(st.LogRetention), "err", err)
		return 0, nil
	}
	if !enabled {
		return 0, nil
	}

	n, err := s.audit.PruneAudit(ctx, cutoff, pruneBatch)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	if n > 0 {
		logctx.From(ctx).Info("audit_pruned", "deleted", n, "before", cutoff)
	}

	return n, nil
}

// AuditEntries — просмотр журнала. Только для администратора.
func (s *Service) AuditEntries(ctx context.Context, actor models.Actor, f models.AuditFilter) ([]models.AuditEntry, int, error) {
	const op = "service.audit.AuditEntries"

	if actor.Role != models.RoleAdmin {
		return nil, 0, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if f.Type != "" && !f.Type.Valid() {
		return nil, 0, fmt.Errorf("%s: %w", op, &ValidationError{Message: "Unknown log type."})
	}

	entries, total, err := s.audit.AuditEntries(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	return entries, total, nil
}
