package service

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"

	logctx "github.com/common-repository/vatomi/internal/pkg/log"

	"github.com/common-repository/vatomi/internal/marketplace"
	"github.com/common-repository/vatomi/internal/models"
)

// Settings возвращает действующие настройки: значения конфига,
// перекрытые сохранёнными в БД.
func (s *Service) Settings(ctx context.Context) (models.Settings, error) {
	const op = "service.settings.Settings"

	kv, err := s.storage.Settings(ctx)
	if err != nil {
		return models.Settings{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.opts.Defaults.Merge(kv), nil
}

// SaveSettings сохраняет настройки. Только для администратора.
func (s *Service) SaveSettings(ctx context.Context, actor models.Actor, in models.Settings) (models.Settings, error) {
	const op = "service.settings.SaveSettings"

	if actor.Role != models.RoleAdmin {
		return models.Settings{}, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if _, _, err := in.LogRetention.Cutoff(s.now()); err != nil {
		return models.Settings{}, fmt.Errorf("%s: %w", op, &ValidationError{Message: "Invalid log retention value."})
	}

	for _, p := range in.ButtonPlacements {
		if !p.Valid() {
			return models.Settings{}, fmt.Errorf("%s: %w", op, &ValidationError{Message: fmt.Sprintf("Unknown button placement %q.", p)})
		}
	}

	if err := s.storage.SaveSettings(ctx, in.ToKV()); err != nil {
		return models.Settings{}, fmt.Errorf("%s: %w", op, err)
	}

	return s.Settings(ctx)
}

func credentials(st models.Settings) marketplace.Credentials {
	return marketplace.Credentials{ClientID: st.ClientID, ClientSecret: st.SecretKey}
}

// personalSession — сессия маркетплейса от имени автора (personal token).
// Personal token не истекает и не обновляется.
func (s *Service) personalSession(ctx context.Context) (marketplace.API, error) {
	st, err := s.Settings(ctx)
	if err != nil {
		return nil, err
	}

	if !st.APIConfigured() {
		return nil, ErrNotConfigured
	}

	return s.market.Session(credentials(st), models.TokenSet{AccessToken: st.PersonalToken}), nil
}

// ImportCandidate — товар автора для импорта в продукты поддержки.
type ImportCandidate struct {
	Item     models.Item `json:"item"`
	Imported bool        `json:"imported"`
}

func md5hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// authorItems возвращает товары автора, кэшируя список на DiscoveryTTL.
// Ключ кэша зависит от personal token.
func (s *Service) authorItems(ctx context.Context, api marketplace.API, personalToken string) ([]models.Item, error) {
	key := "author_items:" + md5hex(personalToken)

	if raw, ok, err := s.transients.Get(ctx, key); err == nil && ok {
		var items []models.Item
		if err := json.Unmarshal([]byte(raw), &items); err == nil {
			return items, nil
		}
	}

	items, err := api.ItemsByUsername(ctx)
	if err != nil {
		return nil, err
	}

	if b, err := json.Marshal(items); err == nil {
		if err := s.transients.Set(ctx, key, string(b), s.opts.DiscoveryTTL); err != nil {
			logctx.From(ctx).Warn("author_items_cache_failed", "err", err)
		}
	}

	return items, nil
}

// ImportCandidates — товары автора с отметкой, импортирован ли уже каждый.
func (s *Service) ImportCandidates(ctx context.Context, actor models.Actor) ([]ImportCandidate, error) {
	const op = "service.settings.ImportCandidates"

	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	st, err := s.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	api, err := s.personalSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	items, err := s.authorItems(ctx, api, st.PersonalToken)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMarketplace, err)
	}

	ids, err := s.storage.GateItemIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	imported := make(map[string]bool, len(ids))
	for _, id := range ids {
		imported[id] = true
	}

	out := make([]ImportCandidate, 0, len(items))
	for _, it := range items {
		out = append(out, ImportCandidate{Item: it, Imported: imported[it.ID]})
	}

	return out, nil
}

// ImportProducts создаёт продукт поддержки для каждого выбранного товара
// (проверка покупки включена, миниатюра из карточки). Уже импортированные
// товары пропускаются с уведомлением.
func (s *Service) ImportProducts(ctx context.Context, actor models.Actor, itemIDs []string) ([]models.Alert, error) {
	const op = "service.settings.ImportProducts"

	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if len(itemIDs) == 0 {
		return nil, fmt.Errorf("%s: %w", op, &ValidationError{Message: "Select products to import."})
	}

	api, err := s.personalSession(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	gates, err := s.storage.Gates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	existing := make(map[string]models.ProductGate, len(gates))
	for _, g := range gates {
		if g.MarketplaceItemID != "" {
			existing[g.MarketplaceItemID] = g
		}
	}

	var alerts []models.Alert
	for _, id := range itemIDs {
		if g, ok := existing[id]; ok {
			alerts = append(alerts, models.Alert{
				Type: models.AlertInfo,
				Text: fmt.Sprintf("Product: %s[%s] already exist.", g.Name, id),
			})
			continue
		}

		item, err := api.ItemFresh(ctx, id)
		if err != nil {
			logctx.From(ctx).Warn("product_import_failed", "op", op, "item_id", id, "err", err)
			alerts = append(alerts, models.Alert{
				Type: models.AlertError,
				Text: fmt.Sprintf("Product: [%s] was not found.", id),
			})
			continue
		}

		g := &models.ProductGate{
			Name:                item.Name,
			MarketplaceItemID:   item.ID,
			VerificationEnabled: true,
			ThumbnailURL:        item.ThumbnailURL,
		}
		if err := s.storage.SaveGate(ctx, g); err != nil {
			return alerts, fmt.Errorf("%s: %w", op, err)
		}
		existing[id] = *g

		text := fmt.Sprintf("Product: %s[%s] successfully imported.", g.Name, id)
		alerts = append(alerts, models.Alert{Type: models.AlertSuccess, Text: text})
		s.Audit(ctx, text, map[string]any{"gate_id": g.ID, "item_id": id}, models.CategoryProducts, models.AuditLog)
	}

	return alerts, nil
}

