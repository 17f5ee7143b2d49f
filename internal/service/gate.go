package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	logctx "github.com/common-repository/vatomi/internal/pkg/log"

	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/storage"
)

// Тексты проверки формы тикета.
const (
	msgSelectProduct  = "Please select product"
	msgPurchasesEmpty = "Your purchase list is empty. You should purchase this product to get support."
	msgNotPurchased   = "You should purchase this product to get support."
	msgSupportExpired = "Support Expired"

	supportExpiredSuffix = " (support expired)"
)

// licensesByItem группирует лицензии актора по товару; порядок внутри группы сохраняется.
func (s *Service) licensesByItem(ctx context.Context, actor models.Actor) (map[string][]models.License, int, error) {
	if actor.Anonymous() {
		return map[string][]models.License{}, 0, nil
	}

	ls, err := s.storage.LicensesByUser(ctx, actor.UserID)
	if err != nil {
		return nil, 0, err
	}

	out := make(map[string][]models.License)
	for _, l := range ls {
		out[l.ItemID] = append(out[l.ItemID], l)
	}

	return out, len(ls), nil
}

// FilterProducts убирает из списка продукты с проверкой покупки, на которые
// у актора нет лицензии. Для каждой истёкшей лицензии, встреченной до
// действующей, к названию добавляется " (support expired)".
// Продукты без проверки не меняются.
func (s *Service) FilterProducts(ctx context.Context, actor models.Actor, gates []models.ProductGate) ([]models.ProductGate, error) {
	const op = "service.gate.FilterProducts"

	if !actor.Anonymous() {
		if err := s.MaybeFetch(ctx, actor.UserID, false); err != nil && !errors.Is(err, ErrNotFound) {
			logctx.From(ctx).Warn("maybe_fetch_failed", "op", op, "user_id", actor.UserID, "err", err)
		}
	}

	byItem, _, err := s.licensesByItem(ctx, actor)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	now := s.now()
	out := make([]models.ProductGate, 0, len(gates))
	for _, g := range gates {
		if !g.VerificationEnabled {
			out = append(out, g)
			continue
		}

		ls := byItem[g.MarketplaceItemID]
		if len(ls) == 0 {
			continue
		}

		if !anySupported(ls, now) {
			g.Name += supportExpiredSuffix
		}
		out = append(out, g)
	}

	return out, nil
}

func anySupported(ls []models.License, now time.Time) bool {
	for _, l := range ls {
		if l.Supported(now) {
			return true
		}
	}

	return false
}

// ListProducts — продукты поддержки, доступные актору.
func (s *Service) ListProducts(ctx context.Context, actor models.Actor) ([]models.ProductGate, error) {
	const op = "service.gate.ListProducts"

	gates, err := s.storage.Gates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out, err := s.FilterProducts(ctx, actor, gates)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return out, nil
}

// ValidateSubmission повторно проверяет на сервере, может ли актор
// открыть тикет по продукту productID.
func (s *Service) ValidateSubmission(ctx context.Context, actor models.Actor, productID int64) error {
	const op = "service.gate.ValidateSubmission"

	if productID <= 0 {
		return fmt.Errorf("%s: %w", op, &ValidationError{Message: msgSelectProduct})
	}

	g, err := s.storage.GateByID(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%s: %w", op, &ValidationError{Message: msgSelectProduct})
		}

		return fmt.Errorf("%s: %w", op, err)
	}

	if !g.VerificationEnabled {
		return nil
	}

	byItem, total, err := s.licensesByItem(ctx, actor)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if total == 0 {
		return fmt.Errorf("%s: %w", op, &ValidationError{Message: msgPurchasesEmpty})
	}

	ls := byItem[g.MarketplaceItemID]
	if len(ls) == 0 {
		return fmt.Errorf("%s: %w", op, &ValidationError{Message: msgNotPurchased})
	}

	if anySupported(ls, s.now()) {
		return nil
	}

	return fmt.Errorf("%s: %w", op, &ValidationError{Message: msgSupportExpired})
}

// AdminGates — все продукты без фильтрации. Только для администратора.
func (s *Service) AdminGates(ctx context.Context, actor models.Actor) ([]models.ProductGate, error) {
	const op = "service.gate.AdminGates"

	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	gates, err := s.storage.Gates(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return gates, nil
}

// GateUpdate — изменяемые поля продукта.
type GateUpdate struct {
	Name                *string `json:"name"`
	MarketplaceItemID   *string `json:"marketplace_item_id"`
	VerificationEnabled *bool   `json:"license_verification_enabled"`
}

// UpdateGate меняет привязку продукта к товару и флаг проверки покупки.
func (s *Service) UpdateGate(ctx context.Context, actor models.Actor, id int64, upd GateUpdate) (*models.ProductGate, error) {
	const op = "service.gate.UpdateGate"

	if actor.Role != models.RoleAdmin {
		return nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	g, err := s.storage.GateByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if name == "" {
			return nil, fmt.Errorf("%s: %w", op, &ValidationError{Message: "Product name is required."})
		}
		g.Name = name
	}
	if upd.MarketplaceItemID != nil {
		g.MarketplaceItemID = strings.TrimSpace(*upd.MarketplaceItemID)
	}
	if upd.VerificationEnabled != nil {
		g.VerificationEnabled = *upd.VerificationEnabled
	}

	if g.VerificationEnabled && g.MarketplaceItemID == "" {
		return nil, fmt.Errorf("%s: %w", op, &ValidationError{Message: "Marketplace item ID is required when verification is enabled."})
	}

	if err := s.storage.UpdateGate(ctx, g); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.Audit(ctx, fmt.Sprintf("Product updated: %s[%d]", g.Name, g.ID), g, models.CategoryProducts, models.AuditLog)

	return g, nil
}
