package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	logctx "github.com/common-repository/vatomi/internal/pkg/log"
	"github.com/common-repository/vatomi/internal/pkg/redact"

	"github.com/common-repository/vatomi/internal/marketplace"
	"github.com/common-repository/vatomi/internal/models"
	"github.com/common-repository/vatomi/internal/storage"
)

// Тексты уведомлений действий над лицензиями.
const (
	msgActivateNoData     = "Not enough data for activation."
	msgDeactivateNoData   = "Not enough data for deactivation."
	msgNoPermissions      = "You don't have permissions to do this."
	msgActivateFailed     = "Something went wrong while activation."
	msgDeactivateFailed   = "Something went wrong while deactivation."
	actionActivate        = "activate"
	actionDeactivate      = "deactivate"
	queryAction           = "vatomi_action"
	queryLicenseCode      = "vatomi_license_code"
	queryItemID           = "vatomi_item_id"
	syncMarkerKeyPrefix   = "sync:"
	purchaseTimeLayoutAlt = "2006-01-02 15:04:05"
)

// UpsertFromPurchase создаёт или обновляет запись лицензии по элементу
// списка покупок. Ключ — (код покупки, пользователь); исходный payload
// сохраняется всегда. Неполная покупка даёт *ValidationError.
func (s *Service) UpsertFromPurchase(ctx context.Context, userID uuid.UUID, raw json.RawMessage) (int64, error) {
	const op = "service.licenses.UpsertFromPurchase"

	var p models.Purchase
	if err := json.Unmarshal(raw, &p); err != nil {
		return 0, fmt.Errorf("%s: %w", op, &ValidationError{Message: "purchase payload is malformed"})
	}

	if err := s.validate.Struct(p); err != nil {
		return 0, fmt.Errorf("%s: %w", op, &ValidationError{Message: "purchase is missing fields: " + missingFields(err)})
	}

	soldAt, err := parsePurchaseTime(*p.SoldAt)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, &ValidationError{Message: "purchase sold_at is malformed"})
	}

	supportedUntil, err := parsePurchaseTime(*p.SupportedUntil)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, &ValidationError{Message: "purchase supported_until is malformed"})
	}

	l := &models.License{
		UserID:         userID,
		LicenseType:    *p.License,
		PurchaseCode:   *p.Code,
		ItemID:         p.Item.ID.String(),
		ItemName:       *p.Item.Name,
		SoldAt:         soldAt,
		SupportedUntil: supportedUntil,
		Amount:         p.Amount.String(),
		SupportAmount:  p.SupportAmount.String(),
		Raw:            raw,
	}

	id, err := s.storage.UpsertLicense(ctx, l)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return id, nil
}

func missingFields(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	names := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		ns := fe.Namespace()
		if i := strings.IndexByte(ns, '.'); i >= 0 {
			ns = ns[i+1:]
		}
		names = append(names, ns)
	}

	return strings.Join(names, ", ")
}

func parsePurchaseTime(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}

	t, err := time.Parse(purchaseTimeLayoutAlt, v)
	if err != nil {
		return time.Time{}, err
	}

	return t.UTC(), nil
}

// UpsertPurchases сохраняет список покупок; ошибочный элемент пропускается.
// Возвращает число сохранённых записей.
func (s *Service) UpsertPurchases(ctx context.Context, userID uuid.UUID, raws []json.RawMessage) int {
	const op = "service.licenses.UpsertPurchases"

	n := 0
	for i, raw := range raws {
		if _, err := s.UpsertFromPurchase(ctx, userID, raw); err != nil {
			logctx.From(ctx).Warn("license_upsert_skipped", "op", op, "user_id", userID, "index", i, "err", err)
			continue
		}
		n++
	}

	return n
}

func syncMarkerKey(userID uuid.UUID) string {
	return syncMarkerKeyPrefix + md5hex(userID.String())
}

// syncPurchases забирает покупки и сохраняет их, не чаще SyncInterval
// на пользователя (если не force).
func (s *Service) syncPurchases(ctx context.Context, api marketplace.API, userID uuid.UUID, force bool) error {
	key := syncMarkerKey(userID)

	if force {
		if err := s.transients.Set(ctx, key, "1", s.opts.SyncInterval); err != nil {
			logctx.From(ctx).Warn("sync_marker_failed", "err", err)
		}
	} else {
		ok, err := s.transients.SetNX(ctx, key, "1", s.opts.SyncInterval)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}

	purchases, err := api.Purchases(ctx)
	if err != nil {
		// следующий вызов должен попробовать снова.
		_ = s.transients.Delete(ctx, key)
		return err
	}

	n := s.UpsertPurchases(ctx, userID, purchases)
	logctx.From(ctx).Debug("purchases_synced", "user_id", userID, "received", len(purchases), "saved", n)

	return nil
}

// MaybeFetch обновляет данные пользователя с маркетплейса, если с прошлой
// синхронизации прошло больше SyncInterval или force. ErrNotFound —
// у пользователя нет токенов.
func (s *Service) MaybeFetch(ctx context.Context, userID uuid.UUID, force bool) error {
	const op = "service.licenses.MaybeFetch"

	if !force {
		_, fresh, err := s.transients.Get(ctx, syncMarkerKey(userID))
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if fresh {
			return nil
		}
	}

	api, err := s.LoadTokensForUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := s.SyncUserData(ctx, api, force); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// RefreshData — принудительная синхронизация по запросу пользователя.
func (s *Service) RefreshData(ctx context.Context, actor models.Actor, userID uuid.UUID) error {
	const op = "service.licenses.RefreshData"

	if userID == uuid.Nil {
		userID = actor.UserID
	}
	if !actor.CanEditUser(userID) {
		return fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if err := s.MaybeFetch(ctx, userID, true); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

func (s *Service) toView(l models.License, username string) models.LicenseView {
	now := s.now()

	return models.LicenseView{
		ID:                  l.ID,
		UserID:              l.UserID,
		License:             l.LicenseType,
		Code:                l.PurchaseCode,
		ItemID:              l.ItemID,
		ItemName:            l.ItemName,
		Site:                l.ActivatedSite,
		SoldAt:              l.SoldAt,
		SoldAtHuman:         humanize.RelTime(l.SoldAt, now, "ago", "from now"),
		SupportedUntil:      l.SupportedUntil,
		SupportedUntilHuman: humanize.RelTime(l.SupportedUntil, now, "ago", "from now"),
		Supported:           l.Supported(now),
		Amount:              l.Amount,
		SupportAmount:       l.SupportAmount,
		UsernameMarketplace: username,
	}
}

func (s *Service) marketplaceUsername(ctx context.Context, userID uuid.UUID) string {
	p, err := s.storage.Profile(ctx, userID)
	if err != nil {
		return ""
	}

	return p.Username
}

// ListForUser — лицензии пользователя. Пусто, если актор не может
// редактировать этого пользователя.
func (s *Service) ListForUser(ctx context.Context, actor models.Actor, userID uuid.UUID) ([]models.LicenseView, error) {
	const op = "service.licenses.ListForUser"

	if !actor.CanEditUser(userID) {
		return []models.LicenseView{}, nil
	}

	ls, err := s.storage.LicensesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	username := s.marketplaceUsername(ctx, userID)

	out := make([]models.LicenseView, 0, len(ls))
	for _, l := range ls {
		out = append(out, s.toView(l, username))
	}

	return out, nil
}

// ActivateRequest — данные формы активации.
type ActivateRequest struct {
	// UserID — владелец; uuid.Nil — сам актор.
	UserID   uuid.UUID
	Site     string
	ItemID   string
	Code     string
	Redirect string
}

// DeactivateRequest — данные деактивации.
type DeactivateRequest struct {
	UserID   uuid.UUID
	Code     string
	ItemID   string
	Redirect string
}

func alertOutcome(typ models.AlertType, text string) models.Outcome {
	return models.Outcome{Alert: &models.Alert{Type: typ, Text: text}}
}

// withQuery добавляет параметры к адресу редиректа. Пустой адрес остаётся пустым.
func withQuery(target string, params url.Values) string {
	if target == "" {
		return ""
	}

	u, err := url.Parse(target)
	if err != nil {
		return target
	}

	q := u.Query()
	for k, vs := range params {
		q[k] = vs
	}
	u.RawQuery = q.Encode()

	return u.String()
}

// Activate привязывает лицензию к сайту.
//
// Описание:
//   - без кода: если лицензия (пользователь, товар) уже стоит ровно на site —
//     уведомление об успехе без изменений, иначе тихо ничего не делает;
//   - с кодом: лицензия (пользователь, товар, код) без сайта или с тем же сайтом
//     привязывается к site; иначе ErrConflict.
func (s *Service) Activate(ctx context.Context, actor models.Actor, req ActivateRequest) (models.Outcome, error) {
	const op = "service.licenses.Activate"

	site := strings.TrimSpace(req.Site)
	itemID := strings.TrimSpace(req.ItemID)
	code := strings.TrimSpace(req.Code)

	if site == "" || itemID == "" {
		return alertOutcome(models.AlertError, msgActivateNoData), fmt.Errorf("%s: %w", op, &ValidationError{Message: msgActivateNoData})
	}

	userID := req.UserID
	if userID == uuid.Nil {
		userID = actor.UserID
	}
	if !actor.CanEditUser(userID) {
		return alertOutcome(models.AlertError, msgNoPermissions), fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	if code == "" {
		l, err := s.storage.LicenseActivatedOn(ctx, userID, itemID, site)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return models.Outcome{}, nil
			}

			return models.Outcome{}, fmt.Errorf("%s: %w", op, err)
		}

		out := alertOutcome(models.AlertSuccess, fmt.Sprintf("Activated %s (%s).", site, l.PurchaseCode))
		out.Redirect = activateRedirect(req.Redirect, l.PurchaseCode, itemID)

		return out, nil
	}

	l, err := s.storage.LicenseForActivation(ctx, userID, itemID, code, site)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return alertOutcome(models.AlertError, msgActivateFailed), fmt.Errorf("%s: %w", op, ErrConflict)
		}

		return alertOutcome(models.AlertError, msgActivateFailed), fmt.Errorf("%s: %w", op, err)
	}

	if err := s.storage.SetActivatedSite(ctx, l.ID, site); err != nil {
		return alertOutcome(models.AlertError, msgActivateFailed), fmt.Errorf("%s: %w", op, err)
	}

	text := fmt.Sprintf("Activated %s (%s).", site, code)
	s.Audit(ctx, text, map[string]any{
		"user_id":    userID,
		"item_id":    itemID,
		"license_id": l.ID,
		"site":       site,
	}, models.CategoryLicenses, models.AuditLog)
	logctx.From(ctx).Info("license_activated", "license_id", l.ID, "site", site, "code", redact.PurchaseCode(code))

	out := alertOutcome(models.AlertSuccess, text)
	out.Redirect = activateRedirect(req.Redirect, code, itemID)

	return out, nil
}

func activateRedirect(target, code, itemID string) string {
	return withQuery(target, url.Values{
		queryAction:      {actionActivate},
		queryLicenseCode: {code},
		queryItemID:      {itemID},
	})
}

// Deactivate отвязывает активированную лицензию (пользователь, код, товар) от сайта.
// Если записи нет — ErrNotFound; уведомление об ошибке возвращается,
// только когда задан адрес редиректа.
func (s *Service) Deactivate(ctx context.Context, actor models.Actor, req DeactivateRequest) (models.Outcome, error) {
	const op = "service.licenses.Deactivate"

	code := strings.TrimSpace(req.Code)
	itemID := strings.TrimSpace(req.ItemID)

	if code == "" || itemID == "" {
		return alertOutcome(models.AlertError, msgDeactivateNoData), fmt.Errorf("%s: %w", op, &ValidationError{Message: msgDeactivateNoData})
	}

	userID := req.UserID
	if userID == uuid.Nil {
		userID = actor.UserID
	}
	if !actor.CanEditUser(userID) {
		return alertOutcome(models.AlertError, msgNoPermissions), fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	l, err := s.storage.ActivatedLicense(ctx, userID, code, itemID)
	if err != nil {
		var out models.Outcome
		if req.Redirect != "" {
			out = alertOutcome(models.AlertError, msgDeactivateFailed)
			out.Redirect = deactivateRedirect(req.Redirect, itemID)
		}

		if errors.Is(err, storage.ErrNotFound) {
			return out, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return out, fmt.Errorf("%s: %w", op, err)
	}

	site := l.ActivatedSite
	if err := s.storage.SetActivatedSite(ctx, l.ID, ""); err != nil {
		return alertOutcome(models.AlertError, msgDeactivateFailed), fmt.Errorf("%s: %w", op, err)
	}

	text := fmt.Sprintf("Deactivated %s (%s).", site, code)
	s.Audit(ctx, text, map[string]any{
		"user_id":    userID,
		"item_id":    itemID,
		"license_id": l.ID,
		"site":       site,
	}, models.CategoryLicenses, models.AuditLog)
	logctx.From(ctx).Info("license_deactivated", "license_id", l.ID, "site", site, "code", redact.PurchaseCode(code))

	out := alertOutcome(models.AlertSuccess, text)
	out.Redirect = deactivateRedirect(req.Redirect, itemID)

	return out, nil
}

func deactivateRedirect(target, itemID string) string {
	return withQuery(target, url.Values{
		queryAction: {actionDeactivate},
		queryItemID: {itemID},
	})
}

// ActivationForm — данные формы активации лицензии на сайте.
type ActivationForm struct {
	ItemID   string               `json:"item_id"`
	ItemName string               `json:"item_name"`
	Site     string               `json:"site"`
	Licenses []models.LicenseView `json:"licenses"`
}

// ActivationCandidates — неактивированные лицензии актора на товар
// и название товара (из каталога через personal token, иначе из лицензии).
func (s *Service) ActivationCandidates(ctx context.Context, actor models.Actor, itemID, site string) (*ActivationForm, error) {
	const op = "service.licenses.ActivationCandidates"

	if actor.Anonymous() {
		return nil, fmt.Errorf("%s: %w", op, ErrUnauthenticated)
	}

	itemID = strings.TrimSpace(itemID)
	site = strings.TrimSpace(site)
	if itemID == "" || site == "" {
		return nil, fmt.Errorf("%s: %w", op, &ValidationError{Message: msgActivateNoData})
	}

	ls, err := s.storage.LicensesByUserItem(ctx, actor.UserID, itemID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	form := &ActivationForm{ItemID: itemID, Site: site, Licenses: []models.LicenseView{}}
	username := s.marketplaceUsername(ctx, actor.UserID)
	for _, l := range ls {
		if form.ItemName == "" {
			form.ItemName = l.ItemName
		}
		if l.Activated() {
			continue
		}
		form.Licenses = append(form.Licenses, s.toView(l, username))
	}

	if api, err := s.personalSession(ctx); err == nil {
		if item, err := api.Item(ctx, itemID); err == nil && item.Name != "" {
			form.ItemName = item.Name
		}
	}

	return form, nil
}

// AdminListLicenses — поиск по всем лицензиям. Только для администратора.
func (s *Service) AdminListLicenses(ctx context.Context, actor models.Actor, f models.LicenseFilter) ([]models.LicenseView, int, error) {
	const op = "service.licenses.AdminListLicenses"

	if actor.Role != models.RoleAdmin {
		return nil, 0, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	rows, total, err := s.storage.SearchLicenses(ctx, f)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]models.LicenseView, 0, len(rows))
	for _, r := range rows {
		out = append(out, s.toView(r.License, r.Username))
	}

	return out, total, nil
}

// AdminLicense — одна лицензия с исходным payload покупки.
func (s *Service) AdminLicense(ctx context.Context, actor models.Actor, id int64) (*models.LicenseView, json.RawMessage, error) {
	const op = "service.licenses.AdminLicense"

	if actor.Role != models.RoleAdmin {
		return nil, nil, fmt.Errorf("%s: %w", op, ErrForbidden)
	}

	l, err := s.storage.LicenseByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}

		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}

	v := s.toView(*l, s.marketplaceUsername(ctx, l.UserID))

	return &v, l.Raw, nil
}

