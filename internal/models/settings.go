package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Placement — место, где показывается кнопка входа через маркетплейс.
type Placement string

const (
	PlacementStandardForm  Placement = "standard_form"
	PlacementSupportForm   Placement = "support_form"
	PlacementCommunityForm Placement = "community_form"
)

// Valid сообщает, известно ли место размещения.
func (p Placement) Valid() bool {
	switch p {
	case PlacementStandardForm, PlacementSupportForm, PlacementCommunityForm:
		return true
	}

	return false
}

// Ключи хранилища настроек, сгруппированные по секциям.
const (
	SettingSecretKey         = "envato.secret_key"
	SettingClientID          = "envato.client_id"
	SettingPersonalToken     = "envato.personal_token"
	SettingLicensesPageID    = "licenses.page_id"
	SettingLoggingEnabled    = "logs.enabled"
	SettingLogRetention      = "logs.prune"
	SettingButtonPlacements  = "button.places"
	SettingPostLoginRedirect = "button.redirect_after_login"
)

// DefaultRetention — окно хранения журнала по умолчанию (две недели).
const DefaultRetention Retention = "2wa"

// Settings — типизированные настройки интеграции.
type Settings struct {
	SecretKey         string      `json:"secret_key"`
	ClientID          string      `json:"client_id"`
	PersonalToken     string      `json:"personal_token"`
	LicensesPageID    string      `json:"licenses_page_id"`
	LoggingEnabled    bool        `json:"logging_enabled"`
	LogRetention      Retention   `json:"log_retention"`
	ButtonPlacements  []Placement `json:"button_placements"`
	PostLoginRedirect string      `json:"post_login_redirect"`
}

// OAuthConfigured — заданы ли ключи OAuth-приложения.
func (s Settings) OAuthConfigured() bool {
	return s.SecretKey != "" && s.ClientID != ""
}

// APIConfigured — заданы ли все ключи, нужные REST-фасаду.
func (s Settings) APIConfigured() bool {
	return s.OAuthConfigured() && s.PersonalToken != ""
}

// HasPlacement сообщает, включено ли место размещения кнопки.
func (s Settings) HasPlacement(p Placement) bool {
	for _, v := range s.ButtonPlacements {
		if v == p {
			return true
		}
	}

	return false
}

// ToKV раскладывает настройки в пары ключ/значение для хранилища.
func (s Settings) ToKV() map[string]string {
	places := make([]string, 0, len(s.ButtonPlacements))
	for _, p := range s.ButtonPlacements {
		places = append(places, string(p))
	}

	return map[string]string{
		SettingSecretKey:         s.SecretKey,
		SettingClientID:          s.ClientID,
		SettingPersonalToken:     s.PersonalToken,
		SettingLicensesPageID:    s.LicensesPageID,
		SettingLoggingEnabled:    strconv.FormatBool(s.LoggingEnabled),
		SettingLogRetention:      string(s.LogRetention),
		SettingButtonPlacements:  strings.Join(places, ","),
		SettingPostLoginRedirect: s.PostLoginRedirect,
	}
}

// Merge накладывает сохранённые значения kv поверх s.
// Отсутствующие ключи оставляют значение s без изменений.
func (s Settings) Merge(kv map[string]string) Settings {
	out := s

	if v, ok := kv[SettingSecretKey]; ok {
		out.SecretKey = v
	}
	if v, ok := kv[SettingClientID]; ok {
		out.ClientID = v
	}
	if v, ok := kv[SettingPersonalToken]; ok {
		out.PersonalToken = v
	}
	if v, ok := kv[SettingLicensesPageID]; ok {
		out.LicensesPageID = v
	}
	if v, ok := kv[SettingLoggingEnabled]; ok {
		b, err := strconv.ParseBool(v)
		out.LoggingEnabled = err == nil && b
	}
	if v, ok := kv[SettingLogRetention]; ok {
		out.LogRetention = Retention(v)
	}
	if v, ok := kv[SettingButtonPlacements]; ok {
		out.ButtonPlacements = ParsePlacements(v)
	}
	if v, ok := kv[SettingPostLoginRedirect]; ok {
		out.PostLoginRedirect = v
	}

	return out
}

// ParsePlacements разбирает список мест через запятую, пропуская неизвестные.
func ParsePlacements(raw string) []Placement {
	var out []Placement
	for _, part := range strings.Split(raw, ",") {
		p := Placement(strings.TrimSpace(part))
		if p.Valid() {
			out = append(out, p)
		}
	}

	return out
}

// Retention — окно хранения журнала: "Nda", "Nwa", "Nma" (дни/недели/месяцы назад),
// "false" или пусто — очистка отключена.
type Retention string

// Cutoff возвращает момент, старше которого записи подлежат удалению.
// ok=false означает, что очистка отключена.
func (r Retention) Cutoff(now time.Time) (cutoff time.Time, ok bool, err error) {
	v := strings.TrimSpace(string(r))
	if v == "" || v == "false" {
		return time.Time{}, false, nil
	}

	if len(v) < 3 {
		return time.Time{}, false, fmt.Errorf("retention %q: too short", v)
	}

	unit := v[len(v)-2:]
	n, err := strconv.Atoi(v[:len(v)-2])
	if err != nil || n < 0 {
		return time.Time{}, false, fmt.Errorf("retention %q: bad amount", v)
	}

	switch unit {
	case "da":
		return now.AddDate(0, 0, -n), true, nil
	case "wa":
		return now.AddDate(0, 0, -7*n), true, nil
	case "ma":
		return now.AddDate(0, -n, 0), true, nil
	default:
		return time.Time{}, false, fmt.Errorf("retention %q: unknown unit", v)
	}
}
