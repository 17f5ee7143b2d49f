package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// License — локальная запись об одной покупке пользователя.
// Уникальна по паре (PurchaseCode, UserID).
type License struct {
	ID             int64
	UserID         uuid.UUID
	LicenseType    string
	PurchaseCode   string
	ItemID         string
	ItemName       string
	SoldAt         time.Time
	SupportedUntil time.Time
	Amount         string
	SupportAmount  string
	// ActivatedSite — сайт, на котором активирована лицензия; пустая строка — не активирована.
	ActivatedSite string
	// Raw — полный исходный payload покупки.
	Raw       json.RawMessage
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Supported сообщает, действует ли поддержка на момент now.
func (l License) Supported(now time.Time) bool {
	return now.Before(l.SupportedUntil)
}

// Activated сообщает, привязана ли лицензия к сайту.
func (l License) Activated() bool {
	return l.ActivatedSite != ""
}

// LicenseView — представление лицензии для виджета и админки.
type LicenseView struct {
	ID                  int64     `json:"id"`
	UserID              uuid.UUID `json:"user_id"`
	License             string    `json:"license"`
	Code                string    `json:"code"`
	ItemID              string    `json:"item_id"`
	ItemName            string    `json:"item_name"`
	Site                string    `json:"site,omitempty"`
	SoldAt              time.Time `json:"sold_at"`
	SoldAtHuman         string    `json:"sold_at_human"`
	SupportedUntil      time.Time `json:"supported_until"`
	SupportedUntilHuman string    `json:"supported_until_human"`
	Supported           bool      `json:"supported"`
	Amount              string    `json:"amount"`
	SupportAmount       string    `json:"support_amount"`
	UsernameMarketplace string    `json:"username_envato,omitempty"`
}

// LicenseFilter — параметры административного поиска.
type LicenseFilter struct {
	Query  string
	Limit  int
	Offset int
}
