package models

import "time"

// ProductGate — продукт (категория поддержки), доступ к которому
// может требовать подтверждённой покупки на маркетплейсе.
type ProductGate struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	MarketplaceItemID   string    `json:"marketplace_item_id"`
	VerificationEnabled bool      `json:"license_verification_enabled"`
	ThumbnailURL        string    `json:"thumbnail_url,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}
