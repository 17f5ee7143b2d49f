package models

import "encoding/json"

// Item — карточка товара из каталога маркетплейса.
type Item struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url"`
	// Version — wordpress_theme_metadata.version, если есть.
	Version string `json:"version,omitempty"`
	// Raw — исходный JSON карточки.
	Raw json.RawMessage `json:"-"`
}
