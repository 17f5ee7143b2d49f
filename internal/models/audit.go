package models

import (
	"encoding/json"
	"time"
)

// AuditType — тип записи журнала.
type AuditType string

const (
	AuditLog     AuditType = "log"
	AuditWarning AuditType = "warning"
	AuditError   AuditType = "error"
)

// Valid сообщает, известен ли тип.
func (t AuditType) Valid() bool {
	switch t {
	case AuditLog, AuditWarning, AuditError:
		return true
	}

	return false
}

// Категории журнала.
const (
	CategoryOAuth    = "oAuth"
	CategoryLicenses = "Licenses"
	CategoryRest     = "Rest"
	CategoryProducts = "Products"
)

// AuditEntry — запись журнала действий.
type AuditEntry struct {
	ID        string          `json:"id"`
	Type      AuditType       `json:"type"`
	Category  string          `json:"category,omitempty"`
	Title     string          `json:"title"`
	Message   json.RawMessage `json:"message,omitempty"`
	IP        string          `json:"ip,omitempty"`
	UserAgent string          `json:"user_agent,omitempty"`
	URL       string          `json:"url,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// AuditFilter — параметры выборки журнала.
type AuditFilter struct {
	Type     AuditType
	Category string
	Limit    int
	Offset   int
}
