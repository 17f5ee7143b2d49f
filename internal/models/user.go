package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Role — роль локального пользователя.
type Role string

const (
	// RoleAdmin — администратор: настройки, журнал, импорт продуктов.
	RoleAdmin Role = "admin"
	// RoleCustomer — ограниченная роль для аккаунтов, созданных через OAuth.
	RoleCustomer Role = "customer"
)

// User — локальный аккаунт.
type User struct {
	ID           uuid.UUID
	Login        string
	Email        string
	PasswordHash string
	Role         Role
	FirstName    string
	LastName     string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Actor — аутентифицированный инициатор запроса.
type Actor struct {
	UserID uuid.UUID
	Role   Role
}

// Anonymous сообщает, что запрос пришёл без сессии.
func (a Actor) Anonymous() bool {
	return a.UserID == uuid.Nil
}

// CanEditUser — право актора менять данные пользователя target:
// сам пользователь или администратор.
func (a Actor) CanEditUser(target uuid.UUID) bool {
	if a.Anonymous() || target == uuid.Nil {
		return false
	}

	return a.UserID == target || a.Role == RoleAdmin
}

// Account — данные аккаунта маркетплейса (firstname/surname/country).
type Account struct {
	FirstName string `json:"firstname"`
	Surname   string `json:"surname"`
	Country   string `json:"country"`
	Image     string `json:"image,omitempty"`
	Balance   string `json:"balance,omitempty"`
}

// MarketplaceProfile — поля пользователя, связанные с маркетплейсом.
type MarketplaceProfile struct {
	UserID   uuid.UUID
	Tokens   TokenSet
	Username string
	// Account — исходный JSON данных аккаунта.
	Account   json.RawMessage
	UpdatedAt time.Time
}
