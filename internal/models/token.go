package models

import "time"

// TokenSet — OAuth-состояние одного аккаунта маркетплейса.
//
// Описание:
//   - AccessToken и RefreshToken выставляются вместе либо не выставляются вовсе;
//   - ExpiresAt == nil трактуется как «всегда истёк»: перед следующим
//     авторизованным вызовом токен будет обновлён.
type TokenSet struct {
	// AccessToken — bearer-токен для запросов к API маркетплейса.
	AccessToken string
	// RefreshToken — токен для refresh-гранта.
	RefreshToken string
	// ExpiresAt — момент истечения AccessToken (UTC) или nil.
	ExpiresAt *time.Time
}

// Empty сообщает, что ни одного токена нет.
func (t TokenSet) Empty() bool {
	return t.AccessToken == "" && t.RefreshToken == ""
}

// Complete сообщает, что оба токена на месте.
func (t TokenSet) Complete() bool {
	return t.AccessToken != "" && t.RefreshToken != ""
}

// Expired сообщает, нужно ли обновлять токен на момент now.
func (t TokenSet) Expired(now time.Time) bool {
	return t.ExpiresAt == nil || !now.Before(*t.ExpiresAt)
}
