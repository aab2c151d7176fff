// Package models holds the records persisted by the server.
package models

import "time"

type User struct {
	ID           int64
	Email        string
	Username     string
	PasswordHash string
	IsActive     bool
	IsVerified   bool
	RefreshToken *string
	Bio          *string
	AvatarURL    *string
	AvatarKey    *string
	CreatedAt    time.Time
}

// ProfileUpdate carries optional profile changes; nil fields are left untouched.
type ProfileUpdate struct {
	Username  *string
	Bio       *string
	AvatarURL *string
}

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
}
