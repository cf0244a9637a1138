package user

import (
	"time"
)

// User represents a registered account.
type User struct {
	ID           string `gorm:"primaryKey;type:text"`
	Name         string `gorm:"not null;type:text"`
	Email        string `gorm:"uniqueIndex;not null;type:text"`
	PasswordHash string `gorm:"not null;type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for the User entity.
func (User) TableName() string {
	return "users"
}

// AccessToken is the persisted record behind an issued bearer token.
// The token is only accepted while this row exists.
type AccessToken struct {
	ID         string `gorm:"primaryKey;type:text"`
	UserID     string `gorm:"index;not null;type:text"`
	Name       string `gorm:"not null;type:text"`
	ExpiresAt  time.Time
	LastUsedAt *time.Time
	CreatedAt  time.Time
}

// TableName returns the table name for the AccessToken entity.
func (AccessToken) TableName() string {
	return "personal_access_tokens"
}

// Claims is the identity extracted from a validated bearer token.
type Claims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	TokenID string `json:"token_id"`
}
