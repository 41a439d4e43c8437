package models

import (
	"time"

	"gorm.io/gorm"
)

// OAuthClient is a registered back-office API client (kiosk, reporting job).
// Secret holds a bcrypt hash, never the plaintext.
type OAuthClient struct {
	ID         string `gorm:"primaryKey"`
	Secret     string `gorm:"not null"`
	Name       string
	Domain     string
	UserID     uint   // owning admin account; its role flows into issued tokens
	Scopes     string // space-separated: catalog:read orders:read orders:write
	GrantTypes string // only client_credentials is supported
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

func (OAuthClient) TableName() string {
	return "oauth_clients"
}
