package models

import (
	"time"

	"github.com/google/uuid"
)

// Platforms
const (
	PlatformTikTok = "tiktok"
)

// Credential is a stored third-party OAuth grant, keyed by (user, platform).
type Credential struct {
	UserID          uuid.UUID  `json:"user_id"`
	Platform        string     `json:"platform"`
	AccessToken     string     `json:"-"`
	RefreshToken    *string    `json:"-"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	LastRefreshed   *time.Time `json:"last_refreshed,omitempty"`
	NeedsReconnect  bool       `json:"needs_reconnect"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
