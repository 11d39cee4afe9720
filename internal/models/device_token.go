package models

import "time"

// DeviceToken is the persisted, revocable record backing a refresh token.
// Logout and password reset flip Active off; rows are never deleted.
type DeviceToken struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	TokenID    string     `gorm:"size:64;uniqueIndex;not null" json:"token_id"`
	UserAgent  string     `gorm:"size:512" json:"user_agent"`
	IPAddress  string     `gorm:"size:64" json:"ip_address"`
	Active     bool       `gorm:"not null;default:true;index" json:"active"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// Usable reports whether the token can still redeem a refresh request.
func (t DeviceToken) Usable(reference time.Time) bool {
	return t.Active && reference.Before(t.ExpiresAt)
}
