package models

import "time"

// School is the tenant boundary: every scoped row carries its ID.
type School struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Name       string    `gorm:"size:255;not null" json:"name"`
	Address    string    `gorm:"size:512" json:"address"`
	Phone      string    `gorm:"size:32" json:"phone"`
	Email      string    `gorm:"size:255" json:"email"`
	IsVerified bool      `gorm:"not null;default:false" json:"is_verified"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
