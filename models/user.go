package models

import (
	"time"

	"gorm.io/gorm"
)

// User holds one identity and its journal profile. Passwords are stored as
// bcrypt hashes only. The display name (Username) is unique across all
// identities and is auto-provisioned from the email local part on sign-up.
//
// Seeds stay in [0,6]; every seventh seed rolls over into a flower. The
// rollover is applied inside the collection transaction, never client-side.
type User struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Email         string    `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash  string    `gorm:"size:255" json:"-"`
	Username      string    `gorm:"size:64;uniqueIndex;not null" json:"username"`
	Seeds         int       `gorm:"default:0" json:"seeds"`
	Flowers       int       `gorm:"default:0" json:"flowers"`
	LastCollected string    `gorm:"size:10" json:"last_collected"` // YYYY-MM-DD, empty = never
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Entries       []Entry   `json:"-"`
}

// BeforeCreate hook ensures timestamps are set even when not provided.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	now := time.Now()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	return nil
}

// BeforeUpdate ensures the UpdatedAt timestamp is refreshed.
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	u.UpdatedAt = time.Now()
	return nil
}
