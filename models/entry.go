package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Entry represents a single journal record owned by one user.
// CreatedAt is server-assigned, never changes after insertion, and is the
// sole ordering key for every listing.
type Entry struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	DetailsMD  *string   `gorm:"type:text" json:"details_md"`
	IsPublic   bool      `gorm:"default:false;index" json:"is_public"`
	IsResolved bool      `gorm:"default:false" json:"is_resolved"`
	IsDeleted  bool      `gorm:"default:false;index" json:"is_deleted"`
	CreatedAt  time.Time `gorm:"index" json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	User       User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE;" json:"-"`
}

// BeforeCreate assigns an opaque id and the creation timestamp.
func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	now := time.Now()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	e.UpdatedAt = now
	return nil
}

// BeforeUpdate refreshes UpdatedAt and keeps CreatedAt immutable.
func (e *Entry) BeforeUpdate(tx *gorm.DB) error {
	e.UpdatedAt = time.Now()
	tx.Statement.Omit("created_at")
	return nil
}
