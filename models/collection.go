package models

import "time"

// Collection records one daily seed collection. The unique (user_id,
// collect_date) index is the idempotency guard: two concurrent collect
// requests on the same local day cannot both insert a row, so the rollover
// can never be applied twice.
type Collection struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UserID       uint      `gorm:"index:idx_collect_user_date,unique;not null" json:"user_id"`
	CollectDate  string    `gorm:"index:idx_collect_user_date,unique;size:10;not null" json:"collect_date"`
	SeedsAfter   int       `json:"seeds_after"`
	FlowersAfter int       `json:"flowers_after"`
	CreatedAt    time.Time `json:"created_at"`
}
