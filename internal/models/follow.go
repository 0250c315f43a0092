package models

import (
	"time"

	"gorm.io/gorm"
)

// Follow is an established follow edge. The (follower, followed) pair is
// unique; a concurrent duplicate insert fails with gorm.ErrDuplicatedKey.
type Follow struct {
	ID         string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	FollowerID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_follows_pair,priority:1" json:"follower_id"`
	FollowedID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_follows_pair,priority:2;index" json:"followed_id"`

	CreatedAt time.Time `json:"created_at"`
}

// FollowRequest is a pending request to follow a private account.
// Its existence is the pending state; accept and reject both delete it.
type FollowRequest struct {
	ID         string `gorm:"primaryKey;type:varchar(36)" json:"id"`
	SenderID   string `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_requests_pair,priority:1" json:"sender_id"`
	ReceiverID string `gorm:"type:varchar(36);not null;uniqueIndex:idx_follow_requests_pair,priority:2;index" json:"receiver_id"`

	CreatedAt time.Time `json:"created_at"`
}

func (f *Follow) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = generateUUID()
	}
	return nil
}

func (r *FollowRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = generateUUID()
	}
	return nil
}
