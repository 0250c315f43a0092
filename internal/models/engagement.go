package models

import (
	"time"

	"gorm.io/gorm"
)

// ActionKind identifies what an Action records
type ActionKind string

const (
	ActionLike    ActionKind = "like"
	ActionComment ActionKind = "comment"
)

// Action is the shared envelope for an engagement on a content item.
// Every Like and Comment owns exactly one Action.
type Action struct {
	ID        string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ContentID string     `gorm:"type:varchar(36);not null;index" json:"content_id"`
	ActorID   string     `gorm:"type:varchar(36);not null;index" json:"actor_id"`
	Kind      ActionKind `gorm:"type:varchar(16);not null" json:"kind"`
	CreatedAt time.Time  `json:"created_at"`
}

// Like is a content like; one per (content, actor)
type Like struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ActionID  string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"action_id"`
	ContentID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_likes_content_actor,priority:1" json:"content_id"`
	ActorID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_likes_content_actor,priority:2" json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Comment is either top-level (ParentID nil) or a reply to a top-level
// comment on the same content. Replies never nest further.
type Comment struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	ActionID  string    `gorm:"type:varchar(36);not null;uniqueIndex" json:"action_id"`
	ContentID string    `gorm:"type:varchar(36);not null;index" json:"content_id"`
	AuthorID  string    `gorm:"type:varchar(36);not null;index" json:"author_id"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	ParentID  *string   `gorm:"type:varchar(36);index" json:"parent_id,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// IsReply reports whether c hangs under a top-level comment
func (c *Comment) IsReply() bool {
	return c.ParentID != nil
}

// CommentLike is a like on a comment; one per (comment, actor)
type CommentLike struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	CommentID string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_comment_likes_comment_actor,priority:1" json:"comment_id"`
	ActorID   string    `gorm:"type:varchar(36);not null;uniqueIndex:idx_comment_likes_comment_actor,priority:2" json:"actor_id"`
	CreatedAt time.Time `json:"created_at"`
}

func (a *Action) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = generateUUID()
	}
	return nil
}

func (l *Like) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

func (l *CommentLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = generateUUID()
	}
	return nil
}

// All lists every persisted model in migration order
func All() []interface{} {
	return []interface{}{
		&Account{},
		&AccountProfile{},
		&Follow{},
		&FollowRequest{},
		&Content{},
		&ImageDetail{},
		&ReelDetail{},
		&Action{},
		&Like{},
		&Comment{},
		&CommentLike{},
	}
}
