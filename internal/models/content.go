package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ContentType is the wire name of a media variant
type ContentType string

const (
	ContentTypeImage ContentType = "image"
	ContentTypeReel  ContentType = "reel"
)

// Content is a published media item. Exactly one of Image or Reel is
// present in the store; ResolveMedia turns that into a Media value.
type Content struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	OwnerID   string    `gorm:"type:varchar(36);not null;index:idx_contents_owner_created,priority:1" json:"owner_id"`
	Path      string    `gorm:"not null" json:"path"`
	Caption   string    `gorm:"type:text" json:"caption"`
	CreatedAt time.Time `gorm:"index:idx_contents_owner_created,priority:2;index" json:"created_at"`

	Image *ImageDetail `gorm:"foreignKey:ContentID" json:"-"`
	Reel  *ReelDetail  `gorm:"foreignKey:ContentID" json:"-"`
}

// ImageDetail marks a Content as an image
type ImageDetail struct {
	ContentID string `gorm:"primaryKey;type:varchar(36)" json:"content_id"`
	AltText   string `json:"alt_text,omitempty"`
}

// ReelDetail marks a Content as a reel and carries its duration
type ReelDetail struct {
	ContentID  string `gorm:"primaryKey;type:varchar(36)" json:"content_id"`
	DurationMs int64  `gorm:"not null" json:"duration_ms"`
}

func (c *Content) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = generateUUID()
	}
	return nil
}

// Media is the closed set of content variants. Callers switch on the
// concrete type instead of probing optional columns.
type Media interface {
	Type() ContentType
	isMedia()
}

// Image has no temporal data
type Image struct {
	AltText string `json:"alt_text,omitempty"`
}

// Reel is a short video
type Reel struct {
	Duration time.Duration `json:"-"`
}

func (Image) Type() ContentType { return ContentTypeImage }
func (Image) isMedia()          {}

func (Reel) Type() ContentType { return ContentTypeReel }
func (Reel) isMedia()          {}

// DurationMs is the reel length in whole milliseconds
func (r Reel) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// ContentItem is a Content with its resolved media variant
type ContentItem struct {
	Content Content
	Media   Media
}

// ResolveMedia reads the preloaded extension rows of c. A content with
// neither or both extensions is corrupt.
func ResolveMedia(c *Content) (Media, error) {
	switch {
	case c.Image != nil && c.Reel != nil:
		return nil, fmt.Errorf("content %s has both image and reel details", c.ID)
	case c.Reel != nil:
		return Reel{Duration: time.Duration(c.Reel.DurationMs) * time.Millisecond}, nil
	case c.Image != nil:
		return Image{AltText: c.Image.AltText}, nil
	default:
		return nil, fmt.Errorf("content %s has no media details", c.ID)
	}
}
