package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Visibility gates who may see an account's content
type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ParseVisibility accepts "public"/"private" in any case
func ParseVisibility(s string) (Visibility, bool) {
	switch Visibility(strings.ToLower(strings.TrimSpace(s))) {
	case VisibilityPublic:
		return VisibilityPublic, true
	case VisibilityPrivate:
		return VisibilityPrivate, true
	}
	return "", false
}

// Account is a registered user. Handle is unique case-insensitively
// (see database.createIndexes); it is stored exactly as entered.
type Account struct {
	ID          string     `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Handle      string     `gorm:"type:varchar(30);not null" json:"handle"`
	DisplayName string     `gorm:"type:varchar(100)" json:"display_name"`
	Bio         string     `gorm:"type:text" json:"bio"`
	Visibility  Visibility `gorm:"type:varchar(10);not null;default:public;index" json:"visibility"`

	Profile *AccountProfile `gorm:"foreignKey:AccountID" json:"profile,omitempty"`

	// GORM fields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPublic reports whether anyone may view this account's content
func (a *Account) IsPublic() bool {
	return a.Visibility == VisibilityPublic
}

// AccountProfile holds presentation attributes. It is written in the same
// transaction as its Account at signup.
type AccountProfile struct {
	AccountID  string `gorm:"primaryKey;type:varchar(36)" json:"account_id"`
	AvatarPath string `json:"avatar_path"`
	Website    string `json:"website"`

	// GORM fields
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate hooks for GORM
func (a *Account) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = generateUUID()
	}
	if a.Visibility == "" {
		a.Visibility = VisibilityPublic
	}
	return nil
}

// Helper function for UUID generation
func generateUUID() string {
	return uuid.New().String()
}
