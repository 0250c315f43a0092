// Package testutil builds throwaway databases and fixtures for tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/zfogg/reelgraph/internal/database"
	"github.com/zfogg/reelgraph/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB returns a migrated in-memory SQLite database private to t.
// The pool is pinned to one connection so every query sees the same
// memory database; code under test must use the tx handle inside
// transactions or it will block.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Connect(sqlite.Open(":memory:"), logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.Migrate(context.Background(), db))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// CreateAccount inserts an account directly, bypassing signup validation
func CreateAccount(t testing.TB, db *gorm.DB, handle string, v models.Visibility) *models.Account {
	t.Helper()
	a := &models.Account{Handle: handle, Visibility: v}
	require.NoError(t, db.Create(a).Error)
	return a
}

// CreateFollow inserts an established follow edge
func CreateFollow(t testing.TB, db *gorm.DB, followerID, followedID string) {
	t.Helper()
	require.NoError(t, db.Create(&models.Follow{FollowerID: followerID, FollowedID: followedID}).Error)
}

// CreateRequest inserts a pending follow request
func CreateRequest(t testing.TB, db *gorm.DB, senderID, receiverID string) {
	t.Helper()
	require.NoError(t, db.Create(&models.FollowRequest{SenderID: senderID, ReceiverID: receiverID}).Error)
}

// CreateImage inserts an image content owned by ownerID
func CreateImage(t testing.TB, db *gorm.DB, ownerID, path string) *models.Content {
	t.Helper()
	c := &models.Content{OwnerID: ownerID, Path: path}
	require.NoError(t, db.Create(c).Error)
	require.NoError(t, db.Create(&models.ImageDetail{ContentID: c.ID}).Error)
	return c
}

// CreateReel inserts a reel content owned by ownerID
func CreateReel(t testing.TB, db *gorm.DB, ownerID, path string, durationMs int64) *models.Content {
	t.Helper()
	c := &models.Content{OwnerID: ownerID, Path: path}
	require.NoError(t, db.Create(c).Error)
	require.NoError(t, db.Create(&models.ReelDetail{ContentID: c.ID, DurationMs: durationMs}).Error)
	return c
}
