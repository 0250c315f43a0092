package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/reelgraph/internal/database"
	"github.com/zfogg/reelgraph/internal/models"
	"github.com/zfogg/reelgraph/internal/testutil"
	"gorm.io/gorm"
)

func TestMigrateIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	require.NoError(t, database.Migrate(context.Background(), db))
	assert.NoError(t, database.Health(context.Background(), db))
}

func TestHandleUniqueIgnoresCase(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.CreateAccount(t, db, "Alice", models.VisibilityPublic)

	err := db.Create(&models.Account{Handle: "alice"}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestFollowPairUnique(t *testing.T) {
	db := testutil.NewDB(t)
	a := testutil.CreateAccount(t, db, "a", models.VisibilityPublic)
	b := testutil.CreateAccount(t, db, "b", models.VisibilityPublic)
	testutil.CreateFollow(t, db, a.ID, b.ID)

	err := db.Create(&models.Follow{FollowerID: a.ID, FollowedID: b.ID}).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// the reverse direction is a different edge
	assert.NoError(t, db.Create(&models.Follow{FollowerID: b.ID, FollowedID: a.ID}).Error)
}

func TestDefaultVisibilityIsPublic(t *testing.T) {
	db := testutil.NewDB(t)
	a := &models.Account{Handle: "noVis"}
	require.NoError(t, db.Create(a).Error)
	assert.True(t, a.IsPublic())
}
