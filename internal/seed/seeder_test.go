package seed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zfogg/reelgraph/internal/config"
	"github.com/zfogg/reelgraph/internal/container"
	"github.com/zfogg/reelgraph/internal/follow"
	"github.com/zfogg/reelgraph/internal/models"
	"github.com/zfogg/reelgraph/internal/testutil"
	"go.uber.org/zap"
)

func newSeeder(t *testing.T) (*Seeder, *container.Services) {
	db := testutil.NewDB(t)
	svc := container.NewServices(db, config.FeedConfig{MaxLimit: 100}, zap.NewNop(), nil)
	return NewSeeder(db, svc, zap.NewNop()), svc
}

func TestSeedTestGraph(t *testing.T) {
	ctx := context.Background()
	s, svc := newSeeder(t)

	users, err := s.SeedTest(ctx)
	require.NoError(t, err)
	require.Len(t, users, 4)

	state, err := svc.Follows.Relationship(ctx, users["bob"].ID, users["carol"].ID)
	require.NoError(t, err)
	assert.Equal(t, follow.Following, state)

	state, err = svc.Follows.Relationship(ctx, users["dave"].ID, users["carol"].ID)
	require.NoError(t, err)
	assert.Equal(t, follow.Pending, state)

	// alice's two posts are visible to dave, carol's are not
	items, err := svc.Feed.VisibleContentPage(ctx, users["dave"].ID, "seed", 0, 50)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	// a second run reuses the accounts
	again, err := s.SeedTest(ctx)
	require.NoError(t, err)
	assert.Equal(t, users["alice"].ID, again["alice"].ID)
}

func TestSeedDevRespectsVisibility(t *testing.T) {
	ctx := context.Background()
	s, svc := newSeeder(t)

	summary, err := s.SeedDev(ctx, DevOptions{
		Accounts:        12,
		PrivateRatio:    0.5,
		PostsPerAccount: 2,
		Follows:         40,
		Likes:           60,
		Comments:        30,
		Seed:            42,
	})
	require.NoError(t, err)
	assert.Equal(t, 12, summary.Accounts)

	var likes []models.Like
	require.NoError(t, s.db.Find(&likes).Error)
	assert.Len(t, likes, summary.Likes)

	for _, like := range likes {
		var c models.Content
		require.NoError(t, s.db.First(&c, "id = ?", like.ContentID).Error)
		var owner models.Account
		require.NoError(t, s.db.First(&owner, "id = ?", c.OwnerID).Error)
		if owner.ID == like.ActorID || owner.IsPublic() {
			continue
		}
		state, err := svc.Follows.Relationship(ctx, like.ActorID, owner.ID)
		require.NoError(t, err)
		assert.Equal(t, follow.Following, state, "like on private content by a non-follower")
	}
}

func TestClean(t *testing.T) {
	ctx := context.Background()
	s, _ := newSeeder(t)

	_, err := s.SeedTest(ctx)
	require.NoError(t, err)
	require.NoError(t, s.Clean(ctx))

	var n int64
	require.NoError(t, s.db.Model(&models.Account{}).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, s.db.Model(&models.Content{}).Count(&n).Error)
	assert.Zero(t, n)
}
