package content_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/zfogg/reelgraph/internal/content"
	"github.com/zfogg/reelgraph/internal/engagement"
	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/models"
	"github.com/zfogg/reelgraph/internal/repository"
	"github.com/zfogg/reelgraph/internal/testutil"
	"github.com/zfogg/reelgraph/internal/visibility"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ContentTestSuite struct {
	suite.Suite
	db     *gorm.DB
	ctx    context.Context
	svc    *content.Service
	policy *visibility.Policy
	alice  *models.Account
	bob    *models.Account
}

func (s *ContentTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.ctx = context.Background()
	s.policy = visibility.NewPolicy(repository.NewAccountRepository(s.db), repository.NewFollowRepository(s.db))
	s.svc = content.NewService(s.db, s.policy, zap.NewNop(), nil)
	s.alice = testutil.CreateAccount(s.T(), s.db, "alice", models.VisibilityPrivate)
	s.bob = testutil.CreateAccount(s.T(), s.db, "bob", models.VisibilityPublic)
}

func TestContentTestSuite(t *testing.T) {
	suite.Run(t, new(ContentTestSuite))
}

func (s *ContentTestSuite) requireCode(err error, code apierrors.ErrorCode) {
	s.Require().Error(err)
	s.Equal(code, apierrors.CodeOf(err), err.Error())
}

func (s *ContentTestSuite) TestPublishReel() {
	item, err := s.svc.Publish(s.ctx, s.alice.ID, content.Draft{
		Path:    "media/r1.mp4",
		Caption: " first ",
		Media:   models.Reel{Duration: 12 * time.Second},
	})
	s.Require().NoError(err)
	s.Equal("first", item.Content.Caption)

	got, err := s.svc.Get(s.ctx, s.alice.ID, item.Content.ID)
	s.Require().NoError(err)
	reel, ok := got.Media.(models.Reel)
	s.Require().True(ok)
	s.Equal(int64(12000), reel.DurationMs())
}

func (s *ContentTestSuite) TestPublishValidation() {
	_, err := s.svc.Publish(s.ctx, s.alice.ID, content.Draft{Path: " ", Media: models.Image{}})
	s.requireCode(err, apierrors.ErrValidation)

	_, err = s.svc.Publish(s.ctx, s.alice.ID, content.Draft{Path: "r.mp4", Media: models.Reel{}})
	s.requireCode(err, apierrors.ErrValidation)

	_, err = s.svc.Publish(s.ctx, s.alice.ID, content.Draft{Path: "x"})
	s.requireCode(err, apierrors.ErrValidation)

	_, err = s.svc.Publish(s.ctx, "nobody", content.Draft{Path: "x.jpg", Media: models.Image{}})
	s.requireCode(err, apierrors.ErrNotFound)

	var n int64
	s.Require().NoError(s.db.Model(&models.Content{}).Count(&n).Error)
	s.Zero(n)
}

func (s *ContentTestSuite) TestGetPrivateIsForbidden() {
	item, err := s.svc.Publish(s.ctx, s.alice.ID, content.Draft{Path: "a.jpg", Media: models.Image{}})
	s.Require().NoError(err)

	_, err = s.svc.Get(s.ctx, s.bob.ID, item.Content.ID)
	s.requireCode(err, apierrors.ErrForbidden)

	_, err = s.svc.Get(s.ctx, s.bob.ID, "missing")
	s.requireCode(err, apierrors.ErrNotFound)
}

func (s *ContentTestSuite) TestDeleteOwnerOnly() {
	item, err := s.svc.Publish(s.ctx, s.bob.ID, content.Draft{Path: "b.jpg", Media: models.Image{AltText: "sunset"}})
	s.Require().NoError(err)

	agg := engagement.NewAggregator(s.db, s.policy, zap.NewNop(), nil)
	_, err = agg.LikeContent(s.ctx, s.alice.ID, item.Content.ID)
	s.Require().NoError(err)

	s.requireCode(s.svc.Delete(s.ctx, s.alice.ID, item.Content.ID), apierrors.ErrForbidden)
	s.Require().NoError(s.svc.Delete(s.ctx, s.bob.ID, item.Content.ID))
	s.requireCode(s.svc.Delete(s.ctx, s.bob.ID, item.Content.ID), apierrors.ErrNotFound)

	var likes int64
	s.Require().NoError(s.db.Model(&models.Like{}).Count(&likes).Error)
	s.Zero(likes)
}
