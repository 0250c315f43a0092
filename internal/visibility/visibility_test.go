package visibility_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/suite"
	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/models"
	"github.com/zfogg/reelgraph/internal/repository"
	"github.com/zfogg/reelgraph/internal/testutil"
	"github.com/zfogg/reelgraph/internal/visibility"
	"gorm.io/gorm"
)

type VisibilityTestSuite struct {
	suite.Suite
	db     *gorm.DB
	ctx    context.Context
	policy *visibility.Policy

	viewer   *models.Account
	public   *models.Account
	private  *models.Account
	followed *models.Account
	pending  *models.Account
}

func (s *VisibilityTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.ctx = context.Background()
	s.policy = visibility.NewPolicy(repository.NewAccountRepository(s.db), repository.NewFollowRepository(s.db))

	s.viewer = testutil.CreateAccount(s.T(), s.db, "viewer", models.VisibilityPrivate)
	s.public = testutil.CreateAccount(s.T(), s.db, "public", models.VisibilityPublic)
	s.private = testutil.CreateAccount(s.T(), s.db, "private", models.VisibilityPrivate)
	s.followed = testutil.CreateAccount(s.T(), s.db, "followed", models.VisibilityPrivate)
	s.pending = testutil.CreateAccount(s.T(), s.db, "pending", models.VisibilityPrivate)

	testutil.CreateFollow(s.T(), s.db, s.viewer.ID, s.followed.ID)
	testutil.CreateRequest(s.T(), s.db, s.viewer.ID, s.pending.ID)
}

func TestVisibilityTestSuite(t *testing.T) {
	suite.Run(t, new(VisibilityTestSuite))
}

func (s *VisibilityTestSuite) TestTruthTable() {
	tests := []struct {
		name  string
		owner *models.Account
		want  bool
	}{
		{"self", s.viewer, true},
		{"public owner", s.public, true},
		{"private, not following", s.private, false},
		{"private, following", s.followed, true},
		{"private, request pending", s.pending, false},
	}

	for _, tc := range tests {
		got, err := s.policy.CanView(s.ctx, s.viewer.ID, tc.owner.ID)
		s.Require().NoError(err, tc.name)
		s.Equal(tc.want, got, tc.name)
	}
}

func (s *VisibilityTestSuite) TestFollowIsDirectional() {
	// followed does not follow viewer back, and viewer is private
	got, err := s.policy.CanView(s.ctx, s.followed.ID, s.viewer.ID)
	s.Require().NoError(err)
	s.False(got)
}

func (s *VisibilityTestSuite) TestUnknownOwner() {
	_, err := s.policy.CanView(s.ctx, s.viewer.ID, "no-such-account")
	s.True(apierrors.Is(err, apierrors.ErrNotFound))

	_, err = s.policy.FilterVisible(s.ctx, s.viewer.ID, []string{s.public.ID, "no-such-account"})
	s.True(apierrors.Is(err, apierrors.ErrNotFound))
	var apiErr *apierrors.APIError
	s.Require().ErrorAs(err, &apiErr)
	s.Equal("no-such-account", apiErr.Details)
}

func (s *VisibilityTestSuite) TestFilterVisible() {
	got, err := s.policy.FilterVisible(s.ctx, s.viewer.ID, []string{
		s.private.ID, s.followed.ID, s.viewer.ID, s.public.ID, s.followed.ID, s.pending.ID,
	})
	s.Require().NoError(err)
	s.Equal([]string{s.followed.ID, s.viewer.ID, s.public.ID}, got)
}

func (s *VisibilityTestSuite) TestRequire() {
	s.NoError(s.policy.Require(s.ctx, s.viewer.ID, s.public.ID))
	err := s.policy.Require(s.ctx, s.viewer.ID, s.private.ID)
	s.True(apierrors.Is(err, apierrors.ErrForbidden))
}

func (s *VisibilityTestSuite) TestScopeMatchesCanView() {
	owners := []*models.Account{s.viewer, s.public, s.private, s.followed, s.pending}
	for _, o := range owners {
		testutil.CreateImage(s.T(), s.db, o.ID, o.Handle+".jpg")
	}

	var visibleOwners []string
	err := s.db.Model(&models.Content{}).
		Scopes(s.policy.Scope(s.viewer.ID)).
		Pluck("owner_id", &visibleOwners).Error
	s.Require().NoError(err)

	for _, o := range owners {
		can, err := s.policy.CanView(s.ctx, s.viewer.ID, o.ID)
		s.Require().NoError(err)
		s.Equal(can, contains(visibleOwners, o.ID), o.Handle)
	}
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
