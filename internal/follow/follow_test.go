package follow_test

import (
	"context"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/follow"
	"github.com/zfogg/reelgraph/internal/metrics"
	"github.com/zfogg/reelgraph/internal/models"
	"github.com/zfogg/reelgraph/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type FollowTestSuite struct {
	suite.Suite
	db      *gorm.DB
	ctx     context.Context
	metrics *metrics.Metrics
	svc     *follow.Service

	alice   *models.Account // private
	bob     *models.Account
	public  *models.Account
	charlie *models.Account
}

func (s *FollowTestSuite) SetupTest() {
	s.db = testutil.NewDB(s.T())
	s.ctx = context.Background()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.svc = follow.NewService(s.db, zap.NewNop(), s.metrics)

	s.alice = testutil.CreateAccount(s.T(), s.db, "alice", models.VisibilityPrivate)
	s.bob = testutil.CreateAccount(s.T(), s.db, "bob", models.VisibilityPrivate)
	s.public = testutil.CreateAccount(s.T(), s.db, "public", models.VisibilityPublic)
	s.charlie = testutil.CreateAccount(s.T(), s.db, "charlie", models.VisibilityPrivate)
}

func TestFollowTestSuite(t *testing.T) {
	suite.Run(t, new(FollowTestSuite))
}

func (s *FollowTestSuite) count(model interface{}) int64 {
	var n int64
	s.Require().NoError(s.db.Model(model).Count(&n).Error)
	return n
}

func (s *FollowTestSuite) requireCode(err error, code apierrors.ErrorCode) {
	s.Require().Error(err)
	s.Equal(code, apierrors.CodeOf(err), err.Error())
}

func (s *FollowTestSuite) TestPrivateLifecycle() {
	state, err := s.svc.RequestFollow(s.ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(follow.Pending, state)

	rel, err := s.svc.Relationship(s.ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(follow.Pending, rel)

	// asking again while pending
	_, err = s.svc.RequestFollow(s.ctx, s.bob.ID, s.alice.ID)
	s.requireCode(err, apierrors.ErrConflict)

	state, err = s.svc.AcceptRequest(s.ctx, s.alice.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(follow.Following, state)
	s.Equal(int64(0), s.count(&models.FollowRequest{}))
	s.Equal(int64(1), s.count(&models.Follow{}))

	// the request is consumed
	_, err = s.svc.AcceptRequest(s.ctx, s.alice.ID, s.bob.ID)
	s.requireCode(err, apierrors.ErrNotFound)

	// asking again while following
	_, err = s.svc.RequestFollow(s.ctx, s.bob.ID, s.alice.ID)
	s.requireCode(err, apierrors.ErrConflict)

	state, err = s.svc.Unfollow(s.ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(follow.None, state)

	_, err = s.svc.Unfollow(s.ctx, s.bob.ID, s.alice.ID)
	s.requireCode(err, apierrors.ErrNotFound)

	s.Equal(1.0, promtest.ToFloat64(s.metrics.FollowTransitionsTotal.WithLabelValues("accept", "ok")))
	s.Equal(1.0, promtest.ToFloat64(s.metrics.FollowTransitionsTotal.WithLabelValues("accept", "NOT_FOUND")))
}

func (s *FollowTestSuite) TestPublicTargetIsFollowedDirectly() {
	state, err := s.svc.RequestFollow(s.ctx, s.bob.ID, s.public.ID)
	s.Require().NoError(err)
	s.Equal(follow.Following, state)
	s.Equal(int64(0), s.count(&models.FollowRequest{}))

	rel, err := s.svc.Relationship(s.ctx, s.bob.ID, s.public.ID)
	s.Require().NoError(err)
	s.Equal(follow.Following, rel)
}

func (s *FollowTestSuite) TestReject() {
	_, err := s.svc.RequestFollow(s.ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)

	state, err := s.svc.RejectRequest(s.ctx, s.alice.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(follow.None, state)

	_, err = s.svc.AcceptRequest(s.ctx, s.alice.ID, s.bob.ID)
	s.requireCode(err, apierrors.ErrNotFound)

	_, err = s.svc.RejectRequest(s.ctx, s.alice.ID, s.bob.ID)
	s.requireCode(err, apierrors.ErrNotFound)

	// a rejected sender may ask again
	state, err = s.svc.RequestFollow(s.ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(follow.Pending, state)
}

func (s *FollowTestSuite) TestCancel() {
	_, err := s.svc.RequestFollow(s.ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)

	state, err := s.svc.CancelRequest(s.ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(follow.None, state)

	_, err = s.svc.AcceptRequest(s.ctx, s.alice.ID, s.bob.ID)
	s.requireCode(err, apierrors.ErrNotFound)
}

func (s *FollowTestSuite) TestOnlyTheReceiverCanAccept() {
	_, err := s.svc.RequestFollow(s.ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)

	// charlie has no request from bob
	_, err = s.svc.AcceptRequest(s.ctx, s.charlie.ID, s.bob.ID)
	s.requireCode(err, apierrors.ErrNotFound)
	s.Equal(int64(1), s.count(&models.FollowRequest{}))
}

func (s *FollowTestSuite) TestSelfAndUnknown() {
	_, err := s.svc.RequestFollow(s.ctx, s.bob.ID, s.bob.ID)
	s.requireCode(err, apierrors.ErrValidation)

	_, err = s.svc.RequestFollow(s.ctx, s.bob.ID, "nobody")
	s.requireCode(err, apierrors.ErrNotFound)

	_, err = s.svc.Relationship(s.ctx, s.bob.ID, "nobody")
	s.requireCode(err, apierrors.ErrNotFound)
}

func (s *FollowTestSuite) TestConcurrentAcceptsCreateOneEdge() {
	_, err := s.svc.RequestFollow(s.ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)

	const workers = 4
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.svc.AcceptRequest(s.ctx, s.alice.ID, s.bob.ID)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		s.Equal(apierrors.ErrNotFound, apierrors.CodeOf(err))
	}
	s.Equal(1, succeeded)
	s.Equal(int64(1), s.count(&models.Follow{}))
	s.Equal(int64(0), s.count(&models.FollowRequest{}))
}

func (s *FollowTestSuite) TestAcceptRollsBackWhenEdgeExists() {
	// corrupt state: both an edge and a request for the same pair
	testutil.CreateFollow(s.T(), s.db, s.bob.ID, s.alice.ID)
	testutil.CreateRequest(s.T(), s.db, s.bob.ID, s.alice.ID)

	_, err := s.svc.AcceptRequest(s.ctx, s.alice.ID, s.bob.ID)
	s.requireCode(err, apierrors.ErrConflict)

	// the request delete was rolled back with the failed insert
	s.Equal(int64(1), s.count(&models.FollowRequest{}))
	s.Equal(int64(1), s.count(&models.Follow{}))
}

func (s *FollowTestSuite) TestPendingSurvivesGoingPublic() {
	_, err := s.svc.RequestFollow(s.ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.db.Model(s.alice).Update("visibility", models.VisibilityPublic).Error)

	rel, err := s.svc.Relationship(s.ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(follow.Pending, rel)
}

func (s *FollowTestSuite) TestListsAndCounts() {
	_, err := s.svc.RequestFollow(s.ctx, s.bob.ID, s.alice.ID)
	s.Require().NoError(err)
	_, err = s.svc.RequestFollow(s.ctx, s.charlie.ID, s.alice.ID)
	s.Require().NoError(err)
	_, err = s.svc.RequestFollow(s.ctx, s.alice.ID, s.public.ID)
	s.Require().NoError(err)

	incoming, err := s.svc.IncomingRequests(s.ctx, s.alice.ID, 0, 10)
	s.Require().NoError(err)
	s.Len(incoming, 2)

	outgoing, err := s.svc.OutgoingRequests(s.ctx, s.bob.ID, 0, 10)
	s.Require().NoError(err)
	s.Require().Len(outgoing, 1)
	s.Equal("alice", outgoing[0].Handle)

	_, err = s.svc.IncomingRequests(s.ctx, s.alice.ID, -1, 10)
	s.requireCode(err, apierrors.ErrValidation)

	followers, following, pending, err := s.svc.Counts(s.ctx, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(int64(0), followers)
	s.Equal(int64(1), following)
	s.Equal(int64(2), pending)
}
