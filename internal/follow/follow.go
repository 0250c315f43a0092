// Package follow implements the follow state machine between two accounts.
//
// For an ordered pair (A, B) the state is None, Pending (A asked to follow
// private B) or Following. Races between concurrent transitions are settled
// by the unique indexes on follows and follow_requests and by affected-row
// counts; there are no application locks.
package follow

import (
	"context"

	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/logger"
	"github.com/zfogg/reelgraph/internal/metrics"
	"github.com/zfogg/reelgraph/internal/repository"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("reelgraph/follow")

// State of an ordered (actor, target) pair
type State string

const (
	None      State = "none"
	Pending   State = "pending"
	Following State = "following"
)

// Service runs follow transitions
type Service struct {
	db       *gorm.DB
	accounts repository.AccountRepository
	follows  repository.FollowRepository
	log      *zap.Logger
	metrics  *metrics.Metrics
}

// NewService creates a follow service. m may be nil.
func NewService(db *gorm.DB, log *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		db:       db,
		accounts: repository.NewAccountRepository(db),
		follows:  repository.NewFollowRepository(db),
		log:      log,
		metrics:  m,
	}
}

// RequestFollow starts following targetID. A public target is followed
// immediately; a private one gets a pending request.
func (s *Service) RequestFollow(ctx context.Context, actorID, targetID string) (State, error) {
	ctx, span := s.startSpan(ctx, "follow.RequestFollow", actorID, targetID)
	defer span.End()

	if actorID == targetID {
		return None, s.done("request", actorID, targetID, None, apierrors.ValidationError("target_id", "cannot follow yourself"))
	}

	state := None
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts := s.accounts.WithTx(tx)
		follows := s.follows.WithTx(tx)

		if _, err := accounts.Get(ctx, actorID); err != nil {
			return err
		}
		target, err := accounts.Get(ctx, targetID)
		if err != nil {
			return err
		}

		// Requests only ever become follows, never the reverse. Reading the
		// request first means an accept committing between the two reads is
		// still seen by the second one.
		pending, err := follows.HasRequest(ctx, actorID, targetID)
		if err != nil {
			return err
		}
		if pending {
			return apierrors.Conflict("follow request already pending")
		}
		following, err := follows.IsFollowing(ctx, actorID, targetID)
		if err != nil {
			return err
		}
		if following {
			return apierrors.Conflict("already following this account")
		}

		if target.IsPublic() {
			if err := follows.CreateFollow(ctx, actorID, targetID); err != nil {
				return err
			}
			state = Following
			return nil
		}
		if err := follows.CreateRequest(ctx, actorID, targetID); err != nil {
			return err
		}
		state = Pending
		return nil
	})
	if err != nil {
		return None, s.done("request", actorID, targetID, None, err)
	}
	return state, s.done("request", actorID, targetID, state, nil)
}

// AcceptRequest turns senderID's pending request to receiverID into a
// follow edge. Both writes commit together or not at all; a request that
// is already gone (accepted, rejected or cancelled) is NotFound.
func (s *Service) AcceptRequest(ctx context.Context, receiverID, senderID string) (State, error) {
	ctx, span := s.startSpan(ctx, "follow.AcceptRequest", senderID, receiverID)
	defer span.End()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		follows := s.follows.WithTx(tx)

		removed, err := follows.DeleteRequest(ctx, senderID, receiverID)
		if err != nil {
			return err
		}
		if removed == 0 {
			return apierrors.NotFound("follow request")
		}
		return follows.CreateFollow(ctx, senderID, receiverID)
	})
	if err != nil {
		return None, s.done("accept", senderID, receiverID, None, err)
	}
	return Following, s.done("accept", senderID, receiverID, Following, nil)
}

// RejectRequest drops senderID's pending request to receiverID
func (s *Service) RejectRequest(ctx context.Context, receiverID, senderID string) (State, error) {
	ctx, span := s.startSpan(ctx, "follow.RejectRequest", senderID, receiverID)
	defer span.End()

	err := s.deleteRequest(ctx, senderID, receiverID)
	return None, s.done("reject", senderID, receiverID, None, err)
}

// CancelRequest withdraws senderID's own pending request
func (s *Service) CancelRequest(ctx context.Context, senderID, receiverID string) (State, error) {
	ctx, span := s.startSpan(ctx, "follow.CancelRequest", senderID, receiverID)
	defer span.End()

	err := s.deleteRequest(ctx, senderID, receiverID)
	return None, s.done("cancel", senderID, receiverID, None, err)
}

func (s *Service) deleteRequest(ctx context.Context, senderID, receiverID string) error {
	removed, err := s.follows.DeleteRequest(ctx, senderID, receiverID)
	if err != nil {
		return err
	}
	if removed == 0 {
		return apierrors.NotFound("follow request")
	}
	return nil
}

// Unfollow removes an established edge
func (s *Service) Unfollow(ctx context.Context, actorID, targetID string) (State, error) {
	ctx, span := s.startSpan(ctx, "follow.Unfollow", actorID, targetID)
	defer span.End()

	removed, err := s.follows.DeleteFollow(ctx, actorID, targetID)
	if err == nil && removed == 0 {
		err = apierrors.NotFound("follow")
	}
	return None, s.done("unfollow", actorID, targetID, None, err)
}

// Relationship reports the state of (actorID, targetID)
func (s *Service) Relationship(ctx context.Context, actorID, targetID string) (State, error) {
	if _, err := s.accounts.Get(ctx, targetID); err != nil {
		return None, err
	}
	following, err := s.follows.IsFollowing(ctx, actorID, targetID)
	if err != nil {
		return None, err
	}
	if following {
		return Following, nil
	}
	pending, err := s.follows.HasRequest(ctx, actorID, targetID)
	if err != nil {
		return None, err
	}
	if pending {
		return Pending, nil
	}
	return None, nil
}

// IncomingRequests lists requests waiting on accountID, newest first
func (s *Service) IncomingRequests(ctx context.Context, accountID string, offset, limit int) ([]repository.PendingRequest, error) {
	page, err := requestPage(offset, limit)
	if err != nil {
		return nil, err
	}
	return s.follows.IncomingRequests(ctx, accountID, page)
}

// OutgoingRequests lists requests accountID has sent, newest first
func (s *Service) OutgoingRequests(ctx context.Context, accountID string, offset, limit int) ([]repository.PendingRequest, error) {
	page, err := requestPage(offset, limit)
	if err != nil {
		return nil, err
	}
	return s.follows.OutgoingRequests(ctx, accountID, page)
}

// Counts returns follower, following and incoming-request counts
func (s *Service) Counts(ctx context.Context, accountID string) (followers, following, pending int64, err error) {
	if followers, err = s.follows.CountFollowers(ctx, accountID); err != nil {
		return 0, 0, 0, err
	}
	if following, err = s.follows.CountFollowing(ctx, accountID); err != nil {
		return 0, 0, 0, err
	}
	if pending, err = s.follows.CountIncomingRequests(ctx, accountID); err != nil {
		return 0, 0, 0, err
	}
	return followers, following, pending, nil
}

func requestPage(offset, limit int) (repository.Page, error) {
	if offset < 0 {
		return repository.Page{}, apierrors.ValidationError("offset", "offset must not be negative")
	}
	if limit <= 0 {
		return repository.Page{}, apierrors.ValidationError("limit", "limit must be positive")
	}
	return repository.Page{Offset: offset, Limit: limit}, nil
}

func (s *Service) startSpan(ctx context.Context, name, actorID, targetID string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(
		attribute.String("actor_id", actorID),
		attribute.String("target_id", targetID),
	))
}

// done records the outcome of a transition and returns err typed
func (s *Service) done(transition, actorID, targetID string, state State, err error) error {
	err = apierrors.FromStore(err, "follow")
	s.metrics.FollowTransition(transition, metrics.Outcome(err))

	fields := []zap.Field{
		zap.String("transition", transition),
		logger.WithUserID(actorID),
		zap.String("target_id", targetID),
	}
	switch {
	case err == nil:
		s.log.Info("follow transition", append(fields, zap.String("state", string(state)))...)
	case apierrors.Is(err, apierrors.ErrTransientStore):
		s.metrics.StoreError("follow." + transition)
		s.log.Error("follow transition failed", append(fields, zap.Error(err))...)
	default:
		s.log.Debug("follow transition rejected", append(fields, zap.Error(err))...)
	}
	return err
}
