// Package accounts handles signup, lookup and visibility changes.
package accounts

import (
	"context"
	"regexp"
	"strings"

	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/follow"
	"github.com/zfogg/reelgraph/internal/logger"
	"github.com/zfogg/reelgraph/internal/models"
	"github.com/zfogg/reelgraph/internal/repository"
	"github.com/zfogg/reelgraph/internal/visibility"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var tracer = otel.Tracer("reelgraph/accounts")

var handlePattern = regexp.MustCompile(`^[A-Za-z0-9._]{1,30}$`)

// SignupInput is the data needed to register an account
type SignupInput struct {
	Handle      string
	DisplayName string
	Visibility  models.Visibility
	AvatarPath  string
	Website     string
}

// Profile is an account as seen by a particular viewer
type Profile struct {
	Account        *models.Account `json:"account"`
	FollowerCount  int64           `json:"follower_count"`
	FollowingCount int64           `json:"following_count"`
	Relationship   follow.State    `json:"relationship"`
	CanViewContent bool            `json:"can_view_content"`
}

// Service manages accounts
type Service struct {
	db       *gorm.DB
	accounts repository.AccountRepository
	follows  *follow.Service
	policy   *visibility.Policy
	log      *zap.Logger
}

// NewService creates an account service
func NewService(db *gorm.DB, follows *follow.Service, policy *visibility.Policy, log *zap.Logger) *Service {
	return &Service{
		db:       db,
		accounts: repository.NewAccountRepository(db),
		follows:  follows,
		policy:   policy,
		log:      log,
	}
}

// Signup registers a new account and its profile. Handles are unique
// regardless of case.
func (s *Service) Signup(ctx context.Context, in SignupInput) (*models.Account, error) {
	ctx, span := tracer.Start(ctx, "accounts.Signup")
	defer span.End()

	handle := strings.TrimSpace(in.Handle)
	if handle == "" {
		return nil, apierrors.ValidationError("handle", "handle is required")
	}
	if !handlePattern.MatchString(handle) {
		return nil, apierrors.ValidationError("handle", "handle may only contain letters, digits, '.' and '_' (max 30)")
	}

	v := models.VisibilityPublic
	if in.Visibility != "" {
		parsed, ok := models.ParseVisibility(string(in.Visibility))
		if !ok {
			return nil, apierrors.ValidationError("visibility", "visibility must be public or private")
		}
		v = parsed
	}

	account := &models.Account{
		Handle:      handle,
		DisplayName: strings.TrimSpace(in.DisplayName),
		Visibility:  v,
	}
	profile := &models.AccountProfile{AvatarPath: in.AvatarPath, Website: in.Website}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.accounts.WithTx(tx).Create(ctx, account, profile)
	})
	if err != nil {
		err = apierrors.FromStore(err, "account")
		if apierrors.Is(err, apierrors.ErrConflict) {
			return nil, apierrors.Conflict("handle is already taken")
		}
		s.log.Error("signup failed", zap.String("handle", handle), zap.Error(err))
		return nil, err
	}

	s.log.Info("account created", logger.WithUserID(account.ID), zap.String("handle", handle))
	return account, nil
}

// SetVisibility changes accountID's visibility. Only the owner may do it.
// Pending requests are left as they are when an account goes public.
func (s *Service) SetVisibility(ctx context.Context, actorID, accountID string, v models.Visibility) (*models.Account, error) {
	if actorID != accountID {
		return nil, apierrors.Forbidden("only the owner can change visibility")
	}
	parsed, ok := models.ParseVisibility(string(v))
	if !ok {
		return nil, apierrors.ValidationError("visibility", "visibility must be public or private")
	}
	if err := s.accounts.UpdateVisibility(ctx, accountID, parsed); err != nil {
		return nil, err
	}
	s.log.Info("visibility changed", logger.WithUserID(accountID), zap.String("visibility", string(parsed)))
	return s.accounts.Get(ctx, accountID)
}

func (s *Service) Get(ctx context.Context, id string) (*models.Account, error) {
	return s.accounts.Get(ctx, id)
}

// GetByHandle matches handle case-insensitively
func (s *Service) GetByHandle(ctx context.Context, handle string) (*models.Account, error) {
	return s.accounts.GetByHandle(ctx, strings.TrimSpace(handle))
}

// Profile returns id's account with counts and viewerID's relationship to it
func (s *Service) Profile(ctx context.Context, viewerID, id string) (*Profile, error) {
	account, err := s.accounts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	followers, following, _, err := s.follows.Counts(ctx, id)
	if err != nil {
		return nil, err
	}

	rel := follow.None
	if viewerID != "" && viewerID != id {
		if rel, err = s.follows.Relationship(ctx, viewerID, id); err != nil {
			return nil, err
		}
	}
	canView, err := s.policy.CanView(ctx, viewerID, id)
	if err != nil {
		return nil, err
	}

	return &Profile{
		Account:        account,
		FollowerCount:  followers,
		FollowingCount: following,
		Relationship:   rel,
		CanViewContent: canView,
	}, nil
}
