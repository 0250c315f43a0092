package repository

import (
	"context"
	"time"

	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/models"
	"gorm.io/gorm"
)

// PendingRequest is one row of an incoming or outgoing request list.
// AccountID/Handle describe the other side of the request.
type PendingRequest struct {
	AccountID string    `json:"account_id"`
	Handle    string    `json:"handle"`
	CreatedAt time.Time `json:"created_at"`
}

// FollowRepository handles follow edges and pending follow requests
type FollowRepository interface {
	WithTx(tx *gorm.DB) FollowRepository

	IsFollowing(ctx context.Context, followerID, followedID string) (bool, error)
	FollowedAmong(ctx context.Context, followerID string, ownerIDs []string) (map[string]bool, error)
	CreateFollow(ctx context.Context, followerID, followedID string) error
	DeleteFollow(ctx context.Context, followerID, followedID string) (int64, error)

	HasRequest(ctx context.Context, senderID, receiverID string) (bool, error)
	CreateRequest(ctx context.Context, senderID, receiverID string) error
	DeleteRequest(ctx context.Context, senderID, receiverID string) (int64, error)
	IncomingRequests(ctx context.Context, receiverID string, page Page) ([]PendingRequest, error)
	OutgoingRequests(ctx context.Context, senderID string, page Page) ([]PendingRequest, error)

	CountFollowers(ctx context.Context, accountID string) (int64, error)
	CountFollowing(ctx context.Context, accountID string) (int64, error)
	CountIncomingRequests(ctx context.Context, accountID string) (int64, error)
}

type followRepository struct {
	db *gorm.DB
}

// NewFollowRepository creates a new follow repository
func NewFollowRepository(db *gorm.DB) FollowRepository {
	return &followRepository{db: db}
}

func (r *followRepository) WithTx(tx *gorm.DB) FollowRepository {
	return &followRepository{db: tx}
}

func (r *followRepository) IsFollowing(ctx context.Context, followerID, followedID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Count(&count).Error
	if err != nil {
		return false, apierrors.FromStore(err, "follow")
	}
	return count > 0, nil
}

// FollowedAmong returns the subset of ownerIDs that followerID follows
func (r *followRepository) FollowedAmong(ctx context.Context, followerID string, ownerIDs []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if len(ownerIDs) == 0 {
		return out, nil
	}

	var followed []string
	err := r.db.WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND followed_id IN ?", followerID, ownerIDs).
		Pluck("followed_id", &followed).Error
	if err != nil {
		return nil, apierrors.FromStore(err, "follow")
	}
	for _, id := range followed {
		out[id] = true
	}
	return out, nil
}

func (r *followRepository) CreateFollow(ctx context.Context, followerID, followedID string) error {
	err := r.db.WithContext(ctx).Create(&models.Follow{FollowerID: followerID, FollowedID: followedID}).Error
	return apierrors.FromStore(err, "follow")
}

func (r *followRepository) DeleteFollow(ctx context.Context, followerID, followedID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("follower_id = ? AND followed_id = ?", followerID, followedID).
		Delete(&models.Follow{})
	if result.Error != nil {
		return 0, apierrors.FromStore(result.Error, "follow")
	}
	return result.RowsAffected, nil
}

func (r *followRepository) HasRequest(ctx context.Context, senderID, receiverID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FollowRequest{}).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Count(&count).Error
	if err != nil {
		return false, apierrors.FromStore(err, "follow request")
	}
	return count > 0, nil
}

func (r *followRepository) CreateRequest(ctx context.Context, senderID, receiverID string) error {
	err := r.db.WithContext(ctx).Create(&models.FollowRequest{SenderID: senderID, ReceiverID: receiverID}).Error
	return apierrors.FromStore(err, "follow request")
}

func (r *followRepository) DeleteRequest(ctx context.Context, senderID, receiverID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("sender_id = ? AND receiver_id = ?", senderID, receiverID).
		Delete(&models.FollowRequest{})
	if result.Error != nil {
		return 0, apierrors.FromStore(result.Error, "follow request")
	}
	return result.RowsAffected, nil
}

func (r *followRepository) IncomingRequests(ctx context.Context, receiverID string, page Page) ([]PendingRequest, error) {
	return r.listRequests(ctx, "follow_requests.sender_id", "follow_requests.receiver_id = ?", receiverID, page)
}

func (r *followRepository) OutgoingRequests(ctx context.Context, senderID string, page Page) ([]PendingRequest, error) {
	return r.listRequests(ctx, "follow_requests.receiver_id", "follow_requests.sender_id = ?", senderID, page)
}

// listRequests joins the counterpart account for its handle, newest first
func (r *followRepository) listRequests(ctx context.Context, counterpart, where, accountID string, page Page) ([]PendingRequest, error) {
	var rows []PendingRequest
	q := r.db.WithContext(ctx).
		Table("follow_requests").
		Select("accounts.id AS account_id, accounts.handle AS handle, follow_requests.created_at AS created_at").
		Joins("JOIN accounts ON accounts.id = "+counterpart).
		Where(where, accountID).
		Order("follow_requests.created_at DESC").
		Order("accounts.id")
	if err := page.apply(q).Scan(&rows).Error; err != nil {
		return nil, apierrors.FromStore(err, "follow requests")
	}
	if rows == nil {
		rows = []PendingRequest{}
	}
	return rows, nil
}

func (r *followRepository) CountFollowers(ctx context.Context, accountID string) (int64, error) {
	return r.count(ctx, &models.Follow{}, "followed_id = ?", accountID)
}

func (r *followRepository) CountFollowing(ctx context.Context, accountID string) (int64, error) {
	return r.count(ctx, &models.Follow{}, "follower_id = ?", accountID)
}

func (r *followRepository) CountIncomingRequests(ctx context.Context, accountID string) (int64, error) {
	return r.count(ctx, &models.FollowRequest{}, "receiver_id = ?", accountID)
}

func (r *followRepository) count(ctx context.Context, model interface{}, where string, arg string) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(model).Where(where, arg).Count(&n).Error; err != nil {
		return 0, apierrors.FromStore(err, "follow counts")
	}
	return n, nil
}
