package repository

import (
	"context"
	"errors"

	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/models"
	"gorm.io/gorm"
)

// EngagementRepository handles likes, comments and comment likes. Counts
// are always computed from the rows; there are no stored counters.
type EngagementRepository interface {
	WithTx(tx *gorm.DB) EngagementRepository

	// CreateLike inserts the like and its action. Call inside a transaction.
	CreateLike(ctx context.Context, contentID, actorID string) error
	// DeleteLike removes the like and its action, returning rows removed.
	// Call inside a transaction.
	DeleteLike(ctx context.Context, contentID, actorID string) (int64, error)
	LikeCounts(ctx context.Context, contentIDs []string) (map[string]int64, error)
	CommentCounts(ctx context.Context, contentIDs []string) (map[string]int64, error)
	LikedBy(ctx context.Context, actorID string, contentIDs []string) (map[string]bool, error)

	// CreateComment inserts the comment and its action. Call inside a transaction.
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id string) (*models.Comment, error)
	TopLevelComments(ctx context.Context, contentID string) ([]models.Comment, error)
	Replies(ctx context.Context, parentIDs []string) ([]models.Comment, error)
	ReplyCounts(ctx context.Context, parentIDs []string) (map[string]int64, error)
	// DeleteCommentTree removes a comment, its replies, their likes and
	// actions. Call inside a transaction.
	DeleteCommentTree(ctx context.Context, commentID string) error

	CreateCommentLike(ctx context.Context, commentID, actorID string) error
	DeleteCommentLike(ctx context.Context, commentID, actorID string) (int64, error)
	CommentLikeCounts(ctx context.Context, commentIDs []string) (map[string]int64, error)
	CommentsLikedBy(ctx context.Context, actorID string, commentIDs []string) (map[string]bool, error)
}

type engagementRepository struct {
	db *gorm.DB
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *gorm.DB) EngagementRepository {
	return &engagementRepository{db: db}
}

func (r *engagementRepository) WithTx(tx *gorm.DB) EngagementRepository {
	return &engagementRepository{db: tx}
}

func (r *engagementRepository) CreateLike(ctx context.Context, contentID, actorID string) error {
	db := r.db.WithContext(ctx)
	action := &models.Action{ContentID: contentID, ActorID: actorID, Kind: models.ActionLike}
	if err := db.Create(action).Error; err != nil {
		return apierrors.FromStore(err, "like")
	}
	like := &models.Like{ActionID: action.ID, ContentID: contentID, ActorID: actorID}
	if err := db.Create(like).Error; err != nil {
		return apierrors.FromStore(err, "like")
	}
	return nil
}

func (r *engagementRepository) DeleteLike(ctx context.Context, contentID, actorID string) (int64, error) {
	db := r.db.WithContext(ctx)

	var like models.Like
	err := db.Where("content_id = ? AND actor_id = ?", contentID, actorID).Take(&like).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, apierrors.FromStore(err, "like")
	}

	result := db.Where("id = ?", like.ID).Delete(&models.Like{})
	if result.Error != nil {
		return 0, apierrors.FromStore(result.Error, "like")
	}
	if result.RowsAffected == 0 {
		return 0, nil
	}
	if err := db.Where("id = ?", like.ActionID).Delete(&models.Action{}).Error; err != nil {
		return 0, apierrors.FromStore(err, "like")
	}
	return result.RowsAffected, nil
}

func (r *engagementRepository) LikeCounts(ctx context.Context, contentIDs []string) (map[string]int64, error) {
	return countBy(ctx, r.db, &models.Like{}, "content_id", contentIDs, "likes")
}

func (r *engagementRepository) CommentCounts(ctx context.Context, contentIDs []string) (map[string]int64, error) {
	return countBy(ctx, r.db, &models.Comment{}, "content_id", contentIDs, "comments")
}

func (r *engagementRepository) LikedBy(ctx context.Context, actorID string, contentIDs []string) (map[string]bool, error) {
	return r.pluckSet(ctx, &models.Like{}, "content_id", actorID, contentIDs)
}

func (r *engagementRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	db := r.db.WithContext(ctx)
	action := &models.Action{ContentID: comment.ContentID, ActorID: comment.AuthorID, Kind: models.ActionComment}
	if err := db.Create(action).Error; err != nil {
		return apierrors.FromStore(err, "comment")
	}
	comment.ActionID = action.ID
	if err := db.Create(comment).Error; err != nil {
		return apierrors.FromStore(err, "comment")
	}
	return nil
}

func (r *engagementRepository) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	var comment models.Comment
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&comment).Error; err != nil {
		return nil, apierrors.FromStore(err, "comment")
	}
	return &comment, nil
}

func (r *engagementRepository) TopLevelComments(ctx context.Context, contentID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("content_id = ? AND parent_id IS NULL", contentID).
		Find(&comments).Error
	if err != nil {
		return nil, apierrors.FromStore(err, "comments")
	}
	return comments, nil
}

// Replies returns the replies of every parent, oldest first
func (r *engagementRepository) Replies(ctx context.Context, parentIDs []string) ([]models.Comment, error) {
	if len(parentIDs) == 0 {
		return nil, nil
	}
	var comments []models.Comment
	err := r.db.WithContext(ctx).
		Where("parent_id IN ?", parentIDs).
		Order("created_at ASC").
		Order("id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, apierrors.FromStore(err, "comments")
	}
	return comments, nil
}

func (r *engagementRepository) ReplyCounts(ctx context.Context, parentIDs []string) (map[string]int64, error) {
	return countBy(ctx, r.db, &models.Comment{}, "parent_id", parentIDs, "comments")
}

func (r *engagementRepository) DeleteCommentTree(ctx context.Context, commentID string) error {
	db := r.db.WithContext(ctx)

	var doomed []models.Comment
	err := db.Where("id = ? OR parent_id = ?", commentID, commentID).Find(&doomed).Error
	if err != nil {
		return apierrors.FromStore(err, "comment")
	}
	if len(doomed) == 0 {
		return apierrors.NotFound("comment")
	}

	ids := make([]string, 0, len(doomed))
	actionIDs := make([]string, 0, len(doomed))
	for _, c := range doomed {
		ids = append(ids, c.ID)
		actionIDs = append(actionIDs, c.ActionID)
	}

	if err := db.Where("comment_id IN ?", ids).Delete(&models.CommentLike{}).Error; err != nil {
		return apierrors.FromStore(err, "comment")
	}
	if err := db.Where("id IN ?", ids).Delete(&models.Comment{}).Error; err != nil {
		return apierrors.FromStore(err, "comment")
	}
	if err := db.Where("id IN ?", actionIDs).Delete(&models.Action{}).Error; err != nil {
		return apierrors.FromStore(err, "comment")
	}
	return nil
}

func (r *engagementRepository) CreateCommentLike(ctx context.Context, commentID, actorID string) error {
	err := r.db.WithContext(ctx).Create(&models.CommentLike{CommentID: commentID, ActorID: actorID}).Error
	return apierrors.FromStore(err, "comment like")
}

func (r *engagementRepository) DeleteCommentLike(ctx context.Context, commentID, actorID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("comment_id = ? AND actor_id = ?", commentID, actorID).
		Delete(&models.CommentLike{})
	if result.Error != nil {
		return 0, apierrors.FromStore(result.Error, "comment like")
	}
	return result.RowsAffected, nil
}

func (r *engagementRepository) CommentLikeCounts(ctx context.Context, commentIDs []string) (map[string]int64, error) {
	return countBy(ctx, r.db, &models.CommentLike{}, "comment_id", commentIDs, "comment likes")
}

func (r *engagementRepository) CommentsLikedBy(ctx context.Context, actorID string, commentIDs []string) (map[string]bool, error) {
	return r.pluckSet(ctx, &models.CommentLike{}, "comment_id", actorID, commentIDs)
}

// pluckSet returns which of ids actorID has a row for in model
func (r *engagementRepository) pluckSet(ctx context.Context, model interface{}, column, actorID string, ids []string) (map[string]bool, error) {
	out := make(map[string]bool)
	if actorID == "" || len(ids) == 0 {
		return out, nil
	}

	var hits []string
	err := r.db.WithContext(ctx).Model(model).
		Where("actor_id = ? AND "+column+" IN ?", actorID, ids).
		Pluck(column, &hits).Error
	if err != nil {
		return nil, apierrors.FromStore(err, "likes")
	}
	for _, id := range hits {
		out[id] = true
	}
	return out, nil
}
