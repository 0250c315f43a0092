package engagement

import (
	"context"

	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/metrics"
	"github.com/zfogg/reelgraph/internal/visibility"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ContentStats is computed from the rows on every call
type ContentStats struct {
	LikeCount     int64 `json:"like_count"`
	CommentCount  int64 `json:"comment_count"`
	LikedByViewer bool  `json:"liked_by_viewer"`
}

// LikeResult is the state after a like mutation
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// Aggregator owns likes on content and comments, and per-content stats
type Aggregator struct {
	deps
}

// NewAggregator creates an aggregator. m may be nil.
func NewAggregator(db *gorm.DB, policy *visibility.Policy, log *zap.Logger, m *metrics.Metrics) *Aggregator {
	return &Aggregator{deps: newDeps(db, policy, log, m)}
}

// Stats returns an entry for every id in contentIDs
func (a *Aggregator) Stats(ctx context.Context, viewerID string, contentIDs []string) (map[string]ContentStats, error) {
	likes, err := a.engage.LikeCounts(ctx, contentIDs)
	if err != nil {
		return nil, err
	}
	comments, err := a.engage.CommentCounts(ctx, contentIDs)
	if err != nil {
		return nil, err
	}
	liked, err := a.engage.LikedBy(ctx, viewerID, contentIDs)
	if err != nil {
		return nil, err
	}

	out := make(map[string]ContentStats, len(contentIDs))
	for _, id := range contentIDs {
		out[id] = ContentStats{
			LikeCount:     likes[id],
			CommentCount:  comments[id],
			LikedByViewer: liked[id],
		}
	}
	return out, nil
}

// LikeContent likes a content the actor can see. Liking twice is a Conflict.
func (a *Aggregator) LikeContent(ctx context.Context, actorID, contentID string) (LikeResult, error) {
	ctx, span := tracer.Start(ctx, "engagement.LikeContent")
	defer span.End()

	if _, err := a.viewableContent(ctx, actorID, contentID); err != nil {
		return LikeResult{}, a.record("content", "like", actorID, contentID, err)
	}

	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return a.engage.WithTx(tx).CreateLike(ctx, contentID, actorID)
	})
	if err != nil {
		return LikeResult{}, a.record("content", "like", actorID, contentID, err)
	}
	_ = a.record("content", "like", actorID, contentID, nil)
	return a.contentResult(ctx, contentID, true)
}

// UnlikeContent removes the actor's like. Not having liked is a Conflict.
func (a *Aggregator) UnlikeContent(ctx context.Context, actorID, contentID string) (LikeResult, error) {
	ctx, span := tracer.Start(ctx, "engagement.UnlikeContent")
	defer span.End()

	if _, err := a.content.Get(ctx, contentID); err != nil {
		return LikeResult{}, a.record("content", "unlike", actorID, contentID, err)
	}

	var removed int64
	err := a.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		removed, err = a.engage.WithTx(tx).DeleteLike(ctx, contentID, actorID)
		return err
	})
	if err == nil && removed == 0 {
		err = apierrors.Conflict("content is not liked")
	}
	if err != nil {
		return LikeResult{}, a.record("content", "unlike", actorID, contentID, err)
	}
	_ = a.record("content", "unlike", actorID, contentID, nil)
	return a.contentResult(ctx, contentID, false)
}

// ToggleLike moves the actor's like on contentID to the desired state
func (a *Aggregator) ToggleLike(ctx context.Context, actorID, contentID string, liked bool) (LikeResult, error) {
	if liked {
		return a.LikeContent(ctx, actorID, contentID)
	}
	return a.UnlikeContent(ctx, actorID, contentID)
}

func (a *Aggregator) contentResult(ctx context.Context, contentID string, liked bool) (LikeResult, error) {
	counts, err := a.engage.LikeCounts(ctx, []string{contentID})
	if err != nil {
		return LikeResult{}, err
	}
	return LikeResult{Liked: liked, LikeCount: counts[contentID]}, nil
}

// LikeComment likes a comment on content the actor can see
func (a *Aggregator) LikeComment(ctx context.Context, actorID, commentID string) (LikeResult, error) {
	ctx, span := tracer.Start(ctx, "engagement.LikeComment")
	defer span.End()

	comment, err := a.engage.GetComment(ctx, commentID)
	if err == nil {
		_, err = a.viewableContent(ctx, actorID, comment.ContentID)
	}
	if err == nil {
		err = a.engage.CreateCommentLike(ctx, commentID, actorID)
	}
	if err != nil {
		return LikeResult{}, a.record("comment", "like", actorID, commentID, err)
	}
	_ = a.record("comment", "like", actorID, commentID, nil)
	return a.commentResult(ctx, commentID, true)
}

// UnlikeComment removes the actor's like on a comment
func (a *Aggregator) UnlikeComment(ctx context.Context, actorID, commentID string) (LikeResult, error) {
	ctx, span := tracer.Start(ctx, "engagement.UnlikeComment")
	defer span.End()

	_, err := a.engage.GetComment(ctx, commentID)
	var removed int64
	if err == nil {
		removed, err = a.engage.DeleteCommentLike(ctx, commentID, actorID)
	}
	if err == nil && removed == 0 {
		err = apierrors.Conflict("comment is not liked")
	}
	if err != nil {
		return LikeResult{}, a.record("comment", "unlike", actorID, commentID, err)
	}
	_ = a.record("comment", "unlike", actorID, commentID, nil)
	return a.commentResult(ctx, commentID, false)
}

// ToggleCommentLike moves the actor's like on commentID to the desired state
func (a *Aggregator) ToggleCommentLike(ctx context.Context, actorID, commentID string, liked bool) (LikeResult, error) {
	if liked {
		return a.LikeComment(ctx, actorID, commentID)
	}
	return a.UnlikeComment(ctx, actorID, commentID)
}

func (a *Aggregator) commentResult(ctx context.Context, commentID string, liked bool) (LikeResult, error) {
	counts, err := a.engage.CommentLikeCounts(ctx, []string{commentID})
	if err != nil {
		return LikeResult{}, err
	}
	return LikeResult{Liked: liked, LikeCount: counts[commentID]}, nil
}
