package engagement

import (
	"context"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	apierrors "github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/metrics"
	"github.com/zfogg/reelgraph/internal/models"
	"github.com/zfogg/reelgraph/internal/visibility"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// MaxCommentLength is in characters, after trimming
const MaxCommentLength = 2000

// CommentView is a top-level comment (or, from Post, a new reply)
type CommentView struct {
	ID            string    `json:"id"`
	ContentID     string    `json:"content_id"`
	ParentID      *string   `json:"parent_id,omitempty"`
	AuthorID      string    `json:"author_id"`
	AuthorHandle  string    `json:"author_handle"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
	LikeCount     int64     `json:"like_count"`
	ReplyCount    int64     `json:"reply_count"`
	LikedByViewer bool      `json:"liked_by_viewer"`
}

// ReplyView is a second-level comment. Replies have no replies.
type ReplyView struct {
	ID            string    `json:"id"`
	ContentID     string    `json:"content_id"`
	ParentID      string    `json:"parent_id"`
	AuthorID      string    `json:"author_id"`
	AuthorHandle  string    `json:"author_handle"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"created_at"`
	LikeCount     int64     `json:"like_count"`
	LikedByViewer bool      `json:"liked_by_viewer"`
}

// Thread is the whole discussion on one content, flattened to two levels
type Thread struct {
	TopLevel          []CommentView          `json:"top_level"`
	RepliesByParentID map[string][]ReplyView `json:"replies_by_parent_id"`
}

// Threads reads and writes comments
type Threads struct {
	deps
}

// NewThreads creates the comment service. m may be nil.
func NewThreads(db *gorm.DB, policy *visibility.Policy, log *zap.Logger, m *metrics.Metrics) *Threads {
	return &Threads{deps: newDeps(db, policy, log, m)}
}

// Post adds a comment. A reply to a reply is attached to the top-level
// comment above it, so threads never exceed two levels.
func (t *Threads) Post(ctx context.Context, authorID, contentID, text string, parentID *string) (*CommentView, error) {
	ctx, span := tracer.Start(ctx, "engagement.Post")
	defer span.End()

	comment, err := t.prepare(ctx, authorID, contentID, text, parentID)
	if err == nil {
		err = t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return t.engage.WithTx(tx).CreateComment(ctx, comment)
		})
	}
	if err = t.record("comment", "post", authorID, contentID, err); err != nil {
		return nil, err
	}

	handles, err := t.handles(ctx, []models.Comment{*comment})
	if err != nil {
		return nil, err
	}
	return &CommentView{
		ID:           comment.ID,
		ContentID:    comment.ContentID,
		ParentID:     comment.ParentID,
		AuthorID:     comment.AuthorID,
		AuthorHandle: handles[comment.AuthorID],
		Text:         comment.Text,
		CreatedAt:    comment.CreatedAt,
	}, nil
}

func (t *Threads) prepare(ctx context.Context, authorID, contentID, text string, parentID *string) (*models.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apierrors.ValidationError("text", "comment text is required")
	}
	if utf8.RuneCountInString(text) > MaxCommentLength {
		return nil, apierrors.ValidationError("text", "comment text is too long")
	}

	if _, err := t.viewableContent(ctx, authorID, contentID); err != nil {
		return nil, err
	}

	comment := &models.Comment{ContentID: contentID, AuthorID: authorID, Text: text}
	if parentID == nil {
		return comment, nil
	}

	parent, err := t.engage.GetComment(ctx, *parentID)
	if apierrors.Is(err, apierrors.ErrNotFound) {
		return nil, apierrors.ValidationError("parent_id", "parent comment not found")
	}
	if err != nil {
		return nil, err
	}
	if parent.ContentID != contentID {
		return nil, apierrors.ValidationError("parent_id", "parent comment is on another content")
	}

	rootID := parent.ID
	if parent.IsReply() {
		rootID = *parent.ParentID
	}
	comment.ParentID = &rootID
	return comment, nil
}

// TopLevel returns the top-level comments of contentID, most liked first
func (t *Threads) TopLevel(ctx context.Context, viewerID, contentID string) ([]CommentView, error) {
	ctx, span := tracer.Start(ctx, "engagement.TopLevel")
	defer span.End()

	if _, err := t.viewableContent(ctx, viewerID, contentID); err != nil {
		return nil, err
	}
	return t.topLevel(ctx, viewerID, contentID)
}

func (t *Threads) topLevel(ctx context.Context, viewerID, contentID string) ([]CommentView, error) {
	comments, err := t.engage.TopLevelComments(ctx, contentID)
	if err != nil {
		return nil, err
	}
	ids := commentIDs(comments)

	dec, err := t.decorate(ctx, viewerID, comments)
	if err != nil {
		return nil, err
	}
	replies, err := t.engage.ReplyCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	views := make([]CommentView, len(comments))
	for i, c := range comments {
		views[i] = CommentView{
			ID:            c.ID,
			ContentID:     c.ContentID,
			AuthorID:      c.AuthorID,
			AuthorHandle:  dec.handles[c.AuthorID],
			Text:          c.Text,
			CreatedAt:     c.CreatedAt,
			LikeCount:     dec.likes[c.ID],
			ReplyCount:    replies[c.ID],
			LikedByViewer: dec.liked[c.ID],
		}
	}
	RankTopLevel(views)
	return views, nil
}

// Replies returns the replies under commentID, oldest first
func (t *Threads) Replies(ctx context.Context, viewerID, commentID string) ([]ReplyView, error) {
	ctx, span := tracer.Start(ctx, "engagement.Replies")
	defer span.End()

	parent, err := t.engage.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if _, err := t.viewableContent(ctx, viewerID, parent.ContentID); err != nil {
		return nil, err
	}

	grouped, err := t.replies(ctx, viewerID, []string{commentID})
	if err != nil {
		return nil, err
	}
	if grouped[commentID] == nil {
		return []ReplyView{}, nil
	}
	return grouped[commentID], nil
}

func (t *Threads) replies(ctx context.Context, viewerID string, parentIDs []string) (map[string][]ReplyView, error) {
	comments, err := t.engage.Replies(ctx, parentIDs)
	if err != nil {
		return nil, err
	}
	dec, err := t.decorate(ctx, viewerID, comments)
	if err != nil {
		return nil, err
	}

	out := make(map[string][]ReplyView, len(parentIDs))
	for _, c := range comments {
		parent := *c.ParentID
		out[parent] = append(out[parent], ReplyView{
			ID:            c.ID,
			ContentID:     c.ContentID,
			ParentID:      parent,
			AuthorID:      c.AuthorID,
			AuthorHandle:  dec.handles[c.AuthorID],
			Text:          c.Text,
			CreatedAt:     c.CreatedAt,
			LikeCount:     dec.likes[c.ID],
			LikedByViewer: dec.liked[c.ID],
		})
	}
	for _, list := range out {
		slices.SortStableFunc(list, func(a, b ReplyView) int {
			if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
				return c
			}
			return strings.Compare(a.ID, b.ID)
		})
	}
	return out, nil
}

// Thread returns every comment on contentID grouped two levels deep. Every
// top-level comment has an entry in RepliesByParentID, possibly empty.
func (t *Threads) Thread(ctx context.Context, viewerID, contentID string) (*Thread, error) {
	ctx, span := tracer.Start(ctx, "engagement.Thread")
	defer span.End()

	if _, err := t.viewableContent(ctx, viewerID, contentID); err != nil {
		return nil, err
	}

	top, err := t.topLevel(ctx, viewerID, contentID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(top))
	for i, c := range top {
		ids[i] = c.ID
	}
	grouped, err := t.replies(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	for _, id := range ids {
		if grouped[id] == nil {
			grouped[id] = []ReplyView{}
		}
	}
	return &Thread{TopLevel: top, RepliesByParentID: grouped}, nil
}

// Delete removes a comment and, for a top-level comment, its replies. The
// comment author and the content owner may delete.
func (t *Threads) Delete(ctx context.Context, actorID, commentID string) error {
	ctx, span := tracer.Start(ctx, "engagement.Delete")
	defer span.End()

	err := t.delete(ctx, actorID, commentID)
	return t.record("comment", "delete", actorID, commentID, err)
}

func (t *Threads) delete(ctx context.Context, actorID, commentID string) error {
	comment, err := t.engage.GetComment(ctx, commentID)
	if err != nil {
		return err
	}
	if actorID != comment.AuthorID {
		item, err := t.content.Get(ctx, comment.ContentID)
		if err != nil {
			return err
		}
		if actorID != item.Content.OwnerID {
			return apierrors.Forbidden("only the author or the content owner can delete a comment")
		}
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return t.engage.WithTx(tx).DeleteCommentTree(ctx, commentID)
	})
}

// RankTopLevel orders by like count descending, then newest first, then id
func RankTopLevel(views []CommentView) {
	slices.SortStableFunc(views, func(a, b CommentView) int {
		switch {
		case a.LikeCount > b.LikeCount:
			return -1
		case a.LikeCount < b.LikeCount:
			return 1
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

type decoration struct {
	likes   map[string]int64
	liked   map[string]bool
	handles map[string]string
}

func (t *Threads) decorate(ctx context.Context, viewerID string, comments []models.Comment) (*decoration, error) {
	ids := commentIDs(comments)
	likes, err := t.engage.CommentLikeCounts(ctx, ids)
	if err != nil {
		return nil, err
	}
	liked, err := t.engage.CommentsLikedBy(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}
	handles, err := t.handles(ctx, comments)
	if err != nil {
		return nil, err
	}
	return &decoration{likes: likes, liked: liked, handles: handles}, nil
}

func (t *Threads) handles(ctx context.Context, comments []models.Comment) (map[string]string, error) {
	authorIDs := make([]string, 0, len(comments))
	for _, c := range comments {
		authorIDs = append(authorIDs, c.AuthorID)
	}
	accounts, err := t.accounts.GetMany(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(accounts))
	for id, a := range accounts {
		out[id] = a.Handle
	}
	return out, nil
}

func commentIDs(comments []models.Comment) []string {
	ids := make([]string, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	return ids
}
