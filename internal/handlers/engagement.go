package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/reelgraph/internal/util"
)

type commentRequest struct {
	Text     string  `json:"text"`
	ParentID *string `json:"parent_id"`
}

// LikeContent PUT /api/v1/content/:id/like
func (h *Handlers) LikeContent(c *gin.Context) {
	h.like(c, true, false)
}

// UnlikeContent DELETE /api/v1/content/:id/like
func (h *Handlers) UnlikeContent(c *gin.Context) {
	h.like(c, false, false)
}

// LikeComment PUT /api/v1/comments/:id/like
func (h *Handlers) LikeComment(c *gin.Context) {
	h.like(c, true, true)
}

// UnlikeComment DELETE /api/v1/comments/:id/like
func (h *Handlers) UnlikeComment(c *gin.Context) {
	h.like(c, false, true)
}

func (h *Handlers) like(c *gin.Context, liked, comment bool) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	toggle := h.svc.Likes.ToggleLike
	if comment {
		toggle = h.svc.Likes.ToggleCommentLike
	}

	result, err := toggle(ctx, viewerID, id, liked)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// PostComment adds a top-level comment or, with parent_id, a reply
// POST /api/v1/content/:id/comments
func (h *Handlers) PostComment(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req commentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "body", "invalid request body")
		return
	}

	view, err := h.svc.Threads.Post(c.Request.Context(), viewerID, c.Param("id"), req.Text, req.ParentID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetComments lists ranked top-level comments
// GET /api/v1/content/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	comments, err := h.svc.Threads.TopLevel(c.Request.Context(), viewerID, c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments, "count": len(comments)})
}

// GetThread returns top-level comments with all their replies
// GET /api/v1/content/:id/thread
func (h *Handlers) GetThread(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	thread, err := h.svc.Threads.Thread(c.Request.Context(), viewerID, c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

// GetReplies lists replies to a top-level comment, oldest first
// GET /api/v1/comments/:id/replies
func (h *Handlers) GetReplies(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	replies, err := h.svc.Threads.Replies(c.Request.Context(), viewerID, c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"replies": replies, "count": len(replies)})
}

// DeleteComment removes a comment and its replies
// DELETE /api/v1/comments/:id
func (h *Handlers) DeleteComment(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.svc.Threads.Delete(c.Request.Context(), viewerID, c.Param("id")); err != nil {
		util.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
