package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/reelgraph/internal/follow"
	"github.com/zfogg/reelgraph/internal/repository"
	"github.com/zfogg/reelgraph/internal/util"
)

// Follow follows a public account or sends a request to a private one
// POST /api/v1/accounts/:id/follow
func (h *Handlers) Follow(c *gin.Context) {
	h.transition(c, c.Param("id"), h.svc.Follows.RequestFollow)
}

// Unfollow removes an established follow
// DELETE /api/v1/accounts/:id/follow
func (h *Handlers) Unfollow(c *gin.Context) {
	h.transition(c, c.Param("id"), h.svc.Follows.Unfollow)
}

// GetRelationship returns the viewer's follow state toward an account
// GET /api/v1/accounts/:id/relationship
func (h *Handlers) GetRelationship(c *gin.Context) {
	h.transition(c, c.Param("id"), h.svc.Follows.Relationship)
}

// AcceptRequest accepts a pending request sent to the viewer
// POST /api/v1/follow-requests/:senderId/accept
func (h *Handlers) AcceptRequest(c *gin.Context) {
	h.transition(c, c.Param("senderId"), h.svc.Follows.AcceptRequest)
}

// RejectRequest discards a pending request sent to the viewer
// POST /api/v1/follow-requests/:senderId/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	h.transition(c, c.Param("senderId"), h.svc.Follows.RejectRequest)
}

// CancelRequest withdraws a request the viewer sent
// DELETE /api/v1/follow-requests/:receiverId
func (h *Handlers) CancelRequest(c *gin.Context) {
	h.transition(c, c.Param("receiverId"), h.svc.Follows.CancelRequest)
}

// IncomingRequests lists requests waiting on the viewer, newest first
// GET /api/v1/follow-requests/incoming
func (h *Handlers) IncomingRequests(c *gin.Context) {
	h.requestList(c, h.svc.Follows.IncomingRequests)
}

// OutgoingRequests lists requests the viewer is waiting on, newest first
// GET /api/v1/follow-requests/outgoing
func (h *Handlers) OutgoingRequests(c *gin.Context) {
	h.requestList(c, h.svc.Follows.OutgoingRequests)
}

type transitionFunc func(ctx context.Context, viewerID, otherID string) (follow.State, error)

func (h *Handlers) transition(c *gin.Context, otherID string, fn transitionFunc) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	state, err := fn(c.Request.Context(), viewerID, otherID)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"account_id": otherID, "state": state})
}

type requestListFunc func(ctx context.Context, accountID string, offset, limit int) ([]repository.PendingRequest, error)

func (h *Handlers) requestList(c *gin.Context, fn requestListFunc) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	offset, limit, err := util.QueryPage(c, h.feed.DefaultLimit)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	requests, err := fn(c.Request.Context(), viewerID, offset, limit)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": requests, "count": len(requests)})
}
