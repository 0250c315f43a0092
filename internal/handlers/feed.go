package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/reelgraph/internal/feed"
	"github.com/zfogg/reelgraph/internal/util"
)

type seededFunc func(ctx context.Context, viewerID, seed string, offset, limit int) ([]feed.FeedItem, error)

// VisibleFeed pages over everything the viewer can see
// GET /api/v1/feed/visible?seed=&offset=&limit=
func (h *Handlers) VisibleFeed(c *gin.Context) {
	h.seededFeed(c, h.svc.Feed.VisibleContentPage)
}

// ExploreFeed pages over visible content from other accounts
// GET /api/v1/feed/explore?seed=&offset=&limit=
func (h *Handlers) ExploreFeed(c *gin.Context) {
	h.seededFeed(c, h.svc.Feed.ExplorePage)
}

// ReelsFeed pages over visible reels from other accounts
// GET /api/v1/feed/reels?seed=&offset=&limit=
func (h *Handlers) ReelsFeed(c *gin.Context) {
	h.seededFeed(c, h.svc.Feed.ReelsPage)
}

func (h *Handlers) seededFeed(c *gin.Context, fn seededFunc) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	offset, limit, err := util.QueryPage(c, h.feed.DefaultLimit)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	seed := c.Query("seed")
	items, err := fn(c.Request.Context(), viewerID, seed, offset, limit)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"items":  items,
		"seed":   seed,
		"offset": offset,
		"count":  len(items),
	})
}

// FreshFeed samples at random from the most recent visible content
// GET /api/v1/feed/fresh?offset=&limit=&window=&sample=
func (h *Handlers) FreshFeed(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	offset, limit, err := util.QueryPage(c, h.feed.DefaultLimit)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	window, err := util.QueryInt(c, "window", h.feed.RecentWindow)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	sample, err := util.QueryInt(c, "sample", h.feed.SampleSize)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	items, err := h.svc.Feed.BoundedRandomSample(c.Request.Context(), viewerID, offset, limit, window, sample)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "offset": offset, "count": len(items)})
}

// GetProfileContent lists an account's content newest first
// GET /api/v1/accounts/:id/content?offset=&limit=
func (h *Handlers) GetProfileContent(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}
	offset, limit, err := util.QueryPage(c, h.feed.DefaultLimit)
	if err != nil {
		util.RespondError(c, err)
		return
	}

	items, err := h.svc.Feed.ProfileContent(c.Request.Context(), viewerID, accountParam(c, viewerID), offset, limit)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "offset": offset, "count": len(items)})
}
