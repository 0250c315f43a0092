package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/reelgraph/internal/content"
	"github.com/zfogg/reelgraph/internal/models"
	"github.com/zfogg/reelgraph/internal/util"
)

type publishRequest struct {
	Type       string `json:"type"`
	Path       string `json:"path"`
	Caption    string `json:"caption"`
	DurationMs int64  `json:"duration_ms"`
	AltText    string `json:"alt_text"`
}

type contentResponse struct {
	ID         string             `json:"id"`
	OwnerID    string             `json:"owner_id"`
	Type       models.ContentType `json:"type"`
	DurationMs int64              `json:"duration_ms,omitempty"`
	AltText    string             `json:"alt_text,omitempty"`
	Path       string             `json:"path"`
	Caption    string             `json:"caption"`
	CreatedAt  time.Time          `json:"created_at"`
}

func newContentResponse(item *models.ContentItem) contentResponse {
	resp := contentResponse{
		ID:        item.Content.ID,
		OwnerID:   item.Content.OwnerID,
		Type:      item.Media.Type(),
		Path:      item.Content.Path,
		Caption:   item.Content.Caption,
		CreatedAt: item.Content.CreatedAt,
	}
	switch m := item.Media.(type) {
	case models.Reel:
		resp.DurationMs = m.DurationMs()
	case models.Image:
		resp.AltText = m.AltText
	}
	return resp
}

// PublishContent publishes an image or reel owned by the viewer
// POST /api/v1/content
func (h *Handlers) PublishContent(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req publishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "body", "invalid request body")
		return
	}

	var media models.Media
	switch models.ContentType(req.Type) {
	case models.ContentTypeImage:
		media = models.Image{AltText: req.AltText}
	case models.ContentTypeReel:
		media = models.Reel{Duration: time.Duration(req.DurationMs) * time.Millisecond}
	default:
		util.RespondValidationError(c, "type", "type must be image or reel")
		return
	}

	item, err := h.svc.Content.Publish(c.Request.Context(), viewerID, content.Draft{
		Path:    req.Path,
		Caption: req.Caption,
		Media:   media,
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newContentResponse(item))
}

// GetContent returns one content item if the viewer may see its owner
// GET /api/v1/content/:id
func (h *Handlers) GetContent(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	item, err := h.svc.Content.Get(c.Request.Context(), viewerID, c.Param("id"))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, newContentResponse(item))
}

// DeleteContent removes the viewer's own content and its engagement
// DELETE /api/v1/content/:id
func (h *Handlers) DeleteContent(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	if err := h.svc.Content.Delete(c.Request.Context(), viewerID, c.Param("id")); err != nil {
		util.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
