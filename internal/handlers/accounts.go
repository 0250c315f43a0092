package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/zfogg/reelgraph/internal/accounts"
	"github.com/zfogg/reelgraph/internal/errors"
	"github.com/zfogg/reelgraph/internal/middleware"
	"github.com/zfogg/reelgraph/internal/models"
	"github.com/zfogg/reelgraph/internal/util"
)

type signupRequest struct {
	Handle      string `json:"handle"`
	DisplayName string `json:"display_name"`
	Visibility  string `json:"visibility"`
	AvatarPath  string `json:"avatar_path"`
	Website     string `json:"website"`
}

type visibilityRequest struct {
	Visibility string `json:"visibility"`
}

// Signup registers an account and returns a session token for it
// POST /api/v1/accounts
func (h *Handlers) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "body", "invalid request body")
		return
	}

	var visibility models.Visibility
	if req.Visibility != "" {
		v, ok := models.ParseVisibility(req.Visibility)
		if !ok {
			util.RespondValidationError(c, "visibility", "visibility must be public or private")
			return
		}
		visibility = v
	}

	account, err := h.svc.Accounts.Signup(c.Request.Context(), accounts.SignupInput{
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
		Visibility:  visibility,
		AvatarPath:  req.AvatarPath,
		Website:     req.Website,
	})
	if err != nil {
		util.RespondError(c, err)
		return
	}

	token, err := middleware.IssueToken([]byte(h.auth.JWTSecret), h.auth.Issuer, account.ID, h.tokenTTL)
	if err != nil {
		util.RespondError(c, errors.InternalError("failed to issue token"))
		return
	}

	c.JSON(http.StatusCreated, gin.H{"account": account, "token": token})
}

// GetProfile returns an account as the viewer sees it. "me" is the viewer.
// GET /api/v1/accounts/:id
func (h *Handlers) GetProfile(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	profile, err := h.svc.Accounts.Profile(c.Request.Context(), viewerID, accountParam(c, viewerID))
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// SetVisibility switches the viewer's account between public and private
// PUT /api/v1/accounts/me/visibility
func (h *Handlers) SetVisibility(c *gin.Context) {
	viewerID, ok := util.GetUserIDFromContext(c)
	if !ok {
		return
	}

	var req visibilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.RespondValidationError(c, "body", "invalid request body")
		return
	}
	v, valid := models.ParseVisibility(req.Visibility)
	if !valid {
		util.RespondValidationError(c, "visibility", "visibility must be public or private")
		return
	}

	account, err := h.svc.Accounts.SetVisibility(c.Request.Context(), viewerID, viewerID, v)
	if err != nil {
		util.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, account)
}

func accountParam(c *gin.Context, viewerID string) string {
	id := c.Param("id")
	if id == "me" {
		return viewerID
	}
	return id
}
