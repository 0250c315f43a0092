// Package client is a typed HTTP client for the reelgraph API, used by
// the command line tool.
package client

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// APIError is a non-2xx response
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
	Field      string `json:"field"`
}

func (e *APIError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%d] %s: %s (field: %s)", e.StatusCode, e.Code, e.Message, e.Field)
	}
	return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

// Account is the public part of an account
type Account struct {
	ID          string    `json:"id"`
	Handle      string    `json:"handle"`
	DisplayName string    `json:"display_name"`
	Visibility  string    `json:"visibility"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile is an account as the caller sees it
type Profile struct {
	Account        Account `json:"account"`
	FollowerCount  int64   `json:"follower_count"`
	FollowingCount int64   `json:"following_count"`
	Relationship   string  `json:"relationship"`
	CanViewContent bool    `json:"can_view_content"`
}

// Relationship is the caller's follow state toward AccountID
type Relationship struct {
	AccountID string `json:"account_id"`
	State     string `json:"state"`
}

// FollowRequest is one pending request
type FollowRequest struct {
	AccountID string    `json:"account_id"`
	Handle    string    `json:"handle"`
	CreatedAt time.Time `json:"created_at"`
}

// FollowRequestsResponse lists follow requests
type FollowRequestsResponse struct {
	Requests []FollowRequest `json:"requests"`
	Count    int             `json:"count"`
}

// FeedItem is one entry of a feed page
type FeedItem struct {
	ID            string    `json:"id"`
	OwnerID       string    `json:"owner_id"`
	OwnerHandle   string    `json:"owner_handle"`
	Type          string    `json:"type"`
	DurationMs    int64     `json:"duration_ms"`
	Path          string    `json:"path"`
	Caption       string    `json:"caption"`
	CreatedAt     time.Time `json:"created_at"`
	LikeCount     int64     `json:"like_count"`
	CommentCount  int64     `json:"comment_count"`
	LikedByViewer bool      `json:"liked_by_viewer"`
}

// FeedResponse is one feed page
type FeedResponse struct {
	Items  []FeedItem `json:"items"`
	Seed   string     `json:"seed,omitempty"`
	Offset int        `json:"offset"`
	Count  int        `json:"count"`
}

// FeedQuery selects a page. Seed is ignored by the fresh feed; Window and
// Sample are only sent to it.
type FeedQuery struct {
	Seed   string
	Offset int
	Limit  int
	Window int
	Sample int
}

// Client talks to one API server as one account
type Client struct {
	http *resty.Client
}

// New creates a client for baseURL. token may be empty for public routes.
func New(baseURL, token string) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15*time.Second).
		SetHeader("User-Agent", "reelgraph-cli/0.1.0")
	if token != "" {
		http.SetAuthToken(token)
	}
	return &Client{http: http}
}

// Profile fetches an account; id may be "me"
func (c *Client) Profile(id string) (*Profile, error) {
	var out Profile
	return &out, c.do(c.http.R().SetResult(&out).SetPathParam("id", id), resty.MethodGet, "/api/v1/accounts/{id}")
}

// SetVisibility switches the caller's account to "public" or "private"
func (c *Client) SetVisibility(visibility string) (*Account, error) {
	var out Account
	req := c.http.R().SetBody(map[string]string{"visibility": visibility}).SetResult(&out)
	return &out, c.do(req, resty.MethodPut, "/api/v1/accounts/me/visibility")
}

// Follow follows or requests to follow accountID
func (c *Client) Follow(accountID string) (*Relationship, error) {
	return c.relationship(resty.MethodPost, "/api/v1/accounts/{id}/follow", accountID)
}

// Unfollow removes the caller's follow of accountID
func (c *Client) Unfollow(accountID string) (*Relationship, error) {
	return c.relationship(resty.MethodDelete, "/api/v1/accounts/{id}/follow", accountID)
}

// Accept accepts senderID's request
func (c *Client) Accept(senderID string) (*Relationship, error) {
	return c.relationship(resty.MethodPost, "/api/v1/follow-requests/{id}/accept", senderID)
}

// Reject rejects senderID's request
func (c *Client) Reject(senderID string) (*Relationship, error) {
	return c.relationship(resty.MethodPost, "/api/v1/follow-requests/{id}/reject", senderID)
}

// Cancel withdraws the caller's request to receiverID
func (c *Client) Cancel(receiverID string) (*Relationship, error) {
	return c.relationship(resty.MethodDelete, "/api/v1/follow-requests/{id}", receiverID)
}

func (c *Client) relationship(method, path, id string) (*Relationship, error) {
	var out Relationship
	return &out, c.do(c.http.R().SetResult(&out).SetPathParam("id", id), method, path)
}

// FollowRequests lists "incoming" or "outgoing" requests
func (c *Client) FollowRequests(direction string, offset, limit int) (*FollowRequestsResponse, error) {
	var out FollowRequestsResponse
	req := c.http.R().SetResult(&out).
		SetPathParam("direction", direction).
		SetQueryParams(map[string]string{"offset": strconv.Itoa(offset), "limit": strconv.Itoa(limit)})
	return &out, c.do(req, resty.MethodGet, "/api/v1/follow-requests/{direction}")
}

// Feed fetches a page of mode: visible, explore, reels or fresh
func (c *Client) Feed(mode string, q FeedQuery) (*FeedResponse, error) {
	params := map[string]string{
		"offset": strconv.Itoa(q.Offset),
		"limit":  strconv.Itoa(q.Limit),
	}
	if mode == "fresh" {
		if q.Window > 0 {
			params["window"] = strconv.Itoa(q.Window)
		}
		if q.Sample > 0 {
			params["sample"] = strconv.Itoa(q.Sample)
		}
	} else {
		params["seed"] = q.Seed
	}

	var out FeedResponse
	req := c.http.R().SetResult(&out).SetPathParam("mode", mode).SetQueryParams(params)
	return &out, c.do(req, resty.MethodGet, "/api/v1/feed/{mode}")
}

func (c *Client) do(req *resty.Request, method, path string) error {
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	if resp.IsSuccess() {
		return nil
	}
	return parseError(resp)
}

func parseError(resp *resty.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode()}
	if err := json.Unmarshal(resp.Body(), apiErr); err != nil || apiErr.Code == "" {
		apiErr.Code = "UNKNOWN_ERROR"
		apiErr.Message = string(resp.Body())
	}
	return apiErr
}
