package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"github.com/zfogg/reelgraph/internal/config"
	"github.com/zfogg/reelgraph/internal/container"
	"github.com/zfogg/reelgraph/internal/metrics"
	"github.com/zfogg/reelgraph/internal/middleware"
	"github.com/zfogg/reelgraph/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type counterStub struct{ counts map[string]int64 }

func (c *counterStub) IncrWindow(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.counts[key]++
	return c.counts[key], nil
}

type HandlersTestSuite struct {
	suite.Suite
	db     *gorm.DB
	cfg    *config.Config
	router *gin.Engine
}

func (s *HandlersTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.db = testutil.NewDB(s.T())
	s.cfg = &config.Config{
		Server: config.ServerConfig{Environment: "test"},
		Auth:   config.AuthConfig{JWTSecret: "handler-secret", Issuer: "reelgraph"},
		Feed:   config.FeedConfig{DefaultLimit: 20, MaxLimit: 100, RecentWindow: 50, SampleSize: 10},
		RateLimit: config.RateLimitConfig{
			FollowRequests: 5,
			Likes:          3,
			Window:         time.Minute,
		},
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	log := zap.NewNop()
	h := NewHandlers(container.NewServices(s.db, s.cfg.Feed, log, m), s.db, nil, s.cfg, log)
	s.router = NewRouter(h, s.cfg, RouterOptions{
		Metrics:  m,
		Gatherer: reg,
		Counter:  &counterStub{counts: map[string]int64{}},
	})
}

func TestHandlersTestSuite(t *testing.T) {
	suite.Run(t, new(HandlersTestSuite))
}

func (s *HandlersTestSuite) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlersTestSuite) decode(w *httptest.ResponseRecorder, out interface{}) {
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), out), w.Body.String())
}

type session struct {
	ID    string
	Token string
}

func (s *HandlersTestSuite) signup(handle, visibility string) session {
	w := s.do(http.MethodPost, "/api/v1/accounts", "", gin.H{"handle": handle, "visibility": visibility})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Account struct {
			ID string `json:"id"`
		} `json:"account"`
		Token string `json:"token"`
	}
	s.decode(w, &resp)
	return session{ID: resp.Account.ID, Token: resp.Token}
}

func (s *HandlersTestSuite) publish(owner session, typ string) string {
	w := s.do(http.MethodPost, "/api/v1/content", owner.Token, gin.H{
		"type": typ, "path": "media/" + typ, "duration_ms": 1500,
	})
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	var resp struct {
		ID string `json:"id"`
	}
	s.decode(w, &resp)
	return resp.ID
}

type feedResponse struct {
	Items []struct {
		ID      string `json:"id"`
		OwnerID string `json:"owner_id"`
	} `json:"items"`
	Count int `json:"count"`
}

func (s *HandlersTestSuite) TestRequiresAuth() {
	w := s.do(http.MethodGet, "/api/v1/feed/visible?seed=a", "", nil)
	s.Equal(http.StatusUnauthorized, w.Code)

	w = s.do(http.MethodGet, "/api/v1/feed/visible?seed=a", "not-a-token", nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *HandlersTestSuite) TestSignupValidation() {
	w := s.do(http.MethodPost, "/api/v1/accounts", "", gin.H{"handle": "bad handle!"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodPost, "/api/v1/accounts", "", gin.H{"handle": "ok", "visibility": "friends"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	s.signup("Taken", "")
	w = s.do(http.MethodPost, "/api/v1/accounts", "", gin.H{"handle": "taken"})
	s.Equal(http.StatusConflict, w.Code)
}

func (s *HandlersTestSuite) TestPrivateFollowLifecycle() {
	alice := s.signup("alice", "private")
	bob := s.signup("bob", "public")
	post := s.publish(alice, "image")

	// bob cannot see alice's content yet
	w := s.do(http.MethodGet, "/api/v1/content/"+post, bob.Token, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodPost, "/api/v1/accounts/"+alice.ID+"/follow", bob.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"state":"pending"`)

	w = s.do(http.MethodPost, "/api/v1/accounts/"+alice.ID+"/follow", bob.Token, nil)
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodGet, "/api/v1/follow-requests/incoming", alice.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), bob.ID)

	w = s.do(http.MethodPost, "/api/v1/follow-requests/"+bob.ID+"/accept", alice.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"state":"following"`)

	w = s.do(http.MethodGet, "/api/v1/content/"+post, bob.Token, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/feed/visible?seed=s1", bob.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var page feedResponse
	s.decode(w, &page)
	s.Equal(1, page.Count)
	s.Equal(post, page.Items[0].ID)

	w = s.do(http.MethodDelete, "/api/v1/accounts/"+alice.ID+"/follow", bob.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"state":"none"`)

	w = s.do(http.MethodGet, "/api/v1/accounts/"+alice.ID+"/content", bob.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &page)
	s.Zero(page.Count)
}

func (s *HandlersTestSuite) TestCancelAndReject() {
	alice := s.signup("alice", "private")
	bob := s.signup("bob", "public")

	s.do(http.MethodPost, "/api/v1/accounts/"+alice.ID+"/follow", bob.Token, nil)
	w := s.do(http.MethodDelete, "/api/v1/follow-requests/"+alice.ID, bob.Token, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/follow-requests/"+bob.ID+"/reject", alice.Token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestVisibilityToggle() {
	alice := s.signup("alice", "")

	w := s.do(http.MethodPut, "/api/v1/accounts/me/visibility", alice.Token, gin.H{"visibility": "private"})
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"visibility":"private"`)

	w = s.do(http.MethodPut, "/api/v1/accounts/me/visibility", alice.Token, gin.H{"visibility": "hidden"})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodGet, "/api/v1/accounts/me", alice.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"can_view_content":true`)
}

func (s *HandlersTestSuite) TestFeedValidation() {
	alice := s.signup("alice", "")

	w := s.do(http.MethodGet, "/api/v1/feed/visible", alice.Token, nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodGet, "/api/v1/feed/explore?seed=x&limit=abc", alice.Token, nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Contains(w.Body.String(), `"field":"limit"`)

	w = s.do(http.MethodGet, "/api/v1/feed/fresh?window=0", alice.Token, nil)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
}

func (s *HandlersTestSuite) TestReelsAndFresh() {
	alice := s.signup("alice", "")
	bob := s.signup("bob", "")
	reel := s.publish(alice, "reel")
	s.publish(alice, "image")
	s.publish(bob, "reel")

	w := s.do(http.MethodGet, "/api/v1/feed/reels?seed=r", bob.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var page feedResponse
	s.decode(w, &page)
	s.Require().Equal(1, page.Count)
	s.Equal(reel, page.Items[0].ID)

	w = s.do(http.MethodGet, "/api/v1/feed/fresh?limit=5", bob.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.decode(w, &page)
	s.Equal(2, page.Count)
	for _, item := range page.Items {
		s.Equal(alice.ID, item.OwnerID)
	}
}

func (s *HandlersTestSuite) TestLikesAndComments() {
	alice := s.signup("alice", "")
	bob := s.signup("bob", "")
	post := s.publish(alice, "image")

	w := s.do(http.MethodPut, "/api/v1/content/"+post+"/like", bob.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.JSONEq(`{"liked":true,"like_count":1}`, w.Body.String())

	w = s.do(http.MethodPut, "/api/v1/content/"+post+"/like", bob.Token, nil)
	s.Equal(http.StatusConflict, w.Code)

	w = s.do(http.MethodPost, "/api/v1/content/"+post+"/comments", bob.Token, gin.H{"text": "nice"})
	s.Require().Equal(http.StatusCreated, w.Code)
	var top struct {
		ID string `json:"id"`
	}
	s.decode(w, &top)

	w = s.do(http.MethodPost, "/api/v1/content/"+post+"/comments", alice.Token, gin.H{"text": "thanks", "parent_id": top.ID})
	s.Require().Equal(http.StatusCreated, w.Code)

	w = s.do(http.MethodPost, "/api/v1/content/"+post+"/comments", alice.Token, gin.H{"text": "   "})
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	w = s.do(http.MethodGet, "/api/v1/comments/"+top.ID+"/replies", bob.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"count":1`)

	w = s.do(http.MethodGet, "/api/v1/content/"+post+"/thread", bob.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	var thread struct {
		TopLevel []struct {
			ID         string `json:"id"`
			ReplyCount int64  `json:"reply_count"`
		} `json:"top_level"`
		Replies map[string][]json.RawMessage `json:"replies_by_parent_id"`
	}
	s.decode(w, &thread)
	s.Require().Len(thread.TopLevel, 1)
	s.EqualValues(1, thread.TopLevel[0].ReplyCount)
	s.Len(thread.Replies[top.ID], 1)

	w = s.do(http.MethodPut, "/api/v1/comments/"+top.ID+"/like", alice.Token, nil)
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/comments/"+top.ID, alice.Token, nil)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/v1/content/"+post+"/comments", bob.Token, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"count":0`)
}

func (s *HandlersTestSuite) TestLikeRateLimited() {
	alice := s.signup("alice", "")
	bob := s.signup("bob", "")
	post := s.publish(alice, "image")

	codes := []int{}
	for i := 0; i < 4; i++ {
		liked := http.MethodPut
		if i%2 == 1 {
			liked = http.MethodDelete
		}
		codes = append(codes, s.do(liked, "/api/v1/content/"+post+"/like", bob.Token, nil).Code)
	}
	s.Equal([]int{http.StatusOK, http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func (s *HandlersTestSuite) TestDeleteContentOwnerOnly() {
	alice := s.signup("alice", "")
	bob := s.signup("bob", "")
	post := s.publish(alice, "reel")

	w := s.do(http.MethodDelete, "/api/v1/content/"+post, bob.Token, nil)
	s.Equal(http.StatusForbidden, w.Code)

	w = s.do(http.MethodDelete, "/api/v1/content/"+post, alice.Token, nil)
	s.Equal(http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/v1/content/"+post, alice.Token, nil)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlersTestSuite) TestHealthAndMetrics() {
	w := s.do(http.MethodGet, "/health", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"healthy"`)

	w = s.do(http.MethodGet, "/metrics", "", nil)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "http_requests_total")
}

func (s *HandlersTestSuite) TestTokenFromOtherSecretRejected() {
	alice := s.signup("alice", "")
	forged, err := middleware.IssueToken([]byte("other-secret"), "reelgraph", alice.ID, time.Hour)
	s.Require().NoError(err)

	w := s.do(http.MethodGet, "/api/v1/accounts/me", forged, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}
