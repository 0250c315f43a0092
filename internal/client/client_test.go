package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowSendsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/accounts/acct-2/follow", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{"account_id": "acct-2", "state": "pending"})
	}))
	defer srv.Close()

	rel, err := New(srv.URL, "tok").Follow("acct-2")
	require.NoError(t, err)
	assert.Equal(t, "pending", rel.State)
}

func TestFeedQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch r.URL.Path {
		case "/api/v1/feed/visible":
			assert.Equal(t, "abc", q.Get("seed"))
			assert.Empty(t, q.Get("window"))
		case "/api/v1/feed/fresh":
			assert.Empty(t, q.Get("seed"))
			assert.Equal(t, "50", q.Get("window"))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		assert.Equal(t, "10", q.Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"c1","type":"reel","duration_ms":1500}],"count":1}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "tok")
	page, err := c.Feed("visible", FeedQuery{Seed: "abc", Limit: 10, Window: 50})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.EqualValues(t, 1500, page.Items[0].DurationMs)

	_, err = c.Feed("fresh", FeedQuery{Seed: "abc", Limit: 10, Window: 50})
	require.NoError(t, err)
}

func TestErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"code":"CONFLICT","message":"follow request already pending"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, "tok").Follow("acct-2")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "CONFLICT", apiErr.Code)
}

func TestNonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(srv.URL, "").Profile("me")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "UNKNOWN_ERROR", apiErr.Code)
}
