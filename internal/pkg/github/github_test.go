package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xcnya/friend-apply/internal/config"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := New(config.GitHubConfig{Token: "tok", Repo: "xcnya/blog"})
	c.SetAPIBase(srv.URL)
	return c
}

func TestGetFileDecodesWrappedBase64(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte("- class_name: 推荐\n"))
	// GitHub wraps the payload at 60 columns; simulate with an inserted newline.
	wrapped := encoded[:8] + "\n" + encoded[8:]

	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/xcnya/blog/contents/source%2F_data%2Flink.yml", r.URL.EscapedPath())
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]string{
			"content": wrapped,
			"sha":     "abc123",
		})
	}))

	content, sha, err := c.GetFile(context.Background(), "source/_data/link.yml")
	require.NoError(t, err)
	assert.Equal(t, "- class_name: 推荐\n", content)
	assert.Equal(t, "abc123", sha)
}

func TestGetFileNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"message": "Not Found"})
	}))

	_, _, err := c.GetFile(context.Background(), "missing.yml")
	assert.ErrorContains(t, err, "404 Not Found")
}

func TestGetBranchHeadSHA(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/xcnya/blog/git/ref/heads/main", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"object": map[string]string{"sha": "head-sha"},
		})
	}))

	sha, err := c.GetBranchHeadSHA(context.Background(), "main")
	require.NoError(t, err)
	assert.Equal(t, "head-sha", sha)
}

func TestCreateBranchPayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/xcnya/blog/git/refs", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "refs/heads/add-friend-x-1", body["ref"])
		assert.Equal(t, "base-sha", body["sha"])
		w.WriteHeader(http.StatusCreated)
	}))

	require.NoError(t, c.CreateBranch(context.Background(), "add-friend-x-1", "base-sha"))
}

func TestPutFileEncodesContent(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		raw, err := base64.StdEncoding.DecodeString(body["content"])
		require.NoError(t, err)
		assert.Equal(t, "hello", string(raw))
		assert.Equal(t, "add friend link: x", body["message"])
		assert.Equal(t, "feature", body["branch"])
		assert.Equal(t, "old-sha", body["sha"])
	}))

	err := c.PutFile(context.Background(), "link.yml", "hello", "feature", "old-sha", "add friend link: x")
	require.NoError(t, err)
}

func TestCreatePullRequestAndLabels(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/xcnya/blog/pulls":
			var body map[string]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "友链申请：https://amiao.cc", body["title"])
			assert.Equal(t, "main", body["base"])
			json.NewEncoder(w).Encode(map[string]interface{}{
				"number":   42,
				"html_url": "https://github.com/xcnya/blog/pull/42",
			})
		case "/repos/xcnya/blog/issues/42/labels":
			var body map[string][]string
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, []string{"friend"}, body["labels"])
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))

	number, url, err := c.CreatePullRequest(context.Background(), "友链申请：https://amiao.cc", "add-friend-x", "main", "body")
	require.NoError(t, err)
	assert.Equal(t, 42, number)
	assert.Equal(t, "https://github.com/xcnya/blog/pull/42", url)
	require.NoError(t, c.AddLabels(context.Background(), 42, []string{"friend"}))
}
