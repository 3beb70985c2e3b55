package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/xcnya/friend-apply/internal/config"
)

const defaultAPIBase = "https://api.github.com"

// Client is a minimal GitHub REST v3 client covering the contents, refs,
// pulls and labels endpoints used by the friend link PR flow.
type Client struct {
	token      string
	owner      string
	repo       string
	apiBase    string
	httpClient *http.Client
}

func New(cfg config.GitHubConfig) *Client {
	owner, repo := cfg.OwnerRepo()
	return &Client{
		token:      cfg.Token,
		owner:      owner,
		repo:       repo,
		apiBase:    defaultAPIBase,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// SetAPIBase overrides the API endpoint (used by tests and GHE setups).
func (c *Client) SetAPIBase(base string) { c.apiBase = base }

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/vnd.github+json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&errResp)
		return fmt.Errorf("github %s %s: %d %s", method, path, resp.StatusCode, errResp.Message)
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func (c *Client) repoPath(suffix string) string {
	return fmt.Sprintf("/repos/%s/%s%s", c.owner, c.repo, suffix)
}

// GetFile fetches a file's decoded content and blob SHA.
func (c *Client) GetFile(ctx context.Context, path string) (content, sha string, err error) {
	var data struct {
		Content string `json:"content"`
		SHA     string `json:"sha"`
	}
	if err := c.do(ctx, http.MethodGet, c.repoPath("/contents/"+url.PathEscape(path)), nil, &data); err != nil {
		return "", "", err
	}
	// GitHub line-wraps base64 payloads.
	raw, err := base64.StdEncoding.DecodeString(stripNewlines(data.Content))
	if err != nil {
		return "", "", fmt.Errorf("decode file content: %w", err)
	}
	return string(raw), data.SHA, nil
}

// GetDefaultBranch returns the repository's default branch name.
func (c *Client) GetDefaultBranch(ctx context.Context) (string, error) {
	var data struct {
		DefaultBranch string `json:"default_branch"`
	}
	if err := c.do(ctx, http.MethodGet, c.repoPath(""), nil, &data); err != nil {
		return "", err
	}
	return data.DefaultBranch, nil
}

// GetBranchHeadSHA returns the commit SHA a branch currently points at.
func (c *Client) GetBranchHeadSHA(ctx context.Context, branch string) (string, error) {
	var data struct {
		Object struct {
			SHA string `json:"sha"`
		} `json:"object"`
	}
	if err := c.do(ctx, http.MethodGet, c.repoPath("/git/ref/heads/"+branch), nil, &data); err != nil {
		return "", err
	}
	return data.Object.SHA, nil
}

// CreateBranch creates refs/heads/<name> pointing at fromSHA.
func (c *Client) CreateBranch(ctx context.Context, name, fromSHA string) error {
	return c.do(ctx, http.MethodPost, c.repoPath("/git/refs"), map[string]string{
		"ref": "refs/heads/" + name,
		"sha": fromSHA,
	}, nil)
}

// PutFile writes content to path on branch, replacing the blob identified by sha.
func (c *Client) PutFile(ctx context.Context, path, content, branch, sha, message string) error {
	return c.do(ctx, http.MethodPut, c.repoPath("/contents/"+url.PathEscape(path)), map[string]string{
		"message": message,
		"content": base64.StdEncoding.EncodeToString([]byte(content)),
		"branch":  branch,
		"sha":     sha,
	}, nil)
}

// CreatePullRequest opens a PR and returns its number and HTML URL.
func (c *Client) CreatePullRequest(ctx context.Context, title, head, base, body string) (int, string, error) {
	var data struct {
		Number  int    `json:"number"`
		HTMLURL string `json:"html_url"`
	}
	err := c.do(ctx, http.MethodPost, c.repoPath("/pulls"), map[string]string{
		"title": title,
		"head":  head,
		"base":  base,
		"body":  body,
	}, &data)
	if err != nil {
		return 0, "", err
	}
	return data.Number, data.HTMLURL, nil
}

// AddLabels attaches labels to a PR (issues API).
func (c *Client) AddLabels(ctx context.Context, number int, labels []string) error {
	return c.do(ctx, http.MethodPost, c.repoPath(fmt.Sprintf("/issues/%d/labels", number)), map[string][]string{
		"labels": labels,
	}, nil)
}

func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
