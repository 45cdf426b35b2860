package github

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/httputil"
	"github.com/wonny/spotcast/pkg/logger"
)

const (
	serviceName = "github"

	getTimeout = 30 * time.Second
	putTimeout = 60 * time.Second
)

// Client commits files through the GitHub contents API
// ⭐ SSOT: GitHub API 호출은 이 클라이언트에서만
// Create-or-update: an existing file's SHA is fetched and sent along so history is kept.
type Client struct {
	getClient *httputil.Client
	putClient *httputil.Client
	logger    *logger.Logger
	cfg       config.GitHubConfig
	baseURL   string
}

// NewClient creates a new GitHub client
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		getClient: httputil.NewWithTimeout(cfg, log, getTimeout),
		putClient: httputil.NewWithTimeout(cfg, log, putTimeout),
		logger:    log.WithComponent("github"),
		cfg:       cfg.GitHub,
		baseURL:   strings.TrimRight(cfg.GitHub.BaseURL, "/"),
	}
}

type committer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type putRequest struct {
	Message   string    `json:"message"`
	Content   string    `json:"content"`
	Branch    string    `json:"branch"`
	Committer committer `json:"committer"`
	SHA       string    `json:"sha,omitempty"`
}

type contentResponse struct {
	SHA string `json:"sha"`
}

// CommitFile creates or updates dest with content on the configured branch
func (c *Client) CommitFile(ctx context.Context, dest string, content []byte, message string) error {
	contentURL := c.contentURL(dest)

	sha, err := c.existingSHA(ctx, contentURL)
	if err != nil {
		return contracts.NewExternalServiceError(serviceName, "get content", err)
	}

	payload := putRequest{
		Message: message,
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  c.cfg.Branch,
		Committer: committer{
			Name:  c.cfg.CommitterName,
			Email: c.cfg.CommitterEmail,
		},
		SHA: sha,
	}

	if _, err := c.putClient.DoJSON(ctx, http.MethodPut, contentURL, c.header(), payload, nil); err != nil {
		return contracts.NewExternalServiceError(serviceName, "put content", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"repo":    c.cfg.Repo,
		"branch":  c.cfg.Branch,
		"path":    dest,
		"updated": sha != "",
	}).Info("GitHub file committed")
	return nil
}

// existingSHA returns "" when the file does not exist yet
func (c *Client) existingSHA(ctx context.Context, contentURL string) (string, error) {
	var resp contentResponse
	_, err := c.getClient.DoJSON(ctx, http.MethodGet, contentURL+"?ref="+url.QueryEscape(c.cfg.Branch), c.header(), nil, &resp)

	var statusErr *httputil.StatusError
	switch {
	case err == nil:
		return resp.SHA, nil
	case errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound:
		return "", nil
	default:
		return "", err
	}
}

func (c *Client) contentURL(dest string) string {
	segments := strings.Split(strings.Trim(dest, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return fmt.Sprintf("%s/repos/%s/contents/%s", c.baseURL, c.cfg.Repo, strings.Join(segments, "/"))
}

func (c *Client) header() http.Header {
	h := httputil.BearerHeader(c.cfg.Token)
	h.Set("Accept", "application/vnd.github+json")
	return h
}
