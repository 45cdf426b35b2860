package slack

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/httputil"
	"github.com/wonny/spotcast/pkg/logger"
)

const (
	serviceName = "slack"

	postTimeout   = 30 * time.Second
	uploadTimeout = 60 * time.Second
)

// Client handles communication with the Slack Web API
// ⭐ SSOT: Slack API 호출은 이 클라이언트에서만
// Implements contracts.Notifier and contracts.FileUploader.
type Client struct {
	postClient   *httputil.Client
	uploadClient *httputil.Client
	logger       *logger.Logger
	token        string
	baseURL      string
}

// NewClient creates a new Slack client
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		postClient:   httputil.NewWithTimeout(cfg, log, postTimeout),
		uploadClient: httputil.NewWithTimeout(cfg, log, uploadTimeout),
		logger:       log.WithComponent("slack"),
		token:        cfg.Slack.Token,
		baseURL:      strings.TrimRight(cfg.Slack.BaseURL, "/"),
	}
}

// apiResponse Slack은 HTTP 200 + ok=false로 실패를 알림
type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

func (r apiResponse) err() error {
	if r.OK {
		return nil
	}
	return fmt.Errorf("slack api error: %s", r.Error)
}

// PostMessage posts text to channel via chat.postMessage
func (c *Client) PostMessage(ctx context.Context, channel, text string) error {
	payload := map[string]string{
		"channel": channel,
		"text":    text,
	}

	var resp apiResponse
	if _, err := c.postClient.DoJSON(ctx, http.MethodPost, c.baseURL+"/chat.postMessage",
		httputil.BearerHeader(c.token), payload, &resp); err != nil {
		return contracts.NewExternalServiceError(serviceName, "chat.postMessage", err)
	}
	if err := resp.err(); err != nil {
		return contracts.NewExternalServiceError(serviceName, "chat.postMessage", err)
	}

	c.logger.WithField("channel", channel).Info("Slack message posted")
	return nil
}

// UploadFile uploads the file at path to channel via files.upload
func (c *Client) UploadFile(ctx context.Context, channel, path, title string) error {
	if title == "" {
		title = filepath.Base(path)
	}

	body, contentType, err := multipartBody(channel, path, title)
	if err != nil {
		return contracts.NewExternalServiceError(serviceName, "files.upload", err)
	}

	httpResp, err := c.uploadClient.Post(ctx, c.baseURL+"/files.upload", contentType, body, httputil.BearerHeader(c.token))
	if err != nil {
		return contracts.NewExternalServiceError(serviceName, "files.upload", err)
	}

	var resp apiResponse
	if err := httputil.DecodeJSON(httpResp, &resp); err != nil {
		return contracts.NewExternalServiceError(serviceName, "files.upload", err)
	}
	if err := resp.err(); err != nil {
		return contracts.NewExternalServiceError(serviceName, "files.upload", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"channel": channel,
		"file":    filepath.Base(path),
	}).Info("Slack file uploaded")
	return nil
}

func multipartBody(channel, path, title string) (io.Reader, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", fmt.Errorf("open upload file: %w", err)
	}
	defer f.Close()

	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	if err := w.WriteField("channels", channel); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("title", title); err != nil {
		return nil, "", err
	}

	part, err := w.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, "", fmt.Errorf("read upload file: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}

	return buf, w.FormDataContentType(), nil
}

// Interface guards
var (
	_ contracts.Notifier     = (*Client)(nil)
	_ contracts.FileUploader = (*Client)(nil)
)
