package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/logger"
)

func newTestClient(baseURL string) *Client {
	cfg := config.Default()
	cfg.Slack.Token = "xoxb-test"
	cfg.Slack.BaseURL = baseURL
	return NewClient(cfg, logger.Nop())
}

func TestPostMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat.postMessage", r.URL.Path)
		assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "#energy-forecast", body["channel"])
		assert.Equal(t, "hello", body["text"])

		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	err := newTestClient(server.URL).PostMessage(context.Background(), "#energy-forecast", "hello")
	assert.NoError(t, err)
}

func TestPostMessage_NotOK(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":false,"error":"channel_not_found"}`))
	}))
	defer server.Close()

	err := newTestClient(server.URL).PostMessage(context.Background(), "#missing", "hello")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel_not_found")

	var svcErr *contracts.ExternalServiceError
	require.True(t, errors.As(err, &svcErr))
	assert.Equal(t, "slack", svcErr.Service)
	assert.Equal(t, "chat.postMessage", svcErr.Op)
}

func TestPostMessage_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := newTestClient(server.URL).PostMessage(context.Background(), "#c", "hello")
	assert.Error(t, err)
}

func TestUploadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")
	require.NoError(t, os.WriteFile(path, []byte("png-bytes"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/files.upload", r.URL.Path)
		assert.Equal(t, "Bearer xoxb-test", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))

		assert.Equal(t, "#energy-forecast", r.FormValue("channels"))
		assert.Equal(t, "Spot price forecast", r.FormValue("title"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		data, _ := io.ReadAll(file)
		assert.Equal(t, "chart.png", header.Filename)
		assert.Equal(t, "png-bytes", string(data))

		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	err := newTestClient(server.URL).UploadFile(context.Background(), "#energy-forecast", path, "Spot price forecast")
	assert.NoError(t, err)
}

func TestUploadFile_MissingFile(t *testing.T) {
	err := newTestClient("http://127.0.0.1:1").UploadFile(context.Background(), "#c", "/does/not/exist.png", "")
	assert.Error(t, err)
}

func TestConsoleNotifier(t *testing.T) {
	buf := &bytes.Buffer{}
	var n contracts.Notifier = NewConsoleNotifier(buf)

	require.NoError(t, n.PostMessage(context.Background(), "#energy-forecast", "RMSE: 1.00"))
	assert.Equal(t, "[#energy-forecast] RMSE: 1.00\n", buf.String())

	_, canUpload := n.(contracts.FileUploader)
	assert.False(t, canUpload)
}
