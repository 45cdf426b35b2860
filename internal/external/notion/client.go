package notion

import (
	"context"
	"math"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/httputil"
	"github.com/wonny/spotcast/pkg/logger"
)

const (
	serviceName    = "notion"
	requestTimeout = 30 * time.Second
)

// Client creates forecast run pages in a Notion database
// ⭐ SSOT: Notion API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	token      string
	databaseID string
	baseURL    string
	version    string
}

// NewClient creates a new Notion client
func NewClient(cfg *config.Config, log *logger.Logger) *Client {
	return &Client{
		httpClient: httputil.NewWithTimeout(cfg, log, requestTimeout),
		logger:     log.WithComponent("notion"),
		token:      cfg.Notion.Token,
		databaseID: cfg.Notion.DatabaseID,
		baseURL:    strings.TrimRight(cfg.Notion.BaseURL, "/"),
		version:    cfg.Notion.Version,
	}
}

// LogRun creates one page for the run
func (c *Client) LogRun(ctx context.Context, entry contracts.RunEntry) error {
	header := httputil.BearerHeader(c.token)
	header.Set("Notion-Version", c.version)

	payload := map[string]interface{}{
		"parent":     map[string]string{"database_id": c.databaseID},
		"properties": pageProperties(entry),
	}

	var resp struct {
		ID string `json:"id"`
	}
	if _, err := c.httpClient.DoJSON(ctx, http.MethodPost, c.baseURL+"/pages", header, payload, &resp); err != nil {
		return contracts.NewExternalServiceError(serviceName, "create page", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"page_id": resp.ID,
		"run_id":  entry.RunID,
	}).Info("Notion page created")
	return nil
}

// PageTitle "Forecast run YYYY-MM-DD HH:MM UTC"
func PageTitle(ts time.Time) string {
	return "Forecast run " + ts.UTC().Format("2006-01-02 15:04") + " UTC"
}

func pageProperties(entry contracts.RunEntry) map[string]interface{} {
	return map[string]interface{}{
		"Name": map[string]interface{}{
			"title": []map[string]interface{}{
				{"text": map[string]string{"content": PageTitle(entry.Timestamp)}},
			},
		},
		"Horizon":     map[string]interface{}{"number": entry.Horizon},
		"RMSE":        map[string]interface{}{"number": round4(entry.Metrics.RMSE)},
		"MAE":         map[string]interface{}{"number": round4(entry.Metrics.MAE)},
		"MAPE":        map[string]interface{}{"number": round4(entry.Metrics.MAPE)},
		"Data Source": map[string]interface{}{"select": map[string]string{"name": string(entry.DataSource)}},
		"Report":      map[string]interface{}{"url": fileURI(entry.ReportPath)},
	}
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func fileURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(path)}).String()
}
