package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/internal/datasource"
	"github.com/wonny/spotcast/internal/external/github"
	"github.com/wonny/spotcast/internal/external/nordpool"
	"github.com/wonny/spotcast/internal/external/notion"
	"github.com/wonny/spotcast/internal/external/slack"
	"github.com/wonny/spotcast/internal/pipeline"
	"github.com/wonny/spotcast/internal/report"
	"github.com/wonny/spotcast/internal/store"
	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/httputil"
	"github.com/wonny/spotcast/pkg/logger"
	"github.com/wonny/spotcast/pkg/redis"
)

const (
	// feedTimeout 가격 피드 요청 타임아웃
	feedTimeout = 30 * time.Second
	// feedRPS 가격 피드 초당 요청 상한
	feedRPS = 2
)

// app 커맨드 공용 의존성 그래프
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	resolver *datasource.Resolver
	store    store.Store // nil when DATABASE_URL is empty
	pipeline *pipeline.Pipeline
	runner   *pipeline.Runner
	closers  []func()
}

// newApp loads config and wires every collaborator
func newApp(ctx context.Context) (*app, error) {
	// 1. Load config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}

	// 2. Initialize logger
	log := logger.New(cfg)
	a := &app{cfg: cfg, log: log}

	// 3. Redis cache (optional)
	rc, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, spot price cache disabled")
		rc = redis.NewFromRedis(nil)
	}
	a.closers = append(a.closers, func() { _ = rc.Close() })

	// 4. Price feed + resolver
	httpClient := httputil.NewWithTimeout(cfg, log, feedTimeout).WithRateLimit(feedRPS, 1)
	feed := nordpool.NewClient(cfg, httpClient, redis.NewCache(rc, "spotcast"), log)
	a.resolver = datasource.NewResolver(cfg, feed, log)

	// 5. Notifier: Slack when a token is configured, console otherwise
	var notifier contracts.Notifier
	if cfg.Slack.Enabled() {
		notifier = slack.NewClient(cfg, log)
	} else {
		log.Info("SLACK_TOKEN not set, messages go to stdout")
		notifier = slack.NewConsoleNotifier(os.Stdout)
	}

	// 6. Run store (optional): opened on first use, an outage only fails PERSIST
	if cfg.Database.Enabled() {
		st := store.NewLazy(cfg, log)
		a.store = st
		a.closers = append(a.closers, func() { _ = st.Close() })
	}

	// 7. Pipeline
	deps := pipeline.Deps{
		Resolver:  a.resolver,
		Notifier:  notifier,
		Renderer:  report.NewRenderer(log),
		Pages:     notion.NewClient(cfg, log),
		Committer: github.NewClient(cfg, log),
	}
	if a.store != nil {
		deps.Store = a.store
	}
	a.pipeline = pipeline.New(cfg, deps, log)
	a.runner = pipeline.NewRunner(a.pipeline)

	return a, nil
}

// requireStore fails when no run store is configured
func (a *app) requireStore() (store.Store, error) {
	if a.store == nil {
		return nil, fmt.Errorf("DATABASE_URL is not configured")
	}
	return a.store, nil
}

// horizonOr returns h, or the configured horizon when h is zero
func (a *app) horizonOr(h int) int {
	if h == 0 {
		return a.cfg.HorizonHours
	}
	return h
}

// Close releases resources in reverse order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}
