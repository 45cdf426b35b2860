package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/spotcast/internal/contracts"
	"github.com/wonny/spotcast/pkg/config"
	"github.com/wonny/spotcast/pkg/logger"
)

// Lazy opens the backend on first use.
// A failed open is returned to that caller and retried on the next call,
// so an unreachable database only fails PERSIST (and reads), never startup.
type Lazy struct {
	open   func(ctx context.Context) (Store, error)
	logger *logger.Logger

	mu    sync.Mutex
	store Store
}

// NewLazy defers Open(ctx, cfg, log) until the first call
func NewLazy(cfg *config.Config, log *logger.Logger) *Lazy {
	return &Lazy{
		open: func(ctx context.Context) (Store, error) {
			return Open(ctx, cfg, log)
		},
		logger: log.WithComponent("store"),
	}
}

func (l *Lazy) get(ctx context.Context) (Store, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store != nil {
		return l.store, nil
	}

	s, err := l.open(ctx)
	if err != nil {
		l.logger.WithError(err).Warn("Run store unavailable")
		return nil, fmt.Errorf("open run store: %w", err)
	}
	l.store = s
	return s, nil
}

// SaveRun implements contracts.RunStore
func (l *Lazy) SaveRun(ctx context.Context, run contracts.RunRecord, values []contracts.ValueRecord) (int64, error) {
	s, err := l.get(ctx)
	if err != nil {
		return 0, err
	}
	return s.SaveRun(ctx, run, values)
}

// RecentRuns implements contracts.RunReader
func (l *Lazy) RecentRuns(ctx context.Context, limit int) ([]contracts.RunRecord, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.RecentRuns(ctx, limit)
}

// ForecastValues implements contracts.RunReader
func (l *Lazy) ForecastValues(ctx context.Context, runID int64) ([]contracts.ValueRecord, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.ForecastValues(ctx, runID)
}

// PerformanceSummary implements contracts.RunReader
func (l *Lazy) PerformanceSummary(ctx context.Context, days int) (*contracts.PerformanceSummary, error) {
	s, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return s.PerformanceSummary(ctx, days)
}

// Close closes the backend if it was opened
func (l *Lazy) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.store == nil {
		return nil
	}
	err := l.store.Close()
	l.store = nil
	return err
}

var _ Store = (*Lazy)(nil)
