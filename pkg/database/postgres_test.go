package database

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spotcast/pkg/config"
)

func TestNew_RejectsNonPostgresURL(t *testing.T) {
	cfg := config.Default()
	cfg.Database.URL = "sqlite:///data/spotcast.db"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNew_InvalidURL(t *testing.T) {
	cfg := config.Default()
	cfg.Database.URL = "postgres://user:pass@[::1"

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNew_Integration(t *testing.T) {
	// Skip if TEST_POSTGRES_URL is not set
	url := os.Getenv("TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("TEST_POSTGRES_URL not set, skipping integration test")
	}

	cfg := config.Default()
	cfg.Database.URL = url

	db, err := New(context.Background(), cfg)
	require.NoError(t, err)
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	status, err := db.HealthCheck(ctx)
	require.NoError(t, err)
	assert.True(t, status.Healthy)
}
