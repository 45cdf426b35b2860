package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
// Built once at process start and passed by pointer into every constructor.
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	Nordpool NordpoolConfig
	Slack    SlackConfig
	Notion   NotionConfig
	GitHub   GitHubConfig

	// Scheduler
	Scheduler SchedulerConfig

	// Forecast
	ReportsDir   string
	HorizonHours int

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds run store configuration.
// URL scheme selects the backend: postgres:// / postgresql:// or sqlite://.
type DatabaseConfig struct {
	URL string

	// Connection Pool (postgres only)
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
	CacheTTL time.Duration
}

// NordpoolConfig holds live price feed configuration
type NordpoolConfig struct {
	APIKey     string
	BaseURL    string
	Area       string
	Currency   string
	Resolution string
}

// SlackConfig holds Slack notifier configuration
type SlackConfig struct {
	Token   string
	Channel string
	BaseURL string
}

// NotionConfig holds Notion sink configuration
type NotionConfig struct {
	Token      string
	DatabaseID string
	BaseURL    string
	Version    string
}

// GitHubConfig holds GitHub sink configuration
type GitHubConfig struct {
	Token          string
	Repo           string // owner/name
	Branch         string
	CommitterName  string
	CommitterEmail string
	BaseURL        string
}

// SchedulerConfig holds cron configuration for the two scheduled jobs
type SchedulerConfig struct {
	Timezone    string
	FetchCron   string
	RetrainCron string
}

// Enabled reports whether the live feed credential is configured
func (c NordpoolConfig) Enabled() bool {
	return c.APIKey != ""
}

// Enabled reports whether the Slack credential is configured
func (c SlackConfig) Enabled() bool {
	return c.Token != ""
}

// Enabled reports whether both Notion credential and database id are configured
func (c NotionConfig) Enabled() bool {
	return c.Token != "" && c.DatabaseID != ""
}

// Enabled reports whether GitHub credential and repository are configured
func (c GitHubConfig) Enabled() bool {
	return c.Token != "" && c.Repo != ""
}

// Enabled reports whether a run store is configured
func (c DatabaseConfig) Enabled() bool {
	return c.URL != ""
}

// Location loads the scheduler timezone
func (c SchedulerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := Default()

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Env = getEnv("ENV", cfg.Env)

	cfg.Database = DatabaseConfig{
		URL:             getEnv("DATABASE_URL", cfg.Database.URL),
		MaxConns:        getEnvAsInt("DB_MAX_CONNS", cfg.Database.MaxConns),
		MinConns:        getEnvAsInt("DB_MIN_CONNS", cfg.Database.MinConns),
		MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
		MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
	}

	cfg.Redis = RedisConfig{
		Host:     getEnv("REDIS_HOST", cfg.Redis.Host),
		Port:     getEnv("REDIS_PORT", cfg.Redis.Port),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       getEnvAsInt("REDIS_DB", 0),
		Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		CacheTTL: getEnvAsDuration("REDIS_CACHE_TTL", "1h"),
	}

	cfg.Nordpool = NordpoolConfig{
		APIKey:     getEnv("NORDPOOL_API_KEY", ""),
		BaseURL:    getEnv("NORDPOOL_BASE_URL", cfg.Nordpool.BaseURL),
		Area:       getEnv("PRICE_AREA", cfg.Nordpool.Area),
		Currency:   getEnv("PRICE_CURRENCY", cfg.Nordpool.Currency),
		Resolution: getEnv("PRICE_RESOLUTION", cfg.Nordpool.Resolution),
	}

	cfg.Slack = SlackConfig{
		Token:   getEnv("SLACK_TOKEN", ""),
		Channel: getEnv("SLACK_CHANNEL", cfg.Slack.Channel),
		BaseURL: getEnv("SLACK_BASE_URL", cfg.Slack.BaseURL),
	}

	cfg.Notion = NotionConfig{
		Token:      getEnv("NOTION_TOKEN", ""),
		DatabaseID: getEnv("NOTION_DATABASE_ID", ""),
		BaseURL:    getEnv("NOTION_BASE_URL", cfg.Notion.BaseURL),
		Version:    getEnv("NOTION_VERSION", cfg.Notion.Version),
	}

	cfg.GitHub = GitHubConfig{
		Token:          getEnv("GITHUB_TOKEN", ""),
		Repo:           getEnv("GITHUB_REPO", ""),
		Branch:         getEnv("GITHUB_BRANCH", cfg.GitHub.Branch),
		CommitterName:  getEnv("GITHUB_COMMITTER_NAME", cfg.GitHub.CommitterName),
		CommitterEmail: getEnv("GITHUB_COMMITTER_EMAIL", cfg.GitHub.CommitterEmail),
		BaseURL:        getEnv("GITHUB_BASE_URL", cfg.GitHub.BaseURL),
	}

	cfg.Scheduler = SchedulerConfig{
		Timezone:    getEnv("SCHEDULER_TIMEZONE", cfg.Scheduler.Timezone),
		FetchCron:   getEnv("FETCH_CRON", cfg.Scheduler.FetchCron),
		RetrainCron: getEnv("RETRAIN_CRON", cfg.Scheduler.RetrainCron),
	}

	cfg.ReportsDir = getEnv("REPORTS_DIR", cfg.ReportsDir)
	cfg.HorizonHours = getEnvAsInt("HORIZON_HOURS", cfg.HorizonHours)

	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Default returns a configuration with every default applied and no credentials.
// Tests build on this instead of mutating process environment.
func Default() *Config {
	return &Config{
		Port: "8089",
		Env:  "development",
		Database: DatabaseConfig{
			URL:             "sqlite:///data/spotcast.db",
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			Host:     "localhost",
			Port:     "6379",
			CacheTTL: time.Hour,
		},
		Nordpool: NordpoolConfig{
			BaseURL:    "https://api.nordpoolgroup.com",
			Area:       "DK1",
			Currency:   "EUR",
			Resolution: "hour",
		},
		Slack: SlackConfig{
			Channel: "#energy-forecast",
			BaseURL: "https://slack.com/api",
		},
		Notion: NotionConfig{
			BaseURL: "https://api.notion.com/v1",
			Version: "2022-06-28",
		},
		GitHub: GitHubConfig{
			Branch:         "main",
			CommitterName:  "Automation Agent",
			CommitterEmail: "automation@example.com",
			BaseURL:        "https://api.github.com",
		},
		Scheduler: SchedulerConfig{
			Timezone:    "Europe/Copenhagen",
			FetchCron:   "0 5 * * *", // every day at 05:00
			RetrainCron: "0 6 * * 1", // every Monday at 06:00
		},
		ReportsDir:   "reports",
		HorizonHours: 24,
		LogLevel:     "info",
		LogFormat:    "json",
	}
}

// Validate checks if configuration values are usable
func (c *Config) Validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.HorizonHours <= 0 {
		return fmt.Errorf("HORIZON_HOURS must be positive, got %d", c.HorizonHours)
	}

	if c.Database.URL != "" && !IsPostgresURL(c.Database.URL) && !IsSQLiteURL(c.Database.URL) {
		return fmt.Errorf("DATABASE_URL must use postgres:// or sqlite:// scheme")
	}

	if _, err := c.Scheduler.Location(); err != nil {
		return fmt.Errorf("SCHEDULER_TIMEZONE invalid: %w", err)
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Scheduler.FetchCron); err != nil {
		return fmt.Errorf("FETCH_CRON invalid: %w", err)
	}
	if _, err := parser.Parse(c.Scheduler.RetrainCron); err != nil {
		return fmt.Errorf("RETRAIN_CRON invalid: %w", err)
	}

	return nil
}

// IsPostgresURL reports whether url targets PostgreSQL
func IsPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// IsSQLiteURL reports whether url targets a SQLite file
func IsSQLiteURL(url string) bool {
	return strings.HasPrefix(url, "sqlite://")
}

// SQLitePath extracts the file path from a sqlite:// URL (SQLAlchemy 규칙).
// sqlite:///data/x.db is relative (data/x.db), sqlite:////abs/x.db is absolute (/abs/x.db).
// The legacy two-slash form sqlite://data/x.db is still read as relative.
func SQLitePath(url string) string {
	path := strings.TrimPrefix(url, "sqlite://")
	return strings.TrimPrefix(path, "/")
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	// Try paths in order of priority
	paths := []string{
		".env", // Current directory
	}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}
