// Package config loads application configuration from environment variables
// and the tracked user roster from a YAML file.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DrupalBaseURL string
	GitHubToken   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CacheNS       string

	SlackWebhookURL string

	PollInterval time.Duration
	QueueSize    int
	ListenAddr   string
	DBPath       string
	UsersFile    string
	LogLevel     slog.Level
}

// HasGitHubCredentials reports whether a GitHub token is configured. Without
// one the GitHub source is not registered.
func (c *Config) HasGitHubCredentials() bool {
	return c.GitHubToken != ""
}

// UsesRedis reports whether the Redis cache backend is configured. Otherwise
// the in-process cache is used.
func (c *Config) UsesRedis() bool {
	return c.RedisAddr != ""
}

// Load reads configuration from environment variables and returns a validated
// Config. Every variable is optional:
//
//	CONTRIBTRACKER_DRUPAL_BASE_URL   https://www.drupal.org/api-d7
//	CONTRIBTRACKER_GITHUB_TOKEN      (GitHub source disabled)
//	CONTRIBTRACKER_REDIS_ADDR        (in-process cache)
//	CONTRIBTRACKER_REDIS_PASSWORD
//	CONTRIBTRACKER_REDIS_DB          0
//	CONTRIBTRACKER_CACHE_NAMESPACE   contrib_tracker
//	CONTRIBTRACKER_SLACK_WEBHOOK_URL (notifications logged)
//	CONTRIBTRACKER_POLL_INTERVAL     15m, minimum time between two runs for a user
//	CONTRIBTRACKER_QUEUE_SIZE        256
//	CONTRIBTRACKER_LISTEN_ADDR       127.0.0.1:8080
//	CONTRIBTRACKER_DB_PATH           contribtracker.db
//	CONTRIBTRACKER_USERS_FILE        (no roster sync)
//	CONTRIBTRACKER_LOG_LEVEL         info
func Load() (*Config, error) {
	cfg := &Config{
		DrupalBaseURL:   envOr("CONTRIBTRACKER_DRUPAL_BASE_URL", "https://www.drupal.org/api-d7"),
		GitHubToken:     os.Getenv("CONTRIBTRACKER_GITHUB_TOKEN"),
		RedisAddr:       os.Getenv("CONTRIBTRACKER_REDIS_ADDR"),
		RedisPassword:   os.Getenv("CONTRIBTRACKER_REDIS_PASSWORD"),
		CacheNS:         envOr("CONTRIBTRACKER_CACHE_NAMESPACE", "contrib_tracker"),
		SlackWebhookURL: os.Getenv("CONTRIBTRACKER_SLACK_WEBHOOK_URL"),
		PollInterval:    15 * time.Minute,
		QueueSize:       256,
		ListenAddr:      envOr("CONTRIBTRACKER_LISTEN_ADDR", "127.0.0.1:8080"),
		DBPath:          envOr("CONTRIBTRACKER_DB_PATH", "contribtracker.db"),
		UsersFile:       os.Getenv("CONTRIBTRACKER_USERS_FILE"),
		LogLevel:        slog.LevelInfo,
	}

	if v, ok := os.LookupEnv("CONTRIBTRACKER_POLL_INTERVAL"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("CONTRIBTRACKER_POLL_INTERVAL has invalid duration %q: %w", v, err)
		}
		if parsed <= 0 {
			return nil, fmt.Errorf("CONTRIBTRACKER_POLL_INTERVAL must be positive, got %s", parsed)
		}
		cfg.PollInterval = parsed
	}

	if v, ok := os.LookupEnv("CONTRIBTRACKER_QUEUE_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("CONTRIBTRACKER_QUEUE_SIZE must be a positive integer, got %q", v)
		}
		cfg.QueueSize = n
	}

	if v, ok := os.LookupEnv("CONTRIBTRACKER_REDIS_DB"); ok {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("CONTRIBTRACKER_REDIS_DB must be a non-negative integer, got %q", v)
		}
		cfg.RedisDB = n
	}

	if v, ok := os.LookupEnv("CONTRIBTRACKER_LOG_LEVEL"); ok {
		if err := cfg.LogLevel.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("CONTRIBTRACKER_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if !strings.HasPrefix(c.DrupalBaseURL, "http://") && !strings.HasPrefix(c.DrupalBaseURL, "https://") {
		errs = append(errs, fmt.Errorf("CONTRIBTRACKER_DRUPAL_BASE_URL must be an http(s) URL, got %q", c.DrupalBaseURL))
	}
	if c.SlackWebhookURL != "" && !strings.HasPrefix(c.SlackWebhookURL, "https://") {
		errs = append(errs, errors.New("CONTRIBTRACKER_SLACK_WEBHOOK_URL must use https"))
	}
	if strings.TrimSpace(c.CacheNS) == "" {
		errs = append(errs, errors.New("CONTRIBTRACKER_CACHE_NAMESPACE must not be blank"))
	}
	return errors.Join(errs...)
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
