package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
	StoreBackendMemory   = "memory"
)

type User struct {
	UID          string `toml:"uid"`
	DisplayName  string `toml:"display_name"`
	Email        string `toml:"email"`
	PhotoURL     string `toml:"photo_url"`
	PasswordHash string `toml:"password_hash"`
}

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// postgres
	PostgresHost    string `toml:"postgres_host"`
	PostgresPort    string `toml:"postgres_port"`
	PostgresDBName  string `toml:"postgres_db_name"`
	PostgresSSLMode string `toml:"postgres_ssl_mode"`
	RunMigrations   bool   `toml:"run_migrations"`

	// plan document store
	StoreBackend          string `toml:"store_backend"`
	UserCollection        string `toml:"user_collection"`
	WorkoutsSubcollection string `toml:"workouts_subcollection"`
	DocumentID            string `toml:"document_id"`
	MaxConflictRetries    int    `toml:"max_conflict_retries"`
	DocCacheSizeMB        int    `toml:"doc_cache_size_mb"`
	DocCacheTTLSeconds    int    `toml:"doc_cache_ttl_seconds"`
	SyncQueueSize         int    `toml:"sync_queue_size"`

	// plan
	MaxTabs int `toml:"max_tabs"`

	// timers
	CountdownSeconds   int `toml:"countdown_seconds"`
	CircuitTickMillis  int `toml:"circuit_tick_millis"`
	CountdownTickMilli int `toml:"countdown_tick_millis"`
	TimerIdleMinutes   int `toml:"timer_idle_minutes"`

	// preferences
	PreferencesDBPath string `toml:"preferences_db_path"`
	DefaultTheme      string `toml:"default_theme"`

	// auth
	SessionTTLHours       int      `toml:"session_ttl_hours"`
	SignInRateLimitPerMin int      `toml:"sign_in_rate_limit_per_min"`
	AllowedOrigins        []string `toml:"allowed_origins"`
	Users                 []User   `toml:"users"`
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML file at path and returns the config section for env, with defaults applied.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file %s: %w", path, err)
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env [%s] missing", env)
	}

	if logsPath := os.Getenv("GYMPLAN_LOGS_PATH"); logsPath != "" {
		cfg.LogsPath = logsPath
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) ApplyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 9000
	}
	if c.PrometheusMetricsHost == "" {
		c.PrometheusMetricsHost = "localhost"
	}
	if c.PrometheusMetricsPort == "" {
		c.PrometheusMetricsPort = "2112"
	}
	if c.PostgresSSLMode == "" {
		c.PostgresSSLMode = "disable"
	}
	if c.StoreBackend == "" {
		c.StoreBackend = StoreBackendPostgres
	}
	if c.UserCollection == "" {
		c.UserCollection = "users"
	}
	if c.WorkoutsSubcollection == "" {
		c.WorkoutsSubcollection = "workouts"
	}
	if c.DocumentID == "" {
		c.DocumentID = "plan"
	}
	if c.MaxConflictRetries == 0 {
		c.MaxConflictRetries = 3
	}
	if c.DocCacheTTLSeconds == 0 {
		c.DocCacheTTLSeconds = 300
	}
	if c.SyncQueueSize == 0 {
		c.SyncQueueSize = 64
	}
	if c.MaxTabs == 0 {
		c.MaxTabs = 3
	}
	if c.CountdownSeconds == 0 {
		c.CountdownSeconds = 60
	}
	if c.CircuitTickMillis == 0 {
		c.CircuitTickMillis = 100
	}
	if c.CountdownTickMilli == 0 {
		c.CountdownTickMilli = 1000
	}
	if c.TimerIdleMinutes == 0 {
		c.TimerIdleMinutes = 120
	}
	if c.PreferencesDBPath == "" {
		c.PreferencesDBPath = "./preferences.db"
	}
	if c.DefaultTheme == "" {
		c.DefaultTheme = "light"
	}
	if c.SessionTTLHours == 0 {
		c.SessionTTLHours = 24 * 7
	}
	if c.SignInRateLimitPerMin == 0 {
		c.SignInRateLimitPerMin = 5
	}
}

func (c *Config) Validate() error {
	switch c.StoreBackend {
	case StoreBackendPostgres, StoreBackendRedis, StoreBackendMemory:
	default:
		return fmt.Errorf("unknown store backend: %s", c.StoreBackend)
	}
	if c.MaxTabs < 1 {
		return fmt.Errorf("max tabs must be positive, got %d", c.MaxTabs)
	}
	if c.MaxConflictRetries < 0 {
		return fmt.Errorf("max conflict retries must not be negative, got %d", c.MaxConflictRetries)
	}
	if c.DefaultTheme != "light" && c.DefaultTheme != "dark" {
		return fmt.Errorf("unknown default theme: %s", c.DefaultTheme)
	}
	seen := make(map[string]bool, len(c.Users))
	for _, u := range c.Users {
		if u.UID == "" || u.Email == "" {
			return fmt.Errorf("user entry requires uid and email")
		}
		if seen[u.Email] {
			return fmt.Errorf("duplicate user email: %s", u.Email)
		}
		seen[u.Email] = true
	}
	return nil
}
