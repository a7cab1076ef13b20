package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// TelegramConfig holds Telegram bot related settings.
type TelegramConfig struct {
	Token   string `yaml:"token" envconfig:"BOT_TOKEN"`
	AdminID int64  `yaml:"admin_id" envconfig:"TELEGRAM_ADMIN_ID"`
	RunMode string `yaml:"run_mode" envconfig:"TELEGRAM_RUN_MODE"`
	// LongPollTimeoutSeconds defines long polling timeout; 0 -> default
	LongPollTimeoutSeconds int `yaml:"longpoll_timeout_seconds" envconfig:"TELEGRAM_LONGPOLL_TIMEOUT_SECONDS"`
}

// WebhookConfig specifies webhook settings.
type WebhookConfig struct {
	URL    string `yaml:"url" envconfig:"WEBHOOK_URL"`
	Listen string `yaml:"listen" envconfig:"WEBHOOK_LISTEN"`
	Port   int    `yaml:"port" envconfig:"WEBHOOK_PORT"`
}

// LoggingConfig defines logging related configuration.
type LoggingConfig struct {
	Level       string `yaml:"level" envconfig:"LOG_LEVEL"`
	Format      string `yaml:"format" envconfig:"LOG_FORMAT"`
	KeysOrder   string `yaml:"keys_order"`
	DebugSample string `yaml:"debug_sample"`
	Dir         string `yaml:"dir" envconfig:"LOG_DIR"`
	BotFile     string `yaml:"bot_file"`
	// Profile indicates environment profile such as "debug" or "prod".
	Profile string `yaml:"profile" envconfig:"LOG_PROFILE"`
}

// RateLimitConfig holds settings for rate limiting.
// ExcludeUpdates accepts update types to bypass limiting:
// "callback", "message", "location".
type RateLimitConfig struct {
	IntervalMS     int      `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
	ExcludeUpdates []string `yaml:"exclude_updates" envconfig:"RATE_LIMIT_EXCLUDE_UPDATES"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	MigrationsDir  string `yaml:"migrations_dir" envconfig:"DB_MIGRATIONS_DIR"`
}

// RedisConfig configures the optional Redis conversation store.
type RedisConfig struct {
	Addr     string `yaml:"addr" envconfig:"REDIS_ADDR"`
	Password string `yaml:"password" envconfig:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" envconfig:"REDIS_DB"`
}

// StateConfig selects the conversation store backend.
type StateConfig struct {
	Backend string        `yaml:"backend" envconfig:"STATE_BACKEND"`
	TTL     time.Duration `yaml:"ttl" envconfig:"STATE_TTL"`
	Prefix  string        `yaml:"prefix" envconfig:"STATE_PREFIX"`
}

// LLMConfig describes the OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	APIKey        string        `yaml:"api_key" envconfig:"OPENAI_API_KEY"`
	BaseURL       string        `yaml:"base_url" envconfig:"OPENAI_BASE_URL"`
	Model         string        `yaml:"model" envconfig:"OPENAI_MODEL"`
	Temperature   float32       `yaml:"temperature"`
	TopP          float32       `yaml:"top_p"`
	MaxTokens     int           `yaml:"max_tokens"`
	PlanMaxTokens int           `yaml:"plan_max_tokens"`
	Timeout       time.Duration `yaml:"timeout" envconfig:"OPENAI_TIMEOUT"`
	MaxAttempts   int           `yaml:"max_attempts"`
	BackoffBase   time.Duration `yaml:"backoff_base"`
	BackoffMax    time.Duration `yaml:"backoff_max"`
}

// LimitsConfig bounds result sizes and search radius.
type LimitsConfig struct {
	MaxRecipeResults int     `yaml:"max_recipe_results" envconfig:"MAX_RECIPE_RESULTS"`
	MaxShopResults   int     `yaml:"max_shop_results" envconfig:"MAX_SHOPS_RESULTS"`
	ShopRadiusKm     float64 `yaml:"shop_radius_km" envconfig:"SHOP_RADIUS_KM"`
	DefaultLocale    string  `yaml:"default_locale" envconfig:"DEFAULT_LOCALE"`
}

// CatalogConfig selects where reference data comes from.
type CatalogConfig struct {
	Source string `yaml:"source" envconfig:"CATALOG_SOURCE"`
	File   string `yaml:"file" envconfig:"CATALOG_FILE"`
	Seed   bool   `yaml:"seed" envconfig:"CATALOG_SEED"`
}

// MetricsConfig enables the Prometheus endpoint when Listen is set.
type MetricsConfig struct {
	Listen string `yaml:"listen" envconfig:"METRICS_LISTEN"`
}

const (
	// RunModeWebhook selects webhook mode for Telegram updates.
	RunModeWebhook = "webhook"
	// RunModeLongpoll selects long-polling mode for Telegram updates.
	RunModeLongpoll = "longpoll"
)

const (
	// UpdateCallback identifies callback updates for rate limit exclusions.
	UpdateCallback = "callback"
	// UpdateMessage identifies message updates for rate limit exclusions.
	UpdateMessage = "message"
	// UpdateLocation identifies location updates for rate limit exclusions.
	UpdateLocation = "location"
)

const (
	StateBackendMemory = "memory"
	StateBackendRedis  = "redis"
)

const (
	CatalogBuiltin  = "builtin"
	CatalogFile     = "file"
	CatalogDatabase = "database"
)

// Config aggregates the whole bot configuration.
type Config struct {
	Telegram  TelegramConfig  `yaml:"telegram"`
	Webhook   WebhookConfig   `yaml:"webhook"`
	Logging   LoggingConfig   `yaml:"logging"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	State     StateConfig     `yaml:"state"`
	LLM       LLMConfig       `yaml:"llm"`
	Limits    LimitsConfig    `yaml:"limits"`
	Catalog   CatalogConfig   `yaml:"catalog"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// Load reads configuration from a YAML file and environment variables.
// A .env file in the working directory, when present, is loaded first and
// never overrides variables that are already set.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	var cfg Config
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs validation of required configuration fields and fills defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram token is required")
	}
	if err := normalizeRunMode(cfg); err != nil {
		return err
	}
	if err := normalizeRateLimit(&cfg.RateLimit); err != nil {
		return err
	}
	if err := normalizeState(&cfg.State, cfg.Redis); err != nil {
		return err
	}
	if err := normalizeLimits(&cfg.Limits); err != nil {
		return err
	}
	if err := normalizeCatalog(&cfg.Catalog); err != nil {
		return err
	}
	normalizeDatabase(&cfg.Database)
	normalizeLLM(&cfg.LLM)
	return nil
}

func normalizeRunMode(cfg *Config) error {
	rm := strings.ToLower(strings.TrimSpace(cfg.Telegram.RunMode))
	if rm == "" || rm == "polling" {
		rm = RunModeLongpoll
	}
	switch rm {
	case RunModeWebhook:
		if strings.TrimSpace(cfg.Webhook.URL) == "" {
			return fmt.Errorf("webhook.url is required when telegram.run_mode is 'webhook'")
		}
		if strings.TrimSpace(cfg.Webhook.Listen) == "" {
			return fmt.Errorf("webhook.listen is required when telegram.run_mode is 'webhook'")
		}
		if cfg.Webhook.Port <= 0 {
			return fmt.Errorf("webhook.port must be > 0 when telegram.run_mode is 'webhook'")
		}
	case RunModeLongpoll:
		if cfg.Telegram.LongPollTimeoutSeconds < 0 {
			return fmt.Errorf("telegram.longpoll_timeout_seconds must be >= 0")
		}
	default:
		return fmt.Errorf("invalid telegram.run_mode %q; allowed: webhook, longpoll", cfg.Telegram.RunMode)
	}
	cfg.Telegram.RunMode = rm
	return nil
}

func normalizeRateLimit(rl *RateLimitConfig) error {
	allowed := map[string]struct{}{
		UpdateCallback: {},
		UpdateMessage:  {},
		UpdateLocation: {},
	}
	for i, v := range rl.ExcludeUpdates {
		key := strings.ToLower(strings.TrimSpace(v))
		if key == "" {
			continue
		}
		if _, ok := allowed[key]; !ok {
			return fmt.Errorf("invalid rate_limit.exclude_updates value %q; allowed: callback, message, location", v)
		}
		rl.ExcludeUpdates[i] = key
	}
	return nil
}

func normalizeState(st *StateConfig, redis RedisConfig) error {
	backend := strings.ToLower(strings.TrimSpace(st.Backend))
	if backend == "" {
		backend = StateBackendMemory
	}
	switch backend {
	case StateBackendMemory:
	case StateBackendRedis:
		if strings.TrimSpace(redis.Addr) == "" {
			return fmt.Errorf("redis.addr is required when state.backend is 'redis'")
		}
	default:
		return fmt.Errorf("invalid state.backend %q; allowed: memory, redis", st.Backend)
	}
	st.Backend = backend
	if st.TTL < 0 {
		return fmt.Errorf("state.ttl must be >= 0")
	}
	if st.TTL == 0 {
		st.TTL = 30 * time.Minute
	}
	if st.Prefix == "" {
		st.Prefix = "dietbot"
	}
	return nil
}

func normalizeLimits(l *LimitsConfig) error {
	if l.MaxRecipeResults < 0 || l.MaxShopResults < 0 || l.ShopRadiusKm < 0 {
		return fmt.Errorf("limits must be >= 0")
	}
	if l.MaxRecipeResults == 0 {
		l.MaxRecipeResults = 10
	}
	if l.MaxShopResults == 0 {
		l.MaxShopResults = 5
	}
	if l.ShopRadiusKm == 0 {
		l.ShopRadiusKm = 2.0
	}
	l.DefaultLocale = strings.ToLower(strings.TrimSpace(l.DefaultLocale))
	if l.DefaultLocale == "" {
		l.DefaultLocale = "ru"
	}
	return nil
}

func normalizeCatalog(c *CatalogConfig) error {
	src := strings.ToLower(strings.TrimSpace(c.Source))
	if src == "" {
		src = CatalogBuiltin
	}
	switch src {
	case CatalogBuiltin, CatalogDatabase:
	case CatalogFile:
		if strings.TrimSpace(c.File) == "" {
			return fmt.Errorf("catalog.file is required when catalog.source is 'file'")
		}
	default:
		return fmt.Errorf("invalid catalog.source %q; allowed: builtin, file, database", c.Source)
	}
	c.Source = src
	return nil
}

func normalizeDatabase(db *DatabaseConfig) {
	if db.Port == "" {
		db.Port = "5432"
	}
	if db.SSLMode == "" {
		db.SSLMode = "disable"
	}
	if db.MaxConnections <= 0 {
		db.MaxConnections = 10
	}
	if db.MigrationsDir == "" {
		db.MigrationsDir = "migrations"
	}
}

func normalizeLLM(l *LLMConfig) {
	if l.Model == "" {
		l.Model = "gpt-4"
	}
	if l.Temperature == 0 {
		l.Temperature = 0.7
	}
	if l.TopP == 0 {
		l.TopP = 0.9
	}
	if l.MaxTokens <= 0 {
		l.MaxTokens = 500
	}
	if l.PlanMaxTokens <= 0 {
		l.PlanMaxTokens = 2000
	}
	if l.Timeout <= 0 {
		l.Timeout = 45 * time.Second
	}
	if l.MaxAttempts <= 0 {
		l.MaxAttempts = 3
	}
	if l.BackoffBase <= 0 {
		l.BackoffBase = 2 * time.Second
	}
	if l.BackoffMax <= 0 {
		l.BackoffMax = 10 * time.Second
	}
}
