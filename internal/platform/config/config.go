package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	StorageNone     = "none"
	StoragePostgres = "postgres"
	StorageSQLite   = "sqlite"
)

// Keys with this prefix are placeholders used by tests and never reach a provider.
const testKeyPrefix = "test-"

var errUnknownStorageDriver = errors.New("unknown storage driver")

type Config struct {
	AppEnv     string `env:"APP_ENV" envDefault:"local"`
	APIPort    int    `env:"API_PORT" envDefault:"8000"`
	HealthPort int    `env:"HEALTH_PORT" envDefault:"8080"`
	ConfigPath string `env:"CONFIG_PATH" envDefault:"config.yaml"`
	Version    string `env:"APP_VERSION" envDefault:"dev"`

	// Auth
	InternalAPIKey string `env:"INTERNAL_API_KEY"`
	BotToken       string `env:"BOT_TOKEN"`

	// Storage
	StorageDriver     string        `env:"STORAGE_DRIVER" envDefault:"none"`
	PostgresDSN       string        `env:"POSTGRES_DSN"`
	SQLitePath        string        `env:"SQLITE_PATH" envDefault:"./app.db"`
	DBMaxConnections  int32         `env:"DB_MAX_CONNECTIONS" envDefault:"10"`
	DBMinConnections  int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	RedisURL          string        `env:"REDIS_URL"`
	PresetCacheTTL    time.Duration `env:"PRESET_CACHE_TTL" envDefault:"10m"`
	PersistTimeout    time.Duration `env:"PERSIST_TIMEOUT" envDefault:"3s"`

	// LLM providers
	LLMAPIKey       string `env:"LLM_API_KEY"`
	LLMModel        string `env:"LLM_MODEL" envDefault:"gpt-4o-mini"`
	AnthropicAPIKey string `env:"ANTHROPIC_API_KEY"`
	AnthropicModel  string `env:"ANTHROPIC_MODEL" envDefault:"claude-3-5-haiku-latest"`
	GoogleAPIKey    string `env:"GOOGLE_API_KEY"`
	GoogleModel     string `env:"GOOGLE_MODEL" envDefault:"gemini-1.5-flash"`
	RateLimitRPS    int    `env:"RATE_LIMIT_RPS" envDefault:"2"`

	// LLM call policy
	LLMTimeout          time.Duration `env:"LLM_TIMEOUT" envDefault:"20s"`
	LLMMaxAttempts      int           `env:"LLM_MAX_ATTEMPTS" envDefault:"3"`
	LLMRetryBaseDelay   time.Duration `env:"LLM_RETRY_BASE_DELAY" envDefault:"500ms"`
	LLMCircuitThreshold int           `env:"LLM_CIRCUIT_THRESHOLD" envDefault:"5"`
	LLMCircuitTimeout   time.Duration `env:"LLM_CIRCUIT_TIMEOUT" envDefault:"1m"`
	LLMDailyTokenBudget int64         `env:"LLM_DAILY_TOKEN_BUDGET" envDefault:"0"`

	// Reply generation
	ReplyTemperature float32 `env:"REPLY_TEMPERATURE" envDefault:"0.6"`
	ReplyMaxTokens   int     `env:"REPLY_MAX_TOKENS" envDefault:"700"`
	StrictLLM        bool    `env:"STRICT_LLM" envDefault:"false"`
	DefaultPreset    string  `env:"DEFAULT_PRESET" envDefault:"warm"`
	DefaultTone      string  `env:"DEFAULT_TONE" envDefault:"friend"`

	// Long-text reducer
	LongTextThreshold  int `env:"LONG_TEXT_THRESHOLD" envDefault:"1000"`
	LongChunkChars     int `env:"LONG_CHUNK_CHARS" envDefault:"800"`
	LongMapConcurrency int `env:"LONG_MAP_CONCURRENCY" envDefault:"3"`

	// FileLoaded is set when the YAML overlay was read.
	FileLoaded bool `env:"-"`
}

// fileConfig mirrors config.yaml. Every field is optional and overrides env.
type fileConfig struct {
	ModelName     string   `yaml:"model_name"`
	StrictLLM     *bool    `yaml:"strict_llm"`
	DefaultPreset string   `yaml:"default_preset"`
	Temperature   *float32 `yaml:"temperature"`
	Storage       struct {
		Driver      string `yaml:"driver"`
		PostgresDSN string `yaml:"postgres_dsn"`
		SQLitePath  string `yaml:"sqlite_path"`
		RedisURL    string `yaml:"redis_url"`
	} `yaml:"storage"`
	LongText struct {
		Threshold   int `yaml:"threshold"`
		ChunkChars  int `yaml:"chunk_chars"`
		Concurrency int `yaml:"concurrency"`
	} `yaml:"long_text"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applyLegacyAliases(cfg)

	if err := applyFileOverlay(cfg); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LLMEnabled reports whether at least one real provider key is configured.
func (c *Config) LLMEnabled() bool {
	return UsableKey(c.LLMAPIKey) || UsableKey(c.AnthropicAPIKey) || UsableKey(c.GoogleAPIKey)
}

// IsLocal reports whether the app runs in local mode.
func (c *Config) IsLocal() bool {
	return c.AppEnv == "local"
}

// UsableKey reports whether key can be sent to a provider.
func UsableKey(key string) bool {
	key = strings.TrimSpace(key)
	return key != "" && !strings.HasPrefix(key, testKeyPrefix)
}

func (c *Config) validate() error {
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))

	switch c.StorageDriver {
	case "", StorageNone:
		c.StorageDriver = StorageNone
	case StoragePostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("parsing environment config: POSTGRES_DSN is required for storage driver %q", c.StorageDriver)
		}
	case StorageSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("parsing environment config: SQLITE_PATH is required for storage driver %q", c.StorageDriver)
		}
	default:
		return fmt.Errorf("%w: %q", errUnknownStorageDriver, c.StorageDriver)
	}

	return nil
}

// applyLegacyAliases maps the variable names of the previous deployment.
func applyLegacyAliases(cfg *Config) {
	if !hasEnv("LLM_API_KEY") {
		setStringFromEnv("OPENAI_API_KEY", &cfg.LLMAPIKey)
	}

	if !hasEnv("LLM_MODEL") {
		setStringFromEnv("DIARY_MODEL_NAME", &cfg.LLMModel)
	}

	if !hasEnv("STRICT_LLM") {
		setBoolFromEnv("DIARY_STRICT_LLM", &cfg.StrictLLM)
	}

	if !hasEnv("GOOGLE_API_KEY") {
		setStringFromEnv("GEMINI_API_KEY", &cfg.GoogleAPIKey)
	}
}

// applyFileOverlay reads CONFIG_PATH. A missing file is not an error.
func applyFileOverlay(cfg *Config) error {
	if cfg.ConfigPath == "" {
		return nil
	}

	data, err := os.ReadFile(cfg.ConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	if err != nil {
		return fmt.Errorf("read config file %s: %w", cfg.ConfigPath, err)
	}

	var raw fileConfig
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &raw); err != nil {
		return fmt.Errorf("parse config YAML %s: %w", cfg.ConfigPath, err)
	}

	cfg.FileLoaded = true

	setString(&cfg.LLMModel, raw.ModelName)
	setString(&cfg.DefaultPreset, raw.DefaultPreset)
	setString(&cfg.StorageDriver, raw.Storage.Driver)
	setString(&cfg.PostgresDSN, raw.Storage.PostgresDSN)
	setString(&cfg.SQLitePath, raw.Storage.SQLitePath)
	setString(&cfg.RedisURL, raw.Storage.RedisURL)
	setPositive(&cfg.LongTextThreshold, raw.LongText.Threshold)
	setPositive(&cfg.LongChunkChars, raw.LongText.ChunkChars)
	setPositive(&cfg.LongMapConcurrency, raw.LongText.Concurrency)

	if raw.StrictLLM != nil {
		cfg.StrictLLM = *raw.StrictLLM
	}

	if raw.Temperature != nil {
		cfg.ReplyTemperature = *raw.Temperature
	}

	return nil
}

func setString(target *string, val string) {
	if v := strings.TrimSpace(val); v != "" {
		*target = v
	}
}

func setPositive(target *int, val int) {
	if val > 0 {
		*target = val
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setBoolFromEnv(key string, target *bool) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.ParseBool(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}
