package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"misicuan-admin/internal/mission"
)

// Config is the full runtime configuration, read from the environment.
type Config struct {
	AppEnv   string `env:"APP_ENV" envDefault:"development"`
	Log      Log
	HTTP     HTTP
	Database Database
	Redis    Redis `envPrefix:"REDIS_"`
	Metrics  Metrics
	Catalog  Catalog
	Verify   Verify
	AI       AI
	WhatsApp WhatsApp `envPrefix:"WHATSAPP_"`
	OTel     OTel     `envPrefix:"OTEL_"`
	Rewards  Rewards  `envPrefix:"REWARDS_"`
}

type Log struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"text"`
}

type HTTP struct {
	ListenAddr string `env:"HTTP_LISTEN_ADDR" envDefault:":8080"`
	BasePath   string `env:"PUBLIC_BASE_PATH"`
}

type Database struct {
	Driver      string `env:"DATABASE_DRIVER" envDefault:"sqlite"`
	URL         string `env:"DATABASE_URL"`
	Schema      string `env:"SUPABASE_SCHEMA" envDefault:"public"`
	SQLitePath  string `env:"SQLITE_PATH" envDefault:"data/misicuan.db"`
	AutoMigrate bool   `env:"DATABASE_AUTO_MIGRATE" envDefault:"true"`
}

// Redis is optional; an empty Addr disables the second-level cache and the
// distributed verification lock.
type Redis struct {
	Addr     string `env:"ADDR"`
	Password string `env:"PASSWORD"`
	DB       int    `env:"DB" envDefault:"0"`
	TLS      bool   `env:"TLS" envDefault:"false"`
}

type Metrics struct {
	Namespace string `env:"METRICS_NAMESPACE" envDefault:"misicuan"`
}

type Catalog struct {
	CacheTTL time.Duration `env:"CATALOG_CACHE_TTL" envDefault:"10m"`
}

type Verify struct {
	LockTTL time.Duration `env:"VERIFY_LOCK_TTL" envDefault:"5m"`
}

// AI providers.
const (
	AIProviderNone   = "none"
	AIProviderEdge   = "edge"
	AIProviderGemini = "gemini"
)

type AI struct {
	Provider        string        `env:"AI_PROVIDER" envDefault:"none"`
	Timeout         time.Duration `env:"AI_TIMEOUT" envDefault:"60s"`
	MaxQuantity     int           `env:"AI_MAX_QUANTITY" envDefault:"500"`
	EdgeFunctionURL string        `env:"EDGE_FUNCTION_URL"`
	EdgeFunctionKey string        `env:"EDGE_FUNCTION_KEY"`
	GeminiAPIKey    string        `env:"GEMINI_API_KEY"`
	GeminiModel     string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash"`
}

type WhatsApp struct {
	Enabled   bool   `env:"ENABLED" envDefault:"false"`
	StorePath string `env:"STORE_PATH" envDefault:"data/whatsmeow.db"`
	LogLevel  string `env:"LOG_LEVEL" envDefault:"INFO"`
}

type OTel struct {
	Enabled     bool   `env:"ENABLED" envDefault:"false"`
	Endpoint    string `env:"ENDPOINT" envDefault:"localhost:4318"`
	Insecure    bool   `env:"INSECURE" envDefault:"true"`
	ServiceName string `env:"SERVICE_NAME" envDefault:"misicuan-admin"`
}

// Rewards override entries of the built-in reward tables, written as
// REWARDS_PACKAGE="Follow=450,Comment=800".
type Rewards struct {
	Manual  map[string]int64 `env:"MANUAL" envKeyValSeparator:"="`
	Package map[string]int64 `env:"PACKAGE" envKeyValSeparator:"="`
}

// Load parses the process environment.
func Load() (*Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.Database.Driver = strings.ToLower(strings.TrimSpace(cfg.Database.Driver))
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the rules no single tag can express.
func (c *Config) Validate() error {
	var errs []error

	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	case "sqlite":
		if strings.TrimSpace(c.Database.SQLitePath) == "" {
			errs = append(errs, errors.New("SQLITE_PATH is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DATABASE_DRIVER %q", c.Database.Driver))
	}

	switch c.AI.Provider {
	case AIProviderNone:
	case AIProviderEdge:
		if c.AI.EdgeFunctionURL == "" {
			errs = append(errs, errors.New("EDGE_FUNCTION_URL is required for the edge provider"))
		}
	case AIProviderGemini:
		if c.AI.GeminiAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY is required for the gemini provider"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown AI_PROVIDER %q", c.AI.Provider))
	}
	if c.AI.Timeout <= 0 {
		errs = append(errs, errors.New("AI_TIMEOUT must be positive"))
	}
	if c.AI.MaxQuantity <= 0 {
		errs = append(errs, errors.New("AI_MAX_QUANTITY must be positive"))
	}
	if c.Verify.LockTTL <= 0 {
		errs = append(errs, errors.New("VERIFY_LOCK_TTL must be positive"))
	}
	if _, err := c.ManualRewards(); err != nil {
		errs = append(errs, fmt.Errorf("REWARDS_MANUAL: %w", err))
	}
	if _, err := c.PackageRewards(); err != nil {
		errs = append(errs, fmt.Errorf("REWARDS_PACKAGE: %w", err))
	}

	return errors.Join(errs...)
}

// ManualRewards returns the manual-entry reward table with overrides applied.
func (c *Config) ManualRewards() (mission.RewardTable, error) {
	return mission.ManualEntryRewards().Merge(c.Rewards.Manual)
}

// PackageRewards returns the package-verification reward table with overrides applied.
func (c *Config) PackageRewards() (mission.RewardTable, error) {
	return mission.PackageVerificationRewards().Merge(c.Rewards.Package)
}

// RedisEnabled reports whether a Redis address was configured.
func (c *Config) RedisEnabled() bool {
	return strings.TrimSpace(c.Redis.Addr) != ""
}
