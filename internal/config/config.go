// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"webstudio/internal/services"

	"github.com/spf13/viper"
)

// Storage drivers understood by the KV store factory.
const (
	StorageSQLite   = "sqlite"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds everything NewApp needs to wire the service.
type Config struct {
	AppPort          string
	StorageDriver    string
	DatabaseDSN      string
	JWTSecret        string
	TokenDuration    time.Duration
	RabbitMQURL      string
	AdminEmails      []string
	SimulateLatency  bool
	DeliveryLeadTime time.Duration
	AssetBaseURL     string
	CatalogFile      string
	RateLimits       map[string]services.RateLimitRule
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("APP_PORT", ":8080")
	v.SetDefault("STORAGE_DRIVER", StorageSQLite)
	v.SetDefault("DATABASE_DSN", "webstudio.db")
	v.SetDefault("JWT_SECRET", "supersecretjwtkey")
	v.SetDefault("TOKEN_DURATION", "24h")
	v.SetDefault("RABBITMQ_URL", "")
	v.SetDefault("ADMIN_EMAILS", "")
	v.SetDefault("SIMULATE_LATENCY", true)
	v.SetDefault("DELIVERY_LEAD_TIME", "336h")
	v.SetDefault("ASSET_BASE_URL", "https://assets.webstudio.example")
	v.SetDefault("CATALOG_FILE", "")

	for action, rule := range services.DefaultRateLimitRules() {
		prefix := "RATE_LIMIT_" + strings.ToUpper(action)
		v.SetDefault(prefix+"_MAX_ATTEMPTS", rule.MaxAttempts)
		v.SetDefault(prefix+"_WINDOW", rule.Window.String())
		v.SetDefault(prefix+"_BLOCK_DURATION", rule.BlockDuration.String())
	}
}

// Load reads the configuration from v, after applying defaults and
// binding environment variables.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		AppPort:          v.GetString("APP_PORT"),
		StorageDriver:    strings.ToLower(v.GetString("STORAGE_DRIVER")),
		DatabaseDSN:      v.GetString("DATABASE_DSN"),
		JWTSecret:        v.GetString("JWT_SECRET"),
		TokenDuration:    v.GetDuration("TOKEN_DURATION"),
		RabbitMQURL:      v.GetString("RABBITMQ_URL"),
		AdminEmails:      splitList(v.GetString("ADMIN_EMAILS")),
		SimulateLatency:  v.GetBool("SIMULATE_LATENCY"),
		DeliveryLeadTime: v.GetDuration("DELIVERY_LEAD_TIME"),
		AssetBaseURL:     v.GetString("ASSET_BASE_URL"),
		CatalogFile:      v.GetString("CATALOG_FILE"),
		RateLimits:       make(map[string]services.RateLimitRule),
	}

	for action := range services.DefaultRateLimitRules() {
		prefix := "RATE_LIMIT_" + strings.ToUpper(action)
		rule := services.RateLimitRule{
			MaxAttempts:   v.GetInt(prefix + "_MAX_ATTEMPTS"),
			Window:        v.GetDuration(prefix + "_WINDOW"),
			BlockDuration: v.GetDuration(prefix + "_BLOCK_DURATION"),
		}
		if rule.MaxAttempts < 1 || rule.Window <= 0 || rule.BlockDuration <= 0 {
			return nil, fmt.Errorf("invalid rate limit for %s: %+v", action, rule)
		}
		cfg.RateLimits[action] = rule
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the values Load cannot default.
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case StorageSQLite, StoragePostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DATABASE_DSN is required for storage driver %s", c.StorageDriver)
		}
	case StorageMemory:
	default:
		return fmt.Errorf("unknown storage driver: %s", c.StorageDriver)
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must not be empty")
	}
	if c.DeliveryLeadTime <= 0 {
		return fmt.Errorf("DELIVERY_LEAD_TIME must be positive, got %s", c.DeliveryLeadTime)
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
