package config_test

import (
	"testing"
	"time"

	"webstudio/internal/config"
	"webstudio/internal/services"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.AppPort)
	assert.Equal(t, config.StorageSQLite, cfg.StorageDriver)
	assert.Equal(t, 24*time.Hour, cfg.TokenDuration)
	assert.Equal(t, 14*24*time.Hour, cfg.DeliveryLeadTime)
	assert.True(t, cfg.SimulateLatency)
	assert.Empty(t, cfg.AdminEmails)
	assert.Equal(t, services.DefaultRateLimitRules(), cfg.RateLimits)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "MEMORY")
	t.Setenv("ADMIN_EMAILS", " owner@studio.example, ,ops@studio.example")
	t.Setenv("SIMULATE_LATENCY", "false")
	t.Setenv("RATE_LIMIT_LOGIN_MAX_ATTEMPTS", "2")
	t.Setenv("RATE_LIMIT_LOGIN_WINDOW", "1m")

	cfg, err := config.Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, config.StorageMemory, cfg.StorageDriver)
	assert.Equal(t, []string{"owner@studio.example", "ops@studio.example"}, cfg.AdminEmails)
	assert.False(t, cfg.SimulateLatency)
	assert.Equal(t, 2, cfg.RateLimits[services.ActionLogin].MaxAttempts)
	assert.Equal(t, time.Minute, cfg.RateLimits[services.ActionLogin].Window)
	assert.Equal(t, 30*time.Minute, cfg.RateLimits[services.ActionLogin].BlockDuration)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown driver", "STORAGE_DRIVER", "mongo"},
		{"empty secret", "JWT_SECRET", ""},
		{"non-positive lead time", "DELIVERY_LEAD_TIME", "0s"},
		{"zero attempts", "RATE_LIMIT_REGISTER_MAX_ATTEMPTS", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := viper.New()
			config.SetDefaults(v)
			v.Set(tt.key, tt.val)

			_, err := config.Load(v)
			assert.Error(t, err)
		})
	}
}
