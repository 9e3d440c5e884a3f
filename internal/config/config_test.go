package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"misicuan-admin/internal/mission"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, ":8080", cfg.HTTP.ListenAddr)
	assert.Equal(t, AIProviderNone, cfg.AI.Provider)
	assert.Equal(t, 500, cfg.AI.MaxQuantity)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 10*time.Minute, cfg.Catalog.CacheTTL)
	assert.False(t, cfg.RedisEnabled())
	assert.False(t, cfg.WhatsApp.Enabled)
}

func TestLoadNestedPrefixes(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"DATABASE_DRIVER":   "Postgres",
		"DATABASE_URL":      "postgres://u:p@localhost:5432/db",
		"REDIS_ADDR":        "localhost:6379",
		"REDIS_DB":          "2",
		"WHATSAPP_ENABLED":  "true",
		"OTEL_ENABLED":      "true",
		"AI_PROVIDER":       "edge",
		"EDGE_FUNCTION_URL": "https://x.supabase.co/functions/v1/generate-comment",
	})
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.True(t, cfg.RedisEnabled())
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.True(t, cfg.WhatsApp.Enabled)
	assert.True(t, cfg.OTel.Enabled)
	assert.Equal(t, AIProviderEdge, cfg.AI.Provider)
}

func TestRewardOverrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"REWARDS_PACKAGE": "Follow=450,comment=800",
	})
	require.NoError(t, err)

	table, err := cfg.PackageRewards()
	require.NoError(t, err)
	assert.Equal(t, int64(450), table[mission.ActionFollow])
	assert.Equal(t, int64(800), table[mission.ActionComment])
	assert.Equal(t, int64(3000), table[mission.ActionReview])

	manual, err := cfg.ManualRewards()
	require.NoError(t, err)
	assert.Equal(t, int64(50), manual[mission.ActionFollow])
}

func TestValidateCollectsErrors(t *testing.T) {
	_, err := LoadFrom(map[string]string{
		"DATABASE_DRIVER": "postgres",
		"AI_PROVIDER":     "gemini",
		"AI_MAX_QUANTITY": "0",
		"REWARDS_MANUAL":  "Dance=10",
	})
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "DATABASE_URL")
	assert.Contains(t, msg, "GEMINI_API_KEY")
	assert.Contains(t, msg, "AI_MAX_QUANTITY")
	assert.Contains(t, msg, "REWARDS_MANUAL")
}

func TestUnknownProvider(t *testing.T) {
	_, err := LoadFrom(map[string]string{"AI_PROVIDER": "openai"})
	assert.ErrorContains(t, err, "AI_PROVIDER")
}
