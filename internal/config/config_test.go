package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DB_HOST", "")
	t.Setenv("REALTIME_REDIS", "")

	cfg := Load(viper.New())

	assert.Equal(t, "mysql", cfg.DBDriver)
	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr())
	assert.False(t, cfg.RealtimeRedis)
	assert.Empty(t, cfg.ReconcileSchedule)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("REALTIME_REDIS", "true")
	t.Setenv("RECONCILE_SCHEDULE", "@every 5m")

	cfg := Load(viper.New())

	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.True(t, cfg.RealtimeRedis)
	assert.Equal(t, "@every 5m", cfg.ReconcileSchedule)
}

func TestLoad_BoundValueWinsOverEnvironment(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9000")

	v := viper.New()
	v.Set("HTTP_ADDR", ":7000")

	cfg := Load(v)

	assert.Equal(t, ":7000", cfg.HTTPAddr)
}
