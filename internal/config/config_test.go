package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/backend-fundraise/internal/config"
	"github.com/noah-isme/backend-fundraise/internal/pricing"
)

func baseEnv() map[string]string {
	return map[string]string{
		"LEDGER_BACKEND": "",
		"ORDER_RECORDER": "",
		"FUNDING_GOAL":   "",
		"REDIS_URL":      "",
		"DATABASE_URL":   "",
		"RECORDER_URL":   "",
		"PORT":           "",
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.LoadForTests(baseEnv())
	require.NoError(t, err)
	require.Equal(t, config.LedgerMemory, cfg.LedgerStore)
	require.Equal(t, config.RecorderNone, cfg.Recorder)
	require.Equal(t, pricing.Money(100000), cfg.FundingGoal)
	require.Equal(t, ":8080", cfg.HTTPAddr())
	require.Equal(t, 24*time.Hour, cfg.IdempotencyTTL)
}

func TestLoadOverrides(t *testing.T) {
	env := baseEnv()
	env["FUNDING_GOAL"] = "2500.50"
	env["LEDGER_BACKEND"] = "Redis"
	env["REDIS_URL"] = "redis://localhost:6379/0"
	env["ORDER_RECORDER"] = "http"
	env["RECORDER_URL"] = "https://records.example.org/orders"
	env["RECORDER_TIMEOUT"] = "2s"
	env["CORS_ALLOWED_ORIGINS"] = "https://a.example, ,https://b.example"
	env["PORT"] = ":9090"

	cfg, err := config.LoadForTests(env)
	require.NoError(t, err)
	require.Equal(t, pricing.Money(250050), cfg.FundingGoal)
	require.Equal(t, config.LedgerRedis, cfg.LedgerStore)
	require.Equal(t, config.RecorderHTTP, cfg.Recorder)
	require.Equal(t, 2*time.Second, cfg.RecorderWait)
	require.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSAllowedOrigins)
	require.Equal(t, ":9090", cfg.HTTPAddr())
}

func TestLoadRejectsMissingBackendSettings(t *testing.T) {
	cases := map[string]map[string]string{
		"redis ledger":      {"LEDGER_BACKEND": "redis"},
		"postgres recorder": {"ORDER_RECORDER": "postgres"},
		"http recorder":     {"ORDER_RECORDER": "http"},
		"unknown ledger":    {"LEDGER_BACKEND": "etcd"},
		"unknown recorder":  {"ORDER_RECORDER": "ftp"},
		"bad goal":          {"FUNDING_GOAL": "12.345"},
		"negative goal":     {"FUNDING_GOAL": "-5"},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			env := baseEnv()
			for k, v := range overrides {
				env[k] = v
			}
			_, err := config.LoadForTests(env)
			require.Error(t, err)
		})
	}
}
