package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
sources:
  worldbank_url: https://wb.example
  timeout_seconds: 10
cache:
  backend: redis
  redis:
    addr: cache:6379
reports:
  output_dir: out
  jobs:
    - name: g7-gdp
      cron: "0 0 7 * * 1"
      countries: [USA, JPN, "DEU,GBR"]
      series: [gdp, inflation]
      chart: png
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_FileAndDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "https://wb.example", cfg.Sources.WorldBankURL)
	assert.Equal(t, 10*time.Second, cfg.FetchTimeout())
	assert.Equal(t, CacheRedis, cfg.Cache.Backend)
	assert.Equal(t, "cache:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 6*time.Hour, cfg.CacheTTL())
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	require.Len(t, cfg.Reports.Jobs, 1)
	assert.Equal(t, "10Y", cfg.Reports.Jobs[0].Period)
	assert.Equal(t, []string{"xlsx", "md"}, cfg.Reports.Jobs[0].Formats)
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, CacheMemory, cfg.Cache.Backend)
	assert.Equal(t, "data/reports", cfg.Reports.OutputDir)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("CACHE_BACKEND", "NONE")
	t.Setenv("MACRO_API_BASE_URL", "https://rest.example")
	t.Setenv("MACRO_API_KEY", "secret")
	t.Setenv("LISTEN_ADDR", ":9090")
	t.Setenv("DEFAULT_PERIOD", "5Y")
	t.Setenv("HISTORY_DB", "data/runs.db")

	cfg, err := Load(writeConfig(t, sampleYAML))
	require.NoError(t, err)
	assert.True(t, cfg.TelegramEnabled())
	assert.Equal(t, CacheNone, cfg.Cache.Backend)
	assert.Equal(t, "https://rest.example", cfg.Sources.RESTBaseURL)
	assert.Equal(t, "secret", cfg.Sources.RESTAPIKey)
	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, "data/runs.db", cfg.History.Path)
	assert.Equal(t, "5Y", cfg.Reports.Jobs[0].Period)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "reports: [oops"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(writeConfig(t, sampleYAML))
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"bad backend", func(c *Config) { c.Cache.Backend = "memcached" }},
		{"bad cron", func(c *Config) { c.Reports.Jobs[0].Cron = "every day" }},
		{"bad country", func(c *Config) { c.Reports.Jobs[0].Countries = []string{"U5A"} }},
		{"bad series", func(c *Config) { c.Reports.Jobs[0].Series = []string{"HAPPINESS"} }},
		{"no series", func(c *Config) { c.Reports.Jobs[0].Series = nil }},
		{"bad period", func(c *Config) { c.Reports.Jobs[0].Period = "forever" }},
		{"bad join", func(c *Config) { c.Reports.Jobs[0].Join = "left" }},
		{"bad format", func(c *Config) { c.Reports.Jobs[0].Formats = []string{"pdf"} }},
		{"bad chart", func(c *Config) { c.Reports.Jobs[0].Chart = "gif" }},
		{"duplicate job", func(c *Config) { c.Reports.Jobs = append(c.Reports.Jobs, c.Reports.Jobs[0]) }},
		{"unnamed job", func(c *Config) { c.Reports.Jobs[0].Name = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
