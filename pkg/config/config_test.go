package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, 4096, cfg.Server.MaxMessageSize)
	assert.Equal(t, []string{"AAPL", "MSFT", "TOST"}, cfg.Market.Tickers)
	assert.Equal(t, 5, cfg.Market.SamplingMinutes)
	assert.Equal(t, "report.csv", cfg.Report.Path)
	assert.Equal(t, "none", cfg.Archive.Backend)
	assert.Equal(t, "memory", cfg.Cache.Backend)
	assert.Equal(t, "rest", cfg.Providers.Realtime)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
market:
  tickers: [tsla]
  sampling_minutes: 15
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"tsla"}, cfg.Market.Tickers)
	assert.Equal(t, 15, cfg.Market.SamplingMinutes)
}

func TestValidateUppercasesTickers(t *testing.T) {
	path := writeConfig(t, `
market:
  tickers: [aapl, msft]
alphavantage:
  api_key: k1
finnhub:
  api_key: k2
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Market.Tickers)
}

func TestValidateRejectsBadSampling(t *testing.T) {
	path := writeConfig(t, `
market:
  sampling_minutes: 7
alphavantage:
  api_key: k1
finnhub:
  api_key: k2
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestValidateRequiresAPIKeys(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestValidateKafkaNeedsBrokers(t *testing.T) {
	path := writeConfig(t, `
alphavantage:
  api_key: k1
finnhub:
  api_key: k2
archive:
  backend: kafka
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Error(t, cfg.Validate())
}

func TestLoadWithEnvOverrides(t *testing.T) {
	t.Setenv("ALPHAVANTAGE_API_KEY", "env-av")
	t.Setenv("FINNHUB_API_KEY", "env-fh")
	t.Setenv("TICKERS", "nvda, amd")
	t.Setenv("PORT", "8123")
	t.Setenv("SAMPLING_MINUTES", "30")

	cfg, err := LoadWithEnv(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "env-av", cfg.AlphaVantage.APIKey)
	assert.Equal(t, "env-fh", cfg.Finnhub.APIKey)
	assert.Equal(t, []string{"NVDA", "AMD"}, cfg.Market.Tickers)
	assert.Equal(t, 8123, cfg.Server.Port)
	assert.Equal(t, 30, cfg.Market.SamplingMinutes)
	assert.Equal(t, 30*time.Minute, cfg.SamplingPeriod())
}
