package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8501", cfg.Server.Addr)
	assert.Equal(t, 200, cfg.Provider.ScannerBatchSize)
	assert.Equal(t, 20*time.Second, cfg.Provider.WSTimeout)
	assert.Equal(t, "SET", cfg.Symbols.DefaultExchange)
	assert.Equal(t, 120, cfg.Averages.HistoryBars)
	assert.Equal(t, 60, cfg.Backfill.DefaultDays)
	assert.Equal(t, 500, cfg.Session.MaxErrors)
	assert.Equal(t, []string{"10:00-12:30", "14:30-16:30"}, cfg.Market.Sessions)
	assert.NoError(t, cfg.Validate())
	assert.False(t, cfg.TelegramEnabled())
}

func TestLoad_YAMLValues(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9000"
provider:
  scanner_timeout: 5s
  scanner_batch_size: 50
backfill:
  default_days: 30
  default_workers: 2
live:
  workers: 3
  scan_interval: 2m
session:
  max_errors: 10
symbols:
  defaults: ["PTT", "SET:AOT"]
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Provider.ScannerTimeout)
	assert.Equal(t, 50, cfg.Provider.ScannerBatchSize)
	assert.Equal(t, 30, cfg.Backfill.DefaultDays)
	assert.Equal(t, 2, cfg.Backfill.DefaultWorkers)
	assert.Equal(t, 3, cfg.Live.Workers)
	assert.Equal(t, 2*time.Minute, cfg.Live.ScanInterval)
	assert.Equal(t, 10, cfg.Session.MaxErrors)
	assert.Equal(t, []string{"PTT", "SET:AOT"}, cfg.Symbols.Defaults)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverrides(t *testing.T) {
	path := writeConfig(t, "server:\n  addr: \":9000\"\n")
	t.Setenv("SERVER_ADDR", ":7000")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tok")
	t.Setenv("TELEGRAM_CHAT_ID", "42")
	t.Setenv("LIVE_AUTO_REFRESH", "true")
	t.Setenv("SYMBOLS_FILE", "/tmp/syms.txt")
	t.Setenv("PROVIDER_MOCK", "1")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":7000", cfg.Server.Addr)
	assert.True(t, cfg.Live.AutoRefresh)
	assert.Equal(t, "/tmp/syms.txt", cfg.Symbols.File)
	assert.True(t, cfg.Provider.Mock)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoad_WarmupBars(t *testing.T) {
	cfg, err := Load(writeConfig(t, "backfill:\n  warmup_bars: 0\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, cfg.Warmup())
	assert.NoError(t, cfg.Validate())

	cfg, err = Load(writeConfig(t, "server:\n  addr: \":9000\"\n"))
	require.NoError(t, err)
	assert.Equal(t, 49, cfg.Warmup())
}

func TestLoad_BadYAML(t *testing.T) {
	path := writeConfig(t, "server: [unterminated")
	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"too many workers", func(c *Config) { c.Backfill.DefaultWorkers = 9 }, true},
		{"days below range", func(c *Config) { c.Backfill.DefaultDays = 3 }, true},
		{"history too short for avg50", func(c *Config) { c.Averages.HistoryBars = 20 }, true},
		{"token without chat", func(c *Config) { c.Telegram.BotToken = "tok" }, true},
		{"bad timezone", func(c *Config) { c.Market.Timezone = "Mars/Olympus" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"negative warmup", func(c *Config) { n := -1; c.Backfill.WarmupBars = &n }, true},
		{"missing warmup", func(c *Config) { c.Backfill.WarmupBars = nil }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
			require.NoError(t, err)
			tt.mutate(cfg)
			if tt.wantErr {
				assert.Error(t, cfg.Validate())
			} else {
				assert.NoError(t, cfg.Validate())
			}
		})
	}
}
