package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	Server struct {
		Addr string `yaml:"addr" validate:"required"`
	} `yaml:"server"`
	Provider struct {
		ScannerURL       string        `yaml:"scanner_url" validate:"required,url"`
		WSURL            string        `yaml:"ws_url" validate:"required,url"`
		ScannerTimeout   time.Duration `yaml:"scanner_timeout" validate:"gt=0"`
		WSTimeout        time.Duration `yaml:"ws_timeout" validate:"gt=0"`
		ScannerBatchSize int           `yaml:"scanner_batch_size" validate:"min=1,max=1000"`
		Mock             bool          `yaml:"mock"`
	} `yaml:"provider"`
	Symbols struct {
		File            string   `yaml:"file"`
		DefaultExchange string   `yaml:"default_exchange" validate:"required"`
		Defaults        []string `yaml:"defaults"`
	} `yaml:"symbols"`
	Averages struct {
		HistoryBars int `yaml:"history_bars" validate:"min=50"`
	} `yaml:"averages"`
	Backfill struct {
		DefaultDays    int  `yaml:"default_days" validate:"min=7,max=120"`
		DefaultWorkers int  `yaml:"default_workers" validate:"min=1,max=8"`
		WarmupBars     *int `yaml:"warmup_bars" validate:"required,min=0"`
	} `yaml:"backfill"`
	Live struct {
		Workers      int           `yaml:"workers" validate:"min=1,max=8"`
		ScanInterval time.Duration `yaml:"scan_interval" validate:"gte=10s"`
		AutoRefresh  bool          `yaml:"auto_refresh"`
	} `yaml:"live"`
	Market struct {
		Timezone   string   `yaml:"timezone" validate:"required"`
		Sessions   []string `yaml:"sessions" validate:"min=1,dive,required"`
		DailyClose string   `yaml:"daily_close" validate:"required"`
	} `yaml:"market"`
	Session struct {
		MaxErrors int `yaml:"max_errors" validate:"min=1"`
	} `yaml:"session"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id" validate:"required_with=BotToken"`
	} `yaml:"telegram"`
	Logging struct {
		Level string `yaml:"level" validate:"omitempty,oneof=debug info warn error"`
	} `yaml:"logging"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error: defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	applyDefaults(cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("TV_SCANNER_URL"); v != "" {
		cfg.Provider.ScannerURL = v
	}
	if v := os.Getenv("TV_WS_URL"); v != "" {
		cfg.Provider.WSURL = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv("SYMBOLS_FILE"); v != "" {
		cfg.Symbols.File = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		cfg.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		cfg.Telegram.ChatID = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PROVIDER_MOCK"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Provider.Mock = b
		}
	}
	if v := os.Getenv("LIVE_AUTO_REFRESH"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Live.AutoRefresh = b
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = ":8501"
	}
	if cfg.Provider.ScannerURL == "" {
		cfg.Provider.ScannerURL = "https://scanner.tradingview.com/thailand/scan"
	}
	if cfg.Provider.WSURL == "" {
		cfg.Provider.WSURL = "wss://data.tradingview.com/socket.io/websocket"
	}
	if cfg.Provider.ScannerTimeout == 0 {
		cfg.Provider.ScannerTimeout = 20 * time.Second
	}
	if cfg.Provider.WSTimeout == 0 {
		cfg.Provider.WSTimeout = 20 * time.Second
	}
	if cfg.Provider.ScannerBatchSize == 0 {
		cfg.Provider.ScannerBatchSize = 200
	}
	if cfg.Symbols.File == "" {
		cfg.Symbols.File = "data/symbols.txt"
	}
	if cfg.Symbols.DefaultExchange == "" {
		cfg.Symbols.DefaultExchange = "SET"
	}
	if cfg.Averages.HistoryBars == 0 {
		cfg.Averages.HistoryBars = 120
	}
	if cfg.Backfill.DefaultDays == 0 {
		cfg.Backfill.DefaultDays = 60
	}
	if cfg.Backfill.DefaultWorkers == 0 {
		cfg.Backfill.DefaultWorkers = 4
	}
	if cfg.Backfill.WarmupBars == nil {
		warmup := 49
		cfg.Backfill.WarmupBars = &warmup
	}
	if cfg.Live.Workers == 0 {
		cfg.Live.Workers = 4
	}
	if cfg.Live.ScanInterval == 0 {
		cfg.Live.ScanInterval = 60 * time.Second
	}
	if cfg.Market.Timezone == "" {
		cfg.Market.Timezone = "Asia/Bangkok"
	}
	if len(cfg.Market.Sessions) == 0 {
		cfg.Market.Sessions = []string{"10:00-12:30", "14:30-16:30"}
	}
	if cfg.Market.DailyClose == "" {
		cfg.Market.DailyClose = "16:30"
	}
	if cfg.Session.MaxErrors == 0 {
		cfg.Session.MaxErrors = 500
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks field ranges and that the market timezone resolves.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := time.LoadLocation(c.Market.Timezone); err != nil {
		return fmt.Errorf("market.timezone: %w", err)
	}
	return nil
}

// Warmup returns the extra bars fetched before the first evaluated day.
func (c *Config) Warmup() int {
	if c.Backfill.WarmupBars == nil {
		return 0
	}
	return *c.Backfill.WarmupBars
}

// TelegramEnabled reports whether reports and commands should go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
