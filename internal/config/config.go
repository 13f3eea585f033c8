package config

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"PatternScope/internal/model"
	"PatternScope/internal/terminal"
)

// DefaultPath is used when CONFIG_PATH is unset.
const DefaultPath = "configs/config.yaml"

// Candle sources.
const (
	SourceTerminal = "terminal"
	SourceYahoo    = "yahoo"
	SourceMock     = "mock"
)

// Config holds all application configuration.
type Config struct {
	Terminal struct {
		BaseURL    string        `yaml:"base_url"`
		Account    int64         `yaml:"account"`
		Password   string        `yaml:"password"`
		Server     string        `yaml:"server"`
		TOTPSecret string        `yaml:"totp_secret"`
		Timeout    time.Duration `yaml:"timeout"`
	} `yaml:"terminal"`
	Analysis struct {
		Symbols   []string        `yaml:"symbols"`
		Timeframe model.Timeframe `yaml:"timeframe"`
		Candles   int             `yaml:"candles"`
		Cron      string          `yaml:"cron"`
		Source    string          `yaml:"source"`
	} `yaml:"analysis"`
	Trading struct {
		// Enabled allows /buy and /sell from the Telegram chat.
		Enabled        bool   `yaml:"enabled"`
		Deviation      int    `yaml:"deviation"`
		Magic          int64  `yaml:"magic"`
		Comment        string `yaml:"comment"`
		PendingComment string `yaml:"pending_comment"`
	} `yaml:"trading"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	HTTP struct {
		Addr string `yaml:"addr"`
	} `yaml:"http"`
	Proxy string `yaml:"proxy"`
}

// Path returns CONFIG_PATH or DefaultPath.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return DefaultPath
}

// Load reads .env and the YAML file at path, then applies environment
// variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

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

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("TERMINAL_BASE_URL"); v != "" {
		c.Terminal.BaseURL = v
	}
	if v := os.Getenv("TERMINAL_ACCOUNT"); v != "" {
		account, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("parse TERMINAL_ACCOUNT: %w", err)
		}
		c.Terminal.Account = account
	}
	if v := os.Getenv("TERMINAL_PASSWORD"); v != "" {
		c.Terminal.Password = v
	}
	if v := os.Getenv("TERMINAL_SERVER"); v != "" {
		c.Terminal.Server = v
	}
	if v := os.Getenv("TERMINAL_TOTP_SECRET"); v != "" {
		c.Terminal.TOTPSecret = v
	}
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("SQLITE_PATH"); v != "" {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("ANALYSIS_CRON"); v != "" {
		c.Analysis.Cron = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		c.HTTP.Addr = v
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Terminal.Timeout == 0 {
		c.Terminal.Timeout = 15 * time.Second
	}
	if c.Analysis.Timeframe == "" {
		c.Analysis.Timeframe = model.TimeframeM15
	}
	c.Analysis.Timeframe = model.Timeframe(strings.ToUpper(string(c.Analysis.Timeframe)))
	if c.Analysis.Candles == 0 {
		c.Analysis.Candles = 500
	}
	if c.Analysis.Cron == "" {
		c.Analysis.Cron = "0 */15 * * * *"
	}
	if c.Analysis.Source == "" {
		c.Analysis.Source = SourceTerminal
	}
	if len(c.Analysis.Symbols) == 0 {
		c.Analysis.Symbols = []string{"EURUSD"}
	}
	if c.Trading.Deviation == 0 {
		c.Trading.Deviation = 10
	}
	if c.Trading.Magic == 0 {
		c.Trading.Magic = 234000
	}
	if c.Trading.Comment == "" {
		c.Trading.Comment = "Trade placed by PatternScope"
	}
	if c.Trading.PendingComment == "" {
		c.Trading.PendingComment = "Pending order placed by PatternScope"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/patternscope.db"
	}
	if c.HTTP.Addr == "" {
		c.HTTP.Addr = ":8081"
	}
}

// Validate checks that all required fields are set.
func (c *Config) Validate() error {
	if len(c.Analysis.Symbols) == 0 {
		return fmt.Errorf("analysis.symbols must not be empty")
	}
	for _, s := range c.Analysis.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("analysis.symbols contains an empty symbol")
		}
	}
	if !c.Analysis.Timeframe.Valid() {
		return fmt.Errorf("analysis.timeframe %q is not supported", c.Analysis.Timeframe)
	}
	if c.Analysis.Candles < 4 {
		return fmt.Errorf("analysis.candles must be at least 4")
	}
	switch c.Analysis.Source {
	case SourceTerminal:
		if c.Terminal.BaseURL == "" {
			return fmt.Errorf("terminal.base_url is required")
		}
		if c.Terminal.Account == 0 {
			return fmt.Errorf("terminal.account is required")
		}
	case SourceYahoo, SourceMock:
	default:
		return fmt.Errorf("analysis.source %q is not one of terminal, yahoo, mock", c.Analysis.Source)
	}
	if c.Trading.Enabled && c.Analysis.Source == SourceYahoo {
		return fmt.Errorf("trading.enabled requires a terminal or mock source")
	}
	return nil
}

// Credentials returns the terminal login for the configured account.
func (c *Config) Credentials() terminal.Credentials {
	return terminal.Credentials{
		Account:    c.Terminal.Account,
		Password:   c.Terminal.Password,
		Server:     c.Terminal.Server,
		TOTPSecret: c.Terminal.TOTPSecret,
	}
}

// NotifierEnabled reports whether Telegram credentials are configured.
func (c *Config) NotifierEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// OpenSession logs in to the configured terminal and returns the session.
// The mock source gets an in-memory terminal seeded for the analysis symbols.
// The caller must Close the session.
func (c *Config) OpenSession(ctx context.Context) (terminal.Session, error) {
	var sess terminal.Session
	switch {
	case c.Analysis.Source == SourceMock:
		sess = terminal.NewDemoSession(c.Analysis.Symbols, c.Analysis.Timeframe, c.Analysis.Candles)
		log.Printf("[INFO] using demo terminal for %d symbols", len(c.Analysis.Symbols))
	case c.Terminal.BaseURL == "":
		return nil, fmt.Errorf("terminal.base_url is required")
	default:
		sess = terminal.NewBridgeSession(c.Terminal.BaseURL, c.Proxy, c.Terminal.Timeout)
	}
	if err := sess.Login(ctx, c.Credentials()); err != nil {
		return nil, err
	}
	return sess, nil
}
