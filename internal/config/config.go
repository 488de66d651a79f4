package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"MacroLens/internal/model"
)

// Cache backends.
const (
	CacheNone   = "none"
	CacheMemory = "memory"
	CacheRedis  = "redis"
)

// ReportJob is one scheduled comparison report.
type ReportJob struct {
	Name      string   `yaml:"name"`
	Cron      string   `yaml:"cron"`
	Countries []string `yaml:"countries"`
	Series    []string `yaml:"series"`
	Period    string   `yaml:"period"`
	Join      string   `yaml:"join"`
	Formats   []string `yaml:"formats"`
	Chart     string   `yaml:"chart"`
}

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Sources struct {
		WorldBankURL   string            `yaml:"worldbank_url"`
		RESTBaseURL    string            `yaml:"rest_base_url"`
		RESTAPIKey     string            `yaml:"rest_api_key"`
		YahooURL       string            `yaml:"yahoo_url"`
		IndexSymbols   map[string]string `yaml:"index_symbols"`
		TimeoutSeconds int               `yaml:"timeout_seconds"`
	} `yaml:"sources"`
	Cache struct {
		Backend    string `yaml:"backend"`
		Size       int    `yaml:"size"`
		TTLMinutes int    `yaml:"ttl_minutes"`
		Redis      struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
	} `yaml:"server"`
	Reports struct {
		OutputDir     string      `yaml:"output_dir"`
		DefaultPeriod string      `yaml:"default_period"`
		Jobs          []ReportJob `yaml:"jobs"`
	} `yaml:"reports"`
	History struct {
		// Path is the SQLite file for report run history; empty disables it.
		Path string `yaml:"path"`
	} `yaml:"history"`

	Proxy string `yaml:"proxy"`
}

// Load reads .env (if present) and config from a YAML file, then applies
// environment variable overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read .env: %w", err)
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

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("TELEGRAM_BOT_TOKEN"); v != "" {
		c.Telegram.BotToken = v
	}
	if v := os.Getenv("TELEGRAM_CHAT_ID"); v != "" {
		c.Telegram.ChatID = v
	}
	if v := os.Getenv("WORLDBANK_BASE_URL"); v != "" {
		c.Sources.WorldBankURL = v
	}
	if v := os.Getenv("MACRO_API_BASE_URL"); v != "" {
		c.Sources.RESTBaseURL = v
	}
	if v := os.Getenv("MACRO_API_KEY"); v != "" {
		c.Sources.RESTAPIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v := os.Getenv("CACHE_BACKEND"); v != "" {
		c.Cache.Backend = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		c.Cache.Redis.Password = v
	}
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("HISTORY_DB"); v != "" {
		c.History.Path = v
	}
	if v := os.Getenv("REPORT_DIR"); v != "" {
		c.Reports.OutputDir = v
	}
	if v := os.Getenv("DEFAULT_PERIOD"); v != "" {
		c.Reports.DefaultPeriod = v
	}
	if v := os.Getenv("FETCH_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Sources.TimeoutSeconds = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Sources.TimeoutSeconds == 0 {
		c.Sources.TimeoutSeconds = 30
	}
	c.Cache.Backend = strings.ToLower(strings.TrimSpace(c.Cache.Backend))
	if c.Cache.Backend == "" {
		c.Cache.Backend = CacheMemory
	}
	if c.Cache.Size == 0 {
		c.Cache.Size = 512
	}
	if c.Cache.TTLMinutes == 0 {
		c.Cache.TTLMinutes = 360
	}
	if c.Cache.Redis.Addr == "" {
		c.Cache.Redis.Addr = "localhost:6379"
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":8080"
	}
	if c.Reports.OutputDir == "" {
		c.Reports.OutputDir = "data/reports"
	}
	if c.Reports.DefaultPeriod == "" {
		c.Reports.DefaultPeriod = model.DefaultPeriod
	}
	for i := range c.Reports.Jobs {
		j := &c.Reports.Jobs[i]
		if j.Period == "" {
			j.Period = c.Reports.DefaultPeriod
		}
		if len(j.Formats) == 0 {
			j.Formats = []string{"xlsx", "md"}
		}
	}
}

// FetchTimeout is the per-request timeout for remote sources.
func (c *Config) FetchTimeout() time.Duration {
	return time.Duration(c.Sources.TimeoutSeconds) * time.Second
}

// CacheTTL is how long cached series stay valid.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// TelegramEnabled reports whether both bot credentials are set.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// Validate checks that all fields are consistent.
func (c *Config) Validate() error {
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	switch c.Cache.Backend {
	case CacheNone, CacheMemory, CacheRedis:
	default:
		return fmt.Errorf("cache.backend must be one of none, memory, redis; got %q", c.Cache.Backend)
	}
	if c.Cache.Size < 0 || c.Cache.TTLMinutes < 0 {
		return fmt.Errorf("cache.size and cache.ttl_minutes must not be negative")
	}
	if c.Sources.TimeoutSeconds <= 0 {
		return fmt.Errorf("sources.timeout_seconds must be positive")
	}
	if _, err := model.ParsePeriod(c.Reports.DefaultPeriod); err != nil {
		return fmt.Errorf("reports.default_period: %w", err)
	}

	seen := make(map[string]bool, len(c.Reports.Jobs))
	for i, j := range c.Reports.Jobs {
		if j.Name == "" {
			return fmt.Errorf("reports.jobs[%d].name is required", i)
		}
		if seen[j.Name] {
			return fmt.Errorf("reports.jobs: duplicate name %q", j.Name)
		}
		seen[j.Name] = true
		if err := j.Validate(); err != nil {
			return fmt.Errorf("reports.jobs[%s]: %w", j.Name, err)
		}
	}
	return nil
}

var cronParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Validate checks one job's schedule, countries, series and options.
func (j ReportJob) Validate() error {
	if j.Cron == "" {
		return fmt.Errorf("cron is required")
	}
	if _, err := cronParser.Parse(j.Cron); err != nil {
		return fmt.Errorf("cron %q: %w", j.Cron, err)
	}
	countries, err := model.ParseCountries(j.Countries...)
	if err != nil {
		return err
	}
	if len(countries) == 0 {
		return fmt.Errorf("at least one country is required")
	}
	if len(j.Series) == 0 {
		return fmt.Errorf("at least one series is required")
	}
	for _, s := range j.Series {
		if _, err := model.ParseSeriesID(s); err != nil {
			return err
		}
	}
	if _, err := model.ParsePeriod(j.Period); err != nil {
		return err
	}
	if _, err := model.ParseJoinPolicy(j.Join); err != nil {
		return err
	}
	for _, f := range j.Formats {
		switch strings.ToLower(f) {
		case "xlsx", "csv", "md", "markdown", "html":
		default:
			return fmt.Errorf("unsupported report format %q", f)
		}
	}
	switch strings.ToLower(j.Chart) {
	case "", "png", "svg":
	default:
		return fmt.Errorf("unsupported chart format %q", j.Chart)
	}
	return nil
}
