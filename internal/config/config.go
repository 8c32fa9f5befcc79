package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultConfigDir is the directory, relative to the user config dir, holding config.yaml.
	DefaultConfigDir = "event-scout"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDataDir is where tracked URLs and notifications are stored.
	DefaultDataDir = "~/.local/share/event-scout"
	// DefaultUserAgent is sent with every fetch.
	DefaultUserAgent = "Mozilla/5.0 (compatible; event-scout/1.0; +https://github.com/pfrederiksen/event-scout)"
)

// Config holds the settings for every command.
type Config struct {
	Fetch   FetchConfig   `yaml:"fetch"`
	Detect  DetectConfig  `yaml:"detect"`
	Storage StorageConfig `yaml:"storage"`
	Monitor MonitorConfig `yaml:"monitor"`
	Notify  NotifyConfig  `yaml:"notify"`
	Metrics MetricsConfig `yaml:"metrics"`
	Log     LogConfig     `yaml:"log"`
	Export  ExportConfig  `yaml:"export"`
}

// FetchConfig controls page downloads.
type FetchConfig struct {
	UserAgent string        `yaml:"user_agent"`
	Timeout   time.Duration `yaml:"timeout"`
	Retries   int           `yaml:"retries"`
}

// DetectConfig controls the detection engine.
type DetectConfig struct {
	MaxEvents int `yaml:"max_events"`
}

// StorageConfig selects and locates the persistence backend.
type StorageConfig struct {
	Backend    string `yaml:"backend"`
	Dir        string `yaml:"dir"`
	SQLitePath string `yaml:"sqlite_path,omitempty"`
}

// MonitorConfig controls the periodic check of tracked URLs.
type MonitorConfig struct {
	Interval    time.Duration `yaml:"interval"`
	Delay       time.Duration `yaml:"delay"`
	Concurrency int           `yaml:"concurrency"`
}

// NotifyConfig selects notification sinks.
type NotifyConfig struct {
	Twitter  TwitterConfig  `yaml:"twitter"`
	Telegram TelegramConfig `yaml:"telegram"`
}

// TwitterConfig holds Twitter credentials. Empty values fall back to the
// TWITTER_* environment variables.
type TwitterConfig struct {
	Enabled      bool   `yaml:"enabled"`
	APIKey       string `yaml:"api_key,omitempty"`
	APISecret    string `yaml:"api_secret,omitempty"`
	AccessToken  string `yaml:"access_token,omitempty"`
	AccessSecret string `yaml:"access_secret,omitempty"`
}

// TelegramConfig holds the bot token and target chat. Empty values fall back
// to TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID.
type TelegramConfig struct {
	Enabled  bool   `yaml:"enabled"`
	BotToken string `yaml:"bot_token,omitempty"`
	ChatID   string `yaml:"chat_id,omitempty"`
}

// MetricsConfig configures the Prometheus endpoint. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `yaml:"level"`
}

// ExportConfig configures uploads of exported files.
type ExportConfig struct {
	S3Bucket string `yaml:"s3_bucket,omitempty"`
	S3Region string `yaml:"s3_region,omitempty"`
	S3Prefix string `yaml:"s3_prefix,omitempty"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Fetch: FetchConfig{
			UserAgent: DefaultUserAgent,
			Timeout:   30 * time.Second,
			Retries:   3,
		},
		Detect: DetectConfig{
			MaxEvents: 50,
		},
		Storage: StorageConfig{
			Backend: "json",
			Dir:     DefaultDataDir,
		},
		Monitor: MonitorConfig{
			Interval:    10 * time.Minute,
			Delay:       2 * time.Second,
			Concurrency: 1,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the default config file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return filepath.Join(".", DefaultConfigFile)
	}
	return filepath.Join(dir, DefaultConfigDir, DefaultConfigFile)
}

// Load reads the config file at path over the defaults. A missing file is not
// an error; the defaults are used. Environment overrides are applied last.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("reading config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("EVENT_SCOUT_USER_AGENT"); v != "" {
		c.Fetch.UserAgent = v
	}
	if v := os.Getenv("EVENT_SCOUT_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("EVENT_SCOUT_STORAGE_DIR"); v != "" {
		c.Storage.Dir = v
	}
	if v := os.Getenv("EVENT_SCOUT_S3_BUCKET"); v != "" {
		c.Export.S3Bucket = v
	}

	tw := &c.Notify.Twitter
	fill := func(dst *string, env string) {
		if *dst == "" {
			*dst = os.Getenv(env)
		}
	}
	fill(&tw.APIKey, "TWITTER_API_KEY")
	fill(&tw.APISecret, "TWITTER_API_SECRET")
	fill(&tw.AccessToken, "TWITTER_ACCESS_TOKEN")
	fill(&tw.AccessSecret, "TWITTER_ACCESS_SECRET")
	fill(&c.Notify.Telegram.BotToken, "TELEGRAM_BOT_TOKEN")
	fill(&c.Notify.Telegram.ChatID, "TELEGRAM_CHAT_ID")
}

// Validate checks for values no command can run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Detect.MaxEvents <= 0 {
		errs = append(errs, fmt.Errorf("detect.max_events must be positive, got %d", c.Detect.MaxEvents))
	}
	switch strings.ToLower(c.Storage.Backend) {
	case "json", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("storage.backend must be json or sqlite, got %q", c.Storage.Backend))
	}
	if c.Monitor.Interval <= 0 {
		errs = append(errs, errors.New("monitor.interval must be positive"))
	}
	if c.Monitor.Delay < 0 {
		errs = append(errs, errors.New("monitor.delay must not be negative"))
	}
	if c.Monitor.Concurrency < 1 {
		errs = append(errs, errors.New("monitor.concurrency must be at least 1"))
	}
	if c.Fetch.Retries < 0 {
		errs = append(errs, errors.New("fetch.retries must not be negative"))
	}
	if c.Fetch.Timeout <= 0 {
		errs = append(errs, errors.New("fetch.timeout must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Save writes cfg to path as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
