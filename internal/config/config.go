package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/go-scripts/connections/internal/browser"
	"github.com/go-scripts/connections/internal/crawler"
)

var (
	ErrMissingUsername = errors.New("username is required")
	ErrMissingPassword = errors.New("password is required")
	ErrInvalidPolicy   = errors.New("failure_policy must be \"stop\" or \"skip\"")
)

// Config holds every setting of an export run
type Config struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	Output   string `yaml:"output"`

	BaseURL        string `yaml:"base_url"`
	ConnectionsURL string `yaml:"connections_url"`

	Headless       bool          `yaml:"headless"`
	ShowImages     bool          `yaml:"show_images"`
	ChromePath     string        `yaml:"chrome_path"`
	UserAgent      string        `yaml:"user_agent"`
	UserDataDir    string        `yaml:"user_data_dir"`
	CommandTimeout time.Duration `yaml:"command_timeout"`

	MaxScrolls     int           `yaml:"max_scrolls"`
	SettleTimeout  time.Duration `yaml:"settle_timeout"`
	PollInterval   time.Duration `yaml:"poll_interval"`
	MaxConnections int           `yaml:"max_connections"`
	ItemDelay      time.Duration `yaml:"item_delay"`
	FailurePolicy  string        `yaml:"failure_policy"`

	NoProgress bool `yaml:"no_progress"`
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Output:         "connections.csv",
		BaseURL:        crawler.DefaultBaseURL,
		ConnectionsURL: crawler.DefaultConnectionsURL,
		CommandTimeout: 30 * time.Second,
		MaxScrolls:     crawler.DefaultMaxScrolls,
		SettleTimeout:  crawler.DefaultSettleTimeout,
		PollInterval:   crawler.DefaultPollInterval,
		ItemDelay:      crawler.DefaultItemDelay,
		FailurePolicy:  string(crawler.FailStop),
	}
}

// Load reads a YAML file over the defaults. An empty path returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the settings that have no usable default.
func (c *Config) Validate() error {
	if c.Username == "" {
		return ErrMissingUsername
	}
	if c.Password == "" {
		return ErrMissingPassword
	}
	switch crawler.FailurePolicy(c.FailurePolicy) {
	case crawler.FailStop, crawler.FailSkip:
	default:
		return fmt.Errorf("%w, got %q", ErrInvalidPolicy, c.FailurePolicy)
	}
	if c.Output == "" {
		return errors.New("output path is required")
	}
	if c.MaxScrolls <= 0 {
		return fmt.Errorf("max_scrolls must be positive, got %d", c.MaxScrolls)
	}
	if c.MaxConnections < 0 {
		return fmt.Errorf("max_connections must not be negative, got %d", c.MaxConnections)
	}
	return nil
}

// BrowserOptions maps the config onto the browser launch options.
func (c *Config) BrowserOptions() browser.Options {
	return browser.Options{
		Headless:       c.Headless,
		DisableImages:  !c.ShowImages,
		ExecPath:       c.ChromePath,
		UserAgent:      c.UserAgent,
		UserDataDir:    c.UserDataDir,
		CommandTimeout: c.CommandTimeout,
	}
}

// CrawlerConfig maps the config onto the crawler settings.
func (c *Config) CrawlerConfig() crawler.Configuration {
	return crawler.Configuration{
		BaseURL:        c.BaseURL,
		ConnectionsURL: c.ConnectionsURL,
		Username:       c.Username,
		Password:       c.Password,
		MaxScrolls:     c.MaxScrolls,
		SettleTimeout:  c.SettleTimeout,
		PollInterval:   c.PollInterval,
		MaxConnections: c.MaxConnections,
		ItemDelay:      c.ItemDelay,
		FailurePolicy:  crawler.FailurePolicy(c.FailurePolicy),
		ShowSpinner:    !c.NoProgress,
	}
}
