package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/connections/internal/crawler"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, "connections.csv", cfg.Output)
	assert.Equal(t, 200*time.Millisecond, cfg.ItemDelay)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
username: me@example.com
output: out/contacts.csv
headless: true
max_scrolls: 40
settle_timeout: 2500ms
item_delay: 1s
failure_policy: skip
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "me@example.com", cfg.Username)
	assert.Equal(t, "out/contacts.csv", cfg.Output)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 40, cfg.MaxScrolls)
	assert.Equal(t, 2500*time.Millisecond, cfg.SettleTimeout)
	assert.Equal(t, time.Second, cfg.ItemDelay)
	assert.Equal(t, "skip", cfg.FailurePolicy)
	// Untouched keys keep their defaults.
	assert.Equal(t, crawler.DefaultPollInterval, cfg.PollInterval)
	assert.Equal(t, crawler.DefaultConnectionsURL, cfg.ConnectionsURL)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = Load(writeFile(t, "max_scrolls: [not, a, number]"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.Username = "me@example.com"
		cfg.Password = "secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{"valid", func(*Config) {}, nil},
		{"missing username", func(c *Config) { c.Username = "" }, ErrMissingUsername},
		{"missing password", func(c *Config) { c.Password = "" }, ErrMissingPassword},
		{"bad policy", func(c *Config) { c.FailurePolicy = "retry" }, ErrInvalidPolicy},
		{"zero scrolls", func(c *Config) { c.MaxScrolls = 0 }, nil},
		{"negative limit", func(c *Config) { c.MaxConnections = -1 }, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			switch {
			case tt.name == "valid":
				assert.NoError(t, err)
			case tt.wantErr != nil:
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			default:
				assert.Error(t, err)
			}
		})
	}
}

func TestMappings(t *testing.T) {
	cfg := Default()
	cfg.Username = "me@example.com"
	cfg.Password = "secret"
	cfg.ChromePath = "/usr/bin/chromium"
	cfg.MaxConnections = 10
	cfg.FailurePolicy = "skip"
	cfg.NoProgress = true

	opts := cfg.BrowserOptions()
	assert.False(t, opts.Headless)
	assert.True(t, opts.DisableImages)
	assert.Equal(t, "/usr/bin/chromium", opts.ExecPath)
	assert.Equal(t, 30*time.Second, opts.CommandTimeout)

	cc := cfg.CrawlerConfig()
	assert.Equal(t, "me@example.com", cc.Username)
	assert.Equal(t, "secret", cc.Password)
	assert.Equal(t, 10, cc.MaxConnections)
	assert.Equal(t, crawler.FailSkip, cc.FailurePolicy)
	assert.False(t, cc.ShowSpinner)
}
