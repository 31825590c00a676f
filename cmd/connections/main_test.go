package main

import (
	"testing"
	"time"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-scripts/connections/internal/config"
)

func parseFlags(t *testing.T, args ...string) CLIFlags {
	t.Helper()
	var flags CLIFlags
	parser, err := kong.New(&flags, kong.Name("connections"), kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	_, err = parser.Parse(args)
	require.NoError(t, err)
	return flags
}

func TestFlagsOverrideConfig(t *testing.T) {
	t.Setenv("LINKEDIN_USERNAME", "env@example.com")
	t.Setenv("LINKEDIN_PASSWORD", "")

	flags := parseFlags(t,
		"-o", "out.csv",
		"--headless",
		"--max-scrolls", "12",
		"-n", "5",
		"--item-delay", "750ms",
		"--failure-policy", "skip",
		"--no-progress",
	)

	cfg := config.Default()
	cfg.Username = "file@example.com"
	flags.apply(cfg)

	assert.Equal(t, "env@example.com", cfg.Username)
	assert.Empty(t, cfg.Password)
	assert.Equal(t, "out.csv", cfg.Output)
	assert.True(t, cfg.Headless)
	assert.Equal(t, 12, cfg.MaxScrolls)
	assert.Equal(t, 5, cfg.MaxConnections)
	assert.Equal(t, 750*time.Millisecond, cfg.ItemDelay)
	assert.Equal(t, "skip", cfg.FailurePolicy)
	assert.True(t, cfg.NoProgress)
}

func TestUnsetFlagsKeepConfig(t *testing.T) {
	t.Setenv("LINKEDIN_USERNAME", "")
	t.Setenv("LINKEDIN_PASSWORD", "")
	t.Setenv("CHROME_PATH", "")

	flags := parseFlags(t)

	cfg := config.Default()
	cfg.Username = "file@example.com"
	cfg.Headless = true
	want := *cfg

	flags.apply(cfg)
	assert.Equal(t, want, *cfg)
}
