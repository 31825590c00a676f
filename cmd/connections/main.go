package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/go-scripts/connections/internal/browser"
	"github.com/go-scripts/connections/internal/config"
	"github.com/go-scripts/connections/internal/crawler"
	"github.com/go-scripts/connections/internal/progress"
	"github.com/go-scripts/connections/internal/writer"
)

var _ crawler.Page = (*browser.Session)(nil)

// CLI flags structure
type CLIFlags struct {
	ConfigFile string `help:"Path to YAML configuration file" name:"config" type:"path"`
	Username   string `help:"LinkedIn login e-mail" env:"LINKEDIN_USERNAME" short:"u"`
	Password   string `help:"LinkedIn password, prompted for when empty" env:"LINKEDIN_PASSWORD"`
	Output     string `help:"Path to CSV output file" short:"o"`
	ChromePath string `help:"Chrome/Chromium binary" env:"CHROME_PATH"`
	Headless   bool   `help:"Run the browser without a window"`

	MaxScrolls     int           `help:"Give up scrolling the connections list after this many scrolls"`
	MaxConnections int           `help:"Only export the first N connections (0 = all)" short:"n"`
	ItemDelay      time.Duration `help:"Minimum pause between profile visits"`
	SettleTimeout  time.Duration `help:"How long to wait for more connections to load after a scroll"`
	PollInterval   time.Duration `help:"How often to re-check the page height while waiting"`
	CommandTimeout time.Duration `help:"Timeout for a single browser command"`
	FailurePolicy  string        `help:"What to do when a profile cannot be scraped: stop or skip"`

	NoProgress bool `help:"Disable spinner and progress bar"`
	Debug      bool `help:"Enable debug logging" default:"false"`
}

// apply overrides config values with flags that were set
func (f CLIFlags) apply(cfg *config.Config) {
	if f.Username != "" {
		cfg.Username = f.Username
	}
	if f.Password != "" {
		cfg.Password = f.Password
	}
	if f.Output != "" {
		cfg.Output = f.Output
	}
	if f.ChromePath != "" {
		cfg.ChromePath = f.ChromePath
	}
	if f.Headless {
		cfg.Headless = true
	}
	if f.MaxScrolls != 0 {
		cfg.MaxScrolls = f.MaxScrolls
	}
	if f.MaxConnections != 0 {
		cfg.MaxConnections = f.MaxConnections
	}
	if f.ItemDelay != 0 {
		cfg.ItemDelay = f.ItemDelay
	}
	if f.SettleTimeout != 0 {
		cfg.SettleTimeout = f.SettleTimeout
	}
	if f.PollInterval != 0 {
		cfg.PollInterval = f.PollInterval
	}
	if f.CommandTimeout != 0 {
		cfg.CommandTimeout = f.CommandTimeout
	}
	if f.FailurePolicy != "" {
		cfg.FailurePolicy = f.FailurePolicy
	}
	if f.NoProgress {
		cfg.NoProgress = true
	}
}

func main() {
	// A missing .env is fine; the variables may come from the environment.
	_ = godotenv.Load()

	var flags CLIFlags
	ctx := kong.Parse(&flags,
		kong.Name("connections"),
		kong.Description("Export your LinkedIn connections and their contact info to CSV."),
	)
	if ctx.Error != nil {
		fmt.Printf("Error parsing flags: %v\n", ctx.Error)
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          "connections",
	})
	if flags.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	if err := run(flags, logger); err != nil {
		logger.Error("Export failed", "err", err)
		os.Exit(1)
	}
}

func run(flags CLIFlags, logger *log.Logger) (err error) {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return err
	}
	flags.apply(cfg)

	if cfg.Password == "" && cfg.Username != "" {
		if cfg.Password, err = promptPassword(os.Stdin, os.Stderr); err != nil {
			return err
		}
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out, err := writer.New(cfg.Output)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	logger.Info("Starting browser", "headless", cfg.Headless)
	session, err := browser.New(ctx, cfg.BrowserOptions())
	if err != nil {
		return err
	}
	defer session.Close()

	var progressOut io.Writer = os.Stderr
	if cfg.NoProgress {
		progressOut = nil
	}
	tracker := progress.New(progressOut)

	c := crawler.New(cfg.CrawlerConfig(), session, out, tracker, logger)
	res, err := c.Run(session.Context())
	tracker.Finish()

	logger.Info("Export finished",
		"links", res.Links,
		"processed", tracker.Processed(),
		"failed", tracker.Failed(),
		"written", out.Written(),
		"scrolls", res.Scrolls,
		"output", cfg.Output)
	if res.Truncated {
		logger.Warn("The connections list may be incomplete; raise --max-scrolls to load more")
	}
	return err
}

// promptPassword reads a password without echo when stdin is a terminal.
func promptPassword(in *os.File, out io.Writer) (string, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no password given and stdin is not a terminal; set LINKEDIN_PASSWORD")
	}

	fmt.Fprint(out, "LinkedIn password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}
