// Package browser owns the Chrome instance driven through chromedp.
//
// Session exposes the handful of page operations the exporter needs and
// keeps every chromedp call behind a per-command timeout.
package browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

// ErrNotFound is returned when an element required by a command is not on the page.
var ErrNotFound = errors.New("element not found")

const defaultCommandTimeout = 30 * time.Second

// Options configures the browser launch.
type Options struct {
	Headless       bool
	DisableImages  bool
	ExecPath       string // chrome binary, empty for the chromedp default lookup
	UserAgent      string
	UserDataDir    string
	CommandTimeout time.Duration
}

// Session is a running browser with a single tab.
type Session struct {
	ctx     context.Context
	cancel  context.CancelFunc
	timeout time.Duration
	once    sync.Once
}

// New launches Chrome and opens a blank tab. Cancelling parent tears the
// browser down.
func New(parent context.Context, opts Options) (*Session, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if opts.DisableImages {
		allocOpts = append(allocOpts, chromedp.Flag("blink-settings", "imagesEnabled=false"))
	}
	if opts.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserAgent != "" {
		allocOpts = append(allocOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(parent, allocOpts...)
	ctx, cancel := chromedp.NewContext(allocCtx)

	s := &Session{
		ctx: ctx,
		cancel: func() {
			cancel()
			allocCancel()
		},
		timeout: opts.CommandTimeout,
	}
	if s.timeout <= 0 {
		s.timeout = defaultCommandTimeout
	}

	// The first Run allocates the browser; it must not carry a timeout or
	// the browser would be closed when the timeout fires.
	if err := chromedp.Run(ctx, chromedp.Navigate("about:blank")); err != nil {
		s.Close()
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	return s, nil
}

// Context returns the tab context. Contexts passed to Session methods must
// derive from it.
func (s *Session) Context() context.Context { return s.ctx }

// Close shuts the browser down. It is safe to call more than once.
func (s *Session) Close() {
	s.once.Do(s.cancel)
}

func (s *Session) run(ctx context.Context, actions ...chromedp.Action) error {
	cctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return chromedp.Run(cctx, actions...)
}

// Navigate loads url and waits for the body to be ready.
func (s *Session) Navigate(ctx context.Context, url string) error {
	if err := s.run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	return nil
}

// Location returns the current page URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	var loc string
	if err := s.run(ctx, chromedp.Location(&loc)); err != nil {
		return "", fmt.Errorf("read location: %w", err)
	}
	return loc, nil
}

// HTML returns the outer HTML of the document.
func (s *Session) HTML(ctx context.Context) (string, error) {
	var html string
	if err := s.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return html, nil
}

// ScrollHeight returns document.body.scrollHeight.
func (s *Session) ScrollHeight(ctx context.Context) (int64, error) {
	var h int64
	if err := s.run(ctx, chromedp.Evaluate(`document.body.scrollHeight`, &h)); err != nil {
		return 0, fmt.Errorf("read scroll height: %w", err)
	}
	return h, nil
}

// ScrollToBottom scrolls the window to the current end of the document.
func (s *Session) ScrollToBottom(ctx context.Context) error {
	if err := s.run(ctx, chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight);`, nil)); err != nil {
		return fmt.Errorf("scroll: %w", err)
	}
	return nil
}

// Exists reports whether sel matches at least one node right now.
func (s *Session) Exists(ctx context.Context, sel string) (bool, error) {
	var nodes []*cdp.Node
	if err := s.run(ctx, chromedp.Nodes(sel, &nodes, chromedp.ByQuery, chromedp.AtLeast(0))); err != nil {
		return false, fmt.Errorf("query %s: %w", sel, err)
	}
	return len(nodes) > 0, nil
}

// WaitVisible blocks until sel is visible. Running out of the command
// timeout is reported as ErrNotFound.
func (s *Session) WaitVisible(ctx context.Context, sel string) error {
	if err := s.run(ctx, chromedp.WaitVisible(sel, chromedp.ByQuery)); err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w: %s", ErrNotFound, sel)
		}
		return fmt.Errorf("wait for %s: %w", sel, err)
	}
	return nil
}

// SendKeys types value into the element matching sel.
func (s *Session) SendKeys(ctx context.Context, sel, value string) error {
	if err := s.require(ctx, sel); err != nil {
		return err
	}
	if err := s.run(ctx, chromedp.SendKeys(sel, value, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("type into %s: %w", sel, err)
	}
	return nil
}

// Click clicks the element matching sel.
func (s *Session) Click(ctx context.Context, sel string) error {
	if err := s.require(ctx, sel); err != nil {
		return err
	}
	if err := s.run(ctx, chromedp.Click(sel, chromedp.ByQuery)); err != nil {
		return fmt.Errorf("click %s: %w", sel, err)
	}
	return nil
}

// require fails fast with ErrNotFound instead of letting chromedp wait for
// the element until the command timeout.
func (s *Session) require(ctx context.Context, sel string) error {
	ok, err := s.Exists(ctx, sel)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, sel)
	}
	return nil
}
