package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/briandowns/spinner"
	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"github.com/go-scripts/connections/internal/extract"
	"github.com/go-scripts/connections/internal/progress"
	"github.com/go-scripts/connections/internal/queue"
	"github.com/go-scripts/connections/internal/types"
)

var (
	// ErrScrollLimit means the list was still growing when MaxScrolls ran out.
	ErrScrollLimit = errors.New("scroll limit reached before the list stopped growing")

	// ErrItemsFailed is returned by Run under FailSkip when at least one
	// connection could not be scraped.
	ErrItemsFailed = errors.New("some connections could not be scraped")
)

// FailurePolicy decides what happens when a single connection fails.
type FailurePolicy string

const (
	// FailStop aborts the run on the first failing connection. Rows already
	// written stay in the output.
	FailStop FailurePolicy = "stop"
	// FailSkip logs the failure and moves on to the next connection.
	FailSkip FailurePolicy = "skip"
)

// Page is the browser surface the crawler drives.
type Page interface {
	Navigate(ctx context.Context, url string) error
	Location(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	ScrollHeight(ctx context.Context) (int64, error)
	ScrollToBottom(ctx context.Context) error
	WaitVisible(ctx context.Context, sel string) error
	SendKeys(ctx context.Context, sel, value string) error
	Click(ctx context.Context, sel string) error
}

// ConnectionWriter receives one scraped connection at a time.
type ConnectionWriter interface {
	WriteConnection(types.Connection) error
}

// Configuration holds the crawler settings
type Configuration struct {
	BaseURL        string
	ConnectionsURL string
	Username       string
	Password       string

	MaxScrolls    int
	SettleTimeout time.Duration // how long to wait for the list to grow after a scroll
	PollInterval  time.Duration

	MaxConnections int           // 0 keeps every collected link
	ItemDelay      time.Duration // minimum spacing between profile visits
	FailurePolicy  FailurePolicy

	ShowSpinner bool
}

// Defaults used for zero-valued Configuration fields.
const (
	DefaultMaxScrolls    = 500
	DefaultSettleTimeout = time.Second
	DefaultPollInterval  = 100 * time.Millisecond
	DefaultItemDelay     = 200 * time.Millisecond
)

func (c Configuration) withDefaults() Configuration {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.ConnectionsURL == "" {
		c.ConnectionsURL = DefaultConnectionsURL
	}
	if c.MaxScrolls <= 0 {
		c.MaxScrolls = DefaultMaxScrolls
	}
	if c.SettleTimeout <= 0 {
		c.SettleTimeout = DefaultSettleTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.ItemDelay < 0 {
		c.ItemDelay = 0
	}
	if c.FailurePolicy == "" {
		c.FailurePolicy = FailStop
	}
	return c
}

// Result summarises the list loading of a run. Per-connection counts live
// in the progress tracker and the writer.
type Result struct {
	Scrolls   int
	Truncated bool // the scroll limit was hit
	Links     int
}

// Crawler exports the connections of one account
type Crawler struct {
	config   Configuration
	page     Page
	writer   ConnectionWriter
	progress *progress.ProgressTracker
	log      *log.Logger
	limiter  *rate.Limiter
}

// New creates a Crawler. A nil tracker or logger is replaced with a silent one.
func New(config Configuration, page Page, w ConnectionWriter, tracker *progress.ProgressTracker, logger *log.Logger) *Crawler {
	config = config.withDefaults()
	if tracker == nil {
		tracker = progress.New(nil)
	}
	if logger == nil {
		logger = log.New(io.Discard)
	}

	limit := rate.Inf
	if config.ItemDelay > 0 {
		limit = rate.Every(config.ItemDelay)
	}

	return &Crawler{
		config:   config,
		page:     page,
		writer:   w,
		progress: tracker,
		log:      logger,
		limiter:  rate.NewLimiter(limit, 1),
	}
}

// Run logs in, loads the whole connections list and exports every connection.
func (c *Crawler) Run(ctx context.Context) (Result, error) {
	var res Result

	c.log.Info("Logging in", "user", c.config.Username)
	if err := c.Login(ctx); err != nil {
		return res, fmt.Errorf("login: %w", err)
	}

	c.log.Info("Loading connections list", "url", c.config.ConnectionsURL)
	scrolls, err := c.Materialize(ctx)
	res.Scrolls = scrolls
	switch {
	case errors.Is(err, ErrScrollLimit):
		res.Truncated = true
		c.log.Warn("Connections list did not settle, continuing with what has loaded", "scrolls", scrolls)
	case err != nil:
		return res, fmt.Errorf("load connections: %w", err)
	}

	links, err := c.CollectLinks(ctx)
	if err != nil {
		return res, fmt.Errorf("collect links: %w", err)
	}
	res.Links = len(links)
	c.log.Info("Collected profile links", "count", len(links), "scrolls", scrolls)

	err = c.scrapeAll(ctx, queue.New(links...))
	return res, err
}

// Login submits the credentials and opens the connections page. Whether the
// login actually succeeded is not checked here; a failed login shows up as an
// empty connections list.
func (c *Crawler) Login(ctx context.Context) error {
	if err := c.page.Navigate(ctx, c.config.BaseURL); err != nil {
		return err
	}
	if err := c.page.WaitVisible(ctx, SelectorLoginEmail); err != nil {
		return err
	}
	if err := c.page.SendKeys(ctx, SelectorLoginEmail, c.config.Username); err != nil {
		return err
	}
	if err := c.page.SendKeys(ctx, SelectorLoginPassword, c.config.Password); err != nil {
		return err
	}
	if err := c.page.Click(ctx, SelectorLoginSubmit); err != nil {
		return err
	}
	return c.page.Navigate(ctx, c.config.ConnectionsURL)
}

// Materialize scrolls to the bottom until the page height stops changing and
// returns the number of scroll commands issued. It gives up with
// ErrScrollLimit after MaxScrolls.
func (c *Crawler) Materialize(ctx context.Context) (int, error) {
	var s *spinner.Spinner
	if c.config.ShowSpinner {
		s = spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(os.Stderr))
		s.Suffix = " Scrolling connections list"
		s.Start()
		defer s.Stop()
	}

	last, err := c.page.ScrollHeight(ctx)
	if err != nil {
		return 0, err
	}

	scrolls := 0
	for scrolls < c.config.MaxScrolls {
		if err := c.page.ScrollToBottom(ctx); err != nil {
			return scrolls, err
		}
		scrolls++

		height, err := c.waitForGrowth(ctx, last)
		if err != nil {
			return scrolls, err
		}
		c.traceScroll(s, scrolls, height)
		if height == last {
			return scrolls, nil
		}
		last = height
	}

	return scrolls, fmt.Errorf("%w (%d scrolls)", ErrScrollLimit, scrolls)
}

// traceScroll reports a scroll in the spinner suffix while the spinner owns
// the terminal, and as a debug log line otherwise.
func (c *Crawler) traceScroll(s *spinner.Spinner, n int, height int64) {
	if s != nil && s.Active() {
		s.Lock()
		s.Suffix = fmt.Sprintf(" Scrolling connections list (%d scrolls, height %d)", n, height)
		s.Unlock()
		return
	}
	c.log.Debug("Scrolled", "n", n, "height", height)
}

// waitForGrowth polls the page height until it differs from last or the
// settle timeout passes, and returns the final reading.
func (c *Crawler) waitForGrowth(ctx context.Context, last int64) (int64, error) {
	deadline := time.Now().Add(c.config.SettleTimeout)
	ticker := time.NewTicker(c.config.PollInterval)
	defer ticker.Stop()

	for {
		height, err := c.page.ScrollHeight(ctx)
		if err != nil {
			return 0, err
		}
		if height != last || !time.Now().Before(deadline) {
			return height, nil
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

// CollectLinks returns the profile link of every card on the current page,
// in page order and including duplicates.
func (c *Crawler) CollectLinks(ctx context.Context) ([]string, error) {
	doc, err := c.document(ctx)
	if err != nil {
		return nil, err
	}
	loc, err := c.page.Location(ctx)
	if err != nil {
		return nil, err
	}

	links := extract.Links(doc, loc)
	if len(links) == 0 {
		c.log.Warn("No connection cards found", "selector", extract.SelectorConnectionLink)
	}
	if c.config.MaxConnections > 0 && len(links) > c.config.MaxConnections {
		links = links[:c.config.MaxConnections]
	}
	return links, nil
}

// ScrapeProfile reads one connection: the contact-info overlay first, then
// the profile top card once the overlay is dismissed.
func (c *Crawler) ScrapeProfile(ctx context.Context, link string) (types.Connection, error) {
	if err := c.page.Navigate(ctx, ContactInfoURL(link)); err != nil {
		return types.Connection{}, err
	}
	if err := c.page.WaitVisible(ctx, SelectorDismiss); err != nil {
		return types.Connection{}, fmt.Errorf("contact info overlay: %w", err)
	}

	doc, err := c.document(ctx)
	if err != nil {
		return types.Connection{}, err
	}
	contact := extract.Contact(doc)

	if err := c.page.Click(ctx, SelectorDismiss); err != nil {
		return types.Connection{}, fmt.Errorf("dismiss contact info: %w", err)
	}

	doc, err = c.document(ctx)
	if err != nil {
		return types.Connection{}, err
	}
	profile, err := extract.Profile(doc)
	if err != nil {
		return types.Connection{}, err
	}

	return types.NewConnection(link, profile, contact), nil
}

func (c *Crawler) scrapeAll(ctx context.Context, q *queue.Queue) error {
	c.progress.SetTotal(q.Total())

	for {
		link, ok := q.Next()
		if !ok {
			break
		}
		if err := c.limiter.Wait(ctx); err != nil {
			c.log.Debug("Links not attempted", "links", append([]string{link}, q.Remaining()...))
			return fmt.Errorf("%w (%d links not attempted)", err, q.Len()+1)
		}
		if q.Visits(link) > 1 {
			c.log.Debug("Link listed more than once", "link", link)
		}

		conn, err := c.ScrapeProfile(ctx, link)
		if err != nil {
			c.progress.Fail()
			if c.config.FailurePolicy == FailSkip && ctx.Err() == nil {
				c.log.Error("Skipping connection", "link", link, "err", err)
				continue
			}
			c.log.Debug("Links not attempted", "links", q.Remaining())
			return fmt.Errorf("scrape %s (%d links not attempted): %w", link, q.Len(), err)
		}

		// Losing the output is fatal whatever the policy.
		if err := c.writer.WriteConnection(conn); err != nil {
			return err
		}
		c.progress.Increment()
	}

	if failed := c.progress.Failed(); failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrItemsFailed, failed, q.Total())
	}
	return nil
}

func (c *Crawler) document(ctx context.Context) (*goquery.Document, error) {
	html, err := c.page.HTML(ctx)
	if err != nil {
		return nil, err
	}
	return extract.Parse(html)
}

// ContactInfoURL derives the contact-info overlay URL of a profile link.
// Query and fragment of the link are dropped.
func ContactInfoURL(link string) string {
	u, err := url.Parse(link)
	if err != nil {
		return strings.TrimSuffix(link, "/") + "/" + ContactInfoPath
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + ContactInfoPath
	u.RawPath = ""
	u.RawQuery = ""
	u.ForceQuery = false
	u.Fragment = ""
	u.RawFragment = ""
	return u.String()
}
