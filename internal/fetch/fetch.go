// Package fetch retrieves raw portal page content, with two strategies:
// a plain HTTP request for server-rendered portals, and a headless browser
// session for portals that build their listings client-side.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"jobradar-engine/internal/config"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const maxBodyBytes = 4 << 20

type Options struct {
	Timeout       time.Duration
	MaxAttempts   int
	HostReqPerSec float64
	HostBurst     int
	BackoffBase   time.Duration // 0 = 500ms
	Browser       *BrowserPool  // nil when no rendered sources are configured
}

type Client struct {
	hc          *http.Client
	limiter     *hostLimiter
	browser     *BrowserPool
	timeout     time.Duration
	maxAttempts int
	backoffBase time.Duration
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}
	if opts.HostReqPerSec <= 0 {
		opts.HostReqPerSec = 1.0
	}
	if opts.HostBurst <= 0 {
		opts.HostBurst = 2
	}
	if opts.BackoffBase <= 0 {
		opts.BackoffBase = 500 * time.Millisecond
	}
	return &Client{
		hc:          &http.Client{Timeout: opts.Timeout},
		limiter:     newHostLimiter(opts.HostReqPerSec, opts.HostBurst),
		browser:     opts.Browser,
		timeout:     opts.Timeout,
		maxAttempts: opts.MaxAttempts,
		backoffBase: opts.BackoffBase,
	}
}

// Fetch retrieves one page of one source. Transient failures are retried
// up to MaxAttempts with jittered backoff; 4xx responses surface on the
// first attempt. The returned error is always a *fetch.Error.
func (c *Client) Fetch(ctx context.Context, src config.Source, page int) (string, error) {
	pageURL := expandPageURL(src.BaseURL, page)

	var last *Error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := c.pause(ctx, src, attempt); err != nil {
			return "", &Error{Source: src.ID, Page: page, Cause: CauseTimeout, Attempts: attempt, Err: err}
		}
		if err := c.limiter.wait(ctx, pageURL); err != nil {
			return "", &Error{Source: src.ID, Page: page, Cause: CauseTimeout, Attempts: attempt, Err: err}
		}

		var html string
		var ferr *Error
		if src.Strategy == config.StrategyRendered {
			html, ferr = c.fetchRendered(src, pageURL)
		} else {
			html, ferr = c.fetchStatic(ctx, pageURL)
		}
		if ferr == nil {
			return html, nil
		}

		ferr.Source, ferr.Page, ferr.Attempts = src.ID, page, attempt
		if !ferr.retryable() {
			return "", ferr
		}
		last = ferr
	}
	return "", last
}

// expandPageURL fills the page number into the base URL template. A base
// without a %d placeholder is one fixed URL for every page; Sprintf would
// append a %!(EXTRA) marker and break it.
func expandPageURL(base string, page int) string {
	if !strings.Contains(base, "%d") {
		return base
	}
	return fmt.Sprintf(base, page)
}

// pause sleeps the source's randomized inter-request delay, plus jittered
// backoff when this is a retry. Never sleeps past ctx cancellation.
func (c *Client) pause(ctx context.Context, src config.Source, attempt int) error {
	d := time.Duration(0)
	if span := src.DelayMaxMs - src.DelayMinMs; span > 0 {
		d = time.Duration(src.DelayMinMs+rand.Intn(span+1)) * time.Millisecond
	} else if src.DelayMinMs > 0 {
		d = time.Duration(src.DelayMinMs) * time.Millisecond
	}
	if attempt > 1 {
		backoff := c.backoffBase * time.Duration(attempt-1)
		jitter := time.Duration(rand.Int63n(int64(c.backoffBase)))
		d += backoff + jitter
	}
	if d == 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) fetchStatic(ctx context.Context, pageURL string) (string, *Error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &Error{Cause: CauseHTTP, Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := c.hc.Do(req)
	if err != nil {
		// transport errors (conn refused, DNS, client timeout) are transient
		return "", &Error{Cause: CauseTimeout, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		return "", &Error{Cause: CauseHTTP, Status: res.StatusCode, Err: fmt.Errorf("status %s", res.Status)}
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", &Error{Cause: CauseTimeout, Err: err}
	}
	return string(b), nil
}

func (c *Client) fetchRendered(src config.Source, pageURL string) (string, *Error) {
	if c.browser == nil {
		return "", &Error{Cause: CauseRender, Err: errors.New("no browser pool configured")}
	}
	if err := c.browser.acquire(context.Background()); err != nil {
		return "", &Error{Cause: CauseRender, Err: err}
	}
	defer c.browser.release()

	// Fresh tab per page; the tab dies with cancel even on error paths.
	tabCtx, cancelTab := chromedp.NewContext(c.browser.allocCtx)
	defer cancelTab()

	tctx, cancel := context.WithTimeout(tabCtx, c.timeout)
	defer cancel()

	actions := []chromedp.Action{chromedp.Navigate(pageURL)}
	if src.WaitSelector != "" {
		actions = append(actions, chromedp.WaitVisible(src.WaitSelector, chromedp.ByQuery))
	} else {
		actions = append(actions, chromedp.Sleep(time.Duration(src.SettleMs)*time.Millisecond))
	}
	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(tctx, actions...); err != nil {
		cause := CauseRender
		if errors.Is(err, context.DeadlineExceeded) {
			cause = CauseTimeout
		}
		return "", &Error{Cause: cause, Err: err}
	}
	return html, nil
}
