package fetch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/chromedp"
)

type BrowserOptions struct {
	Headless  bool
	UserAgent string
	// css selector to wait on after navigation. a timeout waiting for it
	// is not an error, the page is returned as-is.
	WaitSelector string
	// how long to wait for WaitSelector
	WaitTimeout time.Duration
	// how long a navigation may take in total
	PageTimeout time.Duration
}

// Browser renders pages in a headless Chrome session. The session is
// exclusively owned by its creator and can be replaced wholesale with
// Restart when it appears broken.
type Browser struct {
	parent      context.Context
	opts        BrowserOptions
	allocCancel context.CancelFunc
	tab         context.Context
	tabCancel   context.CancelFunc
}

func NewBrowser(ctx context.Context, opts BrowserOptions) (*Browser, error) {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.WaitTimeout == 0 {
		opts.WaitTimeout = time.Second * 10
	}
	if opts.PageTimeout == 0 {
		opts.PageTimeout = time.Second * 60
	}

	b := &Browser{parent: ctx, opts: opts}
	err := b.start()
	if err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Browser) start() error {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", b.opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("window-size", "1200,900"),
		chromedp.Flag("log-level", "3"),
		chromedp.UserAgent(b.opts.UserAgent),
		// keeps the obvious automation switches out of the session
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("use-automation-extension", false),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(b.parent, allocOpts...)
	tab, tabCancel := chromedp.NewContext(allocCtx)

	// materialize the browser process now so a broken chrome install
	// fails at construction instead of on the first fetch
	err := chromedp.Run(tab)
	if err != nil {
		tabCancel()
		allocCancel()
		return fmt.Errorf("start browser: %w", err)
	}

	b.allocCancel = allocCancel
	b.tab = tab
	b.tabCancel = tabCancel
	return nil
}

// Restart replaces a session that appears broken: acquire new, release
// old, never left in an indeterminate state.
func (b *Browser) Restart() error {
	slog.Warn("restarting browser session")
	b.Close()
	return b.start()
}

func (b *Browser) Close() {
	if b.tabCancel != nil {
		b.tabCancel()
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.tab = nil
	b.tabCancel = nil
	b.allocCancel = nil
}

func (b *Browser) Fetch(ctx context.Context, url string) (string, error) {
	if b.tab == nil {
		return "", errors.New("browser session is closed")
	}

	navCtx, cancel := context.WithTimeout(b.tab, b.opts.PageTimeout)
	defer cancel()

	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}

	if b.opts.WaitSelector != "" {
		waitCtx, cancel := context.WithTimeout(b.tab, b.opts.WaitTimeout)
		err = chromedp.Run(waitCtx, chromedp.WaitReady(b.opts.WaitSelector, chromedp.ByQuery))
		cancel()
		if err != nil {
			// the selector never appearing just means the page gets
			// returned as-is, same as a plain fetch
			slog.Debug("timed out waiting for selector", "selector", b.opts.WaitSelector, "url", url)
		}
	}

	var markup string
	err = chromedp.Run(navCtx,
		// let late async loads land before grabbing the document
		chromedp.Sleep(time.Second),
		chromedp.OuterHTML("html", &markup, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("render %s: %w", url, err)
	}
	return markup, nil
}

// Screenshot captures the current page, for diagnostics only.
func (b *Browser) Screenshot(ctx context.Context) ([]byte, error) {
	if b.tab == nil {
		return nil, errors.New("browser session is closed")
	}
	shotCtx, cancel := context.WithTimeout(b.tab, time.Second*10)
	defer cancel()

	var buf []byte
	err := chromedp.Run(shotCtx, chromedp.CaptureScreenshot(&buf))
	if err != nil {
		return nil, err
	}
	return buf, nil
}
