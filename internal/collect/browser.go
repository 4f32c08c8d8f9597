package collect

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"
)

// #region browser

// Browser is the chromedp-backed Fetcher. One Browser owns one headless
// Chrome instance; every Fetch runs in a fresh tab.
type Browser struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	screenshot  bool
}

// NewBrowser starts a headless browser. Close must be called when done.
func NewBrowser(ctx context.Context, userAgent string, screenshot bool) (*Browser, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-first-run", true),
	)
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	return &Browser{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		screenshot:  screenshot,
	}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	b.allocCancel()
}

// Fetch navigates to url in a new tab and captures the rendered document.
func (b *Browser) Fetch(ctx context.Context, url string) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(b.allocCtx)
	defer cancel()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()

	var page Page
	actions := []chromedp.Action{
		emulation.SetDeviceMetricsOverride(1280, 1024, 1, false),
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&page.FinalURL),
		chromedp.OuterHTML("html", &page.HTML, chromedp.ByQuery),
	}
	if b.screenshot {
		actions = append(actions, chromedp.FullScreenshot(&page.Screenshot, 80))
	}
	if err := chromedp.Run(tabCtx, actions...); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Page{}, ctxErr
		}
		return Page{}, fmt.Errorf("navigate %s: %w", url, err)
	}
	return page, nil
}

// #endregion browser
