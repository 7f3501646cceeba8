package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Session is one browser automation session. A single session is reused
// across all detail pages of a source run to avoid repeated startup cost.
type Session interface {
	// Navigate loads a page and returns its rendered DOM.
	Navigate(url string) (string, error)
	Close()
}

// SessionFactory opens a new browser session. Swappable so tests can run
// the list/detail strategy against canned pages.
type SessionFactory func(userAgent string, pageTimeout time.Duration) (Session, error)

type browserSession struct {
	browserCtx  context.Context
	cancelCtx   context.CancelFunc
	cancelAlloc context.CancelFunc
	pageTimeout time.Duration
}

// NewBrowserSession starts a headless browser with image loading disabled.
func NewBrowserSession(userAgent string, pageTimeout time.Duration) (Session, error) {
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(
		context.Background(),
		append(
			chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("blink-settings", "imagesEnabled=false"),
			chromedp.UserAgent(userAgent),
		)...,
	)

	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// Launch the browser process now so a broken environment fails the
	// session setup instead of the first navigation.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	return &browserSession{
		browserCtx:  browserCtx,
		cancelCtx:   cancelCtx,
		cancelAlloc: cancelAlloc,
		pageTimeout: pageTimeout,
	}, nil
}

func (s *browserSession) Navigate(url string) (string, error) {
	navCtx, cancel := context.WithTimeout(s.browserCtx, s.pageTimeout)
	defer cancel()

	var html string
	err := chromedp.Run(navCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", url, err)
	}

	return html, nil
}

func (s *browserSession) Close() {
	s.cancelCtx()
	s.cancelAlloc()
}
