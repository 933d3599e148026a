// Package render turns the hosted program page into a printable PDF by
// driving a headless Chromium instance.
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// DefaultTimeout bounds one full navigate-and-print sequence.
const DefaultTimeout = 30 * time.Second

// Options defines parameters for a Chromium-based PDF render.
type Options struct {
	// URL of the rendered program page, e.g. "http://127.0.0.1:5173/print".
	URL string

	// WaitSelector is a CSS selector the page exposes once data has loaded
	// and layout has settled. Empty waits for document body only.
	WaitSelector string

	// Timeout bounds the entire render. If zero, DefaultTimeout is used.
	Timeout time.Duration

	// Landscape rotates the printed page. Schedule grids are wide, so
	// callers usually set this.
	Landscape bool
}

// PDF navigates a headless Chromium to opts.URL, waits for the page to
// finish rendering, and returns the print-to-PDF output with backgrounds
// enabled so hall colors survive printing.
func PDF(parentCtx context.Context, opts Options) ([]byte, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("render: URL is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	selector := opts.WaitSelector
	if selector == "" {
		selector = "body"
	}

	ctx, cancel := chromedp.NewContext(parentCtx)
	defer cancel()

	ctx, timeoutCancel := context.WithTimeout(ctx, opts.Timeout)
	defer timeoutCancel()

	var pdf []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate(opts.URL),
		chromedp.WaitVisible(selector, chromedp.ByQuery),
		// Small extra delay to allow final paints.
		chromedp.Sleep(500 * time.Millisecond),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			pdf, _, err = page.PrintToPDF().
				WithPrintBackground(true).
				WithLandscape(opts.Landscape).
				Do(ctx)
			return err
		}),
	}

	if err := chromedp.Run(ctx, tasks); err != nil {
		return nil, fmt.Errorf("render: chromedp run failed: %w", err)
	}
	return pdf, nil
}
