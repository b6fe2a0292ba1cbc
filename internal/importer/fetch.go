package importer

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/chromedp/chromedp"
)

// fetchHTMLWithHeadlessBrowser renders a listing page in headless Chrome.
// Used as a fallback for sites that build their photo galleries with
// client-side JavaScript, where a plain HTTP fetch yields an empty gallery.
func fetchHTMLWithHeadlessBrowser(pageURL, userAgent string) (string, error) {
	log.Printf("[Importer] Rendering %s with headless browser", pageURL)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	ctx, cancel := context.WithTimeout(browserCtx, 60*time.Second)
	defer cancel()

	var htmlContent string
	err := chromedp.Run(ctx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body"),
		// Give lazy-loaded galleries a moment to populate
		chromedp.Sleep(3*time.Second),
		chromedp.OuterHTML("html", &htmlContent),
	)
	if err != nil {
		return "", fmt.Errorf("headless render failed: %w", err)
	}

	return htmlContent, nil
}
