// Package jobs implements the backend's heavy-phase job functions:
// screenshot, performance probing, and image thumbnailing. Each is pure with
// respect to the dispatcher process — side effects, if any, touch only
// ephemeral in-memory buffers.
package jobs

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// Screenshot navigates to url in a headless browser and captures a full-page
// PNG screenshot, returned as base64. timeout bounds page load and capture.
func Screenshot(ctx context.Context, url string, timeout time.Duration) (string, error) {
	allocCtx, cancelAlloc := chromedp.NewContext(ctx)
	defer cancelAlloc()

	runCtx, cancelTimeout := context.WithTimeout(allocCtx, timeout)
	defer cancelTimeout()

	var buf []byte
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.FullScreenshot(&buf, 100),
	)
	if err != nil {
		return "", fmt.Errorf("jobs: screenshot: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf), nil
}
