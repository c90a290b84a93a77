package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// navigationTimingScript reads the Navigation Timing Level 2 entry and
// returns durations in milliseconds: per-phase spans for dns_lookup,
// tcp_connect, request and response, and times measured from the start of
// navigation for dom_content_loaded, load_complete and total.
const navigationTimingScript = `
(() => {
  const nav = performance.getEntriesByType("navigation")[0];
  if (!nav) return {};
  return {
    dns_lookup: nav.domainLookupEnd - nav.domainLookupStart,
    tcp_connect: nav.connectEnd - nav.connectStart,
    request: nav.responseStart - nav.requestStart,
    response: nav.responseEnd - nav.responseStart,
    dom_content_loaded: nav.domContentLoadedEventEnd - nav.startTime,
    load_complete: nav.loadEventEnd - nav.startTime,
    total: nav.duration,
  };
})()
`

// Performance navigates to url and collects Navigation Timing metrics,
// returned as a map of metric name to milliseconds.
func Performance(ctx context.Context, url string, timeout time.Duration) (map[string]float64, error) {
	allocCtx, cancelAlloc := chromedp.NewContext(ctx)
	defer cancelAlloc()

	runCtx, cancelTimeout := context.WithTimeout(allocCtx, timeout)
	defer cancelTimeout()

	var metrics map[string]float64
	err := chromedp.Run(runCtx,
		chromedp.Navigate(url),
		chromedp.Evaluate(navigationTimingScript, &metrics),
	)
	if err != nil {
		return nil, fmt.Errorf("jobs: performance: %w", err)
	}
	return metrics, nil
}
