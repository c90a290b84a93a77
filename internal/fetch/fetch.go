// Package fetch implements the frontend's light-phase HTTP GET: a single
// request with a desktop user agent, bounded total deadline, and a memory
// cap on the response body.
package fetch

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DesktopUserAgent mirrors a current desktop Chrome build so scraped sites
// do not serve a degraded mobile or bot-detection variant.
const DesktopUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// MaxBodyBytes bounds how much of a response body is read into memory. The
// source has no such bound; this closes that gap (see Open Questions).
const MaxBodyBytes = 25 * 1024 * 1024 // 25 MiB

// Timeout is the total deadline for the fetch, covering connect, TLS,
// redirects, and body read.
const Timeout = 30 * time.Second

// Result is the outcome of a successful fetch (no transport error). A
// non-2xx status is still a Result; the caller logs it and parses the body.
type Result struct {
	StatusCode int
	Body       string
}

// Get issues one HTTP GET against url with the standard scraping headers
// and reads the body, decompressing it if the server honored our
// Accept-Encoding. Redirects are followed by the default client policy.
func Get(ctx context.Context, url string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: build request: %w", err)
	}
	req.Header.Set("User-Agent", DesktopUserAgent)
	req.Header.Set("Accept-Encoding", "gzip, deflate")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	client := &http.Client{Timeout: Timeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		slog.Warn("fetch returned non-2xx status", "url", url, "status", resp.StatusCode)
	}

	reader, err := decompressingReader(resp)
	if err != nil {
		return nil, fmt.Errorf("fetch: decompress: %w", err)
	}

	limited := io.LimitReader(reader, MaxBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	if len(body) > MaxBodyBytes {
		slog.Warn("fetch body truncated at size cap", "url", url, "cap_bytes", MaxBodyBytes)
		body = body[:MaxBodyBytes]
	}

	return &Result{StatusCode: resp.StatusCode, Body: string(body)}, nil
}

func decompressingReader(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "deflate":
		return flate.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}
