// Package pipeline implements the frontend's per-task orchestrator: fetch,
// parse, dispatch the heavy phase to the backend, and consolidate a result.
// Each task runs on its own goroutine, the threads-and-channels mapping of
// the source's cooperative per-task coroutine.
package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"scrapeforge.xyz/orchestrator/internal/backendclient"
	"scrapeforge.xyz/orchestrator/internal/fetch"
	"scrapeforge.xyz/orchestrator/internal/htmlparse"
	"scrapeforge.xyz/orchestrator/internal/metrics"
	"scrapeforge.xyz/orchestrator/internal/task"
)

// heavyCallTimeoutSeconds is the timeout value sent to the backend for each
// of the three heavy-phase calls. The backendclient's own exchange budget is
// its CallTimeout field, set separately.
const heavyCallTimeoutSeconds = 30

// maxImages bounds the image_processing call's thumbnail count.
const maxImages = 5

// Orchestrator runs the per-task pipeline against a task registry and a
// backend client. It holds no per-task state of its own.
type Orchestrator struct {
	registry *task.Registry
	backend  *backendclient.Client
}

// New wires an orchestrator to the registry it updates and the backend it
// calls for the heavy phase.
func New(registry *task.Registry, backend *backendclient.Client) *Orchestrator {
	return &Orchestrator{registry: registry, backend: backend}
}

// Run launches the pipeline for an already-created task on its own
// goroutine. It returns immediately; the task's terminal state is observed
// through the registry.
func (o *Orchestrator) Run(t *task.Task) {
	go o.runSync(t)
}

func (o *Orchestrator) runSync(t *task.Task) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("pipeline panicked", "task_id", t.ID, "panic", r)
			o.registry.SetError(t.ID, fmt.Sprintf("%v", r))
		}
	}()

	scrapingData, rawHTML, ok := o.fetchAndParse(t)
	if !ok {
		return
	}

	processingData := o.dispatchHeavyPhase(t, rawHTML)

	o.registry.SetResult(t.ID, &task.Result{
		URL:            t.URL,
		Timestamp:      time.Now(),
		ScrapingData:   scrapingData,
		ProcessingData: processingData,
		Status:         "success",
	})
}

// fetchAndParse performs steps 1-2: advance to scraping, GET the page, and
// parse it into ScrapingData. A transport failure terminates the task.
func (o *Orchestrator) fetchAndParse(t *task.Task) (*task.ScrapingData, string, bool) {
	o.registry.Advance(t.ID, task.StatusScraping)

	start := time.Now()
	result, err := fetch.Get(context.Background(), t.URL)
	metrics.PipelineStageLatencySeconds.WithLabelValues("fetch").Observe(time.Since(start).Seconds())
	if err != nil {
		slog.Warn("fetch failed", "task_id", t.ID, "url", t.URL, "error", err)
		o.registry.SetError(t.ID, "Failed to scrape URL")
		return nil, "", false
	}

	start = time.Now()
	data := htmlparse.Parse(result.Body, t.URL)
	metrics.PipelineStageLatencySeconds.WithLabelValues("parse").Observe(time.Since(start).Seconds())

	return data, result.Body, true
}

// dispatchHeavyPhase performs step 3: three sequential backend calls. Each
// leg degrades independently on failure; the task never fails here.
func (o *Orchestrator) dispatchHeavyPhase(t *task.Task, rawHTML string) *task.ProcessingData {
	o.registry.Advance(t.ID, task.StatusProcessing)

	data := &task.ProcessingData{
		Thumbnails: []string{},
	}

	start := time.Now()
	if screenshot, ok := o.callScreenshot(t.URL); ok {
		data.Screenshot = screenshot
	}
	metrics.PipelineStageLatencySeconds.WithLabelValues("screenshot").Observe(time.Since(start).Seconds())

	start = time.Now()
	if perf, ok := o.callPerformance(t.URL); ok {
		data.Performance = perf
	}
	metrics.PipelineStageLatencySeconds.WithLabelValues("performance").Observe(time.Since(start).Seconds())

	start = time.Now()
	if thumbs, ok := o.callImageProcessing(t.URL, rawHTML); ok {
		data.Thumbnails = thumbs
	}
	metrics.PipelineStageLatencySeconds.WithLabelValues("image_processing").Observe(time.Since(start).Seconds())

	return data
}

func (o *Orchestrator) callScreenshot(url string) (*string, bool) {
	raw, err := o.backend.Call("screenshot", map[string]any{"url": url, "timeout": heavyCallTimeoutSeconds})
	if err != nil {
		o.recordBackendOutcome("screenshot", err)
		return nil, false
	}
	var resp struct {
		Screenshot *string `json:"screenshot"`
		Success    bool    `json:"success"`
	}
	if err := decode(raw, &resp); err != nil || !resp.Success {
		o.recordBackendOutcome("screenshot", err)
		return nil, false
	}
	metrics.BackendCallsTotal.WithLabelValues("screenshot", "success").Inc()
	return resp.Screenshot, true
}

func (o *Orchestrator) callPerformance(url string) (map[string]float64, bool) {
	raw, err := o.backend.Call("performance", map[string]any{"url": url, "timeout": heavyCallTimeoutSeconds})
	if err != nil {
		o.recordBackendOutcome("performance", err)
		return nil, false
	}
	var resp struct {
		Performance map[string]float64 `json:"performance"`
		Success     bool                `json:"success"`
	}
	if err := decode(raw, &resp); err != nil || !resp.Success {
		o.recordBackendOutcome("performance", err)
		return nil, false
	}
	metrics.BackendCallsTotal.WithLabelValues("performance", "success").Inc()
	return resp.Performance, true
}

func (o *Orchestrator) callImageProcessing(url, htmlContent string) ([]string, bool) {
	raw, err := o.backend.Call("image_processing", map[string]any{
		"url":          url,
		"html_content": htmlContent,
		"max_images":   maxImages,
	})
	if err != nil {
		o.recordBackendOutcome("image_processing", err)
		return nil, false
	}
	var resp struct {
		Thumbnails []string `json:"thumbnails"`
		Success    bool     `json:"success"`
	}
	if err := decode(raw, &resp); err != nil || !resp.Success {
		o.recordBackendOutcome("image_processing", err)
		return nil, false
	}
	metrics.BackendCallsTotal.WithLabelValues("image_processing", "success").Inc()
	return resp.Thumbnails, true
}

func decode(raw json.RawMessage, v any) error {
	return json.Unmarshal(raw, v)
}

func (o *Orchestrator) recordBackendOutcome(jobType string, err error) {
	outcome := "failure"
	if errors.Is(err, backendclient.ErrTimeout) {
		outcome = "timeout"
	}
	if err != nil {
		slog.Warn("heavy-phase call degraded", "job_type", jobType, "error", err)
	}
	metrics.BackendCallsTotal.WithLabelValues(jobType, outcome).Inc()
}
