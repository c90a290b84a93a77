// Package task implements the task lifecycle model and the bounded,
// concurrency-safe registry that tracks every in-flight scrape.
package task

import (
	"log/slog"
	"time"

	"scrapeforge.xyz/orchestrator/internal/metrics"
)

// Status is a task's position in its lifecycle. Non-terminal statuses are
// strictly increasing under normal progress; completed and failed are
// terminal and final.
type Status string

const (
	StatusPending    Status = "pending"
	StatusScraping   Status = "scraping"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// IsTerminal reports whether no further transition is possible from s.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// MetaTags is the nested, namespace-stripped view of a page's <meta> tags.
type MetaTags struct {
	Basic     map[string]string `json:"basic"`
	OpenGraph map[string]string `json:"openGraph"`
	Twitter   map[string]string `json:"twitter"`
	Other     map[string]string `json:"other"`
}

// ScrapingData is produced by the light phase (fetch + HTML parse).
type ScrapingData struct {
	Title        string         `json:"title"`
	Links        []string       `json:"links"`
	Structure    map[string]int `json:"structure"`
	ImagesCount  int            `json:"imagesCount"`
	MetaTags     MetaTags       `json:"metaTags"`
	CanonicalURL string         `json:"canonicalUrl"`
	Language     string         `json:"language"`
}

// ProcessingData is produced by the heavy phase (backend dispatcher calls).
// Screenshot and Performance are nil when that leg of the heavy phase did
// not succeed; Thumbnails is an empty list both when image processing failed
// and when it produced no thumbnails. The task still completes.
type ProcessingData struct {
	Screenshot  *string            `json:"screenshot"`
	Performance map[string]float64 `json:"performance"`
	Thumbnails  []string           `json:"thumbnails"`
}

// Result is the consolidated payload stored on a completed task.
type Result struct {
	URL            string          `json:"url"`
	Timestamp      time.Time       `json:"timestamp"`
	ScrapingData   *ScrapingData   `json:"scraping_data"`
	ProcessingData *ProcessingData `json:"processing_data"`
	Status         string          `json:"status"`
}

// Task is a single unit of scraping work. All mutation happens under the
// owning Registry's lock; Task itself holds no mutex.
type Task struct {
	ID          string
	URL         string
	Status      Status
	Result      *Result
	Error       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt time.Time
}

// StatusSnapshot is the read-only view returned by GetStatus.
type StatusSnapshot struct {
	ID          string    `json:"id"`
	Status      Status    `json:"status"`
	URL         string    `json:"url"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
	CompletedAt time.Time `json:"completedAt,omitempty"`
}

func newTask(id, url string, now time.Time) *Task {
	return &Task{
		ID:        id,
		URL:       url,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (t *Task) snapshot() StatusSnapshot {
	return StatusSnapshot{
		ID:          t.ID,
		Status:      t.Status,
		URL:         t.URL,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
		CompletedAt: t.CompletedAt,
	}
}

// advance sets status if the task is non-terminal. No-op otherwise.
func (t *Task) advance(status Status, now time.Time) {
	if t.Status.IsTerminal() {
		return
	}
	t.setState(status, now)
}

// setResult sets result and advances to completed. No-op if already terminal.
func (t *Task) setResult(result *Result, now time.Time) {
	if t.Status.IsTerminal() {
		return
	}
	t.Result = result
	t.setState(StatusCompleted, now)
	t.CompletedAt = now
}

// setError sets error and advances to failed. No-op if already terminal.
func (t *Task) setError(msg string, now time.Time) {
	if t.Status.IsTerminal() {
		return
	}
	t.Error = msg
	t.setState(StatusFailed, now)
	t.CompletedAt = now
}

func (t *Task) setState(status Status, now time.Time) {
	old := t.Status
	t.Status = status
	t.UpdatedAt = now
	slog.Info("task state changed", "task_id", t.ID, "from", old, "to", status)
	metrics.TaskStatus.WithLabelValues(t.ID, string(old)).Set(0)
	metrics.TaskStatus.WithLabelValues(t.ID, string(status)).Set(1)
}
