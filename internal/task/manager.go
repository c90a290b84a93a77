package task

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	uuid "github.com/satori/go.uuid"

	"scrapeforge.xyz/orchestrator/internal/metrics"
)

// notReadyMarker is the sentinel returned by GetResult for a non-terminal task.
type notReadyMarker struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

// Registry is the in-memory store from task ID to task record. All
// operations take a single exclusive lock; critical sections do no I/O.
type Registry struct {
	mu       sync.Mutex
	tasks    map[string]*Task
	maxTasks int
}

// NewRegistry creates a registry with the given eviction ceiling. A maxTasks
// of zero or less falls back to 1000, matching the documented default.
func NewRegistry(maxTasks int) *Registry {
	if maxTasks <= 0 {
		maxTasks = 1000
	}
	return &Registry{
		tasks:    make(map[string]*Task),
		maxTasks: maxTasks,
	}
}

// Create allocates a fresh task ID, inserts a pending task, and evicts the
// oldest-by-updatedAt tasks if the registry is now over capacity.
func (r *Registry) Create(url string) *Task {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.NewV4().String()
	now := time.Now()
	t := newTask(id, url, now)
	r.tasks[id] = t
	metrics.TasksCreatedTotal.Inc()

	r.evictLocked()
	return t
}

// evictLocked drops the oldest-by-updatedAt tasks until the registry is at
// or under capacity. Must be called with mu held.
func (r *Registry) evictLocked() {
	if len(r.tasks) <= r.maxTasks {
		return
	}

	ids := make([]string, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.tasks[ids[i]].UpdatedAt.Before(r.tasks[ids[j]].UpdatedAt)
	})

	overflow := len(r.tasks) - r.maxTasks
	for i := 0; i < overflow; i++ {
		slog.Info("evicting task", "task_id", ids[i])
		delete(r.tasks, ids[i])
		metrics.TasksEvictedTotal.Inc()
	}
}

// Advance sets status if the task exists and is non-terminal. No-op otherwise.
func (r *Registry) Advance(id string, status Status) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return
	}
	t.advance(status, time.Now())
}

// SetResult sets result and advances the task to completed.
func (r *Registry) SetResult(id string, result *Result) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return
	}
	t.setResult(result, time.Now())
}

// SetError sets error and advances the task to failed.
func (r *Registry) SetError(id string, msg string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return
	}
	t.setError(msg, time.Now())
}

// GetStatus returns a status snapshot, or false if the task is unknown.
func (r *Registry) GetStatus(id string) (StatusSnapshot, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return StatusSnapshot{}, false
	}
	return t.snapshot(), true
}

// GetResult returns the full result payload for a completed task, the error
// record for a failed task, a "not ready" marker for non-terminal states, or
// false if the task is unknown.
func (r *Registry) GetResult(id string) (any, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, false
	}

	switch t.Status {
	case StatusCompleted:
		return t.Result, true
	case StatusFailed:
		return map[string]string{"error": t.Error, "status": string(t.Status)}, true
	default:
		return notReadyMarker{
			Status:  t.Status,
			Message: "Task is still processing",
		}, true
	}
}

// Counts returns the number of tasks currently in each status.
func (r *Registry) Counts() map[Status]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	counts := make(map[Status]int)
	for _, t := range r.tasks {
		counts[t.Status]++
	}
	return counts
}

// Total returns the current number of tasks held in the registry.
func (r *Registry) Total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}
