package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"scrapeforge.xyz/orchestrator/internal/jobs"
	"scrapeforge.xyz/orchestrator/internal/wire"
)

type screenshotRequest struct {
	URL     string `json:"url"`
	Timeout int    `json:"timeout"`
}

type screenshotResponse struct {
	Screenshot *string `json:"screenshot"`
	Success    bool    `json:"success"`
}

type performanceRequest struct {
	URL     string `json:"url"`
	Timeout int    `json:"timeout"`
}

type performanceResponse struct {
	Performance map[string]float64 `json:"performance"`
	Success     bool               `json:"success"`
}

type imageProcessingRequest struct {
	URL         string `json:"url"`
	HTMLContent string `json:"html_content"`
	MaxImages   int    `json:"max_images"`
}

type imageProcessingResponse struct {
	Thumbnails []string `json:"thumbnails"`
	Count      int      `json:"count"`
	Success    bool     `json:"success"`
}

// RunWorker is the entry point a re-exec'd worker subprocess runs instead of
// the normal CLI. It reads one job request per frame from in, executes it,
// and writes exactly one response frame to out, looping until in is closed.
// A panic inside a job is recovered and reported as a failed job rather than
// crashing the worker, mirroring the "uncaught exception" case for defense
// in depth — the dispatcher's deadline is the primary safety net.
func RunWorker(in io.Reader, out io.Writer) error {
	for {
		msgType, data, err := wire.Decode(in)
		if err != nil {
			if errors.Is(err, wire.ErrConnectionClosed) {
				return nil
			}
			return err
		}

		resp := executeJobSafely(msgType, data)
		if err := wire.WriteFrame(out, "response", resp); err != nil {
			return err
		}
	}
}

func executeJobSafely(jobType string, data json.RawMessage) (result json.RawMessage) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("worker job panicked", "type", jobType, "panic", r)
			result, _ = json.Marshal(map[string]any{"error": fmt.Sprintf("%v", r), "success": false})
		}
	}()
	return executeJob(jobType, data)
}

func executeJob(jobType string, data json.RawMessage) json.RawMessage {
	switch jobType {
	case "screenshot":
		var req screenshotRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return raw(screenshotResponse{Success: false})
		}
		shot, err := jobs.Screenshot(context.Background(), req.URL, timeoutDuration(req.Timeout))
		if err != nil {
			slog.Warn("screenshot job failed", "url", req.URL, "error", err)
			return raw(screenshotResponse{Success: false})
		}
		return raw(screenshotResponse{Screenshot: &shot, Success: true})

	case "performance":
		var req performanceRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return raw(performanceResponse{Success: false})
		}
		metrics, err := jobs.Performance(context.Background(), req.URL, timeoutDuration(req.Timeout))
		if err != nil {
			slog.Warn("performance job failed", "url", req.URL, "error", err)
			return raw(performanceResponse{Success: false})
		}
		return raw(performanceResponse{Performance: metrics, Success: true})

	case "image_processing":
		var req imageProcessingRequest
		if err := json.Unmarshal(data, &req); err != nil {
			return raw(imageProcessingResponse{Thumbnails: []string{}, Success: true})
		}
		maxImages := req.MaxImages
		if maxImages <= 0 {
			maxImages = 5
		}
		thumbs, count := jobs.ProcessImages(context.Background(), req.URL, req.HTMLContent, maxImages)
		return raw(imageProcessingResponse{Thumbnails: thumbs, Count: count, Success: true})

	default:
		return raw(map[string]any{"error": fmt.Sprintf("Unknown task type: %s", jobType), "success": false})
	}
}

func raw(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage(`{"success":false}`)
	}
	return b
}

func timeoutDuration(seconds int) time.Duration {
	if seconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(seconds) * time.Second
}
