package dispatcher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"scrapeforge.xyz/orchestrator/internal/metrics"
	"scrapeforge.xyz/orchestrator/internal/wire"
)

// jobDeadlineSlack is added to the caller-provided timeout to derive the
// dispatcher's hard wall-clock bound on job completion.
const jobDeadlineSlack = 10 * time.Second

// Server is the backend's accept loop. Each connection is serviced by its
// own goroutine — Go's analogue of the spec's thread-per-connection model —
// and routes its single request to the process pool before closing.
type Server struct {
	pool     *Pool
	listener net.Listener
}

// NewServer wires an accept loop to an explicitly-owned pool; the pool is
// never global state.
func NewServer(pool *Pool) *Server {
	return &Server{pool: pool}
}

// Serve listens on addr and accepts connections until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("dispatcher: listen %s: %w", addr, err)
	}
	s.listener = ln
	slog.Info("backend dispatcher listening", "addr", addr)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			var netErr net.Error
			if errors.As(err, &netErr) && !netErr.Timeout() {
				return fmt.Errorf("dispatcher: accept: %w", err)
			}
			continue
		}
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	msgType, data, err := wire.Decode(conn)
	if err != nil {
		slog.Warn("dispatcher: malformed request", "error", err, "remote", conn.RemoteAddr())
		return
	}

	respType, respData := s.route(msgType, data)
	if err := wire.WriteFrame(conn, respType, respData); err != nil {
		slog.Warn("dispatcher: failed to write response", "error", err, "remote", conn.RemoteAddr())
	}
}

func (s *Server) route(msgType string, data json.RawMessage) (string, json.RawMessage) {
	switch msgType {
	case "screenshot", "performance", "image_processing":
		_, deadline := jobDeadline(data)
		start := time.Now()
		respData, err := s.pool.Submit(msgType, data, deadline)
		metrics.DispatcherJobDurationSeconds.WithLabelValues(msgType).Observe(time.Since(start).Seconds())
		if err != nil {
			outcome := "failure"
			if errors.Is(err, ErrJobTimeout) {
				outcome = "timeout"
			}
			metrics.DispatcherJobsTotal.WithLabelValues(msgType, outcome).Inc()
			if errors.Is(err, ErrJobTimeout) {
				return "error", errorPayload("Task timeout")
			}
			return "error", errorPayload(err.Error())
		}
		metrics.DispatcherJobsTotal.WithLabelValues(msgType, "success").Inc()
		return "response", respData

	default:
		return "error", errorPayload(fmt.Sprintf("Unknown task type: %s", msgType))
	}
}

func jobDeadline(data json.RawMessage) (int, time.Duration) {
	var partial struct {
		Timeout int `json:"timeout"`
	}
	_ = json.Unmarshal(data, &partial)
	timeout := partial.Timeout
	if timeout <= 0 {
		timeout = 30
	}
	return timeout, time.Duration(timeout)*time.Second + jobDeadlineSlack
}

func errorPayload(msg string) json.RawMessage {
	b, err := json.Marshal(map[string]any{"error": msg, "success": false})
	if err != nil {
		return json.RawMessage(`{"error":"internal error","success":false}`)
	}
	return b
}
