// Package backendclient implements the frontend's remote-call client to the
// backend dispatcher: connection-per-call, connect retry, and an overall
// I/O deadline per exchange.
package backendclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"scrapeforge.xyz/orchestrator/internal/wire"
)

// ErrConnectFailed is returned when the connect phase exhausts its retries.
var ErrConnectFailed = errors.New("backendclient: connect failed")

// ErrTimeout is returned when the overall call deadline expires.
var ErrTimeout = errors.New("backendclient: timeout")

// ErrProtocolError is returned for a malformed or unexpected response frame.
var ErrProtocolError = errors.New("backendclient: protocol error")

// RemoteError wraps an `error`-typed response frame from the backend.
type RemoteError struct {
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("backendclient: remote error: %s", e.Message)
}

// Client calls a single backend dispatcher over TCP using the length-prefixed
// wire protocol. One Client instance is safe for concurrent use — it opens
// a fresh connection per call.
type Client struct {
	Host string
	Port int

	// ConnectTimeout bounds each individual dial attempt.
	ConnectTimeout time.Duration
	// CallTimeout is measured from the start of Call and bounds the write and
	// read. The connect phase is bounded by ConnectTimeout, MaxRetries and
	// RetryBackoff instead; time it spends counts against CallTimeout.
	CallTimeout time.Duration
	// MaxRetries is the number of connect attempts before giving up.
	MaxRetries int
	// RetryBackoff is the fixed delay between connect attempts.
	RetryBackoff time.Duration
}

// NewClient returns a Client configured with the defaults from the wire
// protocol contract: 30s connect/call deadlines, 3 connect attempts, 1s backoff.
func NewClient(host string, port int) *Client {
	return &Client{
		Host:           host,
		Port:           port,
		ConnectTimeout: 30 * time.Second,
		CallTimeout:    30 * time.Second,
		MaxRetries:     3,
		RetryBackoff:   1 * time.Second,
	}
}

// Call opens a connection, writes one request frame, reads one response
// frame, and closes the socket. It returns the raw "data" payload of a
// "response" frame, or an error for any other outcome.
func (c *Client) Call(msgType string, data any) (json.RawMessage, error) {
	deadline := time.Now().Add(c.CallTimeout)

	conn, err := c.dialWithRetry()
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := conn.SetDeadline(deadline); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProtocolError, err)
	}

	if err := wire.WriteFrame(conn, msgType, data); err != nil {
		if isDeadlineExceeded(err) {
			return nil, ErrTimeout
		}
		return nil, fmt.Errorf("%w: write failed: %v", ErrProtocolError, err)
	}

	respType, raw, err := wire.Decode(conn)
	if err != nil {
		if isDeadlineExceeded(err) {
			return nil, ErrTimeout
		}
		if errors.Is(err, wire.ErrConnectionClosed) {
			return nil, fmt.Errorf("%w: %v", ErrProtocolError, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrProtocolError, err)
	}

	switch respType {
	case wire.TypeResponse:
		return raw, nil
	case wire.TypeError:
		var payload struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, fmt.Errorf("%w: unparsable error payload: %v", ErrProtocolError, err)
		}
		return nil, &RemoteError{Message: payload.Error}
	default:
		return nil, fmt.Errorf("%w: unexpected response type %q", ErrProtocolError, respType)
	}
}

func (c *Client) dialWithRetry() (net.Conn, error) {
	addr := net.JoinHostPort(c.Host, portString(c.Port))

	var lastErr error
	attempts := c.MaxRetries
	if attempts <= 0 {
		attempts = 1
	}
	for attempt := 1; attempt <= attempts; attempt++ {
		conn, err := net.DialTimeout("tcp", addr, c.ConnectTimeout)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		slog.Warn("backend connect attempt failed", "addr", addr, "attempt", attempt, "error", err)
		if attempt < attempts {
			time.Sleep(c.RetryBackoff)
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrConnectFailed, lastErr)
}

func isDeadlineExceeded(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func portString(port int) string {
	return fmt.Sprintf("%d", port)
}
