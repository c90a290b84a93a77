package dispatcher

import (
	"context"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scrapeforge.xyz/orchestrator/internal/wire"
)

func TestServer_RoutesImageProcessingOverTCP(t *testing.T) {
	pool, err := NewPool(1)
	require.NoError(t, err)
	defer pool.Close()

	srv := NewServer(pool)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv.listener = ln
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go srv.handleConn(conn)
		}
	}()

	conn, err := net.Dial("tcp", ln.Addr().String())
	require.NoError(t, err)
	defer conn.Close()

	payload, _ := json.Marshal(imageProcessingRequest{URL: "https://example.com", HTMLContent: "<html></html>", MaxImages: 5})
	require.NoError(t, wire.WriteFrame(conn, "image_processing", json.RawMessage(payload)))

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	msgType, data, err := wire.Decode(conn)
	require.NoError(t, err)
	assert.Equal(t, "response", msgType)

	var decoded imageProcessingResponse
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, decoded.Success)
}

func TestServer_UnknownTypeYieldsErrorFrame(t *testing.T) {
	pool, err := NewPool(1)
	require.NoError(t, err)
	defer pool.Close()

	srv := NewServer(pool)
	respType, respData := srv.route("not-a-type", json.RawMessage(`{}`))

	assert.Equal(t, "error", respType)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(respData, &decoded))
	assert.Equal(t, "Unknown task type: not-a-type", decoded["error"])
}

func TestServer_ClosedPoolYieldsErrorFrame(t *testing.T) {
	pool, err := NewPool(1)
	require.NoError(t, err)
	defer pool.Close()
	pool.Close() // force the ErrPoolClosed path

	srv := NewServer(pool)
	respType, respData := srv.route("image_processing", json.RawMessage(`{"timeout":1}`))

	assert.Equal(t, "error", respType)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(respData, &decoded))
	assert.Contains(t, decoded, "error")
}
