package dispatcher

import (
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMain lets the test binary double as a worker subprocess: NewPool
// re-execs os.Args[0], and when invoked with WorkerModeFlag the process
// should behave like a worker rather than running the test suite.
func TestMain(m *testing.M) {
	if len(os.Args) > 1 && os.Args[1] == WorkerModeFlag {
		_ = RunWorker(os.Stdin, os.Stdout)
		os.Exit(0)
	}
	os.Exit(m.Run())
}

func TestPool_SubmitRoundTripsImageProcessing(t *testing.T) {
	pool, err := NewPool(2)
	require.NoError(t, err)
	defer pool.Close()

	payload, err := json.Marshal(imageProcessingRequest{
		URL:         "https://example.com",
		HTMLContent: "<html></html>",
		MaxImages:   5,
	})
	require.NoError(t, err)

	resp, err := pool.Submit("image_processing", payload, 5*time.Second)
	require.NoError(t, err)

	var decoded imageProcessingResponse
	require.NoError(t, json.Unmarshal(resp, &decoded))
	assert.True(t, decoded.Success)
}

func TestPool_UnknownTypeReturnedByWorker(t *testing.T) {
	pool, err := NewPool(1)
	require.NoError(t, err)
	defer pool.Close()

	resp, err := pool.Submit("bogus", json.RawMessage(`{}`), 5*time.Second)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(resp, &decoded))
	assert.Equal(t, "Unknown task type: bogus", decoded["error"])
}

func TestPool_SubmitAfterCloseFails(t *testing.T) {
	pool, err := NewPool(1)
	require.NoError(t, err)
	pool.Close()

	_, err = pool.Submit("image_processing", json.RawMessage(`{}`), time.Second)
	assert.ErrorIs(t, err, ErrPoolClosed)
}
