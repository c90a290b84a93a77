package dispatcher

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecuteJob_UnknownTypeReturnsError(t *testing.T) {
	resp := executeJob("bogus", json.RawMessage(`{}`))

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(resp, &decoded))
	assert.Equal(t, "Unknown task type: bogus", decoded["error"])
	assert.Equal(t, false, decoded["success"])
}

func TestExecuteJob_ImageProcessingAlwaysReportsSuccess(t *testing.T) {
	payload, err := json.Marshal(imageProcessingRequest{
		URL:         "https://example.com",
		HTMLContent: `<html><body></body></html>`,
		MaxImages:   5,
	})
	require.NoError(t, err)

	resp := executeJob("image_processing", payload)

	var decoded imageProcessingResponse
	require.NoError(t, json.Unmarshal(resp, &decoded))
	assert.True(t, decoded.Success)
	assert.Equal(t, 0, decoded.Count)
	assert.Empty(t, decoded.Thumbnails)
}

func TestExecuteJob_MalformedPayloadDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		executeJob("screenshot", json.RawMessage(`not json`))
	})
}

func TestExecuteJobSafely_FailedScreenshotReportsSuccessField(t *testing.T) {
	resp := executeJobSafely("screenshot", json.RawMessage(`{"url":"","timeout":1}`))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(resp, &decoded))
	assert.Contains(t, decoded, "success")
}
