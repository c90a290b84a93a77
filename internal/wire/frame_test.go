package wire

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type screenshotRequest struct {
	URL     string `json:"url"`
	Timeout int    `json:"timeout"`
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	frame, err := Encode(TypeScreenshot, screenshotRequest{URL: "x", Timeout: 30})
	require.NoError(t, err)

	msgType, raw, err := Decode(bytes.NewReader(frame))
	require.NoError(t, err)
	assert.Equal(t, TypeScreenshot, msgType)

	var got screenshotRequest
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, screenshotRequest{URL: "x", Timeout: 30}, got)
}

func TestDecode_ConcatenatedFrames(t *testing.T) {
	f1, err := Encode(TypeScreenshot, screenshotRequest{URL: "x", Timeout: 30})
	require.NoError(t, err)
	f2, err := Encode(TypeResponse, map[string]any{"success": true, "screenshot": "AAA"})
	require.NoError(t, err)

	var buf bytes.Buffer
	buf.Write(f1)
	buf.Write(f2)

	msgs, err := ReadAllFrames(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, TypeScreenshot, msgs[0].Type)
	assert.Equal(t, TypeResponse, msgs[1].Type)
}

func TestDecode_ShortHeaderIsMalformed(t *testing.T) {
	_, _, err := Decode(bytes.NewReader([]byte{0x00, 0x01}))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestDecode_ConnectionClosedBeforeBody(t *testing.T) {
	frame, err := Encode(TypeScreenshot, screenshotRequest{URL: "x", Timeout: 30})
	require.NoError(t, err)

	truncated := frame[:len(frame)-2]
	_, _, err = Decode(bytes.NewReader(truncated))
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestDecode_EmptyStreamIsConnectionClosed(t *testing.T) {
	_, _, err := Decode(bytes.NewReader(nil))
	assert.ErrorIs(t, err, ErrConnectionClosed)
}

func TestDecode_OversizedLengthIsMalformed(t *testing.T) {
	var header [4]byte
	header[0] = 0xFF
	header[1] = 0xFF
	header[2] = 0xFF
	header[3] = 0xFF
	_, _, err := Decode(bytes.NewReader(header[:]))
	assert.ErrorIs(t, err, ErrMalformedFrame)
}
