// Package wire implements the length-prefixed JSON framing protocol shared
// between the frontend and backend tiers.
package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MaxFrameSize bounds the length prefix to guard against a malicious or
// corrupt peer claiming an unbounded payload.
const MaxFrameSize = 64 * 1024 * 1024 // 64 MiB

const headerSize = 4

// Known message types.
const (
	TypeScreenshot      = "screenshot"
	TypePerformance     = "performance"
	TypeImageProcessing = "image_processing"
	TypeResponse        = "response"
	TypeError           = "error"
)

// ErrMalformedFrame is returned when the header is short, the declared
// length exceeds MaxFrameSize, or the payload fails to parse as JSON.
var ErrMalformedFrame = errors.New("wire: malformed frame")

// ErrConnectionClosed is returned when the peer closes the connection before
// the declared payload length has been fully read.
var ErrConnectionClosed = errors.New("wire: connection closed")

// Message is the decoded form of a frame's JSON body.
type Message struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Encode produces a single frame: a 4-byte big-endian length prefix followed
// by the UTF-8 JSON body {"type": T, "data": D}.
func Encode(msgType string, data any) ([]byte, error) {
	rawData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("wire: marshal data: %w", err)
	}

	body, err := json.Marshal(Message{Type: msgType, Data: rawData})
	if err != nil {
		return nil, fmt.Errorf("wire: marshal envelope: %w", err)
	}
	if len(body) > MaxFrameSize {
		return nil, fmt.Errorf("%w: payload of %d bytes exceeds max %d", ErrMalformedFrame, len(body), MaxFrameSize)
	}

	frame := make([]byte, headerSize+len(body))
	binary.BigEndian.PutUint32(frame[:headerSize], uint32(len(body)))
	copy(frame[headerSize:], body)
	return frame, nil
}

// WriteFrame encodes and writes a single frame to w.
func WriteFrame(w io.Writer, msgType string, data any) error {
	frame, err := Encode(msgType, data)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// Decode reads exactly one frame from r: 4 bytes of big-endian length L,
// then L bytes of JSON body with required keys "type" and "data".
func Decode(r io.Reader) (string, json.RawMessage, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if errors.Is(err, io.EOF) {
			return "", nil, ErrConnectionClosed
		}
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return "", nil, fmt.Errorf("%w: short header", ErrMalformedFrame)
		}
		return "", nil, err
	}

	length := binary.BigEndian.Uint32(header[:])
	if length > MaxFrameSize {
		return "", nil, fmt.Errorf("%w: length %d exceeds max %d", ErrMalformedFrame, length, MaxFrameSize)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return "", nil, ErrConnectionClosed
		}
		return "", nil, err
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformedFrame, err)
	}
	if msg.Type == "" {
		return "", nil, fmt.Errorf("%w: missing 'type' key", ErrMalformedFrame)
	}
	if msg.Data == nil {
		return "", nil, fmt.Errorf("%w: missing 'data' key", ErrMalformedFrame)
	}
	return msg.Type, msg.Data, nil
}

// DecodeInto decodes a frame and unmarshals its data field into v.
func DecodeInto(r io.Reader, v any) (string, error) {
	msgType, raw, err := Decode(r)
	if err != nil {
		return "", err
	}
	if v != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, v); err != nil {
			return "", fmt.Errorf("%w: %v", ErrMalformedFrame, err)
		}
	}
	return msgType, nil
}

// ReadAllFrames decodes every frame present in a closed byte buffer; used by
// tests that verify round-trip behavior over concatenated frames.
func ReadAllFrames(data []byte) ([]Message, error) {
	r := bytes.NewReader(data)
	var out []Message
	for r.Len() > 0 {
		msgType, raw, err := Decode(r)
		if err != nil {
			return out, err
		}
		out = append(out, Message{Type: msgType, Data: raw})
	}
	return out, nil
}
