// Package frame encodes and decodes the WebSocket data frames exchanged with
// clients. Only final text frames are produced, and only the 7-bit and
// 16-bit payload length forms are supported.
package frame

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gobwas/ws"
)

const (
	// MaxPayloadLength is the largest payload expressible with the 16-bit
	// extended length form.
	MaxPayloadLength = 65535

	lengthSelector64 = 127
)

var (
	// ErrUnsupportedLength is returned for payloads that need the 64-bit
	// extended length form.
	ErrUnsupportedLength = errors.New("frame: unsupported payload length")

	// ErrShortFrame is returned when the input ends before the header or the
	// declared payload is complete.
	ErrShortFrame = errors.New("frame: truncated frame")
)

// Encode wraps payload into an unmasked final text frame.
func Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrUnsupportedLength, len(payload))
	}

	h := ws.Header{
		Fin:    true,
		OpCode: ws.OpText,
		Length: int64(len(payload)),
	}

	buf := bytes.NewBuffer(make([]byte, 0, ws.HeaderSize(h)+len(payload)))
	if err := ws.WriteHeader(buf, h); err != nil {
		return nil, fmt.Errorf("failed to write frame header: %w", err)
	}
	buf.Write(payload)

	return buf.Bytes(), nil
}

// Decode extracts the payload of a single frame, unmasking it when the mask
// bit is set. The returned slice does not alias data.
func Decode(data []byte) ([]byte, error) {
	h, offset, err := readHeader(data)
	if err != nil {
		return nil, err
	}
	if h.Length > int64(len(data)-offset) {
		return nil, fmt.Errorf("%w: declared %d bytes, have %d", ErrShortFrame, h.Length, len(data)-offset)
	}

	payload := make([]byte, h.Length)
	copy(payload, data[offset:])

	if h.Masked {
		ws.Cipher(payload, h.Mask, 0)
	}

	return payload, nil
}

// Size returns the total length in bytes, header included, of the frame
// that starts at data. It returns ErrShortFrame when data does not yet hold
// the complete header, so callers can read more and retry.
func Size(data []byte) (int, error) {
	h, offset, err := readHeader(data)
	if err != nil {
		return 0, err
	}
	return offset + int(h.Length), nil
}

// readHeader parses the header at the start of data and returns it with its
// encoded length.
func readHeader(data []byte) (ws.Header, int, error) {
	if len(data) < 2 {
		return ws.Header{}, 0, ErrShortFrame
	}
	// Reject the 64-bit form before the header reader looks at the
	// extended length bytes.
	if data[1]&0x7f == lengthSelector64 {
		return ws.Header{}, 0, ErrUnsupportedLength
	}

	r := bytes.NewReader(data)
	h, err := ws.ReadHeader(r)
	if err != nil {
		return ws.Header{}, 0, fmt.Errorf("%w: %v", ErrShortFrame, err)
	}
	return h, len(data) - r.Len(), nil
}
