// Package handshake turns a raw HTTP upgrade request into the server's
// 101 response.
//
// The processor is stateless and looks at a single chunk at a time: a
// request split across several reads is never recognized.
package handshake

import (
	"bytes"
	"crypto/sha1"
	"encoding/base64"

	"github.com/gobwas/httphead"
)

const (
	// keyHeader is matched case-sensitively at the start of a header line.
	keyHeader = "Sec-WebSocket-Key:"

	// KeyLength is the length of a base64 encoded 16-byte nonce.
	KeyLength = 24

	nonceLength = 16
	acceptGUID  = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"
)

// Identity is how the server names itself in the handshake response.
type Identity struct {
	Host string
	Port string
}

// Location returns the ws:// URL advertised to clients.
func (id Identity) Location() string {
	return "ws://" + id.Host + ":" + id.Port
}

// Process looks for the client key in raw and builds the response. It
// reports false when no usable key is present.
func Process(raw []byte, id Identity) ([]byte, bool) {
	key, ok := FindKey(raw)
	if !ok {
		return nil, false
	}
	return Response(id, AcceptKey(key)), true
}

// FindKey returns the value of the Sec-WebSocket-Key header line in raw.
func FindKey(raw []byte) (string, bool) {
	for len(raw) > 0 {
		var line []byte
		if i := bytes.IndexByte(raw, '\n'); i >= 0 {
			line, raw = raw[:i], raw[i+1:]
		} else {
			line, raw = raw, nil
		}
		line = bytes.TrimSuffix(line, []byte{'\r'})

		if !bytes.HasPrefix(line, []byte(keyHeader)) {
			continue
		}

		// ParseHeaderLine canonicalizes the name in place.
		_, value, ok := httphead.ParseHeaderLine(append([]byte(nil), line...))
		if !ok || !validKey(value) {
			return "", false
		}
		return string(value), true
	}
	return "", false
}

func validKey(key []byte) bool {
	if len(key) != KeyLength {
		return false
	}
	nonce := make([]byte, base64.StdEncoding.DecodedLen(len(key)))
	n, err := base64.StdEncoding.Decode(nonce, key)
	return err == nil && n == nonceLength
}

// AcceptKey computes the Sec-WebSocket-Accept value for a client key.
func AcceptKey(key string) string {
	sum := sha1.Sum([]byte(key + acceptGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// Response renders the 101 response sent back to the client.
func Response(id Identity, accept string) []byte {
	var b bytes.Buffer
	b.WriteString("HTTP/1.1 101 Web Socket Protocol Handshake\r\n")
	b.WriteString("Upgrade: websocket\r\n")
	b.WriteString("Connection: Upgrade\r\n")
	b.WriteString("WebSocket-Origin: " + id.Host + "\r\n")
	b.WriteString("WebSocket-Location: " + id.Location() + "\r\n")
	b.WriteString("Sec-WebSocket-Accept:" + accept + "\r\n\r\n")
	return b.Bytes()
}
