package protocol

import (
	"encoding/base64"
	"fmt"
	"strings"
	"unicode/utf8"
)

// imageField is the JSON key carrying base64 image data in peer images.
const imageField = "data"

// EncodeBase64 encodes b with standard padded base64.
func EncodeBase64(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}

// DecodeBase64 decodes standard or URL-safe base64, padded or not. A data
// URL prefix ("data:image/jpeg;base64,") is stripped first.
func DecodeBase64(s string) ([]byte, error) {
	if i := strings.Index(s, ";base64,"); i >= 0 && strings.HasPrefix(s, "data:") {
		s = s[i+len(";base64,"):]
	}
	s = strings.TrimSpace(s)

	encodings := []*base64.Encoding{
		base64.StdEncoding,
		base64.RawStdEncoding,
		base64.URLEncoding,
		base64.RawURLEncoding,
	}
	var firstErr error
	for _, enc := range encodings {
		b, err := enc.DecodeString(s)
		if err == nil {
			return b, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return nil, fmt.Errorf("protocol: base64: %w", firstErr)
}

// ValidUTF8 reports whether b is valid UTF-8.
func ValidUTF8(b []byte) bool {
	return utf8.Valid(b)
}

// SanitizeUTF8 returns s with invalid UTF-8 sequences replaced by U+FFFD.
func SanitizeUTF8(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, "�")
}

// PeerImage extracts the image bytes of a FramePeerImage message.
func (m *ControlMessage) PeerImage() ([]byte, error) {
	var body map[string]any
	if err := m.Unmarshal(&body); err != nil {
		return nil, err
	}
	s, ok := body[imageField].(string)
	if !ok {
		return nil, fmt.Errorf("protocol: peer image without %q field", imageField)
	}
	return DecodeBase64(s)
}
