package protocol

import (
	"testing"
)

// FuzzDecode tests that decoding arbitrary bytes doesn't panic and always
// yields a Unit.
func FuzzDecode(f *testing.F) {
	// Seed with valid frames of every shape
	ctrl, _ := EncodeMessage(CmdDeviceList, map[string]any{"Page": 1})
	peer, _ := EncodePeerMessage("p1", CmdPTZInfo, nil)
	f.Add(ctrl)
	f.Add(peer)
	f.Add(EncodeHeartbeat())
	f.Add(EncodeVideoFrame(&VideoFrameData{CodecID: CodecH264, Sequence: 1, Data: []byte{0, 0, 1}}))
	f.Add([]byte{})
	f.Add([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})

	f.Fuzz(func(t *testing.T, data []byte) {
		if Decode(data) == nil {
			t.Fatal("Decode returned nil")
		}
	})
}

// FuzzParseVideoFrameHeader tests that header parsing never panics.
func FuzzParseVideoFrameHeader(f *testing.F) {
	e := NewEncoder()
	AppendVideoHeader(e, &VideoFrameData{Width: 640, Height: 480})
	f.Add(e.Bytes())
	f.Add([]byte{1, 2, 3})

	f.Fuzz(func(t *testing.T, data []byte) {
		_, off, err := ParseVideoFrameHeader(data)
		if err == nil && off != VideoHeaderSize {
			t.Fatalf("offset = %d", off)
		}
	})
}

// FuzzDecodeBase64 tests that base64 decoding never panics.
func FuzzDecodeBase64(f *testing.F) {
	f.Add("aGVsbG8=")
	f.Add("data:image/png;base64,aGk")
	f.Add("!!!")

	f.Fuzz(func(t *testing.T, s string) {
		_, _ = DecodeBase64(s)
	})
}
