package protocol

import (
	"bytes"
	"testing"
)

// === Control ===

func BenchmarkEncodeMessage(b *testing.B) {
	body := map[string]any{"CamID": "3", "ChnID": "0", "Speed": 4}
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := EncodeMessage(301, body); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeControl(b *testing.B) {
	frame, err := EncodeMessage(301, map[string]any{"CamID": "3", "ChnID": "0"})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := Decode(frame).(*ControlMessage); !ok {
			b.Fatal("not a control message")
		}
	}
}

func BenchmarkDecodePeerMessage(b *testing.B) {
	frame, err := EncodePeerMessage("peer-42", 301, map[string]any{"x": 1})
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Decode(frame)
	}
}

func BenchmarkDecodeHeartbeat(b *testing.B) {
	frame := EncodeHeartbeat()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Decode(frame)
	}
}

// === Video ===

func BenchmarkEncodeVideoFrame(b *testing.B) {
	v := &VideoFrameData{
		CodecID:    CodecH264,
		IsKeyFrame: true,
		Width:      1920,
		Height:     1080,
		Sequence:   1,
		Data:       bytes.Repeat([]byte{0xAB}, 64*1024),
	}
	b.SetBytes(int64(len(v.Data)))
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		EncodeVideoFrame(v)
	}
}

func BenchmarkDecodeVideoFrame(b *testing.B) {
	frame := EncodeVideoFrame(&VideoFrameData{
		CodecID:  CodecH265,
		Width:    3840,
		Height:   2160,
		Sequence: 99,
		Data:     bytes.Repeat([]byte{0xCD}, 256*1024),
	})
	b.SetBytes(int64(len(frame)))
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, ok := Decode(frame).(*VideoFrameData); !ok {
			b.Fatal("not a video frame")
		}
	}
}
