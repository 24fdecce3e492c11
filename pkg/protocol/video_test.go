package protocol

import (
	"bytes"
	"testing"
)

func TestVideoHeaderRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		frame VideoFrameData
	}{
		{
			name: "h264_keyframe",
			frame: VideoFrameData{
				CodecID: CodecH264, IsKeyFrame: true,
				Width: 1920, Height: 1080, VirtualWidth: 1920, VirtualHeight: 1088,
				FrameType: 5, Sequence: 1, Timestamp: 1702000000000,
				Data: []byte{0x00, 0x00, 0x00, 0x01, 0x65, 0x88},
			},
		},
		{
			name: "h265_delta",
			frame: VideoFrameData{
				CodecID: CodecH265, Width: 3840, Height: 2160,
				VirtualWidth: 3840, VirtualHeight: 2160,
				FrameType: 1, Sequence: 0xFFFFFFFF, Timestamp: 0xFFFFFFFFFFFFFFFF,
				Data: []byte{0x00, 0x00, 0x01, 0x02, 0x01},
			},
		},
		{
			name:  "empty_payload",
			frame: VideoFrameData{CodecID: CodecMJPEG, Sequence: 7},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			e := NewEncoder()
			AppendVideoHeader(e, &tc.frame)
			if e.Len() != VideoHeaderSize {
				t.Fatalf("header length = %d, want %d", e.Len(), VideoHeaderSize)
			}
			e.WriteBytes(tc.frame.Data)

			got, off, err := ParseVideoFrameHeader(e.Bytes())
			if err != nil {
				t.Fatalf("ParseVideoFrameHeader() error = %v", err)
			}
			if off != VideoHeaderSize {
				t.Errorf("offset = %d, want %d", off, VideoHeaderSize)
			}
			got.Data = e.Bytes()[off:]
			assertVideoEqual(t, &got, &tc.frame)

			decoded, ok := Decode(EncodeVideoFrame(&tc.frame)).(*VideoFrameData)
			if !ok {
				t.Fatalf("Decode() did not return *VideoFrameData")
			}
			assertVideoEqual(t, decoded, &tc.frame)
		})
	}
}

func assertVideoEqual(t *testing.T, got, want *VideoFrameData) {
	t.Helper()
	if got.CodecID != want.CodecID || got.IsKeyFrame != want.IsKeyFrame ||
		got.Width != want.Width || got.Height != want.Height ||
		got.VirtualWidth != want.VirtualWidth || got.VirtualHeight != want.VirtualHeight ||
		got.FrameType != want.FrameType || got.Sequence != want.Sequence ||
		got.Timestamp != want.Timestamp {
		t.Errorf("header = %+v, want %+v", got, want)
	}
	if !bytes.Equal(got.Data, want.Data) {
		t.Errorf("Data = % x, want % x", got.Data, want.Data)
	}
}

func TestParseVideoFrameHeaderShort(t *testing.T) {
	for n := 0; n < VideoHeaderSize; n++ {
		if _, _, err := ParseVideoFrameHeader(make([]byte, n)); err == nil {
			t.Errorf("ParseVideoFrameHeader(%d bytes) error = nil", n)
		}
	}
}

func TestVideoFrameClone(t *testing.T) {
	v := VideoFrameData{Sequence: 3, Data: []byte{1, 2, 3}}
	c := v.Clone()
	c.Data[0] = 9
	if v.Data[0] != 1 {
		t.Error("Clone() shares Data with the original")
	}
}

func TestCodecString(t *testing.T) {
	if CodecH264.String() != "H264" || CodecH265.String() != "H265" || Codec(77).String() != "Unknown" {
		t.Error("Codec.String() mismatch")
	}
}
