package stream

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/vango-dev/camlink/pkg/protocol"
)

type renderLog struct {
	seqs []uint32
}

func (l *renderLog) render(v *protocol.VideoFrameData) {
	l.seqs = append(l.seqs, v.Sequence)
}

func vf(seq uint32, key bool) *protocol.VideoFrameData {
	return &protocol.VideoFrameData{
		CodecID:    protocol.CodecH264,
		IsKeyFrame: key,
		Sequence:   seq,
		Data:       []byte{byte(seq)},
	}
}

func equalSeqs(a, b []uint32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestAssemblerDeliversGapsInOrder(t *testing.T) {
	log := &renderLog{}
	a := NewAssembler(log.render, nil, zerolog.Nop(), nil)

	for i, seq := range []uint32{1, 2, 4, 7} {
		if !a.Push(vf(seq, i == 0)) {
			t.Fatalf("Push(%d) not delivered", seq)
		}
	}

	if want := []uint32{1, 2, 4, 7}; !equalSeqs(log.seqs, want) {
		t.Fatalf("rendered %v, want %v", log.seqs, want)
	}
	st := a.Stats()
	if st.Delivered != 4 || st.Gaps != 2 || st.Regressions != 0 || st.LastSeq != 7 {
		t.Fatalf("Stats() = %+v", st)
	}
}

func TestAssemblerRegressionIsDeliveredNotReordered(t *testing.T) {
	log := &renderLog{}
	a := NewAssembler(log.render, nil, zerolog.Nop(), nil)

	for i, seq := range []uint32{10, 12, 11, 11, 12} {
		a.Push(vf(seq, i == 0))
	}
	if want := []uint32{10, 12, 11, 11, 12}; !equalSeqs(log.seqs, want) {
		t.Fatalf("rendered %v, want %v", log.seqs, want)
	}
	if st := a.Stats(); st.Regressions != 1 || st.Gaps != 1 {
		t.Fatalf("Stats() = %+v, want 1 regression and 1 gap", st)
	}
}

func TestAssemblerRepeatedSequenceIsNotARegression(t *testing.T) {
	log := &renderLog{}
	a := NewAssembler(log.render, nil, zerolog.Nop(), nil)

	for i, seq := range []uint32{5, 5, 6, 6} {
		a.Push(vf(seq, i == 0))
	}
	if want := []uint32{5, 5, 6, 6}; !equalSeqs(log.seqs, want) {
		t.Fatalf("rendered %v, want %v", log.seqs, want)
	}
	if st := a.Stats(); st.Regressions != 0 || st.Gaps != 0 || st.Delivered != 4 {
		t.Fatalf("Stats() = %+v, want no anomalies", st)
	}
}

func TestAssemblerWaitsForKeyframe(t *testing.T) {
	log := &renderLog{}
	requests := 0
	a := NewAssembler(log.render, func() error { requests++; return nil }, zerolog.Nop(), nil)

	if a.Push(vf(1, false)) || a.Push(vf(2, false)) {
		t.Fatal("frame before first keyframe was delivered")
	}
	if requests != 1 {
		t.Fatalf("keyframe requests = %d, want 1", requests)
	}
	if _, ok := a.Latest(); ok {
		t.Fatal("Latest() ok before keyframe")
	}

	a.Push(vf(3, true))
	a.Push(vf(4, false))
	if want := []uint32{3, 4}; !equalSeqs(log.seqs, want) {
		t.Fatalf("rendered %v, want %v", log.seqs, want)
	}
	if requests != 1 {
		t.Fatalf("keyframe requests after start = %d, want 1", requests)
	}
	if st := a.Stats(); st.Skipped != 2 || st.Delivered != 2 {
		t.Fatalf("Stats() = %+v", st)
	}
}

func TestAssemblerKeyframeFirstSendsNoRequest(t *testing.T) {
	requests := 0
	a := NewAssembler(nil, func() error { requests++; return nil }, zerolog.Nop(), nil)
	a.Push(vf(1, true))
	a.Push(vf(2, false))
	if requests != 0 {
		t.Fatalf("keyframe requests = %d, want 0", requests)
	}
}

func TestAssemblerRequestFailureIsNotRetried(t *testing.T) {
	requests := 0
	a := NewAssembler(nil, func() error { requests++; return errors.New("not connected") }, zerolog.Nop(), nil)
	a.Push(vf(1, false))
	a.Push(vf(2, false))
	if requests != 1 {
		t.Fatalf("keyframe requests = %d, want 1", requests)
	}
}

func TestAssemblerRestart(t *testing.T) {
	log := &renderLog{}
	requests := 0
	a := NewAssembler(log.render, func() error { requests++; return nil }, zerolog.Nop(), nil)

	a.Push(vf(5, true))
	a.Restart()

	if a.Push(vf(1, false)) {
		t.Fatal("non-keyframe delivered after Restart")
	}
	if requests != 1 {
		t.Fatalf("keyframe requests = %d, want 1", requests)
	}
	a.Push(vf(2, true))
	if st := a.Stats(); st.Regressions != 0 {
		t.Fatalf("sequence restart counted as regression: %+v", st)
	}
	if latest, ok := a.Latest(); !ok || latest.Sequence != 2 {
		t.Fatalf("Latest() = %d, %v", latest.Sequence, ok)
	}
}

func TestAssemblerLatestIsACopy(t *testing.T) {
	a := NewAssembler(nil, nil, zerolog.Nop(), nil)
	v := vf(1, true)
	a.Push(v)
	v.Data[0] = 0xee

	latest, ok := a.Latest()
	if !ok || latest.Data[0] != 1 {
		t.Fatalf("Latest() = %v, %v; want unaffected copy", latest.Data, ok)
	}
	latest.Data[0] = 0xdd
	again, _ := a.Latest()
	if again.Data[0] != 1 {
		t.Fatal("Latest() shares its buffer with callers")
	}
}
