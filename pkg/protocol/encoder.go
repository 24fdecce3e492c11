package protocol

import "encoding/binary"

// Encoder appends frame fields to a growing buffer. Multi-byte integers are
// big-endian; strings carry a uvarint length prefix.
type Encoder struct {
	buf []byte
}

// NewEncoder returns an encoder with a small initial buffer.
func NewEncoder() *Encoder {
	return NewEncoderWithCap(64)
}

// NewEncoderWithCap returns an encoder whose buffer holds n bytes before
// growing. Size it to the full frame when the payload length is known.
func NewEncoderWithCap(n int) *Encoder {
	return &Encoder{buf: make([]byte, 0, n)}
}

// Bytes returns the encoded frame. It aliases the encoder's buffer.
func (e *Encoder) Bytes() []byte { return e.buf }

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return len(e.buf) }

func (e *Encoder) WriteUint8(v uint8) { e.buf = append(e.buf, v) }

func (e *Encoder) WriteUint16(v uint16) { e.buf = binary.BigEndian.AppendUint16(e.buf, v) }

func (e *Encoder) WriteUint32(v uint32) { e.buf = binary.BigEndian.AppendUint32(e.buf, v) }

func (e *Encoder) WriteUint64(v uint64) { e.buf = binary.BigEndian.AppendUint64(e.buf, v) }

func (e *Encoder) WriteBytes(b []byte) { e.buf = append(e.buf, b...) }

// WriteString writes s with a uvarint length prefix.
func (e *Encoder) WriteString(s string) {
	e.buf = binary.AppendUvarint(e.buf, uint64(len(s)))
	e.buf = append(e.buf, s...)
}
