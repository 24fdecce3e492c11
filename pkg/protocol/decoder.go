package protocol

import (
	"encoding/binary"
	"errors"
	"io"
)

// MaxPeerIDLength bounds the length prefix of a peer identifier.
const MaxPeerIDLength = 1024

var (
	ErrVarintOverflow     = errors.New("protocol: varint overflow")
	ErrAllocationTooLarge = errors.New("protocol: allocation size exceeds limit")
)

// Decoder reads frame fields from a byte slice. Reads past the end return
// io.ErrUnexpectedEOF and leave the position unchanged.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder returns a decoder over buf. Slices it returns alias buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.buf) - d.pos }

// Position returns the offset of the next unread byte.
func (d *Decoder) Position() int { return d.pos }

// Rest returns the unread bytes.
func (d *Decoder) Rest() []byte { return d.buf[d.pos:] }

func (d *Decoder) take(n int) ([]byte, error) {
	if n < 0 || n > d.Remaining() {
		return nil, io.ErrUnexpectedEOF
	}
	b := d.buf[d.pos : d.pos+n]
	d.pos += n
	return b, nil
}

func (d *Decoder) ReadUint8() (uint8, error) {
	b, err := d.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Decoder) ReadUint16() (uint16, error) {
	b, err := d.take(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

func (d *Decoder) ReadUint32() (uint32, error) {
	b, err := d.take(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

func (d *Decoder) ReadUint64() (uint64, error) {
	b, err := d.take(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// ReadBytes reads exactly n bytes.
func (d *Decoder) ReadBytes(n int) ([]byte, error) {
	return d.take(n)
}

// ReadString reads a uvarint length-prefixed string of at most max bytes.
func (d *Decoder) ReadString(max int) (string, error) {
	n, size := binary.Uvarint(d.Rest())
	switch {
	case size == 0:
		return "", io.ErrUnexpectedEOF
	case size < 0:
		return "", ErrVarintOverflow
	case n > uint64(max):
		return "", ErrAllocationTooLarge
	case n > uint64(d.Remaining()-size):
		return "", io.ErrUnexpectedEOF
	}
	d.pos += size
	b, _ := d.take(int(n))
	return string(b), nil
}
