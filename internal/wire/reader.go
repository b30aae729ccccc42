// Package wire implements a cursor-based little-endian byte reader and
// writer over a contiguous buffer. It is the lowest layer of the codec:
// every scalar type the schema package knows about has a matching typed
// read/write pair here.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf16"
)

// Reader wraps an existing byte buffer and tracks a read cursor. It does
// not copy the backing buffer on construction; ReadBytes returns a copy of
// the bytes it reads.
type Reader struct {
	buf []byte
	pos int
}

// NewReader constructs a Reader positioned at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Len returns the total buffer length.
func (r *Reader) Len() int { return len(r.buf) }

// Pos returns the current cursor position.
func (r *Reader) Pos() int { return r.pos }

// Seek sets the cursor to an absolute position.
func (r *Reader) Seek(n int) { r.pos = n }

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) { r.pos += n }

func (r *Reader) require(n int) error {
	if r.pos < 0 || r.pos+n > len(r.buf) {
		return fmt.Errorf("wire: read past end of buffer: pos=%d need=%d len=%d", r.pos, n, len(r.buf))
	}
	return nil
}

func (r *Reader) ReadBool() (bool, error) {
	v, err := r.ReadByte()
	return v != 0, err
}

func (r *Reader) ReadByte() (byte, error) {
	if err := r.require(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *Reader) ReadInt16() (int16, error) {
	v, err := r.ReadUint16()
	return int16(v), err
}

func (r *Reader) ReadUint16() (uint16, error) {
	if err := r.require(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadUint32() (uint32, error) {
	if err := r.require(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *Reader) ReadInt64() (int64, error) {
	v, err := r.ReadUint64()
	return int64(v), err
}

func (r *Reader) ReadUint64() (uint64, error) {
	if err := r.require(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

func (r *Reader) ReadFloat64() (float64, error) {
	v, err := r.ReadUint64()
	return math.Float64frombits(v), err
}

// ReadBytes returns a copy of the next n bytes and advances the cursor.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("wire: negative byte count %d", n)
	}
	if err := r.require(n); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}

// ReadString accumulates UTF-16LE code units until a 16-bit zero terminator
// and decodes them (including surrogate pairs) into a Go string.
func (r *Reader) ReadString() (string, error) {
	var units []uint16
	for {
		u, err := r.ReadUint16()
		if err != nil {
			return "", err
		}
		if u == 0 {
			break
		}
		units = append(units, u)
	}
	return string(utf16.Decode(units)), nil
}
