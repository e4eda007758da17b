/*
 * jnm - a JVM class-file decoder and bytecode translator
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 * Big-endian primitive reader/writer for the class-file format.
 */

package classfile

import (
	"encoding/binary"
	"math"
)

// Reader is a cursor over an in-memory class-file buffer. It exposes
// fixed-width big-endian reads and fails with TruncatedInput rather than
// panicking when the buffer runs out.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for cursor-style reads starting at offset 0.
func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current cursor offset.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

func (r *Reader) need(n int) error {
	if r.Remaining() < n {
		return &TruncatedInput{Wanted: n, Available: r.Remaining()}
	}
	return nil
}

// Bytes reads exactly n raw bytes and advances the cursor.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if err := r.need(n); err != nil {
		return nil, err
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// U1 reads an unsigned 8-bit value.
func (r *Reader) U1() (byte, error) {
	b, err := r.Bytes(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

// U2 reads an unsigned big-endian 16-bit value.
func (r *Reader) U2() (uint16, error) {
	b, err := r.Bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b), nil
}

// S2 reads a signed big-endian 16-bit value.
func (r *Reader) S2() (int16, error) {
	v, err := r.U2()
	return int16(v), err
}

// U4 reads an unsigned big-endian 32-bit value.
func (r *Reader) U4() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// S4 reads a signed big-endian 32-bit value.
func (r *Reader) S4() (int32, error) {
	v, err := r.U4()
	return int32(v), err
}

// U8 reads an unsigned big-endian 64-bit value.
func (r *Reader) U8() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b), nil
}

// S8 reads a signed big-endian 64-bit value.
func (r *Reader) S8() (int64, error) {
	v, err := r.U8()
	return int64(v), err
}

// F4 reads an IEEE-754 32-bit float.
func (r *Reader) F4() (float32, error) {
	v, err := r.U4()
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(v), nil
}

// F8 reads an IEEE-754 64-bit float.
func (r *Reader) F8() (float64, error) {
	v, err := r.U8()
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(v), nil
}

// Writer accumulates big-endian output mirroring Reader's grammar. Used by
// every Serialize method so that decode/encode stays symmetric.
type Writer struct {
	buf []byte
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer { return &Writer{} }

// Bytes returns the accumulated output.
func (w *Writer) Bytes() []byte { return w.buf }

// Raw appends b verbatim.
func (w *Writer) Raw(b []byte) { w.buf = append(w.buf, b...) }

// U1 appends an unsigned 8-bit value.
func (w *Writer) U1(v byte) { w.buf = append(w.buf, v) }

// U2 appends an unsigned big-endian 16-bit value.
func (w *Writer) U2(v uint16) {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// S2 appends a signed big-endian 16-bit value.
func (w *Writer) S2(v int16) { w.U2(uint16(v)) }

// U4 appends an unsigned big-endian 32-bit value.
func (w *Writer) U4(v uint32) {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// S4 appends a signed big-endian 32-bit value.
func (w *Writer) S4(v int32) { w.U4(uint32(v)) }

// U8 appends an unsigned big-endian 64-bit value.
func (w *Writer) U8(v uint64) {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

// S8 appends a signed big-endian 64-bit value.
func (w *Writer) S8(v int64) { w.U8(uint64(v)) }

// F4 appends an IEEE-754 32-bit float.
func (w *Writer) F4(v float32) { w.U4(math.Float32bits(v)) }

// F8 appends an IEEE-754 64-bit float.
func (w *Writer) F8(v float64) { w.U8(math.Float64bits(v)) }
